package assessment

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/educore/core"
)

// CBC rubric levels
const (
	RubricExceeding   = "EE" // exceeding expectations
	RubricMeeting     = "ME" // meeting expectations
	RubricApproaching = "AE" // approaching expectations
	RubricBelow       = "BE" // below expectations
)

var (
	Rubrics = []string{RubricExceeding, RubricMeeting, RubricApproaching, RubricBelow}

	rubricPoints = map[string]int{RubricExceeding: 4, RubricMeeting: 3, RubricApproaching: 2, RubricBelow: 1}
)

// Assessment is the rubric level a learner reached in a learning area over a term.
type Assessment struct {
	ID           string    `json:"id"`
	SchoolID     string    `json:"school_id"`
	LearnerID    string    `json:"learner_id"`
	LearningArea string    `json:"learning_area"`
	Term         string    `json:"term"`
	Rubric       string    `json:"rubric"`
	Comment      string    `json:"comment,omitempty"`
	AssessedBy   string    `json:"assessed_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

type NewAssessment struct {
	LearnerID    string `json:"learner_id" validate:"required,uuid"`
	LearningArea string `json:"learning_area" validate:"required,max=100"`
	Term         string `json:"term" validate:"required,max=16"`
	Rubric       string `json:"rubric" validate:"required,oneof=EE ME AE BE"`
	Comment      string `json:"comment" validate:"max=255"`
}

func (na *NewAssessment) Validate(validate *validator.Validate) error {
	na.LearnerID = core.CleanString(na.LearnerID, true /* lower */)
	na.LearningArea = core.CleanString(na.LearningArea)
	na.Term = core.CleanString(na.Term)
	na.Rubric = strings.ToUpper(core.CleanString(na.Rubric))
	na.Comment = core.CleanString(na.Comment)
	return validate.Struct(na)
}

type QueryFilter struct {
	LearnerID    string   `query:"learner_id"`
	LearningArea string   `query:"learning_area"`
	Term         string   `query:"term"`
	Rubrics      []string `query:"rubric"`
}

func (qf *QueryFilter) Clean() {
	qf.LearnerID = core.CleanString(qf.LearnerID, true /* lower */)
	qf.LearningArea = core.CleanString(qf.LearningArea)
	qf.Term = core.CleanString(qf.Term)
	for i, r := range qf.Rubrics {
		qf.Rubrics[i] = strings.ToUpper(core.CleanString(r))
	}
}

// ReportCard gathers the assessments of a learner for a term.
type ReportCard struct {
	LearnerID   string       `json:"learner_id"`
	Term        string       `json:"term"`
	Assessments []Assessment `json:"assessments"`
	Points      float64      `json:"points"`  // mean rubric points, 1 (BE) to 4 (EE)
	Overall     string       `json:"overall"` // rubric level of the mean
}

func newReportCard(learnerID, term string, assessments []Assessment) ReportCard {
	card := ReportCard{LearnerID: learnerID, Term: term, Assessments: assessments}
	if len(assessments) == 0 {
		return card
	}

	var total int
	for _, a := range assessments {
		total += rubricPoints[a.Rubric]
	}
	card.Points = float64(total) / float64(len(assessments))

	switch {
	case card.Points >= 3.5:
		card.Overall = RubricExceeding
	case card.Points >= 2.5:
		card.Overall = RubricMeeting
	case card.Points >= 1.5:
		card.Overall = RubricApproaching
	default:
		card.Overall = RubricBelow
	}
	return card
}
