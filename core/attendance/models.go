package attendance

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/educore/core"
)

// Statuses
const (
	StatusPresent = "PRESENT"
	StatusAbsent  = "ABSENT"
	StatusLate    = "LATE"
	StatusExcused = "EXCUSED"
)

var Statuses = []string{StatusPresent, StatusAbsent, StatusLate, StatusExcused}

// Class is a stream of learners of the same grade, e.g. "Grade 4 East".
type Class struct {
	ID        string    `json:"id"`
	SchoolID  string    `json:"school_id"`
	BranchID  string    `json:"branch_id,omitempty"`
	Name      string    `json:"name"`
	Grade     string    `json:"grade"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

type NewClass struct {
	SchoolID string `json:"school_id"`
	BranchID string `json:"branch_id" validate:"omitempty,uuid"`
	Name     string `json:"name" validate:"required,max=100"`
	Grade    string `json:"grade" validate:"required,grade"`
}

func (nc *NewClass) Validate(validate *validator.Validate) error {
	nc.SchoolID = core.CleanString(nc.SchoolID, true /* lower */)
	nc.BranchID = core.CleanString(nc.BranchID, true /* lower */)
	nc.Name = core.CleanString(nc.Name)
	nc.Grade = strings.ToUpper(core.CleanString(nc.Grade))
	return validate.Struct(nc)
}

type ClassFilter struct {
	Search string   `query:"search"`
	Grades []string `query:"grade"`
}

func (cf *ClassFilter) Clean() {
	cf.Search = core.CleanString(cf.Search)
	for i, g := range cf.Grades {
		cf.Grades[i] = strings.ToUpper(core.CleanString(g))
	}
}

// Record is the attendance of one learner on one day. A learner has at most one record a day.
type Record struct {
	ID        string    `json:"id"`
	SchoolID  string    `json:"school_id"`
	ClassID   string    `json:"class_id"`
	LearnerID string    `json:"learner_id"`
	Date      time.Time `json:"date"`
	Status    string    `json:"status"`
	Note      string    `json:"note,omitempty"`
	MarkedBy  string    `json:"marked_by,omitempty"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type Mark struct {
	LearnerID string `json:"learner_id" validate:"required,uuid"`
	Status    string `json:"status" validate:"required,oneof=PRESENT ABSENT LATE EXCUSED"`
	Note      string `json:"note" validate:"max=255"`
}

// Register holds the marks of a class for one day.
type Register struct {
	Date  string `json:"date" validate:"required,datetime=2006-01-02"`
	Marks []Mark `json:"marks" validate:"required,min=1,dive"`
}

func (r *Register) Validate(validate *validator.Validate) error {
	r.Date = core.CleanString(r.Date)
	for i := range r.Marks {
		r.Marks[i].LearnerID = core.CleanString(r.Marks[i].LearnerID, true /* lower */)
		r.Marks[i].Status = strings.ToUpper(core.CleanString(r.Marks[i].Status))
		r.Marks[i].Note = core.CleanString(r.Marks[i].Note)
	}
	return validate.Struct(r)
}

type QueryFilter struct {
	ClassID   string    `query:"class_id"`
	LearnerID string    `query:"learner_id"`
	Statuses  []string  `query:"status"`
	From      time.Time `query:"-"` // date_from
	To        time.Time `query:"-"` // date_to
}

func (qf *QueryFilter) Clean() {
	qf.ClassID = core.CleanString(qf.ClassID, true /* lower */)
	qf.LearnerID = core.CleanString(qf.LearnerID, true /* lower */)
	for i, s := range qf.Statuses {
		qf.Statuses[i] = strings.ToUpper(core.CleanString(s))
	}
}

// Summary counts the records matching a filter by status.
type Summary struct {
	Days    int     `json:"days"`
	Present int     `json:"present"`
	Absent  int     `json:"absent"`
	Late    int     `json:"late"`
	Excused int     `json:"excused"`
	Rate    float64 `json:"rate"` // share of days present or late
}

func summarize(records []Record) Summary {
	var sum Summary
	for _, rec := range records {
		sum.Days++
		switch rec.Status {
		case StatusPresent:
			sum.Present++
		case StatusAbsent:
			sum.Absent++
		case StatusLate:
			sum.Late++
		case StatusExcused:
			sum.Excused++
		}
	}
	if sum.Days > 0 {
		sum.Rate = float64(sum.Present+sum.Late) / float64(sum.Days)
	}
	return sum
}
