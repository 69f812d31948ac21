// Package assessment records how learners perform against the CBC rubric.
package assessment

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/educore/core"
	"github.com/trezcool/educore/core/learner"
	"github.com/trezcool/educore/core/tenant"
)

var (
	// errors
	ErrNotFound       = errors.New("assessment not found")
	ErrUnknownLearner = errors.New("learner not found")
)

type (
	Repository interface {
		CreateAssessment(ctx context.Context, a Assessment) (Assessment, error)
		// FindAssessment returns the assessment of a learner in a learning area for a term.
		FindAssessment(ctx context.Context, learnerID, learningArea, term string) (Assessment, error)
		QueryAssessments(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Assessment, error)
		GetAssessment(ctx context.Context, id string) (Assessment, error)
		UpdateAssessment(ctx context.Context, a Assessment) (Assessment, error)
		DeleteAssessments(ctx context.Context, ids ...string) (int, error)
	}

	// LearnerGetter finds the learners being assessed.
	LearnerGetter interface {
		GetByID(ctx context.Context, id string) (learner.Learner, error)
	}

	Service struct {
		repo     Repository
		learners LearnerGetter
	}
)

func NewService(repo Repository, learners LearnerGetter) *Service {
	return &Service{repo: repo, learners: learners}
}

// Record saves the rubric level of a learner of the current school. Assessing the same
// learning area again in a term replaces the earlier level.
func (svc *Service) Record(ctx context.Context, na NewAssessment) (Assessment, error) {
	lrn, err := svc.learners.GetByID(ctx, na.LearnerID)
	if err != nil {
		if errors.Cause(err) == learner.ErrNotFound {
			return Assessment{}, core.NewValidationError(ErrUnknownLearner, core.FieldError{Field: "learner_id", Error: ErrUnknownLearner.Error()})
		}
		return Assessment{}, errors.Wrap(err, "finding learner")
	}

	tc, _ := tenant.Current(ctx)
	now := time.Now().UTC()

	a, err := svc.repo.FindAssessment(ctx, lrn.ID, na.LearningArea, na.Term)
	switch errors.Cause(err) {
	case nil:
		a.Rubric = na.Rubric
		a.Comment = na.Comment
		a.AssessedBy = tc.UserID
		a.UpdatedAt = now
		return svc.repo.UpdateAssessment(ctx, a)
	case ErrNotFound:
		return svc.repo.CreateAssessment(ctx, Assessment{
			SchoolID:     lrn.SchoolID,
			LearnerID:    lrn.ID,
			LearningArea: na.LearningArea,
			Term:         na.Term,
			Rubric:       na.Rubric,
			Comment:      na.Comment,
			AssessedBy:   tc.UserID,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	return Assessment{}, errors.Wrap(err, "finding assessment")
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Assessment, error) {
	return svc.repo.QueryAssessments(ctx, filter, ordering)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Assessment, error) {
	return svc.repo.GetAssessment(ctx, id)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return svc.repo.DeleteAssessments(ctx, ids...)
}

// ReportCard gathers the assessments of a learner of the current school for `term`.
func (svc *Service) ReportCard(ctx context.Context, learnerID, term string) (ReportCard, error) {
	lrn, err := svc.learners.GetByID(ctx, learnerID)
	if err != nil {
		return ReportCard{}, err
	}
	assessments, err := svc.repo.QueryAssessments(ctx, &QueryFilter{LearnerID: lrn.ID, Term: term}, nil)
	if err != nil {
		return ReportCard{}, errors.Wrap(err, "querying assessments")
	}
	return newReportCard(lrn.ID, term, assessments), nil
}
