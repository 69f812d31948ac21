// Package attendance keeps the classes of a school and the daily register of their learners.
package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/educore/core"
	"github.com/trezcool/educore/core/learner"
	"github.com/trezcool/educore/core/tenant"
)

var (
	// errors
	ErrClassNotFound  = errors.New("class not found")
	ErrNoSchool       = errors.New("school is required")
	ErrUnknownLearner = errors.New("learner not found")
	ErrMarkedTwice    = errors.New("learner is marked more than once")
	ErrFutureDate     = errors.New("attendance cannot be marked ahead of time")
)

// maxTZAhead is how far ahead of UTC the local date of a school can be.
const maxTZAhead = 14 * time.Hour

type (
	Repository interface {
		CreateClass(ctx context.Context, c Class) (Class, error)
		QueryClasses(ctx context.Context, filter *ClassFilter, ordering []core.DBOrdering) ([]Class, error)
		GetClass(ctx context.Context, id string) (Class, error)
		// SaveRecords creates the record of each learner on its date, or replaces the existing one.
		SaveRecords(ctx context.Context, records ...Record) ([]Record, error)
		QueryRecords(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Record, error)
	}

	// LearnerGetter finds the learners being marked.
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

// CreateClass opens a class in the current school, or in the school a super-admin names.
func (svc *Service) CreateClass(ctx context.Context, nc NewClass) (Class, error) {
	tc, _ := tenant.Current(ctx)
	schoolID := tc.SchoolID
	if tc.IsSuperAdmin && nc.SchoolID != "" {
		schoolID = nc.SchoolID
	}
	if schoolID == "" {
		return Class{}, core.NewValidationError(ErrNoSchool, core.FieldError{Field: "school_id", Error: ErrNoSchool.Error()})
	}

	return svc.repo.CreateClass(ctx, Class{
		SchoolID:  schoolID,
		BranchID:  nc.BranchID,
		Name:      nc.Name,
		Grade:     nc.Grade,
		CreatedAt: time.Now().UTC(),
	})
}

func (svc *Service) QueryClasses(ctx context.Context, filter *ClassFilter, ordering []core.DBOrdering) ([]Class, error) {
	return svc.repo.QueryClasses(ctx, filter, ordering)
}

func (svc *Service) GetClass(ctx context.Context, id string) (Class, error) {
	return svc.repo.GetClass(ctx, id)
}

// Mark saves the register of `class` for a day. Every marked learner must belong to the
// school of the class. Marking a learner again on the same day replaces the earlier mark.
func (svc *Service) Mark(ctx context.Context, class Class, reg Register) ([]Record, error) {
	date, err := time.Parse(learner.DateLayout, reg.Date)
	if err != nil {
		return nil, core.NewFieldValidationError("date", "invalid date")
	}
	if date.After(time.Now().UTC().Add(maxTZAhead)) {
		return nil, core.NewValidationError(ErrFutureDate, core.FieldError{Field: "date", Error: ErrFutureDate.Error()})
	}

	tc, _ := tenant.Current(ctx)
	now := time.Now().UTC()
	records := make([]Record, 0, len(reg.Marks))
	seen := make(map[string]bool, len(reg.Marks))
	for i, mark := range reg.Marks {
		field := fmt.Sprintf("marks.%d.learner_id", i)
		if seen[mark.LearnerID] {
			return nil, core.NewValidationError(ErrMarkedTwice, core.FieldError{Field: field, Error: ErrMarkedTwice.Error()})
		}
		seen[mark.LearnerID] = true

		lrn, err := svc.learners.GetByID(ctx, mark.LearnerID)
		if err != nil && errors.Cause(err) != learner.ErrNotFound {
			return nil, errors.Wrap(err, "finding learner")
		}
		if err != nil || lrn.SchoolID != class.SchoolID {
			return nil, core.NewValidationError(ErrUnknownLearner, core.FieldError{Field: field, Error: ErrUnknownLearner.Error()})
		}

		records = append(records, Record{
			SchoolID:  class.SchoolID,
			ClassID:   class.ID,
			LearnerID: lrn.ID,
			Date:      date,
			Status:    mark.Status,
			Note:      mark.Note,
			MarkedBy:  tc.UserID,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return svc.repo.SaveRecords(ctx, records...)
}

func (svc *Service) QueryRecords(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Record, error) {
	return svc.repo.QueryRecords(ctx, filter, ordering)
}

// Summarize counts the records matching `filter` by status.
func (svc *Service) Summarize(ctx context.Context, filter *QueryFilter) (Summary, error) {
	records, err := svc.repo.QueryRecords(ctx, filter, nil)
	if err != nil {
		return Summary{}, errors.Wrap(err, "querying attendance")
	}
	return summarize(records), nil
}
