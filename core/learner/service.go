// Package learner manages the learners admitted by a school.
package learner

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/educore/core"
	"github.com/trezcool/educore/core/tenant"
)

var (
	// errors
	ErrNotFound              = errors.New("learner not found")
	ErrAdmissionNumberExists = errors.New("a learner with this admission number already exists")
	ErrNoSchool              = errors.New("school is required")
)

type (
	Repository interface {
		// AdmissionNumbersTaken returns which of `numbers` already belong to a learner of `schoolID`,
		// ignoring learners in excludedIDs.
		AdmissionNumbersTaken(ctx context.Context, schoolID string, numbers []string, excludedIDs ...string) ([]string, error)
		CreateLearners(ctx context.Context, learners ...Learner) ([]Learner, error)
		QueryLearners(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Learner, error)
		CountLearners(ctx context.Context, filter *QueryFilter) (int, error)
		GetLearner(ctx context.Context, id string) (Learner, error)
		UpdateLearner(ctx context.Context, l Learner) (Learner, error)
		DeleteLearners(ctx context.Context, ids ...string) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) newLearner(nl NewLearner, now time.Time) Learner {
	return Learner{
		SchoolID:        nl.SchoolID,
		BranchID:        nl.BranchID,
		AdmissionNumber: nl.AdmissionNumber,
		FirstName:       nl.FirstName,
		LastName:        nl.LastName,
		Gender:          nl.Gender,
		Grade:           nl.Grade,
		Status:          StatusActive,
		DateOfBirth:     parseDate(nl.DateOfBirth),
		GuardianName:    nl.GuardianName,
		GuardianPhone:   nl.GuardianPhone,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// schoolOf resolves the school a new learner is admitted to: the tenant's school, unless
// a super-admin names one.
func schoolOf(ctx context.Context, schoolID string) (string, error) {
	tc, _ := tenant.Current(ctx)
	if !tc.IsSuperAdmin || schoolID == "" {
		schoolID = tc.SchoolID
	}
	if schoolID == "" {
		return "", core.NewValidationError(ErrNoSchool, core.FieldError{Field: "school_id", Error: ErrNoSchool.Error()})
	}
	return schoolID, nil
}

func (svc *Service) Create(ctx context.Context, nl NewLearner) (Learner, error) {
	learners, err := svc.CreateMany(ctx, []NewLearner{nl})
	if err != nil {
		return Learner{}, err
	}
	return learners[0], nil
}

// CreateMany admits all the learners, or none of them if any admission number is taken
// or repeated in the batch.
func (svc *Service) CreateMany(ctx context.Context, nls []NewLearner) ([]Learner, error) {
	if len(nls) == 0 {
		return []Learner{}, nil
	}

	now := time.Now().UTC()
	learners := make([]Learner, 0, len(nls))
	bySchool := make(map[string][]string)
	seen := make(map[string]int, len(nls))
	for i, nl := range nls {
		schoolID, err := schoolOf(ctx, nl.SchoolID)
		if err != nil {
			return nil, err
		}
		nl.SchoolID = schoolID

		key := schoolID + "/" + nl.AdmissionNumber
		if j, dup := seen[key]; dup {
			return nil, admissionNumberError(fmt.Sprintf("%d.admission_number", i), fmt.Sprintf("duplicates item %d", j))
		}
		seen[key] = i
		bySchool[schoolID] = append(bySchool[schoolID], nl.AdmissionNumber)
		learners = append(learners, svc.newLearner(nl, now))
	}

	for schoolID, numbers := range bySchool {
		taken, err := svc.repo.AdmissionNumbersTaken(ctx, schoolID, numbers)
		if err != nil {
			return nil, errors.Wrap(err, "checking admission numbers")
		}
		if len(taken) > 0 {
			return nil, admissionNumberError("admission_number", taken[0])
		}
	}

	return svc.repo.CreateLearners(ctx, learners...)
}

func admissionNumberError(field, detail string) error {
	return core.NewValidationError(ErrAdmissionNumberExists, core.FieldError{
		Field: field,
		Error: ErrAdmissionNumberExists.Error() + ": " + detail,
	})
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Learner, error) {
	return svc.repo.QueryLearners(ctx, filter, ordering)
}

func (svc *Service) Count(ctx context.Context, filter *QueryFilter) (int, error) {
	return svc.repo.CountLearners(ctx, filter)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Learner, error) {
	return svc.repo.GetLearner(ctx, id)
}

func (svc *Service) Update(ctx context.Context, l Learner, ul UpdateLearner) (Learner, error) {
	updated := ul.apply(l)
	if updated.AdmissionNumber != l.AdmissionNumber {
		taken, err := svc.repo.AdmissionNumbersTaken(ctx, l.SchoolID, []string{updated.AdmissionNumber}, l.ID)
		if err != nil {
			return Learner{}, errors.Wrap(err, "checking admission number")
		}
		if len(taken) > 0 {
			return Learner{}, admissionNumberError("admission_number", taken[0])
		}
	}
	updated.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateLearner(ctx, updated)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return svc.repo.DeleteLearners(ctx, ids...)
}
