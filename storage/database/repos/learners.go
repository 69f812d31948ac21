package repos

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/educore/core"
	"github.com/trezcool/educore/core/learner"
	"github.com/trezcool/educore/storage/scope"
)

var learnerOrderFields = []string{
	"admission_number", "first_name", "last_name", "gender", "grade", "status", "date_of_birth", "created_at", "updated_at",
}

type learnerRepository struct {
	exec scope.Executor
}

var _ learner.Repository = (*learnerRepository)(nil) // interface compliance check

func NewLearnerRepository(exec scope.Executor) learner.Repository {
	return &learnerRepository{exec: exec}
}

func (repo learnerRepository) toRecord(l learner.Learner) scope.Record {
	rec := scope.Record{
		"id":               l.ID,
		"branch_id":        nullString(l.BranchID),
		"admission_number": l.AdmissionNumber,
		"first_name":       l.FirstName,
		"last_name":        l.LastName,
		"gender":           l.Gender,
		"grade":            l.Grade,
		"status":           l.Status,
		"date_of_birth":    nullDate(l.DateOfBirth),
		"guardian_name":    nullString(l.GuardianName),
		"guardian_phone":   nullString(l.GuardianPhone),
		"created_at":       nullTime(l.CreatedAt),
		"updated_at":       nullTime(l.UpdatedAt),
	}
	if l.SchoolID != "" {
		rec["school_id"] = l.SchoolID
	}
	return rec
}

func (repo learnerRepository) fromRecord(rec scope.Record) learner.Learner {
	return learner.Learner{
		ID:              toString(rec["id"]),
		SchoolID:        toString(rec["school_id"]),
		BranchID:        toString(rec["branch_id"]),
		AdmissionNumber: toString(rec["admission_number"]),
		FirstName:       toString(rec["first_name"]),
		LastName:        toString(rec["last_name"]),
		Gender:          toString(rec["gender"]),
		Grade:           toString(rec["grade"]),
		Status:          toString(rec["status"]),
		DateOfBirth:     toNullTime(rec["date_of_birth"]),
		GuardianName:    toString(rec["guardian_name"]),
		GuardianPhone:   toString(rec["guardian_phone"]),
		CreatedAt:       toTime(rec["created_at"]),
		UpdatedAt:       toTime(rec["updated_at"]),
	}
}

func (repo learnerRepository) fromRecords(recs []scope.Record) []learner.Learner {
	learners := make([]learner.Learner, 0, len(recs))
	for _, rec := range recs {
		learners = append(learners, repo.fromRecord(rec))
	}
	return learners
}

func (repo learnerRepository) where(filter *learner.QueryFilter) scope.Record {
	where := make(scope.Record)
	if filter == nil {
		return where
	}
	if filter.Search != "" {
		where[scope.OrKey] = searchAny(filter.Search, "first_name", "last_name", "admission_number")
	}
	if len(filter.Grades) > 0 {
		where["grade"] = scope.StringsIn(filter.Grades...)
	}
	if len(filter.Statuses) > 0 {
		where["status"] = scope.StringsIn(filter.Statuses...)
	}
	if filter.BranchID != "" {
		if !isUUID(filter.BranchID) {
			where["branch_id"] = scope.In() // matches nothing
		} else {
			where["branch_id"] = filter.BranchID
		}
	}
	return where
}

func (repo learnerRepository) AdmissionNumbersTaken(ctx context.Context, schoolID string, numbers []string, excludedIDs ...string) ([]string, error) {
	if len(numbers) == 0 {
		return nil, nil
	}
	where := scope.Record{
		"school_id":        schoolID,
		"admission_number": scope.StringsIn(numbers...),
	}
	if ids := validIDs(excludedIDs); len(ids) > 0 {
		where["id"] = scope.StringsNotIn(ids...)
	}

	res, err := repo.exec.Execute(ctx, scope.Call{
		Entity:  entityLearners,
		Action:  scope.FindMany,
		Where:   where,
		OrderBy: []core.DBOrdering{{Field: "admission_number", Ascending: true}},
	})
	if err != nil {
		return nil, errors.Wrap(err, "finding admission numbers")
	}
	taken := make([]string, 0, len(res.Records))
	for _, rec := range res.Records {
		taken = append(taken, toString(rec["admission_number"]))
	}
	return taken, nil
}

func (repo learnerRepository) CreateLearners(ctx context.Context, learners ...learner.Learner) ([]learner.Learner, error) {
	call := scope.Call{Entity: entityLearners, Action: scope.Create}
	if len(learners) == 1 {
		learners[0].ID = uuid.New().String()
		call.Data = repo.toRecord(learners[0])
	} else {
		call.Action = scope.CreateMany
		call.Batch = make([]scope.Record, 0, len(learners))
		for _, l := range learners {
			l.ID = uuid.New().String()
			call.Batch = append(call.Batch, repo.toRecord(l))
		}
	}

	res, err := repo.exec.Execute(ctx, call)
	if err != nil {
		return nil, errors.Wrap(err, "inserting learners")
	}
	return repo.fromRecords(res.Records), nil
}

func (repo learnerRepository) QueryLearners(ctx context.Context, filter *learner.QueryFilter, ordering []core.DBOrdering) ([]learner.Learner, error) {
	res, err := repo.exec.Execute(ctx, scope.Call{
		Entity: entityLearners,
		Action: scope.FindMany,
		Where:  repo.where(filter),
		OrderBy: orderBy(ordering, learnerOrderFields,
			core.DBOrdering{Field: "last_name", Ascending: true},
			core.DBOrdering{Field: "first_name", Ascending: true},
		),
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying learners")
	}
	return repo.fromRecords(res.Records), nil
}

func (repo learnerRepository) CountLearners(ctx context.Context, filter *learner.QueryFilter) (int, error) {
	res, err := repo.exec.Execute(ctx, scope.Call{Entity: entityLearners, Action: scope.Count, Where: repo.where(filter)})
	if err != nil {
		return 0, errors.Wrap(err, "counting learners")
	}
	return int(res.Affected), nil
}

func (repo learnerRepository) GetLearner(ctx context.Context, id string) (learner.Learner, error) {
	if !isUUID(id) {
		return learner.Learner{}, learner.ErrNotFound
	}
	res, err := repo.exec.Execute(ctx, scope.Call{Entity: entityLearners, Action: scope.FindUnique, Where: scope.Record{"id": id}})
	if err != nil {
		return learner.Learner{}, errors.Wrap(err, "finding learner")
	}
	rec, found := res.First()
	if !found {
		return learner.Learner{}, learner.ErrNotFound
	}
	return repo.fromRecord(rec), nil
}

func (repo learnerRepository) UpdateLearner(ctx context.Context, l learner.Learner) (learner.Learner, error) {
	if !isUUID(l.ID) {
		return learner.Learner{}, learner.ErrNotFound
	}
	data := repo.toRecord(l)
	delete(data, "id")
	delete(data, "school_id")
	delete(data, "created_at")

	res, err := repo.exec.Execute(ctx, scope.Call{
		Entity: entityLearners,
		Action: scope.Update,
		Where:  scope.Record{"id": l.ID},
		Data:   data,
	})
	if err != nil {
		return learner.Learner{}, errors.Wrap(err, "updating learner")
	}
	rec, found := res.First()
	if !found {
		return learner.Learner{}, learner.ErrNotFound
	}
	return repo.fromRecord(rec), nil
}

func (repo learnerRepository) DeleteLearners(ctx context.Context, ids ...string) (int, error) {
	ids = validIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := repo.exec.Execute(ctx, scope.Call{
		Entity: entityLearners,
		Action: scope.DeleteMany,
		Where:  scope.Record{"id": scope.StringsIn(ids...)},
	})
	if err != nil {
		return 0, errors.Wrap(err, "deleting learners")
	}
	return int(res.Affected), nil
}
