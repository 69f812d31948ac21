package repos

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/educore/core"
	"github.com/trezcool/educore/core/school"
	"github.com/trezcool/educore/storage/scope"
)

type schoolRepository struct {
	exec scope.Executor
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(exec scope.Executor) school.Repository {
	return &schoolRepository{exec: exec}
}

func (repo schoolRepository) fromRecord(rec scope.Record) school.School {
	return school.School{
		ID:        toString(rec["id"]),
		Name:      toString(rec["name"]),
		Code:      toString(rec["code"]),
		IsActive:  toBool(rec["is_active"]),
		CreatedAt: toTime(rec["created_at"]),
	}
}

func (repo schoolRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	res, err := repo.exec.Execute(ctx, scope.Call{Entity: entitySchools, Action: scope.Count, Where: scope.Record{"code": code}})
	if err != nil {
		return false, errors.Wrap(err, "checking school code")
	}
	return res.Affected > 0, nil
}

func (repo schoolRepository) CreateSchool(ctx context.Context, s school.School) (school.School, error) {
	res, err := repo.exec.Execute(ctx, scope.Call{
		Entity: entitySchools,
		Action: scope.Create,
		Data: scope.Record{
			"id":         uuid.New().String(),
			"name":       s.Name,
			"code":       s.Code,
			"is_active":  s.IsActive,
			"created_at": nullTime(s.CreatedAt),
		},
	})
	if err != nil {
		return school.School{}, errors.Wrap(err, "inserting school")
	}
	rec, _ := res.First()
	return repo.fromRecord(rec), nil
}

func (repo schoolRepository) QuerySchools(ctx context.Context, ordering []core.DBOrdering) ([]school.School, error) {
	res, err := repo.exec.Execute(ctx, scope.Call{
		Entity:  entitySchools,
		Action:  scope.FindMany,
		OrderBy: orderBy(ordering, []string{"name", "code", "created_at"}, core.DBOrdering{Field: "name", Ascending: true}),
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying schools")
	}
	schools := make([]school.School, 0, len(res.Records))
	for _, rec := range res.Records {
		schools = append(schools, repo.fromRecord(rec))
	}
	return schools, nil
}

func (repo schoolRepository) GetSchool(ctx context.Context, id string) (school.School, error) {
	if !isUUID(id) {
		return school.School{}, school.ErrNotFound
	}
	res, err := repo.exec.Execute(ctx, scope.Call{Entity: entitySchools, Action: scope.FindUnique, Where: scope.Record{"id": id}})
	if err != nil {
		return school.School{}, errors.Wrap(err, "finding school")
	}
	rec, found := res.First()
	if !found {
		return school.School{}, school.ErrNotFound
	}
	return repo.fromRecord(rec), nil
}
