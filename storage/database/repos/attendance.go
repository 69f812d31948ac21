package repos

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/educore/core"
	"github.com/trezcool/educore/core/attendance"
	"github.com/trezcool/educore/storage/scope"
)

var (
	classOrderFields      = []string{"name", "grade", "created_at"}
	attendanceOrderFields = []string{"date", "status", "created_at", "updated_at"}
)

type attendanceRepository struct {
	exec scope.Executor
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(exec scope.Executor) attendance.Repository {
	return &attendanceRepository{exec: exec}
}

func (repo attendanceRepository) classFromRecord(rec scope.Record) attendance.Class {
	return attendance.Class{
		ID:        toString(rec["id"]),
		SchoolID:  toString(rec["school_id"]),
		BranchID:  toString(rec["branch_id"]),
		Name:      toString(rec["name"]),
		Grade:     toString(rec["grade"]),
		CreatedAt: toTime(rec["created_at"]),
	}
}

func (repo attendanceRepository) fromRecord(rec scope.Record) attendance.Record {
	return attendance.Record{
		ID:        toString(rec["id"]),
		SchoolID:  toString(rec["school_id"]),
		ClassID:   toString(rec["class_id"]),
		LearnerID: toString(rec["learner_id"]),
		Date:      toTime(rec["date"]),
		Status:    toString(rec["status"]),
		Note:      toString(rec["note"]),
		MarkedBy:  toString(rec["marked_by"]),
		CreatedAt: toTime(rec["created_at"]),
		UpdatedAt: toTime(rec["updated_at"]),
	}
}

func (repo attendanceRepository) CreateClass(ctx context.Context, c attendance.Class) (attendance.Class, error) {
	data := scope.Record{
		"id":         uuid.New().String(),
		"branch_id":  nullString(c.BranchID),
		"name":       c.Name,
		"grade":      c.Grade,
		"created_at": nullTime(c.CreatedAt),
	}
	if c.SchoolID != "" {
		data["school_id"] = c.SchoolID
	}
	res, err := repo.exec.Execute(ctx, scope.Call{Entity: entityClasses, Action: scope.Create, Data: data})
	if err != nil {
		return attendance.Class{}, errors.Wrap(err, "inserting class")
	}
	rec, _ := res.First()
	return repo.classFromRecord(rec), nil
}

func (repo attendanceRepository) QueryClasses(ctx context.Context, filter *attendance.ClassFilter, ordering []core.DBOrdering) ([]attendance.Class, error) {
	where := make(scope.Record)
	if filter != nil {
		if filter.Search != "" {
			where["name"] = scope.Contains(filter.Search)
		}
		if len(filter.Grades) > 0 {
			where["grade"] = scope.StringsIn(filter.Grades...)
		}
	}

	res, err := repo.exec.Execute(ctx, scope.Call{
		Entity: entityClasses,
		Action: scope.FindMany,
		Where:  where,
		OrderBy: orderBy(ordering, classOrderFields,
			core.DBOrdering{Field: "grade", Ascending: true},
			core.DBOrdering{Field: "name", Ascending: true},
		),
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	classes := make([]attendance.Class, 0, len(res.Records))
	for _, rec := range res.Records {
		classes = append(classes, repo.classFromRecord(rec))
	}
	return classes, nil
}

func (repo attendanceRepository) GetClass(ctx context.Context, id string) (attendance.Class, error) {
	if !isUUID(id) {
		return attendance.Class{}, attendance.ErrClassNotFound
	}
	res, err := repo.exec.Execute(ctx, scope.Call{Entity: entityClasses, Action: scope.FindUnique, Where: scope.Record{"id": id}})
	if err != nil {
		return attendance.Class{}, errors.Wrap(err, "finding class")
	}
	rec, found := res.First()
	if !found {
		return attendance.Class{}, attendance.ErrClassNotFound
	}
	return repo.classFromRecord(rec), nil
}

// SaveRecords updates the record of each learner on its date, and inserts the missing ones.
func (repo attendanceRepository) SaveRecords(ctx context.Context, records ...attendance.Record) ([]attendance.Record, error) {
	saved := make([]attendance.Record, 0, len(records))
	for _, r := range records {
		res, err := repo.exec.Execute(ctx, scope.Call{
			Entity: entityAttendance,
			Action: scope.Update,
			Where:  scope.Record{"learner_id": r.LearnerID, "date": r.Date.UTC()},
			Data: scope.Record{
				"class_id":   r.ClassID,
				"status":     r.Status,
				"note":       nullString(r.Note),
				"marked_by":  nullString(r.MarkedBy),
				"updated_at": nullTime(r.UpdatedAt),
			},
		})
		if err != nil {
			return nil, errors.Wrap(err, "updating attendance")
		}
		if rec, found := res.First(); found {
			saved = append(saved, repo.fromRecord(rec))
			continue
		}

		data := scope.Record{
			"id":         uuid.New().String(),
			"class_id":   r.ClassID,
			"learner_id": r.LearnerID,
			"date":       r.Date.UTC(),
			"status":     r.Status,
			"note":       nullString(r.Note),
			"marked_by":  nullString(r.MarkedBy),
			"created_at": nullTime(r.CreatedAt),
			"updated_at": nullTime(r.UpdatedAt),
		}
		if r.SchoolID != "" {
			data["school_id"] = r.SchoolID
		}
		res, err = repo.exec.Execute(ctx, scope.Call{Entity: entityAttendance, Action: scope.Create, Data: data})
		if err != nil {
			return nil, errors.Wrap(err, "inserting attendance")
		}
		rec, _ := res.First()
		saved = append(saved, repo.fromRecord(rec))
	}
	return saved, nil
}

func (repo attendanceRepository) QueryRecords(ctx context.Context, filter *attendance.QueryFilter, ordering []core.DBOrdering) ([]attendance.Record, error) {
	where := make(scope.Record)
	if filter != nil {
		if filter.ClassID != "" {
			where["class_id"] = idCond(filter.ClassID)
		}
		if filter.LearnerID != "" {
			where["learner_id"] = idCond(filter.LearnerID)
		}
		if len(filter.Statuses) > 0 {
			where["status"] = scope.StringsIn(filter.Statuses...)
		}
		if !filter.From.IsZero() || !filter.To.IsZero() {
			where["date"] = scope.Range(nullTime(filter.From), nullTime(filter.To))
		}
	}

	res, err := repo.exec.Execute(ctx, scope.Call{
		Entity:  entityAttendance,
		Action:  scope.FindMany,
		Where:   where,
		OrderBy: orderBy(ordering, attendanceOrderFields, core.DBOrdering{Field: "date"}),
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}
	records := make([]attendance.Record, 0, len(res.Records))
	for _, rec := range res.Records {
		records = append(records, repo.fromRecord(rec))
	}
	return records, nil
}
