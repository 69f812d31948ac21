package repos

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/educore/core"
	"github.com/trezcool/educore/core/assessment"
	"github.com/trezcool/educore/storage/scope"
)

var assessmentOrderFields = []string{"learning_area", "term", "rubric", "created_at", "updated_at"}

type assessmentRepository struct {
	exec scope.Executor
}

var _ assessment.Repository = (*assessmentRepository)(nil) // interface compliance check

func NewAssessmentRepository(exec scope.Executor) assessment.Repository {
	return &assessmentRepository{exec: exec}
}

func (repo assessmentRepository) toRecord(a assessment.Assessment) scope.Record {
	rec := scope.Record{
		"id":            a.ID,
		"learner_id":    a.LearnerID,
		"learning_area": a.LearningArea,
		"term":          a.Term,
		"rubric":        a.Rubric,
		"comment":       nullString(a.Comment),
		"assessed_by":   nullString(a.AssessedBy),
		"created_at":    nullTime(a.CreatedAt),
		"updated_at":    nullTime(a.UpdatedAt),
	}
	if a.SchoolID != "" {
		rec["school_id"] = a.SchoolID
	}
	return rec
}

func (repo assessmentRepository) fromRecord(rec scope.Record) assessment.Assessment {
	return assessment.Assessment{
		ID:           toString(rec["id"]),
		SchoolID:     toString(rec["school_id"]),
		LearnerID:    toString(rec["learner_id"]),
		LearningArea: toString(rec["learning_area"]),
		Term:         toString(rec["term"]),
		Rubric:       toString(rec["rubric"]),
		Comment:      toString(rec["comment"]),
		AssessedBy:   toString(rec["assessed_by"]),
		CreatedAt:    toTime(rec["created_at"]),
		UpdatedAt:    toTime(rec["updated_at"]),
	}
}

func (repo assessmentRepository) first(ctx context.Context, where scope.Record) (assessment.Assessment, error) {
	res, err := repo.exec.Execute(ctx, scope.Call{Entity: entityAssessments, Action: scope.FindFirst, Where: where})
	if err != nil {
		return assessment.Assessment{}, errors.Wrap(err, "finding assessment")
	}
	rec, found := res.First()
	if !found {
		return assessment.Assessment{}, assessment.ErrNotFound
	}
	return repo.fromRecord(rec), nil
}

func (repo assessmentRepository) CreateAssessment(ctx context.Context, a assessment.Assessment) (assessment.Assessment, error) {
	a.ID = uuid.New().String()
	res, err := repo.exec.Execute(ctx, scope.Call{Entity: entityAssessments, Action: scope.Create, Data: repo.toRecord(a)})
	if err != nil {
		return assessment.Assessment{}, errors.Wrap(err, "inserting assessment")
	}
	rec, _ := res.First()
	return repo.fromRecord(rec), nil
}

func (repo assessmentRepository) FindAssessment(ctx context.Context, learnerID, learningArea, term string) (assessment.Assessment, error) {
	if !isUUID(learnerID) {
		return assessment.Assessment{}, assessment.ErrNotFound
	}
	return repo.first(ctx, scope.Record{"learner_id": learnerID, "learning_area": learningArea, "term": term})
}

func (repo assessmentRepository) QueryAssessments(ctx context.Context, filter *assessment.QueryFilter, ordering []core.DBOrdering) ([]assessment.Assessment, error) {
	where := make(scope.Record)
	if filter != nil {
		if filter.LearnerID != "" {
			where["learner_id"] = idCond(filter.LearnerID)
		}
		if filter.LearningArea != "" {
			where["learning_area"] = filter.LearningArea
		}
		if filter.Term != "" {
			where["term"] = filter.Term
		}
		if len(filter.Rubrics) > 0 {
			where["rubric"] = scope.StringsIn(filter.Rubrics...)
		}
	}

	res, err := repo.exec.Execute(ctx, scope.Call{
		Entity:  entityAssessments,
		Action:  scope.FindMany,
		Where:   where,
		OrderBy: orderBy(ordering, assessmentOrderFields, core.DBOrdering{Field: "learning_area", Ascending: true}),
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying assessments")
	}
	assessments := make([]assessment.Assessment, 0, len(res.Records))
	for _, rec := range res.Records {
		assessments = append(assessments, repo.fromRecord(rec))
	}
	return assessments, nil
}

func (repo assessmentRepository) GetAssessment(ctx context.Context, id string) (assessment.Assessment, error) {
	if !isUUID(id) {
		return assessment.Assessment{}, assessment.ErrNotFound
	}
	return repo.first(ctx, scope.Record{"id": id})
}

func (repo assessmentRepository) UpdateAssessment(ctx context.Context, a assessment.Assessment) (assessment.Assessment, error) {
	if !isUUID(a.ID) {
		return assessment.Assessment{}, assessment.ErrNotFound
	}
	res, err := repo.exec.Execute(ctx, scope.Call{
		Entity: entityAssessments,
		Action: scope.Update,
		Where:  scope.Record{"id": a.ID},
		Data: scope.Record{
			"rubric":      a.Rubric,
			"comment":     nullString(a.Comment),
			"assessed_by": nullString(a.AssessedBy),
			"updated_at":  nullTime(a.UpdatedAt),
		},
	})
	if err != nil {
		return assessment.Assessment{}, errors.Wrap(err, "updating assessment")
	}
	rec, found := res.First()
	if !found {
		return assessment.Assessment{}, assessment.ErrNotFound
	}
	return repo.fromRecord(rec), nil
}

func (repo assessmentRepository) DeleteAssessments(ctx context.Context, ids ...string) (int, error) {
	ids = validIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := repo.exec.Execute(ctx, scope.Call{
		Entity: entityAssessments,
		Action: scope.DeleteMany,
		Where:  scope.Record{"id": scope.StringsIn(ids...)},
	})
	if err != nil {
		return 0, errors.Wrap(err, "deleting assessments")
	}
	return int(res.Affected), nil
}
