package assessment_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/educore/core"
	"github.com/trezcool/educore/core/assessment"
	"github.com/trezcool/educore/core/learner"
	"github.com/trezcool/educore/core/tenant"
	"github.com/trezcool/educore/storage/database/inmem"
	"github.com/trezcool/educore/storage/database/repos"
	"github.com/trezcool/educore/storage/scope"
)

const (
	schoolA = "7e0b9a51-2d4c-4f8e-9a3b-1c2d3e4f5d01"
	schoolB = "7e0b9a51-2d4c-4f8e-9a3b-1c2d3e4f5d02"
)

func setup(t *testing.T) (*assessment.Service, *learner.Service) {
	t.Helper()
	exec := scope.NewInterceptor(inmemdb.Open(), scope.Options{})
	lrnSvc := learner.NewService(repos.NewLearnerRepository(exec))
	return assessment.NewService(repos.NewAssessmentRepository(exec), lrnSvc), lrnSvc
}

func schoolCtx(schoolID string) context.Context {
	return tenant.WithContext(context.Background(), tenant.Context{SchoolID: schoolID, UserID: "teacher"})
}

func admit(t *testing.T, svc *learner.Service, ctx context.Context, admNo string) learner.Learner {
	t.Helper()
	lrn, err := svc.Create(ctx, learner.NewLearner{AdmissionNumber: admNo, FirstName: "Baraka", LastName: "Mwangi", Gender: learner.GenderMale, Grade: learner.Grade5})
	require.NoError(t, err)
	return lrn
}

func TestService_Record(t *testing.T) {
	svc, lrnSvc := setup(t)
	ctxA, ctxB := schoolCtx(schoolA), schoolCtx(schoolB)
	baraka := admit(t, lrnSvc, ctxA, "001")

	maths, err := svc.Record(ctxA, assessment.NewAssessment{LearnerID: baraka.ID, LearningArea: "Mathematics", Term: "2026-T1", Rubric: assessment.RubricApproaching})
	require.NoError(t, err)
	assert.Equal(t, schoolA, maths.SchoolID)
	assert.Equal(t, "teacher", maths.AssessedBy)

	t.Run("assessing again replaces the level", func(t *testing.T) {
		again, err := svc.Record(ctxA, assessment.NewAssessment{LearnerID: baraka.ID, LearningArea: "Mathematics", Term: "2026-T1", Rubric: assessment.RubricMeeting, Comment: "steady progress"})
		require.NoError(t, err)
		assert.Equal(t, maths.ID, again.ID)
		assert.Equal(t, assessment.RubricMeeting, again.Rubric)
		assert.Equal(t, "steady progress", again.Comment)

		all, err := svc.Query(ctxA, &assessment.QueryFilter{LearnerID: baraka.ID}, nil)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("another term is another assessment", func(t *testing.T) {
		t2, err := svc.Record(ctxA, assessment.NewAssessment{LearnerID: baraka.ID, LearningArea: "Mathematics", Term: "2026-T2", Rubric: assessment.RubricExceeding})
		require.NoError(t, err)
		assert.NotEqual(t, maths.ID, t2.ID)
	})

	t.Run("learner of another school", func(t *testing.T) {
		_, err := svc.Record(ctxB, assessment.NewAssessment{LearnerID: baraka.ID, LearningArea: "English", Term: "2026-T1", Rubric: assessment.RubricMeeting})
		var verr *core.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, assessment.ErrUnknownLearner, verr.Err)

		_, err = svc.GetByID(ctxB, maths.ID)
		assert.Equal(t, assessment.ErrNotFound, errors.Cause(err))
	})
}

func TestService_ReportCard(t *testing.T) {
	svc, lrnSvc := setup(t)
	ctxA, ctxB := schoolCtx(schoolA), schoolCtx(schoolB)
	baraka := admit(t, lrnSvc, ctxA, "001")

	card, err := svc.ReportCard(ctxA, baraka.ID, "2026-T1")
	require.NoError(t, err)
	assert.Empty(t, card.Assessments)
	assert.Empty(t, card.Overall)

	for area, rubric := range map[string]string{
		"Mathematics":   assessment.RubricExceeding,
		"English":       assessment.RubricMeeting,
		"Kiswahili":     assessment.RubricMeeting,
		"Creative Arts": assessment.RubricApproaching,
	} {
		_, err := svc.Record(ctxA, assessment.NewAssessment{LearnerID: baraka.ID, LearningArea: area, Term: "2026-T1", Rubric: rubric})
		require.NoError(t, err)
	}
	_, err = svc.Record(ctxA, assessment.NewAssessment{LearnerID: baraka.ID, LearningArea: "English", Term: "2026-T2", Rubric: assessment.RubricBelow})
	require.NoError(t, err)

	card, err = svc.ReportCard(ctxA, baraka.ID, "2026-T1")
	require.NoError(t, err)
	require.Len(t, card.Assessments, 4)
	assert.Equal(t, "Creative Arts", card.Assessments[0].LearningArea)
	assert.Equal(t, 3.0, card.Points)
	assert.Equal(t, assessment.RubricMeeting, card.Overall)

	_, err = svc.ReportCard(ctxB, baraka.ID, "2026-T1")
	assert.Equal(t, learner.ErrNotFound, errors.Cause(err))
}
