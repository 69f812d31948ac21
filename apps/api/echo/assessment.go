package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/educore/core"
	"github.com/trezcool/educore/core/assessment"
)

var errAssessmentNotFoundInCtx = errors.New("assessment object not found in echo.Context")

type assessmentApi struct {
	svc      *assessment.Service
	validate *validator.Validate
}

func registerAssessmentAPI(g *echo.Group, svc *assessment.Service, validate *validator.Validate) {
	api := assessmentApi{svc: svc, validate: validate}

	g.Use(staffMiddleware)
	g.GET("", api.query)
	g.POST("", api.record)
	g.GET("/report-card", api.reportCard)

	dg := g.Group("/:id", ctxAssessmentMiddleware(svc))
	dg.GET("", api.retrieve)
	dg.DELETE("", api.destroy, adminMiddleware())
}

func (api *assessmentApi) record(ctx echo.Context) error {
	var data assessment.NewAssessment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssessment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	a, err := api.svc.Record(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "recording assessment")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assessmentApi) query(ctx echo.Context) error {
	filter := new(assessment.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []assessment.Assessment{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	assessments, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying assessments")
	}
	return ctx.JSON(http.StatusOK, assessments)
}

func (api *assessmentApi) reportCard(ctx echo.Context) error {
	learnerID := core.CleanString(ctx.QueryParam("learner_id"), true /* lower */)
	term := core.CleanString(ctx.QueryParam("term"))
	if learnerID == "" || term == "" {
		return core.NewFieldValidationError("learner_id", "learner_id and term are required")
	}

	card, err := api.svc.ReportCard(ctx.Request().Context(), learnerID, term)
	if err != nil {
		return errors.Wrap(err, "building report card")
	}
	return ctx.JSON(http.StatusOK, card)
}

func (api *assessmentApi) retrieve(ctx echo.Context) error {
	a, ok := ctx.Get("object").(assessment.Assessment)
	if !ok {
		return errors.Wrap(errAssessmentNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assessmentApi) destroy(ctx echo.Context) error {
	a, ok := ctx.Get("object").(assessment.Assessment)
	if !ok {
		return errors.Wrap(errAssessmentNotFoundInCtx, "retrieving object from context")
	}
	if _, err := api.svc.Delete(ctx.Request().Context(), a.ID); err != nil {
		return errors.Wrap(err, "deleting assessment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func ctxAssessmentMiddleware(svc *assessment.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			a, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				return errors.Wrap(err, "finding assessment by ID")
			}
			ctx.Set("object", a)
			return next(ctx)
		}
	}
}
