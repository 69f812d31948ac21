package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/educore/core"
	"github.com/trezcool/educore/core/learner"
)

var errLrnNotFoundInCtx = errors.New("learner object not found in echo.Context")

// maxBulkLearners caps the learners admitted in a single request.
const maxBulkLearners = 500

type learnerApi struct {
	svc      *learner.Service
	validate *validator.Validate
}

func registerLearnerAPI(g *echo.Group, svc *learner.Service, validate *validator.Validate) {
	api := learnerApi{svc: svc, validate: validate}

	g.GET("", api.query, staffMiddleware)
	g.GET("/count", api.count, staffMiddleware)
	g.POST("", api.create, adminMiddleware())
	g.POST("/bulk", api.createMany, adminMiddleware())

	dg := g.Group("/:id", ctxLearnerMiddleware(svc))
	dg.GET("", api.retrieve, staffMiddleware)
	dg.PUT("", api.update, adminMiddleware())
	dg.DELETE("", api.destroy, adminMiddleware())
}

func (api *learnerApi) create(ctx echo.Context) error {
	var data learner.NewLearner
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLearner")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	lrn, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating learner")
	}
	return ctx.JSON(http.StatusCreated, lrn)
}

func (api *learnerApi) createMany(ctx echo.Context) error {
	var data []learner.NewLearner
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to []NewLearner")
	}
	if len(data) > maxBulkLearners {
		return core.NewValidationError(nil, core.FieldError{Field: "learners", Error: "too many learners in one request"})
	}
	for i := range data {
		if err := data[i].Validate(api.validate); err != nil {
			return err
		}
	}

	learners, err := api.svc.CreateMany(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating learners")
	}
	return ctx.JSON(http.StatusCreated, learners)
}

func (api *learnerApi) query(ctx echo.Context) error {
	filter := new(learner.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []learner.Learner{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	learners, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying learners")
	}
	return ctx.JSON(http.StatusOK, learners)
}

func (api *learnerApi) count(ctx echo.Context) error {
	filter := new(learner.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()

	n, err := api.svc.Count(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "counting learners")
	}
	return ctx.JSON(http.StatusOK, CountResponse{Count: n})
}

func (api *learnerApi) retrieve(ctx echo.Context) error {
	lrn, ok := ctx.Get("object").(learner.Learner)
	if !ok {
		return errors.Wrap(errLrnNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, lrn)
}

func (api *learnerApi) update(ctx echo.Context) error {
	lrn, ok := ctx.Get("object").(learner.Learner)
	if !ok {
		return errors.Wrap(errLrnNotFoundInCtx, "retrieving object from context")
	}

	var data learner.UpdateLearner
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateLearner")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	lrn, err := api.svc.Update(ctx.Request().Context(), lrn, data)
	if err != nil {
		return errors.Wrap(err, "updating learner")
	}
	return ctx.JSON(http.StatusOK, lrn)
}

func (api *learnerApi) destroy(ctx echo.Context) error {
	lrn, ok := ctx.Get("object").(learner.Learner)
	if !ok {
		return errors.Wrap(errLrnNotFoundInCtx, "retrieving object from context")
	}
	if _, err := api.svc.Delete(ctx.Request().Context(), lrn.ID); err != nil {
		return errors.Wrap(err, "deleting learner")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// ctxLearnerMiddleware loads the `:id` learner of the current school into "object".
func ctxLearnerMiddleware(svc *learner.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			lrn, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				return errors.Wrap(err, "finding learner by ID")
			}
			ctx.Set("object", lrn)
			return next(ctx)
		}
	}
}

type CountResponse struct {
	Count int `json:"count"`
}
