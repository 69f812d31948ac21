package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/educore/core"
	"github.com/trezcool/educore/core/attendance"
)

var errClassNotFoundInCtx = errors.New("class object not found in echo.Context")

// maxMarks caps the learners marked in a single register.
const maxMarks = 200

type attendanceApi struct {
	svc      *attendance.Service
	validate *validator.Validate
}

func registerAttendanceAPI(classes, records *echo.Group, svc *attendance.Service, validate *validator.Validate) {
	api := attendanceApi{svc: svc, validate: validate}

	classes.GET("", api.queryClasses, staffMiddleware)
	classes.POST("", api.createClass, adminMiddleware())

	dg := classes.Group("/:id", ctxClassMiddleware(svc), staffMiddleware)
	dg.GET("", api.retrieveClass)
	dg.GET("/attendance", api.classRecords)
	dg.POST("/attendance", api.mark)

	records.Use(staffMiddleware)
	records.GET("", api.queryRecords)
	records.GET("/summary", api.summarize)
}

func (api *attendanceApi) bindFilter(ctx echo.Context) (*attendance.QueryFilter, error) {
	filter := new(attendance.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return nil, errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()

	var err error
	if filter.From, filter.To, err = queryTimeRange(ctx, "date_from", "date_to"); err != nil {
		return nil, err
	}
	return filter, nil
}

func (api *attendanceApi) createClass(ctx echo.Context) error {
	var data attendance.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	class, err := api.svc.CreateClass(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, class)
}

func (api *attendanceApi) queryClasses(ctx echo.Context) error {
	filter := new(attendance.ClassFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []attendance.Class{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	classes, err := api.svc.QueryClasses(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *attendanceApi) retrieveClass(ctx echo.Context) error {
	class, ok := ctx.Get("object").(attendance.Class)
	if !ok {
		return errors.Wrap(errClassNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, class)
}

func (api *attendanceApi) mark(ctx echo.Context) error {
	class, ok := ctx.Get("object").(attendance.Class)
	if !ok {
		return errors.Wrap(errClassNotFoundInCtx, "retrieving object from context")
	}

	var data attendance.Register
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Register")
	}
	if len(data.Marks) > maxMarks {
		return core.NewValidationError(nil, core.FieldError{Field: "marks", Error: "too many marks in one register"})
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	records, err := api.svc.Mark(ctx.Request().Context(), class, data)
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceApi) classRecords(ctx echo.Context) error {
	class, ok := ctx.Get("object").(attendance.Class)
	if !ok {
		return errors.Wrap(errClassNotFoundInCtx, "retrieving object from context")
	}
	filter, err := api.bindFilter(ctx)
	if err != nil {
		return err
	}
	filter.ClassID = class.ID
	return api.records(ctx, filter)
}

func (api *attendanceApi) queryRecords(ctx echo.Context) error {
	filter, err := api.bindFilter(ctx)
	if err != nil {
		return err
	}
	return api.records(ctx, filter)
}

func (api *attendanceApi) records(ctx echo.Context, filter *attendance.QueryFilter) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	records, err := api.svc.QueryRecords(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceApi) summarize(ctx echo.Context) error {
	filter, err := api.bindFilter(ctx)
	if err != nil {
		return err
	}

	sum, err := api.svc.Summarize(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "summarizing attendance")
	}
	return ctx.JSON(http.StatusOK, sum)
}

func ctxClassMiddleware(svc *attendance.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			class, err := svc.GetClass(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				return errors.Wrap(err, "finding class by ID")
			}
			ctx.Set("object", class)
			return next(ctx)
		}
	}
}
