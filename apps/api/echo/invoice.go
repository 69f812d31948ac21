package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/educore/core/fee"
	"github.com/trezcool/educore/core/user"
)

var errInvNotFoundInCtx = errors.New("invoice object not found in echo.Context")

type invoiceApi struct {
	svc      *fee.Service
	validate *validator.Validate
}

func registerInvoiceAPI(g *echo.Group, svc *fee.Service, validate *validator.Validate) {
	api := invoiceApi{svc: svc, validate: validate}

	g.Use(adminMiddleware())
	g.GET("", api.query)
	g.GET("/summary", api.summarize)
	g.POST("", api.create)

	dg := g.Group("/:id", ctxInvoiceMiddleware(svc))
	dg.GET("", api.retrieve)
	dg.POST("/payments", api.recordPayment, adminMiddleware(user.RoleAdminOwner, user.RoleAdminBursar))
}

func (api *invoiceApi) bindFilter(ctx echo.Context) (*fee.QueryFilter, error) {
	filter := new(fee.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return nil, errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()

	var err error
	if filter.DueFrom, filter.DueTo, err = queryTimeRange(ctx, "due_from", "due_to"); err != nil {
		return nil, err
	}
	return filter, nil
}

func (api *invoiceApi) create(ctx echo.Context) error {
	var data fee.NewInvoice
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewInvoice")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	inv, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating invoice")
	}
	return ctx.JSON(http.StatusCreated, inv)
}

func (api *invoiceApi) query(ctx echo.Context) error {
	filter, err := api.bindFilter(ctx)
	if err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	invoices, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying invoices")
	}
	return ctx.JSON(http.StatusOK, invoices)
}

func (api *invoiceApi) summarize(ctx echo.Context) error {
	filter, err := api.bindFilter(ctx)
	if err != nil {
		return err
	}

	sum, err := api.svc.Summarize(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "summarizing invoices")
	}
	return ctx.JSON(http.StatusOK, sum)
}

func (api *invoiceApi) retrieve(ctx echo.Context) error {
	inv, ok := ctx.Get("object").(fee.Invoice)
	if !ok {
		return errors.Wrap(errInvNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, inv)
}

func (api *invoiceApi) recordPayment(ctx echo.Context) error {
	inv, ok := ctx.Get("object").(fee.Invoice)
	if !ok {
		return errors.Wrap(errInvNotFoundInCtx, "retrieving object from context")
	}

	var data fee.NewPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPayment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	inv, err := api.svc.RecordPayment(ctx.Request().Context(), inv, data)
	if err != nil {
		return errors.Wrap(err, "recording payment")
	}
	return ctx.JSON(http.StatusOK, inv)
}

func ctxInvoiceMiddleware(svc *fee.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			inv, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				return errors.Wrap(err, "finding invoice by ID")
			}
			ctx.Set("object", inv)
			return next(ctx)
		}
	}
}
