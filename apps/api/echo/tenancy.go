package echoapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/educore/core/tenant"
)

// HeaderSchoolID lets a super-admin without a school of their own act on one.
const HeaderSchoolID = "X-School-ID"

var (
	errNoSchool        = echo.NewHTTPError(http.StatusForbidden, "no school selected")
	errInvalidSchoolID = echo.NewHTTPError(http.StatusBadRequest, "invalid "+HeaderSchoolID+" header")
)

// tenantMiddleware runs the rest of the chain within the tenant of the authenticated caller.
// It never rejects a request by itself: see requireTenant.
func tenantMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}

		req := ctx.Request()
		id := claims.Identity()

		// the header is only read for super-admins without a school of their own
		var headerSchoolID string
		if id.IsSuperAdmin && id.SchoolID == "" {
			headerSchoolID = strings.TrimSpace(req.Header.Get(HeaderSchoolID))
			if headerSchoolID != "" {
				if _, err = uuid.Parse(headerSchoolID); err != nil {
					return errInvalidSchoolID
				}
			}
		}

		tc := tenant.FromIdentity(id, strings.ToLower(headerSchoolID))
		return tenant.Run(req.Context(), tc, func(tctx context.Context) error {
			ctx.SetRequest(req.WithContext(tctx))
			return next(ctx)
		})
	}
}

// requireTenant rejects the requests of callers that are neither bound to a school nor super-admins.
func requireTenant(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		tc, ok := tenant.Current(ctx.Request().Context())
		if !ok || !(tc.IsSuperAdmin || tc.HasSchool()) {
			return errNoSchool
		}
		return next(ctx)
	}
}
