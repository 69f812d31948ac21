package echoapi

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/educore/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// queryTime parses the `name` query param, as RFC3339 or a plain date (midnight UTC).
func queryTime(ctx echo.Context, name string) (time.Time, error) {
	val := strings.TrimSpace(ctx.QueryParam(name))
	if val == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", val)
	if err != nil {
		return time.Time{}, core.NewFieldValidationError(name, "invalid date")
	}
	return t, nil
}

// queryTimeRange parses the `from` & `to` query params.
func queryTimeRange(ctx echo.Context, from, to string) (time.Time, time.Time, error) {
	start, err := queryTime(ctx, from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := queryTime(ctx, to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}
