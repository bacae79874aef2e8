package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/nkashama/bweni/core"
)

var orderingParam = "sortBy"

// Ordering binds the `sortBy=field:asc|desc` query parameter. Fields are
// whitelisted per endpoint; unknown fields are dropped silently.
type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context, allowed map[string]string) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		direction := "asc"
		if i := strings.IndexByte(field, ':'); i >= 0 {
			field, direction = field[:i], strings.ToLower(field[i+1:])
		}
		column, ok := allowed[field]
		if !ok {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: column, Ascending: direction != "desc"})
	}
}
