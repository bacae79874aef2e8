// Package sqlxrepos implements the core repositories on PostgreSQL via sqlx.
// Each repository holds the connection pool and accepts an optional executor
// override so services can thread a transaction through.
package sqlxrepos

import (
	"strings"

	"github.com/nkashama/bweni/core"
)

func orderBy(ordering []core.DBOrdering) string {
	if len(ordering) == 0 {
		return ""
	}
	orderList := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		orderList = append(orderList, ord.String())
	}
	return " ORDER BY " + strings.Join(orderList, ", ")
}
