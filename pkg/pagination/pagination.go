package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// MaxLimit caps the page size when a client supplies one.
const MaxLimit = 500

// Params holds pagination parameters extracted from a request. A Limit of
// zero means "no limit": list endpoints return the full snapshot unless the
// client opts in to paging.
type Params struct {
	Limit  int
	Offset int
}

// FromContext extracts pagination parameters from the echo context.
func FromContext(c echo.Context) Params {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 0 {
		limit = 0
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}

	return Params{Limit: limit, Offset: offset}
}

// Unlimited reports whether the client requested the full result set.
func (p Params) Unlimited() bool {
	return p.Limit <= 0
}
