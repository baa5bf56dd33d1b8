package repositories

import "time"

// DefaultPageSize is used when a caller asks for a non-positive page size.
const DefaultPageSize = 20

// PageRequest carries cursor pagination input. NextToken is the opaque
// token returned with the previous page.
type PageRequest struct {
	Limit     int
	NextToken *string
}

// EffectiveLimit returns Limit, or DefaultPageSize when Limit is not positive.
func (p PageRequest) EffectiveLimit() int {
	if p.Limit <= 0 {
		return DefaultPageSize
	}
	return p.Limit
}

// DateRange is an inclusive calendar-date filter. Nil bounds are open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}
