package databases

import (
	"math"

	"go.mongodb.org/mongo-driver/mongo/options"
)

// MaxPageSize caps the limit of a paginated find
const MaxPageSize = 100

type mongoPaginate struct {
	limit int64
	page  int64
}

func newMongoPaginate(limit, page int) *mongoPaginate {
	return &mongoPaginate{
		limit: int64(limit),
		page:  int64(page),
	}
}

// getPaginatedOpts returns find options for a 1-based page. A non-positive
// limit disables pagination; larger limits are capped at MaxPageSize.
func (mp *mongoPaginate) getPaginatedOpts() *options.FindOptions {
	if mp.limit <= 0 {
		return options.Find()
	}
	if mp.limit > MaxPageSize {
		mp.limit = MaxPageSize
	}
	if mp.page < 1 {
		mp.page = 1
	}
	// keep page*limit within int64
	if maxPage := math.MaxInt64 / mp.limit; mp.page > maxPage {
		mp.page = maxPage
	}
	l := mp.limit
	skip := mp.page*mp.limit - mp.limit
	fOpt := options.FindOptions{Limit: &l, Skip: &skip}

	return &fOpt
}
