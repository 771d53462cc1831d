package pagination

import (
	"context"
	"math"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	DefaultPage     = 1
	DefaultLimit    = 10
	DefaultMaxLimit = 100
)

type Request struct {
	Page  int
	Limit int
}

// FromQuery parses page/limit query values. Anything unparsable is left
// at zero and replaced by the defaults in Normalize.
func FromQuery(page, limit string) Request {
	p, _ := strconv.Atoi(strings.TrimSpace(page))
	l, _ := strconv.Atoi(strings.TrimSpace(limit))
	return Request{Page: p, Limit: l}
}

// Normalize applies the defaults, clamps limit to maxLimit
// (DefaultMaxLimit when maxLimit <= 0) and caps page so Offset cannot
// overflow.
func (r Request) Normalize(maxLimit int) Request {
	if maxLimit <= 0 {
		maxLimit = DefaultMaxLimit
	}
	if r.Page < 1 {
		r.Page = DefaultPage
	}
	if r.Limit < 1 {
		r.Limit = DefaultLimit
	}
	if r.Limit > maxLimit {
		r.Limit = maxLimit
	}
	// keep Offset within int
	if maxPage := math.MaxInt / r.Limit; r.Page > maxPage {
		r.Page = maxPage
	}
	return r
}

func (r Request) Offset() int {
	return (r.Page - 1) * r.Limit
}

type Info struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

type Result[T any] struct {
	Data       []T  `json:"data"`
	Pagination Info `json:"pagination"`
}

func NewInfo(total int64, req Request) Info {
	pages := 0
	if req.Limit > 0 {
		pages = int((total + int64(req.Limit) - 1) / int64(req.Limit))
	}
	return Info{Total: total, Page: req.Page, Limit: req.Limit, TotalPages: pages}
}

// Paginate fetches one page of query and counts every row matching it, in
// parallel. query must already carry its model and filters; order applies
// only to the page fetch. req is expected to be normalized.
func Paginate[T any](ctx context.Context, query *gorm.DB, req Request, order ...string) (*Result[T], error) {
	var (
		rows  []T
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q := query.Session(&gorm.Session{Context: gctx})
		for _, o := range order {
			q = q.Order(o)
		}
		return q.Offset(req.Offset()).Limit(req.Limit).Find(&rows).Error
	})
	g.Go(func() error {
		return query.Session(&gorm.Session{Context: gctx}).Count(&total).Error
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []T{}
	}
	return &Result[T]{Data: rows, Pagination: NewInfo(total, req)}, nil
}
