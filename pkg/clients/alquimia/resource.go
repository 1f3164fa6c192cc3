package alquimia

import (
	"context"
	"fmt"
	"strconv"

	"github.com/alquimia/consola/internal/domain/models"
)

// Page is one windowed slice of a resource collection plus pagination
// metadata, exactly as the backend reports it.
type Page[R any] struct {
	Items []R   `json:"items"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// TotalPages computes the page count with a floor of one page even when the
// collection is empty.
func (p Page[R]) TotalPages() int {
	return PageCount(p.Total, p.Limit)
}

// PageCount is ceil(total/limit) floored at 1.
func PageCount(total int64, limit int) int {
	if limit <= 0 {
		return 1
	}
	n := int((total + int64(limit) - 1) / int64(limit))
	if n < 1 {
		return 1
	}
	return n
}

// ListParams are the read-endpoint request parameters. An empty Query means
// no filter.
type ListParams struct {
	Page  int
	Limit int
	Query string
}

func (p ListParams) normalized() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 10
	}
	return p
}

// Resource exposes the uniform endpoint set for one record kind mounted at
// /<path> under the API base. One instance is created per resource kind.
type Resource[R models.Record] struct {
	c    *Client
	path string
}

// NewResource binds a record type to its endpoint path, e.g. "materiales".
func NewResource[R models.Record](c *Client, path string) *Resource[R] {
	return &Resource[R]{c: c, path: "/" + path}
}

// List fetches one page of records matching the query.
func (r *Resource[R]) List(ctx context.Context, params ListParams) (*Page[R], error) {
	params = params.normalized()

	result := new(Page[R])
	apiErr := new(apiError)

	resp, err := r.c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"page":  strconv.Itoa(params.Page),
			"limit": strconv.Itoa(params.Limit),
			"q":     params.Query,
		}).
		SetResult(result).
		SetError(apiErr).
		Get(r.path)
	if wrapped := r.c.check("list "+r.path, resp, err, apiErr); wrapped != nil {
		return nil, wrapped
	}

	return result, nil
}

// Create sends a new record. Required fields are validated client-side first;
// a validation failure short-circuits without a network call.
func (r *Resource[R]) Create(ctx context.Context, record R) (*R, error) {
	if err := record.Validate(); err != nil {
		return nil, err
	}

	result := new(R)
	apiErr := new(apiError)

	resp, err := r.c.httpClient.R().
		SetContext(ctx).
		SetBody(record).
		SetResult(result).
		SetError(apiErr).
		Post(r.path)
	if wrapped := r.c.check("create "+r.path, resp, err, apiErr); wrapped != nil {
		return nil, wrapped
	}

	return result, nil
}

// Update replaces the mutable fields of the record with the given id.
func (r *Resource[R]) Update(ctx context.Context, id uint, record R) (*R, error) {
	if err := record.Validate(); err != nil {
		return nil, err
	}

	result := new(R)
	apiErr := new(apiError)

	resp, err := r.c.httpClient.R().
		SetContext(ctx).
		SetBody(record).
		SetResult(result).
		SetError(apiErr).
		Put(fmt.Sprintf("%s/%d", r.path, id))
	if wrapped := r.c.check("update "+r.path, resp, err, apiErr); wrapped != nil {
		return nil, wrapped
	}

	return result, nil
}

// Delete removes the record with the given id. The caller is responsible for
// confirming the irreversible action with the user first.
func (r *Resource[R]) Delete(ctx context.Context, id uint) error {
	apiErr := new(apiError)

	resp, err := r.c.httpClient.R().
		SetContext(ctx).
		SetError(apiErr).
		Delete(fmt.Sprintf("%s/%d", r.path, id))

	return r.c.check("delete "+r.path, resp, err, apiErr)
}

// Adjust applies a signed stock delta with a reason. Zero deltas are rejected
// client-side before any network call.
func (r *Resource[R]) Adjust(ctx context.Context, id uint, adjustment models.AjusteRequest) (*R, error) {
	if err := adjustment.Validate(); err != nil {
		return nil, err
	}

	result := new(R)
	apiErr := new(apiError)

	resp, err := r.c.httpClient.R().
		SetContext(ctx).
		SetBody(adjustment).
		SetResult(result).
		SetError(apiErr).
		Patch(fmt.Sprintf("%s/%d/ajustar", r.path, id))
	if wrapped := r.c.check("adjust "+r.path, resp, err, apiErr); wrapped != nil {
		return nil, wrapped
	}

	return result, nil
}
