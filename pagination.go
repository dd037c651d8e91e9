package quill

import (
	"fmt"
	"math"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"
)

var errInvalidPage = fmt.Errorf("%w: invalid page", ErrNotFound)

// pageRequest is the 1-based page and page size asked for by a caller.
type pageRequest struct {
	Number int
	Size   int
}

// parsePageRequest reads ?page and ?page_size. page_size is capped at max;
// both are clamped so that window never overflows.
func parsePageRequest(c echo.Context, def, max int) (pageRequest, error) {
	pr := pageRequest{Number: 1, Size: def}
	fields := map[string]string{}
	if raw := c.QueryParam("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			fields["page"] = "a valid positive integer is required"
		} else {
			pr.Number = min(n, math.MaxInt32)
		}
	}
	if raw := c.QueryParam("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			fields["page_size"] = "a valid positive integer is required"
		} else {
			pr.Size = min(n, math.MaxInt32)
		}
	}
	if len(fields) > 0 {
		return pageRequest{}, &ValidationError{Fields: fields}
	}
	if max > 0 && pr.Size > max {
		pr.Size = max
	}
	return pr, nil
}

func (pr pageRequest) window() Page {
	return Page{Limit: pr.Size, Offset: (pr.Number - 1) * pr.Size}
}

// check rejects a page past the end. The first page always exists, even
// when the collection is empty.
func (pr pageRequest) check(total int) error {
	if pr.Number > 1 && pr.Number-1 >= (total+pr.Size-1)/pr.Size {
		return errInvalidPage
	}
	return nil
}

func (pr pageRequest) hasNext(total int) bool {
	return pr.Number*pr.Size < total
}

// Paginated is the envelope around every list response.
type Paginated struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
	Filters  any     `json:"filters,omitempty"`
	Results  any     `json:"results"`
}

func paginated(c echo.Context, pr pageRequest, total int, results, filters any) Paginated {
	p := Paginated{
		Count:    total,
		Page:     pr.Number,
		PageSize: pr.Size,
		Filters:  filters,
		Results:  results,
	}
	if pr.hasNext(total) {
		u := pageURL(c, pr.Number+1)
		p.Next = &u
	}
	if pr.Number > 1 {
		u := pageURL(c, pr.Number-1)
		p.Previous = &u
	}
	return p
}

// pageURL is the absolute URL of the current request pointing at page n.
// Page 1 drops the page parameter.
func pageURL(c echo.Context, n int) string {
	req := c.Request()
	q := req.URL.Query()
	if n <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(n))
	}
	u := url.URL{
		Scheme:   c.Scheme(),
		Host:     req.Host,
		Path:     req.URL.Path,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// paginateSlice windows an in-memory collection.
func paginateSlice[T any](items []T, pr pageRequest) []T {
	w := pr.window()
	if w.Offset >= len(items) {
		return []T{}
	}
	end := w.Offset + w.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[w.Offset:end]
}
