package quill

import (
	"strconv"
	"strings"
)

// Ordering selects the sort order of a post listing.
type Ordering int

const (
	OrderCreatedDesc Ordering = iota
	OrderCreatedAsc
	OrderModifiedDesc
	OrderViewsDesc
)

var orderingNames = map[string]Ordering{
	"":               OrderCreatedDesc,
	"-created_time":  OrderCreatedDesc,
	"created_time":   OrderCreatedAsc,
	"-modified_time": OrderModifiedDesc,
	"-views":         OrderViewsDesc,
}

// ParseOrdering maps an ordering query value to an Ordering.
func ParseOrdering(s string) (Ordering, error) {
	o, ok := orderingNames[s]
	if !ok {
		return 0, NewValidationError("ordering", "unsupported ordering "+strconv.Quote(s))
	}
	return o, nil
}

func (o Ordering) String() string {
	switch o {
	case OrderCreatedAsc:
		return "created_time"
	case OrderModifiedDesc:
		return "-modified_time"
	case OrderViewsDesc:
		return "-views"
	default:
		return "-created_time"
	}
}

// PostFilter narrows a post collection. Zero values mean "no constraint".
// Identities are expected to be resolved by the caller: the filter never
// checks that CategoryID or TagIDs exist.
type PostFilter struct {
	CategoryID int64   `json:"category,omitempty" validate:"gte=0"`
	TagIDs     []int64 `json:"tags,omitempty" validate:"omitempty,dive,gt=0"`
	Year       int     `json:"created_year,omitempty" validate:"gte=0,lte=9999"`
	Month      int     `json:"created_month,omitempty" validate:"gte=0,lte=12"`
	// Query matches case-sensitively against title or body.
	Query string   `json:"query,omitempty"`
	Order Ordering `json:"-"`
}

// Validate checks value ranges of the filter.
func (f PostFilter) Validate() error {
	return validateStruct(f)
}

// Matches reports whether p satisfies the filter. The store applies the same
// rules in SQL; Matches serves in-memory collections.
func (f PostFilter) Matches(p Post) bool {
	if f.CategoryID != 0 && p.Category.ID != f.CategoryID {
		return false
	}
	if f.Year != 0 && p.CreatedAt.UTC().Year() != f.Year {
		return false
	}
	if f.Month != 0 && int(p.CreatedAt.UTC().Month()) != f.Month {
		return false
	}
	if len(f.TagIDs) > 0 && !hasAnyTag(p, f.TagIDs) {
		return false
	}
	if f.Query != "" && !strings.Contains(p.Title, f.Query) && !strings.Contains(p.Body, f.Query) {
		return false
	}
	return true
}

func hasAnyTag(p Post, ids []int64) bool {
	for _, t := range p.Tags {
		for _, id := range ids {
			if t.ID == id {
				return true
			}
		}
	}
	return false
}

// ValidateQuery rejects an empty or whitespace-only search query. Callers
// run it before any storage lookup.
func ValidateQuery(q string) error {
	if strings.TrimSpace(q) == "" {
		return NewValidationError("query", "query must not be empty")
	}
	return nil
}
