package services

import (
	"math"
	"strconv"
	"strings"

	"etalase/internal/metrics"
	"etalase/internal/models"
)

const (
	// AllTags selects every category.
	AllTags = "all"
	// AllPrices selects every price.
	AllPrices = "all"

	openEndedSuffix = "plus"
)

// PriceRange is an inclusive price interval. Max may be +Inf.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether price lies within the range.
func (r PriceRange) Contains(price float64) bool {
	return price >= r.Min && price <= r.Max
}

// Unbounded returns the range that matches any non-negative price.
func Unbounded() PriceRange {
	return PriceRange{Min: 0, Max: math.Inf(1)}
}

// FilterCriteria is the state of the grid filter controls.
type FilterCriteria struct {
	SearchTerm string
	Tag        string
	Price      PriceRange
	PriceToken string
}

// ParsePriceRange reads a price control token: "all", "A-B" or "Nplus" (such
// as "1000plus"). Unparseable bounds default to 0 and +Inf, and an
// unrecognized token matches every price.
func ParsePriceRange(token string) PriceRange {
	token = strings.TrimSpace(strings.ToLower(token))
	r := Unbounded()
	if token == "" || token == AllPrices {
		return r
	}

	if parts := strings.Split(token, "-"); len(parts) == 2 {
		if lo, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64); err == nil && lo >= 0 {
			r.Min = lo
		}
		if hi, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64); err == nil && hi >= 0 {
			r.Max = hi
		}
		return r
	}

	if strings.HasSuffix(token, openEndedSuffix) {
		if lo, err := strconv.ParseFloat(strings.TrimSuffix(token, openEndedSuffix), 64); err == nil && lo >= 0 {
			r.Min = lo
		}
	}
	return r
}

// CriteriaFromValues builds criteria from raw control values. An empty tag
// selects every category.
func CriteriaFromValues(search, tag, price string) FilterCriteria {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		tag = AllTags
	}
	return FilterCriteria{
		SearchTerm: strings.ToLower(strings.TrimSpace(search)),
		Tag:        tag,
		Price:      ParsePriceRange(price),
		PriceToken: strings.TrimSpace(price),
	}
}

// Matches reports whether a product passes every filter.
func (c FilterCriteria) Matches(p models.Product) bool {
	nameMatch := strings.Contains(strings.ToLower(p.Name), strings.ToLower(c.SearchTerm))
	tagMatch := c.Tag == "" || c.Tag == AllTags || c.Tag == p.Tag
	return nameMatch && tagMatch && c.Price.Contains(p.Price)
}

// ProductVisibility pairs a grid product with its display state.
type ProductVisibility struct {
	Product models.Product `json:"product"`
	Visible bool           `json:"visible"`
}

// ProductFilter evaluates filter criteria over the product grid.
type ProductFilter struct {
	metrics *metrics.CartMetrics
}

// NewProductFilter creates a ProductFilter.
func NewProductFilter(m *metrics.CartMetrics) *ProductFilter {
	return &ProductFilter{metrics: m}
}

// Apply computes the visibility of every product, preserving grid order.
func (f *ProductFilter) Apply(products []models.Product, criteria FilterCriteria) []ProductVisibility {
	if f != nil {
		f.metrics.FilterApplied()
	}
	out := make([]ProductVisibility, len(products))
	for i, p := range products {
		out[i] = ProductVisibility{Product: p, Visible: criteria.Matches(p)}
	}
	return out
}

// Visible returns only the products that pass the filter.
func Visible(grid []ProductVisibility) []models.Product {
	out := make([]models.Product, 0, len(grid))
	for _, pv := range grid {
		if pv.Visible {
			out = append(out, pv.Product)
		}
	}
	return out
}

// Tags returns the distinct product tags in grid order.
func Tags(products []models.Product) []string {
	seen := make(map[string]struct{})
	var tags []string
	for _, p := range products {
		if p.Tag == "" {
			continue
		}
		if _, ok := seen[p.Tag]; ok {
			continue
		}
		seen[p.Tag] = struct{}{}
		tags = append(tags, p.Tag)
	}
	return tags
}
