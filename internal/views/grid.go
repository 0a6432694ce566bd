package views

import (
	"fmt"
	"math"

	"etalase/internal/services"
)

// PriceOption is one entry of the price range control.
type PriceOption struct {
	Value string
	Label string
}

// DefaultPriceOptions are the ranges offered by the product filter.
var DefaultPriceOptions = []PriceOption{
	{Value: services.AllPrices, Label: "All prices"},
	{Value: "0-100", Label: "Under $100"},
	{Value: "100-500", Label: "$100 - $500"},
	{Value: "500-1000", Label: "$500 - $1000"},
	{Value: "1000plus", Label: "Over $1000"},
}

// ProductGrid is the filtered grid together with the control values that
// produced it.
type ProductGrid struct {
	Items    []services.ProductVisibility
	Tags     []string
	Criteria services.FilterCriteria
	ReturnTo string
}

type selectOption struct {
	Value    string
	Label    string
	Selected bool
}

type productCard struct {
	ID        string
	Name      string
	Tag       string
	Image     string
	Price     string
	DataPrice string
	Visible   bool
}

type gridView struct {
	Search       string
	Tag          string
	Tags         []selectOption
	PriceOptions []selectOption
	Cards        []productCard
	VisibleCount int
	ReturnTo     string
}

func newGridView(grid ProductGrid) gridView {
	tag := grid.Criteria.Tag
	if tag == "" {
		tag = services.AllTags
	}
	priceToken := grid.Criteria.PriceToken
	if priceToken == "" {
		priceToken = services.AllPrices
	}

	view := gridView{
		Search:   grid.Criteria.SearchTerm,
		Tag:      tag,
		Cards:    make([]productCard, 0, len(grid.Items)),
		ReturnTo: grid.ReturnTo,
	}
	for _, t := range grid.Tags {
		view.Tags = append(view.Tags, selectOption{Value: t, Label: t, Selected: t == tag})
	}
	for _, o := range DefaultPriceOptions {
		view.PriceOptions = append(view.PriceOptions, selectOption{Value: o.Value, Label: o.Label, Selected: o.Value == priceToken})
	}
	for _, pv := range grid.Items {
		p := pv.Product
		view.Cards = append(view.Cards, productCard{
			ID:        p.ID,
			Name:      p.Name,
			Tag:       p.Tag,
			Image:     p.Image,
			Price:     services.FormatMoney(p.Price),
			DataPrice: fmt.Sprintf("%d", int64(math.Trunc(p.Price))),
			Visible:   pv.Visible,
		})
		if pv.Visible {
			view.VisibleCount++
		}
	}
	return view
}
