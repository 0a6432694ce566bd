package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"etalase/internal/models"
	"etalase/internal/services"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page identifies a storefront page.
type Page string

const (
	PageHome     Page = "home"
	PageProducts Page = "products"
	PageCart     Page = "cart"
	PageCheckout Page = "checkout"
)

var pageTitles = map[Page]string{
	PageHome:     "Home",
	PageProducts: "Products",
	PageCart:     "Cart",
	PageCheckout: "Checkout",
}

// CartReader is the read side of a cart store.
type CartReader interface {
	Load() models.Cart
}

// PageData is everything a page render may need. Fields that a page does not
// use are ignored.
type PageData struct {
	CartCount int
	Flashes   []services.Notification
	Cart      CartReader
	Grid      ProductGrid
}

// Renderer renders storefront pages from embedded templates.
type Renderer struct {
	templates *template.Template
	fragments map[Page]func(io.Writer, PageData) error
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	r := &Renderer{templates: tmpl}
	r.fragments = map[Page]func(io.Writer, PageData) error{
		PageHome: func(w io.Writer, _ PageData) error {
			return r.templates.ExecuteTemplate(w, "home", nil)
		},
		PageProducts: func(w io.Writer, d PageData) error {
			return r.RenderProductGrid(w, d.Grid)
		},
		PageCart: func(w io.Writer, d PageData) error {
			return r.RenderCartPage(w, d.Cart)
		},
		PageCheckout: func(w io.Writer, d PageData) error {
			return r.RenderCheckoutSummary(w, d.Cart)
		},
	}
	return r, nil
}

// Render writes the full document for page. Unknown pages render nothing.
func (r *Renderer) Render(w io.Writer, page Page, data PageData) error {
	fragment, ok := r.fragments[page]
	if !ok {
		return nil
	}

	var body bytes.Buffer
	if err := fragment(&body, data); err != nil {
		return fmt.Errorf("failed to render %s page: %w", page, err)
	}

	return r.templates.ExecuteTemplate(w, "layout", layoutView{
		Title:     pageTitles[page],
		CartCount: data.CartCount,
		Flashes:   data.Flashes,
		Content:   template.HTML(body.String()),
	})
}

type layoutView struct {
	Title     string
	CartCount int
	Flashes   []services.Notification
	Content   template.HTML
}

// RenderCartPage writes the cart table and totals. Without a cart it writes
// nothing.
func (r *Renderer) RenderCartPage(w io.Writer, cart CartReader) error {
	if cart == nil {
		return nil
	}
	return r.templates.ExecuteTemplate(w, "cart", newCartView(cart.Load()))
}

// RenderCheckoutSummary writes the order summary and checkout form. Without a
// cart it writes nothing.
func (r *Renderer) RenderCheckoutSummary(w io.Writer, cart CartReader) error {
	if cart == nil {
		return nil
	}
	return r.templates.ExecuteTemplate(w, "checkout", newCartView(cart.Load()))
}

// RenderProductGrid writes the filter controls and product cards.
func (r *Renderer) RenderProductGrid(w io.Writer, grid ProductGrid) error {
	return r.templates.ExecuteTemplate(w, "products", newGridView(grid))
}

type cartRow struct {
	ID          string
	Name        string
	Image       string
	UnitPrice   string
	Quantity    int
	MaxQuantity int
	LineTotal   string
}

type cartView struct {
	Empty     bool
	ItemCount int
	Rows      []cartRow
	Subtotal  string
	Tax       string
	Total     string
}

func newCartView(cart models.Cart) cartView {
	totals := services.ComputeTotals(cart)
	view := cartView{
		Empty:     cart.IsEmpty(),
		ItemCount: len(cart),
		Rows:      make([]cartRow, 0, len(cart)),
		Subtotal:  services.FormatMoney(totals.Subtotal),
		Tax:       services.FormatMoney(totals.Tax),
		Total:     services.FormatMoney(totals.Total),
	}
	for _, item := range cart {
		view.Rows = append(view.Rows, cartRow{
			ID:          item.ID,
			Name:        item.Name,
			Image:       item.Image,
			UnitPrice:   services.FormatMoney(item.Price),
			Quantity:    item.Quantity,
			MaxQuantity: services.MaxQuantity,
			LineTotal:   services.FormatMoney(item.LineTotal()),
		})
	}
	return view
}
