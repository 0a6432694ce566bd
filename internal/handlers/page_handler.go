package handlers

import (
	"bytes"
	"errors"
	"strings"

	"etalase/internal/middleware"
	"etalase/internal/models"
	"etalase/internal/repositories"
	"etalase/internal/services"
	"etalase/internal/views"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// PageHandler serves the storefront HTML pages.
type PageHandler struct {
	sessions *CartSessions
	products *services.ProductService
	checkout *services.CheckoutService
	renderer *views.Renderer
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(sessions *CartSessions, products *services.ProductService, checkout *services.CheckoutService, renderer *views.Renderer) *PageHandler {
	return &PageHandler{
		sessions: sessions,
		products: products,
		checkout: checkout,
		renderer: renderer,
	}
}

// RegisterRoutes registers the page routes with the Fiber app.
func (h *PageHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/", h.HandleHome)
	router.Get("/products", h.HandleProducts)
	router.Get("/cart", h.HandleCart)
	router.Post("/cart/items", h.HandleAddToCart)
	router.Post("/cart/items/:id/quantity", h.HandleUpdateQuantity)
	router.Post("/cart/items/:id/remove", h.HandleRemoveFromCart)
	router.Get("/checkout", h.HandleCheckoutPage)
	router.Post("/checkout", h.HandleCheckout)
}

// render writes page with the cart indicator and pending flash messages.
func (h *PageHandler) render(c *fiber.Ctx, page views.Page, data views.PageData) error {
	st := h.sessions.Storage(c)
	store := services.NewCartStore(st, nil, nil)
	data.CartCount = store.Count()
	data.Flashes = popFlashes(st)
	if data.Cart == nil {
		data.Cart = store
	}

	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, page, data); err != nil {
		log.WithError(err).Errorf("Error rendering %s page", page)
		return c.Status(fiber.StatusInternalServerError).SendString("Could not render page")
	}
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

// HandleHome renders the landing page.
func (h *PageHandler) HandleHome(c *fiber.Ctx) error {
	return h.render(c, views.PageHome, views.PageData{})
}

// HandleProducts renders the product grid filtered by the query string.
func (h *PageHandler) HandleProducts(c *fiber.Ctx) error {
	criteria := services.CriteriaFromValues(c.Query("search"), c.Query("tag"), c.Query("price"))
	grid, err := h.products.FilterProducts(criteria)
	if err != nil {
		log.WithError(err).Error("Error filtering products")
		return c.Status(fiber.StatusInternalServerError).SendString("Could not load products")
	}

	all := make([]models.Product, 0, len(grid))
	for _, pv := range grid {
		all = append(all, pv.Product)
	}

	return h.render(c, views.PageProducts, views.PageData{
		Grid: views.ProductGrid{
			Items:    grid,
			Tags:     services.Tags(all),
			Criteria: criteria,
			ReturnTo: c.OriginalURL(),
		},
	})
}

// HandleCart renders the cart page.
func (h *PageHandler) HandleCart(c *fiber.Ctx) error {
	return h.render(c, views.PageCart, views.PageData{})
}

// HandleCheckoutPage renders the checkout summary and form.
func (h *PageHandler) HandleCheckoutPage(c *fiber.Ctx) error {
	return h.render(c, views.PageCheckout, views.PageData{})
}

// HandleAddToCart adds the posted product, using the catalog's name and price
// rather than anything the browser sends.
func (h *PageHandler) HandleAddToCart(c *fiber.Ctx) error {
	returnTo := safeReturnPath(c.FormValue("return_to"), "/products")
	productID := c.FormValue("product_id")

	product, err := h.products.GetProductByID(productID)
	if err != nil {
		if !errors.Is(err, repositories.ErrProductNotFound) {
			log.WithError(err).Errorf("Error getting product by ID %s", productID)
		}
		flashNotifier{storage: h.sessions.Storage(c)}.Notify(services.Notification{
			Kind:    services.NotifyInvalidInput,
			Message: "That product is no longer available.",
		})
		return c.Redirect(returnTo, fiber.StatusSeeOther)
	}

	store := h.sessions.FlashStore(c)
	if err := store.Add(product.ID, product.Name, product.Price, product.Image); err != nil {
		log.WithError(err).Errorf("Error adding product %s to cart", product.ID)
		return c.Status(fiber.StatusInternalServerError).SendString("Could not update cart")
	}
	return c.Redirect(returnTo, fiber.StatusSeeOther)
}

// HandleUpdateQuantity applies the posted quantity. Non-numeric or
// non-positive values remove the item.
func (h *PageHandler) HandleUpdateQuantity(c *fiber.Ctx) error {
	store := h.sessions.FlashStore(c)
	if err := store.UpdateQuantityInput(c.Params("id"), c.FormValue("quantity")); err != nil {
		log.WithError(err).Errorf("Error updating quantity of %s", c.Params("id"))
		return c.Status(fiber.StatusInternalServerError).SendString("Could not update cart")
	}
	return c.Redirect("/cart", fiber.StatusSeeOther)
}

// HandleRemoveFromCart removes an item.
func (h *PageHandler) HandleRemoveFromCart(c *fiber.Ctx) error {
	store := h.sessions.FlashStore(c)
	if err := store.Remove(c.Params("id")); err != nil {
		log.WithError(err).Errorf("Error removing %s from cart", c.Params("id"))
		return c.Status(fiber.StatusInternalServerError).SendString("Could not update cart")
	}
	return c.Redirect("/cart", fiber.StatusSeeOther)
}

// HandleCheckout finalizes the order and sends the shopper to the landing
// page. Refused checkouts return to the checkout page, where the flash
// message explains why.
func (h *PageHandler) HandleCheckout(c *fiber.Ctx) error {
	var form models.CheckoutForm
	if err := c.BodyParser(&form); err != nil {
		log.WithError(err).Debug("Error parsing checkout form")
	}

	store := h.sessions.FlashStore(c)
	receipt, err := h.checkout.Submit(store, middleware.SessionID(c), form)
	if err != nil {
		if errors.Is(err, services.ErrCartEmpty) || isValidationError(err) {
			return c.Redirect("/checkout", fiber.StatusSeeOther)
		}
		log.WithError(err).Error("Error during checkout")
		return c.Status(fiber.StatusInternalServerError).SendString("Could not complete checkout")
	}
	return c.Redirect(receipt.RedirectTo, fiber.StatusSeeOther)
}

// safeReturnPath accepts only local absolute paths.
func safeReturnPath(path, fallback string) string {
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") || strings.Contains(path, "\\") {
		return fallback
	}
	return path
}
