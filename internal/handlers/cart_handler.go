package handlers

import (
	"errors"
	"fmt"

	"etalase/internal/models"
	"etalase/internal/repositories"
	"etalase/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// AddItemRequest is the body of an add-to-cart call.
type AddItemRequest struct {
	ProductID string `json:"product_id" form:"product_id" validate:"required"`
}

// UpdateQuantityRequest is the body of a quantity change. Quantity is kept
// loosely typed so that strings and numbers are coerced the same way the
// quantity input on the cart page is.
type UpdateQuantityRequest struct {
	Quantity any `json:"quantity"`
}

// CartResponse is the JSON view of a cart after an operation.
type CartResponse struct {
	Items         models.Cart             `json:"items"`
	Totals        models.Totals           `json:"totals"`
	Count         int                     `json:"count"`
	ItemCount     int                     `json:"item_count"`
	Notifications []services.Notification `json:"notifications"`
}

// CartHandler handles HTTP requests for the session cart.
type CartHandler struct {
	sessions *CartSessions
	products *services.ProductService
	validate *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(sessions *CartSessions, products *services.ProductService) *CartHandler {
	return &CartHandler{
		sessions: sessions,
		products: products,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the cart routes with the Fiber app.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Delete("/", h.HandleClearCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Patch("/items/:id", h.HandleUpdateQuantity)
	cartRoutes.Delete("/items/:id", h.HandleRemoveItem)
}

func cartResponse(store *services.CartStore, notes *services.Collector) CartResponse {
	cart := store.Load()
	resp := CartResponse{
		Items:         cart,
		Totals:        services.ComputeTotals(cart),
		Count:         cart.TotalQuantity(),
		ItemCount:     len(cart),
		Notifications: []services.Notification{},
	}
	if notes != nil && len(notes.Notifications) > 0 {
		resp.Notifications = notes.Notifications
	}
	return resp
}

func storageFailed(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Could not update cart",
		"error":   err.Error(),
	})
}

// HandleGetCart returns the current cart with its totals.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	store, notes := h.sessions.CollectingStore(c)
	return c.JSON(cartResponse(store, notes))
}

// HandleAddItem adds one unit of a catalog product. Name, price and image
// always come from the catalog.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddItemRequest
	if err := c.BodyParser(&req); err != nil {
		log.WithError(err).Debug("Error parsing add item request")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	product, err := h.products.GetProductByID(req.ProductID)
	if err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Product with ID %s not found", req.ProductID),
			})
		}
		log.WithError(err).Errorf("Error getting product by ID %s", req.ProductID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve product",
			"error":   err.Error(),
		})
	}

	store, notes := h.sessions.CollectingStore(c)
	if err := store.Add(product.ID, product.Name, product.Price, product.Image); err != nil {
		log.WithError(err).Errorf("Error adding product %s to cart", product.ID)
		return storageFailed(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(cartResponse(store, notes))
}

// HandleUpdateQuantity sets the quantity of an item. Values that do not
// coerce to a positive integer remove the item.
func (h *CartHandler) HandleUpdateQuantity(c *fiber.Ctx) error {
	var req UpdateQuantityRequest
	if err := c.BodyParser(&req); err != nil {
		log.WithError(err).Debug("Error parsing quantity update")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if req.Quantity == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "quantity is required",
		})
	}

	store, notes := h.sessions.CollectingStore(c)
	if err := store.UpdateQuantityInput(c.Params("id"), req.Quantity); err != nil {
		log.WithError(err).Errorf("Error updating quantity of %s", c.Params("id"))
		return storageFailed(c, err)
	}
	return c.JSON(cartResponse(store, notes))
}

// HandleRemoveItem removes an item. Unknown ids leave the cart unchanged.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	store, notes := h.sessions.CollectingStore(c)
	if err := store.Remove(c.Params("id")); err != nil {
		log.WithError(err).Errorf("Error removing %s from cart", c.Params("id"))
		return storageFailed(c, err)
	}
	return c.JSON(cartResponse(store, notes))
}

// HandleClearCart empties the cart.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	store, notes := h.sessions.CollectingStore(c)
	if err := store.Clear(); err != nil {
		log.WithError(err).Error("Error clearing cart")
		return storageFailed(c, err)
	}
	return c.JSON(cartResponse(store, notes))
}
