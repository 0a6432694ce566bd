package handlers

import (
	"errors"

	"etalase/internal/middleware"
	"etalase/internal/models"
	"etalase/internal/services"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// CheckoutHandler handles checkout requests against the session cart.
type CheckoutHandler struct {
	sessions *CartSessions
	service  *services.CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(sessions *CartSessions, service *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		sessions: sessions,
		service:  service,
	}
}

// RegisterRoutes registers the checkout routes with the Fiber app.
func (h *CheckoutHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/checkout", h.HandleCheckout)
}

// HandleCheckout finalizes the cart and returns the receipt.
func (h *CheckoutHandler) HandleCheckout(c *fiber.Ctx) error {
	var form models.CheckoutForm
	if err := c.BodyParser(&form); err != nil {
		log.WithError(err).Debug("Error parsing checkout request")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	store, notes := h.sessions.CollectingStore(c)
	receipt, err := h.service.Submit(store, middleware.SessionID(c), form)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCartEmpty):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"message":       "Cart is empty",
				"notifications": notes.Notifications,
			})
		case isValidationError(err):
			return validationFailed(c, err)
		}
		log.WithError(err).Error("Error during checkout")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not complete checkout",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"receipt":       receipt,
		"notifications": notes.Notifications,
	})
}
