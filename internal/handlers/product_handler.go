package handlers

import (
	"errors"
	"fmt"

	"etalase/internal/repositories"
	"etalase/internal/services"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// ProductHandler handles HTTP requests for the catalog.
type ProductHandler struct {
	service *services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service: service,
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
}

// HandleGetProducts returns the whole grid with a visibility flag per product
// for the search, tag and price query parameters.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	criteria := services.CriteriaFromValues(c.Query("search"), c.Query("tag"), c.Query("price"))
	grid, err := h.service.FilterProducts(criteria)
	if err != nil {
		log.WithError(err).Error("Error filtering products")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve products",
			"error":   err.Error(),
		})
	}

	type gridEntry struct {
		ID      string  `json:"id"`
		Name    string  `json:"name"`
		Tag     string  `json:"tag"`
		Price   float64 `json:"price"`
		Image   string  `json:"image"`
		Visible bool    `json:"visible"`
	}
	entries := make([]gridEntry, 0, len(grid))
	for _, pv := range grid {
		entries = append(entries, gridEntry{
			ID:      pv.Product.ID,
			Name:    pv.Product.Name,
			Tag:     pv.Product.Tag,
			Price:   pv.Product.Price,
			Image:   pv.Product.Image,
			Visible: pv.Visible,
		})
	}

	return c.JSON(fiber.Map{
		"products":      entries,
		"visible_count": len(services.Visible(grid)),
	})
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	productID := c.Params("id")
	product, err := h.service.GetProductByID(productID)
	if err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Product with ID %s not found", productID),
			})
		}
		log.WithError(err).Errorf("Error getting product by ID %s", productID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve product",
			"error":   err.Error(),
		})
	}
	return c.JSON(product)
}
