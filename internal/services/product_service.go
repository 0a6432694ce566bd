package services

import (
	"fmt"

	"etalase/internal/models"
	"etalase/internal/repositories"

	"github.com/go-playground/validator/v10"
)

// ProductService handles business logic related to the catalog.
type ProductService struct {
	repo     repositories.ProductRepository
	filter   *ProductFilter
	validate *validator.Validate
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, filter *ProductFilter) *ProductService {
	if filter == nil {
		filter = NewProductFilter(nil)
	}
	return &ProductService{
		repo:     repo,
		filter:   filter,
		validate: validator.New(),
	}
}

// GetAllProducts retrieves all products in grid order.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.repo.GetAll()
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// FilterProducts evaluates criteria against the whole grid.
func (s *ProductService) FilterProducts(criteria FilterCriteria) ([]ProductVisibility, error) {
	products, err := s.repo.GetAll()
	if err != nil {
		return nil, err
	}
	return s.filter.Apply(products, criteria), nil
}

// SeedProducts validates and inserts products when the catalog is empty. It
// reports how many were inserted.
func (s *ProductService) SeedProducts(products []models.Product) (int, error) {
	for i := range products {
		if err := s.validate.Struct(products[i]); err != nil {
			return 0, fmt.Errorf("invalid seed product %q: %w", products[i].Name, err)
		}
	}

	n, err := s.repo.Count()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	for i := range products {
		if err := s.repo.Create(&products[i]); err != nil {
			return i, err
		}
	}
	return len(products), nil
}
