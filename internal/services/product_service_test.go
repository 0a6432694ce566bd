package services_test

import (
	"fmt"
	"testing"

	"etalase/internal/models"
	"etalase/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockProductRepository is a mock implementation of repositories.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetAll() ([]models.Product, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(id string) (*models.Product, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) Create(product *models.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepository) Count() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func TestProductService_GetAllProducts(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	expectedProducts := []models.Product{
		{ID: "1", Name: "Product A", Tag: "home", Price: 10.0},
		{ID: "2", Name: "Product B", Tag: "home", Price: 20.0},
	}
	mockRepo.On("GetAll").Return(expectedProducts, nil).Once()

	products, err := service.GetAllProducts()

	assert.NoError(t, err)
	assert.Equal(t, expectedProducts, products)
	mockRepo.AssertExpectations(t)
}

func TestProductService_GetProductByID(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	expectedProduct := &models.Product{ID: "1", Name: "Product A", Price: 10.0}

	mockRepo.On("GetByID", "1").Return(expectedProduct, nil).Once()
	product, err := service.GetProductByID("1")
	assert.NoError(t, err)
	assert.Equal(t, expectedProduct, product)

	mockRepo.On("GetByID", "99").Return(nil, fmt.Errorf("product with ID 99 not found")).Once()
	product, err = service.GetProductByID("99")
	assert.Error(t, err)
	assert.Nil(t, product)
	mockRepo.AssertExpectations(t)
}

func TestProductService_FilterProducts(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)
	mockRepo.On("GetAll").Return([]models.Product{
		{ID: "1", Name: "Red Shirt", Tag: "apparel", Price: 20},
		{ID: "2", Name: "Blue Mug", Tag: "home", Price: 15},
	}, nil).Once()

	grid, err := service.FilterProducts(services.CriteriaFromValues("", "home", "all"))
	assert.NoError(t, err)
	assert.Len(t, grid, 2)
	assert.False(t, grid[0].Visible)
	assert.True(t, grid[1].Visible)

	mockRepo.On("GetAll").Return(nil, fmt.Errorf("database error")).Once()
	_, err = service.FilterProducts(services.CriteriaFromValues("", "all", "all"))
	assert.Error(t, err)
	mockRepo.AssertExpectations(t)
}

func TestProductService_SeedProducts(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)
	seed := []models.Product{{Name: "Laptop", Tag: "electronics", Price: 1200}}

	mockRepo.On("Count").Return(int64(3), nil).Once()
	n, err := service.SeedProducts(seed)
	assert.NoError(t, err)
	assert.Equal(t, 0, n)

	mockRepo.On("Count").Return(int64(0), nil).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.Product")).Return(nil).Once()
	n, err = service.SeedProducts(seed)
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
	mockRepo.AssertExpectations(t)
}

func TestProductService_SeedProductsRejectsInvalidEntries(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	_, err := service.SeedProducts([]models.Product{{Name: "Free Lunch", Tag: "all", Price: 0}})
	assert.ErrorContains(t, err, "invalid seed product")

	_, err = service.SeedProducts([]models.Product{{Name: "Refund", Tag: "home", Price: -5}})
	assert.Error(t, err)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything)
}
