package services

import (
	"errors"
	"fmt"
	"strings"

	"retail_pos_backend/internal/models"
	"retail_pos_backend/internal/repositories"
	"retail_pos_backend/pkg/utils"
)

// --- Product DTOs ---

type CreateProductRequest struct {
	Name          string   `json:"name" binding:"required"`
	Category      string   `json:"category"`
	Price         float64  `json:"price" binding:"gte=0"`
	Quantity      int      `json:"quantity" binding:"gte=0"`
	MinStockLevel *int     `json:"min_stock_level"`
	MaxStockLevel *int     `json:"max_stock_level"`
	Supplier      *string  `json:"supplier"`
	Location      *string  `json:"location"`
	Unit          *string  `json:"unit"`
	TaxRate       *float64 `json:"tax_rate"`
}

// UpdateProductRequest uses pointers so absent fields keep their value.
type UpdateProductRequest struct {
	Name          *string  `json:"name"`
	Category      *string  `json:"category"`
	Price         *float64 `json:"price"`
	Quantity      *int     `json:"quantity"`
	MinStockLevel *int     `json:"min_stock_level"`
	MaxStockLevel *int     `json:"max_stock_level"`
	Supplier      *string  `json:"supplier"`
	Location      *string  `json:"location"`
	Unit          *string  `json:"unit"`
	TaxRate       *float64 `json:"tax_rate"`
}

// ProductService owns catalog CRUD. Every mutation refreshes the cached
// datasets so dashboards and alert feeds pick the change up immediately.
type ProductService interface {
	CreateProduct(userID int64, req CreateProductRequest) (*models.Product, error)
	GetProductByID(userID, productID int64) (*models.Product, error)
	GetProducts(userID int64, filters models.ProductFilters) ([]models.Product, int, error)
	UpdateProduct(userID, productID int64, req UpdateProductRequest) (*models.Product, error)
	DeleteProduct(userID, productID int64) error
}

type productService struct {
	store         repositories.Store
	dataManager   DataManager
	notifications NotificationService
}

func NewProductService(store repositories.Store, dataManager DataManager, notifications NotificationService) ProductService {
	return &productService{store: store, dataManager: dataManager, notifications: notifications}
}

func (s *productService) CreateProduct(userID int64, req CreateProductRequest) (*models.Product, error) {
	product := &models.Product{
		UserID:        userID,
		Name:          strings.TrimSpace(req.Name),
		Category:      strings.TrimSpace(req.Category),
		Price:         req.Price,
		Quantity:      req.Quantity,
		MinStockLevel: req.MinStockLevel,
		MaxStockLevel: req.MaxStockLevel,
		Supplier:      req.Supplier,
		Location:      req.Location,
		Unit:          req.Unit,
		TaxRate:       req.TaxRate,
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	id, err := s.store.Products().Create(product)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", ErrProductNameExists, product.Name)
		}
		return nil, err
	}
	product.ID = id

	s.afterMutation(userID, "Product added", fmt.Sprintf("%s added to catalog", product.Name))
	return product, nil
}

func (s *productService) GetProductByID(userID, productID int64) (*models.Product, error) {
	product, err := s.store.Products().GetByID(userID, productID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrProductNotFound, productID)
		}
		return nil, err
	}
	return product, nil
}

func (s *productService) GetProducts(userID int64, filters models.ProductFilters) ([]models.Product, int, error) {
	if err := validateProductFilters(&filters); err != nil {
		return nil, 0, err
	}
	return s.store.Products().GetAll(userID, filters)
}

func (s *productService) UpdateProduct(userID, productID int64, req UpdateProductRequest) (*models.Product, error) {
	product, err := s.GetProductByID(userID, productID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Category != nil {
		product.Category = strings.TrimSpace(*req.Category)
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Quantity != nil {
		product.Quantity = *req.Quantity
	}
	if req.MinStockLevel != nil {
		product.MinStockLevel = req.MinStockLevel
	}
	if req.MaxStockLevel != nil {
		product.MaxStockLevel = req.MaxStockLevel
	}
	if req.Supplier != nil {
		product.Supplier = req.Supplier
	}
	if req.Location != nil {
		product.Location = req.Location
	}
	if req.Unit != nil {
		product.Unit = req.Unit
	}
	if req.TaxRate != nil {
		product.TaxRate = req.TaxRate
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	if err := s.store.Products().Update(product); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrProductNotFound, productID)
		}
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", ErrProductNameExists, product.Name)
		}
		return nil, err
	}

	s.afterMutation(userID, "Product updated", fmt.Sprintf("%s updated", product.Name))
	return product, nil
}

func (s *productService) DeleteProduct(userID, productID int64) error {
	product, err := s.GetProductByID(userID, productID)
	if err != nil {
		return err
	}
	if err := s.store.Products().Delete(userID, productID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: %d", ErrProductNotFound, productID)
		}
		return err
	}

	s.afterMutation(userID, "Product removed", fmt.Sprintf("%s removed from catalog", product.Name))
	return nil
}

func (s *productService) afterMutation(userID int64, title, message string) {
	if _, err := s.notifications.Notify(userID, NotificationRequest{
		Type:     models.NotificationInfo,
		Title:    title,
		Message:  message,
		Priority: models.PriorityLow,
		Category: "catalog",
	}); err != nil {
		utils.LogWarn("catalog notification failed", map[string]interface{}{"user_id": userID, "error": err.Error()})
	}
	s.dataManager.RefreshAll(userID)
}

func validateProduct(p *models.Product) error {
	if p.Name == "" {
		return fmt.Errorf("%w: product name is required", ErrValidation)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	if p.Quantity < 0 {
		return fmt.Errorf("%w: quantity cannot be negative", ErrValidation)
	}
	if p.MinStockLevel != nil && *p.MinStockLevel < 0 {
		return fmt.Errorf("%w: min stock level cannot be negative", ErrValidation)
	}
	if p.MaxStockLevel != nil && *p.MaxStockLevel < 0 {
		return fmt.Errorf("%w: max stock level cannot be negative", ErrValidation)
	}
	if p.MinStockLevel != nil && p.MaxStockLevel != nil && *p.MinStockLevel > *p.MaxStockLevel {
		return fmt.Errorf("%w: min stock level cannot exceed max stock level", ErrValidation)
	}
	if p.TaxRate != nil && (*p.TaxRate < 0 || *p.TaxRate > 1) {
		return fmt.Errorf("%w: tax rate must be between 0 and 1", ErrValidation)
	}
	return nil
}

func validateProductFilters(filters *models.ProductFilters) error {
	if filters.StockBucket != nil {
		switch *filters.StockBucket {
		case "", models.StockBucketAll, models.StockBucketLow, models.StockBucketOut:
		default:
			return fmt.Errorf("%w: unknown stock bucket %q", ErrValidation, *filters.StockBucket)
		}
	}
	if filters.DatePreset != nil {
		switch *filters.DatePreset {
		case "", models.DatePresetAll, models.DatePresetToday, models.DatePresetWeek, models.DatePresetMonth:
		default:
			return fmt.Errorf("%w: unknown date preset %q", ErrValidation, *filters.DatePreset)
		}
	}
	if filters.Page < 0 || filters.PageSize < 0 {
		return fmt.Errorf("%w: page and page_size cannot be negative", ErrValidation)
	}
	if filters.PageSize > 200 {
		filters.PageSize = 200
	}
	return nil
}
