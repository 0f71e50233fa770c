package services

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"retail_pos_backend/internal/models"
	"retail_pos_backend/internal/repositories"
	"retail_pos_backend/pkg/utils"

	"github.com/bwmarrin/snowflake"
)

// --- Sale DTOs ---

type SaleItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,gt=0"`
}

type CreateSaleRequest struct {
	Items         []SaleItemRequest `json:"items" binding:"required,min=1,dive"`
	CustomerName  *string           `json:"customer_name"`
	PaymentMethod string            `json:"payment_method" binding:"required"`
}

// SalesService records checkouts. ProcessSale decrements stock for every
// line and writes the sale record in one transaction: a single failing line
// leaves no product touched and no sale recorded.
type SalesService interface {
	ProcessSale(userID int64, req CreateSaleRequest) (*models.Sale, error)
	GetSales(userID int64, filters models.SaleFilters) ([]models.Sale, int, error)
	GetSaleByID(userID, saleID int64) (*models.Sale, error)
}

type salesService struct {
	store         repositories.Store
	settings      SettingsService
	notifications NotificationService
	dataManager   DataManager
	node          *snowflake.Node
}

func NewSalesService(
	store repositories.Store,
	settings SettingsService,
	notifications NotificationService,
	dataManager DataManager,
	node *snowflake.Node,
) SalesService {
	return &salesService{
		store:         store,
		settings:      settings,
		notifications: notifications,
		dataManager:   dataManager,
		node:          node,
	}
}

func validPaymentMethod(method string) bool {
	switch method {
	case models.PaymentMethodCash, models.PaymentMethodCard, models.PaymentMethodUPI:
		return true
	}
	return false
}

// roundMoney keeps stored amounts at two decimals.
func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

func (s *salesService) ProcessSale(userID int64, req CreateSaleRequest) (*models.Sale, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: a sale needs at least one item", ErrValidation)
	}
	if !validPaymentMethod(req.PaymentMethod) {
		return nil, fmt.Errorf("%w: %q (want cash, card or upi)", ErrInvalidPaymentMethod, req.PaymentMethod)
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item quantity must be positive", ErrValidation)
		}
	}

	gstRate := s.settings.GSTRate(userID)
	sale := &models.Sale{
		ID:            s.node.Generate().Int64(),
		UserID:        userID,
		PaymentMethod: req.PaymentMethod,
	}
	if req.CustomerName != nil {
		// An empty customer name is stored as NULL, not "".
		sale.CustomerName = utils.NewNullString(strings.TrimSpace(*req.CustomerName))
	}

	// Products that ended at or below their minimum after the decrement;
	// collected inside the transaction, alerted on after commit.
	var lowStock []models.Product

	err := s.store.WithinTx(func(tx repositories.Store) error {
		var subtotal float64
		for _, item := range req.Items {
			product, err := tx.Products().GetByID(userID, item.ProductID)
			if err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					return fmt.Errorf("%w: product %d", ErrProductNotFound, item.ProductID)
				}
				return err
			}

			remaining, err := tx.Products().DecrementStock(userID, item.ProductID, item.Quantity)
			if err != nil {
				if errors.Is(err, repositories.ErrStockBelowZero) {
					return fmt.Errorf("%w for %s: available %d, requested %d",
						ErrInsufficientStock, product.Name, product.Quantity, item.Quantity)
				}
				if errors.Is(err, repositories.ErrNotFound) {
					return fmt.Errorf("%w: product %d", ErrProductNotFound, item.ProductID)
				}
				return err
			}

			lineTotal := roundMoney(product.Price * float64(item.Quantity))
			subtotal += lineTotal
			sale.Items = append(sale.Items, models.SaleItem{
				SaleID:      sale.ID,
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    item.Quantity,
				UnitPrice:   product.Price,
				Total:       lineTotal,
			})

			if remaining == 0 || (product.MinStockLevel != nil && remaining <= *product.MinStockLevel) {
				after := *product
				after.Quantity = remaining
				lowStock = append(lowStock, after)
			}
		}

		sale.Subtotal = roundMoney(subtotal)
		sale.GSTAmount = roundMoney(subtotal * gstRate)
		sale.Total = roundMoney(sale.Subtotal + sale.GSTAmount)
		return tx.Sales().Create(sale)
	})
	if err != nil {
		// A failed checkout is surfaced in the notification list too, not
		// just as an API error.
		if _, nerr := s.notifications.Notify(userID, NotificationRequest{
			Type:     models.NotificationError,
			Title:    "Sale failed",
			Message:  err.Error(),
			Priority: models.PriorityHigh,
			Category: "sales",
		}); nerr != nil {
			utils.LogWarn("sale failure notification failed", map[string]interface{}{"user_id": userID, "error": nerr.Error()})
		}
		return nil, err
	}

	s.notifySaleResult(userID, sale, lowStock)
	s.dataManager.RefreshAll(userID)
	return sale, nil
}

func (s *salesService) GetSales(userID int64, filters models.SaleFilters) ([]models.Sale, int, error) {
	if filters.PaymentMethod != nil && *filters.PaymentMethod != "" && !validPaymentMethod(*filters.PaymentMethod) {
		return nil, 0, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, *filters.PaymentMethod)
	}
	return s.store.Sales().GetAll(userID, filters)
}

func (s *salesService) GetSaleByID(userID, saleID int64) (*models.Sale, error) {
	sale, err := s.store.Sales().GetByID(userID, saleID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, err
	}
	return sale, nil
}

func (s *salesService) notifySaleResult(userID int64, sale *models.Sale, lowStock []models.Product) {
	_, err := s.notifications.Notify(userID, NotificationRequest{
		Type:     models.NotificationSuccess,
		Title:    "Sale completed",
		Message:  fmt.Sprintf("Sale of %d item(s) for %.2f recorded", len(sale.Items), sale.Total),
		Priority: models.PriorityLow,
		Category: "sales",
	})
	if err != nil {
		utils.LogWarn("sale notification failed", map[string]interface{}{"user_id": userID, "error": err.Error()})
	}

	for _, p := range lowStock {
		req := NotificationRequest{
			Type:       models.NotificationWarning,
			Title:      "Low stock",
			Message:    fmt.Sprintf("%s is down to %d unit(s)", p.Name, p.Quantity),
			Priority:   models.PriorityMedium,
			Category:   "stock",
			Persistent: true,
		}
		if p.Quantity == 0 {
			req.Type = models.NotificationError
			req.Title = "Out of stock"
			req.Message = fmt.Sprintf("%s is out of stock", p.Name)
			req.Priority = models.PriorityHigh
		}
		if _, err := s.notifications.Notify(userID, req); err != nil {
			utils.LogWarn("stock notification failed", map[string]interface{}{"user_id": userID, "error": err.Error()})
		}
	}
}
