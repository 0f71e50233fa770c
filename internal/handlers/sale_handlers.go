package handlers

import (
	"net/http"

	"retail_pos_backend/internal/models"
	"retail_pos_backend/internal/services"
	"retail_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SaleHandler exposes checkout and sales history endpoints.
type SaleHandler struct {
	salesService services.SalesService
}

func NewSaleHandler(ss services.SalesService) *SaleHandler {
	return &SaleHandler{salesService: ss}
}

// CreateSale handles POST /sales: validates the cart, decrements stock and
// records the sale atomically.
func (h *SaleHandler) CreateSale(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	sale, err := h.salesService.ProcessSale(userID, req)
	if err != nil {
		utils.LogError(err, "CreateSale: Error from salesService.ProcessSale")
		respondServiceError(c, err, "process sale")
		return
	}
	c.JSON(http.StatusCreated, sale)
}

// GetSales handles GET /sales with filter query parameters.
func (h *SaleHandler) GetSales(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var filters models.SaleFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	sales, total, err := h.salesService.GetSales(userID, filters)
	if err != nil {
		utils.LogError(err, "GetSales: Error from salesService.GetSales")
		respondServiceError(c, err, "list sales")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":        sales,
		"total_count": total,
		"page":        filters.Page,
		"page_size":   filters.PageSize,
	})
}

// GetSale handles GET /sales/:id.
func (h *SaleHandler) GetSale(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	saleID, ok := pathID(c, "id")
	if !ok {
		return
	}

	sale, err := h.salesService.GetSaleByID(userID, saleID)
	if err != nil {
		respondServiceError(c, err, "get sale")
		return
	}
	c.JSON(http.StatusOK, sale)
}
