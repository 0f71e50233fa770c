package handlers

import (
	"fmt"
	"net/http"
	"time"

	"retail_pos_backend/internal/models"
	"retail_pos_backend/internal/services"
	"retail_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ReportHandler serves inventory and sales exports.
type ReportHandler struct {
	reports services.ReportService
}

func NewReportHandler(rs services.ReportService) *ReportHandler {
	return &ReportHandler{reports: rs}
}

func exportFormat(c *gin.Context) string {
	format := c.DefaultQuery("format", services.FormatCSV)
	return format
}

func attachExport(c *gin.Context, prefix, format, contentType string, data []byte) {
	filename := fmt.Sprintf("%s_%s.%s", prefix, time.Now().Format("20060102_150405"), format)
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, contentType, data)
}

// GetInventoryReport handles GET /reports/inventory.
func (h *ReportHandler) GetInventoryReport(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	rows, err := h.reports.InventoryReport(userID)
	if err != nil {
		utils.LogError(err, "GetInventoryReport: Error from reports.InventoryReport")
		respondServiceError(c, err, "build inventory report")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows, "count": len(rows)})
}

// ExportInventory handles GET /reports/inventory/export?format=csv|xlsx.
func (h *ReportHandler) ExportInventory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	format := exportFormat(c)
	data, contentType, err := h.reports.ExportInventory(userID, format)
	if err != nil {
		utils.LogError(err, "ExportInventory: Error from reports.ExportInventory")
		respondServiceError(c, err, "export inventory")
		return
	}
	attachExport(c, "inventory", format, contentType, data)
}

// ExportSales handles GET /reports/sales/export?format=csv|xlsx, honoring the
// same filter parameters as the sales listing.
func (h *ReportHandler) ExportSales(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var filters models.SaleFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	format := exportFormat(c)
	data, contentType, err := h.reports.ExportSales(userID, filters, format)
	if err != nil {
		utils.LogError(err, "ExportSales: Error from reports.ExportSales")
		respondServiceError(c, err, "export sales")
		return
	}
	attachExport(c, "sales", format, contentType, data)
}
