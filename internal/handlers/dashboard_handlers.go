package handlers

import (
	"net/http"

	"retail_pos_backend/internal/services"
	"retail_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// DashboardHandler serves the cached dashboard datasets.
type DashboardHandler struct {
	dataManager services.DataManager
}

func NewDashboardHandler(dm services.DataManager) *DashboardHandler {
	return &DashboardHandler{dataManager: dm}
}

// forceRefresh reads the ?refresh=true query flag.
func forceRefresh(c *gin.Context) bool {
	return c.Query("refresh") == "true"
}

// GetStats handles GET /dashboard/stats.
func (h *DashboardHandler) GetStats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	stats, err := h.dataManager.GetDashboardStats(userID, forceRefresh(c))
	if err != nil {
		utils.LogError(err, "GetStats: Error from dataManager.GetDashboardStats")
		respondServiceError(c, err, "load dashboard stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetStockAlerts handles GET /dashboard/stock-alerts.
func (h *DashboardHandler) GetStockAlerts(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	alerts, err := h.dataManager.GetStockAlerts(userID, forceRefresh(c))
	if err != nil {
		utils.LogError(err, "GetStockAlerts: Error from dataManager.GetStockAlerts")
		respondServiceError(c, err, "load stock alerts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": alerts, "count": len(alerts)})
}

// RefreshAll handles POST /dashboard/refresh: force-refreshes every cached
// dataset for the account.
func (h *DashboardHandler) RefreshAll(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	h.dataManager.RefreshAll(userID)
	c.JSON(http.StatusOK, gin.H{"message": "All datasets refreshed"})
}
