package handlers

import (
	"net/http"

	"retail_pos_backend/internal/services"
	"retail_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SettingHandler exposes per-account configuration.
type SettingHandler struct {
	settings services.SettingsService
}

func NewSettingHandler(ss services.SettingsService) *SettingHandler {
	return &SettingHandler{settings: ss}
}

// GetSettings handles GET /settings.
func (h *SettingHandler) GetSettings(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	settings, err := h.settings.GetAll(userID)
	if err != nil {
		utils.LogError(err, "GetSettings: Error from settings.GetAll")
		respondServiceError(c, err, "list settings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": settings})
}

// GetSetting handles GET /settings/:key.
func (h *SettingHandler) GetSetting(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	setting, err := h.settings.Get(userID, c.Param("key"))
	if err != nil {
		respondServiceError(c, err, "get setting")
		return
	}
	c.JSON(http.StatusOK, setting)
}

// UpdateSetting handles PUT /settings.
func (h *SettingHandler) UpdateSetting(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	setting, err := h.settings.Set(userID, req)
	if err != nil {
		utils.LogError(err, "UpdateSetting: Error from settings.Set")
		respondServiceError(c, err, "update setting")
		return
	}
	c.JSON(http.StatusOK, setting)
}

// DeleteSetting handles DELETE /settings/:key, reverting the key to its
// built-in default.
func (h *SettingHandler) DeleteSetting(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.settings.Delete(userID, c.Param("key")); err != nil {
		respondServiceError(c, err, "delete setting")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Setting removed"})
}
