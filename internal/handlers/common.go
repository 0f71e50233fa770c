package handlers

import (
	"errors"
	"net/http"

	"retail_pos_backend/internal/services"
	"retail_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// currentUserID pulls the authenticated user ID set by AuthMiddleware.
// Responds 401 and returns false when it is missing or malformed.
func currentUserID(c *gin.Context) (int64, bool) {
	raw, exists := c.Get("userID")
	if !exists {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated.", "Missing user ID in context"))
		return 0, false
	}
	userID, ok := raw.(int64)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User ID format incorrect.", "Invalid user ID format in context"))
		return 0, false
	}
	return userID, true
}

// pathID parses a numeric path parameter. Responds 400 and returns false on
// a non-numeric value.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := utils.StrToInt64(c.Param(name))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid "+name+" parameter.", err.Error()))
		return 0, false
	}
	return id, true
}

// respondServiceError maps common service sentinels onto the API error
// envelope. Handlers call it after their operation-specific cases.
func respondServiceError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
	case errors.Is(err, services.ErrProductNotFound),
		errors.Is(err, services.ErrSaleNotFound),
		errors.Is(err, services.ErrNotificationNotFound),
		errors.Is(err, services.ErrSettingNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, err.Error(), err.Error()))
	case errors.Is(err, services.ErrProductNameExists),
		errors.Is(err, services.ErrUserAlreadyExists):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), err.Error()))
	case errors.Is(err, services.ErrInsufficientStock),
		errors.Is(err, services.ErrInvalidPaymentMethod):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnprocessableEntity, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to "+action+".", "Internal error"))
	}
}
