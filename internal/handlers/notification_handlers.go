package handlers

import (
	"net/http"

	"retail_pos_backend/internal/services"
	"retail_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// NotificationHandler exposes the capped notification list.
type NotificationHandler struct {
	notifications services.NotificationService
}

func NewNotificationHandler(ns services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: ns}
}

// GetNotifications handles GET /notifications.
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	list, err := h.notifications.List(userID)
	if err != nil {
		utils.LogError(err, "GetNotifications: Error from notifications.List")
		respondServiceError(c, err, "list notifications")
		return
	}
	unread, err := h.notifications.UnreadCount(userID)
	if err != nil {
		utils.LogError(err, "GetNotifications: Error from notifications.UnreadCount")
		respondServiceError(c, err, "count notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "unread_count": unread})
}

// CreateNotification handles POST /notifications, for manual announcements.
func (h *NotificationHandler) CreateNotification(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.NotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	n, err := h.notifications.Notify(userID, req)
	if err != nil {
		utils.LogError(err, "CreateNotification: Error from notifications.Notify")
		respondServiceError(c, err, "create notification")
		return
	}
	c.JSON(http.StatusCreated, n)
}

// MarkAsRead handles PATCH /notifications/:id/read.
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.notifications.MarkAsRead(userID, c.Param("id")); err != nil {
		respondServiceError(c, err, "mark notification as read")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// MarkAllAsRead handles PATCH /notifications/read-all.
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.notifications.MarkAllAsRead(userID); err != nil {
		respondServiceError(c, err, "mark notifications as read")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read"})
}

// DeleteNotification handles DELETE /notifications/:id.
func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.notifications.Remove(userID, c.Param("id")); err != nil {
		respondServiceError(c, err, "delete notification")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification removed"})
}

// ClearNotifications handles DELETE /notifications.
func (h *NotificationHandler) ClearNotifications(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.notifications.ClearAll(userID); err != nil {
		respondServiceError(c, err, "clear notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All notifications cleared"})
}
