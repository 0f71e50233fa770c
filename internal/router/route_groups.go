package router

import (
	"retail_pos_backend/internal/handlers"

	"github.com/gin-gonic/gin"
)

func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/register", authHandler.RegisterUser)
	group.POST("/login", authHandler.LoginUser)
	group.POST("/refresh-token", authHandler.RefreshToken)
}

func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/logout", authHandler.LogoutUser)
	group.GET("/me", authHandler.GetCurrentUser)
}

func SetupProductRoutes(group *gin.RouterGroup, productHandler *handlers.ProductHandler) {
	products := group.Group("/products")
	{
		products.POST("", productHandler.CreateProduct)
		products.GET("", productHandler.GetProducts)
		products.GET("/:id", productHandler.GetProduct)
		products.PUT("/:id", productHandler.UpdateProduct)
		products.DELETE("/:id", productHandler.DeleteProduct)
	}
}

func SetupSaleRoutes(group *gin.RouterGroup, saleHandler *handlers.SaleHandler) {
	sales := group.Group("/sales")
	{
		sales.POST("", saleHandler.CreateSale)
		sales.GET("", saleHandler.GetSales)
		sales.GET("/:id", saleHandler.GetSale)
	}
}

func SetupNotificationRoutes(group *gin.RouterGroup, notificationHandler *handlers.NotificationHandler) {
	notifications := group.Group("/notifications")
	{
		notifications.GET("", notificationHandler.GetNotifications)
		notifications.POST("", notificationHandler.CreateNotification)
		notifications.PATCH("/read-all", notificationHandler.MarkAllAsRead)
		notifications.PATCH("/:id/read", notificationHandler.MarkAsRead)
		notifications.DELETE("/:id", notificationHandler.DeleteNotification)
		notifications.DELETE("", notificationHandler.ClearNotifications)
	}
}

func SetupDashboardRoutes(group *gin.RouterGroup, dashboardHandler *handlers.DashboardHandler) {
	dashboard := group.Group("/dashboard")
	{
		dashboard.GET("/summary", dashboardHandler.GetStats)
		dashboard.GET("/stock-alerts", dashboardHandler.GetStockAlerts)
		dashboard.POST("/refresh", dashboardHandler.RefreshAll)
	}
}

func SetupReportRoutes(group *gin.RouterGroup, reportHandler *handlers.ReportHandler) {
	reports := group.Group("/reports")
	{
		reports.GET("/inventory", reportHandler.GetInventoryReport)
		reports.GET("/inventory/export", reportHandler.ExportInventory)
		reports.GET("/sales/export", reportHandler.ExportSales)
	}
}

func SetupSettingReadRoutes(group *gin.RouterGroup, settingHandler *handlers.SettingHandler) {
	group.GET("", settingHandler.GetSettings)
	group.GET("/:key", settingHandler.GetSetting)
}

func SetupSettingWriteRoutes(group *gin.RouterGroup, settingHandler *handlers.SettingHandler) {
	group.PUT("", settingHandler.UpdateSetting)
	group.DELETE("/:key", settingHandler.DeleteSetting)
}
