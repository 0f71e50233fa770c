package router

import (
	"retail_pos_backend/internal/handlers"
	"retail_pos_backend/internal/middleware"
	"retail_pos_backend/internal/models"
	"retail_pos_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Services bundles the constructed application services. The caller owns
// their lifecycle (Start/Stop); the router only wires them to routes.
type Services struct {
	Auth          services.AuthService
	Products      services.ProductService
	Sales         services.SalesService
	Notifications services.NotificationService
	Settings      services.SettingsService
	Reports       services.ReportService
	DataManager   services.DataManager
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, svc Services) {
	authHandler := handlers.NewAuthHandler(svc.Auth)
	productHandler := handlers.NewProductHandler(svc.Products)
	saleHandler := handlers.NewSaleHandler(svc.Sales)
	notificationHandler := handlers.NewNotificationHandler(svc.Notifications)
	settingHandler := handlers.NewSettingHandler(svc.Settings)
	reportHandler := handlers.NewReportHandler(svc.Reports)
	dashboardHandler := handlers.NewDashboardHandler(svc.DataManager)

	apiV1 := engine.Group("/api/v1")

	// Public authentication routes
	SetupPublicAuthRoutes(apiV1.Group("/auth"), authHandler)

	// Authenticated routes
	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), authHandler)
		SetupProductRoutes(authenticated, productHandler)
		SetupSaleRoutes(authenticated, saleHandler)
		SetupNotificationRoutes(authenticated, notificationHandler)
		SetupDashboardRoutes(authenticated, dashboardHandler)
		SetupReportRoutes(authenticated, reportHandler)

		// Settings changes are restricted to admins; staff can read.
		settingsGroup := authenticated.Group("/settings")
		SetupSettingReadRoutes(settingsGroup, settingHandler)
		settingsAdmin := settingsGroup.Group("")
		settingsAdmin.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
		SetupSettingWriteRoutes(settingsAdmin, settingHandler)
	}
}
