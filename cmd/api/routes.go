package main

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"provet-system/config"
	"provet-system/internal/database/models"
	"provet-system/internal/handlers"
	"provet-system/internal/middleware"
)

func setupRouter(cfg config.Config, db *gorm.DB, redisClient *redis.Client) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORS())
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit())

	r.Static("/uploads", cfg.Server.UploadDir)

	secret := []byte(cfg.Auth.JWTSecret)
	staffOnly := middleware.RequireAccType(models.AccTypeAdmin, models.AccTypeStaff, models.AccTypeSuperadmin)
	adminOnly := middleware.RequireAccType(models.AccTypeAdmin, models.AccTypeSuperadmin)

	accountHandler := handlers.NewAccountHandler(db, cfg)
	supplierHandler := handlers.NewSupplierHandler(db)
	customerHandler := handlers.NewCustomerHandler(db)
	productHandler := handlers.NewProductHandler(db, redisClient, cfg)
	purchaseHandler := handlers.NewPurchaseOrderHandler(db)
	salesHandler := handlers.NewSalesOrderHandler(db)
	inboundHandler := handlers.NewInboundDeliveryHandler(db)
	outboundHandler := handlers.NewOutboundDeliveryHandler(db)
	inventoryHandler := handlers.NewInventoryHandler(db)
	issueHandler := handlers.NewIssueHandler(db)
	paymentHandler := handlers.NewPaymentHandler(db)
	invoiceHandler := handlers.NewInvoiceHandler(db)
	logHandler := handlers.NewLogHandler(db)

	// --- Public API Group ---
	public := r.Group("/api/v1")
	{
		auth := public.Group("/auth")
		{
			auth.POST("/login", accountHandler.Login)
			auth.POST("/register", accountHandler.Register)
		}
	}

	// --- Protected API Group ---
	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth(secret))
	{
		auth := protected.Group("/auth")
		{
			auth.POST("/logout", accountHandler.Logout)
			auth.GET("/me", accountHandler.Me)
		}

		users := protected.Group("/users")
		{
			users.GET("", staffOnly, accountHandler.ListUsers)
			users.GET("/:id", staffOnly, accountHandler.GetUser)
			users.PUT("/:id", accountHandler.UpdateUser)
			users.DELETE("/:id", adminOnly, accountHandler.DeleteUser)
			users.POST("/:id/image", accountHandler.UploadImage)
			users.GET("/:id/image", accountHandler.GetImage)
		}

		suppliers := protected.Group("/suppliers", staffOnly)
		{
			suppliers.POST("", supplierHandler.Create)
			suppliers.GET("", supplierHandler.List)
			suppliers.GET("/count", supplierHandler.Count)
			suppliers.GET("/:id", supplierHandler.Get)
			suppliers.PUT("/:id", supplierHandler.Update)
			suppliers.DELETE("/:id", adminOnly, supplierHandler.Delete)
		}

		customers := protected.Group("/customers", staffOnly)
		{
			customers.POST("", customerHandler.Create)
			customers.GET("", customerHandler.List)
			customers.GET("/count", customerHandler.Count)
			customers.GET("/:id", customerHandler.Get)
			customers.PUT("/:id", customerHandler.Update)
			customers.DELETE("/:id", adminOnly, customerHandler.Delete)
		}

		items := protected.Group("/items")
		{
			items.GET("", productHandler.List)
			items.GET("/lowStock", staffOnly, productHandler.LowStock)
			items.GET("/count", staffOnly, productHandler.Count)
			items.GET("/:id", productHandler.Get)
			items.POST("", staffOnly, productHandler.Create)
			items.PUT("/:id", staffOnly, productHandler.Update)
			items.DELETE("/:id", adminOnly, productHandler.Delete)
			items.POST("/:id/image", staffOnly, productHandler.UploadImage)

			items.GET("/categories", productHandler.ListCategories)
			items.POST("/categories", staffOnly, productHandler.CreateCategory)
			items.PUT("/categories/:id", staffOnly, productHandler.UpdateCategory)
			items.DELETE("/categories/:id", adminOnly, productHandler.DeleteCategory)

			items.POST("/details", staffOnly, productHandler.CreateDetails)
			items.GET("/details/:id", productHandler.GetDetails)
			items.PUT("/details/:id", staffOnly, productHandler.UpdateDetails)
		}

		purchaseOrders := protected.Group("/purchase-orders", staffOnly)
		{
			purchaseOrders.POST("", purchaseHandler.Create)
			purchaseOrders.GET("", purchaseHandler.List)
			purchaseOrders.GET("/pending/count", purchaseHandler.PendingCount)
			purchaseOrders.GET("/:id", purchaseHandler.Get)
			purchaseOrders.GET("/:id/details", purchaseHandler.GetDetails)
			purchaseOrders.POST("/:id/accept", purchaseHandler.Accept)
			purchaseOrders.PUT("/:id", purchaseHandler.Update)
			purchaseOrders.PATCH("/:id/status", purchaseHandler.UpdateStatus)
			purchaseOrders.DELETE("/:id", adminOnly, purchaseHandler.Delete)
		}

		salesOrders := protected.Group("/sales-orders")
		{
			salesOrders.POST("", salesHandler.Create)
			salesOrders.GET("", staffOnly, salesHandler.List)
			salesOrders.GET("/pending/count", staffOnly, salesHandler.PendingCount)
			salesOrders.GET("/:id", salesHandler.Get)
			salesOrders.GET("/:id/details", salesHandler.GetDetails)
			salesOrders.POST("/:id/accept", staffOnly, salesHandler.Accept)
			salesOrders.PUT("/:id", staffOnly, salesHandler.Update)
			salesOrders.PATCH("/:id/status", staffOnly, salesHandler.UpdateStatus)
		}

		inbound := protected.Group("/deliveries/inbound", staffOnly)
		{
			inbound.GET("", inboundHandler.List)
			inbound.GET("/pending/count", inboundHandler.PendingCount)
			inbound.GET("/:id", inboundHandler.Get)
			inbound.GET("/:id/details", inboundHandler.GetDetails)
			inbound.POST("/:id/receive", inboundHandler.MarkDelivered)
			inbound.PATCH("/:id/status", inboundHandler.UpdateStatus)
		}

		outbound := protected.Group("/deliveries/outbound", staffOnly)
		{
			outbound.GET("", outboundHandler.List)
			outbound.GET("/pending/count", outboundHandler.PendingCount)
			outbound.GET("/:id", outboundHandler.Get)
			outbound.GET("/:id/details", outboundHandler.GetDetails)
			outbound.POST("/:id/dispatch", outboundHandler.Dispatch)
			outbound.POST("/:id/receive", outboundHandler.MarkDelivered)
			outbound.PATCH("/:id/status", outboundHandler.UpdateStatus)
		}

		inventory := protected.Group("/inventory", staffOnly)
		{
			inventory.GET("", inventoryHandler.List)
			inventory.GET("/count", inventoryHandler.Count)
			inventory.GET("/expiring", inventoryHandler.ExpiringSoon)
			inventory.GET("/value", inventoryHandler.StockValue)
			inventory.POST("", inventoryHandler.AddBatch)
			inventory.GET("/:id", inventoryHandler.Get)
			inventory.PATCH("/:id", inventoryHandler.AdjustBatch)
			inventory.DELETE("/:id", adminOnly, inventoryHandler.DeleteBatch)
		}

		issues := protected.Group("/issues", staffOnly)
		{
			issues.POST("", issueHandler.Create)
			issues.GET("", issueHandler.List)
			issues.GET("/pending/count", issueHandler.PendingCount)
			issues.GET("/holds", issueHandler.ListHolds)
			issues.POST("/holds/:id/release", issueHandler.ReleaseHold)
			issues.GET("/:id", issueHandler.Get)
			issues.POST("/:id/resolve", issueHandler.Resolve)
		}

		payments := protected.Group("/payments", staffOnly)
		{
			payments.GET("", paymentHandler.List)
			payments.GET("/outstanding", paymentHandler.Outstanding)
			payments.GET("/:id", paymentHandler.Get)
			payments.PATCH("/:id", paymentHandler.AddPayment)
		}

		invoices := protected.Group("/invoices", staffOnly)
		{
			invoices.GET("", invoiceHandler.List)
			invoices.GET("/count", invoiceHandler.Count)
			invoices.GET("/report", invoiceHandler.Report)
			invoices.GET("/:id", invoiceHandler.Get)
		}

		logs := protected.Group("/logs", adminOnly)
		{
			logs.GET("", logHandler.List)
			logs.GET("/count", logHandler.Count)
			logs.POST("", logHandler.Create)
			logs.GET("/:id", logHandler.Get)
			logs.PUT("/:id", logHandler.Update)
			logs.DELETE("/:id", logHandler.Delete)
		}
	}

	return r
}
