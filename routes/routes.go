package routes

import (
	"quickbite-api/auth"
	"quickbite-api/handlers"
	"quickbite-api/middleware"
	"quickbite-api/models"

	"github.com/gin-gonic/gin"
)

// Handlers bundles everything the route table needs
type Handlers struct {
	Issuer  *auth.Issuer
	Auth    *handlers.AuthHandler
	Catalog *handlers.CatalogHandler
	Cart    *handlers.CartHandler
	Orders  *handlers.OrderHandler
	Profile *handlers.ProfileHandler
}

func SetupRoutes(r *gin.Engine, h Handlers) {
	authRequired := middleware.AuthRequired(h.Issuer)

	// ── Auth ───────────────────────────────────────────────────────
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/logout", h.Auth.Logout)
		authGroup.GET("/api/verify", authRequired, h.Auth.Verify)
	}

	// ── Public catalog ─────────────────────────────────────────────
	food := r.Group("/foodItems")
	{
		food.GET("/get/:category", h.Catalog.ByCategory)
		food.GET("/popular/get", h.Catalog.Popular)
		food.GET("/getItemId/:id", h.Catalog.Get)
		food.GET("/filter/:category", h.Catalog.Filter)
	}

	// ── Admin catalog ──────────────────────────────────────────────
	admin := r.Group("/admin/foodItems")
	admin.Use(authRequired, middleware.RoleRequired(models.RoleAdmin, models.RoleModerator))
	{
		admin.GET("", middleware.PermissionRequired(models.PermReadFood), h.Catalog.ListAll)
		admin.POST("", middleware.PermissionRequired(models.PermCreateFood), h.Catalog.Create)
		admin.POST("/bulk", middleware.PermissionRequired(models.PermCreateFood), h.Catalog.CreateBulk)
		admin.PUT("/:id", middleware.PermissionRequired(models.PermUpdateFood), h.Catalog.Update)
		admin.PATCH("/:id/deactivate", middleware.PermissionRequired(models.PermUpdateFood), h.Catalog.Deactivate)
		admin.PATCH("/:id/reactivate", middleware.PermissionRequired(models.PermUpdateFood), h.Catalog.Reactivate)
		admin.DELETE("/:id", middleware.PermissionRequired(models.PermDeleteFood), h.Catalog.Delete)
	}

	// ── Cart ───────────────────────────────────────────────────────
	cart := r.Group("/cart")
	cart.Use(authRequired)
	{
		cart.GET("/getItems", h.Cart.List)
		cart.POST("/addItem", h.Cart.Add)
		cart.PUT("/update/:itemId", h.Cart.Update)
		cart.DELETE("/deleteItem/:itemId", h.Cart.Remove)
		cart.DELETE("/clear", h.Cart.Clear)
	}

	// ── Orders ─────────────────────────────────────────────────────
	// the webhook authenticates by signature, not by session
	r.POST("/orders/webhook", h.Orders.Webhook)
	r.GET("/orders/state-machine", handlers.StateMachine)

	orders := r.Group("/orders")
	orders.Use(authRequired)
	{
		orders.POST("/create", h.Orders.Create)
		orders.POST("/verify-payment", h.Orders.VerifyPayment)
		orders.POST("/:orderId/retry-payment", h.Orders.RetryPayment)
		orders.GET("/my-orders", h.Orders.MyOrders)
		orders.GET("/:orderId", h.Orders.Get)
		orders.PATCH("/:orderId/cancel", h.Orders.Cancel)
		orders.PATCH("/:orderId/status",
			middleware.RoleRequired(models.RoleAdmin),
			middleware.PermissionRequired(models.PermManageOrders),
			h.Orders.UpdateStatus)
	}

	// ── Profile ────────────────────────────────────────────────────
	profile := r.Group("/profile")
	profile.Use(authRequired)
	{
		profile.GET("/get", h.Profile.Get)
		profile.PUT("/update", h.Profile.Update)
		profile.POST("/upload-picture", h.Profile.UploadPicture)
	}
}
