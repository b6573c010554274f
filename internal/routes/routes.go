package routes

import (
	"lumea_back_end/internal/handlers"
	"lumea_back_end/internal/handlers/payement"
	"lumea_back_end/internal/handlers/product"
	"lumea_back_end/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine) {
	// Santé
	r.GET("/health", handlers.Health)

	// Webhook Stripe : hors rate limiting, corps brut requis.
	r.POST("/api/payments/webhook", payement.StripeWebhook)

	// OAuth
	auth := r.Group("/api/auth")
	{
		auth.GET("/failed", handlers.AuthFailed)
		auth.GET("/profile", middleware.AuthRequired(), handlers.Profile)
		auth.POST("/logout", middleware.AuthRequired(), handlers.Logout)
		auth.GET("/:provider", handlers.BeginAuth)
		auth.GET("/:provider/callback", handlers.CallbackAuth)
	}

	api := r.Group("/api", middleware.APIRateLimit())
	{
		// Catalogue — lecture publique
		api.GET("/categories", product.GetCategories)
		api.GET("/categories/:id", product.GetCategory)
		api.GET("/categories/:id/products", product.GetProductsByCategory)
		api.GET("/products", product.GetProducts)
		api.GET("/products/search", middleware.SearchRateLimit(), product.SearchProducts)
		api.GET("/products/:id", product.GetProduct)

		// Catalogue — écriture admin
		admin := api.Group("", middleware.AuthRequired(), middleware.RequireAdmin)
		{
			admin.POST("/categories", product.CreateCategory)
			admin.PUT("/categories/:id", product.UpdateCategory)
			admin.DELETE("/categories/:id", product.DeleteCategory)
			admin.POST("/products", product.CreateProduct)
			admin.PUT("/products/:id", product.UpdateProduct)
			admin.DELETE("/products/:id", product.DeleteProduct)
		}

		// Paiements
		payments := api.Group("/payments")
		{
			payments.POST("/checkout/one-time", payement.CheckoutOneTime)
			payments.POST("/checkout/subscription", payement.CheckoutSubscription)
			payments.GET("/orders/:id", payement.GetOrder)
			payments.POST("/refund", middleware.AuthRequired(), middleware.RequireAdmin, payement.RefundPayment)
		}
	}
}
