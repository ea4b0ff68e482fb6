// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/mintcart/mintcart-backend/internal/config"
	"github.com/mintcart/mintcart-backend/internal/handlers"
	"github.com/mintcart/mintcart-backend/internal/middleware"
	"github.com/mintcart/mintcart-backend/internal/repository"
	"github.com/mintcart/mintcart-backend/internal/services"
	"github.com/mintcart/mintcart-backend/internal/utils"
)

// Dependencies are built by the caller so storage and chain access can be swapped.
type Dependencies struct {
	Products repository.ProductRepository
	Workflow *services.CreateProductService
	Signer   services.Signer
}

func Initialize(cfg *config.Config, deps Dependencies) *gin.Engine {
	// Initialize services
	authService := services.NewAuthService(cfg)
	productService := services.NewProductService(deps.Products)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService)
	createProductHandler := handlers.NewCreateProductHandler(deps.Workflow, deps.Signer, cfg.Frontend.BaseURL)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))
	r.Use(middleware.I18nMiddleware(cfg.I18n.DefaultLocale))
	r.Use(sessions.Sessions(cfg.Session.Name, sessionStore(cfg)))
	if cfg.Server.RateLimit {
		r.Use(middleware.GeneralRateLimit())
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Wallet session routes
		auth := v1.Group("/auth")
		if cfg.Server.RateLimit {
			auth.Use(middleware.AuthRateLimit())
		}
		{
			auth.GET("/nonce", authHandler.Nonce)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.WalletRequired(), authHandler.Me)
		}

		// Create-product workflow
		products := v1.Group("/products")
		products.Use(middleware.WalletRequired())
		{
			create := []gin.HandlerFunc{createProductHandler.CreateProduct}
			if cfg.Server.RateLimit {
				create = append([]gin.HandlerFunc{middleware.CreateProductRateLimit()}, create...)
			}
			products.POST("", create...)
			products.GET("/intents", createProductHandler.GetIntents)
		}
	}

	// Storefront record API
	records := r.Group("/api/:chainId/:address/products")
	{
		records.POST("", middleware.APIKeyRequired(cfg.Backend.APIKey), productHandler.CreateProduct)
		records.GET("", productHandler.GetProducts)
		records.GET("/:slug", productHandler.GetProduct)
	}

	return r
}

// sessionStore keeps the nonce and wallet session in a signed cookie.
// Secure is only set in production so the login flow works over plain HTTP.
func sessionStore(cfg *config.Config) sessions.Store {
	store := cookie.NewStore([]byte(cfg.Session.Secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.JWT.AccessTokenTTL * 3600,
		HttpOnly: true,
		Secure:   cfg.Environment == "production",
		SameSite: http.SameSiteLaxMode,
	})
	return store
}
