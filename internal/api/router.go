package api

import (
	"marketplace/internal/domain"     // Roles
	"marketplace/internal/metrics"    // Prometheus handler
	"marketplace/internal/middleware" // Custom middleware
	"marketplace/internal/service"    // Business services
	"marketplace/internal/utils"      // Cache helpers
	"time"                            // Time durations

	"github.com/gin-contrib/cors" // CORS middleware
	"github.com/gin-gonic/gin"    // Gin web framework
)

// Deps holds everything the router needs
type Deps struct {
	Accounts         *service.Accounts       // Account manager
	Catalog          *service.Catalog        // Catalog manager
	Orders           *service.Orders         // Order service
	Health           Pinger                  // Store health
	Cache            utils.Cache             // Product listing cache
	LoginLimiter     *middleware.RateLimiter // Login throttling, nil disables it
	JWTSecret        string                  // JWT secret key
	CORSOrigins      []string                // Allowed CORS origins
	MaxImageBytes    int64                   // Largest accepted product image
	ProductsCacheTTL time.Duration           // Product listing cache lifetime
}

// NewRouter wires every route of the marketplace
func NewRouter(d Deps) *gin.Engine {
	if d.Cache == nil {
		d.Cache = utils.NopCache{} // Caching is optional
	}
	r := gin.New() // Gin router instance
	// Match on the escaped path so product names containing "/" still hit :name
	r.UseRawPath = true
	r.UnescapePathValues = true
	r.Use(gin.Recovery(), middleware.RequestLogger())
	if len(d.CORSOrigins) > 0 {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowOrigins = d.CORSOrigins
		corsCfg.AddAllowHeaders("Authorization", "X-Request-ID")
		r.Use(cors.New(corsCfg))
	}

	r.GET("/healthz", HealthHandler(d.Health)) // Health endpoint
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Public routes
	login := []gin.HandlerFunc{LoginHandler(d.Accounts, d.JWTSecret)}
	if d.LoginLimiter != nil {
		login = append([]gin.HandlerFunc{d.LoginLimiter.Handler()}, login...)
	}
	r.POST("/users", RegisterHandler(d.Accounts)) // Registration endpoint
	r.POST("/login", login...)                    // Login endpoint
	r.GET("/products", ListProductsHandler(d.Catalog, d.Cache, d.ProductsCacheTTL))
	r.GET("/products/:name/image", ProductImageHandler(d.Catalog))

	// Order routes (protected by JWT, buyers only)
	orderGroup := r.Group("/orders")
	orderGroup.Use(middleware.JWTAuthMiddleware(d.JWTSecret), middleware.RoleRequired(domain.RoleUser))
	orderGroup.POST("", PlaceOrderHandler(d.Orders))  // Place order endpoint
	orderGroup.GET("", ListMyOrdersHandler(d.Orders)) // Own orders endpoint

	// Admin routes (protected, admin only)
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.JWTAuthMiddleware(d.JWTSecret), middleware.AdminOnlyMiddleware(d.Accounts))
	adminGroup.POST("/users", RegisterAdminHandler(d.Accounts))                          // Register admin endpoint
	adminGroup.POST("/products", AddProductHandler(d.Catalog, d.Cache, d.MaxImageBytes)) // Add or update product endpoint
	adminGroup.GET("/orders", ListOrdersHandler(d.Orders))                               // List orders endpoint
	adminGroup.PATCH("/orders/:id/status", UpdateOrderStatusHandler(d.Orders))           // Order status endpoint

	return r
}
