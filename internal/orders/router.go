package orders

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"orderflow/pkg/middleware"
)

// HealthInfo supplies the live readings reported on /health.
type HealthInfo struct {
	BreakerState func() string
	CachedUsers  func() int
}

// NewRouter creates and configures the Gin router for the order service.
func NewRouter(h *Handler, info HealthInfo) *gin.Engine {
	r := gin.Default()

	// Middleware
	r.Use(middleware.CorrelationID())

	// Health check with breaker/cache visibility
	r.GET("/health", func(c *gin.Context) {
		resp := gin.H{"status": "ok"}
		if info.BreakerState != nil {
			resp["breaker"] = info.BreakerState()
		}
		if info.CachedUsers != nil {
			resp["cached_users"] = info.CachedUsers()
		}
		c.JSON(200, resp)
	})

	// Prometheus
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Order routes
	r.POST("/orders", h.CreateOrder)
	r.GET("/orders", h.ListOrders)
	r.GET("/orders/:id", h.GetOrder)
	r.POST("/orders/:id/cancel", h.CancelOrder)

	return r
}
