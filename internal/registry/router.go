package registry

import (
	"github.com/gin-gonic/gin"

	"orderflow/pkg/middleware"
)

// NewRouter creates and configures the Gin router for the registry service.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CorrelationID())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.POST("/users", h.CreateUser)
	r.PUT("/users/:id", h.UpdateUser)
	r.GET("/users/:id", h.GetUser)
	r.GET("/users", h.ListUsers)

	return r
}
