package controller

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	router   *gin.RouterGroup
	database Pinger
}

func NewHealthController(router *gin.RouterGroup, database Pinger) *HealthController {
	return &HealthController{
		router:   router,
		database: database,
	}
}

func (hc *HealthController) SetupRoutes() {
	hc.router.GET("/healthz", hc.health)
	hc.router.HEAD("/healthz", hc.health)
}

func (hc *HealthController) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	err := hc.database.Ping(ctx)

	if err != nil {
		log.Error().Err(err).Msg("Database health check failed")
		c.JSON(503, gin.H{
			"status":  503,
			"message": "Database unavailable",
		})
		return
	}

	c.JSON(200, gin.H{
		"status":  200,
		"message": "OK",
	})
}
