// Package handlers exposes the operational HTTP surface.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sriRacha21/rct-backend/internal/scheduler"
)

// StatsProvider reports the reconciliation loop's counters.
type StatsProvider interface {
	Stats() scheduler.Stats
}

// NewRouter builds the health/status router.
func NewRouter(poller StatsProvider) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, poller.Stats())
	})

	return router
}
