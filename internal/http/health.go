package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrvaldes/biblioteca/internal/database"
)

// HealthController reports service liveness and database reachability.
type HealthController struct {
	db      *database.Database
	version string
}

// NewHealthController creates a new HealthController.
func NewHealthController(db *database.Database, version string) *HealthController {
	return &HealthController{db: db, version: version}
}

// Status responds with the service health.
func (hc *HealthController) Status(c *gin.Context) {
	status := "ok"
	code := http.StatusOK

	sqlDB, err := hc.db.DB.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":  status,
		"version": hc.version,
	})
}
