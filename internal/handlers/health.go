package handlers

import (
	"context"
	"net/http"
	"time"

	"lumea_back_end/internal/database"

	"github.com/gin-gonic/gin"
)

// Health vérifie la connectivité ScyllaDB et Redis.
func Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{}

	if session, err := database.GetCatalogSession(); err != nil {
		checks["scylla"] = "down"
		status = http.StatusServiceUnavailable
	} else if err := session.Query(`SELECT now() FROM system.local`).WithContext(ctx).Exec(); err != nil {
		checks["scylla"] = "down"
		status = http.StatusServiceUnavailable
	} else {
		checks["scylla"] = "up"
	}

	if database.Redis == nil {
		checks["redis"] = "down"
	} else if err := database.Redis.Ping(ctx).Err(); err != nil {
		checks["redis"] = "down"
	} else {
		checks["redis"] = "up"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{
		"status": overall,
		"checks": checks,
	})
}
