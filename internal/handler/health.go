package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nozzip/seccional/internal/infra"
	"github.com/nozzip/seccional/internal/worker"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// BreakerState reports the object storage circuit breaker.
type BreakerState interface {
	State() infra.CBState
}

// Health godoc
// @Summary Liveness and dependency status
// @Description Redis and the archive mirror are optional; only the database decides the status code.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func Health(db *gorm.DB, rdb *redis.Client, mirror BreakerState) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		body := gin.H{"db": dbStatus}

		switch {
		case rdb == nil:
			body["redis"] = "disabled"
		case rdb.Ping(ctx).Err() != nil:
			body["redis"] = "error"
		default:
			body["redis"] = "connected"
			if n, err := worker.DLQLength(ctx, rdb, worker.QueueJobs); err == nil {
				body["dlq"] = n
			}
		}

		if mirror == nil {
			body["archive_mirror"] = "disabled"
		} else {
			body["archive_mirror"] = mirror.State().String()
		}

		status := http.StatusOK
		if dbStatus != "connected" {
			status = http.StatusServiceUnavailable
		}
		body["ok"] = status == http.StatusOK
		c.JSON(status, body)
	}
}
