// Package health serves liveness and readiness checks.
package health

import (
	"context"
	"net/http"
	"time"

	"smarttrack/internal/database"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const checkTimeout = 2 * time.Second

type Handler struct {
	db      *gorm.DB
	redis   *redis.Client
	started time.Time
}

// NewHandler checks db and, when rdb is non-nil, redis.
func NewHandler(db *gorm.DB, rdb *redis.Client) *Handler {
	return &Handler{db: db, redis: rdb, started: time.Now()}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.Health)
	r.GET("/health/live", h.Live)
	r.GET("/health/ready", h.Ready)
}

// Live reports that the process is serving.
func (h *Handler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": "UP"})
}

// Ready reports whether dependencies answer. 503 when any check fails.
func (h *Handler) Ready(c *gin.Context) {
	checks, ok := h.check(c.Request.Context())
	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"ok": ok, "checks": checks})
}

func (h *Handler) Health(c *gin.Context) {
	checks, ok := h.check(c.Request.Context())
	state := "UP"
	status := http.StatusOK
	if !ok {
		state = "DEGRADED"
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"ok":     ok,
		"status": state,
		"uptime": time.Since(h.started).Round(time.Second).String(),
		"checks": checks,
	})
}

func (h *Handler) check(ctx context.Context) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	checks := map[string]string{}
	ok := true

	if err := database.Ping(ctx, h.db); err != nil {
		checks["database"] = "down: " + err.Error()
		ok = false
	} else {
		checks["database"] = "up"
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = "down: " + err.Error()
			ok = false
		} else {
			checks["redis"] = "up"
		}
	}
	return checks, ok
}
