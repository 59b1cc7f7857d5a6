package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"studygenie/internal/bootstrap"
)

type HealthHandler struct {
	app *bootstrap.App
}

type dependencyStatus struct {
	Enabled bool   `json:"enabled"`
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

func NewHealthHandler(app *bootstrap.App) *HealthHandler {
	return &HealthHandler{app: app}
}

// Check reports liveness plus the state of every configured dependency.
// Disabled dependencies never fail the check.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	deps := gin.H{
		"mysql":    h.checkMySQL(ctx),
		"redis":    h.checkRedis(ctx),
		"mongo":    h.checkMongo(ctx),
		"rabbitmq": h.checkRabbitMQ(),
	}

	allOK := true
	for _, v := range deps {
		if st := v.(dependencyStatus); st.Enabled && !st.OK {
			allOK = false
		}
	}
	statusCode := http.StatusOK
	status := "OK"
	if !allOK {
		statusCode = http.StatusServiceUnavailable
		status = "DEGRADED"
	}

	provider := ""
	if h.app.Services != nil {
		provider = h.app.Services.Provider
	}

	c.JSON(statusCode, gin.H{
		"status":       status,
		"app":          h.app.Config.App.Name,
		"env":          h.app.Config.App.Env,
		"provider":     provider,
		"timestamp":    time.Now().UTC(),
		"uptime_sec":   int(time.Since(h.app.StartedAt).Seconds()),
		"dependencies": deps,
	})
}

func (h *HealthHandler) checkMySQL(ctx context.Context) dependencyStatus {
	if h.app.MySQL == nil {
		return dependencyStatus{}
	}
	sqlDB, err := h.app.MySQL.DB()
	if err != nil {
		return dependencyStatus{Enabled: true, Message: err.Error()}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return dependencyStatus{Enabled: true, Message: err.Error()}
	}
	return dependencyStatus{Enabled: true, OK: true}
}

func (h *HealthHandler) checkRedis(ctx context.Context) dependencyStatus {
	if h.app.Redis == nil {
		return dependencyStatus{}
	}
	if err := h.app.Redis.Ping(ctx).Err(); err != nil {
		return dependencyStatus{Enabled: true, Message: err.Error()}
	}
	return dependencyStatus{Enabled: true, OK: true}
}

func (h *HealthHandler) checkMongo(ctx context.Context) dependencyStatus {
	if h.app.Mongo == nil {
		return dependencyStatus{}
	}
	if err := h.app.Mongo.Ping(ctx, readpref.Primary()); err != nil {
		return dependencyStatus{Enabled: true, Message: err.Error()}
	}
	return dependencyStatus{Enabled: true, OK: true}
}

func (h *HealthHandler) checkRabbitMQ() dependencyStatus {
	if h.app.MQConn == nil {
		return dependencyStatus{}
	}
	if h.app.MQConn.IsClosed() {
		return dependencyStatus{Enabled: true, Message: "connection closed"}
	}
	return dependencyStatus{Enabled: true, OK: true}
}
