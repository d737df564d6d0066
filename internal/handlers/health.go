package handlers

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
)

// DBPinger checks database connectivity.
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// Pinger checks one backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports liveness, readiness and backing-service health.
type HealthHandler struct {
	db        DBPinger
	redis     Pinger
	version   string
	startTime time.Time
	ready     atomic.Bool
}

func NewHealthHandler(db DBPinger, redis Pinger, version string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		redis:     redis,
		version:   version,
		startTime: time.Now(),
	}
}

// SetReady sets the readiness state.
func (h *HealthHandler) SetReady(ready bool) {
	h.ready.Store(ready)
}

// Register registers the health routes on the root echo instance.
func (h *HealthHandler) Register(e *echo.Echo) {
	e.GET("/api/health", h.Health)
	e.GET("/api/health/live", h.Live)
	e.GET("/api/health/ready", h.Ready)
}

// HealthStatus is the health check response.
type HealthStatus struct {
	Status     string                  `json:"status"`
	Version    string                  `json:"version"`
	Uptime     string                  `json:"uptime"`
	Checks     map[string]*CheckResult `json:"checks"`
	ReportedAt time.Time               `json:"reported_at"`
}

// CheckResult is an individual check result.
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Health returns the overall health status.
func (h *HealthHandler) Health(c echo.Context) error {
	ctx := c.Request().Context()

	status := &HealthStatus{
		Status:     "healthy",
		Version:    h.version,
		Uptime:     time.Since(h.startTime).Round(time.Second).String(),
		Checks:     make(map[string]*CheckResult),
		ReportedAt: time.Now(),
	}

	if h.db != nil {
		status.Checks["database"] = h.check(ctx, h.db.PingContext)
	} else {
		status.Checks["database"] = &CheckResult{Status: "unhealthy", Message: "not configured"}
	}
	if h.redis != nil {
		status.Checks["redis"] = h.check(ctx, h.redis.Ping)
	} else {
		status.Checks["redis"] = &CheckResult{Status: "unhealthy", Message: "not configured"}
	}

	httpStatus := http.StatusOK
	for _, result := range status.Checks {
		if result.Status != "healthy" {
			status.Status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
		}
	}

	return c.JSON(httpStatus, status)
}

// Live reports whether the service is running.
func (h *HealthHandler) Live(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "alive"})
}

// Ready reports whether the service is ready to accept traffic.
func (h *HealthHandler) Ready(c echo.Context) error {
	if h.ready.Load() {
		return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
	}
	return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
}

func (h *HealthHandler) check(ctx context.Context, ping func(ctx context.Context) error) *CheckResult {
	start := time.Now()
	if err := ping(ctx); err != nil {
		return &CheckResult{Status: "unhealthy", Message: err.Error()}
	}
	return &CheckResult{Status: "healthy", Latency: time.Since(start).String()}
}
