package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// PoolStats is the connection-pool snapshot exposed on the health endpoint.
// Field names follow the camelCase convention of the rest of the API.
type PoolStats struct {
	Open        int32  `json:"open"`
	Idle        int32  `json:"idle"`
	InUse       int32  `json:"inUse"`
	Max         int32  `json:"max"`
	AcquireWait string `json:"acquireWait"`
}

// HealthReport is the body served on /health.
type HealthReport struct {
	Status   string     `json:"status"`
	Service  string     `json:"service"`
	Database *PoolStats `json:"database"`
	Error    string     `json:"error,omitempty"`
}

// GetPoolStats snapshots the pgx pool counters.
func GetPoolStats(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		Open:        stat.TotalConns(),
		Idle:        stat.IdleConns(),
		InUse:       stat.AcquiredConns(),
		Max:         stat.MaxConns(),
		AcquireWait: stat.AcquireDuration().String(),
	}
}

// newHealthReport builds the response for a ping outcome. A failed ping
// degrades the whole report; the pool counters are still included so an
// operator can see whether the pool is exhausted or the database is gone.
func newHealthReport(pingErr error, stats *PoolStats) (int, HealthReport) {
	report := HealthReport{
		Status:   "ok",
		Service:  "healthconnect",
		Database: stats,
	}
	if pingErr != nil {
		report.Status = "degraded"
		report.Error = pingErr.Error()
		return http.StatusServiceUnavailable, report
	}
	return http.StatusOK, report
}

// HealthHandler serves the liveness endpoint backed by a database ping.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		code, report := newHealthReport(pool.Ping(ctx), GetPoolStats(pool))
		return c.JSON(code, report)
	}
}
