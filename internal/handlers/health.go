package handlers

import (
	"net/http"
	"time"

	"github.com/bench-arena/bench-arena/internal/executioncontext"
)

const (
	STATUS_HEALTHY  = "healthy"
	STATUS_DEGRADED = "degraded"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Build     string    `json:"build,omitempty"`
	BuildDate string    `json:"build_date,omitempty"`
}

type StatusResponse struct {
	Service    string    `json:"service"`
	Version    string    `json:"version"`
	Status     string    `json:"status"`
	Datasource string    `json:"datasource"`
	Timestamp  time.Time `json:"timestamp"`
}

func (h *Handlers) HandleHealth(ctx *executioncontext.ExecutionContext, w http.ResponseWriter, build string, buildDate string) {
	if build == "0.0.1" {
		// for now we only want a real build number and not the default value
		build = ""
	}
	healthInfo := HealthResponse{
		Status:    STATUS_HEALTHY,
		Timestamp: time.Now().UTC(),
		Build:     build,
		BuildDate: buildDate,
	}
	h.successResponse(ctx, w, healthInfo, http.StatusOK)
}

// HandleStatus reports the service status including storage reachability.
func (h *Handlers) HandleStatus(ctx *executioncontext.ExecutionContext, w http.ResponseWriter, version string) {
	if !h.checkMethod(ctx, http.MethodGet, w) {
		return
	}

	status := STATUS_HEALTHY
	if err := h.storage.Ping(5 * time.Second); err != nil {
		ctx.Logger.Error("Storage ping failed", "error", err)
		status = STATUS_DEGRADED
	}

	h.successResponse(ctx, w, StatusResponse{
		Service:    "bench-arena",
		Version:    version,
		Status:     status,
		Datasource: h.storage.GetDatasourceName(),
		Timestamp:  time.Now().UTC(),
	}, http.StatusOK)
}
