// Package health serves the load-balancer health check.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dalemusser/councilhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Pinger is satisfied by *mongo.Client.
type Pinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client  Pinger
	Log     *zap.Logger
	Started time.Time
}

// NewHandler constructs a health Handler with the Mongo client and logger.
func NewHandler(client Pinger, logger *zap.Logger) *Handler {
	return &Handler{
		Client:  client,
		Log:     logger,
		Started: time.Now(),
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Service  string `json:"service"`
	Status   string `json:"status"`
	Database string `json:"database"`
	Uptime   int64  `json:"uptime_seconds"`
	Message  string `json:"message,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "service":"councilhub", "status":"ok", "database":"connected", "uptime_seconds":42 }
//
// On DB failure: 503 with status "error". The ping error is logged, not
// returned, because the endpoint is public.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	resp := healthResponse{
		Service:  "councilhub",
		Status:   "ok",
		Database: "connected",
		Uptime:   int64(time.Since(h.Started).Seconds()),
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	_ = json.NewEncoder(w).Encode(resp)
}
