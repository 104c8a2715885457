package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const healthTimeout = 3 * time.Second

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if a.deps.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := a.deps.DB.Ping(ctx); err != nil {
			a.logger.Warn("health.db.failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "fail", "db": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HealthServer serves the standard gRPC health protocol next to the HTTP API.
type HealthServer struct {
	grpc   *grpc.Server
	health *health.Server
	logger *slog.Logger
}

// NewHealthServer registers health and reflection services; status starts as SERVING.
func NewHealthServer(logger *slog.Logger) *HealthServer {
	if logger == nil {
		logger = slog.Default()
	}
	gs := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	reflection.Register(gs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	return &HealthServer{grpc: gs, health: hs, logger: logger}
}

// Serve blocks serving on lis until Stop is called.
func (h *HealthServer) Serve(lis net.Listener) error {
	h.logger.Info("health.grpc.listening", "addr", lis.Addr().String())
	return h.grpc.Serve(lis)
}

// SetServing flips the overall status reported to health checkers.
func (h *HealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", status)
}

// Stop marks the server NOT_SERVING and drains in-flight calls.
func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.grpc.GracefulStop()
}
