package grpc

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name the user service reports under in grpc.health.v1.
const ServiceName = "videotube.v1.UserService"

type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthReporter probes the store and revocation list and mirrors the result
// into the standard gRPC health service.
type HealthReporter struct {
	checker  HealthChecker
	srv      *health.Server
	interval time.Duration
	timeout  time.Duration
	log      *zap.Logger
}

func NewHealthReporter(checker HealthChecker, srv *health.Server, interval time.Duration, log *zap.Logger) *HealthReporter {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &HealthReporter{
		checker:  checker,
		srv:      srv,
		interval: interval,
		timeout:  interval / 2,
		log:      log,
	}
}

// Probe runs a single check and publishes the serving status.
func (h *HealthReporter) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	st := healthpb.HealthCheckResponse_SERVING
	if err := h.checker.Health(ctx); err != nil {
		h.log.Warn("health probe failed", zap.Error(err))
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.srv.SetServingStatus("", st)
	h.srv.SetServingStatus(ServiceName, st)
	return st
}

// Run probes until ctx is cancelled, then marks everything NOT_SERVING.
func (h *HealthReporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			h.srv.Shutdown()
			return nil
		case <-ticker.C:
			h.Probe(ctx)
		}
	}
}
