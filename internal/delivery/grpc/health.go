package grpc

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the name reported next to the overall ("") status.
const ServiceName = "shoplit"

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthReporter keeps the gRPC health status in line with store pings.
type HealthReporter struct {
	server   *health.Server
	store    Pinger
	interval time.Duration
	log      *logrus.Logger
}

func NewHealthReporter(store Pinger, interval time.Duration, logger *logrus.Logger) *HealthReporter {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &HealthReporter{
		server:   health.NewServer(),
		store:    store,
		interval: interval,
		log:      logger,
	}
}

// Check pings the store once and publishes the result.
func (r *HealthReporter) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := r.store.Ping(ctx); err != nil {
		r.log.Warnf("gRPC Handler: Store ping failed, reporting NOT_SERVING: %v", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	r.server.SetServingStatus("", status)
	r.server.SetServingStatus(ServiceName, status)
	return status
}

// Run re-checks on every tick and marks everything NOT_SERVING on exit.
func (r *HealthReporter) Run(ctx context.Context) error {
	r.Check(ctx)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.server.Shutdown()
			return nil
		case <-ticker.C:
			r.Check(ctx)
		}
	}
}

// NewServer builds the gRPC server with the health service and reflection.
func NewServer(reporter *HealthReporter, logger *logrus.Logger) *grpc.Server {
	server := grpc.NewServer()
	healthpb.RegisterHealthServer(server, reporter.server)
	reflection.Register(server)
	logger.Info("gRPC health and reflection services registered")
	return server
}
