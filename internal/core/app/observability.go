package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"pyward/internal/core/errors"
	"pyward/internal/shared/observability"
)

// StartObservability starts the metrics endpoint and the OTLP exporter when
// they are configured. The returned stop function is always non-nil.
func (a *App) StartObservability(ctx context.Context) (func(), error) {
	cfg := a.Config.Observability

	shutdownTracing, err := observability.InitTracing(ctx, cfg.OTLPEndpoint)
	if err != nil {
		return func() {}, errors.Wrap(err, errors.CodeInternal, "initialize tracing")
	}

	var server *observability.MetricsServer
	if addr := strings.TrimSpace(cfg.MetricsAddr); addr != "" {
		server = observability.NewMetricsServer(addr)
		server.Start()
	}

	return func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if server != nil {
			if err := server.Stop(stopCtx); err != nil {
				slog.Warn("failed to stop metrics server", "error", err)
			}
		}
		if err := shutdownTracing(stopCtx); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}, nil
}
