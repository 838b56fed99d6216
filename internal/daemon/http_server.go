package daemon

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	ferrors "git.home.luguber.info/inful/displayctl/internal/foundation/errors"
	"git.home.luguber.info/inful/displayctl/internal/logfields"
	"git.home.luguber.info/inful/displayctl/internal/metrics"
)

// metricsServer serves the Prometheus scrape endpoint plus a trivial
// health probe.
type metricsServer struct {
	srv      *http.Server
	listener net.Listener
}

func newMetricsServer(addr string, registry *prom.Registry) (*metricsServer, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryDaemon, "failed to bind metrics listener").
			WithContext("addr", addr).
			Build()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(registry))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &metricsServer{
		srv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		listener: listener,
	}, nil
}

func (m *metricsServer) Start() {
	slog.Info("Metrics server listening", slog.String("addr", m.listener.Addr().String()))
	go func() {
		if err := m.srv.Serve(m.listener); err != nil && err != http.ErrServerClosed {
			slog.Error("Metrics server failed", logfields.Error(err))
		}
	}()
}

func (m *metricsServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.srv.Shutdown(ctx)
}
