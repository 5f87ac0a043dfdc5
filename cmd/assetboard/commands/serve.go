package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/assetboard/assetboard/internal/alerts"
	"github.com/assetboard/assetboard/internal/api"
	"github.com/assetboard/assetboard/internal/auth"
	"github.com/assetboard/assetboard/internal/config"
	"github.com/assetboard/assetboard/internal/metrics"
	"github.com/assetboard/assetboard/internal/receiver"
	"github.com/assetboard/assetboard/internal/source"
	"github.com/assetboard/assetboard/internal/store"
	"github.com/assetboard/assetboard/internal/ws"
)

// heartbeat is how often the hub re-sends the current stats to clients.
const heartbeat = 30 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard API",
		Long:  "Fetch the inventory, keep it refreshed, and serve the REST API, the WebSocket stream and Prometheus metrics.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, opts.configPath)
		},
	}
}

// serve wires every component from cfg and blocks until ctx is cancelled.
// configPath, when set, is watched for changes.
func serve(ctx context.Context, cfg *config.Config, configPath string) error {
	slog.Info("assetboard starting",
		"http_port", cfg.Server.HTTPPort,
		"metrics_port", cfg.Server.MetricsPort,
		"auth_mode", cfg.Server.Auth.Mode,
		"source_kind", cfg.Source.Kind,
		"refresh_interval", cfg.Source.RefreshInterval,
	)

	if err := checkAuth(cfg.Server.Auth); err != nil {
		return err
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	fetcher, err := source.New(cfg.Source)
	if err != nil {
		return err
	}

	st := store.New(fetcher,
		store.WithOnError(cfg.Source.OnError),
		store.WithMetrics(m),
		store.WithRefreshInterval(cfg.Source.RefreshInterval),
	)

	// Alerts are evaluated on every installed snapshot.
	alertEngine := alerts.New(cfg.Alerts, m)
	st.Subscribe(func(snap *store.Snapshot) {
		if snap == nil {
			alertEngine.Evaluate(nil)
			return
		}
		alertEngine.Evaluate(snap.Assets)
	})

	hub := ws.New(st, heartbeat)
	st.Subscribe(hub.Notify)

	apiHandler := api.New(st, alertEngine, api.Options{
		ListLimit: cfg.Server.ListLimit,
		Metrics:   m,
		Middleware: []mux.MiddlewareFunc{
			auth.APIKey(cfg.Server.Auth.Mode, cfg.Server.Auth.EffectiveHeader(), cfg.Server.Auth.Key()),
		},
		Upload: receiver.New(st),
	})

	httpMux := http.NewServeMux()
	httpMux.Handle("/api/", apiHandler)
	httpMux.Handle("/ws/stream", hub)

	servers := []namedServer{{"HTTP", &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           httpMux,
		ReadHeaderTimeout: 10 * time.Second,
	}}}
	if cfg.Server.MetricsPort != 0 {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", m.Handler())
		servers = append(servers, namedServer{"metrics", &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.MetricsPort),
			Handler:           metricsMux,
			ReadHeaderTimeout: 10 * time.Second,
		}})
	}

	go st.Run(ctx)
	go hub.Run(ctx)

	if configPath != "" {
		go func() {
			err := config.Watch(ctx, configPath, func(next *config.Config) {
				st.SetRefreshInterval(next.Source.RefreshInterval)
				alertEngine.SetRules(next.Alerts)
				slog.Info("config: applied reload",
					"refresh_interval", next.Source.RefreshInterval,
					"alert_rules", len(next.Alerts.Rules),
				)
			})
			if err != nil {
				slog.Error("config watcher stopped", "err", err)
			}
		}()
	}

	errc := make(chan error, len(servers))
	for _, s := range servers {
		go func(s namedServer) {
			slog.Info(s.name+" server listening", "addr", s.srv.Addr)
			if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- fmt.Errorf("%s server: %w", s.name, err)
			}
		}(s)
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errc:
	}

	slog.Info("assetboard shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, s := range servers {
		s.srv.Shutdown(shutdownCtx) //nolint:errcheck
	}

	return runErr
}

// checkAuth refuses apikey mode when the key variable resolves to nothing,
// since the middleware would then let every request through.
func checkAuth(a config.AuthConfig) error {
	if a.Mode == "apikey" && a.Key() == "" {
		return fmt.Errorf("serve: server.auth.mode is apikey but $%s is empty", a.KeyEnv)
	}
	return nil
}

type namedServer struct {
	name string
	srv  *http.Server
}
