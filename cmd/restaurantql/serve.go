package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andrewwphillips/restaurantql"
	"github.com/andrewwphillips/restaurantql/internal/config"
	"github.com/andrewwphillips/restaurantql/internal/logging"
	"github.com/andrewwphillips/restaurantql/internal/metrics"
	"github.com/andrewwphillips/restaurantql/internal/restaurant"
	"github.com/andrewwphillips/restaurantql/internal/store"
	"github.com/andrewwphillips/restaurantql/internal/upstream"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the GraphQL server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		v, err := loadViper(cmd)
		if err != nil {
			return err
		}
		cfg, err := config.Load(v)
		if err != nil {
			return errors.Wrap(err, "configuration")
		}
		logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return run(ctx, cfg, logger)
	},
}

func init() {
	config.BindFlags(serveCmd.Flags())
}

// run starts the server and blocks until ctx is cancelled (eg by SIGINT) or the server fails
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		return errors.Wrap(err, "registering metrics")
	}
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			logger.Warn("closing store", zap.Error(err))
		}
	}()
	logger.Info("store opened", zap.String("driver", cfg.Store.Driver))

	svc := restaurant.New(st,
		upstream.New(cfg.Upstream, logger.Named("upstream")),
		logger.Named("restaurant"),
		restaurant.EnrichConcurrency(cfg.EnrichConcurrency),
	)
	h, err := restaurantql.New(svc,
		restaurantql.Logger(logger),
		restaurantql.Timeout(cfg.RequestTimeout),
		restaurantql.NoIntrospection(cfg.NoIntrospection),
		restaurantql.AuthSecret(cfg.AuthSecret),
	)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Path, h)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok\n"))
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errs := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr), zap.String("path", cfg.Path),
			zap.Bool("auth", cfg.AuthSecret != ""))
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return errors.Wrap(err, "server")
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}
