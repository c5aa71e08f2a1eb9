// Command feedback-mcp serves the meeting feedback MCP server over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ggoodman/feedback-mcp/auth"
	"github.com/ggoodman/feedback-mcp/feedbackmcp"
	"github.com/ggoodman/feedback-mcp/httpapi"
	"github.com/ggoodman/feedback-mcp/internal/config"
	"github.com/ggoodman/feedback-mcp/internal/metrics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := newLogger(cfg)
	slog.SetDefault(log)

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
	}

	opts := []httpapi.Option{
		httpapi.WithLogger(log),
		httpapi.WithMetrics(m),
		httpapi.WithMaxBodyBytes(cfg.MaxBodyBytes),
	}
	if cfg.AuthEnabled() {
		authenticator, err := newAuthenticator(ctx, cfg)
		if err != nil {
			return fmt.Errorf("configure auth: %w", err)
		}
		opts = append(opts, httpapi.WithAuthenticator(authenticator), httpapi.WithPublicURL(cfg.PublicURL))
	}

	h, err := httpapi.New(feedbackmcp.New(feedbackmcp.WithLogger(log), feedbackmcp.WithMetrics(m)), opts...)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      h,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server.listen", slog.String("addr", cfg.Addr), slog.Bool("auth", cfg.AuthEnabled()), slog.Bool("metrics", cfg.MetricsEnabled))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("server.shutdown.start")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server.shutdown.ok")
	return nil
}

func newLogger(cfg config.Config) *slog.Logger {
	lvl, _ := cfg.Level()
	hOpts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(cfg.LogFormat, "text") {
		return slog.New(slog.NewTextHandler(os.Stderr, hOpts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, hOpts))
}

func newAuthenticator(ctx context.Context, cfg config.Config) (auth.Provider, error) {
	var opts []auth.AccessTokenAuthOption
	if scopes := cfg.RequiredScopes(); len(scopes) > 0 {
		opts = append(opts, auth.WithRequiredScopes(scopes...))
	}
	if cfg.AuthJWKSURL != "" {
		return auth.NewStatic(ctx, cfg.AuthIssuer, cfg.Audience(), cfg.AuthJWKSURL, opts...)
	}
	return auth.NewFromDiscovery(ctx, cfg.AuthIssuer, cfg.Audience(), opts...)
}
