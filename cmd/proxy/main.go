package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/zhiyxn/linuxdo-cf-oauth/internal/api"
	"github.com/zhiyxn/linuxdo-cf-oauth/internal/api/middleware"
	"github.com/zhiyxn/linuxdo-cf-oauth/internal/credentials"
	"github.com/zhiyxn/linuxdo-cf-oauth/internal/upstream"
	"github.com/zhiyxn/linuxdo-cf-oauth/pkg/config"
	"github.com/zhiyxn/linuxdo-cf-oauth/pkg/logger"
	"github.com/zhiyxn/linuxdo-cf-oauth/pkg/utils"
)

func main() {
	cfg := config.MustLoad()

	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	origins := middleware.ParseAllowedOrigins(cfg.AllowedOrigins)
	log.Info("Starting linux.do OAuth proxy",
		zap.String("env", cfg.AppEnv),
		zap.String("addr", cfg.HTTPAddr),
		zap.String("admin_addr", cfg.AdminAddr),
		zap.Bool("client_map", cfg.ClientMap != ""),
		zap.Bool("fallback_client_id", cfg.ClientID != ""),
		zap.String("fallback_secret_fp", utils.Fingerprint(cfg.ClientSecret)),
		zap.Strings("allowed_origins", origins),
	)
	if !cfg.HasCredentials() {
		log.Warn("no CLIENT_MAP or CLIENT_SECRET configured; token requests will be rejected unless callers send a secret")
	}
	if len(origins) == 0 {
		log.Warn("ALLOWED_ORIGINS empty; any origin will be mirrored")
	}

	router := api.NewRouter(api.Dependencies{
		Credentials: credentials.Config{
			ClientMap:    cfg.ClientMap,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
		},
		AllowedOrigins: origins,
		Upstream:       upstream.New(upstream.NewHTTPClient(cfg.UpstreamTimeout), upstream.DefaultEndpoints()),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.UpstreamTimeout + 30*time.Second,
		IdleTimeout:       90 * time.Second,
	}
	admin := &http.Server{
		Addr:              cfg.AdminAddr,
		Handler:           api.NewAdminRouter(cfg.HasCredentials()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)
	for name, s := range map[string]*http.Server{"http": srv, "admin": admin} {
		name, s := name, s
		go func() {
			log.Info("server starting", zap.String("server", name), zap.String("addr", s.Addr))
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := admin.Shutdown(shutdownCtx); err != nil {
		log.Error("admin shutdown error", zap.Error(err))
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	} else {
		log.Info("server exited gracefully")
	}
}
