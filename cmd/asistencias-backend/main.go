package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jenerCruz/asistencias-backend/internal/config"
	"github.com/jenerCruz/asistencias-backend/internal/evidence"
	"github.com/jenerCruz/asistencias-backend/internal/gitrepo"
	"github.com/jenerCruz/asistencias-backend/internal/gitrepo/github"
	"github.com/jenerCruz/asistencias-backend/internal/httpapi"
	"github.com/jenerCruz/asistencias-backend/internal/telemetry"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg := config.Load()

	shutdownTelemetry := telemetry.Setup("asistencias-backend")
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	factory, err := buildFactory(cfg)
	if err != nil {
		log.Fatalf("github auth: %v", err)
	}

	service := evidence.NewService(factory, evidence.Options{
		DefaultBranch: cfg.DefaultBranch,
		MaxSizeBytes:  cfg.MaxSizeBytes,
	})
	handler := httpapi.NewHandler(service, httpapi.Options{
		// Base64 expands content by 4/3; leave room for the JSON envelope.
		MaxBodyBytes: cfg.MaxSizeBytes*4/3 + 1<<20,
	})

	var root http.Handler = handler.Routes()
	if cfg.RateLimitPerMinute > 0 {
		limiter := httpapi.NewRateLimiter(httpapi.RateLimitConfig{
			PerMinute: cfg.RateLimitPerMinute,
			Burst:     cfg.RateLimitBurst,
		})
		root = limiter.Middleware(root)
	}
	root = httpapi.CORSMiddleware(httpapi.LoggingMiddleware(root))
	root = otelhttp.NewHandler(root, "asistencias-backend")

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("asistencias-backend listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func buildFactory(cfg config.Config) (gitrepo.Factory, error) {
	if cfg.RepoOwner == "" || cfg.RepoName == "" {
		return nil, errors.New("REPO_OWNER and REPO_NAME are required")
	}
	if cfg.Token != "" {
		return github.NewTokenAuth(github.TokenConfig{
			Token:   cfg.Token,
			Owner:   cfg.RepoOwner,
			Repo:    cfg.RepoName,
			BaseURL: cfg.APIBaseURL,
		}), nil
	}
	if cfg.AppID == 0 || cfg.AppPrivateKey == "" || cfg.InstallationID == 0 {
		return nil, errors.New("GITHUB_TOKEN or GITHUB_APP_ID/GITHUB_APP_PRIVATE_KEY/GITHUB_INSTALLATION_ID are required")
	}
	return github.NewAppAuth(github.AppConfig{
		AppID:          cfg.AppID,
		PrivateKeyPEM:  cfg.AppPrivateKey,
		InstallationID: cfg.InstallationID,
		Owner:          cfg.RepoOwner,
		Repo:           cfg.RepoName,
		BaseURL:        cfg.APIBaseURL,
	})
}
