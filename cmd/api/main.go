package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vinodhj/cf-jwt-auth/internal/audit"
	"github.com/vinodhj/cf-jwt-auth/internal/auth"
	"github.com/vinodhj/cf-jwt-auth/internal/config"
	"github.com/vinodhj/cf-jwt-auth/internal/httpapi"
	"github.com/vinodhj/cf-jwt-auth/internal/kv"
	"github.com/vinodhj/cf-jwt-auth/internal/obs"
	"github.com/vinodhj/cf-jwt-auth/internal/policy"
	"github.com/vinodhj/cf-jwt-auth/internal/session"
	"github.com/vinodhj/cf-jwt-auth/internal/store/pg"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.PGDSN == "" {
		log.Fatal("AUTH_PG_DSN is required")
	}

	store, err := pg.Open(cfg.PGDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close()

	codec, err := auth.NewCodec(cfg.JWTSecret, auth.WithIssuer(cfg.Issuer))
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}

	kvStore := store.KV()
	sessions, err := session.NewService(
		store.Users(),
		kv.NewVersionStore(kvStore),
		codec,
		session.WithTokenTTL(cfg.TokenTTL),
		session.WithRecorder(audit.NewRecorder(kvStore)),
	)
	if err != nil {
		log.Fatalf("session service: %v", err)
	}

	ready := httpapi.ReadyProbe{DB: store.DB()}
	api := httpapi.New(httpapi.Params{
		Sessions:           sessions,
		Policy:             policy.DefaultRuleset(),
		Assets:             kvStore,
		Ready:              ready,
		Version:            version,
		ProjectToken:       cfg.ProjectToken,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
		MaxBodyBytes:       cfg.MaxBodyBytes,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	grpcSrv := httpapi.NewGRPCServer(ready)
	go func() {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			log.Fatalf("grpc listen: %v", err)
		}
		if err := grpcSrv.Serve(lis); err != nil {
			log.Printf("grpc serve: %v", err)
		}
	}()
	go grpcSrv.WatchReadiness(ctx, 10*time.Second)

	log.Printf("Starting cf-jwt-auth %s on %s (grpc %s)", version, cfg.Addr, cfg.GRPCAddr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	grpcSrv.Stop()
	log.Println("Stopped")
}
