package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/carebridge/appointment-triage/internal/api"
	"github.com/carebridge/appointment-triage/internal/config"
	"github.com/carebridge/appointment-triage/internal/db"
	"github.com/carebridge/appointment-triage/internal/metrics"
	redisclient "github.com/carebridge/appointment-triage/internal/redis"
	"github.com/carebridge/appointment-triage/internal/retrain"
	"github.com/carebridge/appointment-triage/internal/scheduling"
	"github.com/carebridge/appointment-triage/internal/syncqueue"
	"github.com/carebridge/appointment-triage/internal/triage"
)

const version = "0.3.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running in env=%s http_port=%s", cfg.Env, cfg.HTTPPort)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword, cfg.RedisPoolSize, cfg.RedisTimeout)
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}()
	log.Println("connected to Redis")

	m := metrics.NewSchedulingMetrics(nil)

	repo := scheduling.NewPgRepository(pgPool)
	locker := redisclient.NewRedisStaffLocker(rdb, cfg.LockTTL)
	scorer := triage.NewHTTPScorer(cfg.ScorerBaseURL, cfg.ScorerTimeout)
	checker := scheduling.NewAvailabilityChecker(repo, cfg.AppointmentDuration)
	svc := scheduling.NewService(repo, locker, scorer, checker, m)

	reconciler := syncqueue.NewReconciler(svc, m)
	runner := retrain.NewRunner(cfg.RetrainCommand, cfg.RetrainTimeout)

	router := api.NewRouter(api.RouterConfig{
		Service:     svc,
		Reconciler:  reconciler,
		Retrain:     runner,
		Events:      svc,
		AlertWindow: cfg.AlertWindow,
		Thresholds:  triage.DefaultThresholds(),
		PgPool:      pgPool,
		Redis:       rdb,
		Env:         cfg.Env,
		Version:     version,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("listening on :%s", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-rootCtx.Done()

	log.Println("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
