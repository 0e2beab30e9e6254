package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/carebridge/appointment-triage/internal/config"
	"github.com/carebridge/appointment-triage/internal/db"
	"github.com/carebridge/appointment-triage/internal/metrics"
	redisclient "github.com/carebridge/appointment-triage/internal/redis"
	"github.com/carebridge/appointment-triage/internal/scheduling"
	"github.com/carebridge/appointment-triage/internal/syncqueue"
	"github.com/carebridge/appointment-triage/internal/triage"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("sync-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running sync worker in env=%s interval=%s batch=%d", cfg.Env, cfg.SyncInterval, cfg.SyncBatchSize)

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

	queue := syncqueue.NewQueue(rdb)
	reconciler := syncqueue.NewReconciler(svc, m)

	// Run once at startup
	runOnce(rootCtx, queue, reconciler, cfg.SyncBatchSize)

	ticker := time.NewTicker(cfg.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Println("shutdown signal received, stopping sync worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, queue, reconciler, cfg.SyncBatchSize)
		}
	}
}

func runOnce(ctx context.Context, queue *syncqueue.Queue, reconciler *syncqueue.Reconciler, batchSize int) {
	runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	entries, err := queue.Pop(runCtx, batchSize)
	if err != nil {
		log.Printf("sync run error: %v", err)
		return
	}
	if len(entries) == 0 {
		return
	}

	start := time.Now()
	result := reconciler.Reconcile(runCtx, entries)

	// Retryable rejects go back to the queue with their original content.
	var requeue []syncqueue.Entry
	for _, rej := range result.Rejected {
		if rej.Retryable {
			requeue = append(requeue, rej.Entry)
		}
	}
	if len(requeue) > 0 {
		if err := queue.Push(runCtx, requeue...); err != nil {
			log.Printf("failed to requeue %d entries: %v", len(requeue), err)
		}
	}

	log.Printf("sync run complete in %s accepted=%d rejected=%d requeued=%d",
		time.Since(start), len(result.Accepted), len(result.Rejected), len(requeue))
}
