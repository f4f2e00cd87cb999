package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iliyamo/hello-db/internal/app"
	"github.com/iliyamo/hello-db/internal/config"
	"github.com/iliyamo/hello-db/internal/database"
	"github.com/iliyamo/hello-db/internal/queue"
	"github.com/iliyamo/hello-db/internal/service"
)

func main() {
	cfg := config.Load()
	qcfg := config.LoadQueueConfig()
	status := database.NewStatus()
	rdb := config.NewRedisClient() // nil when Redis is unreachable

	a := app.New(cfg, app.Deps{
		Status:    status,
		Redis:     rdb,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
		CORS:      config.LoadCORSConfig(),
	})
	if err := a.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if qcfg.ConsumerEnabled {
		go func() {
			if err := queue.StartConnectionConsumer(ctx, qcfg.URL, qcfg.LogDir); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("connection-consumer: stopped: %v", err)
			}
		}()
	}

	dbCh := make(chan *sql.DB, 1)
	go connectDB(ctx, cfg.DB, qcfg, status, dbCh)

	serveErr := make(chan error, 1)
	go func() { serveErr <- a.Serve() }()

	select {
	case <-ctx.Done():
		log.Printf("shutting down")
	case err := <-serveErr:
		if err != nil {
			log.Printf("server: %v", err)
		}
	}

	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		log.Printf("server: shutdown: %v", err)
	}
	// ctx is cancelled by now, so an attempt still pinging returns promptly.
	if err := database.ClosePending(shutdownCtx, dbCh); err != nil {
		log.Printf("database: close: %v", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}

// connectDB makes the one connection attempt and announces its outcome.  A
// failure leaves the status at not connected; the server keeps running.
func connectDB(ctx context.Context, dbCfg config.DBConfig, qcfg config.QueueConfig, status *database.Status, out chan<- *sql.DB) {
	db, err := database.NewConnector(dbCfg, status).Connect(ctx)
	out <- db
	if errors.Is(err, database.ErrDisabled) {
		log.Printf("database: connector disabled (set DB_ENABLED=true to connect)")
		return
	}
	if !qcfg.Enabled {
		return
	}
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_ = service.PublishConnectionEvent(pctx, qcfg.URL, queue.EventFromSnapshot(status.Snapshot()))
}
