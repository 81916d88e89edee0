package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	natsadapter "github.com/rohanmhatre/farmroute/internal/adapters/nats"
	"github.com/rohanmhatre/farmroute/internal/adapters/postgres"
	"github.com/rohanmhatre/farmroute/internal/core/domain"
	"github.com/rohanmhatre/farmroute/internal/pkg/config"
	"github.com/rohanmhatre/farmroute/internal/pkg/logging"
	"github.com/rohanmhatre/farmroute/internal/pkg/metrics"
)

const (
	flushInterval = 2 * time.Second
	flushSize     = 200
)

// The tracker drains courier position reports from JetStream and writes
// them to the courier_positions hypertable in batches. Live map clients
// get their positions from the WebSocket relay, not from here, so a slow
// database never delays the map.
func main() {
	cfg, err := config.Load("farmroute-tracker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup("farmroute-tracker", cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns))
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	couriers := postgres.NewCourierRepo(db)

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer sub.Close()

	positions := make(chan domain.CourierPosition, 1024)

	err = sub.SubscribeCourierPositions(ctx, func(ctx context.Context, cp *domain.CourierPosition) error {
		select {
		case positions <- *cp:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	slog.Info("tracker started", "flush_interval", flushInterval, "flush_size", flushSize)

	go flushLoop(ctx, couriers, positions)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutting down tracker", "signal", sig.String())
	cancel()
	// let the final flush complete
	time.Sleep(flushInterval)
}

func flushLoop(ctx context.Context, couriers *postgres.CourierRepo, positions <-chan domain.CourierPosition) {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]domain.CourierPosition, 0, flushSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		// fresh context so the final flush survives shutdown cancellation
		fctx, fcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer fcancel()
		if err := couriers.InsertPositionBatch(fctx, batch); err != nil {
			slog.Error("insert position batch", "count", len(batch), "error", err)
		} else {
			metrics.CourierPositionsIngested.Add(float64(len(batch)))
			slog.Debug("flushed positions", "count", len(batch))
		}
		batch = batch[:0]
	}

	for {
		select {
		case cp := <-positions:
			batch = append(batch, cp)
			if len(batch) >= flushSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ctx.Done():
			// drain whatever is buffered before exit
			for {
				select {
				case cp := <-positions:
					batch = append(batch, cp)
				default:
					flush()
					return
				}
			}
		}
	}
}
