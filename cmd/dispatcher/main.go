package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/rohanmhatre/farmroute/internal/adapters/googlemaps"
	natsadapter "github.com/rohanmhatre/farmroute/internal/adapters/nats"
	"github.com/rohanmhatre/farmroute/internal/adapters/postgres"
	"github.com/rohanmhatre/farmroute/internal/core/domain"
	"github.com/rohanmhatre/farmroute/internal/core/usecases"
	"github.com/rohanmhatre/farmroute/internal/pkg/config"
	"github.com/rohanmhatre/farmroute/internal/pkg/httpclient"
	"github.com/rohanmhatre/farmroute/internal/pkg/logging"
	"github.com/rohanmhatre/farmroute/internal/pkg/metrics"
	"github.com/rohanmhatre/farmroute/internal/workflows"
)

// The dispatcher bridges delivery request events to Temporal: every
// market.delivery.requested.* message starts a DeliveryDispatchWorkflow,
// and the embedded worker executes the assignment activities.
func main() {
	cfg, err := config.Load("farmroute-dispatcher")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup("farmroute-dispatcher", cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns))
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	courierRepo := postgres.NewCourierRepo(db)
	deliveryRepo := postgres.NewDeliveryRepo(db)

	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats publisher: %v", err)
	}
	defer publisher.Close()

	deliverySvc := usecases.NewDeliveryService(deliveryRepo, courierRepo, publisher, nil)
	geocoder := googlemaps.NewGeocoder(httpclient.NewOutbound(), cfg.Google.GeocodeURL, cfg.Google.APIKey)

	// Temporal
	tc, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer tc.Close()

	w := worker.New(tc, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.DeliveryDispatchWorkflow)
	w.RegisterActivity(&workflows.DispatchActivities{
		Deliveries: deliverySvc,
		Geocoder:   geocoder,
	})

	// Delivery request events start workflows on the same task queue.
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer sub.Close()

	err = sub.SubscribeDeliveryRequests(ctx, func(ctx context.Context, d *domain.Delivery) error {
		opts := client.StartWorkflowOptions{
			ID:        "dispatch-" + d.ID,
			TaskQueue: cfg.Temporal.TaskQueue,
		}
		input := workflows.DispatchInput{
			DeliveryID: d.ID,
			CustomerID: d.CustomerID,
			Dropoff:    d.Dropoff,
		}
		run, err := tc.ExecuteWorkflow(ctx, opts, workflows.DeliveryDispatchWorkflow, input)
		if err != nil {
			metrics.DeliveriesDispatched.WithLabelValues("error").Inc()
			return err
		}
		metrics.DeliveriesDispatched.WithLabelValues("started").Inc()
		slog.Info("dispatch workflow started", "delivery", d.ID, "run", run.GetRunID())
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe delivery requests: %v", err)
	}

	slog.Info("dispatcher worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
