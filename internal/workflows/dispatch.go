package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/rohanmhatre/farmroute/internal/core/domain"
)

// DispatchInput is the input for the delivery dispatch workflow.
type DispatchInput struct {
	DeliveryID string
	CustomerID string
	Dropoff    domain.GeoPoint
}

// DeliveryDispatchWorkflow orchestrates assigning a courier, resolving the
// drop-off address, and notifying the customer. If the notification fails,
// the courier assignment is rolled back (saga compensation).
func DeliveryDispatchWorkflow(ctx workflow.Context, input DispatchInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting delivery dispatch", "delivery", input.DeliveryID)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: Assign the nearest available courier
	var courier domain.Courier
	err := workflow.ExecuteActivity(ctx, "AssignNearestCourier", input.DeliveryID, input.Dropoff).Get(ctx, &courier)
	if err != nil {
		return err
	}

	// Step 2: Resolve a street address for the drop-off (best-effort)
	var dropoffAddr string
	_ = workflow.ExecuteActivity(ctx, "ResolveDropoffAddress", input.Dropoff).Get(ctx, &dropoffAddr)

	// Step 3: Mark en route
	err = workflow.ExecuteActivity(ctx, "MarkEnRoute", input.DeliveryID).Get(ctx, nil)
	if err != nil {
		logger.Warn("mark en route failed, compensating", "error", err)
		_ = workflow.ExecuteActivity(ctx, "UnassignCourier", input.DeliveryID, courier.ID).Get(ctx, nil)
		return err
	}

	// Step 4: Notify the customer
	err = workflow.ExecuteActivity(ctx, "NotifyCustomer", input.CustomerID, courier.Name).Get(ctx, nil)
	if err != nil {
		logger.Warn("customer notification failed, compensating", "error", err)
		// Compensate: free the courier and reset the delivery
		_ = workflow.ExecuteActivity(ctx, "UnassignCourier", input.DeliveryID, courier.ID).Get(ctx, nil)
		return err
	}

	logger.Info("Courier dispatched", "courier", courier.ID, "dropoff", dropoffAddr)
	return nil
}
