package workflows

import (
	"context"
	"fmt"

	"github.com/rohanmhatre/farmroute/internal/core/domain"
	"github.com/rohanmhatre/farmroute/internal/core/ports"
	"github.com/rohanmhatre/farmroute/internal/core/usecases"
)

// DispatchActivities holds the activity implementations for the delivery
// dispatch workflow.
type DispatchActivities struct {
	Deliveries *usecases.DeliveryService
	Geocoder   ports.Geocoder
}

// AssignNearestCourier assigns the closest available courier and returns it.
func (a *DispatchActivities) AssignNearestCourier(ctx context.Context, deliveryID string, dropoff domain.GeoPoint) (*domain.Courier, error) {
	courier, err := a.Deliveries.AssignNearestCourier(ctx, deliveryID, dropoff)
	if err != nil {
		return nil, fmt.Errorf("assign nearest courier: %w", err)
	}
	return courier, nil
}

// ResolveDropoffAddress reverse-geocodes the drop-off so the courier gets a
// street address instead of a raw coordinate. Best-effort: an empty string
// means no address was found.
func (a *DispatchActivities) ResolveDropoffAddress(ctx context.Context, dropoff domain.GeoPoint) (string, error) {
	if a.Geocoder == nil {
		return "", nil
	}
	addr, err := a.Geocoder.ReverseGeocode(ctx, dropoff)
	if err != nil {
		return "", nil
	}
	return addr, nil
}

// MarkEnRoute flips the delivery to en_route once the courier confirms.
func (a *DispatchActivities) MarkEnRoute(ctx context.Context, deliveryID string) error {
	return a.Deliveries.MarkEnRoute(ctx, deliveryID)
}

// NotifyCustomer tells the customer their order was picked up.
func (a *DispatchActivities) NotifyCustomer(ctx context.Context, customerID, courierName string) error {
	return a.Deliveries.NotifyCustomer(ctx, customerID, courierName)
}

// UnassignCourier rolls back an assignment (saga compensation) and frees
// the courier.
func (a *DispatchActivities) UnassignCourier(ctx context.Context, deliveryID, courierID string) error {
	return a.Deliveries.UnassignCourier(ctx, deliveryID, courierID)
}
