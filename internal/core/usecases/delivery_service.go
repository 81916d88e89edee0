package usecases

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rohanmhatre/farmroute/internal/core/domain"
	"github.com/rohanmhatre/farmroute/internal/core/ports"
)

var ErrNoCouriers = errors.New("no couriers available nearby")

// DeliveryService handles delivery-run business logic. Assignment itself is
// driven by the dispatcher workflow; this service owns the persistence and
// event side.
type DeliveryService struct {
	deliveries ports.DeliveryRepository
	couriers   ports.CourierRepository
	publisher  ports.EventPublisher
	notifier   ports.NotificationService
}

// NewDeliveryService creates a new DeliveryService.
func NewDeliveryService(
	deliveries ports.DeliveryRepository,
	couriers ports.CourierRepository,
	publisher ports.EventPublisher,
	notifier ports.NotificationService,
) *DeliveryService {
	return &DeliveryService{
		deliveries: deliveries,
		couriers:   couriers,
		publisher:  publisher,
		notifier:   notifier,
	}
}

// RequestDelivery creates a delivery run and publishes the request event
// that the dispatcher turns into an assignment workflow.
func (s *DeliveryService) RequestDelivery(ctx context.Context, orderID, customerID, farmerID string, dropoff domain.GeoPoint) (*domain.Delivery, error) {
	if orderID == "" || customerID == "" || farmerID == "" {
		return nil, fmt.Errorf("order, customer and farmer IDs are required")
	}

	id, err := generateDeliveryID()
	if err != nil {
		return nil, fmt.Errorf("generate delivery id: %w", err)
	}

	d := &domain.Delivery{
		ID:         id,
		OrderID:    orderID,
		CustomerID: customerID,
		FarmerID:   farmerID,
		Dropoff:    dropoff,
		Status:     domain.DeliveryRequested,
		CreatedAt:  time.Now(),
	}

	if err := s.deliveries.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("create delivery: %w", err)
	}

	if s.publisher != nil {
		_ = s.publisher.PublishDeliveryRequested(ctx, d)
	}

	return d, nil
}

// GetByID returns a delivery run.
func (s *DeliveryService) GetByID(ctx context.Context, id string) (*domain.Delivery, error) {
	return s.deliveries.GetByID(ctx, id)
}

// AssignNearestCourier finds the nearest available courier to the drop-off
// and assigns it to the delivery, marking the courier busy.
func (s *DeliveryService) AssignNearestCourier(ctx context.Context, deliveryID string, dropoff domain.GeoPoint) (*domain.Courier, error) {
	couriers, err := s.couriers.FindNearestAvailable(ctx, dropoff.Lat, dropoff.Lng, 1)
	if err != nil {
		return nil, fmt.Errorf("find couriers: %w", err)
	}
	if len(couriers) == 0 {
		return nil, ErrNoCouriers
	}

	courier := couriers[0]
	if err := s.deliveries.Assign(ctx, deliveryID, courier.ID); err != nil {
		return nil, fmt.Errorf("assign courier: %w", err)
	}
	if err := s.couriers.SetAvailability(ctx, courier.ID, false); err != nil {
		return nil, fmt.Errorf("mark courier busy: %w", err)
	}

	return &courier, nil
}

// UnassignCourier rolls back an assignment (saga compensation) and frees
// the courier again.
func (s *DeliveryService) UnassignCourier(ctx context.Context, deliveryID, courierID string) error {
	if err := s.deliveries.Unassign(ctx, deliveryID); err != nil {
		return fmt.Errorf("unassign delivery %s: %w", deliveryID, err)
	}
	if courierID != "" {
		_ = s.couriers.SetAvailability(ctx, courierID, true)
	}
	return nil
}

// MarkEnRoute flips a delivery to en_route once the courier picks up.
func (s *DeliveryService) MarkEnRoute(ctx context.Context, deliveryID string) error {
	return s.deliveries.UpdateStatus(ctx, deliveryID, domain.DeliveryEnRoute)
}

// Complete marks a delivery finished and frees its courier.
func (s *DeliveryService) Complete(ctx context.Context, deliveryID string) error {
	d, err := s.deliveries.GetByID(ctx, deliveryID)
	if err != nil {
		return fmt.Errorf("get delivery: %w", err)
	}

	if err := s.deliveries.UpdateStatus(ctx, deliveryID, domain.DeliveryCompleted); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if d.CourierID != "" {
		_ = s.couriers.SetAvailability(ctx, d.CourierID, true)
	}
	return nil
}

// NotifyCustomer sends a push about the assignment (best-effort when no
// notifier is configured).
func (s *DeliveryService) NotifyCustomer(ctx context.Context, customerID, courierName string) error {
	if s.notifier == nil {
		return nil
	}
	title := "Your order is on the way!"
	body := fmt.Sprintf("%s picked up your order. Watch the live map for updates.", courierName)
	return s.notifier.SendPush(ctx, customerID, title, body)
}

func generateDeliveryID() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "dl-" + hex.EncodeToString(b), nil
}
