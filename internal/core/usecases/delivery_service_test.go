package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rohanmhatre/farmroute/internal/core/domain"
	"github.com/rohanmhatre/farmroute/internal/core/usecases"
)

type mockCourierRepo struct {
	findNearestFn func(ctx context.Context, lat, lng float64, limit int) ([]domain.Courier, error)
	assigned      map[string]bool
}

func (m *mockCourierRepo) Upsert(ctx context.Context, c *domain.Courier) error { return nil }
func (m *mockCourierRepo) GetByID(ctx context.Context, id string) (*domain.Courier, error) {
	return nil, nil
}
func (m *mockCourierRepo) FindNearestAvailable(ctx context.Context, lat, lng float64, limit int) ([]domain.Courier, error) {
	if m.findNearestFn != nil {
		return m.findNearestFn(ctx, lat, lng, limit)
	}
	return nil, nil
}
func (m *mockCourierRepo) InsertPosition(ctx context.Context, cp *domain.CourierPosition) error {
	return nil
}
func (m *mockCourierRepo) InsertPositionBatch(ctx context.Context, cps []domain.CourierPosition) error {
	return nil
}
func (m *mockCourierRepo) LatestPositions(ctx context.Context, deliveryID string) ([]domain.CourierPosition, error) {
	return nil, nil
}
func (m *mockCourierRepo) SetAvailability(ctx context.Context, courierID string, available bool) error {
	if m.assigned == nil {
		m.assigned = make(map[string]bool)
	}
	m.assigned[courierID] = available
	return nil
}

type mockDeliveryRepo struct {
	created    *domain.Delivery
	assignedTo string
	unassigned bool
}

func (m *mockDeliveryRepo) Create(ctx context.Context, d *domain.Delivery) error {
	m.created = d
	return nil
}
func (m *mockDeliveryRepo) GetByID(ctx context.Context, id string) (*domain.Delivery, error) {
	if m.created != nil && m.created.ID == id {
		return m.created, nil
	}
	return nil, errors.New("not found")
}
func (m *mockDeliveryRepo) Assign(ctx context.Context, deliveryID, courierID string) error {
	m.assignedTo = courierID
	return nil
}
func (m *mockDeliveryRepo) Unassign(ctx context.Context, deliveryID string) error {
	m.unassigned = true
	return nil
}
func (m *mockDeliveryRepo) UpdateStatus(ctx context.Context, deliveryID string, status domain.DeliveryStatus) error {
	if m.created != nil {
		m.created.Status = status
	}
	return nil
}

func TestRequestDelivery_CreatesRequested(t *testing.T) {
	repo := &mockDeliveryRepo{}
	svc := usecases.NewDeliveryService(repo, &mockCourierRepo{}, nil, nil)

	d, err := svc.RequestDelivery(context.Background(), "ord-1", "cust-1", "f1", domain.GeoPoint{Lat: 37.7, Lng: -122.4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Status != domain.DeliveryRequested {
		t.Errorf("expected requested status, got %s", d.Status)
	}
	if repo.created == nil || repo.created.OrderID != "ord-1" {
		t.Error("delivery not persisted")
	}
}

func TestRequestDelivery_RequiresIDs(t *testing.T) {
	svc := usecases.NewDeliveryService(&mockDeliveryRepo{}, &mockCourierRepo{}, nil, nil)
	if _, err := svc.RequestDelivery(context.Background(), "", "cust-1", "f1", domain.GeoPoint{}); err == nil {
		t.Error("expected validation error for missing order id")
	}
}

func TestAssignNearestCourier(t *testing.T) {
	couriers := &mockCourierRepo{
		findNearestFn: func(ctx context.Context, lat, lng float64, limit int) ([]domain.Courier, error) {
			return []domain.Courier{{ID: "c7", Name: "Ravi", Available: true}}, nil
		},
	}
	deliveries := &mockDeliveryRepo{}
	svc := usecases.NewDeliveryService(deliveries, couriers, nil, nil)

	courier, err := svc.AssignNearestCourier(context.Background(), "dl-1", domain.GeoPoint{Lat: 37.7, Lng: -122.4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if courier.ID != "c7" {
		t.Errorf("expected courier c7, got %s", courier.ID)
	}
	if deliveries.assignedTo != "c7" {
		t.Error("delivery not assigned")
	}
	if couriers.assigned["c7"] {
		t.Error("courier should be marked busy")
	}
}

func TestAssignNearestCourier_NoneAvailable(t *testing.T) {
	svc := usecases.NewDeliveryService(&mockDeliveryRepo{}, &mockCourierRepo{}, nil, nil)
	_, err := svc.AssignNearestCourier(context.Background(), "dl-1", domain.GeoPoint{})
	if !errors.Is(err, usecases.ErrNoCouriers) {
		t.Fatalf("expected ErrNoCouriers, got %v", err)
	}
}

func TestUnassignCourier_FreesCourier(t *testing.T) {
	couriers := &mockCourierRepo{}
	deliveries := &mockDeliveryRepo{}
	svc := usecases.NewDeliveryService(deliveries, couriers, nil, nil)

	if err := svc.UnassignCourier(context.Background(), "dl-1", "c7"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deliveries.unassigned {
		t.Error("delivery not unassigned")
	}
	if !couriers.assigned["c7"] {
		t.Error("courier should be available again")
	}
}
