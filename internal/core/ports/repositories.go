package ports

import (
	"context"

	"github.com/rohanmhatre/farmroute/internal/core/domain"
)

// FarmerRepository persists the farmer directory.
type FarmerRepository interface {
	Upsert(ctx context.Context, farmer *domain.Farmer) error
	UpsertBatch(ctx context.Context, farmers []domain.Farmer) error
	GetByID(ctx context.Context, id string) (*domain.Farmer, error)
	List(ctx context.Context) ([]domain.Farmer, error)
}

// CourierRepository persists couriers and their real-time positions.
type CourierRepository interface {
	Upsert(ctx context.Context, courier *domain.Courier) error
	GetByID(ctx context.Context, id string) (*domain.Courier, error)
	FindNearestAvailable(ctx context.Context, lat, lng float64, limit int) ([]domain.Courier, error)
	InsertPosition(ctx context.Context, cp *domain.CourierPosition) error
	InsertPositionBatch(ctx context.Context, cps []domain.CourierPosition) error
	LatestPositions(ctx context.Context, deliveryID string) ([]domain.CourierPosition, error)
	SetAvailability(ctx context.Context, courierID string, available bool) error
}

// DeliveryRepository persists delivery runs.
type DeliveryRepository interface {
	Create(ctx context.Context, d *domain.Delivery) error
	GetByID(ctx context.Context, id string) (*domain.Delivery, error)
	Assign(ctx context.Context, deliveryID, courierID string) error
	Unassign(ctx context.Context, deliveryID string) error
	UpdateStatus(ctx context.Context, deliveryID string, status domain.DeliveryStatus) error
}

// SessionStore persists location sessions for their page-view lifetime.
// Saves are last-write-wins; concurrent updates are not coordinated.
type SessionStore interface {
	Get(ctx context.Context, id string) (*domain.LocationSession, error)
	Save(ctx context.Context, session *domain.LocationSession) error
	Delete(ctx context.Context, id string) error
}
