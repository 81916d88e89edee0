package postgres

import (
	"context"
	"database/sql"

	"github.com/rohanmhatre/farmroute/internal/core/domain"
)

// DeliveryRepo implements ports.DeliveryRepository.
type DeliveryRepo struct {
	db *DB
}

func NewDeliveryRepo(db *DB) *DeliveryRepo {
	return &DeliveryRepo{db: db}
}

func (r *DeliveryRepo) Create(ctx context.Context, d *domain.Delivery) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO deliveries (id, order_id, customer_id, farmer_id, dropoff, dropoff_address, status)
		VALUES ($1, $2, $3, $4, ST_SetSRID(ST_MakePoint($5, $6), 4326)::geography, $7, $8)
	`, d.ID, d.OrderID, d.CustomerID, d.FarmerID,
		d.Dropoff.Lng, d.Dropoff.Lat, nilIfEmpty(d.DropoffAddress), d.Status)
	return err
}

func (r *DeliveryRepo) GetByID(ctx context.Context, id string) (*domain.Delivery, error) {
	d := &domain.Delivery{}
	var courierID, dropoffAddr sql.NullString
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, order_id, customer_id, farmer_id,
		       ST_Y(dropoff::geometry) as lat,
		       ST_X(dropoff::geometry) as lng,
		       dropoff_address, courier_id, status, created_at
		FROM deliveries WHERE id = $1
	`, id).Scan(
		&d.ID, &d.OrderID, &d.CustomerID, &d.FarmerID,
		&d.Dropoff.Lat, &d.Dropoff.Lng,
		&dropoffAddr, &courierID, &d.Status, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.DropoffAddress = dropoffAddr.String
	d.CourierID = courierID.String
	return d, nil
}

func (r *DeliveryRepo) Assign(ctx context.Context, deliveryID, courierID string) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE deliveries SET courier_id = $2, status = $3 WHERE id = $1
	`, deliveryID, courierID, domain.DeliveryAssigned)
	return err
}

func (r *DeliveryRepo) Unassign(ctx context.Context, deliveryID string) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE deliveries SET courier_id = NULL, status = $2 WHERE id = $1
	`, deliveryID, domain.DeliveryRequested)
	return err
}

func (r *DeliveryRepo) UpdateStatus(ctx context.Context, deliveryID string, status domain.DeliveryStatus) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE deliveries SET status = $2 WHERE id = $1
	`, deliveryID, status)
	return err
}
