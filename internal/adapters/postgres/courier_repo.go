package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rohanmhatre/farmroute/internal/core/domain"
)

// CourierRepo implements ports.CourierRepository with pgx.
type CourierRepo struct {
	db *DB
}

// NewCourierRepo creates a new CourierRepo.
func NewCourierRepo(db *DB) *CourierRepo {
	return &CourierRepo{db: db}
}

// Upsert inserts or updates a courier profile.
func (r *CourierRepo) Upsert(ctx context.Context, c *domain.Courier) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO couriers (id, name, available, location, updated_at)
		VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326)::geography, now())
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, available = EXCLUDED.available,
		    location = EXCLUDED.location, updated_at = now()
	`, c.ID, c.Name, c.Available, c.Location.Lng, c.Location.Lat)
	return err
}

// GetByID returns a courier by id.
func (r *CourierRepo) GetByID(ctx context.Context, id string) (*domain.Courier, error) {
	var c domain.Courier
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, name, available,
		       ST_Y(location::geometry) as lat,
		       ST_X(location::geometry) as lng,
		       updated_at
		FROM couriers WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Available, &c.Location.Lat, &c.Location.Lng, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindNearestAvailable returns available couriers ordered by distance from
// the pickup point, using PostGIS ST_Distance on the geography column.
func (r *CourierRepo) FindNearestAvailable(ctx context.Context, lat, lng float64, limit int) ([]domain.Courier, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, available,
		       ST_Y(location::geometry) as lat,
		       ST_X(location::geometry) as lng,
		       updated_at
		FROM couriers
		WHERE available
		ORDER BY location <-> ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography
		LIMIT $3
	`, lng, lat, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var couriers []domain.Courier
	for rows.Next() {
		var c domain.Courier
		if err := rows.Scan(&c.ID, &c.Name, &c.Available, &c.Location.Lat, &c.Location.Lng, &c.UpdatedAt); err != nil {
			return nil, err
		}
		couriers = append(couriers, c)
	}
	return couriers, rows.Err()
}

// InsertPosition records one courier position reading.
func (r *CourierRepo) InsertPosition(ctx context.Context, cp *domain.CourierPosition) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO courier_positions (time, courier_id, delivery_id, location, heading, speed)
		VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326)::geography, $6, $7)
	`, cp.Time, cp.CourierID, nilIfEmpty(cp.DeliveryID),
		cp.Location.Lng, cp.Location.Lat, cp.Heading, cp.Speed)
	return err
}

// InsertPositionBatch records many position readings using pgx.Batch.
func (r *CourierRepo) InsertPositionBatch(ctx context.Context, cps []domain.CourierPosition) error {
	batch := &pgx.Batch{}
	for _, cp := range cps {
		batch.Queue(`
			INSERT INTO courier_positions (time, courier_id, delivery_id, location, heading, speed)
			VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326)::geography, $6, $7)
		`, cp.Time, cp.CourierID, nilIfEmpty(cp.DeliveryID),
			cp.Location.Lng, cp.Location.Lat, cp.Heading, cp.Speed)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range cps {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// LatestPositions returns the most recent reading per courier on a delivery.
func (r *CourierRepo) LatestPositions(ctx context.Context, deliveryID string) ([]domain.CourierPosition, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT DISTINCT ON (courier_id)
			time, courier_id, COALESCE(delivery_id, ''),
			ST_Y(location::geometry) as lat,
			ST_X(location::geometry) as lng,
			heading, speed
		FROM courier_positions
		WHERE delivery_id = $1
		ORDER BY courier_id, time DESC
	`, deliveryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []domain.CourierPosition
	for rows.Next() {
		var cp domain.CourierPosition
		if err := rows.Scan(
			&cp.Time, &cp.CourierID, &cp.DeliveryID,
			&cp.Location.Lat, &cp.Location.Lng,
			&cp.Heading, &cp.Speed,
		); err != nil {
			return nil, err
		}
		positions = append(positions, cp)
	}
	return positions, rows.Err()
}

// SetAvailability flips a courier's availability flag.
func (r *CourierRepo) SetAvailability(ctx context.Context, courierID string, available bool) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE couriers SET available = $2, updated_at = now() WHERE id = $1
	`, courierID, available)
	return err
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
