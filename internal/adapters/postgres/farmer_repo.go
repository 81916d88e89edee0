package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rohanmhatre/farmroute/internal/core/domain"
)

// FarmerRepo implements ports.FarmerRepository with pgx.
type FarmerRepo struct {
	db *DB
}

// NewFarmerRepo creates a new FarmerRepo.
func NewFarmerRepo(db *DB) *FarmerRepo {
	return &FarmerRepo{db: db}
}

// Upsert inserts or updates a single farmer.
func (r *FarmerRepo) Upsert(ctx context.Context, f *domain.Farmer) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO farmers (id, name, info, location, active)
		VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326)::geography, $6)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, info = EXCLUDED.info,
		    location = EXCLUDED.location, active = EXCLUDED.active
	`, f.ID, f.Name, f.Info, f.Location.Lng, f.Location.Lat, f.Active)
	return err
}

// UpsertBatch inserts many farmers using pgx.Batch.
func (r *FarmerRepo) UpsertBatch(ctx context.Context, farmers []domain.Farmer) error {
	batch := &pgx.Batch{}
	for _, f := range farmers {
		batch.Queue(`
			INSERT INTO farmers (id, name, info, location, active)
			VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326)::geography, $6)
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name, info = EXCLUDED.info,
			    location = EXCLUDED.location, active = EXCLUDED.active
		`, f.ID, f.Name, f.Info, f.Location.Lng, f.Location.Lat, f.Active)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range farmers {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// GetByID returns a farmer by id.
func (r *FarmerRepo) GetByID(ctx context.Context, id string) (*domain.Farmer, error) {
	var f domain.Farmer
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, name, COALESCE(info, ''),
		       ST_Y(location::geometry) as lat,
		       ST_X(location::geometry) as lng,
		       active, created_at
		FROM farmers WHERE id = $1
	`, id).Scan(&f.ID, &f.Name, &f.Info, &f.Location.Lat, &f.Location.Lng, &f.Active, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// List returns every active farmer. The directory is small enough that the
// map always renders all of them, so there is no pagination here.
func (r *FarmerRepo) List(ctx context.Context) ([]domain.Farmer, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, COALESCE(info, ''),
		       ST_Y(location::geometry) as lat,
		       ST_X(location::geometry) as lng,
		       active, created_at
		FROM farmers
		WHERE active
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var farmers []domain.Farmer
	for rows.Next() {
		var f domain.Farmer
		if err := rows.Scan(&f.ID, &f.Name, &f.Info, &f.Location.Lat, &f.Location.Lng, &f.Active, &f.CreatedAt); err != nil {
			return nil, err
		}
		farmers = append(farmers, f)
	}
	return farmers, rows.Err()
}
