package repositories

import (
	"context"
	"errors"

	"rental-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ListingServiceRepository struct {
	DB *pgxpool.Pool
}

func NewListingServiceRepository(db *pgxpool.Pool) *ListingServiceRepository {
	return &ListingServiceRepository{DB: db}
}

// GetActiveByCode resolves a catalog item. Inactive items are invisible
// to payment initiation.
func (r *ListingServiceRepository) GetActiveByCode(ctx context.Context, code string) (*models.ListingService, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, code, name, amount, active FROM listing_services WHERE code=$1 AND active=true`, code)

	s := &models.ListingService{}
	err := row.Scan(&s.ID, &s.Code, &s.Name, &s.Amount, &s.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *ListingServiceRepository) ListActive(ctx context.Context) ([]*models.ListingService, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, code, name, amount, active FROM listing_services WHERE active=true ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []*models.ListingService
	for rows.Next() {
		s := &models.ListingService{}
		if err := rows.Scan(&s.ID, &s.Code, &s.Name, &s.Amount, &s.Active); err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, nil
}

// Upsert creates or updates a catalog item by code (admin catalog editing)
func (r *ListingServiceRepository) Upsert(ctx context.Context, s *models.ListingService) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO listing_services(code, name, amount, active)
         VALUES($1, $2, $3, $4)
         ON CONFLICT (code) DO UPDATE SET name=EXCLUDED.name, amount=EXCLUDED.amount, active=EXCLUDED.active
         RETURNING id`,
		s.Code, s.Name, s.Amount, s.Active,
	).Scan(&s.ID)
}
