package repositories

import (
	"context"
	"errors"
	"time"

	"rental-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LeaseRepository struct {
	DB *pgxpool.Pool
}

func NewLeaseRepository(db *pgxpool.Pool) *LeaseRepository {
	return &LeaseRepository{DB: db}
}

func (r *LeaseRepository) Create(ctx context.Context, l *models.Lease) error {
	if l.Status == "" {
		l.Status = models.LeaseStatusActive
	}
	if l.BillingDay == 0 {
		l.BillingDay = models.DefaultBillingDay
	}
	return r.DB.QueryRow(ctx,
		`INSERT INTO leases(tenant_name, tenant_email, tenant_phone, property_label, owner_user_id,
                            monthly_amount, billing_day, status, start_date, end_date)
         VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
         RETURNING id, created_at`,
		l.TenantName, l.TenantEmail, l.TenantPhone, l.PropertyLabel, l.OwnerUserID,
		l.MonthlyAmount, l.BillingDay, l.Status, l.StartDate, l.EndDate,
	).Scan(&l.ID, &l.CreatedAt)
}

func (r *LeaseRepository) Get(ctx context.Context, id int) (*models.Lease, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, tenant_name, COALESCE(tenant_email, ''), tenant_phone, property_label, owner_user_id,
                monthly_amount, billing_day, status, start_date, end_date, created_at
         FROM leases WHERE id=$1`, id)

	l := &models.Lease{}
	err := row.Scan(&l.ID, &l.TenantName, &l.TenantEmail, &l.TenantPhone, &l.PropertyLabel,
		&l.OwnerUserID, &l.MonthlyAmount, &l.BillingDay, &l.Status, &l.StartDate, &l.EndDate, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *LeaseRepository) List(ctx context.Context, status string) ([]*models.Lease, error) {
	query := `SELECT id, tenant_name, COALESCE(tenant_email, ''), tenant_phone, property_label, owner_user_id,
                     monthly_amount, billing_day, status, start_date, end_date, created_at
              FROM leases`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leases []*models.Lease
	for rows.Next() {
		l := &models.Lease{}
		err := rows.Scan(&l.ID, &l.TenantName, &l.TenantEmail, &l.TenantPhone, &l.PropertyLabel,
			&l.OwnerUserID, &l.MonthlyAmount, &l.BillingDay, &l.Status, &l.StartDate, &l.EndDate, &l.CreatedAt)
		if err != nil {
			return nil, err
		}
		leases = append(leases, l)
	}
	return leases, nil
}

// ListActiveForPeriod returns leases that should be billed for the given
// period: active status, started on or before the period end, and either
// open-ended or ending on/after the period start.
func (r *LeaseRepository) ListActiveForPeriod(ctx context.Context, periodStart, periodEnd time.Time) ([]*models.Lease, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, tenant_name, COALESCE(tenant_email, ''), tenant_phone, property_label, owner_user_id,
                monthly_amount, billing_day, status, start_date, end_date, created_at
         FROM leases
         WHERE status = 'active'
           AND start_date <= $2
           AND (end_date IS NULL OR end_date >= $1)
         ORDER BY id`,
		periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leases []*models.Lease
	for rows.Next() {
		l := &models.Lease{}
		err := rows.Scan(&l.ID, &l.TenantName, &l.TenantEmail, &l.TenantPhone, &l.PropertyLabel,
			&l.OwnerUserID, &l.MonthlyAmount, &l.BillingDay, &l.Status, &l.StartDate, &l.EndDate, &l.CreatedAt)
		if err != nil {
			return nil, err
		}
		leases = append(leases, l)
	}
	return leases, nil
}

// Terminate closes a lease. History (transactions, receipts) is kept.
func (r *LeaseRepository) Terminate(ctx context.Context, id int, endDate time.Time) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE leases SET status='terminated', end_date=$1 WHERE id=$2 AND status='active'`,
		endDate, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
