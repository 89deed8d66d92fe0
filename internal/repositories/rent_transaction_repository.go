package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rental-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RentTransactionRepository struct {
	DB *pgxpool.Pool
}

func NewRentTransactionRepository(db *pgxpool.Pool) *RentTransactionRepository {
	return &RentTransactionRepository{DB: db}
}

// LeaseIDsWithPeriod returns the set of lease ids that already have a row
// for the given period. The generator uses this for reporting only; the
// unique constraint is what actually prevents duplicates.
func (r *RentTransactionRepository) LeaseIDsWithPeriod(ctx context.Context, month, year int) (map[int]bool, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT lease_id FROM rent_transactions WHERE period_month=$1 AND period_year=$2`,
		month, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	existing := make(map[int]bool)
	for rows.Next() {
		var leaseID int
		if err := rows.Scan(&leaseID); err != nil {
			return nil, err
		}
		existing[leaseID] = true
	}
	return existing, nil
}

// InsertForPeriod inserts one billing row. Returns false without error if
// the (lease_id, period_month, period_year) row already exists - a
// concurrent run got there first and that is fine.
func (r *RentTransactionRepository) InsertForPeriod(ctx context.Context, t *models.RentTransaction) (bool, error) {
	tag, err := r.DB.Exec(ctx,
		`INSERT INTO rent_transactions(lease_id, period_month, period_year, period_start, period_end,
                                       amount_due, status, reminder_sent)
         VALUES($1, $2, $3, $4, $5, $6, 'pending', false)
         ON CONFLICT (lease_id, period_month, period_year) DO NOTHING`,
		t.LeaseID, t.PeriodMonth, t.PeriodYear, t.PeriodStart, t.PeriodEnd, t.AmountDue)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *RentTransactionRepository) Get(ctx context.Context, id int) (*models.RentTransaction, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, lease_id, period_month, period_year, period_start, period_end,
                amount_due, amount_paid, status, reminder_sent, paid_at, COALESCE(payment_ref, ''), created_at
         FROM rent_transactions WHERE id=$1`, id)

	t := &models.RentTransaction{}
	err := row.Scan(&t.ID, &t.LeaseID, &t.PeriodMonth, &t.PeriodYear, &t.PeriodStart, &t.PeriodEnd,
		&t.AmountDue, &t.AmountPaid, &t.Status, &t.ReminderSent, &t.PaidAt, &t.PaymentRef, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *RentTransactionRepository) List(ctx context.Context, filter models.RentTransactionFilter) ([]*models.RentTransaction, error) {
	query := `SELECT id, lease_id, period_month, period_year, period_start, period_end,
                     amount_due, amount_paid, status, reminder_sent, paid_at, COALESCE(payment_ref, ''), created_at
              FROM rent_transactions WHERE 1=1`
	args := []interface{}{}
	n := 0

	if filter.LeaseID != 0 {
		n++
		query += fmt.Sprintf(" AND lease_id = $%d", n)
		args = append(args, filter.LeaseID)
	}
	if filter.PeriodMonth != 0 {
		n++
		query += fmt.Sprintf(" AND period_month = $%d", n)
		args = append(args, filter.PeriodMonth)
	}
	if filter.PeriodYear != 0 {
		n++
		query += fmt.Sprintf(" AND period_year = $%d", n)
		args = append(args, filter.PeriodYear)
	}
	// "overdue" is derived, so the stored filter only narrows to pending;
	// the service layer applies the due-date cut afterwards
	switch filter.Status {
	case string(models.RentTxStatusPaid):
		query += " AND status = 'paid'"
	case string(models.RentTxStatusPending), "overdue":
		query += " AND status = 'pending'"
	}

	query += " ORDER BY period_year DESC, period_month DESC, lease_id"
	if filter.Limit > 0 {
		n++
		query += fmt.Sprintf(" LIMIT $%d", n)
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			n++
			query += fmt.Sprintf(" OFFSET $%d", n)
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []*models.RentTransaction
	for rows.Next() {
		t := &models.RentTransaction{}
		err := rows.Scan(&t.ID, &t.LeaseID, &t.PeriodMonth, &t.PeriodYear, &t.PeriodStart, &t.PeriodEnd,
			&t.AmountDue, &t.AmountPaid, &t.Status, &t.ReminderSent, &t.PaidAt, &t.PaymentRef, &t.CreatedAt)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, nil
}

// MarkPaid settles a transaction. Paid is terminal: the guard on status
// makes replays and out-of-order webhook deliveries no-ops. Returns false
// when the row was already paid.
func (r *RentTransactionRepository) MarkPaid(ctx context.Context, id int, amountPaid int64, paymentRef string, paidAt time.Time) (bool, error) {
	tag, err := r.DB.Exec(ctx,
		`UPDATE rent_transactions
         SET status='paid', amount_paid=$1, payment_ref=$2, paid_at=$3
         WHERE id=$4 AND status <> 'paid'`,
		amountPaid, paymentRef, paidAt, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// SetReminderSent flips the flag after the notifier confirmed handoff
func (r *RentTransactionRepository) SetReminderSent(ctx context.Context, id int) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE rent_transactions SET reminder_sent=true WHERE id=$1`, id)
	return err
}

// ClearReminderFlag re-arms the reminder for one transaction (admin action
// after a delivery failure)
func (r *RentTransactionRepository) ClearReminderFlag(ctx context.Context, id int) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE rent_transactions SET reminder_sent=false WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListReminderCandidates returns pending, unreminded transactions joined
// with the lease fields the sweep needs. Overdue is decided in Go against
// the injected clock, not here.
func (r *RentTransactionRepository) ListReminderCandidates(ctx context.Context) ([]*models.ReminderCandidate, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT t.id, t.lease_id, t.period_month, t.period_year, t.amount_due,
                l.billing_day, l.tenant_name, l.tenant_phone
         FROM rent_transactions t
         JOIN leases l ON t.lease_id = l.id
         WHERE t.status = 'pending' AND t.reminder_sent = false
         ORDER BY t.period_year, t.period_month, t.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []*models.ReminderCandidate
	for rows.Next() {
		c := &models.ReminderCandidate{}
		err := rows.Scan(&c.TransactionID, &c.LeaseID, &c.PeriodMonth, &c.PeriodYear, &c.AmountDue,
			&c.BillingDay, &c.TenantName, &c.TenantPhone)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// GetWithLease returns a transaction plus the lease fields a receipt needs
func (r *RentTransactionRepository) GetWithLease(ctx context.Context, id int) (*models.RentTransaction, *models.Lease, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT t.id, t.lease_id, t.period_month, t.period_year, t.period_start, t.period_end,
                t.amount_due, t.amount_paid, t.status, t.reminder_sent, t.paid_at, COALESCE(t.payment_ref, ''), t.created_at,
                l.id, l.tenant_name, COALESCE(l.tenant_email, ''), l.tenant_phone, l.property_label, l.owner_user_id,
                l.monthly_amount, l.billing_day, l.status, l.start_date, l.end_date, l.created_at
         FROM rent_transactions t
         JOIN leases l ON t.lease_id = l.id
         WHERE t.id=$1`, id)

	t := &models.RentTransaction{}
	l := &models.Lease{}
	err := row.Scan(&t.ID, &t.LeaseID, &t.PeriodMonth, &t.PeriodYear, &t.PeriodStart, &t.PeriodEnd,
		&t.AmountDue, &t.AmountPaid, &t.Status, &t.ReminderSent, &t.PaidAt, &t.PaymentRef, &t.CreatedAt,
		&l.ID, &l.TenantName, &l.TenantEmail, &l.TenantPhone, &l.PropertyLabel, &l.OwnerUserID,
		&l.MonthlyAmount, &l.BillingDay, &l.Status, &l.StartDate, &l.EndDate, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, models.ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return t, l, nil
}
