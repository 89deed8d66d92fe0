package repositories

import (
	"context"
	"errors"
	"time"

	"rental-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentOrderRepository struct {
	DB *pgxpool.Pool
}

func NewPaymentOrderRepository(db *pgxpool.Pool) *PaymentOrderRepository {
	return &PaymentOrderRepository{DB: db}
}

func (r *PaymentOrderRepository) Create(ctx context.Context, o *models.PaymentOrder) error {
	if o.Status == "" {
		o.Status = models.OrderStatusCreated
	}
	return r.DB.QueryRow(ctx,
		`INSERT INTO payment_orders(provider_order_id, purpose, lease_id, transaction_id, service_code,
                                    property_id, payer_phone, amount, currency, status, onsite, otp_counter, otp_secret)
         VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
         RETURNING id, created_at`,
		o.ProviderOrderID, o.Purpose, o.LeaseID, o.TransactionID, o.ServiceCode,
		o.PropertyID, o.PayerPhone, o.Amount, o.Currency, o.Status, o.Onsite, o.OTPCounter, o.OTPSecret,
	).Scan(&o.ID, &o.CreatedAt)
}

func (r *PaymentOrderRepository) GetByProviderOrderID(ctx context.Context, providerOrderID string) (*models.PaymentOrder, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, provider_order_id, purpose, lease_id, transaction_id, COALESCE(service_code, ''),
                property_id, COALESCE(payer_phone, ''), amount, currency, status, onsite,
                otp_counter, COALESCE(otp_secret, ''), COALESCE(provider_payment_id, ''),
                COALESCE(failure_reason, ''), created_at, completed_at
         FROM payment_orders WHERE provider_order_id=$1`, providerOrderID)

	return scanPaymentOrder(row)
}

func (r *PaymentOrderRepository) Get(ctx context.Context, id int) (*models.PaymentOrder, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, provider_order_id, purpose, lease_id, transaction_id, COALESCE(service_code, ''),
                property_id, COALESCE(payer_phone, ''), amount, currency, status, onsite,
                otp_counter, COALESCE(otp_secret, ''), COALESCE(provider_payment_id, ''),
                COALESCE(failure_reason, ''), created_at, completed_at
         FROM payment_orders WHERE id=$1`, id)

	return scanPaymentOrder(row)
}

func scanPaymentOrder(row pgx.Row) (*models.PaymentOrder, error) {
	o := &models.PaymentOrder{}
	err := row.Scan(&o.ID, &o.ProviderOrderID, &o.Purpose, &o.LeaseID, &o.TransactionID, &o.ServiceCode,
		&o.PropertyID, &o.PayerPhone, &o.Amount, &o.Currency, &o.Status, &o.Onsite,
		&o.OTPCounter, &o.OTPSecret, &o.ProviderPayID, &o.FailureReason, &o.CreatedAt, &o.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

// MarkPaid settles the order. Paid is terminal, so redelivered capture
// events fall through without effect.
func (r *PaymentOrderRepository) MarkPaid(ctx context.Context, providerOrderID, providerPayID string, at time.Time) (bool, error) {
	tag, err := r.DB.Exec(ctx,
		`UPDATE payment_orders
         SET status='paid', provider_payment_id=$1, completed_at=$2
         WHERE provider_order_id=$3 AND status <> 'paid'`,
		providerPayID, at, providerOrderID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkFailed records a failed charge. A paid order never regresses.
func (r *PaymentOrderRepository) MarkFailed(ctx context.Context, providerOrderID, reason string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE payment_orders SET status='failed', failure_reason=$1
         WHERE provider_order_id=$2 AND status NOT IN ('paid')`,
		reason, providerOrderID)
	return err
}

// MarkAuthorized records a confirmed onsite charge. Provisional: the
// webhook still delivers the final paid state.
func (r *PaymentOrderRepository) MarkAuthorized(ctx context.Context, providerOrderID string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE payment_orders SET status='authorized'
         WHERE provider_order_id=$1 AND status = 'created'`,
		providerOrderID)
	return err
}

// BumpOTPCounter advances the HOTP counter after each code issue
func (r *PaymentOrderRepository) BumpOTPCounter(ctx context.Context, id int) (int64, error) {
	var counter int64
	err := r.DB.QueryRow(ctx,
		`UPDATE payment_orders SET otp_counter = otp_counter + 1 WHERE id=$1 RETURNING otp_counter`,
		id).Scan(&counter)
	return counter, err
}
