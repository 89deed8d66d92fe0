package repositories

import (
	"context"
	"errors"

	"rental-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MerchantAccountRepository struct {
	DB *pgxpool.Pool
}

func NewMerchantAccountRepository(db *pgxpool.Pool) *MerchantAccountRepository {
	return &MerchantAccountRepository{DB: db}
}

func (r *MerchantAccountRepository) Create(ctx context.Context, m *models.MerchantAccount) error {
	if m.Status == "" {
		m.Status = models.MerchantStatusPending
	}
	return r.DB.QueryRow(ctx,
		`INSERT INTO merchant_accounts(owner_user_id, provider_account_id, charges_enabled, payouts_enabled, status)
         VALUES($1, $2, $3, $4, $5)
         RETURNING id, updated_at`,
		m.OwnerUserID, m.ProviderAccountID, m.ChargesEnabled, m.PayoutsEnabled, m.Status,
	).Scan(&m.ID, &m.UpdatedAt)
}

func (r *MerchantAccountRepository) GetByProviderAccountID(ctx context.Context, providerAccountID string) (*models.MerchantAccount, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, owner_user_id, COALESCE(provider_account_id, ''), charges_enabled, payouts_enabled, status, updated_at
         FROM merchant_accounts WHERE provider_account_id=$1`, providerAccountID)
	return scanMerchantAccount(row)
}

func (r *MerchantAccountRepository) GetByOwner(ctx context.Context, ownerUserID int) (*models.MerchantAccount, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, owner_user_id, COALESCE(provider_account_id, ''), charges_enabled, payouts_enabled, status, updated_at
         FROM merchant_accounts WHERE owner_user_id=$1`, ownerUserID)
	return scanMerchantAccount(row)
}

func scanMerchantAccount(row pgx.Row) (*models.MerchantAccount, error) {
	m := &models.MerchantAccount{}
	err := row.Scan(&m.ID, &m.OwnerUserID, &m.ProviderAccountID, &m.ChargesEnabled, &m.PayoutsEnabled, &m.Status, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// MirrorCapabilities copies the capability flags from an account.updated
// event and recomputes the coarse status
func (r *MerchantAccountRepository) MirrorCapabilities(ctx context.Context, providerAccountID string, chargesEnabled, payoutsEnabled bool) error {
	status := models.DeriveMerchantStatus(chargesEnabled, payoutsEnabled)
	tag, err := r.DB.Exec(ctx,
		`UPDATE merchant_accounts
         SET charges_enabled=$1, payouts_enabled=$2, status=$3, updated_at=CURRENT_TIMESTAMP
         WHERE provider_account_id=$4`,
		chargesEnabled, payoutsEnabled, status, providerAccountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ClearLinkage removes the gateway linkage after account.deauthorized.
// The row survives so the owner can reconnect later.
func (r *MerchantAccountRepository) ClearLinkage(ctx context.Context, providerAccountID string) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE merchant_accounts
         SET provider_account_id=NULL, charges_enabled=false, payouts_enabled=false, status='pending', updated_at=CURRENT_TIMESTAMP
         WHERE provider_account_id=$1`,
		providerAccountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
