package repositories

import (
	"context"
	"errors"
	"time"

	"rental-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SubscriptionRepository struct {
	DB *pgxpool.Pool
}

func NewSubscriptionRepository(db *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{DB: db}
}

func (r *SubscriptionRepository) Create(ctx context.Context, s *models.Subscription) error {
	if s.Status == "" {
		s.Status = models.SubStatusTrialing
	}
	return r.DB.QueryRow(ctx,
		`INSERT INTO subscriptions(owner_user_id, provider_subscription_id, status, trial_ends_at)
         VALUES($1, $2, $3, $4)
         RETURNING id, created_at, updated_at`,
		s.OwnerUserID, s.ProviderSubID, s.Status, s.TrialEndsAt,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

func (r *SubscriptionRepository) GetByOwner(ctx context.Context, ownerUserID int) (*models.Subscription, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, owner_user_id, COALESCE(provider_subscription_id, ''), status, trial_ends_at, last_event_at, created_at, updated_at
         FROM subscriptions WHERE owner_user_id=$1`, ownerUserID)
	return scanSubscription(row)
}

func (r *SubscriptionRepository) GetByProviderSubID(ctx context.Context, providerSubID string) (*models.Subscription, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, owner_user_id, COALESCE(provider_subscription_id, ''), status, trial_ends_at, last_event_at, created_at, updated_at
         FROM subscriptions WHERE provider_subscription_id=$1`, providerSubID)
	return scanSubscription(row)
}

func scanSubscription(row pgx.Row) (*models.Subscription, error) {
	s := &models.Subscription{}
	err := row.Scan(&s.ID, &s.OwnerUserID, &s.ProviderSubID, &s.Status, &s.TrialEndsAt, &s.LastEventAt, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ApplyStatusIfNewer updates the status only when the event timestamp is
// strictly newer than the last applied one. Deliveries reorder; a stale
// event must never clobber a newer state. Returns false when skipped.
func (r *SubscriptionRepository) ApplyStatusIfNewer(ctx context.Context, id int, status models.SubscriptionStatus, eventAt time.Time) (bool, error) {
	tag, err := r.DB.Exec(ctx,
		`UPDATE subscriptions
         SET status=$1, last_event_at=$2, updated_at=CURRENT_TIMESTAMP
         WHERE id=$3 AND (last_event_at IS NULL OR last_event_at < $2)`,
		status, eventAt, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Activate flips a subscription to active, ends the trial and links the
// provider subscription id in one step. Guarded by the same timestamp
// comparison as ApplyStatusIfNewer so a replayed capture cannot regress
// a newer state.
func (r *SubscriptionRepository) Activate(ctx context.Context, id int, providerSubID string, eventAt time.Time) (bool, error) {
	tag, err := r.DB.Exec(ctx,
		`UPDATE subscriptions
         SET status='active', trial_ends_at=NULL,
             provider_subscription_id=COALESCE(NULLIF($1, ''), provider_subscription_id),
             last_event_at=$2, updated_at=CURRENT_TIMESTAMP
         WHERE id=$3 AND (last_event_at IS NULL OR last_event_at < $2)`,
		providerSubID, eventAt, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// LinkProvider attaches the gateway subscription id once checkout completes
func (r *SubscriptionRepository) LinkProvider(ctx context.Context, id int, providerSubID string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE subscriptions SET provider_subscription_id=$1, updated_at=CURRENT_TIMESTAMP WHERE id=$2`,
		providerSubID, id)
	return err
}
