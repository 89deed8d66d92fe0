package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type WebhookEventRepository struct {
	DB *pgxpool.Pool
}

func NewWebhookEventRepository(db *pgxpool.Pool) *WebhookEventRepository {
	return &WebhookEventRepository{DB: db}
}

// InsertIfAbsent records a delivery by its provider event id. fresh is
// true when the id was never seen; for a replay, processed tells whether
// the earlier delivery finished (processed_at set). A replay of an
// unfinished delivery must be reprocessed, not short-circuited: the
// first attempt may have died between effects. The unique constraint is
// the authority; the Redis fast path in front of this is only an
// optimization.
func (r *WebhookEventRepository) InsertIfAbsent(ctx context.Context, eventID, eventType string, payload []byte) (fresh, processed bool, err error) {
	tag, err := r.DB.Exec(ctx,
		`INSERT INTO webhook_events(event_id, event_type, payload)
         VALUES($1, $2, $3)
         ON CONFLICT (event_id) DO NOTHING`,
		eventID, eventType, payload)
	if err != nil {
		return false, false, err
	}
	if tag.RowsAffected() == 1 {
		return true, false, nil
	}

	err = r.DB.QueryRow(ctx,
		`SELECT processed_at IS NOT NULL FROM webhook_events WHERE event_id=$1`,
		eventID).Scan(&processed)
	if err != nil {
		return false, false, err
	}
	return false, processed, nil
}

// MarkProcessed stamps the event after its effects were applied
func (r *WebhookEventRepository) MarkProcessed(ctx context.Context, eventID string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE webhook_events SET processed_at=CURRENT_TIMESTAMP WHERE event_id=$1`,
		eventID)
	return err
}
