package models

import (
	"fmt"
	"time"
)

// WebhookEvent is the idempotency log for gateway deliveries. The provider
// event id is unique - a duplicate insert means a redelivery and the
// handler short-circuits without reapplying effects.
type WebhookEvent struct {
	ID          int        `json:"id"`
	EventID     string     `json:"event_id"`
	EventType   string     `json:"event_type"`
	Payload     []byte     `json:"-"`
	ReceivedAt  time.Time  `json:"received_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// WebhookEnvelope is the provider event envelope. CreatedAt is the
// provider-side timestamp used to reject stale subscription events.
type WebhookEnvelope struct {
	Event     string                 `json:"event"`
	Payload   map[string]interface{} `json:"payload"`
	CreatedAt int64                  `json:"created_at"`
}

// PaymentNotes is the correlation metadata attached to a gateway session
// at initiation time, decoded as a tagged union keyed by "type". Losing or
// mistyping a field here breaks reconciliation silently, so decoding is
// strict: a missing discriminator or ids that don't parse produce
// ErrUnresolvableEvent, not a silent no-op.
type PaymentNotes struct {
	Type           PaymentPurpose `json:"type"`
	LeaseID        int            `json:"lease_id,omitempty"`
	TransactionID  int            `json:"transaction_id,omitempty"`
	ServiceCode    string         `json:"service_code,omitempty"`
	PropertyID     int            `json:"property_id,omitempty"`
	PayerPhone     string         `json:"payer_phone,omitempty"`
	OwnerUserID    int            `json:"owner_user_id,omitempty"`
	SubscriptionID int            `json:"subscription_id,omitempty"`
}

// DecodePaymentNotes validates the raw notes map from a webhook payload
func DecodePaymentNotes(raw map[string]interface{}) (*PaymentNotes, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: missing notes", ErrUnresolvableEvent)
	}

	typ, _ := raw["type"].(string)
	notes := &PaymentNotes{Type: PaymentPurpose(typ)}

	switch notes.Type {
	case PurposeRentPayment:
		notes.LeaseID = notesInt(raw, "lease_id")
		notes.TransactionID = notesInt(raw, "transaction_id")
		notes.PayerPhone, _ = raw["payer_phone"].(string)
		if notes.LeaseID == 0 {
			return nil, fmt.Errorf("%w: rent_payment notes missing lease_id", ErrUnresolvableEvent)
		}
	case PurposeListingService:
		notes.ServiceCode, _ = raw["service_code"].(string)
		notes.PropertyID = notesInt(raw, "property_id")
		if notes.ServiceCode == "" {
			return nil, fmt.Errorf("%w: listing_service notes missing service_code", ErrUnresolvableEvent)
		}
	case PurposeSubscription:
		notes.OwnerUserID = notesInt(raw, "owner_user_id")
		notes.SubscriptionID = notesInt(raw, "subscription_id")
		if notes.OwnerUserID == 0 && notes.SubscriptionID == 0 {
			return nil, fmt.Errorf("%w: subscription notes missing owner_user_id", ErrUnresolvableEvent)
		}
	default:
		return nil, fmt.Errorf("%w: unknown notes type %q", ErrUnresolvableEvent, typ)
	}

	return notes, nil
}

// notesInt tolerates the JSON number/string ambiguity of gateway notes
func notesInt(raw map[string]interface{}, key string) int {
	switch v := raw[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		var n int
		fmt.Sscanf(v, "%d", &n)
		return n
	}
	return 0
}
