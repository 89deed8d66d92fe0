package models

import "time"

// DefaultTrialDays is the free trial granted to a new owner account
// before the subscription has to be paid
const DefaultTrialDays = 14

// SubscriptionStatus follows the gateway's billing states
type SubscriptionStatus string

const (
	SubStatusTrialing SubscriptionStatus = "trialing"
	SubStatusActive   SubscriptionStatus = "active"
	SubStatusPastDue  SubscriptionStatus = "past_due"
	SubStatusCanceled SubscriptionStatus = "canceled"
)

// Subscription is an owner's SaaS billing subscription. LastEventAt is the
// provider timestamp of the last applied webhook event; deliveries are
// at-least-once and may reorder, so an event is applied only when its
// timestamp is strictly newer.
type Subscription struct {
	ID             int                `json:"id"`
	OwnerUserID    int                `json:"owner_user_id"`
	ProviderSubID  string             `json:"provider_subscription_id,omitempty"`
	Status         SubscriptionStatus `json:"status"`
	TrialEndsAt    *time.Time         `json:"trial_ends_at,omitempty"`
	LastEventAt    *time.Time         `json:"last_event_at,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}
