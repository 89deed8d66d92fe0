package models

import "time"

// RentTransactionStatus is the stored settlement state of a billing record.
// "overdue" is never stored - it is derived at read time from the due date
// and payment status.
type RentTransactionStatus string

const (
	RentTxStatusPending RentTransactionStatus = "pending"
	RentTxStatusPaid    RentTransactionStatus = "paid"
)

// RentTransaction is one billing record per lease per calendar period.
// At most one row may exist for a given (lease_id, period_month,
// period_year) - the generator treats the pair as its idempotency key and
// the table carries a unique constraint as the second line of defense.
type RentTransaction struct {
	ID           int                   `json:"id"`
	LeaseID      int                   `json:"lease_id"`
	PeriodMonth  int                   `json:"period_month"` // 1-12
	PeriodYear   int                   `json:"period_year"`
	PeriodStart  time.Time             `json:"period_start"`
	PeriodEnd    time.Time             `json:"period_end"`
	AmountDue    int64                 `json:"amount_due"`
	AmountPaid   *int64                `json:"amount_paid,omitempty"`
	Status       RentTransactionStatus `json:"status"`
	ReminderSent bool                  `json:"reminder_sent"`
	PaidAt       *time.Time            `json:"paid_at,omitempty"`
	PaymentRef   string                `json:"payment_ref,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`

	// Derived, populated on read paths that know "now"
	Overdue bool       `json:"overdue"`
	DueDate *time.Time `json:"due_date,omitempty"`
}

// GenerationReport summarizes one generator run. Partial failure is
// surfaced here, never swallowed.
type GenerationReport struct {
	PeriodMonth  int `json:"period_month"`
	PeriodYear   int `json:"period_year"`
	ActiveLeases int `json:"active_leases"`
	Existing     int `json:"existing"`
	Created      int `json:"created"`
	Skipped      int `json:"skipped"` // lost the insert race; already covered
}

// MarkPaidRequest is the manual admin "mark paid" action
type MarkPaidRequest struct {
	AmountPaid int64  `json:"amount_paid"`
	PaymentRef string `json:"payment_ref"`
}

// ReminderCandidate is a pending, unreminded transaction joined with the
// lease fields the sweep needs to decide overdue and compose the message
type ReminderCandidate struct {
	TransactionID int
	LeaseID       int
	PeriodMonth   int
	PeriodYear    int
	AmountDue     int64
	BillingDay    int
	TenantName    string
	TenantPhone   string
}

type RentTransactionFilter struct {
	LeaseID     int
	PeriodMonth int
	PeriodYear  int
	Status      string // pending, paid, overdue (derived)
	Limit       int
	Offset      int
}
