package models

import "time"

// LeaseStatus represents the lifecycle state of a rental agreement
type LeaseStatus string

const (
	LeaseStatusActive     LeaseStatus = "active"
	LeaseStatusTerminated LeaseStatus = "terminated"
)

// DefaultBillingDay is used when a lease is created without an explicit
// billing day
const DefaultBillingDay = 5

// Lease represents an active or terminated rental agreement.
// Leases are never deleted; terminated leases keep their transaction
// history and receipts intact.
type Lease struct {
	ID            int         `json:"id"`
	TenantName    string      `json:"tenant_name"`
	TenantEmail   string      `json:"tenant_email,omitempty"`
	TenantPhone   string      `json:"tenant_phone"`
	PropertyLabel string      `json:"property_label"`
	OwnerUserID   int         `json:"owner_user_id"`
	MonthlyAmount int64       `json:"monthly_amount"` // minor currency units
	BillingDay    int         `json:"billing_day"`    // 1-31
	Status        LeaseStatus `json:"status"`
	StartDate     time.Time   `json:"start_date"`
	EndDate       *time.Time  `json:"end_date,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

type CreateLeaseRequest struct {
	TenantName    string `json:"tenant_name"`
	TenantEmail   string `json:"tenant_email"`
	TenantPhone   string `json:"tenant_phone"`
	PropertyLabel string `json:"property_label"`
	MonthlyAmount int64  `json:"monthly_amount"`
	BillingDay    int    `json:"billing_day"`
	StartDate     string `json:"start_date"` // YYYY-MM-DD
}
