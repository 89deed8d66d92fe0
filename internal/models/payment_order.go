package models

import "time"

// PaymentOrderStatus tracks the gateway session lifecycle. "authorized" is
// the provisional state of a confirmed onsite charge - the webhook remains
// the source of truth for final settlement.
type PaymentOrderStatus string

const (
	OrderStatusCreated    PaymentOrderStatus = "created"
	OrderStatusAuthorized PaymentOrderStatus = "authorized"
	OrderStatusPaid       PaymentOrderStatus = "paid"
	OrderStatusFailed     PaymentOrderStatus = "failed"
)

// PaymentPurpose discriminates what a checkout session pays for. The same
// value is embedded in the gateway metadata as notes["type"] so the
// webhook can resolve the domain record to update.
type PaymentPurpose string

const (
	PurposeRentPayment    PaymentPurpose = "rent_payment"
	PurposeListingService PaymentPurpose = "listing_service"
	PurposeSubscription   PaymentPurpose = "subscription"
)

// PaymentOrder is the local correlation record for a gateway checkout
// session. The gateway order id is unique; webhooks resolve back to this
// row via the metadata attached at creation time.
type PaymentOrder struct {
	ID              int                `json:"id"`
	ProviderOrderID string             `json:"provider_order_id"`
	Purpose         PaymentPurpose     `json:"purpose"`
	LeaseID         *int               `json:"lease_id,omitempty"`
	TransactionID   *int               `json:"transaction_id,omitempty"`
	ServiceCode     string             `json:"service_code,omitempty"`
	PropertyID      *int               `json:"property_id,omitempty"`
	PayerPhone      string             `json:"payer_phone"`
	Amount          int64              `json:"amount"` // minor units
	Currency        string             `json:"currency"`
	Status          PaymentOrderStatus `json:"status"`
	Onsite          bool               `json:"onsite"`
	OTPCounter      int64              `json:"-"`
	OTPSecret       string             `json:"-"`
	ProviderPayID   string             `json:"provider_payment_id,omitempty"`
	FailureReason   string             `json:"failure_reason,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	CompletedAt     *time.Time         `json:"completed_at,omitempty"`
}

// CreateRentOrderRequest initiates a rent checkout for a lease. The
// transaction id is optional - ad hoc partial payments are allowed.
type CreateRentOrderRequest struct {
	LeaseID       int   `json:"lease_id"`
	TransactionID *int  `json:"transaction_id,omitempty"`
	Amount        int64 `json:"amount"`
	Onsite        bool  `json:"onsite,omitempty"`
}

// CreateServiceOrderRequest initiates a flat-fee listing-service checkout.
// The amount comes from the service catalog, never from the caller.
type CreateServiceOrderRequest struct {
	ServiceCode string `json:"service_code"`
	PropertyID  int    `json:"property_id"`
}

// CreateOrderResponse is returned to the frontend for gateway checkout
type CreateOrderResponse struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"key_id"`
	Purpose  string `json:"purpose"`
	Onsite   bool   `json:"onsite,omitempty"`
}

// ConfirmOnsiteRequest confirms an onsite payment with the OTP code that
// was sent to the payer's phone
type ConfirmOnsiteRequest struct {
	OrderID string `json:"order_id"`
	Code    string `json:"code"`
}
