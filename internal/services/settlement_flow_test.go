package services

import (
	"context"
	"testing"
	"time"

	"rental-backend/internal/models"
)

// Shared-state fakes for the full billing cycle: generation, checkout
// initiation and webhook settlement all read and write the same records,
// the way the repositories share the database in production.

type flowLeases struct {
	leases []*models.Lease
}

func (f *flowLeases) ListActiveForPeriod(ctx context.Context, start, end time.Time) ([]*models.Lease, error) {
	return f.leases, nil
}

func (f *flowLeases) Get(ctx context.Context, id int) (*models.Lease, error) {
	for _, l := range f.leases {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, models.ErrNotFound
}

type flowTransactions struct {
	nextID int
	txns   map[int]*models.RentTransaction
}

func (f *flowTransactions) LeaseIDsWithPeriod(ctx context.Context, month, year int) (map[int]bool, error) {
	out := map[int]bool{}
	for _, t := range f.txns {
		if t.PeriodMonth == month && t.PeriodYear == year {
			out[t.LeaseID] = true
		}
	}
	return out, nil
}

func (f *flowTransactions) InsertForPeriod(ctx context.Context, t *models.RentTransaction) (bool, error) {
	for _, ex := range f.txns {
		if ex.LeaseID == t.LeaseID && ex.PeriodMonth == t.PeriodMonth && ex.PeriodYear == t.PeriodYear {
			return false, nil
		}
	}
	f.nextID++
	t.ID = f.nextID
	t.Status = models.RentTxStatusPending
	f.txns[t.ID] = t
	return true, nil
}

func (f *flowTransactions) Get(ctx context.Context, id int) (*models.RentTransaction, error) {
	t, ok := f.txns[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return t, nil
}

func (f *flowTransactions) MarkPaid(ctx context.Context, id int, amountPaid int64, paymentRef string, paidAt time.Time) (bool, error) {
	t, ok := f.txns[id]
	if !ok {
		return false, models.ErrNotFound
	}
	if t.Status == models.RentTxStatusPaid {
		return false, nil
	}
	t.Status = models.RentTxStatusPaid
	t.AmountPaid = &amountPaid
	t.PaymentRef = paymentRef
	at := paidAt
	t.PaidAt = &at
	return true, nil
}

type flowOrders struct {
	nextID int
	orders map[string]*models.PaymentOrder
}

func (f *flowOrders) Create(ctx context.Context, o *models.PaymentOrder) error {
	if f.orders == nil {
		f.orders = map[string]*models.PaymentOrder{}
	}
	f.nextID++
	o.ID = f.nextID
	o.Status = models.OrderStatusCreated
	f.orders[o.ProviderOrderID] = o
	return nil
}

func (f *flowOrders) GetByProviderOrderID(ctx context.Context, id string) (*models.PaymentOrder, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return o, nil
}

func (f *flowOrders) MarkAuthorized(ctx context.Context, id string) error {
	if o, ok := f.orders[id]; ok {
		o.Status = models.OrderStatusAuthorized
	}
	return nil
}

func (f *flowOrders) BumpOTPCounter(ctx context.Context, id int) (int64, error) {
	for _, o := range f.orders {
		if o.ID == id {
			o.OTPCounter++
			return o.OTPCounter, nil
		}
	}
	return 0, models.ErrNotFound
}

func (f *flowOrders) MarkPaid(ctx context.Context, id, payID string, at time.Time) (bool, error) {
	o, ok := f.orders[id]
	if !ok || o.Status == models.OrderStatusPaid {
		return false, nil
	}
	o.Status = models.OrderStatusPaid
	o.ProviderPayID = payID
	return true, nil
}

func (f *flowOrders) MarkFailed(ctx context.Context, id, reason string) error {
	if o, ok := f.orders[id]; ok && o.Status != models.OrderStatusPaid {
		o.Status = models.OrderStatusFailed
		o.FailureReason = reason
	}
	return nil
}

// The full billing cycle over one lease: the monthly run creates the
// transaction, checkout opens a gateway order against it, the capture
// webhook settles both, and the next monthly run creates nothing new.
func TestBillingCycleGenerateInitiateCaptureRegenerate(t *testing.T) {
	ctx := context.Background()

	leases := &flowLeases{leases: []*models.Lease{
		{ID: 1, TenantName: "Moussa Diop", TenantPhone: "770000001", Status: models.LeaseStatusActive,
			MonthlyAmount: 100000, BillingDay: models.DefaultBillingDay},
	}}
	txns := &flowTransactions{txns: map[int]*models.RentTransaction{}}
	orders := &flowOrders{}
	events := newFakeEventLog()
	feed := &fakeFeed{}
	gw := &fakeGateway{nextID: "order_flow_1"}

	billing := NewBillingService(leases, txns)
	payments := NewPaymentService(gw, leases, txns, orders, &fakeCatalog{}, &codeCapture{}, "rzp_test_key", "XOF")
	webhooks := NewWebhookService("whsec_test",
		events, orders, txns,
		&fakeSubStore{subs: map[string]*models.Subscription{}, byOwner: map[int]*models.Subscription{}},
		&fakeMerchants{}, feed)

	// Monthly generation
	report, err := billing.GenerateForPeriod(ctx, 1, 2026)
	if err != nil {
		t.Fatalf("GenerateForPeriod: %v", err)
	}
	if report.Created != 1 {
		t.Fatalf("created = %d, want 1", report.Created)
	}
	var txID int
	for id := range txns.txns {
		txID = id
	}

	// Tenant-initiated checkout against the generated transaction
	resp, err := payments.CreateRentOrder(ctx, &models.CreateRentOrderRequest{
		LeaseID: 1, TransactionID: &txID, Amount: 100000,
	})
	if err != nil {
		t.Fatalf("CreateRentOrder: %v", err)
	}

	// Gateway capture lands
	body := capturedBody(t, resp.OrderID, map[string]interface{}{
		"type": "rent_payment", "lease_id": 1, "transaction_id": txID,
	})
	outcome, err := webhooks.Process(ctx, "evt_flow_1", body)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if outcome != OutcomeProcessed {
		t.Fatalf("outcome = %s", outcome)
	}

	tx := txns.txns[txID]
	if tx.Status != models.RentTxStatusPaid {
		t.Fatalf("transaction status = %s, want paid", tx.Status)
	}
	if tx.AmountPaid == nil || *tx.AmountPaid != 100000 {
		t.Fatalf("amount paid = %v, want 100000", tx.AmountPaid)
	}
	if orders.orders[resp.OrderID].Status != models.OrderStatusPaid {
		t.Fatal("order not settled")
	}
	if len(feed.events) != 1 || feed.events[0].Kind != "rent_paid" {
		t.Errorf("feed events = %v", feed.events)
	}

	// Re-running the same period generates nothing new
	report, err = billing.GenerateForPeriod(ctx, 1, 2026)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if report.Created != 0 || report.Existing != 1 {
		t.Fatalf("regenerate report: %+v", report)
	}
	if len(txns.txns) != 1 {
		t.Fatalf("transaction count = %d, want 1", len(txns.txns))
	}
}
