package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rental-backend/internal/models"
	"rental-backend/internal/services"
)

const testSecret = "whsec_test"

type memEventLog struct {
	seen      map[string]bool
	processed map[string]bool
}

func (m *memEventLog) InsertIfAbsent(ctx context.Context, eventID, eventType string, payload []byte) (bool, bool, error) {
	if m.seen == nil {
		m.seen = map[string]bool{}
	}
	if m.seen[eventID] {
		return false, m.processed[eventID], nil
	}
	m.seen[eventID] = true
	return true, false, nil
}

func (m *memEventLog) MarkProcessed(ctx context.Context, eventID string) error {
	if m.processed == nil {
		m.processed = map[string]bool{}
	}
	m.processed[eventID] = true
	return nil
}

type memOrders struct {
	orders map[string]*models.PaymentOrder
}

func (m *memOrders) GetByProviderOrderID(ctx context.Context, id string) (*models.PaymentOrder, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return o, nil
}

func (m *memOrders) MarkPaid(ctx context.Context, id, payID string, at time.Time) (bool, error) {
	o, ok := m.orders[id]
	if !ok || o.Status == models.OrderStatusPaid {
		return false, nil
	}
	o.Status = models.OrderStatusPaid
	return true, nil
}

func (m *memOrders) MarkFailed(ctx context.Context, id, reason string) error { return nil }

type memTx struct {
	paid map[int]int64
}

func (m *memTx) MarkPaid(ctx context.Context, id int, amount int64, ref string, at time.Time) (bool, error) {
	if m.paid == nil {
		m.paid = map[int]int64{}
	}
	m.paid[id] = amount
	return true, nil
}

type noopSubs struct{}

func (noopSubs) GetByProviderSubID(ctx context.Context, id string) (*models.Subscription, error) {
	return nil, models.ErrNotFound
}
func (noopSubs) GetByOwner(ctx context.Context, ownerID int) (*models.Subscription, error) {
	return nil, models.ErrNotFound
}
func (noopSubs) ApplyStatusIfNewer(ctx context.Context, id int, status models.SubscriptionStatus, at time.Time) (bool, error) {
	return false, nil
}
func (noopSubs) Activate(ctx context.Context, id int, providerSubID string, at time.Time) (bool, error) {
	return false, nil
}
func (noopSubs) LinkProvider(ctx context.Context, id int, providerSubID string) error { return nil }

type noopMerchants struct{}

func (noopMerchants) MirrorCapabilities(ctx context.Context, id string, c, p bool) error { return nil }
func (noopMerchants) ClearLinkage(ctx context.Context, id string) error                  { return nil }

func newTestWebhookHandler() (*WebhookHandler, *memOrders, *memTx) {
	leaseID, txID := 7, 21
	orders := &memOrders{orders: map[string]*models.PaymentOrder{
		"order_abc": {ID: 1, ProviderOrderID: "order_abc", Purpose: models.PurposeRentPayment,
			LeaseID: &leaseID, TransactionID: &txID, Amount: 85000, Status: models.OrderStatusCreated},
	}}
	txns := &memTx{}
	svc := services.NewWebhookService(testSecret, &memEventLog{}, orders, txns, noopSubs{}, noopMerchants{}, nil)
	return NewWebhookHandler(svc), orders, txns
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func deliver(t *testing.T, h *WebhookHandler, eventID string, body []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/payments", bytes.NewReader(body))
	req.Header.Set("X-Razorpay-Event-Id", eventID)
	req.Header.Set("X-Razorpay-Signature", signature)
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func capturePayload(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"event":      "payment.captured",
		"created_at": time.Now().Unix(),
		"payload": map[string]interface{}{
			"payment": map[string]interface{}{
				"entity": map[string]interface{}{
					"id":       "pay_123",
					"order_id": "order_abc",
					"notes": map[string]interface{}{
						"type": "rent_payment", "lease_id": 7, "transaction_id": 21,
					},
				},
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	h, orders, _ := newTestWebhookHandler()
	body := capturePayload(t)

	rec := deliver(t, h, "evt_1", body, "deadbeef")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if orders.orders["order_abc"].Status == models.OrderStatusPaid {
		t.Fatal("unsigned delivery must have no effect")
	}
}

func TestWebhookSettlesOnValidDelivery(t *testing.T) {
	h, orders, txns := newTestWebhookHandler()
	body := capturePayload(t)

	rec := deliver(t, h, "evt_1", body, sign(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if orders.orders["order_abc"].Status != models.OrderStatusPaid {
		t.Fatal("order not settled")
	}
	if txns.paid[21] != 85000 {
		t.Fatalf("transaction settlement = %v", txns.paid)
	}
}

func TestWebhookRedeliveryIsAckedWithoutEffect(t *testing.T) {
	h, _, txns := newTestWebhookHandler()
	body := capturePayload(t)

	deliver(t, h, "evt_1", body, sign(body))
	rec := deliver(t, h, "evt_1", body, sign(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("redelivery status = %d, want 200", rec.Code)
	}
	if len(txns.paid) != 1 {
		t.Fatal("redelivery re-applied effects")
	}
}

func TestWebhookAcksUnresolvableMetadata(t *testing.T) {
	h, _, _ := newTestWebhookHandler()
	body, _ := json.Marshal(map[string]interface{}{
		"event": "payment.captured",
		"payload": map[string]interface{}{
			"payment": map[string]interface{}{
				"entity": map[string]interface{}{
					"id": "pay_999", "order_id": "order_abc",
					// notes missing entirely
				},
			},
		},
	})

	rec := deliver(t, h, "evt_gap", body, sign(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 ack for unresolvable event", rec.Code)
	}
}

func TestWebhookAcksUnknownEventTypes(t *testing.T) {
	h, _, _ := newTestWebhookHandler()
	body, _ := json.Marshal(map[string]interface{}{
		"event":   "invoice.expired",
		"payload": map[string]interface{}{},
	})

	rec := deliver(t, h, "evt_new", body, sign(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
