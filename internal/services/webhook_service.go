package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"rental-backend/internal/cache"
	"rental-backend/internal/metrics"
	"rental-backend/internal/models"
	"rental-backend/internal/timeutil"
	"rental-backend/internal/ws"
)

// Outcome classifies a processed delivery. Everything except a signature
// failure is acknowledged with 200: the gateway retries on non-2xx and
// retrying cannot fix a malformed event.
type Outcome string

const (
	OutcomeProcessed    Outcome = "processed"
	OutcomeDuplicate    Outcome = "duplicate"
	OutcomeUnknown      Outcome = "unknown"
	OutcomeUnresolvable Outcome = "unresolvable"
)

// EventLog is the slice of the webhook event repository the pipeline needs
type EventLog interface {
	InsertIfAbsent(ctx context.Context, eventID, eventType string, payload []byte) (fresh, processed bool, err error)
	MarkProcessed(ctx context.Context, eventID string) error
}

// SettlementOrderStore mutates payment orders from webhook effects
type SettlementOrderStore interface {
	GetByProviderOrderID(ctx context.Context, providerOrderID string) (*models.PaymentOrder, error)
	MarkPaid(ctx context.Context, providerOrderID, providerPayID string, at time.Time) (bool, error)
	MarkFailed(ctx context.Context, providerOrderID, reason string) error
}

// SettlementTxStore settles rent transactions from webhook effects
type SettlementTxStore interface {
	MarkPaid(ctx context.Context, id int, amountPaid int64, paymentRef string, paidAt time.Time) (bool, error)
}

// SubscriptionStore applies subscription lifecycle events
type SubscriptionStore interface {
	GetByProviderSubID(ctx context.Context, providerSubID string) (*models.Subscription, error)
	GetByOwner(ctx context.Context, ownerUserID int) (*models.Subscription, error)
	ApplyStatusIfNewer(ctx context.Context, id int, status models.SubscriptionStatus, eventAt time.Time) (bool, error)
	Activate(ctx context.Context, id int, providerSubID string, eventAt time.Time) (bool, error)
	LinkProvider(ctx context.Context, id int, providerSubID string) error
}

// MerchantStore mirrors connected-account events
type MerchantStore interface {
	MirrorCapabilities(ctx context.Context, providerAccountID string, chargesEnabled, payoutsEnabled bool) error
	ClearLinkage(ctx context.Context, providerAccountID string) error
}

// FeedPublisher pushes settlement events to connected dashboards
type FeedPublisher interface {
	Publish(ev ws.SettlementEvent)
}

// ReceiptArchiver renders and archives the receipt for a settled
// transaction
type ReceiptArchiver interface {
	Generate(ctx context.Context, transactionID int) ([]byte, error)
}

// WebhookService runs the reconciliation pipeline: signature, dedup,
// decode, apply. Every state transition it makes is monotonic, so
// replays and reordered deliveries converge on the same final state.
type WebhookService struct {
	secret       string
	eventRepo    EventLog
	orderRepo    SettlementOrderStore
	txRepo       SettlementTxStore
	subRepo      SubscriptionStore
	merchantRepo MerchantStore
	feed         FeedPublisher
	receipts     ReceiptArchiver
}

func NewWebhookService(
	secret string,
	eventRepo EventLog,
	orderRepo SettlementOrderStore,
	txRepo SettlementTxStore,
	subRepo SubscriptionStore,
	merchantRepo MerchantStore,
	feed FeedPublisher,
) *WebhookService {
	return &WebhookService{
		secret:       secret,
		eventRepo:    eventRepo,
		orderRepo:    orderRepo,
		txRepo:       txRepo,
		subRepo:      subRepo,
		merchantRepo: merchantRepo,
		feed:         feed,
	}
}

// AttachReceipts enables receipt generation after rent settlements.
// Optional: without it settlements still apply, receipts stay on-demand.
func (s *WebhookService) AttachReceipts(r ReceiptArchiver) {
	s.receipts = r
}

// VerifySignature checks the HMAC-SHA256 of the raw body. Fails closed
// when no secret is configured. Nothing else runs before this.
func (s *WebhookService) VerifySignature(body []byte, signature string) bool {
	if s.secret == "" {
		log.Printf("[Webhook] No webhook secret configured, rejecting delivery")
		return false
	}
	h := hmac.New(sha256.New, []byte(s.secret))
	h.Write(body)
	expected := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Process applies one verified delivery. A duplicate short-circuits only
// when the earlier delivery finished; an id whose first attempt died
// mid-processing is reprocessed, which is safe because every transition
// is monotonic. Redis answers first when available, the unique
// constraint on webhook_events is the authority.
func (s *WebhookService) Process(ctx context.Context, eventID string, body []byte) (Outcome, error) {
	var env models.WebhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		metrics.WebhookEventsTotal.WithLabelValues(string(OutcomeUnresolvable)).Inc()
		return OutcomeUnresolvable, fmt.Errorf("%w: malformed envelope: %v", models.ErrUnresolvableEvent, err)
	}
	if eventID == "" {
		metrics.WebhookEventsTotal.WithLabelValues(string(OutcomeUnresolvable)).Inc()
		return OutcomeUnresolvable, fmt.Errorf("%w: missing event id", models.ErrUnresolvableEvent)
	}

	if cache.SeenWebhookEvent(ctx, eventID) {
		metrics.WebhookEventsTotal.WithLabelValues(string(OutcomeDuplicate)).Inc()
		return OutcomeDuplicate, nil
	}

	fresh, processed, err := s.eventRepo.InsertIfAbsent(ctx, eventID, env.Event, body)
	if err != nil {
		return OutcomeProcessed, fmt.Errorf("failed to record event: %w", err)
	}
	if !fresh && processed {
		metrics.WebhookEventsTotal.WithLabelValues(string(OutcomeDuplicate)).Inc()
		return OutcomeDuplicate, nil
	}
	if !fresh {
		log.Printf("[Webhook] Resuming unfinished event %s", eventID)
	}

	outcome, err := s.dispatch(ctx, &env)
	if err != nil && outcome != OutcomeUnresolvable {
		// Transient failure: leave the event unstamped so the
		// gateway's redelivery runs the effects again.
		return outcome, err
	}
	if err != nil {
		// Unresolvable events are acknowledged and logged as gaps;
		// retrying cannot fix bad metadata.
		log.Printf("[Webhook] Reconciliation gap for event %s (%s): %v", eventID, env.Event, err)
		outcome = OutcomeUnresolvable
	}

	// Stamped only now, after the effects applied. A crash before this
	// point leaves the event eligible for reprocessing on redelivery.
	if err := s.eventRepo.MarkProcessed(ctx, eventID); err != nil {
		log.Printf("[Webhook] Failed to stamp event %s: %v", eventID, err)
	}
	cache.RememberWebhookEvent(ctx, eventID)
	metrics.WebhookEventsTotal.WithLabelValues(string(outcome)).Inc()
	return outcome, nil
}

func (s *WebhookService) dispatch(ctx context.Context, env *models.WebhookEnvelope) (Outcome, error) {
	switch env.Event {
	case "payment.captured", "order.paid":
		return s.handleCaptured(ctx, env)
	case "payment.failed":
		return s.handleFailed(ctx, env)
	case "subscription.activated", "subscription.charged":
		return s.handleSubscription(ctx, env, models.SubStatusActive)
	case "subscription.halted":
		return s.handleSubscription(ctx, env, models.SubStatusPastDue)
	case "subscription.cancelled":
		return s.handleSubscription(ctx, env, models.SubStatusCanceled)
	case "account.updated":
		return s.handleAccountUpdated(ctx, env)
	case "account.deauthorized":
		return s.handleAccountDeauthorized(ctx, env)
	default:
		// Unknown event types are acknowledged without effect. New
		// gateway features must not break the endpoint.
		log.Printf("[Webhook] Ignoring unhandled event type %q", env.Event)
		return OutcomeUnknown, nil
	}
}

func (s *WebhookService) handleCaptured(ctx context.Context, env *models.WebhookEnvelope) (Outcome, error) {
	entity := paymentEntity(env.Payload)
	orderID, _ := entity["order_id"].(string)
	paymentID, _ := entity["id"].(string)
	if orderID == "" {
		return OutcomeUnresolvable, fmt.Errorf("%w: captured payment without order_id", models.ErrUnresolvableEvent)
	}

	rawNotes, _ := entity["notes"].(map[string]interface{})
	notes, err := models.DecodePaymentNotes(rawNotes)
	if err != nil {
		return OutcomeUnresolvable, err
	}

	order, err := s.orderRepo.GetByProviderOrderID(ctx, orderID)
	if err != nil {
		return OutcomeUnresolvable, fmt.Errorf("%w: no payment order for %s", models.ErrUnresolvableEvent, orderID)
	}

	now := timeutil.Now()
	settled, err := s.orderRepo.MarkPaid(ctx, orderID, paymentID, now)
	if err != nil {
		return OutcomeProcessed, fmt.Errorf("failed to settle order %s: %w", orderID, err)
	}

	// The downstream transitions run even for a replayed capture
	// (!settled): they are monotonic, and an earlier attempt may have
	// died between the order and the records behind it. Feed events and
	// receipts fire only on first settlement.
	switch notes.Type {
	case models.PurposeRentPayment:
		if notes.TransactionID != 0 {
			if _, err := s.txRepo.MarkPaid(ctx, notes.TransactionID, order.Amount, paymentID, now); err != nil {
				return OutcomeProcessed, fmt.Errorf("failed to settle transaction %d: %w", notes.TransactionID, err)
			}
		}
		if !settled {
			break
		}
		s.publish(ws.SettlementEvent{
			Kind:          "rent_paid",
			LeaseID:       notes.LeaseID,
			TransactionID: notes.TransactionID,
			Amount:        order.Amount,
			Reference:     paymentID,
			At:            now,
		})
		if s.receipts != nil && notes.TransactionID != 0 {
			// Render off the request path; the ack never waits on a PDF
			txID := notes.TransactionID
			go func() {
				rctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if _, err := s.receipts.Generate(rctx, txID); err != nil {
					log.Printf("[Webhook] Receipt generation for transaction %d failed: %v", txID, err)
				}
			}()
		}
	case models.PurposeListingService:
		if settled {
			s.publish(ws.SettlementEvent{
				Kind:      "service_paid",
				Amount:    order.Amount,
				Reference: paymentID,
				At:        now,
			})
		}
	case models.PurposeSubscription:
		if err := s.activateSubscription(ctx, env, entity, notes); err != nil {
			if !errors.Is(err, models.ErrUnresolvableEvent) {
				return OutcomeProcessed, err
			}
			// The order already settled; a missing local row is a gap
			// to log, not a reason to make the gateway redeliver
			log.Printf("[Webhook] Subscription capture for order %s: %v", orderID, err)
		}
		if settled {
			s.publish(ws.SettlementEvent{
				Kind:      "subscription_paid",
				Amount:    order.Amount,
				Reference: paymentID,
				At:        now,
			})
		}
	}

	if !settled {
		return OutcomeDuplicate, nil
	}
	return OutcomeProcessed, nil
}

// activateSubscription applies the paid capture of a subscription order:
// status active, trial over, provider subscription id linked. The
// subscription row is resolved from the notes; the provider id rides on
// the payment entity when the gateway includes it.
func (s *WebhookService) activateSubscription(ctx context.Context, env *models.WebhookEnvelope, entity map[string]interface{}, notes *models.PaymentNotes) error {
	id := notes.SubscriptionID
	if id == 0 {
		sub, err := s.subRepo.GetByOwner(ctx, notes.OwnerUserID)
		if err != nil {
			return fmt.Errorf("%w: no subscription for owner %d", models.ErrUnresolvableEvent, notes.OwnerUserID)
		}
		id = sub.ID
	}

	providerSubID, _ := entity["subscription_id"].(string)
	eventAt := time.Unix(env.CreatedAt, 0).In(timeutil.Business)
	applied, err := s.subRepo.Activate(ctx, id, providerSubID, eventAt)
	if err != nil {
		return fmt.Errorf("failed to activate subscription %d: %w", id, err)
	}
	if !applied {
		log.Printf("[Webhook] Subscription %d already past this capture, keeping current state", id)
	}
	return nil
}

func (s *WebhookService) handleFailed(ctx context.Context, env *models.WebhookEnvelope) (Outcome, error) {
	entity := paymentEntity(env.Payload)
	orderID, _ := entity["order_id"].(string)
	if orderID == "" {
		return OutcomeUnresolvable, fmt.Errorf("%w: failed payment without order_id", models.ErrUnresolvableEvent)
	}

	reason := "payment failed"
	if desc, ok := entity["error_description"].(string); ok && desc != "" {
		reason = desc
	}

	if err := s.orderRepo.MarkFailed(ctx, orderID, reason); err != nil {
		return OutcomeProcessed, fmt.Errorf("failed to mark order %s failed: %w", orderID, err)
	}

	s.publish(ws.SettlementEvent{Kind: "payment_failed", Reference: orderID, At: timeutil.Now()})
	return OutcomeProcessed, nil
}

func (s *WebhookService) handleSubscription(ctx context.Context, env *models.WebhookEnvelope, status models.SubscriptionStatus) (Outcome, error) {
	entity := entityOf(env.Payload, "subscription")
	providerSubID, _ := entity["id"].(string)
	if providerSubID == "" {
		return OutcomeUnresolvable, fmt.Errorf("%w: subscription event without id", models.ErrUnresolvableEvent)
	}

	sub, err := s.subRepo.GetByProviderSubID(ctx, providerSubID)
	if err != nil {
		// Fall back to the notes when the linkage was not written yet
		// (activation can beat the checkout response)
		rawNotes, _ := entity["notes"].(map[string]interface{})
		notes, nerr := models.DecodePaymentNotes(rawNotes)
		if nerr != nil {
			return OutcomeUnresolvable, fmt.Errorf("%w: no subscription for %s", models.ErrUnresolvableEvent, providerSubID)
		}
		sub, err = s.subRepo.GetByOwner(ctx, notes.OwnerUserID)
		if err != nil {
			return OutcomeUnresolvable, fmt.Errorf("%w: no subscription for owner %d", models.ErrUnresolvableEvent, notes.OwnerUserID)
		}
		if err := s.subRepo.LinkProvider(ctx, sub.ID, providerSubID); err != nil {
			return OutcomeProcessed, fmt.Errorf("failed to link subscription %s: %w", providerSubID, err)
		}
	}

	eventAt := time.Unix(env.CreatedAt, 0).In(timeutil.Business)
	applied, err := s.subRepo.ApplyStatusIfNewer(ctx, sub.ID, status, eventAt)
	if err != nil {
		return OutcomeProcessed, fmt.Errorf("failed to apply subscription status: %w", err)
	}
	if !applied {
		log.Printf("[Webhook] Stale subscription event for %s (event at %s), keeping current state", providerSubID, eventAt)
	}
	return OutcomeProcessed, nil
}

func (s *WebhookService) handleAccountUpdated(ctx context.Context, env *models.WebhookEnvelope) (Outcome, error) {
	entity := entityOf(env.Payload, "account")
	accountID, _ := entity["id"].(string)
	if accountID == "" {
		return OutcomeUnresolvable, fmt.Errorf("%w: account event without id", models.ErrUnresolvableEvent)
	}

	chargesEnabled, _ := entity["charges_enabled"].(bool)
	payoutsEnabled, _ := entity["payouts_enabled"].(bool)

	err := s.merchantRepo.MirrorCapabilities(ctx, accountID, chargesEnabled, payoutsEnabled)
	if err == models.ErrNotFound {
		return OutcomeUnresolvable, fmt.Errorf("%w: no merchant account for %s", models.ErrUnresolvableEvent, accountID)
	}
	if err != nil {
		return OutcomeProcessed, fmt.Errorf("failed to mirror account %s: %w", accountID, err)
	}
	return OutcomeProcessed, nil
}

func (s *WebhookService) handleAccountDeauthorized(ctx context.Context, env *models.WebhookEnvelope) (Outcome, error) {
	entity := entityOf(env.Payload, "account")
	accountID, _ := entity["id"].(string)
	if accountID == "" {
		return OutcomeUnresolvable, fmt.Errorf("%w: account event without id", models.ErrUnresolvableEvent)
	}

	err := s.merchantRepo.ClearLinkage(ctx, accountID)
	if err == models.ErrNotFound {
		// Already cleared or never linked; deauthorization is idempotent
		return OutcomeProcessed, nil
	}
	if err != nil {
		return OutcomeProcessed, fmt.Errorf("failed to clear account %s: %w", accountID, err)
	}
	return OutcomeProcessed, nil
}

func (s *WebhookService) publish(ev ws.SettlementEvent) {
	if s.feed != nil {
		s.feed.Publish(ev)
	}
}

// paymentEntity digs payload.payment.entity, tolerating flatter shapes
func paymentEntity(payload map[string]interface{}) map[string]interface{} {
	return entityOf(payload, "payment")
}

func entityOf(payload map[string]interface{}, key string) map[string]interface{} {
	if payload == nil {
		return map[string]interface{}{}
	}
	outer, ok := payload[key].(map[string]interface{})
	if !ok {
		return payload
	}
	if entity, ok := outer["entity"].(map[string]interface{}); ok {
		return entity
	}
	return outer
}
