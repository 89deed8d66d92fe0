package services

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"rental-backend/internal/cache"
	"rental-backend/internal/metrics"
	"rental-backend/internal/models"
	"rental-backend/internal/sms"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

// LeaseGetter resolves a lease for order initiation
type LeaseGetter interface {
	Get(ctx context.Context, id int) (*models.Lease, error)
}

// TransactionGetter resolves a transaction when an order targets one
type TransactionGetter interface {
	Get(ctx context.Context, id int) (*models.RentTransaction, error)
}

// OrderStore is the slice of the payment order repository the service needs
type OrderStore interface {
	Create(ctx context.Context, o *models.PaymentOrder) error
	GetByProviderOrderID(ctx context.Context, providerOrderID string) (*models.PaymentOrder, error)
	MarkAuthorized(ctx context.Context, providerOrderID string) error
	BumpOTPCounter(ctx context.Context, id int) (int64, error)
}

// CatalogStore resolves and edits listing-service catalog items
type CatalogStore interface {
	GetActiveByCode(ctx context.Context, code string) (*models.ListingService, error)
	ListActive(ctx context.Context) ([]*models.ListingService, error)
	Upsert(ctx context.Context, s *models.ListingService) error
}

// PaymentService creates gateway checkout sessions. Every session carries
// typed correlation metadata in the gateway notes so the webhook pipeline
// can resolve it back to a domain record without guessing.
type PaymentService struct {
	gateway     PaymentGateway
	leaseRepo   LeaseGetter
	txRepo      TransactionGetter
	orderRepo   OrderStore
	catalogRepo CatalogStore
	notifier    sms.Provider
	keyID       string
	currency    string
}

func NewPaymentService(
	gateway PaymentGateway,
	leaseRepo LeaseGetter,
	txRepo TransactionGetter,
	orderRepo OrderStore,
	catalogRepo CatalogStore,
	notifier sms.Provider,
	keyID, currency string,
) *PaymentService {
	return &PaymentService{
		gateway:     gateway,
		leaseRepo:   leaseRepo,
		txRepo:      txRepo,
		orderRepo:   orderRepo,
		catalogRepo: catalogRepo,
		notifier:    notifier,
		keyID:       keyID,
		currency:    currency,
	}
}

// CreateRentOrder opens a checkout session for rent. The transaction id is
// optional: ad hoc and partial amounts are allowed, reconciliation happens
// when the webhook lands.
func (s *PaymentService) CreateRentOrder(ctx context.Context, req *models.CreateRentOrderRequest) (*models.CreateOrderResponse, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", models.ErrValidation)
	}

	lease, err := s.leaseRepo.Get(ctx, req.LeaseID)
	if err != nil {
		return nil, err
	}
	if lease.Status != models.LeaseStatusActive {
		return nil, fmt.Errorf("%w: lease %d is not active", models.ErrValidation, lease.ID)
	}

	notes := map[string]interface{}{
		"type":        string(models.PurposeRentPayment),
		"lease_id":    lease.ID,
		"payer_phone": lease.TenantPhone,
	}
	if req.TransactionID != nil {
		tx, err := s.txRepo.Get(ctx, *req.TransactionID)
		if err != nil {
			return nil, err
		}
		if tx.LeaseID != lease.ID {
			return nil, fmt.Errorf("%w: transaction %d does not belong to lease %d", models.ErrValidation, tx.ID, lease.ID)
		}
		if tx.Status == models.RentTxStatusPaid {
			return nil, fmt.Errorf("%w: transaction %d is already paid", models.ErrValidation, tx.ID)
		}
		notes["transaction_id"] = tx.ID
	}

	providerOrderID, err := s.createGatewayOrder(req.Amount, notes)
	if err != nil {
		return nil, err
	}

	order := &models.PaymentOrder{
		ProviderOrderID: providerOrderID,
		Purpose:         models.PurposeRentPayment,
		LeaseID:         &lease.ID,
		TransactionID:   req.TransactionID,
		PayerPhone:      lease.TenantPhone,
		Amount:          req.Amount,
		Currency:        s.currency,
		Onsite:          req.Onsite,
	}

	if req.Onsite {
		secret, err := newOnsiteSecret()
		if err != nil {
			return nil, err
		}
		order.OTPSecret = secret
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to store payment order: %w", err)
	}

	if req.Onsite {
		if err := s.sendOnsiteCode(ctx, order); err != nil {
			// The session exists; the agent can re-trigger the code
			log.Printf("[Payment] Onsite code send failed for %s: %v", providerOrderID, err)
		}
	}

	metrics.PaymentOrdersCreated.WithLabelValues(string(models.PurposeRentPayment)).Inc()

	return &models.CreateOrderResponse{
		OrderID:  providerOrderID,
		Amount:   req.Amount,
		Currency: s.currency,
		KeyID:    s.keyID,
		Purpose:  string(models.PurposeRentPayment),
		Onsite:   req.Onsite,
	}, nil
}

// CreateServiceOrder opens a checkout session for a flat-fee catalog item.
// The amount always comes from the catalog, never from the caller.
func (s *PaymentService) CreateServiceOrder(ctx context.Context, req *models.CreateServiceOrderRequest) (*models.CreateOrderResponse, error) {
	if req.ServiceCode == "" {
		return nil, fmt.Errorf("%w: service_code required", models.ErrValidation)
	}

	svc, err := s.catalogRepo.GetActiveByCode(ctx, req.ServiceCode)
	if err != nil {
		return nil, err
	}

	notes := map[string]interface{}{
		"type":         string(models.PurposeListingService),
		"service_code": svc.Code,
		"property_id":  req.PropertyID,
	}

	providerOrderID, err := s.createGatewayOrder(svc.Amount, notes)
	if err != nil {
		return nil, err
	}

	propertyID := req.PropertyID
	order := &models.PaymentOrder{
		ProviderOrderID: providerOrderID,
		Purpose:         models.PurposeListingService,
		ServiceCode:     svc.Code,
		PropertyID:      &propertyID,
		Amount:          svc.Amount,
		Currency:        s.currency,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to store payment order: %w", err)
	}

	metrics.PaymentOrdersCreated.WithLabelValues(string(models.PurposeListingService)).Inc()

	return &models.CreateOrderResponse{
		OrderID:  providerOrderID,
		Amount:   svc.Amount,
		Currency: s.currency,
		KeyID:    s.keyID,
		Purpose:  string(models.PurposeListingService),
	}, nil
}

// ConfirmOnsitePayment validates the code sent to the payer's phone and
// marks the order authorized. Provisional only: settlement still arrives
// through the webhook, which remains the source of truth.
func (s *PaymentService) ConfirmOnsitePayment(ctx context.Context, req *models.ConfirmOnsiteRequest) (*models.PaymentOrder, error) {
	order, err := s.orderRepo.GetByProviderOrderID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if !order.Onsite {
		return nil, fmt.Errorf("%w: order %s is not an onsite order", models.ErrValidation, req.OrderID)
	}
	if order.Status != models.OrderStatusCreated {
		return nil, fmt.Errorf("%w: order %s is %s", models.ErrValidation, req.OrderID, order.Status)
	}

	valid, err := hotp.ValidateCustom(req.Code, uint64(order.OTPCounter), order.OTPSecret, hotp.ValidateOpts{Digits: otp.DigitsSix})
	if err != nil || !valid {
		return nil, fmt.Errorf("%w: invalid confirmation code", models.ErrValidation)
	}

	if err := s.orderRepo.MarkAuthorized(ctx, order.ProviderOrderID); err != nil {
		return nil, err
	}
	order.Status = models.OrderStatusAuthorized
	return order, nil
}

// ResendOnsiteCode issues a fresh code for a pending onsite order. The
// counter advances so earlier codes stop validating.
func (s *PaymentService) ResendOnsiteCode(ctx context.Context, providerOrderID string) error {
	order, err := s.orderRepo.GetByProviderOrderID(ctx, providerOrderID)
	if err != nil {
		return err
	}
	if !order.Onsite || order.Status != models.OrderStatusCreated {
		return fmt.Errorf("%w: order %s cannot receive a code", models.ErrValidation, providerOrderID)
	}

	counter, err := s.orderRepo.BumpOTPCounter(ctx, order.ID)
	if err != nil {
		return err
	}
	code, err := hotp.GenerateCode(order.OTPSecret, uint64(counter))
	if err != nil {
		return err
	}
	return s.notifier.SendPaymentCode(order.PayerPhone, code)
}

// ListCatalog returns the active service catalog, cached for a few minutes
func (s *PaymentService) ListCatalog(ctx context.Context) ([]*models.ListingService, error) {
	if data, ok := cache.GetCachedServiceCatalog(ctx); ok {
		var services []*models.ListingService
		if err := json.Unmarshal(data, &services); err == nil {
			return services, nil
		}
	}

	services, err := s.catalogRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(services); err == nil {
		cache.CacheServiceCatalog(ctx, data)
	}
	return services, nil
}

// UpsertCatalogItem creates or reprices a catalog item and drops the
// cached catalog so the new price is visible immediately
func (s *PaymentService) UpsertCatalogItem(ctx context.Context, item *models.ListingService) error {
	if item.Code == "" || item.Name == "" {
		return fmt.Errorf("%w: code and name are required", models.ErrValidation)
	}
	if item.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", models.ErrValidation)
	}

	if err := s.catalogRepo.Upsert(ctx, item); err != nil {
		return fmt.Errorf("failed to upsert catalog item %s: %w", item.Code, err)
	}
	cache.InvalidateServiceCatalog(ctx)
	return nil
}

func (s *PaymentService) createGatewayOrder(amount int64, notes map[string]interface{}) (string, error) {
	if s.gateway == nil {
		return "", fmt.Errorf("%w: gateway not configured", models.ErrGateway)
	}

	order, err := s.gateway.CreateOrder(map[string]interface{}{
		"amount":   amount,
		"currency": s.currency,
		"receipt":  fmt.Sprintf("ord_%d", time.Now().UnixNano()),
		"notes":    notes,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrGateway, err)
	}

	providerOrderID, _ := order["id"].(string)
	if providerOrderID == "" {
		return "", fmt.Errorf("%w: gateway returned no order id", models.ErrGateway)
	}
	return providerOrderID, nil
}

func (s *PaymentService) sendOnsiteCode(ctx context.Context, order *models.PaymentOrder) error {
	code, err := hotp.GenerateCode(order.OTPSecret, uint64(order.OTPCounter))
	if err != nil {
		return err
	}
	return s.notifier.SendPaymentCode(order.PayerPhone, code)
}

// newOnsiteSecret generates a per-order HOTP secret
func newOnsiteSecret() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base32.StdEncoding.EncodeToString(buf), nil
}
