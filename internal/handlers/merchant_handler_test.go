package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"rental-backend/internal/models"

	"github.com/gorilla/mux"
)

type memMerchants struct {
	byOwner map[int]*models.MerchantAccount
}

func (m *memMerchants) Create(ctx context.Context, a *models.MerchantAccount) error {
	if m.byOwner == nil {
		m.byOwner = map[int]*models.MerchantAccount{}
	}
	if a.Status == "" {
		a.Status = models.MerchantStatusPending
	}
	a.ID = len(m.byOwner) + 1
	m.byOwner[a.OwnerUserID] = a
	return nil
}

func (m *memMerchants) GetByOwner(ctx context.Context, ownerUserID int) (*models.MerchantAccount, error) {
	a, ok := m.byOwner[ownerUserID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return a, nil
}

func (m *memMerchants) GetByProviderAccountID(ctx context.Context, providerAccountID string) (*models.MerchantAccount, error) {
	for _, a := range m.byOwner {
		if a.ProviderAccountID == providerAccountID {
			return a, nil
		}
	}
	return nil, models.ErrNotFound
}

func newMerchantRouter(repo *memMerchants) *mux.Router {
	h := NewMerchantHandler(repo)
	r := mux.NewRouter()
	r.HandleFunc("/api/admin/merchants", h.Onboard).Methods("POST")
	r.HandleFunc("/api/admin/merchants/{ownerID}", h.Get).Methods("GET")
	return r
}

func TestMerchantOnboardLinksOwner(t *testing.T) {
	repo := &memMerchants{}
	router := newMerchantRouter(repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/merchants",
		strings.NewReader(`{"owner_user_id": 3, "provider_account_id": "acc_9"}`)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	account := repo.byOwner[3]
	if account == nil || account.ProviderAccountID != "acc_9" {
		t.Fatalf("account not linked: %+v", account)
	}
	if account.Status != models.MerchantStatusPending {
		t.Errorf("status = %s, want pending until account.updated arrives", account.Status)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/merchants/3", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
}

func TestMerchantOnboardRejectsDuplicates(t *testing.T) {
	repo := &memMerchants{}
	router := newMerchantRouter(repo)

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/api/admin/merchants",
		strings.NewReader(`{"owner_user_id": 3, "provider_account_id": "acc_9"}`)))
	if first.Code != http.StatusCreated {
		t.Fatalf("first onboard: %d", first.Code)
	}

	sameOwner := httptest.NewRecorder()
	router.ServeHTTP(sameOwner, httptest.NewRequest(http.MethodPost, "/api/admin/merchants",
		strings.NewReader(`{"owner_user_id": 3, "provider_account_id": "acc_10"}`)))
	if sameOwner.Code != http.StatusConflict {
		t.Errorf("same owner: status = %d, want 409", sameOwner.Code)
	}

	sameAccount := httptest.NewRecorder()
	router.ServeHTTP(sameAccount, httptest.NewRequest(http.MethodPost, "/api/admin/merchants",
		strings.NewReader(`{"owner_user_id": 4, "provider_account_id": "acc_9"}`)))
	if sameAccount.Code != http.StatusConflict {
		t.Errorf("same gateway account: status = %d, want 409", sameAccount.Code)
	}

	missing := httptest.NewRecorder()
	router.ServeHTTP(missing, httptest.NewRequest(http.MethodPost, "/api/admin/merchants",
		strings.NewReader(`{"owner_user_id": 0, "provider_account_id": ""}`)))
	if missing.Code != http.StatusBadRequest {
		t.Errorf("missing fields: status = %d, want 400", missing.Code)
	}
}
