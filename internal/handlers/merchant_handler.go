package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"rental-backend/internal/models"
	"rental-backend/pkg/utils"

	"github.com/gorilla/mux"
)

// MerchantDirectory is the slice of the merchant account repository the
// onboarding endpoints need
type MerchantDirectory interface {
	Create(ctx context.Context, m *models.MerchantAccount) error
	GetByOwner(ctx context.Context, ownerUserID int) (*models.MerchantAccount, error)
	GetByProviderAccountID(ctx context.Context, providerAccountID string) (*models.MerchantAccount, error)
}

type MerchantHandler struct {
	merchantRepo MerchantDirectory
}

func NewMerchantHandler(merchantRepo MerchantDirectory) *MerchantHandler {
	return &MerchantHandler{merchantRepo: merchantRepo}
}

// Onboard links an owner to their connected gateway account. The row
// starts pending; capability flags arrive through account.updated events.
// POST /api/admin/merchants
func (h *MerchantHandler) Onboard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OwnerUserID       int    `json:"owner_user_id"`
		ProviderAccountID string `json:"provider_account_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.OwnerUserID <= 0 || req.ProviderAccountID == "" {
		utils.Error(w, http.StatusBadRequest, "owner_user_id and provider_account_id are required")
		return
	}

	if _, err := h.merchantRepo.GetByOwner(r.Context(), req.OwnerUserID); err == nil {
		utils.Error(w, http.StatusConflict, "Owner already has a merchant account")
		return
	} else if !errors.Is(err, models.ErrNotFound) {
		utils.ErrorFromDomain(w, err)
		return
	}
	if _, err := h.merchantRepo.GetByProviderAccountID(r.Context(), req.ProviderAccountID); err == nil {
		utils.Error(w, http.StatusConflict, "Gateway account already linked")
		return
	} else if !errors.Is(err, models.ErrNotFound) {
		utils.ErrorFromDomain(w, err)
		return
	}

	account := &models.MerchantAccount{
		OwnerUserID:       req.OwnerUserID,
		ProviderAccountID: req.ProviderAccountID,
	}
	if err := h.merchantRepo.Create(r.Context(), account); err != nil {
		utils.ErrorFromDomain(w, err)
		return
	}

	log.Printf("[Merchant] Owner %d linked to account %s", req.OwnerUserID, req.ProviderAccountID)
	utils.JSON(w, http.StatusCreated, account)
}

// Get returns the merchant account of an owner
// GET /api/admin/merchants/{ownerID}
func (h *MerchantHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID, err := strconv.Atoi(mux.Vars(r)["ownerID"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid owner id")
		return
	}

	account, err := h.merchantRepo.GetByOwner(r.Context(), ownerID)
	if err != nil {
		utils.ErrorFromDomain(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, account)
}
