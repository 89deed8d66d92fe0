package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"rental-backend/internal/models"
	"rental-backend/internal/services"
	"rental-backend/pkg/utils"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// CreateRentOrder opens a checkout session for rent
// POST /api/payments/rent
func (h *PaymentHandler) CreateRentOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRentOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.paymentService.CreateRentOrder(r.Context(), &req)
	if err != nil {
		log.Printf("[Payment] CreateRentOrder lease %d: %v", req.LeaseID, err)
		utils.ErrorFromDomain(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, resp)
}

// CreateServiceOrder opens a checkout session for a catalog item
// POST /api/payments/service
func (h *PaymentHandler) CreateServiceOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateServiceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.paymentService.CreateServiceOrder(r.Context(), &req)
	if err != nil {
		log.Printf("[Payment] CreateServiceOrder %s: %v", req.ServiceCode, err)
		utils.ErrorFromDomain(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, resp)
}

// ConfirmOnsite validates the code for an onsite payment
// POST /api/payments/onsite/confirm
func (h *PaymentHandler) ConfirmOnsite(w http.ResponseWriter, r *http.Request) {
	var req models.ConfirmOnsiteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.OrderID == "" || req.Code == "" {
		utils.Error(w, http.StatusBadRequest, "order_id and code are required")
		return
	}

	order, err := h.paymentService.ConfirmOnsitePayment(r.Context(), &req)
	if err != nil {
		utils.ErrorFromDomain(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, order)
}

// ResendOnsiteCode issues a fresh confirmation code
// POST /api/payments/onsite/resend
func (h *PaymentHandler) ResendOnsiteCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID string `json:"order_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		utils.Error(w, http.StatusBadRequest, "order_id required")
		return
	}

	if err := h.paymentService.ResendOnsiteCode(r.Context(), req.OrderID); err != nil {
		utils.ErrorFromDomain(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// ListCatalog returns the active listing-service catalog
// GET /api/services
func (h *PaymentHandler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	services, err := h.paymentService.ListCatalog(r.Context())
	if err != nil {
		utils.ErrorFromDomain(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, services)
}

// UpsertCatalog creates or reprices a catalog item
// POST /api/admin/services
func (h *PaymentHandler) UpsertCatalog(w http.ResponseWriter, r *http.Request) {
	var item models.ListingService
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.paymentService.UpsertCatalogItem(r.Context(), &item); err != nil {
		utils.ErrorFromDomain(w, err)
		return
	}

	log.Printf("[Payment] Catalog item %s set to %d", item.Code, item.Amount)
	utils.JSON(w, http.StatusOK, item)
}
