package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"rental-backend/internal/middleware"
	"rental-backend/internal/models"
	"rental-backend/internal/repositories"
	"rental-backend/internal/timeutil"
	"rental-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type LeaseHandler struct {
	leaseRepo *repositories.LeaseRepository
}

func NewLeaseHandler(leaseRepo *repositories.LeaseRepository) *LeaseHandler {
	return &LeaseHandler{leaseRepo: leaseRepo}
}

// Create registers a new lease
// POST /api/leases
func (h *LeaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateLeaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.TenantName == "" || req.TenantPhone == "" || req.PropertyLabel == "" {
		utils.Error(w, http.StatusBadRequest, "tenant_name, tenant_phone and property_label are required")
		return
	}
	if req.MonthlyAmount <= 0 {
		utils.Error(w, http.StatusBadRequest, "monthly_amount must be positive")
		return
	}
	if req.BillingDay < 0 || req.BillingDay > 31 {
		utils.Error(w, http.StatusBadRequest, "billing_day must be 1-31")
		return
	}

	startDate := timeutil.Now()
	if req.StartDate != "" {
		parsed, err := time.ParseInLocation(timeutil.DateLayout, req.StartDate, timeutil.Business)
		if err != nil {
			utils.Error(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
			return
		}
		startDate = parsed
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())

	lease := &models.Lease{
		TenantName:    req.TenantName,
		TenantEmail:   req.TenantEmail,
		TenantPhone:   req.TenantPhone,
		PropertyLabel: req.PropertyLabel,
		OwnerUserID:   userID,
		MonthlyAmount: req.MonthlyAmount,
		BillingDay:    req.BillingDay,
		StartDate:     startDate,
	}
	if err := h.leaseRepo.Create(r.Context(), lease); err != nil {
		utils.ErrorFromDomain(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, lease)
}

// List returns leases, optionally filtered by status
// GET /api/leases?status=active
func (h *LeaseHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && status != string(models.LeaseStatusActive) && status != string(models.LeaseStatusTerminated) {
		utils.Error(w, http.StatusBadRequest, "status must be active or terminated")
		return
	}

	leases, err := h.leaseRepo.List(r.Context(), status)
	if err != nil {
		utils.ErrorFromDomain(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, leases)
}

// Get returns one lease
// GET /api/leases/{id}
func (h *LeaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid lease id")
		return
	}

	lease, err := h.leaseRepo.Get(r.Context(), id)
	if err != nil {
		utils.ErrorFromDomain(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, lease)
}

// Terminate closes a lease, keeping its history
// POST /api/leases/{id}/terminate
func (h *LeaseHandler) Terminate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid lease id")
		return
	}

	if err := h.leaseRepo.Terminate(r.Context(), id, timeutil.Now()); err != nil {
		utils.ErrorFromDomain(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"status": "terminated"})
}
