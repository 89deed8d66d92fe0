package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"rental-backend/internal/middleware"
	"rental-backend/internal/models"
	"rental-backend/internal/repositories"
	"rental-backend/internal/services"
	"rental-backend/internal/timeutil"
	"rental-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type TransactionHandler struct {
	txRepo         *repositories.RentTransactionRepository
	leaseRepo      *repositories.LeaseRepository
	overdueService *services.OverdueService
	receiptService *services.ReceiptService
}

func NewTransactionHandler(
	txRepo *repositories.RentTransactionRepository,
	leaseRepo *repositories.LeaseRepository,
	overdueService *services.OverdueService,
	receiptService *services.ReceiptService,
) *TransactionHandler {
	return &TransactionHandler{
		txRepo:         txRepo,
		leaseRepo:      leaseRepo,
		overdueService: overdueService,
		receiptService: receiptService,
	}
}

// List returns transactions with the derived overdue flag filled in
// GET /api/transactions?lease_id=&month=&year=&status=&limit=&offset=
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := models.RentTransactionFilter{Limit: 100}
	q := r.URL.Query()

	if v := q.Get("lease_id"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			utils.Error(w, http.StatusBadRequest, "lease_id must be a number")
			return
		}
		filter.LeaseID = n
	}
	if v := q.Get("month"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.PeriodMonth = n
		}
	}
	if v := q.Get("year"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.PeriodYear = n
		}
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			filter.Offset = n
		}
	}
	filter.Status = q.Get("status")

	txns, err := h.txRepo.List(r.Context(), filter)
	if err != nil {
		utils.ErrorFromDomain(w, err)
		return
	}

	// Billing days come from the leases; fetch each lease once
	now := timeutil.Now()
	billingDays := map[int]int{}
	out := make([]*models.RentTransaction, 0, len(txns))
	for _, tx := range txns {
		day, ok := billingDays[tx.LeaseID]
		if !ok {
			lease, err := h.leaseRepo.Get(r.Context(), tx.LeaseID)
			if err != nil {
				utils.ErrorFromDomain(w, err)
				return
			}
			day = lease.BillingDay
			billingDays[tx.LeaseID] = day
		}
		h.overdueService.Decorate(tx, day, now)
		if filter.Status == "overdue" && !tx.Overdue {
			continue
		}
		out = append(out, tx)
	}
	utils.JSON(w, http.StatusOK, out)
}

// MarkPaid is the manual admin settlement for cash or bank-transfer rent
// POST /api/admin/transactions/{id}/mark-paid
func (h *TransactionHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	var req models.MarkPaidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.AmountPaid <= 0 {
		utils.Error(w, http.StatusBadRequest, "amount_paid must be positive")
		return
	}

	tx, err := h.txRepo.Get(r.Context(), id)
	if err != nil {
		utils.ErrorFromDomain(w, err)
		return
	}

	settled, err := h.txRepo.MarkPaid(r.Context(), tx.ID, req.AmountPaid, req.PaymentRef, timeutil.Now())
	if err != nil {
		utils.ErrorFromDomain(w, err)
		return
	}
	if !settled {
		utils.Error(w, http.StatusConflict, "Transaction is already paid")
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())
	log.Printf("[Transaction] Manually settled %d by user %d (ref %q)", tx.ID, userID, req.PaymentRef)

	utils.JSON(w, http.StatusOK, map[string]string{"status": "paid"})
}

// ClearReminderFlag re-arms the reminder after a failed delivery
// POST /api/admin/transactions/{id}/clear-reminder
func (h *TransactionHandler) ClearReminderFlag(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	if err := h.txRepo.ClearReminderFlag(r.Context(), id); err != nil {
		utils.ErrorFromDomain(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// Receipt streams the PDF receipt for a paid transaction
// GET /api/transactions/{id}/receipt
func (h *TransactionHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	data, err := h.receiptService.Generate(r.Context(), id)
	if err != nil {
		utils.ErrorFromDomain(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=receipt-"+strconv.Itoa(id)+".pdf")
	w.Write(data)
}
