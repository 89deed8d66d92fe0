package handlers

import (
	"net/http"
	"strconv"

	"rental-backend/internal/services"
	"rental-backend/internal/timeutil"
	"rental-backend/pkg/utils"
)

// BillingHandler exposes the scheduler-triggered endpoints. Both sit
// behind the cron shared-secret middleware and are safe to re-run.
type BillingHandler struct {
	billingService *services.BillingService
	overdueService *services.OverdueService
}

func NewBillingHandler(billingService *services.BillingService, overdueService *services.OverdueService) *BillingHandler {
	return &BillingHandler{billingService: billingService, overdueService: overdueService}
}

// Generate runs the monthly transaction generation. Period defaults to
// the current month in the business timezone.
// POST /api/cron/generate?month=3&year=2026
func (h *BillingHandler) Generate(w http.ResponseWriter, r *http.Request) {
	now := timeutil.Now()
	month := int(now.Month())
	year := now.Year()

	if m := r.URL.Query().Get("month"); m != "" {
		n, err := strconv.Atoi(m)
		if err != nil {
			utils.Error(w, http.StatusBadRequest, "month must be a number")
			return
		}
		month = n
	}
	if y := r.URL.Query().Get("year"); y != "" {
		n, err := strconv.Atoi(y)
		if err != nil {
			utils.Error(w, http.StatusBadRequest, "year must be a number")
			return
		}
		year = n
	}

	report, err := h.billingService.GenerateForPeriod(r.Context(), month, year)
	if err != nil {
		if report != nil {
			// Partial run: return the progress with the failure
			utils.JSON(w, http.StatusInternalServerError, map[string]interface{}{
				"error":  err.Error(),
				"report": report,
			})
			return
		}
		utils.ErrorFromDomain(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, report)
}

// SweepReminders evaluates overdue transactions and sends reminders
// POST /api/cron/reminders
func (h *BillingHandler) SweepReminders(w http.ResponseWriter, r *http.Request) {
	result, err := h.overdueService.SweepReminders(r.Context(), timeutil.Now())
	if err != nil {
		utils.ErrorFromDomain(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, result)
}
