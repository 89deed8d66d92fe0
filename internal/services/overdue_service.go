package services

import (
	"context"
	"log"
	"time"

	"rental-backend/internal/metrics"
	"rental-backend/internal/models"
	"rental-backend/internal/sms"
	"rental-backend/internal/timeutil"
)

// ReminderStore is the slice of the transaction repository the sweep needs
type ReminderStore interface {
	ListReminderCandidates(ctx context.Context) ([]*models.ReminderCandidate, error)
	SetReminderSent(ctx context.Context, id int) error
}

// OverdueService derives overdue state at read time and runs the reminder
// sweep. Overdue is never stored: it follows from (due date, status, now),
// so the clock is always passed in rather than read inside.
type OverdueService struct {
	txRepo    ReminderStore
	notifier  sms.Provider
	currency  string
	graceDays int
}

func NewOverdueService(txRepo ReminderStore, notifier sms.Provider, currency string, graceDays int) *OverdueService {
	return &OverdueService{txRepo: txRepo, notifier: notifier, currency: currency, graceDays: graceDays}
}

// IsOverdue reports whether a pending transaction's due date has passed
func (s *OverdueService) IsOverdue(t *models.RentTransaction, billingDay int, now time.Time) bool {
	if t.Status == models.RentTxStatusPaid {
		return false
	}
	due := timeutil.DueDate(t.PeriodMonth, t.PeriodYear, billingDay)
	return !timeutil.SameDayOrBefore(now, due)
}

// Decorate fills the derived Overdue and DueDate fields on read paths
func (s *OverdueService) Decorate(t *models.RentTransaction, billingDay int, now time.Time) {
	due := timeutil.DueDate(t.PeriodMonth, t.PeriodYear, billingDay)
	t.DueDate = &due
	t.Overdue = s.IsOverdue(t, billingDay, now)
}

// SweepResult summarizes one reminder run
type SweepResult struct {
	Evaluated int `json:"evaluated"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
}

// SweepReminders sends one reminder per overdue, unreminded transaction.
// The flag flips only after the notifier confirms handoff: a crash between
// decide and send re-sends on the next run, which beats silently never
// reminding. Duplicate reminders are annoying; missing ones cost money.
func (s *OverdueService) SweepReminders(ctx context.Context, now time.Time) (*SweepResult, error) {
	candidates, err := s.txRepo.ListReminderCandidates(ctx)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{Evaluated: len(candidates)}
	cutoff := now.AddDate(0, 0, -s.graceDays)

	for _, c := range candidates {
		due := timeutil.DueDate(c.PeriodMonth, c.PeriodYear, c.BillingDay)
		if timeutil.SameDayOrBefore(cutoff, due) {
			// Not past due date + grace yet
			continue
		}

		periodLabel := time.Month(c.PeriodMonth).String() + " " + formatYear(c.PeriodYear)
		if err := s.notifier.SendReminder(c.TenantPhone, c.TenantName, c.AmountDue, s.currency, periodLabel); err != nil {
			log.Printf("[Overdue] Reminder failed for transaction %d (%s): %v", c.TransactionID, c.TenantPhone, err)
			result.Failed++
			continue
		}

		if err := s.txRepo.SetReminderSent(ctx, c.TransactionID); err != nil {
			// Sent but not recorded: next run may re-send. Acceptable.
			log.Printf("[Overdue] Failed to flag reminder for transaction %d: %v", c.TransactionID, err)
		}
		result.Sent++
		metrics.RemindersSent.Inc()
	}

	log.Printf("[Overdue] Sweep evaluated=%d sent=%d failed=%d", result.Evaluated, result.Sent, result.Failed)
	return result, nil
}

func formatYear(year int) string {
	return time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006")
}
