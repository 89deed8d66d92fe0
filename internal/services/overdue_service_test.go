package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"rental-backend/internal/models"
	"rental-backend/internal/timeutil"
)

type fakeReminderStore struct {
	candidates []*models.ReminderCandidate
	flagged    []int
}

func (f *fakeReminderStore) ListReminderCandidates(ctx context.Context) ([]*models.ReminderCandidate, error) {
	return f.candidates, nil
}

func (f *fakeReminderStore) SetReminderSent(ctx context.Context, id int) error {
	f.flagged = append(f.flagged, id)
	return nil
}

type fakeNotifier struct {
	sent    []string
	failFor map[string]bool
}

func (f *fakeNotifier) SendReminder(phone, tenantName string, amountDue int64, currency, periodLabel string) error {
	if f.failFor[phone] {
		return errors.New("provider rejected")
	}
	f.sent = append(f.sent, phone)
	return nil
}

func (f *fakeNotifier) SendPaymentCode(phone, code string) error { return nil }

func (f *fakeNotifier) SendSMS(phone, message, messageType string) error { return nil }

func bizDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, timeutil.Business)
}

func TestIsOverdueDerivedFromDueDate(t *testing.T) {
	svc := NewOverdueService(nil, nil, "XOF", 0)
	tx := &models.RentTransaction{PeriodMonth: 3, PeriodYear: 2026, Status: models.RentTxStatusPending}

	if svc.IsOverdue(tx, 5, bizDate(2026, time.March, 5)) {
		t.Error("due day itself must not be overdue")
	}
	if !svc.IsOverdue(tx, 5, bizDate(2026, time.March, 6)) {
		t.Error("day after due date must be overdue")
	}

	tx.Status = models.RentTxStatusPaid
	if svc.IsOverdue(tx, 5, bizDate(2026, time.April, 1)) {
		t.Error("paid transaction can never be overdue")
	}
}

func TestIsOverdueClampsBillingDay(t *testing.T) {
	svc := NewOverdueService(nil, nil, "XOF", 0)
	// Billing day 31 in February clamps to the 28th
	tx := &models.RentTransaction{PeriodMonth: 2, PeriodYear: 2026, Status: models.RentTxStatusPending}

	if svc.IsOverdue(tx, 31, bizDate(2026, time.February, 28)) {
		t.Error("clamped due day must not be overdue")
	}
	if !svc.IsOverdue(tx, 31, bizDate(2026, time.March, 1)) {
		t.Error("first of March must be overdue for a February bill")
	}
}

func TestSweepSendsAndFlagsAfterHandoff(t *testing.T) {
	store := &fakeReminderStore{candidates: []*models.ReminderCandidate{
		{TransactionID: 10, PeriodMonth: 1, PeriodYear: 2026, BillingDay: 5, TenantName: "Awa", TenantPhone: "770000001", AmountDue: 85000},
		{TransactionID: 11, PeriodMonth: 1, PeriodYear: 2026, BillingDay: 5, TenantName: "Moussa", TenantPhone: "770000002", AmountDue: 90000},
	}}
	notifier := &fakeNotifier{}
	svc := NewOverdueService(store, notifier, "XOF", 0)

	result, err := svc.SweepReminders(context.Background(), bizDate(2026, time.February, 1))
	if err != nil {
		t.Fatalf("SweepReminders: %v", err)
	}

	if result.Sent != 2 || result.Failed != 0 {
		t.Fatalf("sent=%d failed=%d, want 2/0", result.Sent, result.Failed)
	}
	if len(store.flagged) != 2 {
		t.Fatalf("flagged %v, want both transactions", store.flagged)
	}
}

func TestSweepKeepsFlagClearOnNotifierFailure(t *testing.T) {
	store := &fakeReminderStore{candidates: []*models.ReminderCandidate{
		{TransactionID: 10, PeriodMonth: 1, PeriodYear: 2026, BillingDay: 5, TenantName: "Awa", TenantPhone: "770000001", AmountDue: 85000},
	}}
	notifier := &fakeNotifier{failFor: map[string]bool{"770000001": true}}
	svc := NewOverdueService(store, notifier, "XOF", 0)

	result, err := svc.SweepReminders(context.Background(), bizDate(2026, time.February, 1))
	if err != nil {
		t.Fatalf("SweepReminders: %v", err)
	}

	if result.Failed != 1 || result.Sent != 0 {
		t.Fatalf("sent=%d failed=%d, want 0/1", result.Sent, result.Failed)
	}
	if len(store.flagged) != 0 {
		t.Fatal("flag must not flip when the notifier rejects the handoff")
	}
}

func TestSweepRespectsGraceDays(t *testing.T) {
	store := &fakeReminderStore{candidates: []*models.ReminderCandidate{
		{TransactionID: 10, PeriodMonth: 2, PeriodYear: 2026, BillingDay: 5, TenantName: "Awa", TenantPhone: "770000001", AmountDue: 85000},
	}}
	notifier := &fakeNotifier{}
	svc := NewOverdueService(store, notifier, "XOF", 5)

	// Feb 8 is past due but inside the 5-day grace window
	result, _ := svc.SweepReminders(context.Background(), bizDate(2026, time.February, 8))
	if result.Sent != 0 {
		t.Fatalf("sent=%d inside grace window, want 0", result.Sent)
	}

	// Feb 11 is past due date + grace
	result, _ = svc.SweepReminders(context.Background(), bizDate(2026, time.February, 11))
	if result.Sent != 1 {
		t.Fatalf("sent=%d past grace window, want 1", result.Sent)
	}
}
