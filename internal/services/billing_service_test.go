package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"rental-backend/internal/models"
)

type fakeLeaseLister struct {
	leases []*models.Lease
	err    error
}

func (f *fakeLeaseLister) ListActiveForPeriod(ctx context.Context, start, end time.Time) ([]*models.Lease, error) {
	return f.leases, f.err
}

type fakePeriodInserter struct {
	existing map[int]bool
	inserted []*models.RentTransaction
	// lease ids that lose the insert race
	conflicts map[int]bool
	err       error
}

func (f *fakePeriodInserter) LeaseIDsWithPeriod(ctx context.Context, month, year int) (map[int]bool, error) {
	if f.existing == nil {
		return map[int]bool{}, nil
	}
	return f.existing, nil
}

func (f *fakePeriodInserter) InsertForPeriod(ctx context.Context, t *models.RentTransaction) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.conflicts[t.LeaseID] {
		return false, nil
	}
	f.inserted = append(f.inserted, t)
	return true, nil
}

func TestGenerateForPeriodCreatesOnePerActiveLease(t *testing.T) {
	leases := []*models.Lease{
		{ID: 1, MonthlyAmount: 85000, Status: models.LeaseStatusActive},
		{ID: 2, MonthlyAmount: 120000, Status: models.LeaseStatusActive},
		{ID: 3, MonthlyAmount: 60000, Status: models.LeaseStatusActive},
	}
	inserter := &fakePeriodInserter{}
	svc := NewBillingService(&fakeLeaseLister{leases: leases}, inserter)

	report, err := svc.GenerateForPeriod(context.Background(), 3, 2026)
	if err != nil {
		t.Fatalf("GenerateForPeriod: %v", err)
	}

	if report.Created != 3 || report.Existing != 0 || report.Skipped != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.ActiveLeases != 3 {
		t.Errorf("ActiveLeases = %d, want 3", report.ActiveLeases)
	}
	for i, tx := range inserter.inserted {
		if tx.AmountDue != leases[i].MonthlyAmount {
			t.Errorf("lease %d: amount %d, want %d", tx.LeaseID, tx.AmountDue, leases[i].MonthlyAmount)
		}
		if tx.PeriodMonth != 3 || tx.PeriodYear != 2026 {
			t.Errorf("lease %d: period %d/%d", tx.LeaseID, tx.PeriodMonth, tx.PeriodYear)
		}
	}
}

func TestGenerateForPeriodIsIdempotent(t *testing.T) {
	leases := []*models.Lease{
		{ID: 1, MonthlyAmount: 85000, Status: models.LeaseStatusActive},
		{ID: 2, MonthlyAmount: 120000, Status: models.LeaseStatusActive},
	}
	inserter := &fakePeriodInserter{existing: map[int]bool{1: true}}
	svc := NewBillingService(&fakeLeaseLister{leases: leases}, inserter)

	report, err := svc.GenerateForPeriod(context.Background(), 3, 2026)
	if err != nil {
		t.Fatalf("GenerateForPeriod: %v", err)
	}

	if report.Existing != 1 {
		t.Errorf("Existing = %d, want 1", report.Existing)
	}
	if report.Created != 1 {
		t.Errorf("Created = %d, want 1", report.Created)
	}
	if len(inserter.inserted) != 1 || inserter.inserted[0].LeaseID != 2 {
		t.Fatalf("expected single insert for lease 2, got %v", inserter.inserted)
	}
}

func TestGenerateForPeriodCountsLostRaces(t *testing.T) {
	leases := []*models.Lease{
		{ID: 1, MonthlyAmount: 85000, Status: models.LeaseStatusActive},
		{ID: 2, MonthlyAmount: 120000, Status: models.LeaseStatusActive},
	}
	// Lease 2 loses the insert race to a concurrent run
	inserter := &fakePeriodInserter{conflicts: map[int]bool{2: true}}
	svc := NewBillingService(&fakeLeaseLister{leases: leases}, inserter)

	report, err := svc.GenerateForPeriod(context.Background(), 3, 2026)
	if err != nil {
		t.Fatalf("GenerateForPeriod: %v", err)
	}

	if report.Created != 1 || report.Skipped != 1 {
		t.Fatalf("created=%d skipped=%d, want 1/1", report.Created, report.Skipped)
	}
}

func TestGenerateForPeriodRejectsBadPeriod(t *testing.T) {
	svc := NewBillingService(&fakeLeaseLister{}, &fakePeriodInserter{})

	for _, month := range []int{0, 13, -1} {
		if _, err := svc.GenerateForPeriod(context.Background(), month, 2026); !errors.Is(err, models.ErrValidation) {
			t.Errorf("month %d: err = %v, want ErrValidation", month, err)
		}
	}
	if _, err := svc.GenerateForPeriod(context.Background(), 3, 1900); !errors.Is(err, models.ErrValidation) {
		t.Errorf("year 1900: err = %v, want ErrValidation", err)
	}
}

func TestGenerateForPeriodSurfacesPartialFailure(t *testing.T) {
	leases := []*models.Lease{{ID: 1, MonthlyAmount: 85000, Status: models.LeaseStatusActive}}
	inserter := &fakePeriodInserter{err: errors.New("connection reset")}
	svc := NewBillingService(&fakeLeaseLister{leases: leases}, inserter)

	report, err := svc.GenerateForPeriod(context.Background(), 3, 2026)
	if err == nil {
		t.Fatal("expected error")
	}
	if report == nil || report.Created != 0 {
		t.Fatalf("expected partial report, got %+v", report)
	}
}
