package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"rental-backend/internal/metrics"
	"rental-backend/internal/models"
	"rental-backend/internal/timeutil"
)

// LeasePeriodLister is the slice of the lease repository the generator needs
type LeasePeriodLister interface {
	ListActiveForPeriod(ctx context.Context, periodStart, periodEnd time.Time) ([]*models.Lease, error)
}

// PeriodInserter is the slice of the transaction repository the generator needs
type PeriodInserter interface {
	LeaseIDsWithPeriod(ctx context.Context, month, year int) (map[int]bool, error)
	InsertForPeriod(ctx context.Context, t *models.RentTransaction) (bool, error)
}

// BillingService generates the monthly rent transactions. Safe to run any
// number of times for the same period: the unique constraint on
// (lease_id, period_month, period_year) is the idempotency authority and
// a lost insert race is counted, not errored.
type BillingService struct {
	leaseRepo LeasePeriodLister
	txRepo    PeriodInserter
}

func NewBillingService(leaseRepo LeasePeriodLister, txRepo PeriodInserter) *BillingService {
	return &BillingService{leaseRepo: leaseRepo, txRepo: txRepo}
}

// GenerateForPeriod creates one pending transaction per active lease for
// (month, year). Amounts are snapshotted from the lease at generation
// time; later rent changes do not rewrite history.
func (s *BillingService) GenerateForPeriod(ctx context.Context, month, year int) (*models.GenerationReport, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: month must be 1-12, got %d", models.ErrValidation, month)
	}
	if year < 2000 || year > 2200 {
		return nil, fmt.Errorf("%w: implausible year %d", models.ErrValidation, year)
	}

	periodStart, periodEnd := timeutil.PeriodBounds(month, year)

	leases, err := s.leaseRepo.ListActiveForPeriod(ctx, periodStart, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to list leases for period: %w", err)
	}

	existing, err := s.txRepo.LeaseIDsWithPeriod(ctx, month, year)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing transactions: %w", err)
	}

	report := &models.GenerationReport{
		PeriodMonth:  month,
		PeriodYear:   year,
		ActiveLeases: len(leases),
	}

	for _, lease := range leases {
		if existing[lease.ID] {
			report.Existing++
			continue
		}

		inserted, err := s.txRepo.InsertForPeriod(ctx, &models.RentTransaction{
			LeaseID:     lease.ID,
			PeriodMonth: month,
			PeriodYear:  year,
			PeriodStart: periodStart,
			PeriodEnd:   periodEnd,
			AmountDue:   lease.MonthlyAmount,
		})
		if err != nil {
			// Surface the partial run; callers can re-run safely
			return report, fmt.Errorf("failed to insert transaction for lease %d: %w", lease.ID, err)
		}
		if inserted {
			report.Created++
			metrics.RentTransactionsGenerated.Inc()
		} else {
			report.Skipped++
			metrics.RentTransactionsSkipped.Inc()
		}
	}

	log.Printf("[Billing] Generated %d/%d for %02d/%d (existing=%d skipped=%d)",
		report.Created, report.ActiveLeases, month, year, report.Existing, report.Skipped)

	return report, nil
}
