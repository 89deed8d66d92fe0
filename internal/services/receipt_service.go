package services

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"rental-backend/internal/models"
	"rental-backend/internal/timeutil"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jung-kurt/gofpdf/v2"
)

// ReceiptTxStore joins a transaction with its lease for rendering
type ReceiptTxStore interface {
	GetWithLease(ctx context.Context, id int) (*models.RentTransaction, *models.Lease, error)
}

// ReceiptService renders PDF receipts for settled rent transactions and
// archives them to object storage when configured. Rendering never
// depends on the archive being up.
type ReceiptService struct {
	txRepo   ReceiptTxStore
	s3Client *s3.Client
	bucket   string
	currency string
}

func NewReceiptService(txRepo ReceiptTxStore, s3Client *s3.Client, bucket, currency string) *ReceiptService {
	return &ReceiptService{txRepo: txRepo, s3Client: s3Client, bucket: bucket, currency: currency}
}

// Generate renders the receipt PDF for a paid transaction
func (s *ReceiptService) Generate(ctx context.Context, transactionID int) ([]byte, error) {
	tx, lease, err := s.txRepo.GetWithLease(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if tx.Status != models.RentTxStatusPaid {
		return nil, fmt.Errorf("%w: transaction %d is not paid", models.ErrValidation, transactionID)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, "Rent Payment Receipt", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Generated: %s", timeutil.Now().Format(timeutil.DisplayLayout)), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	// Tenant box
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Tenant", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 7, fmt.Sprintf("Name: %s", lease.TenantName), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Phone: %s", lease.TenantPhone), "RB", 1, "L", false, 0, "")
	pdf.CellFormat(190, 7, fmt.Sprintf("Property: %s", lease.PropertyLabel), "LRB", 1, "L", false, 0, "")
	pdf.Ln(5)

	// Payment box
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Payment", "1", 1, "L", true, 0, "")

	paidAmount := tx.AmountDue
	if tx.AmountPaid != nil {
		paidAmount = *tx.AmountPaid
	}
	paidAt := ""
	if tx.PaidAt != nil {
		paidAt = tx.PaidAt.In(timeutil.Business).Format(timeutil.DisplayLayout)
	}

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 7, fmt.Sprintf("Period: %s %d", monthName(tx.PeriodMonth), tx.PeriodYear), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Paid at: %s", paidAt), "RB", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Amount due: %s", formatAmount(tx.AmountDue, s.currency)), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Reference: %s", tx.PaymentRef), "RB", 1, "L", false, 0, "")

	pdf.SetFillColor(200, 255, 200)
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(190, 10, fmt.Sprintf("PAID %s", formatAmount(paidAmount, s.currency)), "1", 1, "C", true, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render receipt: %w", err)
	}

	s.archive(ctx, transactionID, buf.Bytes())
	return buf.Bytes(), nil
}

// archive uploads the rendered receipt to object storage. Best effort:
// the download response already carries the bytes.
func (s *ReceiptService) archive(ctx context.Context, transactionID int, data []byte) {
	if s.s3Client == nil || s.bucket == "" {
		return
	}

	key := fmt.Sprintf("receipts/%d.pdf", transactionID)
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		log.Printf("[Receipt] Archive upload failed for transaction %d: %v", transactionID, err)
		return
	}
	log.Printf("[Receipt] Archived %s", key)
}

func monthName(month int) string {
	names := []string{"", "January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December"}
	if month < 1 || month > 12 {
		return "?"
	}
	return names[month]
}

func formatAmount(minor int64, currency string) string {
	return fmt.Sprintf("%s %d.%02d", currency, minor/100, minor%100)
}
