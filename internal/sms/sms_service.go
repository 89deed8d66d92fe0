package sms

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	TypeReminder    = "reminder"
	TypePaymentCode = "payment_code"
)

// Provider is the outbound SMS interface. A nil error means the provider
// accepted the message for delivery; reminder bookkeeping depends on that.
type Provider interface {
	SendReminder(phone, tenantName string, amountDue int64, currency string, periodLabel string) error
	SendPaymentCode(phone, code string) error
	SendSMS(phone, message, messageType string) error
}

// Fast2SMSService implements Provider for Fast2SMS
type Fast2SMSService struct {
	APIKey string
	client *http.Client
}

func NewFast2SMSService(apiKey string) *Fast2SMSService {
	return &Fast2SMSService{
		APIKey: apiKey,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *Fast2SMSService) SendReminder(phone, tenantName string, amountDue int64, currency string, periodLabel string) error {
	message := fmt.Sprintf("Hi %s, your rent of %s %d.%02d for %s is overdue. Please pay at your earliest convenience.",
		tenantName, currency, amountDue/100, amountDue%100, periodLabel)
	return s.SendSMS(phone, message, TypeReminder)
}

func (s *Fast2SMSService) SendPaymentCode(phone, code string) error {
	message := fmt.Sprintf("Your payment confirmation code is %s. Valid for 5 minutes. Do not share this code with anyone.", code)
	return s.SendSMS(phone, message, TypePaymentCode)
}

// SendSMS sends a single message on the quick route
func (s *Fast2SMSService) SendSMS(phone, message, messageType string) error {
	apiURL := fmt.Sprintf(
		"https://www.fast2sms.com/dev/bulkV2?authorization=%s&route=q&message=%s&language=english&flash=0&numbers=%s",
		url.QueryEscape(s.APIKey),
		url.QueryEscape(message),
		url.QueryEscape(phone),
	)

	req, err := http.NewRequest("GET", apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create SMS request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("SMS API error (status %d): %s", resp.StatusCode, string(body))
	}
	if strings.Contains(string(body), "\"return\":false") {
		return fmt.Errorf("SMS API error: %s", string(body))
	}

	return nil
}

// MockSMSService prints messages to the console instead of sending them
type MockSMSService struct{}

func NewMockSMSService() *MockSMSService {
	return &MockSMSService{}
}

func (s *MockSMSService) SendReminder(phone, tenantName string, amountDue int64, currency string, periodLabel string) error {
	message := fmt.Sprintf("Hi %s, your rent of %s %d.%02d for %s is overdue.",
		tenantName, currency, amountDue/100, amountDue%100, periodLabel)
	return s.SendSMS(phone, message, TypeReminder)
}

func (s *MockSMSService) SendPaymentCode(phone, code string) error {
	message := fmt.Sprintf("Your payment confirmation code is %s. Valid for 5 minutes.", code)
	return s.SendSMS(phone, message, TypePaymentCode)
}

func (s *MockSMSService) SendSMS(phone, message, messageType string) error {
	fmt.Printf("\n========== MOCK SMS ==========\n")
	fmt.Printf("To: %s\n", phone)
	fmt.Printf("Type: %s\n", messageType)
	fmt.Printf("Message: %s\n", message)
	fmt.Printf("==============================\n\n")
	return nil
}
