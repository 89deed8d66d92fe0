package services

import (
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

// PaymentGateway is the slice of the provider SDK the payment service
// uses. The SDK returns untyped maps, so the boundary stays a map too.
type PaymentGateway interface {
	CreateOrder(data map[string]interface{}) (map[string]interface{}, error)
}

// RazorpayGateway wraps the official SDK client
type RazorpayGateway struct {
	client *razorpay.Client
}

func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	if keyID == "" || keySecret == "" {
		return nil
	}
	return &RazorpayGateway{client: razorpay.NewClient(keyID, keySecret)}
}

func (g *RazorpayGateway) CreateOrder(data map[string]interface{}) (map[string]interface{}, error) {
	order, err := g.client.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("gateway order create: %w", err)
	}
	return order, nil
}
