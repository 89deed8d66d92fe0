package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	RentTransactionsGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rent_transactions_generated_total",
			Help: "Rent transactions created by the monthly generation run",
		},
	)

	RentTransactionsSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rent_transactions_skipped_total",
			Help: "Generation attempts skipped because the period row already existed",
		},
	)

	PaymentOrdersCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_orders_created_total",
			Help: "Payment orders created at the gateway, by purpose",
		},
		[]string{"purpose"},
	)

	WebhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Webhook deliveries by outcome (processed, duplicate, unresolvable, unknown, invalid_signature)",
		},
		[]string{"outcome"},
	)

	RemindersSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "overdue_reminders_sent_total",
			Help: "Overdue reminders handed to the SMS provider",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		RentTransactionsGenerated,
		RentTransactionsSkipped,
		PaymentOrdersCreated,
		WebhookEventsTotal,
		RemindersSent,
	)
}
