package http

import (
	"net/http"

	"rental-backend/internal/handlers"
	"rental-backend/internal/health"
	"rental-backend/internal/middleware"
	"rental-backend/internal/ws"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(
	authHandler *handlers.AuthHandler,
	leaseHandler *handlers.LeaseHandler,
	transactionHandler *handlers.TransactionHandler,
	paymentHandler *handlers.PaymentHandler,
	billingHandler *handlers.BillingHandler,
	webhookHandler *handlers.WebhookHandler,
	monitoringHandler *handlers.MonitoringHandler,
	userHandler *handlers.UserHandler,
	merchantHandler *handlers.MerchantHandler,
	healthChecker *health.Checker,
	feedHub *ws.FeedHub,
	authMiddleware *middleware.AuthMiddleware,
	cronSecret string,
) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.PanicRecovery)
	r.Use(middleware.MetricsMiddleware)

	// Public routes
	r.HandleFunc("/health", healthChecker.Handler).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/api/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")

	// Gateway deliveries authenticate by signature, not by JWT
	r.HandleFunc("/api/webhooks/payments", webhookHandler.Handle).Methods("POST")

	// Scheduler endpoints behind the shared cron secret
	cronAPI := r.PathPrefix("/api/cron").Subrouter()
	cronAPI.Use(middleware.CronAuth(cronSecret))
	cronAPI.HandleFunc("/generate", billingHandler.Generate).Methods("POST")
	cronAPI.HandleFunc("/reminders", billingHandler.SweepReminders).Methods("POST")

	// Leases
	leasesAPI := r.PathPrefix("/api/leases").Subrouter()
	leasesAPI.Use(authMiddleware.Authenticate)
	leasesAPI.HandleFunc("", leaseHandler.List).Methods("GET")
	leasesAPI.HandleFunc("", authMiddleware.RequireRole("admin", "agent")(http.HandlerFunc(leaseHandler.Create)).ServeHTTP).Methods("POST")
	leasesAPI.HandleFunc("/{id}", leaseHandler.Get).Methods("GET")
	leasesAPI.HandleFunc("/{id}/terminate", authMiddleware.RequireRole("admin", "agent")(http.HandlerFunc(leaseHandler.Terminate)).ServeHTTP).Methods("POST")

	// Transactions
	txAPI := r.PathPrefix("/api/transactions").Subrouter()
	txAPI.Use(authMiddleware.Authenticate)
	txAPI.HandleFunc("", transactionHandler.List).Methods("GET")
	txAPI.HandleFunc("/{id}/receipt", transactionHandler.Receipt).Methods("GET")

	// Payments
	paymentsAPI := r.PathPrefix("/api/payments").Subrouter()
	paymentsAPI.Use(authMiddleware.Authenticate)
	paymentsAPI.HandleFunc("/rent", paymentHandler.CreateRentOrder).Methods("POST")
	paymentsAPI.HandleFunc("/service", paymentHandler.CreateServiceOrder).Methods("POST")
	paymentsAPI.HandleFunc("/onsite/confirm", paymentHandler.ConfirmOnsite).Methods("POST")
	paymentsAPI.HandleFunc("/onsite/resend", paymentHandler.ResendOnsiteCode).Methods("POST")

	// Service catalog
	servicesAPI := r.PathPrefix("/api/services").Subrouter()
	servicesAPI.Use(authMiddleware.Authenticate)
	servicesAPI.HandleFunc("", paymentHandler.ListCatalog).Methods("GET")

	// Admin-only surface
	adminAPI := r.PathPrefix("/api/admin").Subrouter()
	adminAPI.Use(authMiddleware.RequireAdmin)
	adminAPI.HandleFunc("/transactions/{id}/mark-paid", transactionHandler.MarkPaid).Methods("POST")
	adminAPI.HandleFunc("/transactions/{id}/clear-reminder", transactionHandler.ClearReminderFlag).Methods("POST")
	adminAPI.HandleFunc("/monitoring", monitoringHandler.Stats).Methods("GET")
	adminAPI.HandleFunc("/users", userHandler.List).Methods("GET")
	adminAPI.HandleFunc("/users/{id}/active", userHandler.SetActive).Methods("POST")
	adminAPI.HandleFunc("/services", paymentHandler.UpsertCatalog).Methods("POST")
	adminAPI.HandleFunc("/merchants", merchantHandler.Onboard).Methods("POST")
	adminAPI.HandleFunc("/merchants/{ownerID}", merchantHandler.Get).Methods("GET")
	adminAPI.Handle("/feed", feedHub).Methods("GET")

	return r
}
