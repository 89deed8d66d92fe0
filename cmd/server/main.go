package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"rental-backend/internal/auth"
	"rental-backend/internal/cache"
	"rental-backend/internal/config"
	"rental-backend/internal/database"
	"rental-backend/internal/db"
	"rental-backend/internal/handlers"
	"rental-backend/internal/health"
	httprouter "rental-backend/internal/http"
	"rental-backend/internal/middleware"
	"rental-backend/internal/repositories"
	"rental-backend/internal/services"
	"rental-backend/internal/sms"
	"rental-backend/internal/ws"
)

func main() {
	cfg := config.Load()

	if err := cache.Init(); err != nil {
		log.Printf("[Main] Redis unavailable, continuing without cache: %v", err)
	}

	pool := db.Connect(cfg)
	defer pool.Close()

	migrator := database.NewMigrator(pool, "")
	if err := migrator.RunMigrations(context.Background()); err != nil {
		log.Fatalf("[Main] Migration failed: %v", err)
	}

	// Repositories
	userRepo := repositories.NewUserRepository(pool)
	leaseRepo := repositories.NewLeaseRepository(pool)
	txRepo := repositories.NewRentTransactionRepository(pool)
	orderRepo := repositories.NewPaymentOrderRepository(pool)
	eventRepo := repositories.NewWebhookEventRepository(pool)
	subRepo := repositories.NewSubscriptionRepository(pool)
	merchantRepo := repositories.NewMerchantAccountRepository(pool)
	catalogRepo := repositories.NewListingServiceRepository(pool)

	// Outbound providers
	var notifier sms.Provider
	if apiKey := os.Getenv("FAST2SMS_API_KEY"); apiKey != "" {
		notifier = sms.NewFast2SMSService(apiKey)
	} else {
		log.Printf("[Main] FAST2SMS_API_KEY not set, using mock SMS provider")
		notifier = sms.NewMockSMSService()
	}

	var gateway services.PaymentGateway
	if rzp := services.NewRazorpayGateway(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret); rzp != nil {
		gateway = rzp
	} else {
		log.Printf("[Main] Gateway credentials not set, payment initiation disabled")
	}

	s3Client := cfg.NewR2Client(context.Background())
	feedHub := ws.NewFeedHub()

	// Services
	jwtManager := auth.NewJWTManager(cfg)
	userService := services.NewUserService(userRepo, subRepo, jwtManager)
	billingService := services.NewBillingService(leaseRepo, txRepo)
	overdueService := services.NewOverdueService(txRepo, notifier, cfg.Billing.Currency, cfg.Billing.ReminderGraceDays)
	receiptService := services.NewReceiptService(txRepo, s3Client, cfg.R2.Bucket, cfg.Billing.Currency)
	paymentService := services.NewPaymentService(gateway, leaseRepo, txRepo, orderRepo, catalogRepo, notifier, cfg.Razorpay.KeyID, cfg.Billing.Currency)
	webhookService := services.NewWebhookService(cfg.Razorpay.WebhookSecret, eventRepo, orderRepo, txRepo, subRepo, merchantRepo, feedHub)
	webhookService.AttachReceipts(receiptService)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	leaseHandler := handlers.NewLeaseHandler(leaseRepo)
	transactionHandler := handlers.NewTransactionHandler(txRepo, leaseRepo, overdueService, receiptService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	billingHandler := handlers.NewBillingHandler(billingService, overdueService)
	webhookHandler := handlers.NewWebhookHandler(webhookService)
	monitoringHandler := handlers.NewMonitoringHandler(pool)
	userHandler := handlers.NewUserHandler(userRepo)
	merchantHandler := handlers.NewMerchantHandler(merchantRepo)
	healthChecker := health.NewChecker(pool)

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, userRepo)

	router := httprouter.NewRouter(
		authHandler,
		leaseHandler,
		transactionHandler,
		paymentHandler,
		billingHandler,
		webhookHandler,
		monitoringHandler,
		userHandler,
		merchantHandler,
		healthChecker,
		feedHub,
		authMiddleware,
		cfg.Billing.CronSecret,
	)

	handler := middleware.NewCORS(cfg)(router)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("[Main] Listening on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("[Main] Server error: %v", err)
	}
}
