package handlers

import (
	"io"
	"log"
	"net/http"

	"rental-backend/internal/metrics"
	"rental-backend/internal/services"
)

type WebhookHandler struct {
	webhookService *services.WebhookService
}

func NewWebhookHandler(webhookService *services.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookService: webhookService}
}

// Handle receives gateway deliveries. Signature first, everything else
// after. Malformed-but-authentic events are acknowledged with 200: the
// gateway retries on non-2xx and a retry cannot fix bad metadata.
// POST /api/webhooks/payments
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("X-Razorpay-Signature")
	if !h.webhookService.VerifySignature(body, signature) {
		log.Printf("[Webhook] Invalid signature from %s", r.RemoteAddr)
		metrics.WebhookEventsTotal.WithLabelValues("invalid_signature").Inc()
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	eventID := r.Header.Get("X-Razorpay-Event-Id")

	outcome, err := h.webhookService.Process(r.Context(), eventID, body)
	if err != nil && outcome != services.OutcomeUnresolvable {
		// Transient failure (database down mid-processing): non-2xx so
		// the gateway redelivers. The event is only stamped processed
		// after its effects apply, so the redelivery reruns them.
		log.Printf("[Webhook] Processing failed for %s: %v", eventID, err)
		http.Error(w, "Processing failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
