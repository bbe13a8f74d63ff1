// Package paymentwebhook реализует HTTP-обработчик вебхуков платежного шлюза.
//
// Подпись тела запроса проверяется до разбора JSON. Обработка событий
// идемпотентна: повторная доставка уже обработанного события не меняет
// ни платеж, ни подписку.
package paymentwebhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/magabrotheeeer/entitlement-engine/internal/lib/sl"
	"github.com/magabrotheeeer/entitlement-engine/internal/models"
)

// События шлюза, по которым фиксируется итоговый статус платежа.
const (
	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentCanceled  = "payment.canceled"
)

// Service описывает интерфейс фиксации итогового статуса платежа.
type Service interface {
	Confirm(ctx context.Context, paymentID, transactionID, status string) error
}

// Payload — тело вебхука платежного шлюза.
type Payload struct {
	Event  string `json:"event"`
	Object struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Amount struct {
			Value    string `json:"value"`
			Currency string `json:"currency"`
		} `json:"amount"`
		TransactionID string            `json:"transaction_id"`
		Metadata      map[string]string `json:"metadata"`
	} `json:"object"`
}

// Handler обрабатывает вебхуки платежного шлюза.
type Handler struct {
	log           *slog.Logger
	payments      Service
	webhookSecret string
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, payments Service, secret string) *Handler {
	return &Handler{
		log:           log,
		payments:      payments,
		webhookSecret: secret,
	}
}

// verifySignature проверяет подпись вебхука из заголовка X-Api-Signature.
func (h *Handler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(body)
	expectedSig := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expectedSig), []byte(signature))
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"
	log := h.log.With(slog.String("op", op))

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	signature := r.Header.Get("X-Api-Signature")
	if signature == "" || !h.verifySignature(body, signature) {
		log.Error("invalid or missing webhook signature")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Error("failed to unmarshal webhook payload", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var status string
	switch strings.ToLower(payload.Event) {
	case EventPaymentSucceeded:
		status = models.PaymentCompleted
	case EventPaymentCanceled:
		status = models.PaymentFailed
	default:
		log.Info("ignored webhook event", slog.String("event", payload.Event))
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := h.payments.Confirm(r.Context(), payload.Object.ID, payload.Object.TransactionID, status); err != nil {
		log.Error("failed to process webhook event", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	log.Info("webhook processed successfully",
		slog.String("event", payload.Event),
		slog.String("payment_id", payload.Object.ID))
	w.WriteHeader(http.StatusOK)
}
