// Package paymentprovider реализует HTTP-клиент платежного шлюза.
// Детали протокола шлюза (подписи, редиректы) остаются на его стороне,
// движок лишь создает платеж и опрашивает его статус.
package paymentprovider

// Статусы платежа на стороне шлюза.
const (
	StatusPending   = "pending"
	StatusSucceeded = "succeeded"
	StatusCanceled  = "canceled"
)

// Amount сумма платежа в представлении шлюза.
type Amount struct {
	Value    string `json:"value"`    // сумма в строке, например "100.00"
	Currency string `json:"currency"` // валюта
}

// Confirmation описывает способ подтверждения платежа пользователем.
type Confirmation struct {
	Type            string `json:"type"`
	ReturnURL       string `json:"return_url,omitempty"`
	ConfirmationURL string `json:"confirmation_url,omitempty"`
}

// CreatePaymentRequest запрос на создание платежа в шлюзе.
type CreatePaymentRequest struct {
	Amount       Amount            `json:"amount"`
	Capture      bool              `json:"capture"`
	Description  string            `json:"description"`
	Confirmation Confirmation      `json:"confirmation"`
	Metadata     map[string]string `json:"metadata"` // для user_uid, plan_type и др.
}

// CreatePaymentResponse ответ шлюза на создание платежа.
type CreatePaymentResponse struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	Amount       Amount            `json:"amount"`
	Confirmation Confirmation      `json:"confirmation"`
	Metadata     map[string]string `json:"metadata"`
}

// PaymentInfo текущее состояние платежа на стороне шлюза.
type PaymentInfo struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	Amount        Amount `json:"amount"`
	TransactionID string `json:"transaction_id"`
}
