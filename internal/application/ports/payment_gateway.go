// Package ports - PaymentGateway абстрагирует внешний платёжный шлюз.
package ports

import "context"

// CreatePaymentParams - параметры создания платежа в шлюзе.
type CreatePaymentParams struct {
	TransactionID string // Наш order id, он же requestId
	AmountUnits   int64  // Сумма в минимальных единицах валюты (VND)
	OrderInfo     string // Человекочитаемое описание
	ExtraData     []byte // Произвольный JSON, вернётся в callback'е base64-кодированным
}

// CreatePaymentResult - ответ шлюза на создание платежа.
type CreatePaymentResult struct {
	PayURL     string // Redirect URL для участника
	Deeplink   string // Deeplink мобильного приложения шлюза
	QRCodeURL  string
	ResultCode int
	Message    string
}

// CallbackPayload - разобранный и проверенный IPN callback шлюза.
type CallbackPayload struct {
	TransactionID string // orderId
	RequestID     string
	AmountUnits   int64
	ResultCode    int // 0 = success
	Message       string
	PayType       string // qr | webApp | credit | napas
	TransID       int64  // ID транзакции на стороне шлюза
	ExtraData     []byte // Декодированный из base64 JSON
	Raw           []byte // Verbatim тело запроса для аудита
}

// Succeeded reports whether the gateway settled the payment.
func (p CallbackPayload) Succeeded() bool {
	return p.ResultCode == 0
}

// PaymentGateway определяет контракт для работы с платёжным шлюзом.
//
// Реализация: MoMo (infrastructure/gateway/momo).
type PaymentGateway interface {
	// CreatePayment создаёт платёж в шлюзе и возвращает redirect URL.
	CreatePayment(ctx context.Context, params CreatePaymentParams) (*CreatePaymentResult, error)

	// VerifyCallback проверяет HMAC-подпись IPN callback'а и разбирает тело.
	// Возвращает ErrInvalidSignature при несовпадении подписи и
	// ErrMalformedGatewayPayload при битом теле.
	VerifyCallback(body []byte) (*CallbackPayload, error)
}
