// Package dtos - Payment DTOs для платежей и callback'ов шлюза.
package dtos

import "time"

// ============================================
// Commands (Write операции)
// ============================================

// InitiatePaymentCommand - команда создания платежа за пакет.
type InitiatePaymentCommand struct {
	MemberID  string `json:"member_id" validate:"required,uuid"`
	PackageID string `json:"package_id" validate:"required,uuid"`
}

// ReconcileCallbackCommand - сырое тело IPN callback'а шлюза.
// Подпись проверяется на уровне gateway-адаптера, поэтому здесь только байты.
type ReconcileCallbackCommand struct {
	Body []byte
}

// ============================================
// Queries (Read операции)
// ============================================

// GetPaymentStatusQuery - запрос статуса платежа.
// Пустой MemberID означает запрос от персонала: проверка владельца пропускается.
type GetPaymentStatusQuery struct {
	PaymentID string `json:"payment_id" validate:"required,uuid"`
	MemberID  string `json:"member_id" validate:"omitempty,uuid"`
}

// ============================================
// Responses
// ============================================

// InitiatePaymentDTO - результат создания платежа: ссылки для оплаты.
type InitiatePaymentDTO struct {
	PaymentID     string `json:"payment_id"`
	TransactionID string `json:"transaction_id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	PayURL        string `json:"pay_url"`
	Deeplink      string `json:"deeplink,omitempty"`
	QRCodeURL     string `json:"qr_code_url,omitempty"`
}

// PaymentDTO - представление платежа для API.
// Для завершённого платежа Membership содержит сводку активированного
// абонемента, чтобы фронтенду не требовался второй запрос после редиректа.
type PaymentDTO struct {
	ID            string                `json:"id"`
	MemberID      string                `json:"member_id"`
	PackageID     string                `json:"package_id"`
	Amount        int64                 `json:"amount"`
	Currency      string                `json:"currency"`
	Status        string                `json:"status"`
	PaymentMethod string                `json:"payment_method,omitempty"`
	TransactionID string                `json:"transaction_id"`
	Promotion     *PromotionSnapshotDTO `json:"promotion,omitempty"`
	Membership    *MembershipSummaryDTO `json:"membership,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	CompletedAt   *time.Time            `json:"completed_at,omitempty"`
}

// MembershipSummaryDTO - краткая сводка абонемента внутри платежа.
type MembershipSummaryDTO struct {
	ID                string     `json:"id"`
	PackageID         string     `json:"package_id"`
	Status            string     `json:"status"`
	StartDate         *time.Time `json:"start_date,omitempty"`
	EndDate           *time.Time `json:"end_date,omitempty"`
	AvailableSessions int        `json:"available_sessions"`
}

// PromotionSnapshotDTO - акция, применённая при оформлении платежа.
type PromotionSnapshotDTO struct {
	PromotionID     string `json:"promotion_id"`
	Name            string `json:"name"`
	DiscountPercent int    `json:"discount_percent"`
}

// ReconcileResultDTO - итог сверки callback'а. Возвращается в лог и метрики,
// шлюз в любом случае получает 204.
type ReconcileResultDTO struct {
	TransactionID string `json:"transaction_id"`
	Outcome       string `json:"outcome"` // completed | failed | replay | unknown_transaction
}
