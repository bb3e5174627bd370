// Package entities - Payment is one payment-gateway transaction.
// Its transactionId is the idempotency key for gateway callbacks: the
// pending -> completed transition happens at most once per transactionId.
package entities

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Haleralex/gymhub/internal/domain/errors"
	"github.com/Haleralex/gymhub/internal/domain/valueobjects"
)

// PaymentStatus represents the current state of a payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// IsValid checks if the payment status is valid.
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled:
		return true
	default:
		return false
	}
}

// IsFinal returns true if the status is terminal.
func (s PaymentStatus) IsFinal() bool {
	return s != PaymentStatusPending
}

// PromotionSnapshot captures the promotion applied at checkout, frozen on the
// payment so later promotion edits never change what was charged.
type PromotionSnapshot struct {
	PromotionID     uuid.UUID `json:"promotion_id"`
	Name            string    `json:"name"`
	DiscountPercent int       `json:"discount_percent"`
}

// Payment represents one gateway transaction.
type Payment struct {
	id            uuid.UUID
	memberID      uuid.UUID
	packageID     uuid.UUID
	amount        valueobjects.Money
	status        PaymentStatus
	paymentMethod string
	transactionID string // Gateway order id, unique correlation key
	paymentInfo   []byte // Verbatim gateway callback payload (JSON)
	promotion     *PromotionSnapshot
	createdAt     time.Time
	updatedAt     time.Time
	completedAt   *time.Time
}

// NewPayment creates a pending payment keyed to a gateway transaction id.
func NewPayment(memberID, packageID uuid.UUID, amount valueobjects.Money, transactionID string, promotion *PromotionSnapshot) (*Payment, error) {
	if transactionID == "" {
		return nil, errors.ValidationError{
			Field:   "transaction_id",
			Message: "gateway transaction id is required",
		}
	}
	if !amount.IsPositive() {
		return nil, errors.NewBusinessRuleViolation(
			"INVALID_AMOUNT",
			"payment amount must be positive",
			map[string]interface{}{"amount": amount.String()},
		)
	}

	now := time.Now()
	return &Payment{
		id:            uuid.New(),
		memberID:      memberID,
		packageID:     packageID,
		amount:        amount,
		status:        PaymentStatusPending,
		transactionID: transactionID,
		promotion:     promotion,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ReconstructPayment reconstructs a Payment from stored data.
func ReconstructPayment(
	id, memberID, packageID uuid.UUID,
	amount valueobjects.Money,
	status PaymentStatus,
	paymentMethod, transactionID string,
	paymentInfo []byte,
	promotionJSON []byte,
	createdAt, updatedAt time.Time,
	completedAt *time.Time,
) (*Payment, error) {
	var promotion *PromotionSnapshot
	if len(promotionJSON) > 0 {
		promotion = &PromotionSnapshot{}
		if err := json.Unmarshal(promotionJSON, promotion); err != nil {
			return nil, err
		}
	}

	return &Payment{
		id:            id,
		memberID:      memberID,
		packageID:     packageID,
		amount:        amount,
		status:        status,
		paymentMethod: paymentMethod,
		transactionID: transactionID,
		paymentInfo:   paymentInfo,
		promotion:     promotion,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
		completedAt:   completedAt,
	}, nil
}

// Getters

func (p *Payment) ID() uuid.UUID                 { return p.id }
func (p *Payment) MemberID() uuid.UUID           { return p.memberID }
func (p *Payment) PackageID() uuid.UUID          { return p.packageID }
func (p *Payment) Amount() valueobjects.Money    { return p.amount }
func (p *Payment) Status() PaymentStatus         { return p.status }
func (p *Payment) PaymentMethod() string         { return p.paymentMethod }
func (p *Payment) TransactionID() string         { return p.transactionID }
func (p *Payment) PaymentInfo() []byte           { return p.paymentInfo }
func (p *Payment) Promotion() *PromotionSnapshot { return p.promotion }
func (p *Payment) CreatedAt() time.Time          { return p.createdAt }
func (p *Payment) UpdatedAt() time.Time          { return p.updatedAt }
func (p *Payment) CompletedAt() *time.Time       { return p.completedAt }

// PromotionJSON serializes the promotion snapshot for storage.
func (p *Payment) PromotionJSON() ([]byte, error) {
	if p.promotion == nil {
		return nil, nil
	}
	return json.Marshal(p.promotion)
}

// IsCompleted returns true if the payment completed successfully.
func (p *Payment) IsCompleted() bool {
	return p.status == PaymentStatusCompleted
}

// State Machine Transitions

// MarkCompleted transitions pending -> completed, storing the verbatim
// callback payload and the gateway's pay type.
/// Business rule: a payment completes at most once. The repository enforces
// the same rule atomically (status filter on the UPDATE); this method is the
// in-memory twin.
func (p *Payment) MarkCompleted(payType string, rawPayload []byte, now time.Time) error {
	if p.status == PaymentStatusCompleted {
		return errors.ErrPaymentAlreadyCompleted
	}
	if p.status != PaymentStatusPending {
		return errors.NewBusinessRuleViolation(
			"CANNOT_COMPLETE_NON_PENDING_PAYMENT",
			"only pending payments can be completed",
			map[string]interface{}{"currentStatus": p.status},
		)
	}

	p.status = PaymentStatusCompleted
	p.paymentMethod = payType
	p.paymentInfo = rawPayload
	p.completedAt = &now
	p.updatedAt = now
	return nil
}

// MarkFailed records a gateway failure. Replays of a failed callback re-write
// the same terminal state, which is harmless, so no pending guard here.
func (p *Payment) MarkFailed(rawPayload []byte, now time.Time) error {
	if p.status == PaymentStatusCompleted {
		return errors.ErrPaymentAlreadyCompleted
	}

	p.status = PaymentStatusFailed
	p.paymentInfo = rawPayload
	p.updatedAt = now
	return nil
}
