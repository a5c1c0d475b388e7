package models

import "time"

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Payment is keyed by the provider's payment id. Status only moves from
// pending to paid or from pending to failed.
type Payment struct {
	ID        uint          `json:"id" gorm:"primaryKey"`
	PaymentID string        `json:"payment_id" gorm:"uniqueIndex;not null"`
	UserID    int64         `json:"user_id" gorm:"not null;index"`
	Amount    int64         `json:"amount" gorm:"not null"`
	Currency  string        `json:"currency" gorm:"not null;default:'RUB'"`
	Status    PaymentStatus `json:"status" gorm:"not null"`
	CreatedAt time.Time     `json:"created_at"`
	ExpiresAt *time.Time    `json:"expires_at,omitempty"`
}
