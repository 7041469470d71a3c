package database

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of a payment order
type OrderStatus string

const (
	StatusPending OrderStatus = "pending"
	StatusSuccess OrderStatus = "success"
	StatusFailed  OrderStatus = "failed"
	StatusExpired OrderStatus = "expired"
)

// PaymentOrder is a manual QR-code payment awaiting confirmation
type PaymentOrder struct {
	ID          string      `json:"order_id" db:"id"`
	Amount      float64     `json:"amount" db:"amount"`
	Description string      `json:"description" db:"description"`
	Status      OrderStatus `json:"status" db:"status"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	ExpiresAt   time.Time   `json:"expires_at" db:"expires_at"`
	PaidAt      *time.Time  `json:"paid_at,omitempty" db:"paid_at"`
}

// PredictionLog records one served prediction
type PredictionLog struct {
	ID             string    `json:"id" db:"id"`
	Scores         []float64 `json:"scores" db:"scores"`
	AvgScore       float64   `json:"avg_score" db:"avg_score"`
	Probability    float64   `json:"probability" db:"probability"`
	Rule           string    `json:"rule" db:"rule"`
	Method         string    `json:"method" db:"method"`
	ReferenceYear  string    `json:"reference_year" db:"reference_year"`
	RankInAll      int       `json:"rank_in_all" db:"rank_in_all"`
	RankInAccepted int       `json:"rank_in_accepted" db:"rank_in_accepted"`
	IPAddress      string    `json:"-" db:"ip_address"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// NewPaymentOrder creates a pending order expiring after ttl
func NewPaymentOrder(amount float64, description string, now time.Time, ttl time.Duration) *PaymentOrder {
	now = now.UTC()
	return &PaymentOrder{
		ID:          uuid.New().String(),
		Amount:      amount,
		Description: description,
		Status:      StatusPending,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
}

// NewPredictionLog creates a log entry with a generated ID
func NewPredictionLog(scores []float64, ipAddress string) *PredictionLog {
	return &PredictionLog{
		ID:        uuid.New().String(),
		Scores:    append([]float64(nil), scores...),
		IPAddress: ipAddress,
		CreatedAt: time.Now().UTC(),
	}
}
