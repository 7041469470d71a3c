// Package payment tracks manual QR-code payment orders.
package payment

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ZanzyTHEbar/paper-odds/internal/database"
)

// OrderTTL is how long a pending order stays payable
const OrderTTL = 30 * time.Minute

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrInvalidTransition = errors.New("order is not pending")
)

// Repository is the storage the service needs. *database.Repository satisfies it.
type Repository interface {
	CreateOrder(o *database.PaymentOrder) error
	GetOrder(id string) (*database.PaymentOrder, error)
	UpdateOrderStatus(id string, status database.OrderStatus, paidAt *time.Time) error
	ListOrders(limit int) ([]database.PaymentOrder, error)
}

// Stats summarizes orders for the admin dashboard
type Stats struct {
	TotalOrders        int     `json:"total_orders"`
	SuccessfulPayments int     `json:"successful_payments"`
	TotalRevenue       float64 `json:"total_revenue"`
	TodayOrders        int     `json:"today_orders"`
	TodayRevenue       float64 `json:"today_revenue"`
	SuccessRate        float64 `json:"success_rate"`
}

// Service manages the order lifecycle: pending, then success, failed or expired
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a payment service
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Create opens a pending order
func (s *Service) Create(amount float64, description string) (*database.PaymentOrder, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	o := database.NewPaymentOrder(amount, description, s.now(), OrderTTL)
	if err := s.repo.CreateOrder(o); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	slog.Info("Payment order created", "order_id", o.ID, "amount", amount)
	return o, nil
}

// Check returns the order, marking it expired once a pending order passes ExpiresAt
func (s *Service) Check(id string) (*database.PaymentOrder, error) {
	o, err := s.get(id)
	if err != nil {
		return nil, err
	}

	if o.Status == database.StatusPending && s.now().After(o.ExpiresAt) {
		err := s.repo.UpdateOrderStatus(id, database.StatusExpired, nil)
		if errors.Is(err, database.ErrNotPending) {
			return s.get(id)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to expire order: %w", err)
		}
		o.Status = database.StatusExpired
		slog.Info("Payment order expired", "order_id", id)
	}
	return o, nil
}

// Confirm marks a pending order as paid
func (s *Service) Confirm(id string) (*database.PaymentOrder, error) {
	return s.settle(id, database.StatusSuccess)
}

// Fail marks a pending order as failed
func (s *Service) Fail(id string) (*database.PaymentOrder, error) {
	return s.settle(id, database.StatusFailed)
}

func (s *Service) settle(id string, status database.OrderStatus) (*database.PaymentOrder, error) {
	o, err := s.Check(id)
	if err != nil {
		return nil, err
	}
	if o.Status != database.StatusPending {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTransition, o.Status)
	}

	var paidAt *time.Time
	if status == database.StatusSuccess {
		t := s.now().UTC()
		paidAt = &t
	}
	if err := s.repo.UpdateOrderStatus(id, status, paidAt); err != nil {
		if errors.Is(err, database.ErrNotPending) {
			return nil, fmt.Errorf("%w: settled concurrently", ErrInvalidTransition)
		}
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	o.Status = status
	o.PaidAt = paidAt
	slog.Info("Payment order settled", "order_id", id, "status", status)
	return o, nil
}

// List returns the newest orders
func (s *Service) List(limit int) ([]database.PaymentOrder, error) {
	return s.repo.ListOrders(limit)
}

// Stats aggregates all orders. "Today" is the calendar day of now in now's location.
func (s *Service) Stats(now time.Time) (Stats, error) {
	orders, err := s.repo.ListOrders(0)
	if err != nil {
		return Stats{}, err
	}

	y, m, d := now.Date()
	var st Stats
	for _, o := range orders {
		st.TotalOrders++
		oy, om, od := o.CreatedAt.In(now.Location()).Date()
		today := oy == y && om == m && od == d
		if today {
			st.TodayOrders++
		}
		if o.Status == database.StatusSuccess {
			st.SuccessfulPayments++
			st.TotalRevenue += o.Amount
			if today {
				st.TodayRevenue += o.Amount
			}
		}
	}
	if st.TotalOrders > 0 {
		st.SuccessRate = float64(st.SuccessfulPayments) / float64(st.TotalOrders)
	}
	return st, nil
}

func (s *Service) get(id string) (*database.PaymentOrder, error) {
	o, err := s.repo.GetOrder(id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return o, nil
}
