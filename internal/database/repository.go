package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a row does not exist
	ErrNotFound = errors.New("record not found")
	// ErrNotPending is returned when an order left the pending state before the update
	ErrNotPending = errors.New("order is no longer pending")
)

// Repository handles database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// CreateOrder inserts a new payment order
func (r *Repository) CreateOrder(o *PaymentOrder) error {
	stmt, err := r.db.GetPreparedStatement("insert_order")
	if err != nil {
		return err
	}

	_, err = stmt.Exec(o.ID, o.Amount, o.Description, string(o.Status), o.CreatedAt, o.ExpiresAt, nullTime(o.PaidAt))
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetOrder returns the order with id, or ErrNotFound
func (r *Repository) GetOrder(id string) (*PaymentOrder, error) {
	stmt, err := r.db.GetPreparedStatement("get_order")
	if err != nil {
		return nil, err
	}

	o, err := scanOrder(stmt.QueryRow(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return o, nil
}

// UpdateOrderStatus moves a pending order to status. The pending check is part
// of the statement, so of two racing updates only one applies; the other gets
// ErrNotPending.
func (r *Repository) UpdateOrderStatus(id string, status OrderStatus, paidAt *time.Time) error {
	stmt, err := r.db.GetPreparedStatement("update_order_status")
	if err != nil {
		return err
	}

	res, err := stmt.Exec(string(status), nullTime(paidAt), id, string(StatusPending))
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if n == 0 {
		if _, err := r.GetOrder(id); err != nil {
			return err
		}
		return ErrNotPending
	}
	return nil
}

// ListOrders returns orders newest first. limit <= 0 returns all of them.
func (r *Repository) ListOrders(limit int) ([]PaymentOrder, error) {
	query := `SELECT id, amount, description, status, created_at, expires_at, paid_at
		FROM payment_orders ORDER BY created_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []PaymentOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// LogPrediction stores a served prediction
func (r *Repository) LogPrediction(l *PredictionLog) error {
	stmt, err := r.db.GetPreparedStatement("insert_prediction_log")
	if err != nil {
		return err
	}

	scores, err := json.Marshal(l.Scores)
	if err != nil {
		return fmt.Errorf("failed to encode scores: %w", err)
	}

	_, err = stmt.Exec(l.ID, string(scores), l.AvgScore, l.Probability, l.Rule, l.Method,
		l.ReferenceYear, l.RankInAll, l.RankInAccepted, l.IPAddress, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to log prediction: %w", err)
	}
	return nil
}

// CountPredictions returns the number of logged predictions
func (r *Repository) CountPredictions() (int64, error) {
	stmt, err := r.db.GetPreparedStatement("count_predictions")
	if err != nil {
		return 0, err
	}

	var n int64
	if err := stmt.QueryRow().Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count predictions: %w", err)
	}
	return n, nil
}

// RecentPredictions returns the latest logged predictions, newest first
func (r *Repository) RecentPredictions(limit int) ([]PredictionLog, error) {
	rows, err := r.db.Query(`
		SELECT id, scores, avg_score, probability, rule, method, reference_year,
			rank_in_all, rank_in_accepted, created_at
		FROM prediction_logs ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	defer rows.Close()

	var logs []PredictionLog
	for rows.Next() {
		var (
			l      PredictionLog
			scores string
			ref    sql.NullString
		)
		if err := rows.Scan(&l.ID, &scores, &l.AvgScore, &l.Probability, &l.Rule, &l.Method,
			&ref, &l.RankInAll, &l.RankInAccepted, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		if err := json.Unmarshal([]byte(scores), &l.Scores); err != nil {
			return nil, fmt.Errorf("failed to decode scores: %w", err)
		}
		l.ReferenceYear = ref.String
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*PaymentOrder, error) {
	var (
		o      PaymentOrder
		status string
		paidAt sql.NullTime
	)
	if err := row.Scan(&o.ID, &o.Amount, &o.Description, &status, &o.CreatedAt, &o.ExpiresAt, &paidAt); err != nil {
		return nil, err
	}
	o.Status = OrderStatus(status)
	if paidAt.Valid {
		t := paidAt.Time
		o.PaidAt = &t
	}
	return &o, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
