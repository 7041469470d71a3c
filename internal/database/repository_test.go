package database

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db)
}

func TestNewDBCreatesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	db, err := NewDB(dir)
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(filepath.Join(dir, FileName))
	assert.NoError(t, err)

	stats := db.GetPoolStats()
	assert.Equal(t, 8, stats["max_open_connections"])
}

func TestNewDBIsReopenable(t *testing.T) {
	dir := t.TempDir()
	db, err := NewDB(dir)
	require.NoError(t, err)
	repo := NewRepository(db)
	require.NoError(t, repo.CreateOrder(NewPaymentOrder(1, "first", time.Now(), time.Minute)))
	require.NoError(t, db.Close())

	db, err = NewDB(dir)
	require.NoError(t, err)
	defer db.Close()
	orders, err := NewRepository(db).ListOrders(0)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestOrderLifecycle(t *testing.T) {
	repo := setupRepo(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	o := NewPaymentOrder(0.2, "prediction unlock", now, 30*time.Minute)
	require.NoError(t, repo.CreateOrder(o))

	got, err := repo.GetOrder(o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
	assert.Equal(t, 0.2, got.Amount)
	assert.Equal(t, "prediction unlock", got.Description)
	assert.Equal(t, StatusPending, got.Status)
	assert.True(t, now.Equal(got.CreatedAt))
	assert.True(t, now.Add(30*time.Minute).Equal(got.ExpiresAt))
	assert.Nil(t, got.PaidAt)

	paid := now.Add(5 * time.Minute)
	require.NoError(t, repo.UpdateOrderStatus(o.ID, StatusSuccess, &paid))

	got, err = repo.GetOrder(o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, got.Status)
	require.NotNil(t, got.PaidAt)
	assert.True(t, paid.Equal(*got.PaidAt))

	err = repo.UpdateOrderStatus(o.ID, StatusFailed, nil)
	assert.ErrorIs(t, err, ErrNotPending)
	got, err = repo.GetOrder(o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, got.Status)
}

func TestOrderNotFound(t *testing.T) {
	repo := setupRepo(t)

	_, err := repo.GetOrder("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	err = repo.UpdateOrderStatus("missing", StatusFailed, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListOrders(t *testing.T) {
	repo := setupRepo(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var ids []string
	for i := 0; i < 3; i++ {
		o := NewPaymentOrder(float64(i+1), "order", base.Add(time.Duration(i)*time.Hour), time.Minute)
		require.NoError(t, repo.CreateOrder(o))
		ids = append(ids, o.ID)
	}

	all, err := repo.ListOrders(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID)
	assert.Equal(t, ids[0], all[2].ID)

	limited, err := repo.ListOrders(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestPredictionLogs(t *testing.T) {
	repo := setupRepo(t)

	n, err := repo.CountPredictions()
	require.NoError(t, err)
	assert.Zero(t, n)

	l := NewPredictionLog([]float64{6, 8, 5}, "203.0.113.7")
	l.AvgScore = 19.0 / 3.0
	l.Probability = 0.87
	l.Rule = "high_average"
	l.Method = "rule_threshold_with_historical_ranking"
	l.ReferenceYear = "2024"
	l.RankInAll = 120
	l.RankInAccepted = 40
	require.NoError(t, repo.LogPrediction(l))
	require.NoError(t, repo.LogPrediction(NewPredictionLog([]float64{3}, "")))

	n, err = repo.CountPredictions()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	recent, err := repo.RecentPredictions(10)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	var found bool
	for _, r := range recent {
		if r.ID == l.ID {
			found = true
			assert.Equal(t, []float64{6, 8, 5}, r.Scores)
			assert.Equal(t, "high_average", r.Rule)
			assert.Equal(t, "2024", r.ReferenceYear)
			assert.Equal(t, 120, r.RankInAll)
		}
	}
	assert.True(t, found)
}
