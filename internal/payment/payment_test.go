package payment

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/paper-odds/internal/database"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func setupService(t *testing.T) (*Service, *clock) {
	t.Helper()
	db, err := database.NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	c := &clock{t: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)}
	svc := NewService(database.NewRepository(db))
	svc.now = c.now
	return svc, c
}

func TestCreate(t *testing.T) {
	svc, c := setupService(t)

	o, err := svc.Create(0.2, "unlock")
	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, database.StatusPending, o.Status)
	assert.True(t, c.t.Add(OrderTTL).Equal(o.ExpiresAt))

	for _, amount := range []float64{0, -1} {
		_, err := svc.Create(amount, "bad")
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}
}

func TestCheck(t *testing.T) {
	svc, c := setupService(t)
	o, err := svc.Create(1, "")
	require.NoError(t, err)

	got, err := svc.Check(o.ID)
	require.NoError(t, err)
	assert.Equal(t, database.StatusPending, got.Status)

	c.t = c.t.Add(OrderTTL + time.Second)
	got, err = svc.Check(o.ID)
	require.NoError(t, err)
	assert.Equal(t, database.StatusExpired, got.Status)

	// expiry is persisted
	c.t = c.t.Add(-time.Hour)
	got, err = svc.Check(o.ID)
	require.NoError(t, err)
	assert.Equal(t, database.StatusExpired, got.Status)

	_, err = svc.Check("nope")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestConfirmAndFail(t *testing.T) {
	svc, c := setupService(t)

	paid, err := svc.Create(2, "")
	require.NoError(t, err)
	got, err := svc.Confirm(paid.ID)
	require.NoError(t, err)
	assert.Equal(t, database.StatusSuccess, got.Status)
	require.NotNil(t, got.PaidAt)
	assert.True(t, c.t.Equal(*got.PaidAt))

	_, err = svc.Confirm(paid.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = svc.Fail(paid.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	failed, err := svc.Create(2, "")
	require.NoError(t, err)
	got, err = svc.Fail(failed.ID)
	require.NoError(t, err)
	assert.Equal(t, database.StatusFailed, got.Status)
	assert.Nil(t, got.PaidAt)

	expired, err := svc.Create(2, "")
	require.NoError(t, err)
	c.t = c.t.Add(OrderTTL + time.Minute)
	_, err = svc.Confirm(expired.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.Confirm("missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestStats(t *testing.T) {
	svc, c := setupService(t)

	yesterday := c.t
	o1, err := svc.Create(5, "")
	require.NoError(t, err)
	_, err = svc.Confirm(o1.ID)
	require.NoError(t, err)

	c.t = yesterday.Add(24 * time.Hour)
	o2, err := svc.Create(3, "")
	require.NoError(t, err)
	_, err = svc.Confirm(o2.ID)
	require.NoError(t, err)
	_, err = svc.Create(7, "")
	require.NoError(t, err)

	st, err := svc.Stats(c.t)
	require.NoError(t, err)
	assert.Equal(t, 3, st.TotalOrders)
	assert.Equal(t, 2, st.SuccessfulPayments)
	assert.Equal(t, 8.0, st.TotalRevenue)
	assert.Equal(t, 2, st.TodayOrders)
	assert.Equal(t, 3.0, st.TodayRevenue)
	assert.InDelta(t, 2.0/3.0, st.SuccessRate, 1e-9)
}

func TestStatsEmpty(t *testing.T) {
	svc, c := setupService(t)
	st, err := svc.Stats(c.t)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, st)
}

// staleRepo serves a pending snapshot of an order that has since been settled
type staleRepo struct {
	*database.Repository
	snapshot database.PaymentOrder
}

func (r staleRepo) GetOrder(id string) (*database.PaymentOrder, error) {
	o := r.snapshot
	return &o, nil
}

func TestSettleRejectsOrderSettledAfterRead(t *testing.T) {
	db, err := database.NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := database.NewRepository(db)

	svc := NewService(repo)
	o, err := svc.Create(2, "")
	require.NoError(t, err)
	snapshot := *o

	_, err = svc.Confirm(o.ID)
	require.NoError(t, err)

	stale := NewService(staleRepo{Repository: repo, snapshot: snapshot})
	_, err = stale.Fail(o.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, err := repo.GetOrder(o.ID)
	require.NoError(t, err)
	assert.Equal(t, database.StatusSuccess, got.Status)
	assert.NotNil(t, got.PaidAt)
}

func TestConcurrentSettleAppliesOnce(t *testing.T) {
	svc, _ := setupService(t)
	o, err := svc.Create(2, "")
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(confirm bool) {
			defer wg.Done()
			settle := svc.Fail
			if confirm {
				settle = svc.Confirm
			}
			if _, err := settle(o.ID); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, ErrInvalidTransition)
			}
		}(i%2 == 0)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
}
