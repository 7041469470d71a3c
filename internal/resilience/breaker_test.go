package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(cfg Config) (*Breaker, *clock) {
	clk := &clock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	b := NewBreaker("test", cfg)
	b.now = clk.Now
	return b, clk
}

func fail() error    { return errBoom }
func succeed() error { return nil }

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b, _ := newTestBreaker(Config{FailureThreshold: 3, RecoveryTimeout: time.Minute, SuccessThreshold: 1})

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, b.Call(fail), errBoom)
	}
	assert.Equal(t, StateOpen, b.State())

	called := false
	err := b.Call(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b, _ := newTestBreaker(Config{FailureThreshold: 2})

	assert.Error(t, b.Call(fail))
	assert.NoError(t, b.Call(succeed))
	assert.Error(t, b.Call(fail))
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, 1, b.Stats()["failures"])
}

func TestBreakerRecovery(t *testing.T) {
	tests := []struct {
		name      string
		trial     []func() error
		wantState State
	}{
		{"closes after successes", []func() error{succeed, succeed}, StateClosed},
		{"stays half open", []func() error{succeed}, StateHalfOpen},
		{"reopens on failure", []func() error{fail}, StateOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, clk := newTestBreaker(Config{FailureThreshold: 1, RecoveryTimeout: 30 * time.Second, SuccessThreshold: 2})
			require.Error(t, b.Call(fail))
			require.Equal(t, StateOpen, b.State())

			clk.Advance(10 * time.Second)
			assert.ErrorIs(t, b.Call(succeed), ErrOpen)

			clk.Advance(20 * time.Second)
			for _, fn := range tt.trial {
				_ = b.Call(fn)
			}
			assert.Equal(t, tt.wantState, b.State())
		})
	}
}

func TestBreakerReset(t *testing.T) {
	b, _ := newTestBreaker(Config{FailureThreshold: 1})
	require.Error(t, b.Call(fail))
	require.Equal(t, StateOpen, b.State())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.NoError(t, b.Call(succeed))
	assert.Equal(t, map[string]any{"name": "test", "state": "closed", "failures": 0}, b.Stats())
}

func TestDefaults(t *testing.T) {
	b := NewBreaker("redis", Config{})
	assert.Equal(t, DefaultConfig(), b.config)
	assert.Equal(t, "half_open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(9).String())
}
