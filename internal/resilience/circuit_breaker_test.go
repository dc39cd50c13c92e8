package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errProvider = errors.New("provider unavailable")

func TestBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	b := NewBreaker(Config{Name: "anthropic", FailureThreshold: 3})

	for i := 0; i < 2; i++ {
		require.NoError(t, b.Allow())
		b.Record(errProvider)
	}
	assert.Equal(t, StateClosed, b.State(), "two failures should not trip a threshold of three")

	require.NoError(t, b.Allow())
	b.Record(errProvider)
	assert.Equal(t, StateOpen, b.State())
	assert.ErrorIs(t, b.Allow(), ErrOpen)
}

func TestBreaker_SuccessResetsFailureStreak(t *testing.T) {
	b := NewBreaker(Config{FailureThreshold: 2})

	b.Record(errProvider)
	b.Record(nil)
	b.Record(errProvider)

	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_ProbesAfterCooldown(t *testing.T) {
	b := NewBreaker(Config{FailureThreshold: 1, Cooldown: time.Minute})
	clock := time.Now()
	b.now = func() time.Time { return clock }

	b.Record(errProvider)
	require.Equal(t, StateOpen, b.State())
	require.ErrorIs(t, b.Allow(), ErrOpen)

	clock = clock.Add(2 * time.Minute)
	require.NoError(t, b.Allow(), "cooldown elapsed, a probe should be admitted")
	assert.Equal(t, StateHalfOpen, b.State())

	b.Record(nil)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	b := NewBreaker(Config{FailureThreshold: 1, Cooldown: time.Minute})
	clock := time.Now()
	b.now = func() time.Time { return clock }

	b.Record(errProvider)
	clock = clock.Add(2 * time.Minute)
	require.NoError(t, b.Allow())

	b.Record(errProvider)
	assert.Equal(t, StateOpen, b.State())
	assert.ErrorIs(t, b.Allow(), ErrOpen, "a failed probe restarts the cooldown")
}
