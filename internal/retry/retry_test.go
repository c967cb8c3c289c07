package retry

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSleep collects requested delays instead of sleeping.
type recordingSleep struct {
	delays []time.Duration
}

func (s *recordingSleep) sleep(d time.Duration) {
	s.delays = append(s.delays, d)
}

// TestNew_InvalidArguments verifies that a bad policy is rejected at
// construction, before the predicate could ever run.
func TestNew_InvalidArguments(t *testing.T) {
	tests := []struct {
		name  string
		tries int
		delay time.Duration
	}{
		{name: "negative tries", tries: -1, delay: time.Second},
		{name: "zero delay", tries: 3, delay: 0},
		{name: "negative delay", tries: 3, delay: -time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New(tt.tries, tt.delay)
			require.Error(t, err)
			assert.Nil(t, r)
			assert.True(t, errors.Is(err, ErrInvalidArgument))
		})
	}
}

// TestDo_AlwaysFalse checks that an always-failing predicate runs exactly
// tries+1 times with one sleep before each retry.
func TestDo_AlwaysFalse(t *testing.T) {
	for _, tries := range []int{0, 1, 4} {
		rec := &recordingSleep{}
		r, err := New(tries, 250*time.Millisecond, WithSleep(rec.sleep))
		require.NoError(t, err)

		calls := 0
		ok := r.Do(func() bool {
			calls++
			return false
		})

		assert.False(t, ok)
		assert.Equal(t, tries+1, calls, "tries=%d", tries)
		assert.Len(t, rec.delays, tries)
		for _, d := range rec.delays {
			assert.Equal(t, 250*time.Millisecond, d)
		}
	}
}

// TestDo_SucceedsOnKthCall checks that the predicate stops being called as
// soon as it returns true.
func TestDo_SucceedsOnKthCall(t *testing.T) {
	const tries = 4
	for k := 1; k <= tries+1; k++ {
		rec := &recordingSleep{}
		r, err := New(tries, time.Second, WithSleep(rec.sleep))
		require.NoError(t, err)

		calls := 0
		ok := r.Do(func() bool {
			calls++
			return calls == k
		})

		assert.True(t, ok, "k=%d", k)
		assert.Equal(t, k, calls)
		assert.Len(t, rec.delays, k-1)
	}
}

// TestWrap verifies that the decorated function re-runs the whole policy
// on every call.
func TestWrap(t *testing.T) {
	rec := &recordingSleep{}
	r, err := New(2, time.Second, WithSleep(rec.sleep))
	require.NoError(t, err)

	calls := 0
	wrapped := r.Wrap(func() bool {
		calls++
		return false
	})

	assert.False(t, wrapped())
	assert.False(t, wrapped())
	assert.Equal(t, 6, calls)
}

// TestDo_LiteralRetrier verifies that a Retrier built without New still
// sleeps between attempts instead of panicking.
func TestDo_LiteralRetrier(t *testing.T) {
	r := &Retrier{Tries: 2, Delay: time.Millisecond}

	calls := 0
	ok := r.Do(func() bool {
		calls++
		return calls == 3
	})

	assert.True(t, ok)
	assert.Equal(t, 3, calls)
}

func TestFloorTries(t *testing.T) {
	assert.Equal(t, 2, FloorTries(2.9))
	assert.Equal(t, 0, FloorTries(0.4))
	assert.Equal(t, -1, FloorTries(-0.5))
	assert.Equal(t, -1, FloorTries(math.NaN()))

	_, err := New(FloorTries(-0.5), time.Second)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

// TestDoContext_Cancelled verifies that a cancelled context interrupts the
// wait between attempts.
func TestDoContext_Cancelled(t *testing.T) {
	r, err := New(10, time.Hour)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	ok, err := r.DoContext(ctx, func() bool {
		calls++
		cancel()
		return false
	})

	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDoContext_Success(t *testing.T) {
	r, err := New(3, time.Millisecond)
	require.NoError(t, err)

	calls := 0
	ok, err := r.DoContext(context.Background(), func() bool {
		calls++
		return calls == 2
	})

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, calls)
}
