package trip

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTrip_Core tests core Trip functionality
func TestTrip_Core(t *testing.T) {
	context := Context{
		"direction": "forward",
		"center":    4,
	}

	trip := NewTrip(KindNavigation, "cannot resolve slides", context)

	assert.Equal(t, KindNavigation, trip.Kind)
	assert.Equal(t, "cannot resolve slides", trip.Message)
	assert.Equal(t, context, trip.Context)
	assert.Equal(t, Error, trip.Severity)
	assert.WithinDuration(t, time.Now(), trip.Timestamp, time.Second)

	assert.Contains(t, trip.Error(), "cannot resolve slides")
	assert.Contains(t, trip.Error(), "navigation")
	assert.Contains(t, trip.Error(), "error")
}

// TestTrip_Severities tests different severity levels
func TestTrip_Severities(t *testing.T) {
	stumble := NewStumble(KindTimeout, "completion signal missed", nil)
	error_ := NewTrip(KindNavigation, "sequence too short", nil)
	fall := NewFall(KindConfiguration, "no panels", nil)

	assert.Equal(t, Stumble, stumble.Severity)
	assert.Equal(t, Error, error_.Severity)
	assert.Equal(t, Fall, fall.Severity)

	assert.True(t, stumble.CanRecover())
	assert.True(t, error_.CanRecover())
	assert.False(t, fall.CanRecover())

	assert.False(t, stumble.IsFall())
	assert.False(t, error_.IsFall())
	assert.True(t, fall.IsFall())
}

func TestTrip_WrapAndUnwrap(t *testing.T) {
	sentinel := errors.New("sequence too short")
	wrapped := fmt.Errorf("resolve forward: %w", sentinel)

	trip := Wrap(wrapped, KindNavigation, Error, Context{"center": 1})
	assert.ErrorIs(t, trip, sentinel)
	assert.Equal(t, wrapped.Error(), trip.Message)

	var asErr error = fmt.Errorf("outer: %w", trip)
	got, ok := As(asErr)
	require.True(t, ok)
	assert.Same(t, trip, got)

	_, ok = As(sentinel)
	assert.False(t, ok)
}

// TestTrip_Methods tests trip methods
func TestTrip_Methods(t *testing.T) {
	trip := NewTrip(KindGesture, "multi-touch", Context{"pointer": 2})

	trip.WithSeverity(Fall)
	assert.Equal(t, Fall, trip.Severity)

	val, exists := trip.GetContext("pointer")
	assert.True(t, exists)
	assert.Equal(t, 2, val)

	_, exists = trip.GetContext("missing")
	assert.False(t, exists)

	detailed := trip.DetailedString()
	assert.Contains(t, detailed, "multi-touch")
	assert.Contains(t, detailed, "pointer: 2")
}

func TestTrip_Keyvals(t *testing.T) {
	trip := NewTrip(KindNavigation, "x", Context{"b": 2, "a": 1}).WithCause(errors.New("boom"))
	kv := trip.Keyvals()

	require.Len(t, kv, 10)
	assert.Equal(t, []interface{}{"kind", "navigation", "severity", "error", "a", 1, "b", 2}, kv[:8])
	assert.Equal(t, "err", kv[8])
}

// TestHandler_Basic tests basic Handler functionality
func TestHandler_Basic(t *testing.T) {
	handler := NewHandler("carousel", DefaultPolicy())
	assert.False(t, handler.HasFall())
	assert.Contains(t, handler.Summary(), "No issues")

	handler.Record(NewStumble(KindTimeout, "late", nil))
	assert.True(t, handler.HasStumbles())
	assert.False(t, handler.HasTrips())
	assert.False(t, handler.HasFall())

	handler.Record(NewFall(KindConfiguration, "no panels", nil))
	assert.True(t, handler.HasFall())
	assert.Equal(t, 1, handler.Count(KindTimeout))
	assert.Equal(t, 1, handler.Count(KindConfiguration))
	assert.Contains(t, handler.Summary(), "1 trips, 1 stumbles")

	report := handler.DetailedReport()
	assert.Contains(t, report, "Trips:")
	assert.Contains(t, report, "Stumbles:")
}

func TestHandler_Bounded(t *testing.T) {
	handler := NewHandler("carousel", &Policy{MaxStumbles: 3, MaxTrips: 2})

	for i := 0; i < 10; i++ {
		handler.Record(NewStumble(KindTimeout, fmt.Sprintf("late %d", i), nil))
		handler.Record(NewTrip(KindNavigation, fmt.Sprintf("bad %d", i), nil))
	}

	stumbles := handler.GetStumbles()
	require.Len(t, stumbles, 3)
	assert.Equal(t, "late 9", stumbles[2].Message)
	assert.Len(t, handler.GetTrips(), 2)
}

func TestHandler_ConcurrentRecord(t *testing.T) {
	handler := NewHandler("carousel", nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handler.Record(NewStumble(KindTimeout, "late", nil))
		}()
	}
	wg.Wait()

	assert.Len(t, handler.GetStumbles(), 20)
}

// TestSeverity_String tests severity string representation
func TestSeverity_String(t *testing.T) {
	assert.Equal(t, "stumble", Stumble.String())
	assert.Equal(t, "error", Error.String())
	assert.Equal(t, "fall", Fall.String())
	assert.Equal(t, "unknown", Severity(42).String())
}
