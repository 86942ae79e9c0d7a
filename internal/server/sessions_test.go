package server

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mandalbook/mandalbook/internal/config"
	"github.com/mandalbook/mandalbook/pkg/logger"
)

func testHub(t *testing.T) *SessionHub {
	t.Helper()

	// Long intervals keep the monitors inert for the test's lifetime.
	h := NewSessionHub(nil, nil, config.SessionConfig{
		CheckInterval: time.Hour,
		InitialDelay:  time.Hour,
	}, logger.NewNoop())
	t.Cleanup(func() { _ = h.Close(context.Background()) })
	return h
}

func TestSessionHubReusesEntries(t *testing.T) {
	t.Parallel()

	h := testHub(t)

	first := h.Manager("device-1", "GANESH24")
	second := h.Manager("device-1", "GANESH24")
	require.Same(t, first, second)
	require.Equal(t, 1, h.size())

	h.Manager("device-1", "DIWALI24")
	h.Manager("device-2", "GANESH24")
	require.Equal(t, 3, h.size())
}

// Anonymous traffic mints a fresh device ID per cookieless request, so
// the hub must not grow without bound from entries nobody returns to.
func TestSessionHubEvictsIdleEntries(t *testing.T) {
	t.Parallel()

	h := testHub(t)

	for i := range 50 {
		h.Manager(fmt.Sprintf("drive-by-%d", i), "GANESH24")
	}
	require.Equal(t, 50, h.size())

	h.evictIdle(time.Now().Add(time.Minute))
	require.Equal(t, 0, h.size())

	// An evicted device that comes back gets a fresh entry.
	require.NotNil(t, h.Manager("drive-by-0", "GANESH24"))
	require.Equal(t, 1, h.size())
}

func TestSessionHubEvictionSparesRecentlyTouched(t *testing.T) {
	t.Parallel()

	h := testHub(t)

	h.Manager("stale-device", "GANESH24")
	h.Manager("busy-device", "GANESH24")
	time.Sleep(20 * time.Millisecond)
	cutoff := time.Now()

	// Touching an old entry refreshes it past the cutoff.
	h.Manager("busy-device", "GANESH24")

	h.evictIdle(cutoff)
	require.Equal(t, 1, h.size())
	require.NotNil(t, h.entries["busy-device:GANESH24"])
}

func TestSessionHubStartMonitoringIdempotent(t *testing.T) {
	t.Parallel()

	h := testHub(t)

	h.StartMonitoring("device-1", "GANESH24")
	h.StartMonitoring("device-1", "GANESH24")
	require.Equal(t, 1, h.size())

	// Eviction stops the running monitor without hanging.
	h.evictIdle(time.Now().Add(time.Minute))
	require.Equal(t, 0, h.size())
}

func TestSessionHubRelease(t *testing.T) {
	t.Parallel()

	h := testHub(t)

	h.StartMonitoring("device-1", "GANESH24")
	h.Release("device-1", "GANESH24")
	require.Equal(t, 0, h.size())

	// Releasing an unknown pair is a no-op.
	h.Release("device-1", "GANESH24")
}

func TestSessionHubCloseIdempotent(t *testing.T) {
	t.Parallel()

	h := testHub(t)
	h.StartMonitoring("device-1", "GANESH24")

	require.NoError(t, h.Close(context.Background()))
	require.Equal(t, 0, h.size())
	require.NoError(t, h.Close(context.Background()))
}
