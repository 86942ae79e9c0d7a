package jobs

import (
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/require"

	"github.com/mandalbook/mandalbook/pkg/localdate"
)

func TestZonedSchedule_MidnightInZone(t *testing.T) {
	t.Parallel()

	sched, err := cron.ParseStandard("0 0 * * *")
	require.NoError(t, err)

	ist := localdate.IST()
	z := zonedSchedule{schedule: sched, loc: ist}

	// 18:00 IST on Jan 15 → next fire is midnight IST on Jan 16, even
	// when the input time is expressed in UTC.
	at := time.Date(2024, time.January, 15, 12, 30, 0, 0, time.UTC) // 18:00 IST
	next := z.Next(at)

	require.Equal(t, localdate.Date{Year: 2024, Month: time.January, Day: 16}, localdate.At(next, ist))
	require.Equal(t, 0, next.In(ist).Hour())
	require.Equal(t, 0, next.In(ist).Minute())
}

func TestZonedSchedule_NilLocationPassesThrough(t *testing.T) {
	t.Parallel()

	sched, err := cron.ParseStandard("0 0 * * *")
	require.NoError(t, err)

	z := zonedSchedule{schedule: sched}
	at := time.Date(2024, time.January, 15, 12, 30, 0, 0, time.UTC)
	require.Equal(t, sched.Next(at), z.Next(at))
}
