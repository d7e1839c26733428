package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buixuanquoc47/pomoteam/internal/metrics"
	"github.com/buixuanquoc47/pomoteam/internal/store"
)

func newTestAggregator(t *testing.T) (*Aggregator, *store.Store) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "report-test.db")
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	st, err := store.New(dbPath, logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewAggregator(st, metrics.New(), logger), st
}

func seedMember(t *testing.T, st *store.Store, email, name string) *store.User {
	t.Helper()
	team, err := st.EnsureTeam("Test Team")
	require.NoError(t, err)
	u := &store.User{Email: email, Name: name, PasswordHash: "x", Role: store.RoleMember, TeamID: team.ID}
	require.NoError(t, st.CreateUser(u))
	return u
}

func addClosedSession(t *testing.T, st *store.Store, userID int64, start time.Time, minutes int, completed bool) {
	t.Helper()
	fs := &store.FocusSession{UserID: userID, StartTime: start.UnixMilli(), PlannedMinutes: 25}
	require.NoError(t, st.CreateSession(fs))
	require.NoError(t, st.CloseSession(store.CloseSessionParams{
		SessionID:     fs.ID,
		EndTime:       start.Add(time.Duration(minutes) * time.Minute).UnixMilli(),
		ActualMinutes: minutes,
		WasCompleted:  completed,
	}))
}

func TestUserReport_SumsWindowedSessions(t *testing.T) {
	agg, st := newTestAggregator(t)
	u := seedMember(t, st, "alice@example.com", "Alice")

	from := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 28, 23, 59, 59, 0, time.UTC)

	addClosedSession(t, st, u.ID, from, 25, true)
	addClosedSession(t, st, u.ID, from.Add(26*time.Hour), 25, true)
	addClosedSession(t, st, u.ID, from.Add(48*time.Hour), 10, false)

	// One millisecond before the window, excluded entirely.
	addClosedSession(t, st, u.ID, from.Add(-time.Millisecond), 100, true)
	// After the window, also excluded.
	addClosedSession(t, st, u.ID, to.Add(time.Second), 100, true)

	stats, err := agg.UserReport(u.ID, Explicit(from, to))
	require.NoError(t, err)
	assert.Equal(t, u.ID, stats.UserID)
	assert.Equal(t, 60, stats.FocusMinutes)
	assert.Equal(t, 2, stats.Pomodoros)
	assert.Equal(t, 0, stats.TasksDone)
	assert.Equal(t, 0.0, stats.EstimateAccuracyPct)
}

func TestUserReport_CountsSessionByStartTime(t *testing.T) {
	agg, st := newTestAggregator(t)
	u := seedMember(t, st, "alice@example.com", "Alice")

	from := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 24, 23, 59, 59, 0, time.UTC)

	// Starts inside the window, finishes well outside: counts fully.
	addClosedSession(t, st, u.ID, to.Add(-time.Minute), 90, true)

	stats, err := agg.UserReport(u.ID, Explicit(from, to))
	require.NoError(t, err)
	assert.Equal(t, 90, stats.FocusMinutes)
	assert.Equal(t, 1, stats.Pomodoros)
}

func TestUserReport_EstimateAccuracy(t *testing.T) {
	agg, st := newTestAggregator(t)
	u := seedMember(t, st, "alice@example.com", "Alice")

	// Two done tasks: estimates 4+2, actuals 3+2 via the increment path.
	t1 := &store.Task{AssigneeID: u.ID, Title: "one", EstimatePomos: 4}
	require.NoError(t, st.CreateTask(t1))
	t2 := &store.Task{AssigneeID: u.ID, Title: "two", EstimatePomos: 2}
	require.NoError(t, st.CreateTask(t2))
	for i := 0; i < 3; i++ {
		require.NoError(t, st.MarkTaskDone(t1.ID))
	}
	for i := 0; i < 2; i++ {
		require.NoError(t, st.MarkTaskDone(t2.ID))
	}

	w := Explicit(time.Unix(0, 0), time.Now())
	stats, err := agg.UserReport(u.ID, w)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TasksDone)
	// 5 actual over 6 estimated, rounded to one decimal.
	assert.Equal(t, 83.3, stats.EstimateAccuracyPct)
}

func TestUserReport_AccuracyBalancesAcrossTasks(t *testing.T) {
	agg, st := newTestAggregator(t)
	u := seedMember(t, st, "alice@example.com", "Alice")

	// Overrun on one task cancels an underrun on the other: estimates 4+6,
	// actuals 5+5.
	t1 := &store.Task{AssigneeID: u.ID, Title: "one", EstimatePomos: 4}
	require.NoError(t, st.CreateTask(t1))
	t2 := &store.Task{AssigneeID: u.ID, Title: "two", EstimatePomos: 6}
	require.NoError(t, st.CreateTask(t2))
	for i := 0; i < 5; i++ {
		require.NoError(t, st.MarkTaskDone(t1.ID))
		require.NoError(t, st.MarkTaskDone(t2.ID))
	}

	stats, err := agg.UserReport(u.ID, Explicit(time.Unix(0, 0), time.Now()))
	require.NoError(t, err)
	assert.Equal(t, 100.0, stats.EstimateAccuracyPct)
}

func TestUserReport_OverrunAccuracyExceedsHundred(t *testing.T) {
	agg, st := newTestAggregator(t)
	u := seedMember(t, st, "alice@example.com", "Alice")

	task := &store.Task{AssigneeID: u.ID, Title: "slog", EstimatePomos: 5}
	require.NoError(t, st.CreateTask(task))
	for i := 0; i < 6; i++ {
		require.NoError(t, st.MarkTaskDone(task.ID))
	}

	stats, err := agg.UserReport(u.ID, Explicit(time.Unix(0, 0), time.Now()))
	require.NoError(t, err)
	assert.Equal(t, 120.0, stats.EstimateAccuracyPct)
}

func TestUserReport_ZeroEstimateReportsZero(t *testing.T) {
	agg, st := newTestAggregator(t)
	u := seedMember(t, st, "alice@example.com", "Alice")

	task := &store.Task{AssigneeID: u.ID, Title: "unestimated"}
	require.NoError(t, st.CreateTask(task))
	require.NoError(t, st.MarkTaskDone(task.ID))

	stats, err := agg.UserReport(u.ID, Explicit(time.Unix(0, 0), time.Now()))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TasksDone)
	assert.Equal(t, 0.0, stats.EstimateAccuracyPct)
}

func TestTeamReport_OneRowPerMember(t *testing.T) {
	agg, st := newTestAggregator(t)
	alice := seedMember(t, st, "alice@example.com", "Alice")
	bob := seedMember(t, st, "bob@example.com", "")

	from := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	addClosedSession(t, st, alice.ID, from.Add(time.Hour), 25, true)
	addClosedSession(t, st, bob.ID, from.Add(2*time.Hour), 50, false)

	rows, err := agg.TeamReport(alice.TeamID, Explicit(from, from.Add(24*time.Hour)))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Alice", rows[0].Name)
	assert.Equal(t, 25, rows[0].FocusMinutes)
	assert.Equal(t, 1, rows[0].Pomodoros)

	// Name falls back to the email local part.
	assert.Equal(t, "bob", rows[1].Name)
	assert.Equal(t, 50, rows[1].FocusMinutes)
	assert.Equal(t, 0, rows[1].Pomodoros)
}

func TestResolveWindow_ExplicitBeatsPreset(t *testing.T) {
	agg, _ := newTestAggregator(t)
	agg.now = func() time.Time { return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC) }

	from := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 7, 31, 23, 59, 59, 0, time.UTC)

	w := agg.ResolveWindow(PresetDay, &from, &to)
	assert.Equal(t, from, w.From)
	assert.Equal(t, to, w.To)

	// Without explicit bounds the preset applies at the server clock.
	w = agg.ResolveWindow(PresetDay, nil, nil)
	assert.Equal(t, time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC), w.From)
}
