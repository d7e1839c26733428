// Package report derives point-in-time statistics from session records and
// the task ledger. Reports are pure views: computed fresh on every request,
// never stored or cached.
package report

import (
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/buixuanquoc47/pomoteam/internal/metrics"
	"github.com/buixuanquoc47/pomoteam/internal/store"
)

// UserStats is the per-user reporting snapshot.
type UserStats struct {
	UserID              int64   `json:"user_id"`
	Name                string  `json:"name,omitempty"`
	FocusMinutes        int     `json:"focus_minutes"`
	Pomodoros           int     `json:"pomos"`
	TasksDone           int     `json:"tasks_done"`
	EstimateAccuracyPct float64 `json:"estimate_accuracy_pct"`
}

// Aggregator computes user and team reports.
type Aggregator struct {
	store   *store.Store
	metrics *metrics.Metrics
	logger  zerolog.Logger
	now     func() time.Time
}

// NewAggregator creates a reporting aggregator.
func NewAggregator(st *store.Store, m *metrics.Metrics, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		store:   st,
		metrics: m,
		logger:  logger.With().Str("component", "report").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ResolveWindow picks the report window: explicit bounds when both are
// given (used verbatim, inclusive upper bound), otherwise the preset
// anchored at the current server instant.
func (a *Aggregator) ResolveWindow(preset Preset, from, to *time.Time) Window {
	if from != nil && to != nil {
		return Explicit(*from, *to)
	}
	return Resolve(preset, a.now())
}

// UserReport computes one user's stats for the window.
//
// focus_minutes and pomos are windowed by session start time: a session
// that started inside the window counts fully even if it finished after,
// and one that started before is excluded entirely. tasks_done and the
// estimate accuracy look at the tasks' current status, unwindowed.
func (a *Aggregator) UserReport(userID int64, w Window) (UserStats, error) {
	start := time.Now()
	defer func() {
		a.metrics.ObserveReportDuration("user", time.Since(start).Seconds())
	}()
	return a.userStats(userID, w)
}

// TeamReport computes stats for every member of the team, one row per
// user, no cross-user totals.
func (a *Aggregator) TeamReport(teamID int64, w Window) ([]UserStats, error) {
	start := time.Now()
	defer func() {
		a.metrics.ObserveReportDuration("team", time.Since(start).Seconds())
	}()

	members, err := a.store.ListTeamMembers(teamID)
	if err != nil {
		return nil, err
	}

	stats := make([]UserStats, 0, len(members))
	for _, member := range members {
		st, err := a.userStats(member.ID, w)
		if err != nil {
			return nil, err
		}
		st.Name = memberName(member)
		stats = append(stats, st)
	}
	return stats, nil
}

func (a *Aggregator) userStats(userID int64, w Window) (UserStats, error) {
	sessions, err := a.store.GetSessionStats(userID, w.FromMillis(), w.ToMillis())
	if err != nil {
		return UserStats{}, err
	}

	done, err := a.store.GetDoneTaskStats(userID)
	if err != nil {
		return UserStats{}, err
	}

	// est_total == 0 reports 0% rather than dividing by zero, which can
	// understate unestimated work; kept as the established convention.
	accuracy := 0.0
	if done.EstimateTotal > 0 {
		accuracy = round1(float64(done.ActualTotal) / float64(done.EstimateTotal) * 100)
	}

	return UserStats{
		UserID:              userID,
		FocusMinutes:        sessions.FocusMinutes,
		Pomodoros:           sessions.PomodoroCount,
		TasksDone:           done.TasksDone,
		EstimateAccuracyPct: accuracy,
	}, nil
}

// memberName prefers the display name, falling back to the email local
// part.
func memberName(u *store.User) string {
	if u.Name != "" {
		return u.Name
	}
	if at := strings.Index(u.Email, "@"); at > 0 {
		return u.Email[:at]
	}
	return u.Email
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
