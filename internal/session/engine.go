// Package session implements the focus-session lifecycle: open on start,
// close exactly once on finish, with elapsed time always derived from
// stored timestamps rather than anything the client reports.
package session

import (
	"time"

	"github.com/rs/zerolog"

	perrors "github.com/buixuanquoc47/pomoteam/internal/errors"
	"github.com/buixuanquoc47/pomoteam/internal/metrics"
	"github.com/buixuanquoc47/pomoteam/internal/store"
)

// DefaultPlannedMinutes is the conventional pomodoro length, used when the
// caller does not supply a duration.
const DefaultPlannedMinutes = 25

// Engine manages the open/close lifecycle of focus sessions.
type Engine struct {
	store   *store.Store
	metrics *metrics.Metrics
	logger  zerolog.Logger
	now     func() time.Time
}

// NewEngine creates a session engine.
func NewEngine(st *store.Store, m *metrics.Metrics, logger zerolog.Logger) *Engine {
	return &Engine{
		store:   st,
		metrics: m,
		logger:  logger.With().Str("component", "session_engine").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Start opens a new focus session for ownerID and returns its ID.
//
// The task lookup is best-effort: a taskID that references no task still
// starts the session, just without a project snapshot. The project is
// copied from the task at this instant so later task reassignment does not
// move already-recorded sessions. plannedMinutes is stored as given;
// callers that want the default pass DefaultPlannedMinutes.
func (e *Engine) Start(ownerID, taskID int64, plannedMinutes int) (int64, error) {
	var projectID int64
	if taskID != 0 {
		task, err := e.store.GetTask(taskID)
		if err != nil {
			return 0, err
		}
		if task != nil {
			projectID = task.ProjectID
		}
	}

	fs := &store.FocusSession{
		UserID:         ownerID,
		TaskID:         taskID,
		ProjectID:      projectID,
		StartTime:      e.now().UnixMilli(),
		PlannedMinutes: plannedMinutes,
	}
	if err := e.store.CreateSession(fs); err != nil {
		return 0, err
	}

	e.metrics.SessionsStarted.Inc()
	e.logger.Debug().
		Int64("session_id", fs.ID).
		Int64("user_id", ownerID).
		Int64("task_id", taskID).
		Int("planned_minutes", plannedMinutes).
		Msg("session started")

	return fs.ID, nil
}

// Finish closes a session, computing elapsed minutes from the stored start
// time and crediting the linked task when the completion heuristic fires.
//
// Only the owning user may finish a session; leaders have no override.
// The close is a compare-and-swap on the open state, so a second finish of
// the same session returns ErrSessionFinished and never re-credits.
func (e *Engine) Finish(callerID, sessionID int64, completed bool, notes string) error {
	sess, err := e.store.GetSession(sessionID)
	if err != nil {
		return err
	}
	if sess == nil {
		return perrors.ErrNotFound
	}
	if sess.UserID != callerID {
		return perrors.ErrForbidden
	}

	end := e.now()
	elapsed := int((end.UnixMilli() - sess.StartTime) / 1000 / 60)
	if elapsed < 0 {
		// Clock skew; never record negative time.
		elapsed = 0
	}

	// Within one minute of the planned duration counts as a completed
	// pomodoro, tolerating timer rounding. planned <= 0 makes the
	// threshold trivially true and is accepted as-is.
	credit := sess.TaskID != 0 && completed && elapsed >= sess.PlannedMinutes-1

	params := store.CloseSessionParams{
		SessionID:     sessionID,
		EndTime:       end.UnixMilli(),
		ActualMinutes: elapsed,
		WasCompleted:  completed,
		Notes:         notes,
	}
	if credit {
		params.CreditTaskID = sess.TaskID
	}

	if err := e.store.CloseSession(params); err != nil {
		return err
	}

	e.metrics.RecordSessionFinished(completed)
	if credit {
		e.metrics.PomosCredited.Inc()
	}
	e.logger.Debug().
		Int64("session_id", sessionID).
		Int("actual_minutes", elapsed).
		Bool("completed", completed).
		Bool("task_credited", credit).
		Msg("session finished")

	return nil
}
