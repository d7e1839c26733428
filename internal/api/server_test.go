package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buixuanquoc47/pomoteam/internal/auth"
	"github.com/buixuanquoc47/pomoteam/internal/health"
	"github.com/buixuanquoc47/pomoteam/internal/metrics"
	"github.com/buixuanquoc47/pomoteam/internal/report"
	"github.com/buixuanquoc47/pomoteam/internal/session"
	"github.com/buixuanquoc47/pomoteam/internal/store"
)

// testApp wires a full server against a temp database.
func testApp(t *testing.T) (*fiber.App, *store.Store) {
	t.Helper()
	logger := zerolog.Nop()

	dbPath := filepath.Join(t.TempDir(), "api-test.db")
	st, err := store.New(dbPath, logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	m := metrics.New()
	checker := health.NewChecker(logger)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	revoked := auth.NewRevocations()
	engine := session.NewEngine(st, m, logger)
	reports := report.NewAggregator(st, m, logger)

	h := NewHandlers(st, engine, reports, tokens, revoked, checker, m, logger, "Test Team")
	srv := NewServer(ServerConfig{
		ListenAddr: ":0",
		RateLimit:  RateLimitConfig{RPS: 1000, Burst: 2000},
	}, h, logger)

	return srv.App(), st
}

func doJSON(t *testing.T, app *fiber.App, method, path, token, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// registerUser creates an account and returns its token and ID.
func registerUser(t *testing.T, app *fiber.App, email string) (string, int64) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":"hunter2","name":"Test"}`, email)
	resp := doJSON(t, app, "POST", "/api/v1/auth/register", "", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	ar := decode[AuthResponse](t, resp)
	return ar.Token, ar.User.ID
}

func TestServer_Probes(t *testing.T) {
	app, _ := testApp(t)

	resp := doJSON(t, app, "GET", "/healthz", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, "GET", "/readyz", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_MetricsEndpoint(t *testing.T) {
	app, _ := testApp(t)

	resp := doJSON(t, app, "GET", "/metrics", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_RequiresAuth(t *testing.T) {
	app, _ := testApp(t)

	resp := doJSON(t, app, "GET", "/api/v1/tasks", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	problem := decode[ProblemDetail](t, resp)
	assert.Equal(t, "missing_auth", problem.Type)

	resp = doJSON(t, app, "GET", "/api/v1/tasks", "garbage-token", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegister_FirstUserIsLeader(t *testing.T) {
	app, _ := testApp(t)

	resp := doJSON(t, app, "POST", "/api/v1/auth/register", "",
		`{"email":"Alice@Example.com ","password":"hunter2"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	first := decode[AuthResponse](t, resp)
	assert.Equal(t, "leader", first.User.Role)
	assert.Equal(t, "alice@example.com", first.User.Email, "email is normalized")
	assert.NotEmpty(t, first.Token)

	resp = doJSON(t, app, "POST", "/api/v1/auth/register", "",
		`{"email":"bob@example.com","password":"hunter2"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	second := decode[AuthResponse](t, resp)
	assert.Equal(t, "member", second.User.Role)
	assert.Equal(t, first.User.TeamID, second.User.TeamID, "everyone joins the seeded team")
}

func TestRegister_DuplicateEmail(t *testing.T) {
	app, _ := testApp(t)
	registerUser(t, app, "alice@example.com")

	resp := doJSON(t, app, "POST", "/api/v1/auth/register", "",
		`{"email":"alice@example.com","password":"other"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	problem := decode[ProblemDetail](t, resp)
	assert.Equal(t, "email_taken", problem.Type)
}

func TestRegister_MissingFields(t *testing.T) {
	app, _ := testApp(t)

	resp := doJSON(t, app, "POST", "/api/v1/auth/register", "", `{"email":"a@b.c"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	app, _ := testApp(t)
	registerUser(t, app, "alice@example.com")

	resp := doJSON(t, app, "POST", "/api/v1/auth/login", "",
		`{"email":"alice@example.com","password":"hunter2"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ar := decode[AuthResponse](t, resp)
	assert.NotEmpty(t, ar.Token)

	resp = doJSON(t, app, "POST", "/api/v1/auth/login", "",
		`{"email":"alice@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Unknown accounts fail the same way as wrong passwords.
	resp = doJSON(t, app, "POST", "/api/v1/auth/login", "",
		`{"email":"nobody@example.com","password":"hunter2"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogout_RevokesToken(t *testing.T) {
	app, _ := testApp(t)
	token, _ := registerUser(t, app, "alice@example.com")

	resp := doJSON(t, app, "POST", "/api/v1/auth/logout", token, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, "GET", "/api/v1/tasks", token, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	problem := decode[ProblemDetail](t, resp)
	assert.Equal(t, "token_revoked", problem.Type)
}

func TestSessionLifecycle(t *testing.T) {
	app, st := testApp(t)
	token, userID := registerUser(t, app, "alice@example.com")

	// Create a task to focus on.
	resp := doJSON(t, app, "POST", "/api/v1/tasks", token,
		`{"title":"write report","estimate_pomos":4}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	task := decode[TaskResponse](t, resp)
	assert.Equal(t, userID, task.AssigneeID)

	resp = doJSON(t, app, "POST", "/api/v1/sessions/start", token,
		fmt.Sprintf(`{"task_id":%d}`, task.ID))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	started := decode[StartSessionResponse](t, resp)
	assert.Greater(t, started.SessionID, int64(0))

	// Defaulted planned minutes.
	sess, err := st.GetSession(started.SessionID)
	require.NoError(t, err)
	assert.Equal(t, session.DefaultPlannedMinutes, sess.PlannedMinutes)

	// Backdate the start so the finish credits the task.
	_, err = st.DB().Exec(`UPDATE focus_sessions SET start_time = ? WHERE id = ?`,
		time.Now().Add(-25*time.Minute).UnixMilli(), started.SessionID)
	require.NoError(t, err)

	resp = doJSON(t, app, "POST", "/api/v1/sessions/finish", token,
		fmt.Sprintf(`{"session_id":%d,"notes":"solid block"}`, started.SessionID))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	credited, err := st.GetTask(task.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, credited.ActualPomos)

	// Finishing again conflicts.
	resp = doJSON(t, app, "POST", "/api/v1/sessions/finish", token,
		fmt.Sprintf(`{"session_id":%d}`, started.SessionID))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	problem := decode[ProblemDetail](t, resp)
	assert.Equal(t, "session_finished", problem.Type)
}

func TestFinishSession_Errors(t *testing.T) {
	app, _ := testApp(t)
	alice, _ := registerUser(t, app, "alice@example.com")
	bob, _ := registerUser(t, app, "bob@example.com")

	resp := doJSON(t, app, "POST", "/api/v1/sessions/finish", alice, `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, "POST", "/api/v1/sessions/finish", alice, `{"session_id":9999}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, "POST", "/api/v1/sessions/start", alice, `{}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	started := decode[StartSessionResponse](t, resp)

	resp = doJSON(t, app, "POST", "/api/v1/sessions/finish", bob,
		fmt.Sprintf(`{"session_id":%d}`, started.SessionID))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	problem := decode[ProblemDetail](t, resp)
	assert.Equal(t, "not_session_owner", problem.Type)
}

func TestTask_UpdateAndOwnership(t *testing.T) {
	app, _ := testApp(t)
	leader, _ := registerUser(t, app, "lead@example.com")
	member, _ := registerUser(t, app, "member@example.com")

	resp := doJSON(t, app, "POST", "/api/v1/tasks", member, `{"title":"mine"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	task := decode[TaskResponse](t, resp)

	// Assignee can edit.
	resp = doJSON(t, app, "PATCH", fmt.Sprintf("/api/v1/tasks/%d", task.ID), member,
		`{"status":"doing"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[TaskResponse](t, resp)
	assert.Equal(t, "doing", updated.Status)

	// Leader can edit anyone's task.
	resp = doJSON(t, app, "PATCH", fmt.Sprintf("/api/v1/tasks/%d", task.ID), leader,
		`{"priority":"high"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Another member cannot.
	other, _ := registerUser(t, app, "other@example.com")
	resp = doJSON(t, app, "PATCH", fmt.Sprintf("/api/v1/tasks/%d", task.ID), other,
		`{"status":"done"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, app, "PATCH", "/api/v1/tasks/9999", member, `{"status":"done"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTask_MarkDone(t *testing.T) {
	app, _ := testApp(t)
	token, _ := registerUser(t, app, "alice@example.com")

	resp := doJSON(t, app, "POST", "/api/v1/tasks", token, `{"title":"finish me"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	task := decode[TaskResponse](t, resp)

	resp = doJSON(t, app, "POST", fmt.Sprintf("/api/v1/tasks/%d/done", task.ID), token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	done := decode[TaskResponse](t, resp)
	assert.Equal(t, "done", done.Status)
	assert.Equal(t, 1, done.ActualPomos)
}

func TestProjects(t *testing.T) {
	app, _ := testApp(t)
	token, _ := registerUser(t, app, "alice@example.com")

	resp := doJSON(t, app, "POST", "/api/v1/projects", token, `{"name":"Launch"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, "POST", "/api/v1/projects", token, `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, "GET", "/api/v1/projects", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[ProjectListResponse](t, resp)
	require.Len(t, list.Projects, 1)
	assert.Equal(t, "Launch", list.Projects[0].Name)
}

func TestReports_MeAndTeam(t *testing.T) {
	app, st := testApp(t)
	leader, leaderID := registerUser(t, app, "lead@example.com")
	member, _ := registerUser(t, app, "member@example.com")

	// Record a finished session for the leader inside the current week.
	fs := &store.FocusSession{
		UserID:         leaderID,
		StartTime:      time.Now().UnixMilli(),
		PlannedMinutes: 25,
	}
	require.NoError(t, st.CreateSession(fs))
	require.NoError(t, st.CloseSession(store.CloseSessionParams{
		SessionID:     fs.ID,
		EndTime:       time.Now().Add(25 * time.Minute).UnixMilli(),
		ActualMinutes: 25,
		WasCompleted:  true,
	}))

	resp := doJSON(t, app, "GET", "/api/v1/reports/me", leader, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decode[UserReportResponse](t, resp)
	assert.Equal(t, leaderID, me.UserID)
	assert.Equal(t, 25, me.FocusMinutes)
	assert.Equal(t, 1, me.Pomodoros)

	// Team report requires the leader role.
	resp = doJSON(t, app, "GET", "/api/v1/reports/team", member, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, app, "GET", "/api/v1/reports/team", leader, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	team := decode[TeamReportResponse](t, resp)
	require.Len(t, team.Members, 2)
	assert.Equal(t, 25, team.Members[0].FocusMinutes)
	assert.Equal(t, 0, team.Members[1].FocusMinutes)
}

func TestReports_ExplicitWindow(t *testing.T) {
	app, st := testApp(t)
	token, userID := registerUser(t, app, "alice@example.com")

	start := time.Date(2026, 7, 10, 9, 0, 0, 0, time.UTC)
	fs := &store.FocusSession{UserID: userID, StartTime: start.UnixMilli(), PlannedMinutes: 25}
	require.NoError(t, st.CreateSession(fs))
	require.NoError(t, st.CloseSession(store.CloseSessionParams{
		SessionID:     fs.ID,
		EndTime:       start.Add(25 * time.Minute).UnixMilli(),
		ActualMinutes: 25,
		WasCompleted:  true,
	}))

	resp := doJSON(t, app, "GET", "/api/v1/reports/me?from=2026-07-01&to=2026-07-31", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	july := decode[UserReportResponse](t, resp)
	assert.Equal(t, 25, july.FocusMinutes)

	resp = doJSON(t, app, "GET", "/api/v1/reports/me?from=2026-08-01&to=2026-08-31", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	august := decode[UserReportResponse](t, resp)
	assert.Equal(t, 0, august.FocusMinutes)

	resp = doJSON(t, app, "GET", "/api/v1/reports/me?from=not-a-date&to=2026-08-31", token, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	problem := decode[ProblemDetail](t, resp)
	assert.Equal(t, "invalid_from", problem.Type)
}

func TestTeamBlocked_LeaderOnly(t *testing.T) {
	app, _ := testApp(t)
	leader, _ := registerUser(t, app, "lead@example.com")
	member, _ := registerUser(t, app, "member@example.com")

	resp := doJSON(t, app, "POST", "/api/v1/projects", leader, `{"name":"Launch"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	project := decode[ProjectResponse](t, resp)

	resp = doJSON(t, app, "POST", "/api/v1/tasks", member,
		fmt.Sprintf(`{"title":"stuck","project_id":%d}`, project.ID))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	task := decode[TaskResponse](t, resp)

	resp = doJSON(t, app, "PATCH", fmt.Sprintf("/api/v1/tasks/%d", task.ID), member,
		`{"status":"blocked"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, "GET", "/api/v1/team/blocked", member, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, app, "GET", "/api/v1/team/blocked", leader, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	blocked := decode[TaskListResponse](t, resp)
	require.Len(t, blocked.Tasks, 1)
	assert.Equal(t, "stuck", blocked.Tasks[0].Title)
}
