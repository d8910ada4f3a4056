package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/UNO-CSCI4830/project4-logbook/internal/engine"
	"github.com/UNO-CSCI4830/project4-logbook/internal/metrics"
	"github.com/UNO-CSCI4830/project4-logbook/internal/models"
	"github.com/UNO-CSCI4830/project4-logbook/internal/repository"
	"github.com/UNO-CSCI4830/project4-logbook/internal/service"
)

var testNow = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

type sentAlert struct {
	ownerID     string
	applianceID string
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sentAlert
}

func (s *recordingSender) Send(_ context.Context, owner *models.OwnerContact, a *models.Appliance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentAlert{ownerID: owner.OwnerID, applianceID: a.ID})
	return nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type testServer struct {
	router *Router
	repo   *repository.MemoryApplianceRepo
	sender *recordingSender
}

func newTestServer(t *testing.T, pinger Pinger) *testServer {
	t.Helper()

	logger := zap.NewNop()
	repo := repository.NewMemoryApplianceRepo()
	users := repository.NewMemoryUserRepo()
	require.NoError(t, users.Upsert(context.Background(), &models.OwnerContact{
		OwnerID: "o1", Name: "Dana", Email: "dana@example.com",
	}))

	sender := &recordingSender{}
	reg := prom.NewRegistry()
	eng := engine.New(repo, users, sender, logger, engine.Options{
		LeadDays: 1,
		Clock:    engine.FixedClock{T: testNow},
		Metrics:  metrics.NewPrometheusRecorder(reg),
	})
	appliances := service.NewApplianceService(repo, eng, logger)

	router := NewRouter(logger)
	router.RegisterApplianceRoutes(NewApplianceHandler(appliances, eng, logger))
	router.RegisterSweepRoutes(NewSweepHandler(eng, logger))
	router.RegisterOpsRoutes(NewHealthHandler(pinger, logger), metrics.HTTPHandler(reg))

	return &testServer{router: router, repo: repo, sender: sender}
}

func (s *testServer) do(method, target string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Code    int             `json:"code"`
	Type    string          `json:"type"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Result, out))
	}
	return env
}

type applianceJSON struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	Name      string `json:"name"`
	AlertDate string `json:"alert_date"`
	Alert     struct {
		AlertStatus string  `json:"alert_status"`
		SnoozeUntil *string `json:"snooze_until"`
	} `json:"alert"`
}

type listJSON struct {
	Items []applianceJSON `json:"items"`
	Total int             `json:"total"`
}

func (s *testServer) create(t *testing.T, owner string, in map[string]any) applianceJSON {
	t.Helper()
	w := s.do(http.MethodPost, "/api/"+owner+"/appliances", in)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var a applianceJSON
	env := decode(t, w, &a)
	require.Equal(t, ResultSuccess, env.Code)
	return a
}

func TestApplianceCRUD(t *testing.T) {
	s := newTestServer(t, nil)

	created := s.create(t, "o1", map[string]any{
		"name":       "Furnace",
		"alert_date": "2024-03-20",
	})
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "o1", created.OwnerID)
	assert.Equal(t, "ACTIVE", created.Alert.AlertStatus)

	w := s.do(http.MethodGet, "/api/o1/appliances", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list listJSON
	decode(t, w, &list)
	assert.Equal(t, 1, list.Total)

	w = s.do(http.MethodPut, "/api/o1/appliances/"+created.ID, map[string]any{
		"name":       "Gas Furnace",
		"alert_date": "2024-04-01",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated applianceJSON
	decode(t, w, &updated)
	assert.Equal(t, "Gas Furnace", updated.Name)
	assert.Equal(t, "2024-04-01", updated.AlertDate)

	// 其它 owner 不可见
	w = s.do(http.MethodGet, "/api/o2/appliances/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, ResultError, decode(t, w, nil).Code)

	w = s.do(http.MethodDelete, "/api/o1/appliances/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/o1/appliances/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateAppliance_Invalid(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodPost, "/api/o1/appliances", map[string]any{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/o1/appliances", map[string]any{"name": "Fridge", "recurring_interval": "HOURLY"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/o1/appliances", map[string]any{"name": "Fridge", "recurring_interval": "CUSTOM"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/o1/appliances", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAlertTransitions(t *testing.T) {
	s := newTestServer(t, nil)
	a := s.create(t, "o1", map[string]any{"name": "Fridge", "alert_date": "2024-03-09"})

	w := s.do(http.MethodPost, "/api/o1/appliances/"+a.ID+"/snooze?days=3", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var snoozed applianceJSON
	decode(t, w, &snoozed)
	assert.Equal(t, "SNOOZED", snoozed.Alert.AlertStatus)
	require.NotNil(t, snoozed.Alert.SnoozeUntil)
	assert.Equal(t, "2024-03-13", *snoozed.Alert.SnoozeUntil)

	w = s.do(http.MethodPost, "/api/o1/appliances/"+a.ID+"/snooze?days=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/o1/appliances/"+a.ID+"/snooze", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/o1/appliances/"+a.ID+"/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cancelled applianceJSON
	decode(t, w, &cancelled)
	assert.Equal(t, "CANCELLED", cancelled.Alert.AlertStatus)
	assert.Nil(t, cancelled.Alert.SnoozeUntil)

	w = s.do(http.MethodPost, "/api/o1/appliances/"+a.ID+"/reactivate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var active applianceJSON
	decode(t, w, &active)
	assert.Equal(t, "ACTIVE", active.Alert.AlertStatus)

	w = s.do(http.MethodGet, "/api/o1/appliances/"+a.ID+"/cancel", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = s.do(http.MethodPost, "/api/o1/appliances/"+a.ID+"/explode", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/api/o2/appliances/"+a.ID+"/cancel", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpcomingAlerts(t *testing.T) {
	s := newTestServer(t, nil)
	s.create(t, "o1", map[string]any{"name": "Soon", "alert_date": "2024-03-15"})
	s.create(t, "o1", map[string]any{"name": "Later", "alert_date": "2024-05-01"})
	s.create(t, "o1", map[string]any{"name": "Past", "alert_date": "2024-03-01"})

	w := s.do(http.MethodGet, "/api/o1/alerts/upcoming", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list listJSON
	decode(t, w, &list)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Soon", list.Items[0].Name)

	w = s.do(http.MethodGet, "/api/o1/alerts/upcoming?days=90", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	assert.Len(t, list.Items, 2)

	w = s.do(http.MethodGet, "/api/o1/alerts/upcoming?days=1000", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunSweep(t *testing.T) {
	s := newTestServer(t, nil)
	due := s.create(t, "o1", map[string]any{"name": "Fridge", "alert_date": "2024-03-10"})
	s.create(t, "o1", map[string]any{"name": "Oven", "alert_date": "2024-03-20"})

	w := s.do(http.MethodGet, "/api/v1/alerts/sweep", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = s.do(http.MethodPost, "/api/v1/alerts/sweep?as_of=2024-13-01", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/alerts/sweep", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report models.SweepReport
	decode(t, w, &report)
	assert.Equal(t, 1, report.Candidates)
	assert.Equal(t, 1, report.Counts[models.OutcomeNotified])
	assert.Equal(t, "2024-03-11", report.AsOf.String())

	require.Len(t, s.sender.sent, 1)
	assert.Equal(t, sentAlert{ownerID: "o1", applianceID: due.ID}, s.sender.sent[0])

	// 手动指定 as_of 可补跑更晚的提醒
	w = s.do(http.MethodPost, "/api/v1/alerts/sweep?as_of=2024-03-21", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &report)
	assert.Equal(t, 1, report.Counts[models.OutcomeNotified])
	assert.Len(t, s.sender.sent, 2)
}

func TestRunSweep_ClientDisconnectDoesNotInterrupt(t *testing.T) {
	s := newTestServer(t, nil)
	s.create(t, "o1", map[string]any{"name": "Fridge", "alert_date": "2024-03-09"})
	s.create(t, "o1", map[string]any{"name": "Oven", "alert_date": "2024-03-10"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts/sweep", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report models.SweepReport
	decode(t, w, &report)
	assert.False(t, report.Interrupted)
	assert.Equal(t, 2, report.Counts[models.OutcomeNotified])
	assert.Len(t, s.sender.sent, 2)
}

func TestExportAppliances(t *testing.T) {
	s := newTestServer(t, nil)
	s.create(t, "o1", map[string]any{"name": "Fridge", "alert_date": "2024-03-15"})

	w := s.do(http.MethodGet, "/api/o1/appliances/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "appliances-o1.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Appliances")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Fridge", rows[1][0])

	w = s.do(http.MethodPost, "/api/o1/appliances/export", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestOpsRoutes(t *testing.T) {
	s := newTestServer(t, stubPinger{})
	w := s.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/api/v1/alerts/sweep", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "logbook_sweep_runs_total")

	down := newTestServer(t, stubPinger{err: errors.New("redis down")})
	w = down.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "redis down")
}

func TestUnknownRoutes(t *testing.T) {
	s := newTestServer(t, nil)

	for _, path := range []string{
		"/api/o1",
		"/api/o1/widgets",
		"/api/o1/alerts/past",
		"/api/o1/appliances/a/b/c",
	} {
		w := s.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}
