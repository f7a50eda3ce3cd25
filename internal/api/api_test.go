package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rflorenc/inventory-console/internal/featureflags"
	"github.com/rflorenc/inventory-console/internal/groups"
	"github.com/rflorenc/inventory-console/internal/inventory"
	"github.com/rflorenc/inventory-console/internal/models"
	"github.com/rflorenc/inventory-console/internal/notify"
	"github.com/rflorenc/inventory-console/internal/rbac"
	"github.com/rflorenc/inventory-console/internal/staleness"
	"github.com/rflorenc/inventory-console/internal/systems"
)

// fakeInventory stands in for the upstream client behind every service.
type fakeInventory struct {
	mu        sync.Mutex
	staleness *inventory.Staleness
	patched   map[string]int64
	edge      int
	group     inventory.Group
	hosts     []models.Resource
	profile   models.Resource
	deleted   []string
	pingErr   error
}

func (f *fakeInventory) FetchStaleness(context.Context) (*inventory.Staleness, error) {
	return f.staleness, nil
}

func (f *fakeInventory) FetchDefaultStaleness(context.Context) (map[string]int64, error) {
	return map[string]int64{staleness.ConventionalStale: 86400}, nil
}

func (f *fakeInventory) PostStaleness(_ context.Context, v map[string]int64) error {
	f.patched = v
	return nil
}

func (f *fakeInventory) UpdateStaleness(_ context.Context, v map[string]int64) error {
	f.patched = v
	return nil
}

func (f *fakeInventory) FetchEdgeSystems(context.Context) (int, error) { return f.edge, nil }

func (f *fakeInventory) FetchGroup(context.Context, string) (*inventory.GroupsPage, error) {
	return &inventory.GroupsPage{Total: 1, Results: []inventory.Group{f.group}}, nil
}

func (f *fakeInventory) RenameGroup(_ context.Context, _ string, name string) error {
	f.group.Name = name
	return nil
}

func (f *fakeInventory) DeleteGroups(context.Context, []string) error { return nil }

func (f *fakeInventory) FetchSystems(context.Context, inventory.SystemsQuery) (*inventory.SystemsPage, error) {
	return &inventory.SystemsPage{Total: len(f.hosts), Results: f.hosts}, nil
}

func (f *fakeInventory) DeleteSystems(_ context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ids...)
	return nil
}

func (f *fakeInventory) FetchSystemProfile(_ context.Context, id string) (models.Resource, error) {
	if id == "missing" {
		return nil, &inventory.APIError{Method: "GET", Path: id, StatusCode: http.StatusNotFound}
	}
	return f.profile, nil
}

func (f *fakeInventory) Ping(context.Context) error { return f.pingErr }

type perms map[string]bool

func (p perms) Check(_ context.Context, req []rbac.Required) (bool, error) {
	for _, r := range req {
		if !p[r.Permission] {
			return false, nil
		}
	}
	return true, nil
}

var admin = perms{
	"inventory:groups:read":     true,
	"inventory:groups:write":    true,
	"inventory:hosts:write":     true,
	"staleness:staleness:write": true,
}

func newTestServer(t *testing.T, f *fakeInventory, p Permissions, flags map[string]bool) (*Server, http.Handler) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ff := featureflags.NewStatic(flags)
	store := notify.NewStore()
	jobs := models.NewJobStore()
	s := &Server{
		Connection:    models.Connection{Name: "inventory", Scheme: "https", Host: "console.example.com", Port: 443, Username: "admin", Password: "secret"},
		Upstream:      f,
		Permissions:   p,
		Staleness:     &staleness.Service{API: f, Flags: ff, Notifier: store, Logger: logger},
		Groups:        &groups.Service{API: f, Permissions: p, Flags: ff, Notifier: store, Logger: logger},
		Systems:       &systems.Service{API: f, Jobs: jobs, Selection: systems.NewSelectionStore(), Notifier: store, Logger: logger, BatchSize: 2, Concurrency: 2},
		Jobs:          jobs,
		Notifications: store,
		Logger:        logger,
	}
	return s, NewRouter(s, nil)
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func defaultStaleness() *inventory.Staleness {
	return &inventory.Staleness{ID: "abc", Values: map[string]int64{
		staleness.ConventionalStale:        86400,
		staleness.ConventionalStaleWarning: 7 * 86400,
		staleness.ConventionalDelete:       30 * 86400,
	}}
}

func TestHealthzAndMetrics(t *testing.T) {
	_, h := newTestServer(t, &fakeInventory{}, admin, nil)
	rec := do(t, h, "GET", "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])

	rec = do(t, h, "GET", "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	_, h := newTestServer(t, &fakeInventory{}, admin, nil)
	rec := do(t, h, "OPTIONS", "/api/systems", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}

func TestConnection(t *testing.T) {
	f := &fakeInventory{}
	_, h := newTestServer(t, f, admin, nil)

	body := decodeBody(t, do(t, h, "GET", "/api/connection", nil))
	assert.Equal(t, "https://console.example.com:443", body["base_url"])
	assert.Equal(t, "basic", body["auth"])
	assert.NotContains(t, body["password"], "secret")

	assert.Equal(t, "ok", decodeBody(t, do(t, h, "POST", "/api/connection/test", nil))["status"])
	f.pingErr = errors.New("connection refused")
	body = decodeBody(t, do(t, h, "POST", "/api/connection/test", nil))
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "connection refused", body["error"])
}

func TestGetStaleness(t *testing.T) {
	_, h := newTestServer(t, &fakeInventory{staleness: defaultStaleness()}, perms{}, nil)
	rec := do(t, h, "GET", "/api/staleness", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, false, body["can_modify"])
	assert.Equal(t, staleness.EditDeniedTooltip, body["edit_tooltip"])
	assert.Equal(t, float64(7), body["form"].(map[string]interface{})[staleness.ConventionalStaleWarning])
	assert.Empty(t, body["tabs"])
	assert.Len(t, body["active_keys"], 3)
}

func TestSaveStaleness(t *testing.T) {
	f := &fakeInventory{staleness: defaultStaleness()}
	_, h := newTestServer(t, f, admin, nil)

	rec := do(t, h, "POST", "/api/staleness", map[string]interface{}{
		"values": map[string]int{staleness.ConventionalStale: 2},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(2*86400), f.patched[staleness.ConventionalStale])
	assert.Equal(t, int64(30*86400), f.patched[staleness.ConventionalDelete])
	assert.Equal(t, false, decodeBody(t, rec)["editing"])
}

func TestSaveStaleness_Rejected(t *testing.T) {
	f := &fakeInventory{staleness: defaultStaleness()}
	_, h := newTestServer(t, f, admin, nil)

	rec := do(t, h, "POST", "/api/staleness", map[string]interface{}{
		"values": map[string]int{staleness.ConventionalStale: 7, staleness.ConventionalStaleWarning: 3},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["form_valid"])

	rec = do(t, h, "POST", "/api/staleness", map[string]interface{}{"values": map[string]int{"bogus": 1}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, "POST", "/api/staleness", map[string]interface{}{"active_tab": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "immutable tab is hidden without edge systems")

	_, h = newTestServer(t, f, perms{}, nil)
	rec = do(t, h, "POST", "/api/staleness", map[string]interface{}{})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, f.patched)
}

func TestGroups(t *testing.T) {
	f := &fakeInventory{group: inventory.Group{ID: "g1", Name: "prod"}}
	_, h := newTestServer(t, f, admin, nil)

	body := decodeBody(t, do(t, h, "GET", "/api/groups/g1/header", nil))
	assert.Equal(t, "prod", body["title"])

	rec := do(t, h, "PATCH", "/api/groups/g1", map[string]string{"name": "staging"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "staging", decodeBody(t, rec)["title"])

	rec = do(t, h, "PATCH", "/api/groups/g1", map[string]string{"name": " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, "DELETE", "/api/groups/g1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, groups.ListPath, decodeBody(t, rec)["redirect"])
}

func TestGroups_UngroupedLocked(t *testing.T) {
	f := &fakeInventory{group: inventory.Group{ID: "g1", Name: "Ungrouped Hosts", Ungrouped: true}}
	_, h := newTestServer(t, f, admin, map[string]bool{featureflags.KesselMigration: true})

	assert.Equal(t, http.StatusConflict, do(t, h, "DELETE", "/api/groups/g1", nil).Code)

	_, h = newTestServer(t, f, perms{"inventory:groups:read": true}, nil)
	assert.Equal(t, http.StatusForbidden, do(t, h, "PATCH", "/api/groups/g1", map[string]string{"name": "x"}).Code)
}

func TestListSystems(t *testing.T) {
	f := &fakeInventory{hosts: []models.Resource{
		{"id": "h1", "display_name": "web-1"},
		{"id": "h2", "display_name": "web-2"},
	}}
	_, h := newTestServer(t, f, admin, nil)

	rec := do(t, h, "GET", "/api/systems?columns=name,os&per_page=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var view systems.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, 2, view.Total)
	assert.Equal(t, 10, view.State.PerPage)
	assert.Len(t, view.Table.Columns, 2)
	assert.Len(t, view.Filters, 4)
}

func TestSelectionAndDelete(t *testing.T) {
	f := &fakeInventory{}
	s, h := newTestServer(t, f, admin, nil)

	rec := do(t, h, "PUT", "/api/tables/systems/selection", map[string]interface{}{"ids": []string{"a", "b", "c"}, "selected": true})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, "PUT", "/api/tables/systems/selection", map[string]interface{}{"ids": []string{"c"}, "selected": false})
	assert.Equal(t, []interface{}{"a", "b"}, decodeBody(t, rec)["selected"])

	rec = do(t, h, "POST", "/api/systems/delete", map[string]interface{}{})
	require.Equal(t, http.StatusAccepted, rec.Code)
	jobID := decodeBody(t, rec)["job_id"].(string)

	job := s.Jobs.Get(jobID)
	require.NotNil(t, job)
	require.Eventually(t, job.Finished, 2*time.Second, 5*time.Millisecond)

	body := decodeBody(t, do(t, h, "GET", "/api/jobs/"+jobID, nil))
	assert.Equal(t, models.JobCompleted, body["status"])
	f.mu.Lock()
	assert.ElementsMatch(t, []string{"a", "b"}, f.deleted)
	f.mu.Unlock()
	assert.Empty(t, s.Systems.Selection.Selected("systems"))

	assert.Equal(t, http.StatusConflict, do(t, h, "POST", "/api/jobs/"+jobID+"/cancel", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, "POST", "/api/jobs/nope/cancel", nil).Code)

	var jobs []map[string]interface{}
	require.NoError(t, json.Unmarshal(do(t, h, "GET", "/api/jobs", nil).Body.Bytes(), &jobs))
	assert.Len(t, jobs, 1)
}

func TestDeleteSystems_Rejected(t *testing.T) {
	_, h := newTestServer(t, &fakeInventory{}, perms{}, nil)
	assert.Equal(t, http.StatusForbidden, do(t, h, "POST", "/api/systems/delete", map[string]interface{}{"dedicated": "h1"}).Code)

	_, h = newTestServer(t, &fakeInventory{}, admin, nil)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "POST", "/api/systems/delete", map[string]interface{}{}).Code)

	rec := do(t, h, "DELETE", "/api/tables/systems/selection", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestGetSystemTable(t *testing.T) {
	f := &fakeInventory{profile: models.Resource{
		"disk_devices": []interface{}{
			map[string]interface{}{"device": "/dev/sda1", "mountpoint": "/boot", "type": "xfs"},
		},
		"cpu_flags": []interface{}{"sse", "avx"},
	}}
	_, h := newTestServer(t, f, admin, nil)

	rec := do(t, h, "GET", "/api/systems/h1/tables/disks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Len(t, body["rows"], 1)
	assert.Equal(t, true, body["expandable"])

	rec = do(t, h, "GET", "/api/systems/h1/tables/general?field=cpu_flags&format=text", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	assert.Contains(t, rec.Body.String(), "Cpu Flags")
	assert.Contains(t, rec.Body.String(), "avx")

	assert.Equal(t, http.StatusNotFound, do(t, h, "GET", "/api/systems/h1/tables/cpu", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "GET", "/api/systems/h1/tables/workloads", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, "GET", "/api/systems/missing/tables/disks", nil).Code)
}

type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestGetSystemTable_TextWriteFailureLogged(t *testing.T) {
	f := &fakeInventory{profile: models.Resource{"cpu_flags": []interface{}{"sse"}}}
	s, h := newTestServer(t, f, admin, nil)
	var logs bytes.Buffer
	s.Logger = slog.New(slog.NewTextHandler(&logs, nil))

	req := httptest.NewRequest("GET", "/api/systems/h1/tables/general?field=cpu_flags&format=text", nil)
	h.ServeHTTP(brokenWriter{httptest.NewRecorder()}, req)

	assert.Contains(t, logs.String(), "writing text table failed")
	assert.Contains(t, logs.String(), "host=h1")
	assert.Contains(t, logs.String(), "connection reset")
}

func TestNotifications(t *testing.T) {
	s, h := newTestServer(t, &fakeInventory{}, admin, nil)
	kept := s.Notifications.Dispatch(notify.Notification{Title: "sticky", Variant: notify.Info})
	n := s.Notifications.Dispatch(notify.Notification{Title: "hello", Variant: notify.Success, Dismissable: true})

	body := decodeBody(t, do(t, h, "GET", "/api/notifications?since=1", nil))
	assert.Equal(t, float64(2), body["next"])
	assert.Len(t, body["items"], 1)

	assert.Equal(t, http.StatusNoContent, do(t, h, "DELETE", "/api/notifications/"+n.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, "DELETE", "/api/notifications/"+n.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, "DELETE", "/api/notifications/"+kept.ID, nil).Code)
	assert.Empty(t, decodeBody(t, do(t, h, "GET", "/api/notifications?since=1", nil))["items"])
}

func wsURL(ts *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + path
}

func TestStreamJobLogs(t *testing.T) {
	s, h := newTestServer(t, &fakeInventory{}, admin, nil)
	ts := httptest.NewServer(h)
	defer ts.Close()

	job := s.Jobs.Create(systems.DeleteJobType, "systems", 1)
	job.AppendLog("first")
	job.AppendLog("second")
	job.Complete()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "/ws/jobs/"+job.ID+"/logs"), nil)
	require.NoError(t, err)
	defer conn.Close()

	var lines []string
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			require.ErrorAs(t, err, &closeErr)
			assert.Equal(t, websocket.CloseNormalClosure, closeErr.Code)
			assert.Equal(t, models.JobCompleted, closeErr.Text)
			break
		}
		lines = append(lines, string(msg))
	}
	assert.Equal(t, []string{"first", "second"}, lines)

	rec := do(t, h, "GET", "/ws/jobs/nope/logs", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStreamNotifications(t *testing.T) {
	s, h := newTestServer(t, &fakeInventory{}, admin, nil)
	ts := httptest.NewServer(h)
	defer ts.Close()

	s.Notifications.Dispatch(notify.Notification{Title: "before connecting"})

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "/ws/notifications?since=1"), nil)
	require.NoError(t, err)
	defer conn.Close()

	s.Notifications.Dispatch(notify.Notification{Title: "after connecting", Variant: notify.Warning})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got notify.Notification
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "after connecting", got.Title)
	assert.Equal(t, notify.Warning, got.Variant)
}
