package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimow28-boop/ins-radiolab/config"
	"github.com/crimow28-boop/ins-radiolab/internal/db"
	"github.com/crimow28-boop/ins-radiolab/internal/inspection"
	"github.com/crimow28-boop/ins-radiolab/internal/metrics"
	"github.com/crimow28-boop/ins-radiolab/internal/model"
	"github.com/crimow28-boop/ins-radiolab/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	store  store.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{RateLimitPerSec: 1000, RateLimitBurst: 1000},
		Database: config.DatabaseConfig{
			Driver:       config.DriverSQLite,
			DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())),
			MaxOpenConns: 1,
			LogLevel:     "silent",
		},
	}
	cfg.ApplyDefaults()

	gormDB, err := db.Init(&cfg.Database)
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	s := store.NewGormStore(gormDB)
	m := metrics.New()
	svc := inspection.NewService(s, cfg.Inspection.TimestampThreshold, nil, m)
	opts := &webpush.Options{VAPIDPublicKey: "public-key"}
	return &testServer{router: NewRouter(ctx, cfg, s, svc, m, opts), store: s}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestPutSubscription_InvalidRequest(t *testing.T) {
	r := gin.New()
	handler := NewHandler(nil, nil, nil, config.ExportConfig{})
	r.PUT("/api/subscriptions", handler.PutSubscription)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/api/subscriptions", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid request"}`, w.Body.String())
}

func TestChecklistEndpoints(t *testing.T) {
	ts := newTestServer(t)

	items := []map[string]any{
		{"id": "enc", "label": "הצפנה", "type": "checkbox", "required": true},
		{"id": "name", "label": "שם", "type": "text", "required": true},
		{"id": "ant", "label": "אנטנה", "type": "select", "options": []string{"תקין", "נכשל"}},
	}

	w := ts.do(t, "PUT", "/api/checklists/710_amp", gin.H{"name": "710 עם מגבר", "items": items})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(t, "GET", "/api/checklists/710_amp", nil)
	require.Equal(t, http.StatusOK, w.Code)
	def := decode[model.InspectionChecklist](t, w)
	assert.Equal(t, "710 עם מגבר", def.Name)
	require.Len(t, def.Items, 3)

	// A repeated GET is served from the cache until the next mutation.
	w = ts.do(t, "GET", "/api/checklists/710_amp", nil)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

	w = ts.do(t, "POST", "/api/checklists/710_amp/move", gin.H{"from": 2, "to": 0})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	moved := decode[model.InspectionChecklist](t, w)
	assert.Equal(t, "ant", moved.Items[0].ID)

	w = ts.do(t, "GET", "/api/checklists/710_amp", nil)
	assert.Empty(t, w.Header().Get("X-Cache"))
	assert.Equal(t, "ant", decode[model.InspectionChecklist](t, w).Items[0].ID)

	w = ts.do(t, "POST", "/api/checklists/711_amp/duplicate", gin.H{"source_code": "710_amp"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	dup := decode[model.InspectionChecklist](t, w)
	assert.Equal(t, "710 עם מגבר (עותק)", dup.Name)
	require.Len(t, dup.Items, 3)
	assert.NotEqual(t, "ant", dup.Items[0].ID)
	assert.Equal(t, "אנטנה", dup.Items[0].Label)

	w = ts.do(t, "PUT", "/api/checklists/bad", gin.H{"name": "x", "items": []map[string]any{{"label": "no id", "type": "text"}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, "POST", "/api/checklists/710_amp/move", gin.H{"from": 9, "to": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, "GET", "/api/checklists", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.InspectionChecklist](t, w), 2)

	assert.Equal(t, http.StatusNoContent, ts.do(t, "DELETE", "/api/checklists/711_amp", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, "DELETE", "/api/checklists/711_amp", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, "GET", "/api/checklists/711_amp", nil).Code)
}

func TestDeviceEndpoints(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, "POST", "/api/devices", gin.H{"serial_number": " rx 100 ", "device_group": "710", "device_name": "Base"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	d := decode[model.Device](t, w)
	assert.Equal(t, "RX100", d.SerialNumber)
	assert.Equal(t, model.EncryptionNotEncrypted, d.EncryptionStatus)

	assert.Equal(t, http.StatusConflict, ts.do(t, "POST", "/api/devices", gin.H{"serial_number": "RX100", "device_group": "710"}).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, "POST", "/api/devices", gin.H{"serial_number": "X1", "device_group": "999"}).Code)

	w = ts.do(t, "PUT", "/api/devices/rx100", gin.H{"device_group": "710", "device_name": "Renamed", "status": "maintenance"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Renamed", decode[model.Device](t, w).DeviceName)

	w = ts.do(t, "GET", "/api/devices?q=renam", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Device](t, w), 1)

	w = ts.do(t, "GET", "/api/devices/RX100/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[map[string]json.RawMessage](t, w)
	assert.JSONEq(t, `[]`, string(history["inspections"]))

	assert.Equal(t, http.StatusNoContent, ts.do(t, "DELETE", "/api/devices/RX100", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, "GET", "/api/devices/RX100", nil).Code)
}

func TestInspectionEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, ts.store.CreateDevice(ctx, &model.Device{SerialNumber: "L1", DeviceGroup: "lotus"}))

	w := ts.do(t, "GET", "/api/inspections/next-number", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"inspection_number":1}`, w.Body.String())

	draft := gin.H{
		"device_serial_numbers": []string{"L1"},
		"profile":               "lotus",
		"checklist_answers":     gin.H{"visual": true},
	}
	w = ts.do(t, "PUT", "/api/inspections/draft", draft)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	saved := decode[model.Inspection](t, w)
	assert.Equal(t, model.InspectionStatusDraft, saved.Status)
	assert.Equal(t, 33, saved.Progress)

	// Profile is mandatory.
	assert.Equal(t, http.StatusBadRequest, ts.do(t, "PUT", "/api/inspections/draft", gin.H{"device_serial_numbers": []string{"L1"}}).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, "PUT", "/api/inspections/draft", gin.H{"profile": "lotus"}).Code)

	submit := gin.H{
		"device_serial_numbers": []string{"L1"},
		"profile":               "lotus",
		"checklist_answers":     gin.H{"visual": true, "screen": true, "app": false},
		"fault_description":     "מסך סדוק",
	}
	w = ts.do(t, "POST", "/api/inspections/submit", submit)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	done := decode[model.Inspection](t, w)
	assert.Equal(t, saved.ID, done.ID)
	assert.Equal(t, model.CavadFailed, done.CavadStatus)

	w = ts.do(t, "GET", fmt.Sprintf("/api/inspections/%d", done.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.InspectionStatusCompleted, decode[model.Inspection](t, w).Status)

	w = ts.do(t, "GET", "/api/inspections?status=completed&serial=l1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Inspection](t, w), 1)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, "GET", "/api/inspections?status=open", nil).Code)

	w = ts.do(t, "GET", "/api/faults?resolved=false", nil)
	require.Equal(t, http.StatusOK, w.Code)
	faults := decode[[]model.FaultHistory](t, w)
	require.Len(t, faults, 1)
	assert.Equal(t, "מסך סדוק", faults[0].FaultDescription)

	w = ts.do(t, "POST", fmt.Sprintf("/api/faults/%d/resolve", faults[0].ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[model.FaultHistory](t, w).Resolved)

	assert.Equal(t, http.StatusNoContent, ts.do(t, "DELETE", fmt.Sprintf("/api/inspections/%d", done.ID), nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, "GET", fmt.Sprintf("/api/inspections/%d", done.ID), nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, "GET", "/api/inspections/abc", nil).Code)
}

func TestSubmit_ValidationAndConflict(t *testing.T) {
	ts := newTestServer(t)

	items := []map[string]any{
		{"id": "enc", "label": "הצפנה", "type": "checkbox", "required": true},
		{"id": "name", "label": "שם", "type": "text", "required": true},
	}
	require.Equal(t, http.StatusOK, ts.do(t, "PUT", "/api/checklists/713_no_amp", gin.H{"name": "713", "items": items}).Code)

	w := ts.do(t, "POST", "/api/inspections/submit", gin.H{
		"device_serial_numbers": []string{"R1"},
		"profile":               "713_no_amp",
		"checklist_answers":     gin.H{"enc": false},
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode[struct {
		Missing []string `json:"missing"`
	}](t, w)
	assert.Equal(t, []string{"שם"}, body.Missing)

	// R1 and R2 hold separate drafts; a request spanning both conflicts.
	for _, serial := range []string{"R1", "R2"} {
		w = ts.do(t, "PUT", "/api/inspections/draft", gin.H{"device_serial_numbers": []string{serial}, "profile": "713_no_amp"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	w = ts.do(t, "PUT", "/api/inspections/draft", gin.H{"device_serial_numbers": []string{"R1", "R2"}, "profile": "713_no_amp"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCardEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	w := ts.do(t, "POST", "/api/cards", gin.H{"kind": "special", "title": "תרגיל", "devices": []string{"a1", "A1", "b2"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	card := decode[model.Card](t, w)
	assert.Equal(t, []string{"A1", "B2"}, card.Devices)
	assert.True(t, card.IsActive)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, "POST", "/api/cards", gin.H{"kind": "weekly", "title": "x"}).Code)

	w = ts.do(t, "POST", "/api/inspections/submit", gin.H{
		"device_serial_numbers": []string{"A1"},
		"profile":               "lotus",
		"card_id":               card.ID,
		"soldier_name":          "נועה",
		"checklist_answers":     gin.H{"visual": true, "screen": true, "app": true},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.do(t, "GET", fmt.Sprintf("/api/cards/%d/progress", card.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	p := decode[inspection.CardProgress](t, w)
	assert.Equal(t, 1, p.Completed)
	assert.False(t, p.AllCompleted)

	w = ts.do(t, "GET", fmt.Sprintf("/api/cards/%d/export.csv", card.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment; filename*=UTF-8''export_")
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "1,נועה,"))

	w = ts.do(t, "GET", fmt.Sprintf("/api/cards/%d/export.pdf", card.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w = ts.do(t, "GET", "/api/export.csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, strings.Split(strings.TrimSpace(w.Body.String()), "\n"), 2)

	assert.Equal(t, http.StatusNotFound, ts.do(t, "GET", "/api/cards/999/export.csv", nil).Code)

	assert.Equal(t, http.StatusForbidden, ts.do(t, "POST", fmt.Sprintf("/api/cards/%d/approve", card.ID), gin.H{"pin": "1234"}).Code)
	require.NoError(t, ts.store.PutSetting(ctx, model.SettingManagerPIN, "1234"))
	assert.Equal(t, http.StatusNoContent, ts.do(t, "POST", fmt.Sprintf("/api/cards/%d/approve", card.ID), gin.H{"pin": "1234"}).Code)

	w = ts.do(t, "GET", fmt.Sprintf("/api/cards/%d", card.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[model.Card](t, w).IsActive)

	w = ts.do(t, "PUT", fmt.Sprintf("/api/cards/%d", card.ID), gin.H{"kind": "special", "title": "תרגיל מעודכן", "devices": []string{"A1"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "תרגיל מעודכן", decode[model.Card](t, w).Title)

	w = ts.do(t, "GET", "/api/cards?kind=special", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Card](t, w), 1)
}

func TestSubscriptionEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	card := &model.Card{Kind: model.CardKindRoutine, Title: "שגרה", IsActive: true}
	require.NoError(t, ts.store.CreateCard(ctx, card))

	endpoint := "https://push.example/abc?x=1"
	w := ts.do(t, "PUT", "/api/subscriptions", gin.H{"endpoint": endpoint, "p256dh": "k", "auth": "a", "subscribed_cards": []int64{card.ID}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.do(t, "GET", "/api/subscriptions?endpoint="+endpoint, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, fmt.Sprintf(`{"subscribed_cards":[%d]}`, card.ID), w.Body.String())

	assert.Equal(t, http.StatusBadRequest, ts.do(t, "GET", "/api/subscriptions", nil).Code)

	assert.Equal(t, http.StatusNoContent, ts.do(t, "DELETE", "/api/subscriptions", gin.H{"endpoint": endpoint}).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, "GET", "/api/subscriptions?endpoint="+endpoint, nil).Code)

	w = ts.do(t, "GET", "/api/vapid_public_key", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"public_key":"public-key"}`, w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, "GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "inspection_")
}

func TestManagerPINRotation(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, ts.do(t, "GET", "/api/settings/manager_pin", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, "GET", "/api/settings/vapid_private_key", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, "PUT", "/api/settings/manager_pin", gin.H{"value": "  "}).Code)

	w := ts.do(t, "PUT", "/api/settings/manager_pin", gin.H{"value": "1234"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var ids []int64
	for _, title := range []string{"א", "ב"} {
		w = ts.do(t, "POST", "/api/cards", gin.H{"kind": "routine", "title": title})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		ids = append(ids, decode[model.Card](t, w).ID)
	}

	approve := func(id int64, pin string) int {
		return ts.do(t, "POST", fmt.Sprintf("/api/cards/%d/approve", id), gin.H{"pin": pin}).Code
	}
	assert.Equal(t, http.StatusNoContent, approve(ids[0], "1234"))

	w = ts.do(t, "GET", "/api/settings/manager_pin", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rotated := decode[struct {
		Value string `json:"value"`
	}](t, w).Value
	assert.Len(t, rotated, 4)
	assert.NotEqual(t, "1234", rotated)

	assert.Equal(t, http.StatusForbidden, approve(ids[1], "1234"))
	assert.Equal(t, http.StatusNoContent, approve(ids[1], rotated))
}

func TestDeviceChecklist(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, ts.store.CreateDevice(ctx, &model.Device{SerialNumber: "R7", DeviceGroup: "710"}))
	require.NoError(t, ts.store.CreateDevice(ctx, &model.Device{SerialNumber: "L7", DeviceGroup: "lotus"}))

	items := []map[string]any{{"id": "enc", "label": "הצפנה", "type": "checkbox", "required": true}}
	require.Equal(t, http.StatusOK, ts.do(t, "PUT", "/api/checklists/710_amp", gin.H{"name": "710", "items": items}).Code)

	type response struct {
		Profile   string            `json:"profile"`
		Amplified bool              `json:"amplified"`
		Legacy    bool              `json:"legacy"`
		Items     []json.RawMessage `json:"items"`
	}

	w := ts.do(t, "GET", "/api/devices/r7/checklist?variant=amp", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[response](t, w)
	assert.Equal(t, "710_amp", got.Profile)
	assert.True(t, got.Amplified)
	assert.False(t, got.Legacy)
	assert.Len(t, got.Items, 1)

	w = ts.do(t, "GET", "/api/devices/R7/checklist?variant=no_amp", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got = decode[response](t, w)
	assert.False(t, got.Amplified)
	assert.True(t, got.Legacy)
	assert.Len(t, got.Items, 5)

	w = ts.do(t, "GET", "/api/devices/L7/checklist", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "lotus", decode[response](t, w).Profile)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, "GET", "/api/devices/R7/checklist", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, "GET", "/api/devices/R7/checklist?variant=4400", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, "GET", "/api/devices/NOPE/checklist?variant=amp", nil).Code)
}
