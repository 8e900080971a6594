package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustinWhittecar/mechforge/internal/componentsync"
	"github.com/JustinWhittecar/mechforge/internal/db"
	"github.com/JustinWhittecar/mechforge/internal/live"
	"github.com/JustinWhittecar/mechforge/internal/models"
	"github.com/JustinWhittecar/mechforge/internal/rules"
	"github.com/JustinWhittecar/mechforge/internal/validate"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := db.OpenSQLite(filepath.Join(t.TempDir(), "units.db"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	hub := live.NewHub(zerolog.Nop())
	go hub.Run(ctx)

	syncer := componentsync.New(componentsync.Options{Tables: rules.Builtin(), Logger: zerolog.Nop()})
	h := NewUnitsHandler(store, syncer, hub, zerolog.Nop())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", Health)
	h.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		cancel()
		store.Close()
	})
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path string, body any) (int, []byte) {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, srv.URL+path, rd)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func createUnit(t *testing.T, srv *httptest.Server, mass int) models.UnitRecord {
	t.Helper()
	status, body := call(t, srv, http.MethodPost, "/api/units", map[string]any{
		"chassis": "Wolverine", "model": "WVR-6R", "mass": mass, "tech_base": "IS",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var u models.UnitRecord
	require.NoError(t, json.Unmarshal(body, &u))
	return u
}

func getUnit(t *testing.T, srv *httptest.Server, id int64) models.UnitRecord {
	t.Helper()
	status, body := call(t, srv, http.MethodGet, fmt.Sprintf("/api/units/%d", id), nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var u models.UnitRecord
	require.NoError(t, json.Unmarshal(body, &u))
	return u
}

func TestHealth(t *testing.T) {
	srv := newServer(t)
	status, body := call(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", string(body))
}

func TestDefaultRating(t *testing.T) {
	tests := []struct {
		mass, want int
	}{
		{20, 80},
		{55, 220},
		{100, 400},
		{130, 500},
		{2, 10},
		{33, 130},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, defaultRating(tt.mass), "mass %d", tt.mass)
	}
}

func TestCreateUnit(t *testing.T) {
	srv := newServer(t)
	u := createUnit(t, srv, 55)

	assert.NotZero(t, u.ID)
	assert.Equal(t, models.InnerSphere, u.TechBase)
	sc := u.SystemComponents
	assert.Equal(t, models.EngineComponent{Type: "Standard", Rating: 220}, sc.Engine)
	assert.Equal(t, 8, sc.HeatSinks.EngineIntegrated)
	assert.Equal(t, 2, sc.HeatSinks.ExternalRequired)
	assert.Len(t, u.Equipment, 2)
	assert.Equal(t, 2, u.CriticalAllocations.FixedCount(models.LeftTorso, models.CategoryHeatSink))

	got := getUnit(t, srv, u.ID)
	assert.Equal(t, u.SystemComponents, got.SystemComponents)

	status, body := call(t, srv, http.MethodGet, "/api/units", nil)
	require.Equal(t, http.StatusOK, status)
	var list []db.UnitSummary
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Wolverine", list[0].Chassis)
}

func TestCreateUnitRejectsBadInput(t *testing.T) {
	srv := newServer(t)
	tests := []struct {
		name string
		body any
	}{
		{"bad json", "{"},
		{"no chassis", map[string]any{"mass": 50}},
		{"too light", map[string]any{"chassis": "Flea", "mass": 5}},
		{"too heavy", map[string]any{"chassis": "Fortress", "mass": 300}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := call(t, srv, http.MethodPost, "/api/units", tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
		})
	}
}

func TestComponentChange(t *testing.T) {
	srv := newServer(t)
	u := createUnit(t, srv, 75)
	path := fmt.Sprintf("/api/units/%d/engine", u.ID)

	status, body := call(t, srv, http.MethodPost, path, map[string]any{"type": "XL Engine"})
	require.Equal(t, http.StatusOK, status, string(body))
	var update models.PartialUnitUpdate
	require.NoError(t, json.Unmarshal(body, &update))
	require.NotNil(t, update.SystemComponents)
	assert.Equal(t, "XL", update.SystemComponents.Engine.Type)
	assert.Equal(t, 300, update.SystemComponents.Engine.Rating)

	got := getUnit(t, srv, u.ID)
	assert.Equal(t, "XL", got.SystemComponents.Engine.Type)
	assert.Equal(t, "XL", got.Data.Engine.Type)
	assert.Equal(t, 3, got.CriticalAllocations.FixedCount(models.LeftTorso, models.CategoryEngine))
}

func TestComponentChangeErrors(t *testing.T) {
	srv := newServer(t)
	u := createUnit(t, srv, 75)
	base := fmt.Sprintf("/api/units/%d", u.ID)

	tests := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{"unknown engine", base + "/engine", map[string]any{"type": "Warp Core"}, http.StatusBadRequest},
		{"negative rating", base + "/engine", map[string]any{"rating": -5}, http.StatusBadRequest},
		{"unknown gyro", base + "/gyro", map[string]any{"type": "Spinning Top"}, http.StatusBadRequest},
		{"unknown structure", base + "/structure", map[string]any{"type": "Cardboard"}, http.StatusBadRequest},
		{"negative heat sinks", base + "/heat-sinks", map[string]any{"count": -1}, http.StatusBadRequest},
		{"bad json", base + "/gyro", "nope", http.StatusBadRequest},
		{"missing unit", "/api/units/9999/gyro", map[string]any{"type": "XL"}, http.StatusNotFound},
		{"bad id", "/api/units/abc/gyro", map[string]any{"type": "XL"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := call(t, srv, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, status, string(body))
		})
	}

	// rejected edits leave the stored unit alone
	got := getUnit(t, srv, u.ID)
	assert.Equal(t, u.SystemComponents, got.SystemComponents)
}

func TestInsufficientSlotsConflict(t *testing.T) {
	srv := newServer(t)
	u := createUnit(t, srv, 75)
	base := fmt.Sprintf("/api/units/%d", u.ID)

	status, body := call(t, srv, http.MethodPost, base+"/equipment", map[string]any{
		"item_name": "LRM 20 Ammo Bin", "tons": 10, "crits": 10, "location": "Left Torso", "slot": 1,
	})
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = call(t, srv, http.MethodPost, base+"/engine", map[string]any{"type": "XL"})
	require.Equal(t, http.StatusConflict, status, string(body))
	var e errorBody
	require.NoError(t, json.Unmarshal(body, &e))
	assert.Equal(t, "LT", e.Location)
	assert.Equal(t, 3, e.Required)
	assert.Equal(t, 2, e.Available)

	assert.Equal(t, "Standard", getUnit(t, srv, u.ID).SystemComponents.Engine.Type)
}

func TestEquipmentEndpoints(t *testing.T) {
	srv := newServer(t)
	u := createUnit(t, srv, 55)
	base := fmt.Sprintf("/api/units/%d", u.ID)

	status, body := call(t, srv, http.MethodPost, base+"/equipment", map[string]any{
		"id": "ml-1", "item_name": "Medium Laser", "item_type": "weapon", "tons": 1, "crits": 1, "location": "RA", "slot": 5,
	})
	require.Equal(t, http.StatusOK, status, string(body))
	got := getUnit(t, srv, u.ID)
	assert.Equal(t, models.EquipmentSlot("ml-1"), got.CriticalAllocations.Slots(models.RightArm)[4])

	status, _ = call(t, srv, http.MethodPost, base+"/equipment", map[string]any{
		"item_name": "Small Laser", "crits": 1, "location": "RA", "slot": 5,
	})
	assert.Equal(t, http.StatusConflict, status)

	var generated string
	for _, e := range got.Equipment {
		if e.IsGenerated() {
			generated = e.ID
		}
	}
	require.NotEmpty(t, generated)
	status, _ = call(t, srv, http.MethodDelete, base+"/equipment/"+generated, nil)
	assert.Equal(t, http.StatusConflict, status)

	status, _ = call(t, srv, http.MethodDelete, base+"/equipment/missing", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = call(t, srv, http.MethodDelete, base+"/equipment/ml-1", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	got = getUnit(t, srv, u.ID)
	assert.True(t, got.CriticalAllocations.Slots(models.RightArm)[4].IsEmpty())
	_, ok := got.EquipmentByID("ml-1")
	assert.False(t, ok)
}

func TestUpdateDetails(t *testing.T) {
	srv := newServer(t)
	u := createUnit(t, srv, 55)
	path := fmt.Sprintf("/api/units/%d", u.ID)

	status, body := call(t, srv, http.MethodPut, path, map[string]any{
		"model": "WVR-6M", "role": "Skirmisher",
		// structural fields are ignored here
		"mass": 100,
	})
	require.Equal(t, http.StatusOK, status, string(body))

	got := getUnit(t, srv, u.ID)
	assert.Equal(t, "WVR-6M", got.Model)
	assert.Equal(t, "Skirmisher", got.Role)
	assert.Equal(t, "Wolverine", got.Chassis)
	assert.Equal(t, 55, got.Mass)

	status, _ = call(t, srv, http.MethodPut, path, map[string]any{"chassis": "  "})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestDeleteUnit(t *testing.T) {
	srv := newServer(t)
	u := createUnit(t, srv, 55)
	path := fmt.Sprintf("/api/units/%d", u.ID)

	status, _ := call(t, srv, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = call(t, srv, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = call(t, srv, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestValidationAndRules(t *testing.T) {
	srv := newServer(t)
	u := createUnit(t, srv, 55)

	status, body := call(t, srv, http.MethodGet, fmt.Sprintf("/api/units/%d/validation", u.ID), nil)
	require.Equal(t, http.StatusOK, status)
	var res struct {
		UnitID   int64              `json:"unit_id"`
		Warnings []validate.Warning `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, u.ID, res.UnitID)
	assert.NotNil(t, res.Warnings)
	assert.Empty(t, res.Warnings)

	status, body = call(t, srv, http.MethodGet, "/api/rules", nil)
	require.Equal(t, http.StatusOK, status)
	var tables rules.Tables
	require.NoError(t, json.Unmarshal(body, &tables))
	assert.Contains(t, tables.Engines, "XL")
	assert.Equal(t, 10, tables.IntegratedHeatSinkCap)
}

func TestConcurrentEditsStayConsistent(t *testing.T) {
	srv := newServer(t)
	u := createUnit(t, srv, 55)
	path := fmt.Sprintf("/api/units/%d/heat-sinks", u.ID)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(count int) {
			defer wg.Done()
			call(t, srv, http.MethodPost, path, map[string]any{"count": count})
		}(10 + i)
	}
	wg.Wait()

	got := getUnit(t, srv, u.ID)
	assert.Empty(t, validate.Unit(nil, &got))
}

func TestLiveUpdates(t *testing.T) {
	srv := newServer(t)
	u := createUnit(t, srv, 55)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + fmt.Sprintf("/api/units/%d/live", u.ID)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// keep editing until the subscription is registered and a message lands
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			select {
			case <-stop:
				return
			case <-time.After(20 * time.Millisecond):
			}
			req, _ := http.NewRequest(http.MethodPost, srv.URL+fmt.Sprintf("/api/units/%d/heat-sinks", u.ID), strings.NewReader(`{"count": 12}`))
			if resp, err := srv.Client().Do(req); err == nil {
				resp.Body.Close()
			}
		}
	}()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var m struct {
		Type    string                   `json:"type"`
		UnitID  int64                    `json:"unit_id"`
		Payload models.PartialUnitUpdate `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, EventUpdate, m.Type)
	assert.Equal(t, u.ID, m.UnitID)
	require.NotNil(t, m.Payload.SystemComponents)
	assert.Equal(t, 12, m.Payload.SystemComponents.HeatSinks.Count)

	status, _ := call(t, srv, http.MethodGet, "/api/units/9999/live", nil)
	assert.Equal(t, http.StatusNotFound, status)
}
