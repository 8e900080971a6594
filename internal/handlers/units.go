package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/JustinWhittecar/mechforge/internal/componentsync"
	"github.com/JustinWhittecar/mechforge/internal/db"
	"github.com/JustinWhittecar/mechforge/internal/live"
	"github.com/JustinWhittecar/mechforge/internal/models"
	"github.com/JustinWhittecar/mechforge/internal/validate"
)

// Live message types.
const (
	EventUpdate  = "update"
	EventDetails = "details"
	EventDeleted = "deleted"
)

type UnitsHandler struct {
	Store db.UnitStore
	Sync  *componentsync.Syncer
	Hub   *live.Hub
	Log   zerolog.Logger

	locks unitLocks
}

func NewUnitsHandler(store db.UnitStore, syncer *componentsync.Syncer, hub *live.Hub, log zerolog.Logger) *UnitsHandler {
	return &UnitsHandler{
		Store: store,
		Sync:  syncer,
		Hub:   hub,
		Log:   log.With().Str("component", "handlers").Logger(),
	}
}

func (h *UnitsHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/rules", h.Rules)

	mux.HandleFunc("GET /api/units", h.List)
	mux.HandleFunc("POST /api/units", h.Create)
	mux.HandleFunc("GET /api/units/{id}", h.Get)
	mux.HandleFunc("PUT /api/units/{id}", h.Update)
	mux.HandleFunc("DELETE /api/units/{id}", h.Delete)

	mux.HandleFunc("POST /api/units/{id}/engine", h.Engine)
	mux.HandleFunc("POST /api/units/{id}/gyro", h.Gyro)
	mux.HandleFunc("POST /api/units/{id}/structure", h.Structure)
	mux.HandleFunc("POST /api/units/{id}/heat-sinks", h.HeatSinks)

	mux.HandleFunc("POST /api/units/{id}/equipment", h.AddEquipment)
	mux.HandleFunc("DELETE /api/units/{id}/equipment/{entryID}", h.RemoveEquipment)

	mux.HandleFunc("GET /api/units/{id}/validation", h.Validation)
	mux.HandleFunc("GET /api/units/{id}/live", h.Live)
}

// Health is the liveness check.
func Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (h *UnitsHandler) Rules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Sync.Tables())
}

func (h *UnitsHandler) List(w http.ResponseWriter, r *http.Request) {
	units, err := h.Store.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if units == nil {
		units = []db.UnitSummary{}
	}
	writeJSON(w, http.StatusOK, units)
}

func (h *UnitsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := unitID(r)
	if !ok {
		badRequest(w, "invalid unit id")
		return
	}
	u, err := h.Store.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// defaultRating gives a new unit walking MP 4, rounded to a legal rating.
func defaultRating(mass int) int {
	r := (mass*4 + 2) / 5 * 5
	return min(max(r, 10), 500)
}

func (h *UnitsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Chassis     string `json:"chassis"`
		Model       string `json:"model"`
		Mass        int    `json:"mass"`
		TechBase    string `json:"tech_base"`
		Era         string `json:"era"`
		Role        string `json:"role"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid JSON")
		return
	}
	req.Chassis = strings.TrimSpace(req.Chassis)
	if req.Chassis == "" {
		badRequest(w, "chassis is required")
		return
	}
	if req.Mass < 10 || req.Mass > 200 {
		badRequest(w, "mass must be between 10 and 200 tons")
		return
	}

	u := &models.UnitRecord{
		Chassis:     req.Chassis,
		Model:       strings.TrimSpace(req.Model),
		Mass:        req.Mass,
		TechBase:    models.NormalizeTechBase(req.TechBase),
		Era:         req.Era,
		Role:        req.Role,
		Description: req.Description,
		SystemComponents: models.SystemComponents{
			Engine:    models.EngineComponent{Type: "Standard", Rating: defaultRating(req.Mass)},
			Gyro:      models.GyroComponent{Type: "Standard"},
			Structure: models.StructureComponent{Type: "Standard"},
			HeatSinks: models.HeatSinkComponent{Type: "Single", Count: 10},
		},
	}
	update, err := h.Sync.Initialize(u)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	u.Apply(update)
	if err := h.Store.Create(r.Context(), u); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.Log.Info().Int64("unit", u.ID).Str("name", u.FullName()).Int("mass", u.Mass).Msg("unit created")
	writeJSON(w, http.StatusCreated, u)
}

// Update edits the descriptive fields. Structural fields go through the
// component endpoints so the slot map stays consistent.
func (h *UnitsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := unitID(r)
	if !ok {
		badRequest(w, "invalid unit id")
		return
	}
	var req struct {
		Chassis     *string `json:"chassis"`
		Model       *string `json:"model"`
		Era         *string `json:"era"`
		Role        *string `json:"role"`
		Description *string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid JSON")
		return
	}
	if req.Chassis != nil && strings.TrimSpace(*req.Chassis) == "" {
		badRequest(w, "chassis cannot be empty")
		return
	}

	unlock := h.locks.lock(id)
	defer unlock()

	u, err := h.Store.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Chassis != nil {
		u.Chassis = strings.TrimSpace(*req.Chassis)
	}
	if req.Model != nil {
		u.Model = strings.TrimSpace(*req.Model)
	}
	if req.Era != nil {
		u.Era = *req.Era
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	if req.Description != nil {
		u.Description = *req.Description
	}
	if err := h.Store.Save(r.Context(), u); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.publish(id, EventDetails, u)
	writeJSON(w, http.StatusOK, u)
}

func (h *UnitsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := unitID(r)
	if !ok {
		badRequest(w, "invalid unit id")
		return
	}
	unlock := h.locks.lock(id)
	defer unlock()

	if err := h.Store.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.Log.Info().Int64("unit", id).Msg("unit deleted")
	h.publish(id, EventDeleted, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *UnitsHandler) Engine(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type   string `json:"type"`
		Rating *int   `json:"rating"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid JSON")
		return
	}
	h.apply(w, r, "engine", func(u *models.UnitRecord) (*models.PartialUnitUpdate, error) {
		engineType, rating := req.Type, u.SystemComponents.Engine.Rating
		if engineType == "" {
			engineType = u.SystemComponents.Engine.Type
		}
		if req.Rating != nil {
			rating = *req.Rating
		}
		return h.Sync.EngineChange(u, engineType, rating)
	})
}

func (h *UnitsHandler) Gyro(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid JSON")
		return
	}
	h.apply(w, r, "gyro", func(u *models.UnitRecord) (*models.PartialUnitUpdate, error) {
		return h.Sync.GyroChange(u, req.Type)
	})
}

func (h *UnitsHandler) Structure(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid JSON")
		return
	}
	h.apply(w, r, "structure", func(u *models.UnitRecord) (*models.PartialUnitUpdate, error) {
		return h.Sync.StructureChange(u, req.Type)
	})
}

func (h *UnitsHandler) HeatSinks(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type  string `json:"type"`
		Count *int   `json:"count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid JSON")
		return
	}
	h.apply(w, r, "heat_sinks", func(u *models.UnitRecord) (*models.PartialUnitUpdate, error) {
		hsType, count := req.Type, u.SystemComponents.HeatSinks.Count
		if hsType == "" {
			hsType = u.SystemComponents.HeatSinks.Type
		}
		if req.Count != nil {
			count = *req.Count
		}
		return h.Sync.HeatSinkChange(u, hsType, count)
	})
}

func (h *UnitsHandler) AddEquipment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID       string  `json:"id"`
		ItemName string  `json:"item_name"`
		ItemType string  `json:"item_type"`
		Tons     float64 `json:"tons"`
		Crits    int     `json:"crits"`
		Location string  `json:"location"`
		// Slot is the first slot the item occupies, counted from 1.
		Slot int `json:"slot"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid JSON")
		return
	}
	loc, ok := models.LocationFromName(req.Location)
	if !ok {
		loc = models.Location(req.Location)
	}
	if req.ItemType == "" {
		req.ItemType = "equipment"
	}
	item := models.EquipmentEntry{
		ID:       req.ID,
		ItemName: req.ItemName,
		ItemType: req.ItemType,
		Tons:     req.Tons,
		Crits:    req.Crits,
	}
	h.apply(w, r, "equipment", func(u *models.UnitRecord) (*models.PartialUnitUpdate, error) {
		return h.Sync.PlaceEquipment(u, item, loc, req.Slot-1)
	})
}

func (h *UnitsHandler) RemoveEquipment(w http.ResponseWriter, r *http.Request) {
	entryID := r.PathValue("entryID")
	h.apply(w, r, "equipment", func(u *models.UnitRecord) (*models.PartialUnitUpdate, error) {
		return h.Sync.RemoveEquipment(u, entryID)
	})
}

// apply runs one edit as a locked load, change, save cycle and answers with
// the partial update that was applied.
func (h *UnitsHandler) apply(w http.ResponseWriter, r *http.Request, field string, change func(*models.UnitRecord) (*models.PartialUnitUpdate, error)) {
	id, ok := unitID(r)
	if !ok {
		badRequest(w, "invalid unit id")
		return
	}
	unlock := h.locks.lock(id)
	defer unlock()

	u, err := h.Store.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	update, err := change(u)
	if err != nil {
		h.Log.Debug().Err(err).Int64("unit", id).Str("field", field).Msg("edit rejected")
		h.writeError(w, r, err)
		return
	}
	u.Apply(update)
	if err := h.Store.Save(r.Context(), u); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.Log.Info().Int64("unit", id).Str("field", field).Msg("unit updated")
	h.publish(id, EventUpdate, update)
	writeJSON(w, http.StatusOK, update)
}

func (h *UnitsHandler) publish(id int64, event string, payload any) {
	if h.Hub != nil {
		h.Hub.Publish(id, event, payload)
	}
}

func (h *UnitsHandler) Validation(w http.ResponseWriter, r *http.Request) {
	id, ok := unitID(r)
	if !ok {
		badRequest(w, "invalid unit id")
		return
	}
	u, err := h.Store.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	warnings := validate.Unit(h.Sync.Tables(), u)
	if warnings == nil {
		warnings = []validate.Warning{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"unit_id": id, "warnings": warnings})
}

func (h *UnitsHandler) Live(w http.ResponseWriter, r *http.Request) {
	id, ok := unitID(r)
	if !ok {
		badRequest(w, "invalid unit id")
		return
	}
	if h.Hub == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "live updates disabled"})
		return
	}
	if _, err := h.Store.Get(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.Hub.Serve(w, r, id)
}
