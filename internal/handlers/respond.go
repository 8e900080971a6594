package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/JustinWhittecar/mechforge/internal/componentsync"
	"github.com/JustinWhittecar/mechforge/internal/db"
	"github.com/JustinWhittecar/mechforge/internal/rules"
	"github.com/JustinWhittecar/mechforge/internal/slots"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error     string `json:"error"`
	Location  string `json:"location,omitempty"`
	Required  int    `json:"required,omitempty"`
	Available int    `json:"available,omitempty"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, db.ErrNotFound), errors.Is(err, componentsync.ErrEquipmentNotFound):
		return http.StatusNotFound
	case errors.Is(err, rules.ErrUnknownComponentType), errors.Is(err, componentsync.ErrInvalidValue):
		return http.StatusBadRequest
	case errors.Is(err, slots.ErrInsufficientSlots),
		errors.Is(err, componentsync.ErrSlotOccupied),
		errors.Is(err, componentsync.ErrGeneratedEquipment):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (h *UnitsHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error()}
	if status == http.StatusInternalServerError {
		h.Log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		body.Error = "internal error"
	}
	var ins *slots.InsufficientSlotsError
	if errors.As(err, &ins) {
		body.Location = string(ins.Location)
		body.Required = ins.Required
		body.Available = ins.Available
	}
	writeJSON(w, status, body)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

func unitID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}
