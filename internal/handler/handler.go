// Package handler exposes the published snapshot over a read-only REST
// surface for the smart-home platform.
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/finassist/bridge/internal/entity"
	"github.com/finassist/bridge/internal/model"
)

// Default event window when the caller gives no range.
const defaultEventWindow = 30 * 24 * time.Hour

// Handler serves snapshot projections.
type Handler struct {
	src       entity.SnapshotSource
	sensors   *entity.Sensors
	calendars *entity.Calendars
	log       *logrus.Logger
}

func NewHandler(src entity.SnapshotSource, sensors *entity.Sensors, calendars *entity.Calendars, log *logrus.Logger) *Handler {
	return &Handler{src: src, sensors: sensors, calendars: calendars, log: log}
}

// Routes registers all endpoints on a router.
func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc("/healthz", h.Healthz).Methods("GET")
	r.HandleFunc("/api/snapshot", h.Snapshot).Methods("GET")
	r.HandleFunc("/api/sensors", h.Sensors).Methods("GET")
	r.HandleFunc("/api/sensors/{id}", h.Sensor).Methods("GET")
	r.HandleFunc("/api/calendars/{id}/events", h.CalendarEvents).Methods("GET")
	r.HandleFunc("/api/planner/events", h.PlannerEvents).Methods("GET")
	r.HandleFunc("/api/health-score", h.HealthScore).Methods("GET")
	r.HandleFunc("/api/risk", h.Risk).Methods("GET")
}

// Healthz reports bridge liveness and data freshness.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok", "data": false}
	if ts, ok := h.src.LastSuccess(); ok {
		body["data"] = true
		body["last_refresh"] = ts.UTC().Format(time.RFC3339)
	}
	h.writeJSON(w, http.StatusOK, body)
}

// Snapshot returns the full published snapshot.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.requireSnapshot(w)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, snap)
}

// Sensors lists every sensor view.
func (h *Handler) Sensors(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireSnapshot(w); !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, h.sensors.All())
}

// Sensor returns one sensor view by entity id.
func (h *Handler) Sensor(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireSnapshot(w); !ok {
		return
	}
	view, ok := h.sensors.Get(mux.Vars(r)["id"])
	if !ok {
		http.Error(w, "sensor not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// CalendarEvents returns the normalized events of one calendar query.
func (h *Handler) CalendarEvents(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.requireSnapshot(w)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	if _, exists := snap.Calendars[id]; !exists {
		http.Error(w, "calendar not found", http.StatusNotFound)
		return
	}
	start, end, err := eventRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.writeJSON(w, http.StatusOK, h.calendars.EventsBetween(id, start, end))
}

// PlannerEvents returns the merged transaction/recurring/critical events.
func (h *Handler) PlannerEvents(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireSnapshot(w); !ok {
		return
	}
	start, end, err := eventRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.writeJSON(w, http.StatusOK, h.calendars.PlannerEvents(start, end))
}

// HealthScore returns the derived financial-health entity.
func (h *Handler) HealthScore(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.requireSnapshot(w)
	if !ok {
		return
	}
	if snap.FinancialHealth == nil {
		http.Error(w, "financial health not computed", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, snap.FinancialHealth)
}

// Risk returns the derived risk assessment.
func (h *Handler) Risk(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.requireSnapshot(w)
	if !ok {
		return
	}
	if snap.RiskAssessment == nil {
		http.Error(w, "risk assessment not computed", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, snap.RiskAssessment)
}

// requireSnapshot answers 503 until the first refresh succeeds.
func (h *Handler) requireSnapshot(w http.ResponseWriter) (*model.Snapshot, bool) {
	snap := h.src.Snapshot()
	if snap == nil {
		http.Error(w, "no snapshot available yet", http.StatusServiceUnavailable)
		return nil, false
	}
	return snap, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
	}
}

// eventRange parses the optional start/end query parameters (RFC3339 or
// plain dates). Defaults: now to now+30 days.
func eventRange(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	start, err := parseRangeParam(r.URL.Query().Get("start"), now)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseRangeParam(r.URL.Query().Get("end"), start.Add(defaultEventWindow))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func parseRangeParam(raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}
