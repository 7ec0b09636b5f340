package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"energy_manager/internal/device"
	"energy_manager/internal/energy"
	"energy_manager/internal/model"
	"energy_manager/internal/simulator"
	"energy_manager/internal/store"
	"energy_manager/internal/telemetry"
)

// API holds the services the handlers delegate to.
type API struct {
	Devices   *device.Service
	Energy    *energy.Service
	Telemetry *telemetry.Service
	Engine    *simulator.Engine
	Log       *slog.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

type deviceResponse struct {
	ID            uuid.UUID        `json:"id"`
	Name          string           `json:"name"`
	Description   string           `json:"description,omitempty"`
	Type          model.DeviceType `json:"type"`
	IsActive      bool             `json:"is_active"`
	Properties    model.Properties `json:"properties"`
	State         model.State      `json:"state"`
	PowerWatts    float64          `json:"current_power_watts"`
	ChargePercent *float64         `json:"charge_percent,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

func toDeviceResponse(d *model.Device) deviceResponse {
	resp := deviceResponse{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Type:        d.Type,
		IsActive:    d.IsActive,
		Properties:  d.Properties,
		State:       d.State,
		PowerWatts:  d.CurrentPowerWatts(),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if pct, ok := d.ChargePercent(); ok {
		resp.ChargePercent = &pct
	}
	return resp
}

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

type registerRequest struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Type        string             `json:"type"`
	Properties  map[string]float64 `json:"properties"`
}

func (a *API) registerDevice(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		a.writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	d, err := a.Devices.Register(r.Context(), req.Name, req.Description, req.Type, req.Properties)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, toDeviceResponse(d))
}

func (a *API) listDevices(w http.ResponseWriter, r *http.Request) {
	var deviceType *model.DeviceType
	if raw := r.URL.Query().Get("type"); raw != "" {
		dt, err := device.ParseDeviceType(raw)
		if err != nil {
			a.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		deviceType = &dt
	}
	activeOnly := r.URL.Query().Get("active") == "true"

	devices, err := a.Devices.List(r.Context(), deviceType, activeOnly)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	out := make([]deviceResponse, 0, len(devices))
	for _, d := range devices {
		out = append(out, toDeviceResponse(d))
	}
	a.writeJSON(w, http.StatusOK, out)
}

func (a *API) getDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}
	d, err := a.Devices.Get(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, toDeviceResponse(d))
}

type modeRequest struct {
	Mode      string   `json:"mode"`
	RateWatts *float64 `json:"rate_watts"`
}

func (a *API) setMode(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}
	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := a.Devices.SetStorageMode(r.Context(), id, req.Mode, req.RateWatts)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, toDeviceResponse(d))
}

type activeRequest struct {
	IsActive bool `json:"is_active"`
}

func (a *API) setActive(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}
	var req activeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := a.Devices.SetActive(r.Context(), id, req.IsActive)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, toDeviceResponse(d))
}

func (a *API) deviceTelemetry(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	start, err := time.Parse(time.RFC3339, q.Get("start"))
	if err != nil {
		a.writeError(w, http.StatusBadRequest, "start must be an RFC3339 timestamp")
		return
	}
	end, err := time.Parse(time.RFC3339, q.Get("end"))
	if err != nil {
		a.writeError(w, http.StatusBadRequest, "end must be an RFC3339 timestamp")
		return
	}

	if raw := q.Get("interval"); raw != "" {
		interval, err := model.ParseInterval(raw)
		if err != nil {
			a.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		buckets, err := a.Telemetry.Aggregated(r.Context(), id, start, end, interval)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		if buckets == nil {
			buckets = []model.AggregateBucket{}
		}
		a.writeJSON(w, http.StatusOK, buckets)
		return
	}

	readings, err := a.Telemetry.Readings(r.Context(), id, start, end)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	if readings == nil {
		readings = []model.Reading{}
	}
	a.writeJSON(w, http.StatusOK, readings)
}

func (a *API) summary(w http.ResponseWriter, r *http.Request) {
	sum, err := a.Energy.Summary(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, sum)
}

type simulateRequest struct {
	Timestamp *time.Time `json:"timestamp"`
}

type simulateResponse struct {
	Timestamp time.Time                 `json:"timestamp"`
	Processed int                       `json:"processed"`
	Failures  []simulator.DeviceFailure `json:"failures,omitempty"`
}

func (a *API) simulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			a.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	var at time.Time
	if req.Timestamp != nil {
		at = req.Timestamp.UTC()
	}

	result, err := a.Engine.SimulateTick(r.Context(), at)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, simulateResponse{
		Timestamp: result.Timestamp,
		Processed: result.Processed,
		Failures:  result.Failures,
	})
}

func (a *API) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid device id")
		return uuid.Nil, false
	}
	return id, true
}

// writeServiceError maps domain errors onto HTTP statuses.
func (a *API) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrDeviceNotFound):
		a.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, device.ErrNotAStorageDevice):
		a.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, device.ErrUnknownMode),
		errors.Is(err, telemetry.ErrInvalidRange),
		device.IsValidationError(err):
		a.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, simulator.ErrTickInFlight):
		a.writeError(w, http.StatusConflict, err.Error())
	default:
		a.Log.Error("request failed", "err", err)
		a.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (a *API) writeError(w http.ResponseWriter, status int, msg string) {
	a.writeJSON(w, status, errorResponse{Error: msg})
}

func (a *API) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.Log.Error("encode response", "err", err)
	}
}
