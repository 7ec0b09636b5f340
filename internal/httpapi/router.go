// Package httpapi exposes device management, telemetry queries and
// simulation control over HTTP.
package httpapi

import (
	"github.com/gorilla/mux"
)

// NewRouter wires the API routes onto a gorilla router.
func NewRouter(api *API) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", api.health).Methods("GET")

	r.HandleFunc("/api/devices", api.registerDevice).Methods("POST")
	r.HandleFunc("/api/devices", api.listDevices).Methods("GET")
	r.HandleFunc("/api/devices/{id}", api.getDevice).Methods("GET")
	r.HandleFunc("/api/devices/{id}/mode", api.setMode).Methods("POST")
	r.HandleFunc("/api/devices/{id}/active", api.setActive).Methods("POST")
	r.HandleFunc("/api/devices/{id}/telemetry", api.deviceTelemetry).Methods("GET")

	r.HandleFunc("/api/summary", api.summary).Methods("GET")
	r.HandleFunc("/api/simulate", api.simulate).Methods("POST")

	return r
}
