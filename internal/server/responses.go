package server

import (
	"context"
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"parking-facility/internal/logging"
	"parking-facility/internal/parking"
)

type Meta struct {
	TraceID   string `json:"trace_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type ParkRequest struct {
	Plate        string `json:"plate"`
	VehicleClass string `json:"vehicle_class"`
	SpotID       string `json:"spot_id"`
}

type PaymentRequest struct {
	Plate  string   `json:"plate"`
	Amount *float64 `json:"amount"`
}

type TowRequest struct {
	Plate string `json:"plate"`
}

type FineRequest struct {
	Plate  string  `json:"plate"`
	Amount float64 `json:"amount"`
}

type FineSchemeRequest struct {
	Scheme string `json:"scheme"`
}

type SpotStatus struct {
	SpotID       string `json:"spot_id"`
	Floor        int    `json:"floor"`
	Class        string `json:"class"`
	Occupied     bool   `json:"occupied"`
	Plate        string `json:"plate,omitempty"`
	VehicleClass string `json:"vehicle_class,omitempty"`
}

type AvailableSpotsResponse struct {
	VehicleClass string       `json:"vehicle_class"`
	Count        int          `json:"count"`
	Spots        []SpotStatus `json:"spots"`
}

type SettlementResponse struct {
	Plate   string  `json:"plate"`
	Amount  float64 `json:"amount"`
	Settled bool    `json:"settled"`
}

type ReportResponse struct {
	parking.Report
	ActiveTickets []parking.Ticket `json:"active_tickets"`
}

func newSpotStatus(s parking.Spot) SpotStatus {
	status := SpotStatus{
		SpotID:   s.ID,
		Floor:    s.Floor,
		Class:    s.Class.String(),
		Occupied: s.IsOccupied,
	}
	if s.Occupant != nil {
		status.Plate = s.Occupant.Plate
		status.VehicleClass = s.Occupant.Class.String()
	}
	return status
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Logger().Error("failed to encode response", "error", err)
	}
}

func extractMeta(ctx context.Context) *Meta {
	meta := &Meta{}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		meta.TraceID = span.SpanContext().TraceID().String()
	}

	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		meta.RequestID = reqID
	}

	return meta
}

func WriteSuccess(ctx context.Context, w http.ResponseWriter, message string, data any) {
	WriteJSON(w, http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    extractMeta(ctx),
	})
}

func WriteError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{
		Success: false,
		Error:   message,
		Meta:    extractMeta(ctx),
	})
}
