package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"parking-facility/internal/logging"
	"parking-facility/internal/parking"
)

// FacilityService is the slice of the instrumented facility the HTTP layer
// drives.
type FacilityService interface {
	FindAvailable(ctx context.Context, vc parking.VehicleClass) ([]parking.Spot, error)
	Allocate(ctx context.Context, plate string, vc parking.VehicleClass, spotID string) (parking.Ticket, error)
	ComputeBill(ctx context.Context, plate string) (parking.Bill, error)
	Settle(ctx context.Context, plate string, amountPaid float64) (bool, error)
	Tow(ctx context.Context, plate string) (parking.Bill, error)
	RecordFine(ctx context.Context, plate string, amount float64) error
	SetFineScheme(ctx context.Context, scheme parking.FineScheme) error
	Report(ctx context.Context) parking.Report
	Spots() []parking.Spot
	ActiveTickets() []parking.Ticket
}

type Handler struct {
	facility    FacilityService
	serviceName string
}

func NewHandler(facility FacilityService, serviceName string) *Handler {
	return &Handler{
		facility:    facility,
		serviceName: serviceName,
	}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: h.serviceName,
		Meta:    extractMeta(r.Context()),
	})
}

func (h *Handler) AvailableSpots(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw := r.URL.Query().Get("vehicle_class")
	if raw == "" {
		WriteError(ctx, w, http.StatusBadRequest, "vehicle_class query parameter is required")
		return
	}
	vc, err := parking.ParseVehicleClass(raw)
	if err != nil {
		writeFacilityError(ctx, w, err)
		return
	}

	spots, err := h.facility.FindAvailable(ctx, vc)
	if err != nil {
		writeFacilityError(ctx, w, err)
		return
	}

	resp := AvailableSpotsResponse{
		VehicleClass: vc.String(),
		Count:        len(spots),
		Spots:        make([]SpotStatus, 0, len(spots)),
	}
	for _, s := range spots {
		resp.Spots = append(resp.Spots, newSpotStatus(s))
	}

	message := "Spots available"
	if len(spots) == 0 {
		message = "No spots available for " + vc.String()
	}
	WriteSuccess(ctx, w, message, resp)
}

func (h *Handler) AllSpots(w http.ResponseWriter, r *http.Request) {
	spots := h.facility.Spots()
	statuses := make([]SpotStatus, 0, len(spots))
	for _, s := range spots {
		statuses = append(statuses, newSpotStatus(s))
	}
	WriteSuccess(r.Context(), w, "Facility spots retrieved", statuses)
}

func (h *Handler) Park(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ParkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	spotID := strings.ToUpper(strings.TrimSpace(req.SpotID))
	if strings.TrimSpace(req.Plate) == "" || spotID == "" {
		WriteError(ctx, w, http.StatusBadRequest, "plate and spot_id are required")
		return
	}
	vc, err := parking.ParseVehicleClass(req.VehicleClass)
	if err != nil {
		writeFacilityError(ctx, w, err)
		return
	}

	ticket, err := h.facility.Allocate(ctx, req.Plate, vc, spotID)
	if err != nil {
		writeFacilityError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, "Ticket issued", ticket)
}

func (h *Handler) Bill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	plate := chi.URLParam(r, "plate")

	bill, err := h.facility.ComputeBill(ctx, plate)
	if err != nil {
		writeFacilityError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, "Bill computed", bill)
}

func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Amount == nil {
		WriteError(ctx, w, http.StatusBadRequest, "amount is required")
		return
	}

	settled, err := h.facility.Settle(ctx, req.Plate, *req.Amount)
	if err != nil {
		writeFacilityError(ctx, w, err)
		return
	}

	message := "Payment received"
	if !settled {
		message = "No active session for " + req.Plate
	}
	WriteSuccess(ctx, w, message, SettlementResponse{
		Plate:   req.Plate,
		Amount:  *req.Amount,
		Settled: settled,
	})
}

func (h *Handler) Tow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req TowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	bill, err := h.facility.Tow(ctx, req.Plate)
	if err != nil {
		writeFacilityError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, "Vehicle towed", bill)
}

func (h *Handler) RecordFine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req FineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.facility.RecordFine(ctx, req.Plate, req.Amount); err != nil {
		writeFacilityError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, "Fine recorded", req)
}

func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	WriteSuccess(ctx, w, "Facility report", ReportResponse{
		Report:        h.facility.Report(ctx),
		ActiveTickets: h.facility.ActiveTickets(),
	})
}

func (h *Handler) SetFineScheme(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req FineSchemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	scheme, err := parking.ParseFineScheme(req.Scheme)
	if err != nil {
		writeFacilityError(ctx, w, err)
		return
	}

	if err := h.facility.SetFineScheme(ctx, scheme); err != nil {
		writeFacilityError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, "Fine scheme updated", FineSchemeRequest{Scheme: scheme.String()})
}

func writeFacilityError(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logging.Error(ctx, "facility operation failed", "error", err)
	}
	WriteError(ctx, w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, parking.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, parking.ErrSpotNotFound), errors.Is(err, parking.ErrNoActiveTicket):
		return http.StatusNotFound
	case errors.Is(err, parking.ErrSpotOccupied),
		errors.Is(err, parking.ErrAlreadyParked),
		errors.Is(err, parking.ErrIncompatibleSpot):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
