package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"parking-facility/internal/parking"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Meta    *Meta           `json:"meta"`
}

type testServer struct {
	handler http.Handler
	now     time.Time
}

func (ts *testServer) advance(d time.Duration) { ts.now = ts.now.Add(d) }

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ts := &testServer{now: time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)}

	cfg := parking.DefaultConfig()
	cfg.Floors = 1
	cfg.SpotsPerFloor = map[parking.SpotClass]int{
		parking.Compact:     1,
		parking.Regular:     2,
		parking.Handicapped: 1,
		parking.Reserved:    1,
	}

	n := 0
	facility, err := parking.NewFacility(cfg,
		parking.WithClock(parking.ClockFunc(func() time.Time { return ts.now })),
		parking.WithTicketIDs(parking.TicketIDFunc(func(plate string, _ time.Time) string {
			n++
			return fmt.Sprintf("T-%s-%d", plate, n)
		})),
	)
	require.NoError(t, err)

	telemetry := parking.NewTelemetryProviderFromSDK(sdktrace.NewTracerProvider(), sdkmetric.NewMeterProvider())
	t.Cleanup(func() {
		_ = telemetry.Shutdown(context.Background())
	})

	instrumented, err := parking.NewInstrumentedFacility(facility, telemetry)
	require.NoError(t, err)

	srv := NewServer("0", instrumented, "parking-facility-test", parking.NewCollector(facility))
	ts.handler = srv.Handler()
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rec, _ := ts.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "parking-facility-test", health.Service)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/facility/report", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
	require.NotNil(t, env.Meta)
	assert.Equal(t, "req-42", env.Meta.RequestID)
}

func TestParkBillAndPay(t *testing.T) {
	ts := newTestServer(t)

	rec, env := ts.do(t, http.MethodPost, "/api/facility/park", ParkRequest{
		Plate: "ABC123", VehicleClass: "car", SpotID: "f1-s2",
	})
	require.Equal(t, http.StatusOK, rec.Code, env.Error)

	var ticket parking.Ticket
	require.NoError(t, json.Unmarshal(env.Data, &ticket))
	assert.Equal(t, "T-ABC123-1", ticket.ID)
	assert.Equal(t, "F1-S2", ticket.SpotID)
	assert.Equal(t, parking.Car, ticket.VehicleClass)

	ts.advance(2*time.Hour + 30*time.Minute)

	rec, env = ts.do(t, http.MethodGet, "/api/facility/bill/ABC123", nil)
	require.Equal(t, http.StatusOK, rec.Code, env.Error)

	var bill parking.Bill
	require.NoError(t, json.Unmarshal(env.Data, &bill))
	assert.Equal(t, 3, bill.Hours)
	assert.InDelta(t, 5.0, bill.HourlyRate, 1e-9)
	assert.InDelta(t, 15.0, bill.Total, 1e-9)

	amount := 15.0
	rec, env = ts.do(t, http.MethodPost, "/api/facility/pay", PaymentRequest{Plate: "ABC123", Amount: &amount})
	require.Equal(t, http.StatusOK, rec.Code, env.Error)

	var settlement SettlementResponse
	require.NoError(t, json.Unmarshal(env.Data, &settlement))
	assert.True(t, settlement.Settled)

	rec, env = ts.do(t, http.MethodPost, "/api/facility/pay", PaymentRequest{Plate: "ABC123", Amount: &amount})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &settlement))
	assert.False(t, settlement.Settled)
	assert.Equal(t, "No active session for ABC123", env.Message)

	rec, env = ts.do(t, http.MethodGet, "/api/facility/bill/ABC123", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)

	rec, env = ts.do(t, http.MethodGet, "/api/facility/report", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report ReportResponse
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.InDelta(t, 15.0, report.TotalRevenue, 1e-9)
	assert.Equal(t, 0, report.ActiveOccupancy)
	assert.Equal(t, 5, report.Capacity)
	assert.Empty(t, report.ActiveTickets)
}

func TestParkErrors(t *testing.T) {
	ts := newTestServer(t)

	rec, env := ts.do(t, http.MethodPost, "/api/facility/park", ParkRequest{
		Plate: "ABC123", VehicleClass: "car", SpotID: "F1-S2",
	})
	require.Equal(t, http.StatusOK, rec.Code, env.Error)

	tests := []struct {
		name string
		req  ParkRequest
		want int
	}{
		{"occupied spot", ParkRequest{Plate: "XYZ9", VehicleClass: "car", SpotID: "F1-S2"}, http.StatusConflict},
		{"plate already parked", ParkRequest{Plate: "abc123", VehicleClass: "car", SpotID: "F1-S3"}, http.StatusConflict},
		{"incompatible spot", ParkRequest{Plate: "BIG1", VehicleClass: "suv_truck", SpotID: "F1-S1"}, http.StatusConflict},
		{"unknown spot", ParkRequest{Plate: "XYZ9", VehicleClass: "car", SpotID: "F9-S9"}, http.StatusNotFound},
		{"unknown vehicle class", ParkRequest{Plate: "XYZ9", VehicleClass: "plane", SpotID: "F1-S3"}, http.StatusBadRequest},
		{"missing plate", ParkRequest{VehicleClass: "car", SpotID: "F1-S3"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := ts.do(t, http.MethodPost, "/api/facility/park", tt.req)
			assert.Equal(t, tt.want, rec.Code)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Error)
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/facility/park", strings.NewReader("{not json"))
	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAvailableSpots(t *testing.T) {
	ts := newTestServer(t)

	rec, env := ts.do(t, http.MethodGet, "/api/facility/spots?vehicle_class=car", nil)
	require.Equal(t, http.StatusOK, rec.Code, env.Error)

	var available AvailableSpotsResponse
	require.NoError(t, json.Unmarshal(env.Data, &available))
	assert.Equal(t, 3, available.Count)
	require.Len(t, available.Spots, 3)
	assert.Equal(t, "F1-S1", available.Spots[0].SpotID)

	rec, env = ts.do(t, http.MethodGet, "/api/facility/spots?vehicle_class=handicapped_vehicle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &available))
	assert.Equal(t, 5, available.Count)

	rec, _ = ts.do(t, http.MethodGet, "/api/facility/spots?vehicle_class=plane", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = ts.do(t, http.MethodGet, "/api/facility/spots", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, _ = ts.do(t, http.MethodPost, "/api/facility/park", ParkRequest{Plate: "M1", VehicleClass: "motorcycle", SpotID: "F1-S1"})

	rec, env = ts.do(t, http.MethodGet, "/api/facility/spots?vehicle_class=motorcycle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &available))
	assert.Equal(t, 0, available.Count)
	assert.NotNil(t, available.Spots)
	assert.Equal(t, "No spots available for motorcycle", env.Message)

	rec, env = ts.do(t, http.MethodGet, "/api/facility/spots/all", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var all []SpotStatus
	require.NoError(t, json.Unmarshal(env.Data, &all))
	require.Len(t, all, 5)
	assert.True(t, all[0].Occupied)
	assert.Equal(t, "M1", all[0].Plate)
	assert.Equal(t, "motorcycle", all[0].VehicleClass)
	assert.False(t, all[1].Occupied)
}

func TestTowFinesAndScheme(t *testing.T) {
	ts := newTestServer(t)

	rec, env := ts.do(t, http.MethodPost, "/api/facility/fines", FineRequest{Plate: "LATE1", Amount: 20})
	require.Equal(t, http.StatusOK, rec.Code, env.Error)

	rec, _ = ts.do(t, http.MethodPost, "/api/facility/fines", FineRequest{Plate: "LATE1", Amount: -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = ts.do(t, http.MethodPost, "/api/facility/park", ParkRequest{Plate: "LATE1", VehicleClass: "car", SpotID: "F1-S3"})
	require.Equal(t, http.StatusOK, rec.Code, env.Error)

	ts.advance(time.Hour)

	rec, env = ts.do(t, http.MethodPost, "/api/facility/tow", TowRequest{Plate: "LATE1"})
	require.Equal(t, http.StatusOK, rec.Code, env.Error)

	var bill parking.Bill
	require.NoError(t, json.Unmarshal(env.Data, &bill))
	assert.InDelta(t, 5.0, bill.Fee, 1e-9)
	assert.InDelta(t, 20.0, bill.OutstandingFine, 1e-9)
	assert.InDelta(t, 25.0, bill.Total, 1e-9)

	rec, _ = ts.do(t, http.MethodPost, "/api/facility/tow", TowRequest{Plate: "LATE1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = ts.do(t, http.MethodGet, "/api/facility/report", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report ReportResponse
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.InDelta(t, 25.0, report.OutstandingFines, 1e-9)
	assert.InDelta(t, 0.0, report.TotalRevenue, 1e-9)

	rec, env = ts.do(t, http.MethodPut, "/api/facility/fine-scheme", FineSchemeRequest{Scheme: "progressive"})
	require.Equal(t, http.StatusOK, rec.Code, env.Error)

	rec, env = ts.do(t, http.MethodGet, "/api/facility/report", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, parking.FineProgressive, report.FineScheme)

	rec, _ = ts.do(t, http.MethodPut, "/api/facility/fine-scheme", FineSchemeRequest{Scheme: "lottery"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	_, _ = ts.do(t, http.MethodPost, "/api/facility/park", ParkRequest{Plate: "ABC123", VehicleClass: "car", SpotID: "F1-S2"})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "parking_facility_capacity_spots 5")
	assert.Contains(t, body, "parking_facility_active_tickets 1")
	assert.Contains(t, body, `parking_facility_available_spots{spot_class="regular"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/facility/park", nil)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", parking.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("x: %w", parking.ErrSpotNotFound), http.StatusNotFound},
		{fmt.Errorf("x: %w", parking.ErrNoActiveTicket), http.StatusNotFound},
		{fmt.Errorf("x: %w", parking.ErrSpotOccupied), http.StatusConflict},
		{fmt.Errorf("x: %w", parking.ErrAlreadyParked), http.StatusConflict},
		{fmt.Errorf("x: %w", parking.ErrIncompatibleSpot), http.StatusConflict},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
