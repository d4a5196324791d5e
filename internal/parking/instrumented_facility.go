package parking

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"parking-facility/internal/logging"
)

// InstrumentedFacility traces, meters and logs every Facility operation.
// Read-only accessors are reached through the embedded Facility.
type InstrumentedFacility struct {
	*Facility
	telemetry *TelemetryProvider

	// Metrics
	operations        metric.Int64Counter
	occupancyGauge    metric.Int64UpDownCounter
	revenueCounter    metric.Float64Counter
	finesCounter      metric.Float64Counter
	operationDuration metric.Float64Histogram
}

func NewInstrumentedFacility(facility *Facility, telemetry *TelemetryProvider) (*InstrumentedFacility, error) {
	meter := telemetry.Meter()

	operations, err := meter.Int64Counter("parking_operations_total",
		metric.WithDescription("Total number of facility operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	occupancyGauge, err := meter.Int64UpDownCounter("parking_facility_occupancy",
		metric.WithDescription("Current number of active parking sessions"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	revenueCounter, err := meter.Float64Counter("parking_revenue_total",
		metric.WithDescription("Revenue collected on settlement"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	finesCounter, err := meter.Float64Counter("parking_fines_ledgered_total",
		metric.WithDescription("Unpaid fines carried into the ledger"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram("operation_duration_seconds",
		metric.WithDescription("Duration of facility operations"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	f := &InstrumentedFacility{
		Facility:          facility,
		telemetry:         telemetry,
		operations:        operations,
		occupancyGauge:    occupancyGauge,
		revenueCounter:    revenueCounter,
		finesCounter:      finesCounter,
		operationDuration: operationDuration,
	}

	if n := facility.ActiveOccupancyCount(); n > 0 {
		occupancyGauge.Add(context.Background(), int64(n))
	}

	return f, nil
}

func (f *InstrumentedFacility) FindAvailable(ctx context.Context, vc VehicleClass) ([]Spot, error) {
	ctx, span := f.telemetry.Tracer().Start(ctx, "facility.find_available",
		trace.WithAttributes(attribute.String("vehicle.class", vc.String())))
	defer span.End()

	start := time.Now()
	spots, err := f.Facility.FindAvailable(vc)

	status := "success"
	if err == nil {
		span.SetAttributes(attribute.Int("spots.available", len(spots)))
		if len(spots) == 0 {
			status = "no_capacity"
			span.AddEvent("no_capacity")
		}
	}
	f.finish(ctx, span, "find_available", start, status, err)

	return spots, err
}

func (f *InstrumentedFacility) Allocate(ctx context.Context, plate string, vc VehicleClass, spotID string) (Ticket, error) {
	ctx, span := f.telemetry.Tracer().Start(ctx, "facility.allocate",
		trace.WithAttributes(
			attribute.String("vehicle.plate", plate),
			attribute.String("vehicle.class", vc.String()),
			attribute.String("spot.id", spotID),
		))
	defer span.End()

	start := time.Now()
	ticket, err := f.Facility.Allocate(plate, vc, spotID)

	if err == nil {
		span.SetAttributes(attribute.String("ticket.id", ticket.ID))
		span.AddEvent("spot_allocated", trace.WithAttributes(
			attribute.String("spot.id", ticket.SpotID),
		))
		f.occupancyGauge.Add(ctx, 1)
		logging.Info(ctx, "spot allocated",
			"plate", ticket.Plate,
			"vehicle_class", vc.String(),
			"spot_id", ticket.SpotID,
			"ticket_id", ticket.ID,
		)
	}
	f.finish(ctx, span, "allocate", start, "success", err)

	return ticket, err
}

func (f *InstrumentedFacility) ComputeBill(ctx context.Context, plate string) (Bill, error) {
	ctx, span := f.telemetry.Tracer().Start(ctx, "facility.compute_bill",
		trace.WithAttributes(attribute.String("vehicle.plate", plate)))
	defer span.End()

	start := time.Now()
	bill, err := f.Facility.ComputeBill(plate)

	if err == nil {
		span.SetAttributes(
			attribute.Int("bill.hours", bill.Hours),
			attribute.Float64("bill.fee", bill.Fee),
			attribute.Float64("bill.fine", bill.Fine),
			attribute.Float64("bill.total", bill.Total),
		)
		if bill.OverstayFine > 0 {
			span.AddEvent("overstay_fine_applied")
		}
	}
	f.finish(ctx, span, "compute_bill", start, "success", err)

	return bill, err
}

func (f *InstrumentedFacility) Settle(ctx context.Context, plate string, amountPaid float64) (bool, error) {
	ctx, span := f.telemetry.Tracer().Start(ctx, "facility.settle",
		trace.WithAttributes(
			attribute.String("vehicle.plate", plate),
			attribute.Float64("payment.amount", amountPaid),
		))
	defer span.End()

	start := time.Now()
	settled, err := f.Facility.Settle(plate, amountPaid)

	status := "success"
	switch {
	case err != nil:
	case !settled:
		status = "noop"
		span.AddEvent("no_active_ticket")
	default:
		span.AddEvent("spot_released")
		f.occupancyGauge.Add(ctx, -1)
		f.revenueCounter.Add(ctx, amountPaid)
		logging.Info(ctx, "payment settled", "plate", plate, "amount", amountPaid)
	}
	f.finish(ctx, span, "settle", start, status, err)

	return settled, err
}

func (f *InstrumentedFacility) Tow(ctx context.Context, plate string) (Bill, error) {
	ctx, span := f.telemetry.Tracer().Start(ctx, "facility.tow",
		trace.WithAttributes(attribute.String("vehicle.plate", plate)))
	defer span.End()

	start := time.Now()
	bill, err := f.Facility.Tow(plate)

	if err == nil {
		span.SetAttributes(attribute.Float64("ledger.amount", bill.Total))
		span.AddEvent("spot_released")
		f.occupancyGauge.Add(ctx, -1)
		if carried := bill.Total - bill.OutstandingFine; carried > 0 {
			f.finesCounter.Add(ctx, carried)
		}
		logging.Warn(ctx, "vehicle towed with unpaid session",
			"plate", bill.Ticket.Plate,
			"spot_id", bill.Ticket.SpotID,
			"ledgered", bill.Total,
		)
	}
	f.finish(ctx, span, "tow", start, "success", err)

	return bill, err
}

func (f *InstrumentedFacility) RecordFine(ctx context.Context, plate string, amount float64) error {
	ctx, span := f.telemetry.Tracer().Start(ctx, "facility.record_fine",
		trace.WithAttributes(
			attribute.String("vehicle.plate", plate),
			attribute.Float64("fine.amount", amount),
		))
	defer span.End()

	start := time.Now()
	err := f.Facility.RecordFine(plate, amount)

	if err == nil {
		f.finesCounter.Add(ctx, amount)
		logging.Info(ctx, "fine recorded", "plate", plate, "amount", amount)
	}
	f.finish(ctx, span, "record_fine", start, "success", err)

	return err
}

func (f *InstrumentedFacility) SetFineScheme(ctx context.Context, scheme FineScheme) error {
	ctx, span := f.telemetry.Tracer().Start(ctx, "facility.set_fine_scheme",
		trace.WithAttributes(attribute.String("fine.scheme", scheme.String())))
	defer span.End()

	start := time.Now()
	err := f.Facility.SetFineScheme(scheme)

	if err == nil {
		logging.Info(ctx, "fine scheme changed", "scheme", scheme.String())
	}
	f.finish(ctx, span, "set_fine_scheme", start, "success", err)

	return err
}

func (f *InstrumentedFacility) Report(ctx context.Context) Report {
	ctx, span := f.telemetry.Tracer().Start(ctx, "facility.report")
	defer span.End()

	start := time.Now()
	report := f.Facility.Report()

	span.SetAttributes(
		attribute.Int("occupancy.active", report.ActiveOccupancy),
		attribute.Int("occupancy.capacity", report.Capacity),
	)
	f.finish(ctx, span, "report", start, "success", nil)

	return report
}

// finish records the outcome of an operation on its span and metrics. A
// non-nil err overrides status with a label derived from the error.
func (f *InstrumentedFacility) finish(ctx context.Context, span trace.Span, op string, start time.Time, status string, err error) {
	duration := time.Since(start).Seconds()

	if err != nil {
		status = errorStatus(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logging.Debug(ctx, "facility operation rejected", "operation", op, "error", err)
	}

	labels := metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("status", status),
	)
	f.operations.Add(ctx, 1, labels)
	f.operationDuration.Record(ctx, duration, labels)
}

func errorStatus(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrSpotNotFound):
		return "spot_not_found"
	case errors.Is(err, ErrSpotOccupied):
		return "spot_occupied"
	case errors.Is(err, ErrNoActiveTicket):
		return "no_active_ticket"
	case errors.Is(err, ErrAlreadyParked):
		return "already_parked"
	case errors.Is(err, ErrIncompatibleSpot):
		return "incompatible_spot"
	default:
		return "failed"
	}
}
