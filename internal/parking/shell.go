package parking

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Shell reads one command per line and writes human-readable results.
type Shell struct {
	facility  *InstrumentedFacility
	telemetry *TelemetryProvider
	scanner   *bufio.Scanner
	out       io.Writer
}

func NewShell(facility *InstrumentedFacility, telemetry *TelemetryProvider, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		facility:  facility,
		telemetry: telemetry,
		scanner:   bufio.NewScanner(in),
		out:       out,
	}
}

func (s *Shell) Run(ctx context.Context) {
	tracer := s.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "shell.run")
	defer span.End()

	span.AddEvent("shell_started")

	for ctx.Err() == nil {
		if !s.scanner.Scan() {
			break
		}

		input := strings.TrimSpace(s.scanner.Text())
		if input == "" {
			continue
		}

		cmdCtx, cmdSpan := tracer.Start(ctx, "shell.process_command",
			trace.WithAttributes(attribute.String("command.input", input)))
		s.processCommand(cmdCtx, input)
		cmdSpan.End()
	}

	span.AddEvent("shell_ended")
}

func (s *Shell) processCommand(ctx context.Context, input string) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return
	}

	command := parts[0]
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("command.name", command))

	switch command {
	case "available":
		s.handleAvailable(ctx, parts)
	case "park":
		s.handlePark(ctx, parts)
	case "bill":
		s.handleBill(ctx, parts)
	case "pay":
		s.handlePay(ctx, parts)
	case "tow":
		s.handleTow(ctx, parts)
	case "fine":
		s.handleFine(ctx, parts)
	case "fine_scheme":
		s.handleFineScheme(ctx, parts)
	case "report":
		s.handleReport(ctx)
	case "status":
		s.handleStatus(ctx)
	default:
		trace.SpanFromContext(ctx).AddEvent("unknown_command")
		s.printf("Unknown command: %s\n", command)
	}
}

func (s *Shell) handleAvailable(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		s.println("Usage: available <vehicle_class>")
		return
	}

	vc, err := ParseVehicleClass(parts[1])
	if err != nil {
		s.printf("Invalid vehicle class: %s\n", parts[1])
		return
	}

	spots, err := s.facility.FindAvailable(ctx, vc)
	if err != nil {
		s.printf("Error: %s\n", err.Error())
		return
	}
	if len(spots) == 0 {
		s.printf("No spots available for %s\n", vc)
		return
	}

	s.println("Spot ID\tClass\tFloor")
	for _, spot := range spots {
		s.printf("%s\t%s\t%d\n", spot.ID, spot.Class, spot.Floor)
	}
}

func (s *Shell) handlePark(ctx context.Context, parts []string) {
	if len(parts) != 4 {
		s.println("Usage: park <plate> <vehicle_class> <spot_id>")
		return
	}

	vc, err := ParseVehicleClass(parts[2])
	if err != nil {
		s.printf("Invalid vehicle class: %s\n", parts[2])
		return
	}

	spotID := strings.ToUpper(parts[3])
	ticket, err := s.facility.Allocate(ctx, parts[1], vc, spotID)
	switch {
	case errors.Is(err, ErrSpotNotFound):
		s.printf("Spot not found: %s\n", spotID)
	case errors.Is(err, ErrSpotOccupied):
		s.printf("Spot %s is already occupied\n", spotID)
	case errors.Is(err, ErrIncompatibleSpot):
		s.printf("Spot %s does not fit a %s\n", spotID, vc)
	case errors.Is(err, ErrAlreadyParked):
		s.printf("Vehicle %s is already parked\n", parts[1])
	case err != nil:
		s.printf("Error: %s\n", err.Error())
	default:
		s.printf("Ticket %s issued for %s at spot %s\n", ticket.ID, ticket.Plate, ticket.SpotID)
	}
}

func (s *Shell) handleBill(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		s.println("Usage: bill <plate>")
		return
	}

	bill, err := s.facility.ComputeBill(ctx, parts[1])
	if errors.Is(err, ErrNoActiveTicket) {
		s.println("Vehicle not found")
		return
	}
	if err != nil {
		s.printf("Error: %s\n", err.Error())
		return
	}

	s.printf("Plate: %s\n", bill.Ticket.Plate)
	s.printf("Spot: %s\n", bill.Ticket.SpotID)
	s.printf("Duration: %d hours\n", bill.Hours)
	s.printf("Parking fee: %.2f\n", bill.Fee)
	s.printf("Fines: %.2f\n", bill.Fine)
	s.printf("Total due: %.2f\n", bill.Total)
}

func (s *Shell) handlePay(ctx context.Context, parts []string) {
	if len(parts) != 3 {
		s.println("Usage: pay <plate> <amount>")
		return
	}

	amount, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		s.printf("Invalid amount: %s\n", parts[2])
		return
	}

	settled, err := s.facility.Settle(ctx, parts[1], amount)
	if err != nil {
		s.printf("Error: %s\n", err.Error())
		return
	}
	if !settled {
		s.printf("No active session for %s\n", parts[1])
		return
	}

	s.printf("Payment of %.2f received, %s may exit\n", amount, parts[1])
}

func (s *Shell) handleTow(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		s.println("Usage: tow <plate>")
		return
	}

	bill, err := s.facility.Tow(ctx, parts[1])
	if errors.Is(err, ErrNoActiveTicket) {
		s.println("Vehicle not found")
		return
	}
	if err != nil {
		s.printf("Error: %s\n", err.Error())
		return
	}

	s.printf("Vehicle %s towed from %s, %.2f outstanding\n", bill.Ticket.Plate, bill.Ticket.SpotID, bill.Total)
}

func (s *Shell) handleFine(ctx context.Context, parts []string) {
	if len(parts) != 3 {
		s.println("Usage: fine <plate> <amount>")
		return
	}

	amount, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		s.printf("Invalid amount: %s\n", parts[2])
		return
	}

	if err := s.facility.RecordFine(ctx, parts[1], amount); err != nil {
		s.printf("Error: %s\n", err.Error())
		return
	}

	s.printf("Fine of %.2f recorded for %s\n", amount, parts[1])
}

func (s *Shell) handleFineScheme(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		s.println("Usage: fine_scheme <fixed|progressive|hourly>")
		return
	}

	scheme, err := ParseFineScheme(parts[1])
	if err != nil {
		s.printf("Invalid fine scheme: %s\n", parts[1])
		return
	}

	if err := s.facility.SetFineScheme(ctx, scheme); err != nil {
		s.printf("Error: %s\n", err.Error())
		return
	}

	s.printf("Fine scheme set to %s\n", scheme)
}

func (s *Shell) handleReport(ctx context.Context) {
	r := s.facility.Report(ctx)

	s.printf("Total revenue: %.2f\n", r.TotalRevenue)
	s.printf("Current occupancy: %d/%d\n", r.ActiveOccupancy, r.Capacity)
	s.printf("Outstanding fines: %.2f\n", r.OutstandingFines)
	s.printf("Fine scheme: %s\n", r.FineScheme)
	for _, floor := range r.Floors {
		s.printf("Floor %d: %d/%d occupied\n", floor.Floor, floor.Occupied, floor.Total)
	}
}

func (s *Shell) handleStatus(ctx context.Context) {
	_, span := s.telemetry.Tracer().Start(ctx, "shell.status")
	defer span.End()

	tickets := s.facility.ActiveTickets()
	span.SetAttributes(attribute.Int("tickets.active", len(tickets)))
	if len(tickets) == 0 {
		s.println("Facility is empty")
		return
	}

	s.println("Spot ID\tPlate\tVehicle Class\tTicket")
	for _, t := range tickets {
		s.printf("%s\t%s\t%s\t%s\n", t.SpotID, t.Plate, t.VehicleClass, t.ID)
	}
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *Shell) println(line string) {
	fmt.Fprintln(s.out, line)
}
