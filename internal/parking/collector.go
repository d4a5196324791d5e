package parking

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector exposes a facility snapshot to Prometheus at scrape time.
type Collector struct {
	facility *Facility

	revenue          *prometheus.Desc
	activeTickets    *prometheus.Desc
	capacity         *prometheus.Desc
	outstandingFines *prometheus.Desc
	availableSpots   *prometheus.Desc
	floorOccupied    *prometheus.Desc
	floorSpots       *prometheus.Desc
}

func NewCollector(facility *Facility) *Collector {
	return &Collector{
		facility: facility,
		revenue: prometheus.NewDesc("parking_facility_revenue_total",
			"Revenue collected from settled sessions.", nil, nil),
		activeTickets: prometheus.NewDesc("parking_facility_active_tickets",
			"Number of open parking sessions.", nil, nil),
		capacity: prometheus.NewDesc("parking_facility_capacity_spots",
			"Total number of spots in the facility.", nil, nil),
		outstandingFines: prometheus.NewDesc("parking_facility_outstanding_fines",
			"Sum of unpaid fines held in the ledger.", nil, nil),
		availableSpots: prometheus.NewDesc("parking_facility_available_spots",
			"Free spots by spot class.", []string{"spot_class"}, nil),
		floorOccupied: prometheus.NewDesc("parking_facility_floor_occupied_spots",
			"Occupied spots per floor.", []string{"floor"}, nil),
		floorSpots: prometheus.NewDesc("parking_facility_floor_spots",
			"Total spots per floor.", []string{"floor"}, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.revenue
	ch <- c.activeTickets
	ch <- c.capacity
	ch <- c.outstandingFines
	ch <- c.availableSpots
	ch <- c.floorOccupied
	ch <- c.floorSpots
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	r := c.facility.Report()

	ch <- prometheus.MustNewConstMetric(c.revenue, prometheus.CounterValue, r.TotalRevenue)
	ch <- prometheus.MustNewConstMetric(c.activeTickets, prometheus.GaugeValue, float64(r.ActiveOccupancy))
	ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(r.Capacity))
	ch <- prometheus.MustNewConstMetric(c.outstandingFines, prometheus.GaugeValue, r.OutstandingFines)

	for _, class := range SpotClasses() {
		ch <- prometheus.MustNewConstMetric(c.availableSpots, prometheus.GaugeValue,
			float64(r.Available[class]), class.String())
	}

	for _, floor := range r.Floors {
		label := strconv.Itoa(floor.Floor)
		ch <- prometheus.MustNewConstMetric(c.floorOccupied, prometheus.GaugeValue, float64(floor.Occupied), label)
		ch <- prometheus.MustNewConstMetric(c.floorSpots, prometheus.GaugeValue, float64(floor.Total), label)
	}
}
