package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"smartpark/backend/services/parking-service/internal/models"
)

var (
	descLotCapacity = prometheus.NewDesc(
		namespace+"_lot_capacity",
		"Number of spaces in the lot.",
		[]string{"lot_id"}, nil,
	)
	descLotOccupied = prometheus.NewDesc(
		namespace+"_lot_occupied_spaces",
		"Number of spaces currently taken in the lot.",
		[]string{"lot_id"}, nil,
	)
)

const collectTimeout = 2 * time.Second

// LotSource lists lots for the occupancy collector.
type LotSource interface {
	List(ctx context.Context) ([]models.ParkingLot, error)
}

type lotOccupancyCollector struct {
	lots LotSource
}

var _ prometheus.Collector = &lotOccupancyCollector{}

// NewLotOccupancyCollector exposes capacity and occupancy gauges read from lots on every scrape.
func NewLotOccupancyCollector(lots LotSource) prometheus.Collector {
	return &lotOccupancyCollector{lots: lots}
}

// Describe implements the prometheus.Collector interface.
func (c *lotOccupancyCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- descLotCapacity
	ch <- descLotOccupied
}

// Collect implements the prometheus.Collector interface.
func (c *lotOccupancyCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), collectTimeout)
	defer cancel()

	lots, err := c.lots.List(ctx)
	if err != nil {
		return
	}
	for _, lot := range lots {
		ch <- prometheus.MustNewConstMetric(descLotCapacity, prometheus.GaugeValue, float64(lot.Capacity), lot.LotID)
		ch <- prometheus.MustNewConstMetric(descLotOccupied, prometheus.GaugeValue, float64(lot.OccupiedSpaces), lot.LotID)
	}
}
