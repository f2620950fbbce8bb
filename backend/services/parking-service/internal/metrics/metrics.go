package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "smartpark"

var (
	checkInsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "check_ins_total",
			Help:      "Count of successful check-ins per lot.",
		},
		[]string{"lot_id"},
	)
	checkOutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "check_outs_total",
			Help:      "Count of completed check-outs per lot.",
		},
		[]string{"lot_id"},
	)
	evictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evictions_total",
			Help:      "Count of sessions ended by the overstay sweeper per lot.",
		},
		[]string{"lot_id"},
	)
	checkInsRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "check_ins_rejected_total",
			Help:      "Count of check-ins refused by a business rule.",
		},
		[]string{"reason"},
	)
	sweepRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_runs_total",
			Help:      "Count of eviction sweeps by outcome.",
		},
		[]string{"outcome"},
	)
	sweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Duration of eviction sweeps.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)
)

// Rejection reasons.
const (
	ReasonAlreadyParked = "already_parked"
	ReasonLotFull       = "lot_full"
)

// Register adds the service collectors to reg. lots may be nil to skip the occupancy gauges.
func Register(reg prometheus.Registerer, lots LotSource) {
	reg.MustRegister(
		checkInsTotal,
		checkOutsTotal,
		evictionsTotal,
		checkInsRejectedTotal,
		sweepRunsTotal,
		sweepDuration,
	)
	if lots != nil {
		reg.MustRegister(NewLotOccupancyCollector(lots))
	}
}

// RecordCheckIn counts a successful check-in.
func RecordCheckIn(lotID string) {
	checkInsTotal.WithLabelValues(lotID).Inc()
}

// RecordCheckOut counts a completed check-out.
func RecordCheckOut(lotID string) {
	checkOutsTotal.WithLabelValues(lotID).Inc()
}

// RecordEviction counts a forced release.
func RecordEviction(lotID string) {
	evictionsTotal.WithLabelValues(lotID).Inc()
}

// RecordCheckInRejected counts a refused check-in.
func RecordCheckInRejected(reason string) {
	checkInsRejectedTotal.WithLabelValues(reason).Inc()
}

// RecordSweep observes one sweep run.
func RecordSweep(elapsed time.Duration, failed bool) {
	outcome := "success"
	if failed {
		outcome = "failure"
	}
	sweepRunsTotal.WithLabelValues(outcome).Inc()
	sweepDuration.Observe(elapsed.Seconds())
}
