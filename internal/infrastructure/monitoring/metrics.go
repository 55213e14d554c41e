package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type BusinessMetrics struct {
	PaymentsRecorded   *prometheus.CounterVec
	AssessmentsTotal   *prometheus.CounterVec
	LiquidationsTotal  *prometheus.CounterVec
	ArrearsRefreshRuns *prometheus.CounterVec
	CacheLookupsTotal  *prometheus.CounterVec
}

var (
	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cobro_engine_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Business = BusinessMetrics{
		PaymentsRecorded: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cobro_engine_payments_total",
				Help: "Total number of collection payments registered, by outcome.",
			},
			[]string{"status"},
		),
		AssessmentsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cobro_engine_assessments_total",
				Help: "Total number of credit arrears assessments, by visit category.",
			},
			[]string{"category"},
		),
		LiquidationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cobro_engine_liquidations_total",
				Help: "Total number of route liquidations computed, by source.",
			},
			[]string{"source"},
		),
		ArrearsRefreshRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cobro_engine_arrears_refresh_runs_total",
				Help: "Total number of arrears refresh job runs, by outcome.",
			},
			[]string{"status"},
		),
		CacheLookupsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cobro_engine_cache_lookups_total",
				Help: "Total number of liquidation cache lookups, by result.",
			},
			[]string{"result"},
		),
	}
)

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

func RecordPayment(status string) {
	Business.PaymentsRecorded.WithLabelValues(status).Inc()
}

func RecordAssessment(category string) {
	Business.AssessmentsTotal.WithLabelValues(category).Inc()
}

func RecordLiquidation(source string) {
	Business.LiquidationsTotal.WithLabelValues(source).Inc()
}

func RecordArrearsRefresh(status string) {
	Business.ArrearsRefreshRuns.WithLabelValues(status).Inc()
}

func RecordCacheLookup(result string) {
	Business.CacheLookupsTotal.WithLabelValues(result).Inc()
}
