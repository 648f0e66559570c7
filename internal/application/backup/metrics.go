package backup

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Métricas Prometheus de copias y restauraciones.
var (
	// operationsTotal operaciones por tipo (backup|restore) y resultado (ok|partial|error).
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backup_operations_total",
		Help: "Total number of backup and restore operations",
	}, []string{"operation", "result"})

	// operationDuration duración de cada operación.
	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "backup_operation_duration_seconds",
		Help:    "Backup and restore duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// restoredEntitiesTotal entidades por etapa y resultado (restored|failed|gap).
	restoredEntitiesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backup_restore_entities_total",
		Help: "Entities processed during restores by stage and outcome",
	}, []string{"stage", "outcome"})

	// lastBackupSizeBytes tamaño del último snapshot escrito.
	lastBackupSizeBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "backup_last_size_bytes",
		Help: "Size in bytes of the last snapshot written",
	})
)

func observeStage(r StageResult) {
	restoredEntitiesTotal.WithLabelValues(string(r.Stage), "restored").Add(float64(r.Restored))
	restoredEntitiesTotal.WithLabelValues(string(r.Stage), "failed").Add(float64(r.Failed))
	restoredEntitiesTotal.WithLabelValues(string(r.Stage), "gap").Add(float64(r.Gaps))
}
