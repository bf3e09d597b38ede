// Package metrics exposes Prometheus instruments for ingestion, reclamation
// and HTTP traffic.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once     sync.Once
	instance *Metrics
)

type Metrics struct {
	// Ingestion
	FilesIngested   *prometheus.CounterVec // vinnodrive_files_ingested_total{status}
	BatchesRejected *prometheus.CounterVec // vinnodrive_batches_rejected_total{code}
	BytesStored     prometheus.Counter     // vinnodrive_bytes_stored_total
	BytesDeduped    prometheus.Counter     // vinnodrive_bytes_deduplicated_total
	UploadDuration  prometheus.Histogram   // vinnodrive_upload_duration_seconds

	// Reclamation
	ObjectsReclaimed prometheus.Counter // vinnodrive_objects_reclaimed_total
	ReclaimFailures  prometheus.Counter // vinnodrive_reclaim_failures_total

	// Reads
	Downloads *prometheus.CounterVec // vinnodrive_downloads_total{kind}

	// HTTP
	RequestsTotal   *prometheus.CounterVec   // vinnodrive_http_requests_total{method,route,status}
	RequestDuration *prometheus.HistogramVec // vinnodrive_http_request_duration_seconds{method,route}
}

// Init registers all instruments. Only the first call registers; later calls
// return the same instance. A nil registry uses the default registerer.
func Init(registry prometheus.Registerer) *Metrics {
	once.Do(func() {
		if registry == nil {
			registry = prometheus.DefaultRegisterer
		}
		factory := promauto.With(registry)

		instance = &Metrics{
			FilesIngested: factory.NewCounterVec(prometheus.CounterOpts{
				Name: "vinnodrive_files_ingested_total",
				Help: "Files committed by the ingestion pipeline, by status",
			}, []string{"status"}),

			BatchesRejected: factory.NewCounterVec(prometheus.CounterOpts{
				Name: "vinnodrive_batches_rejected_total",
				Help: "Upload batches rejected as a whole, by error code",
			}, []string{"code"}),

			BytesStored: factory.NewCounter(prometheus.CounterOpts{
				Name: "vinnodrive_bytes_stored_total",
				Help: "Bytes written to the object store as new primaries",
			}),

			BytesDeduped: factory.NewCounter(prometheus.CounterOpts{
				Name: "vinnodrive_bytes_deduplicated_total",
				Help: "Bytes accepted as duplicates without new storage",
			}),

			UploadDuration: factory.NewHistogram(prometheus.HistogramOpts{
				Name:    "vinnodrive_upload_duration_seconds",
				Help:    "Duration of accepted upload batches",
				Buckets: prometheus.DefBuckets,
			}),

			ObjectsReclaimed: factory.NewCounter(prometheus.CounterOpts{
				Name: "vinnodrive_objects_reclaimed_total",
				Help: "Physical objects removed after their last reference was deleted",
			}),

			ReclaimFailures: factory.NewCounter(prometheus.CounterOpts{
				Name: "vinnodrive_reclaim_failures_total",
				Help: "Physical removals that failed and left an orphaned object",
			}),

			Downloads: factory.NewCounterVec(prometheus.CounterOpts{
				Name: "vinnodrive_downloads_total",
				Help: "Downloads served, by kind (owner, shared, public)",
			}, []string{"kind"}),

			RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
				Name: "vinnodrive_http_requests_total",
				Help: "HTTP requests by method, route pattern and status",
			}, []string{"method", "route", "status"}),

			RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "vinnodrive_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			}, []string{"method", "route"}),
		}
	})
	return instance
}
