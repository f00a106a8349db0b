// prometheus.go - Prometheus text exposition of the in-process counters
package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// prometheusHandler serves GET /metrics.
func (s *Server) prometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := s.metrics.Snapshot()

		var out strings.Builder
		writeMetric := func(name, kind, help string, value any) {
			fmt.Fprintf(&out, "# HELP %s %s\n", name, help)
			fmt.Fprintf(&out, "# TYPE %s %s\n", name, kind)
			fmt.Fprintf(&out, "%s %v\n\n", name, value)
		}

		writeMetric("pdfdrop_requests_total", "counter", "Total number of HTTP requests", snapshot.RequestsTotal)
		out.WriteString("# HELP pdfdrop_request_errors_total HTTP responses with an error status\n")
		out.WriteString("# TYPE pdfdrop_request_errors_total counter\n")
		fmt.Fprintf(&out, "pdfdrop_request_errors_total{class=\"4xx\"} %d\n", snapshot.RequestErrors4xx)
		fmt.Fprintf(&out, "pdfdrop_request_errors_total{class=\"5xx\"} %d\n\n", snapshot.RequestErrors5xx)

		writeMetric("pdfdrop_uploads_total", "counter", "Uploads stored and registered", snapshot.UploadsTotal)
		writeMetric("pdfdrop_upload_bytes_total", "counter", "Bytes written by successful uploads", snapshot.UploadBytesTotal)
		writeMetric("pdfdrop_upload_errors_total", "counter", "Uploads that failed on storage or database", snapshot.UploadErrorsTotal)
		writeMetric("pdfdrop_upload_rejected_total", "counter", "Uploads refused for invalid input", snapshot.UploadRejectedTotal)
		writeMetric("pdfdrop_downloads_total", "counter", "Files served", snapshot.DownloadsTotal)
		writeMetric("pdfdrop_download_misses_total", "counter", "File requests that found nothing", snapshot.DownloadMissesTotal)
		writeMetric("pdfdrop_uptime_seconds", "counter", "Process uptime in seconds", fmt.Sprintf("%.0f", time.Since(s.started).Seconds()))

		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(out.String()))
	}
}
