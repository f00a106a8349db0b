package server

import (
	"sync"
	"time"
)

// Metrics holds in-process counters for the service.
type Metrics struct {
	mu sync.RWMutex

	uploadsTotal        int64
	uploadBytesTotal    int64
	uploadErrorsTotal   int64
	uploadRejectedTotal int64
	uploadDurationTotal time.Duration

	downloadsTotal      int64
	downloadMissesTotal int64

	requestsTotal    int64
	requestErrors5xx int64
	requestErrors4xx int64
}

// NewMetrics returns zeroed counters.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordUpload records a stored and registered upload
func (m *Metrics) RecordUpload(bytes int64, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadsTotal++
	m.uploadBytesTotal += bytes
	m.uploadDurationTotal += duration
}

// RecordUploadError records an upload that failed on storage or database
func (m *Metrics) RecordUploadError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadErrorsTotal++
}

// RecordUploadRejected records an upload refused for bad client input
func (m *Metrics) RecordUploadRejected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadRejectedTotal++
}

// RecordDownload records a served file, or a miss when found is false
func (m *Metrics) RecordDownload(found bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if found {
		m.downloadsTotal++
	} else {
		m.downloadMissesTotal++
	}
}

// RecordRequest records an HTTP request
func (m *Metrics) RecordRequest(statusCode int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestsTotal++

	if statusCode >= 500 {
		m.requestErrors5xx++
	} else if statusCode >= 400 {
		m.requestErrors4xx++
	}
}

// Snapshot returns a snapshot of current metrics
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return MetricsSnapshot{
		UploadsTotal:        m.uploadsTotal,
		UploadBytesTotal:    m.uploadBytesTotal,
		UploadErrorsTotal:   m.uploadErrorsTotal,
		UploadRejectedTotal: m.uploadRejectedTotal,
		UploadAvgDurationMs: avgDuration(m.uploadDurationTotal, m.uploadsTotal),
		DownloadsTotal:      m.downloadsTotal,
		DownloadMissesTotal: m.downloadMissesTotal,
		RequestsTotal:       m.requestsTotal,
		RequestErrors5xx:    m.requestErrors5xx,
		RequestErrors4xx:    m.requestErrors4xx,
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics
type MetricsSnapshot struct {
	UploadsTotal        int64
	UploadBytesTotal    int64
	UploadErrorsTotal   int64
	UploadRejectedTotal int64
	UploadAvgDurationMs float64

	DownloadsTotal      int64
	DownloadMissesTotal int64

	RequestsTotal    int64
	RequestErrors5xx int64
	RequestErrors4xx int64
}

func avgDuration(total time.Duration, count int64) float64 {
	if count == 0 {
		return 0
	}
	return float64(total.Milliseconds()) / float64(count)
}
