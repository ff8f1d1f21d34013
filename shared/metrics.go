package shared

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ServiceMetrics tracks request outcomes and field-level degradations for
// one service. Degradations are counted separately from failures because a
// degraded field still yields a usable record.
type ServiceMetrics struct {
	serviceName string

	mutex             sync.Mutex
	totalRequests     int64
	successfulCount   int64
	failedCount       int64
	degradedFields    int64
	totalResponseTime time.Duration
	startTime         time.Time
}

// NewServiceMetrics creates a metrics tracker for the named service.
func NewServiceMetrics(serviceName string) *ServiceMetrics {
	return &ServiceMetrics{
		serviceName: serviceName,
		startTime:   time.Now(),
	}
}

// RecordRequest records one request outcome and its duration.
func (m *ServiceMetrics) RecordRequest(success bool, duration time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.totalRequests++
	m.totalResponseTime += duration
	if success {
		m.successfulCount++
	} else {
		m.failedCount++
	}
}

// RecordDegradedField records a field that fell back to "not available".
func (m *ServiceMetrics) RecordDegradedField() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.degradedFields++
}

// SuccessRate returns the success percentage across all recorded requests.
func (m *ServiceMetrics) SuccessRate() float64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.totalRequests == 0 {
		return 0.0
	}
	return float64(m.successfulCount) / float64(m.totalRequests) * 100.0
}

// LogSummary logs a summary of the collected metrics.
func (m *ServiceMetrics) LogSummary() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var avgResponse time.Duration
	if m.totalRequests > 0 {
		avgResponse = m.totalResponseTime / time.Duration(m.totalRequests)
	}

	successRate := 0.0
	if m.totalRequests > 0 {
		successRate = float64(m.successfulCount) / float64(m.totalRequests) * 100.0
	}

	logrus.WithFields(logrus.Fields{
		"service_name":    m.serviceName,
		"total_requests":  m.totalRequests,
		"successful":      m.successfulCount,
		"failed":          m.failedCount,
		"degraded_fields": m.degradedFields,
		"success_rate":    successRate,
		"avg_response":    avgResponse,
		"uptime":          time.Since(m.startTime),
	}).Info("Service metrics summary")
}
