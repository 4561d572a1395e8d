package build

import (
	"sync"
	"time"
)

// PassResult summarizes one regeneration pass for metrics.
type PassResult struct {
	Written   int
	Unchanged int
	Removed   int
	Duration  time.Duration
	Error     error
}

// PassMetrics tracks regeneration passes over the lifetime of a process,
// typically a watch session.
type PassMetrics struct {
	TotalPasses      int64
	SuccessfulPasses int64
	FailedPasses     int64
	FilesWritten     int64
	FilesUnchanged   int64
	FilesRemoved     int64
	AverageDuration  time.Duration
	TotalDuration    time.Duration
	mutex            sync.RWMutex
}

// NewPassMetrics creates a new pass metrics tracker
func NewPassMetrics() *PassMetrics {
	return &PassMetrics{}
}

// RecordPass records a pass result in the metrics
func (pm *PassMetrics) RecordPass(result PassResult) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	pm.TotalPasses++
	pm.TotalDuration += result.Duration

	if result.Error != nil {
		pm.FailedPasses++
	} else {
		pm.SuccessfulPasses++
		pm.FilesWritten += int64(result.Written)
		pm.FilesUnchanged += int64(result.Unchanged)
		pm.FilesRemoved += int64(result.Removed)
	}

	pm.AverageDuration = pm.TotalDuration / time.Duration(pm.TotalPasses)
}

// GetSnapshot returns a snapshot of current metrics
func (pm *PassMetrics) GetSnapshot() PassMetrics {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()
	return PassMetrics{
		TotalPasses:      pm.TotalPasses,
		SuccessfulPasses: pm.SuccessfulPasses,
		FailedPasses:     pm.FailedPasses,
		FilesWritten:     pm.FilesWritten,
		FilesUnchanged:   pm.FilesUnchanged,
		FilesRemoved:     pm.FilesRemoved,
		AverageDuration:  pm.AverageDuration,
		TotalDuration:    pm.TotalDuration,
	}
}

// Reset resets all metrics
func (pm *PassMetrics) Reset() {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	pm.TotalPasses = 0
	pm.SuccessfulPasses = 0
	pm.FailedPasses = 0
	pm.FilesWritten = 0
	pm.FilesUnchanged = 0
	pm.FilesRemoved = 0
	pm.AverageDuration = 0
	pm.TotalDuration = 0
}

// GetSuccessRate returns the success rate as a percentage
func (pm *PassMetrics) GetSuccessRate() float64 {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()

	if pm.TotalPasses == 0 {
		return 0.0
	}

	return float64(pm.SuccessfulPasses) / float64(pm.TotalPasses) * 100.0
}
