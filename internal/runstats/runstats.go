// Package runstats measures elapsed time and peak memory of a run.
package runstats

import (
	"time"

	"go.uber.org/zap"
)

// Stats is a snapshot of the resources used so far.
type Stats struct {
	Elapsed   time.Duration
	PeakRSSKB int64
}

// Log writes the stats at info level.
func (s Stats) Log(logger *zap.Logger) {
	logger.Info("Memory usage", zap.Float64("peak_mb", float64(s.PeakRSSKB)/1024))
	logger.Info("Elapsed", zap.Float64("seconds", s.Elapsed.Seconds()))
}

// Observer reports resource usage of a run.
type Observer interface {
	Stats() Stats
}

// Recorder measures from the moment it was started.
type Recorder struct {
	start time.Time
	now   func() time.Time
}

// Start returns a recorder measuring from now.
func Start() *Recorder {
	return &Recorder{start: time.Now(), now: time.Now}
}

// Stats returns the elapsed time and the peak resident set size.
func (r *Recorder) Stats() Stats {
	return Stats{
		Elapsed:   r.now().Sub(r.start),
		PeakRSSKB: peakRSSKB(),
	}
}

// Report logs the current stats at info level and returns them.
func (r *Recorder) Report(logger *zap.Logger) Stats {
	s := r.Stats()
	s.Log(logger)
	return s
}
