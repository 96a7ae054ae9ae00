package runstats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRecorder_Stats(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := &Recorder{start: start, now: func() time.Time { return start.Add(2500 * time.Millisecond) }}

	s := r.Stats()
	assert.Equal(t, 2500*time.Millisecond, s.Elapsed)
	assert.Positive(t, s.PeakRSSKB)
}

func TestRecorder_Report(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	start := time.Now()
	r := &Recorder{start: start, now: func() time.Time { return start.Add(time.Second) }}

	s := r.Report(zap.New(core))
	assert.Equal(t, time.Second, s.Elapsed)

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "Memory usage", entries[0].Message)
		assert.Equal(t, "Elapsed", entries[1].Message)
		assert.Equal(t, 1.0, entries[1].ContextMap()["seconds"])
	}
}

func TestStart(t *testing.T) {
	var r Observer = Start()
	assert.GreaterOrEqual(t, r.Stats().Elapsed, time.Duration(0))
}
