package router

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTrafficLogRecordAndDrain(t *testing.T) {
	dir := t.TempDir()
	tl, err := NewTrafficLog(dir, 0, 0, nil)
	require.NoError(t, err)

	tl.Record(DirIn, 1, "id pilot1", time.Now())
	tl.Record(DirOut, 1, "load1 42", time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tl.Run(ctx) }()

	require.Eventually(t, func() bool {
		info, err := os.Stat(filepath.Join(dir, "traffic.log"))
		return err == nil && info.Size() > 0
	}, time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	data, err := os.ReadFile(filepath.Join(dir, "traffic.log"))
	require.NoError(t, err)
	require.Contains(t, string(data), "id pilot1")
	require.Contains(t, string(data), "load1 42")
}

func TestTrafficLogDropsWhenQueueFullAndCountsMetric(t *testing.T) {
	dir := t.TempDir()
	reg := testRegistry(t)
	metrics := NewMetrics(reg)
	tl, err := NewTrafficLog(dir, 0, 0, metrics)
	require.NoError(t, err)

	// Fill the queue without a drain running.
	for i := 0; i < trafficLogQueueDepth; i++ {
		tl.Record(DirIn, 1, "x", time.Now())
	}
	tl.Record(DirIn, 1, "overflow", time.Now())

	require.Equal(t, float64(1), testCounterValue(t, metrics.TrafficLogDropped))
}

func TestTrafficLogRotatesBySize(t *testing.T) {
	dir := t.TempDir()
	tl, err := NewTrafficLog(dir, 1, 2, nil) // rotate almost immediately
	require.NoError(t, err)

	require.NoError(t, tl.write(trafficEntry{at: time.Now(), dir: DirIn, peer: 1, line: "first"}))
	require.NoError(t, tl.write(trafficEntry{at: time.Now(), dir: DirIn, peer: 1, line: "second"}))

	_, err = os.Stat(filepath.Join(dir, "traffic.log.1"))
	require.NoError(t, err)
}
