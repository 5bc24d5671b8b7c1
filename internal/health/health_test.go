package health

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lci/internal/config"
)

func testCfg() config.Health {
	return config.Health{
		MaxIngestRuns:      8,
		MaxScanSamples:     64,
		FallbackRateRed:    0.70,
		FallbackRateYellow: 0.45,
		MinFallbackSamples: 12,
		YellowAfterHours:   24,
		RedAfterHours:      72,
	}
}

func TestComputeRisk_RedWhenNeverBuilt(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "health.bin"), testCfg(), "w1")
	assert.Equal(t, RiskRed, s.ComputeRisk(time.Now()))
}

func TestComputeRisk_GreenFreshLowFallback(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "health.bin"), testCfg(), "w2")
	now := time.Now()
	require.NoError(t, s.RecordIngest(IngestRun{Full: true, StartedAt: now}))
	assert.Equal(t, RiskGreen, s.ComputeRisk(now))
}

func TestComputeRisk_RedOnStaleIngest(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "health.bin"), testCfg(), "w3")
	old := time.Now().Add(-100 * time.Hour)
	require.NoError(t, s.RecordIngest(IngestRun{Full: true, StartedAt: old}))
	assert.Equal(t, RiskRed, s.ComputeRisk(time.Now()))
}

func TestComputeRisk_YellowOnModeratelyStaleIngest(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "health.bin"), testCfg(), "w4")
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, s.RecordIngest(IngestRun{Full: true, StartedAt: old}))
	assert.Equal(t, RiskYellow, s.ComputeRisk(time.Now()))
}

func TestComputeRisk_RedOnHighFallbackRateWithEnoughSamples(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "health.bin"), testCfg(), "w5")
	now := time.Now()
	require.NoError(t, s.RecordIngest(IngestRun{Full: true, StartedAt: now}))
	for i := 0; i < 12; i++ {
		require.NoError(t, s.RecordSearch(true, 100, 1, 5))
	}
	assert.Equal(t, RiskRed, s.ComputeRisk(now))
}

func TestComputeRisk_IgnoresFallbackRateBelowSampleFloor(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "health.bin"), testCfg(), "w6")
	now := time.Now()
	require.NoError(t, s.RecordIngest(IngestRun{Full: true, StartedAt: now}))
	for i := 0; i < 5; i++ {
		require.NoError(t, s.RecordSearch(true, 100, 1, 5))
	}
	assert.Equal(t, RiskGreen, s.ComputeRisk(now))
}

func TestMedianScanMs(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "health.bin"), testCfg(), "w7")
	for _, d := range []float64{10, 30, 20} {
		require.NoError(t, s.RecordSearch(false, 1, 1, d))
	}
	assert.Equal(t, 20.0, s.MedianScanMs())
}

func TestRecordIngest_TrimsToMaxRuns(t *testing.T) {
	cfg := testCfg()
	cfg.MaxIngestRuns = 2
	s := New(filepath.Join(t.TempDir(), "health.bin"), cfg, "w8")
	for i := 0; i < 5; i++ {
		require.NoError(t, s.RecordIngest(IngestRun{Full: true, StartedAt: time.Now()}))
	}
	assert.Len(t, s.Snapshot().IngestRuns, 2)
}

func TestStore_PersistsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "health.bin")
	s := New(path, testCfg(), "w9")
	require.NoError(t, s.RecordIngest(IngestRun{Full: true, StartedAt: time.Now(), FilesIndexed: 42}))
	require.NoError(t, s.Flush())

	reloaded := New(path, testCfg(), "w9-reload")
	snap := reloaded.Snapshot()
	require.Len(t, snap.IngestRuns, 1)
	assert.Equal(t, 42, snap.IngestRuns[0].FilesIndexed)
}

func TestRecordSearch_BatchesPersistenceEvery32Events(t *testing.T) {
	path := filepath.Join(t.TempDir(), "health.bin")
	s := New(path, testCfg(), "w10")
	for i := 0; i < 31; i++ {
		require.NoError(t, s.RecordSearch(false, 1, 1, 1))
	}
	reloaded := New(path, testCfg(), "w10-reload")
	assert.Equal(t, int64(0), reloaded.Snapshot().QueryCount)

	require.NoError(t, s.RecordSearch(false, 1, 1, 1))
	reloaded2 := New(path, testCfg(), "w10-reload2")
	assert.Equal(t, int64(32), reloaded2.Snapshot().QueryCount)
}
