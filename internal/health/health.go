// Package health tracks ingest and search telemetry for a workspace and
// computes a traffic-light risk signal from it.
package health

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/standardbeagle/lci/internal/config"
)

// Risk is the traffic-light summary surfaced by doctor/insights calls.
type Risk string

const (
	RiskGreen  Risk = "green"
	RiskYellow Risk = "yellow"
	RiskRed    Risk = "red"
)

// IngestRun records one full or delta rebuild.
type IngestRun struct {
	Full        bool
	StartedAt   time.Time
	DurationMs  int64
	FilesIndexed int
	SkippedByReason map[string]int
}

// Snapshot is the persisted and exported telemetry state for a workspace.
type Snapshot struct {
	IngestRuns       []IngestRun
	QueryCount       int64
	FallbackCount    int64
	ScannedBytes     int64
	ScannedFiles     int64
	ScanSamplesMs    []float64
	LastIngestAt     time.Time
	EverBuilt        bool
}

// Store accumulates telemetry and persists it via temp-file-and-rename,
// batching writes every 32 search events and after every ingest run.
type Store struct {
	mu   sync.Mutex
	path string
	cfg  config.Health
	snap Snapshot

	eventsSinceFlush int
	workspace        string

	gaugeQueryCount    prometheus.Gauge
	gaugeFallbackCount prometheus.Gauge
	gaugeRisk          prometheus.Gauge
}

// New creates a store persisted at path (typically
// "<codex_home>/navigator/<project_hash>/health.bin"). workspace labels the
// exported Prometheus gauges so multiple workspaces don't collide on a
// shared registry.
func New(path string, cfg config.Health, workspace string) *Store {
	s := &Store{path: path, cfg: cfg, workspace: workspace}
	s.registerGauges()
	s.load()
	return s
}

func (s *Store) registerGauges() {
	labels := prometheus.Labels{"workspace": s.workspace}
	s.gaugeQueryCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "lci_navigator_query_count",
		Help:        "Total literal/fallback search queries served by this workspace.",
		ConstLabels: labels,
	})
	s.gaugeFallbackCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "lci_navigator_fallback_count",
		Help:        "Total queries that fell back to a literal scan.",
		ConstLabels: labels,
	})
	s.gaugeRisk = prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "lci_navigator_risk",
		Help:        "Workspace risk: 0=green, 1=yellow, 2=red.",
		ConstLabels: labels,
	})
	_ = prometheus.Register(s.gaugeQueryCount)
	_ = prometheus.Register(s.gaugeFallbackCount)
	_ = prometheus.Register(s.gaugeRisk)
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return
	}
	s.snap = snap
}

// RecordIngest appends an ingest run, trims to MaxIngestRuns, and persists
// immediately (spec: "written ... after every ingest").
func (s *Store) RecordIngest(run IngestRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.IngestRuns = append(s.snap.IngestRuns, run)
	if len(s.snap.IngestRuns) > s.cfg.MaxIngestRuns {
		s.snap.IngestRuns = s.snap.IngestRuns[len(s.snap.IngestRuns)-s.cfg.MaxIngestRuns:]
	}
	s.snap.LastIngestAt = run.StartedAt.Add(time.Duration(run.DurationMs) * time.Millisecond)
	s.snap.EverBuilt = true
	return s.persistLocked()
}

// RecordSearch records one literal-search invocation. Persistence batches
// every 32 events per spec section 4.12.
func (s *Store) RecordSearch(fellBack bool, scannedBytes, scannedFiles int64, scanDurationMs float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.QueryCount++
	if fellBack {
		s.snap.FallbackCount++
	}
	s.snap.ScannedBytes += scannedBytes
	s.snap.ScannedFiles += scannedFiles

	s.snap.ScanSamplesMs = append(s.snap.ScanSamplesMs, scanDurationMs)
	if len(s.snap.ScanSamplesMs) > s.cfg.MaxScanSamples {
		s.snap.ScanSamplesMs = s.snap.ScanSamplesMs[len(s.snap.ScanSamplesMs)-s.cfg.MaxScanSamples:]
	}

	s.gaugeQueryCount.Set(float64(s.snap.QueryCount))
	s.gaugeFallbackCount.Set(float64(s.snap.FallbackCount))

	s.eventsSinceFlush++
	if s.eventsSinceFlush < 32 {
		return nil
	}
	s.eventsSinceFlush = 0
	return s.persistLocked()
}

// MedianScanMs computes the median of the retained scan-duration samples,
// 0 if there are none.
func (s *Store) MedianScanMs() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return median(s.snap.ScanSamplesMs)
}

func median(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// ComputeRisk implements spec section 4.12's traffic-light rule.
func (s *Store) ComputeRisk(now time.Time) Risk {
	s.mu.Lock()
	defer s.mu.Unlock()
	risk := s.computeRiskLocked(now)
	switch risk {
	case RiskRed:
		s.gaugeRisk.Set(2)
	case RiskYellow:
		s.gaugeRisk.Set(1)
	default:
		s.gaugeRisk.Set(0)
	}
	return risk
}

func (s *Store) computeRiskLocked(now time.Time) Risk {
	if !s.snap.EverBuilt {
		return RiskRed
	}
	age := now.Sub(s.snap.LastIngestAt)
	fallbackRate := 0.0
	samples := s.snap.QueryCount
	if samples > 0 {
		fallbackRate = float64(s.snap.FallbackCount) / float64(samples)
	}
	trustedRate := samples >= int64(s.cfg.MinFallbackSamples)

	if age > time.Duration(s.cfg.RedAfterHours)*time.Hour {
		return RiskRed
	}
	if trustedRate && fallbackRate >= s.cfg.FallbackRateRed {
		return RiskRed
	}
	if age > time.Duration(s.cfg.YellowAfterHours)*time.Hour {
		return RiskYellow
	}
	if trustedRate && fallbackRate >= s.cfg.FallbackRateYellow {
		return RiskYellow
	}
	return RiskGreen
}

// Snapshot returns a copy of the current telemetry state for display.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := s.snap
	cp.IngestRuns = append([]IngestRun(nil), s.snap.IngestRuns...)
	cp.ScanSamplesMs = append([]float64(nil), s.snap.ScanSamplesMs...)
	return cp
}

// Flush forces a persist regardless of the batching counter.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}

func (s *Store) persistLocked() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create health dir: %w", err)
	}
	data, err := json.Marshal(s.snap)
	if err != nil {
		return fmt.Errorf("marshal health snapshot: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write health temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename health temp file: %w", err)
	}
	return nil
}
