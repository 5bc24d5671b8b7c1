package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lci/internal/config"
	"github.com/standardbeagle/lci/internal/types"
)

func testConfig(t *testing.T, root string) *config.Config {
	t.Helper()
	return &config.Config{
		Project: config.Project{Root: root},
		Daemon:  config.Daemon{MaxWorkspaces: 2, IdleTTLMinutes: 30, SchemaVersion: schemaVersion, MetricsEnabled: true},
		Retrieval: config.Retrieval{
			ChunkTargetTokens: 200, ChunkMaxTokens: 400, EmbeddingDim: 16,
			FusionStrategy: "reciprocal_rank", FusionSemanticWeight: 0.5, FusionFuzzyWeight: 0.5,
			FusionReciprocalK: 60, TokenBudgetCharsPerToken: 4, TokenBudgetHeaderOverhead: 20,
		},
		History: config.History{RecentLimit: 10, PinnedLimit: 5, HitsPerEntry: 4},
		Health: config.Health{
			MaxIngestRuns: 8, MaxScanSamples: 64, FallbackRateRed: 0.70, FallbackRateYellow: 0.45,
			MinFallbackSamples: 12, YellowAfterHours: 24, RedAfterHours: 72,
		},
		Search: config.Search{AutoFacetMaxDepth: 2, FacetSuggestionMin: 40, FocusedLimitMin: 5, FocusedLimitMax: 25, BroadLimitMin: 80, SymbolsLimitMax: 40, RefsLimitDefault: 12},
	}
}

func TestHashRoot_IsDeterministicAndPathSensitive(t *testing.T) {
	a := hashRoot("/tmp/project-a")
	b := hashRoot("/tmp/project-a")
	c := hashRoot("/tmp/project-b")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestRegistry_ChecksOutAndReusesWorkspace(t *testing.T) {
	root := t.TempDir()
	codexHome := t.TempDir()
	cfg := testConfig(t, root)
	reg := NewRegistry(cfg, codexHome)

	h1, err := reg.Checkout(context.Background(), root)
	require.NoError(t, err)
	h1.Release()

	h2, err := reg.Checkout(context.Background(), root)
	require.NoError(t, err)
	defer h2.Release()

	assert.Same(t, h1.Workspace, h2.Workspace)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_EvictsIdleWorkspaceAtCapacity(t *testing.T) {
	codexHome := t.TempDir()
	cfg := testConfig(t, t.TempDir())
	cfg.Daemon.MaxWorkspaces = 1
	reg := NewRegistry(cfg, codexHome)

	rootA := t.TempDir()
	rootB := t.TempDir()

	hA, err := reg.Checkout(context.Background(), rootA)
	require.NoError(t, err)
	hA.Release()

	hB, err := reg.Checkout(context.Background(), rootB)
	require.NoError(t, err)
	defer hB.Release()

	assert.Equal(t, 1, reg.Len())
}

func TestWriteAndReadMetadata_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.json")
	secret, err := generateSecret()
	require.NoError(t, err)

	meta := types.DaemonMetadata{
		ProtocolVersion: schemaVersion,
		ProjectHash:     hashRoot("/tmp/project-a"),
		DefaultRoot:     "/tmp/project-a",
		Port:            54321,
		Secret:          secret,
		PID:             os.Getpid(),
		StartedAt:       time.Now(),
	}
	require.NoError(t, writeMetadata(path, meta))

	reloaded, err := ReadMetadata(path)
	require.NoError(t, err)
	assert.Equal(t, meta.Port, reloaded.Port)
	assert.Equal(t, meta.Secret, reloaded.Secret)

	_, statErr := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(statErr))
}
