package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lci/internal/config"
	"github.com/standardbeagle/lci/internal/types"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func testConfig(root string) *config.Config {
	return &config.Config{
		Project:     config.Project{Root: root},
		Performance: config.Performance{ParallelFileWorkers: 2},
		Exclude:     []string{"**/.git/**"},
	}
}

func TestBuildFull_IndexesFilesAndSymbols(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), "package main\n\nfunc Run() {\n}\n")
	writeFile(t, filepath.Join(root, "README.md"), "# Title\n")

	b := New(testConfig(root))
	snap, err := b.BuildFull(context.Background())
	require.NoError(t, err)

	require.Contains(t, snap.Files, "main.go")
	require.Contains(t, snap.Files, "README.md")
	require.Equal(t, types.SkipNone, snap.Files["main.go"].SkipReason)

	var foundRun bool
	for _, sym := range snap.Symbols {
		if sym.Name() == "Run" {
			foundRun = true
		}
	}
	require.True(t, foundRun)

	require.Contains(t, snap.TokenToFiles["run"], "main.go")
}

func TestBuildIncremental_SkipsUnchangedFile(t *testing.T) {
	root := t.TempDir()
	mainPath := filepath.Join(root, "main.go")
	writeFile(t, mainPath, "package main\n\nfunc Run() {\n}\n")

	b := New(testConfig(root))
	first, err := b.BuildFull(context.Background())
	require.NoError(t, err)

	second, err := b.BuildIncremental(context.Background(), first)
	require.NoError(t, err)

	require.Same(t, first.Files["main.go"], second.Files["main.go"])
}

func TestBuildIncremental_DropsDeletedFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.go"), "package a\nfunc A() {}\n")
	writeFile(t, filepath.Join(root, "b.go"), "package a\nfunc B() {}\n")

	b := New(testConfig(root))
	first, err := b.BuildFull(context.Background())
	require.NoError(t, err)
	require.Len(t, first.Files, 2)

	require.NoError(t, os.Remove(filepath.Join(root, "b.go")))
	second, err := b.BuildIncremental(context.Background(), first)
	require.NoError(t, err)
	require.Contains(t, second.Files, "a.go")
	require.NotContains(t, second.Files, "b.go")
}
