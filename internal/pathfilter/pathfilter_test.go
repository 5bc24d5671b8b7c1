package pathfilter

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lci/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWalk_ExcludesAndYieldsSourceFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), "package main\n")
	writeFile(t, filepath.Join(root, "node_modules", "dep", "index.js"), "module.exports = {}\n")
	writeFile(t, filepath.Join(root, ".git", "HEAD"), "ref: refs/heads/main\n")

	cfg := &config.Config{
		Project: config.Project{Root: root},
		Exclude: []string{"**/.git/**", "**/node_modules/**"},
	}
	pf := New(cfg)

	var seen []string
	err := pf.Walk(func(c Candidate) error {
		seen = append(seen, c.RelPath)
		return nil
	})
	require.NoError(t, err)
	require.Contains(t, seen, "main.go")
	require.NotContains(t, seen, "node_modules/dep/index.js")
	require.NotContains(t, seen, ".git/HEAD")
}

func TestWalk_IncludeAllowlistNarrowsResults(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.go"), "package a\n")
	writeFile(t, filepath.Join(root, "b.md"), "# doc\n")

	cfg := &config.Config{
		Project: config.Project{Root: root},
		Include: []string{"**/*.go"},
	}
	pf := New(cfg)

	var seen []string
	require.NoError(t, pf.Walk(func(c Candidate) error {
		seen = append(seen, c.RelPath)
		return nil
	}))
	require.Equal(t, []string{"a.go"}, seen)
}

func TestWalk_SymlinkCycleDoesNotHang(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	writeFile(t, filepath.Join(sub, "f.go"), "package sub\n")

	loop := filepath.Join(sub, "loop")
	if err := os.Symlink(root, loop); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	cfg := &config.Config{Project: config.Project{Root: root}}
	pf := New(cfg)

	done := make(chan error, 1)
	go func() {
		done <- pf.Walk(func(c Candidate) error { return nil })
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("walk did not terminate, symlink cycle not detected")
	}
}
