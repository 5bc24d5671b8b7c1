package atlas

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lci/internal/types"
)

func buildSnapshot() *types.Snapshot {
	snap := types.NewSnapshot()
	snap.Files["src/main.rs"] = &types.FileEntry{Path: "src/main.rs", LineCount: 10, Categories: []types.Category{types.CategorySource}}
	snap.Files["src/util/helpers.rs"] = &types.FileEntry{Path: "src/util/helpers.rs", LineCount: 20, Categories: []types.Category{types.CategorySource}}
	snap.Files["README.md"] = &types.FileEntry{Path: "README.md", LineCount: 5, Categories: []types.Category{types.CategoryDocs}}
	return snap
}

func TestBuild_AggregatesMetricsWithoutWorkspace(t *testing.T) {
	root := t.TempDir()
	snap := buildSnapshot()

	atlasSnap := Build(root, snap)
	require.Equal(t, 3, atlasSnap.Root.FileCount)
	require.Equal(t, 35, atlasSnap.Root.LOC)
	require.Equal(t, 1, atlasSnap.Root.DocFiles)

	var util *types.AtlasNode
	var find func(n *types.AtlasNode)
	find = func(n *types.AtlasNode) {
		if n.Name == "util" {
			util = n
		}
		for _, c := range n.Children {
			find(c)
		}
	}
	find(atlasSnap.Root)
	require.NotNil(t, util)
	require.Equal(t, 1, util.FileCount)
	require.Equal(t, 20, util.LOC)
}

func TestBuild_WorkspaceMembersFormCrateNodes(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "Cargo.toml"), []byte(`
[workspace]
members = ["crates/*"]
`), 0o644))

	snap := types.NewSnapshot()
	snap.Files["crates/core/lib.rs"] = &types.FileEntry{Path: "crates/core/lib.rs", LineCount: 15}
	snap.Files["crates/cli/main.rs"] = &types.FileEntry{Path: "crates/cli/main.rs", LineCount: 8}

	atlasSnap := Build(root, snap)
	var crateNames []string
	for _, c := range atlasSnap.Root.Children {
		if c.Kind == "crate" {
			crateNames = append(crateNames, c.Name)
		}
	}
	require.ElementsMatch(t, []string{"core", "cli"}, crateNames)
	require.Equal(t, 23, atlasSnap.Root.LOC)
}

func TestFocus_FindsByNameAndPath(t *testing.T) {
	root := t.TempDir()
	snap := buildSnapshot()
	atlasSnap := Build(root, snap)

	result := Focus(atlasSnap, "util")
	require.True(t, result.Matched)
	require.Equal(t, "util", result.Chain[len(result.Chain)-1].Name)

	miss := Focus(atlasSnap, "nonexistent")
	require.False(t, miss.Matched)
}
