// Package atlas implements the hierarchical workspace summary (component
// C4): a tree of crate/module nodes derived from a Snapshot, rebuilt
// after every snapshot change, plus breadcrumb/focus lookups over it.
package atlas

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"

	"github.com/standardbeagle/lci/internal/types"
)

// cargoWorkspace is the subset of a Cargo.toml-equivalent manifest the
// atlas reads to discover workspace members (spec §4.4).
type cargoWorkspace struct {
	Workspace struct {
		Members []string `toml:"members"`
	} `toml:"workspace"`
}

// discoverMembers reads root's manifest (Cargo.toml, or nothing) and
// expands workspace.members glob patterns against relPaths to produce a
// set of member root directories. Returns nil if no manifest or no
// workspace table is present — every file then attaches to the
// synthetic root.
func discoverMembers(root string, relPaths []string) []string {
	data, err := os.ReadFile(filepath.Join(root, "Cargo.toml"))
	if err != nil {
		return nil
	}
	var manifest cargoWorkspace
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return nil
	}
	if len(manifest.Workspace.Members) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	var members []string
	for _, pattern := range manifest.Workspace.Members {
		for _, rel := range relPaths {
			dir := rel
			if idx := strings.LastIndex(rel, "/"); idx >= 0 {
				dir = rel[:idx]
			} else {
				dir = "."
			}
			matched, err := doublestar.Match(pattern, dir)
			if err != nil || !matched {
				continue
			}
			if !seen[dir] {
				seen[dir] = true
				members = append(members, dir)
			}
		}
	}
	sort.Strings(members)
	return members
}

// Build rebuilds the atlas from snap, called after every mutation (spec
// §4.4). root is the project root used to look for a workspace manifest.
func Build(root string, snap *types.Snapshot) *types.AtlasSnapshot {
	rootNode := &types.AtlasNode{Name: filepath.Base(root), Kind: "root", Path: ""}

	var relPaths []string
	for path := range snap.Files {
		relPaths = append(relPaths, path)
	}
	sort.Strings(relPaths)

	members := discoverMembers(root, relPaths)
	crateByPrefix := make(map[string]*types.AtlasNode)
	for _, member := range members {
		node := &types.AtlasNode{Name: filepath.Base(member), Kind: "crate", Path: member}
		rootNode.Children = append(rootNode.Children, node)
		crateByPrefix[member] = node
	}

	moduleCache := make(map[string]*types.AtlasNode) // "crate_path\x00module_path" -> node

	for _, path := range relPaths {
		entry := snap.Files[path]
		crate := rootNode
		crateBase := ""
		for prefix, node := range crateByPrefix {
			if path == prefix || strings.HasPrefix(path, prefix+"/") {
				if len(prefix) > len(crateBase) {
					crate = node
					crateBase = prefix
				}
			}
		}

		dir := filepath.Dir(path)
		if crateBase != "" {
			dir = strings.TrimPrefix(dir, crateBase)
			dir = strings.TrimPrefix(dir, "/")
		}
		if dir == "." {
			dir = ""
		}

		target := crate
		if dir != "" {
			key := crateBase + "\x00" + dir
			if cached, ok := moduleCache[key]; ok {
				target = cached
			} else {
				target = ensureModulePath(crate, moduleCache, crateBase, dir)
			}
		}

		applyMetrics(target, entry)
	}

	rollUp(rootNode)
	return &types.AtlasSnapshot{GeneratedAt: time.Now(), Root: rootNode}
}

// ensureModulePath walks/creates module nodes for each directory segment
// of dir beneath crate, caching each intermediate node.
func ensureModulePath(crate *types.AtlasNode, cache map[string]*types.AtlasNode, crateBase, dir string) *types.AtlasNode {
	segments := strings.Split(dir, "/")
	current := crate
	accPath := crateBase
	for _, seg := range segments {
		if accPath == "" {
			accPath = seg
		} else {
			accPath = accPath + "/" + seg
		}
		key := crateBase + "\x00" + strings.TrimPrefix(accPath, crateBase+"/")
		if cached, ok := cache[key]; ok {
			current = cached
			continue
		}
		node := findChildByName(current, seg)
		if node == nil {
			node = &types.AtlasNode{Name: seg, Kind: "module", Path: accPath}
			current.Children = append(current.Children, node)
		}
		cache[key] = node
		current = node
	}
	return current
}

func findChildByName(parent *types.AtlasNode, name string) *types.AtlasNode {
	for _, c := range parent.Children {
		if c.Name == name && c.Kind == "module" {
			return c
		}
	}
	return nil
}

func applyMetrics(node *types.AtlasNode, entry *types.FileEntry) {
	node.FileCount++
	node.SymbolCount += len(entry.SymbolIDs)
	node.LOC += entry.LineCount
	if entry.Recent {
		node.RecentFiles++
	}
	for _, cat := range entry.Categories {
		switch cat {
		case types.CategoryDocs:
			node.DocFiles++
		case types.CategoryTests:
			node.TestFiles++
		case types.CategoryDeps:
			node.DepFiles++
		}
	}
}

// rollUp sums each node's metrics into its ancestors, post-order.
func rollUp(node *types.AtlasNode) (files, symbols, loc, docs, tests, deps, recent int) {
	files, symbols, loc = node.FileCount, node.SymbolCount, node.LOC
	docs, tests, deps, recent = node.DocFiles, node.TestFiles, node.DepFiles, node.RecentFiles
	for _, child := range node.Children {
		cf, cs, cl, cd, ct, cdep, cr := rollUp(child)
		files += cf
		symbols += cs
		loc += cl
		docs += cd
		tests += ct
		deps += cdep
		recent += cr
	}
	node.FileCount, node.SymbolCount, node.LOC = files, symbols, loc
	node.DocFiles, node.TestFiles, node.DepFiles, node.RecentFiles = docs, tests, deps, recent
	return
}
