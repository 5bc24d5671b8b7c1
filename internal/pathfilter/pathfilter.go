// Package pathfilter implements the workspace walker (component C1): a
// gitignore-aware directory traversal that composes default git-style
// ignores, the repo's .gitignore, workspace-specific custom globs, and a
// built-in deny list, yielding an ordered stream of candidate relative
// paths for the index builder.
package pathfilter

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/lci/internal/config"
	"github.com/standardbeagle/lci/internal/debug"
)

// Candidate is one file the walker decided to yield.
type Candidate struct {
	AbsPath string
	RelPath string // forward-slash, relative to root
	Info    os.FileInfo
}

// PathFilter answers is-ignored queries against a compiled set of
// exclude/include globs plus the project's .gitignore.
type PathFilter struct {
	root            string
	exclude         []string
	include         []string
	gitignoreParser *config.GitignoreParser
}

// New compiles a PathFilter from a loaded Config. Gitignore is loaded from
// cfg.Project.Root when cfg.Index.RespectGitignore is set.
func New(cfg *config.Config) *PathFilter {
	pf := &PathFilter{
		root:    cfg.Project.Root,
		exclude: append([]string(nil), cfg.Exclude...),
		include: append([]string(nil), cfg.Include...),
	}
	if cfg.Index.RespectGitignore {
		pf.gitignoreParser = config.NewGitignoreParser()
		if err := pf.gitignoreParser.LoadGitignore(cfg.Project.Root); err != nil {
			debug.LogIndexing("pathfilter: failed to load .gitignore: %v", err)
		}
	}
	return pf
}

// IsIgnoredRel reports whether rel (forward-slash, root-relative) matches
// an exclusion pattern, fails the inclusion allowlist, or is covered by
// .gitignore.
func (pf *PathFilter) IsIgnoredRel(rel string, isDir bool) bool {
	rel = filepath.ToSlash(rel)
	if pf.matchesAny(pf.exclude, rel) || (isDir && pf.matchesAny(pf.exclude, rel+"/")) {
		return true
	}
	if len(pf.include) > 0 && !pf.matchesAny(pf.include, rel) {
		return true
	}
	if pf.gitignoreParser != nil && pf.gitignoreParser.ShouldIgnore(rel, isDir) {
		return true
	}
	return false
}

// IsIgnoredPath is IsIgnoredRel for an absolute path, computing rel against
// the filter's root.
func (pf *PathFilter) IsIgnoredPath(abs string, isDir bool) bool {
	rel, err := filepath.Rel(pf.root, abs)
	if err != nil {
		rel = abs
	}
	return pf.IsIgnoredRel(rel, isDir)
}

func (pf *PathFilter) matchesAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, path)
		if err != nil {
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

// Walk traverses root and invokes yield for every file that passes the
// filter, in sorted-path order for deterministic full rebuilds. Symlinked
// directories are followed but cycles are detected by canonicalization;
// per-entry errors are logged and skipped, never fatal (spec invariant).
func (pf *PathFilter) Walk(yield func(Candidate) error) error {
	visited := make(map[string]bool)
	var candidates []Candidate

	var walkDir func(dir string) error
	walkDir = func(dir string) error {
		entries, err := os.ReadDir(dir)
		if err != nil {
			debug.LogIndexing("pathfilter: read dir %s: %v", dir, err)
			return nil
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

		for _, entry := range entries {
			abs := filepath.Join(dir, entry.Name())
			info, err := entry.Info()
			if err != nil {
				debug.LogIndexing("pathfilter: stat %s: %v", abs, err)
				continue
			}

			isDir := entry.IsDir()
			if info.Mode()&os.ModeSymlink != 0 {
				target, err := filepath.EvalSymlinks(abs)
				if err != nil {
					debug.LogIndexing("pathfilter: unresolvable symlink %s: %v", abs, err)
					continue
				}
				targetInfo, err := os.Stat(target)
				if err != nil {
					continue
				}
				isDir = targetInfo.IsDir()
				abs = target
			}

			rel, err := filepath.Rel(pf.root, abs)
			if err != nil {
				rel = abs
			}
			rel = filepath.ToSlash(rel)

			if isDir {
				real, err := filepath.EvalSymlinks(abs)
				if err != nil {
					real = abs
				}
				if visited[real] {
					continue // cycle
				}
				visited[real] = true

				if pf.IsIgnoredRel(rel, true) {
					continue
				}
				if err := walkDir(abs); err != nil {
					return err
				}
				continue
			}

			if pf.IsIgnoredRel(rel, false) {
				continue
			}
			candidates = append(candidates, Candidate{AbsPath: abs, RelPath: rel, Info: info})
		}
		return nil
	}

	if err := walkDir(pf.root); err != nil {
		return err
	}
	for _, c := range candidates {
		if err := yield(c); err != nil {
			return err
		}
	}
	return nil
}
