package indexer

import (
	"regexp"
	"strings"

	"github.com/standardbeagle/lci/internal/types"
)

// classifyCategories buckets a file by path heuristics (spec §4.3 step 8).
func classifyCategories(relPath string) []types.Category {
	lower := strings.ToLower(relPath)
	var cats []types.Category

	switch {
	case strings.Contains(lower, "/test/"), strings.Contains(lower, "/tests/"),
		strings.Contains(lower, "__tests__"), strings.HasSuffix(lower, "_test.go"),
		strings.HasSuffix(lower, "_test.py"), strings.HasSuffix(lower, ".test.ts"),
		strings.HasSuffix(lower, ".spec.ts"), strings.HasPrefix(lower, "test_"):
		cats = append(cats, types.CategoryTests)
	case strings.HasSuffix(lower, ".md"), strings.HasSuffix(lower, ".markdown"),
		strings.Contains(lower, "/docs/"):
		cats = append(cats, types.CategoryDocs)
	case strings.HasSuffix(lower, "go.mod"), strings.HasSuffix(lower, "go.sum"),
		strings.HasSuffix(lower, "cargo.toml"), strings.HasSuffix(lower, "cargo.lock"),
		strings.HasSuffix(lower, "package.json"), strings.Contains(lower, "/vendor/"),
		strings.Contains(lower, "/node_modules/"):
		cats = append(cats, types.CategoryDeps)
	default:
		cats = append(cats, types.CategorySource)
	}
	return cats
}

// layerFor derives the crate-relative top directory (spec §4.3 step 8).
func layerFor(relPath string) string {
	parts := strings.Split(relPath, "/")
	if len(parts) <= 1 {
		return ""
	}
	return parts[0]
}

// moduleFor derives the dotted/colon-separated module path from the
// directory components, dropping the filename.
func moduleFor(relPath string) string {
	parts := strings.Split(relPath, "/")
	if len(parts) <= 1 {
		return ""
	}
	return strings.Join(parts[:len(parts)-1], "::")
}

var attentionMarker = regexp.MustCompile(`\b(TODO|FIXME)\b`)

// countAttentionMarkers counts TODO/FIXME occurrences capped at the
// scanner's limit (spec §4.3 step 7).
func countAttentionMarkers(lines []string) int {
	count := 0
	for _, line := range lines {
		count += len(attentionMarker.FindAllString(line, -1))
		if count >= types.MaxAttentionMarkers {
			return types.MaxAttentionMarkers
		}
	}
	return count
}

var importPatterns = map[types.Language]*regexp.Regexp{
	types.LanguageRust:       regexp.MustCompile(`^\s*use\s+([A-Za-z0-9_:]+)`),
	types.LanguageGo:         regexp.MustCompile(`^\s*"([A-Za-z0-9_./\-]+)"`),
	types.LanguagePython:     regexp.MustCompile(`^\s*(?:from\s+([A-Za-z0-9_.]+)\s+import|import\s+([A-Za-z0-9_.]+))`),
	types.LanguageTypeScript: regexp.MustCompile(`^\s*import\s+.*from\s+['"]([^'"]+)['"]`),
	types.LanguageTSX:        regexp.MustCompile(`^\s*import\s+.*from\s+['"]([^'"]+)['"]`),
	types.LanguageJavaScript: regexp.MustCompile(`^\s*import\s+.*from\s+['"]([^'"]+)['"]`),
}

// extractDependencies pulls intra-file import targets via per-language
// regex (spec §4.3 step 9).
func extractDependencies(lang types.Language, lines []string) []string {
	pattern, ok := importPatterns[lang]
	if !ok {
		return nil
	}
	seen := make(map[string]bool)
	var deps []string
	for _, line := range lines {
		m := pattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		for _, group := range m[1:] {
			if group == "" || seen[group] {
				continue
			}
			seen[group] = true
			deps = append(deps, group)
		}
	}
	return deps
}
