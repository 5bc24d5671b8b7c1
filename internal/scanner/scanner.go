// Package scanner implements the per-language regex-based symbol
// extraction component (C2): language detection by extension and
// `extract_symbols` for rust, typescript/tsx/javascript, python, go,
// bash, csharp, markdown, json/yaml/toml, and a generic fallback.
package scanner

import (
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/standardbeagle/lci/internal/types"
)

// SymbolCandidate is one symbol the scanner found, pre-assignment of a
// stable identifier (the indexer derives that from path+line+name).
type SymbolCandidate struct {
	Kind       types.SymbolKind
	Name       string
	StartLine  int // 1-indexed
	EndLine    int
	Preview    string
	DocSummary string
}

// DetectLanguage maps a file extension to a scanner Language.
func DetectLanguage(path string) types.Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".rs":
		return types.LanguageRust
	case ".ts":
		return types.LanguageTypeScript
	case ".tsx":
		return types.LanguageTSX
	case ".js", ".jsx", ".mjs", ".cjs":
		return types.LanguageJavaScript
	case ".py":
		return types.LanguagePython
	case ".go":
		return types.LanguageGo
	case ".sh", ".bash":
		return types.LanguageBash
	case ".cs":
		return types.LanguageCSharp
	case ".php":
		return types.LanguagePHP
	case ".md", ".markdown":
		return types.LanguageMarkdown
	case ".json":
		return types.LanguageJSON
	case ".yaml", ".yml":
		return types.LanguageYAML
	case ".toml":
		return types.LanguageTOML
	default:
		return types.LanguageUnknown
	}
}

type rule struct {
	pattern *regexp.Regexp
	kind    types.SymbolKind
	// nameGroup is the regex capture group index holding the symbol name.
	nameGroup int
}

type languageRules struct {
	rules     []rule
	docPrefix string // doc-comment prefix walked upward from a match; "" disables doc extraction
}

var (
	rulesOnce sync.Once
	rulesByLang map[types.Language]*languageRules
)

func initRules() {
	rulesByLang = map[types.Language]*languageRules{
		types.LanguageRust: {
			docPrefix: "///",
			rules: []rule{
				{regexp.MustCompile(`^\s*(?:pub\s+)?(?:async\s+)?(?:unsafe\s+)?(?:extern\s+"[^"]*"\s+)?fn\s+([A-Za-z_][A-Za-z0-9_]*)`), types.KindFunction, 1},
				{regexp.MustCompile(`^\s*(?:pub\s+)?struct\s+([A-Za-z_][A-Za-z0-9_]*)`), types.KindStruct, 1},
				{regexp.MustCompile(`^\s*(?:pub\s+)?enum\s+([A-Za-z_][A-Za-z0-9_]*)`), types.KindEnum, 1},
				{regexp.MustCompile(`^\s*(?:pub\s+)?trait\s+([A-Za-z_][A-Za-z0-9_]*)`), types.KindTrait, 1},
				{regexp.MustCompile(`^\s*(?:pub\s+)?mod\s+([A-Za-z_][A-Za-z0-9_]*)`), types.KindModule, 1},
				{regexp.MustCompile(`^\s*(?:pub\s+)?const\s+([A-Za-z_][A-Za-z0-9_]*)`), types.KindConstant, 1},
			},
		},
		types.LanguageTypeScript: tsFamilyRules(),
		types.LanguageTSX:        tsFamilyRules(),
		types.LanguageJavaScript: tsFamilyRules(),
		types.LanguagePython: {
			docPrefix: "#",
			rules: []rule{
				{regexp.MustCompile(`^\s*(?:async\s+)?def\s+([A-Za-z_][A-Za-z0-9_]*)`), types.KindFunction, 1},
				{regexp.MustCompile(`^\s*class\s+([A-Za-z_][A-Za-z0-9_]*)`), types.KindClass, 1},
			},
		},
		types.LanguageGo: {
			docPrefix: "//",
			rules: []rule{
				{regexp.MustCompile(`^\s*func\s+\([^)]*\)\s*([A-Za-z_][A-Za-z0-9_]*)`), types.KindMethod, 1},
				{regexp.MustCompile(`^\s*func\s+([A-Za-z_][A-Za-z0-9_]*)`), types.KindFunction, 1},
				{regexp.MustCompile(`^\s*type\s+([A-Za-z_][A-Za-z0-9_]*)`), types.KindTypeAlias, 1},
			},
		},
		types.LanguageBash: {
			rules: []rule{
				{regexp.MustCompile(`^\s*function\s+([A-Za-z_][A-Za-z0-9_]*)\s*\{`), types.KindFunction, 1},
				{regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*\(\)\s*\{`), types.KindFunction, 1},
			},
		},
		types.LanguageCSharp: {
			docPrefix: "///",
			rules: []rule{
				{regexp.MustCompile(`^\s*(?:public|private|protected|internal)?\s*(?:static\s+)?class\s+([A-Za-z_][A-Za-z0-9_]*)`), types.KindClass, 1},
				{regexp.MustCompile(`^\s*(?:public|private|protected|internal)?\s*interface\s+([A-Za-z_][A-Za-z0-9_]*)`), types.KindInterface, 1},
				{regexp.MustCompile(`^\s*(?:public|private|protected|internal)?\s*struct\s+([A-Za-z_][A-Za-z0-9_]*)`), types.KindStruct, 1},
				{regexp.MustCompile(`^\s*(?:public|private|protected|internal)?\s*(?:static\s+)?(?:async\s+)?[A-Za-z_<>\[\],.]+\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`), types.KindMethod, 1},
			},
		},
	}
}

func tsFamilyRules() *languageRules {
	return &languageRules{
		docPrefix: "//",
		rules: []rule{
			{regexp.MustCompile(`^\s*(?:export\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][A-Za-z0-9_$]*)`), types.KindFunction, 1},
			{regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?class\s+([A-Za-z_$][A-Za-z0-9_$]*)`), types.KindClass, 1},
			{regexp.MustCompile(`^\s*(?:export\s+)?interface\s+([A-Za-z_$][A-Za-z0-9_$]*)`), types.KindInterface, 1},
			{regexp.MustCompile(`^\s*(?:export\s+)?type\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*=`), types.KindTypeAlias, 1},
			{regexp.MustCompile(`^\s*(?:export\s+)?const\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*=`), types.KindConstant, 1},
		},
	}
}

var atxHeading = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

// ExtractSymbols runs the per-language rules over lines (already split,
// no trailing newlines) and returns every symbol candidate found, per
// spec.md §4.2.
func ExtractSymbols(lang types.Language, lines []string) []SymbolCandidate {
	rulesOnce.Do(initRules)

	switch lang {
	case types.LanguageMarkdown:
		return extractMarkdown(lines)
	case types.LanguageJSON, types.LanguageYAML, types.LanguageTOML:
		return []SymbolCandidate{wholeFileDocument(lines)}
	}

	lr, ok := rulesByLang[lang]
	if !ok {
		return []SymbolCandidate{wholeFileDocument(lines)}
	}

	var topLevelJS map[string]bool
	var haveTopLevelJS bool
	if lang == types.LanguageJavaScript {
		topLevelJS, haveTopLevelJS = topLevelJSFunctionNames(strings.Join(lines, "\n"))
	}

	var out []SymbolCandidate
	for i, line := range lines {
		for _, r := range lr.rules {
			m := r.pattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			name := m[r.nameGroup]
			kind := r.kind
			if kind == types.KindFunction && isTestSymbol(lang, lines, i, name) {
				kind = types.KindTest
			}
			if haveTopLevelJS && r.kind == types.KindFunction && !strings.HasPrefix(line, " ") && !strings.HasPrefix(line, "\t") && !topLevelJS[name] {
				break // regex matched a nested function go-fast confirmed isn't top-level
			}
			out = append(out, SymbolCandidate{
				Kind:       kind,
				Name:       name,
				StartLine:  i + 1,
				EndLine:    i + 1,
				Preview:    strings.TrimSpace(line),
				DocSummary: extractDocBlock(lines, i, lr.docPrefix),
			})
			break
		}
	}
	return out
}

// isTestSymbol classifies Rust `#[test]`-preceded or `test_`-prefixed
// functions, and Go `Test`-prefixed functions, as tests (spec §4.2).
func isTestSymbol(lang types.Language, lines []string, idx int, name string) bool {
	switch lang {
	case types.LanguageRust:
		if strings.HasPrefix(name, "test_") {
			return true
		}
		for j := idx - 1; j >= 0; j-- {
			prev := strings.TrimSpace(lines[j])
			if !strings.HasPrefix(prev, "#[") {
				break
			}
			if prev == "#[test]" {
				return true
			}
		}
		return false
	case types.LanguageGo:
		return strings.HasPrefix(name, "Test") || strings.HasPrefix(name, "Benchmark")
	case types.LanguagePython:
		return strings.HasPrefix(name, "test_")
	}
	return false
}

// extractDocBlock walks lines above matchIdx while they start with
// prefix, stopping at the first non-matching non-empty line; joins with
// single spaces (spec §4.2).
func extractDocBlock(lines []string, matchIdx int, prefix string) string {
	if prefix == "" {
		return ""
	}
	// Rust #[test]/#[...] attribute lines sit between the doc block and
	// the function; skip over them without breaking the walk.
	i := matchIdx - 1
	var docLines []string
	for i >= 0 {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			i--
			continue
		}
		if strings.HasPrefix(trimmed, "#[") && strings.HasSuffix(trimmed, "]") {
			i--
			continue
		}
		if !strings.HasPrefix(trimmed, prefix) {
			break
		}
		docLines = append([]string{strings.TrimSpace(strings.TrimPrefix(trimmed, prefix))}, docLines...)
		i--
	}
	return strings.Join(docLines, " ")
}

func extractMarkdown(lines []string) []SymbolCandidate {
	var out []SymbolCandidate
	for i, line := range lines {
		m := atxHeading.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		out = append(out, SymbolCandidate{
			Kind:      types.KindDocument,
			Name:      strings.TrimSpace(m[2]),
			StartLine: i + 1,
			EndLine:   i + 1,
			Preview:   strings.TrimSpace(line),
		})
	}
	return out
}

func wholeFileDocument(lines []string) SymbolCandidate {
	var preview []string
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		preview = append(preview, strings.TrimSpace(line))
		if len(preview) == 3 {
			break
		}
	}
	return SymbolCandidate{
		Kind:      types.KindDocument,
		StartLine: 1,
		EndLine:   len(lines),
		Preview:   strings.Join(preview, " "),
	}
}
