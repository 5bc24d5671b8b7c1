// Package retrieval implements the grounding-context pipeline (component
// C7): chunking, embedding, vector storage, hybrid fusion, and
// budget-aware ranking.
package retrieval

import (
	"strings"

	"github.com/standardbeagle/lci/internal/config"
	"github.com/standardbeagle/lci/internal/types"
)

// ChunkKind classifies a Chunk for context-prepending and ranking.
type ChunkKind string

const (
	ChunkFunction ChunkKind = "function"
	ChunkType     ChunkKind = "type"
	ChunkModule   ChunkKind = "module"
	ChunkGeneric  ChunkKind = "generic"
)

// needsContext reports whether chunks of this kind should be prefixed
// with the file's leading imports when assembled (spec §4.7).
func (k ChunkKind) needsContext() bool {
	return k == ChunkFunction || k == ChunkType
}

// Chunk is one semantic unit of a file, ready for embedding.
type Chunk struct {
	Path      string
	StartLine int
	EndLine   int
	Content   string
	Kind      ChunkKind
	Symbol    string
	Tokens    int
}

type block struct {
	startLine int
	endLine   int
	lines     []string
}

var blockStartPrefixes = map[types.Language][]string{
	types.LanguageRust: {"fn ", "pub fn ", "async fn ", "pub async fn ", "struct ", "pub struct ", "enum ", "pub enum ", "impl ", "trait ", "pub trait "},
	types.LanguagePython: {"def ", "async def ", "class "},
	types.LanguageJavaScript: {"function ", "async function ", "class ", "export function ", "export class ", "export default function "},
	types.LanguageTypeScript: {"function ", "async function ", "class ", "export function ", "export class ", "export default function ", "interface ", "export interface "},
	types.LanguageTSX: {"function ", "async function ", "class ", "export function ", "export class "},
	types.LanguageGo: {"func ", "type "},
	types.LanguageCSharp: {"public ", "private ", "protected ", "internal ", "class ", "struct ", "interface "},
}

func isBlockStart(trimmed string, lang types.Language) bool {
	for _, p := range blockStartPrefixes[lang] {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	return false
}

// splitIntoBlocks implements the original chunker's line-scan: a new
// block starts at a language block-start line, and closes when brace/paren
// depth returns to zero or a blank line is seen outside any braces/parens.
func splitIntoBlocks(content string, lang types.Language) []block {
	lines := strings.Split(content, "\n")
	var blocks []block
	var current *block
	braceDepth, parenDepth := 0, 0

	flush := func() {
		if current != nil {
			blocks = append(blocks, *current)
			current = nil
		}
	}

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if isBlockStart(trimmed, lang) {
			flush()
			current = &block{startLine: i + 1, endLine: i + 1, lines: []string{line}}
			braceDepth, parenDepth = 0, 0
		} else if current != nil {
			current.lines = append(current.lines, line)
			current.endLine = i + 1
		}

		for _, ch := range line {
			switch ch {
			case '{':
				braceDepth++
			case '}':
				if braceDepth > 0 {
					braceDepth--
				}
				if braceDepth == 0 && current != nil {
					flush()
				}
			case '(':
				parenDepth++
			case ')':
				if parenDepth > 0 {
					parenDepth--
				}
			}
		}

		if trimmed == "" && braceDepth == 0 && parenDepth == 0 {
			flush()
		}
	}
	flush()

	if len(blocks) == 0 {
		blocks = append(blocks, block{startLine: 1, endLine: len(lines), lines: lines})
	}
	return blocks
}

func detectChunkKind(content string, lang types.Language) ChunkKind {
	trimmed := strings.TrimSpace(content)
	switch lang {
	case types.LanguageRust:
		switch {
		case strings.HasPrefix(trimmed, "fn ") || strings.HasPrefix(trimmed, "pub fn ") || strings.HasPrefix(trimmed, "async fn ") || strings.HasPrefix(trimmed, "pub async fn "):
			return ChunkFunction
		case strings.HasPrefix(trimmed, "struct ") || strings.HasPrefix(trimmed, "pub struct ") || strings.HasPrefix(trimmed, "enum ") || strings.HasPrefix(trimmed, "pub enum ") || strings.HasPrefix(trimmed, "trait ") || strings.HasPrefix(trimmed, "pub trait "):
			return ChunkType
		case strings.HasPrefix(trimmed, "impl "):
			return ChunkType
		}
	case types.LanguagePython:
		if strings.HasPrefix(trimmed, "def ") || strings.HasPrefix(trimmed, "async def ") {
			return ChunkFunction
		}
		if strings.HasPrefix(trimmed, "class ") {
			return ChunkType
		}
	case types.LanguageGo:
		if strings.HasPrefix(trimmed, "func ") {
			return ChunkFunction
		}
		if strings.HasPrefix(trimmed, "type ") {
			return ChunkType
		}
	default:
		if strings.Contains(trimmed, "function ") {
			return ChunkFunction
		}
		if strings.HasPrefix(trimmed, "class ") || strings.Contains(trimmed, "export class ") || strings.HasPrefix(trimmed, "interface ") {
			return ChunkType
		}
	}
	return ChunkGeneric
}

func extractSymbolName(content string, kind ChunkKind) string {
	fields := strings.Fields(strings.TrimSpace(content))
	for i, f := range fields {
		if f == "fn" || f == "func" || f == "def" || f == "class" || f == "struct" || f == "enum" || f == "trait" || f == "type" || f == "interface" || f == "function" {
			if i+1 < len(fields) {
				name := fields[i+1]
				if idx := strings.IndexAny(name, "(<{:"); idx >= 0 {
					name = name[:idx]
				}
				return name
			}
		}
	}
	return ""
}

func estimateTokens(content string, cfg config.Retrieval) int {
	if cfg.TokenBudgetCharsPerToken <= 0 {
		return len(content) / 4
	}
	return len(content) / cfg.TokenBudgetCharsPerToken
}

var importLinePrefixes = map[types.Language][]string{
	types.LanguageRust:       {"use "},
	types.LanguageGo:         {"import", "\t\""},
	types.LanguagePython:     {"import ", "from "},
	types.LanguageJavaScript: {"import "},
	types.LanguageTypeScript: {"import "},
	types.LanguageTSX:        {"import "},
	types.LanguageCSharp:     {"using "},
}

// leadingImports returns the file's leading run of import lines, skipping
// blank lines; the first other line, a comment included, ends the run.
// The result is prepended to chunks whose kind needsContext (spec §4.7
// "optional context").
func leadingImports(content string, lang types.Language) []string {
	lines := strings.Split(content, "\n")
	prefixes := importLinePrefixes[lang]
	var out []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		matched := false
		for _, p := range prefixes {
			if strings.HasPrefix(trimmed, p) {
				matched = true
				break
			}
		}
		if !matched {
			break
		}
		out = append(out, line)
	}
	return out
}

// ChunkContent splits content into Chunks using adaptive semantic chunking:
// blocks are split by language-aware heuristics, and any block whose
// estimated token count exceeds cfg.ChunkMaxTokens is re-split into
// fixed-size windows of roughly cfg.ChunkTargetTokens (spec §4.7).
func ChunkContent(path, content string, lang types.Language, cfg config.Retrieval) []Chunk {
	imports := leadingImports(content, lang)
	blocks := splitIntoBlocks(content, lang)

	var chunks []Chunk
	for _, b := range blocks {
		body := strings.Join(b.lines, "\n")
		kind := detectChunkKind(body, lang)
		symbol := extractSymbolName(body, kind)

		final := body
		if kind.needsContext() && len(imports) > 0 {
			final = strings.Join(imports, "\n") + "\n\n" + body
		}

		tokens := estimateTokens(final, cfg)
		if tokens <= cfg.ChunkMaxTokens {
			chunks = append(chunks, Chunk{
				Path: path, StartLine: b.startLine, EndLine: b.endLine,
				Content: final, Kind: kind, Symbol: symbol, Tokens: tokens,
			})
			continue
		}

		chunks = append(chunks, fixedSplit(path, b, cfg)...)
	}
	return chunks
}

// fixedSplit re-splits an oversized block into windows of roughly
// cfg.ChunkTargetTokens, preserving line numbers.
func fixedSplit(path string, b block, cfg config.Retrieval) []Chunk {
	charsPerToken := cfg.TokenBudgetCharsPerToken
	if charsPerToken <= 0 {
		charsPerToken = 4
	}
	windowChars := cfg.ChunkTargetTokens * charsPerToken
	if windowChars <= 0 {
		windowChars = 800
	}

	var chunks []Chunk
	var buf strings.Builder
	startLine := b.startLine
	lastLine := b.startLine

	flush := func(endLine int) {
		if buf.Len() == 0 {
			return
		}
		content := buf.String()
		chunks = append(chunks, Chunk{
			Path: path, StartLine: startLine, EndLine: endLine,
			Content: content, Kind: ChunkGeneric, Tokens: estimateTokens(content, cfg),
		})
		buf.Reset()
	}

	for i, line := range b.lines {
		lineNo := b.startLine + i
		if buf.Len() > 0 && buf.Len()+len(line)+1 > windowChars {
			flush(lastLine)
			startLine = lineNo
		}
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(line)
		lastLine = lineNo
	}
	flush(lastLine)
	return chunks
}
