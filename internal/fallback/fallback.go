// Package fallback implements the token-scan symbol locator (component
// C5) used when AST resolution returns NotFound/Unsupported, or when a
// fuzzy mode is explicitly requested.
package fallback

import (
	"regexp"
	"strings"

	edlib "github.com/hbollon/go-edlib"

	"github.com/standardbeagle/lci/internal/types"
)

// Mode selects which acceptance threshold and relaxed/literal fallbacks
// apply (spec §4.5 step 4).
type Mode string

const (
	ModeASTFallback Mode = "ast_fallback"
	ModeFuzzy       Mode = "fuzzy"
)

const (
	thresholdASTFallback = 42
	thresholdFuzzyStrict = 14
	thresholdFuzzyRelaxed = 6
	baseIdentifierScore  = 10
	signatureKeywordBonus = 32
	callParenBonus        = 18
	assignmentBonus       = 12
	parentScanDistance    = 400
	parentBonusBase       = 8
	parentBonusCap        = 6
)

var signatureKeywords = []string{"fn", "def", "class", "struct", "enum", "function"}
var parentDeclKeyword = regexp.MustCompile(`\b(class|struct|enum|impl|trait|interface|module|mod)\s+([A-Za-z_][A-Za-z0-9_]*)`)
var identPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// Strategy names how a FallbackMatch was found (spec §4.5 step 5).
type Strategy string

const (
	StrategyIdentifier Strategy = "identifier"
	StrategyScoped     Strategy = "scoped"
)

// Match is a successful fallback resolution.
type Match struct {
	ByteIndex int
	Line      int
	Column    int
	Excerpt   []string
	Strategy  Strategy
	Reason    string
	Score     int
}

// Failure is returned when nothing clears the acceptance threshold.
type Failure struct {
	BestExcerpt []string
	BestScore   int
}

type candidate struct {
	byteIndex int
	line      int // 0-indexed
	col       int
	score     int
	scoped    bool
}

// Resolve implements spec §4.5: tokenizes source for occurrences of
// path's leaf name, scores each by signature and parent-scope bonuses,
// and accepts the best candidate against mode's threshold.
func Resolve(source string, path types.SymbolPath, mode Mode) (*Match, *Failure) {
	needle := path.Leaf()
	if needle == "" {
		return nil, &Failure{}
	}
	lines := strings.Split(source, "\n")
	lineStart := make([]int, len(lines))
	offset := 0
	for i, l := range lines {
		lineStart[i] = offset
		offset += len(l) + 1
	}

	var candidates []candidate
	for lineIdx, line := range lines {
		for _, m := range identPattern.FindAllStringIndex(line, -1) {
			if line[m[0]:m[1]] != needle {
				continue
			}
			score := baseIdentifierScore
			trimmed := strings.TrimLeft(line, " \t")
			for _, kw := range signatureKeywords {
				if strings.HasPrefix(trimmed, kw+" ") {
					rest := strings.TrimSpace(strings.TrimPrefix(trimmed, kw))
					if strings.HasPrefix(rest, needle) && isWordBoundary(rest, len(needle)) {
						score += signatureKeywordBonus
					}
				}
			}
			if strings.HasPrefix(trimmed, needle+"(") {
				score += callParenBonus
			}
			if strings.Contains(line, needle+" =") {
				score += assignmentBonus
			}

			scoped := false
			if len(path) > 1 {
				bonus, ok := parentScopeBonus(lines, lineIdx, path.Parents())
				if ok {
					score += bonus
					scoped = true
				}
			}

			candidates = append(candidates, candidate{
				byteIndex: lineStart[lineIdx] + m[0],
				line:      lineIdx,
				col:       m[0],
				score:     score,
				scoped:    scoped,
			})
		}
	}

	if len(candidates) == 0 {
		if mode == ModeFuzzy {
			if m := literalScan(source, needle); m != nil {
				return m, nil
			}
		}
		return nil, &Failure{}
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.score > best.score {
			best = c
		}
	}

	threshold := thresholdASTFallback
	if mode == ModeFuzzy {
		threshold = thresholdFuzzyStrict
	}

	if best.score >= threshold || (mode == ModeFuzzy && best.score >= thresholdFuzzyRelaxed) {
		strategy := StrategyIdentifier
		if best.scoped {
			strategy = StrategyScoped
		}
		return &Match{
			ByteIndex: best.byteIndex,
			Line:      best.line + 1,
			Column:    best.col + 1,
			Excerpt:   excerpt(lines, best.line),
			Strategy:  strategy,
			Reason:    "token scan matched identifier",
			Score:     best.score,
		}, nil
	}

	if mode == ModeFuzzy {
		if m := literalScan(source, needle); m != nil {
			return m, nil
		}
	}
	return nil, &Failure{BestExcerpt: excerpt(lines, best.line), BestScore: best.score}
}

func isWordBoundary(rest string, needleLen int) bool {
	if len(rest) == needleLen {
		return true
	}
	next := rest[needleLen]
	return !(next == '_' || (next >= 'a' && next <= 'z') || (next >= 'A' && next <= 'Z') || (next >= '0' && next <= '9'))
}

// parentScopeBonus walks lines above lineIdx (bounded by
// parentScanDistance) matching each of parents in reverse order against
// class|struct|enum|impl|trait|interface|module|mod declarations,
// breaking on the first non-match (spec §4.5 step 3).
func parentScopeBonus(lines []string, lineIdx int, parents []string) (int, bool) {
	total := 0
	remaining := append([]string(nil), parents...)
	matched := false
	for i := lineIdx - 1; i >= 0 && lineIdx-i <= parentScanDistance && len(remaining) > 0; i-- {
		m := parentDeclKeyword.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		expected := remaining[len(remaining)-1]
		if m[2] != expected {
			break
		}
		distance := lineIdx - i
		clamped := distance
		if clamped > parentBonusCap {
			clamped = parentBonusCap
		}
		total += parentBonusBase + (parentBonusCap - clamped)
		remaining = remaining[:len(remaining)-1]
		matched = true
	}
	return total, matched
}

func excerpt(lines []string, lineIdx int) []string {
	start := lineIdx - 2
	if start < 0 {
		start = 0
	}
	end := lineIdx + 2
	if end >= len(lines) {
		end = len(lines) - 1
	}
	return append([]string(nil), lines[start:end+1]...)
}

// literalScan is the Fuzzy-mode last resort: a plain substring scan,
// assisted by edit-distance similarity when no exact substring exists.
func literalScan(source, needle string) *Match {
	idx := strings.Index(source, needle)
	if idx < 0 {
		idx = fuzzyLiteralScan(source, needle)
		if idx < 0 {
			return nil
		}
	}
	line := strings.Count(source[:idx], "\n")
	lines := strings.Split(source, "\n")
	lineStartOffset := idx
	if line > 0 {
		lineStartOffset = idx - (strings.LastIndex(source[:idx], "\n") + 1)
	}
	return &Match{
		ByteIndex: idx,
		Line:      line + 1,
		Column:    lineStartOffset + 1,
		Excerpt:   excerpt(lines, line),
		Strategy:  StrategyIdentifier,
		Reason:    "literal substring fallback",
		Score:     0,
	}
}

// fuzzyLiteralScan uses go-edlib's Jaro-Winkler similarity to find the
// identifier-like token most similar to needle, for callers who typo'd
// the symbol name (spec §4.5 step 4 "relaxed" fuzzy fallback).
func fuzzyLiteralScan(source, needle string) int {
	best := -1
	bestScore := float32(0.80)
	for _, m := range identPattern.FindAllStringIndex(source, -1) {
		tok := source[m[0]:m[1]]
		score, err := edlib.StringsSimilarity(tok, needle, edlib.JaroWinkler)
		if err != nil {
			continue
		}
		if score > bestScore {
			bestScore = score
			best = m[0]
		}
	}
	return best
}
