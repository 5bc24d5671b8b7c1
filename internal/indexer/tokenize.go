package indexer

import (
	"regexp"
	"strings"

	"github.com/standardbeagle/lci/internal/types"
)

var tokenPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// stopwords are discarded during tokenization (spec §4.3 step 5).
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "this": true,
	"that": true, "from": true, "into": true, "true": true, "false": true,
	"nil": true, "null": true, "none": true, "self": true, "return": true,
}

// Tokenize greedily matches [A-Za-z_][A-Za-z0-9_]* runs of length >= 3,
// lowercases, dedups, and caps at MaxTokensPerFile (spec §4.3 step 5).
// Exported so the search planner can tokenize a query the same way a file
// was tokenized at index time.
func Tokenize(content string) []string {
	return tokenize(content)
}

func tokenize(content string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range tokenPattern.FindAllString(content, -1) {
		if len(m) < types.MinTokenLength {
			continue
		}
		lower := strings.ToLower(m)
		if stopwords[lower] || seen[lower] {
			continue
		}
		seen[lower] = true
		out = append(out, lower)
		if len(out) >= types.MaxTokensPerFile {
			break
		}
	}
	return out
}

// Trigrams collects every lowercase 3-byte window as a packed uint32,
// deduplicated and capped at MaxTrigramsPerFile (spec §4.3 step 6).
// Exported for the search planner's fuzzy-candidate trigram lookup.
func Trigrams(content string) []uint32 {
	return trigrams(content)
}

func trigrams(content string) []uint32 {
	lower := strings.ToLower(content)
	seen := make(map[uint32]bool)
	var out []uint32
	for i := 0; i+3 <= len(lower); i++ {
		tri := uint32(lower[i])<<16 | uint32(lower[i+1])<<8 | uint32(lower[i+2])
		if seen[tri] {
			continue
		}
		seen[tri] = true
		out = append(out, tri)
		if len(out) >= types.MaxTrigramsPerFile {
			break
		}
	}
	return out
}
