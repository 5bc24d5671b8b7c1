package astedit

import (
	"regexp"
	"sort"
	"strings"

	"github.com/standardbeagle/lci/internal/types"
)

var importLinePattern = map[types.Language]*regexp.Regexp{
	types.LanguageGo:         regexp.MustCompile(`^\s*(import\b|\(|\)|"[^"]*")`),
	types.LanguageRust:       regexp.MustCompile(`^\s*use\s+`),
	types.LanguagePython:     regexp.MustCompile(`^\s*(import\s+|from\s+\S+\s+import\b)`),
	types.LanguageJavaScript: regexp.MustCompile(`^\s*import\s+`),
	types.LanguageTypeScript: regexp.MustCompile(`^\s*import\s+`),
	types.LanguageTSX:        regexp.MustCompile(`^\s*import\s+`),
	types.LanguageCSharp:     regexp.MustCompile(`^\s*using\s+`),
	types.LanguagePHP:        regexp.MustCompile(`^\s*(use\s+|require|include)`),
}

var commentLinePattern = regexp.MustCompile(`^\s*(//|#)`)

// importBlock finds the file's leading comment/import region, treating an
// optional shebang as excluded from the block (spec §4.6 UpdateImports).
// Returns the [startLine, endLine) span within lines.
func importBlock(lines []string, lang types.Language) (start, end int) {
	start = 0
	if len(lines) > 0 && strings.HasPrefix(lines[0], "#!") {
		start = 1
	}
	importRe := importLinePattern[lang]
	i := start
	for ; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" || commentLinePattern.MatchString(line) {
			continue
		}
		if importRe != nil && importRe.MatchString(line) {
			continue
		}
		break
	}
	return start, i
}

// buildUpdateImportsEdits implements spec §4.6 UpdateImports: adds lines
// not already present, removes matching lines, sorts the resulting import
// lines lexicographically, and reassembles the block as a single edit.
func buildUpdateImportsEdits(content []byte, lang types.Language, op *types.UpdateImportsOp) ([]types.TextEdit, error) {
	text := string(content)
	lines := strings.Split(text, "\n")
	start, end := importBlock(lines, lang)

	existing := append([]string(nil), lines[start:end]...)
	removeSet := make(map[string]bool, len(op.Remove))
	for _, r := range op.Remove {
		removeSet[strings.TrimSpace(r)] = true
	}

	var kept []string
	for _, l := range existing {
		if removeSet[strings.TrimSpace(l)] {
			continue
		}
		kept = append(kept, l)
	}
	have := make(map[string]bool, len(kept))
	for _, l := range kept {
		have[strings.TrimSpace(l)] = true
	}
	for _, a := range op.Add {
		if !have[strings.TrimSpace(a)] {
			kept = append(kept, a)
			have[strings.TrimSpace(a)] = true
		}
	}
	sort.Strings(kept)

	replacement := ""
	if len(kept) > 0 {
		replacement = strings.Join(kept, "\n") + "\n"
	}

	startByte := byteOffsetOfLine(lines, start)
	endByte := byteOffsetOfLine(lines, end)
	return []types.TextEdit{{Range: types.ByteRange{Start: startByte, End: endByte}, Replacement: replacement}}, nil
}

func byteOffsetOfLine(lines []string, lineIdx int) int {
	offset := 0
	for i := 0; i < lineIdx && i < len(lines); i++ {
		offset += len(lines[i]) + 1
	}
	return offset
}
