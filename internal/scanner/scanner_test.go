package scanner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lci/internal/types"
)

func TestDetectLanguage(t *testing.T) {
	require.Equal(t, types.LanguageRust, DetectLanguage("src/lib.rs"))
	require.Equal(t, types.LanguageGo, DetectLanguage("main.go"))
	require.Equal(t, types.LanguageUnknown, DetectLanguage("data.bin"))
}

func TestExtractSymbols_Rust(t *testing.T) {
	src := `/// Adds two numbers.
/// Returns their sum.
pub fn add(a: i32, b: i32) -> i32 {
    a + b
}

#[test]
fn test_add_works() {
}
`
	lines := strings.Split(strings.TrimRight(src, "\n"), "\n")
	cands := ExtractSymbols(types.LanguageRust, lines)
	require.Len(t, cands, 2)
	require.Equal(t, "add", cands[0].Name)
	require.Equal(t, types.KindFunction, cands[0].Kind)
	require.Equal(t, "Adds two numbers. Returns their sum.", cands[0].DocSummary)
	require.Equal(t, types.KindTest, cands[1].Kind)
}

func TestExtractSymbols_Go(t *testing.T) {
	src := `package scanner

// Add returns the sum.
func Add(a, b int) int {
	return a + b
}

func (s *Scanner) Run() {
}
`
	lines := strings.Split(strings.TrimRight(src, "\n"), "\n")
	cands := ExtractSymbols(types.LanguageGo, lines)
	require.Len(t, cands, 2)
	require.Equal(t, "Add", cands[0].Name)
	require.Equal(t, types.KindFunction, cands[0].Kind)
	require.Equal(t, "Run", cands[1].Name)
	require.Equal(t, types.KindMethod, cands[1].Kind)
}

func TestExtractSymbols_Markdown(t *testing.T) {
	lines := []string{"# Title", "body text", "## Section"}
	cands := ExtractSymbols(types.LanguageMarkdown, lines)
	require.Len(t, cands, 2)
	require.Equal(t, "Title", cands[0].Name)
	require.Equal(t, "Section", cands[1].Name)
	require.Equal(t, types.KindDocument, cands[0].Kind)
}

func TestExtractSymbols_JSONWholeFile(t *testing.T) {
	lines := []string{"{", `  "a": 1`, "}"}
	cands := ExtractSymbols(types.LanguageJSON, lines)
	require.Len(t, cands, 1)
	require.Equal(t, types.KindDocument, cands[0].Kind)
	require.Equal(t, 1, cands[0].StartLine)
	require.Equal(t, 3, cands[0].EndLine)
}

func TestExtractSymbols_UnknownFallback(t *testing.T) {
	lines := []string{"", "first line", "second line", "", "third line", "fourth"}
	cands := ExtractSymbols(types.LanguageUnknown, lines)
	require.Len(t, cands, 1)
	require.Equal(t, "first line second line third line", cands[0].Preview)
}

func TestExtractSymbols_Bash(t *testing.T) {
	lines := []string{"deploy() {", "  echo hi", "}", "function cleanup {", "  rm -rf /tmp/x", "}"}
	cands := ExtractSymbols(types.LanguageBash, lines)
	require.Len(t, cands, 2)
	require.Equal(t, "deploy", cands[0].Name)
	require.Equal(t, "cleanup", cands[1].Name)
}
