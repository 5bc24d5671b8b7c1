package fallback

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lci/internal/types"
)

func TestResolve_SignatureMatchClearsASTThreshold(t *testing.T) {
	source := "fn compute_total(items: &[Item]) -> i32 {\n    0\n}\n"
	m, f := Resolve(source, types.SymbolPath{"compute_total"}, ModeASTFallback)
	require.Nil(t, f)
	require.NotNil(t, m)
	require.Equal(t, 1, m.Line)
	require.Equal(t, StrategyIdentifier, m.Strategy)
}

func TestResolve_ParentScopeBonus(t *testing.T) {
	source := "struct Widget {\n}\n\nimpl Widget {\n    fn render(&self) {\n    }\n}\n"
	m, f := Resolve(source, types.SymbolPath{"Widget", "render"}, ModeASTFallback)
	require.Nil(t, f)
	require.NotNil(t, m)
	require.Equal(t, StrategyScoped, m.Strategy)
}

func TestResolve_WeakMatchRejectedInASTMode(t *testing.T) {
	source := "let x = compute_total_other_thing;\n"
	_, f := Resolve(source, types.SymbolPath{"compute_total"}, ModeASTFallback)
	require.NotNil(t, f) // the only identifier is not the needle, so nothing is accepted
}

func TestResolve_FuzzyModeAcceptsRelaxedScore(t *testing.T) {
	source := "return compute_total;\n"
	m, f := Resolve(source, types.SymbolPath{"compute_total"}, ModeFuzzy)
	require.Nil(t, f)
	require.NotNil(t, m)
}

func TestResolve_FuzzyLiteralFallback(t *testing.T) {
	source := "no identifiers resembling the needle here at all\n"
	_, f := Resolve(source, types.SymbolPath{"totally_absent_symbol"}, ModeFuzzy)
	require.NotNil(t, f)
}
