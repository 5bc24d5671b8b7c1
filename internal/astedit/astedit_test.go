package astedit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lci/internal/types"
)

func TestApplyOperation_RenameSymbolDefinitionOnly(t *testing.T) {
	src := "fn compute_total(items: &[i32]) -> i32 {\n    0\n}\n"
	spec := types.AstOperationSpec{
		Kind: types.OpRenameSymbol,
		RenameSymbol: &types.RenameSymbolOp{
			Symbol:    types.SymbolPath{"compute_total"},
			NewName:   "sum_items",
			Propagate: types.PropagationDefinitionOnly,
		},
	}
	plan, err := ApplyOperation("lib.rs", src, spec, "")
	require.NoError(t, err)
	require.Contains(t, plan.NewContent, "fn sum_items(")
	require.NotNil(t, plan.Preview)
}

func TestApplyOperation_RenameSymbolFilePropagation(t *testing.T) {
	src := "fn compute_total() -> i32 {\n    compute_total_helper()\n}\n\nfn compute_total_helper() -> i32 {\n    0\n}\n"
	spec := types.AstOperationSpec{
		Kind: types.OpRenameSymbol,
		RenameSymbol: &types.RenameSymbolOp{
			Symbol:    types.SymbolPath{"compute_total"},
			NewName:   "sum_items",
			Propagate: types.PropagationFile,
		},
	}
	plan, err := ApplyOperation("lib.rs", src, spec, "")
	require.NoError(t, err)
	require.Contains(t, plan.NewContent, "fn sum_items(")
	require.Contains(t, plan.NewContent, "compute_total_helper()")
	require.NotContains(t, plan.NewContent, "sum_items_helper")
}

func TestApplyOperation_UpdateSignatureReplacesHeader(t *testing.T) {
	src := "func Add(a int, b int) int {\n\treturn a + b\n}\n"
	spec := types.AstOperationSpec{
		Kind: types.OpUpdateSignature,
		UpdateSignature: &types.UpdateSignatureOp{
			Symbol:       types.SymbolPath{"Add"},
			NewSignature: "func Add(a, b int) int",
		},
	}
	plan, err := ApplyOperation("math.go", src, spec, "")
	require.NoError(t, err)
	require.Contains(t, plan.NewContent, "func Add(a, b int) int\n{\n\treturn a + b\n}\n")
}

func TestApplyOperation_MoveBlockRelocatesFunction(t *testing.T) {
	src := "fn first() -> i32 {\n    1\n}\n\nfn second() -> i32 {\n    2\n}\n"
	spec := types.AstOperationSpec{
		Kind: types.OpMoveBlock,
		MoveBlock: &types.MoveBlockOp{
			Symbol: types.SymbolPath{"first"},
			Destination: &types.MoveDestination{
				TargetSymbol: types.SymbolPath{"second"},
				Position:     types.MoveAfter,
			},
		},
	}
	plan, err := ApplyOperation("lib.rs", src, spec, "")
	require.NoError(t, err)
	require.True(t, strings.Index(plan.NewContent, "fn second") < strings.Index(plan.NewContent, "fn first"))
}

func TestApplyOperation_MoveBlockDeleteErasesBlock(t *testing.T) {
	src := "fn first() -> i32 {\n    1\n}\n\nfn second() -> i32 {\n    2\n}\n"
	spec := types.AstOperationSpec{
		Kind: types.OpMoveBlock,
		MoveBlock: &types.MoveBlockOp{
			Symbol:      types.SymbolPath{"first"},
			Destination: &types.MoveDestination{Position: types.MoveDelete},
		},
	}
	plan, err := ApplyOperation("lib.rs", src, spec, "")
	require.NoError(t, err)
	require.NotContains(t, plan.NewContent, "fn first")
	require.Contains(t, plan.NewContent, "fn second")
}

func TestApplyOperation_UpdateImportsAddsRemovesSorts(t *testing.T) {
	src := "import (\n\t\"fmt\"\n\t\"os\"\n)\n\nfunc main() {}\n"
	spec := types.AstOperationSpec{
		Kind: types.OpUpdateImports,
		UpdateImports: &types.UpdateImportsOp{
			Add:    []string{"\t\"bytes\""},
			Remove: []string{"\t\"os\""},
		},
	}
	plan, err := ApplyOperation("main.go", src, spec, "")
	require.NoError(t, err)
	bytesIdx := strings.Index(plan.NewContent, "\"bytes\"")
	fmtIdx := strings.Index(plan.NewContent, "\"fmt\"")
	require.True(t, bytesIdx >= 0 && bytesIdx < fmtIdx)
	require.NotContains(t, plan.NewContent, "\"os\"")
}

func TestApplyOperation_InsertAttributesBodyStart(t *testing.T) {
	src := "fn handler() -> i32 {\n    0\n}\n"
	spec := types.AstOperationSpec{
		Kind: types.OpInsertAttributes,
		InsertAttributes: &types.InsertAttributesOp{
			Symbol:     types.SymbolPath{"handler"},
			Attributes: []string{"    // traced"},
			Placement:  types.PlacementBodyStart,
		},
	}
	plan, err := ApplyOperation("lib.rs", src, spec, "")
	require.NoError(t, err)
	require.Contains(t, plan.NewContent, "fn handler() -> i32 {\n    // traced\n    0\n}\n")
}

func TestApplyOperation_TemplateEmitFileEnd(t *testing.T) {
	src := "func main() {}\n"
	spec := types.AstOperationSpec{
		Kind: types.OpTemplateEmit,
		TemplateEmit: &types.TemplateEmitOp{
			Template: "// generated for {{language}}\n",
			Mode:     types.TemplateFileEnd,
		},
	}
	plan, err := ApplyOperation("main.go", src, spec, "")
	require.NoError(t, err)
	require.Contains(t, plan.NewContent, "// generated for go")
}

func TestApplyOperation_ComplexityGateFailsOverThreshold(t *testing.T) {
	var b strings.Builder
	b.WriteString("fn deeply_nested() -> i32 {\n")
	for i := 0; i < 12; i++ {
		b.WriteString("    if true { }\n")
	}
	b.WriteString("    0\n}\n")

	spec := types.AstOperationSpec{
		Kind: types.OpInsertAttributes,
		InsertAttributes: &types.InsertAttributesOp{
			Symbol:     types.SymbolPath{"deeply_nested"},
			Attributes: []string{"// noop"},
			Placement:  types.PlacementBefore,
		},
	}
	_, err := ApplyOperation("lib.rs", b.String(), spec, "")
	require.Error(t, err)
}

func TestApplyOperation_NoChangeYieldsNilPreview(t *testing.T) {
	src := "fn noop() -> i32 {\n    0\n}\n"
	spec := types.AstOperationSpec{
		Kind: types.OpInsertAttributes,
		InsertAttributes: &types.InsertAttributesOp{
			Symbol:     types.SymbolPath{"noop"},
			Attributes: nil,
			Placement:  types.PlacementBodyStart,
		},
	}
	plan, err := ApplyOperation("lib.rs", src, spec, "")
	require.NoError(t, err)
	require.Nil(t, plan.Preview)
}
