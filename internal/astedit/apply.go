package astedit

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	apperrors "github.com/standardbeagle/lci/internal/errors"
	"github.com/standardbeagle/lci/internal/types"
)

// languageByExtension backs the "by extension" half of SymbolLocator
// selection (spec §4.6: "selects a SymbolLocator by explicit language
// hint or by extension").
var languageByExtension = map[string]types.Language{
	".go":   types.LanguageGo,
	".rs":   types.LanguageRust,
	".py":   types.LanguagePython,
	".js":   types.LanguageJavaScript,
	".jsx":  types.LanguageJavaScript,
	".mjs":  types.LanguageJavaScript,
	".ts":   types.LanguageTypeScript,
	".tsx":  types.LanguageTSX,
	".cs":   types.LanguageCSharp,
	".php":  types.LanguagePHP,
}

// detectLanguage resolves hint if non-empty, else falls back to path's
// extension.
func detectLanguage(path string, hint types.Language) (types.Language, error) {
	if hint != "" {
		if _, ok := declRulesByLang[hint]; ok {
			return hint, nil
		}
		return "", fmt.Errorf("astedit: unsupported language hint %q", hint)
	}
	lang, ok := languageByExtension[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return "", fmt.Errorf("astedit: cannot infer language for %q", path)
	}
	return lang, nil
}

// ApplyOperation is apply_ast_operation (spec §4.6): it resolves spec's
// target symbol(s) against a tree-sitter parse of originalSource, builds
// the operation's TextEdits, applies them in descending-offset order,
// re-parses to check the edited symbol's cyclomatic complexity, and
// renders a unified-diff preview.
func ApplyOperation(path string, originalSource string, spec types.AstOperationSpec, langHint types.Language) (*types.AstEditPlan, error) {
	lang, err := detectLanguage(path, langHint)
	if err != nil {
		return nil, apperrors.NewParseError(0, path, 0, 0, string(spec.Kind), err)
	}

	content := []byte(originalSource)
	tree, err := parseTree(content, lang)
	if err != nil {
		return nil, apperrors.NewParseError(0, path, 0, 0, string(spec.Kind), err)
	}
	defer tree.Close()
	root := tree.RootNode()

	var edits []types.TextEdit
	var preAnchor, postAnchor types.SymbolPath

	switch spec.Kind {
	case types.OpRenameSymbol:
		if spec.RenameSymbol == nil {
			return nil, fmt.Errorf("astedit: rename_symbol operation missing payload")
		}
		edits, err = buildRenameEdits(root, content, lang, spec.RenameSymbol)
		preAnchor = spec.RenameSymbol.Symbol
		postAnchor = append(append(types.SymbolPath(nil), spec.RenameSymbol.Symbol.Parents()...), spec.RenameSymbol.NewName)
	case types.OpUpdateSignature:
		if spec.UpdateSignature == nil {
			return nil, fmt.Errorf("astedit: update_signature operation missing payload")
		}
		edits, err = buildUpdateSignatureEdits(root, content, lang, spec.UpdateSignature)
		preAnchor, postAnchor = spec.UpdateSignature.Symbol, spec.UpdateSignature.Symbol
	case types.OpMoveBlock:
		if spec.MoveBlock == nil {
			return nil, fmt.Errorf("astedit: move_block operation missing payload")
		}
		edits, err = buildMoveBlockEdits(root, content, lang, spec.MoveBlock)
		preAnchor, postAnchor = spec.MoveBlock.Symbol, spec.MoveBlock.Symbol
	case types.OpUpdateImports:
		if spec.UpdateImports == nil {
			return nil, fmt.Errorf("astedit: update_imports operation missing payload")
		}
		edits, err = buildUpdateImportsEdits(content, lang, spec.UpdateImports)
	case types.OpInsertAttributes:
		if spec.InsertAttributes == nil {
			return nil, fmt.Errorf("astedit: insert_attributes operation missing payload")
		}
		edits, err = buildInsertAttributesEdits(root, content, lang, spec.InsertAttributes)
		preAnchor, postAnchor = spec.InsertAttributes.Symbol, spec.InsertAttributes.Symbol
	case types.OpTemplateEmit:
		if spec.TemplateEmit == nil {
			return nil, fmt.Errorf("astedit: template_emit operation missing payload")
		}
		edits, err = buildTemplateEmitEdits(root, content, lang, spec.TemplateEmit)
		preAnchor, postAnchor = spec.TemplateEmit.Symbol, spec.TemplateEmit.Symbol
	default:
		return nil, fmt.Errorf("astedit: unknown operation kind %q", spec.Kind)
	}
	if err != nil {
		return nil, apperrors.NewParseError(0, path, 0, 0, string(spec.Kind), err)
	}

	var preComplexity int
	var havePre bool
	if len(preAnchor) > 0 {
		if node, lerr := locateNode(root, content, lang, preAnchor); lerr == nil {
			preComplexity, havePre = cyclomaticComplexity(node, lang), true
		}
	}

	newContent := applyEdits(content, edits)

	var diagnostics []types.Diagnostic
	if len(postAnchor) > 0 {
		hint, gateErr := checkComplexityGate(path, []byte(newContent), lang, postAnchor, preComplexity, havePre)
		if gateErr != nil {
			return nil, gateErr
		}
		if hint != nil {
			diagnostics = append(diagnostics, *hint)
		}
	}

	return &types.AstEditPlan{
		NewContent:  newContent,
		Message:     fmt.Sprintf("applied %s to %s", spec.Kind, path),
		Diagnostics: diagnostics,
		Preview:     unifiedDiff(originalSource, newContent),
	}, nil
}

// checkComplexityGate re-parses newContent, locates anchor, and recomputes
// cyclomatic complexity: a value over the threshold fails the operation; a
// value that merely increased over preComplexity attaches a cyclomatic_hint
// diagnostic (spec §4.6 complexity gate). Resolution failure (e.g. the
// symbol was deleted by a MoveBlock) is not itself an error — there is
// nothing left to gate.
func checkComplexityGate(path string, newContent []byte, lang types.Language, anchor types.SymbolPath, preComplexity int, havePre bool) (*types.Diagnostic, error) {
	tree, err := parseTree(newContent, lang)
	if err != nil {
		return nil, nil
	}
	defer tree.Close()

	node, err := locateNode(tree.RootNode(), newContent, lang, anchor)
	if err != nil {
		return nil, nil
	}

	complexity := cyclomaticComplexity(node, lang)
	if complexity > complexityThreshold {
		return nil, apperrors.NewParseError(0, path, 0, 0, anchor.String(),
			fmt.Errorf("cyclomatic complexity %d exceeds threshold %d", complexity, complexityThreshold))
	}
	if havePre && complexity > preComplexity {
		return &types.Diagnostic{
			Kind:    "cyclomatic_hint",
			Message: "complexity increased to " + strconv.Itoa(complexity),
		}, nil
	}
	return nil, nil
}

// unifiedDiff renders a 3-line-context unified diff between original and
// updated, returning nil when they are identical.
func unifiedDiff(original, updated string) *string {
	if original == updated {
		return nil
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(original),
		B:        difflib.SplitLines(updated),
		FromFile: "original",
		ToFile:   "updated",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return nil
	}
	return &text
}
