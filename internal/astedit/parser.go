// Package astedit implements the structured patch engine (component C6):
// apply_ast_operation resolves a symbol path against a tree-sitter parse
// of the original source, computes a set of TextEdits for the requested
// operation, applies them in descending-offset order, and re-checks the
// edited symbol's cyclomatic complexity before returning a plan.
package astedit

import (
	"fmt"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/standardbeagle/lci/internal/types"
)

var (
	languagesOnce sync.Once
	languages     map[types.Language]*sitter.Language
)

func initLanguages() {
	languages = map[types.Language]*sitter.Language{
		types.LanguageGo:         sitter.NewLanguage(tree_sitter_go.Language()),
		types.LanguageRust:       sitter.NewLanguage(tree_sitter_rust.Language()),
		types.LanguagePython:     sitter.NewLanguage(tree_sitter_python.Language()),
		types.LanguageJavaScript: sitter.NewLanguage(tree_sitter_javascript.Language()),
		types.LanguageTypeScript: sitter.NewLanguage(typescript.LanguageTypescript()),
		types.LanguageTSX:        sitter.NewLanguage(typescript.LanguageTSX()),
		types.LanguageCSharp:     sitter.NewLanguage(tree_sitter_csharp.Language()),
		types.LanguagePHP:        sitter.NewLanguage(tree_sitter_php.LanguagePHP()),
	}
}

// languageFor looks up the tree-sitter grammar for lang, building the
// registry once on first use (same sync.Once idiom as scanner.initRules).
func languageFor(lang types.Language) (*sitter.Language, error) {
	languagesOnce.Do(initLanguages)
	l, ok := languages[lang]
	if !ok {
		return nil, fmt.Errorf("astedit: no symbol locator for language %q", lang)
	}
	return l, nil
}

// parseTree parses content as lang, returning the caller-owned tree.
// Callers must call tree.Close() when done.
func parseTree(content []byte, lang types.Language) (*sitter.Tree, error) {
	grammar, err := languageFor(lang)
	if err != nil {
		return nil, err
	}
	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(grammar); err != nil {
		return nil, fmt.Errorf("astedit: set language %q: %w", lang, err)
	}
	tree := parser.Parse(content, nil)
	if tree == nil || tree.RootNode() == nil {
		return nil, fmt.Errorf("astedit: parse failed for language %q", lang)
	}
	return tree, nil
}
