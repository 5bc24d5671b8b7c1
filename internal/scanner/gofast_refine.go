package scanner

import (
	"github.com/t14raptor/go-fast/ast"
	"github.com/t14raptor/go-fast/parser"
)

// topLevelJSFunctionNames re-tokenizes plain JavaScript (not JSX/TS, which
// go-fast does not parse) with a real AST parser and returns the set of
// function names declared at the top level of the program. The regex
// scanner cannot tell a top-level `function foo()` from one nested inside
// another function's body; when go-fast successfully parses the file this
// set lets ExtractSymbols drop nested false positives from its candidate
// list instead of guessing from indentation.
func topLevelJSFunctionNames(content string) (map[string]bool, bool) {
	program, err := parser.ParseFile(content)
	if err != nil {
		return nil, false
	}

	names := make(map[string]bool)
	for _, stmt := range program.Body {
		fn, ok := stmt.Stmt.(*ast.FunctionDeclaration)
		if !ok || fn.Function == nil || fn.Function.Name == nil {
			continue
		}
		names[fn.Function.Name.Name] = true
	}
	return names, true
}
