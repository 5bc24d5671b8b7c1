package astedit

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lci/internal/types"
)

const complexityThreshold = 10

// decisionKindsByLang lists the node kinds that add a branch to
// cyclomatic complexity (spec §4.6: "if_expression, match_expression,
// while_expression, loop_expression, for_expression for Rust; equivalents
// for other languages").
var decisionKindsByLang = map[types.Language][]string{
	types.LanguageRust:       {"if_expression", "match_expression", "while_expression", "loop_expression", "for_expression", "match_arm"},
	types.LanguageGo:         {"if_statement", "for_statement", "switch_statement", "type_switch_statement", "select_statement", "case_clause", "communication_case"},
	types.LanguagePython:     {"if_statement", "for_statement", "while_statement", "except_clause", "with_statement"},
	types.LanguageJavaScript: {"if_statement", "for_statement", "for_in_statement", "while_statement", "switch_case", "catch_clause", "conditional_expression"},
	types.LanguageTypeScript: {"if_statement", "for_statement", "for_in_statement", "while_statement", "switch_case", "catch_clause", "conditional_expression"},
	types.LanguageTSX:        {"if_statement", "for_statement", "for_in_statement", "while_statement", "switch_case", "catch_clause", "conditional_expression"},
	types.LanguageCSharp:     {"if_statement", "for_statement", "foreach_statement", "while_statement", "switch_section", "catch_clause"},
	types.LanguagePHP:        {"if_statement", "for_statement", "foreach_statement", "while_statement", "switch_statement", "catch_clause"},
}

// cyclomaticComplexity counts decision nodes in node's subtree plus the
// baseline path (spec §4.6 complexity gate).
func cyclomaticComplexity(node *sitter.Node, lang types.Language) int {
	kinds := decisionKindsByLang[lang]
	count := 1
	walk(node, 0, func(n *sitter.Node, depth int) bool {
		if depth > 0 && kindIn(n.Kind(), kinds) {
			count++
		}
		return true
	})
	return count
}
