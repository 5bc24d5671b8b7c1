package astedit

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lci/internal/types"
)

// declRule describes one kind of named declaration a SymbolLocator can
// resolve a path segment against. unwrapKind handles grammars where the
// name/body live one level below the statement node (Go's
// type_declaration -> type_spec).
type declRule struct {
	kinds      []string
	unwrapKind string
	nameKinds  []string
	bodyKinds  []string
	container  bool // true if this declaration's body can hold nested path segments
}

var declRulesByLang = map[types.Language][]declRule{
	types.LanguageGo: {
		{kinds: []string{"function_declaration"}, nameKinds: []string{"identifier"}, bodyKinds: []string{"block"}},
		{kinds: []string{"method_declaration"}, nameKinds: []string{"field_identifier"}, bodyKinds: []string{"block"}},
		{kinds: []string{"type_declaration"}, unwrapKind: "type_spec", nameKinds: []string{"type_identifier"}, bodyKinds: []string{"struct_type", "interface_type"}, container: true},
	},
	types.LanguageRust: {
		{kinds: []string{"function_item"}, nameKinds: []string{"identifier"}, bodyKinds: []string{"block"}},
		{kinds: []string{"struct_item"}, nameKinds: []string{"type_identifier"}, bodyKinds: []string{"field_declaration_list"}},
		{kinds: []string{"enum_item"}, nameKinds: []string{"type_identifier"}, bodyKinds: []string{"enum_variant_list"}},
		{kinds: []string{"trait_item"}, nameKinds: []string{"type_identifier"}, bodyKinds: []string{"declaration_list"}, container: true},
		{kinds: []string{"impl_item"}, nameKinds: []string{"type_identifier"}, bodyKinds: []string{"declaration_list"}, container: true},
		{kinds: []string{"mod_item"}, nameKinds: []string{"identifier"}, bodyKinds: []string{"declaration_list"}, container: true},
	},
	types.LanguagePython: {
		{kinds: []string{"function_definition"}, nameKinds: []string{"identifier"}, bodyKinds: []string{"block"}},
		{kinds: []string{"class_definition"}, nameKinds: []string{"identifier"}, bodyKinds: []string{"block"}, container: true},
	},
	types.LanguageJavaScript: {
		{kinds: []string{"function_declaration"}, nameKinds: []string{"identifier"}, bodyKinds: []string{"statement_block"}},
		{kinds: []string{"class_declaration"}, nameKinds: []string{"identifier"}, bodyKinds: []string{"class_body"}, container: true},
		{kinds: []string{"method_definition"}, nameKinds: []string{"property_identifier"}, bodyKinds: []string{"statement_block"}},
	},
	types.LanguageTypeScript: {
		{kinds: []string{"function_declaration"}, nameKinds: []string{"identifier"}, bodyKinds: []string{"statement_block"}},
		{kinds: []string{"class_declaration"}, nameKinds: []string{"identifier"}, bodyKinds: []string{"class_body"}, container: true},
		{kinds: []string{"interface_declaration"}, nameKinds: []string{"type_identifier"}, bodyKinds: []string{"object_type"}, container: true},
		{kinds: []string{"method_definition"}, nameKinds: []string{"property_identifier"}, bodyKinds: []string{"statement_block"}},
	},
	types.LanguageCSharp: {
		{kinds: []string{"method_declaration"}, nameKinds: []string{"identifier"}, bodyKinds: []string{"block"}},
		{kinds: []string{"class_declaration"}, nameKinds: []string{"identifier"}, bodyKinds: []string{"declaration_list"}, container: true},
		{kinds: []string{"struct_declaration"}, nameKinds: []string{"identifier"}, bodyKinds: []string{"declaration_list"}, container: true},
		{kinds: []string{"interface_declaration"}, nameKinds: []string{"identifier"}, bodyKinds: []string{"declaration_list"}, container: true},
	},
	types.LanguagePHP: {
		{kinds: []string{"function_definition"}, nameKinds: []string{"name"}, bodyKinds: []string{"compound_statement"}},
		{kinds: []string{"method_declaration"}, nameKinds: []string{"name"}, bodyKinds: []string{"compound_statement"}},
		{kinds: []string{"class_declaration"}, nameKinds: []string{"name"}, bodyKinds: []string{"declaration_list"}, container: true},
	},
}

type declMatch struct {
	node      *sitter.Node
	body      *sitter.Node
	depth     int
	container bool
}

// locateNode resolves path against root by descending one segment at a
// time: each step searches the current scope's subtree for a declaration
// whose rule-derived name equals the segment, preferring a container
// declaration (impl/class/mod/...) whenever more segments remain.
func locateNode(root *sitter.Node, content []byte, lang types.Language, path types.SymbolPath) (*sitter.Node, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("astedit: empty symbol path")
	}
	rules, ok := declRulesByLang[lang]
	if !ok {
		return nil, fmt.Errorf("astedit: no symbol locator rules for language %q", lang)
	}

	scope := root
	for i, seg := range path {
		remaining := len(path) - i - 1
		match := findDecl(scope, content, rules, seg, remaining > 0)
		if match == nil {
			return nil, fmt.Errorf("astedit: symbol %q not found", strings.Join([]string(path[:i+1]), "::"))
		}
		if remaining == 0 {
			return match.node, nil
		}
		if match.body == nil {
			return nil, fmt.Errorf("astedit: %q has no nested scope to resolve %q", seg, path[i+1])
		}
		scope = match.body
	}
	return nil, fmt.Errorf("astedit: empty symbol path")
}

func findDecl(scope *sitter.Node, content []byte, rules []declRule, name string, preferContainer bool) *declMatch {
	var matches []declMatch
	walk(scope, 0, func(n *sitter.Node, depth int) bool {
		for _, rule := range rules {
			if !kindIn(n.Kind(), rule.kinds) {
				continue
			}
			effective := n
			if rule.unwrapKind != "" {
				effective = findChildByKind(n, rule.unwrapKind)
				if effective == nil {
					continue
				}
			}
			nameNode := findChildByAnyKind(effective, rule.nameKinds...)
			if nameNode == nil || nodeText(nameNode, content) != name {
				continue
			}
			matches = append(matches, declMatch{
				node:      n,
				body:      findChildByAnyKind(effective, rule.bodyKinds...),
				depth:     depth,
				container: rule.container,
			})
		}
		return true
	})

	if len(matches) == 0 {
		return nil
	}
	if preferContainer {
		for i := range matches {
			if matches[i].container {
				return &matches[i]
			}
		}
	}
	best := &matches[0]
	for i := range matches[1:] {
		if matches[i+1].depth < best.depth {
			best = &matches[i+1]
		}
	}
	return best
}

func kindIn(kind string, kinds []string) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// resolveTarget locates path in tree and derives the SymbolTarget byte
// ranges the operation handlers work against.
func resolveTarget(tree *sitter.Node, content []byte, lang types.Language, path types.SymbolPath) (*types.SymbolTarget, *sitter.Node, error) {
	node, err := locateNode(tree, content, lang, path)
	if err != nil {
		return nil, nil, err
	}
	rules := declRulesByLang[lang]
	var nameNode, bodyNode *sitter.Node
	effective := node
	for _, rule := range rules {
		if !kindIn(node.Kind(), rule.kinds) {
			continue
		}
		if rule.unwrapKind != "" {
			if unwrapped := findChildByKind(node, rule.unwrapKind); unwrapped != nil {
				effective = unwrapped
			}
		}
		nameNode = findChildByAnyKind(effective, rule.nameKinds...)
		bodyNode = findChildByAnyKind(effective, rule.bodyKinds...)
		break
	}
	if nameNode == nil {
		return nil, nil, fmt.Errorf("astedit: could not derive name range for %q", path.String())
	}

	target := &types.SymbolTarget{
		HeaderRange: byteRangeOf(node),
		NameRange:   byteRangeOf(nameNode),
		SymbolPath:  path,
	}
	if bodyNode != nil {
		br := byteRangeOf(bodyNode)
		target.BodyRange = &br
		target.HeaderRange.End = br.Start
	}
	return target, node, nil
}
