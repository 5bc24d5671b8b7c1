package atlas

import (
	"strings"

	"github.com/standardbeagle/lci/internal/types"
)

// FocusResult is the outcome of a breadcrumb/focus query (spec §4.4).
type FocusResult struct {
	Chain   []*types.AtlasNode // root-to-match ancestor chain
	Matched bool
}

// Focus normalizes target (lowercase name form; forward-slashed,
// lowercased, "./"-and-trailing-"/"-stripped path form) and
// depth-first-searches snap's tree for the first node matching either
// form, returning the full ancestor chain. An empty/unmatched target
// returns the root alone with Matched=false.
func Focus(snap *types.AtlasSnapshot, target string) FocusResult {
	if snap == nil || snap.Root == nil {
		return FocusResult{}
	}
	if target == "" {
		return FocusResult{Chain: []*types.AtlasNode{snap.Root}, Matched: false}
	}

	nameForm := strings.ToLower(target)
	pathForm := strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(target, "./"), "/"))
	pathForm = strings.ReplaceAll(pathForm, "\\", "/")

	var chain []*types.AtlasNode
	var dfs func(node *types.AtlasNode) bool
	dfs = func(node *types.AtlasNode) bool {
		chain = append(chain, node)
		if strings.ToLower(node.Name) == nameForm || strings.ToLower(node.Path) == pathForm {
			return true
		}
		for _, child := range node.Children {
			if dfs(child) {
				return true
			}
		}
		chain = chain[:len(chain)-1]
		return false
	}

	if dfs(snap.Root) {
		return FocusResult{Chain: append([]*types.AtlasNode(nil), chain...), Matched: true}
	}
	return FocusResult{Chain: []*types.AtlasNode{snap.Root}, Matched: false}
}
