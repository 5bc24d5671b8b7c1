package astedit

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lci/internal/types"
)

// nodeText slices content by node's byte range (mirrors the teacher's
// symbollinker.GetNodeText helper).
func nodeText(node *sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if start > uint(len(content)) || end > uint(len(content)) || start > end {
		return ""
	}
	return string(content[start:end])
}

// byteRangeOf converts a node's span to a types.ByteRange.
func byteRangeOf(node *sitter.Node) types.ByteRange {
	return types.ByteRange{Start: int(node.StartByte()), End: int(node.EndByte())}
}

// findChildByKind returns the first direct child of node whose Kind
// matches kind (mirrors symbollinker.FindChildByType: direct children
// only, no recursive descent).
func findChildByKind(node *sitter.Node, kind string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}

// findChildByAnyKind returns the first direct child matching any of kinds.
func findChildByAnyKind(node *sitter.Node, kinds ...string) *sitter.Node {
	for _, k := range kinds {
		if n := findChildByKind(node, k); n != nil {
			return n
		}
	}
	return nil
}

// walk visits node and every descendant, depth-first, pre-order, calling
// visit(node, depth). Stops early if visit returns false.
func walk(node *sitter.Node, depth int, visit func(n *sitter.Node, depth int) bool) {
	if node == nil {
		return
	}
	if !visit(node, depth) {
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		walk(node.Child(i), depth+1, visit)
	}
}
