package astedit

import (
	"fmt"
	"sort"
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lci/internal/types"
)

// buildRenameEdits implements spec §4.6 RenameSymbol: replace the target's
// name_range, and when propagation is File, every other identifier-kind
// node in the file whose text equals the old leaf name.
func buildRenameEdits(root *sitter.Node, content []byte, lang types.Language, op *types.RenameSymbolOp) ([]types.TextEdit, error) {
	target, _, err := resolveTarget(root, content, lang, op.Symbol)
	if err != nil {
		return nil, err
	}
	edits := []types.TextEdit{{Range: target.NameRange, Replacement: op.NewName}}

	if op.Propagate == types.PropagationFile {
		oldName := op.Symbol.Leaf()
		kinds := identifierKindsByLang[lang]
		walk(root, 0, func(n *sitter.Node, depth int) bool {
			if !kindIn(n.Kind(), kinds) {
				return true
			}
			br := byteRangeOf(n)
			if br == target.NameRange {
				return true
			}
			if nodeText(n, content) != oldName {
				return true
			}
			edits = append(edits, types.TextEdit{Range: br, Replacement: op.NewName})
			return true
		})
	}
	return edits, nil
}

// buildUpdateSignatureEdits implements spec §4.6 UpdateSignature: replace
// [header_range.start, header_range.end) — which resolveTarget already
// narrows to body_range.start when a body exists — with the new,
// newline-terminated signature text.
func buildUpdateSignatureEdits(root *sitter.Node, content []byte, lang types.Language, op *types.UpdateSignatureOp) ([]types.TextEdit, error) {
	target, _, err := resolveTarget(root, content, lang, op.Symbol)
	if err != nil {
		return nil, err
	}
	text := op.NewSignature
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return []types.TextEdit{{Range: target.HeaderRange, Replacement: text}}, nil
}

// buildMoveBlockEdits implements spec §4.6 MoveBlock: slices
// [header_range.start, body_range.end) (or header_range.end when there is
// no body), then either erases it (no destination + Delete) or removes it
// from its current position and inserts it relative to a destination
// symbol, snapping the insertion index past the source block's own range
// when it would otherwise land inside it.
func buildMoveBlockEdits(root *sitter.Node, content []byte, lang types.Language, op *types.MoveBlockOp) ([]types.TextEdit, error) {
	target, node, err := resolveTarget(root, content, lang, op.Symbol)
	if err != nil {
		return nil, err
	}
	block := types.ByteRange{Start: target.HeaderRange.Start, End: int(node.EndByte())}

	if op.Destination == nil {
		return []types.TextEdit{{Range: block, Replacement: ""}}, nil
	}
	if op.Destination.Position == types.MoveDelete {
		return []types.TextEdit{{Range: block, Replacement: ""}}, nil
	}

	slice := string(content[block.Start:block.End])
	destTarget, destNode, err := resolveTarget(root, content, lang, op.Destination.TargetSymbol)
	if err != nil {
		return nil, fmt.Errorf("astedit: move destination: %w", err)
	}

	var insertAt int
	var replaceRange *types.ByteRange
	switch op.Destination.Position {
	case types.MoveBefore:
		insertAt = destTarget.HeaderRange.Start
	case types.MoveAfter:
		insertAt = int(destNode.EndByte())
	case types.MoveReplace:
		rr := byteRangeOf(destNode)
		replaceRange = &rr
	case types.MoveIntoBody:
		if destTarget.BodyRange == nil {
			return nil, fmt.Errorf("astedit: move destination %q has no body to move into", op.Destination.TargetSymbol.String())
		}
		insertAt = destTarget.BodyRange.Start + 1
	default:
		return nil, fmt.Errorf("astedit: unknown move position %q", op.Destination.Position)
	}

	if replaceRange == nil && insertAt >= block.Start && insertAt <= block.End {
		insertAt = block.End
	}

	edits := []types.TextEdit{{Range: block, Replacement: ""}}
	if replaceRange != nil {
		edits = append(edits, types.TextEdit{Range: *replaceRange, Replacement: slice})
	} else {
		edits = append(edits, types.TextEdit{Range: types.ByteRange{Start: insertAt, End: insertAt}, Replacement: slice})
	}
	return edits, nil
}

// buildInsertAttributesEdits implements spec §4.6 InsertAttributes:
// insert the joined attribute lines at header start / header end / body
// start+1, depending on op.Placement.
func buildInsertAttributesEdits(root *sitter.Node, content []byte, lang types.Language, op *types.InsertAttributesOp) ([]types.TextEdit, error) {
	target, _, err := resolveTarget(root, content, lang, op.Symbol)
	if err != nil {
		return nil, err
	}
	text := strings.Join(op.Attributes, "\n")
	if text != "" {
		text += "\n"
	}

	var at int
	switch op.Placement {
	case types.PlacementBefore:
		at = target.HeaderRange.Start
	case types.PlacementAfter:
		at = target.HeaderRange.End
	case types.PlacementBodyStart:
		if target.BodyRange == nil {
			return nil, fmt.Errorf("astedit: symbol %q has no body for body-start placement", op.Symbol.String())
		}
		at = target.BodyRange.Start + 1
		if text != "" {
			// Right after the opening brace: start the attributes on their
			// own line and let the body's existing line break follow them.
			text = "\n" + strings.TrimSuffix(text, "\n")
		}
	default:
		return nil, fmt.Errorf("astedit: unknown placement %q", op.Placement)
	}
	return []types.TextEdit{{Range: types.ByteRange{Start: at, End: at}, Replacement: text}}, nil
}

// buildTemplateEmitEdits implements spec §4.6 TemplateEmit: substitutes
// {{language}}/{{symbol}}/{{timestamp}} and inserts at the chosen position.
func buildTemplateEmitEdits(root *sitter.Node, content []byte, lang types.Language, op *types.TemplateEmitOp) ([]types.TextEdit, error) {
	symbolText := ""
	if len(op.Symbol) > 0 {
		symbolText = op.Symbol.String()
	}
	rendered := strings.NewReplacer(
		"{{language}}", string(lang),
		"{{symbol}}", symbolText,
		"{{timestamp}}", fmt.Sprintf("%d", time.Now().Unix()),
	).Replace(op.Template)

	switch op.Mode {
	case types.TemplateFileStart:
		return []types.TextEdit{{Range: types.ByteRange{Start: 0, End: 0}, Replacement: rendered}}, nil
	case types.TemplateFileEnd:
		end := len(content)
		return []types.TextEdit{{Range: types.ByteRange{Start: end, End: end}, Replacement: rendered}}, nil
	}

	target, _, err := resolveTarget(root, content, lang, op.Symbol)
	if err != nil {
		return nil, err
	}
	var at int
	switch op.Mode {
	case types.TemplateBeforeSymbol:
		at = target.HeaderRange.Start
	case types.TemplateAfterSymbol:
		if target.BodyRange != nil {
			at = target.BodyRange.End
		} else {
			at = target.HeaderRange.End
		}
	case types.TemplateBodyStart:
		if target.BodyRange == nil {
			return nil, fmt.Errorf("astedit: symbol %q has no body for body-start template", op.Symbol.String())
		}
		at = target.BodyRange.Start + 1
	case types.TemplateBodyEnd:
		if target.BodyRange == nil {
			return nil, fmt.Errorf("astedit: symbol %q has no body for body-end template", op.Symbol.String())
		}
		at = target.BodyRange.End - 1
	default:
		return nil, fmt.Errorf("astedit: unknown template mode %q", op.Mode)
	}
	return []types.TextEdit{{Range: types.ByteRange{Start: at, End: at}, Replacement: rendered}}, nil
}

// applyEdits sorts edits by descending Range.Start and applies them to
// content in place, clamping offsets to the buffer's current length so an
// out-of-range edit never panics (spec §4.6 invariant 4).
func applyEdits(content []byte, edits []types.TextEdit) string {
	sorted := append([]types.TextEdit(nil), edits...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Range.Start > sorted[j].Range.Start })

	buf := append([]byte(nil), content...)
	for _, e := range sorted {
		start := clamp(e.Range.Start, 0, len(buf))
		end := clamp(e.Range.End, 0, len(buf))
		if end < start {
			end = start
		}
		buf = append(buf[:start], append([]byte(e.Replacement), buf[end:]...)...)
	}
	return string(buf)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
