package types

// PropagationScope controls how far a RenameSymbol operation reaches.
type PropagationScope string

const (
	PropagationDefinitionOnly PropagationScope = "definition-only"
	PropagationFile           PropagationScope = "file"
)

// Placement controls where InsertAttributes (and some MoveBlock
// destinations) land relative to a symbol.
type Placement string

const (
	PlacementBefore    Placement = "before"
	PlacementAfter     Placement = "after"
	PlacementBodyStart Placement = "body-start"
)

// TemplateMode controls where TemplateEmit renders its output.
type TemplateMode string

const (
	TemplateFileStart    TemplateMode = "file-start"
	TemplateFileEnd      TemplateMode = "file-end"
	TemplateBeforeSymbol TemplateMode = "before-symbol"
	TemplateAfterSymbol  TemplateMode = "after-symbol"
	TemplateBodyStart    TemplateMode = "body-start"
	TemplateBodyEnd      TemplateMode = "body-end"
)

// MoveDestination describes where MoveBlock relocates a block to. A nil
// destination, or one whose Position is MoveDelete, erases the block.
type MoveDestination struct {
	TargetSymbol SymbolPath
	Position     MovePosition
}

type MovePosition string

const (
	MoveBefore MovePosition = "before"
	MoveAfter  MovePosition = "after"
	MoveReplace MovePosition = "replace"
	MoveIntoBody MovePosition = "into-body"
	MoveDelete  MovePosition = "delete"
)

// AstOperationSpec is the tagged sum of every structured edit the engine
// supports (spec section 3). Exactly one of the Op* fields is non-nil;
// Kind names which one.
type AstOperationSpec struct {
	Kind AstOperationKind

	RenameSymbol    *RenameSymbolOp
	UpdateSignature *UpdateSignatureOp
	MoveBlock       *MoveBlockOp
	UpdateImports   *UpdateImportsOp
	InsertAttributes *InsertAttributesOp
	TemplateEmit    *TemplateEmitOp
}

type AstOperationKind string

const (
	OpRenameSymbol     AstOperationKind = "rename_symbol"
	OpUpdateSignature  AstOperationKind = "update_signature"
	OpMoveBlock        AstOperationKind = "move_block"
	OpUpdateImports    AstOperationKind = "update_imports"
	OpInsertAttributes AstOperationKind = "insert_attributes"
	OpTemplateEmit     AstOperationKind = "template_emit"
)

type RenameSymbolOp struct {
	Symbol      SymbolPath
	NewName     string
	Propagate   PropagationScope
}

type UpdateSignatureOp struct {
	Symbol        SymbolPath
	NewSignature  string
}

type MoveBlockOp struct {
	Symbol      SymbolPath
	Destination *MoveDestination
}

type UpdateImportsOp struct {
	Add    []string
	Remove []string
}

type InsertAttributesOp struct {
	Symbol    SymbolPath
	Attributes []string
	Placement Placement
}

type TemplateEmitOp struct {
	Symbol   SymbolPath // optional anchor for before/after-symbol modes
	Template string
	Mode     TemplateMode
}

// SymbolTarget is the result of resolving a SymbolPath against a parsed
// tree: byte ranges into the *original* source.
type SymbolTarget struct {
	HeaderRange ByteRange
	BodyRange   *ByteRange // nil when the symbol has no body (e.g. a constant)
	NameRange   ByteRange
	SymbolPath  SymbolPath
}

// TextEdit is a single replacement applied to a buffer. Edits are applied
// in descending Range.Start order so earlier edits never invalidate later
// offsets (spec section 4.6, invariant 4).
type TextEdit struct {
	Range       ByteRange
	Replacement string
}

// Diagnostic is a machine-parseable note attached to an AstEditPlan, such
// as a cyclomatic_hint.
type Diagnostic struct {
	Kind    string
	Message string
}

// AstEditPlan is the successful result of apply_ast_operation.
type AstEditPlan struct {
	NewContent  string
	Message     string
	Diagnostics []Diagnostic
	Preview     *string // unified diff, nil when identical
}
