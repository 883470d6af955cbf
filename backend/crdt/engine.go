package crdt

import (
	"sort"
	"strings"

	"docset/backend/types"

	"golang.org/x/xerrors"
)

// ErrInvalidOperation is returned for change-sets the engine cannot apply.
var ErrInvalidOperation = xerrors.New("invalid crdt operation")

// Doc is an immutable operation log. Every change produces a new Doc.
type Doc struct {
	ActorID string

	// InitVersion is the version the document was initialised at. It is not
	// updated by later changes: the snapshot holding the document carries
	// the current version.
	InitVersion types.Version

	ops   map[string]types.CRDTOperation // OperationId@Origin -> op
	order []string                       // op ids in arrival order
}

// Len returns the number of operations of the document.
func (d *Doc) Len() int {
	return len(d.order)
}

// Has tells if the operation with the given id was applied.
func (d *Doc) Has(opID string) bool {
	_, exists := d.ops[opID]
	return exists
}

// Operations returns the operations in arrival order.
func (d *Doc) Operations() []types.CRDTOperation {
	ops := make([]types.CRDTOperation, len(d.order))
	for i, id := range d.order {
		ops[i] = d.ops[id]
	}
	return ops
}

func (d *Doc) clone() *Doc {
	c := &Doc{
		ActorID:     d.ActorID,
		InitVersion: d.InitVersion,
		ops:         make(map[string]types.CRDTOperation, len(d.ops)),
		order:       make([]string, len(d.order)),
	}
	for k, v := range d.ops {
		c.ops[k] = v
	}
	copy(c.order, d.order)
	return c
}

// Engine merges CRDT operation logs. It is stateless.
//
// - implements docset.MergeEngine
type Engine struct{}

// NewEngine returns a merge engine over operation logs.
func NewEngine() Engine {
	return Engine{}
}

// Init returns an empty document owned by actor.
func (Engine) Init(actor string, version types.Version) types.Document {
	var v types.Version
	if version != nil {
		v = version.Copy()
	}
	return &Doc{
		ActorID:     actor,
		InitVersion: v,
		ops:         make(map[string]types.CRDTOperation),
		order:       make([]string, 0),
	}
}

// ApplyChanges returns a new document holding the operations of doc plus the
// ones of changes. Operations already present are skipped, so applying the
// same change-set twice is harmless. Nothing is applied if one operation is
// invalid. The log treats local and remote changes alike.
func (Engine) ApplyChanges(doc types.Document, changes types.Changes, local bool) (types.Document, error) {
	d, ok := doc.(*Doc)
	if !ok || d == nil {
		return nil, xerrors.Errorf("document of type %T: %w", doc, ErrInvalidOperation)
	}

	ops, err := operations(changes)
	if err != nil {
		return nil, err
	}
	for _, op := range ops {
		if err := op.Validate(); err != nil {
			return nil, xerrors.Errorf("%v: %w", err, ErrInvalidOperation)
		}
	}

	next := d.clone()
	for _, op := range ops {
		id := op.ID()
		if _, exists := next.ops[id]; exists {
			continue
		}
		next.ops[id] = op
		next.order = append(next.order, id)
	}
	return next, nil
}

func operations(changes types.Changes) ([]types.CRDTOperation, error) {
	switch c := changes.(type) {
	case types.CRDTOperationsMessage:
		return c.Operations, nil
	case *types.CRDTOperationsMessage:
		if c == nil {
			return nil, nil
		}
		return c.Operations, nil
	case []types.CRDTOperation:
		return c, nil
	default:
		return nil, xerrors.Errorf("change-set of type %T: %w", changes, ErrInvalidOperation)
	}
}

// Blocks returns the live blocks of the document in display order.
func (d *Doc) Blocks() []string {
	after := make(map[string][]types.CRDTOperation)
	removed := make(map[string]struct{})

	for _, id := range d.order {
		op := d.ops[id]
		switch o := op.Operation.(type) {
		case types.CRDTAddBlock:
			after[o.AfterBlock] = append(after[o.AfterBlock], op)
		case types.CRDTRemoveBlock:
			removed[o.RemovedBlock] = struct{}{}
		}
	}

	var blocks []string
	walk(after, "", func(op types.CRDTOperation) {
		if _, gone := removed[op.BlockId]; !gone {
			blocks = append(blocks, op.BlockId)
		}
	}, func(op types.CRDTOperation) string { return op.BlockId })
	return blocks
}

// Text returns the visible characters of a block.
func (d *Doc) Text(blockID string) string {
	after := make(map[string][]types.CRDTOperation)
	deleted := make(map[string]struct{})

	for _, id := range d.order {
		op := d.ops[id]
		if op.BlockId != blockID {
			continue
		}
		switch o := op.Operation.(type) {
		case types.CRDTInsertChar:
			after[o.AfterID] = append(after[o.AfterID], op)
		case types.CRDTDeleteChar:
			deleted[o.RemovedID] = struct{}{}
		}
	}

	var sb strings.Builder
	walk(after, "", func(op types.CRDTOperation) {
		if _, gone := deleted[op.ID()]; !gone {
			sb.WriteString(op.Operation.(types.CRDTInsertChar).Character)
		}
	}, types.CRDTOperation.ID)
	return sb.String()
}

// String returns the text of every live block, one per line.
func (d *Doc) String() string {
	blocks := d.Blocks()
	lines := make([]string, len(blocks))
	for i, b := range blocks {
		lines[i] = d.Text(b)
	}
	return strings.Join(lines, "\n")
}

// walk visits the tree of elements anchored after each other in RGA order:
// siblings anchored on the same element are visited newest first, ties broken
// by origin.
func walk(after map[string][]types.CRDTOperation, anchor string, visit func(types.CRDTOperation), key func(types.CRDTOperation) string) {
	visitTree(after, anchor, visit, key, make(map[string]struct{}))
}

func visitTree(after map[string][]types.CRDTOperation, anchor string, visit func(types.CRDTOperation),
	key func(types.CRDTOperation) string, seen map[string]struct{}) {

	if _, done := seen[anchor]; done {
		return
	}
	seen[anchor] = struct{}{}

	children := after[anchor]
	sort.Slice(children, func(i, j int) bool {
		if children[i].OperationId != children[j].OperationId {
			return children[i].OperationId > children[j].OperationId
		}
		return children[i].Origin > children[j].Origin
	})
	for _, child := range children {
		if _, done := seen[key(child)]; done {
			continue
		}
		visit(child)
		visitTree(after, key(child), visit, key, seen)
	}
}
