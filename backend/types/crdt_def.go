package types

// CRDTOperationsMessage describes a change-set: a list of CRDT operations
// produced by one or more actors.
type CRDTOperationsMessage struct {
	Operations []CRDTOperation
}

// CRDTOp is the payload of a CRDT operation. Name returns the operation type
// the payload belongs to.
type CRDTOp interface {
	Name() string
}

// Operation type names carried in CRDTOperation.Type.
const (
	CRDTAddBlockType    = "add_block"
	CRDTRemoveBlockType = "remove_block"
	CRDTInsertCharType  = "insert_char"
	CRDTDeleteCharType  = "delete_char"
)

// -------------------------------------------------------------------
// CRDT Operation Types

type CRDTOperation struct {
	Type string

	Origin      string
	OperationId uint64 // Starts from 1
	DocumentId  string
	BlockId     string // OperationId@Origin that creates the block
	Operation   CRDTOp
}

// CRDTAddBlock implements CRDTOp.
type CRDTAddBlock struct {
	AfterBlock string
}

func (op CRDTAddBlock) Name() string {
	return CRDTAddBlockType
}

// CRDTRemoveBlock implements CRDTOp.
type CRDTRemoveBlock struct {
	RemovedBlock string
}

func (op CRDTRemoveBlock) Name() string {
	return CRDTRemoveBlockType
}

// CRDTInsertChar implements CRDTOp.
type CRDTInsertChar struct {
	AfterID   string
	Character string
}

func (op CRDTInsertChar) Name() string {
	return CRDTInsertCharType
}

// CRDTDeleteChar implements CRDTOp.
type CRDTDeleteChar struct {
	RemovedID string
}

func (op CRDTDeleteChar) Name() string {
	return CRDTDeleteCharType
}
