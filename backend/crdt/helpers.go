package crdt

import (
	"docset/backend/types"
)

// InsertText returns the operations typing text into a block, the first
// character anchored after afterID and the others chained behind it. Ids are
// taken from start on.
func InsertText(text, origin, docID, blockID, afterID string, start uint64) []types.CRDTOperation {
	ops := make([]types.CRDTOperation, 0, len(text))
	anchor := afterID
	id := start
	for _, char := range text {
		ops = append(ops, types.CRDTOperation{
			Type:        types.CRDTInsertCharType,
			Origin:      origin,
			OperationId: id,
			DocumentId:  docID,
			BlockId:     blockID,
			Operation: types.CRDTInsertChar{
				AfterID:   anchor,
				Character: string(char),
			},
		})
		anchor = types.OperationID(id, origin)
		id++
	}
	return ops
}

// AddBlock returns the operation creating a block after afterBlock. The block
// is named after the operation.
func AddBlock(origin, docID, afterBlock string, opID uint64) types.CRDTOperation {
	return types.CRDTOperation{
		Type:        types.CRDTAddBlockType,
		Origin:      origin,
		OperationId: opID,
		DocumentId:  docID,
		BlockId:     types.OperationID(opID, origin),
		Operation: types.CRDTAddBlock{
			AfterBlock: afterBlock,
		},
	}
}
