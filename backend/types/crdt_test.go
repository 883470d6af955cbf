package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_CRDT_OperationID(t *testing.T) {
	id := OperationID(12, "127.0.0.1:3000")
	require.Equal(t, "12@127.0.0.1:3000", id)

	opID, origin, err := ParseOperationID(id)
	require.NoError(t, err)
	require.Equal(t, uint64(12), opID)
	require.Equal(t, "127.0.0.1:3000", origin)

	for _, bad := range []string{"", "12", "@alice", "12@", "x@alice"} {
		_, _, err := ParseOperationID(bad)
		require.Error(t, err, bad)
	}
}

func Test_CRDT_Validate(t *testing.T) {
	valid := []CRDTOperation{
		{Type: CRDTAddBlockType, Origin: "alice", OperationId: 1, BlockId: "1@alice",
			Operation: CRDTAddBlock{}},
		{Type: CRDTAddBlockType, Origin: "alice", OperationId: 2, BlockId: "2@alice",
			Operation: CRDTAddBlock{AfterBlock: "1@alice"}},
		{Type: CRDTInsertCharType, Origin: "bob", OperationId: 1, BlockId: "1@alice",
			Operation: CRDTInsertChar{Character: "a"}},
		{Type: CRDTInsertCharType, Origin: "bob", OperationId: 2, BlockId: "1@alice",
			Operation: CRDTInsertChar{AfterID: "1@bob", Character: "b"}},
		{Type: CRDTDeleteCharType, Origin: "bob", OperationId: 3, BlockId: "1@alice",
			Operation: CRDTDeleteChar{RemovedID: "1@bob"}},
		{Type: CRDTRemoveBlockType, Origin: "bob", OperationId: 4, BlockId: "2@alice",
			Operation: CRDTRemoveBlock{RemovedBlock: "2@alice"}},
	}
	for _, op := range valid {
		require.NoError(t, op.Validate(), op.ID())
	}

	invalid := []CRDTOperation{
		// payload of another type
		{Type: CRDTRemoveBlockType, Origin: "bob", OperationId: 1, Operation: CRDTDeleteChar{RemovedID: "1@bob"}},
		// block named after another operation
		{Type: CRDTAddBlockType, Origin: "alice", OperationId: 1, BlockId: "7@alice", Operation: CRDTAddBlock{}},
		// malformed anchors
		{Type: CRDTAddBlockType, Origin: "alice", OperationId: 1, BlockId: "1@alice",
			Operation: CRDTAddBlock{AfterBlock: "block-0"}},
		{Type: CRDTInsertCharType, Origin: "bob", OperationId: 1, BlockId: "main",
			Operation: CRDTInsertChar{Character: "a"}},
		{Type: CRDTDeleteCharType, Origin: "bob", OperationId: 3, BlockId: "1@alice",
			Operation: CRDTDeleteChar{RemovedID: "bob"}},
		{Type: CRDTRemoveBlockType, Origin: "bob", OperationId: 4, Operation: CRDTRemoveBlock{}},
	}
	for _, op := range invalid {
		require.Error(t, op.Validate(), op.ID())
	}
}

func Test_CRDT_Payload_Names(t *testing.T) {
	require.Equal(t, CRDTAddBlockType, CRDTAddBlock{}.Name())
	require.Equal(t, CRDTRemoveBlockType, CRDTRemoveBlock{}.Name())
	require.Equal(t, CRDTInsertCharType, CRDTInsertChar{}.Name())
	require.Equal(t, CRDTDeleteCharType, CRDTDeleteChar{}.Name())
}
