package types

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/xerrors"
)

// -----------------------------------------------------------------------------
// CRDTOperationsMessage

// String returns a short description of the change-set.
func (c CRDTOperationsMessage) String() string {
	return fmt.Sprintf("crdtoperations{%d operations}", len(c.Operations))
}

// -----------------------------------------------------------------------------
// CRDTOperation

// ID returns the unique identifier of the operation, "OperationId@Origin".
func (o CRDTOperation) ID() string {
	return OperationID(o.OperationId, o.Origin)
}

// OperationID formats the identifier of an operation.
func OperationID(opID uint64, origin string) string {
	return strconv.FormatUint(opID, 10) + "@" + origin
}

// ParseOperationID splits "OperationId@Origin".
func ParseOperationID(id string) (uint64, string, error) {
	idx := strings.Index(id, "@")
	if idx <= 0 || idx == len(id)-1 {
		return 0, "", xerrors.Errorf("malformed operation id %q", id)
	}
	opID, err := strconv.ParseUint(id[:idx], 10, 64)
	if err != nil {
		return 0, "", xerrors.Errorf("malformed operation id %q: %w", id, err)
	}
	return opID, id[idx+1:], nil
}

// Validate checks that the operation is well formed: identified, typed,
// carrying a payload that matches its type, and referencing elements by
// well-formed ids.
func (o CRDTOperation) Validate() error {
	if o.Origin == "" {
		return xerrors.New("operation without origin")
	}
	if o.OperationId == 0 {
		return xerrors.Errorf("operation from %s without id", o.Origin)
	}

	switch o.Type {
	case CRDTAddBlockType, CRDTRemoveBlockType, CRDTInsertCharType, CRDTDeleteCharType:
	default:
		return xerrors.Errorf("operation %s has unknown type %q", o.ID(), o.Type)
	}
	if o.Operation == nil || o.Operation.Name() != o.Type {
		return xerrors.Errorf("operation %s of type %q carries %T", o.ID(), o.Type, o.Operation)
	}

	var refs []string
	switch op := o.Operation.(type) {
	case CRDTAddBlock:
		if o.BlockId != o.ID() {
			return xerrors.Errorf("operation %s creates block %q", o.ID(), o.BlockId)
		}
		refs = []string{op.AfterBlock}
	case CRDTRemoveBlock:
		if op.RemovedBlock == "" {
			return xerrors.Errorf("operation %s removes no block", o.ID())
		}
		refs = []string{op.RemovedBlock}
	case CRDTInsertChar:
		refs = []string{o.BlockId, op.AfterID}
		if o.BlockId == "" {
			return xerrors.Errorf("operation %s without block", o.ID())
		}
	case CRDTDeleteChar:
		if o.BlockId == "" || op.RemovedID == "" {
			return xerrors.Errorf("operation %s without block or removed character", o.ID())
		}
		refs = []string{o.BlockId, op.RemovedID}
	}

	// empty references point at the beginning of the document or block
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if _, _, err := ParseOperationID(ref); err != nil {
			return xerrors.Errorf("operation %s: %w", o.ID(), err)
		}
	}
	return nil
}
