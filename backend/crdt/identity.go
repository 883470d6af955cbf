package crdt

import (
	"docset/backend/docset"

	"github.com/google/uuid"
	"github.com/rs/xid"
	"golang.org/x/xerrors"
)

var (
	_ docset.MergeEngine       = Engine{}
	_ docset.IdentityGenerator = XIDGenerator{}
	_ docset.IdentityGenerator = UUIDGenerator{}
)

// XIDGenerator draws actor identities from xids.
//
// - implements docset.IdentityGenerator
type XIDGenerator struct{}

// NewActorID implements docset.IdentityGenerator
func (XIDGenerator) NewActorID() string {
	return xid.New().String()
}

// UUIDGenerator draws actor identities from random UUIDs.
//
// - implements docset.IdentityGenerator
type UUIDGenerator struct{}

// NewActorID implements docset.IdentityGenerator
func (UUIDGenerator) NewActorID() string {
	return uuid.New().String()
}

// IdentityByName returns the generator registered under name. The empty name
// selects xid.
func IdentityByName(name string) (docset.IdentityGenerator, error) {
	switch name {
	case "", "xid":
		return XIDGenerator{}, nil
	case "uuid":
		return UUIDGenerator{}, nil
	default:
		return nil, xerrors.Errorf("unknown identity generator %q", name)
	}
}
