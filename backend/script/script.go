// Package script replays YAML descriptions of change-sets through a DocSet.
//
// A script is a list of steps:
//
//	steps:
//	  - doc: d1
//	    action: apply
//	    version: "0"
//	    ops:
//	      - {type: add_block, origin: alice, id: 1}
//	      - {type: insert_text, origin: alice, id: 2, block: 1@alice, text: "Hi"}
//
// action is one of apply, set or snapshot. version is parsed by the
// configured scheme; an empty version means none.
package script

import (
	"os"

	"docset/backend/crdt"
	"docset/backend/docset"
	"docset/backend/types"

	"github.com/go-playground/validator/v10"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"
)

// Actions of a step.
const (
	ActionApply    = "apply"
	ActionSet      = "set"
	ActionSnapshot = "snapshot"
)

// Op type only known to scripts: a run of characters.
const insertTextType = "insert_text"

// Script is a list of steps replayed in order.
type Script struct {
	Steps []Step `yaml:"steps" validate:"dive"`
}

// Step is one call on the document set.
type Step struct {
	Doc     string `yaml:"doc" validate:"required"`
	Action  string `yaml:"action" validate:"required,oneof=apply set snapshot"`
	Version string `yaml:"version"`
	Ops     []Op   `yaml:"ops" validate:"dive"`
}

// Op describes one CRDT operation, or a run of inserts for insert_text.
type Op struct {
	Type    string `yaml:"type" validate:"required,oneof=add_block remove_block insert_char delete_char insert_text"`
	Origin  string `yaml:"origin" validate:"required"`
	ID      uint64 `yaml:"id" validate:"required"`
	Block   string `yaml:"block"`
	After   string `yaml:"after"`
	Char    string `yaml:"char"`
	Text    string `yaml:"text"`
	Removed string `yaml:"removed"`
}

var validate = validator.New()

// Load reads and validates a script file.
func Load(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, xerrors.Errorf("failed to read script: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a script.
func Parse(data []byte) (Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Script{}, xerrors.Errorf("failed to decode script: %w", err)
	}
	if err := validate.Struct(s); err != nil {
		return Script{}, xerrors.Errorf("invalid script: %w", err)
	}
	return s, nil
}

// Operations expands the ops of a step into CRDT operations.
func (s Step) Operations() []types.CRDTOperation {
	var ops []types.CRDTOperation
	for _, op := range s.Ops {
		base := types.CRDTOperation{
			Type:        op.Type,
			Origin:      op.Origin,
			OperationId: op.ID,
			DocumentId:  s.Doc,
			BlockId:     op.Block,
		}

		switch op.Type {
		case insertTextType:
			ops = append(ops, crdt.InsertText(op.Text, op.Origin, s.Doc, op.Block, op.After, op.ID)...)
			continue
		case types.CRDTAddBlockType:
			base.BlockId = types.OperationID(op.ID, op.Origin)
			base.Operation = types.CRDTAddBlock{AfterBlock: op.After}
		case types.CRDTRemoveBlockType:
			base.Operation = types.CRDTRemoveBlock{RemovedBlock: op.Removed}
		case types.CRDTInsertCharType:
			base.Operation = types.CRDTInsertChar{AfterID: op.After, Character: op.Char}
		case types.CRDTDeleteCharType:
			base.Operation = types.CRDTDeleteChar{RemovedID: op.Removed}
		}
		ops = append(ops, base)
	}
	return ops
}

// Result is the outcome of one step.
type Result struct {
	Step   int
	Doc    string
	Action string
	Text   string
	Err    error
}

// Runner replays scripts through a document set.
type Runner struct {
	DocSet docset.DocSet
	Scheme types.Scheme
	Engine crdt.Engine
	Actor  string
}

// Run replays every step, carrying on after failed ones.
func (r Runner) Run(s Script) []Result {
	results := make([]Result, len(s.Steps))
	for i, step := range s.Steps {
		res := Result{Step: i + 1, Doc: step.Doc, Action: step.Action}
		res.Text, res.Err = r.step(step)
		results[i] = res
	}
	return results
}

func (r Runner) step(step Step) (string, error) {
	var version types.Version
	if step.Version != "" {
		v, err := r.Scheme.Parse(step.Version)
		if err != nil {
			return "", err
		}
		version = v
	}

	changes := types.CRDTOperationsMessage{Operations: step.Operations()}

	switch step.Action {
	case ActionApply:
		doc, err := r.DocSet.ApplyChanges(step.Doc, changes, version)
		if err != nil {
			return "", err
		}
		return render(doc), nil

	default:
		doc, err := r.Engine.ApplyChanges(r.Engine.Init(r.Actor, version), changes, true)
		if err != nil {
			return "", err
		}
		if step.Action == ActionSet {
			err = r.DocSet.SetDoc(step.Doc, doc, version)
		} else {
			err = r.DocSet.CreateSnapshot(step.Doc, doc, version)
		}
		if err != nil {
			return "", err
		}
		return render(doc), nil
	}
}

func render(doc types.Document) string {
	if d, ok := doc.(*crdt.Doc); ok {
		return d.String()
	}
	return ""
}
