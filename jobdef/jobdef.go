// Package jobdef defines the job specification the core accepts as input:
// a parsed, in-memory structure describing what to compute. Parsing it out
// of a config file or RPC request is external to this module.
package jobdef

import "github.com/coreflow/coreflow/graph"

// JobType selects which builder path lowers the spec into a graph.
type JobType int

const (
	JobRunModel JobType = iota
	JobRunFlow
	JobImportModel
)

func (t JobType) String() string {
	switch t {
	case JobRunModel:
		return "RUN_MODEL"
	case JobRunFlow:
		return "RUN_FLOW"
	case JobImportModel:
		return "IMPORT_MODEL"
	default:
		return "UNKNOWN"
	}
}

// Selector identifies one versioned object in the job's object registry.
type Selector struct {
	ObjectType string `validate:"omitempty,oneof=MODEL FLOW DATA STORAGE"`
	ObjectID   string
	Version    int `validate:"gte=0"`
}

// Value is a typed parameter value decoded from the job spec.
type Value struct {
	Type  string
	Value any
}

// DataSelector names an input or output dataset, either by reference to a
// known data object or by an allocation request for a fresh one.
type DataSelector struct {
	// Selector references an existing DATA object when DynamicAlloc is false.
	Selector Selector
	// DynamicAlloc requests a fresh storage location be allocated by the
	// core instead of reusing a caller-supplied one.
	DynamicAlloc bool
	StorageKey   string
}

// Spec is the top-level job specification.
type Spec struct {
	JobID      string `validate:"required"`
	Type       JobType
	Target     Selector
	Parameters map[string]Value
	Inputs     map[string]DataSelector
	Outputs    map[string]DataSelector

	// Objects is the registry of referenced objects the builder resolves
	// selectors against: model/flow definitions, data definitions and
	// storage definitions, keyed by Selector.ObjectID.
	Objects map[string]Object `validate:"dive"`
}

// Object is one entry in a job's object registry.
type Object struct {
	Type     string `validate:"required,oneof=MODEL FLOW DATA STORAGE"` // "MODEL", "FLOW", "DATA", "STORAGE"
	ModelDef *graph.ModelDef
	FlowDef  *FlowDef
	DataDef  *DataDef
}

// DataDef is the metadata known ahead of time about a referenced dataset.
type DataDef struct {
	Schema     graph.TableSchema
	StorageKey string
	Path       string
	Format     string
}

// FlowDef describes a flow as a DAG of named model steps. Validate accepts
// a RUN_FLOW spec whose target is a FlowDef, but graphbuild.Build does not
// lower flows: it returns an error for the RUN_FLOW job type.
type FlowDef struct {
	Steps []FlowStep
}

// FlowStep is one node of a flow: a reference to a model plus how its
// inputs/outputs connect to the flow's own parameters/inputs/outputs or to
// other steps.
type FlowStep struct {
	Name       string
	Model      Selector
	InputFrom  map[string]string // step input name -> flow/step source name
	OutputTo   map[string]string // step output name -> flow/step sink name
}
