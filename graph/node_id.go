package graph

import "fmt"

// ResultKind tags the shape of the value a node produces. The engine uses it
// for a cheap runtime type check instead of a general reflective type
// system: every producer declares one, and the engine checks the produced
// value against it once, when the node completes. NodeContext lookups
// return that already-checked value without checking it again.
type ResultKind int

const (
	ResultAny ResultKind = iota
	ResultValue
	ResultDataSpec
	ResultDataView
	ResultDataItem
	ResultDataResult
	ResultModelDef
	ResultModelClass
	ResultViewBundle
	ResultObjectBundle
	ResultJobResult
	ResultNone
)

func (k ResultKind) String() string {
	switch k {
	case ResultValue:
		return "Value"
	case ResultDataSpec:
		return "DataSpec"
	case ResultDataView:
		return "DataView"
	case ResultDataItem:
		return "DataItem"
	case ResultDataResult:
		return "DataResult"
	case ResultModelDef:
		return "ModelDef"
	case ResultModelClass:
		return "ModelClass"
	case ResultViewBundle:
		return "ViewBundle"
	case ResultObjectBundle:
		return "ObjectBundle"
	case ResultJobResult:
		return "JobResult"
	case ResultNone:
		return "None"
	default:
		return "Any"
	}
}

// NodeID identifies a node by name and namespace. ResultKind is descriptive
// metadata used for runtime type checks; it does not participate in
// equality, matching the identity rule every consumer relies on.
type NodeID struct {
	Name       string
	Namespace  *Namespace
	ResultKind ResultKind
}

// NewNodeID builds a NodeID with the given result kind.
func NewNodeID(name string, ns *Namespace, kind ResultKind) NodeID {
	return NodeID{Name: name, Namespace: ns, ResultKind: kind}
}

// Equal compares two ids on (Name, Namespace) only.
func (id NodeID) Equal(other NodeID) bool {
	return id.Name == other.Name && id.Namespace.Equal(other.Namespace)
}

// Key returns a value usable as a map key; NodeID already is comparable via
// its Namespace pointer chain in most call sites, but Key gives callers a
// string form for logging and for maps keyed across different *Namespace
// instances that denote the same scope.
func (id NodeID) Key() string {
	return fmt.Sprintf("%s::%s", id.Namespace.String(), id.Name)
}

func (id NodeID) String() string {
	if id.Namespace == nil || id.Namespace.Name == "" {
		return id.Name
	}
	return id.Namespace.String() + "/" + id.Name
}
