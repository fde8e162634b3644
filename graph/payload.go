package graph

// Payload structs carry the kind-specific data a node needs. Exactly one is
// set per node, matching the node's Kind; the function resolver type-asserts
// on Kind and expects the corresponding payload.

// StaticValuePayload carries a literal value decided at build time.
type StaticValuePayload struct {
	Value any
}

// IdentityPayload passes a source node's result through unchanged under a
// new NodeID. graphbuild emits no Identity nodes; its context-push/pop
// markers are KeyedItem nodes.
type IdentityPayload struct {
	Source NodeID
}

// KeyedItemPayload extracts a single named entry out of a map-shaped
// upstream result, e.g. one model output out of a RunModel result bundle.
type KeyedItemPayload struct {
	Source NodeID
	Key    string
}

// ContextPushPayload opens a nested namespace, remapping outer NodeIDs onto
// inner ones. Mapping keys are the inner (pushed) ids, values the outer ids
// they alias.
type ContextPushPayload struct {
	Namespace *Namespace
	Mapping   map[NodeID]NodeID
}

// ContextPopPayload closes a nested namespace, remapping inner NodeIDs back
// onto outer ones. Mapping keys are the outer ids, values the inner ids.
type ContextPopPayload struct {
	Namespace *Namespace
	Mapping   map[NodeID]NodeID
}

// DataViewPayload assembles a logical data view out of its schema and the
// id of the root data item (delta 0, part 0).
type DataViewPayload struct {
	Schema TableSchema
	Root   NodeID
}

// DataItemPayload extracts delta-0 of the part-root out of a data view.
type DataItemPayload struct {
	View NodeID
}

// DataSpec is the static description of where a table lives, carried as
// the value of a StaticValue or DynamicDataSpec node and consumed by the
// LoadData/SaveData functions.
type DataSpec struct {
	Schema     TableSchema
	Path       string
	Format     string
	StorageKey string
}

// LoadDataPayload loads a columnar item from storage per a data spec.
type LoadDataPayload struct {
	Spec NodeID
}

// SaveDataPayload persists an item to storage per a data spec and produces
// the resulting metadata bundle (storage id, data item id, schema).
type SaveDataPayload struct {
	Spec NodeID
	Item NodeID
}

// DynamicDataSpecPayload allocates a fresh storage location for an output
// whose spec was not supplied by the caller.
type DynamicDataSpecPayload struct {
	View           NodeID
	DataObjectID   string
	StorageKey     string
	PriorStorageID string
}

// ImportModelPayload resolves a model definition out of a repository
// checkout for the given model scope.
type ImportModelPayload struct {
	ModelScope string
	Import     ModelImport
}

// ModelImport describes where to fetch a model definition from.
type ModelImport struct {
	Language   string
	Repository string
	Path       string
	EntryPoint string
	Version    string
}

// RunModelPayload executes a model. ParamIDs/InputIDs are the upstream
// StaticValue/DataView nodes feeding the model's declared parameters and
// inputs, keyed by the name the model exposes them under.
type RunModelPayload struct {
	ModelScope string
	ModelDef   ModelDef
	ParamIDs   map[string]NodeID
	InputIDs   map[string]NodeID
}

// ModelDef is the declared shape of a model: its parameters, inputs and
// outputs, scanned once at import time.
type ModelDef struct {
	EntryPoint string
	Parameters map[string]ParamDef
	Inputs     map[string]IODef
	Outputs    map[string]IODef
}

// ParamDef declares one model parameter.
type ParamDef struct {
	Type     string
	Optional bool
}

// IODef declares one model input or output.
type IODef struct {
	Schema   TableSchema
	Optional bool
	Dynamic  bool
}

// BundleItemPayload marks a virtual child of a bundle-result node; it has
// no data of its own beyond which key of the parent's bundle it surfaces.
type BundleItemPayload struct {
	Parent NodeID
	Key    string
}

// BuildJobResultPayload aggregates per-output result bundles (and any
// runtime-discovered outputs) into the final job result object.
type BuildJobResultPayload struct {
	JobID      string
	ResultIDs  map[string]NodeID
	ExtraIDs   []NodeID
}

// SaveJobResultPayload writes the assembled job result to a directory in
// the requested format.
type SaveJobResultPayload struct {
	Result NodeID
	Dir    string
	Format string
}
