package graph

import "fmt"

// Node is an immutable record describing one unit of work. Every node has
// exactly one of the Kind-specific payload structs set in Payload; callers
// type-assert on Kind to recover it.
type Node struct {
	ID           NodeID
	Kind         Kind
	Dependencies map[NodeID]DependencyType
	Payload      any

	// BundleResult, when true, means the node's result is a map[string]any
	// whose entries must also be exposed as the BundleItem children listed
	// in BundleChildren. BundleNamespace scopes those children's names.
	BundleResult    bool
	BundleNamespace *Namespace
	BundleChildren  []NodeID
}

// NewNode constructs a node with an empty dependency map ready for Depend
// calls.
func NewNode(id NodeID, kind Kind, payload any) *Node {
	return &Node{
		ID:           id,
		Kind:         kind,
		Dependencies: make(map[NodeID]DependencyType),
		Payload:      payload,
	}
}

// Depend records a dependency edge from n to dep with the given type and
// returns n for chaining.
func (n *Node) Depend(dep NodeID, typ DependencyType) *Node {
	n.Dependencies[dep] = typ
	return n
}

// Graph is an acyclic collection of nodes reachable from a single root.
// Every NodeID referenced as a dependency anywhere in Nodes must itself be
// a key of Nodes; the builder guarantees this before returning a Graph.
type Graph struct {
	Nodes  map[NodeID]*Node
	RootID NodeID
}

// NewGraph creates an empty graph with the given root id. The root node
// itself must still be added via Add before the graph is considered valid.
func NewGraph(root NodeID) *Graph {
	return &Graph{Nodes: make(map[NodeID]*Node), RootID: root}
}

// Add inserts a node into the graph, keyed by its own id.
func (g *Graph) Add(n *Node) {
	g.Nodes[n.ID] = n
}

// Get looks up a node by id.
func (g *Graph) Get(id NodeID) (*Node, bool) {
	n, ok := g.Nodes[id]
	return n, ok
}

// Validate checks the two structural invariants every built graph must
// satisfy: every dependency resolves to a node that exists, and the graph
// contains no cycle.
func (g *Graph) Validate() error {
	for id, n := range g.Nodes {
		for dep := range n.Dependencies {
			if _, ok := g.Nodes[dep]; !ok {
				return fmt.Errorf("graph: node %s depends on missing node %s", id, dep)
			}
		}
	}
	if _, ok := g.Nodes[g.RootID]; !ok {
		return fmt.Errorf("graph: root node %s not present", g.RootID)
	}
	return g.checkAcyclic()
}

func (g *Graph) checkAcyclic() error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[NodeID]int, len(g.Nodes))
	var visit func(id NodeID) error
	visit = func(id NodeID) error {
		switch color[id] {
		case black:
			return nil
		case gray:
			return fmt.Errorf("graph: cycle detected at node %s", id)
		}
		color[id] = gray
		n := g.Nodes[id]
		for dep := range n.Dependencies {
			if err := visit(dep); err != nil {
				return err
			}
		}
		color[id] = black
		return nil
	}
	for id := range g.Nodes {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}

// TopoOrder returns the nodes in a dependency-respecting order. Used by
// tests and diagnostics; the scheduler itself does not need a global order,
// it discovers viable nodes incrementally.
func (g *Graph) TopoOrder() ([]NodeID, error) {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[NodeID]int, len(g.Nodes))
	var order []NodeID
	var visit func(id NodeID) error
	visit = func(id NodeID) error {
		switch color[id] {
		case black:
			return nil
		case gray:
			return fmt.Errorf("graph: cycle detected at node %s", id)
		}
		color[id] = gray
		n, ok := g.Nodes[id]
		if !ok {
			return fmt.Errorf("graph: missing node %s", id)
		}
		for dep := range n.Dependencies {
			if err := visit(dep); err != nil {
				return err
			}
		}
		color[id] = black
		order = append(order, id)
		return nil
	}
	for id := range g.Nodes {
		if err := visit(id); err != nil {
			return nil, err
		}
	}
	return order, nil
}
