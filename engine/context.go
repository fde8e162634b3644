// Package engine schedules a built graph to completion: it tracks which
// nodes are pending, active, succeeded or failed, dispatches every node
// whose dependencies are satisfied, and propagates both successful bundle
// results and upstream failures until the graph is fully processed.
package engine

import (
	"fmt"

	"github.com/coreflow/coreflow/graph"
	"github.com/coreflow/coreflow/jobresult"
	"github.com/coreflow/coreflow/resolve"
)

// Node is the scheduler's view of one graph node: its static definition,
// resolved function, and execution outcome once it runs.
type Node struct {
	Def          *graph.Node
	Dependencies map[graph.NodeID]graph.DependencyType
	Function     resolve.NodeFunction
	Complete     bool
	Result       any
	Err          error
}

// Context is the scheduler's live state for one job's graph. Its state
// sets are replaced on every update (copy-on-write); the Nodes map is
// shared between successive Contexts (see clone). All updates happen on
// the single dispatcher goroutine.
type Context struct {
	Nodes     map[graph.NodeID]*Node
	Pending   map[graph.NodeID]bool
	Active    map[graph.NodeID]bool
	Succeeded map[graph.NodeID]bool
	Failed    map[graph.NodeID]bool
}

// NewContext resolves every node in g against resolver and returns a fresh
// context with every node pending.
func NewContext(g *graph.Graph, resolver *resolve.Resolver) (*Context, error) {
	nodes := make(map[graph.NodeID]*Node, len(g.Nodes))
	pending := make(map[graph.NodeID]bool, len(g.Nodes))

	for id, n := range g.Nodes {
		fn, err := resolver.Resolve(n)
		if err != nil {
			return nil, err
		}
		nodes[id] = &Node{Def: n, Dependencies: n.Dependencies, Function: fn}
		pending[id] = true
	}

	return &Context{
		Nodes:     nodes,
		Pending:   pending,
		Active:    make(map[graph.NodeID]bool),
		Succeeded: make(map[graph.NodeID]bool),
		Failed:    make(map[graph.NodeID]bool),
	}, nil
}

// clone makes a shallow copy of the set fields. Nodes itself is shared:
// complete (applyOne) replaces a finished node's *Node rather than
// mutating it, but writes the replacement into the shared map, so every
// Context sharing that map sees it.
func (c *Context) clone() *Context {
	return &Context{
		Nodes:     c.Nodes,
		Pending:   cloneSet(c.Pending),
		Active:    cloneSet(c.Active),
		Succeeded: cloneSet(c.Succeeded),
		Failed:    cloneSet(c.Failed),
	}
}

func cloneSet(s map[graph.NodeID]bool) map[graph.NodeID]bool {
	out := make(map[graph.NodeID]bool, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// isViable reports whether every dependency of node has reached a state
// that satisfies it: succeeded outright, or failed while the dependency is
// tolerant.
func isViable(node *Node, c *Context) bool {
	for dep, typ := range node.Dependencies {
		if c.Succeeded[dep] {
			continue
		}
		if typ.Tolerant && c.Failed[dep] {
			continue
		}
		return false
	}
	return true
}

// upstreamFailure reports whether node depends, non-tolerantly, on a node
// that has already failed; such a node is skipped without ever running.
func upstreamFailure(node *Node, c *Context) bool {
	for dep, typ := range node.Dependencies {
		if !typ.Tolerant && c.Failed[dep] {
			return true
		}
	}
	return false
}

// advance moves every currently-viable pending node to active and every
// node with a failed non-tolerant dependency straight to failed, repeating
// until a fixed point, matching the propagate-as-far-as-possible loop
// before any node is actually dispatched. It returns the updated context
// and the set of node ids that just became viable and need a NodeProcessor.
func (c *Context) advance() (*Context, []graph.NodeID) {
	next := c.clone()
	var viable []graph.NodeID

	for {
		progressed := false

		for id := range next.Pending {
			node := next.Nodes[id]

			if upstreamFailure(node, next) {
				delete(next.Pending, id)
				next.Failed[id] = true
				progressed = true
				continue
			}
		}

		for id := range next.Pending {
			node := next.Nodes[id]
			if isViable(node, next) {
				delete(next.Pending, id)
				next.Active[id] = true
				viable = append(viable, id)
			}
		}

		if !progressed {
			break
		}
	}

	return next, viable
}

// complete records a node's outcome (success or failure). When a
// bundle-result node succeeds with a map[string]any result, each of its
// known BundleChildren is also marked succeeded with the matching map
// entry, so they are never separately scheduled. A failed bundle-result
// node leaves its children as they are.
func (c *Context) complete(id graph.NodeID, result any, err error) *Context {
	next := c.clone()

	applyOne := func(nid graph.NodeID, res any, e error) {
		old := next.Nodes[nid]
		if e == nil {
			if kindErr := checkResultKind(nid.ResultKind, res); kindErr != nil {
				e = kindErr
			}
		}
		updated := &Node{Def: old.Def, Dependencies: old.Dependencies, Function: old.Function, Complete: true, Result: res, Err: e}
		next.Nodes[nid] = updated

		if next.Active[nid] {
			delete(next.Active, nid)
		} else {
			delete(next.Pending, nid)
		}

		if e != nil {
			next.Failed[nid] = true
		} else {
			next.Succeeded[nid] = true
		}
	}

	applyOne(id, result, err)

	node := next.Nodes[id]
	if err == nil && node.Def.BundleResult {
		if bundle, ok := result.(map[string]any); ok {
			for _, childID := range node.Def.BundleChildren {
				if _, known := next.Nodes[childID]; known {
					applyOne(childID, bundle[childID.Name], nil)
				}
			}
		}
	}

	return next
}

// Done reports whether the graph has no more active or pending work.
func (c *Context) Done() bool {
	return len(c.Active) == 0 && len(c.Pending) == 0
}

// Deadlocked reports whether processing stopped with pending work that
// never became viable or failed: a cyclic dependency slipped past graph
// validation.
func (c *Context) Deadlocked() bool {
	return len(c.Active) == 0 && len(c.Pending) > 0
}

// Errors collects the errors of every failed node that actually ran (as
// opposed to being skipped for an upstream failure with no error of its
// own).
func (c *Context) Errors() []error {
	var errs []error
	for id := range c.Failed {
		if err := c.Nodes[id].Err; err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Result returns the recorded result of id, matching the NodeContext a
// node function sees during evaluation.
func (c *Context) Result(id graph.NodeID) (any, error) {
	n, ok := c.Nodes[id]
	if !ok || !n.Complete {
		return nil, errNodeNotAvailable(id)
	}
	if n.Err != nil {
		return nil, n.Err
	}
	return n.Result, nil
}

// JobResult locates the graph's single BuildJobResult node and returns its
// assembled jobresult.Result. It scans by kind rather than by
// reconstructing the node's id, since a NodeID built outside the original
// graphbuild call carries a different *Namespace pointer and would never
// compare equal as a map key.
func (c *Context) JobResult() (jobresult.Result, error) {
	for id, n := range c.Nodes {
		if n.Def.Kind != graph.KindBuildJobResult {
			continue
		}
		if !n.Complete {
			return jobresult.Result{}, errNodeNotAvailable(id)
		}
		if n.Err != nil {
			return jobresult.Result{}, n.Err
		}
		result, ok := n.Result.(jobresult.Result)
		if !ok {
			return jobresult.Result{}, fmt.Errorf("engine: build-result node %s did not produce a jobresult.Result", id)
		}
		return result, nil
	}
	return jobresult.Result{}, fmt.Errorf("engine: graph has no BuildJobResult node")
}
