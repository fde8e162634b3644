package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreflow/coreflow/graph"
)

// noopNode builds a Node whose Function is never invoked; advance/complete
// are driven directly in these tests, so only Def and Dependencies matter.
func noopNode(id graph.NodeID, deps map[graph.NodeID]graph.DependencyType) *Node {
	def := graph.NewNode(id, graph.KindNoop, nil)
	for dep, typ := range deps {
		def.Depend(dep, typ)
	}
	return &Node{Def: def, Dependencies: def.Dependencies}
}

func newCtx(nodes ...*Node) *Context {
	ns := map[graph.NodeID]*Node{}
	pending := map[graph.NodeID]bool{}
	for _, n := range nodes {
		ns[n.Def.ID] = n
		pending[n.Def.ID] = true
	}
	return &Context{
		Nodes:     ns,
		Pending:   pending,
		Active:    map[graph.NodeID]bool{},
		Succeeded: map[graph.NodeID]bool{},
		Failed:    map[graph.NodeID]bool{},
	}
}

func TestContext_AdvanceMarksRootViableImmediately(t *testing.T) {
	ns := graph.RootNamespace("job")
	a := graph.NewNodeID("a", ns, graph.ResultNone)

	c := newCtx(noopNode(a, nil))

	next, viable := c.advance()
	assert.Equal(t, []graph.NodeID{a}, viable)
	assert.True(t, next.Active[a])
	assert.False(t, next.Pending[a])
}

// Scenario 4 (spec §8): a HARD dependent of a failed node is marked failed
// without ever becoming active, i.e. without ever executing.
func TestContext_HardDependencyFailsDependentWithoutExecution(t *testing.T) {
	ns := graph.RootNamespace("job")
	a := graph.NewNodeID("a", ns, graph.ResultNone)
	b := graph.NewNodeID("b", ns, graph.ResultNone)

	c := newCtx(
		noopNode(a, nil),
		noopNode(b, map[graph.NodeID]graph.DependencyType{a: graph.DepHard}),
	)

	// a becomes active and then fails.
	c, viable := c.advance()
	require.Equal(t, []graph.NodeID{a}, viable)
	c = c.complete(a, nil, assert.AnError)
	require.True(t, c.Failed[a])

	// b must never appear in Active; it goes straight from pending to failed.
	next, viable := c.advance()
	assert.Empty(t, viable)
	assert.True(t, next.Failed[b])
	assert.False(t, next.Active[b])
	assert.False(t, next.Pending[b])
}

// TOLERANT dependents proceed despite an upstream failure (spec §8
// invariant 5 / §4.4 propagation policy).
func TestContext_TolerantDependencyProceedsDespiteFailure(t *testing.T) {
	ns := graph.RootNamespace("job")
	a := graph.NewNodeID("a", ns, graph.ResultNone)
	b := graph.NewNodeID("b", ns, graph.ResultNone)

	c := newCtx(
		noopNode(a, nil),
		noopNode(b, map[graph.NodeID]graph.DependencyType{a: graph.DepTolerant}),
	)

	c, _ = c.advance()
	c = c.complete(a, nil, assert.AnError)

	next, viable := c.advance()
	assert.Equal(t, []graph.NodeID{b}, viable)
	assert.True(t, next.Active[b])
	assert.False(t, next.Failed[b])
}

// Scenario 6 (spec §8): a cyclic pair of pending nodes never becomes
// viable and never fails; the graph is reported deadlocked.
func TestContext_CyclicDependencyDeadlocks(t *testing.T) {
	ns := graph.RootNamespace("job")
	a := graph.NewNodeID("a", ns, graph.ResultNone)
	b := graph.NewNodeID("b", ns, graph.ResultNone)

	c := newCtx(
		noopNode(a, map[graph.NodeID]graph.DependencyType{b: graph.DepHard}),
		noopNode(b, map[graph.NodeID]graph.DependencyType{a: graph.DepHard}),
	)

	next, viable := c.advance()
	assert.Empty(t, viable)
	assert.True(t, next.Deadlocked())
	assert.False(t, next.Done())
}

func TestContext_CompleteRejectsResultKindMismatch(t *testing.T) {
	ns := graph.RootNamespace("job")
	a := graph.NewNodeID("a", ns, graph.ResultDataSpec)

	c := newCtx(noopNode(a, nil))
	c, _ = c.advance()

	next := c.complete(a, "not a DataSpec", nil)
	assert.True(t, next.Failed[a])
	_, err := next.Result(a)
	assert.Error(t, err)
}

func TestContext_CompletePropagatesBundleChildren(t *testing.T) {
	ns := graph.RootNamespace("job")
	parentID := graph.NewNodeID("parent", ns, graph.ResultObjectBundle)
	childNS := ns.Push("parent")
	childID := graph.NewNodeID("child", childNS, graph.ResultAny)

	parentDef := graph.NewNode(parentID, graph.KindRunModel, nil)
	parentDef.BundleResult = true
	parentDef.BundleNamespace = childNS
	parentDef.BundleChildren = []graph.NodeID{childID}

	parent := &Node{Def: parentDef, Dependencies: parentDef.Dependencies}
	childDef := graph.NewNode(childID, graph.KindNoop, nil).Depend(parentID, graph.DepHard)
	child := &Node{Def: childDef, Dependencies: childDef.Dependencies}

	c := newCtx(parent, child)
	c, _ = c.advance()

	next := c.complete(parentID, map[string]any{"child": 42}, nil)
	assert.True(t, next.Succeeded[parentID])
	assert.True(t, next.Succeeded[childID])
	v, err := next.Result(childID)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}
