package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph_ValidateMissingDependency(t *testing.T) {
	ns := RootNamespace("job1")
	root := NewNodeID("root", ns, ResultNone)
	dep := NewNodeID("missing", ns, ResultValue)

	g := NewGraph(root)
	g.Add(NewNode(root, KindNoop, nil).Depend(dep, DepHard))

	err := g.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestGraph_ValidateCycle(t *testing.T) {
	ns := RootNamespace("job1")
	a := NewNodeID("a", ns, ResultValue)
	b := NewNodeID("b", ns, ResultValue)

	g := NewGraph(a)
	g.Add(NewNode(a, KindIdentity, IdentityPayload{Source: b}).Depend(b, DepHard))
	g.Add(NewNode(b, KindIdentity, IdentityPayload{Source: a}).Depend(a, DepHard))

	err := g.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestGraph_ValidateAcyclic(t *testing.T) {
	ns := RootNamespace("job1")
	a := NewNodeID("a", ns, ResultValue)
	b := NewNodeID("b", ns, ResultValue)

	g := NewGraph(b)
	g.Add(NewNode(a, KindStaticValue, StaticValuePayload{Value: 1}))
	g.Add(NewNode(b, KindIdentity, IdentityPayload{Source: a}).Depend(a, DepHard))

	require.NoError(t, g.Validate())

	order, err := g.TopoOrder()
	require.NoError(t, err)
	require.Len(t, order, 2)
	assert.Equal(t, a, order[0])
	assert.Equal(t, b, order[1])
}

func TestNamespace_EqualAndString(t *testing.T) {
	root := RootNamespace("job1")
	child := root.Push("model")

	assert.Equal(t, "job1", root.String())
	assert.Equal(t, "job1/model", child.String())
	assert.True(t, child.Equal(root.Push("model")))
	assert.False(t, child.Equal(root))
	assert.Equal(t, root, child.Pop())
}

func TestNodeID_EqualIgnoresResultKind(t *testing.T) {
	ns := RootNamespace("job1")
	a := NewNodeID("x", ns, ResultValue)
	b := NewNodeID("x", ns, ResultDataView)
	assert.True(t, a.Equal(b))
}
