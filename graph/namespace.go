// Package graph defines the typed, immutable dataflow graph the engine
// schedules: node identity, node kinds and their payloads, dependency
// records and the graph itself. Nothing in this package performs I/O or
// scheduling; it is the shared vocabulary everything else in this module
// is built from.
package graph

import "strings"

// Namespace is a hierarchical scope used to disambiguate node names inside
// nested sub-contexts such as model-local variable scopes. The root
// namespace has a nil Parent.
type Namespace struct {
	Name   string
	Parent *Namespace
}

// RootNamespace creates a namespace with no parent.
func RootNamespace(name string) *Namespace {
	return &Namespace{Name: name}
}

// Push returns a child namespace nested under ns.
func (ns *Namespace) Push(name string) *Namespace {
	return &Namespace{Name: name, Parent: ns}
}

// Pop returns the parent namespace, or nil if ns is already the root.
func (ns *Namespace) Pop() *Namespace {
	if ns == nil {
		return nil
	}
	return ns.Parent
}

// Equal reports whether two namespaces denote the same scope chain.
func (ns *Namespace) Equal(other *Namespace) bool {
	for ns != nil && other != nil {
		if ns.Name != other.Name {
			return false
		}
		ns, other = ns.Parent, other.Parent
	}
	return ns == nil && other == nil
}

// String renders the namespace root-first, e.g. "job1/model/local".
func (ns *Namespace) String() string {
	if ns == nil {
		return ""
	}
	var parts []string
	for n := ns; n != nil; n = n.Parent {
		parts = append([]string{n.Name}, parts...)
	}
	return strings.Join(parts, "/")
}
