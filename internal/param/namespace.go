// Package param implements layered parameter namespaces, name
// resolution with a fixed precedence chain, and template
// interpolation over %(name:format) references.
package param

import (
	"sort"

	"github.com/leapstack-labs/chauffeur/pkg/core"
)

// Namespace is one labeled key/value layer. It follows a
// single-writer-then-freeze lifecycle: Set during initialization,
// Freeze before any concurrent reads.
type Namespace struct {
	label  string
	vals   map[string]core.Value
	frozen bool
}

// NewNamespace creates an empty namespace with the given label.
func NewNamespace(label string) *Namespace {
	return &Namespace{
		label: label,
		vals:  make(map[string]core.Value),
	}
}

// Label returns the namespace label, used in logs and errors.
func (n *Namespace) Label() string { return n.label }

// Set stores a value. Calling Set on a frozen namespace is a
// programming error.
func (n *Namespace) Set(name string, v core.Value) {
	if n.frozen {
		panic("param: Set on frozen namespace " + n.label)
	}
	n.vals[name] = v
}

// Freeze marks the namespace read-only. After Freeze the namespace is
// safe for concurrent lookups without locking.
func (n *Namespace) Freeze() *Namespace {
	n.frozen = true
	return n
}

// Get looks up a value by name.
func (n *Namespace) Get(name string) (core.Value, bool) {
	v, ok := n.vals[name]
	return v, ok
}

// Len returns the number of entries.
func (n *Namespace) Len() int { return len(n.vals) }

// Names returns the sorted entry names.
func (n *Namespace) Names() []string {
	names := make([]string, 0, len(n.vals))
	for name := range n.vals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FromMap builds a frozen namespace from a value map.
func FromMap(label string, vals map[string]core.Value) *Namespace {
	ns := NewNamespace(label)
	for name, v := range vals {
		ns.Set(name, v)
	}
	return ns.Freeze()
}

// Chain is an ordered list of namespace layers consulted during
// resolution, highest precedence first. The fixed precedence for a
// full run is: instance, execution context, user-defined, driver.
type Chain []*Namespace

// Lookup returns the value from the first layer containing name.
func (c Chain) Lookup(name string) (core.Value, bool) {
	for _, ns := range c {
		if ns == nil {
			continue
		}
		if v, ok := ns.Get(name); ok {
			return v, true
		}
	}
	return core.Value{}, false
}

// With returns a new chain with ns taking precedence over c.
func (c Chain) With(ns *Namespace) Chain {
	out := make(Chain, 0, len(c)+1)
	out = append(out, ns)
	out = append(out, c...)
	return out
}
