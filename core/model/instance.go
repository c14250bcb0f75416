package model

import (
	"fmt"
	"sort"
	"strings"
)

// Instance is a ParameterSet with every ranged dimension resolved to a
// scalar. Instances are immutable; accessors hand out copies.
type Instance struct {
	params ParameterSet
}

// NewInstance validates that ps has no ranged dimension.
func NewInstance(ps ParameterSet) (Instance, error) {
	if r := ps.RangedKeys(); len(r) > 0 {
		return Instance{}, fmt.Errorf("instance has ranged dimensions: %s", strings.Join(r, ", "))
	}
	return Instance{params: ps.Clone()}, nil
}

// MustInstance is NewInstance for literals known to be scalar.
func MustInstance(pairs ...Param) Instance {
	inst, err := NewInstance(NewParameterSet(pairs...))
	if err != nil {
		panic(err)
	}
	return inst
}

// Get returns the scalar bound to key.
func (i Instance) Get(key string) (Value, bool) { return i.params.Get(key) }

// Keys returns the keys in insertion order.
func (i Instance) Keys() []string { return i.params.Keys() }

// Params returns a copy of the underlying parameters.
func (i Instance) Params() ParameterSet { return i.params.Clone() }

// With returns a copy of i with key bound to the scalar v.
func (i Instance) With(key string, v Value) (Instance, error) {
	if v.Ranged() {
		return Instance{}, fmt.Errorf("cannot bind ranged value to %s", key)
	}
	ps := i.params.Clone()
	ps.Set(key, v)
	return Instance{params: ps}, nil
}

var (
	idKeyEscaper   = strings.NewReplacer(`\`, `\\`, "=", `\=`, "-", `\-`)
	idValueEscaper = strings.NewReplacer(`\`, `\\`, "=", `\=`)
)

// ID is the canonical identity: keys sorted lexicographically, joined as
// "key=value" pairs separated by "-". It does not depend on insertion
// order. A backslash escapes "=" in keys and string values, and "-" in
// keys, so every unescaped "=" splits exactly one pair.
func (i Instance) ID() string {
	keys := i.params.Keys()
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for n, k := range keys {
		v, _ := i.params.Get(k)
		s := v.String()
		if v.Kind() == KindString {
			s = idValueEscaper.Replace(s)
		}
		parts[n] = idKeyEscaper.Replace(k) + "=" + s
	}
	return strings.Join(parts, "-")
}

// String lists the parameters as "k=v" in insertion order.
func (i Instance) String() string { return i.params.String() }

// Args renders the parameters as quoted "k=v" command line arguments.
func (i Instance) Args() string {
	keys := i.params.Keys()
	parts := make([]string, len(keys))
	for n, k := range keys {
		v, _ := i.params.Get(k)
		parts[n] = "'" + k + "=" + v.String() + "'"
	}
	return strings.Join(parts, " ")
}
