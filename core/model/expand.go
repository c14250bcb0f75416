package model

import (
	"sort"
	"strings"
)

// KeySeparator joins the chosen values of a composite key.
const KeySeparator = "-"

// CompositeKey addresses one branch of an expansion by the values chosen
// for each ranged dimension, in expansion order.
type CompositeKey struct {
	parts []Value
}

// Parts returns the chosen values.
func (k CompositeKey) Parts() []Value {
	out := make([]Value, len(k.parts))
	copy(out, k.parts)
	return out
}

// String joins the parts with KeySeparator. It is for display only: a
// value holding the separator makes distinct keys print alike.
func (k CompositeKey) String() string {
	s := make([]string, len(k.parts))
	for i, p := range k.parts {
		s[i] = p.String()
	}
	return strings.Join(s, KeySeparator)
}

var partEscaper = strings.NewReplacer(`\`, `\\`, KeySeparator, `\`+KeySeparator)

// ID encodes each part with its kind and escapes the separator, so two
// keys share an ID only when every part is equal. Use it, not String, to
// index keys.
func (k CompositeKey) ID() string {
	s := make([]string, len(k.parts))
	for i, p := range k.parts {
		s[i] = partID(p)
	}
	return strings.Join(s, KeySeparator)
}

func partID(v Value) string {
	return v.Kind().String() + ":" + partEscaper.Replace(v.String())
}

// Compare orders keys part by part using Compare, so numeric axes sort
// numerically ("2" before "10").
func (k CompositeKey) Compare(o CompositeKey) int {
	for i := 0; i < len(k.parts) && i < len(o.parts); i++ {
		if c := Compare(k.parts[i], o.parts[i]); c != 0 {
			return c
		}
	}
	return len(k.parts) - len(o.parts)
}

func (k CompositeKey) extend(v Value) CompositeKey {
	parts := make([]Value, len(k.parts), len(k.parts)+1)
	copy(parts, k.parts)
	return CompositeKey{parts: append(parts, v)}
}

// Expansion is the materialized Cartesian product of a ParameterSet. It
// is either a single Instance (no ranged dimensions) or a mapping from
// CompositeKey to Instance.
type Expansion struct {
	single *Instance
	keys   []CompositeKey
	byKey  map[string]Instance
}

type branch struct {
	key    CompositeKey
	params ParameterSet
}

// Expand resolves every ranged dimension of ps. Ranged keys are processed
// in insertion order: the first produces one branch per value, each later
// one multiplies every existing branch by each of its values. An empty
// dimension yields zero instances. Repeated values within a dimension
// address the same branch; ParameterSet.Validate rejects them up front.
func Expand(ps ParameterSet) Expansion {
	ranged := ps.RangedKeys()
	if len(ranged) == 0 {
		inst := Instance{params: ps.Clone()}
		return Expansion{single: &inst}
	}

	var branches []branch
	for n, key := range ranged {
		v, _ := ps.Get(key)
		values := v.Values()
		if n == 0 {
			for _, val := range values {
				p := ps.Clone()
				p.Set(key, val)
				branches = append(branches, branch{key: CompositeKey{}.extend(val), params: p})
			}
			continue
		}
		next := make([]branch, 0, len(branches)*len(values))
		for _, val := range values {
			for _, b := range branches {
				p := b.params.Clone()
				p.Set(key, val)
				next = append(next, branch{key: b.key.extend(val), params: p})
			}
		}
		branches = next
	}

	e := Expansion{byKey: make(map[string]Instance, len(branches))}
	for _, b := range branches {
		id := b.key.ID()
		if _, dup := e.byKey[id]; dup {
			continue
		}
		e.byKey[id] = Instance{params: b.params}
		e.keys = append(e.keys, b.key)
	}
	sortKeys(e.keys)
	return e
}

func sortKeys(keys []CompositeKey) {
	sort.SliceStable(keys, func(i, j int) bool { return keys[i].Compare(keys[j]) < 0 })
}

// Single returns the instance when the set had no ranged dimensions.
func (e Expansion) Single() (Instance, bool) {
	if e.single == nil {
		return Instance{}, false
	}
	return *e.single, true
}

// Keys returns the composite keys in sorted order.
func (e Expansion) Keys() []CompositeKey {
	out := make([]CompositeKey, len(e.keys))
	copy(out, e.keys)
	return out
}

// Lookup returns the instance addressed by key.
func (e Expansion) Lookup(key CompositeKey) (Instance, bool) {
	inst, ok := e.byKey[key.ID()]
	return inst, ok
}

// Instances returns every instance in sorted key order.
func (e Expansion) Instances() []Instance {
	if e.single != nil {
		return []Instance{*e.single}
	}
	out := make([]Instance, 0, len(e.keys))
	for _, k := range e.keys {
		out = append(out, e.byKey[k.ID()])
	}
	return out
}

// Len returns the number of instances.
func (e Expansion) Len() int {
	if e.single != nil {
		return 1
	}
	return len(e.keys)
}
