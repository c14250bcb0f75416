package model

import (
	"fmt"
	"strings"
)

// ParameterSet is an ordered mapping from parameter name to Value. The
// insertion order of keys fixes the expansion order of ranged dimensions.
// The zero value is an empty set ready to use.
type ParameterSet struct {
	keys   []string
	values map[string]Value
}

// NewParameterSet builds a set from pairs, keeping their order.
func NewParameterSet(pairs ...Param) ParameterSet {
	var ps ParameterSet
	for _, p := range pairs {
		ps.Set(p.Key, p.Value)
	}
	return ps
}

// Param is one key/value pair used to build a ParameterSet.
type Param struct {
	Key   string
	Value Value
}

// P is shorthand for Param{key, value}.
func P(key string, v Value) Param { return Param{Key: key, Value: v} }

// Set assigns key. A new key is appended; an existing key keeps its
// position.
func (p *ParameterSet) Set(key string, v Value) {
	if p.values == nil {
		p.values = make(map[string]Value)
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = v
}

// Get returns the value bound to key.
func (p ParameterSet) Get(key string) (Value, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Has reports whether key is bound.
func (p ParameterSet) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Keys returns the keys in insertion order.
func (p ParameterSet) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Len returns the number of keys.
func (p ParameterSet) Len() int { return len(p.keys) }

// Clone returns an independent copy.
func (p ParameterSet) Clone() ParameterSet {
	var out ParameterSet
	for _, k := range p.keys {
		out.Set(k, p.values[k])
	}
	return out
}

// Without returns a copy with key removed.
func (p ParameterSet) Without(key string) ParameterSet {
	var out ParameterSet
	for _, k := range p.keys {
		if k != key {
			out.Set(k, p.values[k])
		}
	}
	return out
}

// RangedKeys returns the keys bound to ranged dimensions, in order.
func (p ParameterSet) RangedKeys() []string {
	var out []string
	for _, k := range p.keys {
		if p.values[k].Ranged() {
			out = append(out, k)
		}
	}
	return out
}

// Validate rejects a list dimension that repeats a value. Instances are
// identified by their spelling, so [1, "1"] is a repeat too.
func (p ParameterSet) Validate() error {
	for _, k := range p.keys {
		v := p.values[k]
		if v.Kind() != KindList {
			continue
		}
		seen := make(map[string]bool, len(v.list))
		for _, item := range v.list {
			id := item.String()
			if seen[id] {
				return &ConfigurationError{Kind: "parameter", Name: k, Reason: fmt.Sprintf("repeated value %s in list", item)}
			}
			seen[id] = true
		}
	}
	return nil
}

// RangeVariable returns the first ranged key, or "" when there is none.
// It labels the X axis of result tables.
func (p ParameterSet) RangeVariable() string {
	if r := p.RangedKeys(); len(r) > 0 {
		return r[0]
	}
	return ""
}

// Description joins the scalar parameters as "k=v" in order.
func (p ParameterSet) Description() string {
	parts := make([]string, 0, len(p.keys))
	for _, k := range p.keys {
		v := p.values[k]
		if v.Ranged() {
			continue
		}
		parts = append(parts, k+"="+v.String())
	}
	return strings.Join(parts, " ")
}

// String joins every parameter as "k=v" in order.
func (p ParameterSet) String() string {
	parts := make([]string, 0, len(p.keys))
	for _, k := range p.keys {
		parts = append(parts, k+"="+p.values[k].String())
	}
	return strings.Join(parts, " ")
}
