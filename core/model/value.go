package model

import (
	"math"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindRange
	KindList
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindRange:
		return "range"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is a parameter value: a scalar or a ranged dimension (an inclusive
// integer range or an explicit ordered list) awaiting expansion.
type Value struct {
	kind   Kind
	s      string
	i      int64
	f      float64
	b      bool
	lo, hi int64
	list   []Value
}

// StringValue returns a string scalar.
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// IntValue returns an integer scalar.
func IntValue(i int64) Value { return Value{kind: KindInt, i: i} }

// FloatValue returns a float scalar.
func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }

// BoolValue returns a boolean scalar.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// RangeValue returns the inclusive integer range lo..hi. A range with
// hi < lo is empty.
func RangeValue(lo, hi int64) Value { return Value{kind: KindRange, lo: lo, hi: hi} }

// ListValue returns an ordered list dimension. Nested ranged values are
// not allowed and are dropped.
func ListValue(vals ...Value) Value {
	list := make([]Value, 0, len(vals))
	for _, v := range vals {
		if v.Ranged() {
			continue
		}
		list = append(list, v)
	}
	return Value{kind: KindList, list: list}
}

// FloatRange builds a list dimension lo, lo+step, ... up to hi inclusive.
// Points are computed from their index and rounded to 1e-9 so that
// accumulated error never leaks into cache file names.
func FloatRange(lo, hi, step float64) Value {
	if step <= 0 {
		return ListValue()
	}
	var vals []Value
	for k := 0; ; k++ {
		x := math.Round((lo+float64(k)*step)*1e9) / 1e9
		if x > hi+step*1e-9 {
			break
		}
		vals = append(vals, FloatValue(x))
	}
	return ListValue(vals...)
}

// Kind reports the variant.
func (v Value) Kind() Kind { return v.kind }

// Ranged reports whether v marks an axis for expansion.
func (v Value) Ranged() bool { return v.kind == KindRange || v.kind == KindList }

// Values enumerates the scalars of a ranged value in order. A scalar
// yields itself.
func (v Value) Values() []Value {
	switch v.kind {
	case KindRange:
		if v.hi < v.lo {
			return nil
		}
		out := make([]Value, 0, v.hi-v.lo+1)
		for i := v.lo; i <= v.hi; i++ {
			out = append(out, IntValue(i))
		}
		return out
	case KindList:
		out := make([]Value, len(v.list))
		copy(out, v.list)
		return out
	default:
		return []Value{v}
	}
}

// Int returns the integer content. Floats with no fractional part convert.
func (v Value) Int() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindFloat:
		if v.f == math.Trunc(v.f) {
			return int64(v.f), true
		}
	case KindString:
		if i, err := strconv.ParseInt(v.s, 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}

// Float returns the numeric content as a float.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	case KindString:
		if f, err := strconv.ParseFloat(v.s, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// Bool returns the boolean content. The strings "true" and "false" convert.
func (v Value) Bool() (bool, bool) {
	switch v.kind {
	case KindBool:
		return v.b, true
	case KindString:
		if b, err := strconv.ParseBool(v.s); err == nil {
			return b, true
		}
	}
	return false, false
}

// Interface returns the scalar as a plain Go value for decoding.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	default:
		return v.String()
	}
}

// String formats the value the way it appears in cache file names and
// instance descriptions. Floats always carry a decimal point.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		s := strconv.FormatFloat(v.f, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eEIN") {
			s += ".0"
		}
		return s
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindRange:
		return strconv.FormatInt(v.lo, 10) + ".." + strconv.FormatInt(v.hi, 10)
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return ""
	}
}

// Compare orders two scalars: numerically when both are numeric,
// otherwise by their string form.
func Compare(a, b Value) int {
	af, aok := a.numeric()
	bf, bok := b.numeric()
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a.String(), b.String())
}

func (v Value) numeric() (float64, bool) {
	if v.kind == KindInt || v.kind == KindFloat {
		return v.Float()
	}
	return 0, false
}
