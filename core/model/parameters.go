package model

import "fmt"

// Parameters is a mutable parameter table with default tracking. Explicit
// values always win over defaults. Declaring a default for a key that
// only holds an earlier default replaces it.
type Parameters struct {
	values    ParameterSet
	defaulted map[string]bool
}

// NewParameters seeds a table with the explicit values of inst.
func NewParameters(inst Instance) *Parameters {
	p := &Parameters{defaulted: make(map[string]bool)}
	for _, k := range inst.Keys() {
		v, _ := inst.Get(k)
		p.Set(k, v)
	}
	return p
}

// Set binds key explicitly.
func (p *Parameters) Set(key string, v Value) {
	p.values.Set(key, v)
	delete(p.defaulted, key)
}

// Default binds key unless it already holds an explicit value.
func (p *Parameters) Default(key string, v Value) {
	if p.values.Has(key) && !p.defaulted[key] {
		return
	}
	p.values.Set(key, v)
	p.defaulted[key] = true
}

// Has reports whether key is bound, explicitly or by default.
func (p *Parameters) Has(key string) bool { return p.values.Has(key) }

// WasDefaulted reports whether key currently holds a default.
func (p *Parameters) WasDefaulted(key string) bool { return p.defaulted[key] }

// Get returns the value bound to key.
func (p *Parameters) Get(key string) (Value, bool) { return p.values.Get(key) }

// GetWithDefault returns the value bound to key or def.
func (p *Parameters) GetWithDefault(key string, def Value) Value {
	if v, ok := p.values.Get(key); ok {
		return v
	}
	return def
}

// Required returns the value bound to key or a ConfigurationError.
func (p *Parameters) Required(key string) (Value, error) {
	v, ok := p.values.Get(key)
	if !ok {
		return Value{}, &ConfigurationError{Kind: "parameter", Name: key, Reason: "value required"}
	}
	return v, nil
}

// Int returns the required integer parameter key.
func (p *Parameters) Int(key string) (int, error) {
	v, err := p.Required(key)
	if err != nil {
		return 0, err
	}
	i, ok := v.Int()
	if !ok {
		return 0, &ConfigurationError{Kind: "parameter", Name: key, Reason: fmt.Sprintf("expected integer, got %s", v)}
	}
	return int(i), nil
}

// Float returns the required numeric parameter key.
func (p *Parameters) Float(key string) (float64, error) {
	v, err := p.Required(key)
	if err != nil {
		return 0, err
	}
	f, ok := v.Float()
	if !ok {
		return 0, &ConfigurationError{Kind: "parameter", Name: key, Reason: fmt.Sprintf("expected number, got %s", v)}
	}
	return f, nil
}

// Str returns the required parameter key in its string form.
func (p *Parameters) Str(key string) (string, error) {
	v, err := p.Required(key)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// Map exports the table as plain Go values for struct decoding.
func (p *Parameters) Map() map[string]any {
	out := make(map[string]any, p.values.Len())
	for _, k := range p.values.Keys() {
		v, _ := p.values.Get(k)
		out[k] = v.Interface()
	}
	return out
}

// ApplyDefaults declares the defaults shared by every problem.
func (p *Parameters) ApplyDefaults() error {
	p.Default("discount", FloatValue(0.95))
	p.Default("epsilon", FloatValue(0.05))
	p.Default("reward", IntValue(1000000))
	p.Default("preprocessing", StringValue("none"))
	p.Default("n", IntValue(4))
	n, err := p.Int("n")
	if err != nil {
		return err
	}
	p.Default("num_vars", IntValue(int64(n)))
	p.Default("num_actions", IntValue(int64(n)))
	p.Default("initial_proposition_value", BoolValue(false))
	return nil
}
