package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParametersExplicitWins(t *testing.T) {
	p := NewParameters(MustInstance(P("discount", FloatValue(0.5))))
	p.Default("discount", FloatValue(0.99))
	v, ok := p.Get("discount")
	require.True(t, ok)
	assert.Equal(t, "0.5", v.String())
	assert.False(t, p.WasDefaulted("discount"))
}

func TestParametersLaterDefaultReplacesDefault(t *testing.T) {
	p := NewParameters(MustInstance())
	p.Default("epsilon", FloatValue(0.05))
	p.Default("epsilon", FloatValue(0.01))
	f, err := p.Float("epsilon")
	require.NoError(t, err)
	assert.InDelta(t, 0.01, f, 1e-12)
	assert.True(t, p.WasDefaulted("epsilon"))

	p.Set("epsilon", FloatValue(0.2))
	assert.False(t, p.WasDefaulted("epsilon"))
	p.Default("epsilon", FloatValue(0.3))
	f, _ = p.Float("epsilon")
	assert.InDelta(t, 0.2, f, 1e-12)
}

func TestParametersRequired(t *testing.T) {
	p := NewParameters(MustInstance(P("name", StringValue("x"))))
	_, err := p.Required("n")
	var cerr *ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "n", cerr.Name)

	_, err = p.Int("name")
	assert.Error(t, err)
	assert.Equal(t, "fallback", p.GetWithDefault("missing", StringValue("fallback")).String())
}

func TestApplyDefaults(t *testing.T) {
	p := NewParameters(MustInstance(P("n", IntValue(6))))
	require.NoError(t, p.ApplyDefaults())
	nv, err := p.Int("num_vars")
	require.NoError(t, err)
	assert.Equal(t, 6, nv)
	assert.True(t, p.WasDefaulted("discount"))
	m := p.Map()
	assert.Equal(t, int64(6), m["n"])
	assert.Equal(t, "none", m["preprocessing"])
}

func TestConfigIdentity(t *testing.T) {
	a := NewConfig("PLTL", "none", "spudd", "")
	b := NewConfig("PLTL", "none", "spudd", "Symbolic")
	assert.Equal(t, "spudd", a.String())
	assert.True(t, a.Equivalent(b))
	assert.Equal(t, "PLTL-none-spudd", b.Identity())
}
