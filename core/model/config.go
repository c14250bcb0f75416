package model

import "strings"

// Config identifies one solver configuration. Two configs with the same
// language, preprocessing and algorithm are interchangeable for caching;
// the description is only a label.
type Config struct {
	Language      string `json:"language" yaml:"language"`
	Preprocessing string `json:"preprocessing" yaml:"preprocessing"`
	Algorithm     string `json:"algorithm" yaml:"algorithm"`
	Description   string `json:"description" yaml:"description"`
}

// NewConfig returns a Config labelled with description, or with the
// algorithm name when description is empty.
func NewConfig(language, preprocessing, algorithm, description string) Config {
	if description == "" {
		description = algorithm
	}
	return Config{Language: language, Preprocessing: preprocessing, Algorithm: algorithm, Description: description}
}

// Identity is the caching identity "language-preprocessing-algorithm".
func (c Config) Identity() string {
	return strings.Join([]string{c.Language, c.Preprocessing, c.Algorithm}, "-")
}

// Equivalent reports whether c and o share a caching identity.
func (c Config) Equivalent(o Config) bool { return c.Identity() == o.Identity() }

// String returns the human description.
func (c Config) String() string {
	if c.Description == "" {
		return c.Algorithm
	}
	return c.Description
}
