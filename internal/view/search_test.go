package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatcher(t *testing.T) {
	tests := []struct {
		query string
		label string
		want  bool
	}{
		{"go", "Effective Go", true},
		{"GO", "golang", true},
		{"rust, go", "The Rust Book", true},
		{"rust, go", "Python", false},
		{"", "anything", false},
		{" , ,", "anything", false},
		{"café", "Le Café de Flore", true},
	}
	for _, tt := range tests {
		t.Run(tt.query+"/"+tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, NewMatcher(tt.query).Match(tt.label))
		})
	}
}

func TestMatcherNormalisesTerms(t *testing.T) {
	m := NewMatcher(" Go , go, web ")
	assert.True(t, m.Active())
	assert.True(t, m.Match("WebAssembly"))
	assert.True(t, m.Match("golang"))
	assert.False(t, NewMatcher("").Active())
	assert.False(t, NewMatcher(" , ").Active())
}
