package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextEventID(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		padding  int
		want     string
	}{
		{"empty catalog", nil, 3, "A001"},
		{"sequential", []string{"A001", "A002"}, 3, "A003"},
		{"fills the gap", []string{"A01", "A02", "A04"}, 2, "A03"},
		{"narrow padding", []string{"A1"}, 1, "A2"},
		{"ignores foreign prefixes", []string{"B01", "X99"}, 2, "A01"},
		{"ignores non-numeric suffix", []string{"Axx", "A001"}, 3, "A002"},
		{"ignores zero and negatives", []string{"A000", "A-1"}, 3, "A001"},
		{"wider id than padding", []string{"A0001"}, 3, "A002"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextEventID(tt.existing, tt.padding))
		})
	}
}
