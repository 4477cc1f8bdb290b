package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExcluded(t *testing.T) {
	d := HostDirectory("/src", ".git", "*.pdf", "out")

	tests := []struct {
		rel  string
		want bool
	}{
		{".", false},
		{"Dinner/soup.cook", false},
		{".git", true},
		{".git/objects/ab", true},
		{"main.pdf", true},
		{"Dinner/old.pdf", false},
		{"out/main.tex", true},
		{"outline.tex", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, d.Excluded(tt.rel), tt.rel)
	}
}

func TestExcludedNoPatterns(t *testing.T) {
	assert.False(t, HostDirectory("/src").Excluded("anything"))
}
