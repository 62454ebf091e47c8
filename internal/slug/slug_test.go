package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{name: "punctuation stripped", title: "My Cool Title!!", want: "my-cool-title"},
		{name: "surrounding and inner whitespace collapsed", title: "  spaced   out ", want: "spaced-out"},
		{name: "lower-casing", title: "EDITORIAL", want: "editorial"},
		{name: "hyphens preserved", title: "year-end special", want: "year-end-special"},
		{name: "digits and underscores preserved", title: "Issue_42 (2024)", want: "issue_42-2024"},
		{name: "tabs and newlines treated as whitespace", title: "a\tb\nc", want: "a-b-c"},
		{name: "empty title", title: "", want: ""},
		{name: "only punctuation", title: "!!!", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Make(tt.title))
		})
	}
}

func TestMakeDeterministic(t *testing.T) {
	// Identical titles must always yield identical candidate slugs.
	assert.Equal(t, Make("The June Issue"), Make("The June Issue"))
}
