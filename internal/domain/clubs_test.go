package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalClub(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		label string
		want  string
	}{
		{name: "already canonical", label: "7-iron", want: "7-iron"},
		{name: "compact iron", label: "7i", want: "7-iron"},
		{name: "reversed iron", label: "i7", want: "7-iron"},
		{name: "spaced iron", label: "7 iron", want: "7-iron"},
		{name: "prefixed iron", label: "iron 7", want: "7-iron"},
		{name: "bare number", label: "7", want: "7-iron"},
		{name: "uppercase", label: "DRIVER", want: "driver"},
		{name: "wood alias", label: "3w", want: "3-wood"},
		{name: "pitching wedge alias", label: "PW", want: "pitching-wedge"},
		{name: "sand wedge alias", label: "sw", want: "sand-wedge"},
		{name: "hybrid alias", label: "4h", want: "4-hybrid"},
		{name: "unknown passes through lowercased", label: "Mystery Stick", want: "mystery stick"},
		{name: "empty", label: "", want: ""},
		{name: "whitespace only", label: "   ", want: ""},
		{name: "invalid iron number", label: "0i", want: "0i"},
		{name: "two digits not an iron", label: "10i", want: "10i"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, CanonicalClub(tc.label))
		})
	}
}
