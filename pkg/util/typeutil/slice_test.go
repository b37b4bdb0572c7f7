package typeutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsUnique(t *testing.T) {
	tests := []struct {
		name     string
		in       []string
		want     bool
		wantElem string
	}{
		{name: "nil slice", in: nil, want: true},
		{name: "single element", in: []string{"a"}, want: true},
		{name: "unique", in: []string{"a", "b", "c"}, want: true},
		{name: "duplicated", in: []string{"a", "b", "a", "b"}, want: false, wantElem: "a"},
		{name: "duplicated empty string", in: []string{"", "x", ""}, want: false, wantElem: ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			re := require.New(t)

			got, elem := IsUnique(tt.in)
			re.Equal(tt.want, got)
			re.Equal(tt.wantElem, elem)
		})
	}
}
