package locator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		kind  Kind
		value string
		want  string
	}{
		{"id gets prefix", KindID, "login", "#login"},
		{"id prefix idempotent", KindID, "#login", "#login"},
		{"xpath", KindXPath, "//button[1]", "xpath=//button[1]"},
		{"css verbatim", KindCSS, "div.card > a", "div.card > a"},
		{"name wrapped", KindName, "email", `[name="email"]`},
		{"class gets prefix", KindClass, "btn-primary", ".btn-primary"},
		{"class prefix idempotent", KindClass, ".btn-primary", ".btn-primary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.kind, tt.value)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_UnsupportedKind(t *testing.T) {
	_, err := Resolve(Kind("shadow"), "whatever")
	require.ErrorIs(t, err, ErrUnsupportedKind)
}
