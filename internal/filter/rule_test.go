package filter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "sjsage522/fundgrubenotifier/pkg/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

var wantRules = []Rule{
	{
		Include: []Term{Literal("iphone"), AnyOf("64gb", "128gb")},
		Exclude: []string{"refurbished"},
		Price:   price(500),
	},
	{
		Include: []Term{Literal("ps5")},
		Store:   []string{"Berlin", "Hamburg"},
	},
}

func TestLoadRulesJSON(t *testing.T) {
	path := writeFile(t, "products.json", `[
		{"include": ["iphone", ["64gb", "128gb"]], "exclude": ["refurbished"], "price": 500},
		{"include": ["ps5"], "store": ["Berlin", "Hamburg"]}
	]`)

	rules, err := LoadRules(path)
	require.NoError(t, err)
	if diff := cmp.Diff(wantRules, rules); diff != "" {
		t.Errorf("LoadRules() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRulesYAML(t *testing.T) {
	path := writeFile(t, "products.yaml", `
- include: [iphone, [64gb, 128gb]]
  exclude: [refurbished]
  price: 500
- include:
    - ps5
  store: [Berlin, Hamburg]
`)

	rules, err := LoadRules(path)
	require.NoError(t, err)
	if diff := cmp.Diff(wantRules, rules); diff != "" {
		t.Errorf("LoadRules() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRulesErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"not json", "products.json", `{include`},
		{"missing include", "products.json", `[{"price": 10}]`},
		{"wrong term type", "products.json", `[{"include": [42]}]`},
		{"nested too deep", "products.json", `[{"include": [[["a"]]]}]`},
		{"empty group", "products.json", `[{"include": [[]]}]`},
		{"unknown field", "products.json", `[{"terms": ["iphone"], "include": ["iphone"]}]`},
		{"negative price", "products.json", `[{"include": ["a"], "price": -1}]`},
		{"yaml mapping term", "products.yml", "- include:\n    - {a: b}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRules(writeFile(t, tt.file, tt.content))
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.ErrorTypeConfiguration), "got %v", err)
		})
	}

	_, err := LoadRules(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeConfiguration))
}

func TestTermString(t *testing.T) {
	assert.Equal(t, "iphone", Literal("iphone").String())
	assert.Equal(t, "[64gb|128gb]", AnyOf("64gb", "128gb").String())
}
