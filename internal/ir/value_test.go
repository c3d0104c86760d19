package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBlank(t *testing.T) {
	tests := []struct {
		name  string
		input any
		blank bool
	}{
		{"nil", nil, true},
		{"empty", "", true},
		{"spaces", "  \t", true},
		{"text", "x", false},
		{"zero", int64(0), false},
		{"empty list", []any{}, true},
		{"list of blanks", []any{"", nil}, true},
		{"list with value", []any{"", "a"}, false},
		{"string list", []string{" "}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.blank, IsBlank(tt.input))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, int64(12), Normalize(json.Number("12")))
	assert.Equal(t, 1.25, Normalize(json.Number("1.25")))
	assert.Equal(t, int64(3), Normalize(3))
	assert.Equal(t, []any{"a", int64(1)}, Normalize([]any{"a", 1}))
	assert.Equal(t, []any{"x"}, Normalize([]string{"x"}))
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "", Stringify(nil))
	assert.Equal(t, "-999", Stringify(int64(-999)))
	assert.Equal(t, "12", Stringify(12.0))
	assert.Equal(t, "1.5", Stringify(1.5))
	assert.Equal(t, "a;b", Stringify([]any{"a", "b"}))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"White", "Asian"}, SplitList("White; Asian ;", ";"))
	assert.Equal(t, []string{"a", "b", "c"}, SplitList([]any{"a;b", "c", ""}, ";"))
	assert.Nil(t, SplitList(nil, ";"))
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		input any
		want  int64
		ok    bool
	}{
		{"42", 42, true},
		{" -7 ", -7, true},
		{"12.0", 12, true},
		{"12.5", 0, false},
		{"abc", 0, false},
		{int64(5), 5, true},
		{2.0, 2, true},
		{nil, 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseInt(tt.input)
		assert.Equal(t, tt.ok, ok, "input %v", tt.input)
		assert.Equal(t, tt.want, got, "input %v", tt.input)
	}
}

func TestFold(t *testing.T) {
	assert.Equal(t, "not reported", Fold("  Not Reported "))
	assert.Equal(t, Fold("\u00c9COLE"), Fold("\u00e9cole"))
}
