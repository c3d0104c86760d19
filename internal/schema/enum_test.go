package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupCode(t *testing.T) {
	s := loadSchema(t)
	site, ok := s.Property("diagnosis.anatomic_site")
	require.True(t, ok)

	tests := []struct {
		name  string
		input string
		want  string
		found bool
	}{
		{"exact code, last declared entry wins", "C64.9", "C64.9 : Kidney, NOS", true},
		{"code without punctuation", "C649", "C64.9 : Kidney, NOS", true},
		{"lower-case code", "c719", "C71.9 : Brain, NOS", true},
		{"whole value ignoring case", "not reported", "Not Reported", true},
		{"unknown code", "C99.9", "", false},
		{"blank", "  ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := site.LookupCode(tt.input)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCaseMatch(t *testing.T) {
	s := loadSchema(t)
	sex, _ := s.Property("participant.sex_at_birth")

	got, ok := sex.CaseMatch(" female ")
	assert.True(t, ok)
	assert.Equal(t, "Female", got)

	_, ok = sex.CaseMatch("F")
	assert.False(t, ok)

	free, _ := s.Property("diagnosis.diagnosis")
	got, ok = free.CaseMatch("anything")
	assert.True(t, ok, "properties without an enum accept every value")
	assert.Equal(t, "anything", got)
}
