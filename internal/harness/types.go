package harness

import (
	"github.com/roach88/harmonizer/internal/ir"
	"github.com/roach88/harmonizer/internal/schema"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates every assertion held.
	Pass bool `json:"pass"`

	// Dataset is the harmonized output before validation.
	Dataset *ir.HarmonizedDataset `json:"dataset"`

	// Validation holds what the schema validator reported.
	Validation []schema.ValidationError `json:"validation,omitempty"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(ds *ir.HarmonizedDataset) *Result {
	return &Result{
		Pass:    true,
		Dataset: ds,
		Errors:  []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// ValidationMessages renders the validation errors as strings.
func (r *Result) ValidationMessages() []string {
	out := make([]string, len(r.Validation))
	for i := range r.Validation {
		out[i] = r.Validation[i].Error()
	}
	return out
}
