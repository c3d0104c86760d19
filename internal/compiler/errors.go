package compiler

import (
	"errors"
	"fmt"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// MappingRuleError reports a defective rule. Index is the mapping's
// position in its transformation, or -1 for document-level errors.
type MappingRuleError struct {
	Transformation string
	OutputField    string
	Index          int
	Message        string
	Pos            token.Pos
}

func (e *MappingRuleError) Error() string {
	loc := ""
	if e.Pos.IsValid() {
		loc = fmt.Sprintf("%s:%d:%d: ", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column())
	}
	switch {
	case e.Index < 0 && e.Transformation == "":
		return fmt.Sprintf("%srule document: %s", loc, e.Message)
	case e.Index < 0:
		return fmt.Sprintf("%stransformation %q: %s", loc, e.Transformation, e.Message)
	default:
		return fmt.Sprintf("%stransformation %q: mapping %d (%s): %s",
			loc, e.Transformation, e.Index, e.OutputField, e.Message)
	}
}

// IsMappingRuleError reports whether err is a MappingRuleError.
func IsMappingRuleError(err error) bool {
	var mre *MappingRuleError
	return errors.As(err, &mre)
}

func ruleError(transformation string, index int, field, format string, args ...any) *MappingRuleError {
	return &MappingRuleError{
		Transformation: transformation,
		OutputField:    field,
		Index:          index,
		Message:        fmt.Sprintf(format, args...),
	}
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &MappingRuleError{Index: -1, Message: err.Error()}
	}

	first := errs[0]
	out := &MappingRuleError{Index: -1, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		out.Pos = positions[0]
	}
	if len(errs) > 1 {
		out.Message = fmt.Sprintf("%s (and %d more)", out.Message, len(errs)-1)
	}
	return out
}
