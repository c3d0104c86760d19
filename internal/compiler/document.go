package compiler

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/harmonizer/internal/ir"
)

//go:embed rules.cue
var rulesSchema string

// DecodeDocument checks the shape of a rule document and decodes it.
// Documents whose location ends in .yaml or .yml are read as YAML; all
// others as JSON.
func DecodeDocument(data []byte, location string) (*ir.RuleDocument, error) {
	if isYAML(location) {
		converted, err := yamlToJSON(data)
		if err != nil {
			return nil, &MappingRuleError{Index: -1, Message: fmt.Sprintf("parse %s: %v", location, err)}
		}
		data = converted
	}
	if err := CheckShape(data, location); err != nil {
		return nil, err
	}
	doc, err := ir.DecodeRuleDocument(data)
	if err != nil {
		return nil, &MappingRuleError{Index: -1, Message: err.Error()}
	}
	return doc, nil
}

// CheckShape validates JSON rule document bytes against #RuleDocument.
func CheckShape(data []byte, filename string) error {
	ctx := cuecontext.New()
	schemaVal := ctx.CompileString(rulesSchema, cue.Filename("rules.cue"))
	if err := schemaVal.Err(); err != nil {
		return fmt.Errorf("compile rule shape: %w", err)
	}
	def := schemaVal.LookupPath(cue.ParsePath("#RuleDocument"))

	dataVal := ctx.CompileBytes(data, cue.Filename(filename))
	if err := dataVal.Err(); err != nil {
		return formatCUEError(err)
	}
	if err := def.Unify(dataVal).Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}
	return nil
}

func isYAML(location string) bool {
	ext := strings.ToLower(path.Ext(strings.SplitN(location, "?", 2)[0]))
	return ext == ".yaml" || ext == ".yml"
}

func yamlToJSON(data []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}
