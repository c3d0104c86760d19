package harness

import (
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/harmonizer/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

func assertNodeCount(ds *ir.HarmonizedDataset, a Assertion) error {
	if got := ds.Count(a.Node); got != a.Count {
		return &AssertionError{
			Type:     AssertNodeCount,
			Expected: fmt.Sprintf("%d %s records", a.Count, a.Node),
			Actual:   fmt.Sprintf("%d", got),
		}
	}
	return nil
}

// assertRecordContains passes when some record of the node matches Where
// exactly and Expect as a subset.
func assertRecordContains(ds *ir.HarmonizedDataset, a Assertion) error {
	selected := 0
	var diffs []string
	for _, rec := range ds.Records(a.Node) {
		if !matchProperties(rec, a.Where) {
			continue
		}
		selected++
		if matchProperties(rec, a.Expect) {
			return nil
		}
		diffs = append(diffs, cmp.Diff(normalizeMap(a.Expect), subset(rec, a.Expect)))
	}

	actual := fmt.Sprintf("no %s record matches %v", a.Node, a.Where)
	if selected > 0 {
		actual = fmt.Sprintf("%d matching records differ (-want +got):\n%s", selected, strings.Join(diffs, "\n"))
	}
	return &AssertionError{
		Type:     AssertRecordContains,
		Expected: fmt.Sprintf("%s record where %v with %v", a.Node, a.Where, a.Expect),
		Actual:   actual,
	}
}

func assertUniqueIDs(ds *ir.HarmonizedDataset, a Assertion) error {
	prop := ir.IDProperty(a.Node)
	seen := make(map[string]int)
	var dups []string
	for i, rec := range ds.Records(a.Node) {
		v, _ := rec.Get(prop)
		id := ir.Stringify(v)
		if ir.IsBlank(v) {
			dups = append(dups, fmt.Sprintf("[%d] blank", i))
			continue
		}
		if first, ok := seen[id]; ok {
			dups = append(dups, fmt.Sprintf("[%d] repeats [%d] %s", i, first, id))
			continue
		}
		seen[id] = i
	}
	if len(dups) > 0 {
		return &AssertionError{
			Type:     AssertUniqueIDs,
			Expected: fmt.Sprintf("distinct %s values", prop),
			Actual:   strings.Join(dups, ", "),
		}
	}
	return nil
}

func assertLinked(ds *ir.HarmonizedDataset, a Assertion) error {
	parent := ir.ParentOf(a.Node)
	if parent == "" {
		return &AssertionError{
			Type:     AssertLinked,
			Expected: "a node with a parent",
			Actual:   a.Node + " has none",
		}
	}
	prop := ir.LinkProperty(parent)
	var missing []string
	for i, rec := range ds.Records(a.Node) {
		if v, _ := rec.Get(prop); ir.IsBlank(v) {
			missing = append(missing, fmt.Sprintf("[%d]", i))
		}
	}
	if len(missing) > 0 {
		return &AssertionError{
			Type:     AssertLinked,
			Expected: fmt.Sprintf("every %s record to carry %s", a.Node, prop),
			Actual:   "missing on " + strings.Join(missing, ", "),
		}
	}
	return nil
}

func assertValid(result *Result) error {
	if len(result.Validation) > 0 {
		return &AssertionError{
			Type:     AssertValid,
			Expected: "no validation errors",
			Actual:   strings.Join(result.ValidationMessages(), "; "),
		}
	}
	return nil
}

func assertInvalid(result *Result, a Assertion) error {
	msgs := result.ValidationMessages()
	for _, m := range msgs {
		if strings.Contains(m, a.Message) {
			return nil
		}
	}
	actual := "no validation errors"
	if len(msgs) > 0 {
		actual = strings.Join(msgs, "; ")
	}
	return &AssertionError{
		Type:     AssertInvalid,
		Expected: fmt.Sprintf("a validation error containing %q", a.Message),
		Actual:   actual,
	}
}

// matchProperties reports whether rec carries every expected value.
func matchProperties(rec *ir.OutputRecord, expected map[string]any) bool {
	for k, want := range expected {
		got, ok := rec.Get(k)
		if !ok && want != nil {
			return false
		}
		if !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

// valuesEqual compares a record value with a YAML-decoded expectation.
// Numbers compare by value regardless of Go type.
func valuesEqual(actual, expected any) bool {
	return cmp.Equal(ir.Normalize(actual), ir.Normalize(expected))
}

func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = ir.Normalize(v)
	}
	return out
}

func subset(rec *ir.OutputRecord, keys map[string]any) map[string]any {
	out := make(map[string]any, len(keys))
	for k := range keys {
		if v, ok := rec.Get(k); ok {
			out[k] = ir.Normalize(v)
		}
	}
	return out
}

// EvaluateAssertions runs all assertions against a result.
// Returns failure messages in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertNodeCount:
			err = assertNodeCount(result.Dataset, a)
		case AssertRecordContains:
			err = assertRecordContains(result.Dataset, a)
		case AssertUniqueIDs:
			err = assertUniqueIDs(result.Dataset, a)
		case AssertLinked:
			err = assertLinked(result.Dataset, a)
		case AssertValid:
			err = assertValid(result)
		case AssertInvalid:
			err = assertInvalid(result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}
