package provenance

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/roach88/harmonizer/internal/compiler"
	"github.com/roach88/harmonizer/internal/ir"
)

// sealRules writes doc to path with the self-referential size and MD5 of
// every "transformation/mapping" group naming path. The pair is computed
// over the file as written with placeholders 0 and "" in place.
func sealRules(doc *ir.RuleDocument, path string) (int, error) {
	name := filepath.Base(path)
	var sealed []struct {
		t   *ir.RemoteTransformation
		idx int
	}
	for i := range doc.Transformations {
		t := &doc.Transformations[i]
		groups, _, _ := scan(t)
		for _, g := range groups {
			if g.Category != ir.CategoryMapping || g.Name != name {
				continue
			}
			if setFacts(t, g.Index, 0, "") {
				sealed = append(sealed, struct {
					t   *ir.RemoteTransformation
					idx int
				}{t, g.Index})
			}
		}
	}

	if err := writeRules(path, doc); err != nil {
		return 0, err
	}
	if len(sealed) == 0 {
		return 0, nil
	}

	sum, size, err := MD5File(path)
	if err != nil {
		return 0, err
	}
	for _, s := range sealed {
		setFacts(s.t, s.idx, size, sum)
	}
	if err := writeRules(path, doc); err != nil {
		return 0, err
	}
	return len(sealed), nil
}

// Refresher recomputes reference_file sizes and MD5 sums in a rule
// document without harmonizing.
type Refresher struct {
	log zerolog.Logger
}

// NewRefresher creates a refresher.
func NewRefresher(log zerolog.Logger) *Refresher {
	return &Refresher{log: log}
}

// RefreshResult summarizes a refresh.
type RefreshResult struct {
	// Updated counts groups whose size and MD5 were recomputed.
	Updated int
	// Sealed counts self-referential groups.
	Sealed int
	// Unresolved lists file names that could not be found.
	Unresolved []string
}

// Refresh updates every reference_file group of the document at
// rulesPath. A group is matched to one of artifacts by file name and
// category; failing that, its file name is looked up next to the rule
// document. Groups describing the document itself are sealed last. Groups
// that resolve to nothing are left untouched.
func (r *Refresher) Refresh(rulesPath string, artifacts []Artifact) (*RefreshResult, error) {
	data, err := os.ReadFile(rulesPath)
	if err != nil {
		return nil, fmt.Errorf("refresh %s: %w", rulesPath, err)
	}
	doc, err := compiler.DecodeDocument(data, rulesPath)
	if err != nil {
		return nil, err
	}

	self := filepath.Base(rulesPath)
	dir := filepath.Dir(rulesPath)
	res := &RefreshResult{}
	for i := range doc.Transformations {
		t := &doc.Transformations[i]
		groups, _, _ := scan(t)
		for _, g := range groups {
			if g.Category == ir.CategoryMapping && g.Name == self {
				continue
			}
			a, ok := r.resolve(g, artifacts, dir)
			if !ok {
				res.Unresolved = append(res.Unresolved, g.Name)
				r.log.Warn().
					Str("transformation", t.Name).
					Int("type_group_index", g.Index).
					Str("file_name", g.Name).
					Msg("reference file not found, left unchanged")
				continue
			}
			if setFacts(t, g.Index, a.Size, a.MD5) {
				res.Updated++
			}
		}
	}

	sealed, err := sealRules(doc, rulesPath)
	if err != nil {
		return nil, err
	}
	res.Sealed = sealed
	r.log.Info().
		Str("rules", rulesPath).
		Int("updated", res.Updated).
		Int("sealed", res.Sealed).
		Msg("reference files refreshed")
	return res, nil
}

func (r *Refresher) resolve(g refGroup, artifacts []Artifact, dir string) (Artifact, bool) {
	for _, a := range artifacts {
		if a.Name == g.Name && a.Category == g.Category {
			return a, true
		}
	}
	if g.Name == "" {
		return Artifact{}, false
	}
	a, err := FileArtifact(g.Category, filepath.Join(dir, g.Name), "")
	if err != nil {
		return Artifact{}, false
	}
	return a, true
}
