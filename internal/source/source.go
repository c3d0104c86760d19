package source

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/harmonizer/internal/ir"
)

// Source iterates the records of one transformation's input.
//
// Implements engine.RecordIterator and engine.FileLister.
type Source interface {
	Next() (*ir.SourceRecord, error)
	Files() []string
	Close() error
}

// Open selects an adapter for path. sheet restricts a workbook to one sheet.
func Open(path, sheet string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	if info.IsDir() {
		return OpenJSONDir(path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return OpenDelimited(path, ',')
	case ".tsv":
		return OpenDelimited(path, '\t')
	case ".xlsx", ".xlsm":
		return OpenWorkbook(path, sheet)
	case ".json":
		return OpenJSONFile(path)
	default:
		return nil, fmt.Errorf("open source: unsupported file type %q", filepath.Ext(path))
	}
}

// listSource serves records that were read up front.
type listSource struct {
	records []*ir.SourceRecord
	files   []string
	pos     int
}

func (s *listSource) Next() (*ir.SourceRecord, error) {
	if s.pos >= len(s.records) {
		return nil, io.EOF
	}
	rec := s.records[s.pos]
	s.pos++
	return rec, nil
}

func (s *listSource) Files() []string {
	return append([]string(nil), s.files...)
}

func (s *listSource) Close() error {
	return nil
}

// rowRecord builds a record from a header and one row of cells. Cells
// beyond the header are ignored; missing cells are absent fields. It
// returns nil for a row whose every cell is blank.
func rowRecord(header, row []string, origin ir.Origin) *ir.SourceRecord {
	blank := true
	rec := ir.NewSourceRecord(origin)
	for i, name := range header {
		if name == "" || i >= len(row) {
			continue
		}
		cell := row[i]
		if strings.TrimSpace(cell) != "" {
			blank = false
		}
		rec.Set(name, cell)
	}
	if blank {
		return nil
	}
	return rec
}

func cleanHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		out[i] = strings.TrimSpace(h)
	}
	return out
}
