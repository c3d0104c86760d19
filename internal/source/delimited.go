package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/roach88/harmonizer/internal/ir"
)

// OpenDelimited reads a delimited text file whose first row is the header.
// Row numbers in record origins count the header as row 1.
func OpenDelimited(path string, delim rune) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open delimited source: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return &listSource{files: []string{path}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	header = cleanHeader(header)

	src := &listSource{files: []string{path}}
	for row := 2; ; row++ {
		cells, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if rec := rowRecord(header, cells, ir.Origin{File: path, Row: row}); rec != nil {
			src.records = append(src.records, rec)
		}
	}
	return src, nil
}
