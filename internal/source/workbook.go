package source

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/roach88/harmonizer/internal/ir"
)

// OpenWorkbook reads a spreadsheet. With sheet set only that sheet is
// read; otherwise every sheet in workbook order. The first row of each
// sheet is its header.
func OpenWorkbook(path, sheet string) (Source, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if sheet != "" {
		if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
			return nil, fmt.Errorf("open workbook %s: sheet %q not found", path, sheet)
		}
		sheets = []string{sheet}
	}

	src := &listSource{files: []string{path}}
	for _, name := range sheets {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q of %s: %w", name, path, err)
		}
		if len(rows) == 0 {
			continue
		}
		header := cleanHeader(rows[0])
		for i, cells := range rows[1:] {
			origin := ir.Origin{File: path, Sheet: name, Row: i + 2}
			if rec := rowRecord(header, cells, origin); rec != nil {
				src.records = append(src.records, rec)
			}
		}
	}
	return src, nil
}
