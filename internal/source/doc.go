// Package source reads raw study data into ir.SourceRecords.
//
// Adapters are chosen by the shape of the configured source path:
//   - a directory: every *.json file, sorted by name, is one record
//   - .csv, .tsv, .txt: delimited text with a header row
//   - .xlsx, .xlsm: one sheet, or every sheet in workbook order
//   - .json: an object (one record) or an array of objects
//
// Every adapter yields records in a stable order so seeded identifier
// generation is reproducible, and reports the distinct files it read.
package source
