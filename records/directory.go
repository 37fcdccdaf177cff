package records

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/finrag/core"
	"github.com/xuri/excelize/v2"
)

// LoadDirectory reads one .xlsx or .csv file per table from dir. Files are
// matched to tables by base name, e.g. payments.csv or general_ledger.xlsx.
// A workbook file contributes its first sheet.
func LoadDirectory(dir string) (*core.RecordSet, error) {
	logger := slog.Default().With("component", "records")

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var tables []Table
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		base := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if _, ok := specFor(base); !ok {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		var rows [][]string
		switch ext {
		case ".csv":
			rows, err = readCSV(path)
		case ".xlsx":
			rows, err = readFirstSheet(path)
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		logger.Debug("read table file", "path", path, "rows", len(rows))
		tables = append(tables, tableFromRows(base, rows))
	}

	return FromTables(tables...)
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r.ReadAll()
}

func readFirstSheet(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	return f.GetRows(sheets[0])
}

// WriteDirectory writes each table of set to dir as <table>.csv.
func WriteDirectory(dir string, set *core.RecordSet) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, spec := range specs {
		if err := writeCSV(filepath.Join(dir, spec.name+".csv"), spec, rowsFor(spec, set)); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(path string, spec *tableSpec, rows [][]any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(spec.header()); err != nil {
		return err
	}
	record := make([]string, len(spec.columns))
	for _, values := range rows {
		for i, v := range values {
			record[i] = fmt.Sprint(v)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
