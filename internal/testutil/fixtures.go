package testutil

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

// sourceHeader mirrors the ten column titles of the GB 9685-2016 appendix A
// source table. The ingestion pass discards the header row, so only its
// presence matters.
var sourceHeader = []string{
	"表格", "FCA编号", "中文名称", "CAS号",
	"使用范围和最大使用量/%", "SML/QM/(mg/kg)", "SML(T)/(mg/kg)",
	"SML(T)备注", "分组编号", "其他要求",
}

// Row builds a ten-column source row from the cells tests care about; the
// three trailing comment columns stay empty.
func Row(table, fca, name, cas, usage, limits, smlt string) []string {
	return []string{table, fca, name, cas, usage, limits, smlt, "", "", ""}
}

// WriteCSV writes a source table with the standard header and the given
// rows into a fresh temp directory and returns the file path.
func WriteCSV(t *testing.T, rows ...[]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "GB9685-2016.csv")
	WriteCSVFile(t, path, rows...)
	return path
}

// WriteCSVFile writes a source table to path, replacing any previous
// content. Refresh tests overwrite the table between rebuilds.
func WriteCSVFile(t *testing.T, path string, rows ...[]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create source table: %v", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(sourceHeader); err != nil {
		t.Fatalf("failed to write header: %v", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			t.Fatalf("failed to write row: %v", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		t.Fatalf("failed to flush source table: %v", err)
	}
}
