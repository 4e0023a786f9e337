package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/turtacn/FCM-Registry/internal/domain/substance"
)

// printJSON writes v to w as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newRecordTable returns a table writer with the registry's list layout.
func newRecordTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	return table
}

// renderRecordTable writes one row per record in the fixed column layout
// shared by every listing command.
func renderRecordTable(w io.Writer, records []*substance.Record) {
	table := newRecordTable(w, []string{"FCA", "Chinese Name", "CAS", "CID", "Tables"})
	for _, rec := range records {
		table.Append(recordRow(rec))
	}
	table.Render()
}

// renderExtendedTable is renderRecordTable plus the resolved molar mass.
func renderExtendedTable(w io.Writer, records []*substance.ExtendedRecord) {
	table := newRecordTable(w, []string{"FCA", "Chinese Name", "CAS", "CID", "M (g/mol)", "Tables"})
	for _, ext := range records {
		rec := ext.Record
		mass := "-"
		if ext.MolarMass != nil {
			mass = strconv.FormatFloat(*ext.MolarMass, 'f', -1, 64)
		}
		table.Append([]string{
			rec.FCA.Code(),
			truncateString(rec.Name, 32),
			joinValues(rec.CAS.Values),
			formatCID(rec.CID),
			mass,
			tableSummary(rec),
		})
	}
	table.Render()
}

func recordRow(rec *substance.Record) []string {
	return []string{
		rec.FCA.Code(),
		truncateString(rec.Name, 32),
		joinValues(rec.CAS.Values),
		formatCID(rec.CID),
		tableSummary(rec),
	}
}

// renderRecordDetail writes the full text view of one record. A non-nil
// molar mass adds the resolved property line.
func renderRecordDetail(w io.Writer, rec *substance.Record, molarMass *float64) {
	fmt.Fprintln(w, color.GreenString(rec.String()))
	fmt.Fprintf(w, "  Name:          %s\n", rec.Name)
	fmt.Fprintf(w, "  CAS:           %s\n", joinValues(rec.CAS.Values))
	fmt.Fprintf(w, "  CID:           %s\n", formatCID(rec.CID))
	if molarMass != nil {
		fmt.Fprintf(w, "  Molar mass:    %.2f g/mol\n", *molarMass)
	}
	fmt.Fprintf(w, "  Authorized in: %s\n", joinValues(rec.AuthorizedIn))
	fmt.Fprintf(w, "  Entries:       %s\n", tableSummary(rec))
}

// tableSummary lists the per-table entry counts, e.g. "plastics (2),
// coatings (1)".
func tableSummary(rec *substance.Record) string {
	if len(rec.AuthorizedIn) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(rec.AuthorizedIn))
	for _, cat := range rec.AuthorizedIn {
		parts = append(parts, fmt.Sprintf("%s (%d)", cat, len(rec.Entries(cat))))
	}
	return strings.Join(parts, ", ")
}

func formatCID(cid *int64) string {
	if cid == nil {
		return "-"
	}
	return strconv.FormatInt(*cid, 10)
}

func joinValues(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, "; ")
}

// truncateString shortens s to maxLen runes, ellipsis included.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
