package ingestion

import (
	"strings"

	"github.com/turtacn/FCM-Registry/internal/domain/substance"
	"github.com/turtacn/FCM-Registry/pkg/errors"
	"github.com/turtacn/FCM-Registry/pkg/types/gb"
)

// MinColumns is the number of columns a source row must carry to be
// ingested: table code, FCA code, Chinese name, CAS, usage, limits, total
// migration, SML(T) comment, group number, other requirements.
const MinColumns = 10

// RowResult is one normalized source row: the record identity keys plus the
// entry to merge into the record's table.
type RowResult struct {
	ID       substance.ID
	Name     string
	CAS      gb.Strings
	Category string
	Entry    gb.Entry
}

// ParseCASCell parses the CAS column. A semicolon separates the registry
// numbers of mixture components; without one the trimmed cell is the single
// number, possibly empty.
func ParseCASCell(cell string) gb.Strings {
	if strings.Contains(cell, ";") {
		return gb.Strings{Values: splitTrim(cell, ";")}
	}
	if cell == "" {
		return gb.Strings{}
	}
	return gb.StringsOf(cell)
}

// Normalize converts one raw source row into a RowResult. Structural
// rejects (short rows, unrecognizable FCA codes) return an
// ErrCodeRowSkipped error; the caller logs them and continues with the next
// row.
func Normalize(row []string) (*RowResult, error) {
	if len(row) < MinColumns {
		return nil, errors.Newf(errors.ErrCodeRowSkipped,
			"row has %d columns, need %d", len(row), MinColumns)
	}

	category := substance.CategoryName(strings.TrimSpace(row[0]))

	id, ok := substance.ParseID(strings.TrimSpace(row[1]))
	if !ok {
		return nil, errors.Newf(errors.ErrCodeRowSkipped,
			"no FCA code in %q", strings.TrimSpace(row[1]))
	}

	name := strings.TrimSpace(row[2])
	cas := ParseCASCell(strings.TrimSpace(row[3]))

	// Limit statements that wrapped into the usage column migrate back to
	// the front of the limit column.
	usage, rem := SplitUsageCell(strings.TrimSpace(row[4]))
	materials, cp0max := ParseUsageCell(usage)

	limitCell := rem + strings.TrimSpace(row[5])
	sml, qm, dl := ParseLimitCell(limitCell)

	smlt, smltRaw := ParseTemperatureCell(strings.TrimSpace(row[6]))

	// A total-migration value implies the same specific limit when the
	// limit column gave none.
	if !smlt.None() && sml.None() {
		sml = smlt
	}

	entry := gb.Entry{
		Materials:   materials,
		CP0Max:      cp0max,
		QMSMLRaw:    limitCell,
		SML:         sml,
		QM:          qm,
		DL:          dl,
		SMLT:        smlt,
		SMLTRaw:     smltRaw,
		SMLTComment: strings.TrimSpace(row[7]),
		Comment1:    strings.TrimSpace(row[8]),
		Comment2:    strings.TrimSpace(row[9]),
		Category:    category,
	}

	return &RowResult{
		ID:       id,
		Name:     name,
		CAS:      cas,
		Category: category,
		Entry:    entry,
	}, nil
}
