// Package substance provides the core domain model for GB 9685-2016
// appendix A positive-list substances. The Record aggregate holds everything
// known about one FCA-numbered substance across all appendix tables, and the
// Index aggregates the four lookup key spaces (FCA number, CAS number,
// compound CID, Chinese name) over the whole list.
package substance

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/turtacn/FCM-Registry/pkg/types/gb"
)

// Engine identifies the producer of persisted documents. It is stamped into
// every record so cached files can be traced back to the build that wrote
// them.
const Engine = "FCM-Registry: GB 9685-2016 appendix A"

// DateLayout is the timestamp format used in persisted records and the
// index document.
const DateLayout = "2006-01-02 15:04:05"

// Standard is the name of the regulation the registry serves.
const Standard = "GB 9685-2016"

// ─────────────────────────────────────────────────────────────────────────────
// Identifier
// ─────────────────────────────────────────────────────────────────────────────

// ID is the FCA identifier of a positive-list substance: the digits of the
// "FCAnnnn" code with leading zeros preserved, e.g. "0071". String identity
// keeps the identifier faithful to the source table; Int gives the numeric
// value for ordering and range scans.
type ID string

var fcaPattern = regexp.MustCompile(`FCA(\d+)`)

// ParseID extracts the FCA identifier from a source-table cell such as
// "FCA0071". It reports false when the cell carries no recognizable code.
func ParseID(cell string) (ID, bool) {
	m := fcaPattern.FindStringSubmatch(cell)
	if m == nil {
		return "", false
	}
	return ID(m[1]), true
}

// Int returns the numeric value of the identifier, 0 for malformed IDs.
func (id ID) Int() int {
	n, err := strconv.Atoi(string(id))
	if err != nil {
		return 0
	}
	return n
}

// Code renders the identifier in its canonical zero-padded form, "FCA0071".
func (id ID) Code() string {
	return fmt.Sprintf("FCA%04d", id.Int())
}

// FileName is the name of the per-record cache document, "FCA0071.json".
func (id ID) FileName() string {
	return fmt.Sprintf("FCA%04d.json", id.Int())
}

// ─────────────────────────────────────────────────────────────────────────────
// Record aggregate
// ─────────────────────────────────────────────────────────────────────────────

// Record is the aggregate for one positive-list substance. Rows sharing an
// FCA number are merged into a single Record: identity fields come from the
// first row seen, and each row contributes an Entry to the table it belongs
// to. Field order mirrors the persisted JSON document.
type Record struct {
	FCA ID     `json:"FCA"`
	CID *int64 `json:"cid"`

	// CAS holds the substance's CAS registry numbers: one for most
	// substances, several for mixtures, none when the source cell is
	// blank.
	CAS gb.Strings `json:"CAS"`

	// AuthorizedIn lists the descriptive names of every appendix table
	// that authorizes the substance, in first-seen order.
	AuthorizedIn []string `json:"authorized in"`

	Name string `json:"ChineseName"`

	// Tables maps each authorizing table's descriptive name to the
	// substance's entries in that table.
	Tables map[string]gb.Entries `json:"tables"`

	// Engine, CSFile, and Date trace the document to the build that
	// produced it.
	Engine string `json:"engine"`
	CSFile string `json:"csfile"`
	Date   string `json:"date"`

	// Total is the number of records in the registry the Record was
	// loaded from. Display-only, never persisted.
	Total int `json:"-"`
}

// NewRecord constructs a Record from the identity columns of its first row.
func NewRecord(id ID, name string, cas gb.Strings) *Record {
	return &Record{
		FCA:          id,
		CAS:          cas,
		AuthorizedIn: []string{},
		Name:         name,
		Tables:       make(map[string]gb.Entries),
		Engine:       Engine,
	}
}

// Merge adds one row's entry under the given table category. The category
// joins AuthorizedIn on first contact; repeat listings in the same table
// accumulate as additional entries.
func (r *Record) Merge(category string, entry gb.Entry) {
	found := false
	for _, c := range r.AuthorizedIn {
		if c == category {
			found = true
			break
		}
	}
	if !found {
		r.AuthorizedIn = append(r.AuthorizedIn, category)
	}
	t := r.Tables[category]
	t.Items = append(t.Items, entry)
	r.Tables[category] = t
}

// Entries returns the substance's entries for one table category.
func (r *Record) Entries(category string) []gb.Entry {
	return r.Tables[category].Items
}

// String implements fmt.Stringer with the registry's display form.
func (r *Record) String() string {
	return fmt.Sprintf("FCA %s of %d (%s)", string(r.FCA), r.Total, Standard)
}

// ─────────────────────────────────────────────────────────────────────────────
// Extended record
// ─────────────────────────────────────────────────────────────────────────────

// ExtendedRecord augments a Record with properties resolved from the
// external compound database at read time. The extension is never
// persisted; cached record documents stay exactly as ingested.
type ExtendedRecord struct {
	*Record

	// MolarMass is the compound's molecular weight in g/mol, nil when
	// the substance could not be resolved.
	MolarMass *float64 `json:"M,omitempty"`
}
