package substance

import (
	"sort"
	"strconv"
	"time"
)

// Index is the global lookup table over the positive list. It is rebuilt in
// full on every refresh and persisted as a single JSON document next to the
// per-record files. Field order mirrors the persisted document.
type Index struct {
	// Date is the build timestamp in DateLayout form. Every record
	// written by the same refresh carries the same value.
	Date string `json:"index_date"`

	// CSVFile is the base name of the source table the index was built
	// from.
	CSVFile string `json:"csv_file"`

	// RefreshID is the unique identifier of the refresh run that built
	// the index.
	RefreshID string `json:"refresh_id"`

	// Order lists all record IDs in ascending numeric order. It defines
	// iteration order and the bounds of range scans.
	Order []ID `json:"order"`

	// ByCAS maps each CAS registry number to the records listing it.
	// Distinct substances can share a CAS number, so values are slices.
	ByCAS map[string][]ID `json:"CAS"`

	// ByCID maps a resolved compound CID (decimal string) to one record.
	// When several records resolve to the same compound, the one latest
	// in Order wins.
	ByCID map[string]ID `json:"bycid"`

	// ByFCA maps each record ID to itself. The map doubles as the
	// existence set for FCA lookups; every value has exactly one element.
	ByFCA map[ID][]ID `json:"FCA"`

	// ByName maps each Chinese name to the records carrying it.
	ByName map[string][]ID `json:"ChineseName"`
}

// NewIndex starts an empty index for a fresh build over the named source
// file.
func NewIndex(csvFile, refreshID string) *Index {
	return &Index{
		Date:      time.Now().Format(DateLayout),
		CSVFile:   csvFile,
		RefreshID: refreshID,
		Order:     []ID{},
		ByCAS:     make(map[string][]ID),
		ByCID:     make(map[string]ID),
		ByFCA:     make(map[ID][]ID),
		ByName:    make(map[string][]ID),
	}
}

// appendUnique appends id unless the slice already holds it. Key spaces stay
// duplicate-free even though multi-table substances register once per row.
func appendUnique(ids []ID, id ID) []ID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

// Register adds one source row's keys to the FCA, CAS, and Chinese-name
// spaces. Empty CAS numbers are not indexed.
func (i *Index) Register(id ID, name string, cas []string) {
	i.ByFCA[id] = appendUnique(i.ByFCA[id], id)
	if name != "" {
		i.ByName[name] = appendUnique(i.ByName[name], id)
	}
	for _, c := range cas {
		if c == "" {
			continue
		}
		i.ByCAS[c] = appendUnique(i.ByCAS[c], id)
	}
}

// SetOrder fixes the iteration order to the given IDs sorted ascending by
// numeric value.
func (i *Index) SetOrder(ids []ID) {
	sorted := make([]ID, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(a, b int) bool { return sorted[a].Int() < sorted[b].Int() })
	i.Order = sorted
}

// SetCID maps a resolved compound CID to a record. A repeat CID overwrites,
// so with ascending insertion the record latest in Order keeps the key.
func (i *Index) SetCID(cid int64, id ID) {
	i.ByCID[strconv.FormatInt(cid, 10)] = id
}

// IDForCID returns the record mapped to a compound CID.
func (i *Index) IDForCID(cid int64) (ID, bool) {
	id, ok := i.ByCID[strconv.FormatInt(cid, 10)]
	return id, ok
}

// IDsForCAS returns the records listing a CAS number, nil when none do.
func (i *Index) IDsForCAS(cas string) []ID {
	return i.ByCAS[cas]
}

// IDsForName returns the records carrying a Chinese name, nil when none do.
func (i *Index) IDsForName(name string) []ID {
	return i.ByName[name]
}

// Has reports whether the index knows the given record ID.
func (i *Index) Has(id ID) bool {
	_, ok := i.ByFCA[id]
	return ok
}

// Len is the number of records in the index.
func (i *Index) Len() int {
	return len(i.Order)
}

// Bounds returns the smallest and largest FCA numbers in the index. ok is
// false for an empty index.
func (i *Index) Bounds() (min, max int, ok bool) {
	if len(i.Order) == 0 {
		return 0, 0, false
	}
	return i.Order[0].Int(), i.Order[len(i.Order)-1].Int(), true
}

// Between returns the IDs whose numeric value lies in the half-open
// interval [start, stop), in ascending order.
func (i *Index) Between(start, stop int) []ID {
	var out []ID
	for _, id := range i.Order {
		if n := id.Int(); n >= start && n < stop {
			out = append(out, id)
		}
	}
	return out
}
