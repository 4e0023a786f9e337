// Package gb defines the wire-level value types shared by the registry
// server, the Go SDK, and the persisted JSON documents for the GB 9685-2016
// appendix A positive list.
//
// The upstream table is irregular: a cell may hold nothing, one value, or
// several. The types here preserve that shape on the wire (null, bare
// scalar, or array) while giving Go code a single concrete representation.
package gb

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Number is a JSON number that remembers whether it was written with a
// decimal point. Counts and group numbers stay integers on the wire while
// measured limits stay floats, even when the fractional part is zero.
type Number struct {
	i       int64
	f       float64
	decimal bool
}

// Int constructs an integer Number.
func Int(v int64) Number {
	return Number{i: v}
}

// Float constructs a decimal Number. It always serializes with a decimal
// point, so Float(5000) marshals as 5000.0.
func Float(v float64) Number {
	return Number{f: v, decimal: true}
}

// ParseNumber converts a numeric token to a Number. Tokens containing a
// decimal point or an exponent become floats, all others integers.
func ParseNumber(s string) (Number, error) {
	if strings.ContainsAny(s, ".eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Number{}, fmt.Errorf("invalid number %q: %w", s, err)
		}
		return Float(f), nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Number{}, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return Int(v), nil
}

// IsFloat reports whether the Number carries a decimal value.
func (n Number) IsFloat() bool {
	return n.decimal
}

// Float64 returns the value as a float64 regardless of lexical class.
func (n Number) Float64() float64 {
	if n.decimal {
		return n.f
	}
	return float64(n.i)
}

// String renders the Number exactly as it appears on the wire.
func (n Number) String() string {
	if !n.decimal {
		return strconv.FormatInt(n.i, 10)
	}
	s := strconv.FormatFloat(n.f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalJSON implements json.Unmarshaler. The lexical form of the raw
// token decides the class: a decimal point or exponent makes a float.
func (n *Number) UnmarshalJSON(data []byte) error {
	parsed, err := ParseNumber(string(data))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// Limit is an optional migration or residue limit. A cell may specify no
// limit, one value, or several values for different test conditions; the
// wire form is null, a bare number, or an array respectively.
type Limit struct {
	Values []Number
}

// LimitOf constructs a Limit from the given values.
func LimitOf(values ...Number) Limit {
	return Limit{Values: values}
}

// None reports whether no limit is specified.
func (l Limit) None() bool {
	return len(l.Values) == 0
}

// Scalar returns the single value when exactly one is present.
func (l Limit) Scalar() (Number, bool) {
	if len(l.Values) == 1 {
		return l.Values[0], true
	}
	return Number{}, false
}

// MarshalJSON implements json.Marshaler with singleton collapse.
func (l Limit) MarshalJSON() ([]byte, error) {
	switch len(l.Values) {
	case 0:
		return []byte("null"), nil
	case 1:
		return l.Values[0].MarshalJSON()
	default:
		return json.Marshal(l.Values)
	}
}

// UnmarshalJSON implements json.Unmarshaler for all three wire forms.
func (l *Limit) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		l.Values = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &l.Values)
	}
	var n Number
	if err := n.UnmarshalJSON(data); err != nil {
		return err
	}
	l.Values = []Number{n}
	return nil
}

// Strings is a string-or-list cell. CAS cells in particular hold one
// registry number for most substances and a semicolon-separated set for
// mixtures; a single value stays a bare string on the wire.
type Strings struct {
	Values []string
}

// StringsOf constructs a Strings from the given values.
func StringsOf(values ...string) Strings {
	return Strings{Values: values}
}

// First returns the first value, or "" when none are present. Lookup paths
// that need one representative key (CID resolution, containment checks)
// use the first listed value.
func (s Strings) First() string {
	if len(s.Values) > 0 {
		return s.Values[0]
	}
	return ""
}

// MarshalJSON implements json.Marshaler. No values marshal as the empty
// string, matching source cells that are present but blank.
func (s Strings) MarshalJSON() ([]byte, error) {
	switch len(s.Values) {
	case 0:
		return []byte(`""`), nil
	case 1:
		return json.Marshal(s.Values[0])
	default:
		return json.Marshal(s.Values)
	}
}

// UnmarshalJSON implements json.Unmarshaler. A bare empty string
// canonicalizes to no values.
func (s *Strings) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &s.Values)
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v == "" {
		s.Values = nil
		return nil
	}
	s.Values = []string{v}
	return nil
}

// Entry is one positive-list row's usage data: the authorized material
// classes, concentration cap, migration limits, and restriction columns,
// tagged with the appendix table it came from.
type Entry struct {
	// Materials is never nil; a blank usage cell yields an empty slice.
	Materials []string `json:"materials"`

	// CP0Max is the maximum use level converted from percent w/w to
	// mg/kg, nil when the usage cell gives no percentage.
	CP0Max *Number `json:"CP0max"`

	// QMSMLRaw preserves the full SML/QM column text before parsing.
	QMSMLRaw string `json:"QMSMLraw"`

	SML  Limit `json:"SML"`
	QM   Limit `json:"QM"`
	DL   Limit `json:"DL"`
	SMLT Limit `json:"SMLT"`

	// SMLTRaw holds the total-migration column text when no numeric
	// value could be extracted from it.
	SMLTRaw string `json:"SMLTraw"`

	SMLTComment string `json:"SMLTcomment"`
	Comment1    string `json:"comment1"`
	Comment2    string `json:"comment2"`

	// Category is the descriptive name of the appendix table the entry
	// came from, e.g. "plastics" for table A1.
	Category string `json:"table_id"`
}

// Entries is the per-table collection of a record's rows. A substance
// listed once in a table stays a bare object on the wire; repeat listings
// become an array.
type Entries struct {
	Items []Entry
}

// MarshalJSON implements json.Marshaler with singleton collapse.
func (e Entries) MarshalJSON() ([]byte, error) {
	switch len(e.Items) {
	case 0:
		return []byte("null"), nil
	case 1:
		return json.Marshal(e.Items[0])
	default:
		return json.Marshal(e.Items)
	}
}

// UnmarshalJSON implements json.Unmarshaler for both wire forms.
func (e *Entries) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		e.Items = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &e.Items)
	}
	var one Entry
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	e.Items = []Entry{one}
	return nil
}
