// Package ingestion turns the GB 9685-2016 appendix A source table into
// merged substance records and the global lookup index. The parsing rules
// here follow the conventions of the published table: limits are written as
// "value(condition)" statements, usage cells append a percentage cap after
// a colon, and either column 5 or column 6 may carry the limit statements
// when the source line wrapped.
package ingestion

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/turtacn/FCM-Registry/pkg/types/gb"
)

var (
	// statementPattern matches one limit statement at the start of a
	// semicolon-separated fragment: a value (number or "ND") directly
	// followed by a parenthesized condition.
	statementPattern = regexp.MustCompile(`^(\d*\.?\d+|ND)\s*\((.+?)\)`)

	// dlPattern finds an explicit detection limit inside a condition.
	dlPattern = regexp.MustCompile(`DL=([\d.]+)mg/kg`)

	// usageSplitPattern locates the first limit statement inside the
	// usage column: a value followed by a bracketed or parenthesized
	// condition naming a limit keyword. Text from that point on belongs
	// to the limit column, it only ended up in column 5 because the
	// source line wrapped.
	usageSplitPattern = regexp.MustCompile(
		`(ND|\d+(?:\.\d+)?)(\([^)]*(SML|DL|QM|SML\(T\))[^)]*\)|\[[^\]]*(SML|DL|QM|SML\(T\))[^\]]*\])`)
)

// extractor holds the compiled patterns that pull numeric values written
// ahead of a keyword out of free text.
type extractor struct {
	annotated *regexp.Regexp
	loose     *regexp.Regexp
}

func newExtractor(keyword string) extractor {
	kw := regexp.QuoteMeta(keyword)
	return extractor{
		// "0.6 (SML)" form: the condition is parenthesized and
		// mentions the keyword anywhere inside.
		annotated: regexp.MustCompile(`(?i)([+-]?\d*\.?\d+)\s*\(([^)]*` + kw + `[^)]*)\)`),
		// "3.4: SML" form: any punctuation between value and keyword.
		loose: regexp.MustCompile(`(?i)([+-]?\d*\.?\d+)\s*\W*\s*` + kw + `\b`),
	}
}

var extractors = map[string]extractor{
	"SML": newExtractor("SML"),
	"QM":  newExtractor("QM"),
	"DL":  newExtractor("DL"),
}

// ExtractAnnotated collects the numeric values written directly before a
// parenthesized mention of keyword, falling back to ExtractBeforeKeyword
// when no parenthesized form is present. Matching is case-insensitive.
func ExtractAnnotated(text, keyword string) gb.Limit {
	ex, ok := extractors[keyword]
	if !ok {
		ex = newExtractor(keyword)
	}
	var values []gb.Number
	for _, m := range ex.annotated.FindAllStringSubmatch(text, -1) {
		n, err := gb.ParseNumber(m[1])
		if err != nil {
			continue
		}
		values = append(values, n)
	}
	if len(values) == 0 {
		return extractLoose(ex, text)
	}
	return gb.LimitOf(values...)
}

// ExtractBeforeKeyword collects the numeric values immediately preceding
// keyword with optional punctuation in between, e.g. "4.5: SML".
func ExtractBeforeKeyword(text, keyword string) gb.Limit {
	ex, ok := extractors[keyword]
	if !ok {
		ex = newExtractor(keyword)
	}
	return extractLoose(ex, text)
}

func extractLoose(ex extractor, text string) gb.Limit {
	var values []gb.Number
	for _, m := range ex.loose.FindAllStringSubmatch(text, -1) {
		n, err := gb.ParseNumber(m[1])
		if err != nil {
			continue
		}
		values = append(values, n)
	}
	return gb.LimitOf(values...)
}

// SplitUsageCell splits the usage column at the first embedded limit
// statement. main is the true usage text; rem is the wrapped-over limit
// text to prepend to the limit column, empty when the cell is clean.
func SplitUsageCell(text string) (main, rem string) {
	loc := usageSplitPattern.FindStringIndex(text)
	if loc == nil {
		return strings.TrimSpace(text), ""
	}
	return strings.TrimSpace(text[:loc[0]]), strings.TrimSpace(text[loc[0]:])
}

// splitTrim splits s on sep, trims each piece, and drops empty pieces.
// The result is never nil.
func splitTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// ParseUsageCell parses the cleaned usage text into the authorized
// material classes and the optional maximum use level. A colon separates
// the class list from a percentage w/w, converted to mg/kg by multiplying
// by 1e4; without a colon the whole text is the class list.
func ParseUsageCell(text string) (materials []string, cp0max *gb.Number) {
	parts := strings.Split(text, ":")
	if len(parts) > 1 {
		materials = splitTrim(parts[0], ",")
		if pct, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64); err == nil {
			n := gb.Float(pct * 1e4)
			cp0max = &n
		}
		return materials, cp0max
	}
	return splitTrim(text, ","), nil
}

// ParseLimitCell parses the limit column into SML, QM, and DL limits.
//
// The cell is a semicolon-separated list of "value(condition)" statements.
// A condition containing ":SML" contributes the value to the SML list; one
// containing ":QM" sets QM, last occurrence winning; "DL=<n>mg/kg" inside
// any condition sets the detection limit. "ND" (not detectable) statements
// carry conditions but no numeric value. When a limit stays unset and its
// keyword appears anywhere in the cell, a second pass extracts values with
// the looser keyword patterns.
func ParseLimitCell(cell string) (sml, qm, dl gb.Limit) {
	var smlValues []gb.Number
	var qmValue, dlValue *gb.Number

	for _, stmt := range splitTrim(cell, ";") {
		stmt = strings.TrimRight(stmt, "或")
		m := statementPattern.FindStringSubmatch(stmt)
		if m == nil {
			continue
		}
		val, info := m[1], m[2]

		var num *gb.Number
		if !strings.EqualFold(val, "ND") {
			if n, err := gb.ParseNumber(val); err == nil {
				num = &n
			}
		}
		if strings.Contains(info, ":SML") && num != nil {
			smlValues = append(smlValues, *num)
		}
		if strings.Contains(info, ":QM") && num != nil {
			qmValue = num
		}
		if dm := dlPattern.FindStringSubmatch(info); dm != nil {
			if n, err := gb.ParseNumber(dm[1]); err == nil {
				dlValue = &n
			}
		}
	}

	sml = gb.LimitOf(smlValues...)
	if qmValue != nil {
		qm = gb.LimitOf(*qmValue)
	}
	if dlValue != nil {
		dl = gb.LimitOf(*dlValue)
	}

	// Second pass for statements the strict form missed.
	if sml.None() && strings.Contains(cell, "SML") {
		sml = ExtractAnnotated(cell, "SML")
	}
	if qm.None() && strings.Contains(cell, "QM") {
		qm = ExtractAnnotated(cell, "QM")
	}
	if dl.None() && strings.Contains(cell, "DL") {
		dl = ExtractAnnotated(cell, "DL")
	}
	return sml, qm, dl
}

// ParseTemperatureCell parses the total-migration column. A cell of
// semicolon-separated numeric tokens becomes the SMLT limit directly;
// otherwise the SML keyword patterns are tried, and if they also fail the
// raw text is returned so no information is lost.
func ParseTemperatureCell(cell string) (smlt gb.Limit, raw string) {
	if cell == "" {
		return gb.Limit{}, ""
	}
	parts := splitTrim(cell, ";")
	values := make([]gb.Number, 0, len(parts))
	allNumeric := len(parts) > 0
	for _, p := range parts {
		n, err := gb.ParseNumber(p)
		if err != nil {
			allNumeric = false
			break
		}
		values = append(values, n)
	}
	if allNumeric {
		return gb.LimitOf(values...), ""
	}
	smlt = ExtractAnnotated(cell, "SML")
	if smlt.None() {
		return gb.Limit{}, cell
	}
	return smlt, ""
}
