package substance

// categoryNames maps appendix A table codes to the descriptive names used
// throughout the registry: in AuthorizedIn lists, table keys, and entry
// categories.
var categoryNames = map[string]string{
	"A1":    "plastics",
	"A2":    "coatings",
	"A3":    "rubber",
	"A4":    "printing inks",
	"A5":    "adhesives",
	"A6":    "paper and board",
	"A7":    "silicon rubber",
	"A7bis": "textile",
}

// CategoryName maps an appendix table code such as "A1" to its descriptive
// name. Unknown codes pass through unchanged so future appendix tables
// degrade gracefully instead of being dropped.
func CategoryName(code string) string {
	if name, ok := categoryNames[code]; ok {
		return name
	}
	return code
}
