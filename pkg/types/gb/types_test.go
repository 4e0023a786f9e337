package gb

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumber_PreservesLexicalClass(t *testing.T) {
	cases := []struct {
		name string
		n    Number
		want string
	}{
		{"integer", Int(250), "250"},
		{"negative integer", Int(-3), "-3"},
		{"float", Float(0.05), "0.05"},
		{"float with zero fraction", Float(5000), "5000.0"},
		{"converted percentage", Float(0.5 * 1e4), "5000.0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := json.Marshal(tc.n)
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(data))
			assert.Equal(t, tc.want, tc.n.String())
		})
	}
}

func TestParseNumber(t *testing.T) {
	n, err := ParseNumber("12")
	require.NoError(t, err)
	assert.False(t, n.IsFloat())
	assert.Equal(t, Int(12), n)

	n, err = ParseNumber("0.05")
	require.NoError(t, err)
	assert.True(t, n.IsFloat())
	assert.Equal(t, Float(0.05), n)

	n, err = ParseNumber(".5")
	require.NoError(t, err)
	assert.Equal(t, Float(0.5), n)

	_, err = ParseNumber("ND")
	assert.Error(t, err)
}

func TestNumber_UnmarshalJSON(t *testing.T) {
	var n Number
	require.NoError(t, json.Unmarshal([]byte("60"), &n))
	assert.Equal(t, Int(60), n)

	require.NoError(t, json.Unmarshal([]byte("0.6"), &n))
	assert.Equal(t, Float(0.6), n)

	// A float that happens to be whole keeps its decimal class through a
	// full round trip.
	data, err := json.Marshal(Float(30))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &n))
	assert.True(t, n.IsFloat())
	assert.Equal(t, 30.0, n.Float64())
}

func TestLimit_WireForms(t *testing.T) {
	none := Limit{}
	data, err := json.Marshal(none)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
	assert.True(t, none.None())

	single := LimitOf(Float(0.05))
	data, err = json.Marshal(single)
	require.NoError(t, err)
	assert.Equal(t, "0.05", string(data))
	v, ok := single.Scalar()
	assert.True(t, ok)
	assert.Equal(t, Float(0.05), v)

	multi := LimitOf(Float(0.05), Int(12))
	data, err = json.Marshal(multi)
	require.NoError(t, err)
	assert.Equal(t, "[0.05,12]", string(data))
	_, ok = multi.Scalar()
	assert.False(t, ok)
}

func TestLimit_UnmarshalJSON(t *testing.T) {
	var l Limit
	require.NoError(t, json.Unmarshal([]byte("null"), &l))
	assert.True(t, l.None())

	require.NoError(t, json.Unmarshal([]byte("0.05"), &l))
	assert.Equal(t, LimitOf(Float(0.05)), l)

	require.NoError(t, json.Unmarshal([]byte("[0.05,12]"), &l))
	assert.Equal(t, LimitOf(Float(0.05), Int(12)), l)
}

func TestStrings_WireForms(t *testing.T) {
	empty := Strings{}
	data, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.Equal(t, `""`, string(data))
	assert.Equal(t, "", empty.First())

	single := StringsOf("75-07-0")
	data, err = json.Marshal(single)
	require.NoError(t, err)
	assert.Equal(t, `"75-07-0"`, string(data))
	assert.Equal(t, "75-07-0", single.First())

	multi := StringsOf("8001-79-4", "64147-40-6")
	data, err = json.Marshal(multi)
	require.NoError(t, err)
	assert.Equal(t, `["8001-79-4","64147-40-6"]`, string(data))
	assert.Equal(t, "8001-79-4", multi.First())
}

func TestStrings_UnmarshalJSON(t *testing.T) {
	var s Strings
	require.NoError(t, json.Unmarshal([]byte(`""`), &s))
	assert.Empty(t, s.Values)

	require.NoError(t, json.Unmarshal([]byte(`"75-07-0"`), &s))
	assert.Equal(t, StringsOf("75-07-0"), s)

	require.NoError(t, json.Unmarshal([]byte(`["a","b"]`), &s))
	assert.Equal(t, StringsOf("a", "b"), s)
}

func TestEntry_RoundTrip(t *testing.T) {
	cp0 := Float(5000)
	entry := Entry{
		Materials:   []string{"PE", "PP"},
		CP0Max:      &cp0,
		QMSMLRaw:    "0.05(SML)",
		SML:         LimitOf(Float(0.05)),
		SMLTComment: "as acetaldehyde",
		Comment1:    "12",
		Category:    "plastics",
	}

	data, err := json.Marshal(entry)
	require.NoError(t, err)

	// Unparsed limits serialize as null, not as empty arrays.
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "null", string(raw["QM"]))
	assert.Equal(t, "null", string(raw["DL"]))
	assert.Equal(t, "5000.0", string(raw["CP0max"]))
	assert.Equal(t, `"plastics"`, string(raw["table_id"]))

	var back Entry
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, entry, back)
}

func TestEntries_SingletonCollapse(t *testing.T) {
	one := Entries{Items: []Entry{{Materials: []string{}, Category: "plastics"}}}
	data, err := json.Marshal(one)
	require.NoError(t, err)
	assert.Equal(t, byte('{'), data[0])

	two := Entries{Items: []Entry{
		{Materials: []string{}, Category: "plastics"},
		{Materials: []string{}, Category: "coatings"},
	}}
	data, err = json.Marshal(two)
	require.NoError(t, err)
	assert.Equal(t, byte('['), data[0])

	var back Entries
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Len(t, back.Items, 2)

	var single Entries
	require.NoError(t, json.Unmarshal([]byte(`{"materials":[],"table_id":"rubber"}`), &single))
	require.Len(t, single.Items, 1)
	assert.Equal(t, "rubber", single.Items[0].Category)
}
