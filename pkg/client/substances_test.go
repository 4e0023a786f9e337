package client

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordFixture is an acetaldehyde record as the server persists and serves
// it: scalar CAS and SML cells collapsed to bare values, one table entry.
const recordFixture = `{
	"FCA": "0071",
	"cid": 177,
	"CAS": "75-07-0",
	"authorized in": ["plastics"],
	"ChineseName": "乙醛",
	"tables": {
		"plastics": {
			"materials": ["PET", "PVC"],
			"CP0max": null,
			"QMSMLraw": "SML:0.05",
			"SML": 0.05,
			"QM": null,
			"DL": null,
			"SMLT": null,
			"SMLTraw": "",
			"SMLTcomment": "",
			"comment1": "",
			"comment2": "",
			"table_id": "A1"
		}
	},
	"engine": "FCM-Registry: GB 9685-2016 appendix A",
	"csfile": "GB9685_2016.csv",
	"date": "2026-08-25 10:00:00"
}`

func refuseRequests(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request: %s %s", r.Method, r.URL)
	}
}

func TestSubstancesGet(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/substances/FCA0071", r.URL.Path)
		assert.Empty(t, r.URL.RawQuery)
		_, _ = w.Write([]byte(recordFixture))
	})

	sub, err := c.Substances().Get(context.Background(), "FCA0071")
	require.NoError(t, err)

	assert.Equal(t, "0071", sub.FCA)
	assert.Equal(t, 71, sub.FCANumber())
	require.NotNil(t, sub.CID)
	assert.Equal(t, int64(177), *sub.CID)
	assert.Equal(t, []string{"75-07-0"}, sub.CAS.Values)
	assert.Equal(t, []string{"plastics"}, sub.AuthorizedIn)
	assert.Equal(t, "乙醛", sub.ChineseName)
	assert.Equal(t, "GB9685_2016.csv", sub.CSFile)
	assert.Nil(t, sub.MolarMass)

	entries := sub.Tables["plastics"]
	require.Len(t, entries.Items, 1)
	entry := entries.Items[0]
	assert.Equal(t, []string{"PET", "PVC"}, entry.Materials)
	assert.Equal(t, "A1", entry.Category)
	sml, ok := entry.SML.Scalar()
	require.True(t, ok)
	assert.InDelta(t, 0.05, sml.Float64(), 1e-9)
	assert.True(t, entry.QM.None())
}

func TestSubstancesGetValidation(t *testing.T) {
	c := newTestClient(t, refuseRequests(t))

	_, err := c.Substances().Get(context.Background(), "")
	assert.Error(t, err)

	_, err = c.Substances().Get(context.Background(), "   ")
	assert.Error(t, err)
}

func TestSubstancesGetNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code": "REG_001", "message": "FCA number 9999 not found. Valid FCA numbers range from 71 to 1293."}`))
	})

	_, err := c.Substances().Get(context.Background(), "9999")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())
	assert.Equal(t, "REG_001", apiErr.Code)
}

func TestSubstancesGetExtended(t *testing.T) {
	extended := `{
		"FCA": "0071",
		"cid": 177,
		"CAS": "75-07-0",
		"authorized in": ["plastics"],
		"ChineseName": "乙醛",
		"tables": {},
		"engine": "FCM-Registry: GB 9685-2016 appendix A",
		"csfile": "GB9685_2016.csv",
		"date": "2026-08-25 10:00:00",
		"M": 44.05
	}`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/substances/71", r.URL.Path)
		assert.Equal(t, "extended=1", r.URL.RawQuery)
		_, _ = w.Write([]byte(extended))
	})

	sub, err := c.Substances().GetExtended(context.Background(), "71")
	require.NoError(t, err)
	require.NotNil(t, sub.MolarMass)
	assert.InDelta(t, 44.05, *sub.MolarMass, 1e-9)
}

func TestSubstancesByCAS(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/substances/cas/75-07-0", r.URL.Path)
		_, _ = w.Write([]byte(`{"count": 1, "items": [` + recordFixture + `]}`))
	})

	subs, err := c.Substances().ByCAS(context.Background(), "75-07-0")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "0071", subs[0].FCA)
}

func TestSubstancesByCASUnknown(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"count": 0, "items": []}`))
	})

	subs, err := c.Substances().ByCAS(context.Background(), "999-99-9")
	require.NoError(t, err)
	assert.Empty(t, subs)

	_, err = c.Substances().ByCAS(context.Background(), "")
	assert.Error(t, err)
}

func TestSubstancesByCID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/substances/cid/177", r.URL.Path)
		_, _ = w.Write([]byte(recordFixture))
	})

	sub, err := c.Substances().ByCID(context.Background(), 177)
	require.NoError(t, err)
	assert.Equal(t, "0071", sub.FCA)
}

func TestSubstancesByCIDValidation(t *testing.T) {
	c := newTestClient(t, refuseRequests(t))

	_, err := c.Substances().ByCID(context.Background(), 0)
	assert.Error(t, err)

	_, err = c.Substances().ByCID(context.Background(), -5)
	assert.Error(t, err)
}

func TestSubstancesByName(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// The path arrives percent-encoded and net/http decodes it.
		assert.Equal(t, "/api/v1/substances/name/乙醛", r.URL.Path)
		_, _ = w.Write([]byte(`{"count": 1, "items": [` + recordFixture + `]}`))
	})

	subs, err := c.Substances().ByName(context.Background(), "乙醛")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "乙醛", subs[0].ChineseName)

	_, err = c.Substances().ByName(context.Background(), "")
	assert.Error(t, err)
}

func TestSubstancesByKeys(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/substances", r.URL.Path)
		assert.Equal(t, "FCA0071,50-00-0", r.URL.Query().Get("keys"))
		_, _ = w.Write([]byte(`{"count": 1, "items": [` + recordFixture + `]}`))
	})

	// Blank keys are dropped before the request is built.
	subs, err := c.Substances().ByKeys(context.Background(), []string{"FCA0071", " ", "50-00-0"})
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestSubstancesByKeysValidation(t *testing.T) {
	c := newTestClient(t, refuseRequests(t))

	_, err := c.Substances().ByKeys(context.Background(), nil)
	assert.Error(t, err)

	_, err = c.Substances().ByKeys(context.Background(), []string{"", "  "})
	assert.Error(t, err)
}

func TestSubstancesList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/substances", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "50", r.URL.Query().Get("page_size"))
		_, _ = w.Write([]byte(`{"count": 1, "total": 1294, "page": 2, "page_size": 50, "items": [` + recordFixture + `]}`))
	})

	list, err := c.Substances().List(context.Background(), 2, 50)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, 1294, list.Total)
	assert.Equal(t, 2, list.Page)
	assert.Equal(t, 50, list.PageSize)
	require.Len(t, list.Items, 1)
}

func TestSubstancesListDefaults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"count": 0, "items": []}`))
	})

	_, err := c.Substances().List(context.Background(), 0, 0)
	require.NoError(t, err)
}

func TestSubstancesRange(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "71", r.URL.Query().Get("from"))
		assert.Equal(t, "164", r.URL.Query().Get("to"))
		_, _ = w.Write([]byte(`{"count": 1, "items": [` + recordFixture + `]}`))
	})

	subs, err := c.Substances().Range(context.Background(), 71, 164)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestSubstancesRangeOpenEnd(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "71", r.URL.Query().Get("from"))
		_, present := r.URL.Query()["to"]
		assert.False(t, present)
		_, _ = w.Write([]byte(`{"count": 1, "items": [` + recordFixture + `]}`))
	})

	_, err := c.Substances().Range(context.Background(), 71, 0)
	require.NoError(t, err)
}

func TestSubstancesRangeValidation(t *testing.T) {
	c := newTestClient(t, refuseRequests(t))

	_, err := c.Substances().Range(context.Background(), -1, 100)
	assert.Error(t, err)

	_, err = c.Substances().Range(context.Background(), 100, 100)
	assert.Error(t, err)

	_, err = c.Substances().Range(context.Background(), 100, 50)
	assert.Error(t, err)
}

func TestSubstancesRefresh(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/refresh", r.URL.Path)
		_, _ = w.Write([]byte(`{"records": 1294, "rows": 1654, "skipped": 3, "duration": "2.4s", "refresh_id": "c2f9b6d4"}`))
	})

	result, err := c.Substances().Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1294, result.Records)
	assert.Equal(t, 1654, result.Rows)
	assert.Equal(t, 3, result.Skipped)
	assert.Equal(t, "2.4s", result.Duration)
	assert.Equal(t, "c2f9b6d4", result.RefreshID)
}

func TestSubstancesStats(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/stats", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"records": 1294, "cas_numbers": 1280, "names": 1290, "cids": 1100,
			"min_fca": 71, "max_fca": 1293,
			"csv_file": "GB9685_2016.csv",
			"built_at": "2026-08-25 10:00:00",
			"refresh_id": "c2f9b6d4"
		}`))
	})

	stats, err := c.Substances().Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1294, stats.Records)
	assert.Equal(t, 71, stats.MinFCA)
	assert.Equal(t, 1293, stats.MaxFCA)
	assert.Equal(t, "GB9685_2016.csv", stats.CSVFile)
}

func TestSubstancesIndex(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/index", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"index_date": "2026-08-25 10:00:00",
			"csv_file": "GB9685_2016.csv",
			"refresh_id": "c2f9b6d4",
			"order": ["0071", "0072"],
			"CAS": {"75-07-0": ["0071"]},
			"bycid": {"177": "0071"},
			"FCA": {"0071": ["0071"]},
			"ChineseName": {"乙醛": ["0071"]}
		}`))
	})

	idx, err := c.Substances().Index(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"0071", "0072"}, idx.Order)
	assert.Equal(t, []string{"0071"}, idx.ByCAS["75-07-0"])
	assert.Equal(t, "0071", idx.ByCID["177"])
	assert.Equal(t, []string{"0071"}, idx.ByName["乙醛"])
	assert.Equal(t, "c2f9b6d4", idx.RefreshID)
}
