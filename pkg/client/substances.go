package client

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/turtacn/FCM-Registry/pkg/types/gb"
)

const apiPrefix = "/api/v1"

// SubstancesClient looks up positive-list substances. Obtain it from
// Client.Substances.
type SubstancesClient struct {
	client *Client
}

// Substance mirrors one persisted registry record. MolarMass is only set
// on extended lookups.
type Substance struct {
	// FCA is the record identifier with leading zeros preserved, "0071".
	FCA string `json:"FCA"`

	// CID is the compound identifier in the external chemical database,
	// nil when the substance was not resolved.
	CID *int64 `json:"cid"`

	// CAS holds the substance's CAS registry numbers: one for most
	// substances, several for mixtures, none when the source cell was
	// blank.
	CAS gb.Strings `json:"CAS"`

	// AuthorizedIn lists the descriptive names of every appendix table
	// authorizing the substance.
	AuthorizedIn []string `json:"authorized in"`

	ChineseName string `json:"ChineseName"`

	// Tables maps each authorizing table's descriptive name to the
	// substance's entries in that table.
	Tables map[string]gb.Entries `json:"tables"`

	Engine string `json:"engine"`
	CSFile string `json:"csfile"`
	Date   string `json:"date"`

	// MolarMass is the compound's molecular weight in g/mol.
	MolarMass *float64 `json:"M,omitempty"`
}

// FCANumber returns the numeric value of the FCA identifier, 0 when
// malformed.
func (s *Substance) FCANumber() int {
	n, err := strconv.Atoi(s.FCA)
	if err != nil {
		return 0
	}
	return n
}

// SubstanceList is the collection envelope. Total, Page, and PageSize are
// only set on paged listings.
type SubstanceList struct {
	Count    int          `json:"count"`
	Total    int          `json:"total,omitempty"`
	Page     int          `json:"page,omitempty"`
	PageSize int          `json:"page_size,omitempty"`
	Items    []*Substance `json:"items"`
}

// Stats summarizes the registry.
type Stats struct {
	Records    int    `json:"records"`
	CASNumbers int    `json:"cas_numbers"`
	Names      int    `json:"names"`
	CIDs       int    `json:"cids"`
	MinFCA     int    `json:"min_fca"`
	MaxFCA     int    `json:"max_fca"`
	CSVFile    string `json:"csv_file"`
	BuiltAt    string `json:"built_at"`
	RefreshID  string `json:"refresh_id"`
}

// RefreshResult reports the outcome of a registry rebuild.
type RefreshResult struct {
	Records   int    `json:"records"`
	Rows      int    `json:"rows"`
	Skipped   int    `json:"skipped"`
	Duration  string `json:"duration"`
	RefreshID string `json:"refresh_id"`
}

// Index is the global lookup table over all four key spaces, as
// persisted. Map keys are source-table values; map values are record
// identifiers.
type Index struct {
	Date      string              `json:"index_date"`
	CSVFile   string              `json:"csv_file"`
	RefreshID string              `json:"refresh_id"`
	Order     []string            `json:"order"`
	ByCAS     map[string][]string `json:"CAS"`
	ByCID     map[string]string   `json:"bycid"`
	ByFCA     map[string][]string `json:"FCA"`
	ByName    map[string][]string `json:"ChineseName"`
}

// Get returns the record for one FCA number, accepted in any of its
// spellings: "71", "0071", or "FCA0071".
// GET /api/v1/substances/{fca}
func (sc *SubstancesClient) Get(ctx context.Context, key string) (*Substance, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, invalidArg("key is required")
	}
	var out Substance
	if err := sc.client.get(ctx, apiPrefix+"/substances/"+url.PathEscape(key), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetExtended returns the record with compound properties resolved at
// read time.
// GET /api/v1/substances/{fca}?extended=1
func (sc *SubstancesClient) GetExtended(ctx context.Context, key string) (*Substance, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, invalidArg("key is required")
	}
	var out Substance
	if err := sc.client.get(ctx, apiPrefix+"/substances/"+url.PathEscape(key)+"?extended=1", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ByCAS returns every substance registered under a CAS number. An unknown
// CAS number is an empty slice, not an error.
// GET /api/v1/substances/cas/{cas}
func (sc *SubstancesClient) ByCAS(ctx context.Context, cas string) ([]*Substance, error) {
	cas = strings.TrimSpace(cas)
	if cas == "" {
		return nil, invalidArg("cas number is required")
	}
	var out SubstanceList
	if err := sc.client.get(ctx, apiPrefix+"/substances/cas/"+url.PathEscape(cas), &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// ByCID returns the substance a resolved compound CID maps to.
// GET /api/v1/substances/cid/{cid}
func (sc *SubstancesClient) ByCID(ctx context.Context, cid int64) (*Substance, error) {
	if cid <= 0 {
		return nil, invalidArg("cid must be a positive integer")
	}
	var out Substance
	if err := sc.client.get(ctx, apiPrefix+"/substances/cid/"+strconv.FormatInt(cid, 10), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ByName returns every substance carrying a Chinese name, matched exactly
// against the source table. Unknown names yield an empty slice.
// GET /api/v1/substances/name/{name}
func (sc *SubstancesClient) ByName(ctx context.Context, name string) ([]*Substance, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidArg("name is required")
	}
	var out SubstanceList
	if err := sc.client.get(ctx, apiPrefix+"/substances/name/"+url.PathEscape(name), &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// ByKeys resolves a batch of mixed FCA and CAS keys in one request. Keys
// that match nothing are skipped server-side; the result preserves request
// order for the keys that resolved.
// GET /api/v1/substances?keys=...
func (sc *SubstancesClient) ByKeys(ctx context.Context, keys []string) ([]*Substance, error) {
	cleaned := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			cleaned = append(cleaned, k)
		}
	}
	if len(cleaned) == 0 {
		return nil, invalidArg("at least one key is required")
	}
	q := url.Values{}
	q.Set("keys", strings.Join(cleaned, ","))
	var out SubstanceList
	if err := sc.client.get(ctx, apiPrefix+"/substances?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// List returns one page of the full registry in ascending FCA order.
// Non-positive page or pageSize fall back to the server defaults.
// GET /api/v1/substances
func (sc *SubstancesClient) List(ctx context.Context, page, pageSize int) (*SubstanceList, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}
	path := apiPrefix + "/substances"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out SubstanceList
	if err := sc.client.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Range returns the substances whose FCA numbers lie in the half-open
// interval [from, to). A to of 0 scans through the end of the registry.
// An interval covering no records is a not-found APIError.
// GET /api/v1/substances?from=&to=
func (sc *SubstancesClient) Range(ctx context.Context, from, to int) ([]*Substance, error) {
	if from < 0 {
		return nil, invalidArg("from must not be negative")
	}
	if to != 0 && to <= from {
		return nil, invalidArg("to must be greater than from")
	}
	q := url.Values{}
	q.Set("from", strconv.Itoa(from))
	if to > 0 {
		q.Set("to", strconv.Itoa(to))
	}
	var out SubstanceList
	if err := sc.client.get(ctx, apiPrefix+"/substances?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Refresh rebuilds the registry from the source table. The call returns
// once the new index is live.
// POST /api/v1/refresh
func (sc *SubstancesClient) Refresh(ctx context.Context) (*RefreshResult, error) {
	var out RefreshResult
	if err := sc.client.post(ctx, apiPrefix+"/refresh", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stats returns the registry summary.
// GET /api/v1/stats
func (sc *SubstancesClient) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	if err := sc.client.get(ctx, apiPrefix+"/stats", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Index returns the global index document with all four key spaces.
// GET /api/v1/index
func (sc *SubstancesClient) Index(ctx context.Context) (*Index, error) {
	var out Index
	if err := sc.client.get(ctx, apiPrefix+"/index", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
