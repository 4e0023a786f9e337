package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/FCM-Registry/internal/application/registry"
	"github.com/turtacn/FCM-Registry/internal/domain/substance"
	"github.com/turtacn/FCM-Registry/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FCM-Registry/pkg/errors"
)

// SubstanceHandler serves lookups against the positive-list registry. One
// route exists per key space, the listing route covers range scans and batch
// key resolution, and POST /refresh rebuilds the registry from the source
// table.
type SubstanceHandler struct {
	registry *registry.Registry
	log      logging.Logger
}

// NewSubstanceHandler creates a SubstanceHandler backed by the given
// registry.
func NewSubstanceHandler(reg *registry.Registry, log logging.Logger) *SubstanceHandler {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &SubstanceHandler{
		registry: reg,
		log:      log.Named("handlers"),
	}
}

// RefreshResponse reports the outcome of a registry rebuild.
type RefreshResponse struct {
	Records   int    `json:"records"`
	Rows      int    `json:"rows"`
	Skipped   int    `json:"skipped"`
	Duration  string `json:"duration"`
	RefreshID string `json:"refresh_id"`
}

// pathParam returns the named chi URL parameter with percent-escapes
// decoded. Chinese names and CAS numbers arrive escaped.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}
	return strings.TrimSpace(raw)
}

// List handles GET /api/v1/substances.
//
// Three query modes, checked in order: keys=71,50-00-0 resolves a batch of
// mixed FCA/CAS keys, from=&to= scans the half-open FCA number range, and
// with neither the full list is returned page by page.
func (h *SubstanceHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if keys := q.Get("keys"); keys != "" {
		h.listByKeys(w, r, keys)
		return
	}
	if q.Get("from") != "" || q.Get("to") != "" {
		h.listRange(w, r)
		return
	}
	h.listPaged(w, r)
}

func (h *SubstanceHandler) listByKeys(w http.ResponseWriter, r *http.Request, raw string) {
	parts := strings.Split(raw, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keys = append(keys, p)
		}
	}
	if len(keys) == 0 {
		writeError(w, http.StatusBadRequest, errors.ErrCodeBadRequest, "keys must name at least one FCA or CAS number")
		return
	}

	recs, err := h.registry.ByKeys(r.Context(), keys)
	if err != nil {
		h.log.Error("batch lookup failed", logging.Err(err), logging.Int("keys", len(keys)))
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{Count: len(recs), Items: recs})
}

func (h *SubstanceHandler) listRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	start := 0
	if v := q.Get("from"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, errors.ErrCodeBadRequest, "from must be a non-negative integer")
			return
		}
		start = n
	}

	_, max, _ := h.registry.Index().Bounds()
	stop := max + 1
	if v := q.Get("to"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, errors.ErrCodeBadRequest, "to must be a non-negative integer")
			return
		}
		stop = n
	}

	recs, err := h.registry.Range(r.Context(), start, stop)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{Count: len(recs), Items: recs})
}

func (h *SubstanceHandler) listPaged(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	order := h.registry.Index().Order

	lo := (page - 1) * pageSize
	hi := lo + pageSize
	if lo > len(order) {
		lo = len(order)
	}
	if hi > len(order) {
		hi = len(order)
	}

	items := make([]*substance.Record, 0, hi-lo)
	for _, id := range order[lo:hi] {
		rec, err := h.registry.ByFCA(r.Context(), id)
		if err != nil {
			h.log.Error("listing page failed", logging.Err(err), logging.String("fca", string(id)))
			writeAppError(w, err)
			return
		}
		items = append(items, rec)
	}

	writeJSON(w, http.StatusOK, ListResponse{
		Count:    len(items),
		Total:    len(order),
		Page:     page,
		PageSize: pageSize,
		Items:    items,
	})
}

// Get handles GET /api/v1/substances/{fca}. The identifier is accepted in
// any of its spellings: "71", "0071", or "FCA0071". With ?extended=1 the
// record is extended with compound properties resolved at read time.
func (h *SubstanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	raw := pathParam(r, "fca")
	id, ok := substance.ParseID(raw)
	if !ok {
		id = substance.ID(raw)
	}

	rec, err := h.registry.ByFCA(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}

	if wantExtended(r) {
		writeJSON(w, http.StatusOK, h.registry.Extended(r.Context(), rec))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func wantExtended(r *http.Request) bool {
	switch strings.ToLower(r.URL.Query().Get("extended")) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// ByCAS handles GET /api/v1/substances/cas/{cas}. Shared CAS numbers return
// every substance registered under them; an unknown CAS number is an empty
// list, not an error.
func (h *SubstanceHandler) ByCAS(w http.ResponseWriter, r *http.Request) {
	cas := pathParam(r, "cas")
	if cas == "" {
		writeError(w, http.StatusBadRequest, errors.ErrCodeBadRequest, "cas number is required")
		return
	}

	recs, err := h.registry.ByCAS(r.Context(), cas)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{Count: len(recs), Items: recs})
}

// ByCID handles GET /api/v1/substances/cid/{cid}.
func (h *SubstanceHandler) ByCID(w http.ResponseWriter, r *http.Request) {
	raw := pathParam(r, "cid")
	cid, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || cid <= 0 {
		writeError(w, http.StatusBadRequest, errors.ErrCodeBadRequest, "cid must be a positive integer")
		return
	}

	rec, err := h.registry.ByCID(r.Context(), cid)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ByName handles GET /api/v1/substances/name/{name}. Names are matched
// exactly against the Chinese name column of the source table.
func (h *SubstanceHandler) ByName(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	if name == "" {
		writeError(w, http.StatusBadRequest, errors.ErrCodeBadRequest, "name is required")
		return
	}

	recs, err := h.registry.ByName(r.Context(), name)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{Count: len(recs), Items: recs})
}

// Refresh handles POST /api/v1/refresh. It rebuilds the registry from the
// source table and swaps the index in place; lookups keep serving the old
// index until the rebuild lands.
func (h *SubstanceHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result, err := h.registry.Rebuild(r.Context())
	if err != nil {
		h.log.Error("refresh failed", logging.Err(err), logging.Duration("elapsed", time.Since(start)))
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, RefreshResponse{
		Records:   result.Index.Len(),
		Rows:      result.Rows,
		Skipped:   result.Skipped,
		Duration:  result.Duration.String(),
		RefreshID: result.Index.RefreshID,
	})
}

// GetIndex handles GET /api/v1/index. It returns the global index document
// as persisted, with all four key spaces.
func (h *SubstanceHandler) GetIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.Index())
}

// GetStats handles GET /api/v1/stats.
func (h *SubstanceHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.Stats())
}
