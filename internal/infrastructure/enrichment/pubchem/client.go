// Package pubchem resolves CAS registry numbers against the PubChem PUG
// REST API. The live client sits behind a persisted miss cache so CAS
// numbers the compound database does not know are asked once, not on
// every refresh.
package pubchem

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/turtacn/FCM-Registry/internal/domain/substance"
	"github.com/turtacn/FCM-Registry/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FCM-Registry/pkg/errors"
)

// Version is stamped into the User-Agent header.
const Version = "0.1.0"

const (
	// DefaultBaseURL is the public PUG REST endpoint.
	DefaultBaseURL = "https://pubchem.ncbi.nlm.nih.gov/rest/pug"

	// faultNotFound is PubChem's fault code for an unknown compound name.
	faultNotFound = "PUGREST.NotFound"

	// pubchemRPS is the request rate PubChem asks clients to stay under.
	pubchemRPS = 5

	defaultTimeout = 30 * time.Second
)

// Config tunes the PUG REST client.
type Config struct {
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	RetryMax int           `mapstructure:"retry_max"`
}

// Client calls the PUG REST compound-by-name endpoint. It implements
// substance.Resolver.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	userAgent    string
	logger       logging.Logger
	limiter      *rateLimiter
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
}

// NewClient returns a rate-limited PUG REST client. Close releases the
// limiter once the client is no longer needed.
func NewClient(cfg *Config, log logging.Logger) *Client {
	if cfg == nil {
		cfg = &Config{}
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retryMax := cfg.RetryMax
	if retryMax <= 0 {
		retryMax = 3
	}
	return &Client{
		baseURL:      baseURL,
		httpClient:   &http.Client{Timeout: timeout},
		userAgent:    "fcm-registry/" + Version,
		logger:       log.Named("pubchem"),
		limiter:      newRateLimiter(pubchemRPS),
		retryMax:     retryMax,
		retryWaitMin: 500 * time.Millisecond,
		retryWaitMax: 5 * time.Second,
	}
}

// propertyTable is the PUG REST success envelope. MolecularWeight is
// serialized as a JSON string by the current API.
type propertyTable struct {
	PropertyTable struct {
		Properties []struct {
			CID             int64  `json:"CID"`
			MolecularWeight string `json:"MolecularWeight"`
			Title           string `json:"Title"`
		} `json:"Properties"`
	} `json:"PropertyTable"`
}

// faultEnvelope is the PUG REST error envelope.
type faultEnvelope struct {
	Fault struct {
		Code    string   `json:"Code"`
		Message string   `json:"Message"`
		Details []string `json:"Details"`
	} `json:"Fault"`
}

// Resolve looks up a CAS number as a compound name and returns its CID,
// molecular weight and preferred title.
func (c *Client) Resolve(ctx context.Context, registryNumber string) (*substance.ChemicalInfo, error) {
	registryNumber = strings.TrimSpace(registryNumber)
	if registryNumber == "" {
		return nil, errors.New(errors.ErrCodeValidation, "registry number is empty")
	}

	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeEnrichmentUnavailable, "rate limiter")
	}

	path := fmt.Sprintf("%s/compound/name/%s/property/MolecularWeight,Title/JSON",
		c.baseURL, url.PathEscape(registryNumber))

	body, err := c.get(ctx, path, registryNumber)
	if err != nil {
		return nil, err
	}

	var table propertyTable
	if err := json.Unmarshal(body, &table); err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeEnrichmentResponse, "decode property table for %q", registryNumber)
	}
	props := table.PropertyTable.Properties
	if len(props) == 0 {
		return nil, errors.Newf(errors.ErrCodeChemicalNotFound, "no compound matches %q", registryNumber)
	}

	// The name endpoint can match several compounds; the first is
	// PubChem's best match.
	p := props[0]
	info := &substance.ChemicalInfo{CID: p.CID, Name: p.Title}
	if p.MolecularWeight != "" {
		mass, err := strconv.ParseFloat(p.MolecularWeight, 64)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrCodeEnrichmentResponse, "molecular weight %q for %q", p.MolecularWeight, registryNumber)
		}
		info.MolarMass = mass
	}

	c.logger.Debug("compound resolved",
		logging.String("cas", registryNumber),
		logging.Int64("cid", info.CID),
		logging.Float64("molar_mass", info.MolarMass),
	)
	return info, nil
}

// get fetches path with retries on network failures and server errors.
func (c *Client) get(ctx context.Context, fullURL, registryNumber string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retryMax; attempt++ {
		if attempt > 0 {
			backoff := c.backoff(attempt)
			c.logger.Debug("retrying compound lookup",
				logging.String("cas", registryNumber),
				logging.Int("attempt", attempt),
				logging.Duration("backoff", backoff),
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), errors.ErrCodeEnrichmentUnavailable, "lookup canceled")
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "build compound request")
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("compound database returned %d: %s", resp.StatusCode, truncate(body))
			continue
		}
		if resp.StatusCode >= 400 {
			return nil, c.faultError(resp.StatusCode, body, registryNumber)
		}
		return body, nil
	}
	return nil, errors.Wrapf(lastErr, errors.ErrCodeEnrichmentUnavailable, "compound lookup for %q", registryNumber)
}

// faultError maps a PUG REST fault to a typed error. An unknown name is a
// not-found condition; everything else is a response error.
func (c *Client) faultError(status int, body []byte, registryNumber string) error {
	var fault faultEnvelope
	if err := json.Unmarshal(body, &fault); err == nil && fault.Fault.Code != "" {
		if fault.Fault.Code == faultNotFound {
			return errors.Newf(errors.ErrCodeChemicalNotFound, "no compound matches %q", registryNumber)
		}
		return errors.Newf(errors.ErrCodeEnrichmentResponse, "compound database fault %s: %s", fault.Fault.Code, fault.Fault.Message)
	}
	if status == http.StatusNotFound {
		return errors.Newf(errors.ErrCodeChemicalNotFound, "no compound matches %q", registryNumber)
	}
	return errors.Newf(errors.ErrCodeEnrichmentResponse, "compound database returned %d: %s", status, truncate(body))
}

func (c *Client) backoff(attempt int) time.Duration {
	backoff := c.retryWaitMin * time.Duration(1<<uint(attempt-1))
	if backoff > c.retryWaitMax {
		backoff = c.retryWaitMax
	}
	jitter := time.Duration(rand.Int63n(int64(backoff/4) + 1))
	return backoff + jitter
}

func (c *Client) Close() {
	c.limiter.Close()
}

func truncate(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

// rateLimiter refills a token bucket at a steady interval so bursts never
// exceed the compound database's request budget.
type rateLimiter struct {
	tokens   chan struct{}
	interval time.Duration
	stop     chan struct{}
	once     sync.Once
}

func newRateLimiter(rps int) *rateLimiter {
	rl := &rateLimiter{
		tokens:   make(chan struct{}, rps),
		interval: time.Second / time.Duration(rps),
		stop:     make(chan struct{}),
	}
	for i := 0; i < rps; i++ {
		rl.tokens <- struct{}{}
	}
	go func() {
		ticker := time.NewTicker(rl.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				select {
				case rl.tokens <- struct{}{}:
				default:
				}
			case <-rl.stop:
				return
			}
		}
	}()
	return rl
}

func (rl *rateLimiter) Acquire(ctx context.Context) error {
	select {
	case <-rl.tokens:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (rl *rateLimiter) Close() {
	rl.once.Do(func() { close(rl.stop) })
}
