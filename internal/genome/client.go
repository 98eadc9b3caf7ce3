package genome

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/inodb/genome-nav/internal/interval"
)

// Default endpoints.
const (
	DefaultUCSCURL   = "https://api.genome.ucsc.edu"
	DefaultEutilsURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"
	DefaultSearchURL = "https://clinicaltables.nlm.nih.gov"

	DefaultTimeout     = 30 * time.Second
	DefaultSearchLimit = 25
)

// Options configures a Client. Zero values select the defaults.
type Options struct {
	UCSCURL          string
	EutilsURL        string
	SearchURL        string
	Timeout          time.Duration
	SearchLimit      int
	MaxInitialWindow int64
	HTTPClient       *http.Client
}

// Client talks to the UCSC and NCBI web APIs. It holds no state between
// calls; every call goes to the network.
type Client struct {
	ucscURL          string
	eutilsURL        string
	searchURL        string
	searchLimit      int
	maxInitialWindow int64
	httpClient       *http.Client
	logger           *zap.Logger
}

// NewClient creates a client for the given options.
func NewClient(opts Options) *Client {
	c := &Client{
		ucscURL:          orDefault(opts.UCSCURL, DefaultUCSCURL),
		eutilsURL:        orDefault(opts.EutilsURL, DefaultEutilsURL),
		searchURL:        orDefault(opts.SearchURL, DefaultSearchURL),
		searchLimit:      opts.SearchLimit,
		maxInitialWindow: opts.MaxInitialWindow,
		httpClient:       opts.HTTPClient,
		logger:           zap.NewNop(),
	}
	if c.searchLimit <= 0 {
		c.searchLimit = DefaultSearchLimit
	}
	if c.maxInitialWindow == 0 {
		c.maxInitialWindow = interval.DefaultMaxInitialWindow
	}
	if c.httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		c.httpClient = &http.Client{Timeout: timeout}
	}
	return c
}

// SetLogger sets the logger for request tracing.
func (c *Client) SetLogger(l *zap.Logger) {
	c.logger = l
}

// get issues a GET and returns the status code and body. Only transport and
// read failures are errors; status handling is left to the caller.
func (c *Client) get(ctx context.Context, op, base, path string, query url.Values) (int, []byte, error) {
	u := base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, unavailable(op, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, unavailable(op, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, unavailable(op, fmt.Errorf("read response: %w", err))
	}

	c.logger.Debug("genome api request",
		zap.String("op", op),
		zap.String("url", u),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	return resp.StatusCode, body, nil
}

// getJSON issues a GET and decodes a successful JSON response into v.
func (c *Client) getJSON(ctx context.Context, op, base, path string, query url.Values, v any) error {
	status, body, err := c.get(ctx, op, base, path, query)
	if err != nil {
		return err
	}
	if !isSuccess(status) {
		return unavailable(op, fmt.Errorf("HTTP error %d: %s", status, snippet(body)))
	}
	if err := json.Unmarshal(body, v); err != nil {
		return unavailable(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func snippet(body []byte) string {
	const limit = 200
	body = bytes.TrimSpace(body)
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// flexInt decodes coordinates that arrive either as JSON numbers or as
// numeric strings.
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("parse coordinate %q: %w", s, err)
		}
		*f = flexInt(n)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	i, err := n.Int64()
	if err != nil {
		fl, ferr := n.Float64()
		if ferr != nil {
			return fmt.Errorf("parse coordinate %s: %w", n, err)
		}
		i = int64(fl)
	}
	*f = flexInt(i)
	return nil
}

// flexBool decodes UCSC flags that arrive as 0/1 numbers, booleans or strings.
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	switch string(bytes.TrimSpace(b)) {
	case "true", "1", `"1"`, `"true"`:
		*f = true
	default:
		*f = false
	}
	return nil
}
