package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

const (
	orsDefaultBaseURL = "https://api.openrouteservice.org"
	orsSearchPath     = "/geocode/search"

	// DefaultTimeout bounds a single lookup end to end.
	DefaultTimeout = 15 * time.Second

	maxResponseBytes = 4 << 20
)

// ORSOption configures the ORS client.
type ORSOption func(*ORSClient)

// WithBaseURL overrides the API root (scheme and host, no path).
func WithBaseURL(u string) ORSOption {
	return func(c *ORSClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ORSOption {
	return func(c *ORSClient) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-lookup timeout.
func WithTimeout(d time.Duration) ORSOption {
	return func(c *ORSClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// ORSClient geocodes through the OpenRouteService search endpoint.
type ORSClient struct {
	apiKey     string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// NewORSClient creates an ORS client. An empty apiKey yields a client whose
// HasCredential reports false.
func NewORSClient(apiKey string, opts ...ORSOption) *ORSClient {
	c := &ORSClient{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: orsDefaultBaseURL,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	return c
}

// HasCredential implements Client.
func (c *ORSClient) HasCredential() bool { return c.apiKey != "" }

// Resolve implements Client. Transport errors, non-2xx statuses, malformed
// bodies and empty candidate lists all come back as NoMatch.
func (c *ORSClient) Resolve(ctx context.Context, query, countryBias string) Result {
	result, err := c.search(ctx, query, countryBias)
	if err != nil {
		zap.L().Debug("ors geocode: unresolved",
			zap.String("query", query),
			zap.Error(err),
		)
		return NoMatch()
	}
	return result
}

func (c *ORSClient) search(ctx context.Context, query, countryBias string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := url.Values{
		"api_key": {c.apiKey},
		"text":    {query},
	}
	if bias := strings.TrimSpace(countryBias); bias != "" {
		params.Set("boundary.country", bias)
	}

	reqURL := c.baseURL + orsSearchPath + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return NoMatch(), eris.Wrap(err, "ors geocode: build request")
	}
	req.Header.Set("Accept", "application/json, application/geo+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return NoMatch(), eris.Wrap(err, "ors geocode: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return NoMatch(), eris.Errorf("ors geocode: returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return NoMatch(), eris.Wrap(err, "ors geocode: read body")
	}

	return parseFeatureCollection(body)
}

// parseFeatureCollection picks the first Point feature carrying a valid
// (longitude, latitude) pair and returns it as (latitude, longitude).
func parseFeatureCollection(body []byte) (Result, error) {
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		return NoMatch(), eris.Wrap(err, "ors geocode: parse response")
	}

	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		pt, ok := f.Geometry.(*geom.Point)
		if !ok || len(pt.FlatCoords()) < 2 {
			continue
		}
		lon, lat := pt.X(), pt.Y()
		if !validCoordinate(lat, lon) {
			continue
		}
		return Match(lat, lon), nil
	}

	return NoMatch(), eris.New("ors geocode: no candidate with coordinates")
}
