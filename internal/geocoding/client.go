package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Coordinates is a successful lookup.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Resolver turns a free-text address into coordinates. Failures are
// *Error values carrying a FailureKind.
type Resolver interface {
	Resolve(ctx context.Context, address string) (*Coordinates, error)
}

// Client queries a Nominatim-compatible endpoint. Identical addresses are
// answered from an in-process cache for the lifetime of the client, so a
// batch run never sends the same query twice.
type Client struct {
	baseURL          string
	userAgent        string
	countryCodes     string
	resolveAmbiguous bool
	bounds           *BoundingBox
	httpClient       *http.Client

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	coords *Coordinates
	err    error
}

func NewClient(p Policy) *Client {
	return &Client{
		baseURL:          p.BaseURL,
		userAgent:        p.UserAgent,
		countryCodes:     p.CountryCodes,
		resolveAmbiguous: p.ResolveAmbiguous,
		bounds:           p.BoundingBox,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		cache: map[string]cacheEntry{},
	}
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Resolve looks up one address. Results, including failures, are cached
// per address for the run.
func (c *Client) Resolve(ctx context.Context, address string) (*Coordinates, error) {
	address = strings.Join(strings.Fields(address), " ")
	if len(address) < 3 {
		return nil, &Error{Kind: InvalidInput, Address: address, Detail: "address too short"}
	}

	c.mu.Lock()
	if hit, ok := c.cache[address]; ok {
		c.mu.Unlock()
		return hit.coords, hit.err
	}
	c.mu.Unlock()

	coords, err := c.lookup(ctx, address)

	c.mu.Lock()
	c.cache[address] = cacheEntry{coords: coords, err: err}
	c.mu.Unlock()

	return coords, err
}

func (c *Client) lookup(ctx context.Context, address string) (*Coordinates, error) {
	params := url.Values{}
	params.Set("q", address)
	params.Set("format", "json")
	params.Set("limit", "2") // 2 so we can tell unique from ambiguous
	if c.countryCodes != "" {
		params.Set("countrycodes", c.countryCodes)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	// Nominatim policy requires an identifying User-Agent.
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: ProviderError, Address: address, Detail: err.Error()}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return nil, &Error{Kind: InvalidInput, Address: address, Detail: "provider rejected query"}
	case resp.StatusCode != http.StatusOK:
		return nil, &Error{Kind: ProviderError, Address: address,
			Detail: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, &Error{Kind: ProviderError, Address: address,
			Detail: fmt.Sprintf("decoding response: %v", err)}
	}

	if len(results) == 0 {
		return nil, &Error{Kind: NoMatch, Address: address}
	}
	if len(results) > 1 && !c.resolveAmbiguous {
		return nil, &Error{Kind: AmbiguousMatch, Address: address,
			Detail: fmt.Sprintf("%d candidates", len(results))}
	}

	for _, r := range results {
		coords, err := parseCoords(r)
		if err != nil {
			return nil, &Error{Kind: ProviderError, Address: address, Detail: err.Error()}
		}
		if c.bounds != nil && !c.bounds.Contains(coords.Lat, coords.Lon) {
			continue // same street name in another city
		}
		return coords, nil
	}

	return nil, &Error{Kind: NoMatch, Address: address, Detail: "no candidate inside territory bounds"}
}

func parseCoords(r nominatimResult) (*Coordinates, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("bad latitude %q", r.Lat)
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("bad longitude %q", r.Lon)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("coordinates out of range: %v,%v", lat, lon)
	}
	return &Coordinates{Lat: lat, Lon: lon}, nil
}
