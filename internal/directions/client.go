// Package directions talks to the Google Geocoding and Directions web
// services and keeps an offline cache of fetched routes.
package directions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/franz/wayfarer/internal/polyline"
	"github.com/franz/wayfarer/internal/util"
	"golang.org/x/time/rate"
)

const (
	// BaseURL is the Google Maps web services base URL
	BaseURL = "https://maps.googleapis.com/maps/api"

	// UserAgent identifies this application
	UserAgent = "wayfarer/1.0 (+https://github.com/franz/wayfarer)"

	// DefaultRate is the default request rate per second
	DefaultRate = 5
)

// RemoteServiceError is a failure reported by the remote API, either as an
// HTTP status or as a non-OK "status" field in the JSON payload
type RemoteServiceError struct {
	Service    string
	StatusCode int
	Status     string
	Message    string
	Wait       time.Duration // server-requested delay before retrying
}

func (e *RemoteServiceError) Error() string {
	msg := fmt.Sprintf("%s request failed", e.Service)
	if e.StatusCode != 0 && e.StatusCode != http.StatusOK {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Status != "" {
		msg += ": " + e.Status
	}
	if e.Message != "" {
		msg += " - " + e.Message
	}
	return msg
}

// Temporary reports whether retrying may succeed
func (e *RemoteServiceError) Temporary() bool {
	if e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500 {
		return true
	}
	return e.Status == "UNKNOWN_ERROR"
}

// RetryAfter returns the delay the server asked for, if any
func (e *RemoteServiceError) RetryAfter() time.Duration {
	return e.Wait
}

// Unwrap maps "no result" statuses to util.ErrNotFound and everything else
// to util.ErrUnavailable
func (e *RemoteServiceError) Unwrap() error {
	switch e.Status {
	case "ZERO_RESULTS", "NOT_FOUND":
		return util.ErrNotFound
	default:
		return util.ErrUnavailable
	}
}

// Fetcher returns a route between two place queries
type Fetcher interface {
	Route(ctx context.Context, origin, destination string) (*Result, error)
}

// Result is the first route of a directions response
type Result struct {
	Origin          string          `json:"origin"`
	Destination     string          `json:"destination"`
	Polyline        string          `json:"polyline"`
	Distance        string          `json:"distance"`
	Duration        string          `json:"duration"`
	DistanceMeters  int             `json:"distance_meters"`
	DurationSeconds int             `json:"duration_seconds"`
	StartAddress    string          `json:"start_address"`
	EndAddress      string          `json:"end_address"`
	Start           polyline.Point  `json:"start"`
	End             polyline.Point  `json:"end"`
	Steps           json.RawMessage `json:"steps"`
}

// Points decodes the overview polyline
func (r *Result) Points() ([]polyline.Point, error) {
	return polyline.Decode(r.Polyline)
}

// Config holds client configuration
type Config struct {
	BaseURL           string
	APIKey            string
	RequestsPerSecond float64
	Timeout           time.Duration
	Retry             *util.RetryConfig
	HTTPClient        *http.Client
}

// Client handles Geocoding/Directions requests with rate limiting
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	userAgent  string
	limiter    *rate.Limiter
	retry      *util.RetryConfig
}

// NewClient creates a new client
func NewClient(cfg *Config) *Client {
	if cfg == nil {
		cfg = &Config{}
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = BaseURL
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultRate
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	retry := cfg.Retry
	if retry == nil {
		retry = util.RemoteRetryConfig()
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		userAgent:  UserAgent,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		retry:      retry,
	}
}

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (l latLng) point() polyline.Point {
	return polyline.Point{Latitude: l.Lat, Longitude: l.Lng}
}

type textValue struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location latLng `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

type directionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
		Legs []struct {
			Distance      textValue       `json:"distance"`
			Duration      textValue       `json:"duration"`
			StartAddress  string          `json:"start_address"`
			EndAddress    string          `json:"end_address"`
			StartLocation latLng          `json:"start_location"`
			EndLocation   latLng          `json:"end_location"`
			Steps         json.RawMessage `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

// Geocode resolves a place query to a coordinate
func (c *Client) Geocode(ctx context.Context, query string) (polyline.Point, string, error) {
	if strings.TrimSpace(query) == "" {
		return polyline.Point{}, "", fmt.Errorf("place query cannot be empty")
	}

	var resp geocodeResponse
	params := url.Values{"address": {query}}
	if err := c.getJSON(ctx, "geocode", "/geocode/json", params, &resp); err != nil {
		return polyline.Point{}, "", err
	}

	if resp.Status != "OK" {
		return polyline.Point{}, "", &RemoteServiceError{Service: "geocode", StatusCode: http.StatusOK, Status: resp.Status, Message: resp.ErrorMessage}
	}
	if len(resp.Results) == 0 {
		return polyline.Point{}, "", &RemoteServiceError{Service: "geocode", StatusCode: http.StatusOK, Status: "ZERO_RESULTS"}
	}

	top := resp.Results[0]
	util.DebugLog("Geocode: '%s' -> %s (%.5f, %.5f)", query, top.FormattedAddress,
		top.Geometry.Location.Lat, top.Geometry.Location.Lng)

	return top.Geometry.Location.point(), top.FormattedAddress, nil
}

// Route fetches directions between two place queries
func (c *Client) Route(ctx context.Context, origin, destination string) (*Result, error) {
	if strings.TrimSpace(origin) == "" || strings.TrimSpace(destination) == "" {
		return nil, fmt.Errorf("origin and destination are required")
	}

	var resp directionsResponse
	params := url.Values{
		"origin":      {origin},
		"destination": {destination},
	}
	if err := c.getJSON(ctx, "directions", "/directions/json", params, &resp); err != nil {
		return nil, err
	}

	if resp.Status != "OK" {
		return nil, &RemoteServiceError{Service: "directions", StatusCode: http.StatusOK, Status: resp.Status, Message: resp.ErrorMessage}
	}
	if len(resp.Routes) == 0 || len(resp.Routes[0].Legs) == 0 {
		return nil, &RemoteServiceError{Service: "directions", StatusCode: http.StatusOK, Status: "ZERO_RESULTS"}
	}

	route := resp.Routes[0]
	leg := route.Legs[0]

	steps := leg.Steps
	if len(steps) == 0 {
		steps = json.RawMessage("[]")
	}

	result := &Result{
		Origin:          origin,
		Destination:     destination,
		Polyline:        route.OverviewPolyline.Points,
		Distance:        leg.Distance.Text,
		Duration:        leg.Duration.Text,
		DistanceMeters:  leg.Distance.Value,
		DurationSeconds: leg.Duration.Value,
		StartAddress:    leg.StartAddress,
		EndAddress:      leg.EndAddress,
		Start:           leg.StartLocation.point(),
		End:             leg.EndLocation.point(),
		Steps:           steps,
	}

	util.DebugLog("Directions: '%s' -> '%s': %s, %s", origin, destination, result.Distance, result.Duration)
	return result, nil
}

// getJSON performs a rate-limited, retried GET and decodes the JSON body
func (c *Client) getJSON(ctx context.Context, service, path string, params url.Values, out interface{}) error {
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	urlStr := c.baseURL + path + "?" + params.Encode()

	return util.Retry(ctx, c.retry, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to execute request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return &RemoteServiceError{
				Service:    service,
				StatusCode: resp.StatusCode,
				Message:    strings.TrimSpace(string(body)),
				Wait:       util.ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
			}
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}, service)
}

// IsNotFound reports whether err means the service found no result
func IsNotFound(err error) bool {
	return errors.Is(err, util.ErrNotFound)
}
