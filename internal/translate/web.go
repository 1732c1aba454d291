package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/franz/wayfarer/internal/util"
	"golang.org/x/time/rate"
)

const (
	// WebBaseURL is the public translation endpoint
	WebBaseURL = "https://translate.googleapis.com"

	// DefaultWebRate is the default request rate per second
	DefaultWebRate = 2
)

// WebError is a non-200 response from the web endpoint
type WebError struct {
	StatusCode int
	Message    string
	Wait       time.Duration
}

func (e *WebError) Error() string {
	msg := fmt.Sprintf("web translation failed (HTTP %d)", e.StatusCode)
	if e.Message != "" {
		msg += " - " + e.Message
	}
	return msg
}

// Temporary reports whether retrying may succeed
func (e *WebError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// RetryAfter returns the delay the endpoint asked for, if any
func (e *WebError) RetryAfter() time.Duration {
	return e.Wait
}

func (e *WebError) Unwrap() error {
	return util.ErrUnavailable
}

// WebConfig holds web client configuration
type WebConfig struct {
	BaseURL           string
	RequestsPerSecond float64
	Timeout           time.Duration
	Retry             *util.RetryConfig
	HTTPClient        *http.Client
}

// WebClient calls the keyless web translation endpoint
type WebClient struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	retry      *util.RetryConfig
}

// NewWebClient creates a new web client
func NewWebClient(cfg *WebConfig) *WebClient {
	if cfg == nil {
		cfg = &WebConfig{}
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = WebBaseURL
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultWebRate
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

	return &WebClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		retry:      retry,
	}
}

// Translate returns the translated text and the source language the
// endpoint reports (useful with AutoDetect)
func (c *WebClient) Translate(ctx context.Context, text, source, target string) (string, string, error) {
	params := url.Values{
		"client": {"gtx"},
		"sl":     {source},
		"tl":     {target},
		"dt":     {"t"},
		"q":      {text},
	}
	urlStr := c.baseURL + "/translate_a/single?" + params.Encode()

	type result struct {
		text     string
		detected string
	}

	res, err := util.RetryWithBackoff(ctx, c.retry, func() (result, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return result{}, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return result{}, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return result{}, fmt.Errorf("failed to execute request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return result{}, &WebError{
				StatusCode: resp.StatusCode,
				Message:    strings.TrimSpace(string(body)),
				Wait:       util.ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
			}
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return result{}, fmt.Errorf("failed to read response: %w", err)
		}

		translated, detected, err := parseWebResponse(body)
		if err != nil {
			return result{}, err
		}
		return result{text: translated, detected: detected}, nil
	}, "web translate")
	if err != nil {
		return "", "", err
	}

	util.DebugLog("Web translation %s -> %s: %d chars", source, target, len(res.text))
	return res.text, res.detected, nil
}

// parseWebResponse concatenates the sentence fragments of a response shaped
// like [[["Hola","Hello",...],...],null,"en",...]
func parseWebResponse(body []byte) (string, string, error) {
	var top []json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return "", "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(top) == 0 {
		return "", "", fmt.Errorf("failed to decode response: empty payload")
	}

	var sentences [][]json.RawMessage
	if err := json.Unmarshal(top[0], &sentences); err != nil {
		return "", "", fmt.Errorf("failed to decode sentences: %w", err)
	}

	var b strings.Builder
	for _, sentence := range sentences {
		if len(sentence) == 0 {
			continue
		}
		var fragment *string
		if err := json.Unmarshal(sentence[0], &fragment); err != nil {
			return "", "", fmt.Errorf("failed to decode sentence: %w", err)
		}
		if fragment != nil {
			b.WriteString(*fragment)
		}
	}

	var detected string
	if len(top) > 2 {
		// Not always a string; ignore anything else
		_ = json.Unmarshal(top[2], &detected)
	}

	return b.String(), detected, nil
}
