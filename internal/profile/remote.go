package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/franz/wayfarer/internal/store"
	"github.com/franz/wayfarer/internal/util"
)

// remoteProfile is the JSON body sent to the identity provider
type remoteProfile struct {
	ID                    string  `json:"id"`
	Name                  string  `json:"name"`
	Email                 *string `json:"email"`
	PhoneNumber           *string `json:"phoneNumber"`
	SelectedVoice         *string `json:"selectedVoice"`
	NotificationsEnabled  bool    `json:"notificationsEnabled"`
	VoiceAssistantEnabled bool    `json:"voiceAssistantEnabled"`
	AppLockEnabled        bool    `json:"appLockEnabled"`
	UpdatedAt             string  `json:"updatedAt"`
}

// SinkError is a non-2xx response from the profile endpoint
type SinkError struct {
	StatusCode int
	Message    string
	Wait       time.Duration
}

func (e *SinkError) Error() string {
	msg := fmt.Sprintf("profile sync failed (HTTP %d)", e.StatusCode)
	if e.Message != "" {
		msg += " - " + e.Message
	}
	return msg
}

// Temporary reports whether retrying may succeed
func (e *SinkError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// RetryAfter returns the delay the endpoint asked for, if any
func (e *SinkError) RetryAfter() time.Duration {
	return e.Wait
}

func (e *SinkError) Unwrap() error {
	return util.ErrUnavailable
}

// HTTPSink PUTs profiles as JSON to <BaseURL>/profiles/<id>
type HTTPSink struct {
	baseURL    string
	token      string
	httpClient *http.Client
	retry      *util.RetryConfig
}

// NewHTTPSink creates a sink for baseURL. token, when set, is sent as a
// bearer token.
func NewHTTPSink(baseURL, token string, retry *util.RetryConfig) *HTTPSink {
	if retry == nil {
		retry = util.RemoteRetryConfig()
	}
	return &HTTPSink{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retry:      retry,
	}
}

// Save sends the profile
func (h *HTTPSink) Save(ctx context.Context, p *store.UserProfileRecord) error {
	body, err := json.Marshal(remoteProfile{
		ID:                    p.ID,
		Name:                  p.Name,
		Email:                 p.Email,
		PhoneNumber:           p.PhoneNumber,
		SelectedVoice:         p.SelectedVoice,
		NotificationsEnabled:  p.NotificationsEnabled,
		VoiceAssistantEnabled: p.VoiceAssistantEnabled,
		AppLockEnabled:        p.AppLockEnabled,
		UpdatedAt:             p.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	urlStr := h.baseURL + "/profiles/" + url.PathEscape(p.ID)

	return util.Retry(ctx, h.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, urlStr, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if h.token != "" {
			req.Header.Set("Authorization", "Bearer "+h.token)
		}

		resp, err := h.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to execute request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return &SinkError{
				StatusCode: resp.StatusCode,
				Message:    strings.TrimSpace(string(msg)),
				Wait:       util.ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
			}
		}
		return nil
	}, "profile sync")
}

// StubSink records saves in memory and can be told to fail
type StubSink struct {
	Err error

	mu    sync.Mutex
	saved []store.UserProfileRecord
}

// Save records p or returns Err
func (s *StubSink) Save(ctx context.Context, p *store.UserProfileRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.saved = append(s.saved, *p)
	return nil
}

// Saved returns copies of every profile the sink accepted
func (s *StubSink) Saved() []store.UserProfileRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]store.UserProfileRecord(nil), s.saved...)
}
