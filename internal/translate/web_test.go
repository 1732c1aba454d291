package translate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/franz/wayfarer/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webOK = `[[["¿Dónde está ","Where is ",null,null,10],["la estación de tren?","the train station?",null,null,10]],null,"en",null,null,null,1]`

func newTestWebClient(t *testing.T, handler http.HandlerFunc) *WebClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewWebClient(&WebConfig{
		BaseURL:           server.URL,
		RequestsPerSecond: 1000,
		Retry: &util.RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Millisecond,
			MaxWait:     5 * time.Millisecond,
		},
	})
}

func TestWebClientTranslate(t *testing.T) {
	client := newTestWebClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/translate_a/single", r.URL.Path)
		assert.Equal(t, "gtx", q.Get("client"))
		assert.Equal(t, "en", q.Get("sl"))
		assert.Equal(t, "es", q.Get("tl"))
		assert.Equal(t, "t", q.Get("dt"))
		assert.Equal(t, "Where is the train station?", q.Get("q"))
		w.Write([]byte(webOK))
	})

	text, detected, err := client.Translate(context.Background(), "Where is the train station?", "en", "es")
	require.NoError(t, err)
	assert.Equal(t, "¿Dónde está la estación de tren?", text)
	assert.Equal(t, "en", detected)
}

func TestWebClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestWebClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(webOK))
	})

	_, _, err := client.Translate(context.Background(), "x", "en", "es")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestWebClientClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestWebClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	})

	_, _, err := client.Translate(context.Background(), "x", "en", "es")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	var webErr *WebError
	require.True(t, errors.As(err, &webErr))
	assert.Equal(t, http.StatusBadRequest, webErr.StatusCode)
	assert.ErrorIs(t, err, util.ErrUnavailable)
}

func TestParseWebResponse(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		want     string
		detected string
		wantErr  bool
	}{
		{"fragments", webOK, "¿Dónde está la estación de tren?", "en", false},
		{"null fragment skipped", `[[[null,"x"],["Hola","Hello"]],null,"en"]`, "Hola", "en", false},
		{"no detected language", `[[["Hola","Hello"]]]`, "Hola", "", false},
		{"detected not a string", `[[["Hola","Hello"]],null,7]`, "Hola", "", false},
		{"not json", `<html>`, "", "", true},
		{"empty array", `[]`, "", "", true},
		{"sentences not an array", `["oops"]`, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, detected, err := parseWebResponse([]byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.detected, detected)
		})
	}
}
