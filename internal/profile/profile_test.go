package profile

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/franz/wayfarer/internal/store"
	"github.com/franz/wayfarer/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "profile.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleProfile() *store.UserProfileRecord {
	return &store.UserProfileRecord{
		ID:                   "uid-123",
		Name:                 "Ana",
		Email:                store.StringPtr("ana@example.com"),
		NotificationsEnabled: true,
	}
}

func fastRetry() *util.RetryConfig {
	return &util.RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: 5 * time.Millisecond}
}

func TestSaveOnline(t *testing.T) {
	s := openTestStore(t)
	sink := &StubSink{}
	svc := New(&Config{Store: s, Remote: sink})

	outcome, err := svc.Save(context.Background(), sampleProfile())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSavedOnline, outcome)
	assert.Equal(t, "Profile saved", outcome.Message())

	require.Len(t, sink.Saved(), 1)
	assert.NotEmpty(t, sink.Saved()[0].UpdatedAt)

	got := svc.Get("uid-123")
	require.NotNil(t, got)
	assert.Equal(t, "Ana", got.Name)
}

func TestSaveRemoteFailureKeepsLocal(t *testing.T) {
	s := openTestStore(t)
	svc := New(&Config{Store: s, Remote: &StubSink{Err: errors.New("offline")}})

	outcome, err := svc.Save(context.Background(), sampleProfile())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSavedLocally, outcome)
	assert.Equal(t, "Profile saved locally, will sync later", outcome.Message())

	assert.NotNil(t, s.GetProfile("uid-123"))
}

func TestSaveWithoutRemote(t *testing.T) {
	svc := New(&Config{Store: openTestStore(t)})

	outcome, err := svc.Save(context.Background(), sampleProfile())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSavedLocally, outcome)
}

func TestSaveLocalFailure(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "closed.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	sink := &StubSink{}
	svc := New(&Config{Store: s, Remote: sink})

	_, err = svc.Save(context.Background(), sampleProfile())
	assert.ErrorIs(t, err, store.ErrPersistence)
	assert.Empty(t, sink.Saved(), "remote must not be tried when the local write fails")
}

func TestSaveMissingID(t *testing.T) {
	svc := New(&Config{Store: openTestStore(t), Remote: &StubSink{}})

	_, err := svc.Save(context.Background(), &store.UserProfileRecord{Name: "nobody"})
	assert.ErrorIs(t, err, ErrMissingID)

	_, err = svc.Save(context.Background(), nil)
	assert.ErrorIs(t, err, ErrMissingID)
}

type slowSink struct{}

func (slowSink) Save(ctx context.Context, p *store.UserProfileRecord) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestSaveRemoteTimeout(t *testing.T) {
	svc := New(&Config{Store: openTestStore(t), Remote: slowSink{}, RemoteTimeout: 20 * time.Millisecond})

	outcome, err := svc.Save(context.Background(), sampleProfile())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSavedLocally, outcome)
}

func TestUpdateApply(t *testing.T) {
	name, email, voice := " Bea ", "bea@example.com", ""
	on, off := true, false

	p, err := Update{Name: &name, Email: &email, SelectedVoice: &voice, AppLockEnabled: &on, NotificationsEnabled: &off}.
		Apply("uid-9", sampleProfile())
	require.NoError(t, err)
	assert.Equal(t, "uid-123", p.ID, "base id wins")
	assert.Equal(t, "Bea", p.Name)
	assert.Equal(t, "bea@example.com", *p.Email)
	assert.Nil(t, p.SelectedVoice)
	assert.True(t, p.AppLockEnabled)
	assert.False(t, p.NotificationsEnabled)

	fresh, err := Update{Name: &name}.Apply("uid-9", nil)
	require.NoError(t, err)
	assert.Equal(t, "uid-9", fresh.ID)
	assert.Nil(t, fresh.Email)
	assert.True(t, fresh.NotificationsEnabled)
	assert.True(t, fresh.VoiceAssistantEnabled)
	assert.False(t, fresh.AppLockEnabled)

	bad := "not-an-email"
	_, err = Update{Email: &bad}.Apply("uid-9", nil)
	assert.ErrorIs(t, err, util.ErrInvalidConfig)

	_, err = Update{}.Apply("", nil)
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestHTTPSink(t *testing.T) {
	var got remoteProfile
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/profiles/uid-123", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	sink := NewHTTPSink(server.URL+"/", "secret", fastRetry())
	require.NoError(t, sink.Save(context.Background(), sampleProfile()))

	assert.Equal(t, "uid-123", got.ID)
	assert.Equal(t, "ana@example.com", *got.Email)
	assert.Nil(t, got.PhoneNumber)
	assert.True(t, got.NotificationsEnabled)
}

func TestHTTPSinkErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path == "/profiles/retry" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	sink := NewHTTPSink(server.URL, "", fastRetry())

	err := sink.Save(context.Background(), &store.UserProfileRecord{ID: "uid-123"})
	var sinkErr *SinkError
	require.True(t, errors.As(err, &sinkErr))
	assert.Equal(t, http.StatusForbidden, sinkErr.StatusCode)
	assert.ErrorIs(t, err, util.ErrUnavailable)
	assert.Equal(t, int32(1), calls.Load())

	calls.Store(0)
	err = sink.Save(context.Background(), &store.UserProfileRecord{ID: "retry"})
	assert.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestServiceWithHTTPSinkDowngrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	svc := New(&Config{Store: openTestStore(t), Remote: NewHTTPSink(server.URL, "", fastRetry())})
	outcome, err := svc.Save(context.Background(), sampleProfile())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSavedLocally, outcome)
}
