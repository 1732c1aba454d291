// Package profile saves the user profile locally first and then pushes it
// to the identity provider when one is reachable.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/franz/wayfarer/internal/report"
	"github.com/franz/wayfarer/internal/store"
	"github.com/franz/wayfarer/internal/util"
)

// RemoteSink is the identity provider's profile endpoint
type RemoteSink interface {
	Save(ctx context.Context, p *store.UserProfileRecord) error
}

// Outcome tells the user where a profile save landed
type Outcome int

const (
	OutcomeSavedOnline Outcome = iota
	OutcomeSavedLocally
)

// Message is the notification shown after a save
func (o Outcome) Message() string {
	if o == OutcomeSavedOnline {
		return "Profile saved"
	}
	return "Profile saved locally, will sync later"
}

func (o Outcome) String() string {
	if o == OutcomeSavedOnline {
		return "online"
	}
	return "local"
}

// ErrMissingID is returned for a profile without a user id
var ErrMissingID = errors.New("profile has no user id")

// DefaultRemoteTimeout bounds a remote save
const DefaultRemoteTimeout = 10 * time.Second

// Service writes profiles to the store and a remote sink
type Service struct {
	store   *store.Store
	remote  RemoteSink
	timeout time.Duration
	logger  *report.EventLogger
}

// Config holds service configuration. Remote may be nil, in which case
// every save is local.
type Config struct {
	Store         *store.Store
	Remote        RemoteSink
	RemoteTimeout time.Duration
	Logger        *report.EventLogger
}

// New creates a new Service
func New(cfg *Config) *Service {
	timeout := cfg.RemoteTimeout
	if timeout <= 0 {
		timeout = DefaultRemoteTimeout
	}
	return &Service{
		store:   cfg.Store,
		remote:  cfg.Remote,
		timeout: timeout,
		logger:  cfg.Logger,
	}
}

// Save upserts the profile locally and then tries the remote sink. A local
// failure is returned as an error; a remote failure only downgrades the
// outcome to OutcomeSavedLocally.
func (s *Service) Save(ctx context.Context, p *store.UserProfileRecord) (Outcome, error) {
	if p == nil || strings.TrimSpace(p.ID) == "" {
		return OutcomeSavedLocally, ErrMissingID
	}

	if err := s.store.UpsertProfile(p); err != nil {
		s.logger.LogSave(string(store.KindProfile), 0, err)
		return OutcomeSavedLocally, err
	}
	s.logger.LogSave(string(store.KindProfile), 0, nil)

	if s.remote == nil {
		util.DebugLog("No remote profile sink configured")
		s.logger.LogProfileSync(p.ID, false, nil)
		return OutcomeSavedLocally, nil
	}

	rctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.remote.Save(rctx, p); err != nil {
		util.WarnLog("Remote profile save failed: %v", err)
		s.logger.LogProfileSync(p.ID, false, err)
		return OutcomeSavedLocally, nil
	}

	s.logger.LogProfileSync(p.ID, true, nil)
	return OutcomeSavedOnline, nil
}

// Get returns the stored profile, or nil when none is stored
func (s *Service) Get(id string) *store.UserProfileRecord {
	return s.store.GetProfile(id)
}

// Update describes an edit to an existing profile. Nil fields are left
// unchanged; an empty string clears an optional field.
type Update struct {
	Name                  *string
	Email                 *string
	PhoneNumber           *string
	SelectedVoice         *string
	NotificationsEnabled  *bool
	VoiceAssistantEnabled *bool
	AppLockEnabled        *bool
}

// Apply merges the update into base, starting from store.NewUserProfile(id)
// when base is nil
func (u Update) Apply(id string, base *store.UserProfileRecord) (*store.UserProfileRecord, error) {
	p := store.NewUserProfile(id)
	if base != nil {
		cp := *base
		p = &cp
	}
	if strings.TrimSpace(p.ID) == "" {
		return nil, ErrMissingID
	}

	if u.Name != nil {
		p.Name = strings.TrimSpace(*u.Name)
	}
	if u.Email != nil {
		email := strings.TrimSpace(*u.Email)
		if email != "" && !strings.Contains(email, "@") {
			return nil, fmt.Errorf("invalid email %q: %w", email, util.ErrInvalidConfig)
		}
		p.Email = store.StringPtr(email)
	}
	if u.PhoneNumber != nil {
		p.PhoneNumber = store.StringPtr(strings.TrimSpace(*u.PhoneNumber))
	}
	if u.SelectedVoice != nil {
		p.SelectedVoice = store.StringPtr(strings.TrimSpace(*u.SelectedVoice))
	}
	if u.NotificationsEnabled != nil {
		p.NotificationsEnabled = *u.NotificationsEnabled
	}
	if u.VoiceAssistantEnabled != nil {
		p.VoiceAssistantEnabled = *u.VoiceAssistantEnabled
	}
	if u.AppLockEnabled != nil {
		p.AppLockEnabled = *u.AppLockEnabled
	}
	return p, nil
}
