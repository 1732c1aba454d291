package store

import (
	"fmt"

	"github.com/franz/wayfarer/internal/polyline"
)

// Kind identifies one of the record tables
type Kind string

const (
	KindScan        Kind = "scan"
	KindTranslation Kind = "translation"
	KindVoiceNote   Kind = "voice"
	KindProfile     Kind = "profile"
	KindRoute       Kind = "route"
)

// Kinds lists every record kind in display order
var Kinds = []Kind{KindScan, KindTranslation, KindVoiceNote, KindProfile, KindRoute}

// Table returns the table backing the kind
func (k Kind) Table() string {
	switch k {
	case KindScan:
		return "scans"
	case KindTranslation:
		return "translations"
	case KindVoiceNote:
		return "voice_notes"
	case KindProfile:
		return "user_profile"
	case KindRoute:
		return "routes"
	default:
		return ""
	}
}

// ParseKind accepts a kind name or its table name
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if s == string(k) || s == k.Table() {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown record kind %q", s)
}

// DistanceRecorded is stored in RouteRecord.Distance and Duration for paths
// recorded on the device instead of fetched from the directions service
const DistanceRecorded = "Recorded"

// ScanRecord is an accepted OCR capture
type ScanRecord struct {
	ID        int64
	Text      string
	ImageRef  string
	Timestamp string
}

// TranslationRecord is a translation the user chose to keep
type TranslationRecord struct {
	ID         int64
	SourceText string
	TargetText string
	SourceLang string
	TargetLang string
	Timestamp  string
}

// VoiceNoteRecord is a saved speech transcription
type VoiceNoteRecord struct {
	ID            int64
	Transcription string
	Timestamp     string
}

// UserProfileRecord is keyed by the identity provider's user id
type UserProfileRecord struct {
	ID                    string
	Name                  string
	Email                 *string
	PhoneNumber           *string
	SelectedVoice         *string
	NotificationsEnabled  bool
	VoiceAssistantEnabled bool
	AppLockEnabled        bool
	UpdatedAt             string
}

// NewUserProfile returns a profile for id carrying the user_profile column
// defaults: notifications and voice assistant on, app lock off
func NewUserProfile(id string) *UserProfileRecord {
	return &UserProfileRecord{
		ID:                    id,
		NotificationsEnabled:  true,
		VoiceAssistantEnabled: true,
	}
}

// RouteRecord is a saved route, fetched or recorded
type RouteRecord struct {
	ID        int64
	Name      string
	StartLat  float64
	StartLng  float64
	EndLat    float64
	EndLng    float64
	Polyline  string // Google-encoded, or a JSON point list when it starts with '['
	Steps     string // JSON navigation steps, opaque
	Distance  string // "3.2 km" or DistanceRecorded
	Duration  string // "12 mins" or DistanceRecorded
	Timestamp string
}

// IsRecorded reports whether the route came from breadcrumb recording
func (r *RouteRecord) IsRecorded() bool {
	return r.Distance == DistanceRecorded
}

// Path interprets the stored polyline column
func (r *RouteRecord) Path() (polyline.Path, error) {
	return polyline.ParseStored(r.Polyline)
}

// Points decodes the route geometry
func (r *RouteRecord) Points() ([]polyline.Point, error) {
	path, err := r.Path()
	if err != nil {
		return nil, err
	}
	return path.Points()
}

// StringPtr returns a pointer to s, or nil when s is empty
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
