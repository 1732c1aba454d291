package store

import (
	"database/sql"
	"errors"
)

const profileColumns = `id, name, email, phoneNumber, selectedVoice,
		       notificationsEnabled, voiceAssistantEnabled, appLockEnabled, updatedAt`

// UpsertProfile replaces the row with the same id, or inserts it.
// Last write wins; UpdatedAt is set to the write time.
func (s *Store) UpsertProfile(p *UserProfileRecord) error {
	if p == nil {
		return persistErr("upsert", "user_profile", errNilRecord)
	}
	if p.ID == "" {
		return persistErr("upsert", "user_profile", errors.New("profile id is required"))
	}
	p.UpdatedAt = s.timestamp()

	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO user_profile
		(id, name, email, phoneNumber, selectedVoice,
		 notificationsEnabled, voiceAssistantEnabled, appLockEnabled, updatedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Email, p.PhoneNumber, p.SelectedVoice,
		boolToInt(p.NotificationsEnabled), boolToInt(p.VoiceAssistantEnabled), boolToInt(p.AppLockEnabled),
		p.UpdatedAt)

	return persistErr("upsert", "user_profile", err)
}

// GetProfile returns the profile for an id, or nil when absent or unreadable
func (s *Store) GetProfile(id string) *UserProfileRecord {
	list := queryList(s, "user_profile", `
		SELECT `+profileColumns+`
		FROM user_profile
		WHERE id = ?
	`, scanProfile, id)
	if len(list) == 0 {
		return nil
	}
	return list[0]
}

// ListProfiles returns all stored profiles, most recently updated first
func (s *Store) ListProfiles() []*UserProfileRecord {
	return queryList(s, "user_profile", `
		SELECT `+profileColumns+`
		FROM user_profile
		ORDER BY updatedAt DESC, id
	`, scanProfile)
}

// DeleteProfile removes a profile by id
func (s *Store) DeleteProfile(id string) error {
	_, err := s.db.Exec("DELETE FROM user_profile WHERE id = ?", id)
	return persistErr("delete", "user_profile", err)
}

func scanProfile(rows *sql.Rows) (*UserProfileRecord, error) {
	var p UserProfileRecord
	var email, phone, voice sql.NullString
	var notifications, assistant, appLock int

	err := rows.Scan(&p.ID, &p.Name, &email, &phone, &voice,
		&notifications, &assistant, &appLock, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if email.Valid {
		p.Email = &email.String
	}
	if phone.Valid {
		p.PhoneNumber = &phone.String
	}
	if voice.Valid {
		p.SelectedVoice = &voice.String
	}
	p.NotificationsEnabled = notifications == 1
	p.VoiceAssistantEnabled = assistant == 1
	p.AppLockEnabled = appLock == 1

	return &p, nil
}
