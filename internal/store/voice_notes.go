package store

import "database/sql"

// InsertVoiceNote stores a transcription and sets its ID and Timestamp
func (s *Store) InsertVoiceNote(rec *VoiceNoteRecord) (int64, error) {
	if rec == nil {
		return 0, persistErr("insert", "voice_notes", errNilRecord)
	}
	if rec.Timestamp == "" {
		rec.Timestamp = s.timestamp()
	}

	id, err := s.insert("voice_notes", `
		INSERT INTO voice_notes (transcription, timestamp)
		VALUES (?, ?)
	`, rec.Transcription, rec.Timestamp)
	if err != nil {
		return 0, err
	}

	rec.ID = id
	return id, nil
}

// ListVoiceNotes returns all voice notes, newest first
func (s *Store) ListVoiceNotes() []*VoiceNoteRecord {
	return queryList(s, "voice_notes", `
		SELECT id, transcription, timestamp
		FROM voice_notes
		ORDER BY timestamp DESC, id DESC
	`, func(rows *sql.Rows) (*VoiceNoteRecord, error) {
		var r VoiceNoteRecord
		err := rows.Scan(&r.ID, &r.Transcription, &r.Timestamp)
		return &r, err
	})
}

// DeleteVoiceNote removes a voice note by id
func (s *Store) DeleteVoiceNote(id int64) error {
	return s.DeleteByID(KindVoiceNote, id)
}
