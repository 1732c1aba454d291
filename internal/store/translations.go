package store

import "database/sql"

// InsertTranslation stores a translation and sets its ID and Timestamp
func (s *Store) InsertTranslation(rec *TranslationRecord) (int64, error) {
	if rec == nil {
		return 0, persistErr("insert", "translations", errNilRecord)
	}
	if rec.Timestamp == "" {
		rec.Timestamp = s.timestamp()
	}

	id, err := s.insert("translations", `
		INSERT INTO translations (sourceText, targetText, sourceLang, targetLang, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`, rec.SourceText, rec.TargetText, rec.SourceLang, rec.TargetLang, rec.Timestamp)
	if err != nil {
		return 0, err
	}

	rec.ID = id
	return id, nil
}

// ListTranslations returns all translations, newest first
func (s *Store) ListTranslations() []*TranslationRecord {
	return queryList(s, "translations", `
		SELECT id, sourceText, targetText, sourceLang, targetLang, timestamp
		FROM translations
		ORDER BY timestamp DESC, id DESC
	`, func(rows *sql.Rows) (*TranslationRecord, error) {
		var r TranslationRecord
		err := rows.Scan(&r.ID, &r.SourceText, &r.TargetText, &r.SourceLang, &r.TargetLang, &r.Timestamp)
		return &r, err
	})
}

// DeleteTranslation removes a translation by id
func (s *Store) DeleteTranslation(id int64) error {
	return s.DeleteByID(KindTranslation, id)
}
