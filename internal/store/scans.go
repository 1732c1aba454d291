package store

import "database/sql"

// InsertScan stores an OCR capture and sets its ID and Timestamp
func (s *Store) InsertScan(rec *ScanRecord) (int64, error) {
	if rec == nil {
		return 0, persistErr("insert", "scans", errNilRecord)
	}
	if rec.Timestamp == "" {
		rec.Timestamp = s.timestamp()
	}

	id, err := s.insert("scans", `
		INSERT INTO scans (text, imageUri, timestamp)
		VALUES (?, ?, ?)
	`, rec.Text, rec.ImageRef, rec.Timestamp)
	if err != nil {
		return 0, err
	}

	rec.ID = id
	return id, nil
}

// ListScans returns all scans, newest first
func (s *Store) ListScans() []*ScanRecord {
	return queryList(s, "scans", `
		SELECT id, text, imageUri, timestamp
		FROM scans
		ORDER BY timestamp DESC, id DESC
	`, func(rows *sql.Rows) (*ScanRecord, error) {
		var r ScanRecord
		err := rows.Scan(&r.ID, &r.Text, &r.ImageRef, &r.Timestamp)
		return &r, err
	})
}

// DeleteScan removes a scan by id
func (s *Store) DeleteScan(id int64) error {
	return s.DeleteByID(KindScan, id)
}
