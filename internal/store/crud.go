package store

import (
	"database/sql"
	"errors"

	"github.com/franz/wayfarer/internal/util"
)

var errNilRecord = errors.New("nil record")

// insert runs an INSERT and returns the assigned row id
func (s *Store) insert(table, query string, args ...interface{}) (int64, error) {
	result, err := s.db.Exec(query, args...)
	if err != nil {
		return 0, persistErr("insert", table, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, persistErr("insert", table, err)
	}

	util.DebugLog("Stored %s row %d", table, id)
	return id, nil
}

// queryList runs a read query. Read failures are logged and produce an
// empty result; callers cannot tell them apart from an empty table.
func queryList[T any](s *Store, table, query string, scan func(*sql.Rows) (*T, error), args ...interface{}) []*T {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		util.WarnLog("Failed to read %s: %v", table, err)
		return []*T{}
	}
	defer rows.Close()

	out := []*T{}
	for rows.Next() {
		rec, err := scan(rows)
		if err != nil {
			util.WarnLog("Failed to read %s row: %v", table, err)
			return []*T{}
		}
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		util.WarnLog("Failed to read %s: %v", table, err)
		return []*T{}
	}

	return out
}

// DeleteByID removes a row of the given kind. A missing id is not an error.
// Profiles are keyed by string ids; use DeleteProfile for them.
func (s *Store) DeleteByID(kind Kind, id int64) error {
	table := kind.Table()
	if table == "" || kind == KindProfile {
		return persistErr("delete", string(kind), errors.New("unsupported record kind"))
	}

	if _, err := s.db.Exec("DELETE FROM "+table+" WHERE id = ?", id); err != nil {
		return persistErr("delete", table, err)
	}
	return nil
}

// Count returns the number of rows of a kind, or 0 if the table is unreadable
func (s *Store) Count(kind Kind) int {
	table := kind.Table()
	if table == "" {
		return 0
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
		util.WarnLog("Failed to count %s: %v", table, err)
		return 0
	}
	return count
}
