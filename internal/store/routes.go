package store

import "database/sql"

const routeColumns = `id, name, startLat, startLng, endLat, endLng, polyline,
		       COALESCE(steps, ''), COALESCE(distance, ''), COALESCE(duration, ''), timestamp`

// InsertRoute stores a route and sets its ID and Timestamp.
// Routes are append/delete only.
func (s *Store) InsertRoute(rec *RouteRecord) (int64, error) {
	if rec == nil {
		return 0, persistErr("insert", "routes", errNilRecord)
	}
	if rec.Timestamp == "" {
		rec.Timestamp = s.timestamp()
	}

	id, err := s.insert("routes", `
		INSERT INTO routes
		(name, startLat, startLng, endLat, endLng, polyline, steps, distance, duration, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.Name, rec.StartLat, rec.StartLng, rec.EndLat, rec.EndLng,
		rec.Polyline, rec.Steps, rec.Distance, rec.Duration, rec.Timestamp)
	if err != nil {
		return 0, err
	}

	rec.ID = id
	return id, nil
}

// ListRoutes returns all routes, newest first
func (s *Store) ListRoutes() []*RouteRecord {
	return queryList(s, "routes", `
		SELECT `+routeColumns+`
		FROM routes
		ORDER BY timestamp DESC, id DESC
	`, scanRoute)
}

// GetRoute returns a route by id, or nil when absent or unreadable
func (s *Store) GetRoute(id int64) *RouteRecord {
	list := queryList(s, "routes", `
		SELECT `+routeColumns+`
		FROM routes
		WHERE id = ?
	`, scanRoute, id)
	if len(list) == 0 {
		return nil
	}
	return list[0]
}

// DeleteRoute removes a route by id
func (s *Store) DeleteRoute(id int64) error {
	return s.DeleteByID(KindRoute, id)
}

func scanRoute(rows *sql.Rows) (*RouteRecord, error) {
	var r RouteRecord
	err := rows.Scan(&r.ID, &r.Name, &r.StartLat, &r.StartLng, &r.EndLat, &r.EndLng,
		&r.Polyline, &r.Steps, &r.Distance, &r.Duration, &r.Timestamp)
	return &r, err
}
