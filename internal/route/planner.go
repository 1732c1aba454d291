package route

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/franz/wayfarer/internal/directions"
	"github.com/franz/wayfarer/internal/polyline"
	"github.com/franz/wayfarer/internal/report"
	"github.com/franz/wayfarer/internal/store"
	"github.com/franz/wayfarer/internal/util"
)

// Planner fetches routes from a directions service and keeps the ones the
// user chooses to save
type Planner struct {
	fetcher directions.Fetcher
	store   *store.Store
	logger  *report.EventLogger
}

// PlannerConfig holds planner configuration
type PlannerConfig struct {
	Fetcher directions.Fetcher
	Store   *store.Store
	Logger  *report.EventLogger
}

// NewPlanner creates a new Planner
func NewPlanner(cfg *PlannerConfig) *Planner {
	return &Planner{
		fetcher: cfg.Fetcher,
		store:   cfg.Store,
		logger:  cfg.Logger,
	}
}

// Planned is a fetched route that has not been saved yet
type Planned struct {
	Result *directions.Result
	Points []polyline.Point
	Record *store.RouteRecord
}

// Fetch asks the directions service for a route and decodes its geometry.
// Nothing is written to the store.
func (p *Planner) Fetch(ctx context.Context, origin, destination string) (*Planned, error) {
	if p.fetcher == nil {
		return nil, fmt.Errorf("no directions service configured: %w", util.ErrInvalidConfig)
	}

	start := time.Now()
	result, err := p.fetcher.Route(ctx, origin, destination)
	if err != nil {
		p.logger.LogRouteFetch(origin, destination, 0, time.Since(start), err)
		return nil, fmt.Errorf("failed to fetch route: %w", err)
	}

	points, err := result.Points()
	if err != nil {
		p.logger.LogRouteFetch(origin, destination, 0, time.Since(start), err)
		return nil, fmt.Errorf("failed to decode route geometry: %w", err)
	}
	p.logger.LogRouteFetch(origin, destination, len(points), time.Since(start), nil)

	steps := string(result.Steps)
	if steps == "" {
		steps = "[]"
	}

	return &Planned{
		Result: result,
		Points: points,
		Record: &store.RouteRecord{
			Name:     defaultName(result),
			StartLat: result.Start.Latitude,
			StartLng: result.Start.Longitude,
			EndLat:   result.End.Latitude,
			EndLng:   result.End.Longitude,
			Polyline: result.Polyline,
			Steps:    steps,
			Distance: result.Distance,
			Duration: result.Duration,
		},
	}, nil
}

// Save stores a fetched route. An empty name keeps the generated one.
func (p *Planner) Save(planned *Planned, name string) (int64, error) {
	if planned == nil || planned.Record == nil {
		return 0, fmt.Errorf("nothing to save")
	}

	rec := *planned.Record
	if name = strings.TrimSpace(name); name != "" {
		rec.Name = name
	}

	id, err := p.store.InsertRoute(&rec)
	p.logger.LogSave(string(store.KindRoute), id, err)
	if err != nil {
		return 0, err
	}

	planned.Record = &rec
	util.SuccessLog("Saved route %d: %s", id, rec.Name)
	return id, nil
}

// Load decodes the geometry of a stored route, whichever format it was
// written in
func Load(rec *store.RouteRecord) ([]polyline.Point, error) {
	if rec == nil {
		return nil, fmt.Errorf("route: %w", util.ErrNotFound)
	}
	points, err := rec.Points()
	if err != nil {
		return nil, fmt.Errorf("route %d: %w", rec.ID, err)
	}
	return points, nil
}

func defaultName(r *directions.Result) string {
	from := r.StartAddress
	if from == "" {
		from = r.Origin
	}
	to := r.EndAddress
	if to == "" {
		to = r.Destination
	}
	return from + " to " + to
}
