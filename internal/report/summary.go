package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/franz/wayfarer/internal/polyline"
	"github.com/franz/wayfarer/internal/store"
)

// SummaryReport is an overview of everything kept in the local store
type SummaryReport struct {
	GeneratedAt time.Time

	// Record counts
	Scans        int
	Translations int
	VoiceNotes   int
	Profiles     int

	// Route statistics
	RoutesFetched  int
	RoutesRecorded int
	RoutesBroken   int
	PathMeters     float64

	// Details
	LanguagePairs []LanguagePair
	LongestRoutes []RouteSummary
	TopErrors     []ErrorSummary

	// Metadata
	DatabasePath string
	EventLogPath string
}

// LanguagePair counts saved translations per direction
type LanguagePair struct {
	Source string
	Target string
	Count  int
}

// RouteSummary describes one saved route
type RouteSummary struct {
	ID       int64
	Name     string
	Recorded bool
	Points   int
	Meters   float64
	Distance string
}

// ErrorSummary represents an error with its count
type ErrorSummary struct {
	Error string
	Count int
}

// GenerateSummaryReport creates a summary report from the store and an
// optional event log
func GenerateSummaryReport(db *store.Store, eventLogPath string) (*SummaryReport, error) {
	report := &SummaryReport{
		GeneratedAt:   time.Now(),
		EventLogPath:  eventLogPath,
		LanguagePairs: make([]LanguagePair, 0),
		LongestRoutes: make([]RouteSummary, 0),
		TopErrors:     make([]ErrorSummary, 0),
	}

	report.Scans = db.Count(store.KindScan)
	report.VoiceNotes = db.Count(store.KindVoiceNote)
	report.Profiles = db.Count(store.KindProfile)

	translations := db.ListTranslations()
	report.Translations = len(translations)
	report.LanguagePairs = gatherLanguagePairs(translations)

	routes := gatherRoutes(db.ListRoutes())
	for _, r := range routes {
		if r.Recorded {
			report.RoutesRecorded++
		} else {
			report.RoutesFetched++
		}
		if r.Points == 0 {
			report.RoutesBroken++
		}
		report.PathMeters += r.Meters
	}

	sort.SliceStable(routes, func(i, j int) bool {
		return routes[i].Meters > routes[j].Meters
	})
	if len(routes) > 10 {
		routes = routes[:10]
	}
	report.LongestRoutes = routes

	if eventLogPath != "" {
		errs, err := gatherTopErrors(eventLogPath, 10)
		if err != nil {
			return nil, err
		}
		report.TopErrors = errs
	}

	return report, nil
}

func gatherRoutes(records []*store.RouteRecord) []RouteSummary {
	routes := make([]RouteSummary, 0, len(records))
	for _, rec := range records {
		summary := RouteSummary{
			ID:       rec.ID,
			Name:     rec.Name,
			Recorded: rec.IsRecorded(),
			Distance: rec.Distance,
		}
		// Undecodable geometry still counts as a route, with no length
		if points, err := rec.Points(); err == nil {
			summary.Points = len(points)
			summary.Meters = polyline.Length(points)
		}
		routes = append(routes, summary)
	}
	return routes
}

func gatherLanguagePairs(translations []*store.TranslationRecord) []LanguagePair {
	counts := make(map[[2]string]int)
	for _, t := range translations {
		counts[[2]string{t.SourceLang, t.TargetLang}]++
	}

	pairs := make([]LanguagePair, 0, len(counts))
	for k, n := range counts {
		pairs = append(pairs, LanguagePair{Source: k[0], Target: k[1], Count: n})
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Count != pairs[j].Count {
			return pairs[i].Count > pairs[j].Count
		}
		return pairs[i].Source+pairs[i].Target < pairs[j].Source+pairs[j].Target
	})
	return pairs
}

// gatherTopErrors counts error messages in a JSONL event log
func gatherTopErrors(eventLogPath string, limit int) ([]ErrorSummary, error) {
	file, err := os.Open(eventLogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	defer file.Close()

	errorCounts := make(map[string]int)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var event Event
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			continue // Tolerate partially written lines
		}
		if event.Error != "" {
			errorCounts[event.Error]++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read event log: %w", err)
	}

	errors := make([]ErrorSummary, 0, len(errorCounts))
	for msg, count := range errorCounts {
		errors = append(errors, ErrorSummary{Error: msg, Count: count})
	}

	sort.Slice(errors, func(i, j int) bool {
		if errors[i].Count != errors[j].Count {
			return errors[i].Count > errors[j].Count
		}
		return errors[i].Error < errors[j].Error
	})

	if len(errors) > limit {
		errors = errors[:limit]
	}

	return errors, nil
}

// FormatMeters renders a path length for humans
func FormatMeters(m float64) string {
	if m < 1000 {
		return fmt.Sprintf("%.0f m", m)
	}
	return humanize.FtoaWithDigits(m/1000, 1) + " km"
}

// WriteMarkdownReport writes the summary report as Markdown
func WriteMarkdownReport(report *SummaryReport, outputPath string) error {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var md strings.Builder

	md.WriteString("# Wayfarer - Summary Report\n\n")
	md.WriteString(fmt.Sprintf("**Generated:** %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05")))

	if report.DatabasePath != "" {
		md.WriteString(fmt.Sprintf("**Database:** `%s`\n\n", report.DatabasePath))
	}
	if report.EventLogPath != "" {
		md.WriteString(fmt.Sprintf("**Event Log:** `%s`\n\n", report.EventLogPath))
	}

	md.WriteString("---\n\n")

	md.WriteString("## Overview\n\n")
	md.WriteString("| Record | Count |\n")
	md.WriteString("|--------|-------|\n")
	md.WriteString(fmt.Sprintf("| Scans | %d |\n", report.Scans))
	md.WriteString(fmt.Sprintf("| Translations | %d |\n", report.Translations))
	md.WriteString(fmt.Sprintf("| Voice Notes | %d |\n", report.VoiceNotes))
	md.WriteString(fmt.Sprintf("| Profiles | %d |\n", report.Profiles))
	md.WriteString(fmt.Sprintf("| Routes | %d |\n", report.RoutesFetched+report.RoutesRecorded))
	md.WriteString("\n")

	if report.RoutesFetched+report.RoutesRecorded > 0 {
		md.WriteString("## Routes\n\n")
		md.WriteString("| Metric | Value |\n")
		md.WriteString("|--------|-------|\n")
		md.WriteString(fmt.Sprintf("| Fetched | %d |\n", report.RoutesFetched))
		md.WriteString(fmt.Sprintf("| Recorded | %d |\n", report.RoutesRecorded))
		if report.RoutesBroken > 0 {
			md.WriteString(fmt.Sprintf("| Unreadable Geometry | %d |\n", report.RoutesBroken))
		}
		md.WriteString(fmt.Sprintf("| Total Path Length | %s |\n", FormatMeters(report.PathMeters)))
		md.WriteString("\n")

		md.WriteString("### Longest Routes\n\n")
		md.WriteString("| # | Name | Source | Points | Length |\n")
		md.WriteString("|---|------|--------|--------|--------|\n")
		for _, r := range report.LongestRoutes {
			source := "fetched"
			if r.Recorded {
				source = "recorded"
			}
			md.WriteString(fmt.Sprintf("| %d | %s | %s | %d | %s |\n",
				r.ID, truncateText(r.Name, 40), source, r.Points, FormatMeters(r.Meters)))
		}
		md.WriteString("\n")
	}

	if len(report.LanguagePairs) > 0 {
		md.WriteString("## Translations\n\n")
		md.WriteString("| From | To | Saved |\n")
		md.WriteString("|------|----|-------|\n")
		for _, p := range report.LanguagePairs {
			md.WriteString(fmt.Sprintf("| %s | %s | %d |\n", p.Source, p.Target, p.Count))
		}
		md.WriteString("\n")
	}

	if len(report.TopErrors) > 0 {
		md.WriteString("## Top Errors\n\n")
		md.WriteString("| Count | Error |\n")
		md.WriteString("|-------|-------|\n")
		for _, err := range report.TopErrors {
			md.WriteString(fmt.Sprintf("| %d | %s |\n", err.Count, err.Error))
		}
		md.WriteString("\n")
	}

	md.WriteString("---\n\n")
	md.WriteString("*Generated by wayfarer*\n")

	if err := os.WriteFile(outputPath, []byte(md.String()), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

// truncateText shortens s to maxLen, keeping both ends
func truncateText(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	start := maxLen/2 - 2
	end := len(r) - (maxLen/2 - 2)
	return string(r[:start]) + "..." + string(r[end:])
}
