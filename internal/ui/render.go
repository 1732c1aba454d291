package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/franz/wayfarer/internal/store"
)

// maxCell bounds free-text columns
const maxCell = 48

// HistoryItem is one row of the combined history listing
type HistoryItem struct {
	Kind      store.Kind
	ID        string
	Summary   string
	Timestamp string
}

// RelativeTime renders a stored timestamp as "3 minutes ago". Unparseable
// values are returned unchanged.
func RelativeTime(ts string, now time.Time) string {
	t, err := time.Parse(store.TimestampLayout, ts)
	if err != nil {
		t, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return ts
		}
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// Truncate shortens s to max runes, marking the cut with an ellipsis
func Truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}

// renderTable lays out rows in borderless columns under a styled header.
// Cells may carry their own style.
func renderTable(headers []string, rows [][]string) string {
	last := len(headers) - 1
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		Wrap(false).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := CellStyle
			if row == table.HeaderRow {
				style = HeaderStyle
			}
			if col < last {
				style = style.PaddingRight(2)
			}
			return style
		})
	return strings.TrimRight(t.String(), "\n") + "\n"
}

// RenderRoutes lists saved routes, newest first as the store returns them
func RenderRoutes(routes []*store.RouteRecord, now time.Time) string {
	if len(routes) == 0 {
		return DimStyle.Render("No saved routes") + "\n"
	}

	rows := make([][]string, 0, len(routes))
	for _, r := range routes {
		distance := r.Distance
		if r.IsRecorded() {
			distance = RecordedStyle.Render(store.DistanceRecorded)
		}
		var points string
		if pts, err := r.Points(); err == nil {
			points = fmt.Sprintf("%d", len(pts))
		} else {
			points = ErrorStyle.Render("broken")
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", r.ID),
			Truncate(r.Name, maxCell),
			distance,
			r.Duration,
			points,
			DimStyle.Render(RelativeTime(r.Timestamp, now)),
		})
	}

	return renderTable([]string{"ID", "NAME", "DISTANCE", "DURATION", "POINTS", "SAVED"}, rows)
}

// CollectHistory gathers rows of the requested kinds (all kinds when none
// are given), newest first. Ties keep kind order and then the higher id.
func CollectHistory(s *store.Store, kinds ...store.Kind) []HistoryItem {
	if len(kinds) == 0 {
		kinds = store.Kinds
	}

	var items []HistoryItem
	for _, kind := range kinds {
		switch kind {
		case store.KindScan:
			for _, r := range s.ListScans() {
				items = append(items, HistoryItem{kind, fmt.Sprint(r.ID), r.Text, r.Timestamp})
			}
		case store.KindTranslation:
			for _, r := range s.ListTranslations() {
				summary := fmt.Sprintf("[%s→%s] %s → %s", r.SourceLang, r.TargetLang, r.SourceText, r.TargetText)
				items = append(items, HistoryItem{kind, fmt.Sprint(r.ID), summary, r.Timestamp})
			}
		case store.KindVoiceNote:
			for _, r := range s.ListVoiceNotes() {
				items = append(items, HistoryItem{kind, fmt.Sprint(r.ID), r.Transcription, r.Timestamp})
			}
		case store.KindProfile:
			for _, r := range s.ListProfiles() {
				summary := r.Name
				if r.Email != nil {
					summary += " <" + *r.Email + ">"
				}
				items = append(items, HistoryItem{kind, r.ID, summary, r.UpdatedAt})
			}
		case store.KindRoute:
			for _, r := range s.ListRoutes() {
				summary := r.Name
				if !r.IsRecorded() && r.Distance != "" {
					summary += " (" + r.Distance + ")"
				}
				items = append(items, HistoryItem{kind, fmt.Sprint(r.ID), summary, r.Timestamp})
			}
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp > items[j].Timestamp
	})
	return items
}

// RenderHistory lists history items across kinds
func RenderHistory(items []HistoryItem, now time.Time) string {
	if len(items) == 0 {
		return DimStyle.Render("Nothing saved yet") + "\n"
	}

	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{
			KindStyle.Render(string(it.Kind)),
			it.ID,
			Truncate(it.Summary, maxCell),
			DimStyle.Render(RelativeTime(it.Timestamp, now)),
		})
	}
	return renderTable([]string{"KIND", "ID", "SUMMARY", "WHEN"}, rows)
}

// Title renders a section heading
func Title(s string) string {
	return TitleStyle.Render(s)
}
