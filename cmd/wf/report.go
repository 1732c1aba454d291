package main

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/franz/wayfarer/internal/report"
	"github.com/franz/wayfarer/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a summary report of the local store",
	Long: `Generate a summary report in Markdown format.

The report includes:
- Counts of scans, translations, voice notes and profiles
- Fetched and recorded routes, with the longest paths
- Language pairs used for translation
- Top errors from the newest event log

The report is saved to <data dir>/reports/summary-<timestamp>.md`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("out", "", "output file for the report")
	reportCmd.Flags().String("event-log", "", "event log to mine for errors (default: newest in events-dir)")
}

// latestEventLog returns the newest events-*.jsonl in dir, or "" when there
// is none. File names start with a sortable timestamp.
func latestEventLog(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, "events-") && strings.HasSuffix(name, ".jsonl") {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	return filepath.Join(dir, names[len(names)-1])
}

func runReport(cmd *cobra.Command, args []string) error {
	dbPath := viper.GetString("db")

	util.InfoLog("=== Generating Summary Report ===")
	util.InfoLog("Database: %s", dbPath)

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	eventLogPath, _ := cmd.Flags().GetString("event-log")
	if eventLogPath == "" {
		eventLogPath = latestEventLog(eventsDir())
	}
	if eventLogPath != "" {
		util.InfoLog("Event log: %s", eventLogPath)
	}

	summary, err := report.GenerateSummaryReport(db, eventLogPath)
	if err != nil {
		return err
	}
	summary.DatabasePath = dbPath

	outputPath, _ := cmd.Flags().GetString("out")
	if outputPath == "" {
		timestamp := time.Now().Format("20060102-150405")
		outputPath = filepath.Join(util.DefaultDataDir(), "reports", "summary-"+timestamp+".md")
	}

	if err := report.WriteMarkdownReport(summary, outputPath); err != nil {
		return err
	}

	util.SuccessLog("Report saved to: %s", outputPath)
	util.InfoLog("  Scans: %d, translations: %d, voice notes: %d",
		summary.Scans, summary.Translations, summary.VoiceNotes)
	util.InfoLog("  Routes: %d fetched, %d recorded (%s of path)",
		summary.RoutesFetched, summary.RoutesRecorded, report.FormatMeters(summary.PathMeters))
	if summary.RoutesBroken > 0 {
		util.WarnLog("  Routes with unreadable geometry: %d", summary.RoutesBroken)
	}
	return nil
}
