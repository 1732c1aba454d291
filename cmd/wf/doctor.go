package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/franz/wayfarer/internal/ocr"
	"github.com/franz/wayfarer/internal/store"
	"github.com/franz/wayfarer/internal/util"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks on the environment and configuration",
	Long: `Run diagnostic checks to ensure wf can operate correctly.

This command checks:
- SQLite version
- Database accessibility and integrity
- Event log directory permissions
- Optional tools (tesseract for OCR)
- Maps API key configuration
- Disk space for the data directory

Use this command to troubleshoot issues before using wf.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type checkResult struct {
	name    string
	message string
	error   bool
	warning bool
}

func runDoctor(cmd *cobra.Command, args []string) error {
	util.InfoLog("=== Wayfarer Doctor - System Diagnostics ===")
	util.InfoLog("")

	dbPath := GetConfigString("db", util.DefaultDBPath())

	results := []checkResult{
		checkSQLite(),
		checkDatabase(dbPath),
		checkEventsDir(eventsDir()),
		checkTesseract(GetConfigString("tesseract", "tesseract")),
		checkMapsKey(GetConfigString("maps-api-key", "")),
		checkDiskSpace(filepath.Dir(dbPath)),
	}

	// Print results
	util.InfoLog("=== Diagnostic Results ===")
	util.InfoLog("")

	hasErrors := false
	hasWarnings := false

	for _, r := range results {
		symbol := "✓"
		if r.error {
			symbol = "✗"
			hasErrors = true
		} else if r.warning {
			symbol = "⚠"
			hasWarnings = true
		}

		line := fmt.Sprintf("[%s] %s", symbol, r.name)
		if r.message != "" {
			line += fmt.Sprintf(": %s", r.message)
		}

		if r.error {
			util.ErrorLog("%s", line)
		} else if r.warning {
			util.WarnLog("%s", line)
		} else {
			util.SuccessLog("%s", line)
		}
	}

	// Summary
	util.InfoLog("")
	if hasErrors {
		util.ErrorLog("Some critical checks failed. Please resolve errors before using wf.")
		return fmt.Errorf("system diagnostics failed")
	} else if hasWarnings {
		util.WarnLog("Some checks produced warnings. Related features may be unavailable.")
	} else {
		util.SuccessLog("All checks passed!")
	}

	return nil
}

// checkSQLite verifies the embedded SQLite reports a version
func checkSQLite() checkResult {
	version := store.SQLiteVersion()
	if version == "" {
		return checkResult{
			name:    "SQLite",
			error:   true,
			message: "unable to determine version",
		}
	}

	return checkResult{
		name:    "SQLite",
		message: fmt.Sprintf("version %s (built-in)", version),
	}
}

// checkDatabase verifies the database file can be opened and is intact
func checkDatabase(dbPath string) checkResult {
	if dbPath == "" {
		return checkResult{
			name:    "Database",
			warning: true,
			message: "no database path specified (use --db flag or config)",
		}
	}

	info, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return checkResult{
				name:    "Database",
				message: fmt.Sprintf("%s (will be created on first use)", dbPath),
			}
		}
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("cannot access %s: %v", dbPath, err),
		}
	}

	if !info.Mode().IsRegular() {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("%s is not a regular file", dbPath),
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("cannot open %s: %v", dbPath, err),
		}
	}
	defer db.Close()

	if err := db.CheckIntegrity(); err != nil {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("integrity check failed: %v", err),
		}
	}

	total := 0
	for _, k := range store.Kinds {
		total += db.Count(k)
	}

	return checkResult{
		name: "Database",
		message: fmt.Sprintf("%s (%s, %d records)",
			dbPath, humanize.Bytes(uint64(info.Size())), total),
	}
}

// checkEventsDir verifies event logs can be written
func checkEventsDir(dir string) checkResult {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return checkResult{
			name:    "Event logs",
			warning: true,
			message: fmt.Sprintf("cannot create %s: %v", dir, err),
		}
	}

	testFile := filepath.Join(dir, ".wf_write_test")
	f, err := os.Create(testFile)
	if err != nil {
		return checkResult{
			name:    "Event logs",
			warning: true,
			message: fmt.Sprintf("cannot write to %s: %v", dir, err),
		}
	}
	f.Close()
	os.Remove(testFile)

	return checkResult{
		name:    "Event logs",
		message: fmt.Sprintf("%s (writable)", dir),
	}
}

// checkTesseract verifies the OCR binary is available (optional)
func checkTesseract(binary string) checkResult {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	version, err := ocr.NewTesseractRecognizer(binary, "").Version(ctx)
	if err != nil {
		return checkResult{
			name:    "tesseract (optional)",
			warning: true,
			message: "not found (required only for wf scan)",
		}
	}

	return checkResult{
		name:    "tesseract (optional)",
		message: version,
	}
}

// checkMapsKey reports whether live directions are possible
func checkMapsKey(key string) checkResult {
	if key == "" {
		return checkResult{
			name:    "Maps API key",
			warning: true,
			message: "not set (WF_MAPS_API_KEY); only cached routes are available",
		}
	}
	return checkResult{
		name:    "Maps API key",
		message: "configured",
	}
}

// checkDiskSpace verifies available disk space for the data directory
func checkDiskSpace(path string) checkResult {
	for {
		if _, err := os.Stat(path); err == nil || path == filepath.Dir(path) {
			break
		}
		path = filepath.Dir(path)
	}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return checkResult{
			name:    "Disk space",
			warning: true,
			message: fmt.Sprintf("cannot determine disk space: %v", err),
		}
	}

	availBytes := stat.Bavail * uint64(stat.Bsize)

	// Warn below 100 MB
	if availBytes < 100*1024*1024 {
		return checkResult{
			name:    "Disk space",
			warning: true,
			message: fmt.Sprintf("%s available (low space!)", humanize.Bytes(availBytes)),
		}
	}

	return checkResult{
		name:    "Disk space",
		message: fmt.Sprintf("%s available", humanize.Bytes(availBytes)),
	}
}
