package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/franz/wayfarer/internal/directions"
	"github.com/franz/wayfarer/internal/profile"
	"github.com/franz/wayfarer/internal/report"
	"github.com/franz/wayfarer/internal/store"
	"github.com/franz/wayfarer/internal/translate"
	"github.com/franz/wayfarer/internal/util"
	"github.com/spf13/viper"
)

// GetConfigString retrieves a string config value with proper precedence:
// 1. Command-line flag (if set)
// 2. Environment variable (WF_*)
// 3. Config file
// 4. Default value
func GetConfigString(key string, defaultValue string) string {
	val := viper.GetString(key)
	if val == "" {
		return defaultValue
	}
	return val
}

// GetConfigFloat retrieves a float config value with proper precedence
func GetConfigFloat(key string, defaultValue float64) float64 {
	val := viper.GetFloat64(key)
	if val <= 0 {
		return defaultValue
	}
	return val
}

// GetConfigDuration retrieves a duration config value
func GetConfigDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// openStore opens the configured database
func openStore() (*store.Store, error) {
	dbPath := GetConfigString("db", util.DefaultDBPath())
	util.DebugLog("Opening database: %s", dbPath)

	db, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// eventsDir is where JSONL event logs are written
func eventsDir() string {
	return GetConfigString("events-dir", filepath.Join(util.DefaultDataDir(), "events"))
}

// openEventLogger creates the run's event logger. Failure is not fatal.
func openEventLogger() *report.EventLogger {
	level := report.LevelInfo
	if viper.GetBool("quiet") {
		level = report.LevelWarning
	} else if viper.GetBool("verbose") {
		level = report.LevelDebug
	}

	logger, err := report.NewEventLogger(eventsDir(), level)
	if err != nil {
		util.WarnLog("Failed to create event logger: %v", err)
		return report.NullLogger()
	}
	util.DebugLog("Event log: %s", logger.Path())
	return logger
}

// newDirections builds the cached directions fetcher over db
func newDirections(db *store.Store) (*directions.Client, *directions.Cache, error) {
	apiKey := GetConfigString("maps-api-key", "")
	if apiKey == "" {
		util.DebugLog("No maps API key configured")
	}

	client := directions.NewClient(&directions.Config{
		BaseURL:           GetConfigString("maps-base-url", directions.BaseURL),
		APIKey:            apiKey,
		RequestsPerSecond: GetConfigFloat("maps-rate", directions.DefaultRate),
	})

	cache := directions.NewCache(db.DB(), client, GetConfigDuration("cache-ttl"))
	if err := cache.EnsureSchema(); err != nil {
		return nil, nil, fmt.Errorf("failed to prepare directions cache: %w", err)
	}
	return client, cache, nil
}

// newTranslator builds the translation service. Online, the built-in
// phrasebook answers what it knows and everything else goes to the web
// endpoint. Offline, only the phrasebook is used.
func newTranslator(logger *report.EventLogger, offline bool) *translate.Service {
	phrasebook := translate.DefaultStubEngineConfig()
	phrasebook.Strict = !offline

	cfg := &translate.ServiceConfig{
		Engine: translate.NewStubEngine(phrasebook),
		Logger: logger,
	}
	if !offline {
		cfg.Web = translate.NewWebClient(&translate.WebConfig{
			BaseURL: GetConfigString("translate-url", translate.WebBaseURL),
		})
	}
	return translate.NewService(cfg)
}

// newProfileService wires the remote sink when one is configured
func newProfileService(db *store.Store, logger *report.EventLogger) *profile.Service {
	cfg := &profile.Config{Store: db, Logger: logger}
	if url := GetConfigString("profile-url", ""); url != "" {
		cfg.Remote = profile.NewHTTPSink(url, GetConfigString("profile-token", ""), nil)
	}
	return profile.New(cfg)
}
