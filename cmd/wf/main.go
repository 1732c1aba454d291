package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/franz/wayfarer/internal/util"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is set at build time
	Version = "dev"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "wf",
		Short: "Wayfarer - offline-first travel assistant",
		Long: `wf (Wayfarer) keeps a local store of scans, translations, voice notes,
your profile and saved routes. It fetches directions with an offline cache,
records GPS breadcrumb paths and wraps translation, OCR and speech backends
with graceful fallbacks.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			util.Configure(viper.GetBool("verbose"), viper.GetBool("quiet"))
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/wayfarer.yaml)")
	rootCmd.PersistentFlags().String("db", util.DefaultDBPath(), "local database file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "quiet output (errors only)")
	rootCmd.PersistentFlags().String("events-dir", "", "directory for JSONL event logs (default: <data dir>/events)")
	rootCmd.PersistentFlags().String("maps-api-key", "", "Google Maps API key")
	rootCmd.PersistentFlags().String("maps-base-url", "", "Maps web services base URL")
	rootCmd.PersistentFlags().Float64("maps-rate", 0, "directions requests per second")
	rootCmd.PersistentFlags().Duration("cache-ttl", 0, "directions cache lifetime (0 = never expire)")
	rootCmd.PersistentFlags().String("translate-url", "", "web translation base URL")
	rootCmd.PersistentFlags().Bool("allow-download", false, "allow on-device model downloads")
	rootCmd.PersistentFlags().String("tesseract", "tesseract", "tesseract binary for OCR")
	rootCmd.PersistentFlags().String("profile-url", "", "remote profile endpoint (empty = local only)")
	rootCmd.PersistentFlags().String("profile-token", "", "bearer token for the profile endpoint")

	// Bind flags to viper
	for _, key := range []string{
		"db", "verbose", "quiet", "events-dir",
		"maps-api-key", "maps-base-url", "maps-rate", "cache-ttl",
		"translate-url", "allow-download", "tesseract",
		"profile-url", "profile-token",
	} {
		viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key))
	}
}

func initConfig() {
	// Secrets may live in a .env file next to the working directory
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		util.WarnLog("Failed to load .env: %v", err)
	}

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in common locations
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.SetConfigName("wayfarer")
		viper.SetConfigType("yaml")
	}

	// WF_MAPS_API_KEY and friends
	viper.SetEnvPrefix("WF")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && !viper.GetBool("quiet") {
		util.InfoLog("Using config file: %s", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
