package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pable/go-topstats/internal/config"
)

var (
	dbPath     string
	configPath string
	logLevel   string
	logFormat  string

	// cfg is loaded once per invocation before any command runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "topstats",
	Short: "GW2 WvW top stats tool",
	Long: `Turn a batch of Elite Insights encounter reports into per-player award boards:
totals, consistency, averages and attendance-weighted rankings per stat.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaultDB := filepath.Join(mustUserHome(), ".topstats", "topstats.db")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "path to SQLite database")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config (default: ./topstats.yaml, $TOPSTATS_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", envOr("LOG_LEVEL", "info"), "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(fightsCmd)
	rootCmd.AddCommand(playerCmd)
	rootCmd.AddCommand(trendCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(dropCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)
	switch logFormat {
	case "text":
	case "json":
		log.SetFormatter(log.JSONFormatter)
	default:
		return fmt.Errorf("--log-format: unknown format %q", logFormat)
	}

	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}
	return nil
}

func mustUserHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
