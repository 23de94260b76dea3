package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"

	"github.com/inveniodev/invenio/internal/app"
	"github.com/inveniodev/invenio/internal/common"
	"github.com/inveniodev/invenio/internal/orchestrator"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths
	query        = flag.String("query", "", "Run a single discovery search and print the results")
	city         = flag.String("city", "", "City for augmentation (overrides config)")
	urlsOnly     = flag.Bool("urls-only", false, "Skip scope filtering, print raw deduplicated URLs")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	config *common.Config
	logger arbor.ILogger
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Invenio version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. Initialize logger
	// 3. Print banner

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("invenio.toml"); err == nil {
			configFiles = append(configFiles, "invenio.toml")
		} else if _, err := os.Stat("deployments/local/invenio.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/invenio.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	logger = common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	logger.Info().
		Strs("config_files", configFiles).
		Str("log_level", config.Logging.Level).
		Str("country", config.Scope.CountryCode).
		Msg("Application configuration loaded")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}
	defer application.Close()

	if *query != "" {
		if err := runOnce(application, *query, *city, *urlsOnly); err != nil {
			logger.Fatal().Err(err).Msg("Search failed")
			os.Exit(1)
		}
		return
	}

	if !config.Scheduler.Enabled || len(config.Scheduler.Searches) == 0 {
		fmt.Fprintln(os.Stderr, "Nothing to do: pass -query for a one-shot search or enable the scheduler in the configuration")
		os.Exit(2)
	}

	if err := application.Scheduler.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start scheduler")
		os.Exit(1)
	}

	// Block until interrupted
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
}

// runOnce executes a single search and prints the result set as JSON.
func runOnce(application *app.App, query, city string, urlsOnly bool) error {
	ctx := context.Background()
	req := orchestrator.SearchRequest{Query: query, City: city}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	if urlsOnly {
		resp, err := application.Orchestrator.ExecuteSearch(ctx, req)
		if err != nil {
			return err
		}
		logger.Info().
			Str("run_id", resp.RunID).
			Str("provider_used", resp.ProviderUsed).
			Int("count", len(resp.Items)).
			Msg("Search completed")
		return encoder.Encode(resp)
	}

	resp, err := application.Orchestrator.ExecuteEnhancedSearch(ctx, req)
	if err != nil {
		return err
	}
	logger.Info().
		Str("run_id", resp.RunID).
		Int("count", len(resp.Events)).
		Msg("Search completed")
	return encoder.Encode(resp)
}
