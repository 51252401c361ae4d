package main

import (
	"fmt"
	"os"
	"path/filepath"

	"tusharemcp/internal/catalog"
	"tusharemcp/internal/config"
	"tusharemcp/internal/executor"
	"tusharemcp/internal/limits"
	"tusharemcp/internal/logging"
	"tusharemcp/internal/throttle"
	"tusharemcp/internal/tushare"
	"tusharemcp/internal/version"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "tushare-mcp",
		Short: "Tushare MCP Gateway - financial data API access for AI agents",
		Long: `Tushare MCP Gateway exposes the Tushare financial-data API to AI agents
through the Model Context Protocol. Agents discover endpoints with a fuzzy
catalog search and invoke any of them through one universal executor, with
process-wide rate limiting and row truncation protecting the upstream.`,
		Version: version.GetVersionString(),
	}
)

func init() {
	cobra.OnInitialize(initConfig, initLogging)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/tushare-mcp/config.yaml)")
	rootCmd.PersistentFlags().String("catalog", "", "path to the API catalog document")
	rootCmd.PersistentFlags().String("limits", "", "path to the rate-limit tiers document")
	rootCmd.PersistentFlags().String("token", "", "Tushare API token")
	rootCmd.PersistentFlags().Int("max-rows", 0, "explicit row cap override")
	rootCmd.PersistentFlags().Float64("min-interval", 0, "explicit minimum seconds between upstream calls")
	rootCmd.PersistentFlags().Int("points", 0, "Tushare account points, used for tier selection")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(stdioCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(callCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(getXDGConfigDir())
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("TUSHARE")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

func initLogging() {
	cfg, err := config.Load()
	if err != nil {
		logging.Initialize(false)
		return
	}
	logging.Initialize(cfg.Debug || viper.GetBool("debug"))
}

func getXDGConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		homeDir, _ := os.UserHomeDir()
		configHome = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configHome, "tushare-mcp")
}

// loadGatewayConfig merges the environment config with config-file
// values and command-line flags; flags win.
func loadGatewayConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if v := viper.GetString("catalog"); v != "" && cfg.CatalogPath == "tushare_specs.json" {
		cfg.CatalogPath = v
	}
	if v := viper.GetString("limits"); v != "" && cfg.LimitsPath == "" {
		cfg.LimitsPath = v
	}
	if v := viper.GetString("token"); v != "" && cfg.Token == "" {
		cfg.Token = v
	}

	flags := cmd.Flags()
	if flags.Changed("catalog") {
		cfg.CatalogPath, _ = flags.GetString("catalog")
	}
	if flags.Changed("limits") {
		cfg.LimitsPath, _ = flags.GetString("limits")
	}
	if flags.Changed("token") {
		cfg.Token, _ = flags.GetString("token")
	}
	if flags.Changed("max-rows") {
		v, _ := flags.GetInt("max-rows")
		cfg.MaxRows = &v
	}
	if flags.Changed("min-interval") {
		v, _ := flags.GetFloat64("min-interval")
		cfg.MinInterval = &v
	}
	if flags.Changed("points") {
		v, _ := flags.GetInt("points")
		cfg.Points = &v
	}
	if flags.Changed("debug") {
		cfg.Debug = true
	}

	return cfg, nil
}

// buildGateway constructs the process-wide singletons: catalog,
// effective limits, the single rate limiter and the executor around
// them. Catalog and limits failures abort startup.
func buildGateway(cfg *config.Config) (*catalog.Store, limits.EffectiveLimits, *executor.Executor, error) {
	store, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, limits.EffectiveLimits{}, nil, err
	}

	effective, err := limits.Resolve(limits.Overrides{
		MaxRows:     cfg.MaxRows,
		MinInterval: cfg.MinInterval,
	}, cfg.Points, cfg.LimitsPath)
	if err != nil {
		return nil, limits.EffectiveLimits{}, nil, err
	}

	logging.Info("catalog loaded: %d apis from %s", store.Len(), cfg.CatalogPath)
	logging.Info("rate limits resolved (%s): max_rows=%d min_interval=%.2fs",
		effective.Source, effective.MaxRows, effective.MinInterval)

	limiter := throttle.New(effective.MinInterval)
	client := tushare.NewClient(cfg.Token)
	exec := executor.New(store, effective, limiter, client)
	return store, effective, exec, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
