// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the quickpick CLI. It looks up a
// product across the quick-commerce storefronts, browses the product
// directory, and serves the same operations over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ommathur/quickpick/internal/aggregate"
	"github.com/ommathur/quickpick/internal/directory"
	"github.com/ommathur/quickpick/internal/identity"
	"github.com/ommathur/quickpick/internal/resolve"
	"github.com/ommathur/quickpick/internal/secrets"
	"github.com/ommathur/quickpick/internal/telemetry"
	"github.com/ommathur/quickpick/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// cfg is the resolved configuration, loaded before any subcommand runs.
var cfg types.Config

var logger = slog.Default()

var shutdownTelemetry telemetry.Shutdown

// errReported marks a failure whose message was already shown to the user.
var errReported = errors.New("reported")

var rootCmd = &cobra.Command{
	Use:   "quickpick",
	Short: "Compare grocery prices across quick-commerce storefronts",
	Long: `quickpick looks a product up in the product directory, asks the scraper
service of every storefront that lists it for current prices and stock at
once, and shows the answers grouped by storefront (Blinkit, BigBasket, Zepto).

A storefront that fails or times out is reported as a warning; the others
are still shown.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/", os.Stderr)
		if err != nil {
			return err
		}
		if len(s) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", s.Keys())
		}

		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("parsing configuration: %w", err)
		}
		s.Apply(&cfg)

		logger = newLogger(cfg.LogLevel)
		slog.SetDefault(logger)

		shutdownTelemetry, err = telemetry.Setup(cmd.Context(), cfg.Telemetry, version, logger)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if shutdownTelemetry == nil {
			return nil
		}
		return shutdownTelemetry(context.Background())
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./quickpick.yaml or ~/.config/quickpick/quickpick.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("directory", "", "directory DSN (SQLite path or PostgreSQL URL)")
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("directory.dsn", rootCmd.PersistentFlags().Lookup("directory"))
}

func setDefaults() {
	viper.SetDefault("aggregate.timeout", "15s")
	viper.SetDefault("aggregate.user_agent", "quickpick/"+version)
	viper.SetDefault("aggregate.run_timeout", "0s")
	viper.SetDefault("directory.driver", string(types.DriverSQLite))
	viper.SetDefault("directory.dsn", "")
	viper.SetDefault("directory.page_size", 1000)
	viper.SetDefault("identity.jwt_secret", "")
	viper.SetDefault("identity.access_token", "")
	viper.SetDefault("identity.user_id", "")
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.read_timeout", "10s")
	viper.SetDefault("telemetry.otlp_endpoint", "")
	viper.SetDefault("telemetry.insecure", false)
	viper.SetDefault("telemetry.sample_rate", 1.0)
}

func initConfig() {
	setDefaults()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("quickpick")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "quickpick"))
		}
	}

	viper.SetEnvPrefix("QUICKPICK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// openDirectory opens the configured product directory.
func openDirectory() (*directory.Store, error) {
	return directory.Open(cfg.Directory)
}

// newPipeline wires a lookup pipeline over dir for the given identity.
func newPipeline(dir directory.Directory, id identity.Provider) *aggregate.Pipeline {
	return &aggregate.Pipeline{
		Identity: id,
		Resolver: &resolve.Resolver{Directory: dir},
		Dispatcher: &aggregate.Dispatcher{
			Fetcher: &aggregate.HTTPFetcher{Client: &http.Client{}, UserAgent: cfg.Aggregate.UserAgent},
		},
		Config: cfg.Aggregate,
		Logger: logger,
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		stop()
		os.Exit(1)
	}
}
