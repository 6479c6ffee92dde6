// Package cmd implements the traceline command line interface.
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/provlab/traceline/internal/application/ledgersvc"
	"github.com/provlab/traceline/internal/audit"
	"github.com/provlab/traceline/internal/config"
	"github.com/provlab/traceline/internal/domain/provenance"
	"github.com/provlab/traceline/internal/infrastructure/sqlite"
	"github.com/provlab/traceline/internal/log"
	"github.com/provlab/traceline/internal/signature"
	"github.com/provlab/traceline/internal/tracing"
)

var (
	version = "dev"
	cfgFile string
	cfg     config.Config

	// Shared mutation flags.
	asPrincipal string
	fileArg     string
	dataArg     string
)

var rootCmd = &cobra.Command{
	Use:   "traceline",
	Short: "A cross-party provenance ledger",
	Long: `traceline records production steps across supply-chain parties as a
permissioned DAG: nodes own items, steps advance them, and cross-party
citations require explicit approvals. State persists in a local SQLite
database; every accepted mutation leaves an audit event.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .traceline/config.yaml)")
	rootCmd.PersistentFlags().String("db", "",
		"path to the ledger database (overrides config)")

	_ = viper.BindPFlag("db_path", rootCmd.PersistentFlags().Lookup("db"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("db_path", defaults.DBPath)
	viper.SetDefault("debug", defaults.Debug)
	viper.SetDefault("log_file", defaults.LogFile)
	viper.SetDefault("audit.buffer_size", defaults.Audit.BufferSize)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.file_path", defaults.Tracing.FilePath)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("cache.enabled", defaults.Cache.Enabled)
	viper.SetDefault("cache.ttl_seconds", defaults.Cache.TTLSeconds)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .traceline/config.yaml (current directory)
		// 2. ~/.config/traceline/config.yaml (user config)
		if _, err := os.Stat(".traceline/config.yaml"); err == nil {
			viper.SetConfigFile(".traceline/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "traceline"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// Missing config is fine; commands run on defaults.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

// buildService assembles the full stack for one invocation: database,
// audit trail, tracing, service. The returned cleanup flushes and closes
// everything.
func buildService() (*ledgersvc.Service, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	var logCleanup func()
	if cfg.Debug {
		c, err := log.Init(cfg.LogFile)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		log.SetEnabled(true)
		logCleanup = c
	}

	provider, err := tracing.NewProvider(tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		Exporter:     cfg.Tracing.Exporter,
		FilePath:     cfg.Tracing.FilePath,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRate:   cfg.Tracing.SampleRate,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("configuring tracing: %w", err)
	}

	db, err := sqlite.NewDB(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening ledger database: %w", err)
	}

	trail := audit.NewTrailWithBuffer(cfg.Audit.BufferSize)
	svc, err := ledgersvc.New(ledgersvc.Options{
		Repo:         sqlite.NewLedgerRepository(db),
		Trail:        trail,
		Tracer:       provider.Tracer(),
		CacheEnabled: cfg.Cache.Enabled,
		CacheTTL:     time.Duration(cfg.Cache.TTLSeconds) * time.Second,
	})
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	cleanup := func() {
		trail.Close()
		_ = provider.Shutdown(context.Background())
		_ = db.Close()
		if logCleanup != nil {
			logCleanup()
		}
	}
	return svc, cleanup, nil
}

// caller returns the acting principal from --as, which every mutating
// command requires.
func caller() (provenance.Principal, error) {
	if asPrincipal == "" {
		return "", fmt.Errorf("--as <principal> is required")
	}
	return provenance.Principal(asPrincipal), nil
}

// resolveSignature builds the file signature from --file (hash of the file
// contents) or --data (hash of the literal argument).
func resolveSignature() (signature.Signature, error) {
	switch {
	case fileArg != "" && dataArg != "":
		return signature.Signature{}, fmt.Errorf("--file and --data are mutually exclusive")
	case fileArg != "":
		data, err := os.ReadFile(fileArg) //nolint:gosec // G304: user-chosen input path
		if err != nil {
			return signature.Signature{}, fmt.Errorf("reading %s: %w", fileArg, err)
		}
		return signature.Sum(data), nil
	case dataArg != "":
		return signature.Sum([]byte(dataArg)), nil
	default:
		return signature.Signature{}, fmt.Errorf("one of --file or --data is required")
	}
}

// addActorFlags wires the flags shared by mutating commands.
func addActorFlags(cmd *cobra.Command, withFile bool) {
	cmd.Flags().StringVar(&asPrincipal, "as", "", "acting principal")
	if withFile {
		cmd.Flags().StringVar(&fileArg, "file", "", "document whose contents to sign")
		cmd.Flags().StringVar(&dataArg, "data", "", "literal data to sign instead of a file")
	}
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}

// SetVersion sets the version string (called from main with ldflags).
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
