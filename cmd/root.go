package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/bisegni/ixscan/pkg/config"
	"github.com/bisegni/ixscan/pkg/database"
	"github.com/bisegni/ixscan/pkg/engine"
	"github.com/bisegni/ixscan/pkg/logging"
	"github.com/bisegni/ixscan/pkg/metrics"
	"github.com/bisegni/ixscan/pkg/storage"
)

var (
	ConfigPath      string
	DataDir         string
	InMemory        bool
	LogLevel        string
	Pretty          bool
	InteractiveMode bool
)

// env is what every command runs against. It is built once per process by
// setup and torn down by Execute.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	catalog *database.Catalog
	store   *storage.PebbleStore
	server  *http.Server
}

var app *env

var rootCmd = &cobra.Command{
	Use:   "ixscan [statement]",
	Short: "Ordered index scans over a key-value store",
	Long: `ixscan loads records into key-encoded indexes and scans them in any
column ordering the index can serve, including mixed ascending and
descending orders.

Indexes are declared in the config file (see --config). With a single
argument ixscan runs it as a SCAN statement.

Examples:
  ixscan load t_abc rows.jsonl
  ixscan 'SCAN t_abc ORDER BY a, b DESC'
  ixscan scan 'SCAN t_abc WHERE KEY FROM ($0) TO ($1)' -P 1 -P 3 --format table
  ixscan -i`,
	Args:              cobra.MaximumNArgs(1),
	PersistentPreRunE: setup,
	SilenceUsage:      true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if InteractiveMode {
			return RunInteractive(cmd.Context())
		}
		if len(args) == 0 {
			return cmd.Help()
		}
		return RunScan(cmd.Context(), args[0], os.Stdout)
	},
}

func Execute() error {
	err := rootCmd.ExecuteContext(context.Background())
	if cerr := teardown(); err == nil {
		err = cerr
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&ConfigPath, "config", "c", "", "Config file (yaml, json or toml)")
	rootCmd.PersistentFlags().StringVar(&DataDir, "data-dir", "", "Store directory (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&InMemory, "in-memory", false, "Use a throwaway in-memory store")
	rootCmd.PersistentFlags().StringVar(&LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&Pretty, "pretty", false, "Pretty print JSON output")
	rootCmd.Flags().BoolVarP(&InteractiveMode, "interactive", "i", false, "Interactive REPL mode")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(indexesCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(ConfigPath, config.DefaultEnvPrefix)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = DataDir
	}
	if flags.Changed("in-memory") {
		cfg.InMemory = InMemory
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = LogLevel
	}

	logger := logging.New(cfg.Logging())
	catalog, err := cfg.Catalog(database.NewTypesTranslator())
	if err != nil {
		return fmt.Errorf("invalid index definitions: %w", err)
	}
	app = &env{cfg: cfg, logger: logger, catalog: catalog}

	if cfg.Metrics.Enabled {
		app.metrics = metrics.New()
		app.server = &http.Server{Addr: cfg.Metrics.Addr, Handler: app.metrics.Handler()}
		go func() {
			if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", "addr", cfg.Metrics.Addr, "error", err)
			}
		}()
		logger.Debug("serving metrics", "addr", cfg.Metrics.Addr)
	}
	return nil
}

// openStore opens the configured store on first use, so commands that only
// read the catalog never touch the data directory.
func (e *env) openStore() (*storage.PebbleStore, error) {
	if e.store != nil {
		return e.store, nil
	}
	s, err := storage.Open(storage.Options{
		Dir:      e.cfg.DataDir,
		InMemory: e.cfg.InMemory,
		Sync:     e.cfg.Sync,
		Logger:   e.logger,
	})
	if err != nil {
		return nil, err
	}
	e.store = s
	return s, nil
}

func (e *env) executor() (*engine.Executor, error) {
	s, err := e.openStore()
	if err != nil {
		return nil, err
	}
	ex := engine.NewExecutor(e.catalog, s)
	ex.Logger = e.logger
	ex.Metrics = e.metrics
	ex.Pretty = Pretty
	return ex, nil
}

func teardown() error {
	if app == nil {
		return nil
	}
	if app.server != nil {
		app.server.Close()
	}
	if app.store != nil {
		return app.store.Close()
	}
	return nil
}
