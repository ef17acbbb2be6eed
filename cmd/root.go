package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agentic-research/kinbranch/internal/branches"
	"github.com/agentic-research/kinbranch/internal/config"
	"github.com/agentic-research/kinbranch/internal/genealogy"
	"github.com/agentic-research/kinbranch/internal/ingest"
	"github.com/agentic-research/kinbranch/internal/logging"
	"github.com/agentic-research/kinbranch/internal/surname"
)

var (
	configPath string
	storePath  string
	storeKind  string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVarP(&storePath, "store", "s", "", "Record store path (overrides store.path)")
	rootCmd.PersistentFlags().StringVar(&storeKind, "driver", "", "Record store driver: sqlite or json (overrides store.driver)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides log.level)")
}

var rootCmd = &cobra.Command{
	Use:           "kinbranch",
	Short:         "kinbranch: surname branch trees for genealogy datasets",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
		if storePath != "" {
			cfg.Store.Path = storePath
		}
		if storeKind != "" {
			cfg.Store.Driver = storeKind
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		logger, err = logging.New(cfg.Log, cmd.ErrOrStderr())
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync() // stderr sync errors are harmless
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore opens the configured record store. The returned func releases it.
func openStore(ctx context.Context) (genealogy.Store, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverJSON:
		abs, err := filepath.Abs(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		store := genealogy.NewMemoryStore()
		store.ShowPrivate = cfg.Store.ShowPrivate
		im := ingest.NewImporter(osfs.New(filepath.Dir(abs)), logger)
		if _, err := im.Import(ctx, filepath.Base(abs), store); err != nil {
			return nil, nil, fmt.Errorf("load dataset: %w", err)
		}
		return store, func() {}, nil
	default:
		store, err := genealogy.OpenSQLiteStore(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		store.ShowPrivate = cfg.Store.ShowPrivate
		return store, func() { _ = store.Close() }, nil
	}
}

// newEngine builds a branch engine over store from the loaded config.
func newEngine(store genealogy.Store, reg prometheus.Registerer) (*branches.Engine, error) {
	norm, err := surname.NewNormalizer(cfg.Branches.Language)
	if err != nil {
		return nil, err
	}
	e := &branches.Engine{
		Store:       store,
		Normalizer:  norm,
		MaxDepth:    cfg.Branches.MaxDepth,
		Parallelism: cfg.Branches.Parallelism,
		Logger:      logger,
	}
	if reg != nil {
		e.Metrics = branches.NewMetrics(reg)
	}
	if cfg.Branches.RelationshipURL != "" {
		linker, err := branches.NewTemplateLinker(cfg.Branches.RelationshipURL)
		if err != nil {
			return nil, err
		}
		e.Linker = linker
	}
	return e, nil
}
