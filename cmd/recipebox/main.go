// Package main is the recipebox CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/recipebox/internal/auth"
	"github.com/hyperjump/recipebox/internal/config"
	"github.com/hyperjump/recipebox/internal/indexer"
	"github.com/hyperjump/recipebox/internal/keyword"
	"github.com/hyperjump/recipebox/internal/recipe"
	"github.com/hyperjump/recipebox/internal/search"
	"github.com/hyperjump/recipebox/internal/storage"
	"github.com/hyperjump/recipebox/pkg/utils"
)

// overridden during build with ldflags
var version = "dev"

const defaultConfigPath = "/usr/local/etc/recipebox/config.yaml"

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	debug      bool
	envFile    string
}

// loadConfig loads config from path. When path is the default and does not
// exist, config.yaml in the current directory is used if present, otherwise
// defaults and environment only. Returns the config and the path actually
// loaded ("" when none).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if _, err := os.Stat(path); err != nil {
			if cwd, cwdErr := os.Getwd(); cwdErr == nil {
				fallback := filepath.Join(cwd, "config.yaml")
				if _, statErr := os.Stat(fallback); statErr == nil {
					path = fallback
				} else {
					path = ""
				}
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "recipebox",
		Short: "recipebox - recipe collection with difficulty classification and ingredient search",
		Long: `recipebox keeps a collection of recipes, classifies each one as Easy,
Medium, Intermediate or Hard from its cooking time and ingredient count, and
indexes every ingredient it has seen for lookup.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if opts.envFile != "" {
				return config.LoadDotEnv(opts.envFile)
			}
			return config.LoadDotEnv()
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath, "config file path")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "env file with RECIPEBOX_* overrides (default .env)")

	root.AddCommand(
		newServerCmd(opts),
		newAddCmd(opts),
		newListCmd(opts),
		newShowCmd(opts),
		newEditCmd(opts),
		newDeleteCmd(opts),
		newSearchCmd(opts),
		newIngredientsCmd(opts),
		newImportCmd(opts),
		newExportCmd(opts),
		newShellCmd(opts),
		newStatusCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "recipebox version %s\n", version)
		},
	}
}

// Components holds initialized services.
type Components struct {
	Config       *config.Config
	ConfigPath   string
	Logger       *zap.Logger
	Store        storage.RecipeStore
	Accounts     storage.AccountStore
	KeywordIndex *keyword.BleveIndex
	Indexer      *indexer.Indexer
	Engine       *search.Engine
	Auth         *auth.Service
}

// Close releases the store and the keyword index.
func (c *Components) Close() {
	if c.KeywordIndex != nil {
		_ = c.KeywordIndex.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}

// setup loads config, builds the logger and initializes components. Commands
// other than server log at warn level unless --debug is set.
func setup(ctx context.Context, opts *globalOptions, verbose bool) (*Components, error) {
	cfg, resolved, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	debug := cfg.Debug || opts.debug
	var logger *zap.Logger
	if verbose || debug {
		logger, err = utils.NewLogger(debug)
	} else {
		logger, err = utils.NewQuietLogger()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debug))

	c, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	c.ConfigPath = resolved
	return c, nil
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	c := &Components{Config: cfg, Logger: logger}

	switch cfg.Storage.Kind {
	case config.StoreSQLite:
		store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		c.Store = store
		c.Accounts = store
	case config.StoreFile:
		store, err := storage.NewFileStorage(cfg.Storage.FilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		c.Store = store
	default:
		return nil, fmt.Errorf("unknown storage kind %q (want %s or %s)", cfg.Storage.Kind, config.StoreSQLite, config.StoreFile)
	}

	keywordIndex, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		_ = c.Store.Close()
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}
	c.KeywordIndex = keywordIndex

	policy := recipe.Retain
	if cfg.Index.PruneOnDelete {
		policy = recipe.Prune
	}
	c.Indexer = indexer.NewIndexer(c.Store, keywordIndex, recipe.NewLedger(policy), indexer.WithLogger(logger))

	c.Engine, err = search.NewEngine(c.Store, keywordIndex, c.Indexer.Ledger(), &cfg.Search,
		search.WithLogger(logger), search.WithStoreKind(cfg.Storage.Kind))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize search engine: %w", err)
	}

	if err := c.Indexer.Rebuild(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to rebuild indices: %w", err)
	}

	if c.Accounts != nil {
		c.Auth = auth.NewService(c.Accounts, c.Indexer, &cfg.Auth, auth.WithLogger(logger))
	}
	return c, nil
}
