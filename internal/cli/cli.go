package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nmcanvas/pkg/buildinfo"
	"github.com/matzehuels/nmcanvas/pkg/canvas"
	"github.com/matzehuels/nmcanvas/pkg/config"
	"github.com/matzehuels/nmcanvas/pkg/errors"
	"github.com/matzehuels/nmcanvas/pkg/observability"
	"github.com/matzehuels/nmcanvas/pkg/schema"
	"github.com/matzehuels/nmcanvas/pkg/snapshot"
	"github.com/matzehuels/nmcanvas/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const appName = "nmcanvas"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded before every command runs.
	Config *config.Config

	configPath string
	modelPath  string
	backend    string
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "nmcanvas validates, edits and diffs canonical topology graphs",
		Long: `nmcanvas manages a canonical topology graph: a JSON document of routes,
services, backends, policies and transforms, validated against a JSON Schema.
It applies batches of edit operations, records snapshots of every save and
computes structural diffs between any two versions.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.loadConfig,
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "", "config file (default ./nmcanvas.toml or ~/.config/nmcanvas/config.toml)")
	flags.StringVarP(&c.modelPath, "model", "m", "", "canonical graph document (overrides config)")
	flags.StringVar(&c.backend, "snapshots", "", "snapshot backend: file, redis, mongo or none (overrides config)")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.validateCommand())
	root.AddCommand(c.applyCommand())
	root.AddCommand(c.diffCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.snapshotCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads configuration and applies flag overrides.
func (c *CLI) loadConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.modelPath != "" {
		cfg.Model = c.modelPath
	}
	if c.backend != "" {
		cfg.Snapshots.Backend = c.backend
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	level := cfg.Level()
	if c.verbose {
		level = log.DebugLevel
	}
	c.SetLogLevel(level)
	if level <= log.DebugLevel {
		hooks := observability.NewLogHooks(c.Logger)
		observability.SetModelHooks(hooks)
		observability.SetSnapshotHooks(hooks)
		observability.SetHTTPHooks(hooks)
	}

	c.Config = cfg
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(withLogger(ctx, c.Logger))
	if cfg.Source != "" {
		c.Logger.Debug("config loaded", "file", cfg.Source)
	}
	return nil
}

// =============================================================================
// Contract Factory
// =============================================================================

// newContract builds the canvas contract described by the configuration.
// The returned contract's snapshot store must be closed by the caller.
func (c *CLI) newContract(ctx context.Context) (*canvas.Contract, error) {
	cfg := c.Config
	if cfg == nil {
		cfg = config.Default()
	}

	var v *schema.Validator
	if cfg.Schema != "" {
		var err error
		if v, err = schema.CompileFile(cfg.Schema); err != nil {
			return nil, err
		}
	}

	snaps, err := openSnapshots(ctx, cfg, c.Logger)
	if err != nil {
		return nil, err
	}

	contract, err := canvas.NewContract(store.NewFileStore(cfg.Model), v, snaps, c.Logger)
	if err != nil {
		snaps.Close()
		return nil, err
	}
	contract.Options = canvas.Options{
		Strict:          cfg.Strict,
		CheckReferences: cfg.CheckReferences,
		ValidateResult:  cfg.ValidateOnSave,
	}
	return contract, nil
}

// openSnapshots opens the configured snapshot backend. A file backend
// whose directory cannot be created degrades to no history.
func openSnapshots(ctx context.Context, cfg *config.Config, logger *log.Logger) (snapshot.Store, error) {
	switch cfg.Snapshots.Backend {
	case config.BackendNone:
		return snapshot.NewNullStore(), nil
	case config.BackendRedis:
		return snapshot.OpenRedis(ctx, cfg.Snapshots.RedisURL, cfg.Snapshots.RedisPrefix)
	case config.BackendMongo:
		return snapshot.OpenMongo(ctx, cfg.Snapshots.MongoURI, cfg.Snapshots.MongoDB)
	case config.BackendFile, "":
		dir, err := cfg.SnapshotDir()
		if err != nil {
			logger.Warn("snapshots disabled", "err", err)
			return snapshot.NewNullStore(), nil
		}
		s, err := snapshot.NewFileStore(dir)
		if err != nil {
			logger.Warn("snapshots disabled", "dir", dir, "err", err)
			return snapshot.NewNullStore(), nil
		}
		return s, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown snapshot backend %q", cfg.Snapshots.Backend)
	}
}
