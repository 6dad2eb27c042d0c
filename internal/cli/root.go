package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/roach88/nestdoc/internal/config"
	"github.com/roach88/nestdoc/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	DB         string // overrides config database
	ConfigPath string
	EnvFile    string // dotenv file loaded before the environment is read

	cfg    *config.Config
	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{config.FormatText, config.FormatJSON}

// NewRootCommand creates the root command for the nestdoc CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "nestdoc",
		Short: "nestdoc - nested JSON documents on SQLite",
		Long: `A key to JSON document store on SQLite with path queries,
in-place path updates and full-text search over serialized documents.

Settings come from --config (YAML or TOML), then NESTDOC_DB and
NESTDOC_BUSY_TIMEOUT (which --env-file may supply), then flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := opts.settings()
			return err
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "", "output format (json|text), default from config")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "path to SQLite database, default from config")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a .yaml or .toml config file")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "dotenv file to load; variables already set win")

	// Add subcommands
	cmd.AddCommand(NewPutCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewSetCommand(opts))
	cmd.AddCommand(NewExtractCommand(opts))
	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewLenCommand(opts))
	cmd.AddCommand(NewKeysCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// settings resolves the config file, environment and flags once.
func (o *RootOptions) settings() (config.Config, error) {
	if o.cfg != nil {
		return *o.cfg, nil
	}

	if o.EnvFile != "" {
		if err := godotenv.Load(o.EnvFile); err != nil {
			return config.Config{}, WrapExitError(ExitCommandError, "failed to load env file", err)
		}
	}

	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if o.DB != "" {
		cfg.Database = o.DB
	}
	if o.Format != "" {
		cfg.Format = o.Format
	}
	if !isValidFormat(cfg.Format) {
		return config.Config{}, NewExitError(ExitCommandError,
			fmt.Sprintf("invalid format %q: must be one of %v", cfg.Format, ValidFormats))
	}
	if o.Verbose {
		cfg.LogLevel = "debug"
	}

	o.Format = cfg.Format
	o.cfg = &cfg
	return cfg, nil
}

// Logger returns the logger for diagnostics on w, built on first use.
func (o *RootOptions) Logger(w io.Writer) *slog.Logger {
	if o.logger != nil {
		return o.logger
	}
	level := slog.LevelInfo
	if o.cfg != nil {
		if l, err := o.cfg.Level(); err == nil {
			level = l
		}
	} else if o.Verbose {
		level = slog.LevelDebug
	}
	o.logger = newLogger(w, level)
	return o.logger
}

// newLogger builds a tint handler. Colors are used only on a terminal.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
		w = colorable.NewColorable(f)
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    noColor,
	}))
}

// openStore opens the configured database.
func (o *RootOptions) openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := o.settings()
	if err != nil {
		return nil, err
	}

	logger := o.Logger(cmd.ErrOrStderr())
	logger.Debug("opening database", "path", cfg.Database)

	st, err := store.Open(cfg.Database,
		store.WithBusyTimeout(cfg.BusyTimeout.Std()),
		store.WithLogger(logger),
		store.WithStrictArrayLength(cfg.StrictArrayLength),
	)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// formatter returns an OutputFormatter writing to the command's streams.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
