// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/jeranaias/switchboard/internal/app"
	"github.com/jeranaias/switchboard/internal/completion"
	"github.com/jeranaias/switchboard/internal/config"
	"github.com/jeranaias/switchboard/internal/logging"
	"github.com/jeranaias/switchboard/internal/prompt"
	"github.com/jeranaias/switchboard/internal/storage"
	"github.com/jeranaias/switchboard/internal/tui"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// ENVIRONMENT
// =============================================================================

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	dataDir    string
	storage    string
	logLevel   string
}

// env carries the I/O streams and the resources opened for a command.
type env struct {
	flags globalFlags

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	// darkDefault seeds dark mode when the store has no value yet.
	darkDefault func() bool
	// runTUI starts the full-screen interface.
	runTUI func(app.Options) error

	cfg     *config.Config
	logger  *slog.Logger
	store   storage.Store
	closers []io.Closer
}

func newEnv(in io.Reader, out, errOut io.Writer) *env {
	return &env{
		in:          in,
		out:         out,
		errOut:      errOut,
		darkDefault: termenv.HasDarkBackground,
		runTUI:      tui.Run,
	}
}

// setup loads config, applies flag overrides, then opens the logger and the
// store. Interactive commands log to a file so output does not interleave
// with the conversation.
func (e *env) setup(interactive bool) error {
	cfg, err := config.Load(e.flags.configPath)
	if err != nil {
		return &startupError{err}
	}
	if e.flags.dataDir != "" {
		cfg.DataDir = e.flags.dataDir
	}
	if e.flags.storage != "" {
		cfg.Storage = e.flags.storage
	}
	if e.flags.logLevel != "" {
		cfg.Log.Level = e.flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return &startupError{fmt.Errorf("invalid config: %w", err)}
	}
	e.cfg = cfg

	logOut := e.errOut
	if interactive {
		f, err := logging.OpenFile(cfg.DataDir)
		if err != nil {
			return &startupError{err}
		}
		e.closers = append(e.closers, f)
		logOut = f
	}
	e.logger = logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: logOut})

	store, err := storage.Open(cfg.Storage, cfg.DataDir)
	if err != nil {
		return &startupError{fmt.Errorf("failed to open %s storage: %w", cfg.Storage, err)}
	}
	e.store = store
	e.closers = append(e.closers, store)

	e.logger.Debug("environment ready", "data_dir", cfg.DataDir, "storage", cfg.Storage)
	return nil
}

// options returns app options for the opened environment.
func (e *env) options(ctx context.Context) app.Options {
	client := completion.NewClient().
		WithTimeout(e.cfg.Client.Timeout()).
		WithIdentity(e.cfg.Client.Referer, e.cfg.Client.Title).
		WithLimits(prompt.LimitsFromConfig(e.cfg.Budget)).
		WithLogger(e.logger)

	return app.Options{
		Store:           e.store,
		Client:          client,
		Scheduler:       app.InlineScheduler{},
		Notifier:        app.NotifierFunc(func(msg string) { fmt.Fprintln(e.errOut, errorStyle.Render(msg)) }),
		Logger:          e.logger,
		Context:         ctx,
		DefaultEndpoint: e.cfg.Endpoint,
		DarkModeDefault: e.darkDefault(),
	}
}

// session opens the environment and hydrates an App for one-shot commands.
func (e *env) session(cmd *cobra.Command) (*app.App, error) {
	if err := e.setup(false); err != nil {
		return nil, err
	}
	return app.New(e.options(cmd.Context())), nil
}

func (e *env) close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		_ = e.closers[i].Close()
	}
	e.closers = nil
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// NewRootCommand builds the command tree bound to the given streams.
func NewRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	return newRootCommand(newEnv(in, out, errOut))
}

func newRootCommand(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:           "switchboard",
		Short:         "Chat with any OpenAI-compatible endpoint",
		Version:       fmt.Sprintf("%s (%s, %s)", Version, GitCommit, BuildDate),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(e.in) {
				return cmd.Help()
			}
			return runTUI(cmd, e)
		},
	}
	root.SetIn(e.in)
	root.SetOut(e.out)
	root.SetErr(e.errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&e.flags.configPath, "config", "", "config file (default ~/.switchboard/config.toml)")
	pf.StringVar(&e.flags.dataDir, "data-dir", "", "data directory")
	pf.StringVar(&e.flags.storage, "storage", "", "storage backend: file, sqlite or memory")
	pf.StringVar(&e.flags.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		newTUICommand(e),
		newChatCommand(e),
		newAskCommand(e),
		newLogsCommand(e),
		newExportCommand(e),
		newImportCommand(e),
		newConfigCommand(e),
		newSystemCommand(e),
	)
	return root
}

func newTUICommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the full-screen chat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, e)
		},
	}
}

func runTUI(cmd *cobra.Command, e *env) error {
	if err := e.setup(true); err != nil {
		return err
	}
	return e.runTUI(e.options(cmd.Context()))
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	e := newEnv(os.Stdin, os.Stdout, os.Stderr)
	defer e.close()

	root := newRootCommand(e)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitCode(err)
	}
	return ExitSuccess
}
