// Package cli wires configuration, the inventory source and the TUI into the
// awsbrowse commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/artpar/awsbrowse/internal/config"
	"github.com/artpar/awsbrowse/internal/logging"
	"github.com/artpar/awsbrowse/internal/source"
	"github.com/artpar/awsbrowse/internal/source/fixture"
	"github.com/artpar/awsbrowse/internal/source/sqlite"
	"github.com/artpar/awsbrowse/internal/source/wsfeed"
	"github.com/artpar/awsbrowse/internal/tui/components"
	"github.com/artpar/awsbrowse/internal/tui/views"
)

// GlobalOptions holds the flags shared by every command. Flags that are set
// override the config file.
type GlobalOptions struct {
	ConfigPath   string
	Source       string
	Inventory    string
	Watch        bool
	PageSize     int
	WrapWidth    int
	Concurrency  int
	FetchTimeout time.Duration
	LogFile      string
	Verbosity    int
}

// NewRootCommand creates the root command.
func NewRootCommand(version string) *cobra.Command {
	opts := &GlobalOptions{}

	cmd := &cobra.Command{
		Use:   "awsbrowse",
		Short: "awsbrowse - browse AWS inventories in the terminal",
		Long: `awsbrowse is a vim-style TUI for browsing AWS resource inventories.

Buckets, stacks, functions and roles are listed in tabs and expand lazily
into their objects, stack resources, versions and policies.

Examples:
  # Browse a YAML inventory, reloading it when it changes
  awsbrowse --inventory inventory.yaml --watch

  # Browse a SQLite snapshot
  awsbrowse --source sqlite --inventory inventory.db

  # Browse an inventory served by a remote agent
  awsbrowse --source agent --inventory ws://10.0.0.5:7788/feed
`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.ConfigPath, "config", "c", config.DefaultPath(), "Config file")
	flags.StringVar(&opts.Source, "source", "", "Inventory source: fixture, sqlite or agent")
	flags.StringVarP(&opts.Inventory, "inventory", "i", "", "Fixture file, database file or agent URL")
	flags.BoolVarP(&opts.Watch, "watch", "w", false, "Reload a fixture inventory when it changes")
	flags.IntVar(&opts.PageSize, "page-size", 0, "Rows per page")
	flags.IntVar(&opts.WrapWidth, "wrap-width", 0, "Width error messages are wrapped to (0 disables wrapping)")
	flags.IntVar(&opts.Concurrency, "concurrency", 0, "Maximum concurrent child lookups")
	flags.DurationVar(&opts.FetchTimeout, "fetch-timeout", 0, "Timeout for one child lookup (0 disables)")
	flags.StringVar(&opts.LogFile, "log-file", "", "Append JSON logs to this file")
	flags.CountVarP(&opts.Verbosity, "verbose", "v", "Increase log verbosity")

	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewAgentCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))

	return cmd
}

// Load reads the config file and applies every flag that was set.
func (o *GlobalOptions) Load(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("source") {
		cfg.Source = o.Source
	}
	if flags.Changed("inventory") {
		cfg.Inventory = o.Inventory
	}
	if flags.Changed("watch") {
		cfg.Watch = o.Watch
	}
	if flags.Changed("page-size") {
		cfg.PageSize = o.PageSize
	}
	if flags.Changed("wrap-width") {
		cfg.WrapWidth = o.WrapWidth
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = o.Concurrency
	}
	if flags.Changed("fetch-timeout") {
		cfg.FetchTimeout = o.FetchTimeout
	}
	if flags.Changed("log-file") {
		cfg.LogFile = o.LogFile
	}
	if flags.Changed("verbose") {
		cfg.Verbosity = o.Verbosity
	}

	return cfg, cfg.Validate()
}

// openSource opens the inventory source named by cfg.
func openSource(ctx context.Context, cfg config.Config, log logr.Logger) (source.Source, error) {
	switch cfg.Source {
	case config.SourceFixture:
		return fixture.Open(cfg.Inventory)
	case config.SourceSQLite:
		if _, err := os.Stat(cfg.Inventory); err != nil {
			return nil, fmt.Errorf("failed to open inventory database: %w", err)
		}
		return sqlite.New(cfg.Inventory)
	case config.SourceAgent:
		return wsfeed.Dial(ctx, cfg.Inventory, wsfeed.DefaultConfig(), log)
	}
	return nil, fmt.Errorf("%w: unknown source %q", config.ErrInvalid, cfg.Source)
}

// tableOptions maps the config onto the per-table settings.
func tableOptions(cfg config.Config, log logr.Logger) components.TableOptions {
	return components.TableOptions{
		PageSize:     cfg.PageSize,
		WrapWidth:    cfg.WrapWidth,
		Concurrency:  cfg.Concurrency,
		FetchTimeout: cfg.FetchTimeout,
		Logger:       log,
	}
}

// tuiModel wraps the MainView for bubbletea
type tuiModel struct {
	view *views.MainView
}

func (m tuiModel) Init() tea.Cmd {
	return m.view.Init()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	updated, cmd := m.view.Update(msg)
	m.view = updated.(*views.MainView)
	return m, cmd
}

func (m tuiModel) View() string {
	return m.view.View()
}

// runTUI starts the TUI application
func runTUI(cmd *cobra.Command, opts *GlobalOptions) error {
	cfg, err := opts.Load(cmd)
	if err != nil {
		return err
	}
	log, closeLog, err := logging.New(cfg.LogFile, cfg.Verbosity)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	src, err := openSource(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer src.Close()

	view := views.NewMainView(ctx, src, tableOptions(cfg, log))
	defer view.Close()
	view.SetSourceLabel(cfg.Source + " " + cfg.Inventory)

	if cfg.Watch {
		fs, ok := src.(*fixture.Source)
		if !ok {
			return fmt.Errorf("%w: --watch needs a fixture source, got %s", config.ErrInvalid, cfg.Source)
		}
		changed, err := fs.Watch(ctx, log, fixture.DefaultDebounce)
		if err != nil {
			return fmt.Errorf("failed to watch inventory: %w", err)
		}
		view.SetWatch(changed)
	}

	log.Info("starting", "source", cfg.Source, "inventory", cfg.Inventory)
	p := tea.NewProgram(tuiModel{view: view}, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		return err
	}
	return nil
}
