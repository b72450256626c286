package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/artpar/awsbrowse/internal/config"
	"github.com/artpar/awsbrowse/internal/logging"
	"github.com/artpar/awsbrowse/internal/source"
	"github.com/artpar/awsbrowse/internal/source/fixture"
	"github.com/artpar/awsbrowse/internal/source/wsfeed"
)

// FeedPath is where the agent serves the websocket feed.
const FeedPath = "/feed"

// AgentOptions holds options for the agent command.
type AgentOptions struct {
	Listen string
}

// NewAgentCommand creates the agent command.
func NewAgentCommand(global *GlobalOptions) *cobra.Command {
	opts := &AgentOptions{}

	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Serve the configured inventory over websocket",
		Long: `Serve the configured inventory to other awsbrowse instances.

Examples:
  # Serve a SQLite snapshot
  awsbrowse agent --source sqlite --inventory inventory.db --listen :7788

  # Browse it from another machine
  awsbrowse --source agent --inventory ws://agent-host:7788/feed
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgent(cmd, global, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Listen, "listen", "l", "", "Address to listen on (defaults to the config listen address)")

	return cmd
}

func runAgent(cmd *cobra.Command, global *GlobalOptions, opts *AgentOptions) error {
	cfg, err := global.Load(cmd)
	if err != nil {
		return err
	}
	if cfg.Source == config.SourceAgent {
		return fmt.Errorf("%w: an agent cannot serve another agent", config.ErrInvalid)
	}
	addr := cfg.Listen
	if opts.Listen != "" {
		addr = opts.Listen
	}

	log, closeLog, err := logging.New(cfg.LogFile, cfg.Verbosity)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src, err := openSource(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer src.Close()

	if cfg.Watch {
		if fs, ok := src.(*fixture.Source); ok {
			if _, err := fs.Watch(ctx, log, fixture.DefaultDebounce); err != nil {
				return fmt.Errorf("failed to watch inventory: %w", err)
			}
		}
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s %s on ws://%s%s\n", cfg.Source, cfg.Inventory, ln.Addr(), FeedPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Press Ctrl+C to stop...\n")

	return serveFeed(ctx, ln, src, log)
}

// serveFeed answers feed clients on ln until ctx is done.
func serveFeed(ctx context.Context, ln net.Listener, src source.Source, log logr.Logger) error {
	mux := http.NewServeMux()
	mux.Handle(FeedPath, wsfeed.NewServer(src, wsfeed.DefaultConfig(), log.WithName("agent")))

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error stopping agent: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
