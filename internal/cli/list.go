package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/artpar/awsbrowse/internal/browser"
	"github.com/artpar/awsbrowse/internal/config"
	"github.com/artpar/awsbrowse/internal/fetch"
	"github.com/artpar/awsbrowse/internal/logging"
	"github.com/artpar/awsbrowse/internal/resources"
	"github.com/artpar/awsbrowse/internal/source"
	"github.com/artpar/awsbrowse/internal/tui/components"
)

// ListOptions holds options for the list command.
type ListOptions struct {
	ExpandDepth int
	Filter      string
	Sort        string
	Desc        bool
	JSON        bool
}

// NewListCommand creates the list command.
func NewListCommand(global *GlobalOptions) *cobra.Command {
	opts := &ListOptions{}

	cmd := &cobra.Command{
		Use:   "list KIND",
		Short: "Print a listing as a tree",
		Long: `Print the resources of one kind (buckets, stacks, functions or roles)
without starting the TUI. Nodes are expanded down to --expand-depth and their
children fetched concurrently; failed lookups are printed in place.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, global, opts, args[0])
		},
	}

	cmd.Flags().IntVarP(&opts.ExpandDepth, "expand-depth", "d", 0, "Expand nodes shallower than this depth")
	cmd.Flags().StringVarP(&opts.Filter, "filter", "f", "", "Only list top-level resources matching this text")
	cmd.Flags().StringVarP(&opts.Sort, "sort", "s", "", "Sort key (defaults to the kind's default sort)")
	cmd.Flags().BoolVar(&opts.Desc, "desc", false, "Sort descending")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output rows as JSON")

	return cmd
}

func runList(cmd *cobra.Command, global *GlobalOptions, opts *ListOptions, kindName string) error {
	kind, err := resources.ParseKind(kindName)
	if err != nil {
		return err
	}
	desc, _ := resources.Lookup(kind)

	cfg, err := global.Load(cmd)
	if err != nil {
		return err
	}
	log, closeLog, err := logging.New(cfg.LogFile, cfg.Verbosity)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx := cmd.Context()
	src, err := openSource(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer src.Close()

	items, err := src.List(ctx, kind)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", strings.ToLower(desc.Title), err)
	}

	b := browser.New[resources.Resource, string](resources.NewCapability(desc),
		browser.WithWrapWidth(cfg.WrapWidth),
		browser.WithLogger(log),
	)
	b.SetItems(items)
	b.SetFilter(opts.Filter)
	sortKey := opts.Sort
	if sortKey == "" {
		sortKey = desc.DefaultSort
	}
	dir := browser.SortAsc
	if opts.Desc {
		dir = browser.SortDesc
	}
	b.SetSort(sortKey, dir)

	lookup := withTimeout(source.ChildrenFunc(src, kind), cfg)
	if err := fetch.ExpandTo(ctx, b, lookup, opts.ExpandDepth, cfg.Concurrency); err != nil {
		return err
	}

	if opts.JSON {
		return writeRowsJSON(cmd.OutOrStdout(), b.Rows())
	}
	return writeRowsTable(cmd.OutOrStdout(), desc, b.Rows())
}

// withTimeout bounds every lookup by the configured fetch timeout.
func withTimeout(fn fetch.Func[string, resources.Resource], cfg config.Config) fetch.Func[string, resources.Resource] {
	if cfg.FetchTimeout <= 0 {
		return fn
	}
	return func(ctx context.Context, key string) ([]resources.Resource, error) {
		ctx, cancel := context.WithTimeout(ctx, cfg.FetchTimeout)
		defer cancel()
		return fn(ctx, key)
	}
}

type listRow = browser.Row[resources.Resource, string]

func writeRowsTable(w io.Writer, desc resources.Descriptor, rows []listRow) error {
	headers := make([]string, len(desc.Columns))
	for i, col := range desc.Columns {
		headers[i] = col.Title
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			return lipgloss.NewStyle().PaddingRight(2)
		}).
		Headers(headers...)

	for _, row := range rows {
		cells := make([]string, len(desc.Columns))
		if row.Kind == browser.RowError {
			cells[0] = components.TreePrefix(row) + "! " + row.Message
		} else {
			for i, col := range desc.Columns {
				cells[i] = col.Value(row.Item)
			}
			cells[0] = components.TreePrefix(row) + cells[0]
		}
		t.Row(cells...)
	}

	_, err := fmt.Fprintln(w, t.String())
	return err
}

// jsonRow is one line of `list --json`.
type jsonRow struct {
	Depth    int                 `json:"depth"`
	Resource *resources.Resource `json:"resource,omitempty"`
	Parent   string              `json:"parent,omitempty"`
	Error    string              `json:"error,omitempty"`
}

func writeRowsJSON(w io.Writer, rows []listRow) error {
	out := make([]jsonRow, 0, len(rows))
	for _, row := range rows {
		if row.Kind == browser.RowError {
			// Wrapped lines of one failure become one entry.
			if n := len(out); n > 0 && out[n-1].Resource == nil && out[n-1].Parent == row.Key {
				out[n-1].Error += " " + row.Message
				continue
			}
			out = append(out, jsonRow{Depth: row.Depth, Parent: row.Key, Error: row.Message})
			continue
		}
		item := row.Item
		out = append(out, jsonRow{Depth: row.Depth, Resource: &item})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
