package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/soward/depload/internal/catalog"
	"github.com/soward/depload/internal/engine"
	"github.com/soward/depload/internal/loadlog"
	"github.com/soward/depload/internal/store"
)

// LoadOptions holds the flags of the load command.
type LoadOptions struct {
	Files    []string
	Streams  []string
	Catalog  string
	Store    string
	Out      string
	Config   string
	Batch    int
	Jobs     int
	Onchange bool
	Timeout  time.Duration
}

// NewLoadCommand creates `depload load`.
func NewLoadCommand(root *RootOptions) *cobra.Command {
	opts := &LoadOptions{}

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load records into the target store",
		Long: "Load ingests the given files and streams, orders records across\n" +
			"model references and tree hierarchies, writes them in batches, and\n" +
			"appends every success to the load log so a re-run is idempotent.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, root, opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Files, "file", "f", nil,
		"input file; the basename encodes the model for csv/json, sheet names for xlsx (repeatable)")
	cmd.Flags().StringSliceVarP(&opts.Streams, "stream", "s", nil,
		"input stream as format:model:path, path '-' for stdin (repeatable)")
	cmd.Flags().StringVar(&opts.Catalog, "catalog", "./catalog", "directory of CUE model schemas")
	cmd.Flags().StringVar(&opts.Store, "store", "sqlite:./depload.db", "target store DSN (sqlite:<path> or postgres://...)")
	cmd.Flags().StringVar(&opts.Out, "out", "./log.json", "load log path; successes recorded here are skipped on re-runs")
	cmd.Flags().StringVar(&opts.Config, "config", "", "YAML profile supplying flag defaults")
	cmd.Flags().IntVar(&opts.Batch, "batch", 50, "maximum records per batch")
	cmd.Flags().IntVar(&opts.Jobs, "jobs", engine.DefaultWorkers, "concurrent store writes within one batch")
	cmd.Flags().BoolVar(&opts.Onchange, "onchange", false,
		"trigger onchange methods as if data was entered through forms (not implemented; fails fast)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "abort the run after this duration (0 = none)")

	return cmd
}

func runLoad(cmd *cobra.Command, root *RootOptions, opts *LoadOptions) error {
	if err := applyProfile(cmd, opts); err != nil {
		return err
	}
	if opts.Onchange {
		return &ExitError{Code: ExitCommandError, Message: "--onchange", Err: engine.ErrOnchangeUnsupported}
	}

	inputs, err := collectInputs(opts.Files, opts.Streams)
	if err != nil {
		return err
	}
	cat, err := catalog.LoadDir(opts.Catalog)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	set, err := readRecords(ctx, inputs, cat)
	if err != nil {
		return err
	}

	llog, err := loadlog.Open(opts.Out, slog.Default())
	if err != nil {
		return err
	}
	defer llog.Close()

	st, err := store.Open(ctx, opts.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	eng := engine.New(st, llog, cat,
		engine.WithBatchSize(opts.Batch),
		engine.WithWorkers(opts.Jobs),
		engine.WithLogger(slog.Default()),
	)
	sum, err := eng.Run(ctx, set)
	if err != nil {
		// Structural errors and indeterminate state: nothing was
		// written, or the run halted and must be reconciled.
		return &ExitError{Code: ExitCommandError, Message: "load failed", Err: err}
	}

	formatter := &OutputFormatter{Format: root.Format, Writer: cmd.OutOrStdout()}
	if err := formatter.Success(renderSummary(sum), sum); err != nil {
		return err
	}
	if !sum.Clean() {
		return &ExitError{
			Code:    ExitPartial,
			Message: fmt.Sprintf("%d record(s) failed, %d blocked", sum.Failed, sum.Blocked),
		}
	}
	return nil
}

// applyProfile fills flag defaults from the profile file. Flags the user
// set explicitly always win.
func applyProfile(cmd *cobra.Command, opts *LoadOptions) error {
	if opts.Config == "" {
		return nil
	}
	p, err := LoadProfile(opts.Config)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if p.Catalog != "" && !flags.Changed("catalog") {
		opts.Catalog = p.Catalog
	}
	if p.Store != "" && !flags.Changed("store") {
		opts.Store = p.Store
	}
	if p.Out != "" && !flags.Changed("out") {
		opts.Out = p.Out
	}
	if p.Batch > 0 && !flags.Changed("batch") {
		opts.Batch = p.Batch
	}
	if p.Jobs > 0 && !flags.Changed("jobs") {
		opts.Jobs = p.Jobs
	}
	return nil
}

func renderSummary(sum *engine.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s: %d batch(es)\n", sum.RunID, sum.Batches)
	fmt.Fprintf(&b, "  loaded   %d\n", sum.Loaded)
	fmt.Fprintf(&b, "  skipped  %d\n", sum.Skipped)
	fmt.Fprintf(&b, "  failed   %d\n", sum.Failed)
	fmt.Fprintf(&b, "  blocked  %d\n", sum.Blocked)
	if len(sum.Failures) > 0 {
		b.WriteString("failed records:\n")
		for _, f := range sum.Failures {
			fmt.Fprintf(&b, "  %s: %s\n", f.Key, f.Err)
		}
	}
	if len(sum.BlockedKeys) > 0 {
		b.WriteString("blocked records:\n")
		for _, k := range sum.BlockedKeys {
			fmt.Fprintf(&b, "  %s\n", k)
		}
	}
	return b.String()
}
