package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soward/depload/internal/batch"
	"github.com/soward/depload/internal/catalog"
	"github.com/soward/depload/internal/graph"
	"github.com/soward/depload/internal/loadlog"
	"github.com/soward/depload/internal/record"
)

// PlanOptions holds the flags of the plan command.
type PlanOptions struct {
	Files   []string
	Streams []string
	Catalog string
	Out     string
	Batch   int
}

// planBatch is the JSON shape of one planned batch.
type planBatch struct {
	Seq     int          `json:"seq"`
	Records []record.Key `json:"records"`
}

// NewPlanCommand creates `depload plan`: the dry run. It builds the graph
// and the batch sequence exactly as load would, consults the load log for
// keys that would be skipped, and writes nothing.
func NewPlanCommand(root *RootOptions) *cobra.Command {
	opts := &PlanOptions{}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the batch plan without writing anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, root, opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Files, "file", "f", nil, "input file (repeatable)")
	cmd.Flags().StringSliceVarP(&opts.Streams, "stream", "s", nil, "input stream as format:model:path (repeatable)")
	cmd.Flags().StringVar(&opts.Catalog, "catalog", "./catalog", "directory of CUE model schemas")
	cmd.Flags().StringVar(&opts.Out, "out", "./log.json", "load log consulted for already-loaded keys")
	cmd.Flags().IntVar(&opts.Batch, "batch", 50, "maximum records per batch")

	return cmd
}

func runPlan(cmd *cobra.Command, root *RootOptions, opts *PlanOptions) error {
	inputs, err := collectInputs(opts.Files, opts.Streams)
	if err != nil {
		return err
	}
	cat, err := catalog.LoadDir(opts.Catalog)
	if err != nil {
		return err
	}
	set, err := readRecords(cmd.Context(), inputs, cat)
	if err != nil {
		return err
	}
	llog, err := loadlog.Open(opts.Out, slog.Default())
	if err != nil {
		return err
	}

	g, err := graph.Build(set, cat, llog)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "plan failed", Err: err}
	}
	batches, err := batch.Plan(g, opts.Batch)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "plan failed", Err: err}
	}

	formatter := &OutputFormatter{Format: root.Format, Writer: cmd.OutOrStdout()}
	return formatter.Success(renderPlan(batches, llog), planData(batches))
}

func planData(batches []batch.Batch) []planBatch {
	out := make([]planBatch, len(batches))
	for i, b := range batches {
		pb := planBatch{Seq: b.Seq}
		for _, r := range b.Records {
			pb.Records = append(pb.Records, r.Key())
		}
		out[i] = pb
	}
	return out
}

func renderPlan(batches []batch.Batch, llog loadlog.Log) string {
	var b strings.Builder
	total := 0
	for _, bt := range batches {
		total += len(bt.Records)
	}
	fmt.Fprintf(&b, "plan: %d record(s) in %d batch(es)\n", total, len(batches))
	for _, bt := range batches {
		fmt.Fprintf(&b, "batch %d:\n", bt.Seq+1)
		for _, r := range bt.Records {
			suffix := ""
			if llog.Contains(r.Model, r.Identity.Value) {
				suffix = "  (already loaded, will skip)"
			}
			fmt.Fprintf(&b, "  %s%s\n", r.Key(), suffix)
		}
	}
	return b.String()
}
