package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soward/depload/internal/loadlog"
)

// logStats summarizes a load log for inspection.
type logStats struct {
	Path      string         `json:"path"`
	Entries   int            `json:"entries"`
	Successes int            `json:"successes"`
	Failures  int            `json:"failures"`
	Models    map[string]int `json:"models"` // model -> successes
}

// NewLogCommand creates `depload log`, which summarizes the load log
// without touching it.
func NewLogCommand(root *RootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Summarize the load log",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := loadlog.ReadAll(out)
			if err != nil {
				return err
			}
			stats := logStats{Path: out, Models: make(map[string]int)}
			for _, e := range entries {
				stats.Entries++
				switch e.Outcome {
				case loadlog.OutcomeSuccess:
					stats.Successes++
					stats.Models[e.Model]++
				case loadlog.OutcomeFailure:
					stats.Failures++
				}
			}
			formatter := &OutputFormatter{Format: root.Format, Writer: cmd.OutOrStdout()}
			return formatter.Success(renderLogStats(stats), stats)
		},
	}

	cmd.Flags().StringVar(&out, "out", "./log.json", "load log path")
	return cmd
}

func renderLogStats(stats logStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d entr(ies), %d success(es), %d failure(s)\n",
		stats.Path, stats.Entries, stats.Successes, stats.Failures)
	models := make([]string, 0, len(stats.Models))
	for m := range stats.Models {
		models = append(models, m)
	}
	sort.Strings(models)
	for _, m := range models {
		fmt.Fprintf(&b, "  %-30s %d\n", m, stats.Models[m])
	}
	return b.String()
}
