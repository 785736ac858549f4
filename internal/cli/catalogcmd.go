package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soward/depload/internal/catalog"
	"github.com/soward/depload/internal/graph"
)

// catalogReport is the JSON shape of `catalog vet` output.
type catalogReport struct {
	Models       []string `json:"models"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// NewCatalogCommand creates `depload catalog` with its vet subcommand.
func NewCatalogCommand(root *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the model schema catalog",
	}
	cmd.AddCommand(newCatalogVetCommand(root))
	return cmd
}

// newCatalogVetCommand validates the catalog: it must load cleanly and its
// declared model-level references must admit at least one load order.
func newCatalogVetCommand(root *RootOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "vet",
		Short: "Validate the catalog and check declared references for cycles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.LoadDir(dir)
			if err != nil {
				return err
			}
			if err := graph.ValidateModels(cat); err != nil {
				return &ExitError{Code: ExitCommandError, Message: "catalog vet failed", Err: err}
			}

			report := catalogReport{Models: cat.Models()}
			for _, d := range cat.Dependencies() {
				report.Dependencies = append(report.Dependencies,
					fmt.Sprintf("%s.%s -> %s", d.FromModel, d.ViaField, d.ToModel))
			}
			formatter := &OutputFormatter{Format: root.Format, Writer: cmd.OutOrStdout()}
			return formatter.Success(renderCatalogReport(report), report)
		},
	}

	cmd.Flags().StringVar(&dir, "catalog", "./catalog", "directory of CUE model schemas")
	return cmd
}

func renderCatalogReport(report catalogReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "catalog ok: %d model(s)\n", len(report.Models))
	for _, m := range report.Models {
		fmt.Fprintf(&b, "  %s\n", m)
	}
	if len(report.Dependencies) > 0 {
		b.WriteString("declared references:\n")
		for _, d := range report.Dependencies {
			fmt.Fprintf(&b, "  %s\n", d)
		}
	}
	return b.String()
}
