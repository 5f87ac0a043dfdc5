package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/assetboard/assetboard/internal/aggregate"
	"github.com/assetboard/assetboard/internal/filter"
	"github.com/assetboard/assetboard/internal/inventory"
	"github.com/assetboard/assetboard/pkg/types"
)

// Report is what inspect prints.
type Report struct {
	Records           int               `json:"records"`
	Visible           int               `json:"visible"`
	Summary           aggregate.Summary `json:"summary"`
	OSDistribution    []aggregate.Count `json:"os_distribution"`
	GradeDistribution []aggregate.Count `json:"grade_distribution"`
	DiskHistogram     []aggregate.Count `json:"disk_histogram"`
	Assets            []types.Asset     `json:"assets,omitempty"`
}

type inspectOptions struct {
	search  string
	filters []string
	assets  bool
}

func newInspectCmd(_ *rootOptions) *cobra.Command {
	opts := &inspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect <csv-file>",
		Short: "Parse a local inventory export and print its stats",
		Long: `Parse a local inventory CSV export and print summary JSON to stdout.
Use "-" to read from stdin.`,
		Example: `  assetboard inspect inventory.csv --search finance --filter os="Windows 10 Pro"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspect(cmd.InOrStdin(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.search, "search", "s", "", "case-insensitive search over user, computer name and asset tag")
	cmd.Flags().StringArrayVarP(&opts.filters, "filter", "f", nil, "select a category value, as category=value (repeatable)")
	cmd.Flags().BoolVar(&opts.assets, "assets", false, "include the matching assets in the output")
	return cmd
}

func inspect(stdin io.Reader, out io.Writer, path string, opts *inspectOptions) error {
	state, err := parseFilters(opts.filters)
	if err != nil {
		return err
	}

	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("inspect: %w", err)
		}
		defer f.Close()
		r = f
	}

	all, err := inventory.ParseReader(r)
	if err != nil {
		return err
	}
	visible := filter.Apply(all, opts.search, state)

	rep := Report{
		Records:           len(all),
		Visible:           len(visible),
		Summary:           aggregate.Summarize(visible),
		OSDistribution:    aggregate.OSDistribution(visible),
		GradeDistribution: aggregate.GradeDistribution(visible),
		DiskHistogram:     aggregate.DiskHistogram(visible),
	}
	if opts.assets {
		rep.Assets = visible
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// parseFilters turns category=value pairs into a filter state.
func parseFilters(pairs []string) (*filter.State, error) {
	state := filter.NewState()
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("inspect: filter %q: want category=value", p)
		}
		c, err := filter.ParseCategory(strings.TrimSpace(name))
		if err != nil {
			return nil, fmt.Errorf("inspect: %w", err)
		}
		if slices.Contains(state.Selected(c), value) {
			continue
		}
		if _, err := state.Toggle(c, value); err != nil {
			return nil, fmt.Errorf("inspect: %w", err)
		}
	}
	return state, nil
}
