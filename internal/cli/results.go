package cli

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/foreman/internal/buildservice"
	"github.com/five82/foreman/internal/listmodel"
)

type resultsOptions struct {
	status string
	target string
	search string
	output string
	watch  bool
	color  bool
}

var resultsOpts resultsOptions

var resultsCmd = &cobra.Command{
	Use:   "results <project>",
	Short: "Show build results of a project",
	Long: `Show the status of every package of a project on every build target.

Filters combine: --status keeps packages with that status on any shown
target, --target shows a single target and --search matches package names.`,
	Args: cobra.ExactArgs(1),
	RunE: runResults,
}

func init() {
	f := resultsCmd.Flags()
	f.StringVar(&resultsOpts.status, "status", "", "only packages with this status, e.g. failed")
	f.StringVar(&resultsOpts.target, "target", "", "only this target (repository/arch)")
	f.StringVar(&resultsOpts.search, "search", "", "only packages whose name contains this text")
	f.StringVarP(&resultsOpts.output, "output", "o", formatTable, "Output format (table, yaml)")
	f.BoolVarP(&resultsOpts.watch, "watch", "w", false, "refresh until interrupted")
	rootCmd.AddCommand(resultsCmd)
}

func runResults(cmd *cobra.Command, args []string) error {
	if err := checkFormat(resultsOpts.output); err != nil {
		return err
	}
	cfg, svc, err := connect(cmd)
	if err != nil {
		return err
	}
	opts := resultsOpts
	opts.color = isTerminal()
	out := cmd.OutOrStdout()
	show := func(ctx context.Context) error {
		return showResults(ctx, out, svc, args[0], opts)
	}
	if !opts.watch {
		return show(cmd.Context())
	}
	return watchLoop(cmd.Context(), out, "results", cfg.RefreshInterval, show)
}

// resultRow is the yaml shape of one package.
type resultRow struct {
	Package string            `yaml:"package"`
	Status  map[string]string `yaml:"status"`
}

func showResults(ctx context.Context, w io.Writer, svc buildservice.Service, project string, opts resultsOptions) error {
	m, err := svc.Results(ctx, project)
	if err != nil {
		return err
	}
	mm := listmodel.NewMatrixModel()
	if err := mm.SetMatrix(m); err != nil {
		return fmt.Errorf("results of %s: %w", project, err)
	}
	if opts.target != "" && !slices.Contains(m.Targets, opts.target) {
		return fmt.Errorf("project %s has no target %q (have %s)", project, opts.target, strings.Join(m.Targets, ", "))
	}
	for dim, value := range map[string]string{
		listmodel.DimTarget: opts.target,
		listmodel.DimStatus: opts.status,
		listmodel.DimSearch: opts.search,
	} {
		if err := mm.SetFilter(dim, value); err != nil {
			return err
		}
	}

	pkgs := mm.VisiblePackages()
	targets := mm.VisibleTargets()

	if opts.output == formatYAML {
		rows := make([]resultRow, 0, len(pkgs))
		for _, pkg := range pkgs {
			row := resultRow{Package: pkg, Status: make(map[string]string, len(targets))}
			for _, t := range targets {
				row.Status[t] = m.Status(pkg, t)
			}
			rows = append(rows, row)
		}
		return writeYAML(w, rows)
	}

	if len(pkgs) == 0 {
		fmt.Fprintln(w, "No packages match.")
		return nil
	}
	tw := newTable(w)
	fmt.Fprintf(tw, "PACKAGE\t%s\n", strings.Join(targets, "\t"))
	for _, pkg := range pkgs {
		cells := make([]string, len(targets))
		for i, t := range targets {
			cells[i] = colorStatus(m.Status(pkg, t), opts.color)
		}
		fmt.Fprintf(tw, "%s\t%s\n", pkg, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%s\n", summarizeCounts(mm.Counts(), listmodel.ResultCategories))
	return nil
}

// summarizeCounts renders the non-empty categories in tab order, e.g.
// "12 packages: Succeeded 10, Failed 2".
func summarizeCounts(counts map[string]int, categories []string) string {
	parts := make([]string, 0, len(categories))
	for _, c := range categories {
		if c == listmodel.All || counts[c] == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %d", c, counts[c]))
	}
	total := counts[listmodel.All]
	noun := "packages"
	if total == 1 {
		noun = "package"
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%d %s", total, noun)
	}
	return fmt.Sprintf("%d %s: %s", total, noun, strings.Join(parts, ", "))
}
