package cli

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/five82/foreman/internal/buildservice"
	"github.com/five82/foreman/internal/listmodel"
)

type workersOptions struct {
	status string
	search string
	output string
	watch  bool
	color  bool
}

var workersOpts workersOptions

var workersCmd = &cobra.Command{
	Use:   "workers",
	Short: "Show build workers and waiting jobs",
	Args:  cobra.NoArgs,
	RunE:  runWorkers,
}

func init() {
	f := workersCmd.Flags()
	f.StringVar(&workersOpts.status, "status", "", "only workers in this state (building, idle)")
	f.StringVar(&workersOpts.search, "search", "", "match worker id, host arch, project or package")
	f.StringVarP(&workersOpts.output, "output", "o", formatTable, "Output format (table, yaml)")
	f.BoolVarP(&workersOpts.watch, "watch", "w", false, "refresh until interrupted")
	rootCmd.AddCommand(workersCmd)
}

func runWorkers(cmd *cobra.Command, args []string) error {
	if err := checkFormat(workersOpts.output); err != nil {
		return err
	}
	cfg, svc, err := connect(cmd)
	if err != nil {
		return err
	}
	opts := workersOpts
	opts.color = isTerminal()
	out := cmd.OutOrStdout()
	show := func(ctx context.Context) error {
		return showWorkers(ctx, out, svc, opts)
	}
	if !opts.watch {
		return show(cmd.Context())
	}
	return watchLoop(cmd.Context(), out, "workers", cfg.RefreshInterval, show)
}

type waitingRow struct {
	Arch string `yaml:"arch"`
	Jobs int    `yaml:"jobs"`
}

type workersReport struct {
	Workers []listmodel.Record `yaml:"workers"`
	Waiting []waitingRow       `yaml:"waiting"`
}

func showWorkers(ctx context.Context, w io.Writer, svc buildservice.Service, opts workersOptions) error {
	workers, err := svc.WorkerStatus(ctx)
	if err != nil {
		return err
	}
	stats, err := svc.WaitStats(ctx)
	if err != nil {
		return err
	}

	list := listmodel.New(listmodel.WorkerSchema())
	list.SetData(buildservice.WorkerRecords(workers))
	if err := list.SetFilter(listmodel.DimStatus, opts.status); err != nil {
		return err
	}
	if err := list.SetFilter(listmodel.DimSearch, opts.search); err != nil {
		return err
	}
	sorted := sortWaitStats(stats)

	if opts.output == formatYAML {
		report := workersReport{Workers: list.Visible()}
		for _, s := range sorted {
			report.Waiting = append(report.Waiting, waitingRow{Arch: s.Arch, Jobs: s.Jobs})
		}
		return writeYAML(w, report)
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tHOSTARCH\tSTATUS\tPROJECT\tPACKAGE\tTARGET\tSTARTED")
	for _, rec := range list.Visible() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.Get("id"),
			rec.Get("hostarch"),
			colorStatus(rec.Get("status"), opts.color),
			dash(rec.Get("project")),
			dash(rec.Get("package")),
			dash(rec.Get("target")),
			dash(rec.Get("started")),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	counts := list.Counts()
	fmt.Fprintf(w, "\n%d workers: %d building, %d idle\n",
		counts[listmodel.All], counts["Building"], counts["Idle"])
	if len(sorted) == 0 {
		fmt.Fprintln(w, "No jobs waiting.")
		return nil
	}
	tw = newTable(w)
	fmt.Fprintln(tw, "ARCH\tWAITING")
	for _, s := range sorted {
		fmt.Fprintf(tw, "%s\t%s\n", s.Arch, humanize.Comma(int64(s.Jobs)))
	}
	return tw.Flush()
}

// sortWaitStats orders architectures by waiting jobs, most first.
func sortWaitStats(stats []buildservice.WaitStat) []buildservice.WaitStat {
	sorted := append([]buildservice.WaitStat(nil), stats...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Jobs != sorted[j].Jobs {
			return sorted[i].Jobs > sorted[j].Jobs
		}
		return sorted[i].Arch < sorted[j].Arch
	})
	return sorted
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
