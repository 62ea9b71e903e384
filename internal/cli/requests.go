package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/foreman/internal/buildservice"
	"github.com/five82/foreman/internal/listmodel"
)

const requestCommentWidth = 60

type requestsOptions struct {
	state       string
	source      string
	destination string
	search      string
	output      string
	color       bool
}

var requestsOpts requestsOptions

var requestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "List submit requests",
	Long: `List submit requests.

--source and --destination take a project name or "watched" for any
project on your watchlist.`,
	Args: cobra.NoArgs,
	RunE: runRequests,
}

func init() {
	f := requestsCmd.Flags()
	f.StringVar(&requestsOpts.state, "state", "", "only requests in this state, e.g. new or review")
	f.StringVar(&requestsOpts.source, "source", "", "source project, or watched")
	f.StringVar(&requestsOpts.destination, "destination", "", "destination project, or watched")
	f.StringVar(&requestsOpts.search, "search", "", "match request id or package names")
	f.StringVarP(&requestsOpts.output, "output", "o", formatTable, "Output format (table, yaml)")
	rootCmd.AddCommand(requestsCmd)
}

func runRequests(cmd *cobra.Command, args []string) error {
	if err := checkFormat(requestsOpts.output); err != nil {
		return err
	}
	_, svc, err := connect(cmd)
	if err != nil {
		return err
	}
	opts := requestsOpts
	opts.color = isTerminal()
	return showRequests(cmd.Context(), cmd.OutOrStdout(), svc, opts)
}

// projectFilter maps "watched" in any case to the watched sentinel.
func projectFilter(value string) string {
	if strings.EqualFold(strings.TrimSpace(value), listmodel.Watched) {
		return listmodel.Watched
	}
	return strings.TrimSpace(value)
}

func showRequests(ctx context.Context, w io.Writer, svc buildservice.Service, opts requestsOptions) error {
	reqs, err := svc.SubmitRequests(ctx)
	if err != nil {
		return err
	}

	list := listmodel.New(listmodel.RequestSchema())
	list.SetData(buildservice.RequestRecords(reqs))

	source := projectFilter(opts.source)
	destination := projectFilter(opts.destination)
	if source == listmodel.Watched || destination == listmodel.Watched {
		watched, err := svc.ListWatchedProjects(ctx)
		if err != nil {
			return fmt.Errorf("watched projects: %w", err)
		}
		list.SetWatched(watched)
	}
	filters := []struct{ dim, value string }{
		{listmodel.DimState, opts.state},
		{listmodel.DimSource, source},
		{listmodel.DimDestination, destination},
		{listmodel.DimSearch, opts.search},
	}
	for _, f := range filters {
		if err := list.SetFilter(f.dim, f.value); err != nil {
			return err
		}
	}

	if opts.output == formatYAML {
		return writeYAML(w, list.Visible())
	}
	if list.Len() == 0 {
		fmt.Fprintln(w, "No requests match.")
		return nil
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tSTATE\tSOURCE\tDESTINATION\tCOMMENT")
	for _, rec := range list.Visible() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			rec.Get("id"),
			colorStatus(rec.Get("state"), opts.color),
			joinPackage(rec.Get("srcproject"), rec.Get("srcpackage")),
			joinPackage(rec.Get("dstproject"), rec.Get("dstpackage")),
			oneLine(rec.Get("comment"), requestCommentWidth),
		)
	}
	return tw.Flush()
}

func joinPackage(project, pkg string) string {
	if pkg == "" {
		return project
	}
	return project + "/" + pkg
}

// oneLine collapses whitespace and cuts s to width runes.
func oneLine(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}
