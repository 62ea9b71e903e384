package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/five82/foreman/internal/buildservice"
)

var historyOutput string

var historyCmd = &cobra.Command{
	Use:   "history <project> <package> <target>",
	Short: "Show past builds of a package on a target",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(historyOutput); err != nil {
			return err
		}
		_, svc, err := connect(cmd)
		if err != nil {
			return err
		}
		return showHistory(cmd.Context(), cmd.OutOrStdout(), svc, args[0], args[1], args[2], historyOutput)
	},
}

var commitsOutput string

var commitsCmd = &cobra.Command{
	Use:   "commits <project> <package> [revision]",
	Short: "Show the source revisions of a package",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(commitsOutput); err != nil {
			return err
		}
		_, svc, err := connect(cmd)
		if err != nil {
			return err
		}
		rev := ""
		if len(args) == 3 {
			rev = args[2]
		}
		return showCommits(cmd.Context(), cmd.OutOrStdout(), svc, args[0], args[1], rev, commitsOutput)
	},
}

func init() {
	historyCmd.Flags().StringVarP(&historyOutput, "output", "o", formatTable, "Output format (table, yaml)")
	commitsCmd.Flags().StringVarP(&commitsOutput, "output", "o", formatTable, "Output format (table, yaml)")
	rootCmd.AddCommand(historyCmd, commitsCmd)
}

type historyRow struct {
	Time    time.Time `yaml:"time"`
	Rev     string    `yaml:"rev"`
	SrcMD5  string    `yaml:"srcmd5"`
	Version string    `yaml:"version"`
	Build   int       `yaml:"build"`
}

func showHistory(ctx context.Context, w io.Writer, svc buildservice.Service, project, pkg, target, format string) error {
	entries, err := svc.BuildHistory(ctx, project, pkg, target)
	if err != nil {
		return err
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Time.After(entries[j].Time) })

	if format == formatYAML {
		rows := make([]historyRow, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, historyRow{Time: e.Time, Rev: e.Rev, SrcMD5: e.SrcMD5, Version: e.VersionRelease, Build: e.BuildCount})
		}
		return writeYAML(w, rows)
	}
	if len(entries) == 0 {
		fmt.Fprintf(w, "No builds of %s on %s.\n", pkg, target)
		return nil
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "WHEN\tREV\tVERSION\tBUILD")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", humanize.Time(e.Time), e.Rev, e.VersionRelease, e.BuildCount)
	}
	return tw.Flush()
}

type commitRow struct {
	Rev     string    `yaml:"rev"`
	Time    time.Time `yaml:"time"`
	User    string    `yaml:"user"`
	Version string    `yaml:"version,omitempty"`
	Comment string    `yaml:"comment,omitempty"`
}

func showCommits(ctx context.Context, w io.Writer, svc buildservice.Service, project, pkg, rev, format string) error {
	commits, err := svc.CommitLog(ctx, project, pkg, rev)
	if err != nil {
		return err
	}
	sort.SliceStable(commits, func(i, j int) bool { return commits[i].Time.After(commits[j].Time) })

	if format == formatYAML {
		rows := make([]commitRow, 0, len(commits))
		for _, c := range commits {
			rows = append(rows, commitRow{Rev: c.Rev, Time: c.Time, User: c.User, Version: c.Version, Comment: c.Comment})
		}
		return writeYAML(w, rows)
	}
	if len(commits) == 0 {
		fmt.Fprintf(w, "No revisions of %s.\n", pkg)
		return nil
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "REV\tWHEN\tUSER\tVERSION\tCOMMENT")
	for _, c := range commits {
		fmt.Fprintf(tw, "r%s\t%s\t%s\t%s\t%s\n", c.Rev, humanize.Time(c.Time), c.User, dash(c.Version), oneLine(c.Comment, requestCommentWidth))
	}
	return tw.Flush()
}
