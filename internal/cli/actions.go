package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	actionTarget  string
	rebuildFailed bool
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild <project> [package]",
	Short: "Trigger a rebuild",
	Long: `Trigger a rebuild of one package, or of every package of the project
when no package is given. --target limits it to one repository/arch and
--failed to packages whose last build failed.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, svc, err := connect(cmd)
		if err != nil {
			return err
		}
		project, pkg := args[0], optionalArg(args, 1)
		code := ""
		if rebuildFailed {
			code = "failed"
		}
		if err := svc.Rebuild(cmd.Context(), project, pkg, actionTarget, code); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Rebuild of %s triggered.\n", describe(project, pkg, actionTarget))
		return nil
	},
}

var abortCmd = &cobra.Command{
	Use:   "abort <project> [package]",
	Short: "Abort running builds",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, svc, err := connect(cmd)
		if err != nil {
			return err
		}
		project, pkg := args[0], optionalArg(args, 1)
		if err := svc.AbortBuild(cmd.Context(), project, pkg, actionTarget); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Builds of %s aborted.\n", describe(project, pkg, actionTarget))
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch <project>",
	Short: "Add a project to your watchlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, svc, err := connect(cmd)
		if err != nil {
			return err
		}
		if err := svc.WatchProject(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s.\n", args[0])
		return nil
	},
}

var unwatchCmd = &cobra.Command{
	Use:   "unwatch <project>",
	Short: "Remove a project from your watchlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, svc, err := connect(cmd)
		if err != nil {
			return err
		}
		if err := svc.UnwatchProject(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "No longer watching %s.\n", args[0])
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{rebuildCmd, abortCmd} {
		c.Flags().StringVar(&actionTarget, "target", "", "only this target (repository/arch)")
	}
	rebuildCmd.Flags().BoolVar(&rebuildFailed, "failed", false, "only packages whose last build failed")
	rootCmd.AddCommand(rebuildCmd, abortCmd, watchCmd, unwatchCmd)
}

func optionalArg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

// describe names what a command applies to, e.g. "home:alice/hello on openSUSE_Tumbleweed/x86_64".
func describe(project, pkg, target string) string {
	s := project
	if pkg != "" {
		s += "/" + pkg
	} else {
		s += " (all packages)"
	}
	if target != "" {
		s += " on " + target
	}
	return s
}
