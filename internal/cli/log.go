package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/foreman/internal/buildservice"
	"github.com/five82/foreman/internal/logtail"
	"github.com/five82/foreman/internal/poll"
)

type logOptions struct {
	tail   int
	follow bool
	color  bool
	delay  time.Duration
}

var logOpts logOptions

var logCmd = &cobra.Command{
	Use:   "log <project> <target> <package>",
	Short: "Print the build log of a package",
	Long: `Print the build log of a package on one target (repository/arch).

With --follow the log is read incrementally while the package is building
and the command exits when the build ends.`,
	Args: cobra.ExactArgs(3),
	RunE: runLog,
}

func init() {
	f := logCmd.Flags()
	f.IntVarP(&logOpts.tail, "tail", "n", 0, "print only the last N lines")
	f.BoolVarP(&logOpts.follow, "follow", "f", false, "keep reading while the package builds")
	logCmd.MarkFlagsMutuallyExclusive("tail", "follow")
	rootCmd.AddCommand(logCmd)
}

func runLog(cmd *cobra.Command, args []string) error {
	cfg, svc, err := connect(cmd)
	if err != nil {
		return err
	}
	opts := logOpts
	opts.color = isTerminal()
	opts.delay = cfg.LogStreamDelay
	project, target, pkg := args[0], args[1], args[2]
	if _, _, err := buildservice.SplitTarget(target); err != nil {
		return err
	}
	if opts.follow {
		return followLog(cmd.Context(), cmd.OutOrStdout(), svc, project, target, pkg, opts)
	}
	return printLog(cmd.Context(), cmd.OutOrStdout(), svc, project, target, pkg, opts)
}

func printLog(ctx context.Context, w io.Writer, svc buildservice.Service, project, target, pkg string, opts logOptions) error {
	data, err := svc.BuildLog(ctx, project, target, pkg, 0)
	if err != nil {
		return err
	}
	lines, err := logtail.Tail(bytes.NewReader(data), opts.tail)
	if err != nil {
		return err
	}
	return writeLogLines(w, lines, opts.color)
}

// followLog streams the log until the package stops building. An empty
// chunk means the reader caught up; the package status then decides
// whether to wait for more.
func followLog(ctx context.Context, w io.Writer, svc buildservice.Service, project, target, pkg string, opts logOptions) error {
	delay := opts.delay
	if delay <= 0 {
		delay = poll.DefaultLogDelay
	}
	cursor := poll.LogCursor{Project: project, Target: target, Package: pkg, Live: true}
	out := &lineWriter{w: w, color: opts.color}
	defer out.flush()

	for {
		chunk, err := svc.BuildLog(ctx, project, target, pkg, cursor.Offset)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := out.write(chunk); err != nil {
			return err
		}
		if !cursor.Advance(chunk) {
			status, err := svc.PackageStatus(ctx, project, pkg)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			if !poll.IsBuilding(status[target]) {
				return nil
			}
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

func writeLogLines(w io.Writer, lines []string, color bool) error {
	if color {
		lines = logtail.ColorizeLines(lines, logtail.DefaultPalette())
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// lineWriter prints complete lines of a chunked log and holds back a
// trailing partial line until the rest of it arrives.
type lineWriter struct {
	w       io.Writer
	color   bool
	partial string
}

func (lw *lineWriter) write(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}
	text := lw.partial + string(chunk)
	lines := strings.Split(text, "\n")
	lw.partial = lines[len(lines)-1]
	return writeLogLines(lw.w, lines[:len(lines)-1], lw.color)
}

func (lw *lineWriter) flush() {
	if lw.partial == "" {
		return
	}
	_ = writeLogLines(lw.w, []string{lw.partial}, lw.color)
	lw.partial = ""
}
