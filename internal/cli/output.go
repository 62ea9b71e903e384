package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by -o.
const (
	formatTable = "table"
	formatYAML  = "yaml"
)

func checkFormat(format string) error {
	switch format {
	case formatTable, formatYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want table or yaml)", format)
	}
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// isTerminal checks if stdout is a terminal (TTY).
func isTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// colorStatus colors a build, worker or request state by family. Any
// "code: details" suffix keeps the color of its code.
func colorStatus(status string, enabled bool) string {
	if !enabled {
		return status
	}
	code := strings.ToLower(strings.TrimSpace(status))
	if i := strings.Index(code, ":"); i >= 0 {
		code = strings.TrimSpace(code[:i])
	}
	switch code {
	case "succeeded", "accepted":
		return color.GreenString(status)
	case "failed", "unresolvable", "broken", "expansion error", "declined":
		return color.RedString(status)
	case "building", "dispatching", "signing", "finished", "new":
		return color.CyanString(status)
	case "scheduled", "blocked", "review":
		return color.YellowString(status)
	case "disabled", "excluded", "locked", "unknown", "idle", "revoked", "superseded":
		return color.HiBlackString(status)
	default:
		return status
	}
}
