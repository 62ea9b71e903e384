package logtail

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Kind classifies a build log line for highlighting.
type Kind int

const (
	KindPlain Kind = iota
	KindError
	KindWarning
	KindSection
	KindResult
)

// Palette holds the styles applied per line kind.
type Palette struct {
	Timestamp lipgloss.Style
	Error     lipgloss.Style
	Warning   lipgloss.Style
	Section   lipgloss.Style
	Result    lipgloss.Style
}

// DefaultPalette is used when the caller has no theme.
func DefaultPalette() Palette {
	return Palette{
		Timestamp: lipgloss.NewStyle().Foreground(lipgloss.Color("#808080")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		Warning:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")),
		Section:   lipgloss.NewStyle().Foreground(lipgloss.Color("#87AFFF")).Bold(true),
		Result:    lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD75F")).Bold(true),
	}
}

// Build logs prefix every line with the elapsed build time, e.g. "[  123s]".
var stampPattern = regexp.MustCompile(`^\[\s*\d+s\]\s?`)

// SplitStamp separates the elapsed-time prefix from the rest of the line.
func SplitStamp(line string) (stamp, rest string) {
	loc := stampPattern.FindStringIndex(line)
	if loc == nil {
		return "", line
	}
	return line[:loc[1]], line[loc[1]:]
}

// Classify decides how a line is highlighted.
func Classify(line string) Kind {
	_, rest := SplitStamp(line)
	lower := strings.ToLower(rest)
	switch {
	case strings.HasPrefix(rest, "+ ") && strings.Contains(rest, "rpmbuild"),
		strings.HasPrefix(rest, "Executing(%"):
		return KindSection
	case strings.Contains(rest, "finished \"build ") || strings.HasPrefix(rest, "Wrote: "):
		return KindResult
	case strings.Contains(lower, "error:") || strings.Contains(rest, "FAILED") ||
		strings.HasPrefix(lower, "error ") || strings.Contains(lower, "undefined reference"):
		return KindError
	case strings.Contains(lower, "warning:"):
		return KindWarning
	default:
		return KindPlain
	}
}

// ColorizeLine styles one build log line.
func ColorizeLine(line string, p Palette) string {
	if strings.TrimSpace(line) == "" {
		return line
	}
	stamp, rest := SplitStamp(line)
	if stamp != "" {
		stamp = p.Timestamp.Render(stamp)
	}
	switch Classify(line) {
	case KindError:
		rest = p.Error.Render(rest)
	case KindWarning:
		rest = p.Warning.Render(rest)
	case KindSection:
		rest = p.Section.Render(rest)
	case KindResult:
		rest = p.Result.Render(rest)
	}
	return stamp + rest
}

// ColorizeLines styles every line.
func ColorizeLines(lines []string, p Palette) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = ColorizeLine(line, p)
	}
	return out
}
