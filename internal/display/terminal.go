// Package display provides terminal output formatting for skymix.
package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/gauthierbraillon/skymix/internal/feed"
)

const separator = " • "

var (
	styleHandle = lipgloss.NewStyle().Bold(true)
	styleOrigin = lipgloss.NewStyle().Faint(true)
	styleMeta   = lipgloss.NewStyle().Faint(true)
	styleMedia  = lipgloss.NewStyle().Italic(true)
)

// TerminalFormatter formats feed items for terminal display.
type TerminalFormatter struct{}

// NewTerminalFormatter creates a new terminal formatter.
func NewTerminalFormatter() *TerminalFormatter {
	return &TerminalFormatter{}
}

// FormatItem formats a single feed item for display.
func (f *TerminalFormatter) FormatItem(item feed.Item) string {
	var lines []string

	// Header: author, relative time, originating source.
	author := item.Author.DisplayName
	if author == "" {
		author = item.Author.Handle
	}
	header := styleHandle.Render(author) +
		separator + f.FormatTimestamp(item.CreatedAt)
	if item.Origin.Label != "" {
		header += separator + styleOrigin.Render(item.Origin.Label)
	}
	lines = append(lines, header)

	if text := strings.TrimSpace(item.Text); text != "" {
		lines = append(lines, "  "+f.TruncateText(text, 200))
	}
	if item.HasMedia {
		lines = append(lines, "  "+styleMedia.Render("[media]"))
	}
	if engagement := f.formatEngagement(item); engagement != "" {
		lines = append(lines, "  "+styleMeta.Render(engagement))
	}
	if item.URL != "" {
		lines = append(lines, "  "+styleMeta.Render(item.URL))
	}

	return strings.Join(lines, "\n") + "\n"
}

// formatEngagement formats engagement stats into a single line.
func (f *TerminalFormatter) formatEngagement(item feed.Item) string {
	var parts []string

	if item.Likes > 0 {
		parts = append(parts, fmt.Sprintf("%d likes", item.Likes))
	}
	if item.Reposts > 0 {
		parts = append(parts, fmt.Sprintf("%d reposts", item.Reposts))
	}
	if item.Replies > 0 {
		parts = append(parts, fmt.Sprintf("%d replies", item.Replies))
	}

	return strings.Join(parts, separator)
}

// FormatFeed formats multiple feed items for display.
func (f *TerminalFormatter) FormatFeed(items []feed.Item) string {
	if len(items) == 0 {
		return "No items to display.\n"
	}

	var formatted []string
	for _, item := range items {
		formatted = append(formatted, f.FormatItem(item))
	}

	return strings.Join(formatted, "\n---\n\n")
}

// FormatTimestamp formats a timestamp as relative time.
func (f *TerminalFormatter) FormatTimestamp(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return pluralize(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return pluralize(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return pluralize(int(diff.Hours()/24), "day")
	default:
		return t.Format("Jan 2, 2006")
	}
}

// pluralize returns "N unit ago" or "N units ago" based on count.
func pluralize(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// TruncateText truncates text to maxLen, adding "..." if truncated.
func (f *TerminalFormatter) TruncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return "..."
	}
	return text[:maxLen-3] + "..."
}
