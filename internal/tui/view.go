package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gauthierbraillon/skymix/internal/layout"
)

var (
	colorAccent = lipgloss.Color("12")
	colorDim    = lipgloss.Color("240")
	colorAlert  = lipgloss.Color("9")

	styleCard = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)
	styleFocused = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1)
	styleAuthor = lipgloss.NewStyle().Bold(true)
	styleFaint  = lipgloss.NewStyle().Foreground(colorDim)
	styleAlert  = lipgloss.NewStyle().Foreground(colorAlert)
	styleMenu   = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1)
)

const helpLine = "↑↓←→/hjkl move  ⏎ open  L like  x hide  f follow  B block  m menu  q quit"

func (m Model) View() string {
	if m.loading && len(m.items) == 0 {
		return styleFaint.Render("loading feed...")
	}
	if len(m.items) == 0 {
		return styleFaint.Render("nothing to show" + "\n\n" + helpLine)
	}

	if m.confirmBlock {
		return m.confirmView()
	}

	var b strings.Builder
	b.WriteString(m.columnsView())
	b.WriteString("\n")

	if idx, open := m.ctrl.MenuIndex(); open {
		b.WriteString(m.menuView(idx))
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString(styleAlert.Render(m.status))
		b.WriteString("\n")
	}
	position := fmt.Sprintf("[%d/%d]", m.ctrl.Focus()+1, len(m.items))
	b.WriteString(styleFaint.Render(helpLine + "  " + position))
	return b.String()
}

// columnsView renders a window of each column around the focused row.
func (m Model) columnsView() string {
	cardWidth := m.cardCellWidth()
	focusRow := m.focusRow()
	start := focusRow - visibleRows/2
	if start < 0 {
		start = 0
	}

	rendered := make([]string, len(m.columns))
	for c, col := range m.columns {
		var cards []string
		if start > 0 {
			cards = append(cards, styleFaint.Render(fmt.Sprintf(" ↑ %d more", min(start, len(col.Entries)))))
		}
		for r := start; r < len(col.Entries) && r < start+visibleRows; r++ {
			cards = append(cards, m.cardView(col.Entries[r], cardWidth))
		}
		rendered[c] = lipgloss.JoinVertical(lipgloss.Left, cards...)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// focusRow is the focused item's row ordinal within its column.
func (m Model) focusRow() int {
	focus := m.ctrl.Focus()
	for _, col := range m.columns {
		for r, entry := range col.Entries {
			if entry.OriginalIndex == focus {
				return r
			}
		}
	}
	return 0
}

func (m Model) cardCellWidth() int {
	if len(m.columns) == 0 {
		return 30
	}
	w := m.width/len(m.columns) - 4
	if w < 16 {
		w = 30
	}
	return w
}

func (m Model) cardView(entry layout.Placement, width int) string {
	item := entry.Item

	author := item.Author.DisplayName
	if author == "" {
		author = item.Author.Handle
	}
	header := styleAuthor.Render(author)
	if item.Origin.Label != "" {
		header += styleFaint.Render(" · " + item.Origin.Label)
	}

	lines := []string{header}
	if text := strings.TrimSpace(item.Text); text != "" {
		lines = append(lines, text)
	}
	if item.HasMedia {
		marker := "▦ image"
		if item.AspectRatio > 0 && item.AspectRatio < 1 {
			marker = "▯ image"
		}
		lines = append(lines, styleFaint.Render(marker))
	}

	like := "♡"
	if item.Liked {
		like = "♥"
	}
	lines = append(lines, styleFaint.Render(fmt.Sprintf("%s %d  ↻ %d  ↩ %d", like, item.Likes, item.Reposts, item.Replies)))

	style := styleCard
	if entry.OriginalIndex == m.ctrl.Focus() {
		style = styleFocused
	}
	return style.Width(width).Render(strings.Join(lines, "\n"))
}

func (m Model) menuView(index int) string {
	item := m.items[index]
	like := "like"
	if item.Liked {
		like = "unlike"
	}
	entries := []string{
		"⏎  open post",
		"r  reply",
		"L  " + like,
		"x  hide",
		"f  follow @" + item.Author.Handle,
		"B  block @" + item.Author.Handle,
	}
	return styleMenu.Render(strings.Join(entries, "\n"))
}

func (m Model) confirmView() string {
	index := m.ctrl.Focus()
	handle := ""
	if index >= 0 && index < len(m.items) {
		handle = "@" + m.items[index].Author.Handle
	}
	prompt := fmt.Sprintf("Block %s?\n\nThey will no longer appear in your feeds.\n\n[y] block  [n] cancel", handle)
	return styleMenu.Render(prompt)
}
