package card

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"taskmirror/internal/service"
)

// Badge is the status pill shown in the card header.
type Badge struct {
	Label string
	Style lipgloss.Style
}

// Status badge colors (light/dark terminal detection).
var (
	todoFg       = lipgloss.AdaptiveColor{Light: "#854D0E", Dark: "#FDE68A"}
	todoBg       = lipgloss.AdaptiveColor{Light: "#FEF9C3", Dark: "#713F12"}
	inProgressFg = lipgloss.AdaptiveColor{Light: "#1E40AF", Dark: "#BFDBFE"}
	inProgressBg = lipgloss.AdaptiveColor{Light: "#DBEAFE", Dark: "#1E3A8A"}
	doneFg       = lipgloss.AdaptiveColor{Light: "#166534", Dark: "#BBF7D0"}
	doneBg       = lipgloss.AdaptiveColor{Light: "#DCFCE7", Dark: "#14532D"}

	colorMuted  = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	colorBorder = lipgloss.AdaptiveColor{Light: "#E5E7EB", Dark: "#374151"}
)

var (
	badgeBase = lipgloss.NewStyle().Bold(true).Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	titleStyle    = lipgloss.NewStyle().Bold(true)
	handleStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	disabledStyle = lipgloss.NewStyle().Foreground(colorMuted).Faint(true)
)

// BadgeFor returns the badge for a status. Each status has a fixed style.
func BadgeFor(s service.Status) Badge {
	style := badgeBase
	switch s {
	case service.StatusTodo:
		style = style.Foreground(todoFg).Background(todoBg)
	case service.StatusInProgress:
		style = style.Foreground(inProgressFg).Background(inProgressBg)
	case service.StatusDone:
		style = style.Foreground(doneFg).Background(doneBg)
	}
	return Badge{Label: string(s), Style: style}
}

// RenderOptions control terminal rendering.
type RenderOptions struct {
	// Width is the outer card width in columns. Defaults to 60.
	Width int

	// MarkdownStyle is a glamour standard style name ("dark", "light", "notty").
	// Empty selects a style from the terminal background.
	MarkdownStyle string
}

const drag = "⠿"

// Render draws the card.
func Render(v View, opts RenderOptions) (string, error) {
	width := opts.Width
	if width <= 0 {
		width = 60
	}
	// lipgloss widths include padding but not the border
	inner := width - cardStyle.GetHorizontalBorderSize()
	content := inner - cardStyle.GetHorizontalPadding()
	if content < 20 {
		content = 20
		inner = content + cardStyle.GetHorizontalPadding()
	}

	var sections []string

	badge := v.Badge.Style.Render(v.Badge.Label)
	left := handleStyle.Render(drag) + " " + titleStyle.Render(v.Title)
	gap := content - lipgloss.Width(left) - lipgloss.Width(badge)
	if gap < 1 {
		gap = 1
	}
	sections = append(sections, left+strings.Repeat(" ", gap)+badge)

	if v.DueLabel != "" {
		sections = append(sections, mutedStyle.Render(v.DueLabel))
	}

	if v.Description != "" {
		desc, err := renderDescription(v.Description, content, opts.MarkdownStyle)
		if err != nil {
			return "", err
		}
		sections = append(sections, desc)
	}

	if v.Busy {
		sections = append(sections, mutedStyle.Render(BusyMessage))
	}

	if v.SubtaskHeader != "" {
		lines := []string{titleStyle.Render(v.SubtaskHeader)}
		for _, sub := range v.SubTasks {
			lines = append(lines, "• "+sub)
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	sections = append(sections, renderMenu(v.Menu))

	return cardStyle.Width(inner).Render(strings.Join(sections, "\n")), nil
}

func renderMenu(items []MenuItem) string {
	labels := make([]string, len(items))
	for i, item := range items {
		if item.Disabled {
			labels[i] = disabledStyle.Render(item.Label)
		} else {
			labels[i] = item.Label
		}
	}
	return mutedStyle.Render("[") + strings.Join(labels, mutedStyle.Render(" · ")) + mutedStyle.Render("]")
}

// renderDescription renders the description as rich text. No sanitization is done.
func renderDescription(md string, width int, style string) (string, error) {
	// glamour's standard styles add a two-column margin on each side
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(max(width-4, 10))}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", err
	}
	out, err := r.Render(md)
	if err != nil {
		return "", err
	}
	lines := strings.Split(strings.Trim(out, "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.Join(lines, "\n"), nil
}
