package views

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

type AppData struct {
	Header     string
	Body       string
	Side       string
	StatusLine string
	Footer     string
}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selectStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
)

func RenderApp(data AppData) string {
	body := panelStyle.Width(58).Render(data.Body)
	row := body
	if strings.TrimSpace(data.Side) != "" {
		row = lipgloss.JoinHorizontal(lipgloss.Top, body, panelStyle.Width(46).Render(data.Side))
	}

	lines := []string{
		headerStyle.Render(data.Header),
		row,
	}
	if data.StatusLine != "" {
		lines = append(lines, RenderStatus(data.StatusLine))
	}
	if data.Footer != "" {
		lines = append(lines, footerStyle.Render(data.Footer))
	}
	return strings.Join(lines, "\n")
}

func RenderStatus(line string) string {
	if strings.Contains(strings.ToLower(line), "error") {
		return errorStyle.Render(line)
	}
	return statusStyle.Render(line)
}

// MarkdownWidth is the wrap column for rendered agendas.
const MarkdownWidth = 100

// RenderMarkdown styles md for the terminal and falls back to the raw text
// when the renderer cannot be built.
func RenderMarkdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(MarkdownWidth),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}
