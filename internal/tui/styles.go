package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/rundown-app/rundown/internal/models"
	"github.com/rundown-app/rundown/internal/ui"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#5A56E0")).
			Padding(0, 1)

	paneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			Padding(0, 1)

	focusedPaneStyle = paneStyle.
				BorderForeground(lipgloss.Color("#5A56E0"))

	paneTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5A56E0"))

	userMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#04B575"))

	botMessageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#767676"))

	urgentStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF5F5F"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFD75F"))

	notifyStyles = map[ui.NotifyLevel]lipgloss.Style{
		ui.NotifyInfo: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#3C3C90")).
			Padding(0, 1),
		ui.NotifySuccess: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#04B575")).
			Padding(0, 1),
		ui.NotifyError: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#D70000")).
			Padding(0, 1),
	}

	statusLabels = map[models.TaskStatus]string{
		models.TaskStatusNotStarted: dimStyle.Render("[ ]"),
		models.TaskStatusInProgress: selectedStyle.Render("[~]"),
		models.TaskStatusCompleted:  userMessageStyle.Render("[x]"),
	}
)

// terminalStyles renders inline markdown markers with lipgloss.
func terminalStyles() ui.StyleSet {
	bold := lipgloss.NewStyle().Bold(true)
	italic := lipgloss.NewStyle().Italic(true)
	link := lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("#5FAFFF"))
	code := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD75F")).Background(lipgloss.Color("#262626"))
	return ui.StyleSet{
		Bold:   func(s string) string { return bold.Render(s) },
		Italic: func(s string) string { return italic.Render(s) },
		Link: func(label, url string) string {
			return link.Render(label) + dimStyle.Render(" ("+url+")")
		},
		Code: func(s string) string { return code.Render(s) },
	}
}
