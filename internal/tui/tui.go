// Package tui is the terminal front end. It owns presentation state only;
// every user action is forwarded to the app core and the returned effects
// are applied to the screen.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rundown-app/rundown/internal/app"
	"github.com/rundown-app/rundown/internal/models"
	"github.com/rundown-app/rundown/internal/ui"
)

type pane int

const (
	paneChat pane = iota
	paneTasks
	paneSuggestions
)

type chatLine struct {
	text     string
	fromUser bool
}

// Messages delivered back into the update loop.
type (
	sessionMsg struct {
		ok       bool
		redirect string
	}
	effectsMsg       []ui.Effect
	notifyExpiredMsg struct{ seq int }
	hidePaletteMsg   struct{ seq int }
)

// Model is the bubbletea model for the client.
type Model struct {
	app    *app.App
	styles ui.StyleSet
	timer  *ui.PresentationTimer
	send   func(tea.Msg)

	focus       pane
	chat        []chatLine
	chatInput   string
	taskInput   string
	chatLoading bool

	tasks          []models.Task
	taskCursor     int
	suggestions    []models.Suggestion
	suggestionMsg  string
	suggLoading    bool
	suggCursor     int
	timePeriod     string
	scrollOffset   int
	width, height  int
	notification   string
	notifyLevel    ui.NotifyLevel
	notifySeq      int
	paletteVisible bool
	paletteSeq     int
	quickAffirm    string
	quickDecline   string
	redirect       string
	quitting       bool
}

// NewModel builds the initial model over the app core.
func NewModel(a *app.App) Model {
	return Model{
		app:        a,
		styles:     terminalStyles(),
		timer:      ui.NewPresentationTimer(),
		timePeriod: models.DefaultTimePeriod,
		width:      100,
		height:     30,
	}
}

// Run starts the program and blocks until it exits. It returns the login
// redirect target when the session gate sent the user away.
func Run(a *app.App) (string, error) {
	pm := &programModel{Model: NewModel(a)}
	p := tea.NewProgram(pm, tea.WithAltScreen())
	pm.Model.send = p.Send

	final, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("failed to run terminal UI: %w", err)
	}
	if pm, ok := final.(*programModel); ok {
		pm.Model.timer.Stop()
		return pm.Model.redirect, nil
	}
	return "", nil
}

// programModel wraps Model behind a pointer so the late-bound send function
// reaches every update.
type programModel struct {
	Model
}

func (p *programModel) Init() tea.Cmd { return p.Model.Init() }

func (p *programModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := p.Model.Update(msg)
	p.Model = m
	return p, cmd
}

func (p *programModel) View() string { return p.Model.View() }

// Init runs the session gate before anything else is allowed to happen.
func (m Model) Init() tea.Cmd {
	return func() tea.Msg {
		ok, redirect := m.app.CheckSession(context.Background())
		return sessionMsg{ok: ok, redirect: redirect}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionMsg:
		if !msg.ok {
			m.redirect = msg.redirect
			m.quitting = true
			return m, tea.Quit
		}
		return m, m.dispatch(func(ctx context.Context) []ui.Effect {
			return m.app.Bootstrap(ctx)
		})

	case effectsMsg:
		return m.applyEffects(msg)

	case notifyExpiredMsg:
		if msg.seq == m.notifySeq {
			m.notification = ""
		}
		return m, nil

	case hidePaletteMsg:
		if msg.seq == m.paletteSeq {
			m.paletteVisible = false
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "tab":
		m.focus = (m.focus + 1) % 3
		return m, nil
	case "pgup":
		m.scrollOffset++
		return m, nil
	case "pgdown":
		if m.scrollOffset > 0 {
			m.scrollOffset--
		}
		return m, nil
	}

	if m.quickAffirm != "" {
		switch msg.String() {
		case "y":
			return m.submitChat(m.quickAffirm)
		case "n":
			return m.submitChat(m.quickDecline)
		}
	}

	switch m.focus {
	case paneChat:
		return m.handleChatKey(msg)
	case paneTasks:
		return m.handleTaskKey(msg)
	case paneSuggestions:
		return m.handleSuggestionKey(msg)
	}
	return m, nil
}

func (m Model) handleChatKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		input := m.chatInput
		m.chatInput = ""
		return m.submitChat(input)
	case "backspace":
		if len(m.chatInput) > 0 {
			m.chatInput = m.chatInput[:len(m.chatInput)-1]
		}
	case "esc":
		m.chatInput = ""
	default:
		if msg.Type == tea.KeyRunes {
			m.chatInput += string(msg.Runes)
		} else if msg.Type == tea.KeySpace {
			m.chatInput += " "
		}
	}
	return m, nil
}

func (m Model) handleTaskKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.taskCursor < len(m.tasks)-1 {
			m.taskCursor++
		}
	case "k", "up":
		if m.taskCursor > 0 {
			m.taskCursor--
		}
	case "enter":
		input := m.taskInput
		return m, m.dispatch(func(ctx context.Context) []ui.Effect {
			return m.app.AddTaskFromInput(ctx, input, "")
		})
	case "backspace":
		if len(m.taskInput) > 0 {
			m.taskInput = m.taskInput[:len(m.taskInput)-1]
		}
	case "ctrl+d":
		if m.taskCursor < len(m.tasks) {
			id := m.tasks[m.taskCursor].ID
			return m, m.dispatch(func(ctx context.Context) []ui.Effect {
				return m.app.DeleteTask(ctx, id)
			})
		}
	case "ctrl+s":
		if m.taskCursor < len(m.tasks) {
			task := m.tasks[m.taskCursor]
			next := nextStatus(task.Status)
			return m, m.dispatch(func(context.Context) []ui.Effect {
				return m.app.ChangeTaskStatus(task.ID, next)
			})
		}
	default:
		if msg.Type == tea.KeyRunes {
			m.taskInput += string(msg.Runes)
		} else if msg.Type == tea.KeySpace {
			m.taskInput += " "
		}
	}
	return m, nil
}

func (m Model) handleSuggestionKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.suggCursor < len(m.suggestions)-1 {
			m.suggCursor++
		}
	case "k", "up":
		if m.suggCursor > 0 {
			m.suggCursor--
		}
	case "a", "enter":
		index := m.suggCursor
		return m, m.dispatch(func(ctx context.Context) []ui.Effect {
			return m.app.AcceptSuggestion(ctx, index)
		})
	case "x":
		index := m.suggCursor
		return m, m.dispatch(func(context.Context) []ui.Effect {
			return m.app.DismissSuggestion(index)
		})
	case "r":
		period := m.timePeriod
		m.suggLoading = true
		return m, m.dispatch(func(ctx context.Context) []ui.Effect {
			return m.app.RefreshSuggestions(ctx, period)
		})
	case "p":
		m.timePeriod = nextTimePeriod(m.timePeriod)
	}
	return m, nil
}

func (m Model) submitChat(input string) (Model, tea.Cmd) {
	if strings.TrimSpace(input) == "" {
		return m, nil
	}
	m.chatLoading = true
	m.quickAffirm = ""
	m.quickDecline = ""
	return m, m.dispatch(func(ctx context.Context) []ui.Effect {
		return m.app.SendMessage(ctx, input)
	})
}

// dispatch runs an app handler off the update loop and feeds its effects
// back in as a message.
func (m Model) dispatch(fn func(context.Context) []ui.Effect) tea.Cmd {
	return func() tea.Msg {
		return effectsMsg(fn(context.Background()))
	}
}

func (m Model) applyEffects(effects []ui.Effect) (Model, tea.Cmd) {
	var cmds []tea.Cmd
	for _, effect := range effects {
		switch e := effect.(type) {
		case ui.AppendMessage:
			rendered := ui.FormatMessage(e.Text, e.FromUser, e.Markdown, m.styles)
			m.chat = append(m.chat, chatLine{text: rendered, fromUser: e.FromUser})
			if ui.ShouldAutoScroll(m.scrollOffset) {
				m.scrollOffset = 0
			}
		case ui.SetChatLoading:
			m.chatLoading = e.On
		case ui.SetTasks:
			m.tasks = e.Tasks
			if m.taskCursor >= len(m.tasks) {
				m.taskCursor = max(0, len(m.tasks)-1)
			}
		case ui.SetSuggestions:
			m.suggestions = e.Suggestions
			m.suggestionMsg = e.Message
			m.suggLoading = e.Loading
			m.suggCursor = 0
		case ui.RemoveSuggestion:
			if e.Index >= 0 && e.Index < len(m.suggestions) {
				m.suggestions = append(m.suggestions[:e.Index], m.suggestions[e.Index+1:]...)
			}
			if m.suggCursor >= len(m.suggestions) {
				m.suggCursor = max(0, len(m.suggestions)-1)
			}
		case ui.Notify:
			m.notification = e.Message
			m.notifyLevel = e.Level
			m.notifySeq++
			cmds = append(cmds, m.scheduleHide(ui.NotificationAutoHide, notifyExpiredMsg{seq: m.notifySeq}))
		case ui.ShowQuickReplies:
			m.quickAffirm = e.Affirm
			m.quickDecline = e.Decline
		case ui.ShowCommandPalette:
			m.paletteVisible = true
			m.paletteSeq++
			cmds = append(cmds, m.scheduleHide(ui.CommandPaletteAutoHide, hidePaletteMsg{seq: m.paletteSeq}))
		case ui.ClearTaskInput:
			m.taskInput = ""
		case ui.RedirectToLogin:
			m.redirect = e.Target
			m.quitting = true
			cmds = append(cmds, tea.Quit)
		default:
			slog.Warn("Unhandled UI effect", "effect", fmt.Sprintf("%T", effect))
		}
	}
	return m, tea.Batch(cmds...)
}

// scheduleHide arms an auto-hide through the presentation timer when the
// program is running, and inline otherwise so tests stay deterministic.
func (m Model) scheduleHide(delay time.Duration, msg tea.Msg) tea.Cmd {
	if m.send == nil {
		return nil
	}
	send := m.send
	m.timer.ScheduleAfter(delay, func() { send(msg) })
	return nil
}

func (m Model) chatViewportHeight() int {
	h := m.height - 8
	if h < 3 {
		h = 3
	}
	return h
}

func nextStatus(s models.TaskStatus) models.TaskStatus {
	switch s {
	case models.TaskStatusNotStarted:
		return models.TaskStatusInProgress
	case models.TaskStatusInProgress:
		return models.TaskStatusCompleted
	default:
		return models.TaskStatusNotStarted
	}
}

func nextTimePeriod(p string) string {
	switch p {
	case models.TimePeriodDay:
		return models.TimePeriodWeek
	case models.TimePeriodWeek:
		return models.TimePeriodTwoWeeks
	case models.TimePeriodTwoWeeks:
		return models.TimePeriodMonth
	default:
		return models.TimePeriodDay
	}
}

func (m Model) View() string {
	if m.quitting {
		if m.redirect != "" {
			return "Session expired. Please sign in at " + m.redirect + "\n"
		}
		return ""
	}

	header := titleStyle.Render("RunDown")
	if m.notification != "" {
		header = lipgloss.JoinHorizontal(lipgloss.Top, header, "  ", notifyStyles[m.notifyLevel].Render(m.notification))
	}

	chat := m.renderChat()
	side := lipgloss.JoinVertical(lipgloss.Left, m.renderTasks(), m.renderSuggestions())
	body := lipgloss.JoinHorizontal(lipgloss.Top, chat, side)

	parts := []string{header, body}
	if m.paletteVisible {
		parts = append(parts, m.renderPalette())
	}
	parts = append(parts, m.renderInput(), dimStyle.Render("tab: switch pane · y/n: quick reply · ctrl+c: quit"))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderChat() string {
	height := m.chatViewportHeight()
	lines := make([]string, 0, height)
	start := len(m.chat) - height - m.scrollOffset
	end := len(m.chat) - m.scrollOffset
	if start < 0 {
		start = 0
	}
	if end > len(m.chat) {
		end = len(m.chat)
	}
	for _, line := range m.chat[start:end] {
		if line.fromUser {
			lines = append(lines, userMessageStyle.Render("you ")+line.text)
		} else {
			lines = append(lines, botMessageStyle.Render(line.text))
		}
	}
	if m.chatLoading {
		lines = append(lines, dimStyle.Render("thinking…"))
	}
	if m.quickAffirm != "" {
		lines = append(lines, selectedStyle.Render("[y] "+m.quickAffirm+"  [n] "+m.quickDecline))
	}

	style := paneStyle
	if m.focus == paneChat {
		style = focusedPaneStyle
	}
	width := m.width * 3 / 5
	content := paneTitleStyle.Render("Chat") + "\n" + strings.Join(lines, "\n")
	return style.Width(width).Height(height + 2).Render(content)
}

func (m Model) renderTasks() string {
	var b strings.Builder
	b.WriteString(paneTitleStyle.Render("Tasks"))
	b.WriteString("\n")
	if len(m.tasks) == 0 {
		b.WriteString(dimStyle.Render("Nothing yet. Add a task below."))
	}
	for i, task := range m.tasks {
		line := statusLabels[task.Status] + " " + task.Text
		if task.Deadline != "" {
			line += dimStyle.Render("  " + task.Deadline)
		}
		if task.Local {
			line += dimStyle.Render("  (local)")
		}
		if m.focus == paneTasks && i == m.taskCursor {
			line = selectedStyle.Render("> ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	style := paneStyle
	if m.focus == paneTasks {
		style = focusedPaneStyle
	}
	return style.Width(m.width*2/5 - 2).Render(b.String())
}

func (m Model) renderSuggestions() string {
	var b strings.Builder
	b.WriteString(paneTitleStyle.Render("Suggestions"))
	b.WriteString(dimStyle.Render("  (last " + m.timePeriod + " days · r: refresh, p: period)"))
	b.WriteString("\n")
	switch {
	case m.suggLoading:
		b.WriteString(dimStyle.Render("Loading suggestions…"))
	case m.suggestionMsg != "":
		b.WriteString(dimStyle.Render(m.suggestionMsg))
	}
	for i, s := range m.suggestions {
		line := s.Text
		if s.Urgent {
			line = urgentStyle.Render("! ") + line
		}
		if s.Deadline != "" {
			line += dimStyle.Render("  " + s.Deadline)
		}
		if m.focus == paneSuggestions && i == m.suggCursor {
			line = selectedStyle.Render("> ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	style := paneStyle
	if m.focus == paneSuggestions {
		style = focusedPaneStyle
	}
	return style.Width(m.width*2/5 - 2).Render(b.String())
}

func (m Model) renderInput() string {
	switch m.focus {
	case paneTasks:
		return paneStyle.Width(m.width - 2).Render("new task: " + m.taskInput + "▌")
	case paneSuggestions:
		return dimStyle.Render("a: add to calendar · x: dismiss")
	default:
		return paneStyle.Width(m.width - 2).Render("message: " + m.chatInput + "▌")
	}
}

func (m Model) renderPalette() string {
	commands := []string{
		"@add <task> <time>  create a calendar event",
		"@remove <task>      delete a matching event",
		"@list               show upcoming events",
		"@help               show all commands",
	}
	return paneStyle.Width(m.width - 2).Render(
		paneTitleStyle.Render("Commands") + "\n" + strings.Join(commands, "\n"))
}
