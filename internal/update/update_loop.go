package update

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/calendard/internal/notify"
	"github.com/sandeepkv93/calendard/internal/views"
)

func waitForNotificationCmd(ch <-chan notify.Notification) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return feedClosedMsg{}
		}
		return NotificationMsg{Notification: n}
	}
}

func loadAgendaCmd(fn AgendaFunc) tea.Cmd {
	if fn == nil {
		return nil
	}
	return func() tea.Msg {
		events, err := fn()
		return AgendaLoadedMsg{Events: events, Err: err}
	}
}

func desktopCmd(d DesktopNotifier, n notify.Notification) tea.Cmd {
	return func() tea.Msg {
		if err := d.Send(n); err != nil {
			return AppErrorMsg{Err: fmt.Errorf("desktop notification: %w", err)}
		}
		return nil
	}
}

// batch drops nil commands and skips tea.Batch for zero or one command.
func batch(cmds ...tea.Cmd) tea.Cmd {
	valid := make([]tea.Cmd, 0, len(cmds))
	for _, c := range cmds {
		if c != nil {
			valid = append(valid, c)
		}
	}
	switch len(valid) {
	case 0:
		return nil
	case 1:
		return valid[0]
	default:
		return tea.Batch(valid...)
	}
}

func (m Model) Init() tea.Cmd {
	return batch(waitForNotificationCmd(m.notifications), loadAgendaCmd(m.loadAgenda))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(typed)
	case NotificationMsg:
		m.push(typed.Notification)
		m.Status = StatusBar{Text: "reminder: " + typed.Notification.Message}
		var desktop tea.Cmd
		if m.DesktopEnabled {
			desktop = desktopCmd(m.desktop, typed.Notification)
		}
		return m, batch(waitForNotificationCmd(m.notifications), desktop)
	case feedClosedMsg:
		m.notifications = nil
		m.Status = StatusBar{Text: "notification feed closed"}
		return m, nil
	case AgendaLoadedMsg:
		if typed.Err != nil {
			m.LastError = typed.Err
			m.Status = StatusBar{Text: fmt.Sprintf("agenda refresh failed: %v", typed.Err), IsError: true}
			return m, nil
		}
		m.Agenda = typed.Events
		m.Status = StatusBar{Text: fmt.Sprintf("agenda refreshed: %d event(s)", len(typed.Events))}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.HelpVisible = !m.HelpVisible
	case key.Matches(msg, m.keys.Up):
		if m.Cursor > 0 {
			m.Cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.Cursor < len(m.Active)-1 {
			m.Cursor++
		}
	case key.Matches(msg, m.keys.Dismiss):
		m.dismiss()
	case key.Matches(msg, m.keys.DismissAll):
		if n := len(m.Active); n > 0 {
			m.Active = nil
			m.Cursor = 0
			m.Status = StatusBar{Text: fmt.Sprintf("dismissed %d notification(s)", n)}
		}
	case key.Matches(msg, m.keys.Refresh):
		if m.loadAgenda == nil {
			return m, nil
		}
		m.Status = StatusBar{Text: "refreshing agenda"}
		return m, loadAgendaCmd(m.loadAgenda)
	case key.Matches(msg, m.keys.Rearm):
		if m.rearm == nil {
			return m, nil
		}
		m.rearm()
		m.Status = StatusBar{Text: "reminders re-armed"}
	}
	return m, nil
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}
	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}
	side := strings.TrimSpace(strings.Join([]string{
		m.AgendaTitle + ":\n" + views.RenderAgendaLines(m.Agenda),
		m.renderHelpIfVisible(),
	}, "\n\n"))

	last := "-"
	if n := len(m.Active); n > 0 {
		last = stamp(m.Active[n-1].At)
	}
	return views.RenderApp(views.AppData{
		Header:     fmt.Sprintf("calendard watch | active: %d | last: %s", len(m.Active), last),
		Body:       views.RenderNotifications(m.Active, m.Cursor),
		Side:       side,
		StatusLine: status,
		Footer:     m.helpModel.View(m.keys),
	})
}
