package update

import (
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/charmbracelet/bubbles/help"

	"github.com/sandeepkv93/calendard/internal/model"
	"github.com/sandeepkv93/calendard/internal/notify"
)

// MaxActive bounds the on-screen notification list; the oldest entry falls
// off first.
const MaxActive = 20

type StatusBar struct {
	Text    string
	IsError bool
}

// AgendaFunc loads the events shown beside the notification list.
type AgendaFunc func() ([]model.Event, error)

type DesktopNotifier interface {
	Send(notify.Notification) error
}

type NoopDesktopNotifier struct{}

func (NoopDesktopNotifier) Send(notify.Notification) error { return nil }

type ExecDesktopNotifier struct{}

func (ExecDesktopNotifier) Send(n notify.Notification) error {
	switch runtime.GOOS {
	case "linux":
		return exec.Command("notify-send", "calendard", n.Message).Run()
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "calendard"`, escapeAppleScript(n.Message))
		return exec.Command("osascript", "-e", script).Run()
	default:
		return nil
	}
}

type Options struct {
	Notifications  <-chan notify.Notification
	Agenda         AgendaFunc
	AgendaTitle    string
	Desktop        DesktopNotifier
	DesktopEnabled bool
	// Rearm forgets which reminders were already shown.
	Rearm func()
}

type Model struct {
	Active         []notify.Notification
	Cursor         int
	Agenda         []model.Event
	AgendaTitle    string
	HelpVisible    bool
	DesktopEnabled bool
	Status         StatusBar
	Quitting       bool
	LastError      error

	notifications <-chan notify.Notification
	loadAgenda    AgendaFunc
	desktop       DesktopNotifier
	rearm         func()
	keys          keyMap
	helpModel     help.Model
}

type NotificationMsg struct {
	Notification notify.Notification
}

type feedClosedMsg struct{}

type AgendaLoadedMsg struct {
	Events []model.Event
	Err    error
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

func NewModel(opts Options) Model {
	m := Model{
		AgendaTitle:    opts.AgendaTitle,
		DesktopEnabled: opts.DesktopEnabled,
		notifications:  opts.Notifications,
		loadAgenda:     opts.Agenda,
		desktop:        opts.Desktop,
		rearm:          opts.Rearm,
		keys:           defaultKeyMap(),
		helpModel:      help.New(),
	}
	if m.desktop == nil {
		m.desktop = NoopDesktopNotifier{}
	}
	if m.AgendaTitle == "" {
		m.AgendaTitle = "Agenda"
	}
	return m
}

// push appends n and trims the list to MaxActive, keeping the cursor on the
// same entry where it survives.
func (m *Model) push(n notify.Notification) {
	m.Active = append(m.Active, n)
	if over := len(m.Active) - MaxActive; over > 0 {
		m.Active = m.Active[over:]
		m.Cursor -= over
	}
	m.clampCursor()
}

func (m *Model) dismiss() {
	if len(m.Active) == 0 {
		return
	}
	id := m.Active[m.Cursor].EventID
	m.Active = append(m.Active[:m.Cursor], m.Active[m.Cursor+1:]...)
	m.clampCursor()
	m.Status = StatusBar{Text: fmt.Sprintf("dismissed %s", id)}
}

func (m *Model) clampCursor() {
	if m.Cursor >= len(m.Active) {
		m.Cursor = len(m.Active) - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
}

func stamp(t time.Time) string {
	return t.Format("15:04:05")
}
