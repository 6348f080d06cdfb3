package update

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/calendard/internal/model"
	"github.com/sandeepkv93/calendard/internal/notify"
)

func note(id string) notify.Notification {
	return notify.Notification{
		ID:      "notify-" + id,
		EventID: id,
		Message: id + " starts in 10 minutes",
		At:      time.Date(2024, 11, 4, 9, 0, 0, 0, time.UTC),
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func step(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	next, ok := updated.(Model)
	if !ok {
		t.Fatalf("unexpected model type %T", updated)
	}
	return next, cmd
}

type recordingDesktop struct {
	sent []notify.Notification
	err  error
}

func (r *recordingDesktop) Send(n notify.Notification) error {
	r.sent = append(r.sent, n)
	return r.err
}

func TestNewModelDefaults(t *testing.T) {
	m := NewModel(Options{})
	if m.AgendaTitle != "Agenda" || m.HelpVisible || len(m.Active) != 0 {
		t.Fatalf("unexpected defaults: %+v", m)
	}
	if m.Init() != nil {
		t.Fatal("expected no init command without feed or agenda")
	}
}

func TestNotificationMsgAppendsAndWaitsAgain(t *testing.T) {
	ch := make(chan notify.Notification, 1)
	m := NewModel(Options{Notifications: ch})

	m, cmd := step(t, m, NotificationMsg{Notification: note("ev-1")})
	if len(m.Active) != 1 || m.Active[0].EventID != "ev-1" {
		t.Fatalf("expected notification to be listed, got %+v", m.Active)
	}
	if !strings.Contains(m.Status.Text, "ev-1 starts in 10 minutes") {
		t.Fatalf("unexpected status %q", m.Status.Text)
	}
	if cmd == nil {
		t.Fatal("expected a command waiting for the next notification")
	}

	ch <- note("ev-2")
	msg := cmd()
	got, ok := msg.(NotificationMsg)
	if !ok || got.Notification.EventID != "ev-2" {
		t.Fatalf("expected next notification, got %#v", msg)
	}
}

func TestFeedClosedStopsWaiting(t *testing.T) {
	ch := make(chan notify.Notification)
	close(ch)
	m := NewModel(Options{Notifications: ch})
	msg := waitForNotificationCmd(ch)()
	m, cmd := step(t, m, msg)
	if cmd != nil || m.notifications != nil {
		t.Fatalf("expected waiting to stop, cmd=%v", cmd)
	}
	if m.Status.Text != "notification feed closed" {
		t.Fatalf("unexpected status %q", m.Status.Text)
	}
}

func TestActiveListIsCapped(t *testing.T) {
	m := NewModel(Options{})
	for i := 0; i < MaxActive+5; i++ {
		m, _ = step(t, m, NotificationMsg{Notification: note(fmt.Sprintf("ev-%02d", i))})
	}
	if len(m.Active) != MaxActive {
		t.Fatalf("expected %d active, got %d", MaxActive, len(m.Active))
	}
	if m.Active[0].EventID != "ev-05" {
		t.Fatalf("expected oldest entries to fall off, first=%s", m.Active[0].EventID)
	}
}

func TestCursorAndDismiss(t *testing.T) {
	m := NewModel(Options{})
	for _, id := range []string{"a", "b", "c"} {
		m, _ = step(t, m, NotificationMsg{Notification: note(id)})
	}
	m, _ = step(t, m, runes("j"))
	m, _ = step(t, m, runes("j"))
	m, _ = step(t, m, runes("j"))
	if m.Cursor != 2 {
		t.Fatalf("cursor should stop at last entry, got %d", m.Cursor)
	}
	m, _ = step(t, m, runes("k"))
	if m.Cursor != 1 {
		t.Fatalf("expected cursor 1, got %d", m.Cursor)
	}

	m, _ = step(t, m, runes("d"))
	if len(m.Active) != 2 || m.Active[0].EventID != "a" || m.Active[1].EventID != "c" {
		t.Fatalf("unexpected list after dismiss: %+v", m.Active)
	}
	if m.Status.Text != "dismissed b" {
		t.Fatalf("unexpected status %q", m.Status.Text)
	}

	m, _ = step(t, m, runes("j"))
	m, _ = step(t, m, runes("d"))
	if len(m.Active) != 1 || m.Cursor != 0 {
		t.Fatalf("cursor should clamp after removing the tail: cursor=%d active=%+v", m.Cursor, m.Active)
	}

	m, _ = step(t, m, runes("D"))
	if len(m.Active) != 0 {
		t.Fatalf("expected all dismissed, got %+v", m.Active)
	}
	m, _ = step(t, m, runes("d"))
	if len(m.Active) != 0 || m.Cursor != 0 {
		t.Fatal("dismiss on empty list should be a no-op")
	}
}

func TestRefreshLoadsAgenda(t *testing.T) {
	calls := 0
	events := []model.Event{{ID: "ev-1", Title: "Standup"}}
	m := NewModel(Options{Agenda: func() ([]model.Event, error) {
		calls++
		return events, nil
	}})

	m, cmd := step(t, m, runes("r"))
	if cmd == nil {
		t.Fatal("expected refresh command")
	}
	m, _ = step(t, m, cmd())
	if calls != 1 || len(m.Agenda) != 1 || m.Agenda[0].ID != "ev-1" {
		t.Fatalf("agenda not loaded: calls=%d agenda=%+v", calls, m.Agenda)
	}
	if !strings.Contains(m.View(), "Standup") {
		t.Fatal("expected agenda in view")
	}

	m, _ = step(t, m, AgendaLoadedMsg{Err: errors.New("db locked")})
	if !m.Status.IsError || !strings.Contains(m.Status.Text, "db locked") {
		t.Fatalf("expected error status, got %+v", m.Status)
	}
	if len(m.Agenda) != 1 {
		t.Fatal("failed refresh should keep the previous agenda")
	}
}

func TestRearmKeyResetsReminders(t *testing.T) {
	m := NewModel(Options{})
	m, cmd := step(t, m, runes("R"))
	if cmd != nil || m.Status.Text != "" {
		t.Fatalf("re-arm without a hook should be a no-op, got %+v", m.Status)
	}

	calls := 0
	m = NewModel(Options{Rearm: func() { calls++ }})
	m, _ = step(t, m, runes("R"))
	if calls != 1 || m.Status.Text != "reminders re-armed" || m.Status.IsError {
		t.Fatalf("expected one re-arm, got calls=%d status=%+v", calls, m.Status)
	}
	m, _ = step(t, m, runes("?"))
	if !strings.Contains(m.View(), "re-arm reminders") {
		t.Fatal("expected re-arm binding in help")
	}
}

func TestDesktopNotifierOnlyWhenEnabled(t *testing.T) {
	desk := &recordingDesktop{}
	m := NewModel(Options{Desktop: desk})
	_, cmd := step(t, m, NotificationMsg{Notification: note("ev-1")})
	if cmd != nil {
		cmd()
	}
	if len(desk.sent) != 0 {
		t.Fatal("desktop notifier should stay quiet when disabled")
	}

	desk.err = errors.New("notify-send missing")
	m = NewModel(Options{Desktop: desk, DesktopEnabled: true})
	m, _ = step(t, m, NotificationMsg{Notification: note("ev-2")})
	msg := desktopCmd(desk, note("ev-2"))()
	if len(desk.sent) != 1 {
		t.Fatalf("expected one desktop send, got %d", len(desk.sent))
	}
	m, _ = step(t, m, msg)
	if !m.Status.IsError || !strings.Contains(m.Status.Text, "notify-send missing") {
		t.Fatalf("expected desktop error status, got %+v", m.Status)
	}
}

func TestHelpToggleAndQuit(t *testing.T) {
	m := NewModel(Options{})
	m, _ = step(t, m, runes("?"))
	if !m.HelpVisible || !strings.Contains(m.View(), "dismiss all") {
		t.Fatal("expected help panel to be visible")
	}
	m, _ = step(t, m, runes("?"))
	if m.HelpVisible {
		t.Fatal("expected help panel hidden")
	}

	m, cmd := step(t, m, runes("q"))
	if !m.Quitting || cmd == nil {
		t.Fatal("expected quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}

func TestViewShowsNotificationsAndStatus(t *testing.T) {
	m := NewModel(Options{AgendaTitle: "Today"})
	m, _ = step(t, m, NotificationMsg{Notification: note("ev-9")})
	out := m.View()
	for _, want := range []string{"calendard watch", "active: 1", "last: 09:00:00", "ev-9 starts in 10 minutes", "Today:", "status: reminder:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
}
