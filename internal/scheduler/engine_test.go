package scheduler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sandeepkv93/calendard/internal/dates"
	"github.com/sandeepkv93/calendard/internal/model"
	"github.com/sandeepkv93/calendard/internal/notify"
)

func reminderEvent(id string, start time.Time, lead int) model.Event {
	return model.Event{
		ID:               id,
		Title:            "Event " + id,
		Date:             dates.FromTime(start),
		StartTime:        dates.NewClock(start.Hour(), start.Minute()),
		EndTime:          dates.NewClock(start.Hour()+1, start.Minute()),
		NotificationTime: lead,
		Repeat:           model.NoRepeat(),
	}
}

func staticSource(events ...model.Event) Source {
	return SourceFunc(func(context.Context) ([]model.Event, error) {
		return events, nil
	})
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func TestNewEngineRejectsSubSecondInterval(t *testing.T) {
	if _, err := NewEngine(staticSource(), Options{Interval: 10 * time.Millisecond}); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
}

func TestTickEmitsEachEventOnce(t *testing.T) {
	now := time.Date(2024, 11, 1, 9, 0, 0, 0, time.UTC)
	src := staticSource(
		reminderEvent("later", now.Add(8*time.Minute), 10),
		reminderEvent("sooner", now.Add(2*time.Minute), 10),
		reminderEvent("far", now.Add(3*time.Hour), 10),
	)
	engine, err := NewEngine(src, Options{Interval: time.Second, Buffer: 8, Clock: fixedClock(now), Location: time.UTC})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	got, err := engine.Tick(context.Background())
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if len(got) != 2 || got[0].EventID != "sooner" || got[1].EventID != "later" {
		t.Fatalf("unexpected notifications: %+v", got)
	}
	first := waitNotification(t, engine.C(), time.Second)
	second := waitNotification(t, engine.C(), time.Second)
	if first.EventID != "sooner" || second.EventID != "later" {
		t.Fatalf("unexpected order: first=%s second=%s", first.EventID, second.EventID)
	}

	again, err := engine.Tick(context.Background())
	if err != nil || len(again) != 0 {
		t.Fatalf("second tick must not re-emit: %+v %v", again, err)
	}
}

func TestTickDropsWhenConsumerIsSlow(t *testing.T) {
	now := time.Date(2024, 11, 1, 9, 0, 0, 0, time.UTC)
	events := make([]model.Event, 0, 5)
	for i := 0; i < 5; i++ {
		events = append(events, reminderEvent(fmt.Sprintf("e%d", i), now.Add(5*time.Minute), 10))
	}
	engine, err := NewEngine(staticSource(events...), Options{Interval: time.Second, Buffer: 1, Clock: fixedClock(now), Location: time.UTC})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	got, err := engine.Tick(context.Background())
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if len(got) != 1 || engine.Dropped() != 4 {
		t.Fatalf("expected 1 delivered and 4 dropped, got %d and %d", len(got), engine.Dropped())
	}

	first := waitNotification(t, engine.C(), time.Second)
	retry, err := engine.Tick(context.Background())
	if err != nil {
		t.Fatalf("retry tick: %v", err)
	}
	if len(retry) != 1 || retry[0].EventID == first.EventID {
		t.Fatalf("a dropped reminder should be delivered on the next tick, got %+v", retry)
	}
	second := waitNotification(t, engine.C(), time.Second)
	if second.EventID != retry[0].EventID {
		t.Fatalf("expected %s on the channel, got %s", retry[0].EventID, second.EventID)
	}
}

func TestResetRearmsDeliveredReminders(t *testing.T) {
	now := time.Date(2024, 11, 1, 9, 0, 0, 0, time.UTC)
	src := staticSource(reminderEvent("standup", now.Add(5*time.Minute), 10))
	engine, err := NewEngine(src, Options{Interval: time.Second, Buffer: 4, Clock: fixedClock(now), Location: time.UTC})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if got, _ := engine.Tick(context.Background()); len(got) != 1 {
		t.Fatalf("expected first delivery, got %+v", got)
	}
	if got, _ := engine.Tick(context.Background()); len(got) != 0 {
		t.Fatalf("expected no repeat before reset, got %+v", got)
	}
	engine.Reset()
	if got, _ := engine.Tick(context.Background()); len(got) != 1 || got[0].EventID != "standup" {
		t.Fatalf("expected reminder again after reset, got %+v", got)
	}
}

func TestTickPropagatesSourceError(t *testing.T) {
	boom := errors.New("boom")
	src := SourceFunc(func(context.Context) ([]model.Event, error) { return nil, boom })
	engine, err := NewEngine(src, Options{Interval: time.Second})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if _, err := engine.Tick(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected source error, got %v", err)
	}
}

func TestStartPollsAndStopClosesChannel(t *testing.T) {
	now := time.Now()
	src := staticSource(reminderEvent("soon", now.Add(5*time.Minute), 10))
	engine, err := NewEngine(src, Options{Interval: time.Second, Buffer: 4, Location: time.Local})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if err := engine.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	n := waitNotification(t, engine.C(), 3*time.Second)
	if n.EventID != "soon" {
		t.Fatalf("unexpected notification: %+v", n)
	}

	engine.Stop()
	if _, ok := <-engine.C(); ok {
		t.Fatal("expected channel to be closed after Stop")
	}
	if err := engine.Start(); !errors.Is(err, ErrEngineStopped) {
		t.Fatalf("expected ErrEngineStopped on restart, got %v", err)
	}
}

func waitNotification(t *testing.T, ch <-chan notify.Notification, timeout time.Duration) notify.Notification {
	t.Helper()
	select {
	case n := <-ch:
		return n
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for notification")
		return notify.Notification{}
	}
}
