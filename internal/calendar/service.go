package calendar

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sandeepkv93/calendard/internal/config"
	"github.com/sandeepkv93/calendard/internal/dates"
	"github.com/sandeepkv93/calendard/internal/model"
	"github.com/sandeepkv93/calendard/internal/overlap"
	"github.com/sandeepkv93/calendard/internal/recurrence"
	"github.com/sandeepkv93/calendard/internal/search"
	"github.com/sandeepkv93/calendard/internal/storage"
)

var (
	ErrEventNotFound = errors.New("calendar: event not found")
	ErrOverlap       = errors.New("calendar: event overlaps existing events")
	ErrNotRecurring  = errors.New("calendar: event is not part of a recurrence group")
)

type Options struct {
	Limits        recurrence.Limits
	OverlapPolicy config.OverlapPolicy
	IDs           recurrence.IDSource
}

// Service runs every user mutation as validate, expand, check, persist and
// re-fetch. It holds no event state between calls.
type Service struct {
	repo   storage.Repository
	logger *zap.SugaredLogger
	limits recurrence.Limits
	policy config.OverlapPolicy
	newID  recurrence.IDSource
}

func NewService(repo storage.Repository, logger *zap.SugaredLogger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if !opts.OverlapPolicy.IsValid() {
		opts.OverlapPolicy = config.OverlapWarn
	}
	if opts.IDs == nil {
		opts.IDs = recurrence.NewUUID
	}
	if opts.Limits == (recurrence.Limits{}) {
		opts.Limits = recurrence.DefaultLimits()
	}
	return &Service{
		repo:   repo,
		logger: logger.Named("calendar"),
		limits: opts.Limits,
		policy: opts.OverlapPolicy,
		newID:  opts.IDs,
	}
}

// WriteOptions apply to Create and UpdateGroup. Force saves despite
// conflicts under the block policy.
type WriteOptions struct {
	Force bool
}

// EditOptions apply to a single-occurrence Update. DetachFromGroup turns
// the occurrence into a standalone event; without it the occurrence stays
// in its group and keeps the group's rule.
type EditOptions struct {
	DetachFromGroup bool
	Force           bool
}

// Result reports a write. Saved holds the events written, Conflicts the
// existing events they overlap and Events the re-fetched collection.
type Result struct {
	Saved     []model.Event
	Conflicts []model.Event
	Truncated bool
	Events    []model.Event
}

func (s *Service) Create(ctx context.Context, form model.EventForm, opts WriteOptions) (Result, error) {
	base, err := form.Parse()
	if err != nil {
		return Result{}, err
	}

	expanded := recurrence.Expand(base.Date, base.Repeat, s.limits)
	events := recurrence.Materialize(base, expanded.Dates, s.newID)
	for i := range events {
		if events[i].ID == "" {
			events[i].ID = s.newID()
		}
	}
	if expanded.Truncated {
		s.logger.Warnw("recurrence expansion truncated",
			"title", base.Title, "date", base.Date.String(), "occurrences", len(events))
	}

	existing, err := s.ListAll(ctx)
	if err != nil {
		return Result{}, err
	}
	conflicts := overlap.FindBatch(events, existing)
	if err := s.checkPolicy(conflicts, opts.Force); err != nil {
		return Result{Conflicts: conflicts, Truncated: expanded.Truncated}, err
	}

	if err := s.repo.CreateEvents(ctx, toRows(events)); err != nil {
		return Result{}, fmt.Errorf("calendar: create events: %w", err)
	}
	s.logger.Infow("events created",
		"count", len(events), "group_id", events[0].RecurrenceGroupID, "conflicts", len(conflicts))

	return s.finish(ctx, Result{Saved: events, Conflicts: conflicts, Truncated: expanded.Truncated})
}

// Update edits one event. A standalone event that gains a repeat rule is
// expanded into a new group whose first occurrence keeps the original id.
func (s *Service) Update(ctx context.Context, id string, form model.EventForm, opts EditOptions) (Result, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if opts.DetachFromGroup {
		// A detached occurrence stands alone, so the series' repeat fields
		// are not validated against its new date.
		form.RepeatType = string(model.RepeatNone)
		form.RepeatInterval = 0
		form.RepeatEndDate = ""
		form.RepeatDepth = ""
	}
	edited, err := form.Parse()
	if err != nil {
		return Result{}, err
	}
	edited.ID = id

	switch {
	case opts.DetachFromGroup:
		edited = edited.Detach()
	case current.RecurrenceGroupID != "":
		edited.Repeat = current.Repeat
		edited.RecurrenceGroupID = current.RecurrenceGroupID
		if err := edited.Validate(); err != nil {
			return Result{}, fmt.Errorf("%w: %w", model.ErrValidation, err)
		}
	case edited.Repeat.IsRecurring():
		return s.convertToSeries(ctx, current, edited, opts.Force)
	}

	existing, err := s.ListAll(ctx)
	if err != nil {
		return Result{}, err
	}
	conflicts := overlap.Find(edited, existing)
	if err := s.checkPolicy(conflicts, opts.Force); err != nil {
		return Result{Conflicts: conflicts}, err
	}
	if err := s.repo.UpdateEvent(ctx, toRow(edited)); err != nil {
		return Result{}, s.mapNotFound(err, id)
	}
	s.logger.Infow("event updated",
		"event_id", id, "detached", opts.DetachFromGroup && current.RecurrenceGroupID != "")

	return s.finish(ctx, Result{Saved: []model.Event{edited}, Conflicts: conflicts})
}

func (s *Service) convertToSeries(ctx context.Context, current, edited model.Event, force bool) (Result, error) {
	expanded := recurrence.Expand(edited.Date, edited.Repeat, s.limits)
	events := recurrence.Materialize(edited, expanded.Dates, s.newID)
	events[0].ID = current.ID

	existing, err := s.ListAll(ctx)
	if err != nil {
		return Result{}, err
	}
	conflicts := overlap.FindBatch(events, without(existing, current.ID))
	if err := s.checkPolicy(conflicts, force); err != nil {
		return Result{Conflicts: conflicts, Truncated: expanded.Truncated}, err
	}

	if err := s.repo.UpdateEvent(ctx, toRow(events[0])); err != nil {
		return Result{}, s.mapNotFound(err, current.ID)
	}
	if err := s.repo.CreateEvents(ctx, toRows(events[1:])); err != nil {
		if restoreErr := s.repo.UpdateEvent(ctx, toRow(current)); restoreErr != nil {
			s.logger.Errorw("restore after failed series conversion", "event_id", current.ID, "error", restoreErr)
		}
		return Result{}, fmt.Errorf("calendar: create occurrences: %w", err)
	}
	s.logger.Infow("event converted to series",
		"event_id", current.ID, "group_id", events[0].RecurrenceGroupID, "count", len(events))

	return s.finish(ctx, Result{Saved: events, Conflicts: conflicts, Truncated: expanded.Truncated})
}

// UpdateGroup applies the form's non-date fields to every occurrence in the
// group of the event with the given id. Dates and the rule stay as they are.
func (s *Service) UpdateGroup(ctx context.Context, id string, form model.EventForm, opts WriteOptions) (Result, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if current.RecurrenceGroupID == "" {
		return Result{}, fmt.Errorf("%w: %s", ErrNotRecurring, id)
	}
	edited, err := form.Parse()
	if err != nil {
		return Result{}, err
	}

	members, err := s.groupMembers(ctx, current.RecurrenceGroupID)
	if err != nil {
		return Result{}, err
	}
	updated := make([]model.Event, 0, len(members))
	for _, occ := range members {
		occ.Title = edited.Title
		occ.Description = edited.Description
		occ.Location = edited.Location
		occ.Category = edited.Category
		occ.StartTime = edited.StartTime
		occ.EndTime = edited.EndTime
		occ.NotificationTime = edited.NotificationTime
		updated = append(updated, occ)
	}

	existing, err := s.ListAll(ctx)
	if err != nil {
		return Result{}, err
	}
	conflicts := overlap.FindBatch(updated, withoutGroup(existing, current.RecurrenceGroupID))
	if err := s.checkPolicy(conflicts, opts.Force); err != nil {
		return Result{Conflicts: conflicts}, err
	}
	if err := s.repo.UpdateEvents(ctx, toRows(updated)); err != nil {
		return Result{}, fmt.Errorf("calendar: update group %s: %w", current.RecurrenceGroupID, err)
	}
	s.logger.Infow("group updated", "group_id", current.RecurrenceGroupID, "count", len(updated))

	return s.finish(ctx, Result{Saved: updated, Conflicts: conflicts})
}

func (s *Service) Delete(ctx context.Context, id string) ([]model.Event, error) {
	if err := s.repo.DeleteEvent(ctx, id); err != nil {
		return nil, s.mapNotFound(err, id)
	}
	s.logger.Infow("event deleted", "event_id", id)
	return s.ListAll(ctx)
}

// DeleteGroup removes every occurrence sharing the group of the event with
// the given id and returns how many were removed.
func (s *Service) DeleteGroup(ctx context.Context, id string) (int64, []model.Event, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return 0, nil, err
	}
	if current.RecurrenceGroupID == "" {
		return 0, nil, fmt.Errorf("%w: %s", ErrNotRecurring, id)
	}
	n, err := s.repo.DeleteGroup(ctx, current.RecurrenceGroupID)
	if err != nil {
		return 0, nil, s.mapNotFound(err, id)
	}
	s.logger.Infow("group deleted", "group_id", current.RecurrenceGroupID, "count", n)
	events, err := s.ListAll(ctx)
	return n, events, err
}

func (s *Service) Get(ctx context.Context, id string) (model.Event, error) {
	row, err := s.repo.GetEvent(ctx, id)
	if err != nil {
		return model.Event{}, s.mapNotFound(err, id)
	}
	return fromRow(row)
}

// ListAll returns the whole collection ordered by date and start time. It
// also serves as the notification scheduler's source.
func (s *Service) ListAll(ctx context.Context) ([]model.Event, error) {
	return s.List(ctx, dates.Date{}, dates.Date{})
}

// List returns events between from and to inclusive; a zero bound is open.
func (s *Service) List(ctx context.Context, from, to dates.Date) ([]model.Event, error) {
	filter := storage.EventListFilter{}
	if !from.IsZero() {
		filter.From = from.String()
	}
	if !to.IsZero() {
		filter.To = to.String()
	}
	rows, err := s.repo.ListEvents(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("calendar: list events: %w", err)
	}
	return fromRows(rows)
}

// Search applies the text filter and the view window around current.
func (s *Service) Search(ctx context.Context, term string, current dates.Date, view search.View) ([]model.Event, error) {
	from, to := view.Range(current)
	events, err := s.List(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return search.Filter(events, term, current, view), nil
}

// Overlaps lists stored events that conflict with the event with the given id.
func (s *Service) Overlaps(ctx context.Context, id string) ([]model.Event, error) {
	target, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sameDay, err := s.List(ctx, target.Date, target.Date)
	if err != nil {
		return nil, err
	}
	return overlap.Find(target, sameDay), nil
}

func (s *Service) groupMembers(ctx context.Context, groupID string) ([]model.Event, error) {
	rows, err := s.repo.ListEvents(ctx, storage.EventListFilter{GroupID: groupID})
	if err != nil {
		return nil, fmt.Errorf("calendar: list group %s: %w", groupID, err)
	}
	return fromRows(rows)
}

func (s *Service) checkPolicy(conflicts []model.Event, force bool) error {
	if len(conflicts) == 0 {
		return nil
	}
	if s.policy == config.OverlapBlock && !force {
		s.logger.Infow("write blocked by overlap", "conflicts", len(conflicts))
		return fmt.Errorf("%w: %d conflicting event(s)", ErrOverlap, len(conflicts))
	}
	s.logger.Debugw("saving despite overlap", "conflicts", len(conflicts), "forced", force)
	return nil
}

func (s *Service) finish(ctx context.Context, res Result) (Result, error) {
	events, err := s.ListAll(ctx)
	if err != nil {
		return res, err
	}
	res.Events = events
	return res, nil
}

func (s *Service) mapNotFound(err error, id string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	return fmt.Errorf("calendar: event %s: %w", id, err)
}

func without(events []model.Event, id string) []model.Event {
	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if ev.ID != id {
			out = append(out, ev)
		}
	}
	return out
}

func withoutGroup(events []model.Event, groupID string) []model.Event {
	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if ev.RecurrenceGroupID != groupID {
			out = append(out, ev)
		}
	}
	return out
}
