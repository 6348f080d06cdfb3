// Package app wires configuration, storage and the calendar service behind
// the command handlers.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/sandeepkv93/calendard/internal/calendar"
	"github.com/sandeepkv93/calendard/internal/commands"
	"github.com/sandeepkv93/calendard/internal/config"
	"github.com/sandeepkv93/calendard/internal/dates"
	"github.com/sandeepkv93/calendard/internal/export"
	"github.com/sandeepkv93/calendard/internal/model"
	"github.com/sandeepkv93/calendard/internal/recurrence"
	"github.com/sandeepkv93/calendard/internal/scheduler"
	"github.com/sandeepkv93/calendard/internal/search"
	"github.com/sandeepkv93/calendard/internal/storage"
	"github.com/sandeepkv93/calendard/internal/update"
	"github.com/sandeepkv93/calendard/internal/views"
)

// Options replaces process-level collaborators in tests.
type Options struct {
	Out     io.Writer
	Now     func() time.Time
	IDs     recurrence.IDSource
	RunTUI  func(tea.Model) error
	Desktop update.DesktopNotifier
}

type App struct {
	conf    config.Config
	logger  *zap.SugaredLogger
	repo    *storage.SQLiteRepository
	svc     *calendar.Service
	loc     *time.Location
	out     io.Writer
	now     func() time.Time
	runTUI  func(tea.Model) error
	desktop update.DesktopNotifier
}

func New(conf config.Config, logger *zap.SugaredLogger, opts Options) (*App, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	loc, err := conf.Location()
	if err != nil {
		return nil, err
	}
	limits, err := conf.Recurrence.Limits()
	if err != nil {
		return nil, err
	}

	repo, err := storage.OpenSQLite(conf.DBPath)
	if err != nil {
		return nil, err
	}
	if err := storage.MigrateUp(repo.DB()); err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("migrate %s: %w", conf.DBPath, err)
	}

	a := &App{
		conf:    conf,
		logger:  logger,
		repo:    repo,
		loc:     loc,
		out:     opts.Out,
		now:     opts.Now,
		runTUI:  opts.RunTUI,
		desktop: opts.Desktop,
	}
	if a.out == nil {
		a.out = os.Stdout
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.runTUI == nil {
		a.runTUI = func(m tea.Model) error {
			_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		}
	}
	if a.desktop == nil {
		a.desktop = update.ExecDesktopNotifier{}
	}
	a.svc = calendar.NewService(repo, logger, calendar.Options{
		Limits:        limits,
		OverlapPolicy: conf.OverlapPolicy,
		IDs:           opts.IDs,
	})
	logger.Debugw("calendar opened", "db_path", conf.DBPath, "timezone", loc.String(), "overlap_policy", conf.OverlapPolicy)
	return a, nil
}

func (a *App) Close() error {
	return a.repo.Close()
}

func (a *App) Service() *calendar.Service {
	return a.svc
}

// Run parses and executes one command line and prints its result. The
// message is printed even when the command fails, so rejected writes still
// show their conflicts.
func (a *App) Run(ctx context.Context, args []string) error {
	cmd, err := commands.Parse(args)
	if err != nil {
		return err
	}
	a.logger.Debugw("command parsed", "command", cmd.Type, "raw", cmd.Raw)
	res, err := commands.Execute(cmd, a.Handlers(ctx))
	if msg := strings.TrimRight(res.Message, "\n"); msg != "" {
		fmt.Fprintln(a.out, msg)
	}
	if err != nil {
		a.logger.Warnw("command failed", "command", cmd.Type, "error", err)
	}
	return err
}

func (a *App) Handlers(ctx context.Context) commands.Handlers {
	return commands.Handlers{
		Add:    func(args commands.AddArgs) (commands.Result, error) { return a.add(ctx, args) },
		Edit:   func(args commands.EditArgs) (commands.Result, error) { return a.edit(ctx, args) },
		Delete: func(args commands.DeleteArgs) (commands.Result, error) { return a.remove(ctx, args) },
		List:   func(args commands.ListArgs) (commands.Result, error) { return a.list(ctx, args) },
		Show:   func(args commands.ShowArgs) (commands.Result, error) { return a.show(ctx, args) },
		Watch:  func(args commands.WatchArgs) (commands.Result, error) { return a.watch(ctx) },
		Export: func(args commands.ExportArgs) (commands.Result, error) { return a.exportICS(ctx, args) },
		Import: func(args commands.ImportArgs) (commands.Result, error) { return a.importICS(ctx, args) },
	}
}

func (a *App) today() dates.Date {
	return dates.FromTime(a.now().In(a.loc))
}

func (a *App) add(ctx context.Context, args commands.AddArgs) (commands.Result, error) {
	form := args.Fields.Apply(model.EventForm{Date: a.today().String()})
	res, err := a.svc.Create(ctx, form, calendar.WriteOptions{Force: args.Force})
	if err != nil {
		return commands.Result{Message: views.RenderConflicts(res.Conflicts)}, err
	}
	return commands.Result{Message: writeSummary("created", res)}, nil
}

func (a *App) edit(ctx context.Context, args commands.EditArgs) (commands.Result, error) {
	current, err := a.svc.Get(ctx, args.ID)
	if err != nil {
		return commands.Result{}, err
	}
	form := args.Fields.Apply(model.FormFromEvent(current))

	var res calendar.Result
	if args.All {
		res, err = a.svc.UpdateGroup(ctx, args.ID, form, calendar.WriteOptions{Force: args.Force})
	} else {
		res, err = a.svc.Update(ctx, args.ID, form, calendar.EditOptions{DetachFromGroup: args.Detach, Force: args.Force})
	}
	if err != nil {
		return commands.Result{Message: views.RenderConflicts(res.Conflicts)}, err
	}
	return commands.Result{Message: writeSummary("updated", res)}, nil
}

func (a *App) remove(ctx context.Context, args commands.DeleteArgs) (commands.Result, error) {
	if args.All {
		n, _, err := a.svc.DeleteGroup(ctx, args.ID)
		if err != nil {
			return commands.Result{}, err
		}
		return commands.Result{Message: fmt.Sprintf("deleted %d occurrence(s)", n)}, nil
	}
	if _, err := a.svc.Delete(ctx, args.ID); err != nil {
		return commands.Result{}, err
	}
	return commands.Result{Message: "deleted " + args.ID}, nil
}

func (a *App) list(ctx context.Context, args commands.ListArgs) (commands.Result, error) {
	current := args.Date
	if current.IsZero() {
		current = a.today()
	}
	events, err := a.svc.Search(ctx, args.Query, current, args.View)
	if err != nil {
		return commands.Result{}, err
	}
	if args.Agenda {
		return commands.Result{Message: views.RenderMarkdown(views.AgendaMarkdown(listTitle(args.View, current), events))}, nil
	}
	return commands.Result{Message: views.RenderEventTable(events)}, nil
}

func listTitle(view search.View, current dates.Date) string {
	from, to := view.Range(current)
	name := "Week"
	if view == search.ViewMonth {
		name = "Month"
	}
	return fmt.Sprintf("%s %s to %s", name, from, to)
}

func (a *App) show(ctx context.Context, args commands.ShowArgs) (commands.Result, error) {
	ev, err := a.svc.Get(ctx, args.ID)
	if err != nil {
		return commands.Result{}, err
	}
	conflicts, err := a.svc.Overlaps(ctx, args.ID)
	if err != nil {
		return commands.Result{}, err
	}
	msg := views.RenderEvent(ev)
	if c := views.RenderConflicts(conflicts); c != "" {
		msg += "\n" + c
	}
	return commands.Result{Message: msg}, nil
}

func (a *App) watch(ctx context.Context) (commands.Result, error) {
	engine, err := scheduler.NewEngine(a.svc, scheduler.Options{
		Interval: a.conf.PollInterval,
		Buffer:   a.conf.NotificationBuffer,
		Clock:    a.now,
		Location: a.loc,
		Logger:   a.logger,
	})
	if err != nil {
		return commands.Result{}, err
	}
	if err := engine.Start(); err != nil {
		return commands.Result{}, err
	}
	defer engine.Stop()

	m := update.NewModel(update.Options{
		Notifications: engine.C(),
		AgendaTitle:   "Today",
		Agenda: func() ([]model.Event, error) {
			day := a.today()
			return a.svc.List(ctx, day, day)
		},
		Desktop:        a.desktop,
		DesktopEnabled: a.conf.DesktopAlerts,
		Rearm:          engine.Reset,
	})
	if err := a.runTUI(m); err != nil {
		return commands.Result{}, fmt.Errorf("watch: %w", err)
	}
	return commands.Result{Message: fmt.Sprintf("watch stopped (%d dropped)", engine.Dropped())}, nil
}

func (a *App) exportICS(ctx context.Context, args commands.ExportArgs) (commands.Result, error) {
	events, err := a.svc.ListAll(ctx)
	if err != nil {
		return commands.Result{}, err
	}
	body := export.ICS(events, export.Options{Location: a.loc, Now: a.now(), Name: "calendard"})
	if args.File == "" {
		return commands.Result{Message: body}, nil
	}
	if err := os.WriteFile(args.File, []byte(body), 0o644); err != nil {
		return commands.Result{}, fmt.Errorf("export: write %s: %w", args.File, err)
	}
	return commands.Result{Message: fmt.Sprintf("exported %d event(s) to %s", len(events), args.File)}, nil
}

// importICS creates one event per decoded VEVENT. A rejected entry is
// reported and the rest still load.
func (a *App) importICS(ctx context.Context, args commands.ImportArgs) (commands.Result, error) {
	f, err := os.Open(args.File)
	if err != nil {
		return commands.Result{}, fmt.Errorf("import: %w", err)
	}
	defer f.Close()

	forms, skipped, err := export.Decode(f, a.loc)
	if err != nil {
		return commands.Result{}, err
	}
	var (
		created int
		lines   []string
		errs    []error
	)
	for _, form := range forms {
		res, err := a.svc.Create(ctx, form, calendar.WriteOptions{Force: args.Force})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", form.Date, form.Title, err))
			continue
		}
		created += len(res.Saved)
		if len(res.Conflicts) > 0 {
			lines = append(lines, fmt.Sprintf("%s %s overlaps %d event(s)", form.Date, form.Title, len(res.Conflicts)))
		}
	}
	lines = append([]string{fmt.Sprintf("imported %d event(s), skipped %d, failed %d", created, skipped, len(errs))}, lines...)
	return commands.Result{Message: strings.Join(lines, "\n")}, errors.Join(errs...)
}

func writeSummary(verb string, res calendar.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d event(s)", verb, len(res.Saved))
	if len(res.Saved) > 0 && res.Saved[0].RecurrenceGroupID != "" {
		fmt.Fprintf(&b, " in group %s", res.Saved[0].RecurrenceGroupID)
	}
	if res.Truncated {
		b.WriteString(" (series truncated)")
	}
	if len(res.Saved) == 1 {
		fmt.Fprintf(&b, "\n%s", views.RenderEvent(res.Saved[0]))
	}
	if c := views.RenderConflicts(res.Conflicts); c != "" {
		b.WriteString("\n" + c)
	}
	return b.String()
}
