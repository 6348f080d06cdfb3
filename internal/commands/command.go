package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sandeepkv93/calendard/internal/dates"
	"github.com/sandeepkv93/calendard/internal/model"
	"github.com/sandeepkv93/calendard/internal/search"
)

type Type string

const (
	TypeAdd    Type = "add"
	TypeEdit   Type = "edit"
	TypeDelete Type = "delete"
	TypeList   Type = "list"
	TypeShow   Type = "show"
	TypeWatch  Type = "watch"
	TypeExport Type = "export"
	TypeImport Type = "import"
	TypeHelp   Type = "help"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalid(format string, args ...any) error {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// Fields holds the event attributes given as key=value arguments, keyed by
// their form names.
type Fields map[string]string

var formKeys = map[string]bool{
	"title": true, "date": true, "start": true, "end": true,
	"description": true, "location": true, "category": true, "notify": true,
	"repeat": true, "interval": true, "until": true, "depth": true,
}

// Apply overlays the fields on form. A repeat without an interval repeats
// every period.
func (f Fields) Apply(form model.EventForm) model.EventForm {
	for k, v := range f {
		switch k {
		case "title":
			form.Title = v
		case "date":
			form.Date = v
		case "start":
			form.StartTime = v
		case "end":
			form.EndTime = v
		case "description":
			form.Description = v
		case "location":
			form.Location = v
		case "category":
			form.Category = v
		case "notify":
			form.NotificationTime, _ = strconv.Atoi(v)
		case "repeat":
			form.RepeatType = v
		case "interval":
			form.RepeatInterval, _ = strconv.Atoi(v)
		case "until":
			form.RepeatEndDate = v
		case "depth":
			form.RepeatDepth = v
		}
	}
	if _, ok := f["interval"]; !ok && f["repeat"] != "" && form.RepeatInterval <= 0 {
		form.RepeatInterval = 1
	}
	return form
}

type AddArgs struct {
	Fields Fields
	Force  bool
}

type EditArgs struct {
	ID     string
	Fields Fields
	Detach bool
	All    bool
	Force  bool
}

type DeleteArgs struct {
	ID  string
	All bool
}

type ListArgs struct {
	View   search.View
	Date   dates.Date
	Query  string
	Agenda bool
}

type ShowArgs struct {
	ID string
}

type WatchArgs struct{}

type ExportArgs struct {
	File string
}

type ImportArgs struct {
	File  string
	Force bool
}

type Command struct {
	Type   Type
	Raw    string
	Add    *AddArgs
	Edit   *EditArgs
	Delete *DeleteArgs
	List   *ListArgs
	Show   *ShowArgs
	Watch  *WatchArgs
	Export *ExportArgs
	Import *ImportArgs
}

// Parse reads a command line already split into words, for example
// os.Args[1:]. Values may contain spaces when the shell kept them together.
func Parse(args []string) (Command, error) {
	words := make([]string, 0, len(args))
	for _, a := range args {
		if strings.TrimSpace(a) != "" {
			words = append(words, strings.TrimSpace(a))
		}
	}
	if len(words) == 0 {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	raw := strings.Join(words, " ")
	head := strings.ToLower(strings.TrimPrefix(words[0], "/"))
	rest := words[1:]

	switch Type(head) {
	case TypeAdd:
		return parseAdd(raw, rest)
	case TypeEdit:
		return parseEdit(raw, rest)
	case TypeDelete, "rm":
		return parseDelete(raw, rest)
	case TypeList, "ls":
		return parseList(raw, rest)
	case TypeShow:
		return parseShow(raw, rest)
	case TypeWatch:
		if len(rest) > 0 {
			return Command{}, invalid("watch takes no arguments")
		}
		return Command{Type: TypeWatch, Raw: raw, Watch: &WatchArgs{}}, nil
	case TypeExport:
		return parseExport(raw, rest)
	case TypeImport:
		return parseImport(raw, rest)
	case TypeHelp, "-h", "--help":
		return Command{Type: TypeHelp, Raw: raw}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

// splitArgs separates key=value pairs from bare flag words.
func splitArgs(args []string) (map[string]string, []string, error) {
	pairs := make(map[string]string)
	flags := make([]string, 0)
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			flags = append(flags, strings.ToLower(arg))
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			return nil, nil, invalid("missing key in %q", arg)
		}
		if _, dup := pairs[key]; dup {
			return nil, nil, invalid("%s given more than once", key)
		}
		pairs[key] = strings.TrimSpace(value)
	}
	return pairs, flags, nil
}

func toFields(pairs map[string]string) (Fields, error) {
	out := make(Fields, len(pairs))
	for k, v := range pairs {
		if !formKeys[k] {
			return nil, invalid("unknown field %q", k)
		}
		if k == "notify" || k == "interval" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return nil, invalid("%s must be a non-negative integer, got %q", k, v)
			}
		}
		out[k] = v
	}
	return out, nil
}

func takeFlags(flags []string, allowed ...string) (map[string]bool, error) {
	out := make(map[string]bool, len(flags))
	for _, f := range flags {
		ok := false
		for _, a := range allowed {
			if f == a {
				ok = true
				break
			}
		}
		if !ok {
			return nil, invalid("unexpected argument %q", f)
		}
		out[f] = true
	}
	return out, nil
}

func parseAdd(raw string, args []string) (Command, error) {
	pairs, flags, err := splitArgs(args)
	if err != nil {
		return Command{}, err
	}
	set, err := takeFlags(flags, "force")
	if err != nil {
		return Command{}, err
	}
	fields, err := toFields(pairs)
	if err != nil {
		return Command{}, err
	}
	if strings.TrimSpace(fields["title"]) == "" {
		return Command{}, invalid("add requires title=")
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &AddArgs{Fields: fields, Force: set["force"]}}, nil
}

func parseEdit(raw string, args []string) (Command, error) {
	if len(args) == 0 || strings.Contains(args[0], "=") {
		return Command{}, invalid("edit requires an event id")
	}
	pairs, flags, err := splitArgs(args[1:])
	if err != nil {
		return Command{}, err
	}
	set, err := takeFlags(flags, "detach", "all", "force")
	if err != nil {
		return Command{}, err
	}
	if set["detach"] && set["all"] {
		return Command{}, invalid("detach and all cannot be combined")
	}
	fields, err := toFields(pairs)
	if err != nil {
		return Command{}, err
	}
	if set["all"] {
		for _, k := range []string{"date", "repeat", "interval", "until", "depth"} {
			if _, ok := fields[k]; ok {
				return Command{}, invalid("%s cannot change for all occurrences", k)
			}
		}
	}
	if len(fields) == 0 && !set["detach"] {
		return Command{}, invalid("edit requires at least one field")
	}
	return Command{Type: TypeEdit, Raw: raw, Edit: &EditArgs{
		ID:     args[0],
		Fields: fields,
		Detach: set["detach"],
		All:    set["all"],
		Force:  set["force"],
	}}, nil
}

func parseDelete(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("delete requires an event id")
	}
	set, err := takeFlags(lower(args[1:]), "all")
	if err != nil {
		return Command{}, err
	}
	return Command{Type: TypeDelete, Raw: raw, Delete: &DeleteArgs{ID: args[0], All: set["all"]}}, nil
}

func parseList(raw string, args []string) (Command, error) {
	pairs, flags, err := splitArgs(args)
	if err != nil {
		return Command{}, err
	}
	set, err := takeFlags(flags, "agenda")
	if err != nil {
		return Command{}, err
	}
	out := &ListArgs{View: search.ViewWeek, Agenda: set["agenda"]}
	for k, v := range pairs {
		switch k {
		case "view":
			view, err := search.ParseView(v)
			if err != nil {
				return Command{}, invalid("%v", err)
			}
			out.View = view
		case "date":
			d, err := dates.Parse(v)
			if err != nil {
				return Command{}, invalid("date must be YYYY-MM-DD, got %q", v)
			}
			out.Date = d
		case "q", "query":
			out.Query = v
		default:
			return Command{}, invalid("unknown list option %q", k)
		}
	}
	return Command{Type: TypeList, Raw: raw, List: out}, nil
}

func parseShow(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("show requires exactly one event id")
	}
	return Command{Type: TypeShow, Raw: raw, Show: &ShowArgs{ID: args[0]}}, nil
}

func parseExport(raw string, args []string) (Command, error) {
	pairs, flags, err := splitArgs(args)
	if err != nil {
		return Command{}, err
	}
	if _, err := takeFlags(flags); err != nil {
		return Command{}, err
	}
	out := &ExportArgs{}
	for k, v := range pairs {
		if k != "file" {
			return Command{}, invalid("unknown export option %q", k)
		}
		out.File = v
	}
	return Command{Type: TypeExport, Raw: raw, Export: out}, nil
}

func parseImport(raw string, args []string) (Command, error) {
	pairs, flags, err := splitArgs(args)
	if err != nil {
		return Command{}, err
	}
	set, err := takeFlags(flags, "force")
	if err != nil {
		return Command{}, err
	}
	out := &ImportArgs{Force: set["force"]}
	for k, v := range pairs {
		if k != "file" {
			return Command{}, invalid("unknown import option %q", k)
		}
		out.File = v
	}
	if out.File == "" {
		return Command{}, invalid("import requires file=")
	}
	return Command{Type: TypeImport, Raw: raw, Import: out}, nil
}

func lower(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(s))
	}
	return out
}

const Usage = `usage: calendard [--config file] <command> [args]

commands:
  add title=... date=YYYY-MM-DD start=HH:MM end=HH:MM [description= location= category=
      notify=MIN repeat=daily|weekly|monthly|yearly interval=N until=YYYY-MM-DD depth=fixed|last] [force]
  edit <id> field=value... [detach | all] [force]
  delete <id> [all]
  list [view=week|month] [date=YYYY-MM-DD] [q=text] [agenda]
  show <id>
  watch
  export [file=calendar.ics]
  import file=calendar.ics [force]
  help`
