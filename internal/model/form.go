package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sandeepkv93/calendard/internal/dates"
)

// formValidator is shared; validator.Validate caches struct metadata.
var formValidator *validator.Validate

func init() {
	formValidator = validator.New(validator.WithRequiredStructEnabled())
	formValidator.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	custom := map[string]validator.Func{
		"isodate":    validateISODate,
		"clock":      validateClock,
		"repeattype": validateRepeatType,
		"depth":      validateDepth,
	}
	for tag, fn := range custom {
		if err := formValidator.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("model: register validation %q: %v", tag, err))
		}
	}
}

func validateISODate(fl validator.FieldLevel) bool {
	_, err := dates.Parse(fl.Field().String())
	return err == nil
}

func validateClock(fl validator.FieldLevel) bool {
	_, err := dates.ParseClock(fl.Field().String())
	return err == nil
}

func validateRepeatType(fl validator.FieldLevel) bool {
	return RepeatType(strings.ToLower(fl.Field().String())).IsValid()
}

func validateDepth(fl validator.FieldLevel) bool {
	_, err := ParseDepth(fl.Field().String())
	return err == nil
}

// EventForm is an event submission as it arrives from the user, before any
// parsing. Parse turns it into an Event or a *ValidationError.
type EventForm struct {
	Title            string `form:"title" validate:"required,max=200"`
	Date             string `form:"date" validate:"required,isodate"`
	StartTime        string `form:"start" validate:"required,clock"`
	EndTime          string `form:"end" validate:"required,clock"`
	Description      string `form:"description" validate:"max=2000"`
	Location         string `form:"location" validate:"max=200"`
	Category         string `form:"category" validate:"max=100"`
	NotificationTime int    `form:"notify" validate:"min=0,max=10080"`
	RepeatType       string `form:"repeat" validate:"omitempty,repeattype"`
	RepeatInterval   int    `form:"interval" validate:"min=0"`
	RepeatEndDate    string `form:"until" validate:"omitempty,isodate"`
	RepeatDepth      string `form:"depth" validate:"omitempty,depth"`
}

type FieldError struct {
	Field   string
	Message string
	cause   error
}

type ValidationError struct {
	Problems []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.Field+": "+p.Message)
	}
	return "model: validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() []error {
	out := []error{ErrValidation}
	for _, p := range e.Problems {
		if p.cause != nil {
			out = append(out, p.cause)
		}
	}
	return out
}

func (e *ValidationError) add(field, message string, cause error) {
	e.Problems = append(e.Problems, FieldError{Field: field, Message: message, cause: cause})
}

// Parse validates the form and builds the event it describes. The returned
// event has no ID and no recurrence group yet.
func (f EventForm) Parse() (Event, error) {
	f = f.normalized()

	verr := &ValidationError{}
	failed := make(map[string]bool)
	if err := formValidator.Struct(f); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return Event{}, fmt.Errorf("model: validate form: %w", err)
		}
		for _, fe := range fieldErrs {
			failed[fe.Field()] = true
			verr.add(fe.Field(), describeTag(fe), causeFor(fe))
		}
	}

	// Cross-field rules still run so one ValidationError lists every
	// problem; each rule needs both of its fields to have parsed.
	date, dateErr := dates.Parse(f.Date)
	start, startErr := dates.ParseClock(f.StartTime)
	end, endErr := dates.ParseClock(f.EndTime)
	depth, _ := ParseDepth(f.RepeatDepth)
	recurring := !failed["repeat"] && RepeatType(f.RepeatType) != RepeatNone

	if startErr == nil && endErr == nil && start >= end {
		verr.add("end", "must be after start", ErrTimeOrder)
	}
	if recurring && !failed["interval"] && f.RepeatInterval <= 0 {
		verr.add("interval", "must be a positive integer", ErrInvalidInterval)
	}
	if recurring && dateErr == nil && f.RepeatEndDate != "" && !failed["until"] {
		if until, err := dates.Parse(f.RepeatEndDate); err == nil && until.Before(date) {
			verr.add("until", "must not be before date", ErrEndBeforeStart)
		}
	}
	if len(verr.Problems) > 0 {
		return Event{}, verr
	}

	ev := Event{
		Title:            f.Title,
		Description:      f.Description,
		Location:         f.Location,
		Category:         f.Category,
		Date:             date,
		StartTime:        start,
		EndTime:          end,
		NotificationTime: f.NotificationTime,
		Repeat: RepeatRule{
			Type:     RepeatType(f.RepeatType),
			Interval: f.RepeatInterval,
			Depth:    depth,
		},
	}
	if f.RepeatEndDate != "" {
		until, _ := dates.Parse(f.RepeatEndDate)
		ev.Repeat.EndDate = &until
	}

	if !ev.Repeat.IsRecurring() {
		ev.Repeat = NoRepeat()
	}
	return ev, nil
}

func (f EventForm) normalized() EventForm {
	f.Title = strings.TrimSpace(f.Title)
	f.Date = strings.TrimSpace(f.Date)
	f.StartTime = strings.TrimSpace(f.StartTime)
	f.EndTime = strings.TrimSpace(f.EndTime)
	f.Description = strings.TrimSpace(f.Description)
	f.Location = strings.TrimSpace(f.Location)
	f.Category = strings.TrimSpace(f.Category)
	f.RepeatType = strings.ToLower(strings.TrimSpace(f.RepeatType))
	if f.RepeatType == "" {
		f.RepeatType = string(RepeatNone)
	}
	f.RepeatEndDate = strings.TrimSpace(f.RepeatEndDate)
	f.RepeatDepth = strings.TrimSpace(f.RepeatDepth)
	return f
}

// FormFromEvent is the inverse of Parse, used when editing an existing event.
func FormFromEvent(e Event) EventForm {
	f := EventForm{
		Title:            e.Title,
		Date:             e.Date.String(),
		StartTime:        e.StartTime.String(),
		EndTime:          e.EndTime.String(),
		Description:      e.Description,
		Location:         e.Location,
		Category:         e.Category,
		NotificationTime: e.NotificationTime,
		RepeatType:       string(e.Repeat.Type),
		RepeatInterval:   e.Repeat.Interval,
		RepeatDepth:      e.Repeat.Depth.String(),
	}
	if e.Repeat.EndDate != nil {
		f.RepeatEndDate = e.Repeat.EndDate.String()
	}
	return f
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "isodate":
		return "must be a valid YYYY-MM-DD date"
	case "clock":
		return "must be a valid HH:MM time"
	case "repeattype":
		return "must be one of none, daily, weekly, monthly, yearly"
	case "depth":
		return "must be fixed or last"
	default:
		return "is invalid"
	}
}

func causeFor(fe validator.FieldError) error {
	switch fe.Field() {
	case "title":
		if fe.Tag() == "required" {
			return ErrTitleRequired
		}
		return nil
	case "date", "until":
		return ErrInvalidDate
	case "start", "end":
		return ErrInvalidTime
	case "notify":
		return ErrInvalidNotificationTime
	case "repeat":
		return ErrInvalidRepeatType
	case "interval":
		return ErrInvalidInterval
	case "depth":
		return ErrInvalidDepth
	default:
		return nil
	}
}
