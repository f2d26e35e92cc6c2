package schedule

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/javiermolinar/campus/internal/catalog"
)

// ErrValidation matches every *ValidationError with errors.Is.
var ErrValidation = errors.New("schedule violates invariants")

// Rule names the invariant a violation breaks.
type Rule string

const (
	RuleUnknownDay     Rule = "unknown_day"
	RuleMissingDay     Rule = "missing_day"
	RuleDayMismatch    Rule = "day_mismatch"
	RuleUnknownSlot    Rule = "unknown_slot"
	RuleDuplicateSlot  Rule = "duplicate_slot"
	RuleUnknownType    Rule = "unknown_type"
	RuleMissingSubject Rule = "missing_subject"
)

// Violation is a single broken invariant.
type Violation struct {
	Day      string // Day key the violation was found under
	TimeSlot string // Offending slot, if any
	Rule     Rule
	Message  string
}

// String returns a formatted violation message.
func (v Violation) String() string {
	switch {
	case v.Day != "" && v.TimeSlot != "":
		return fmt.Sprintf("%s %s: %s - %s", v.Day, v.TimeSlot, v.Rule, v.Message)
	case v.Day != "":
		return fmt.Sprintf("%s: %s - %s", v.Day, v.Rule, v.Message)
	default:
		return fmt.Sprintf("%s - %s", v.Rule, v.Message)
	}
}

// ValidationResult contains the outcome of validating a week.
type ValidationResult struct {
	Valid      bool        // True if no invariant is broken
	Violations []Violation // Sorted by day, slot and rule; empty if Valid
}

// Err returns a *ValidationError, or nil when the result is valid.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Violations: r.Violations}
}

// FormatErrors returns the violations as feedback text for a generator.
func (r ValidationResult) FormatErrors() string {
	if len(r.Violations) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("The schedule had these errors:\n")
	for _, v := range r.Violations {
		sb.WriteString("- ")
		sb.WriteString(v.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// ValidationError is returned when a candidate week breaks one or more invariants.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 1 {
		return fmt.Sprintf("%v: %s", ErrValidation, e.Violations[0])
	}
	return fmt.Sprintf("%v: %d violations, first: %s", ErrValidation, len(e.Violations), e.Violations[0])
}

// Is makes errors.Is(err, ErrValidation) true for any *ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Has reports whether any violation breaks rule.
func (e *ValidationError) Has(rule Rule) bool {
	for _, v := range e.Violations {
		if v.Rule == rule {
			return true
		}
	}
	return false
}

// Validator checks weeks against the catalog and the slot-uniqueness invariant.
// It is safe for concurrent use.
type Validator struct {
	catalog  *catalog.Catalog
	validate *validator.Validate
}

// NewValidator creates a Validator bound to c.
func NewValidator(c *catalog.Catalog) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		return c.IsValidDay(fl.Field().String())
	})
	_ = v.RegisterValidation("timeslot", func(fl validator.FieldLevel) bool {
		return c.IsValidSlot(fl.Field().String())
	})
	_ = v.RegisterValidation("entrytype", func(fl validator.FieldLevel) bool {
		return c.IsValidType(fl.Field().String())
	})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		e, ok := sl.Current().Interface().(Entry)
		if !ok {
			return
		}
		if e.Type == TypeClass && strings.TrimSpace(e.Subject) == "" {
			sl.ReportError(e.Subject, "Subject", "subject", "classsubject", "")
		}
	}, Entry{})

	return &Validator{catalog: c, validate: v}
}

// Catalog returns the catalog the validator checks against.
func (v *Validator) Catalog() *catalog.Catalog {
	return v.catalog
}

// Validate checks every invariant of w without modifying it.
// It validates:
// - All seven day keys are present and no unknown key exists
// - Every entry has a catalog slot and a recognized type
// - Class entries have a non-blank subject
// - No two entries of a day share a slot
func (v *Validator) Validate(w Week) ValidationResult {
	var violations []Violation

	for _, day := range v.catalog.AllDays() {
		if _, ok := w[day]; !ok {
			violations = append(violations, Violation{
				Day:     day,
				Rule:    RuleMissingDay,
				Message: "day key is missing",
			})
		}
	}

	for day, entries := range w {
		if !v.catalog.IsValidDay(day) {
			violations = append(violations, Violation{
				Day:     day,
				Rule:    RuleUnknownDay,
				Message: fmt.Sprintf("'%s' is not a weekday name", day),
			})
			continue
		}

		slotCounts := make(map[string]int, len(entries))
		for _, e := range entries {
			violations = append(violations, v.checkEntry(day, e)...)
			if v.catalog.IsValidSlot(e.TimeSlot) {
				slotCounts[e.TimeSlot]++
			}
		}

		for slot, n := range slotCounts {
			if n > 1 {
				violations = append(violations, Violation{
					Day:      day,
					TimeSlot: slot,
					Rule:     RuleDuplicateSlot,
					Message:  fmt.Sprintf("%d entries share this slot", n),
				})
			}
		}
	}

	v.sortViolations(violations)
	return ValidationResult{Valid: len(violations) == 0, Violations: violations}
}

// ValidateEntry checks a single entry in isolation (catalog membership, subject rule).
func (v *Validator) ValidateEntry(e Entry) ValidationResult {
	violations := v.checkEntry(e.Day, e)
	if e.Day == "" {
		violations = append(violations, Violation{
			Rule:    RuleUnknownDay,
			Message: "entry has no day",
		})
	}
	v.sortViolations(violations)
	return ValidationResult{Valid: len(violations) == 0, Violations: violations}
}

// checkEntry runs the struct rules for one entry found under day.
func (v *Validator) checkEntry(day string, e Entry) []Violation {
	var out []Violation

	if e.Day != "" && e.Day != day && v.catalog.IsValidDay(e.Day) && v.catalog.IsValidDay(day) {
		out = append(out, Violation{
			Day:      day,
			TimeSlot: e.TimeSlot,
			Rule:     RuleDayMismatch,
			Message:  fmt.Sprintf("entry says '%s' but is stored under '%s'", e.Day, day),
		})
	}

	err := v.validate.Struct(e)
	if err == nil {
		return out
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return append(out, Violation{
			Day:      day,
			TimeSlot: e.TimeSlot,
			Rule:     RuleUnknownType,
			Message:  err.Error(),
		})
	}

	for _, fe := range fieldErrs {
		vio := Violation{Day: day, TimeSlot: e.TimeSlot}
		switch fe.Tag() {
		case "weekday":
			vio.Rule = RuleUnknownDay
			vio.Message = fmt.Sprintf("entry day '%s' is not a weekday name", e.Day)
		case "timeslot":
			vio.Rule = RuleUnknownSlot
			vio.Message = fmt.Sprintf("'%s' is not a catalog slot", e.TimeSlot)
		case "entrytype":
			vio.Rule = RuleUnknownType
			vio.Message = fmt.Sprintf("'%s' is not one of %s", e.Type, strings.Join(v.catalog.AllTypes(), ", "))
		case "classsubject":
			vio.Rule = RuleMissingSubject
			vio.Message = "class entries need a subject"
		default:
			vio.Rule = Rule(fe.Tag())
			vio.Message = fe.Error()
		}
		out = append(out, vio)
	}
	return out
}

// sortViolations orders violations by catalog day, slot, rule and message so
// permuted inputs produce identical results.
func (v *Validator) sortViolations(vs []Violation) {
	sort.Slice(vs, func(i, j int) bool {
		a, b := vs[i], vs[j]
		if di, dj := v.dayOrder(a.Day), v.dayOrder(b.Day); di != dj {
			return di < dj
		}
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		if si, sj := v.slotOrder(a.TimeSlot), v.slotOrder(b.TimeSlot); si != sj {
			return si < sj
		}
		if a.TimeSlot != b.TimeSlot {
			return a.TimeSlot < b.TimeSlot
		}
		if a.Rule != b.Rule {
			return a.Rule < b.Rule
		}
		return a.Message < b.Message
	})
}

func (v *Validator) dayOrder(day string) int {
	if i := v.catalog.DayIndex(day); i >= 0 {
		return i
	}
	return 7 // unknown keys sort after Sunday
}

func (v *Validator) slotOrder(slot string) int {
	if i := v.catalog.SlotIndex(slot); i >= 0 {
		return i
	}
	return len(v.catalog.AllSlots())
}
