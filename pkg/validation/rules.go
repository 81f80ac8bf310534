package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

var ErrUnknownRule = errors.New("unknown validation rule")

type Kind string

const (
	Required   Kind = "required"
	MinLength  Kind = "minLength"
	MaxLength  Kind = "maxLength"
	Min        Kind = "min"
	Max        Kind = "max"
	Email      Kind = "email"
	Phone      Kind = "phone"
	Percentage Kind = "percentage"
	Positive   Kind = "positive"
	Date       Kind = "date"
	PastDate   Kind = "pastDate"
)

var kinds = map[string]Kind{
	"required": Required, "minLength": MinLength, "maxLength": MaxLength,
	"min": Min, "max": Max, "email": Email, "phone": Phone,
	"percentage": Percentage, "positive": Positive, "date": Date, "pastDate": PastDate,
}

// Rule is one check. Param is only read by the length and bound kinds.
type Rule struct {
	Kind  Kind    `json:"kind"`
	Param float64 `json:"param,omitempty"`
}

// Rules are evaluated in slice order.
type Rules []Rule

type Result struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

var valid = Result{Valid: true}

func ParseKind(name string) (Kind, error) {
	k, ok := kinds[strings.TrimSpace(name)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRule, name)
	}
	return k, nil
}

// ParseRule builds a rule from its name and a raw parameter (number, numeric
// string, bool or nil).
func ParseRule(name string, param any) (Rule, error) {
	k, err := ParseKind(name)
	if err != nil {
		return Rule{}, err
	}
	r := Rule{Kind: k}
	switch k {
	case MinLength, MaxLength, Min, Max:
		p, ok := number(param)
		if !ok {
			return Rule{}, fmt.Errorf("rule %s: parameter %v is not a number", name, param)
		}
		r.Param = p
	}
	return r, nil
}

// Validator evaluates rules against a clock so pastDate is testable.
type Validator struct {
	Now func() time.Time
}

var std = Validator{Now: time.Now}

// Evaluate checks value against rules with the wall clock.
func Evaluate(field string, value any, rules Rules) Result {
	return std.Evaluate(field, value, rules)
}

// Evaluate returns the first failing rule's message, or a valid result.
func (v Validator) Evaluate(field string, value any, rules Rules) Result {
	for _, r := range rules {
		if !v.check(r, value) {
			return Result{Valid: false, Message: message(field, r)}
		}
	}
	return valid
}

var (
	emailRe  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nonDigit = regexp.MustCompile(`\D`)
	phoneRe  = regexp.MustCompile(`^[0-9]{10}$`)
)

func (v Validator) check(r Rule, value any) bool {
	switch r.Kind {
	case Required:
		return present(value)
	case MinLength:
		n, ok := length(value)
		return ok && float64(n) >= r.Param
	case MaxLength:
		n, ok := length(value)
		return ok && float64(n) <= r.Param
	case Min:
		n, ok := number(value)
		return ok && n >= r.Param
	case Max:
		n, ok := number(value)
		return ok && n <= r.Param
	case Email:
		s, _ := value.(string)
		return emailRe.MatchString(s)
	case Phone:
		s, _ := value.(string)
		return phoneRe.MatchString(nonDigit.ReplaceAllString(s, ""))
	case Percentage:
		n, ok := number(value)
		return ok && n >= 0 && n <= 100
	case Positive:
		n, ok := number(value)
		return ok && n > 0
	case Date:
		_, ok := date(value)
		return ok
	case PastDate:
		t, ok := date(value)
		return ok && !t.After(v.now())
	default:
		// kinds outside the parsed set are not enforced
		return true
	}
}

func (v Validator) now() time.Time {
	if v.Now == nil {
		return time.Now()
	}
	return v.Now()
}

func message(field string, r Rule) string {
	p := strconv.FormatFloat(r.Param, 'f', -1, 64)
	switch r.Kind {
	case Required:
		return field + " is required"
	case MinLength:
		return fmt.Sprintf("%s must be at least %s characters", field, p)
	case MaxLength:
		return fmt.Sprintf("%s must be less than %s characters", field, p)
	case Min:
		return fmt.Sprintf("%s must be at least %s", field, p)
	case Max:
		return fmt.Sprintf("%s must be less than %s", field, p)
	case Email:
		return "Please enter a valid email address"
	case Phone:
		return "Please enter a valid 10-digit phone number"
	case Percentage:
		return field + " must be between 0 and 100"
	case Positive:
		return field + " must be greater than 0"
	case Date:
		return "Please select a valid date"
	case PastDate:
		return "Date cannot be in the future"
	}
	return "Invalid " + field
}

func present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case *string:
		return t != nil && *t != ""
	case *time.Time:
		return t != nil
	case *float64:
		return t != nil
	}
	return true
}

func length(v any) (int, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return 0, false
	}
	return utf8.RuneCountInString(s), true
}

func number(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case *float64:
		if t == nil {
			return 0, false
		}
		return *t, true
	case string:
		return LeadingNumber(t)
	}
	return 0, false
}

var leadingNumber = regexp.MustCompile(`^\s*[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// LeadingNumber reads the decimal that s starts with ("2.5 ha" -> 2.5).
// Out-of-range values keep their infinite sign.
func LeadingNumber(s string) (float64, bool) {
	m := leadingNumber.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(m), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return f, true
}

func date(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return *t, true
	case string:
		for _, layout := range []string{"2006-01-02", time.RFC3339} {
			if d, err := time.Parse(layout, strings.TrimSpace(t)); err == nil {
				return d, true
			}
		}
	}
	return time.Time{}, false
}
