package form

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Rule checks one field against the full value set and returns a
// violation message, or "" when satisfied. Rules are evaluated all at
// once so the user sees every problem in a single pass.
type Rule struct {
	Field string
	Check func(values map[string]string) string
}

// Required fails when the field is empty
func Required(field string) Rule {
	return Rule{Field: field, Check: func(values map[string]string) string {
		if values[field] == "" {
			return "This field is required"
		}
		return ""
	}}
}

// MinLen fails when the field is shorter than n characters. Empty
// values pass; combine with Required when the field is mandatory.
func MinLen(field string, n int) Rule {
	return Rule{Field: field, Check: func(values map[string]string) string {
		v := values[field]
		if v != "" && len(v) < n {
			return fmt.Sprintf("Must be at least %d characters", n)
		}
		return ""
	}}
}

// Pattern fails when a non-empty field does not match the expression
func Pattern(field string, re *regexp.Regexp, message string) Rule {
	return Rule{Field: field, Check: func(values map[string]string) string {
		v := values[field]
		if v != "" && !re.MatchString(v) {
			return message
		}
		return ""
	}}
}

// Email fails when a non-empty field is not a valid email address
func Email(field string) Rule {
	return Rule{Field: field, Check: func(values map[string]string) string {
		v := values[field]
		if v != "" && validate.Var(v, "email") != nil {
			return "Must be a valid email address"
		}
		return ""
	}}
}

// Numeric fails when a non-empty field is not a number
func Numeric(field string) Rule {
	return Rule{Field: field, Check: func(values map[string]string) string {
		v := values[field]
		if v != "" && validate.Var(v, "numeric") != nil {
			return "Must be a number"
		}
		return ""
	}}
}

// MatchesField fails when two fields differ (password confirmation)
func MatchesField(field, other string) Rule {
	return Rule{Field: field, Check: func(values map[string]string) string {
		if values[field] != values[other] {
			return fmt.Sprintf("Must match %s", other)
		}
		return ""
	}}
}
