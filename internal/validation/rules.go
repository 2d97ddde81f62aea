package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// Violation classes, in check order.
const (
	ViolationRequired = "required"
	ViolationEnum     = "enum"
	ViolationFormat   = "format"
)

// Registered form types.
const (
	FormAssessment = "assessment"
	FormInterview  = "interview"
	FormProfile    = "profile"
)

// Error is a single rule violation. Field is empty for form-level problems
// such as an unknown form type.
type Error struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// FieldError is the last violation recorded for a field. When a field fails
// several rule classes the map keeps only the final one, while Result.Errors
// keeps them all.
type FieldError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Result is the complete diagnostic report for one Validate call.
type Result struct {
	IsValid     bool                  `json:"isValid"`
	Errors      []Error               `json:"errors"`
	FieldErrors map[string]FieldError `json:"fieldErrors"`
	Warnings    []string              `json:"warnings"`
}

func newResult() Result {
	return Result{
		IsValid:     true,
		Errors:      []Error{},
		FieldErrors: map[string]FieldError{},
		Warnings:    []string{},
	}
}

func (r *Result) addViolation(field, message, class string) {
	r.IsValid = false
	r.Errors = append(r.Errors, Error{Field: field, Message: message})
	if field != "" {
		r.FieldErrors[field] = FieldError{Message: message, Type: class}
	}
}

// FormatValidator checks one field against the whole record, so cross-field
// rules can read sibling values. It returns the violation message, or ""
// when the field passes or the rule does not apply.
type FormatValidator func(value any, record map[string]any) string

// EnumRule restricts a field to a closed set of string values.
type EnumRule struct {
	Field   string
	Allowed []string
}

// FormatRule binds a named format validator to a field. Name refers to an
// entry in the validator registry so catalogs stay declarative.
type FormatRule struct {
	Field string
	Name  string
	Check FormatValidator
}

// RuleSet is the declarative rule table for one form type. Slices keep the
// check order deterministic.
type RuleSet struct {
	Required []string
	Enums    []EnumRule
	Formats  []FormatRule
	Arrays   []string
}

// RuleDescriptor is the read-only introspection view of a rule set, used by
// callers to render required markers and selects without duplicating rules.
type RuleDescriptor struct {
	Required []string            `json:"required"`
	Enums    map[string][]string `json:"enums"`
	Arrays   []string            `json:"arrays"`
}

func (rs RuleSet) descriptor() RuleDescriptor {
	desc := RuleDescriptor{
		Required: append([]string{}, rs.Required...),
		Enums:    map[string][]string{},
		Arrays:   append([]string{}, rs.Arrays...),
	}
	for _, er := range rs.Enums {
		desc.Enums[er.Field] = append([]string{}, er.Allowed...)
	}
	return desc
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func emailFormat(value any, _ map[string]any) string {
	s, ok := value.(string)
	if !ok || strings.TrimSpace(s) == "" {
		// Emptiness is the required rule's business.
		return ""
	}
	if !emailPattern.MatchString(s) {
		return "Invalid email format"
	}
	return ""
}

func passwordMatch(value any, record map[string]any) string {
	password, present := record["password"]
	if !present {
		return ""
	}
	p, _ := password.(string)
	c, _ := value.(string)
	if p != c {
		return "Passwords do not match"
	}
	return ""
}

// formatValidators is the registry catalog files refer to by name.
var formatValidators = map[string]FormatValidator{
	"email":         emailFormat,
	"passwordMatch": passwordMatch,
}

func resolveFormat(field, name string) (FormatRule, error) {
	check, ok := formatValidators[name]
	if !ok {
		return FormatRule{}, fmt.Errorf("unknown format validator %q for field %q", name, field)
	}
	return FormatRule{Field: field, Name: name, Check: check}, nil
}

// DefaultForms is the built-in rule catalog. A catalog file can override it
// wholesale; adding a form type means adding an entry here or there, never
// new validation code.
func DefaultForms() map[string]RuleSet {
	return map[string]RuleSet{
		FormAssessment: {
			Required: []string{"targetRole", "experienceLevel", "skills"},
			Enums: []EnumRule{
				{Field: "experienceLevel", Allowed: []string{"entry", "junior", "mid", "senior", "lead"}},
			},
			Arrays: []string{"skills"},
		},
		FormInterview: {
			Required: []string{"role", "interviewType", "difficulty"},
			Enums: []EnumRule{
				{Field: "interviewType", Allowed: []string{"technical", "behavioral", "mixed"}},
				{Field: "difficulty", Allowed: []string{"easy", "medium", "hard"}},
			},
			Arrays: []string{"topics"},
		},
		FormProfile: {
			Required: []string{"fullName", "email"},
			Formats: []FormatRule{
				{Field: "email", Name: "email", Check: emailFormat},
				{Field: "confirmPassword", Name: "passwordMatch", Check: passwordMatch},
			},
		},
	}
}
