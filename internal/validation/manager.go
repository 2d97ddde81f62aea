package validation

import (
	"fmt"
	"slices"
	"strings"

	"skillsight/internal/diag"
	"skillsight/internal/errors"
	"skillsight/internal/safedata"
)

// Manager validates form records against the rule catalog. It holds no
// per-call state; every Validate call builds a fresh Result, so concurrent
// use is safe as long as the catalog is only swapped through Catalog.
type Manager struct {
	catalog  *Catalog
	recorder diag.Recorder
	logger   *errors.Logger
}

// NewManager wires a manager to a catalog and a diagnostic recorder. A nil
// catalog falls back to the built-in rules, a nil recorder discards events.
func NewManager(catalog *Catalog, recorder diag.Recorder, logger *errors.Logger) *Manager {
	if catalog == nil {
		catalog = NewCatalog(nil)
	}
	if recorder == nil {
		recorder = diag.Nop{}
	}
	return &Manager{catalog: catalog, recorder: recorder, logger: logger}
}

// Catalog returns the manager's rule catalog.
func (m *Manager) Catalog() *Catalog {
	return m.catalog
}

// FormTypes lists the registered form types in sorted order.
func (m *Manager) FormTypes() []string {
	return m.catalog.FormTypes()
}

// Validate checks data against the rule set for formType and reports every
// violation. Checks run required, then enum, then format, across all fields
// with no short-circuit. Unknown form types and internal failures are
// reported through the Result, never as a panic.
func (m *Manager) Validate(formType string, data map[string]any) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			m.recorder.Record(diag.Event{
				Operation: "validate",
				Kind:      "internal_failure",
				Received:  formType,
				Fallback:  "invalid result",
				Detail:    fmt.Sprintf("%v", r),
			})
			if m.logger != nil {
				m.logger.LogError(
					errors.NewInternalError(errors.ErrCodeInternalFailure, fmt.Sprintf("validation panicked: %v", r), nil),
					"Validation failed internally",
					"form_type", formType)
			}
			result = newResult()
			result.addViolation("", "Validation failed internally, please try again", "")
		}
	}()

	rules, ok := m.catalog.RuleSet(formType)
	if !ok {
		m.recorder.Record(diag.Event{
			Operation: "validate",
			Kind:      "unknown_form_type",
			Received:  formType,
			Fallback:  "invalid result",
		})
		result = newResult()
		result.addViolation("", fmt.Sprintf("Unknown form type: %s", formType), "")
		return result
	}

	result = newResult()

	for _, field := range rules.Required {
		if fieldMissing(data, field) {
			result.addViolation(field, fmt.Sprintf("%s is required", field), ViolationRequired)
		}
	}

	for _, rule := range rules.Enums {
		checkEnum(&result, data, rule)
	}

	for _, rule := range rules.Formats {
		if msg := rule.Check(data[rule.Field], data); msg != "" {
			result.addViolation(rule.Field, msg, ViolationFormat)
		}
	}

	return result
}

// Rules returns the read-only descriptor for formType. Unknown types get an
// empty descriptor rather than an error.
func (m *Manager) Rules(formType string) RuleDescriptor {
	rules, ok := m.catalog.RuleSet(formType)
	if !ok {
		return RuleDescriptor{
			Required: []string{},
			Enums:    map[string][]string{},
			Arrays:   []string{},
		}
	}
	return rules.descriptor()
}

// fieldMissing reports whether a required field is absent or empty: a
// missing key, nil, a blank string, or an empty array all count as missing.
func fieldMissing(data map[string]any, field string) bool {
	v, ok := data[field]
	if !ok || v == nil {
		return true
	}
	if s, isString := v.(string); isString {
		return strings.TrimSpace(s) == ""
	}
	if kind, elems := safedata.Classify(v); kind == safedata.KindArray {
		return len(elems) == 0
	}
	return false
}

// checkEnum validates a present, non-empty value against the allowed set.
// Absent and empty values are the required rule's concern, not a second
// enum violation. Non-string values never match a string enum.
func checkEnum(result *Result, data map[string]any, rule EnumRule) {
	v, ok := data[rule.Field]
	if !ok || v == nil {
		return
	}

	s, isString := v.(string)
	if isString {
		if strings.TrimSpace(s) == "" {
			return
		}
		if slices.Contains(rule.Allowed, s) {
			return
		}
	}

	display := s
	if !isString {
		display = fmt.Sprintf("%v", v)
	}
	result.addViolation(rule.Field, fmt.Sprintf("Invalid %s: %s", rule.Field, display), ViolationEnum)
}
