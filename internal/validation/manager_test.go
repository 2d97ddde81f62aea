package validation

import (
	"reflect"
	"testing"

	"skillsight/internal/diag"
)

func newTestManager() *Manager {
	return NewManager(nil, diag.NewBuffer(), nil)
}

func validRecord(formType string) map[string]any {
	switch formType {
	case FormAssessment:
		return map[string]any{
			"targetRole":      "Backend Engineer",
			"experienceLevel": "mid",
			"skills":          []any{"go", "postgres"},
		}
	case FormInterview:
		return map[string]any{
			"role":          "Site Reliability Engineer",
			"interviewType": "technical",
			"difficulty":    "medium",
			"topics":        []any{"linux", "networking"},
		}
	case FormProfile:
		return map[string]any{
			"fullName":        "Dana Smith",
			"email":           "dana@example.com",
			"password":        "hunter22",
			"confirmPassword": "hunter22",
		}
	}
	return nil
}

func TestValidateMissingRequiredFields(t *testing.T) {
	tests := []struct {
		formType      string
		requiredCount int
	}{
		{formType: FormAssessment, requiredCount: 3},
		{formType: FormInterview, requiredCount: 3},
		{formType: FormProfile, requiredCount: 2},
	}

	for _, tt := range tests {
		t.Run(tt.formType, func(t *testing.T) {
			m := newTestManager()
			result := m.Validate(tt.formType, map[string]any{})

			if result.IsValid {
				t.Error("Expected invalid result for empty data")
			}
			if len(result.Errors) != tt.requiredCount {
				t.Errorf("Expected %d errors, got %d: %v", tt.requiredCount, len(result.Errors), result.Errors)
			}
			for _, e := range result.Errors {
				if fe, ok := result.FieldErrors[e.Field]; !ok || fe.Type != ViolationRequired {
					t.Errorf("Expected a required field error for %s, got %+v", e.Field, result.FieldErrors)
				}
			}
			if len(result.Warnings) != 0 {
				t.Errorf("Expected no warnings, got %v", result.Warnings)
			}
		})
	}
}

func TestValidateFullyPopulated(t *testing.T) {
	for _, formType := range []string{FormAssessment, FormInterview, FormProfile} {
		t.Run(formType, func(t *testing.T) {
			m := newTestManager()
			result := m.Validate(formType, validRecord(formType))

			if !result.IsValid {
				t.Errorf("Expected valid result, got errors %v", result.Errors)
			}
			if len(result.Errors) != 0 || len(result.FieldErrors) != 0 {
				t.Errorf("Expected clean result, got %+v", result)
			}
		})
	}
}

func TestValidateUnknownFormType(t *testing.T) {
	m := newTestManager()
	result := m.Validate("wizard", map[string]any{"anything": 1})

	if result.IsValid {
		t.Error("Expected invalid result for unknown form type")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Expected exactly one error, got %v", result.Errors)
	}
	if result.Errors[0].Message != "Unknown form type: wizard" {
		t.Errorf("Unexpected message: %s", result.Errors[0].Message)
	}
}

func TestValidateRequiredSemantics(t *testing.T) {
	tests := []struct {
		name    string
		data    map[string]any
		missing bool
	}{
		{name: "absent key", data: map[string]any{}, missing: true},
		{name: "nil value", data: map[string]any{"targetRole": nil}, missing: true},
		{name: "empty string", data: map[string]any{"targetRole": ""}, missing: true},
		{name: "whitespace string", data: map[string]any{"targetRole": "   "}, missing: true},
		{name: "empty array", data: map[string]any{"targetRole": []any{}}, missing: true},
		{name: "populated string", data: map[string]any{"targetRole": "SRE"}, missing: false},
		{name: "populated array", data: map[string]any{"targetRole": []any{"x"}}, missing: false},
		{name: "numeric value", data: map[string]any{"targetRole": 7}, missing: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager()
			result := m.Validate(FormAssessment, tt.data)

			_, flagged := result.FieldErrors["targetRole"]
			if flagged != tt.missing {
				t.Errorf("targetRole flagged=%v, expected %v", flagged, tt.missing)
			}
		})
	}
}

func TestValidateEnumViolations(t *testing.T) {
	tests := []struct {
		name     string
		formType string
		data     map[string]any
		field    string
		message  string
	}{
		{
			name:     "value outside the set",
			formType: FormAssessment,
			data:     map[string]any{"experienceLevel": "expert"},
			field:    "experienceLevel",
			message:  "Invalid experienceLevel: expert",
		},
		{
			name:     "non-string value never matches",
			formType: FormInterview,
			data:     map[string]any{"difficulty": 3},
			field:    "difficulty",
			message:  "Invalid difficulty: 3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager()
			result := m.Validate(tt.formType, tt.data)

			fe, ok := result.FieldErrors[tt.field]
			if !ok || fe.Type != ViolationEnum {
				t.Fatalf("Expected an enum violation for %s, got %+v", tt.field, result.FieldErrors)
			}
			if fe.Message != tt.message {
				t.Errorf("Message = %q, expected %q", fe.Message, tt.message)
			}
		})
	}

	t.Run("valid member passes", func(t *testing.T) {
		m := newTestManager()
		result := m.Validate(FormAssessment, map[string]any{"experienceLevel": "senior"})
		if _, ok := result.FieldErrors["experienceLevel"]; ok {
			t.Error("Valid enum member must not be flagged")
		}
	})

	t.Run("empty value is only a required problem", func(t *testing.T) {
		m := newTestManager()
		result := m.Validate(FormAssessment, map[string]any{"experienceLevel": ""})
		if fe := result.FieldErrors["experienceLevel"]; fe.Type != ViolationRequired {
			t.Errorf("Expected required violation, got %+v", fe)
		}
	})
}

func TestValidateFormatViolations(t *testing.T) {
	tests := []struct {
		name    string
		data    map[string]any
		field   string
		message string
	}{
		{
			name:    "malformed email",
			data:    map[string]any{"fullName": "Dana", "email": "not-an-email"},
			field:   "email",
			message: "Invalid email format",
		},
		{
			name: "password mismatch",
			data: map[string]any{
				"fullName": "Dana", "email": "dana@example.com",
				"password": "hunter22", "confirmPassword": "hunter23",
			},
			field:   "confirmPassword",
			message: "Passwords do not match",
		},
		{
			name: "password without confirmation",
			data: map[string]any{
				"fullName": "Dana", "email": "dana@example.com",
				"password": "hunter22",
			},
			field:   "confirmPassword",
			message: "Passwords do not match",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager()
			result := m.Validate(FormProfile, tt.data)

			fe, ok := result.FieldErrors[tt.field]
			if !ok || fe.Type != ViolationFormat {
				t.Fatalf("Expected a format violation for %s, got %+v", tt.field, result.FieldErrors)
			}
			if fe.Message != tt.message {
				t.Errorf("Message = %q, expected %q", fe.Message, tt.message)
			}
		})
	}

	t.Run("no password fields means no cross-field check", func(t *testing.T) {
		m := newTestManager()
		result := m.Validate(FormProfile, map[string]any{
			"fullName": "Dana", "email": "dana@example.com",
		})
		if !result.IsValid {
			t.Errorf("Expected valid result, got %v", result.Errors)
		}
	})
}

func TestValidateCollectsAllViolationsInOrder(t *testing.T) {
	m := newTestManager()
	result := m.Validate(FormAssessment, map[string]any{"experienceLevel": "expert"})

	expected := []Error{
		{Field: "targetRole", Message: "targetRole is required"},
		{Field: "skills", Message: "skills is required"},
		{Field: "experienceLevel", Message: "Invalid experienceLevel: expert"},
	}
	if !reflect.DeepEqual(result.Errors, expected) {
		t.Errorf("Errors = %v, expected %v", result.Errors, expected)
	}
}

func TestValidateLastViolationWinsPerField(t *testing.T) {
	forms := map[string]RuleSet{
		"signup": {
			Enums: []EnumRule{{Field: "plan", Allowed: []string{"free", "pro"}}},
			Formats: []FormatRule{{
				Field: "plan",
				Name:  "planAvailable",
				Check: func(value any, _ map[string]any) string {
					if value == "enterprise" {
						return "Plan enterprise is not yet available"
					}
					return ""
				},
			}},
		},
	}
	m := NewManager(NewCatalog(forms), diag.NewBuffer(), nil)

	result := m.Validate("signup", map[string]any{"plan": "enterprise"})

	if len(result.Errors) != 2 {
		t.Fatalf("Expected both violations collected, got %v", result.Errors)
	}
	fe := result.FieldErrors["plan"]
	if fe.Type != ViolationFormat {
		t.Errorf("Expected last-applied violation to win, got %+v", fe)
	}
	if fe.Message != "Plan enterprise is not yet available" {
		t.Errorf("Unexpected message: %s", fe.Message)
	}
}

func TestValidateRecoversFromRuleTablePanics(t *testing.T) {
	forms := map[string]RuleSet{
		"broken": {
			Formats: []FormatRule{{
				Field: "anything",
				Name:  "explosive",
				Check: func(value any, _ map[string]any) string {
					panic("rule table bug")
				},
			}},
		},
	}
	recorder := diag.NewBuffer()
	m := NewManager(NewCatalog(forms), recorder, nil)

	result := m.Validate("broken", map[string]any{"anything": 1})

	if result.IsValid {
		t.Error("Expected invalid result after internal failure")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Expected exactly one error, got %v", result.Errors)
	}

	found := false
	for _, ev := range recorder.Events() {
		if ev.Kind == "internal_failure" {
			found = true
		}
	}
	if !found {
		t.Error("Expected an internal_failure diagnostic")
	}
}

func TestValidateIdempotent(t *testing.T) {
	m := newTestManager()
	data := map[string]any{"experienceLevel": "expert", "skills": []any{}}

	first := m.Validate(FormAssessment, data)
	second := m.Validate(FormAssessment, data)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Validate not idempotent: %+v vs %+v", first, second)
	}
}

func TestRules(t *testing.T) {
	m := newTestManager()

	t.Run("assessment descriptor", func(t *testing.T) {
		desc := m.Rules(FormAssessment)

		if !reflect.DeepEqual(desc.Required, []string{"targetRole", "experienceLevel", "skills"}) {
			t.Errorf("Required = %v", desc.Required)
		}
		if !reflect.DeepEqual(desc.Enums["experienceLevel"], []string{"entry", "junior", "mid", "senior", "lead"}) {
			t.Errorf("Enums = %v", desc.Enums)
		}
		if !reflect.DeepEqual(desc.Arrays, []string{"skills"}) {
			t.Errorf("Arrays = %v", desc.Arrays)
		}
	})

	t.Run("unknown type gets an empty descriptor", func(t *testing.T) {
		desc := m.Rules("wizard")

		if len(desc.Required) != 0 || len(desc.Enums) != 0 || len(desc.Arrays) != 0 {
			t.Errorf("Expected empty descriptor, got %+v", desc)
		}
		if desc.Required == nil || desc.Enums == nil || desc.Arrays == nil {
			t.Error("Descriptor fields must be empty, not nil, for JSON consumers")
		}
	})

	t.Run("descriptor mutation does not leak into the catalog", func(t *testing.T) {
		desc := m.Rules(FormAssessment)
		desc.Required[0] = "mutated"
		desc.Enums["experienceLevel"][0] = "mutated"

		fresh := m.Rules(FormAssessment)
		if fresh.Required[0] != "targetRole" || fresh.Enums["experienceLevel"][0] != "entry" {
			t.Error("Rules must return copies, not catalog internals")
		}
	})
}

func BenchmarkValidate(b *testing.B) {
	m := NewManager(nil, diag.Nop{}, nil)
	data := validRecord(FormAssessment)

	for b.Loop() {
		m.Validate(FormAssessment, data)
	}
}
