package ems_test

import (
	"strings"
	"testing"

	"github.com/tsg-Selina-Varshney/EMS/internal/ems"
	"github.com/tsg-Selina-Varshney/EMS/internal/testutil"
)

func validDraft() ems.Employee {
	return ems.Employee{
		Username:    "20001",
		Name:        "Farah Khan",
		Department:  "Engineering",
		Designation: "Developer",
		Email:       "farah@example.com",
		Phone:       "9812345678",
		StartDate:   "2025-03-14",
		Role:        ems.RoleEmployee,
		Password:    "Str0ng!pw",
	}
}

func TestValidator_Validate(t *testing.T) {
	v := ems.NewValidator(testutil.FixedClock())

	tests := []struct {
		name   string
		mode   ems.Mode
		mutate func(e *ems.Employee)
		want   []string
	}{
		{"valid create", ems.ModeCreate, func(*ems.Employee) {}, nil},
		{"valid edit", ems.ModeEdit, func(*ems.Employee) {}, nil},
		{"short username", ems.ModeCreate, func(e *ems.Employee) { e.Username = "1234" }, []string{"username"}},
		{"non-digit username", ems.ModeCreate, func(e *ems.Employee) { e.Username = "12a45" }, []string{"username"}},
		{"edit ignores username", ems.ModeEdit, func(e *ems.Employee) { e.Username = "x" }, nil},
		{"weak password", ems.ModeCreate, func(e *ems.Employee) { e.Password = "password" }, []string{"password"}},
		{"password without special", ems.ModeCreate, func(e *ems.Employee) { e.Password = "Passw0rdX" }, []string{"password"}},
		{"edit ignores password", ems.ModeEdit, func(e *ems.Employee) { e.Password = "" }, nil},
		{"unknown role", ems.ModeCreate, func(e *ems.Employee) { e.Role = "Owner" }, []string{"role"}},
		{"missing name", ems.ModeEdit, func(e *ems.Employee) { e.Name = "" }, []string{"name"}},
		{"bad email", ems.ModeEdit, func(e *ems.Employee) { e.Email = "farah@example" }, []string{"email"}},
		{"email with spaces", ems.ModeEdit, func(e *ems.Employee) { e.Email = "far ah@example.com" }, []string{"email"}},
		{"short phone", ems.ModeEdit, func(e *ems.Employee) { e.Phone = "981234567" }, []string{"phone"}},
		{"phone with letters", ems.ModeEdit, func(e *ems.Employee) { e.Phone = "98123456ab" }, []string{"phone"}},
		{"missing start date", ems.ModeEdit, func(e *ems.Employee) { e.StartDate = "" }, []string{"sdate"}},
		{"malformed start date", ems.ModeEdit, func(e *ems.Employee) { e.StartDate = "14/03/2025" }, []string{"sdate"}},
		{"future start date", ems.ModeEdit, func(e *ems.Employee) { e.StartDate = "2025-03-15" }, []string{"sdate"}},
		{"many problems", ems.ModeCreate, func(e *ems.Employee) {
			*e = ems.Employee{}
		}, []string{"username", "password", "role", "name", "department", "designation", "email", "phone", "sdate"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validDraft()
			tt.mutate(&e)

			got := v.Validate(e, tt.mode, ems.Options{})
			if len(got) != len(tt.want) {
				t.Fatalf("Validate() = %v, want problems for %v", got, tt.want)
			}
			for _, field := range tt.want {
				if got[field] == "" {
					t.Errorf("no message for %s in %v", field, got)
				}
			}
		})
	}
}

func TestValidator_Options(t *testing.T) {
	v := ems.NewValidator(testutil.FixedClock())
	opts := ems.Options{
		Departments:  []string{"Engineering", "HR"},
		Designations: []string{"Manager"},
	}

	got := v.Validate(validDraft(), ems.ModeEdit, opts)
	if len(got) != 1 || got["designation"] == "" {
		t.Fatalf("Validate() = %v, want only a designation problem", got)
	}
	if !strings.Contains(got["designation"], "Manager") {
		t.Errorf("message %q does not list the choices", got["designation"])
	}
}

func TestValidator_PasswordMessage(t *testing.T) {
	v := ems.NewValidator(testutil.FixedClock())
	e := validDraft()
	e.Password = "abc"

	msg := v.Validate(e, ems.ModeCreate, ems.Options{})["password"]
	for _, want := range []string{"at least 8 characters", "an uppercase letter", "a digit", ems.PasswordSpecials} {
		if !strings.Contains(msg, want) {
			t.Errorf("password message %q missing %q", msg, want)
		}
	}
	if strings.Contains(msg, "a lowercase letter") {
		t.Errorf("password message %q lists a satisfied rule", msg)
	}
}

func TestValidationError_Error(t *testing.T) {
	err := &ems.ValidationError{Fields: map[string]string{
		"phone": "Phone must be exactly 10 digits",
		"email": "Email must look like name@domain.tld",
	}}
	want := "validation failed: email: Email must look like name@domain.tld; phone: Phone must be exactly 10 digits"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
