package testutil

import (
	"testing"

	"github.com/tsg-Selina-Varshney/EMS/internal/api"
	"github.com/tsg-Selina-Varshney/EMS/internal/config"
	"github.com/tsg-Selina-Varshney/EMS/internal/ems"
	"github.com/tsg-Selina-Varshney/EMS/internal/session"
)

// Passwords of the seeded accounts.
const (
	AdminPassword    = "Admin@123"
	EmployeePassword = "Staff#456"
)

// Admin, Staff and the rest of Directory form the standard seeded directory.
var (
	Admin = ems.Employee{
		Username: "10001", Name: "Asha Rao", Department: "Engineering", Designation: "Manager",
		Email: "asha.rao@example.com", Phone: "9876543210", StartDate: "2019-04-01",
		Role: ems.RoleAdmin, Password: AdminPassword,
	}
	Staff = ems.Employee{
		Username: "10002", Name: "Ben Ortiz", Department: "Engineering", Designation: "Developer",
		Email: "ben.ortiz@example.com", Phone: "9123456780", StartDate: "2021-07-12",
		Role: ems.RoleEmployee, Password: EmployeePassword,
	}
	Directory = []ems.Employee{
		Admin,
		Staff,
		{
			Username: "10003", Name: "Chloé Martin", Department: "Sales", Designation: "Executive",
			Email: "chloe.martin@example.com", Phone: "9988776655", StartDate: "2022-01-03",
			Role: ems.RoleEmployee,
		},
		{
			Username: "10004", Name: "Dev Patel", Department: "HR", Designation: "Manager",
			Email: "dev.patel@example.com", Phone: "9000012345", StartDate: "2020-11-30",
			Role: ems.RoleEmployee,
		},
	}
)

// NewTestHolder returns an initialized Holder backed by an in-memory store.
// When as is non-nil the holder starts logged in as that employee.
func NewTestHolder(t *testing.T, svc *FakeService, as *ems.Employee) *ems.Holder {
	t.Helper()

	h := ems.NewHolder(session.NewMemoryStore(), svc.Clock, nil)
	if err := h.Init(); err != nil {
		t.Fatalf("Holder.Init() error = %v", err)
	}
	if as != nil {
		if err := h.Set(svc.SessionFor(*as)); err != nil {
			t.Fatalf("Holder.Set() error = %v", err)
		}
	}
	t.Cleanup(func() { h.Close() })
	return h
}

// NewTestClient returns an API client for svc that authorizes with tokens.
func NewTestClient(t *testing.T, svc *FakeService, tokens api.TokenSource) *api.Client {
	t.Helper()

	c, err := api.NewClient(config.APIConfig{BaseURL: svc.URL(), TimeoutSeconds: 5}, tokens, NewStubIDGenerator(), nil)
	if err != nil {
		t.Fatalf("api.NewClient() error = %v", err)
	}
	return c
}
