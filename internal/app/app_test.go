package app_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsg-Selina-Varshney/EMS/internal/app"
	"github.com/tsg-Selina-Varshney/EMS/internal/config"
	"github.com/tsg-Selina-Varshney/EMS/internal/ems"
	"github.com/tsg-Selina-Varshney/EMS/internal/export"
	"github.com/tsg-Selina-Varshney/EMS/internal/testutil"
)

type harness struct {
	cfg  *config.Config
	svc  *testutil.FakeService
	sink *export.MemorySink
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	svc := testutil.NewFakeService(t, testutil.Directory...)
	cfg := config.NewConfig(t.TempDir(), svc.URL())
	cfg.Session = config.SessionConfig{Type: "sqlite", Encrypt: true}
	cfg.Encryption.Type = "test"
	return &harness{cfg: cfg, svc: svc, sink: testutil.NewTestSink()}
}

func (h *harness) open(t *testing.T, confirmer ems.Confirmer) *app.EMSApp {
	t.Helper()
	a, err := app.NewEMSApp(h.cfg, "test", app.Options{
		Confirmer: confirmer,
		Clock:     h.svc.Clock,
		IDs:       testutil.NewStubIDGenerator(),
		Sink:      h.sink,
	})
	if err != nil {
		t.Fatalf("NewEMSApp() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func (h *harness) loggedIn(t *testing.T, as ems.Employee, confirmer ems.Confirmer) *app.EMSApp {
	t.Helper()
	a := h.open(t, confirmer)
	if _, err := a.Login(context.Background(), as.Username, as.Password); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	return a
}

func statuses(t *testing.T, a *app.EMSApp) []string {
	t.Helper()
	ops, err := a.History(0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	var out []string
	for _, op := range ops {
		out = append(out, op.Name+":"+op.Status)
	}
	return out
}

func TestLoginPersistsAcrossRuns(t *testing.T) {
	h := newHarness(t)

	first := h.loggedIn(t, testutil.Admin, nil)
	s, err := first.WhoAmI()
	if err != nil {
		t.Fatalf("WhoAmI() error = %v", err)
	}
	if s.Username != testutil.Admin.Username || s.Role != ems.RoleAdmin || s.Name != testutil.Admin.Name {
		t.Errorf("WhoAmI() = %+v", s)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	second := h.open(t, nil)
	s, err = second.WhoAmI()
	if err != nil {
		t.Fatalf("WhoAmI() after reopen error = %v", err)
	}
	if s.Username != testutil.Admin.Username {
		t.Errorf("restored session = %+v", s)
	}

	if err := second.Logout(); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, err := second.WhoAmI(); !errors.Is(err, ems.ErrNotAuthenticated) {
		t.Errorf("WhoAmI() after logout error = %v, want ErrNotAuthenticated", err)
	}

	got := strings.Join(statuses(t, second), ",")
	if got != "logout:success,login:success" {
		t.Errorf("history = %s", got)
	}
}

func TestLoginRejected(t *testing.T) {
	h := newHarness(t)
	a := h.open(t, nil)

	_, err := a.Login(context.Background(), testutil.Admin.Username, "wrong")
	if !ems.IsKind(err, ems.KindRejected) {
		t.Fatalf("Login() error = %v, want rejected", err)
	}
	if _, err := a.WhoAmI(); !errors.Is(err, ems.ErrNotAuthenticated) {
		t.Errorf("WhoAmI() after failed login error = %v", err)
	}
	if got := statuses(t, a); len(got) != 1 || got[0] != "login:error" {
		t.Errorf("history = %v, want [login:error]", got)
	}
}

func TestListEmployees(t *testing.T) {
	h := newHarness(t)
	a := h.loggedIn(t, testutil.Admin, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		q       app.Query
		want    []string
		wantErr bool
	}{
		{name: "all", q: app.Query{}, want: []string{"10001", "10002", "10003", "10004"}},
		{name: "sorted desc", q: app.Query{Sort: ems.ColumnName, Desc: true}, want: []string{"10004", "10003", "10002", "10001"}},
		{name: "filter", q: app.Query{Filter: ems.Filter{Column: ems.ColumnDepartment, Value: "Engineering"}}, want: []string{"10001", "10002"}},
		{name: "search", q: app.Query{Search: "manager"}, want: []string{"10001", "10004"}},
		{
			name:    "filter and search",
			q:       app.Query{Filter: ems.Filter{Column: ems.ColumnDepartment, Value: "HR"}, Search: "dev"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := a.ListEmployees(ctx, tt.q)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ListEmployees() error = %v, wantErr %v", err, tt.wantErr)
			}
			var got []string
			for _, e := range rows {
				got = append(got, e.Username)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("ListEmployees() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestListEmployees_RequiresSession(t *testing.T) {
	h := newHarness(t)
	a := h.open(t, nil)

	if _, err := a.ListEmployees(context.Background(), app.Query{}); !errors.Is(err, ems.ErrNotAuthenticated) {
		t.Errorf("ListEmployees() error = %v, want ErrNotAuthenticated", err)
	}
	if n := h.svc.TotalCalls(); n != 0 {
		t.Errorf("service received %d requests, want 0", n)
	}
}

func TestAddEditDelete(t *testing.T) {
	h := newHarness(t)
	confirmer := testutil.NewScriptedConfirmer(false, true)
	a := h.loggedIn(t, testutil.Admin, confirmer)
	ctx := context.Background()

	draft := ems.Employee{
		Username: "10005", Name: "Elif Kaya", Department: "Sales", Designation: "Executive",
		Email: "elif.kaya@example.com", Phone: "9012345678", StartDate: "2024-02-01",
		Role: ems.RoleEmployee, Password: "Welcome#1",
	}
	if err := a.AddEmployee(ctx, draft); err != nil {
		t.Fatalf("AddEmployee() error = %v", err)
	}

	bad := draft
	bad.Username = "10006"
	bad.Department = "Marketing"
	var verr *ems.ValidationError
	if err := a.AddEmployee(ctx, bad); !errors.As(err, &verr) {
		t.Fatalf("AddEmployee() with unknown department error = %v, want ValidationError", err)
	}
	if _, ok := verr.Fields["department"]; !ok {
		t.Errorf("validation problems = %v, want department", verr.Fields)
	}

	err := a.EditEmployee(ctx, "10005", map[ems.Column]string{ems.ColumnDesignation: "Manager"})
	if err != nil {
		t.Fatalf("EditEmployee() error = %v", err)
	}
	if err := a.EditEmployee(ctx, "10005", map[ems.Column]string{ems.ColumnUsername: "10009"}); err == nil {
		t.Error("EditEmployee() changing the username should fail")
	}
	if err := a.EditEmployee(ctx, "99999", map[ems.Column]string{ems.ColumnName: "Nobody"}); !errors.Is(err, ems.ErrNotFound) {
		t.Errorf("EditEmployee() unknown record error = %v, want ErrNotFound", err)
	}

	if err := a.DeleteEmployee(ctx, "10005"); !errors.Is(err, ems.ErrCancelled) {
		t.Fatalf("DeleteEmployee() declined error = %v, want ErrCancelled", err)
	}
	if err := a.DeleteEmployee(ctx, "10005"); err != nil {
		t.Fatalf("DeleteEmployee() error = %v", err)
	}

	for _, e := range h.svc.Employees() {
		if e.Username == "10005" {
			t.Errorf("employee 10005 still present at the service: %+v", e)
		}
	}

	audit, err := a.AuditLog(ctx)
	if err != nil {
		t.Fatalf("AuditLog() error = %v", err)
	}
	var actions []string
	for _, e := range audit {
		actions = append(actions, e.Action)
	}
	if strings.Join(actions, ",") != "Created,Updated,Deleted" {
		t.Errorf("audit actions = %v", actions)
	}

	want := "delete:success,delete:cancelled,edit:error,edit:error,edit:success,add:error,add:success,login:success"
	if got := strings.Join(statuses(t, a), ","); got != want {
		t.Errorf("history =\n%s\nwant\n%s", got, want)
	}
}

func TestEmployeeRoleGates(t *testing.T) {
	h := newHarness(t)
	a := h.loggedIn(t, testutil.Staff, testutil.NewScriptedConfirmer(true))
	ctx := context.Background()

	if err := a.DeleteEmployee(ctx, "10003"); !errors.Is(err, ems.ErrForbidden) {
		t.Errorf("DeleteEmployee() as employee error = %v, want ErrForbidden", err)
	}
	if err := a.EditEmployee(ctx, "10003", map[ems.Column]string{ems.ColumnName: "X"}); !errors.Is(err, ems.ErrForbidden) {
		t.Errorf("EditEmployee() of another record error = %v, want ErrForbidden", err)
	}

	changes := map[ems.Column]string{ems.ColumnName: "Benjamin Ortiz", ems.ColumnRole: "Admin"}
	if err := a.EditEmployee(ctx, testutil.Staff.Username, changes); err != nil {
		t.Fatalf("EditEmployee() own record error = %v", err)
	}
	s, _ := a.WhoAmI()
	if s.Name != "Benjamin Ortiz" {
		t.Errorf("session name = %q, want refreshed name", s.Name)
	}
	for _, e := range h.svc.Employees() {
		if e.Username == testutil.Staff.Username && e.Role != ems.RoleEmployee {
			t.Errorf("employee changed own role to %s", e.Role)
		}
	}
}

func TestUniqueValues(t *testing.T) {
	h := newHarness(t)
	a := h.loggedIn(t, testutil.Admin, nil)

	got, err := a.UniqueValues(context.Background(), ems.ColumnDepartment)
	if err != nil {
		t.Fatalf("UniqueValues() error = %v", err)
	}
	if strings.Join(got, ",") != "Engineering,HR,Sales" {
		t.Errorf("UniqueValues() = %v", got)
	}
}

func TestExport(t *testing.T) {
	h := newHarness(t)
	a := h.loggedIn(t, testutil.Admin, nil)
	ctx := context.Background()

	loc, err := a.Export(ctx, app.ExportEmployees)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if loc != "memory:employees-20250314T093000Z.csv" {
		t.Errorf("Export() location = %q", loc)
	}
	data, ok := h.sink.Get("employees-20250314T093000Z.csv")
	if !ok {
		t.Fatalf("export not stored; have %v", h.sink.Names())
	}
	if !strings.HasPrefix(string(data), "Username,Name,Department,Designation,Email,Phone,Start Date,Role\n") {
		t.Errorf("export header = %q", strings.SplitN(string(data), "\n", 2)[0])
	}
	if strings.Contains(string(data), testutil.AdminPassword) {
		t.Error("export contains a password")
	}

	if _, err := a.Export(ctx, app.ExportAudit); err != nil {
		t.Fatalf("Export(audit) error = %v", err)
	}
	if _, err := a.Export(ctx, "payroll"); err == nil {
		t.Error("Export() of unknown table should fail")
	}
}

func TestNewEMSApp_FileSessionWithAge(t *testing.T) {
	h := newHarness(t)
	dir := t.TempDir()
	h.cfg.Session = config.SessionConfig{Type: "file", Path: filepath.Join(dir, "session.age"), Encrypt: true}
	h.cfg.Encryption = config.EncryptionConfig{
		Type:           "age",
		PublicKeyPath:  filepath.Join(dir, "keys", "ems.pub"),
		PrivateKeyPath: filepath.Join(dir, "keys", "ems.key"),
	}

	if _, err := app.NewEMSApp(h.cfg, "test", app.Options{Clock: h.svc.Clock}); err == nil {
		t.Fatal("NewEMSApp() without age keys should fail")
	}

	if err := app.SetupEncryption(h.cfg); err != nil {
		t.Fatalf("SetupEncryption() error = %v", err)
	}
	a := h.loggedIn(t, testutil.Admin, nil)
	if _, err := a.WhoAmI(); err != nil {
		t.Errorf("WhoAmI() error = %v", err)
	}
}
