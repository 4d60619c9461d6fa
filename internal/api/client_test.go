package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tsg-Selina-Varshney/EMS/internal/api"
	"github.com/tsg-Selina-Varshney/EMS/internal/config"
	"github.com/tsg-Selina-Varshney/EMS/internal/ems"
	"github.com/tsg-Selina-Varshney/EMS/internal/testutil"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"http://127.0.0.1:8000", false},
		{"https://api.example.com/ems/", false},
		{"", true},
		{"127.0.0.1:8000", true},
		{"://bad", true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			_, err := api.NewClient(config.APIConfig{BaseURL: tt.url}, nil, nil, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewClient(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestClient_Headers(t *testing.T) {
	svc := testutil.NewFakeService(t, testutil.Directory...)
	holder := testutil.NewTestHolder(t, svc, &testutil.Admin)
	client := testutil.NewTestClient(t, svc, holder)

	if _, err := client.ListEmployees(context.Background()); err != nil {
		t.Fatalf("ListEmployees() error = %v", err)
	}
	req := svc.LastRequest(testutil.RouteTableData)
	if got := req.Header.Get("Authorization"); got != "Bearer "+holder.User().Token {
		t.Errorf("Authorization = %q", got)
	}
	if got := req.Header.Get(api.RequestIDHeader); got != "req-1" {
		t.Errorf("%s = %q, want req-1", api.RequestIDHeader, got)
	}
}

func TestClient_Login(t *testing.T) {
	svc := testutil.NewFakeService(t, testutil.Directory...)
	client := testutil.NewTestClient(t, svc, nil)

	s, err := client.Login(context.Background(), testutil.Staff.Username, testutil.EmployeePassword)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if s.Role != ems.RoleEmployee || s.Name != testutil.Staff.Name {
		t.Errorf("session = %+v", s)
	}
	req := svc.LastRequest(testutil.RouteToken)
	if ct := req.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestClient_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("rejected payload is unwrapped", func(t *testing.T) {
		svc := testutil.NewFakeService(t, testutil.Directory...)
		holder := testutil.NewTestHolder(t, svc, &testutil.Admin)
		client := testutil.NewTestClient(t, svc, holder)

		err := client.DeleteEmployee(ctx, "99999")
		var re *ems.RemoteError
		if !errors.As(err, &re) {
			t.Fatalf("DeleteEmployee() error = %v, want RemoteError", err)
		}
		if re.Kind != ems.KindRejected || re.StatusCode != http.StatusNotFound || re.Detail != "Row not found" {
			t.Errorf("RemoteError = %+v", re)
		}
		if err.Error() != "Row not found" {
			t.Errorf("Error() = %q", err.Error())
		}
	})

	t.Run("structured detail is kept verbatim", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"detail":[{"loc":["body","phone"],"msg":"value is not a valid integer"}]}`))
		}))
		defer srv.Close()
		client, err := api.NewClient(config.APIConfig{BaseURL: srv.URL}, nil, nil, nil)
		if err != nil {
			t.Fatalf("NewClient() error = %v", err)
		}

		err = client.UpdateEmployee(ctx, testutil.Staff, "10001")
		var re *ems.RemoteError
		if !errors.As(err, &re) || re.Kind != ems.KindRejected {
			t.Fatalf("UpdateEmployee() error = %v, want rejected", err)
		}
		if !strings.Contains(re.Detail, "value is not a valid integer") {
			t.Errorf("Detail = %q", re.Detail)
		}
	})

	t.Run("server failure", func(t *testing.T) {
		svc := testutil.NewFakeService(t)
		holder := testutil.NewTestHolder(t, svc, &testutil.Admin)
		client := testutil.NewTestClient(t, svc, holder)
		svc.Fail(testutil.RouteTableData, http.StatusInternalServerError, "boom")

		_, err := client.ListEmployees(ctx)
		if !ems.IsKind(err, ems.KindFailed) {
			t.Fatalf("ListEmployees() error = %v, want failed kind", err)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"not":"a list"}`))
		}))
		defer srv.Close()
		client, _ := api.NewClient(config.APIConfig{BaseURL: srv.URL}, nil, nil, nil)

		if _, err := client.ListEmployees(ctx); !ems.IsKind(err, ems.KindFailed) {
			t.Fatalf("ListEmployees() error = %v, want failed kind", err)
		}
	})

	t.Run("unreachable service", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		client, _ := api.NewClient(config.APIConfig{BaseURL: url}, nil, nil, nil)

		_, err := client.ListEmployees(ctx)
		if !ems.IsKind(err, ems.KindNetwork) {
			t.Fatalf("ListEmployees() error = %v, want network kind", err)
		}
	})

	t.Run("unauthorized", func(t *testing.T) {
		svc := testutil.NewFakeService(t)
		client := testutil.NewTestClient(t, svc, nil)

		_, err := client.AuditLog(ctx)
		if !api.IsUnauthorized(err) {
			t.Fatalf("AuditLog() error = %v, want 401", err)
		}
	})
}

func TestClient_BasePath(t *testing.T) {
	var gotPath, gotRaw string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotRaw = r.URL.Path, r.URL.EscapedPath()
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client, err := api.NewClient(config.APIConfig{BaseURL: srv.URL + "/ems/"}, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if _, err := client.FilterEmployees(context.Background(), ems.ColumnDepartment, "R&D / Labs"); err != nil {
		t.Fatalf("FilterEmployees() error = %v", err)
	}
	if gotPath != "/ems/filter/department/R&D / Labs" {
		t.Errorf("path = %q", gotPath)
	}
	if !strings.Contains(gotRaw, "%2F") {
		t.Errorf("escaped path %q lost the encoded slash", gotRaw)
	}
}
