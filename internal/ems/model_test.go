package ems_test

import (
	"encoding/json"
	"testing"

	"github.com/tsg-Selina-Varshney/EMS/internal/ems"
)

func TestPhone_JSON(t *testing.T) {
	tests := []struct {
		phone ems.Phone
		want  string
	}{
		{"9876543210", `9876543210`},
		{"0123456789", `"0123456789"`},
		{"", `""`},
		{"98-76", `"98-76"`},
	}
	for _, tt := range tests {
		got, err := json.Marshal(tt.phone)
		if err != nil {
			t.Fatalf("Marshal(%q) error = %v", tt.phone, err)
		}
		if string(got) != tt.want {
			t.Errorf("Marshal(%q) = %s, want %s", tt.phone, got, tt.want)
		}
	}

	for _, in := range []string{`9876543210`, `"9876543210"`} {
		var p ems.Phone
		if err := json.Unmarshal([]byte(in), &p); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", in, err)
		}
		if p != "9876543210" {
			t.Errorf("Unmarshal(%s) = %q", in, p)
		}
	}
}

func TestEmployee_DecodeServerRecord(t *testing.T) {
	raw := `{"username":"10001","name":"Asha Rao","department":"Engineering","designation":"Manager",
		"email":"asha@example.com","phone":9876543210,"sdate":"2019-04-01T00:00:00","role":"Admin"}`

	var e ems.Employee
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if e.StartDate != "2019-04-01" {
		t.Errorf("StartDate = %q, want 2019-04-01", e.StartDate)
	}
	if e.Phone != "9876543210" {
		t.Errorf("Phone = %q", e.Phone)
	}
	if e.Role != ems.RoleAdmin {
		t.Errorf("Role = %q", e.Role)
	}
}

func TestEmployee_Set(t *testing.T) {
	var e ems.Employee
	fields := map[ems.Column]string{
		ems.ColumnUsername:    " 10001 ",
		ems.ColumnName:        "Asha Rao ",
		ems.ColumnDepartment:  "Engineering",
		ems.ColumnDesignation: "Manager",
		ems.ColumnEmail:       "asha@example.com",
		ems.ColumnPhone:       "9876543210",
		ems.ColumnStartDate:   "2019-04-01",
		ems.ColumnRole:        "Admin",
		ems.FieldPassword:     " keep spaces ",
	}
	for field, value := range fields {
		if err := e.Set(field, value); err != nil {
			t.Fatalf("Set(%s) error = %v", field, err)
		}
	}

	if e.Username != "10001" || e.Name != "Asha Rao" {
		t.Errorf("values not trimmed: %+v", e)
	}
	if e.Password != " keep spaces " {
		t.Errorf("Password = %q, want it verbatim", e.Password)
	}
	for _, c := range ems.Columns {
		if e.Field(c) == "" {
			t.Errorf("Field(%s) empty after Set", c)
		}
	}

	if err := e.Set("salary", "1"); err == nil {
		t.Error("Set() expected error for unknown field")
	}
}

func TestParseColumn(t *testing.T) {
	tests := []struct {
		in      string
		want    ems.Column
		wantErr bool
	}{
		{"name", ems.ColumnName, false},
		{" Department ", ems.ColumnDepartment, false},
		{"start_date", ems.ColumnStartDate, false},
		{"sdate", ems.ColumnStartDate, false},
		{"id", ems.ColumnUsername, false},
		{"password", "", true},
		{"salary", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ems.ParseColumn(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseColumn(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseColumn(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestColumn_Filterable(t *testing.T) {
	for _, c := range ems.Columns {
		want := c == ems.ColumnDepartment || c == ems.ColumnDesignation
		if got := c.Filterable(); got != want {
			t.Errorf("%s.Filterable() = %v, want %v", c, got, want)
		}
	}
}
