package ems

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Role is the access level attached to a session and to each employee record.
type Role string

const (
	RoleAdmin    Role = "Admin"
	RoleEmployee Role = "Employee"
)

// Roles lists every role the remote service accepts.
var Roles = []Role{RoleAdmin, RoleEmployee}

// ParseRole returns the Role named by s. Matching is exact, as on the server.
func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role: %q", s)
}

// SessionStorageKey is the fixed key the session is persisted under.
const SessionStorageKey = "user"

// Session is the authenticated identity returned by the token endpoint.
type Session struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Name     string `json:"name"`
}

// IsAdmin reports whether the session carries the Admin role.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}

// Column names a field of an employee record. The values are the wire names
// used by the remote service for sort, filter and unique-value lookups.
type Column string

const (
	ColumnUsername    Column = "username"
	ColumnName        Column = "name"
	ColumnDepartment  Column = "department"
	ColumnDesignation Column = "designation"
	ColumnEmail       Column = "email"
	ColumnPhone       Column = "phone"
	ColumnStartDate   Column = "sdate"
	ColumnRole        Column = "role"

	// FieldPassword is accepted by Employee.Set but is never a display column.
	FieldPassword Column = "password"
)

// Columns lists the displayable columns in table order.
var Columns = []Column{
	ColumnUsername,
	ColumnName,
	ColumnDepartment,
	ColumnDesignation,
	ColumnEmail,
	ColumnPhone,
	ColumnStartDate,
	ColumnRole,
}

// columnAliases maps user-facing spellings onto wire names.
var columnAliases = map[string]Column{
	"id":         ColumnUsername,
	"eid":        ColumnUsername,
	"start_date": ColumnStartDate,
	"startdate":  ColumnStartDate,
	"start-date": ColumnStartDate,
}

// ParseColumn resolves a column name, accepting a few friendly aliases.
func ParseColumn(s string) (Column, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if c, ok := columnAliases[key]; ok {
		return c, nil
	}
	for _, c := range Columns {
		if string(c) == key {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown column: %q", s)
}

// Filterable reports whether the remote service supports filtering on c.
func (c Column) Filterable() bool {
	return c == ColumnDepartment || c == ColumnDesignation
}

// Label is the column header shown to users.
func (c Column) Label() string {
	switch c {
	case ColumnUsername:
		return "Username"
	case ColumnStartDate:
		return "Start Date"
	case FieldPassword:
		return "Password"
	case "":
		return ""
	default:
		s := string(c)
		return strings.ToUpper(s[:1]) + s[1:]
	}
}

// Phone holds a phone number as digits. The remote service stores phones as
// integers, so it is encoded as a JSON number whenever it is purely numeric.
type Phone string

func (p Phone) MarshalJSON() ([]byte, error) {
	if p != "" && p[0] != '0' && isDigits(string(p)) {
		return []byte(p), nil
	}
	return json.Marshal(string(p))
}

func (p *Phone) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding phone: %w", err)
		}
		*p = Phone(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decoding phone: %w", err)
	}
	*p = Phone(n.String())
	return nil
}

// DateLayout is the wire and display format for start dates.
const DateLayout = "2006-01-02"

// Date is a calendar date in DateLayout. The remote service may answer with a
// full timestamp; only the date part is kept.
type Date string

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding date: %w", err)
	}
	if len(s) > len(DateLayout) {
		if _, err := time.Parse(DateLayout, s[:len(DateLayout)]); err == nil {
			s = s[:len(DateLayout)]
		}
	}
	*d = Date(s)
	return nil
}

// Time parses the date in loc.
func (d Date) Time(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, string(d), loc)
}

// Employee is one record of the remote employee collection.
// Password is write-only: it is sent on creation and never displayed.
type Employee struct {
	Username    string `json:"username"`
	Name        string `json:"name"`
	Department  string `json:"department"`
	Designation string `json:"designation"`
	Email       string `json:"email"`
	Phone       Phone  `json:"phone"`
	StartDate   Date   `json:"sdate"`
	Role        Role   `json:"role"`
	Password    string `json:"password,omitempty"`
}

// Field returns the string form of column c.
func (e Employee) Field(c Column) string {
	switch c {
	case ColumnUsername:
		return e.Username
	case ColumnName:
		return e.Name
	case ColumnDepartment:
		return e.Department
	case ColumnDesignation:
		return e.Designation
	case ColumnEmail:
		return e.Email
	case ColumnPhone:
		return string(e.Phone)
	case ColumnStartDate:
		return string(e.StartDate)
	case ColumnRole:
		return string(e.Role)
	case FieldPassword:
		return e.Password
	default:
		return ""
	}
}

// Set is the single keyed update entry point for form input. Values are
// trimmed; the password is kept verbatim.
func (e *Employee) Set(field Column, value string) error {
	if field != FieldPassword {
		value = strings.TrimSpace(value)
	}
	switch field {
	case ColumnUsername:
		e.Username = value
	case ColumnName:
		e.Name = value
	case ColumnDepartment:
		e.Department = value
	case ColumnDesignation:
		e.Designation = value
	case ColumnEmail:
		e.Email = value
	case ColumnPhone:
		e.Phone = Phone(value)
	case ColumnStartDate:
		e.StartDate = Date(value)
	case ColumnRole:
		e.Role = Role(value)
	case FieldPassword:
		e.Password = value
	default:
		return fmt.Errorf("unknown field: %q", field)
	}
	return nil
}

// AuditEntry is one row of the remote audit log.
type AuditEntry struct {
	Timestamp string `json:"timestamp"`
	ChangedBy string `json:"username"`
	Subject   string `json:"userchanged"`
	Action    string `json:"action"`
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
