package ems

import "fmt"

// Table is a rectangular rendering of records, shared by the terminal output
// and the file exporters.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// EmployeeTable renders employees with one column per Columns entry.
func EmployeeTable(employees []Employee) Table {
	t := Table{Name: "employees", Headers: make([]string, len(Columns))}
	for i, c := range Columns {
		t.Headers[i] = c.Label()
	}
	for _, e := range employees {
		row := make([]string, len(Columns))
		for i, c := range Columns {
			row[i] = e.Field(c)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// AuditTable renders audit entries.
func AuditTable(entries []AuditEntry) Table {
	t := Table{
		Name:    "audit",
		Headers: []string{"Timestamp", "Changed By", "Employee", "Action"},
	}
	for _, a := range entries {
		t.Rows = append(t.Rows, []string{a.Timestamp, a.ChangedBy, a.Subject, a.Action})
	}
	return t
}

// FileName returns the export object name for t in the given format, stamped
// with the export time.
func (t Table) FileName(format string, clock Clock) string {
	if clock == nil {
		clock = RealClock{}
	}
	return fmt.Sprintf("%s-%s.%s", t.Name, clock.Now().UTC().Format("20060102T150405Z"), format)
}
