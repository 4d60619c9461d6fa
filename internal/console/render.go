package console

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/tsg-Selina-Varshney/EMS/internal/ems"
)

// RenderTable writes t as aligned columns.
func RenderTable(w io.Writer, t ems.Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// RenderEmployees writes rows, or a note when there are none.
func RenderEmployees(w io.Writer, rows []ems.Employee) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No employees found.")
		return err
	}
	return RenderTable(w, ems.EmployeeTable(rows))
}

// RenderAudit writes the audit entries, or a note when there are none.
func RenderAudit(w io.Writer, entries []ems.AuditEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No audit entries.")
		return err
	}
	return RenderTable(w, ems.AuditTable(entries))
}

// RenderSession describes the logged-in user.
func RenderSession(w io.Writer, s *ems.Session) error {
	_, err := fmt.Fprintf(w, "%s (%s), role %s\n", s.Name, s.Username, s.Role)
	return err
}

// FormatError turns err into the message shown to the user. Validation
// problems are listed one per line.
func FormatError(err error) string {
	var verr *ems.ValidationError
	if errors.As(err, &verr) {
		keys := make([]string, 0, len(verr.Fields))
		for k := range verr.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteString("invalid input:")
		for _, k := range keys {
			fmt.Fprintf(&b, "\n  %s: %s", k, verr.Fields[k])
		}
		return b.String()
	}
	return err.Error()
}
