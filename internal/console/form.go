package console

import (
	"fmt"
	"strings"

	"github.com/tsg-Selina-Varshney/EMS/internal/ems"
)

// profileFields are asked for on both add and edit, in this order.
var profileFields = []ems.Column{
	ems.ColumnName,
	ems.ColumnDepartment,
	ems.ColumnDesignation,
	ems.ColumnEmail,
	ems.ColumnPhone,
	ems.ColumnStartDate,
}

func fieldLabel(c ems.Column, opts ems.Options) string {
	label := c.Label()
	switch c {
	case ems.ColumnDepartment:
		if len(opts.Departments) > 0 {
			label += " (" + strings.Join(opts.Departments, ", ") + ")"
		}
	case ems.ColumnDesignation:
		if len(opts.Designations) > 0 {
			label += " (" + strings.Join(opts.Designations, ", ") + ")"
		}
	case ems.ColumnStartDate:
		label += " (YYYY-MM-DD)"
	case ems.ColumnRole:
		label += " (Admin, Employee)"
	}
	return label
}

// ReadNewEmployee prompts for every field of a new record.
func ReadNewEmployee(p *Prompter, opts ems.Options) (ems.Employee, error) {
	var e ems.Employee

	username, err := p.Ask(fieldLabel(ems.ColumnUsername, opts))
	if err != nil {
		return e, err
	}
	password, err := p.Password(ems.FieldPassword.Label())
	if err != nil {
		return e, err
	}
	e.Set(ems.ColumnUsername, username)
	e.Set(ems.FieldPassword, password)

	for _, c := range append(profileFields[:len(profileFields):len(profileFields)], ems.ColumnRole) {
		answer, err := p.Ask(fieldLabel(c, opts))
		if err != nil {
			return e, err
		}
		if err := e.Set(c, answer); err != nil {
			return e, err
		}
	}
	return e, nil
}

// ReadChanges prompts for each editable field of current and returns the
// fields whose answer differs. The role is only offered when withRole is set.
func ReadChanges(p *Prompter, current ems.Employee, opts ems.Options, withRole bool) (map[ems.Column]string, error) {
	fields := profileFields
	if withRole {
		fields = append(fields[:len(fields):len(fields)], ems.ColumnRole)
	}

	changes := map[ems.Column]string{}
	for _, c := range fields {
		answer, err := p.AskDefault(fieldLabel(c, opts), current.Field(c))
		if err != nil {
			return nil, err
		}
		if answer = strings.TrimSpace(answer); answer != current.Field(c) {
			changes[c] = answer
		}
	}
	return changes, nil
}

func describeChanges(changes map[ems.Column]string) string {
	if len(changes) == 0 {
		return "no changes"
	}
	parts := make([]string, 0, len(changes))
	for _, c := range ems.Columns {
		if v, ok := changes[c]; ok {
			parts = append(parts, fmt.Sprintf("%s=%s", c, v))
		}
	}
	return strings.Join(parts, ", ")
}
