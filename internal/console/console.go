package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tsg-Selina-Varshney/EMS/internal/app"
	"github.com/tsg-Selina-Varshney/EMS/internal/ems"
)

type command struct {
	name  string
	usage string
	help  string
	run   func(ctx context.Context, args []string) error
}

// Console is the interactive loop over one employee view. Search, filter
// and sort state carry over between commands.
type Console struct {
	app      *app.EMSApp
	p        *Prompter
	out      io.Writer
	commands []command
}

// New creates a console. p must be the Confirmer a was built with so delete
// confirmations read from the same input.
func New(a *app.EMSApp, p *Prompter, out io.Writer) *Console {
	c := &Console{app: a, p: p, out: out}
	c.commands = []command{
		{"show", "show", "show the current view", c.show},
		{"reload", "reload", "fetch the directory again and clear search and filter", c.reload},
		{"search", "search TERM", "show records containing TERM in any field", c.search},
		{"filter", "filter COLUMN [VALUE]", "show records where COLUMN equals VALUE; no VALUE clears", c.filter},
		{"sort", "sort COLUMN", "sort by COLUMN, toggling the direction each time", c.sort},
		{"add", "add", "create an employee (admin)", c.add},
		{"edit", "edit USERNAME", "edit an employee", c.edit},
		{"delete", "delete USERNAME", "delete an employee (admin)", c.delete},
		{"values", "values COLUMN", "list the distinct values of COLUMN", c.values},
		{"audit", "audit", "show the audit log", c.audit},
		{"whoami", "whoami", "show the logged-in user", c.whoami},
	}
	return c
}

// Run reads commands until quit, end of input or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	s, err := c.app.WhoAmI()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Logged in as %s. Type help for commands.\n", s.Name)
	if err := c.reload(ctx, nil); err != nil {
		c.report(err)
	}

	for ctx.Err() == nil {
		fmt.Fprint(c.out, "ems> ")
		line, err := c.p.ReadLine()
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(c.out)
			return nil
		}
		if err != nil {
			return err
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		name, args := strings.ToLower(fields[0]), fields[1:]
		switch name {
		case "quit", "exit":
			return nil
		case "help", "?":
			c.help()
			continue
		}

		cmd, ok := c.find(name)
		if !ok {
			fmt.Fprintf(c.out, "unknown command %q; type help\n", name)
			continue
		}
		if err := cmd.run(ctx, args); err != nil {
			c.report(err)
		}
	}
	return nil
}

func (c *Console) find(name string) (command, bool) {
	for _, cmd := range c.commands {
		if cmd.name == name {
			return cmd, true
		}
	}
	return command{}, false
}

func (c *Console) help() {
	for _, cmd := range c.commands {
		fmt.Fprintf(c.out, "  %-24s %s\n", cmd.usage, cmd.help)
	}
	fmt.Fprintf(c.out, "  %-24s %s\n", "quit", "leave the console")
}

func (c *Console) report(err error) {
	if errors.Is(err, ems.ErrSuperseded) {
		return
	}
	fmt.Fprintf(c.out, "error: %s\n", FormatError(err))
}

func (c *Console) show(ctx context.Context, args []string) error {
	view := c.app.View()
	rows, err := view.Rows()
	if err != nil {
		return err
	}

	var state []string
	if col := view.SortColumn(); col != "" {
		// Ascending reports the next direction, so the shown one is the opposite.
		dir := "desc"
		if !view.Ascending(col) {
			dir = "asc"
		}
		state = append(state, fmt.Sprintf("sort %s %s", col, dir))
	}
	if f := view.ActiveFilter(); f.Active() {
		state = append(state, fmt.Sprintf("filter %s=%s", f.Column, f.Value))
	}
	if term := view.SearchTerm(); term != "" {
		state = append(state, fmt.Sprintf("search %q", term))
	}
	if len(state) > 0 {
		fmt.Fprintf(c.out, "[%s]\n", strings.Join(state, ", "))
	}
	return RenderEmployees(c.out, rows)
}

func (c *Console) reload(ctx context.Context, args []string) error {
	if err := c.app.View().Load(ctx, "", true); err != nil {
		return err
	}
	return c.show(ctx, nil)
}

func (c *Console) search(ctx context.Context, args []string) error {
	if err := c.app.View().Search(strings.Join(args, " ")); err != nil {
		return err
	}
	return c.show(ctx, nil)
}

func (c *Console) filter(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: filter COLUMN [VALUE]")
	}
	col, err := ems.ParseColumn(args[0])
	if err != nil {
		return err
	}

	view := c.app.View()
	if len(args) == 1 {
		err = view.SetFilterColumn(col)
	} else {
		err = view.Filter(ctx, col, strings.Join(args[1:], " "))
	}
	if err != nil {
		return err
	}
	return c.show(ctx, nil)
}

func (c *Console) sort(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: sort COLUMN")
	}
	col, err := ems.ParseColumn(args[0])
	if err != nil {
		return err
	}
	if err := c.app.View().Sort(ctx, col); err != nil {
		return err
	}
	return c.show(ctx, nil)
}

func (c *Console) add(ctx context.Context, args []string) error {
	s, err := c.app.WhoAmI()
	if err != nil {
		return err
	}
	if !ems.PermissionsFor(s).CanCreate() {
		return ems.ErrForbidden
	}
	opts, err := c.app.View().LoadOptions(ctx)
	if err != nil {
		return err
	}

	draft, err := ReadNewEmployee(c.p, opts)
	if err != nil {
		return err
	}
	if err := c.app.AddEmployee(ctx, draft); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Created employee %s.\n", draft.Username)
	return nil
}

func (c *Console) edit(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: edit USERNAME")
	}
	s, err := c.app.WhoAmI()
	if err != nil {
		return err
	}
	current, ok := c.app.View().Get(args[0])
	if !ok {
		return fmt.Errorf("%w: %s", ems.ErrNotFound, args[0])
	}
	perms := ems.PermissionsFor(s)
	if !perms.CanEdit(current) {
		return ems.ErrForbidden
	}
	opts, err := c.app.View().LoadOptions(ctx)
	if err != nil {
		return err
	}

	changes, err := ReadChanges(c.p, current, opts, perms.CanChangeRole())
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		fmt.Fprintln(c.out, "Nothing to change.")
		return nil
	}
	if err := c.app.EditEmployee(ctx, current.Username, changes); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Updated employee %s: %s.\n", current.Username, describeChanges(changes))
	return nil
}

func (c *Console) delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: delete USERNAME")
	}
	if err := c.app.DeleteEmployee(ctx, args[0]); err != nil {
		if errors.Is(err, ems.ErrCancelled) {
			fmt.Fprintln(c.out, "Not deleted.")
			return nil
		}
		return err
	}
	fmt.Fprintf(c.out, "Deleted employee %s.\n", args[0])
	return nil
}

func (c *Console) values(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: values COLUMN")
	}
	col, err := ems.ParseColumn(args[0])
	if err != nil {
		return err
	}
	values, err := c.app.UniqueValues(ctx, col)
	if err != nil {
		return err
	}
	for _, v := range values {
		fmt.Fprintln(c.out, v)
	}
	return nil
}

func (c *Console) audit(ctx context.Context, args []string) error {
	entries, err := c.app.AuditLog(ctx)
	if err != nil {
		return err
	}
	return RenderAudit(c.out, entries)
}

func (c *Console) whoami(ctx context.Context, args []string) error {
	s, err := c.app.WhoAmI()
	if err != nil {
		return err
	}
	return RenderSession(c.out, s)
}
