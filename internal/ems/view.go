package ems

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/cases"
)

// Filter is the active server-side filter. A zero Value means no filter.
type Filter struct {
	Column Column
	Value  string
}

// Active reports whether the filter restricts the view.
func (f Filter) Active() bool { return f.Value != "" }

// ViewController holds the last fetched employee collection (the
// authoritative list) and the list currently shown (the displayed list).
//
// Contracts:
//   - Load and Sort replace the authoritative list. Sort results become the
//     new baseline.
//   - Filter results only project the displayed list; the authoritative list
//     is untouched and an empty filter value restores it.
//   - Search always runs over the authoritative list and clears any filter.
//   - Reads are sequenced: a completion that is no longer the latest request
//     of its kind is dropped with ErrSuperseded.
type ViewController struct {
	api       API
	holder    *Holder
	confirmer Confirmer
	validator *Validator
	logger    Logger
	fold      cases.Caser

	mu            sync.Mutex
	baseSeq       uint64 // Load and Sort
	viewSeq       uint64 // Load, Sort, Filter and Search
	authoritative []Employee
	filtered      []Employee
	filterReady   bool
	displayed     []Employee
	searchTerm    string
	filter        Filter
	sortColumn    Column
	descending    map[Column]bool
	loadErr       error
	options       *Options
}

// NewViewController creates a controller with an empty, unloaded view.
func NewViewController(api API, holder *Holder, confirmer Confirmer, validator *Validator, logger Logger) *ViewController {
	if logger == nil {
		logger = NewNopLogger()
	}
	if validator == nil {
		validator = NewValidator(nil)
	}
	return &ViewController{
		api:        api,
		holder:     holder,
		confirmer:  confirmer,
		validator:  validator,
		logger:     logger,
		fold:       cases.Fold(),
		descending: make(map[Column]bool),
	}
}

// Load fetches the full collection, or the collection sorted by column when
// column is non-empty, and makes it the new baseline. Any search or filter is
// cleared. On failure the view stays closed until the next successful read.
func (c *ViewController) Load(ctx context.Context, column Column, ascending bool) error {
	if _, err := c.holder.Require(); err != nil {
		return err
	}

	c.mu.Lock()
	c.searchTerm = ""
	c.clearFilterLocked()
	if column != "" {
		c.sortColumn = column
	}
	ticket := c.bumpBaseLocked()
	c.mu.Unlock()

	var records []Employee
	var err error
	if column == "" {
		records, err = c.api.ListEmployees(ctx)
	} else {
		records, err = c.api.SortedEmployees(ctx, column, !ascending)
	}
	return c.completeBaseline(ticket, records, err)
}

// Sort asks the service for the collection ordered by column in its
// remembered direction (ascending the first time) and flips the remembered
// direction for the next call. The result replaces the baseline; an active
// filter is cleared and an active search is re-applied.
func (c *ViewController) Sort(ctx context.Context, column Column) error {
	if _, err := c.holder.Require(); err != nil {
		return err
	}
	if !slices.Contains(Columns, column) {
		return fmt.Errorf("cannot sort by %q", column)
	}

	c.mu.Lock()
	desc := c.descending[column]
	c.descending[column] = !desc
	c.sortColumn = column
	c.clearFilterLocked()
	ticket := c.bumpBaseLocked()
	c.mu.Unlock()

	c.logger.Debug("sorting employees", "column", column, "desc", desc)
	records, err := c.api.SortedEmployees(ctx, column, desc)
	return c.completeBaseline(ticket, records, err)
}

func (c *ViewController) completeBaseline(ticket uint64, records []Employee, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ticket != c.baseSeq {
		c.logger.Debug("dropping stale employee list", "ticket", ticket, "latest", c.baseSeq)
		return ErrSuperseded
	}
	if err != nil {
		c.loadErr = fmt.Errorf("loading employees: %w", err)
		c.authoritative = nil
		c.displayed = nil
		return c.loadErr
	}

	c.loadErr = nil
	c.authoritative = records
	c.deriveLocked()
	return nil
}

// Search shows the records where any field contains term, ignoring case.
// An empty term shows the baseline. Search clears the active filter and
// supersedes any filter request still in flight.
func (c *ViewController) Search(term string) error {
	if _, err := c.holder.Require(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.viewSeq++
	c.clearFilterLocked()
	c.searchTerm = term
	if c.loadErr != nil {
		return c.loadErr
	}
	c.deriveLocked()
	return nil
}

// SetFilterColumn selects the filter column and resets the selected value,
// which shows the baseline again.
func (c *ViewController) SetFilterColumn(column Column) error {
	if column != "" && !column.Filterable() {
		return fmt.Errorf("cannot filter by %q", column)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.viewSeq++
	c.filter = Filter{Column: column}
	c.filtered = nil
	c.filterReady = false
	c.deriveLocked()
	return nil
}

// Filter shows only the records whose column equals value, as answered by
// the service. An empty value shows the baseline. Filter clears the search
// term.
func (c *ViewController) Filter(ctx context.Context, column Column, value string) error {
	if _, err := c.holder.Require(); err != nil {
		return err
	}
	if !column.Filterable() {
		return fmt.Errorf("cannot filter by %q", column)
	}

	c.mu.Lock()
	c.viewSeq++
	ticket := c.viewSeq
	c.searchTerm = ""
	c.filter = Filter{Column: column, Value: value}
	c.filtered = nil
	c.filterReady = false
	if value == "" {
		c.deriveLocked()
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	records, err := c.api.FilterEmployees(ctx, column, value)

	c.mu.Lock()
	defer c.mu.Unlock()
	if ticket != c.viewSeq {
		c.logger.Debug("dropping stale filter result", "column", column, "value", value)
		return ErrSuperseded
	}
	if err != nil {
		c.filter = Filter{Column: column}
		c.deriveLocked()
		return fmt.Errorf("filtering employees by %s: %w", column, err)
	}
	c.filtered = records
	c.filterReady = true
	c.deriveLocked()
	return nil
}

// LoadOptions fetches the department and designation choices used by
// filters and form validation.
func (c *ViewController) LoadOptions(ctx context.Context) (Options, error) {
	if _, err := c.holder.Require(); err != nil {
		return Options{}, err
	}

	departments, err := c.api.UniqueValues(ctx, ColumnDepartment)
	if err != nil {
		return Options{}, fmt.Errorf("loading departments: %w", err)
	}
	designations, err := c.api.UniqueValues(ctx, ColumnDesignation)
	if err != nil {
		return Options{}, fmt.Errorf("loading designations: %w", err)
	}
	opts := Options{Departments: departments, Designations: designations}

	c.mu.Lock()
	c.options = &opts
	c.mu.Unlock()
	return opts, nil
}

// Create validates draft in creation mode and submits it. On success the
// record, without its password, is appended to the baseline.
func (c *ViewController) Create(ctx context.Context, draft Employee) error {
	s, err := c.holder.Require()
	if err != nil {
		return err
	}
	if !PermissionsFor(s).CanCreate() {
		return ErrForbidden
	}
	if problems := c.validator.Validate(draft, ModeCreate, c.cachedOptions()); len(problems) > 0 {
		return &ValidationError{Fields: problems}
	}

	if err := c.api.CreateEmployee(ctx, draft, s.Username); err != nil {
		return fmt.Errorf("creating employee %s: %w", draft.Username, err)
	}
	c.logger.Info("employee created", "username", draft.Username, "by", s.Username)

	created := draft
	created.Password = ""

	c.mu.Lock()
	defer c.mu.Unlock()
	c.authoritative = append(c.authoritative, created)
	if c.filterReady && created.Field(c.filter.Column) == c.filter.Value {
		c.filtered = append(c.filtered, created)
	}
	c.deriveLocked()
	return nil
}

// Update validates record in edit mode and submits it keyed by username. On
// success the matching record is replaced, and when it is the acting user's
// own record the session name is refreshed.
func (c *ViewController) Update(ctx context.Context, record Employee) error {
	s, err := c.holder.Require()
	if err != nil {
		return err
	}

	existing, ok := c.find(record.Username)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, record.Username)
	}
	perms := PermissionsFor(s)
	if !perms.CanEdit(existing) {
		return ErrForbidden
	}
	if !perms.CanChangeRole() {
		record.Role = existing.Role
	}
	if problems := c.validator.Validate(record, ModeEdit, c.cachedOptions()); len(problems) > 0 {
		return &ValidationError{Fields: problems}
	}

	if err := c.api.UpdateEmployee(ctx, record, s.Username); err != nil {
		return fmt.Errorf("updating employee %s: %w", record.Username, err)
	}
	c.logger.Info("employee updated", "username", record.Username, "by", s.Username)
	record.Password = ""

	c.mu.Lock()
	c.authoritative = replaceOne(c.authoritative, record)
	if c.filterReady {
		c.filtered = replaceOne(c.filtered, record)
		if record.Field(c.filter.Column) != c.filter.Value {
			c.filtered = removeOne(c.filtered, record.Username)
		}
	}
	c.deriveLocked()
	c.mu.Unlock()

	if record.Username == s.Username {
		if err := c.holder.SetName(record.Name); err != nil {
			return fmt.Errorf("refreshing session name: %w", err)
		}
	}
	return nil
}

// Delete asks the confirmer, then deletes the record keyed by username and
// removes exactly one matching entry from the baseline.
func (c *ViewController) Delete(ctx context.Context, username string) error {
	s, err := c.holder.Require()
	if err != nil {
		return err
	}
	if !PermissionsFor(s).CanDelete() {
		return ErrForbidden
	}

	existing, ok := c.find(username)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, username)
	}
	yes, err := c.confirmer.Confirm(fmt.Sprintf("Delete employee %s (%s)?", existing.Username, existing.Name))
	if err != nil {
		return fmt.Errorf("confirming delete: %w", err)
	}
	if !yes {
		return ErrCancelled
	}

	if err := c.api.DeleteEmployee(ctx, username); err != nil {
		return fmt.Errorf("deleting employee %s: %w", username, err)
	}
	c.logger.Info("employee deleted", "username", username, "by", s.Username)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.authoritative = removeOne(c.authoritative, username)
	c.filtered = removeOne(c.filtered, username)
	c.deriveLocked()
	return nil
}

// Rows returns the displayed records, or the read error that closed the view.
func (c *ViewController) Rows() ([]Employee, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loadErr != nil {
		return nil, c.loadErr
	}
	return slices.Clone(c.displayed), nil
}

// Authoritative returns a copy of the baseline collection.
func (c *ViewController) Authoritative() []Employee {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.authoritative)
}

// Get returns the baseline record keyed by username.
func (c *ViewController) Get(username string) (Employee, bool) {
	return c.find(username)
}

// SearchTerm returns the active search term.
func (c *ViewController) SearchTerm() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.searchTerm
}

// ActiveFilter returns the active filter.
func (c *ViewController) ActiveFilter() Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// SortColumn returns the column of the last sort request.
func (c *ViewController) SortColumn() Column {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sortColumn
}

// Ascending reports the direction the next Sort on column will request.
func (c *ViewController) Ascending(column Column) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.descending[column]
}

func (c *ViewController) cachedOptions() Options {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.options == nil {
		return Options{}
	}
	return *c.options
}

func (c *ViewController) find(username string) (Employee, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.authoritative {
		if e.Username == username {
			return e, true
		}
	}
	return Employee{}, false
}

func (c *ViewController) bumpBaseLocked() uint64 {
	c.baseSeq++
	c.viewSeq++
	return c.baseSeq
}

func (c *ViewController) clearFilterLocked() {
	c.filter = Filter{Column: c.filter.Column}
	c.filtered = nil
	c.filterReady = false
}

// deriveLocked recomputes the displayed list from the baseline and the
// query parameters. While a filter request is in flight the displayed list
// is left as it is.
func (c *ViewController) deriveLocked() {
	switch {
	case c.searchTerm != "":
		c.displayed = c.match(c.authoritative, c.searchTerm)
	case c.filter.Active():
		if c.filterReady {
			c.displayed = slices.Clone(c.filtered)
		}
	default:
		c.displayed = slices.Clone(c.authoritative)
	}
}

func (c *ViewController) match(records []Employee, term string) []Employee {
	needle := c.fold.String(term)
	out := make([]Employee, 0, len(records))
	for _, e := range records {
		for _, col := range Columns {
			if strings.Contains(c.fold.String(e.Field(col)), needle) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

func replaceOne(records []Employee, e Employee) []Employee {
	for i := range records {
		if records[i].Username == e.Username {
			out := slices.Clone(records)
			out[i] = e
			return out
		}
	}
	return records
}

func removeOne(records []Employee, username string) []Employee {
	for i := range records {
		if records[i].Username == username {
			return slices.Delete(slices.Clone(records), i, i+1)
		}
	}
	return records
}
