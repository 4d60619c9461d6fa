package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tsg-Selina-Varshney/EMS/internal/api"
	"github.com/tsg-Selina-Varshney/EMS/internal/config"
	"github.com/tsg-Selina-Varshney/EMS/internal/database"
	"github.com/tsg-Selina-Varshney/EMS/internal/ems"
	"github.com/tsg-Selina-Varshney/EMS/internal/encryption"
	"github.com/tsg-Selina-Varshney/EMS/internal/export"
	"github.com/tsg-Selina-Varshney/EMS/internal/session"
)

// Options adjust how an EMSApp is wired. The zero value is what the CLI uses,
// apart from Confirmer.
type Options struct {
	// Confirmer gates deletes. Nil declines every delete.
	Confirmer ems.Confirmer
	// Clock defaults to the real clock.
	Clock ems.Clock
	// IDs generates request IDs; defaults to random UUIDs.
	IDs ems.IDGenerator
	// Sink replaces the sink built from the [export] section.
	Sink ems.ExportSink
	// Verbose echoes log records to stderr.
	Verbose bool
}

// EMSApp is the application layer between the CLI and the ems views.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw strings, and manages the DB lifecycle on Close.
type EMSApp struct {
	cfg       *config.Config
	db        *database.SQLiteDatabase
	encryptor ems.Encryptor
	holder    *ems.Holder
	client    *api.Client
	view      *ems.ViewController
	audit     *ems.AuditView
	sink      ems.ExportSink
	clock     ems.Clock
	logger    ems.Logger
	logFile   *os.File
}

// NewEMSApp creates a fully wired EMSApp from the given config.
// operation identifies the CLI command being run and tags its log lines.
// The caller must call Close when done.
func NewEMSApp(cfg *config.Config, operation string, opts Options) (*EMSApp, error) {
	if opts.Clock == nil {
		opts.Clock = ems.RealClock{}
	}
	if opts.IDs == nil {
		opts.IDs = ems.UUIDGenerator{}
	}
	if opts.Confirmer == nil {
		opts.Confirmer = ems.ConfirmFunc(func(string) (bool, error) { return false, nil })
	}

	opID := opts.Clock.Now().UTC().Format("20060102T150405Z") + "-" + operation
	slogger, logFile, err := newLogger(cfg.LogDir, opID, opts.Verbose)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	a := &EMSApp{cfg: cfg, sink: opts.Sink, clock: opts.Clock, logger: logger, logFile: logFile}
	if err := a.wire(opts); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *EMSApp) wire(opts Options) error {
	db, err := database.NewDatabaseFromConfig(a.cfg.Database, a.clock)
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	a.db = db

	if err := db.CheckMigrations(); err != nil {
		return fmt.Errorf("database schema out of date: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(a.cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}
	if a.cfg.Session.Encrypt && enc != nil && !enc.IsConfigured() {
		return fmt.Errorf("session encryption keys missing: run `ems config init`")
	}
	a.encryptor = enc

	store, err := session.NewStoreFromConfig(a.cfg.Session, enc, db)
	if err != nil {
		return fmt.Errorf("creating session store: %w", err)
	}

	a.holder = ems.NewHolder(store, a.clock, a.logger)
	if err := a.holder.Init(); err != nil {
		// An unreadable session is dropped rather than locking the user out.
		a.logger.Warn("discarding unreadable session", "error", err)
		if err := store.Clear(); err != nil {
			return fmt.Errorf("clearing session: %w", err)
		}
	}

	client, err := api.NewClient(a.cfg.API, a.holder, opts.IDs, a.logger)
	if err != nil {
		return fmt.Errorf("creating api client: %w", err)
	}
	a.client = client

	a.view = ems.NewViewController(client, a.holder, opts.Confirmer, ems.NewValidator(a.clock), a.logger)
	a.audit = ems.NewAuditView(client, a.holder, a.logger)
	return nil
}

// Holder returns the session holder shared by all views.
func (a *EMSApp) Holder() *ems.Holder { return a.holder }

// View returns the employee view controller.
func (a *EMSApp) View() *ems.ViewController { return a.view }

// Login exchanges credentials for a session and persists it.
func (a *EMSApp) Login(ctx context.Context, username, password string) (*ems.Session, error) {
	var s *ems.Session
	err := a.track("login", strings.TrimSpace(username), func() error {
		var err error
		s, err = ems.Login(ctx, a.client, a.holder, username, password)
		return err
	})
	return s, err
}

// Logout drops the session.
func (a *EMSApp) Logout() error {
	return a.track("logout", "", func() error {
		return ems.Logout(a.holder)
	})
}

// WhoAmI returns the current session.
func (a *EMSApp) WhoAmI() (*ems.Session, error) {
	return a.holder.Require()
}

// Query selects what ListEmployees shows. Filter and Search are exclusive.
type Query struct {
	Sort   ems.Column
	Desc   bool
	Filter ems.Filter
	Search string
}

// ListEmployees loads the directory and applies q.
func (a *EMSApp) ListEmployees(ctx context.Context, q Query) ([]ems.Employee, error) {
	if q.Filter.Active() && q.Search != "" {
		return nil, errors.New("filter and search cannot be combined")
	}
	if err := a.view.Load(ctx, q.Sort, !q.Desc); err != nil {
		return nil, err
	}
	switch {
	case q.Filter.Active():
		if err := a.view.Filter(ctx, q.Filter.Column, q.Filter.Value); err != nil {
			return nil, err
		}
	case q.Search != "":
		if err := a.view.Search(q.Search); err != nil {
			return nil, err
		}
	}
	return a.view.Rows()
}

// AddEmployee validates draft against the current department and designation
// choices and creates it.
func (a *EMSApp) AddEmployee(ctx context.Context, draft ems.Employee) error {
	return a.track("add", draft.Username, func() error {
		if _, err := a.view.LoadOptions(ctx); err != nil {
			return err
		}
		return a.view.Create(ctx, draft)
	})
}

// EditEmployee applies changes to the record keyed by username and submits it.
func (a *EMSApp) EditEmployee(ctx context.Context, username string, changes map[ems.Column]string) error {
	return a.track("edit", username, func() error {
		record, err := a.lookup(ctx, username)
		if err != nil {
			return err
		}
		for field, value := range changes {
			if field == ems.ColumnUsername || field == ems.FieldPassword {
				return fmt.Errorf("%s cannot be changed", field.Label())
			}
			if err := record.Set(field, value); err != nil {
				return err
			}
		}
		if _, err := a.view.LoadOptions(ctx); err != nil {
			return err
		}
		return a.view.Update(ctx, record)
	})
}

// DeleteEmployee deletes the record keyed by username after confirmation.
func (a *EMSApp) DeleteEmployee(ctx context.Context, username string) error {
	return a.track("delete", username, func() error {
		if _, err := a.lookup(ctx, username); err != nil {
			return err
		}
		return a.view.Delete(ctx, username)
	})
}

// lookup finds username in the loaded view, loading it first when the record
// is not there yet.
func (a *EMSApp) lookup(ctx context.Context, username string) (ems.Employee, error) {
	if record, ok := a.view.Get(username); ok {
		return record, nil
	}
	if err := a.view.Load(ctx, "", true); err != nil {
		return ems.Employee{}, err
	}
	record, ok := a.view.Get(username)
	if !ok {
		return ems.Employee{}, fmt.Errorf("%w: %s", ems.ErrNotFound, username)
	}
	return record, nil
}

// UniqueValues lists the distinct values of column.
func (a *EMSApp) UniqueValues(ctx context.Context, column ems.Column) ([]string, error) {
	if _, err := a.holder.Require(); err != nil {
		return nil, err
	}
	values, err := a.client.UniqueValues(ctx, column)
	if err != nil {
		return nil, fmt.Errorf("listing %s values: %w", column, err)
	}
	return values, nil
}

// AuditLog returns the audit entries.
func (a *EMSApp) AuditLog(ctx context.Context) ([]ems.AuditEntry, error) {
	if err := a.audit.Load(ctx); err != nil {
		return nil, err
	}
	return a.audit.Entries()
}

// Export targets.
const (
	ExportEmployees = "employees"
	ExportAudit     = "audit"
)

// Export writes the employee directory or the audit log to the configured
// sink and returns where it went.
func (a *EMSApp) Export(ctx context.Context, what string) (string, error) {
	var location string
	err := a.track("export", what, func() error {
		var table ems.Table
		switch what {
		case ExportEmployees:
			rows, err := a.ListEmployees(ctx, Query{})
			if err != nil {
				return err
			}
			table = ems.EmployeeTable(rows)
		case ExportAudit:
			entries, err := a.AuditLog(ctx)
			if err != nil {
				return err
			}
			table = ems.AuditTable(entries)
		default:
			return fmt.Errorf("unknown export: %q (want %s or %s)", what, ExportEmployees, ExportAudit)
		}

		sink, err := a.exportSink(ctx)
		if err != nil {
			return err
		}
		location, err = export.Write(ctx, sink, table, a.cfg.Export.Format, a.clock)
		return err
	})
	return location, err
}

// exportSink builds the sink on first use so commands that never export do
// not load cloud credentials.
func (a *EMSApp) exportSink(ctx context.Context) (ems.ExportSink, error) {
	if a.sink != nil {
		return a.sink, nil
	}
	sink, err := export.NewSinkFromConfig(ctx, a.cfg.Export)
	if err != nil {
		return nil, fmt.Errorf("creating export sink: %w", err)
	}
	a.sink = sink
	return sink, nil
}

// History returns the most recent console operations.
func (a *EMSApp) History(limit int) ([]*ems.Operation, error) {
	return ems.History(a.db, limit)
}

// Close releases the session observers, the database and the log file.
func (a *EMSApp) Close() error {
	var firstErr error

	if a.holder != nil {
		a.holder.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			firstErr = fmt.Errorf("closing database: %w", err)
		}
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
