package ems

import (
	"context"
	"io"
)

// API is the remote employee-directory service. It is the source of truth for
// every record; the console only holds copies.
type API interface {
	// Login exchanges credentials for a session.
	Login(ctx context.Context, username, password string) (*Session, error)

	// ListEmployees returns the full collection.
	ListEmployees(ctx context.Context) ([]Employee, error)

	// SortedEmployees returns the full collection ordered by column.
	SortedEmployees(ctx context.Context, column Column, desc bool) ([]Employee, error)

	// FilterEmployees returns the records whose column equals value exactly.
	FilterEmployees(ctx context.Context, column Column, value string) ([]Employee, error)

	// UniqueValues returns the distinct values of a column.
	UniqueValues(ctx context.Context, column Column) ([]string, error)

	// CreateEmployee creates a record. actor is the acting username.
	CreateEmployee(ctx context.Context, e Employee, actor string) error

	// UpdateEmployee replaces the record keyed by e.Username.
	UpdateEmployee(ctx context.Context, e Employee, actor string) error

	// DeleteEmployee removes the record keyed by username.
	DeleteEmployee(ctx context.Context, username string) error

	// AuditLog returns the audit entries.
	AuditLog(ctx context.Context) ([]AuditEntry, error)
}

// SessionStore persists the session between runs under SessionStorageKey.
type SessionStore interface {
	// Load returns the persisted session, or nil if none is stored.
	Load() (*Session, error)

	// Save replaces the persisted session.
	Save(s *Session) error

	// Clear removes the persisted session. Clearing an empty store is not an error.
	Clear() error
}

// Confirmer is the blocking yes/no gate in front of destructive operations.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(prompt string) (bool, error)

func (f ConfirmFunc) Confirm(prompt string) (bool, error) { return f(prompt) }

// AlwaysConfirm answers yes without asking. Used for --yes.
var AlwaysConfirm Confirmer = ConfirmFunc(func(string) (bool, error) { return true, nil })

// Encryptor protects persisted session data at rest.
type Encryptor interface {
	// Setup performs one-time key generation. Called during `ems config init`.
	Setup() error

	// Encrypt reads plaintext from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Decrypt reads ciphertext from r and writes plaintext to w.
	Decrypt(r io.Reader, w io.Writer) error

	// IsConfigured reports whether the key material exists.
	IsConfigured() bool
}

// ExportSink stores exported tables.
type ExportSink interface {
	// Put stores size bytes read from r under name.
	Put(ctx context.Context, name string, r io.Reader, size int64) error

	// Location describes where name ends up, for display.
	Location(name string) string
}
