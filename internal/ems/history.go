package ems

import (
	"fmt"
	"time"
)

const (
	StatusRunning   = "running"
	StatusSuccess   = "success"
	StatusError     = "error"
	StatusCancelled = "cancelled" // declined at confirmation
)

// Operation is one recorded console command that changed something, locally
// or at the service.
type Operation struct {
	ID         int64
	Name       string
	Parameters string
	Username   string
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     string
}

// Persisted reports whether the operation has been written to an OperationLog.
func (op *Operation) Persisted() bool {
	return op.ID != 0
}

// OperationLog stores the local history of console operations.
type OperationLog interface {
	// CreateOperation records a started operation and returns it with its ID set.
	CreateOperation(name, parameters, username string) (*Operation, error)

	// FinishOperation marks the operation finished with status.
	FinishOperation(id int64, status string) error

	// ListOperations returns at most limit operations, newest first.
	ListOperations(limit int) ([]*Operation, error)
}

// History returns the most recent operations, newest first.
func History(log OperationLog, limit int) ([]*Operation, error) {
	if limit <= 0 {
		limit = 20
	}
	ops, err := log.ListOperations(limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}
