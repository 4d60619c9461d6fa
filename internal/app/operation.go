package app

import (
	"errors"
	"fmt"

	"github.com/tsg-Selina-Varshney/EMS/internal/ems"
)

// operationStatus maps the outcome of a tracked command to its recorded status.
func operationStatus(err error) string {
	switch {
	case err == nil:
		return ems.StatusSuccess
	case errors.Is(err, ems.ErrCancelled):
		return ems.StatusCancelled
	default:
		return ems.StatusError
	}
}

// track records one console operation around fn. Only commands that change
// something, locally or at the service, are tracked.
func (a *EMSApp) track(name, parameters string, fn func() error) error {
	op, err := a.db.CreateOperation(name, parameters, a.actor())
	if err != nil {
		return fmt.Errorf("recording operation: %w", err)
	}

	runErr := fn()
	status := operationStatus(runErr)
	if err := a.db.FinishOperation(op.ID, status); err != nil {
		a.logger.Warn("could not finish operation", "id", op.ID, "error", err)
		if runErr == nil {
			return fmt.Errorf("finishing operation: %w", err)
		}
	}
	a.logger.Info("operation finished", "operation", name, "status", status)
	return runErr
}

func (a *EMSApp) actor() string {
	if s := a.holder.User(); s != nil {
		return s.Username
	}
	return ""
}
