package ems

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// AuditView shows the remote audit log. Like the record view it fails
// closed: after a failed load no entries are shown.
type AuditView struct {
	api    API
	holder *Holder
	logger Logger

	mu      sync.Mutex
	seq     uint64
	entries []AuditEntry
	loadErr error
	loaded  bool
}

func NewAuditView(api API, holder *Holder, logger Logger) *AuditView {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &AuditView{api: api, holder: holder, logger: logger}
}

// Load fetches the audit log.
func (v *AuditView) Load(ctx context.Context) error {
	if _, err := v.holder.Require(); err != nil {
		return err
	}

	v.mu.Lock()
	v.seq++
	ticket := v.seq
	v.mu.Unlock()

	entries, err := v.api.AuditLog(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if ticket != v.seq {
		return ErrSuperseded
	}
	v.loaded = true
	if err != nil {
		v.entries = nil
		v.loadErr = fmt.Errorf("loading audit log: %w", err)
		return v.loadErr
	}
	v.loadErr = nil
	v.entries = entries
	v.logger.Debug("audit log loaded", "entries", len(entries))
	return nil
}

// Entries returns the loaded entries, or the error of the last load.
func (v *AuditView) Entries() ([]AuditEntry, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.loadErr != nil {
		return nil, v.loadErr
	}
	return slices.Clone(v.entries), nil
}
