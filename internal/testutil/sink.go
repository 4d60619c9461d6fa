package testutil

import (
	"github.com/tsg-Selina-Varshney/EMS/internal/export"
)

// NewTestSink creates an in-memory export sink.
func NewTestSink() *export.MemorySink {
	return export.NewMemorySink()
}
