package export

import (
	"context"
	"fmt"

	"github.com/tsg-Selina-Varshney/EMS/internal/config"
	"github.com/tsg-Selina-Varshney/EMS/internal/ems"
)

// NewSinkFromConfig creates an ExportSink based on the export config type.
func NewSinkFromConfig(ctx context.Context, cfg config.ExportConfig) (ems.ExportSink, error) {
	switch cfg.Format {
	case "", FormatCSV, FormatXLSX:
	default:
		return nil, fmt.Errorf("unknown export format: %s", cfg.Format)
	}

	switch cfg.Type {
	case "memory":
		return NewMemorySink(), nil
	case "s3":
		return NewS3Sink(ctx, cfg)
	case "filesystem", "":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("filesystem export requires dir to be set")
		}
		return NewFileSystemSink(cfg.Dir)
	default:
		return nil, fmt.Errorf("unknown export type: %s", cfg.Type)
	}
}
