package ports

import (
	"context"
	"io"

	"bayesim/domain/sampling"
	"bayesim/domain/stats"
)

// BatchExporterPort writes a finished batch and its summary to a document.
type BatchExporterPort interface {
	Export(ctx context.Context, w io.Writer, batch sampling.Batch, summary stats.Summary) error
}
