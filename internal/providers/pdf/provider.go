// Package pdf renders fleet reports for download.
package pdf

import (
	"context"
	"io"
)

type Provider interface {
	GenerateUsageReport(ctx context.Context, data ReportData) (io.Reader, error)
}
