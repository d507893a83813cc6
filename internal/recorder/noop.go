package recorder

import (
	"context"

	"github.com/apresai/creatorpilot/internal/progress"
)

// NoopRecorder is used when history is disabled.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordMessage(context.Context, Entry) error { return nil }

func (n *NoopRecorder) RecentMessages(context.Context, string, int) ([]Entry, error) {
	return nil, nil
}

func (n *NoopRecorder) RecordReport(context.Context, progress.Report) error { return nil }

func (n *NoopRecorder) Reports(context.Context, int) ([]ReportRow, error) { return nil, nil }

func (n *NoopRecorder) Close() error { return nil }
