package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opencensus.io/stats/view"
)

func TestRecordExecution(t *testing.T) {
	require.NoError(t, view.Register(ExecutionCountView, ExecutionDurationView))
	defer view.Unregister(ExecutionCountView, ExecutionDurationView)

	RecordExecution(context.Background(), "tool-1", "completed", 1200)
	RecordExecution(context.Background(), "tool-1", "completed", 800)
	RecordExecution(context.Background(), "tool-1", "error", 50)

	rows, err := view.RetrieveData(ExecutionCountView.Name)
	require.NoError(t, err)

	counts := map[string]int64{}
	for _, row := range rows {
		for _, tg := range row.Tags {
			if tg.Key == KeyExecutionStatus {
				counts[tg.Value] = row.Data.(*view.CountData).Value
			}
		}
	}
	assert.Equal(t, int64(2), counts["completed"])
	assert.Equal(t, int64(1), counts["error"])

	rows, err = view.RetrieveData(ExecutionDurationView.Name)
	require.NoError(t, err)
	assert.NotEmpty(t, rows)
}

func TestRecordExecution_WithoutViews(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordExecution(context.Background(), "tool-1", "completed", 10)
	})
}
