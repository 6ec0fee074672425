package tracing

import (
	"context"

	"contrib.go.opencensus.io/integrations/ocsql"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	ExecutionDuration = stats.Int64("aihub/tool_execution/duration", "Time spent waiting for a tool webhook", stats.UnitMilliseconds)
	ExecutionCount    = stats.Int64("aihub/tool_execution/count", "Finished tool executions", stats.UnitDimensionless)

	KeyToolID          = tag.MustNewKey("tool_id")
	KeyExecutionStatus = tag.MustNewKey("status")
)

var (
	ExecutionDurationView = &view.View{
		Name:        "aihub/tool_execution/duration",
		Description: "Distribution of tool execution durations",
		Measure:     ExecutionDuration,
		TagKeys:     []tag.Key{KeyToolID, KeyExecutionStatus},
		Aggregation: view.Distribution(250, 500, 1000, 2500, 5000, 10000, 30000, 60000, 120000, 300000),
	}

	ExecutionCountView = &view.View{
		Name:        "aihub/tool_execution/count",
		Description: "Tool executions by final status",
		Measure:     ExecutionCount,
		TagKeys:     []tag.Key{KeyToolID, KeyExecutionStatus},
		Aggregation: view.Count(),
	}
)

// RegisterViews registers the database views and the tool execution views
func RegisterViews() error {
	if err := view.Register(ocsql.DefaultViews...); err != nil {
		return err
	}
	return view.Register(ExecutionDurationView, ExecutionCountView)
}

// RecordExecution records one finished execution. Recording without registered views is a no-op.
func RecordExecution(ctx context.Context, toolID, status string, durationMs int64) {
	_ = stats.RecordWithTags(ctx,
		[]tag.Mutator{
			tag.Upsert(KeyToolID, toolID),
			tag.Upsert(KeyExecutionStatus, status),
		},
		ExecutionDuration.M(durationMs),
		ExecutionCount.M(1),
	)
}
