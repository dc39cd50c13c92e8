package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// Activity names - must match registered activity names
const (
	DiscoveryActivityName = "DiscoverCompetitors"
	BatchActivityName     = "AnalyzeCompetitors"
	CompareActivityName   = "CompareCompetitors"
	FailActivityName      = "FailComparison"
)

// CompetitorComparisonWorkflow drives one comparison through discovery,
// batch analysis, and comparative analysis. The comparison record is already
// persisted in the analyzing state when the workflow starts; this workflow
// only ever moves it forward to completed or failed.
func CompetitorComparisonWorkflow(ctx workflow.Context, input ComparisonInput) (*ComparisonOutput, error) {
	logger := workflow.GetLogger(ctx)
	startTime := workflow.Now(ctx)

	logger.Info("Starting competitor comparison workflow",
		"comparison_id", input.ComparisonID.String(),
		"user_domain", input.UserDomain,
	)

	output := &ComparisonOutput{
		ComparisonID: input.ComparisonID,
		Status:       "analyzing",
	}

	finish := func(status, errMsg string) (*ComparisonOutput, error) {
		output.Status = status
		output.Error = errMsg
		output.CompletedAt = workflow.Now(ctx)
		output.TotalDuration = output.CompletedAt.Sub(startTime)
		return output, nil
	}

	// Phase 1: Discovery
	discovery, err := executeDiscovery(ctx, input)
	if err != nil {
		recordFailure(ctx, input, fmt.Sprintf("discovery failed: %v", err))
		return finish("failed", err.Error())
	}
	logger.Info("Discovery completed",
		"candidates", len(discovery.Candidates),
		"fallback", discovery.Fallback,
	)

	// Phase 2: Batch analysis
	batch, err := executeBatch(ctx, input, discovery)
	if err != nil {
		recordFailure(ctx, input, fmt.Sprintf("batch analysis failed: %v", err))
		return finish("failed", err.Error())
	}
	output.Competitors = len(batch.Entries)
	logger.Info("Batch analysis completed", "entries", len(batch.Entries))

	// Phase 3: Comparative analysis
	compared, err := executeCompare(ctx, input)
	if err != nil {
		recordFailure(ctx, input, fmt.Sprintf("comparative analysis failed: %v", err))
		return finish("failed", err.Error())
	}
	logger.Info("Competitor comparison workflow completed",
		"comparison_id", input.ComparisonID.String(),
		"position", compared.Position,
	)

	return finish("completed", "")
}

func executeDiscovery(ctx workflow.Context, input ComparisonInput) (*DiscoveryOutput, error) {
	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    2,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions)

	var output DiscoveryOutput
	err := workflow.ExecuteActivity(ctx, DiscoveryActivityName, DiscoveryInput{
		ComparisonID: input.ComparisonID,
		UserDomain:   input.UserDomain,
	}).Get(ctx, &output)
	return &output, err
}

func executeBatch(ctx workflow.Context, input ComparisonInput, discovery *DiscoveryOutput) (*BatchOutput, error) {
	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 3 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    2,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions)

	var output BatchOutput
	err := workflow.ExecuteActivity(ctx, BatchActivityName, BatchInput{
		ComparisonID: input.ComparisonID,
		Candidates:   discovery.Candidates,
	}).Get(ctx, &output)
	return &output, err
}

func executeCompare(ctx workflow.Context, input ComparisonInput) (*CompareOutput, error) {
	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions)

	var output CompareOutput
	err := workflow.ExecuteActivity(ctx, CompareActivityName, CompareInput{
		ComparisonID: input.ComparisonID,
		UserReportID: input.UserReportID,
	}).Get(ctx, &output)
	return &output, err
}

// recordFailure flips the persisted record to failed. Best effort; the
// workflow result carries the error either way.
func recordFailure(ctx workflow.Context, input ComparisonInput, reason string) {
	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: time.Second,
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions)

	err := workflow.ExecuteActivity(ctx, FailActivityName, FailInput{
		ComparisonID: input.ComparisonID,
		Reason:       reason,
	}).Get(ctx, nil)
	if err != nil {
		workflow.GetLogger(ctx).Error("recording comparison failure failed", "error", err)
	}
}
