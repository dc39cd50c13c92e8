package temporal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/webpulse/webpulse/internal/config"
	"github.com/webpulse/webpulse/internal/observability"
	"github.com/webpulse/webpulse/internal/workflows"
)

// Client wraps the Temporal SDK client with the comparison workflow bindings
type Client struct {
	client.Client
	logger    *zap.Logger
	taskQueue string
}

// NewClient creates a new Temporal client
func NewClient(cfg config.TemporalConfig, logger *zap.Logger) (*Client, error) {
	options := client.Options{
		HostPort:  cfg.Address(),
		Namespace: cfg.Namespace,
		Logger:    NewZapAdapter(logger),
	}

	c, err := client.Dial(options)
	if err != nil {
		return nil, fmt.Errorf("failed to create Temporal client: %w", err)
	}

	return &Client{
		Client:    c,
		logger:    logger,
		taskQueue: cfg.TaskQueue,
	}, nil
}

// StartComparison dispatches the competitor comparison workflow. Implements
// the starter interface the competitor service uses; the comparison record
// already exists in the analyzing state when this is called.
func (c *Client) StartComparison(ctx context.Context, comparisonID, userReportID uuid.UUID, userDomain string) error {
	options := client.StartWorkflowOptions{
		ID:        fmt.Sprintf("comparison-%s", comparisonID),
		TaskQueue: c.taskQueue,
	}

	input := workflows.ComparisonInput{
		ComparisonID: comparisonID,
		UserReportID: userReportID,
		UserDomain:   userDomain,
	}

	run, err := c.ExecuteWorkflow(ctx, options, workflows.CompetitorComparisonWorkflow, input)
	if err != nil {
		return fmt.Errorf("failed to start comparison workflow: %w", err)
	}

	observability.GetMetrics().RecordWorkflowStart("CompetitorComparisonWorkflow")
	c.logger.Info("comparison workflow started",
		zap.String("workflow_id", run.GetID()),
		zap.String("run_id", run.GetRunID()))
	return nil
}

// ZapAdapter adapts zap.Logger to Temporal's log interface
type ZapAdapter struct {
	logger *zap.Logger
}

// NewZapAdapter creates a new Temporal logger adapter
func NewZapAdapter(logger *zap.Logger) *ZapAdapter {
	return &ZapAdapter{logger: logger.Named("temporal")}
}

func (z *ZapAdapter) Debug(msg string, keyvals ...interface{}) {
	z.logger.Debug(msg, toZapFields(keyvals)...)
}

func (z *ZapAdapter) Info(msg string, keyvals ...interface{}) {
	z.logger.Info(msg, toZapFields(keyvals)...)
}

func (z *ZapAdapter) Warn(msg string, keyvals ...interface{}) {
	z.logger.Warn(msg, toZapFields(keyvals)...)
}

func (z *ZapAdapter) Error(msg string, keyvals ...interface{}) {
	z.logger.Error(msg, toZapFields(keyvals)...)
}

func toZapFields(keyvals []interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keyvals)/2)
	for i := 0; i < len(keyvals)-1; i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, keyvals[i+1]))
	}
	return fields
}
