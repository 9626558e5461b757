package orchestration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/aiuml/api/internal/gemini"
	"github.com/aiuml/api/internal/models"
	"github.com/aiuml/api/internal/projects"
	"github.com/aiuml/api/internal/store"
)

// TaskQueue is the queue the analysis worker polls.
const TaskQueue = "aiuml-analysis"

const workflowIDPrefix = "analysis-"

// WorkflowID builds a workflow id scoped to userID.
func WorkflowID(userID uuid.UUID) string {
	return workflowIDPrefix + userID.String() + "-" + uuid.NewString()
}

// OwnedBy reports whether workflowID was started by userID.
func OwnedBy(workflowID string, userID uuid.UUID) bool {
	return strings.HasPrefix(workflowID, workflowIDPrefix+userID.String()+"-")
}

// Activities wraps the project service for the worker.
type Activities struct {
	Projects *projects.Service
}

// AnalyzeProject runs and stores one project analysis. Errors that a
// retry cannot fix are marked non-retryable.
func (a *Activities) AnalyzeProject(ctx context.Context, in models.AnalysisInput) (models.AnalysisOutput, error) {
	logger := activity.GetLogger(ctx)

	projectID, err := uuid.Parse(in.ProjectID)
	if err != nil {
		return models.AnalysisOutput{}, temporal.NewNonRetryableApplicationError("invalid project id", "InvalidInput", err)
	}
	userID, err := uuid.Parse(in.UserID)
	if err != nil {
		return models.AnalysisOutput{}, temporal.NewNonRetryableApplicationError("invalid user id", "InvalidInput", err)
	}

	run, err := a.Projects.Analyze(ctx, userID, projectID, in.Kind, in.Notation, "workflow")
	switch {
	case errors.Is(err, gemini.ErrMissingCredential):
		return models.AnalysisOutput{}, temporal.NewNonRetryableApplicationError(err.Error(), "ConfigurationError", err)
	case errors.Is(err, store.ErrNotFound), errors.Is(err, projects.ErrNoRequirements):
		return models.AnalysisOutput{}, temporal.NewNonRetryableApplicationError(err.Error(), "InvalidInput", err)
	case err != nil:
		return models.AnalysisOutput{}, fmt.Errorf("analyze project: %w", err)
	}

	logger.Info("analysis activity completed", "ProjectID", in.ProjectID, "Degraded", run.Stored.Diagram.Degraded)
	return models.AnalysisOutput{
		ProjectID: in.ProjectID,
		DiagramID: run.Stored.Diagram.ID.String(),
		Degraded:  run.Stored.Diagram.Degraded,
		Patterns:  len(run.Stored.Patterns),
	}, nil
}

// AnalyzeProjectWorkflow runs the analysis activity with retries for
// storage and transport failures.
func AnalyzeProjectWorkflow(ctx workflow.Context, in models.AnalysisInput) (models.AnalysisOutput, error) {
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    5 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    3,
		},
	})

	var a *Activities
	var out models.AnalysisOutput
	if err := workflow.ExecuteActivity(ctx, a.AnalyzeProject, in).Get(ctx, &out); err != nil {
		return models.AnalysisOutput{}, err
	}

	workflow.GetLogger(ctx).Info("analysis workflow completed", "ProjectID", in.ProjectID, "DiagramID", out.DiagramID)
	return out, nil
}
