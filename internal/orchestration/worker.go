package orchestration

import (
	"context"
	"fmt"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/aiuml/api/internal/models"
)

// NewWorker registers the analysis workflow and activities on TaskQueue.
func NewWorker(c client.Client, acts *Activities) worker.Worker {
	w := worker.New(c, TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize: 4,
	})
	w.RegisterWorkflow(AnalyzeProjectWorkflow)
	w.RegisterActivity(acts)
	return w
}

// Status describes an async analysis.
type Status struct {
	WorkflowID string                 `json:"workflow_id"`
	RunID      string                 `json:"run_id"`
	State      string                 `json:"state"`
	Output     *models.AnalysisOutput `json:"output,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

// Runner starts and inspects analysis workflows.
type Runner struct {
	c client.Client
}

func NewRunner(c client.Client) *Runner {
	return &Runner{c: c}
}

// Start launches the workflow under workflowID.
func (r *Runner) Start(ctx context.Context, workflowID string, in models.AnalysisInput) (string, error) {
	run, err := r.c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: TaskQueue,
	}, AnalyzeProjectWorkflow, in)
	if err != nil {
		return "", fmt.Errorf("start workflow: %w", err)
	}
	return run.GetRunID(), nil
}

// Status returns the current state, with the output once completed.
func (r *Runner) Status(ctx context.Context, workflowID string) (*Status, error) {
	desc, err := r.c.DescribeWorkflowExecution(ctx, workflowID, "")
	if err != nil {
		return nil, fmt.Errorf("describe workflow: %w", err)
	}

	info := desc.GetWorkflowExecutionInfo()
	st := &Status{
		WorkflowID: workflowID,
		RunID:      info.GetExecution().GetRunId(),
		State:      info.GetStatus().String(),
	}

	switch info.GetStatus() {
	case enumspb.WORKFLOW_EXECUTION_STATUS_COMPLETED:
		var out models.AnalysisOutput
		if err := r.c.GetWorkflow(ctx, workflowID, st.RunID).Get(ctx, &out); err != nil {
			return nil, fmt.Errorf("workflow result: %w", err)
		}
		st.Output = &out
	case enumspb.WORKFLOW_EXECUTION_STATUS_FAILED,
		enumspb.WORKFLOW_EXECUTION_STATUS_TIMED_OUT,
		enumspb.WORKFLOW_EXECUTION_STATUS_TERMINATED,
		enumspb.WORKFLOW_EXECUTION_STATUS_CANCELED:
		if err := r.c.GetWorkflow(ctx, workflowID, st.RunID).Get(ctx, nil); err != nil {
			st.Error = err.Error()
		}
	}
	return st, nil
}
