package agent

import (
	"context"
	"time"

	"ai-investor/internal/logger"
	"ai-investor/internal/tools"
	"ai-investor/internal/trace"
	"ai-investor/internal/types"
)

// StopReason records why a run ended.
type StopReason string

const (
	StopFinalAnswer   StopReason = "final_answer"
	StopMaxIterations StopReason = "max_iterations"
	StopCancelled     StopReason = "cancelled"
	StopPlannerError  StopReason = "planner_error"
)

// DefaultMaxIterations bounds a run when the config does not.
const DefaultMaxIterations = 25

// Result is the outcome of one agent run. Invocations always reflects every
// tool call that was attempted, in call order, whatever the stop reason.
type Result struct {
	FinalAnswer string
	StopReason  StopReason
	Iterations  int
	Invocations []types.ToolInvocation
	Elapsed     time.Duration
}

// Loop drives planner rounds against the executor.
type Loop struct {
	planner       Planner
	executor      *tools.Executor
	maxIterations int
}

func NewLoop(planner Planner, executor *tools.Executor, maxIterations int) *Loop {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Loop{planner: planner, executor: executor, maxIterations: maxIterations}
}

// Run executes the loop until the planner answers, the iteration ceiling is
// hit, the context is cancelled, or the planner fails. In-flight tool calls
// are never interrupted; cancellation takes effect between calls.
func (l *Loop) Run(ctx context.Context, goal string) (Result, error) {
	ctx, span := trace.StartSpan(ctx, "agent-run")
	defer span.End()

	start := time.Now()
	tr := &Transcript{Goal: goal}
	result := Result{StopReason: StopMaxIterations}
	seq := 0

	logger.Info(ctx, "Agent run started", "max_iterations", l.maxIterations)

	for i := 1; i <= l.maxIterations; i++ {
		if ctx.Err() != nil {
			result.StopReason = StopCancelled
			break
		}
		result.Iterations = i

		action, err := l.planner.NextAction(ctx, tr)
		if err != nil {
			result.StopReason = StopPlannerError
			result.Elapsed = time.Since(start)
			logger.ErrorWithErr(ctx, "Planner failed", err, "iteration", i)
			return result, err
		}

		if action.Final() {
			result.StopReason = StopFinalAnswer
			result.FinalAnswer = action.FinalAnswer
			break
		}

		step := Step{Raw: action.Raw, ToolCalls: action.ToolCalls}
		for _, call := range action.ToolCalls {
			if ctx.Err() != nil {
				result.StopReason = StopCancelled
				result.Elapsed = time.Since(start)
				logger.Warn(ctx, "Agent run cancelled mid-round", "iteration", i)
				return result, nil
			}
			seq++
			obs := Observation{ID: call.ID}
			payload, err := l.executor.Execute(ctx, call.Name, call.Args)
			inv := types.ToolInvocation{Seq: seq, Name: call.Name, Args: call.Args}
			if err != nil {
				obs.IsError = true
				obs.Error = err.Error()
				inv.Error = err.Error()
			} else {
				obs.Content = payload
				inv.Success = true
				inv.Result = payload
			}
			step.Observations = append(step.Observations, obs)
			result.Invocations = append(result.Invocations, inv)
		}
		tr.Steps = append(tr.Steps, step)
	}

	result.Elapsed = time.Since(start)
	logger.Info(ctx, "Agent run finished",
		"stop_reason", string(result.StopReason),
		"iterations", result.Iterations,
		"tool_calls", len(result.Invocations),
		"elapsed_ms", result.Elapsed.Milliseconds(),
	)
	return result, nil
}
