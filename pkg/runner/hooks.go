package runner

import "context"

// Hooks receives step events as a run progresses. Calls happen on the
// goroutine running the steps, one at a time. Dry runs emit no events.
type Hooks interface {
	// OnStepStart is called before a step's command runs.
	OnStepStart(ctx context.Context, s StepResult)
	// OnStepComplete is called after a step's command exits; err is nil
	// on success.
	OnStepComplete(ctx context.Context, s StepResult, err error)
	// OnGroupSkipped is called for a group bypassed by its resume marker.
	OnGroupSkipped(ctx context.Context, group string)
}

// NoopHooks ignores every event.
type NoopHooks struct{}

func (NoopHooks) OnStepStart(context.Context, StepResult)           {}
func (NoopHooks) OnStepComplete(context.Context, StepResult, error) {}
func (NoopHooks) OnGroupSkipped(context.Context, string)            {}
