package orchestrator

import (
	"context"
	"time"
)

// deadlineMargin is subtracted from the host deadline so in-flight uploads
// have room to finish before the host kills the process (spec §4.5: "the
// total run budget is derived from the execution host's deadline minus a
// 30-second safety margin").
const deadlineMargin = 30 * time.Second

// applyDeadlineMargin derives a run deadline deadlineMargin earlier than
// ctx's own deadline. A CLI invocation typically carries no deadline at
// all, in which case this just wraps ctx in a cancellable context.
func applyDeadlineMargin(ctx context.Context) (context.Context, context.CancelFunc) {
	deadline, ok := ctx.Deadline()
	if !ok {
		return context.WithCancel(ctx)
	}
	return context.WithDeadline(ctx, deadline.Add(-deadlineMargin))
}
