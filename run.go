// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tdm

import (
	"time"

	"code.hybscloud.com/kont"
)

// Step evaluates a task with error support until the first suspension.
// Returns (Either, nil) on completion or failure, or (zero, suspension)
// if a condition is pending.
func Step[R any](task kont.Expr[R]) (kont.Either[error, R], *kont.Suspension[kont.Either[error, R]]) {
	wrapped := kont.ExprMap(task, func(r R) kont.Either[error, R] {
		return kont.Right[error, R](r)
	})
	return kont.StepExpr(wrapped)
}

// Advance dispatches the suspended operation against the client.
// Suspension ops are non-blocking: on iox.ErrWouldBlock the suspension
// is returned unconsumed and may be retried after the session makes
// progress. Error ops are eager: a failure discards the suspension,
// releases all pending lock guards, and returns Left.
func Advance[R any](c *Client, susp *kont.Suspension[kont.Either[error, R]]) (kont.Either[error, R], *kont.Suspension[kont.Either[error, R]], error) {
	// Suspension ops: non-blocking condition try
	if cop, ok := susp.Op().(clientDispatcher); ok {
		v, err := cop.DispatchClient(c)
		if err != nil {
			var zero kont.Either[error, R]
			return zero, susp, err
		}
		result, next := susp.Resume(v)
		return result, next, nil
	}
	// Error ops: eager dispatch, scope-exit obligations before propagation
	if eop, ok := susp.Op().(interface {
		DispatchError(ctx *kont.ErrorContext[error]) (kont.Resumed, bool)
	}); ok {
		var ctx kont.ErrorContext[error]
		v, _ := eop.DispatchError(&ctx)
		if ctx.HasErr {
			susp.Discard()
			c.unwindGuards()
			return kont.Left[error, R](ctx.Err), nil, nil
		}
		result, next := susp.Resume(v)
		return result, next, nil
	}
	panic("tdm: unhandled effect in Advance")
}

// Drive trampolines a root task to completion. Each quantum tries the
// pending condition; if it is still pending, the session is pumped
// exactly once, and only a pump that made no progress sleeps the poll
// interval (shortened by the operation's delay hint near a deadline). A
// task that never suspends completes after a single quantum without
// touching the session.
//
// A failure raised inside the task propagates out of Drive after all
// lock-guard releases authored inside the task have run.
func Drive[R any](c *Client, task kont.Eff[R]) (R, error) {
	result, susp := Step[R](Reify(task))
	for susp != nil {
		var err error
		result, susp, err = Advance(c, susp)
		if err == nil {
			continue
		}
		if !c.session.Pump() {
			time.Sleep(pollDelay(susp.Op(), c.interval))
		}
	}
	if e, ok := result.GetLeft(); ok {
		var zero R
		return zero, e
	}
	r, _ := result.GetRight()
	return r, nil
}

// RunProgram constructs a root task from the supplied factory and drives
// it synchronously until completion, propagating any failure raised
// inside the task.
func RunProgram[R any](c *Client, program func(*Client) kont.Eff[R]) (R, error) {
	return Drive(c, program(c))
}

// pollDelay asks the pending operation how long the driver may sleep.
func pollDelay(op any, base time.Duration) time.Duration {
	if dh, ok := op.(delayHinter); ok {
		return dh.delayHint(base)
	}
	return base
}
