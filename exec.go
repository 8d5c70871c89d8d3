// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tdm

import (
	"time"

	"code.hybscloud.com/kont"
)

// clientHandler handles both suspension and error effects for the
// blocking evaluation path. Suspension ops wait past the pending
// boundary via pump-and-poll; error ops short-circuit, running owed
// lock-guard releases first.
type clientHandler[R any] struct {
	c      *Client
	errCtx *kont.ErrorContext[error]
}

// Dispatch implements kont.Handler via structural interface assertion.
// Dispatch order: suspension → error.
func (h clientHandler[R]) Dispatch(op kont.Operation) (kont.Resumed, bool) {
	if cop, ok := op.(clientDispatcher); ok {
		return dispatchWait(h.c, cop), true
	}
	if eop, ok := op.(interface {
		DispatchError(ctx *kont.ErrorContext[error]) (kont.Resumed, bool)
	}); ok {
		v, _ := eop.DispatchError(h.errCtx)
		if h.errCtx.HasErr {
			h.c.unwindGuards()
			return kont.Left[error, R](h.errCtx.Err), false
		}
		return v, true
	}
	panic("tdm: unhandled effect in clientHandler")
}

// dispatchWait blocks until the operation's condition is satisfied,
// pumping the session once per tick and sleeping the poll interval only
// when the pump made no progress.
func dispatchWait(c *Client, cop clientDispatcher) kont.Resumed {
	for {
		v, err := cop.DispatchClient(c)
		if err == nil {
			return v
		}
		if !c.session.Pump() {
			time.Sleep(pollDelay(cop, c.interval))
		}
	}
}

// Exec runs a task to completion on the client via the synchronous
// effect-handler trampoline. Equivalent to [Drive] for tasks that are
// not stepped externally.
func Exec[R any](c *Client, task kont.Eff[R]) (R, error) {
	wrapped := kont.Map[kont.Resumed, R, kont.Either[error, R]](task, func(r R) kont.Either[error, R] {
		return kont.Right[error, R](r)
	})
	var errCtx kont.ErrorContext[error]
	result := kont.Handle(wrapped, clientHandler[R]{c: c, errCtx: &errCtx})
	if e, ok := result.GetLeft(); ok {
		var zero R
		return zero, e
	}
	r, _ := result.GetRight()
	return r, nil
}
