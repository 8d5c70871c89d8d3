// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tdm

import (
	"time"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// clientDispatcher is the structural interface for suspension
// operations. DispatchClient is non-blocking: it tries the operation's
// condition against the client and returns iox.ErrWouldBlock while the
// condition is pending. The driver pumps the session and retries.
type clientDispatcher interface {
	DispatchClient(c *Client) (kont.Resumed, error)
}

// delayHinter lets an operation shorten the driver's sleep between poll
// ticks, e.g. as a sleep deadline approaches.
type delayHinter interface {
	delayHint(base time.Duration) time.Duration
}

// Forever requests an unbounded sleep, terminated only by a wake
// predicate.
const Forever time.Duration = -1

// Sleep is the effect operation for a timed suspension. It resumes once
// wall-clock elapsed reaches Duration, or never if Duration is negative,
// or as soon as Wake (if set) reports true. The elapsed clock starts at
// the first dispatch attempt. Performed via pointer so the start time
// survives across poll ticks.
type Sleep struct {
	kont.Phantom[struct{}]
	Duration time.Duration
	Wake     func() bool

	t0 time.Time
}

// DispatchClient handles Sleep. Pending until the deadline or wake
// predicate is reached.
func (s *Sleep) DispatchClient(*Client) (kont.Resumed, error) {
	if s.t0.IsZero() {
		s.t0 = time.Now()
	}
	if s.Wake != nil && s.Wake() {
		return struct{}{}, nil
	}
	if s.Duration >= 0 && time.Since(s.t0) >= s.Duration {
		return struct{}{}, nil
	}
	return nil, iox.ErrWouldBlock
}

// delayHint shortens the poll sleep as the deadline approaches, so
// overshoot is bounded by the remaining time rather than the base
// interval, with a floor of base/1000.
func (s *Sleep) delayHint(base time.Duration) time.Duration {
	if s.Duration < 0 {
		return base
	}
	remaining := s.Duration - time.Since(s.t0)
	if remaining < base/1000 {
		return base / 1000
	}
	if remaining < base {
		return remaining
	}
	return base
}

// WaitNode is the effect operation suspending until the node list is
// non-empty. Resumes with the first known node.
type WaitNode struct {
	kont.Phantom[*Node]
}

// DispatchClient handles WaitNode. Pending while the node list is empty.
func (WaitNode) DispatchClient(c *Client) (kont.Resumed, error) {
	if n := c.FirstNode(); n != nil {
		return n, nil
	}
	return nil, iox.ErrWouldBlock
}

// WaitStatus is the effect operation suspending until the first known
// node's status equals Expected. Resumes with that node.
type WaitStatus struct {
	kont.Phantom[*Node]
	Expected NodeStatus
}

// DispatchClient handles WaitStatus. Pending while no node is known or
// the first node's status differs from Expected.
func (w WaitStatus) DispatchClient(c *Client) (kont.Resumed, error) {
	if n := c.FirstNode(); n != nil && n.Status == w.Expected {
		return n, nil
	}
	return nil, iox.ErrWouldBlock
}

// Await is the effect operation suspending until a future completes.
// Resumes with the future's value. Tolerates synchronous completion: a
// future completed before the first dispatch resumes on the very first
// quantum with no extra poll tick.
type Await[T any] struct {
	kont.Phantom[T]
	F *Future[T]
}

// DispatchClient handles Await. Pending until the future is completed.
func (a Await[T]) DispatchClient(*Client) (kont.Resumed, error) {
	if v, ok := a.F.Value(); ok {
		return v, nil
	}
	return nil, iox.ErrWouldBlock
}
