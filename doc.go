// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package tdm provides a cooperative concurrency layer for clients of a
// robot-controller daemon, built on algebraic effects from
// [code.hybscloud.com/kont].
//
// Multi-step interactions with remote nodes — lock, compile, run, watch —
// are written as sequential-looking tasks, even though every step is an
// asynchronous request/reply or a wait for an externally driven state
// change. Tasks are [code.hybscloud.com/kont.Eff] computations; each
// suspension point is an effect operation dispatched non-blockingly
// against the [Client], returning [code.hybscloud.com/iox.ErrWouldBlock]
// while its condition is pending.
//
// # Architecture
//
//   - Session: [Session] owns the connection, the node list, and message
//     dispatch. [Session.Pump] drains inbound messages; send operations
//     take a completion callback. [NewLoopback] creates an in-process
//     session pair over bounded SPSC queues from [code.hybscloud.com/lfq].
//   - Suspension: [SleepFor], [SleepUntil], [WaitForNode], [WaitForStatus],
//     [SendAndWait] — polling effect operations with a shared tick
//     discipline: try the condition, pump once, sleep a base interval only
//     when the pump made no progress.
//   - Correlation: [Correlator] pairs outgoing requests with replies via
//     freshly minted request ids; [Future] is the single-write completion
//     slot bridging a reply to its waiter.
//   - Locking: [Lock] acquires a scoped [Guard] over one node; the unlock
//     request is sent exactly once on every exit path, including failure
//     unwinding.
//   - Driving: [Drive] and [RunProgram] trampoline a root task to
//     completion, pumping the session once per quantum. [Step] and
//     [Advance] expose one-effect-at-a-time evaluation; [Exec] is the
//     handler-based blocking equivalent.
//
// # Scheduling model
//
// Single logical thread of control, cooperative, non-preemptive. Between
// suspension points a task runs without interruption; suspension points
// execute strictly in authored order. The session is pumped at most once
// per quantum. No primitive carries an intrinsic timeout — bound a wait by
// composing with [SleepUntil]'s wake-predicate form.
//
// # Example
//
//	session, controller := tdm.NewLoopback()
//	c := tdm.NewClient(session)
//	result, err := tdm.RunProgram(c, func(c *tdm.Client) kont.Eff[tdm.Reply] {
//		return tdm.WithLock(c, func(id tdm.NodeID) kont.Eff[tdm.Reply] {
//			return tdm.CompileBind(c, id, source, true, func(tdm.Reply) kont.Eff[tdm.Reply] {
//				return tdm.Run(c, id)
//			})
//		})
//	})
package tdm
