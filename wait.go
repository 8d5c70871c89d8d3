// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tdm

import (
	"time"

	"code.hybscloud.com/kont"
)

// SleepFor suspends until wall-clock elapsed reaches d, or forever if d
// is negative. The session keeps being pumped on every poll tick, so
// in-flight operations make progress concurrently with the sleep.
func SleepFor(d time.Duration) kont.Eff[struct{}] {
	return kont.Perform(&Sleep{Duration: d})
}

// SleepUntil suspends until wall-clock elapsed reaches d or wake reports
// true, whichever comes first. With d = [Forever] the wake predicate is
// the only exit; this is the composition point for bounding an otherwise
// unbounded wait.
func SleepUntil(d time.Duration, wake func() bool) kont.Eff[struct{}] {
	return kont.Perform(&Sleep{Duration: d, Wake: wake})
}

// SleepThen sleeps for d and then continues with next.
// Fuses Perform(&Sleep{...}) + Then.
func SleepThen[B any](d time.Duration, next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(kont.Perform(&Sleep{Duration: d}), next)
}

// WaitForNode suspends until the node list is non-empty and resumes with
// the first known node.
func WaitForNode() kont.Eff[*Node] {
	return kont.Perform(WaitNode{})
}

// WaitForNodeBind waits for the first node and passes it to f.
// Fuses Perform(WaitNode{}) + Bind.
func WaitForNodeBind[B any](f func(*Node) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(WaitNode{}), f)
}

// WaitForStatus suspends until the first known node's status equals
// expected and resumes with that node.
func WaitForStatus(expected NodeStatus) kont.Eff[*Node] {
	return kont.Perform(WaitStatus{Expected: expected})
}

// WaitForStatusBind waits for the first node to reach expected and
// passes it to f. Fuses Perform(WaitStatus{...}) + Bind.
func WaitForStatusBind[B any](expected NodeStatus, f func(*Node) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(WaitStatus{Expected: expected}), f)
}

// SendAndWait invokes a send operation with a completion callback wired
// to a fresh future, then suspends until the reply completes it. The
// callback writes the future exactly once; a synchronous callback makes
// the primitive resume on the very first driver quantum with no extra
// poll tick.
//
// The send fires when this computation is constructed, which under
// sequential composition is the moment the preceding step resumes.
func SendAndWait(send func(notify ReplyFunc)) kont.Eff[Reply] {
	f := NewFuture[Reply]()
	send(func(e *Error) {
		f.Complete(Reply{Err: e})
	})
	return kont.Perform(Await[Reply]{F: f})
}

// SendAndWaitBind sends, awaits the reply, and passes it to f.
// Fuses SendAndWait + Bind.
func SendAndWaitBind[B any](send func(notify ReplyFunc), f func(Reply) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(SendAndWait(send), f)
}
