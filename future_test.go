// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tdm_test

import (
	"testing"
	"time"

	"code.hybscloud.com/kont"
	"code.hybscloud.com/tdm"
	"github.com/rs/zerolog"
)

func TestFutureSingleWrite(t *testing.T) {
	f := tdm.NewFuture[int]()
	if f.Done() {
		t.Fatal("fresh future reports done")
	}
	if !f.Complete(1) {
		t.Fatal("first write refused")
	}
	if f.Complete(2) {
		t.Fatal("second write accepted")
	}
	v, ok := f.Value()
	if !ok || v != 1 {
		t.Fatalf("value got (%d, %v), want (1, true)", v, ok)
	}
}

func TestCorrelatorStrayReplyDiscarded(t *testing.T) {
	co := tdm.NewCorrelator(zerolog.Nop())

	var got *tdm.Error
	delivered := 0
	id := co.Register(func(e *tdm.Error) {
		got = e
		delivered++
	})

	// Unknown id: discarded, pending entry untouched
	if co.Resolve(id+1000, &tdm.Error{Message: "stray"}) {
		t.Fatal("stray reply resolved")
	}
	if delivered != 0 || co.Outstanding() != 1 {
		t.Fatalf("stray reply touched pending entry: delivered=%d outstanding=%d", delivered, co.Outstanding())
	}

	if !co.Resolve(id, &tdm.Error{Message: "real"}) {
		t.Fatal("registered reply not resolved")
	}
	if delivered != 1 || got == nil || got.Message != "real" {
		t.Fatalf("reply misrouted: delivered=%d got=%v", delivered, got)
	}

	// Already resolved: second delivery is discarded
	if co.Resolve(id, &tdm.Error{Message: "dup"}) {
		t.Fatal("duplicate reply resolved")
	}
	if delivered != 1 {
		t.Fatalf("duplicate reply re-delivered: %d", delivered)
	}
}

func TestSendAndWaitOutOfOrderReplies(t *testing.T) {
	// Two requests outstanding in one task; the second request's reply
	// arrives first. Each primitive must return its own result.
	session, ctrl := tdm.NewLoopback()
	c := tdm.NewClient(session, tdm.WithPollInterval(time.Millisecond))

	e1 := tdm.SendAndWait(func(notify tdm.ReplyFunc) {
		session.LockNode("a", notify)
	})
	e2 := tdm.SendAndWait(func(notify tdm.ReplyFunc) {
		session.LockNode("b", notify)
	})

	req1, ok := ctrl.NextRequest()
	if !ok || req1.Node != "a" {
		t.Fatalf("first request got %+v", req1)
	}
	req2, ok := ctrl.NextRequest()
	if !ok || req2.Node != "b" {
		t.Fatalf("second request got %+v", req2)
	}
	ctrl.Reply(req2.ID, &tdm.Error{Message: "b"})
	ctrl.Reply(req1.ID, &tdm.Error{Message: "a"})

	task := kont.Bind(e1, func(r1 tdm.Reply) kont.Eff[[2]string] {
		return kont.Map[kont.Resumed, tdm.Reply, [2]string](e2, func(r2 tdm.Reply) [2]string {
			return [2]string{r1.Err.Message, r2.Err.Message}
		})
	})
	got, err := tdm.Drive(c, task)
	if err != nil {
		t.Fatalf("Drive error: %v", err)
	}
	if got != [2]string{"a", "b"} {
		t.Fatalf("replies misrouted: got %v", got)
	}
}

// syncSession completes every send synchronously inside the call.
type syncSession struct {
	pumps int
}

func (s *syncSession) Pump() bool {
	s.pumps++
	return false
}

func (s *syncSession) Nodes() []*tdm.Node { return nil }

func (s *syncSession) LockNode(_ tdm.NodeID, notify tdm.ReplyFunc) { notify(nil) }

func (s *syncSession) UnlockNode(_ tdm.NodeID, notify tdm.ReplyFunc) {
	if notify != nil {
		notify(nil)
	}
}

func (s *syncSession) SendProgram(_ tdm.NodeID, _ string, _ bool, notify tdm.ReplyFunc) {
	notify(nil)
}

func (s *syncSession) SetExecutionState(_ tdm.NodeID, _ tdm.ExecCommand, notify tdm.ReplyFunc) {
	notify(nil)
}

func (s *syncSession) WatchNode(_ tdm.NodeID, _ tdm.WatchFlag, notify tdm.ReplyFunc) {
	notify(nil)
}

func TestSendAndWaitSynchronousCompletion(t *testing.T) {
	// Callback fires inside the send call: the primitive returns on the
	// very first quantum with zero poll ticks.
	ss := &syncSession{}
	c := tdm.NewClient(ss, tdm.WithPollInterval(time.Millisecond))

	r, err := tdm.Drive(c, tdm.LockNode(c, "n1"))
	if err != nil {
		t.Fatalf("Drive error: %v", err)
	}
	if !r.OK() {
		t.Fatalf("reply got %v, want ok", r.Err)
	}
	if ss.pumps != 0 {
		t.Fatalf("pumped %d times, want 0", ss.pumps)
	}
}
