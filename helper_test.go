// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tdm_test

import (
	"testing"
	"time"

	"code.hybscloud.com/tdm"
)

// countingSession wraps a Session, counting pump calls and invoking an
// optional hook before each pump is forwarded. The hook is how scenario
// tests script "the controller does X during the pump at tick N".
type countingSession struct {
	inner  tdm.Session
	pumps  int
	before func(tick int)
}

func (s *countingSession) Pump() bool {
	s.pumps++
	if s.before != nil {
		s.before(s.pumps)
	}
	return s.inner.Pump()
}

func (s *countingSession) Nodes() []*tdm.Node {
	return s.inner.Nodes()
}

func (s *countingSession) LockNode(id tdm.NodeID, notify tdm.ReplyFunc) {
	s.inner.LockNode(id, notify)
}

func (s *countingSession) UnlockNode(id tdm.NodeID, notify tdm.ReplyFunc) {
	s.inner.UnlockNode(id, notify)
}

func (s *countingSession) SendProgram(id tdm.NodeID, source string, load bool, notify tdm.ReplyFunc) {
	s.inner.SendProgram(id, source, load, notify)
}

func (s *countingSession) SetExecutionState(id tdm.NodeID, cmd tdm.ExecCommand, notify tdm.ReplyFunc) {
	s.inner.SetExecutionState(id, cmd, notify)
}

func (s *countingSession) WatchNode(id tdm.NodeID, flags tdm.WatchFlag, notify tdm.ReplyFunc) {
	s.inner.WatchNode(id, flags, notify)
}

// newTestClient builds a loopback pair wrapped in a countingSession and
// a client with a short poll interval. Tests set cs.before to script
// controller behavior per tick.
func newTestClient(tb testing.TB) (*tdm.Client, *countingSession, *tdm.Controller) {
	tb.Helper()
	session, ctrl := tdm.NewLoopback()
	cs := &countingSession{inner: session}
	c := tdm.NewClient(cs, tdm.WithPollInterval(time.Millisecond))
	return c, cs, ctrl
}

// recordingPolicy returns a Respond policy that records request kinds
// and grants everything.
func recordingPolicy(kinds *[]tdm.RequestKind) func(tdm.Request) *tdm.Error {
	return func(req tdm.Request) *tdm.Error {
		*kinds = append(*kinds, req.Kind)
		return nil
	}
}

// drainKinds consumes every request still queued on the controller and
// appends its kind.
func drainKinds(ctrl *tdm.Controller, kinds *[]tdm.RequestKind) {
	for {
		req, ok := ctrl.NextRequest()
		if !ok {
			return
		}
		*kinds = append(*kinds, req.Kind)
	}
}

func countKind(kinds []tdm.RequestKind, kind tdm.RequestKind) int {
	n := 0
	for _, k := range kinds {
		if k == kind {
			n++
		}
	}
	return n
}
