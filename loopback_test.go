// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tdm_test

import (
	"testing"
	"time"

	"code.hybscloud.com/tdm"
)

func TestLoopbackNodeLifecycle(t *testing.T) {
	session, ctrl := tdm.NewLoopback()

	if session.Pump() {
		t.Fatal("empty pump reported progress")
	}

	ctrl.AddNode("n1", "robot", tdm.NodeConnected)
	if !session.Pump() {
		t.Fatal("pump with queued event reported no progress")
	}
	nodes := session.Nodes()
	if len(nodes) != 1 || nodes[0].ID != "n1" || nodes[0].Status != tdm.NodeConnected {
		t.Fatalf("nodes got %+v", nodes)
	}

	ctrl.SetStatus("n1", tdm.NodeAvailable)
	session.Pump()
	if nodes[0].Status != tdm.NodeAvailable {
		t.Fatalf("status got %v, want available", nodes[0].Status)
	}

	ctrl.RemoveNode("n1")
	session.Pump()
	if len(session.Nodes()) != 0 {
		t.Fatalf("nodes after removal: %d, want 0", len(session.Nodes()))
	}
}

func TestLoopbackVariablesMerge(t *testing.T) {
	session, ctrl := tdm.NewLoopback()

	ctrl.AddNode("n1", "robot", tdm.NodeReady)
	ctrl.SetVariables("n1", map[string][]int{"prox.horizontal": {0, 0, 7}})
	ctrl.SetVariables("n1", map[string][]int{"temperature": {231}})
	session.Pump()

	n := session.Nodes()[0]
	if got := n.Variables["prox.horizontal"]; len(got) != 3 || got[2] != 7 {
		t.Fatalf("prox.horizontal got %v", got)
	}
	if got := n.Variables["temperature"]; len(got) != 1 || got[0] != 231 {
		t.Fatalf("temperature got %v", got)
	}
}

func TestLoopbackClosedSendFailsFast(t *testing.T) {
	session, ctrl := tdm.NewLoopback()

	ctrl.Close()
	var got *tdm.Error
	session.LockNode("n1", func(e *tdm.Error) { got = e })
	if got == nil || got.Code != tdm.ErrCodeConnection {
		t.Fatalf("closed-session reply got %+v, want connection error", got)
	}
	if _, ok := ctrl.NextRequest(); ok {
		t.Fatal("request queued after close")
	}
}

func TestWatchDeliversVariableUpdates(t *testing.T) {
	c, cs, ctrl := newTestClient(t)

	ctrl.AddNode("n1", "robot", tdm.NodeReady)
	cs.before = func(int) {
		ctrl.Respond(nil)
	}

	r, err := tdm.Drive(c, tdm.Watch(c, "n1", tdm.WatchAll))
	if err != nil {
		t.Fatalf("Drive error: %v", err)
	}
	if !r.OK() {
		t.Fatalf("watch reply got %v, want ok", r.Err)
	}

	ctrl.SetVariables("n1", map[string][]int{"button.center": {1}})
	_, err = tdm.Drive(c, tdm.SleepFor(2*time.Millisecond))
	if err != nil {
		t.Fatalf("Drive error: %v", err)
	}
	n := c.FirstNode()
	if got := n.Variables["button.center"]; len(got) != 1 || got[0] != 1 {
		t.Fatalf("button.center got %v", got)
	}
}
