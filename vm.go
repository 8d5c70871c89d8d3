// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tdm

import (
	"code.hybscloud.com/kont"
)

// Derived session operations: thin applications of SendAndWait around
// already-correlated sends. Each forwards the reply's success/error
// payload unchanged and adds no suspension behavior of its own.

// Compile sends a program to a node, compiling and, when load is true,
// loading it into the node's VM.
func Compile(c *Client, id NodeID, source string, load bool) kont.Eff[Reply] {
	return SendAndWait(func(notify ReplyFunc) {
		c.session.SendProgram(id, source, load, notify)
	})
}

// CompileBind compiles and passes the reply to f. Fuses Compile + Bind.
func CompileBind[B any](c *Client, id NodeID, source string, load bool, f func(Reply) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(Compile(c, id, source, load), f)
}

// Run starts execution of the loaded program on a node's VM.
func Run(c *Client, id NodeID) kont.Eff[Reply] {
	return setExecutionState(c, id, ExecRun)
}

// Stop halts execution on a node's VM.
func Stop(c *Client, id NodeID) kont.Eff[Reply] {
	return setExecutionState(c, id, ExecStop)
}

// Flash writes the loaded program to the node's device memory.
func Flash(c *Client, id NodeID) kont.Eff[Reply] {
	return setExecutionState(c, id, ExecFlash)
}

func setExecutionState(c *Client, id NodeID, cmd ExecCommand) kont.Eff[Reply] {
	return SendAndWait(func(notify ReplyFunc) {
		c.session.SetExecutionState(id, cmd, notify)
	})
}

// Watch subscribes to node activity selected by flags. Variable and
// event updates arrive through subsequent pumps and are visible on the
// node records.
func Watch(c *Client, id NodeID, flags WatchFlag) kont.Eff[Reply] {
	return SendAndWait(func(notify ReplyFunc) {
		c.session.WatchNode(id, flags, notify)
	})
}
