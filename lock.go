// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tdm

import (
	"fmt"

	"code.hybscloud.com/kont"
)

// LockError is raised by [Lock] when the controller refuses the lock
// request. No guard exists for a refused lock and no unlock request is
// ever sent for the attempt.
type LockError struct {
	Node  NodeID
	Cause *Error
}

// Error implements the error interface.
func (e *LockError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("tdm: lock refused for node %q", e.Node)
	}
	return fmt.Sprintf("tdm: lock refused for node %q: %s", e.Node, e.Cause.Message)
}

// Guard is a scoped exclusive-ownership token over one remote node.
// Created only by a successful lock acquisition; its release is owed on
// scope exit, success or failure alike.
type Guard struct {
	c        *Client
	node     NodeID
	released bool
}

// NodeID returns the identifier of the locked node.
func (g *Guard) NodeID() NodeID {
	return g.node
}

// Release sends the unlock request for the guarded node, fire-and-forget:
// the reply is not awaited and an unlock failure is not escalated.
// Idempotent: a second call is a no-op, so invoking scope-exit logic
// more than once never releases twice.
func (g *Guard) Release() {
	if g == nil || g.released {
		return
	}
	g.released = true
	g.c.dropGuard(g)
	g.c.session.UnlockNode(g.node, nil)
}

// Lock acquires exclusive ownership of a node. Without a selector it
// waits until the first node becomes available and locks that one; with
// a selector it locks the given node directly. An error reply raises
// *LockError — no guard is returned and no release is ever sent for the
// failed attempt.
func Lock(c *Client, selector ...NodeID) kont.Eff[*Guard] {
	if len(selector) > 0 {
		return lockNode(c, selector[0])
	}
	return WaitForStatusBind(NodeAvailable, func(n *Node) kont.Eff[*Guard] {
		return lockNode(c, n.ID)
	})
}

// lockNode issues the correlated lock request and registers the guard
// on the client's scope stack.
func lockNode(c *Client, id NodeID) kont.Eff[*Guard] {
	return SendAndWaitBind(func(notify ReplyFunc) {
		c.session.LockNode(id, notify)
	}, func(r Reply) kont.Eff[*Guard] {
		if !r.OK() {
			return kont.ThrowError[error, *Guard](&LockError{Node: id, Cause: r.Err})
		}
		g := &Guard{c: c, node: id}
		c.pushGuard(g)
		return kont.Pure(g)
	})
}

// WithLock scopes body to a locked node: it acquires a guard, runs body
// with the locked node's id, and releases on normal completion. If body
// raises a failure, the driver releases the guard while unwinding, so
// exactly one unlock request is sent on every exit path.
func WithLock[R any](c *Client, body func(NodeID) kont.Eff[R], selector ...NodeID) kont.Eff[R] {
	return kont.Bind(Lock(c, selector...), func(g *Guard) kont.Eff[R] {
		return kont.Map[kont.Resumed, R, R](body(g.node), func(r R) R {
			g.Release()
			return r
		})
	})
}

// LockNode issues a raw correlated lock request and forwards the reply
// unchanged. Most callers want [Lock], which adds the guard protocol.
func LockNode(c *Client, id NodeID) kont.Eff[Reply] {
	return SendAndWait(func(notify ReplyFunc) {
		c.session.LockNode(id, notify)
	})
}

// UnlockNode issues a raw correlated unlock request and forwards the
// reply unchanged.
func UnlockNode(c *Client, id NodeID) kont.Eff[Reply] {
	return SendAndWait(func(notify ReplyFunc) {
		c.session.UnlockNode(id, notify)
	})
}
