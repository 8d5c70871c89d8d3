// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tdm

import (
	"time"

	"github.com/rs/zerolog"
)

// defaultPollInterval is the base sleep between poll ticks when a pump
// made no progress. Suspension primitives shorten it near a deadline.
const defaultPollInterval = 100 * time.Millisecond

// Session is the transport collaborator consumed by the concurrency
// layer. It owns the connection and the ordered node list; both are
// mutated only as a side effect of Pump, which the driver invokes
// synchronously at most once per quantum.
//
// Send operations return immediately; the completion callback is invoked
// exactly once, either synchronously during the call or asynchronously
// during a later Pump, with a nil *Error on success.
type Session interface {
	// Pump drains currently available inbound messages, dispatches each
	// to its listener or correlated callback, and reports whether at
	// least one message was processed.
	Pump() bool
	// Nodes returns the ordered sequence of known node records.
	Nodes() []*Node

	LockNode(id NodeID, notify ReplyFunc)
	UnlockNode(id NodeID, notify ReplyFunc)
	SendProgram(id NodeID, source string, load bool, notify ReplyFunc)
	SetExecutionState(id NodeID, cmd ExecCommand, notify ReplyFunc)
	WatchNode(id NodeID, flags WatchFlag, notify ReplyFunc)
}

// Client binds a Session to the cooperative scheduler: the poll
// interval, the logger, and the stack of live lock guards whose releases
// are owed on scope exit. One Client drives one root task at a time.
type Client struct {
	session  Session
	interval time.Duration
	log      zerolog.Logger
	guards   []*Guard
}

// Option configures a Client.
type Option func(*Client)

// WithPollInterval overrides the base poll interval (default 100ms).
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.interval = d }
}

// WithLogger sets the logger for protocol diagnostics (default Nop).
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient creates a client over an established session.
func NewClient(s Session, opts ...Option) *Client {
	c := &Client{
		session:  s,
		interval: defaultPollInterval,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the underlying session.
func (c *Client) Session() Session {
	return c.session
}

// FirstNode returns the first known node, or nil if none.
func (c *Client) FirstNode() *Node {
	nodes := c.session.Nodes()
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// pushGuard records a live guard whose release is owed on scope exit.
func (c *Client) pushGuard(g *Guard) {
	c.guards = append(c.guards, g)
}

// dropGuard removes a released guard from the scope stack.
func (c *Client) dropGuard(g *Guard) {
	for i := len(c.guards) - 1; i >= 0; i-- {
		if c.guards[i] == g {
			c.guards = append(c.guards[:i], c.guards[i+1:]...)
			return
		}
	}
}

// unwindGuards releases all live guards, innermost first. Invoked by the
// driver before a task failure propagates, so cleanup on unwind is
// guaranteed rather than swallowed.
func (c *Client) unwindGuards() {
	for len(c.guards) > 0 {
		g := c.guards[len(c.guards)-1]
		c.log.Debug().
			Str("node", string(g.node)).
			Msg("tdm: releasing lock on unwind")
		g.Release()
	}
}
