// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tdm

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ErrSessionClosed reports a send attempted after the session pair was
// closed. It reaches the waiter as a connection-coded reply error.
var ErrSessionClosed = errors.New("tdm: session closed")

// loopbackCapacity is the bounded capacity of the loopback queues.
// Large enough that a scripted controller never stalls the client's
// single thread of control during a pump.
const loopbackCapacity = 64

// RequestKind discriminates the correlated requests a session can send.
type RequestKind uint8

const (
	ReqLock RequestKind = iota
	ReqUnlock
	ReqProgram
	ReqExecState
	ReqWatch
)

// Request is one correlated client request as observed by the
// controller side of a loopback pair.
type Request struct {
	ID      RequestID
	Kind    RequestKind
	Node    NodeID
	Source  string
	Load    bool
	Command ExecCommand
	Flags   WatchFlag
}

// Events delivered from the controller to the client, applied during Pump.
type (
	nodeAddedEvent   struct{ node Node }
	nodeRemovedEvent struct{ id NodeID }
	statusEvent      struct {
		id     NodeID
		status NodeStatus
	}
	variablesEvent struct {
		id   NodeID
		vars map[string][]int
	}
	replyEvent struct {
		id  RequestID
		err *Error
	}
)

// loopbackPair holds both directions of an in-process session in a
// single allocation. Each direction is a bounded lock-free SPSC queue;
// close signaling is a shared atomic flag.
type loopbackPair struct {
	toClient lfq.SPSC[any]
	toCtrl   lfq.SPSC[any]
	closed   atomix.Uint32
}

// push enqueues v, spinning with adaptive backoff while the bounded
// queue is full.
func (p *loopbackPair) push(q *lfq.SPSC[any], v any) {
	var bo iox.Backoff
	for q.Enqueue(&v) != nil {
		bo.Wait()
	}
}

// LoopbackSession is the client side of an in-process session pair. It
// implements [Session] over the pair's queues: sends become correlated
// [Request] values on the controller queue, Pump drains controller
// events into the node list and the correlator.
type LoopbackSession struct {
	pair  *loopbackPair
	corr  *Correlator
	nodes []*Node
	log   zerolog.Logger
}

// Controller is the scripted peer of a loopback pair. It announces and
// mutates nodes, receives the client's correlated requests, and replies.
type Controller struct {
	pair *loopbackPair
}

// NewLoopback creates a connected in-process session pair: a client-side
// [Session] and the scripted [Controller] driving it. Both sides are
// meant to be used from the session's single thread of control; the
// transport itself is lock-free either way.
func NewLoopback(opts ...LoopbackOption) (*LoopbackSession, *Controller) {
	pair := &loopbackPair{}
	pair.toClient.Init(loopbackCapacity)
	pair.toCtrl.Init(loopbackCapacity)

	s := &LoopbackSession{
		pair: pair,
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.corr = NewCorrelator(s.log)
	return s, &Controller{pair: pair}
}

// LoopbackOption configures a loopback session.
type LoopbackOption func(*LoopbackSession)

// WithLoopbackLogger sets the logger for transport diagnostics and
// protocol-violation reports (default Nop).
func WithLoopbackLogger(log zerolog.Logger) LoopbackOption {
	return func(s *LoopbackSession) { s.log = log }
}

// Pump implements [Session]. It drains all currently queued controller
// events, applying each to the node list or the correlator.
func (s *LoopbackSession) Pump() bool {
	processed := false
	for {
		v, err := s.pair.toClient.Dequeue()
		if err != nil {
			break
		}
		s.apply(v)
		processed = true
	}
	return processed
}

func (s *LoopbackSession) apply(v any) {
	switch ev := v.(type) {
	case nodeAddedEvent:
		n := ev.node
		if n.Variables == nil {
			n.Variables = make(map[string][]int)
		}
		s.nodes = append(s.nodes, &n)
	case nodeRemovedEvent:
		for i, n := range s.nodes {
			if n.ID == ev.id {
				s.nodes = append(s.nodes[:i], s.nodes[i+1:]...)
				break
			}
		}
	case statusEvent:
		if n := s.node(ev.id); n != nil {
			n.Status = ev.status
		}
	case variablesEvent:
		if n := s.node(ev.id); n != nil {
			for name, vals := range ev.vars {
				n.Variables[name] = vals
			}
		}
	case replyEvent:
		s.corr.Resolve(ev.id, ev.err)
	default:
		s.log.Debug().
			Type("event", v).
			Msg("tdm: unrecognized loopback event dropped")
	}
}

func (s *LoopbackSession) node(id NodeID) *Node {
	for _, n := range s.nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// Nodes implements [Session].
func (s *LoopbackSession) Nodes() []*Node {
	return s.nodes
}

// Correlator exposes the session's request correlator.
func (s *LoopbackSession) Correlator() *Correlator {
	return s.corr
}

// send registers notify under a fresh request id and queues the request
// for the controller. After Close, the callback is completed at once
// with a connection-coded error instead.
func (s *LoopbackSession) send(req Request, notify ReplyFunc) {
	if s.pair.closed.Load() != 0 {
		if notify != nil {
			notify(&Error{Code: ErrCodeConnection, Message: ErrSessionClosed.Error()})
		}
		return
	}
	req.ID = s.corr.Register(notify)
	s.pair.push(&s.pair.toCtrl, req)
}

// LockNode implements [Session].
func (s *LoopbackSession) LockNode(id NodeID, notify ReplyFunc) {
	s.send(Request{Kind: ReqLock, Node: id}, notify)
}

// UnlockNode implements [Session].
func (s *LoopbackSession) UnlockNode(id NodeID, notify ReplyFunc) {
	s.send(Request{Kind: ReqUnlock, Node: id}, notify)
}

// SendProgram implements [Session].
func (s *LoopbackSession) SendProgram(id NodeID, source string, load bool, notify ReplyFunc) {
	s.send(Request{Kind: ReqProgram, Node: id, Source: source, Load: load}, notify)
}

// SetExecutionState implements [Session].
func (s *LoopbackSession) SetExecutionState(id NodeID, cmd ExecCommand, notify ReplyFunc) {
	s.send(Request{Kind: ReqExecState, Node: id, Command: cmd}, notify)
}

// WatchNode implements [Session].
func (s *LoopbackSession) WatchNode(id NodeID, flags WatchFlag, notify ReplyFunc) {
	s.send(Request{Kind: ReqWatch, Node: id, Flags: flags}, notify)
}

// AddNode announces a node to the client with the given status.
func (ct *Controller) AddNode(id NodeID, name string, status NodeStatus) {
	ct.pair.push(&ct.pair.toClient, nodeAddedEvent{node: Node{ID: id, Name: name, Status: status}})
}

// RemoveNode announces a node disconnection.
func (ct *Controller) RemoveNode(id NodeID) {
	ct.pair.push(&ct.pair.toClient, nodeRemovedEvent{id: id})
}

// SetStatus publishes a node status change.
func (ct *Controller) SetStatus(id NodeID, status NodeStatus) {
	ct.pair.push(&ct.pair.toClient, statusEvent{id: id, status: status})
}

// SetVariables publishes node variable values, merged into the node's
// variable map on the next pump.
func (ct *Controller) SetVariables(id NodeID, vars map[string][]int) {
	ct.pair.push(&ct.pair.toClient, variablesEvent{id: id, vars: vars})
}

// NextRequest dequeues one pending client request, non-blocking.
func (ct *Controller) NextRequest() (Request, bool) {
	v, err := ct.pair.toCtrl.Dequeue()
	if err != nil {
		return Request{}, false
	}
	return v.(Request), true
}

// Reply delivers the reply for a request id. A nil error means success.
func (ct *Controller) Reply(id RequestID, e *Error) {
	ct.pair.push(&ct.pair.toClient, replyEvent{id: id, err: e})
}

// Respond drains all pending requests, replying to each per policy, and
// returns the number handled. A nil policy grants every request.
func (ct *Controller) Respond(policy func(Request) *Error) int {
	n := 0
	for {
		req, ok := ct.NextRequest()
		if !ok {
			return n
		}
		var e *Error
		if policy != nil {
			e = policy(req)
		}
		ct.Reply(req.ID, e)
		n++
	}
}

// Close marks the pair closed. Subsequent sends complete immediately
// with a connection-coded error; already-queued events remain pumpable.
func (ct *Controller) Close() {
	ct.pair.closed.Add(1)
}
