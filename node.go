// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tdm

// NodeID identifies one remote node within a session.
type NodeID string

// NodeStatus is the controller-reported availability of a node.
// Mutated only by inbound protocol events applied during Session.Pump.
type NodeStatus uint8

const (
	NodeUnknown NodeStatus = iota
	NodeConnected
	NodeAvailable
	NodeBusy
	NodeReady
	NodeDisconnected
)

// String implements fmt.Stringer.
func (s NodeStatus) String() string {
	switch s {
	case NodeUnknown:
		return "unknown"
	case NodeConnected:
		return "connected"
	case NodeAvailable:
		return "available"
	case NodeBusy:
		return "busy"
	case NodeReady:
		return "ready"
	case NodeDisconnected:
		return "disconnected"
	}
	return "invalid"
}

// Node is a remote device record. Created when the connection layer
// announces a new node, removed when it announces disconnection.
// Variables holds the device's named integer-array variables as last
// published by the controller.
type Node struct {
	ID        NodeID
	Name      string
	Status    NodeStatus
	Variables map[string][]int
}

// ExecCommand selects a VM execution-state transition for [Run], [Stop]
// and friends.
type ExecCommand uint8

const (
	ExecStop ExecCommand = iota
	ExecRun
	ExecStep
	ExecSuspend
	ExecReset
	// ExecFlash writes the loaded program to device memory.
	ExecFlash
)

// WatchFlag selects which node activity the controller should forward.
type WatchFlag uint32

const (
	WatchVariables WatchFlag = 1 << iota
	WatchEvents
	WatchVMExecutionState
	WatchSharedVariables
	WatchScratchpad
	WatchCommunication

	WatchAll WatchFlag = 0x3f
)

// ErrorCode classifies a structured reply error.
type ErrorCode uint16

const (
	ErrCodeUnknown ErrorCode = iota
	ErrCodeBusy
	ErrCodeNotFound
	ErrCodeExecution
	ErrCodeConnection
)

// Error is the structured error descriptor carried inside an otherwise
// successful reply. A nil *Error means the request succeeded.
type Error struct {
	Code    ErrorCode
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Reply is the completion payload of a correlated request. The zero
// value is a successful reply.
type Reply struct {
	Err *Error
}

// OK reports whether the reply carries no error.
func (r Reply) OK() bool {
	return r.Err == nil
}

// ReplyFunc is the completion callback passed to Session send operations.
// It is invoked exactly once, either synchronously during the send call
// or asynchronously during a later Pump.
type ReplyFunc func(*Error)
