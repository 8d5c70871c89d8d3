// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tdm

import (
	"code.hybscloud.com/atomix"
	"github.com/rs/zerolog"
)

// Future is a single-writer single-reader completion slot. The sender
// creates it and completes it at most once from the session's dispatch
// path; the waiter polls it from an [Await] suspension. Single-threaded
// by the scheduling model, so no synchronization is needed.
type Future[T any] struct {
	completed bool
	value     T
}

// NewFuture creates an empty future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{}
}

// Complete writes the value and marks the future completed. The write is
// one-shot: a second attempt is refused and reported as false, leaving
// the first value intact.
func (f *Future[T]) Complete(v T) bool {
	if f.completed {
		return false
	}
	f.value = v
	f.completed = true
	return true
}

// Done reports whether the future has been completed.
func (f *Future[T]) Done() bool {
	return f.completed
}

// Value returns the completion value and whether it is present.
func (f *Future[T]) Value() (T, bool) {
	return f.value, f.completed
}

// RequestID uniquely links one outgoing request to its eventual reply
// among currently outstanding requests.
type RequestID = uint32

// Correlator routes inbound replies to the completion callback
// registered for their request id. Ids are minted from a monotonic
// counter and never reused while their entry is unresolved.
type Correlator struct {
	counter atomix.Uint32
	pending map[RequestID]ReplyFunc
	log     zerolog.Logger
}

// NewCorrelator creates a correlator. Protocol violations — replies for
// unknown or already-resolved ids — are logged on log and discarded.
func NewCorrelator(log zerolog.Logger) *Correlator {
	return &Correlator{
		pending: make(map[RequestID]ReplyFunc),
		log:     log,
	}
}

// Register mints a fresh request id and records notify for it.
// notify may be nil for fire-and-forget requests whose reply is not
// awaited; the reply still resolves the entry.
func (co *Correlator) Register(notify ReplyFunc) RequestID {
	for {
		id := co.counter.Add(1)
		if _, outstanding := co.pending[id]; outstanding {
			continue
		}
		co.pending[id] = notify
		return id
	}
}

// Resolve routes a reply to the callback registered for id and removes
// the entry. A reply for an unknown or already-resolved id indicates a
// benign race (duplicate or late delivery): it is logged and discarded,
// never escalated, and cannot touch an unrelated entry.
func (co *Correlator) Resolve(id RequestID, e *Error) bool {
	notify, ok := co.pending[id]
	if !ok {
		co.log.Warn().
			Uint32("request", id).
			Msg("tdm: stray reply discarded")
		return false
	}
	delete(co.pending, id)
	if notify != nil {
		notify(e)
	}
	return true
}

// Outstanding returns the number of unresolved requests.
func (co *Correlator) Outstanding() int {
	return len(co.pending)
}
