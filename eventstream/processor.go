// Package eventstream implements the reactive, backpressure-aware flat-map
// processor used to frame and deliver event-stream items.
//
// The processor is a single-threaded cooperative state machine: no internal
// goroutine is spawned, and delivery happens synchronously on whichever
// caller goroutine invokes OnNext or Request. Correctness rests on a
// CAS-guarded serialization counter (pendingFlushes), the same "one
// invocation serializes, the rest bail out and trust it to pick up their
// work" discipline used to keep Smithy's own ordered middleware groups
// single-pass rather than re-entrant.
package eventstream

import (
	"sync/atomic"

	"github.com/smithy-run/schema/logging"
)

// Subscriber receives items delivered by a Processor.
type Subscriber[O any] interface {
	OnNext(O)
	OnComplete()
	OnError(error)
}

// UpstreamSubscription is the control surface a Processor holds on its
// upstream publisher.
type UpstreamSubscription interface {
	// Request asks the upstream for n more items.
	Request(n int64)
	// Cancel tells the upstream to stop emitting.
	Cancel()
}

// IllegalArgumentError is delivered to the downstream subscriber when
// Request is called with n <= 0.
type IllegalArgumentError struct{ Message string }

func (e *IllegalArgumentError) Error() string { return e.Message }

// IllegalStateError is delivered to the downstream subscriber when flush is
// attempted before both ends of the processor are wired.
type IllegalStateError struct{ Message string }

func (e *IllegalStateError) Error() string { return e.Message }

const maxPending = int64(^uint64(0) >> 1) // math.MaxInt64, without importing math for one constant

// Processor buffers the output of mapping each upstream item of type I to
// zero or more downstream items of type O, delivering them to a downstream
// Subscriber on demand and pulling more from upstream only as needed.
//
// The zero value is not usable; construct with New.
type Processor[I, O any] struct {
	mapFn func(I) []O

	queue []O

	pendingRequests int64 // atomic
	pendingFlushes  int32 // atomic

	terminal      atomic.Pointer[terminalEvent]
	terminated    bool

	upstream   UpstreamSubscription
	downstream Subscriber[O]

	// prepare runs once, before the first emission, letting frame/event
	// decoders do one-time setup.
	prepare func()
	prepared bool

	logger logging.Logger
}

type terminalEvent struct {
	err error // nil means onComplete rather than onError
}

// Option configures a Processor.
type Option[I, O any] func(*Processor[I, O])

// WithLogger attaches a logger that receives warn-classified entries for
// upstream/mapFn failures and illegal caller usage. The default is
// logging.Noop.
func WithLogger[I, O any](l logging.Logger) Option[I, O] {
	return func(p *Processor[I, O]) { p.logger = l }
}

// New constructs a Processor that applies mapFn to each upstream item,
// flattening the results into the downstream delivery order.
func New[I, O any](mapFn func(I) []O, opts ...Option[I, O]) *Processor[I, O] {
	p := &Processor[I, O]{mapFn: mapFn, logger: logging.Noop{}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// OnPrepare registers a one-time setup hook run before the first item is
// ever delivered downstream.
func (p *Processor[I, O]) OnPrepare(fn func()) { p.prepare = fn }

// Subscribe wires the downstream subscriber. Wiring either end triggers a
// flush, since requests or upstream items may already be queued.
func (p *Processor[I, O]) Subscribe(s Subscriber[O]) {
	p.downstream = s
	p.flush()
}

// OnSubscribe wires the upstream subscription.
func (p *Processor[I, O]) OnSubscribe(sub UpstreamSubscription) {
	p.upstream = sub
	p.flush()
}

// OnNext maps item through mapFn and enqueues every result for delivery.
// A panic from mapFn is treated as an upstream error: it cancels the
// upstream subscription and sets the terminal event to that error.
func (p *Processor[I, O]) OnNext(item I) {
	out := p.safeMap(item)
	p.queue = append(p.queue, out...)
	p.flush()
}

func (p *Processor[I, O]) safeMap(item I) (out []O) {
	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = &IllegalStateError{Message: "eventstream: map panicked"}
			}
			p.logger.Logf(logging.Warn, "eventstream: mapFn failed, cancelling upstream: %v", err)
			if p.upstream != nil {
				p.upstream.Cancel()
			}
			p.terminal.Store(&terminalEvent{err: err})
			out = nil
		}
	}()
	return p.mapFn(item)
}

// OnComplete marks the upstream as exhausted; any already-queued items are
// still delivered before the downstream sees onComplete.
func (p *Processor[I, O]) OnComplete() {
	p.terminal.Store(&terminalEvent{})
	p.flush()
}

// OnError marks the upstream as failed with err; any already-queued items
// are still delivered before the downstream sees onError.
func (p *Processor[I, O]) OnError(err error) {
	p.terminal.Store(&terminalEvent{err: err})
	p.flush()
}

// Request asks for n more items to be delivered downstream.
func (p *Processor[I, O]) Request(n int64) {
	if n <= 0 {
		p.logger.Logf(logging.Warn, "eventstream: Request called with non-positive count %d", n)
		if p.downstream != nil {
			p.downstream.OnError(&IllegalArgumentError{Message: "eventstream: request count must be positive"})
		}
		return
	}
	for {
		cur := atomic.LoadInt64(&p.pendingRequests)
		next := cur + n
		if next < cur { // overflow: saturate
			next = maxPending
		}
		if atomic.CompareAndSwapInt64(&p.pendingRequests, cur, next) {
			break
		}
	}
	p.flush()
}

// Cancel forwards cancellation to the upstream subscription.
func (p *Processor[I, O]) Cancel() {
	if p.upstream != nil {
		p.upstream.Cancel()
	}
}

// flush is the CAS-guarded serialization point: at most one logical
// invocation ever drains the queue at a time. A concurrent caller that
// loses the CAS trusts the winner to observe its contribution (the queued
// item, or the incremented pendingRequests) on a subsequent loop iteration,
// since pendingRequests is re-read at the top of every iteration.
func (p *Processor[I, O]) flush() {
	if p.upstream == nil || p.downstream == nil {
		p.logger.Logf(logging.Warn, "eventstream: flush attempted before processor was fully wired")
		if p.downstream != nil {
			p.downstream.OnError(&IllegalStateError{Message: "eventstream: processor not fully wired"})
		}
		return
	}

	if !atomic.CompareAndSwapInt32(&p.pendingFlushes, 0, 1) {
		return
	}
	defer atomic.StoreInt32(&p.pendingFlushes, 0)

	if p.prepare != nil && !p.prepared {
		p.prepared = true
		p.prepare()
	}

	// Single-threaded cooperative drain: a nested call (e.g. the
	// downstream's OnNext synchronously calling Request) runs on this same
	// goroutine, finds pendingFlushes already 1, and returns immediately —
	// its contribution (a queue append or a pendingRequests increment) is
	// visible to this loop on its next iteration since we re-read both at
	// the top of every pass.
	for {
		pending := atomic.LoadInt64(&p.pendingRequests)
		delivered := int64(0)

		for delivered < pending && len(p.queue) > 0 {
			item := p.queue[0]
			p.queue = p.queue[1:]
			p.downstream.OnNext(item)
			delivered++
		}

		if delivered > 0 {
			atomic.AddInt64(&p.pendingRequests, -delivered)
		}

		if len(p.queue) == 0 {
			if t := p.terminal.Load(); t != nil && !p.terminated {
				p.terminated = true
				if t.err != nil {
					p.downstream.OnError(t.err)
				} else {
					p.downstream.OnComplete()
				}
				return
			}
		}

		remaining := atomic.LoadInt64(&p.pendingRequests)
		if remaining > 0 && len(p.queue) == 0 {
			p.upstream.Request(1)
			// The upstream may deliver synchronously via OnNext, which
			// re-enters flush and finds pendingFlushes already held; any
			// item it enqueued is visible on our next loop iteration.
			if len(p.queue) == 0 {
				return
			}
			continue
		}

		if remaining == 0 || len(p.queue) == 0 {
			return
		}
	}
}
