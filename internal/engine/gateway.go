package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RequestKind names an evaluation round-trip.
type RequestKind uint8

const (
	RequestBootstrap RequestKind = iota // Article, company profile and interview questions
	RequestJudgeInterview
	RequestComplaint
	RequestJudgeTicket
)

func (k RequestKind) String() string {
	switch k {
	case RequestBootstrap:
		return "bootstrap"
	case RequestJudgeInterview:
		return "judge_interview"
	case RequestComplaint:
		return "complaint"
	case RequestJudgeTicket:
		return "judge_ticket"
	default:
		return "unknown"
	}
}

// Result is a completed request, delivered to the simulation goroutine.
type Result struct {
	ID       uuid.UUID
	Kind     RequestKind
	Phase    Phase // Phase the request was dispatched from
	Value    any
	Err      error // Cause when Fallback is set
	Fallback bool
}

// request tracks the one outstanding evaluation.
type request struct {
	ID    uuid.UUID
	Kind  RequestKind
	Phase Phase
}

// Gateway runs evaluation requests off the simulation goroutine. Each request
// is bounded by a timeout; failures resolve to the caller's fallback value so
// a result is always delivered.
type Gateway struct {
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	results chan Result
	wg      sync.WaitGroup
}

// NewGateway creates a gateway. queue sizes the completion buffer.
func NewGateway(timeout time.Duration, queue int) *Gateway {
	if queue <= 0 {
		queue = 16
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Gateway{
		ctx:     ctx,
		cancel:  cancel,
		timeout: timeout,
		results: make(chan Result, queue),
	}
}

// Dispatch starts call on its own goroutine and returns the request ID
// immediately.
func (g *Gateway) Dispatch(kind RequestKind, phase Phase, call func(context.Context) (any, error), fallback func() any) uuid.UUID {
	id := uuid.New()
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()

		ctx, cancel := context.WithTimeout(g.ctx, g.timeout)
		defer cancel()

		r := Result{ID: id, Kind: kind, Phase: phase}
		v, err := g.await(ctx, call)
		if err != nil {
			slog.Warn("evaluation request failed, using fallback", "kind", kind, "error", err)
			v = fallback()
			r.Err = err
			r.Fallback = true
		}
		r.Value = v

		select {
		case g.results <- r:
		case <-g.ctx.Done():
		}
	}()
	slog.Debug("evaluation request dispatched", "kind", kind, "id", id, "phase", phase)
	return id
}

type outcome struct {
	v   any
	err error
}

// await runs call on its own goroutine and gives up at the deadline even if
// call ignores ctx. An abandoned call finishes into a buffered channel.
func (g *Gateway) await(ctx context.Context, call func(context.Context) (any, error)) (any, error) {
	done := make(chan outcome, 1)
	go func() {
		v, err := call(ctx)
		done <- outcome{v, err}
	}()
	select {
	case o := <-done:
		return o.v, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Poll returns a completed result without blocking.
func (g *Gateway) Poll() (Result, bool) {
	select {
	case r := <-g.results:
		return r, true
	default:
		return Result{}, false
	}
}

// Close abandons in-flight requests and waits for their goroutines.
func (g *Gateway) Close() {
	g.cancel()
	g.wg.Wait()
}
