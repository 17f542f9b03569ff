package processing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrClosed is returned for work submitted after Close.
var ErrClosed = errors.New("processing: processor closed")

type result struct {
	out NormalizeOut
	err error
}

type job struct {
	ctx  context.Context
	in   NormalizeIn
	done chan result
}

// Processor runs the pipeline on a fixed pool of workers fed by a bounded
// queue. Every finished job is reported to onOutcome.
type Processor struct {
	pipeline  *Pipeline
	inCh      chan job
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	onOutcome func(Outcome)
}

func NewProcessor(p *Pipeline, queueSize int, onOutcome func(Outcome)) *Processor {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Processor{
		pipeline:  p,
		inCh:      make(chan job, queueSize),
		onOutcome: onOutcome,
	}
}

// StartWorkers starts n workers; n < 1 starts one.
func (p *Processor) StartWorkers(n int) {
	if n <= 0 {
		n = 1
	}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.inCh {
				p.handle(j)
			}
		}()
	}
}

func (p *Processor) handle(j job) {
	start := time.Now()
	out, fallbacks, err := p.run(j)
	if p.onOutcome != nil {
		p.onOutcome(Outcome{
			MessageID: j.in.MessageID,
			Category:  out.Category,
			Fallbacks: fallbacks,
			Duration:  time.Since(start),
			Err:       err,
		})
	}
	j.done <- result{out: out, err: err}
}

func (p *Processor) run(j job) (out NormalizeOut, fallbacks []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, fallbacks, err = NormalizeOut{}, nil, fmt.Errorf("normalize %s panicked: %v", j.in.MessageID, r)
		}
	}()
	if cerr := j.ctx.Err(); cerr != nil {
		return NormalizeOut{}, nil, cerr
	}
	return p.pipeline.Run(j.ctx, j.in)
}

// submit queues one job. It blocks while the queue is full.
func (p *Processor) submit(ctx context.Context, in NormalizeIn) (<-chan result, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrClosed
	}
	done := make(chan result, 1)
	select {
	case p.inCh <- job{ctx: ctx, in: in, done: done}:
		return done, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Normalize runs one message through the pool and waits for it.
func (p *Processor) Normalize(ctx context.Context, in NormalizeIn) (NormalizeOut, error) {
	done, err := p.submit(ctx, in)
	if err != nil {
		return NormalizeOut{}, err
	}
	select {
	case r := <-done:
		return r.out, r.err
	case <-ctx.Done():
		return NormalizeOut{}, ctx.Err()
	}
}

// NormalizeBatch fans the messages out over the pool. Results keep the
// input order; the first failure fails the batch.
func (p *Processor) NormalizeBatch(ctx context.Context, ins []NormalizeIn) ([]NormalizeOut, error) {
	outs := make([]NormalizeOut, len(ins))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cap(p.inCh) + 1)
	for i, in := range ins {
		g.Go(func() error {
			out, err := p.Normalize(gctx, in)
			if err != nil {
				return err
			}
			outs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outs, nil
}

// Close stops intake and waits for queued work to finish. It is safe to
// call more than once.
func (p *Processor) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.inCh)
	p.mu.Unlock()
	p.wg.Wait()
}
