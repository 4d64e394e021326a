package detect

import (
	"context"
	"fmt"
)

// Pool is a bounded pool of recognizer instances. Recognizers are built
// eagerly so construction cost is paid once, at startup.
type Pool struct {
	recognizers chan Recognizer
}

// NewPool builds a pool of size recognizers from the factory. On any factory
// failure the already-built instances are closed.
func NewPool(size int, factory func() (Recognizer, error)) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("pool size must be at least 1, got %d", size)
	}

	p := &Pool{recognizers: make(chan Recognizer, size)}
	for i := 0; i < size; i++ {
		r, err := factory()
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to build recognizer %d: %w", i, err)
		}
		p.recognizers <- r
	}
	return p, nil
}

// Acquire checks out a recognizer, blocking until one is free or the context
// is done. Callers must Release what they Acquire; prefer With.
func (p *Pool) Acquire(ctx context.Context) (Recognizer, error) {
	select {
	case r := <-p.recognizers:
		return r, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a recognizer to the pool.
func (p *Pool) Release(r Recognizer) {
	p.recognizers <- r
}

// With runs fn with a pooled recognizer. The recognizer is released on every
// exit path, including recognition errors and panics inside fn.
func (p *Pool) With(ctx context.Context, fn func(Recognizer) error) error {
	r, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer p.Release(r)
	return fn(r)
}

// Close drains the pool and closes all pooled recognizers. Recognizers still
// checked out are not waited for.
func (p *Pool) Close() error {
	var firstErr error
	for {
		select {
		case r := <-p.recognizers:
			if err := r.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		default:
			return firstErr
		}
	}
}
