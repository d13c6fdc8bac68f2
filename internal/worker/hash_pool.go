package worker

import (
	"context"
	"errors"

	"github.com/spec-kit/content-gateway/internal/auth"
)

// ErrPoolClosed is returned for submissions after Close.
var ErrPoolClosed = errors.New("hash pool closed")

type hashJob struct {
	run   func() hashResult
	reply chan hashResult
}

type hashResult struct {
	hash  string
	match bool
	err   error
}

// HashPool runs bcrypt on a fixed set of workers so the deliberately
// slow hashing never blocks a request-serving goroutine pool beyond
// the configured parallelism.
type HashPool struct {
	jobs chan hashJob
	cost int
	done chan struct{}
}

// NewHashPool starts the workers.
func NewHashPool(workers, cost int) *HashPool {
	if workers <= 0 {
		workers = 4
	}
	p := &HashPool{
		jobs: make(chan hashJob),
		cost: cost,
		done: make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *HashPool) worker() {
	for {
		select {
		case job := <-p.jobs:
			job.reply <- job.run()
		case <-p.done:
			return
		}
	}
}

// Hash computes a bcrypt hash on the pool, honoring ctx cancellation
// while waiting for a worker.
func (p *HashPool) Hash(ctx context.Context, password string) (string, error) {
	res, err := p.submit(ctx, func() hashResult {
		hash, err := auth.HashPassword(password, p.cost)
		return hashResult{hash: hash, err: err}
	})
	if err != nil {
		return "", err
	}
	return res.hash, res.err
}

// Match verifies a password against its hash on the pool. Comparison is
// as expensive as hashing, so it queues the same way.
func (p *HashPool) Match(ctx context.Context, hashed, plain string) (bool, error) {
	res, err := p.submit(ctx, func() hashResult {
		return hashResult{match: auth.MatchesPassword(hashed, plain)}
	})
	if err != nil {
		return false, err
	}
	return res.match, res.err
}

func (p *HashPool) submit(ctx context.Context, run func() hashResult) (hashResult, error) {
	reply := make(chan hashResult, 1)
	select {
	case p.jobs <- hashJob{run: run, reply: reply}:
	case <-ctx.Done():
		return hashResult{}, ctx.Err()
	case <-p.done:
		return hashResult{}, ErrPoolClosed
	}

	select {
	case res := <-reply:
		return res, nil
	case <-ctx.Done():
		return hashResult{}, ctx.Err()
	}
}

// Close stops the workers. In-flight jobs still deliver their results.
func (p *HashPool) Close() {
	close(p.done)
}
