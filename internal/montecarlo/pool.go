package montecarlo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"runtime"
	"sync"
	"time"
)

// ErrPoolClosed is returned by Submit after Close.
var ErrPoolClosed = errors.New("simulation pool closed")

// PoolConfig sizes the worker pool.
type PoolConfig struct {
	Workers     int   // defaults to runtime.NumCPU()
	QueueSize   int   // pending requests before Submit blocks
	MaxSimCount int   // 0 = no cap
	Seed        int64 // 0 = seeded from the clock
}

type job struct {
	ctx context.Context
	req Request
	out chan Response
}

// Pool runs Estimate on background goroutines. Each worker owns its random
// source; nothing mutable is shared between requests.
type Pool struct {
	cfg  PoolConfig
	jobs chan job
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewPool starts the workers.
func NewPool(cfg PoolConfig) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = cfg.Workers * 4
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	p := &Pool{
		cfg:  cfg,
		jobs: make(chan job, cfg.QueueSize),
	}
	for w := 0; w < cfg.Workers; w++ {
		p.wg.Add(1)
		go p.worker(rand.New(rand.NewSource(cfg.Seed + int64(w))))
	}
	return p
}

// Submit queues a request. The returned channel receives exactly one
// Response and is buffered, so callers that stop listening never block a
// worker.
func (p *Pool) Submit(ctx context.Context, req Request) (<-chan Response, error) {
	if p.cfg.MaxSimCount > 0 && req.SimCount > p.cfg.MaxSimCount {
		return nil, fmt.Errorf("%w: sim_count %d exceeds max %d", ErrInvalidRequest, req.SimCount, p.cfg.MaxSimCount)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrPoolClosed
	}

	out := make(chan Response, 1)
	select {
	case p.jobs <- job{ctx: ctx, req: req, out: out}:
		return out, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Do submits a request and waits for its response.
func (p *Pool) Do(ctx context.Context, req Request) (Response, error) {
	out, err := p.Submit(ctx, req)
	if err != nil {
		return Response{ID: req.ID}, err
	}
	select {
	case resp := <-out:
		return resp, resp.Err
	case <-ctx.Done():
		return Response{ID: req.ID}, ctx.Err()
	}
}

// Close stops accepting work, drains the queue and waits for the workers.
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pool) worker(rng *rand.Rand) {
	defer p.wg.Done()
	for j := range p.jobs {
		j.out <- p.run(j, rng)
	}
}

func (p *Pool) run(j job, rng *rand.Rand) (resp Response) {
	resp.ID = j.req.ID
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Simulation panicked", "id", j.req.ID, "panic", r)
			resp.Err = fmt.Errorf("simulation %s panicked: %v", j.req.ID, r)
		}
	}()

	if err := j.ctx.Err(); err != nil {
		resp.Err = err
		return resp
	}

	start := time.Now()
	pOver, err := Estimate(j.req, rng)
	if err != nil {
		resp.Err = err
		return resp
	}
	resp.POver = pOver
	slog.Debug("Simulation done", "id", j.req.ID, "sims", j.req.SimCount, "pOver", pOver, "took", time.Since(start))
	return resp
}
