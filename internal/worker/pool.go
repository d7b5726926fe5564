package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// QueueJobs is the Redis list every background job goes through.
const QueueJobs = "jobs:seccional"

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Handler processes the payload of one job type.
type Handler func(ctx context.Context, payload json.RawMessage) error

// Pool dispatches jobs to handlers. With Redis, Enqueue pushes to QueueJobs
// and the workers dequeue via BRPOP; without it, jobs run in a goroutine of
// this process. Either way a job is retried with exponential backoff and
// lands in the DLQ after the last attempt.
type Pool struct {
	rdb *redis.Client

	mu       sync.RWMutex
	handlers map[string]Handler

	maxAttempts int
	backoff     time.Duration

	inline sync.WaitGroup
}

func NewPool(rdb *redis.Client) *Pool {
	return &Pool{
		rdb:         rdb,
		handlers:    make(map[string]Handler),
		maxAttempts: 3,
		backoff:     time.Second,
	}
}

// Handle registers h for jobType.
func (p *Pool) Handle(jobType string, h Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[jobType] = h
}

func (p *Pool) handler(jobType string) (Handler, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	h, ok := p.handlers[jobType]
	return h, ok
}

// Enqueue schedules a job. The caller's cancellation does not reach the job.
func (p *Pool) Enqueue(ctx context.Context, jobType string, payload any) error {
	if _, ok := p.handler(jobType); !ok {
		return fmt.Errorf("no handler for job type %q", jobType)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}

	if p.rdb == nil {
		p.inline.Add(1)
		go func() {
			defer p.inline.Done()
			p.run(context.WithoutCancel(ctx), "inline", job)
		}()
		return nil
	}

	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return p.rdb.LPush(ctx, QueueJobs, encoded).Err()
}

// Wait blocks until every inline job has finished.
func (p *Pool) Wait() { p.inline.Wait() }

// Start launches numWorkers goroutines consuming QueueJobs.
// Each goroutine blocks on BRPOP, so idle workers cost nothing.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	if p.rdb == nil {
		log.Info().Msg("worker pool: no redis, jobs run in-process")
		return
	}
	for i := 0; i < numWorkers; i++ {
		go p.runWorker(ctx, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, QueueJobs).Result()
			if err != nil {
				continue
			}
			if len(result) < 2 {
				continue
			}
			p.process(ctx, result[0], result[1])
		}
	}
}

func (p *Pool) process(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		SendToDLQ(ctx, p.rdb, queue, "unknown", json.RawMessage(raw), "malformed job: "+err.Error(), 0)
		return
	}
	p.run(ctx, queue, job)
}

func (p *Pool) run(ctx context.Context, queue string, job Job) {
	h, ok := p.handler(job.Type)
	if !ok {
		SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, "no handler registered", 0)
		return
	}
	log.Debug().Str("type", job.Type).Str("queue", queue).Msg("processing job")

	attempts := 0
	err := withRetry(ctx, p.maxAttempts, p.backoff, func(attempt int) error {
		attempts = attempt + 1
		if err := h(ctx, job.Payload); err != nil {
			log.Warn().Err(err).Str("type", job.Type).Int("attempt", attempts).Msg("job attempt failed")
			return err
		}
		return nil
	})
	if err != nil {
		SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, err.Error(), attempts)
	}
}

// withRetry calls fn up to maxAttempts times, waiting base, 2*base, … between
// attempts.
func withRetry(ctx context.Context, maxAttempts int, base time.Duration, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := base * time.Duration(1<<uint(i-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
