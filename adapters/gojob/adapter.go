package gojob

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-custody/core"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"
)

const JobIDCustodyAudit = core.JobIDCustodyAudit

// RetryPolicy bounds how often a failed custody audit goes back on the queue.
type RetryPolicy struct {
	MaxAttempts     int
	MaxDelay        time.Duration
	DeadLetterOnMax bool
}

// NormalizeAttempt clamps a nack so it never requeues past MaxAttempts.
func (p RetryPolicy) NormalizeAttempt(opts core.JobNackOptions, attempt int) core.JobNackOptions {
	out := opts
	out.Reason = strings.TrimSpace(out.Reason)
	if out.Delay < 0 {
		out.Delay = 0
	}
	if p.MaxDelay > 0 && out.Delay > p.MaxDelay {
		out.Delay = p.MaxDelay
	}
	if out.DeadLetter {
		out.Requeue = false
	}
	exhausted := p.MaxAttempts > 0 && attempt >= p.MaxAttempts
	if exhausted {
		out.Requeue = false
		if p.DeadLetterOnMax || out.DeadLetter {
			out.DeadLetter = true
		}
	}
	if !exhausted && !out.Requeue && !out.DeadLetter {
		out.Requeue = true
	}
	return out
}

func ToExecutionMessage(msg *core.JobExecutionMessage) *job.ExecutionMessage {
	if msg == nil {
		return nil
	}
	return &job.ExecutionMessage{
		JobID:          strings.TrimSpace(msg.JobID),
		Parameters:     copyAnyMap(msg.Parameters),
		IdempotencyKey: strings.TrimSpace(msg.IdempotencyKey),
		DedupPolicy:    job.DeduplicationPolicy(strings.TrimSpace(msg.DedupPolicy)),
	}
}

func FromExecutionMessage(msg *job.ExecutionMessage) *core.JobExecutionMessage {
	if msg == nil {
		return nil
	}
	return &core.JobExecutionMessage{
		JobID:          strings.TrimSpace(msg.JobID),
		Parameters:     copyAnyMap(msg.Parameters),
		IdempotencyKey: strings.TrimSpace(msg.IdempotencyKey),
		DedupPolicy:    strings.TrimSpace(string(msg.DedupPolicy)),
	}
}

func ToNackOptions(opts core.JobNackOptions) queue.NackOptions {
	return queue.NackOptions{
		Delay:      opts.Delay,
		Requeue:    opts.Requeue,
		DeadLetter: opts.DeadLetter,
		Reason:     opts.Reason,
	}
}

// EnqueuerAdapter lets the coordinator schedule audits on a go-job queue.
type EnqueuerAdapter struct {
	enqueuer queue.Enqueuer
}

func NewEnqueuerAdapter(enqueuer queue.Enqueuer) *EnqueuerAdapter {
	return &EnqueuerAdapter{enqueuer: enqueuer}
}

func (a *EnqueuerAdapter) Enqueue(ctx context.Context, msg *core.JobExecutionMessage) error {
	if a == nil || a.enqueuer == nil {
		return fmt.Errorf("gojob: enqueuer is not configured")
	}
	if msg == nil {
		return fmt.Errorf("gojob: execution message is required")
	}
	return a.enqueuer.Enqueue(ctx, ToExecutionMessage(msg))
}

type DeliveryAdapter struct {
	delivery queue.Delivery
	policy   RetryPolicy
	attempt  int
	release  func()
}

func NewDeliveryAdapter(delivery queue.Delivery, policy RetryPolicy) *DeliveryAdapter {
	return &DeliveryAdapter{delivery: delivery, policy: policy}
}

func (d *DeliveryAdapter) Message() *core.JobExecutionMessage {
	if d == nil || d.delivery == nil {
		return nil
	}
	return FromExecutionMessage(d.delivery.Message())
}

// Attempt is the delivery count the dequeuer recorded for this message.
func (d *DeliveryAdapter) Attempt() int {
	return d.attemptOrFirst()
}

func (d *DeliveryAdapter) Ack(ctx context.Context) error {
	if d == nil || d.delivery == nil {
		return fmt.Errorf("gojob: delivery is not configured")
	}
	if err := d.delivery.Ack(ctx); err != nil {
		return err
	}
	d.done()
	return nil
}

// Nack applies the retry policy using the attempt recorded by the dequeuer.
func (d *DeliveryAdapter) Nack(ctx context.Context, opts core.JobNackOptions) error {
	return d.NackForAttempt(ctx, opts, d.attemptOrFirst())
}

func (d *DeliveryAdapter) NackForAttempt(ctx context.Context, opts core.JobNackOptions, attempt int) error {
	if d == nil || d.delivery == nil {
		return fmt.Errorf("gojob: delivery is not configured")
	}
	normalized := d.policy.NormalizeAttempt(opts, attempt)
	if err := d.delivery.Nack(ctx, ToNackOptions(normalized)); err != nil {
		return err
	}
	if !normalized.Requeue {
		d.done()
	}
	return nil
}

func (d *DeliveryAdapter) attemptOrFirst() int {
	if d == nil || d.attempt <= 0 {
		return 1
	}
	return d.attempt
}

func (d *DeliveryAdapter) done() {
	if d.release != nil {
		d.release()
		d.release = nil
	}
}

// DequeuerAdapter feeds go-job deliveries to the custody audit worker. It
// counts deliveries per idempotency key so the retry policy can cap
// requeues of a single audit. A key is forgotten once its delivery is
// acked or leaves the queue.
type DequeuerAdapter struct {
	dequeuer queue.Dequeuer
	policy   RetryPolicy

	mu       sync.Mutex
	attempts map[string]int
}

func NewDequeuerAdapter(dequeuer queue.Dequeuer, policy RetryPolicy) *DequeuerAdapter {
	return &DequeuerAdapter{dequeuer: dequeuer, policy: policy, attempts: map[string]int{}}
}

func (a *DequeuerAdapter) Dequeue(ctx context.Context) (core.JobDelivery, error) {
	if a == nil || a.dequeuer == nil {
		return nil, fmt.Errorf("gojob: dequeuer is not configured")
	}
	delivery, err := a.dequeuer.Dequeue(ctx)
	if err != nil {
		return nil, err
	}
	if delivery == nil {
		return nil, nil
	}
	adapted := NewDeliveryAdapter(delivery, a.policy)
	if msg := delivery.Message(); msg != nil && msg.IdempotencyKey != "" {
		key := msg.IdempotencyKey
		a.mu.Lock()
		a.attempts[key]++
		adapted.attempt = a.attempts[key]
		a.mu.Unlock()
		adapted.release = func() { a.forget(key) }
	}
	return adapted, nil
}

// Tracked reports how many idempotency keys still hold an attempt count.
func (a *DequeuerAdapter) Tracked() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.attempts)
}

func (a *DequeuerAdapter) forget(key string) {
	a.mu.Lock()
	delete(a.attempts, key)
	a.mu.Unlock()
}

// WorkerHookAdapter reports go-job worker events to a custody hook.
type WorkerHookAdapter struct {
	hook core.JobWorkerHook
}

func NewWorkerHookAdapter(hook core.JobWorkerHook) *WorkerHookAdapter {
	return &WorkerHookAdapter{hook: hook}
}

func (a *WorkerHookAdapter) OnStart(ctx context.Context, event worker.Event) {
	if a == nil || a.hook == nil {
		return
	}
	a.hook.OnStart(ctx, mapWorkerEvent(event))
}

func (a *WorkerHookAdapter) OnSuccess(ctx context.Context, event worker.Event) {
	if a == nil || a.hook == nil {
		return
	}
	a.hook.OnSuccess(ctx, mapWorkerEvent(event))
}

func (a *WorkerHookAdapter) OnFailure(ctx context.Context, event worker.Event) {
	if a == nil || a.hook == nil {
		return
	}
	a.hook.OnFailure(ctx, mapWorkerEvent(event))
}

func (a *WorkerHookAdapter) OnRetry(ctx context.Context, event worker.Event) {
	if a == nil || a.hook == nil {
		return
	}
	a.hook.OnRetry(ctx, mapWorkerEvent(event))
}

// AuditHookBridge lets existing go-job worker hooks observe the custody
// audit worker.
type AuditHookBridge struct {
	hook worker.Hook
}

func NewAuditHookBridge(hook worker.Hook) *AuditHookBridge {
	return &AuditHookBridge{hook: hook}
}

func (b *AuditHookBridge) OnStart(ctx context.Context, event core.JobWorkerEvent) {
	if b == nil || b.hook == nil {
		return
	}
	b.hook.OnStart(ctx, toWorkerEvent(event))
}

func (b *AuditHookBridge) OnSuccess(ctx context.Context, event core.JobWorkerEvent) {
	if b == nil || b.hook == nil {
		return
	}
	b.hook.OnSuccess(ctx, toWorkerEvent(event))
}

func (b *AuditHookBridge) OnFailure(ctx context.Context, event core.JobWorkerEvent) {
	if b == nil || b.hook == nil {
		return
	}
	b.hook.OnFailure(ctx, toWorkerEvent(event))
}

func (b *AuditHookBridge) OnRetry(ctx context.Context, event core.JobWorkerEvent) {
	if b == nil || b.hook == nil {
		return
	}
	b.hook.OnRetry(ctx, toWorkerEvent(event))
}

// NewAuditWorker wires a custody audit worker to a go-job dequeuer.
func NewAuditWorker(
	dequeuer queue.Dequeuer,
	reporter core.CustodyReporter,
	policy RetryPolicy,
	config core.AuditWorkerConfig,
	hooks ...core.JobWorkerHook,
) (*core.AuditWorker, error) {
	auditor, err := core.NewAuditor(reporter)
	if err != nil {
		return nil, err
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = core.DefaultAuditWorkerConfig().RetryDelay
	}
	if policy.MaxDelay > 0 && config.RetryDelay > policy.MaxDelay {
		config.RetryDelay = policy.MaxDelay
	}
	return core.NewAuditWorker(NewDequeuerAdapter(dequeuer, policy), auditor, config, hooks...)
}

func mapWorkerEvent(event worker.Event) core.JobWorkerEvent {
	message := event.Message
	if message == nil && event.Delivery != nil {
		message = event.Delivery.Message()
	}
	return core.JobWorkerEvent{
		Message:   FromExecutionMessage(message),
		Attempt:   event.Attempt,
		Delay:     event.Delay,
		Err:       event.Err,
		StartedAt: event.StartedAt,
		Duration:  event.Duration,
	}
}

func toWorkerEvent(event core.JobWorkerEvent) worker.Event {
	return worker.Event{
		Message:   ToExecutionMessage(event.Message),
		Attempt:   event.Attempt,
		Delay:     event.Delay,
		Err:       event.Err,
		StartedAt: event.StartedAt,
		Duration:  event.Duration,
	}
}

func copyAnyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

var (
	_ core.JobEnqueuer        = (*EnqueuerAdapter)(nil)
	_ core.JobDelivery        = (*DeliveryAdapter)(nil)
	_ core.JobAttemptReporter = (*DeliveryAdapter)(nil)
	_ core.JobDequeuer        = (*DequeuerAdapter)(nil)
	_ worker.Hook             = (*WorkerHookAdapter)(nil)
	_ core.JobWorkerHook      = (*AuditHookBridge)(nil)
)
