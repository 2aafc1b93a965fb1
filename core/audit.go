package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

type CustodyReporter interface {
	Report(ctx context.Context) (CustodyReport, error)
}

// Auditor checks that custody covers the outstanding derivative supply.
type Auditor struct {
	reporter CustodyReporter
}

func NewAuditor(reporter CustodyReporter) (*Auditor, error) {
	if reporter == nil {
		return nil, fmt.Errorf("core: custody reporter is required")
	}
	return &Auditor{reporter: reporter}, nil
}

// Check returns the report and ErrCustodyShortfall when custody is below
// supply * scale.
func (a *Auditor) Check(ctx context.Context) (CustodyReport, error) {
	if a == nil || a.reporter == nil {
		return CustodyReport{}, fmt.Errorf("core: auditor is not configured")
	}
	report, err := a.reporter.Report(ctx)
	if err != nil {
		return CustodyReport{}, err
	}
	if !report.Healthy {
		return report, fmt.Errorf(
			"%w: custody %s, backing %s, shortfall %s",
			ErrCustodyShortfall,
			report.CustodyBalance.Dec(),
			report.Backing.Dec(),
			report.Shortfall.Dec(),
		)
	}
	return report, nil
}

type AuditWorkerConfig struct {
	RetryDelay time.Duration
}

func DefaultAuditWorkerConfig() AuditWorkerConfig {
	return AuditWorkerConfig{RetryDelay: 5 * time.Second}
}

type AuditOutcome struct {
	Message      *JobExecutionMessage
	Report       CustodyReport
	Acked        bool
	Requeued     bool
	DeadLettered bool
	Err          error
}

// AuditWorker drains custody audit jobs. A healthy audit is acked, a
// shortfall is dead-lettered, and a failure to read the ledgers is requeued.
type AuditWorker struct {
	dequeuer JobDequeuer
	auditor  *Auditor
	hooks    []JobWorkerHook
	config   AuditWorkerConfig
	now      func() time.Time
}

func NewAuditWorker(dequeuer JobDequeuer, auditor *Auditor, config AuditWorkerConfig, hooks ...JobWorkerHook) (*AuditWorker, error) {
	if dequeuer == nil {
		return nil, fmt.Errorf("core: job dequeuer is required")
	}
	if auditor == nil {
		return nil, fmt.Errorf("core: auditor is required")
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = DefaultAuditWorkerConfig().RetryDelay
	}
	filtered := make([]JobWorkerHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook != nil {
			filtered = append(filtered, hook)
		}
	}
	return &AuditWorker{
		dequeuer: dequeuer,
		auditor:  auditor,
		hooks:    filtered,
		config:   config,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

func (w *AuditWorker) ProcessNext(ctx context.Context) (AuditOutcome, error) {
	if w == nil || w.dequeuer == nil {
		return AuditOutcome{}, fmt.Errorf("core: audit worker is not configured")
	}
	delivery, err := w.dequeuer.Dequeue(ctx)
	if err != nil {
		return AuditOutcome{}, err
	}
	if delivery == nil {
		return AuditOutcome{}, nil
	}

	startedAt := w.now()
	outcome := AuditOutcome{Message: delivery.Message()}
	event := JobWorkerEvent{Message: outcome.Message, Attempt: deliveryAttempt(delivery), StartedAt: startedAt}
	w.emit(ctx, JobWorkerHook.OnStart, event)

	if outcome.Message == nil || strings.TrimSpace(outcome.Message.JobID) != JobIDCustodyAudit {
		outcome.Err = fmt.Errorf("core: unsupported job %q", jobIDOf(outcome.Message))
		outcome.DeadLettered = true
		event.Err, event.Duration = outcome.Err, w.now().Sub(startedAt)
		w.emit(ctx, JobWorkerHook.OnFailure, event)
		return outcome, delivery.Nack(ctx, JobNackOptions{DeadLetter: true, Reason: outcome.Err.Error()})
	}

	report, checkErr := w.auditor.Check(ctx)
	outcome.Report = report
	event.Duration = w.now().Sub(startedAt)
	switch {
	case checkErr == nil:
		outcome.Acked = true
		w.emit(ctx, JobWorkerHook.OnSuccess, event)
		return outcome, delivery.Ack(ctx)
	case errors.Is(checkErr, ErrCustodyShortfall):
		outcome.Err = checkErr
		outcome.DeadLettered = true
		event.Err = checkErr
		w.emit(ctx, JobWorkerHook.OnFailure, event)
		return outcome, delivery.Nack(ctx, JobNackOptions{DeadLetter: true, Reason: checkErr.Error()})
	default:
		outcome.Err = checkErr
		outcome.Requeued = true
		event.Err, event.Delay = checkErr, w.config.RetryDelay
		w.emit(ctx, JobWorkerHook.OnRetry, event)
		return outcome, delivery.Nack(ctx, JobNackOptions{
			Requeue: true,
			Delay:   w.config.RetryDelay,
			Reason:  checkErr.Error(),
		})
	}
}

func (w *AuditWorker) emit(ctx context.Context, fn func(JobWorkerHook, context.Context, JobWorkerEvent), event JobWorkerEvent) {
	for _, hook := range w.hooks {
		fn(hook, ctx, event)
	}
}

func deliveryAttempt(delivery JobDelivery) int {
	if reporter, ok := delivery.(JobAttemptReporter); ok {
		if attempt := reporter.Attempt(); attempt > 0 {
			return attempt
		}
	}
	return 1
}

func jobIDOf(msg *JobExecutionMessage) string {
	if msg == nil {
		return ""
	}
	return msg.JobID
}
