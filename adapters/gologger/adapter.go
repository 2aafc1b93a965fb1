package gologger

import (
	"context"

	"github.com/goliatone/go-custody/core"
	job "github.com/goliatone/go-job"
	glog "github.com/goliatone/go-logger/glog"
)

const (
	LoggerName      = "custody"
	AuditLoggerName = "custody.audit"
)

// Resolve returns the custody logger with precedence provider > logger > nop.
func Resolve(provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	resolvedProvider, resolved := glog.Resolve(LoggerName, provider, logger)
	return resolvedProvider, glog.Ensure(resolved)
}

// AuditJobLoggers resolves the audit worker logger and bridges it to the
// go-job logger contracts.
func AuditJobLoggers(provider glog.LoggerProvider, logger glog.Logger) (job.LoggerProvider, job.Logger) {
	resolvedProvider, resolved := glog.Resolve(AuditLoggerName, provider, logger)
	var jobProvider job.LoggerProvider
	if resolvedProvider != nil {
		jobProvider = job.GoLoggerProvider(resolvedProvider)
	}
	return jobProvider, job.GoLogger(glog.Ensure(resolved))
}

// AuditLogHook writes one log line per audit job lifecycle event.
type AuditLogHook struct {
	logger glog.Logger
}

func NewAuditLogHook(provider glog.LoggerProvider, logger glog.Logger) *AuditLogHook {
	_, resolved := glog.Resolve(AuditLoggerName, provider, logger)
	return &AuditLogHook{logger: glog.Ensure(resolved)}
}

func (h *AuditLogHook) OnStart(ctx context.Context, event core.JobWorkerEvent) {
	h.log(ctx).Debug("custody audit started", auditArgs(event)...)
}

func (h *AuditLogHook) OnSuccess(ctx context.Context, event core.JobWorkerEvent) {
	h.log(ctx).Info("custody audit passed", auditArgs(event)...)
}

func (h *AuditLogHook) OnFailure(ctx context.Context, event core.JobWorkerEvent) {
	h.log(ctx).Error("custody audit failed", auditArgs(event)...)
}

func (h *AuditLogHook) OnRetry(ctx context.Context, event core.JobWorkerEvent) {
	h.log(ctx).Warn("custody audit retry scheduled", append(auditArgs(event), "delay_ms", event.Delay.Milliseconds())...)
}

func (h *AuditLogHook) log(ctx context.Context) glog.Logger {
	if h == nil || h.logger == nil {
		return glog.Nop()
	}
	if ctx == nil {
		return h.logger
	}
	return h.logger.WithContext(ctx)
}

func auditArgs(event core.JobWorkerEvent) []any {
	args := []any{"attempt", event.Attempt}
	if event.Message != nil {
		args = append(args, "job_id", event.Message.JobID)
		if id, ok := event.Message.Parameters["conversion_id"]; ok {
			args = append(args, "conversion_id", id)
		}
	}
	if event.Duration > 0 {
		args = append(args, "duration_ms", event.Duration.Milliseconds())
	}
	if event.Err != nil {
		args = append(args, "error", event.Err.Error())
	}
	return args
}

var _ core.JobWorkerHook = (*AuditLogHook)(nil)
