package core

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/holiman/uint256"
)

// SourceLedger is the pull/push capability over the source asset.
type SourceLedger interface {
	// TransferFrom moves amount from holder to custodian, consuming the
	// allowance holder granted to custodian.
	TransferFrom(ctx context.Context, holder, custodian common.Address, amount *uint256.Int) error
	Transfer(ctx context.Context, from, to common.Address, amount *uint256.Int) error
	BalanceOf(ctx context.Context, account common.Address) (*uint256.Int, error)
}

// DerivativeLedger is the credit/debit capability over the derivative asset.
type DerivativeLedger interface {
	Mint(ctx context.Context, account common.Address, amount uint64) error
	Burn(ctx context.Context, account common.Address, amount uint64) error
	BalanceOf(ctx context.Context, account common.Address) (uint64, error)
	TotalSupply(ctx context.Context) (uint64, error)
}

type ConversionWriter interface {
	Record(ctx context.Context, conversion Conversion) error
}

type ConversionReader interface {
	ListConversions(ctx context.Context, filter ConversionFilter) (ConversionPage, error)
}

// Ledgers is the view a unit of work hands to its callback. Every ledger
// returned by a single Ledgers value commits or rolls back together.
type Ledgers interface {
	Source() SourceLedger
	Derivative() DerivativeLedger
	Journal() ConversionWriter
}

type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, ledgers Ledgers) error) error
}

type ConfigurationStore interface {
	// Load returns ErrConfigurationNotFound when nothing was saved yet.
	Load(ctx context.Context) (Configuration, error)
	Save(ctx context.Context, cfg Configuration) error
}

// UncachedConfigurationLoader is implemented by caching stores. The
// coordinator uses it to read the switches it is about to act on.
type UncachedConfigurationLoader interface {
	LoadUncached(ctx context.Context) (Configuration, error)
}

type AccessGate interface {
	Authorize(ctx context.Context, caller common.Address, cfg Configuration) error
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type RepositoryFactory interface {
	UnitOfWork() UnitOfWork
	ConfigurationStore() ConfigurationStore
	ConversionReader() ConversionReader
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type JobExecutionMessage struct {
	JobID          string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

// JobAttemptReporter is implemented by deliveries that know how many times
// their message has been handed out.
type JobAttemptReporter interface {
	Attempt() int
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}

type JobWorkerHook interface {
	OnStart(ctx context.Context, event JobWorkerEvent)
	OnSuccess(ctx context.Context, event JobWorkerEvent)
	OnFailure(ctx context.Context, event JobWorkerEvent)
	OnRetry(ctx context.Context, event JobWorkerEvent)
}

type JobWorkerEvent struct {
	Message   *JobExecutionMessage
	Attempt   int
	Delay     time.Duration
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

type CustodyService interface {
	Wrap(ctx context.Context, req WrapRequest) (Conversion, error)
	Unwrap(ctx context.Context, req UnwrapRequest) (Conversion, error)
	SetEnabledState(ctx context.Context, req SetEnabledStateRequest) (Configuration, error)
	SourceAsset() common.Address
	EnabledState(ctx context.Context) (EnabledState, error)
	Balances(ctx context.Context, account common.Address) (AccountBalances, error)
	Report(ctx context.Context) (CustodyReport, error)
	Conversions(ctx context.Context, filter ConversionFilter) (ConversionPage, error)
	AssetInfo() AssetPair
}
