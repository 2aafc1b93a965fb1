package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	testOwner     = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	testCustodian = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	testHolder    = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	testOther     = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	testFixedTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Owner = testOwner.Hex()
	cfg.Custodian = testCustodian.Hex()
	return cfg
}

func units(value string) *uint256.Int {
	return uint256.MustFromDecimal(value)
}

// elon returns whole source units at 18 decimals.
func elon(whole uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(whole), units("1000000000000000000"))
}

func newTestCoordinator(t *testing.T, opts ...Option) (*Coordinator, *MemoryBank) {
	t.Helper()
	bank := NewMemoryBank()
	base := []Option{
		WithUnitOfWork(bank),
		WithConversionReader(bank),
		WithClock(func() time.Time { return testFixedTime }),
	}
	coordinator, err := NewCoordinator(testConfig(), append(base, opts...)...)
	if err != nil {
		t.Fatalf("new coordinator: %v", err)
	}
	return coordinator, bank
}

// fundAndApprove gives holder amount source units and lets the custodian
// pull all of them.
func fundAndApprove(t *testing.T, bank *MemoryBank, holder common.Address, amount *uint256.Int) {
	t.Helper()
	if err := bank.FundSource(holder, amount); err != nil {
		t.Fatalf("fund source: %v", err)
	}
	bank.Approve(holder, testCustodian, amount)
}

type stubLogger struct{}

func (stubLogger) Trace(string, ...any) {}
func (stubLogger) Debug(string, ...any) {}
func (stubLogger) Info(string, ...any)  {}
func (stubLogger) Warn(string, ...any)  {}
func (stubLogger) Error(string, ...any) {}
func (stubLogger) Fatal(string, ...any) {}
func (s stubLogger) WithContext(context.Context) Logger {
	return s
}

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

type mapRawLoader struct {
	values map[string]any
	err    error
}

func (l mapRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	if l.err != nil {
		return nil, l.err
	}
	if len(l.values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.values))
	for key, value := range l.values {
		out[key] = value
	}
	return out, nil
}

// failingUnitOfWork runs the callback against a memory bank, then injects
// a failure at a chosen ledger step.
type failingUnitOfWork struct {
	bank     *MemoryBank
	failMint bool
	failPush bool
	failLog  bool
}

var errInjected = errors.New("injected failure")

func (u *failingUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, ledgers Ledgers) error) error {
	return u.bank.Do(ctx, func(ctx context.Context, ledgers Ledgers) error {
		return fn(ctx, failingLedgers{inner: ledgers, uow: u})
	})
}

type failingLedgers struct {
	inner Ledgers
	uow   *failingUnitOfWork
}

func (l failingLedgers) Source() SourceLedger {
	return failingSourceLedger{SourceLedger: l.inner.Source(), uow: l.uow}
}

func (l failingLedgers) Derivative() DerivativeLedger {
	return failingDerivativeLedger{DerivativeLedger: l.inner.Derivative(), uow: l.uow}
}

func (l failingLedgers) Journal() ConversionWriter {
	if l.uow.failLog {
		return failingJournal{}
	}
	return l.inner.Journal()
}

type failingSourceLedger struct {
	SourceLedger
	uow *failingUnitOfWork
}

func (l failingSourceLedger) Transfer(ctx context.Context, from, to common.Address, amount *uint256.Int) error {
	if l.uow.failPush {
		return errInjected
	}
	return l.SourceLedger.Transfer(ctx, from, to, amount)
}

type failingDerivativeLedger struct {
	DerivativeLedger
	uow *failingUnitOfWork
}

func (l failingDerivativeLedger) Mint(ctx context.Context, account common.Address, amount uint64) error {
	if l.uow.failMint {
		return errInjected
	}
	return l.DerivativeLedger.Mint(ctx, account, amount)
}

type failingJournal struct{}

func (failingJournal) Record(context.Context, Conversion) error {
	return errInjected
}

type recordingEnqueuer struct {
	messages []*JobExecutionMessage
	err      error
}

func (e *recordingEnqueuer) Enqueue(_ context.Context, msg *JobExecutionMessage) error {
	if e.err != nil {
		return e.err
	}
	e.messages = append(e.messages, msg)
	return nil
}
