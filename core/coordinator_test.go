package core

import (
	"context"
	"errors"
	"sync"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/holiman/uint256"
)

func TestCoordinator_BootstrapsEnabledConfiguration(t *testing.T) {
	coordinator, _ := newTestCoordinator(t)
	cfg, err := coordinator.Configuration(context.Background())
	if err != nil {
		t.Fatalf("load configuration: %v", err)
	}
	if !cfg.WrapEnabled || !cfg.UnwrapEnabled {
		t.Fatalf("expected both directions enabled, got %+v", cfg.EnabledState())
	}
	if cfg.Owner != testOwner {
		t.Fatalf("expected owner %s, got %s", testOwner.Hex(), cfg.Owner.Hex())
	}
	if coordinator.SourceAsset().Hex() != DefaultSourceAssetAddress {
		t.Fatalf("expected default source asset, got %s", coordinator.SourceAsset().Hex())
	}
	if !cfg.UpdatedAt.Equal(testFixedTime) {
		t.Fatalf("expected bootstrap timestamp from clock, got %s", cfg.UpdatedAt)
	}
}

func TestCoordinator_BootstrapKeepsStoredFlagsAndRejectsAssetMismatch(t *testing.T) {
	store := NewMemoryConfigurationStore()
	first, err := NewCoordinator(testConfig(), WithConfigurationStore(store))
	if err != nil {
		t.Fatalf("new coordinator: %v", err)
	}
	if _, err := first.SetEnabledState(context.Background(), SetEnabledStateRequest{Caller: testOwner}); err != nil {
		t.Fatalf("set enabled state: %v", err)
	}

	second, err := NewCoordinator(testConfig(), WithConfigurationStore(store))
	if err != nil {
		t.Fatalf("new coordinator over existing store: %v", err)
	}
	state, err := second.EnabledState(context.Background())
	if err != nil {
		t.Fatalf("enabled state: %v", err)
	}
	if state.WrapEnabled || state.UnwrapEnabled {
		t.Fatalf("expected stored disabled flags to survive restart, got %+v", state)
	}

	moved := testConfig()
	moved.Source.Address = "0x00000000000000000000000000000000000000ee"
	if _, err := NewCoordinator(moved, WithConfigurationStore(store)); err == nil {
		t.Fatalf("expected source asset mismatch to fail construction")
	} else if !IsTextCode(err, CustodyErrorBadInput) {
		t.Fatalf("expected bad input code for mismatch, got %v", err)
	}
}

func TestCoordinator_WrapMinimalAmount(t *testing.T) {
	ctx := context.Background()
	coordinator, bank := newTestCoordinator(t)
	fundAndApprove(t, bank, testHolder, elon(1))

	conversion, err := coordinator.Wrap(ctx, WrapRequest{Caller: testHolder, Amount: units("100000000000000")})
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	if conversion.DerivativeAmount != 1 {
		t.Fatalf("expected one derivative unit, got %d", conversion.DerivativeAmount)
	}
	if got := bank.SourceBalance(testCustodian).Dec(); got != "100000000000000" {
		t.Fatalf("expected custody 10^14, got %s", got)
	}
	if got := bank.DerivativeBalance(testHolder); got != 1 {
		t.Fatalf("expected holder derivative balance 1, got %d", got)
	}
	if !conversion.Residue.IsZero() {
		t.Fatalf("expected no residue, got %s", conversion.Residue.Dec())
	}
}

func TestCoordinator_WrapRoundingStrandsResidue(t *testing.T) {
	ctx := context.Background()
	coordinator, bank := newTestCoordinator(t)
	fundAndApprove(t, bank, testHolder, elon(1))

	conversion, err := coordinator.Wrap(ctx, WrapRequest{Caller: testHolder, Amount: units("1099999999999999")})
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	if conversion.DerivativeAmount != 10 {
		t.Fatalf("expected 10 derivative units, got %d", conversion.DerivativeAmount)
	}
	if got := conversion.Residue.Dec(); got != "99999999999999" {
		t.Fatalf("expected residue 99999999999999, got %s", got)
	}
	if got := bank.SourceBalance(testCustodian).Dec(); got != "1099999999999999" {
		t.Fatalf("expected custody to hold the full amount, got %s", got)
	}

	report, err := coordinator.Report(ctx)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !report.Healthy {
		t.Fatalf("expected healthy report")
	}
	if report.Backing.Dec() != "1000000000000000" || report.Residue.Dec() != "99999999999999" {
		t.Fatalf("unexpected backing/residue: %s/%s", report.Backing.Dec(), report.Residue.Dec())
	}
}

func TestCoordinator_FullRoundTripRestoresBalances(t *testing.T) {
	ctx := context.Background()
	coordinator, bank := newTestCoordinator(t)
	fundAndApprove(t, bank, testHolder, elon(1))
	before := bank.SourceBalance(testHolder)

	if _, err := coordinator.Wrap(ctx, WrapRequest{Caller: testHolder, Amount: units("1000000000000000")}); err != nil {
		t.Fatalf("wrap: %v", err)
	}
	conversion, err := coordinator.Unwrap(ctx, UnwrapRequest{Caller: testHolder, Amount: 10})
	if err != nil {
		t.Fatalf("unwrap: %v", err)
	}
	if conversion.SourceAmount.Dec() != "1000000000000000" {
		t.Fatalf("expected released 10^15, got %s", conversion.SourceAmount.Dec())
	}
	if !bank.SourceBalance(testHolder).Eq(before) {
		t.Fatalf("expected source balance restored to %s, got %s", before.Dec(), bank.SourceBalance(testHolder).Dec())
	}
	if bank.DerivativeBalance(testHolder) != 0 || bank.DerivativeSupply() != 0 {
		t.Fatalf("expected derivative balance and supply back to zero")
	}
	if !bank.SourceBalance(testCustodian).IsZero() {
		t.Fatalf("expected empty custody, got %s", bank.SourceBalance(testCustodian).Dec())
	}
}

func TestCoordinator_PartialUnwrap(t *testing.T) {
	ctx := context.Background()
	coordinator, bank := newTestCoordinator(t)
	fundAndApprove(t, bank, testHolder, elon(1))
	before := bank.SourceBalance(testHolder)

	if _, err := coordinator.Wrap(ctx, WrapRequest{Caller: testHolder, Amount: units("1000000000000000")}); err != nil {
		t.Fatalf("wrap: %v", err)
	}
	if _, err := coordinator.Unwrap(ctx, UnwrapRequest{Caller: testHolder, Amount: 5}); err != nil {
		t.Fatalf("unwrap: %v", err)
	}
	expected := new(uint256.Int).Sub(before, units("500000000000000"))
	if !bank.SourceBalance(testHolder).Eq(expected) {
		t.Fatalf("expected source balance %s, got %s", expected.Dec(), bank.SourceBalance(testHolder).Dec())
	}
	if got := bank.DerivativeBalance(testHolder); got != 5 {
		t.Fatalf("expected remaining derivative balance 5, got %d", got)
	}
}

func TestCoordinator_WrapBelowMinimumChangesNothing(t *testing.T) {
	ctx := context.Background()
	coordinator, bank := newTestCoordinator(t)
	fundAndApprove(t, bank, testHolder, elon(1))

	for _, raw := range []string{"0", "1", "99999999999999"} {
		_, err := coordinator.Wrap(ctx, WrapRequest{Caller: testHolder, Amount: units(raw)})
		if !IsBelowMinimum(err) {
			t.Fatalf("wrap(%s): expected below minimum error, got %v", raw, err)
		}
	}
	if !bank.SourceBalance(testHolder).Eq(elon(1)) {
		t.Fatalf("expected holder balance untouched")
	}
	if bank.DerivativeSupply() != 0 {
		t.Fatalf("expected no derivative issued")
	}
}

func TestCoordinator_WrapDisabledIsCheckedFirst(t *testing.T) {
	ctx := context.Background()
	coordinator, bank := newTestCoordinator(t)
	fundAndApprove(t, bank, testHolder, elon(1))
	if _, err := coordinator.SetEnabledState(ctx, SetEnabledStateRequest{
		Caller:        testOwner,
		WrapEnabled:   false,
		UnwrapEnabled: true,
	}); err != nil {
		t.Fatalf("set enabled state: %v", err)
	}

	for _, raw := range []string{"1", "100000000000000", "1000000000000000000"} {
		_, err := coordinator.Wrap(ctx, WrapRequest{Caller: testHolder, Amount: units(raw)})
		if !IsWrapDisabled(err) {
			t.Fatalf("wrap(%s): expected wrap disabled, got %v", raw, err)
		}
		var richErr *goerrors.Error
		if !goerrors.As(err, &richErr) || richErr.Message != "wrapping disabled" {
			t.Fatalf("expected wrapping disabled message, got %v", err)
		}
	}

	if _, err := coordinator.Wrap(ctx, WrapRequest{Caller: testHolder}); !IsWrapDisabled(err) {
		t.Fatalf("wrap without amount: expected wrap disabled, got %v", err)
	}
}

func TestCoordinator_WrapWithoutAmountIsBadInput(t *testing.T) {
	coordinator, _ := newTestCoordinator(t)
	_, err := coordinator.Wrap(context.Background(), WrapRequest{Caller: testHolder})
	if !IsTextCode(err, CustodyErrorBadInput) || !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected bad input for missing amount, got %v", err)
	}
}

func TestCoordinator_CustodianCannotWrap(t *testing.T) {
	ctx := context.Background()
	coordinator, bank := newTestCoordinator(t)
	fundAndApprove(t, bank, testHolder, elon(1))
	if _, err := coordinator.Wrap(ctx, WrapRequest{Caller: testHolder, Amount: units("1000000000000000")}); err != nil {
		t.Fatalf("holder wrap: %v", err)
	}

	if err := bank.FundSource(testCustodian, elon(1)); err != nil {
		t.Fatalf("fund custodian: %v", err)
	}
	bank.Approve(testCustodian, testCustodian, elon(1))
	custodyBefore := bank.SourceBalance(testCustodian)

	_, err := coordinator.Wrap(ctx, WrapRequest{Caller: testCustodian, Amount: units("1000000000000000")})
	if !IsTextCode(err, CustodyErrorBadInput) || !errors.Is(err, ErrCustodianCaller) {
		t.Fatalf("expected custodian caller rejected, got %v", err)
	}
	if !bank.SourceBalance(testCustodian).Eq(custodyBefore) {
		t.Fatalf("expected custody untouched, got %s", bank.SourceBalance(testCustodian).Dec())
	}
	if bank.DerivativeBalance(testCustodian) != 0 || bank.DerivativeSupply() != 10 {
		t.Fatalf("expected no derivative minted to custodian, supply %d", bank.DerivativeSupply())
	}

	report, err := coordinator.Report(ctx)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !report.Healthy {
		t.Fatalf("expected healthy backing after rejected custodian wrap, got %+v", report)
	}
}

func TestCoordinator_CustodianCannotUnwrap(t *testing.T) {
	ctx := context.Background()
	coordinator, bank := newTestCoordinator(t)
	fundAndApprove(t, bank, testHolder, elon(1))
	if _, err := coordinator.Wrap(ctx, WrapRequest{Caller: testHolder, Amount: units("1000000000000000")}); err != nil {
		t.Fatalf("holder wrap: %v", err)
	}
	if err := bank.TransferDerivative(testHolder, testCustodian, 5); err != nil {
		t.Fatalf("transfer derivative: %v", err)
	}

	_, err := coordinator.Unwrap(ctx, UnwrapRequest{Caller: testCustodian, Amount: 5})
	if !IsTextCode(err, CustodyErrorBadInput) || !errors.Is(err, ErrCustodianCaller) {
		t.Fatalf("expected custodian caller rejected, got %v", err)
	}
	if bank.DerivativeBalance(testCustodian) != 5 || bank.DerivativeSupply() != 10 {
		t.Fatalf("expected derivative untouched, custodian %d supply %d",
			bank.DerivativeBalance(testCustodian), bank.DerivativeSupply())
	}
	if bank.SourceBalance(testCustodian).Dec() != "1000000000000000" {
		t.Fatalf("expected custody untouched, got %s", bank.SourceBalance(testCustodian).Dec())
	}
}

func TestCoordinator_UnwrapZeroIsCheckedBeforeSwitch(t *testing.T) {
	ctx := context.Background()
	coordinator, _ := newTestCoordinator(t)
	if _, err := coordinator.SetEnabledState(ctx, SetEnabledStateRequest{Caller: testOwner, WrapEnabled: true}); err != nil {
		t.Fatalf("set enabled state: %v", err)
	}

	_, err := coordinator.Unwrap(ctx, UnwrapRequest{Caller: testHolder, Amount: 0})
	if !IsZeroAmount(err) {
		t.Fatalf("expected zero amount error while unwrap is disabled, got %v", err)
	}
	_, err = coordinator.Unwrap(ctx, UnwrapRequest{Caller: testHolder, Amount: 1})
	if !IsUnwrapDisabled(err) {
		t.Fatalf("expected unwrap disabled, got %v", err)
	}
}

func TestCoordinator_UnwrapPropagatesLedgerErrorUnchanged(t *testing.T) {
	ctx := context.Background()
	coordinator, _ := newTestCoordinator(t)

	_, err := coordinator.Unwrap(ctx, UnwrapRequest{Caller: testHolder, Amount: 1})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ledger insufficient balance, got %v", err)
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		t.Fatalf("expected ledger error to pass through without a custody envelope")
	}
}

func TestCoordinator_WrapWithoutAllowanceFails(t *testing.T) {
	ctx := context.Background()
	coordinator, bank := newTestCoordinator(t)
	if err := bank.FundSource(testHolder, elon(1)); err != nil {
		t.Fatalf("fund: %v", err)
	}

	_, err := coordinator.Wrap(ctx, WrapRequest{Caller: testHolder, Amount: units("100000000000000")})
	if !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("expected insufficient allowance, got %v", err)
	}
	if bank.DerivativeSupply() != 0 {
		t.Fatalf("expected no derivative issued")
	}
}

func TestCoordinator_SwitchesAreIndependent(t *testing.T) {
	ctx := context.Background()
	coordinator, bank := newTestCoordinator(t)
	fundAndApprove(t, bank, testHolder, elon(1))
	if _, err := coordinator.Wrap(ctx, WrapRequest{Caller: testHolder, Amount: units("1000000000000000")}); err != nil {
		t.Fatalf("wrap: %v", err)
	}

	if _, err := coordinator.SetEnabledState(ctx, SetEnabledStateRequest{Caller: testOwner, UnwrapEnabled: true}); err != nil {
		t.Fatalf("disable wrap: %v", err)
	}
	if _, err := coordinator.Unwrap(ctx, UnwrapRequest{Caller: testHolder, Amount: 1}); err != nil {
		t.Fatalf("expected unwrap to keep working with wrap disabled: %v", err)
	}

	if _, err := coordinator.SetEnabledState(ctx, SetEnabledStateRequest{Caller: testOwner, WrapEnabled: true}); err != nil {
		t.Fatalf("disable unwrap: %v", err)
	}
	if _, err := coordinator.Wrap(ctx, WrapRequest{Caller: testHolder, Amount: units("100000000000000")}); err != nil {
		t.Fatalf("expected wrap to keep working with unwrap disabled: %v", err)
	}
}

func TestCoordinator_SetEnabledStateRequiresOwner(t *testing.T) {
	ctx := context.Background()
	coordinator, _ := newTestCoordinator(t)

	for _, req := range []SetEnabledStateRequest{
		{Caller: testHolder, WrapEnabled: true, UnwrapEnabled: true},
		{Caller: testHolder},
		{Caller: testCustodian, WrapEnabled: false, UnwrapEnabled: true},
	} {
		_, err := coordinator.SetEnabledState(ctx, req)
		if !IsNotOwner(err) {
			t.Fatalf("expected not owner for %s, got %v", req.Caller.Hex(), err)
		}
	}
	state, err := coordinator.EnabledState(ctx)
	if err != nil {
		t.Fatalf("enabled state: %v", err)
	}
	if !state.WrapEnabled || !state.UnwrapEnabled {
		t.Fatalf("expected flags unchanged, got %+v", state)
	}

	// Writing the current values again is allowed.
	cfg, err := coordinator.SetEnabledState(ctx, SetEnabledStateRequest{Caller: testOwner, WrapEnabled: true, UnwrapEnabled: true})
	if err != nil {
		t.Fatalf("owner no-op update: %v", err)
	}
	if !cfg.WrapEnabled || !cfg.UnwrapEnabled {
		t.Fatalf("expected flags to stay enabled")
	}
}

func TestCoordinator_FailedStepRollsBackConversion(t *testing.T) {
	ctx := context.Background()
	cases := map[string]*failingUnitOfWork{
		"mint":    {failMint: true},
		"journal": {failLog: true},
	}
	for name, uow := range cases {
		t.Run(name, func(t *testing.T) {
			bank := NewMemoryBank()
			uow.bank = bank
			coordinator, err := NewCoordinator(testConfig(), WithUnitOfWork(uow))
			if err != nil {
				t.Fatalf("new coordinator: %v", err)
			}
			fundAndApprove(t, bank, testHolder, elon(1))

			_, err = coordinator.Wrap(ctx, WrapRequest{Caller: testHolder, Amount: units("100000000000000")})
			if !errors.Is(err, errInjected) {
				t.Fatalf("expected injected failure, got %v", err)
			}
			if !bank.SourceBalance(testHolder).Eq(elon(1)) {
				t.Fatalf("expected pulled funds to be rolled back")
			}
			if !bank.Allowance(testHolder, testCustodian).Eq(elon(1)) {
				t.Fatalf("expected allowance to be rolled back")
			}
			if !bank.SourceBalance(testCustodian).IsZero() {
				t.Fatalf("expected custody to stay empty")
			}
		})
	}
}

func TestCoordinator_FailedPushRestoresBurnedUnits(t *testing.T) {
	ctx := context.Background()
	bank := NewMemoryBank()
	uow := &failingUnitOfWork{bank: bank}
	coordinator, err := NewCoordinator(testConfig(), WithUnitOfWork(uow), WithConversionReader(bank))
	if err != nil {
		t.Fatalf("new coordinator: %v", err)
	}
	fundAndApprove(t, bank, testHolder, elon(1))
	if _, err := coordinator.Wrap(ctx, WrapRequest{Caller: testHolder, Amount: units("1000000000000000")}); err != nil {
		t.Fatalf("wrap: %v", err)
	}

	uow.failPush = true
	if _, err := coordinator.Unwrap(ctx, UnwrapRequest{Caller: testHolder, Amount: 4}); !errors.Is(err, errInjected) {
		t.Fatalf("expected injected failure, got %v", err)
	}
	if bank.DerivativeBalance(testHolder) != 10 || bank.DerivativeSupply() != 10 {
		t.Fatalf("expected burn to be rolled back")
	}
	page, err := coordinator.Conversions(ctx, ConversionFilter{})
	if err != nil {
		t.Fatalf("conversions: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("expected only the wrap in the journal, got %d", page.Total)
	}
}

func TestCoordinator_ConservationAcrossSequence(t *testing.T) {
	ctx := context.Background()
	coordinator, bank := newTestCoordinator(t)
	fundAndApprove(t, bank, testHolder, elon(10))
	fundAndApprove(t, bank, testOther, elon(10))
	scale := coordinator.Converter().Scale()

	wrapped := new(uint256.Int)
	unwrapped := new(uint256.Int)
	steps := []struct {
		wrap   string
		unwrap uint64
		holder bool
	}{
		{wrap: "1099999999999999", holder: true},
		{wrap: "333333333333333333", holder: false},
		{unwrap: 7, holder: true},
		{wrap: "100000000000001", holder: true},
		{unwrap: 3333, holder: false},
		{unwrap: 4, holder: true},
	}
	for index, step := range steps {
		caller := testHolder
		if !step.holder {
			caller = testOther
		}
		if step.wrap != "" {
			conversion, err := coordinator.Wrap(ctx, WrapRequest{Caller: caller, Amount: units(step.wrap)})
			if err != nil {
				t.Fatalf("step %d wrap: %v", index, err)
			}
			wrapped.Add(wrapped, conversion.SourceAmount)
		} else {
			conversion, err := coordinator.Unwrap(ctx, UnwrapRequest{Caller: caller, Amount: step.unwrap})
			if err != nil {
				t.Fatalf("step %d unwrap: %v", index, err)
			}
			unwrapped.Add(unwrapped, conversion.SourceAmount)
		}

		custody := bank.SourceBalance(testCustodian)
		expected := new(uint256.Int).Sub(wrapped, unwrapped)
		if !custody.Eq(expected) {
			t.Fatalf("step %d: custody %s, expected %s", index, custody.Dec(), expected.Dec())
		}
		backing := new(uint256.Int).Mul(uint256.NewInt(bank.DerivativeSupply()), scale)
		if custody.Lt(backing) {
			t.Fatalf("step %d: custody %s below backing %s", index, custody.Dec(), backing.Dec())
		}
	}

	page, err := coordinator.Conversions(ctx, ConversionFilter{Limit: 100})
	if err != nil {
		t.Fatalf("conversions: %v", err)
	}
	if page.Total != len(steps) {
		t.Fatalf("expected %d journal entries, got %d", len(steps), page.Total)
	}
}

func TestCoordinator_ConcurrentWrapsAreSerialized(t *testing.T) {
	ctx := context.Background()
	coordinator, bank := newTestCoordinator(t)
	fundAndApprove(t, bank, testHolder, elon(1))

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := coordinator.Wrap(ctx, WrapRequest{Caller: testHolder, Amount: units("100000000000000")}); err != nil {
				t.Errorf("wrap: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := bank.DerivativeSupply(); got != 32 {
		t.Fatalf("expected supply 32, got %d", got)
	}
	if got := bank.SourceBalance(testCustodian).Dec(); got != "3200000000000000" {
		t.Fatalf("expected custody 3.2e15, got %s", got)
	}
}

func TestCoordinator_EnqueuesAuditAfterCommit(t *testing.T) {
	ctx := context.Background()
	enqueuer := &recordingEnqueuer{}
	coordinator, bank := newTestCoordinator(t, WithJobEnqueuer(enqueuer), WithIDGenerator(func() string { return "conv-1" }))
	fundAndApprove(t, bank, testHolder, elon(1))

	if _, err := coordinator.Wrap(ctx, WrapRequest{Caller: testHolder, Amount: units("100000000000000")}); err != nil {
		t.Fatalf("wrap: %v", err)
	}
	if len(enqueuer.messages) != 1 {
		t.Fatalf("expected one audit job, got %d", len(enqueuer.messages))
	}
	msg := enqueuer.messages[0]
	if msg.JobID != JobIDCustodyAudit || msg.IdempotencyKey != "conv-1" {
		t.Fatalf("unexpected audit job %+v", msg)
	}

	enqueuer.err = errors.New("queue down")
	if _, err := coordinator.Wrap(ctx, WrapRequest{Caller: testHolder, Amount: units("100000000000000")}); err != nil {
		t.Fatalf("expected enqueue failure not to fail the wrap: %v", err)
	}
}

func TestCoordinator_BalancesAndAssetInfo(t *testing.T) {
	ctx := context.Background()
	coordinator, bank := newTestCoordinator(t)
	fundAndApprove(t, bank, testHolder, elon(1))
	if _, err := coordinator.Wrap(ctx, WrapRequest{Caller: testHolder, Amount: units("250000000000000000")}); err != nil {
		t.Fatalf("wrap: %v", err)
	}

	balances, err := coordinator.Balances(ctx, testHolder)
	if err != nil {
		t.Fatalf("balances: %v", err)
	}
	if balances.Derivative != 2500 || balances.Source.Dec() != "750000000000000000" {
		t.Fatalf("unexpected balances: %d / %s", balances.Derivative, balances.Source.Dec())
	}

	info := coordinator.AssetInfo()
	if info.Source.Symbol != "ELON" || info.Derivative.Symbol != "WELON" {
		t.Fatalf("unexpected symbols %q/%q", info.Source.Symbol, info.Derivative.Symbol)
	}
	if info.Source.Decimals != 18 || info.Derivative.Decimals != 4 {
		t.Fatalf("unexpected decimals %d/%d", info.Source.Decimals, info.Derivative.Decimals)
	}
}
