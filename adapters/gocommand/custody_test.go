package gocommand

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goliatone/go-command"
	"github.com/goliatone/go-custody/core"
	custodyquery "github.com/goliatone/go-custody/query"
	"github.com/holiman/uint256"
)

var (
	testOwner     = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	testHolder    = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	testCustodian = common.HexToAddress("0x00000000000000000000000000000000000000c1")
)

func newTestCoordinator(t *testing.T) (*core.Coordinator, *core.MemoryBank) {
	t.Helper()
	cfg := core.DefaultConfig()
	cfg.Owner = testOwner.Hex()
	cfg.Custodian = testCustodian.Hex()
	bank := core.NewMemoryBank()
	coordinator, err := core.NewCoordinator(cfg, core.WithUnitOfWork(bank), core.WithConversionReader(bank))
	if err != nil {
		t.Fatalf("new coordinator: %v", err)
	}
	return coordinator, bank
}

func TestRegisterCustody_DispatchesCommandsAndQueries(t *testing.T) {
	coordinator, bank := newTestCoordinator(t)
	amount := uint256.MustFromDecimal("1099999999999999")
	if err := bank.FundSource(testHolder, amount); err != nil {
		t.Fatalf("fund: %v", err)
	}
	bank.Approve(testHolder, testCustodian, amount)

	adapter := NewRegistryAdapter(command.NewRegistry())
	subs, err := RegisterCustody(adapter, coordinator)
	if err != nil {
		t.Fatalf("register custody: %v", err)
	}
	t.Cleanup(subs.Unsubscribe)
	if subs.Len() != 9 {
		t.Fatalf("expected 9 subscriptions, got %d", subs.Len())
	}

	ctx := context.Background()
	wrapped, err := Wrap(ctx, core.WrapRequest{Caller: testHolder, Amount: amount})
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	if wrapped.DerivativeAmount != 10 {
		t.Fatalf("expected 10 derivative units, got %d", wrapped.DerivativeAmount)
	}
	if wrapped.Residue.Dec() != "99999999999999" {
		t.Fatalf("expected stranded residue 99999999999999, got %s", wrapped.Residue.Dec())
	}

	balances, err := Query[custodyquery.BalancesMessage, core.AccountBalances](ctx, custodyquery.BalancesMessage{Account: testHolder})
	if err != nil {
		t.Fatalf("query balances: %v", err)
	}
	if balances.Derivative != 10 || !balances.Source.IsZero() {
		t.Fatalf("unexpected balances: %+v", balances)
	}

	if _, err := Unwrap(ctx, core.UnwrapRequest{Caller: testHolder, Amount: 4}); err != nil {
		t.Fatalf("unwrap: %v", err)
	}
	report, err := Query[custodyquery.CustodyReportMessage, core.CustodyReport](ctx, custodyquery.CustodyReportMessage{})
	if err != nil {
		t.Fatalf("query report: %v", err)
	}
	if !report.Healthy || report.DerivativeSupply != 6 {
		t.Fatalf("unexpected report: %+v", report)
	}

	page, err := Query[custodyquery.ListConversionsMessage, core.ConversionPage](ctx, custodyquery.ListConversionsMessage{})
	if err != nil {
		t.Fatalf("query conversions: %v", err)
	}
	if page.Total != 2 || page.Items[0].Direction != core.ConversionDirectionUnwrap {
		t.Fatalf("expected newest-first conversions, got %+v", page)
	}
}

func TestRegisterCustody_EnabledStateGate(t *testing.T) {
	coordinator, _ := newTestCoordinator(t)
	subs, err := RegisterCustody(NewRegistryAdapter(nil), coordinator)
	if err != nil {
		t.Fatalf("register custody: %v", err)
	}
	t.Cleanup(subs.Unsubscribe)

	ctx := context.Background()
	if _, err := SetEnabledState(ctx, core.SetEnabledStateRequest{Caller: testHolder}); !core.IsNotOwner(err) {
		t.Fatalf("expected not owner error, got %v", err)
	}
	cfg, err := SetEnabledState(ctx, core.SetEnabledStateRequest{Caller: testOwner, UnwrapEnabled: true})
	if err != nil {
		t.Fatalf("set enabled state: %v", err)
	}
	if cfg.WrapEnabled || !cfg.UnwrapEnabled {
		t.Fatalf("expected flags to be overwritten, got %+v", cfg.EnabledState())
	}

	state, err := Query[custodyquery.EnabledStateMessage, core.EnabledState](ctx, custodyquery.EnabledStateMessage{})
	if err != nil {
		t.Fatalf("query enabled state: %v", err)
	}
	if state.WrapEnabled || !state.UnwrapEnabled {
		t.Fatalf("unexpected enabled state: %+v", state)
	}
	if _, err := Wrap(ctx, core.WrapRequest{Caller: testHolder, Amount: uint256.NewInt(1)}); !core.IsWrapDisabled(err) {
		t.Fatalf("expected wrap disabled error, got %v", err)
	}
}

func TestRegisterCustody_ValidationStopsDispatch(t *testing.T) {
	coordinator, _ := newTestCoordinator(t)
	subs, err := RegisterCustody(NewRegistryAdapter(nil), coordinator)
	if err != nil {
		t.Fatalf("register custody: %v", err)
	}
	t.Cleanup(subs.Unsubscribe)

	if _, err := Wrap(context.Background(), core.WrapRequest{}); err == nil {
		t.Fatalf("expected missing caller to be rejected")
	}
	_, err = Query[custodyquery.BalancesMessage, core.AccountBalances](context.Background(), custodyquery.BalancesMessage{})
	if err == nil {
		t.Fatalf("expected missing account to be rejected")
	}
}

func TestRegisterCustody_RequiresDependencies(t *testing.T) {
	coordinator, _ := newTestCoordinator(t)
	if _, err := RegisterCustody(nil, coordinator); err == nil {
		t.Fatalf("expected missing registry to fail")
	}
	if _, err := RegisterCustody(NewRegistryAdapter(nil), nil); err == nil {
		t.Fatalf("expected missing service to fail")
	}
	var subs *CustodySubscriptions
	subs.Unsubscribe()
	if subs.Len() != 0 {
		t.Fatalf("expected nil subscriptions to be empty")
	}
}
