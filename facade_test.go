package custody

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	gocmd "github.com/goliatone/go-command"
	custodycommand "github.com/goliatone/go-custody/command"
	"github.com/goliatone/go-custody/core"
	custodyquery "github.com/goliatone/go-custody/query"
	"github.com/holiman/uint256"
)

var (
	facadeOwner     = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	facadeHolder    = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	facadeCustodian = common.HexToAddress("0x00000000000000000000000000000000000000c1")
)

func newFacadeCoordinator(t *testing.T) (*Coordinator, *core.MemoryBank) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Owner = facadeOwner.Hex()
	cfg.Custodian = facadeCustodian.Hex()
	bank := core.NewMemoryBank()
	coordinator, err := Setup(cfg, WithUnitOfWork(bank), WithConversionReader(bank))
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	return coordinator, bank
}

func TestNewFacade_WiresCommandsAndQueries(t *testing.T) {
	coordinator, _ := newFacadeCoordinator(t)
	facade, err := NewFacade(coordinator)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	commands := facade.Commands()
	if commands.Wrap == nil || commands.Unwrap == nil || commands.SetEnabledState == nil {
		t.Fatalf("expected command handlers to be wired")
	}
	queries := facade.Queries()
	if queries.SourceAsset == nil || queries.AssetInfo == nil || queries.EnabledState == nil ||
		queries.Balances == nil || queries.Report == nil || queries.ListConversions == nil {
		t.Fatalf("expected query handlers to be wired")
	}
	if facade.Service() == nil {
		t.Fatalf("expected service to be exposed")
	}
}

func TestFacade_WrapUnwrapRoundTrip(t *testing.T) {
	coordinator, bank := newFacadeCoordinator(t)
	amount := uint256.MustFromDecimal("500000000000000")
	if err := bank.FundSource(facadeHolder, amount); err != nil {
		t.Fatalf("fund: %v", err)
	}
	bank.Approve(facadeHolder, facadeCustodian, amount)

	facade, err := NewFacade(coordinator)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}
	ctx := context.Background()
	if err := facade.Commands().Wrap.Execute(ctx, custodycommand.WrapMessage{Request: WrapRequest{
		Caller: facadeHolder,
		Amount: amount,
	}}); err != nil {
		t.Fatalf("wrap: %v", err)
	}

	collector := gocmd.NewResult[Conversion]()
	if err := facade.Commands().Unwrap.Execute(gocmd.ContextWithResult(ctx, collector), custodycommand.UnwrapMessage{
		Request: UnwrapRequest{Caller: facadeHolder, Amount: 5},
	}); err != nil {
		t.Fatalf("unwrap: %v", err)
	}
	unwrapped, ok := collector.Load()
	if !ok || unwrapped.SourceAmount.Dec() != "500000000000000" {
		t.Fatalf("expected full source release, got %+v", unwrapped)
	}

	balances, err := facade.Queries().Balances.Query(ctx, custodyquery.BalancesMessage{Account: facadeHolder})
	if err != nil {
		t.Fatalf("balances: %v", err)
	}
	if balances.Derivative != 0 || !balances.Source.Eq(amount) {
		t.Fatalf("expected holder restored, got %+v", balances)
	}

	source, err := facade.Queries().SourceAsset.Query(ctx, custodyquery.SourceAssetMessage{})
	if err != nil {
		t.Fatalf("source asset: %v", err)
	}
	if source != common.HexToAddress(core.DefaultSourceAssetAddress) {
		t.Fatalf("unexpected source asset %s", source.Hex())
	}
}

func TestFacade_ConversionHistoryOverride(t *testing.T) {
	coordinator, _ := newFacadeCoordinator(t)
	reader := &stubHistoryReader{}
	facade, err := NewFacade(coordinator, WithConversionHistory(reader))
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}
	if _, err := facade.Queries().ListConversions.Query(context.Background(), custodyquery.ListConversionsMessage{}); err != nil {
		t.Fatalf("list conversions: %v", err)
	}
	if reader.calls != 1 {
		t.Fatalf("expected override reader to serve history, calls=%d", reader.calls)
	}
}

func TestNewFacade_RequiresService(t *testing.T) {
	if _, err := NewFacade(nil); err == nil {
		t.Fatalf("expected missing service to fail")
	}
	var facade *Facade
	if facade.Service() != nil || facade.Commands().Wrap != nil || facade.Queries().Report != nil {
		t.Fatalf("expected nil facade to expose nothing")
	}
}

type stubHistoryReader struct {
	calls int
}

func (s *stubHistoryReader) Conversions(context.Context, ConversionFilter) (ConversionPage, error) {
	s.calls++
	return ConversionPage{}, nil
}
