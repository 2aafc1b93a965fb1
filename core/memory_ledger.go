package core

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const (
	DefaultConversionPageLimit = 50
	MaxConversionPageLimit     = 500
)

// MemoryBank keeps both ledgers and the conversion journal in process. Each
// Do call works on a private copy that replaces the live state only when
// the callback returns nil.
type MemoryBank struct {
	mu    sync.Mutex
	state *memoryState
}

func NewMemoryBank() *MemoryBank {
	return &MemoryBank{state: newMemoryState()}
}

func (b *MemoryBank) Do(ctx context.Context, fn func(ctx context.Context, ledgers Ledgers) error) error {
	if b == nil {
		return fmt.Errorf("core: memory bank is not configured")
	}
	if fn == nil {
		return fmt.Errorf("core: unit of work callback is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	draft := b.state.clone()
	if err := fn(ctx, memoryLedgers{state: draft}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	b.state = draft
	return nil
}

// FundSource credits account with source units, standing in for an
// external issuance of the source asset.
func (b *MemoryBank) FundSource(account common.Address, amount *uint256.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.credit(account, amount)
}

// Approve sets the allowance spender may pull from holder.
func (b *MemoryBank) Approve(holder, spender common.Address, amount *uint256.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.setAllowance(holder, spender, amount)
}

func (b *MemoryBank) Allowance(holder, spender common.Address) *uint256.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.allowance(holder, spender).Clone()
}

func (b *MemoryBank) SourceBalance(account common.Address) *uint256.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.sourceBalance(account).Clone()
}

func (b *MemoryBank) DerivativeBalance(account common.Address) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.derivative[account]
}

func (b *MemoryBank) DerivativeSupply() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.supply
}

// TransferDerivative moves derivative units between holders.
func (b *MemoryBank) TransferDerivative(from, to common.Address, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	balance := b.state.derivative[from]
	if balance < amount {
		return fmt.Errorf("%w: transfer amount exceeds balance", ErrInsufficientBalance)
	}
	b.state.derivative[from] = balance - amount
	b.state.derivative[to] += amount
	return nil
}

func (b *MemoryBank) ListConversions(_ context.Context, filter ConversionFilter) (ConversionPage, error) {
	filter = NormalizeConversionFilter(filter)
	b.mu.Lock()
	defer b.mu.Unlock()

	matched := make([]Conversion, 0, len(b.state.conversions))
	for index := len(b.state.conversions) - 1; index >= 0; index-- {
		conversion := b.state.conversions[index]
		if filter.Account != nil && conversion.Account != *filter.Account {
			continue
		}
		if filter.Direction != "" && conversion.Direction != filter.Direction {
			continue
		}
		matched = append(matched, cloneConversion(conversion))
	}
	page := ConversionPage{Total: len(matched), Limit: filter.Limit, Offset: filter.Offset}
	if filter.Offset >= len(matched) {
		page.Items = []Conversion{}
		return page, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	page.Items = matched[filter.Offset:end]
	return page, nil
}

func NormalizeConversionFilter(filter ConversionFilter) ConversionFilter {
	if filter.Limit <= 0 {
		filter.Limit = DefaultConversionPageLimit
	}
	if filter.Limit > MaxConversionPageLimit {
		filter.Limit = MaxConversionPageLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return filter
}

type memoryState struct {
	source      map[common.Address]*uint256.Int
	allowances  map[common.Address]map[common.Address]*uint256.Int
	derivative  map[common.Address]uint64
	supply      uint64
	conversions []Conversion
}

func newMemoryState() *memoryState {
	return &memoryState{
		source:     map[common.Address]*uint256.Int{},
		allowances: map[common.Address]map[common.Address]*uint256.Int{},
		derivative: map[common.Address]uint64{},
	}
}

func (s *memoryState) clone() *memoryState {
	out := newMemoryState()
	for account, balance := range s.source {
		out.source[account] = balance.Clone()
	}
	for holder, spenders := range s.allowances {
		copied := make(map[common.Address]*uint256.Int, len(spenders))
		for spender, amount := range spenders {
			copied[spender] = amount.Clone()
		}
		out.allowances[holder] = copied
	}
	for account, balance := range s.derivative {
		out.derivative[account] = balance
	}
	out.supply = s.supply
	out.conversions = append([]Conversion(nil), s.conversions...)
	return out
}

func (s *memoryState) sourceBalance(account common.Address) *uint256.Int {
	if balance, ok := s.source[account]; ok {
		return balance
	}
	return new(uint256.Int)
}

func (s *memoryState) allowance(holder, spender common.Address) *uint256.Int {
	if spenders, ok := s.allowances[holder]; ok {
		if amount, ok := spenders[spender]; ok {
			return amount
		}
	}
	return new(uint256.Int)
}

func (s *memoryState) setAllowance(holder, spender common.Address, amount *uint256.Int) {
	spenders, ok := s.allowances[holder]
	if !ok {
		spenders = map[common.Address]*uint256.Int{}
		s.allowances[holder] = spenders
	}
	if amount == nil {
		amount = new(uint256.Int)
	}
	spenders[spender] = amount.Clone()
}

func (s *memoryState) credit(account common.Address, amount *uint256.Int) error {
	if amount == nil {
		return nil
	}
	next, overflow := new(uint256.Int).AddOverflow(s.sourceBalance(account), amount)
	if overflow {
		return fmt.Errorf("%w: source balance of %s", ErrBalanceOverflow, account.Hex())
	}
	s.source[account] = next
	return nil
}

func (s *memoryState) debit(account common.Address, amount *uint256.Int) error {
	balance := s.sourceBalance(account)
	if balance.Lt(amount) {
		return fmt.Errorf("%w: transfer amount exceeds balance", ErrInsufficientBalance)
	}
	s.source[account] = new(uint256.Int).Sub(balance, amount)
	return nil
}

type memoryLedgers struct {
	state *memoryState
}

func (l memoryLedgers) Source() SourceLedger         { return memorySourceLedger(l) }
func (l memoryLedgers) Derivative() DerivativeLedger { return memoryDerivativeLedger(l) }
func (l memoryLedgers) Journal() ConversionWriter    { return memoryJournal(l) }

type memorySourceLedger struct {
	state *memoryState
}

func (l memorySourceLedger) TransferFrom(_ context.Context, holder, custodian common.Address, amount *uint256.Int) error {
	if amount == nil {
		return fmt.Errorf("%w: transfer amount is required", ErrInvalidAmount)
	}
	allowance := l.state.allowance(holder, custodian)
	if allowance.Lt(amount) {
		return fmt.Errorf("%w: transfer amount exceeds allowance", ErrInsufficientAllowance)
	}
	if err := l.state.debit(holder, amount); err != nil {
		return err
	}
	if err := l.state.credit(custodian, amount); err != nil {
		return err
	}
	l.state.setAllowance(holder, custodian, new(uint256.Int).Sub(allowance, amount))
	return nil
}

func (l memorySourceLedger) Transfer(_ context.Context, from, to common.Address, amount *uint256.Int) error {
	if amount == nil {
		return fmt.Errorf("%w: transfer amount is required", ErrInvalidAmount)
	}
	if err := l.state.debit(from, amount); err != nil {
		return err
	}
	return l.state.credit(to, amount)
}

func (l memorySourceLedger) BalanceOf(_ context.Context, account common.Address) (*uint256.Int, error) {
	return l.state.sourceBalance(account).Clone(), nil
}

type memoryDerivativeLedger struct {
	state *memoryState
}

func (l memoryDerivativeLedger) Mint(_ context.Context, account common.Address, amount uint64) error {
	if amount > math.MaxUint64-l.state.supply {
		return fmt.Errorf("%w: minting %d over supply %d", ErrSupplyOverflow, amount, l.state.supply)
	}
	l.state.supply += amount
	l.state.derivative[account] += amount
	return nil
}

func (l memoryDerivativeLedger) Burn(_ context.Context, account common.Address, amount uint64) error {
	balance := l.state.derivative[account]
	if balance < amount {
		return fmt.Errorf("%w: burn amount exceeds balance", ErrInsufficientBalance)
	}
	l.state.derivative[account] = balance - amount
	l.state.supply -= amount
	return nil
}

func (l memoryDerivativeLedger) BalanceOf(_ context.Context, account common.Address) (uint64, error) {
	return l.state.derivative[account], nil
}

func (l memoryDerivativeLedger) TotalSupply(context.Context) (uint64, error) {
	return l.state.supply, nil
}

type memoryJournal struct {
	state *memoryState
}

func (j memoryJournal) Record(_ context.Context, conversion Conversion) error {
	j.state.conversions = append(j.state.conversions, cloneConversion(conversion))
	return nil
}

func cloneConversion(conversion Conversion) Conversion {
	out := conversion
	if conversion.SourceAmount != nil {
		out.SourceAmount = conversion.SourceAmount.Clone()
	}
	if conversion.Residue != nil {
		out.Residue = conversion.Residue.Clone()
	}
	return out
}
