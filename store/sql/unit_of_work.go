package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goliatone/go-custody/core"
	"github.com/holiman/uint256"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// UnitOfWork runs every ledger mutation of one callback inside a single
// database transaction. On postgres the balance rows it reads are locked
// with SELECT ... FOR UPDATE until the transaction ends.
type UnitOfWork struct {
	db       *bun.DB
	journal  *ConversionJournal
	lockRows bool
	now      func() time.Time
}

func NewUnitOfWork(db *bun.DB, journal *ConversionJournal) (*UnitOfWork, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	if journal == nil {
		return nil, fmt.Errorf("sqlstore: conversion journal is required")
	}
	return &UnitOfWork{
		db:       db,
		journal:  journal,
		lockRows: db.Dialect().Name() == dialect.PG,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, ledgers core.Ledgers) error) error {
	if u == nil || u.db == nil {
		return fmt.Errorf("sqlstore: unit of work is not configured")
	}
	if fn == nil {
		return fmt.Errorf("sqlstore: unit of work callback is required")
	}
	return u.run(ctx, func(ctx context.Context, ledgers *txLedgers) error {
		return fn(ctx, ledgers)
	})
}

func (u *UnitOfWork) run(ctx context.Context, fn func(ctx context.Context, ledgers *txLedgers) error) error {
	return u.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, u.bind(tx))
	})
}

func (u *UnitOfWork) bind(tx bun.Tx) *txLedgers {
	return &txLedgers{tx: tx, journal: u.journal, lockRows: u.lockRows, now: u.now}
}

type txLedgers struct {
	tx       bun.Tx
	journal  *ConversionJournal
	lockRows bool
	now      func() time.Time
}

func (l *txLedgers) Source() core.SourceLedger         { return txSourceLedger{l} }
func (l *txLedgers) Derivative() core.DerivativeLedger { return txDerivativeLedger{l} }
func (l *txLedgers) Journal() core.ConversionWriter    { return txJournal{l} }

func (l *txLedgers) locked(q *bun.SelectQuery) *bun.SelectQuery {
	if l.lockRows {
		return q.For("UPDATE")
	}
	return q
}

func (l *txLedgers) sourceBalance(ctx context.Context, account common.Address) (*uint256.Int, bool, error) {
	record := &sourceBalanceRecord{}
	err := l.locked(l.tx.NewSelect().
		Model(record).
		Where("?TableAlias.account = ?", accountKey(account)).
		Limit(1)).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return new(uint256.Int), false, nil
	}
	if err != nil {
		return nil, false, err
	}
	balance, err := decodeUint256(record.Balance)
	if err != nil {
		return nil, false, err
	}
	return balance, true, nil
}

func (l *txLedgers) writeSourceBalance(ctx context.Context, account common.Address, balance *uint256.Int, exists bool) error {
	now := l.now()
	if !exists {
		_, err := l.tx.NewInsert().Model(&sourceBalanceRecord{
			Account:   accountKey(account),
			Balance:   encodeUint256(balance),
			UpdatedAt: now,
		}).Exec(ctx)
		return err
	}
	_, err := l.tx.NewUpdate().
		Model((*sourceBalanceRecord)(nil)).
		Set("balance = ?", encodeUint256(balance)).
		Set("updated_at = ?", now).
		Where("account = ?", accountKey(account)).
		Exec(ctx)
	return err
}

func (l *txLedgers) creditSource(ctx context.Context, account common.Address, amount *uint256.Int) error {
	balance, exists, err := l.sourceBalance(ctx, account)
	if err != nil {
		return err
	}
	next, overflow := new(uint256.Int).AddOverflow(balance, amount)
	if overflow {
		return fmt.Errorf("%w: source balance of %s", core.ErrBalanceOverflow, account.Hex())
	}
	return l.writeSourceBalance(ctx, account, next, exists)
}

func (l *txLedgers) debitSource(ctx context.Context, account common.Address, amount *uint256.Int) error {
	balance, exists, err := l.sourceBalance(ctx, account)
	if err != nil {
		return err
	}
	if balance.Lt(amount) {
		return fmt.Errorf("%w: transfer amount exceeds balance", core.ErrInsufficientBalance)
	}
	return l.writeSourceBalance(ctx, account, new(uint256.Int).Sub(balance, amount), exists)
}

func (l *txLedgers) allowance(ctx context.Context, holder, spender common.Address) (*uint256.Int, bool, error) {
	record := &sourceAllowanceRecord{}
	err := l.locked(l.tx.NewSelect().
		Model(record).
		Where("?TableAlias.holder = ?", accountKey(holder)).
		Where("?TableAlias.spender = ?", accountKey(spender)).
		Limit(1)).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return new(uint256.Int), false, nil
	}
	if err != nil {
		return nil, false, err
	}
	amount, err := decodeUint256(record.Amount)
	if err != nil {
		return nil, false, err
	}
	return amount, true, nil
}

func (l *txLedgers) writeAllowance(ctx context.Context, holder, spender common.Address, amount *uint256.Int, exists bool) error {
	now := l.now()
	if !exists {
		_, err := l.tx.NewInsert().Model(&sourceAllowanceRecord{
			Holder:    accountKey(holder),
			Spender:   accountKey(spender),
			Amount:    encodeUint256(amount),
			UpdatedAt: now,
		}).Exec(ctx)
		return err
	}
	_, err := l.tx.NewUpdate().
		Model((*sourceAllowanceRecord)(nil)).
		Set("amount = ?", encodeUint256(amount)).
		Set("updated_at = ?", now).
		Where("holder = ?", accountKey(holder)).
		Where("spender = ?", accountKey(spender)).
		Exec(ctx)
	return err
}

func (l *txLedgers) derivativeBalance(ctx context.Context, account common.Address) (uint64, bool, error) {
	record := &derivativeBalanceRecord{}
	err := l.locked(l.tx.NewSelect().
		Model(record).
		Where("?TableAlias.account = ?", accountKey(account)).
		Limit(1)).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	balance, err := decodeUint64(record.Balance)
	if err != nil {
		return 0, false, err
	}
	return balance, true, nil
}

func (l *txLedgers) writeDerivativeBalance(ctx context.Context, account common.Address, balance uint64, exists bool) error {
	now := l.now()
	if !exists {
		_, err := l.tx.NewInsert().Model(&derivativeBalanceRecord{
			Account:   accountKey(account),
			Balance:   encodeUint64(balance),
			UpdatedAt: now,
		}).Exec(ctx)
		return err
	}
	_, err := l.tx.NewUpdate().
		Model((*derivativeBalanceRecord)(nil)).
		Set("balance = ?", encodeUint64(balance)).
		Set("updated_at = ?", now).
		Where("account = ?", accountKey(account)).
		Exec(ctx)
	return err
}

func (l *txLedgers) supply(ctx context.Context) (uint64, bool, error) {
	record := &supplyRecord{}
	err := l.locked(l.tx.NewSelect().
		Model(record).
		Where("?TableAlias.asset = ?", derivativeSupplyAsset).
		Limit(1)).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	amount, err := decodeUint64(record.Amount)
	if err != nil {
		return 0, false, err
	}
	return amount, true, nil
}

func (l *txLedgers) writeSupply(ctx context.Context, amount uint64, exists bool) error {
	now := l.now()
	if !exists {
		_, err := l.tx.NewInsert().Model(&supplyRecord{
			Asset:     derivativeSupplyAsset,
			Amount:    encodeUint64(amount),
			UpdatedAt: now,
		}).Exec(ctx)
		return err
	}
	_, err := l.tx.NewUpdate().
		Model((*supplyRecord)(nil)).
		Set("amount = ?", encodeUint64(amount)).
		Set("updated_at = ?", now).
		Where("asset = ?", derivativeSupplyAsset).
		Exec(ctx)
	return err
}

type txSourceLedger struct {
	l *txLedgers
}

func (s txSourceLedger) TransferFrom(ctx context.Context, holder, custodian common.Address, amount *uint256.Int) error {
	if amount == nil {
		return fmt.Errorf("%w: transfer amount is required", core.ErrInvalidAmount)
	}
	allowance, exists, err := s.l.allowance(ctx, holder, custodian)
	if err != nil {
		return err
	}
	if allowance.Lt(amount) {
		return fmt.Errorf("%w: transfer amount exceeds allowance", core.ErrInsufficientAllowance)
	}
	if err := s.l.debitSource(ctx, holder, amount); err != nil {
		return err
	}
	if err := s.l.creditSource(ctx, custodian, amount); err != nil {
		return err
	}
	return s.l.writeAllowance(ctx, holder, custodian, new(uint256.Int).Sub(allowance, amount), exists)
}

func (s txSourceLedger) Transfer(ctx context.Context, from, to common.Address, amount *uint256.Int) error {
	if amount == nil {
		return fmt.Errorf("%w: transfer amount is required", core.ErrInvalidAmount)
	}
	if err := s.l.debitSource(ctx, from, amount); err != nil {
		return err
	}
	return s.l.creditSource(ctx, to, amount)
}

func (s txSourceLedger) BalanceOf(ctx context.Context, account common.Address) (*uint256.Int, error) {
	balance, _, err := s.l.sourceBalance(ctx, account)
	return balance, err
}

type txDerivativeLedger struct {
	l *txLedgers
}

func (d txDerivativeLedger) Mint(ctx context.Context, account common.Address, amount uint64) error {
	supply, supplyExists, err := d.l.supply(ctx)
	if err != nil {
		return err
	}
	if amount > math.MaxUint64-supply {
		return fmt.Errorf("%w: minting %d over supply %d", core.ErrSupplyOverflow, amount, supply)
	}
	balance, balanceExists, err := d.l.derivativeBalance(ctx, account)
	if err != nil {
		return err
	}
	if err := d.l.writeDerivativeBalance(ctx, account, balance+amount, balanceExists); err != nil {
		return err
	}
	return d.l.writeSupply(ctx, supply+amount, supplyExists)
}

func (d txDerivativeLedger) Burn(ctx context.Context, account common.Address, amount uint64) error {
	balance, balanceExists, err := d.l.derivativeBalance(ctx, account)
	if err != nil {
		return err
	}
	if balance < amount {
		return fmt.Errorf("%w: burn amount exceeds balance", core.ErrInsufficientBalance)
	}
	supply, supplyExists, err := d.l.supply(ctx)
	if err != nil {
		return err
	}
	if supply < amount {
		return fmt.Errorf("sqlstore: derivative supply %d below burn amount %d", supply, amount)
	}
	if err := d.l.writeDerivativeBalance(ctx, account, balance-amount, balanceExists); err != nil {
		return err
	}
	return d.l.writeSupply(ctx, supply-amount, supplyExists)
}

func (d txDerivativeLedger) BalanceOf(ctx context.Context, account common.Address) (uint64, error) {
	balance, _, err := d.l.derivativeBalance(ctx, account)
	return balance, err
}

func (d txDerivativeLedger) TotalSupply(ctx context.Context) (uint64, error) {
	supply, _, err := d.l.supply(ctx)
	return supply, err
}

type txJournal struct {
	l *txLedgers
}

func (j txJournal) Record(ctx context.Context, conversion core.Conversion) error {
	return j.l.journal.RecordTx(ctx, j.l.tx, conversion)
}
