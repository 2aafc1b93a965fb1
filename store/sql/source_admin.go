package sqlstore

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goliatone/go-custody/core"
	"github.com/holiman/uint256"
)

// SourceAdmin issues source units and records allowances directly against
// the source ledger tables. It stands in for the external source asset.
type SourceAdmin struct {
	uow *UnitOfWork
}

func NewSourceAdmin(uow *UnitOfWork) (*SourceAdmin, error) {
	if uow == nil {
		return nil, fmt.Errorf("sqlstore: unit of work is required")
	}
	return &SourceAdmin{uow: uow}, nil
}

func (a *SourceAdmin) FundSource(ctx context.Context, account common.Address, amount *uint256.Int) error {
	if a == nil || a.uow == nil {
		return fmt.Errorf("sqlstore: source admin is not configured")
	}
	if amount == nil {
		return fmt.Errorf("%w: fund amount is required", core.ErrInvalidAmount)
	}
	return a.uow.run(ctx, func(ctx context.Context, ledgers *txLedgers) error {
		return ledgers.creditSource(ctx, account, amount)
	})
}

// Approve overwrites the allowance spender may pull from holder.
func (a *SourceAdmin) Approve(ctx context.Context, holder, spender common.Address, amount *uint256.Int) error {
	if a == nil || a.uow == nil {
		return fmt.Errorf("sqlstore: source admin is not configured")
	}
	if amount == nil {
		amount = new(uint256.Int)
	}
	return a.uow.run(ctx, func(ctx context.Context, ledgers *txLedgers) error {
		_, exists, err := ledgers.allowance(ctx, holder, spender)
		if err != nil {
			return err
		}
		return ledgers.writeAllowance(ctx, holder, spender, amount, exists)
	})
}

func (a *SourceAdmin) Allowance(ctx context.Context, holder, spender common.Address) (*uint256.Int, error) {
	if a == nil || a.uow == nil {
		return nil, fmt.Errorf("sqlstore: source admin is not configured")
	}
	var out *uint256.Int
	err := a.uow.run(ctx, func(ctx context.Context, ledgers *txLedgers) error {
		amount, _, err := ledgers.allowance(ctx, holder, spender)
		out = amount
		return err
	})
	return out, err
}
