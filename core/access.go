package core

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// OwnerGate admits only the configured owner.
type OwnerGate struct{}

func (OwnerGate) Authorize(_ context.Context, caller common.Address, cfg Configuration) error {
	if caller == (common.Address{}) || caller != cfg.Owner {
		return newNotOwnerError()
	}
	return nil
}

// AccessGateFunc adapts a plain function to AccessGate.
type AccessGateFunc func(ctx context.Context, caller common.Address, cfg Configuration) error

func (f AccessGateFunc) Authorize(ctx context.Context, caller common.Address, cfg Configuration) error {
	if f == nil {
		return newNotOwnerError()
	}
	return f(ctx, caller, cfg)
}
