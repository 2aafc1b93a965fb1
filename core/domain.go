package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	ErrInsufficientBalance   = errors.New("core: insufficient balance")
	ErrInsufficientAllowance = errors.New("core: insufficient allowance")
	ErrSupplyOverflow        = errors.New("core: derivative supply overflow")
	ErrBalanceOverflow       = errors.New("core: balance overflow")
	ErrConfigurationNotFound = errors.New("core: configuration not found")
	ErrCustodyShortfall      = errors.New("core: custody balance below derivative backing")
	ErrInvalidAccount        = errors.New("core: invalid account")
	ErrInvalidDirection      = errors.New("core: invalid conversion direction")
	ErrCustodianCaller       = errors.New("core: custodian cannot convert against its own custody")
)

type ConversionDirection string

const (
	ConversionDirectionWrap   ConversionDirection = "wrap"
	ConversionDirectionUnwrap ConversionDirection = "unwrap"
)

func ParseConversionDirection(value string) (ConversionDirection, error) {
	switch ConversionDirection(strings.TrimSpace(strings.ToLower(value))) {
	case ConversionDirectionWrap:
		return ConversionDirectionWrap, nil
	case ConversionDirectionUnwrap:
		return ConversionDirectionUnwrap, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDirection, value)
}

// Configuration is the single mutable custody record. SourceAsset and
// Custodian never change after bootstrap.
type Configuration struct {
	Owner         common.Address
	SourceAsset   common.Address
	Custodian     common.Address
	WrapEnabled   bool
	UnwrapEnabled bool
	UpdatedAt     time.Time
}

func (c Configuration) EnabledState() EnabledState {
	return EnabledState{WrapEnabled: c.WrapEnabled, UnwrapEnabled: c.UnwrapEnabled}
}

type EnabledState struct {
	WrapEnabled   bool
	UnwrapEnabled bool
}

// Conversion is one committed wrap or unwrap. Residue is the part of a
// wrapped amount that stayed in custody without backing any derivative unit.
type Conversion struct {
	ID               string
	Direction        ConversionDirection
	Account          common.Address
	SourceAmount     *uint256.Int
	DerivativeAmount uint64
	Residue          *uint256.Int
	CreatedAt        time.Time
}

type ConversionFilter struct {
	Account   *common.Address
	Direction ConversionDirection
	Limit     int
	Offset    int
}

type ConversionPage struct {
	Items  []Conversion
	Total  int
	Limit  int
	Offset int
}

type WrapRequest struct {
	Caller common.Address
	Amount *uint256.Int
}

// Validate checks the caller only. A missing amount is rejected by the
// coordinator after the wrap switch, so a disabled wrap fails first.
func (r WrapRequest) Validate() error {
	if r.Caller == (common.Address{}) {
		return fmt.Errorf("%w: caller is required", ErrInvalidAccount)
	}
	return nil
}

type UnwrapRequest struct {
	Caller common.Address
	Amount uint64
}

func (r UnwrapRequest) Validate() error {
	if r.Caller == (common.Address{}) {
		return fmt.Errorf("%w: caller is required", ErrInvalidAccount)
	}
	return nil
}

type SetEnabledStateRequest struct {
	Caller        common.Address
	WrapEnabled   bool
	UnwrapEnabled bool
}

type AccountBalances struct {
	Account    common.Address
	Source     *uint256.Int
	Derivative uint64
}

// CustodyReport compares what the custodian holds with what the outstanding
// derivative supply is worth in source units.
type CustodyReport struct {
	Custodian        common.Address
	CustodyBalance   *uint256.Int
	DerivativeSupply uint64
	Backing          *uint256.Int
	Residue          *uint256.Int
	Shortfall        *uint256.Int
	Healthy          bool
	CheckedAt        time.Time
}

type AssetInfo struct {
	Symbol   string
	Name     string
	Address  common.Address
	Decimals int
}

type AssetPair struct {
	Source     AssetInfo
	Derivative AssetInfo
	Scale      *uint256.Int
}
