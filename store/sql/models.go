package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

// Amount columns hold base-10 strings: source units exceed 64 bits and
// derivative units exceed the signed BIGINT range.

type sourceBalanceRecord struct {
	bun.BaseModel `bun:"table:custody_source_balances,alias:csb"`

	Account   string    `bun:"account,pk"`
	Balance   string    `bun:"balance,notnull"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type sourceAllowanceRecord struct {
	bun.BaseModel `bun:"table:custody_source_allowances,alias:csa"`

	Holder    string    `bun:"holder,pk"`
	Spender   string    `bun:"spender,pk"`
	Amount    string    `bun:"amount,notnull"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type derivativeBalanceRecord struct {
	bun.BaseModel `bun:"table:custody_derivative_balances,alias:cdb"`

	Account   string    `bun:"account,pk"`
	Balance   string    `bun:"balance,notnull"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type supplyRecord struct {
	bun.BaseModel `bun:"table:custody_supplies,alias:csu"`

	Asset     string    `bun:"asset,pk"`
	Amount    string    `bun:"amount,notnull"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type conversionRecord struct {
	bun.BaseModel `bun:"table:custody_conversions,alias:cc"`

	ID               string    `bun:"id,pk"`
	Sequence         int64     `bun:"sequence,notnull"`
	Direction        string    `bun:"direction,notnull"`
	Account          string    `bun:"account,notnull"`
	SourceAmount     string    `bun:"source_amount,notnull"`
	DerivativeAmount string    `bun:"derivative_amount,notnull"`
	Residue          string    `bun:"residue,notnull"`
	CreatedAt        time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type configurationRecord struct {
	bun.BaseModel `bun:"table:custody_configuration,alias:ccf"`

	ID            string    `bun:"id,pk"`
	Owner         string    `bun:"owner,notnull"`
	SourceAsset   string    `bun:"source_asset,notnull"`
	Custodian     string    `bun:"custodian,notnull"`
	WrapEnabled   bool      `bun:"wrap_enabled,notnull"`
	UnwrapEnabled bool      `bun:"unwrap_enabled,notnull"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
