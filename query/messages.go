package query

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/goliatone/go-custody/core"
)

const (
	TypeSourceAsset     = "custody.query.source_asset"
	TypeAssetInfo       = "custody.query.asset_info"
	TypeEnabledState    = "custody.query.enabled_state"
	TypeBalances        = "custody.query.balances"
	TypeCustodyReport   = "custody.query.report"
	TypeListConversions = "custody.query.conversions"
)

type SourceAssetMessage struct{}

func (SourceAssetMessage) Type() string { return TypeSourceAsset }

func (SourceAssetMessage) Validate() error { return nil }

type AssetInfoMessage struct{}

func (AssetInfoMessage) Type() string { return TypeAssetInfo }

func (AssetInfoMessage) Validate() error { return nil }

type EnabledStateMessage struct{}

func (EnabledStateMessage) Type() string { return TypeEnabledState }

func (EnabledStateMessage) Validate() error { return nil }

type BalancesMessage struct {
	Account common.Address
}

func (BalancesMessage) Type() string { return TypeBalances }

func (m BalancesMessage) Validate() error {
	if m.Account == (common.Address{}) {
		return invalidField("account", "account is required")
	}
	return nil
}

type CustodyReportMessage struct{}

func (CustodyReportMessage) Type() string { return TypeCustodyReport }

func (CustodyReportMessage) Validate() error { return nil }

type ListConversionsMessage struct {
	Filter core.ConversionFilter
}

func (ListConversionsMessage) Type() string { return TypeListConversions }

func (m ListConversionsMessage) Validate() error {
	if m.Filter.Limit < 0 {
		return invalidField("limit", "limit must be >= 0")
	}
	if m.Filter.Offset < 0 {
		return invalidField("offset", "offset must be >= 0")
	}
	if m.Filter.Direction != "" {
		if _, err := core.ParseConversionDirection(string(m.Filter.Direction)); err != nil {
			return invalidField("direction", "direction must be wrap or unwrap")
		}
	}
	return nil
}
