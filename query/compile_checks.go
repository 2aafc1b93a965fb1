package query

import (
	"github.com/ethereum/go-ethereum/common"
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-custody/core"
)

var (
	_ gocmd.Querier[SourceAssetMessage, common.Address]          = (*SourceAssetQuery)(nil)
	_ gocmd.Querier[AssetInfoMessage, core.AssetPair]            = (*AssetInfoQuery)(nil)
	_ gocmd.Querier[EnabledStateMessage, core.EnabledState]      = (*EnabledStateQuery)(nil)
	_ gocmd.Querier[BalancesMessage, core.AccountBalances]       = (*BalancesQuery)(nil)
	_ gocmd.Querier[CustodyReportMessage, core.CustodyReport]    = (*CustodyReportQuery)(nil)
	_ gocmd.Querier[ListConversionsMessage, core.ConversionPage] = (*ListConversionsQuery)(nil)
	_ AssetReader                                                = (*core.Coordinator)(nil)
	_ EnabledStateReader                                         = (*core.Coordinator)(nil)
	_ BalanceReader                                              = (*core.Coordinator)(nil)
	_ CustodyReportReader                                        = (*core.Coordinator)(nil)
	_ ConversionReader                                           = (*core.Coordinator)(nil)
)
