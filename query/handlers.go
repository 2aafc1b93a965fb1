package query

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goliatone/go-custody/core"
)

type AssetReader interface {
	SourceAsset() common.Address
	AssetInfo() core.AssetPair
}

type EnabledStateReader interface {
	EnabledState(ctx context.Context) (core.EnabledState, error)
}

type BalanceReader interface {
	Balances(ctx context.Context, account common.Address) (core.AccountBalances, error)
}

type CustodyReportReader interface {
	Report(ctx context.Context) (core.CustodyReport, error)
}

type ConversionReader interface {
	Conversions(ctx context.Context, filter core.ConversionFilter) (core.ConversionPage, error)
}

type SourceAssetQuery struct {
	reader AssetReader
}

func NewSourceAssetQuery(reader AssetReader) *SourceAssetQuery {
	return &SourceAssetQuery{reader: reader}
}

func (q *SourceAssetQuery) Query(_ context.Context, _ SourceAssetMessage) (common.Address, error) {
	if q == nil || q.reader == nil {
		return common.Address{}, missingReader("asset")
	}
	return q.reader.SourceAsset(), nil
}

type AssetInfoQuery struct {
	reader AssetReader
}

func NewAssetInfoQuery(reader AssetReader) *AssetInfoQuery {
	return &AssetInfoQuery{reader: reader}
}

func (q *AssetInfoQuery) Query(_ context.Context, _ AssetInfoMessage) (core.AssetPair, error) {
	if q == nil || q.reader == nil {
		return core.AssetPair{}, missingReader("asset")
	}
	return q.reader.AssetInfo(), nil
}

type EnabledStateQuery struct {
	reader EnabledStateReader
}

func NewEnabledStateQuery(reader EnabledStateReader) *EnabledStateQuery {
	return &EnabledStateQuery{reader: reader}
}

func (q *EnabledStateQuery) Query(ctx context.Context, _ EnabledStateMessage) (core.EnabledState, error) {
	if q == nil || q.reader == nil {
		return core.EnabledState{}, missingReader("enabled state")
	}
	return q.reader.EnabledState(ctx)
}

type BalancesQuery struct {
	reader BalanceReader
}

func NewBalancesQuery(reader BalanceReader) *BalancesQuery {
	return &BalancesQuery{reader: reader}
}

func (q *BalancesQuery) Query(ctx context.Context, msg BalancesMessage) (core.AccountBalances, error) {
	if q == nil || q.reader == nil {
		return core.AccountBalances{}, missingReader("balance")
	}
	return q.reader.Balances(ctx, msg.Account)
}

type CustodyReportQuery struct {
	reader CustodyReportReader
}

func NewCustodyReportQuery(reader CustodyReportReader) *CustodyReportQuery {
	return &CustodyReportQuery{reader: reader}
}

func (q *CustodyReportQuery) Query(ctx context.Context, _ CustodyReportMessage) (core.CustodyReport, error) {
	if q == nil || q.reader == nil {
		return core.CustodyReport{}, missingReader("custody report")
	}
	return q.reader.Report(ctx)
}

type ListConversionsQuery struct {
	reader ConversionReader
}

func NewListConversionsQuery(reader ConversionReader) *ListConversionsQuery {
	return &ListConversionsQuery{reader: reader}
}

func (q *ListConversionsQuery) Query(ctx context.Context, msg ListConversionsMessage) (core.ConversionPage, error) {
	if q == nil || q.reader == nil {
		return core.ConversionPage{}, missingReader("conversion")
	}
	return q.reader.Conversions(ctx, msg.Filter)
}
