package custody

import (
	"fmt"

	custodycommand "github.com/goliatone/go-custody/command"
	"github.com/goliatone/go-custody/core"
	custodyquery "github.com/goliatone/go-custody/query"
)

type CommandQueryService interface {
	core.CustodyService
}

type Commands struct {
	Wrap            *custodycommand.WrapCommand
	Unwrap          *custodycommand.UnwrapCommand
	SetEnabledState *custodycommand.SetEnabledStateCommand
}

type Queries struct {
	SourceAsset     *custodyquery.SourceAssetQuery
	AssetInfo       *custodyquery.AssetInfoQuery
	EnabledState    *custodyquery.EnabledStateQuery
	Balances        *custodyquery.BalancesQuery
	Report          *custodyquery.CustodyReportQuery
	ListConversions *custodyquery.ListConversionsQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	conversionReader custodyquery.ConversionReader
}

// WithConversionHistory serves the conversion history query from reader
// instead of the coordinator.
func WithConversionHistory(reader custodyquery.ConversionReader) FacadeOption {
	return func(options *facadeOptions) {
		options.conversionReader = reader
	}
}

func NewFacade(service CommandQueryService, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("custody: command/query service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	reader := cfg.conversionReader
	if reader == nil {
		reader = service
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		Wrap:            custodycommand.NewWrapCommand(service),
		Unwrap:          custodycommand.NewUnwrapCommand(service),
		SetEnabledState: custodycommand.NewSetEnabledStateCommand(service),
	}
	facade.queries = Queries{
		SourceAsset:     custodyquery.NewSourceAssetQuery(service),
		AssetInfo:       custodyquery.NewAssetInfoQuery(service),
		EnabledState:    custodyquery.NewEnabledStateQuery(service),
		Balances:        custodyquery.NewBalancesQuery(service),
		Report:          custodyquery.NewCustodyReportQuery(service),
		ListConversions: custodyquery.NewListConversionsQuery(reader),
	}
	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}
