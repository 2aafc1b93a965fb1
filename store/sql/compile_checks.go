package sqlstore

import "github.com/goliatone/go-custody/core"

var (
	_ core.UnitOfWork                  = (*UnitOfWork)(nil)
	_ core.Ledgers                     = (*txLedgers)(nil)
	_ core.SourceLedger                = txSourceLedger{}
	_ core.DerivativeLedger            = txDerivativeLedger{}
	_ core.ConversionWriter            = txJournal{}
	_ core.ConversionReader            = (*ConversionJournal)(nil)
	_ core.ConfigurationStore          = (*ConfigurationStore)(nil)
	_ core.ConfigurationStore          = (*CachedConfigurationStore)(nil)
	_ core.UncachedConfigurationLoader = (*CachedConfigurationStore)(nil)
	_ core.RepositoryFactory           = (*RepositoryFactory)(nil)
)
