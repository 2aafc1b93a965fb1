package custody

import "github.com/goliatone/go-custody/core"

type Config = core.Config

type AssetConfig = core.AssetConfig

type Option = core.Option

type Coordinator = core.Coordinator

type CoordinatorDependencies = core.CoordinatorDependencies
type UnitOfWork = core.UnitOfWork
type Ledgers = core.Ledgers
type SourceLedger = core.SourceLedger
type DerivativeLedger = core.DerivativeLedger
type ConfigurationStore = core.ConfigurationStore
type ConversionReader = core.ConversionReader
type RepositoryFactory = core.RepositoryFactory
type AccessGate = core.AccessGate
type JobEnqueuer = core.JobEnqueuer
type ConversionHook = core.ConversionHook
type ConversionHookFunc = core.ConversionHookFunc

type WrapRequest = core.WrapRequest
type UnwrapRequest = core.UnwrapRequest
type SetEnabledStateRequest = core.SetEnabledStateRequest

type Conversion = core.Conversion
type ConversionFilter = core.ConversionFilter
type ConversionPage = core.ConversionPage
type Configuration = core.Configuration
type EnabledState = core.EnabledState
type AccountBalances = core.AccountBalances
type CustodyReport = core.CustodyReport

var (
	WithLogger             = core.WithLogger
	WithLoggerProvider     = core.WithLoggerProvider
	WithMetricsRecorder    = core.WithMetricsRecorder
	WithErrorMapper        = core.WithErrorMapper
	WithConfigProvider     = core.WithConfigProvider
	WithOptionsResolver    = core.WithOptionsResolver
	WithRepositoryFactory  = core.WithRepositoryFactory
	WithUnitOfWork         = core.WithUnitOfWork
	WithConfigurationStore = core.WithConfigurationStore
	WithConversionReader   = core.WithConversionReader
	WithAccessGate         = core.WithAccessGate
	WithJobEnqueuer        = core.WithJobEnqueuer
	WithPreCommitHook      = core.WithPreCommitHook
	WithPostCommitHook     = core.WithPostCommitHook
	WithClock              = core.WithClock
	WithIDGenerator        = core.WithIDGenerator
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewCoordinator(cfg Config, opts ...Option) (*Coordinator, error) {
	return core.NewCoordinator(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Coordinator, error) {
	return core.Setup(cfg, opts...)
}
