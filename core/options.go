package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"
	"github.com/google/uuid"
)

type ErrorMapper func(err error) *goerrors.Error

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type coordinatorBuilder struct {
	runtimeConfig      Config
	logger             Logger
	loggerProvider     LoggerProvider
	metricsRecorder    MetricsRecorder
	errorMapper        ErrorMapper
	configProvider     ConfigProvider
	optionsResolver    OptionsResolver
	repositoryFactory  RepositoryFactory
	unitOfWork         UnitOfWork
	configurationStore ConfigurationStore
	conversionReader   ConversionReader
	accessGate         AccessGate
	jobEnqueuer        JobEnqueuer
	preCommitHooks     []ConversionHook
	postCommitHooks    []ConversionHook
	now                func() time.Time
	newID              func() string
}

type Option func(*coordinatorBuilder)

func WithLogger(logger Logger) Option {
	return func(b *coordinatorBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *coordinatorBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *coordinatorBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *coordinatorBuilder) {
		b.errorMapper = mapper
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *coordinatorBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *coordinatorBuilder) {
		b.optionsResolver = resolver
	}
}

// WithRepositoryFactory supplies the unit of work, configuration store and
// conversion reader in one go. Explicit per-store options take precedence.
func WithRepositoryFactory(factory RepositoryFactory) Option {
	return func(b *coordinatorBuilder) {
		b.repositoryFactory = factory
	}
}

func WithUnitOfWork(uow UnitOfWork) Option {
	return func(b *coordinatorBuilder) {
		b.unitOfWork = uow
	}
}

func WithConfigurationStore(store ConfigurationStore) Option {
	return func(b *coordinatorBuilder) {
		b.configurationStore = store
	}
}

func WithConversionReader(reader ConversionReader) Option {
	return func(b *coordinatorBuilder) {
		b.conversionReader = reader
	}
}

func WithAccessGate(gate AccessGate) Option {
	return func(b *coordinatorBuilder) {
		b.accessGate = gate
	}
}

// WithJobEnqueuer enables a custody audit job after every committed conversion.
func WithJobEnqueuer(enqueuer JobEnqueuer) Option {
	return func(b *coordinatorBuilder) {
		b.jobEnqueuer = enqueuer
	}
}

// WithPreCommitHook runs hook inside the conversion's unit of work. A hook
// error rolls the conversion back.
func WithPreCommitHook(hook ConversionHook) Option {
	return func(b *coordinatorBuilder) {
		if hook != nil {
			b.preCommitHooks = append(b.preCommitHooks, hook)
		}
	}
}

func WithPostCommitHook(hook ConversionHook) Option {
	return func(b *coordinatorBuilder) {
		if hook != nil {
			b.postCommitHooks = append(b.postCommitHooks, hook)
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(b *coordinatorBuilder) {
		b.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(b *coordinatorBuilder) {
		b.newID = newID
	}
}

func defaultCoordinatorBuilder(runtime Config) coordinatorBuilder {
	loggerProvider, logger := glog.Resolve("custody", nil, nil)
	return coordinatorBuilder{
		runtimeConfig:   runtime,
		loggerProvider:  loggerProvider,
		logger:          logger,
		metricsRecorder: NopMetricsRecorder{},
		errorMapper:     defaultErrorMapper,
		configProvider:  NewCfgxConfigProvider(nil),
		optionsResolver: GoOptionsResolver{},
		accessGate:      OwnerGate{},
		now:             func() time.Time { return time.Now().UTC() },
		newID:           func() string { return uuid.NewString() },
	}
}

func defaultErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	return custodyErrorMapper(err)
}

// StaticRawConfigLoader serves a fixed raw map, typically decoded from a file.
type StaticRawConfigLoader struct {
	Values map[string]any
}

func (l StaticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

// Load only checks shape: owner and custodian may still arrive through the
// runtime layer, so the full Validate runs after resolution.
func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = StaticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).ValidateShape),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true, nil)
	loadedLayer := configToLayerMap(loaded, false, &defaults)
	runtimeLayer := configToLayerMap(runtime, false, nil)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value, cfgx.WithDefaults(defaults))
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

// configToLayerMap flattens cfg into an options layer. Zero values count as
// unset unless includeZero is true. When base is given, cfg was built on top
// of it, so decimals that differ from base were set explicitly and are kept
// even when zero.
func configToLayerMap(cfg Config, includeZero bool, base *Config) map[string]any {
	layer := map[string]any{}
	setString := func(target map[string]any, key, value string) {
		if includeZero || strings.TrimSpace(value) != "" {
			target[key] = strings.TrimSpace(value)
		}
	}
	setString(layer, "service_name", cfg.ServiceName)
	setString(layer, "owner", cfg.Owner)
	setString(layer, "custodian", cfg.Custodian)
	setString(layer, "max_source_supply", cfg.MaxSourceSupply)

	assets := map[string]AssetConfig{"source": cfg.Source, "derivative": cfg.Derivative}
	for key, asset := range assets {
		section := map[string]any{}
		setString(section, "symbol", asset.Symbol)
		setString(section, "name", asset.Name)
		setString(section, "address", asset.Address)
		if includeZero || asset.Decimals != 0 || decimalsChanged(base, key, asset.Decimals) {
			section["decimals"] = asset.Decimals
		}
		if len(section) > 0 {
			layer[key] = section
		}
	}
	return layer
}

func decimalsChanged(base *Config, key string, decimals int) bool {
	if base == nil {
		return false
	}
	if key == "source" {
		return decimals != base.Source.Decimals
	}
	return decimals != base.Derivative.Decimals
}
