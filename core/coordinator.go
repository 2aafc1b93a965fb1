package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/holiman/uint256"
)

const JobIDCustodyAudit = "custody.audit"

// Coordinator holds source units in custody and issues derivative units
// against them. Wrap, Unwrap and SetEnabledState are serialized, and each
// conversion runs inside a single unit of work.
type Coordinator struct {
	mu sync.Mutex

	config          Config
	converter       Converter
	maxSourceSupply *uint256.Int
	assets          AssetPair
	sourceAsset     common.Address
	custodian       common.Address

	logger             Logger
	loggerProvider     LoggerProvider
	metricsRecorder    MetricsRecorder
	errorMapper        ErrorMapper
	unitOfWork         UnitOfWork
	configurationStore ConfigurationStore
	conversionReader   ConversionReader
	accessGate         AccessGate
	jobEnqueuer        JobEnqueuer
	hooks              *ConversionHooks
	now                func() time.Time
	newID              func() string
}

type CoordinatorDependencies struct {
	Logger             Logger
	LoggerProvider     LoggerProvider
	MetricsRecorder    MetricsRecorder
	ErrorMapper        ErrorMapper
	UnitOfWork         UnitOfWork
	ConfigurationStore ConfigurationStore
	ConversionReader   ConversionReader
	AccessGate         AccessGate
	JobEnqueuer        JobEnqueuer
}

func NewCoordinator(cfg Config, opts ...Option) (*Coordinator, error) {
	builder := defaultCoordinatorBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("custody", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("custody"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.accessGate == nil {
		builder.accessGate = OwnerGate{}
	}
	if builder.now == nil {
		builder.now = func() time.Time { return time.Now().UTC() }
	}
	if builder.newID == nil {
		builder.newID = defaultCoordinatorBuilder(Config{}).newID
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if factory := builder.repositoryFactory; factory != nil {
		if builder.unitOfWork == nil {
			builder.unitOfWork = factory.UnitOfWork()
		}
		if builder.configurationStore == nil {
			builder.configurationStore = factory.ConfigurationStore()
		}
		if builder.conversionReader == nil {
			builder.conversionReader = factory.ConversionReader()
		}
	}
	if builder.unitOfWork == nil {
		bank := NewMemoryBank()
		builder.unitOfWork = bank
		if builder.conversionReader == nil {
			builder.conversionReader = bank
		}
	}
	if builder.configurationStore == nil {
		builder.configurationStore = NewMemoryConfigurationStore()
	}

	hooks := NewConversionHooks()
	for _, hook := range builder.preCommitHooks {
		hooks.RegisterPreCommit(hook)
	}
	for _, hook := range builder.postCommitHooks {
		hooks.RegisterPostCommit(hook)
	}

	converter, err := finalConfig.Converter()
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	maxSupply, err := finalConfig.MaxSourceSupplyValue()
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	coordinator := &Coordinator{
		config:          finalConfig,
		converter:       converter,
		maxSourceSupply: maxSupply,
		sourceAsset:     finalConfig.SourceAddress(),
		custodian:       finalConfig.CustodianAddress(),
		assets: AssetPair{
			Source: AssetInfo{
				Symbol:   finalConfig.Source.Symbol,
				Name:     finalConfig.Source.Name,
				Address:  finalConfig.SourceAddress(),
				Decimals: finalConfig.Source.Decimals,
			},
			Derivative: AssetInfo{
				Symbol:   finalConfig.Derivative.Symbol,
				Name:     finalConfig.Derivative.Name,
				Address:  finalConfig.DerivativeAddress(),
				Decimals: finalConfig.Derivative.Decimals,
			},
			Scale: converter.Scale(),
		},
		logger:             logger,
		loggerProvider:     provider,
		metricsRecorder:    builder.metricsRecorder,
		errorMapper:        builder.errorMapper,
		unitOfWork:         builder.unitOfWork,
		configurationStore: builder.configurationStore,
		conversionReader:   builder.conversionReader,
		accessGate:         builder.accessGate,
		jobEnqueuer:        builder.jobEnqueuer,
		hooks:              hooks,
		now:                builder.now,
		newID:              builder.newID,
	}
	if err := coordinator.bootstrap(context.Background()); err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	return coordinator, nil
}

func Setup(cfg Config, opts ...Option) (*Coordinator, error) {
	return NewCoordinator(cfg, opts...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

// bootstrap writes the initial configuration (deployer as owner, both
// directions enabled) unless one is already stored. A stored configuration
// keeps its owner and flags but must agree on the immutable references.
func (c *Coordinator) bootstrap(ctx context.Context) error {
	stored, err := c.configurationStore.Load(ctx)
	if err == nil {
		if stored.SourceAsset != c.sourceAsset {
			return fmt.Errorf(
				"core: source asset mismatch: stored %s, configured %s",
				stored.SourceAsset.Hex(), c.sourceAsset.Hex(),
			)
		}
		if stored.Custodian != c.custodian {
			return fmt.Errorf(
				"core: custodian mismatch: stored %s, configured %s",
				stored.Custodian.Hex(), c.custodian.Hex(),
			)
		}
		return nil
	}
	if !errors.Is(err, ErrConfigurationNotFound) {
		return err
	}
	return c.configurationStore.Save(ctx, Configuration{
		Owner:         c.config.OwnerAddress(),
		SourceAsset:   c.sourceAsset,
		Custodian:     c.custodian,
		WrapEnabled:   true,
		UnwrapEnabled: true,
		UpdatedAt:     c.now(),
	})
}

func (c *Coordinator) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.config
}

func (c *Coordinator) MaxSourceSupply() *uint256.Int {
	if c == nil || c.maxSourceSupply == nil {
		return new(uint256.Int)
	}
	return c.maxSourceSupply.Clone()
}

func (c *Coordinator) Converter() Converter {
	if c == nil {
		return Converter{}
	}
	return c.converter
}

func (c *Coordinator) Dependencies() CoordinatorDependencies {
	if c == nil {
		return CoordinatorDependencies{}
	}
	return CoordinatorDependencies{
		Logger:             c.logger,
		LoggerProvider:     c.loggerProvider,
		MetricsRecorder:    c.metricsRecorder,
		ErrorMapper:        c.errorMapper,
		UnitOfWork:         c.unitOfWork,
		ConfigurationStore: c.configurationStore,
		ConversionReader:   c.conversionReader,
		AccessGate:         c.accessGate,
		JobEnqueuer:        c.jobEnqueuer,
	}
}

// Wrap pulls amount from the caller into custody and credits the caller
// with floor(amount / scale) derivative units. Any remainder stays in
// custody unbacked.
func (c *Coordinator) Wrap(ctx context.Context, req WrapRequest) (conversion Conversion, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"caller":    req.Caller.Hex(),
		"direction": string(ConversionDirectionWrap),
	}
	if req.Amount != nil {
		fields["source_amount"] = req.Amount.Dec()
	}
	defer func() {
		if err == nil {
			fields["derivative_amount"] = conversion.DerivativeAmount
			fields["residue"] = conversion.Residue.Dec()
			fields["conversion_id"] = conversion.ID
		}
		c.observeOperation(ctx, startedAt, "wrap", err, fields)
	}()

	if err = req.Validate(); err != nil {
		err = c.mapError(err)
		return Conversion{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cfg, err := c.loadConfiguration(ctx)
	if err != nil {
		return Conversion{}, err
	}
	if !cfg.WrapEnabled {
		err = newWrapDisabledError()
		return Conversion{}, err
	}
	if req.Amount == nil {
		err = c.mapError(fmt.Errorf("%w: wrap amount is required", ErrInvalidAmount))
		return Conversion{}, err
	}
	if req.Amount.Lt(c.converter.MinimumWrap()) {
		err = newBelowMinimumError()
		return Conversion{}, err
	}
	issued := c.converter.ToDerivative(req.Amount)
	if !issued.IsUint64() {
		err = newOutOfRangeError(fmt.Sprintf("wrap amount %s out of derivative range", req.Amount.Dec()))
		return Conversion{}, err
	}

	if err = c.rejectCustodian(req.Caller); err != nil {
		return Conversion{}, err
	}

	amount := req.Amount.Clone()
	conversion = Conversion{
		ID:               c.newID(),
		Direction:        ConversionDirectionWrap,
		Account:          req.Caller,
		SourceAmount:     amount,
		DerivativeAmount: issued.Uint64(),
		Residue:          c.converter.Residue(amount),
		CreatedAt:        c.now(),
	}
	err = c.unitOfWork.Do(ctx, func(ctx context.Context, ledgers Ledgers) error {
		if err := ledgers.Source().TransferFrom(ctx, req.Caller, c.custodian, amount); err != nil {
			return err
		}
		if err := ledgers.Derivative().Mint(ctx, req.Caller, conversion.DerivativeAmount); err != nil {
			return err
		}
		if err := ledgers.Journal().Record(ctx, conversion); err != nil {
			return err
		}
		return c.hooks.ExecutePreCommit(ctx, conversion)
	})
	if err != nil {
		return Conversion{}, err
	}

	c.afterCommit(ctx, conversion)
	return conversion, nil
}

// Unwrap debits amount derivative units from the caller and releases
// amount * scale source units from custody back to the caller.
func (c *Coordinator) Unwrap(ctx context.Context, req UnwrapRequest) (conversion Conversion, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"caller":            req.Caller.Hex(),
		"direction":         string(ConversionDirectionUnwrap),
		"derivative_amount": req.Amount,
	}
	defer func() {
		if err == nil {
			fields["source_amount"] = conversion.SourceAmount.Dec()
			fields["conversion_id"] = conversion.ID
		}
		c.observeOperation(ctx, startedAt, "unwrap", err, fields)
	}()

	if err = req.Validate(); err != nil {
		err = c.mapError(err)
		return Conversion{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if req.Amount == 0 {
		err = newZeroAmountError()
		return Conversion{}, err
	}
	cfg, err := c.loadConfiguration(ctx)
	if err != nil {
		return Conversion{}, err
	}
	if !cfg.UnwrapEnabled {
		err = newUnwrapDisabledError()
		return Conversion{}, err
	}

	if err = c.rejectCustodian(req.Caller); err != nil {
		return Conversion{}, err
	}

	released := c.converter.ToSource(req.Amount)
	conversion = Conversion{
		ID:               c.newID(),
		Direction:        ConversionDirectionUnwrap,
		Account:          req.Caller,
		SourceAmount:     released,
		DerivativeAmount: req.Amount,
		Residue:          new(uint256.Int),
		CreatedAt:        c.now(),
	}
	err = c.unitOfWork.Do(ctx, func(ctx context.Context, ledgers Ledgers) error {
		if err := ledgers.Derivative().Burn(ctx, req.Caller, req.Amount); err != nil {
			return err
		}
		if err := ledgers.Source().Transfer(ctx, c.custodian, req.Caller, released); err != nil {
			return err
		}
		if err := ledgers.Journal().Record(ctx, conversion); err != nil {
			return err
		}
		return c.hooks.ExecutePreCommit(ctx, conversion)
	})
	if err != nil {
		return Conversion{}, err
	}

	c.afterCommit(ctx, conversion)
	return conversion, nil
}

// SetEnabledState overwrites both direction switches. Only the owner may
// call it; setting a switch to its current value is not an error.
func (c *Coordinator) SetEnabledState(ctx context.Context, req SetEnabledStateRequest) (cfg Configuration, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"caller":         req.Caller.Hex(),
		"wrap_enabled":   req.WrapEnabled,
		"unwrap_enabled": req.UnwrapEnabled,
	}
	defer func() {
		c.observeOperation(ctx, startedAt, "set_enabled_state", err, fields)
	}()

	c.mu.Lock()
	defer c.mu.Unlock()

	cfg, err = c.loadConfiguration(ctx)
	if err != nil {
		return Configuration{}, err
	}
	if err = c.accessGate.Authorize(ctx, req.Caller, cfg); err != nil {
		return Configuration{}, err
	}
	cfg.WrapEnabled = req.WrapEnabled
	cfg.UnwrapEnabled = req.UnwrapEnabled
	cfg.UpdatedAt = c.now()
	if err = c.configurationStore.Save(ctx, cfg); err != nil {
		return Configuration{}, err
	}
	return cfg, nil
}

// SourceAsset returns the immutable source asset reference.
func (c *Coordinator) SourceAsset() common.Address {
	if c == nil {
		return common.Address{}
	}
	return c.sourceAsset
}

func (c *Coordinator) Custodian() common.Address {
	if c == nil {
		return common.Address{}
	}
	return c.custodian
}

func (c *Coordinator) AssetInfo() AssetPair {
	if c == nil {
		return AssetPair{}
	}
	out := c.assets
	out.Scale = c.converter.Scale()
	return out
}

func (c *Coordinator) EnabledState(ctx context.Context) (EnabledState, error) {
	cfg, err := c.configurationStore.Load(ctx)
	if err != nil {
		return EnabledState{}, err
	}
	return cfg.EnabledState(), nil
}

func (c *Coordinator) Configuration(ctx context.Context) (Configuration, error) {
	return c.configurationStore.Load(ctx)
}

func (c *Coordinator) Balances(ctx context.Context, account common.Address) (AccountBalances, error) {
	out := AccountBalances{Account: account}
	err := c.unitOfWork.Do(ctx, func(ctx context.Context, ledgers Ledgers) error {
		source, err := ledgers.Source().BalanceOf(ctx, account)
		if err != nil {
			return err
		}
		derivative, err := ledgers.Derivative().BalanceOf(ctx, account)
		if err != nil {
			return err
		}
		out.Source = source
		out.Derivative = derivative
		return nil
	})
	if err != nil {
		return AccountBalances{}, err
	}
	return out, nil
}

// Report reads custody and supply in one unit of work and compares the
// custody balance against supply * scale.
func (c *Coordinator) Report(ctx context.Context) (CustodyReport, error) {
	var (
		custody *uint256.Int
		supply  uint64
	)
	err := c.unitOfWork.Do(ctx, func(ctx context.Context, ledgers Ledgers) error {
		balance, err := ledgers.Source().BalanceOf(ctx, c.custodian)
		if err != nil {
			return err
		}
		total, err := ledgers.Derivative().TotalSupply(ctx)
		if err != nil {
			return err
		}
		custody, supply = balance, total
		return nil
	})
	if err != nil {
		return CustodyReport{}, err
	}
	return buildCustodyReport(c.converter, c.custodian, custody, supply, c.now()), nil
}

func (c *Coordinator) Conversions(ctx context.Context, filter ConversionFilter) (ConversionPage, error) {
	if c.conversionReader == nil {
		return ConversionPage{}, fmt.Errorf("core: conversion reader is not configured")
	}
	return c.conversionReader.ListConversions(ctx, filter)
}

func buildCustodyReport(
	converter Converter,
	custodian common.Address,
	custody *uint256.Int,
	supply uint64,
	checkedAt time.Time,
) CustodyReport {
	if custody == nil {
		custody = new(uint256.Int)
	}
	backing := converter.ToSource(supply)
	report := CustodyReport{
		Custodian:        custodian,
		CustodyBalance:   custody.Clone(),
		DerivativeSupply: supply,
		Backing:          backing,
		Residue:          new(uint256.Int),
		Shortfall:        new(uint256.Int),
		CheckedAt:        checkedAt,
	}
	if custody.Lt(backing) {
		report.Shortfall = new(uint256.Int).Sub(backing, custody)
		return report
	}
	report.Residue = new(uint256.Int).Sub(custody, backing)
	report.Healthy = true
	return report
}

// loadConfiguration reads the stored configuration past any cache. Callers
// hold c.mu.
func (c *Coordinator) loadConfiguration(ctx context.Context) (Configuration, error) {
	if loader, ok := c.configurationStore.(UncachedConfigurationLoader); ok {
		return loader.LoadUncached(ctx)
	}
	return c.configurationStore.Load(ctx)
}

// rejectCustodian refuses conversions by the custodian itself: its pull
// would move nothing while the mint draws on other holders' backing.
func (c *Coordinator) rejectCustodian(caller common.Address) error {
	if caller != c.custodian {
		return nil
	}
	return c.mapError(fmt.Errorf("%w: %s", ErrCustodianCaller, caller.Hex()))
}

func (c *Coordinator) afterCommit(ctx context.Context, conversion Conversion) {
	c.recordHistogram(ctx, conversionUnitsName(conversion.Direction), float64(conversion.DerivativeAmount), map[string]string{
		"direction": string(conversion.Direction),
	})
	if err := c.hooks.ExecutePostCommit(ctx, conversion); err != nil {
		c.logWithLevel(ctx, "warn", "custody post-commit hooks failed", map[string]any{
			"conversion_id": conversion.ID,
			"error":         err.Error(),
		})
	}
	c.enqueueAudit(ctx, conversion)
}

// enqueueAudit schedules a custody audit for a committed conversion. The
// conversion already happened, so a failure here is only logged.
func (c *Coordinator) enqueueAudit(ctx context.Context, conversion Conversion) {
	if c.jobEnqueuer == nil {
		return
	}
	msg := &JobExecutionMessage{
		JobID: JobIDCustodyAudit,
		Parameters: map[string]any{
			"conversion_id": conversion.ID,
			"direction":     string(conversion.Direction),
			"account":       conversion.Account.Hex(),
		},
		IdempotencyKey: conversion.ID,
		DedupPolicy:    "drop",
	}
	if err := c.jobEnqueuer.Enqueue(ctx, msg); err != nil {
		c.logWithLevel(ctx, "warn", "custody audit enqueue failed", map[string]any{
			"conversion_id": conversion.ID,
			"error":         err.Error(),
		})
	}
}

func (c *Coordinator) mapError(err error) error {
	if err == nil {
		return nil
	}
	if c == nil || c.errorMapper == nil {
		return err
	}
	if mapped := c.errorMapper(err); mapped != nil {
		return mapped
	}
	return err
}
