package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ CustodyService     = (*Coordinator)(nil)
	_ CustodyReporter    = (*Coordinator)(nil)
	_ UnitOfWork         = (*MemoryBank)(nil)
	_ ConversionReader   = (*MemoryBank)(nil)
	_ ConfigurationStore = (*MemoryConfigurationStore)(nil)
	_ AccessGate         = OwnerGate{}
	_ AccessGate         = AccessGateFunc(nil)
	_ Ledgers            = memoryLedgers{}
	_ ConfigProvider     = (*CfgxConfigProvider)(nil)
	_ OptionsResolver    = GoOptionsResolver{}
	_ RawConfigLoader    = StaticRawConfigLoader{}

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
