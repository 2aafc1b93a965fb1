package core

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const (
	DefaultSourceAssetAddress = "0x761D38e5ddf6ccf6Cf7c55759d5210750B5D60F3"
	// DefaultMaxSourceSupply is 10^15 whole source units at 18 decimals.
	DefaultMaxSourceSupply = "1000000000000000000000000000000000"
)

type AssetConfig struct {
	Symbol   string `koanf:"symbol" mapstructure:"symbol"`
	Name     string `koanf:"name" mapstructure:"name"`
	Address  string `koanf:"address" mapstructure:"address"`
	Decimals int    `koanf:"decimals" mapstructure:"decimals"`
}

type Config struct {
	ServiceName     string      `koanf:"service_name" mapstructure:"service_name"`
	Owner           string      `koanf:"owner" mapstructure:"owner"`
	Custodian       string      `koanf:"custodian" mapstructure:"custodian"`
	MaxSourceSupply string      `koanf:"max_source_supply" mapstructure:"max_source_supply"`
	Source          AssetConfig `koanf:"source" mapstructure:"source"`
	Derivative      AssetConfig `koanf:"derivative" mapstructure:"derivative"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName:     "custody",
		MaxSourceSupply: DefaultMaxSourceSupply,
		Source: AssetConfig{
			Symbol:   "ELON",
			Name:     "Dogelon",
			Address:  DefaultSourceAssetAddress,
			Decimals: 18,
		},
		Derivative: AssetConfig{
			Symbol:   "WELON",
			Name:     "Wrapped Elon",
			Decimals: 4,
		},
	}
}

// ValidateShape checks fields that defaults alone can satisfy.
func (c Config) ValidateShape() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if _, err := NewConverter(c.Source.Decimals, c.Derivative.Decimals); err != nil {
		return err
	}
	if strings.TrimSpace(c.MaxSourceSupply) != "" {
		if _, err := uint256.FromDecimal(strings.TrimSpace(c.MaxSourceSupply)); err != nil {
			return fmt.Errorf("core: max_source_supply is invalid: %w", err)
		}
	}
	return nil
}

// Validate checks a fully resolved configuration, including deployment
// addresses and the derivative numeric range.
func (c Config) Validate() error {
	if err := c.ValidateShape(); err != nil {
		return err
	}
	for _, field := range []struct {
		name  string
		value string
	}{
		{name: "owner", value: c.Owner},
		{name: "custodian", value: c.Custodian},
		{name: "source.address", value: c.Source.Address},
	} {
		if _, err := parseAddress(field.name, field.value); err != nil {
			return err
		}
	}
	if strings.TrimSpace(c.Derivative.Address) != "" {
		if _, err := parseAddress("derivative.address", c.Derivative.Address); err != nil {
			return err
		}
	}
	converter, _ := NewConverter(c.Source.Decimals, c.Derivative.Decimals)
	maxSupply, err := c.MaxSourceSupplyValue()
	if err != nil {
		return err
	}
	if !converter.FitsDerivativeRange(maxSupply) {
		return fmt.Errorf(
			"core: max_source_supply %s out of range for %d derivative decimals",
			maxSupply.Dec(), c.Derivative.Decimals,
		)
	}
	return nil
}

func (c Config) Converter() (Converter, error) {
	return NewConverter(c.Source.Decimals, c.Derivative.Decimals)
}

func (c Config) MaxSourceSupplyValue() (*uint256.Int, error) {
	raw := strings.TrimSpace(c.MaxSourceSupply)
	if raw == "" {
		raw = DefaultMaxSourceSupply
	}
	value, err := uint256.FromDecimal(raw)
	if err != nil {
		return nil, fmt.Errorf("core: max_source_supply is invalid: %w", err)
	}
	return value, nil
}

func (c Config) OwnerAddress() common.Address {
	return common.HexToAddress(strings.TrimSpace(c.Owner))
}

func (c Config) CustodianAddress() common.Address {
	return common.HexToAddress(strings.TrimSpace(c.Custodian))
}

func (c Config) SourceAddress() common.Address {
	return common.HexToAddress(strings.TrimSpace(c.Source.Address))
}

func (c Config) DerivativeAddress() common.Address {
	return common.HexToAddress(strings.TrimSpace(c.Derivative.Address))
}

// ParseAddress validates a 0x-prefixed hex account.
func ParseAddress(value string) (common.Address, error) {
	return parseAddress("account", value)
}

func parseAddress(field, value string) (common.Address, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return common.Address{}, fmt.Errorf("core: %s is required", field)
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%w: %s %q is not a hex address", ErrInvalidAccount, field, value)
	}
	address := common.HexToAddress(value)
	if address == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: %s is the zero address", ErrInvalidAccount, field)
	}
	return address, nil
}
