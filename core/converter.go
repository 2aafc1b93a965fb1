package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// maxScaleExponent keeps uint64 * scale inside 256 bits.
const maxScaleExponent = 57

var (
	ErrInvalidPrecision = errors.New("core: invalid precision")
	ErrInvalidAmount    = errors.New("core: invalid amount")
)

// Converter maps amounts between the source precision and the coarser
// derivative precision. Conversions toward the derivative floor; conversions
// back to the source are exact.
type Converter struct {
	sourceDecimals     int
	derivativeDecimals int
	exponent           int
	scale              *uint256.Int
}

func NewConverter(sourceDecimals, derivativeDecimals int) (Converter, error) {
	if sourceDecimals < 0 || derivativeDecimals < 0 {
		return Converter{}, fmt.Errorf("%w: decimals must be non-negative", ErrInvalidPrecision)
	}
	if sourceDecimals < derivativeDecimals {
		return Converter{}, fmt.Errorf(
			"%w: source decimals %d below derivative decimals %d",
			ErrInvalidPrecision, sourceDecimals, derivativeDecimals,
		)
	}
	exponent := sourceDecimals - derivativeDecimals
	if exponent > maxScaleExponent {
		return Converter{}, fmt.Errorf("%w: decimal gap %d exceeds %d", ErrInvalidPrecision, exponent, maxScaleExponent)
	}
	scale := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(exponent)))
	return Converter{
		sourceDecimals:     sourceDecimals,
		derivativeDecimals: derivativeDecimals,
		exponent:           exponent,
		scale:              scale,
	}, nil
}

func MustConverter(sourceDecimals, derivativeDecimals int) Converter {
	converter, err := NewConverter(sourceDecimals, derivativeDecimals)
	if err != nil {
		panic(err)
	}
	return converter
}

func (c Converter) SourceDecimals() int { return c.sourceDecimals }

func (c Converter) DerivativeDecimals() int { return c.derivativeDecimals }

func (c Converter) Exponent() int { return c.exponent }

// Scale returns 10^(sourceDecimals - derivativeDecimals).
func (c Converter) Scale() *uint256.Int {
	if c.scale == nil {
		return uint256.NewInt(1)
	}
	return c.scale.Clone()
}

// MinimumWrap is the smallest source amount that yields one derivative unit.
func (c Converter) MinimumWrap() *uint256.Int {
	return c.Scale()
}

// ToDerivative returns floor(amount / scale).
func (c Converter) ToDerivative(amount *uint256.Int) *uint256.Int {
	if amount == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Div(amount, c.Scale())
}

// ToSource returns amount * scale. The product always fits: the scale
// exponent is capped at construction.
func (c Converter) ToSource(amount uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(amount), c.Scale())
}

// Residue returns amount mod scale, the part ToDerivative drops.
func (c Converter) Residue(amount *uint256.Int) *uint256.Int {
	if amount == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Mod(amount, c.Scale())
}

// FitsDerivativeRange reports whether the derivative of maxSource is
// representable by a uint64 derivative ledger.
func (c Converter) FitsDerivativeRange(maxSource *uint256.Int) bool {
	if maxSource == nil {
		return true
	}
	return c.ToDerivative(maxSource).IsUint64()
}

func (c Converter) FormatSource(amount *uint256.Int) string {
	return FormatUnits(amount, c.sourceDecimals)
}

func (c Converter) FormatDerivative(amount uint64) string {
	return FormatUnits(uint256.NewInt(amount), c.derivativeDecimals)
}

func (c Converter) ParseSource(value string) (*uint256.Int, error) {
	return ParseUnits(value, c.sourceDecimals)
}

func (c Converter) ParseDerivative(value string) (uint64, error) {
	parsed, err := ParseUnits(value, c.derivativeDecimals)
	if err != nil {
		return 0, err
	}
	if !parsed.IsUint64() {
		return 0, fmt.Errorf("%w: %q exceeds derivative range", ErrInvalidAmount, value)
	}
	return parsed.Uint64(), nil
}

// FormatUnits renders base units as a decimal string with the given number
// of fractional digits, trailing zeros trimmed.
func FormatUnits(amount *uint256.Int, decimals int) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount.ToBig(), -int32(decimals)).String()
}

// ParseUnits converts a decimal string such as "0.0001" into base units.
func ParseUnits(value string, decimals int) (*uint256.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("%w: empty value", ErrInvalidAmount)
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, value, err)
	}
	if parsed.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, value)
	}
	shifted := parsed.Shift(int32(decimals))
	if !shifted.IsInteger() {
		return nil, fmt.Errorf("%w: %q has more than %d fractional digits", ErrInvalidAmount, value, decimals)
	}
	out, overflow := uint256.FromBig(shifted.BigInt())
	if overflow {
		return nil, fmt.Errorf("%w: %q overflows 256 bits", ErrInvalidAmount, value)
	}
	return out, nil
}

// ParseBaseUnits parses an integer amount of base units.
func ParseBaseUnits(value string) (*uint256.Int, error) {
	value = strings.TrimSpace(value)
	out, err := uint256.FromDecimal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, value, err)
	}
	return out, nil
}
