package core

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
)

func TestConverter_ScaleForDefaultPrecision(t *testing.T) {
	converter := MustConverter(18, 4)
	if got := converter.Scale().Dec(); got != "100000000000000" {
		t.Fatalf("expected scale 10^14, got %s", got)
	}
	if converter.Exponent() != 14 {
		t.Fatalf("expected exponent 14, got %d", converter.Exponent())
	}
	if !converter.MinimumWrap().Eq(converter.Scale()) {
		t.Fatalf("expected minimum wrap to equal scale")
	}
}

func TestConverter_ToDerivativeFloors(t *testing.T) {
	converter := MustConverter(18, 4)
	cases := []struct {
		in   string
		want uint64
	}{
		{in: "0", want: 0},
		{in: "99999999999999", want: 0},
		{in: "100000000000000", want: 1},
		{in: "199999999999999", want: 1},
		{in: "1099999999999999", want: 10},
		{in: "1000000000000000000", want: 10000},
	}
	for _, tc := range cases {
		got := converter.ToDerivative(units(tc.in))
		if !got.IsUint64() || got.Uint64() != tc.want {
			t.Fatalf("toDerivative(%s): expected %d, got %s", tc.in, tc.want, got.Dec())
		}
	}
}

func TestConverter_ToSourceIsExact(t *testing.T) {
	converter := MustConverter(18, 4)
	if got := converter.ToSource(1).Dec(); got != "100000000000000" {
		t.Fatalf("expected 10^14, got %s", got)
	}
	if got := converter.ToSource(10000).Dec(); got != "1000000000000000000" {
		t.Fatalf("expected one whole unit, got %s", got)
	}
	if got := converter.ToSource(0); !got.IsZero() {
		t.Fatalf("expected zero, got %s", got.Dec())
	}
}

func TestConverter_RoundTripLosesAtMostResidue(t *testing.T) {
	converter := MustConverter(18, 4)
	for _, raw := range []string{"100000000000000", "1099999999999999", "123456789012345678901234"} {
		amount := units(raw)
		back := converter.ToSource(converter.ToDerivative(amount).Uint64())
		if back.Gt(amount) {
			t.Fatalf("round trip of %s grew to %s", raw, back.Dec())
		}
		lost := new(uint256.Int).Sub(amount, back)
		if !lost.Lt(converter.Scale()) {
			t.Fatalf("round trip of %s lost %s, not below scale", raw, lost.Dec())
		}
		if !lost.Eq(converter.Residue(amount)) {
			t.Fatalf("expected lost amount to equal residue, got %s vs %s", lost.Dec(), converter.Residue(amount).Dec())
		}
	}
}

func TestConverter_DerivativeRoundTripIsIdentity(t *testing.T) {
	converter := MustConverter(18, 4)
	for _, value := range []uint64{0, 1, 7, 10000, 1 << 40, 10000000000000000000} {
		if got := converter.ToDerivative(converter.ToSource(value)); got.Uint64() != value {
			t.Fatalf("expected %d, got %s", value, got.Dec())
		}
	}
}

func TestConverter_RejectsInvalidPrecision(t *testing.T) {
	if _, err := NewConverter(4, 18); !errors.Is(err, ErrInvalidPrecision) {
		t.Fatalf("expected invalid precision for inverted decimals, got %v", err)
	}
	if _, err := NewConverter(-1, 0); !errors.Is(err, ErrInvalidPrecision) {
		t.Fatalf("expected invalid precision for negative decimals, got %v", err)
	}
	if _, err := NewConverter(77, 0); !errors.Is(err, ErrInvalidPrecision) {
		t.Fatalf("expected invalid precision for oversized gap, got %v", err)
	}
	if _, err := NewConverter(6, 6); err != nil {
		t.Fatalf("expected equal decimals to be valid: %v", err)
	}
}

func TestConverter_FitsDerivativeRange(t *testing.T) {
	converter := MustConverter(18, 4)
	if !converter.FitsDerivativeRange(units(DefaultMaxSourceSupply)) {
		t.Fatalf("expected default max supply to fit the derivative range")
	}
	tooLarge := new(uint256.Int).Mul(units("18446744073709551616"), converter.Scale())
	if converter.FitsDerivativeRange(tooLarge) {
		t.Fatalf("expected 2^64 derivative units to overflow")
	}
}

func TestFormatUnits_MatchesAcrossPrecisions(t *testing.T) {
	if got := FormatUnits(units("100000000000000"), 18); got != "0.0001" {
		t.Fatalf("expected 0.0001, got %q", got)
	}
	if got := FormatUnits(uint256.NewInt(1), 4); got != "0.0001" {
		t.Fatalf("expected 0.0001, got %q", got)
	}
	if got := FormatUnits(elon(25), 18); got != "25" {
		t.Fatalf("expected 25, got %q", got)
	}
}

func TestParseUnits(t *testing.T) {
	converter := MustConverter(18, 4)
	parsed, err := converter.ParseSource("0.0001")
	if err != nil {
		t.Fatalf("parse source: %v", err)
	}
	if parsed.Dec() != "100000000000000" {
		t.Fatalf("expected 10^14, got %s", parsed.Dec())
	}
	derivative, err := converter.ParseDerivative("1.5")
	if err != nil {
		t.Fatalf("parse derivative: %v", err)
	}
	if derivative != 15000 {
		t.Fatalf("expected 15000, got %d", derivative)
	}
	if _, err := converter.ParseDerivative("0.00001"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected excess precision to fail, got %v", err)
	}
	if _, err := ParseUnits("-1", 18); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected negative amount to fail, got %v", err)
	}
	if _, err := ParseBaseUnits("12abc"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected malformed base units to fail, got %v", err)
	}
}
