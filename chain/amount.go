// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/holiman/uint256"
)

const (
	// LamportsPerSOL fixes SOL balances at 9 decimal places.
	LamportsPerSOL = 1_000_000_000
	// SOLDecimals is the precision of wallet balances.
	SOLDecimals = 9
	// MaxTokenDecimals bounds the decimals of a mint.
	MaxTokenDecimals = 9
)

var (
	errEmptyAmount    = errors.New("empty amount")
	errNegativeAmount = errors.New("amount must not be negative")
	errAmountOverflow = errors.New("amount is too large")

	// MaxTokenAmount is the largest supply or balance a mint can reach.
	MaxTokenAmount = uint256.NewInt(math.MaxUint64)
)

// ParseUnits converts a decimal string such as "1.5" into base units of a
// currency with [decimals] places. It rejects signs, exponents, more
// fractional digits than [decimals] and anything above [MaxTokenAmount].
func ParseUnits(s string, decimals uint8) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errEmptyAmount
	}
	if strings.HasPrefix(s, "-") {
		return nil, errNegativeAmount
	}
	whole, frac, hasPoint := strings.Cut(s, ".")
	if hasPoint && whole == "" && frac == "" {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if !isDigits(whole) || !isDigits(frac) {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("too many decimal places in %q: at most %d allowed", s, decimals)
	}
	digits := strings.TrimLeft(whole+frac+strings.Repeat("0", int(decimals)-len(frac)), "0")
	if digits == "" {
		return new(uint256.Int), nil
	}
	if len(digits) > 20 {
		return nil, errAmountOverflow
	}
	v, err := uint256.FromDecimal(digits)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if v.Gt(MaxTokenAmount) {
		return nil, errAmountOverflow
	}
	return v, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FormatUnits renders base units as a decimal string with trailing zeros
// removed, so 1500000 with 6 decimals prints as "1.5".
func FormatUnits(v *uint256.Int, decimals uint8) string {
	if v == nil {
		return "0"
	}
	if decimals == 0 {
		return v.Dec()
	}
	scale := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(decimals)))
	whole := new(uint256.Int).Div(v, scale)
	frac := new(uint256.Int).Mod(v, scale)
	if frac.IsZero() {
		return whole.Dec()
	}
	fracStr := frac.Dec()
	fracStr = strings.Repeat("0", int(decimals)-len(fracStr)) + fracStr
	return whole.Dec() + "." + strings.TrimRight(fracStr, "0")
}

// ParseSOL parses a SOL amount into lamports.
func ParseSOL(s string) (uint64, error) {
	v, err := ParseUnits(s, SOLDecimals)
	if err != nil {
		return 0, err
	}
	return v.Uint64(), nil
}

// FormatSOL renders lamports as SOL.
func FormatSOL(lamports uint64) string {
	return FormatUnits(uint256.NewInt(lamports), SOLDecimals)
}

// Units returns a copy of [v] that is safe to retain; nil reads as zero.
func Units(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v.Clone()
}
