// internal/utils/amount.go
package utils

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// EtherDecimals is the number of fractional digits of the chain's native unit.
const EtherDecimals = 18

// Contract amounts are uint256.
const maxUintBits = 256

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	decimalAmountExpr = regexp.MustCompile(`^(\d+\.?\d*|\.\d+)$`)
)

// ParseAmount validates a human readable non-negative decimal such as "0.05".
// Exponents, signs and separators are rejected.
func ParseAmount(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if !decimalAmountExpr.MatchString(value) {
		return decimal.Zero, fmt.Errorf("%w: %q is not a non-negative decimal", ErrInvalidAmount, value)
	}

	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	return d, nil
}

// ParseUnits scales value by 10^decimals and returns the exact integer.
// More fractional digits than decimals is an error, never a rounding.
func ParseUnits(value string, decimals int32) (*big.Int, error) {
	d, err := ParseAmount(value)
	if err != nil {
		return nil, err
	}

	scaled := d.Shift(decimals)
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("%w: %q has more than %d fractional digits", ErrInvalidAmount, value, decimals)
	}
	wei := scaled.BigInt()
	if wei.BitLen() > maxUintBits {
		return nil, fmt.Errorf("%w: %q exceeds the uint256 range", ErrInvalidAmount, value)
	}
	return wei, nil
}

// ParseEther converts a decimal ether amount into wei.
func ParseEther(value string) (*big.Int, error) {
	return ParseUnits(value, EtherDecimals)
}

// FormatUnits is the inverse of ParseUnits.
func FormatUnits(amount *big.Int, decimals int32) string {
	return decimal.NewFromBigInt(amount, -decimals).String()
}
