package utils

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// ErrInvalidAmount is returned by ToMinimal when the input is not a
// non-negative finite decimal representable within the denomination's
// precision.
var ErrInvalidAmount = errors.New("invalid amount")

// MaxDecimals bounds the supported denomination precision.
const MaxDecimals = 18

// ToDisplay converts a minimal integer amount to its human-decimal string,
// rendered with exactly `decimals` fractional digits. The conversion is exact
// for any non-negative amount: integer DivMod, no floats, no rounding.
// Example: ToDisplay(1500000, 6) == "1.500000".
func ToDisplay(minimal *big.Int, decimals int) (string, error) {
	if minimal == nil {
		return "", fmt.Errorf("%w: nil amount", ErrInvalidAmount)
	}
	if minimal.Sign() < 0 {
		return "", fmt.Errorf("%w: negative amount %s", ErrInvalidAmount, minimal.String())
	}
	if decimals < 0 || decimals > MaxDecimals {
		return "", fmt.Errorf("%w: decimals %d out of range [0,%d]", ErrInvalidAmount, decimals, MaxDecimals)
	}

	if decimals == 0 {
		return minimal.String(), nil
	}

	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	quo, rem := new(big.Int).QuoRem(minimal, divisor, new(big.Int))

	// Целая часть + дробная часть фиксированной ширины, без усечения нулей.
	frac := rem.String()
	if pad := decimals - len(frac); pad > 0 {
		frac = strings.Repeat("0", pad) + frac
	}
	return quo.String() + "." + frac, nil
}

// ToMinimal parses a display-decimal string back into a minimal integer
// amount. It rejects negative values, scientific notation, and fractional
// parts longer than `decimals` (would misrepresent funds the denomination
// cannot hold). Round-trip: ToMinimal(ToDisplay(x, d), d) == x.
func ToMinimal(display string, decimals int) (*big.Int, error) {
	if decimals < 0 || decimals > MaxDecimals {
		return nil, fmt.Errorf("%w: decimals %d out of range [0,%d]", ErrInvalidAmount, decimals, MaxDecimals)
	}

	s := strings.TrimSpace(display)
	if s == "" {
		return nil, fmt.Errorf("%w: empty string", ErrInvalidAmount)
	}

	intPart := s
	fracPart := ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		intPart = s[:idx]
		fracPart = s[idx+1:]
		if strings.IndexByte(fracPart, '.') >= 0 {
			return nil, fmt.Errorf("%w: %q has multiple decimal points", ErrInvalidAmount, display)
		}
	}
	if intPart == "" && fracPart == "" {
		return nil, fmt.Errorf("%w: %q has no digits", ErrInvalidAmount, display)
	}
	if intPart == "" {
		intPart = "0"
	}
	if !isDigits(intPart) || (fracPart != "" && !isDigits(fracPart)) {
		return nil, fmt.Errorf("%w: %q is not a plain non-negative decimal", ErrInvalidAmount, display)
	}
	if len(fracPart) > decimals {
		return nil, fmt.Errorf("%w: %q exceeds %d fractional digits", ErrInvalidAmount, display, decimals)
	}

	// minimal = intPart * 10^decimals + fracPart padded to `decimals` digits
	padded := fracPart + strings.Repeat("0", decimals-len(fracPart))

	whole, ok := new(big.Int).SetString(intPart, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, display)
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole.Mul(whole, scale)
	if padded != "" {
		frac, ok := new(big.Int).SetString(padded, 10)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, display)
		}
		whole.Add(whole, frac)
	}
	return whole, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
