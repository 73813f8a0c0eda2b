package helpers

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// FormatTokenAmount renders a base-unit amount with the token's decimals,
// e.g. 1500000 with 6 decimals -> "1.5".
func FormatTokenAmount(amount uint64, decimals int32) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -decimals).String()
}

// FormatBps renders basis points as a percentage, e.g. 250 -> "2.5%".
func FormatBps(bps uint16) string {
	return decimal.New(int64(bps), -2).String() + "%"
}

// ParseTokenAmount parses a decimal string of base units into a uint64.
func ParseTokenAmount(s string) (uint64, bool) {
	if s == "" {
		return 0, true
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() || !d.Equal(d.Truncate(0)) {
		return 0, false
	}
	bi := d.BigInt()
	if !bi.IsUint64() {
		return 0, false
	}
	return bi.Uint64(), true
}
