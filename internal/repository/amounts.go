package repository

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/prodoxx/myqa-is/pkg/helpers"
)

// Token amounts are stored as DECIMAL(20,0) so the full uint64 range fits.

func formatAmount(v uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0).String()
}

func parseAmount(s string) (uint64, error) {
	v, ok := helpers.ParseTokenAmount(s)
	if !ok {
		return 0, fmt.Errorf("failed to parse amount %q", s)
	}
	return v, nil
}

func toHash(b []byte) ([32]byte, error) {
	var h [32]byte
	if len(b) != len(h) {
		return h, fmt.Errorf("expected 32 byte hash, got %d bytes", len(b))
	}
	copy(h[:], b)
	return h, nil
}
