package models

import (
	"fmt"
	"time"
)

// OperationKind names a user-facing operation that can be paused on its own.
type OperationKind uint8

const (
	OperationCreateQuestion OperationKind = iota
	OperationMintKey
	OperationListKey
	OperationBuyKey

	// OperationKindCount must stay last.
	OperationKindCount
)

var operationKindNames = [...]string{
	OperationCreateQuestion: "create_question",
	OperationMintKey:        "mint_key",
	OperationListKey:        "list_key",
	OperationBuyKey:         "buy_key",
}

// Fails to compile when a kind is added without a name.
var _ = [1]struct{}{}[len(operationKindNames)-int(OperationKindCount)]

func (k OperationKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("operation(%d)", uint8(k))
	}
	return operationKindNames[k]
}

// Valid reports whether k is a known operation kind.
func (k OperationKind) Valid() bool {
	return k < OperationKindCount
}

// ParseOperationKind resolves the wire name of an operation kind.
func ParseOperationKind(name string) (OperationKind, error) {
	for i, n := range operationKindNames {
		if n == name {
			return OperationKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown operation kind %q", name)
}

// PausedOperations holds one switch per operation kind.
type PausedOperations [OperationKindCount]bool

// IsPaused reports whether op is switched off.
func (p PausedOperations) IsPaused(op OperationKind) bool {
	if !op.Valid() {
		return false
	}
	return p[op]
}

// Bits packs the switches into a bitmask for storage.
func (p PausedOperations) Bits() uint8 {
	var bits uint8
	for i, paused := range p {
		if paused {
			bits |= 1 << uint(i)
		}
	}
	return bits
}

// PausedOperationsFromBits is the inverse of Bits.
func PausedOperationsFromBits(bits uint8) PausedOperations {
	var p PausedOperations
	for i := range p {
		p[i] = bits&(1<<uint(i)) != 0
	}
	return p
}

// Marketplace is the single configuration and accounting record of a deployment.
type Marketplace struct {
	Authority         string           `db:"authority"`
	Treasury          string           `db:"treasury"`
	FeeToken          string           `db:"fee_token"`
	PlatformFeeBps    uint16           `db:"platform_fee_bps"`
	CreatorRoyaltyBps uint16           `db:"creator_royalty_bps"`
	QuestionCounter   uint64           `db:"question_counter"`
	TotalVolume       uint64           `db:"total_volume"`
	Paused            bool             `db:"paused"`
	PausedOperations  PausedOperations `db:"paused_operations"`
	CreatedAt         time.Time        `db:"created_at"`
	UpdatedAt         time.Time        `db:"updated_at"`
}

// PayoutAccount is where platform fees are sent.
func (m *Marketplace) PayoutAccount() string {
	if m.Treasury != "" {
		return m.Treasury
	}
	return m.Authority
}
