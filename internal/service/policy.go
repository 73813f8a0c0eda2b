package service

import "time"

// BasisPointsDenominator is 100% expressed in basis points.
const BasisPointsDenominator = 10000

// Policy holds the marketplace limits applied by every component.
type Policy struct {
	InitialPlatformFeeBps    uint16
	InitialCreatorRoyaltyBps uint16
	MaxFeeBps                uint16
	MaxTotalFeeBps           uint16

	MaxQuestionsPerUser   uint64
	OperationCooldown     time.Duration
	InitialCooldownCredit time.Duration

	MaxQuestionLength     int
	MaxAnswerLength       int
	MinMetadataLength     int
	MaxURILength          int
	MaxEncryptedKeyLength int
	MinCIDLength          int
	MaxCIDLength          int
}

// DefaultPolicy returns the production limits.
func DefaultPolicy() Policy {
	return Policy{
		InitialPlatformFeeBps:    500,
		InitialCreatorRoyaltyBps: 200,
		MaxFeeBps:                1000,
		MaxTotalFeeBps:           9000,

		MaxQuestionsPerUser:   100,
		OperationCooldown:     60 * time.Second,
		InitialCooldownCredit: 300 * time.Second,

		MaxQuestionLength:     1000,
		MaxAnswerLength:       5000,
		MinMetadataLength:     5,
		MaxURILength:          200,
		MaxEncryptedKeyLength: 1024,
		MinCIDLength:          46,
		MaxCIDLength:          64,
	}
}
