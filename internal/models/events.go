package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/prodoxx/myqa-is/pkg/helpers"
)

// Event types, one per successful mutating operation.
const (
	EventMarketplaceInitialized = "marketplace.initialized"
	EventFeesUpdated            = "marketplace.fees_updated"
	EventTreasuryUpdated        = "marketplace.treasury_updated"
	EventMarketplaceToggled     = "marketplace.toggled"
	EventOperationToggled       = "marketplace.operation_toggled"
	EventAuthorityTransferred   = "marketplace.authority_transferred"
	EventUserInitialized        = "user.initialized"
	EventUserBlacklisted        = "user.blacklisted"
	EventUserUnblacklisted      = "user.unblacklisted"
	EventQuestionCreated        = "question.created"
	EventQuestionDeactivated    = "question.deactivated"
	EventKeyMinted              = "key.minted"
	EventKeyListed              = "key.listed"
	EventListingUpdated         = "key.listing_updated"
	EventListingCancelled       = "key.listing_cancelled"
	EventKeySold                = "key.sold"
)

// Event is an immutable record of a completed operation.
type Event struct {
	ID            string          `db:"id" json:"id"`
	Type          string          `db:"event_type" json:"type"`
	Actor         string          `db:"actor" json:"actor"`
	QuestionIndex *uint64         `db:"question_index" json:"question_index,omitempty"`
	TokenID       *uint64         `db:"token_id" json:"token_id,omitempty"`
	Payload       json.RawMessage `db:"payload" json:"payload"`
	OccurredAt    time.Time       `db:"occurred_at" json:"occurred_at"`
}

// NewEvent builds an event with a fresh id and a JSON payload.
func NewEvent(eventType, actor string, payload any, at time.Time) (*Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", eventType, err)
	}
	return &Event{
		ID:         helpers.GenerateUUID(),
		Type:       eventType,
		Actor:      actor,
		Payload:    raw,
		OccurredAt: at,
	}, nil
}

// ForQuestion scopes the event to a question.
func (e *Event) ForQuestion(index uint64) *Event {
	e.QuestionIndex = &index
	return e
}

// ForKey scopes the event to an unlock key.
func (e *Event) ForKey(questionIndex, tokenID uint64) *Event {
	e.QuestionIndex = &questionIndex
	e.TokenID = &tokenID
	return e
}

type MarketplaceInitializedPayload struct {
	Authority         string `json:"authority"`
	Treasury          string `json:"treasury"`
	FeeToken          string `json:"fee_token"`
	PlatformFeeBps    uint16 `json:"platform_fee_bps"`
	CreatorRoyaltyBps uint16 `json:"creator_royalty_bps"`
}

type FeesUpdatedPayload struct {
	OldPlatformFeeBps    uint16 `json:"old_platform_fee_bps"`
	NewPlatformFeeBps    uint16 `json:"new_platform_fee_bps"`
	OldCreatorRoyaltyBps uint16 `json:"old_creator_royalty_bps"`
	NewCreatorRoyaltyBps uint16 `json:"new_creator_royalty_bps"`
}

type TreasuryUpdatedPayload struct {
	OldTreasury string `json:"old_treasury"`
	NewTreasury string `json:"new_treasury"`
}

type MarketplaceToggledPayload struct {
	Paused bool `json:"paused"`
}

type OperationToggledPayload struct {
	Operation string `json:"operation"`
	Paused    bool   `json:"paused"`
}

type AuthorityTransferredPayload struct {
	OldAuthority string `json:"old_authority"`
	NewAuthority string `json:"new_authority"`
}

type UserPayload struct {
	User string `json:"user"`
}

type QuestionCreatedPayload struct {
	Creator     string `json:"creator"`
	ContentKind string `json:"content_kind"`
	ContentHash string `json:"content_hash"`
	UnlockPrice uint64 `json:"unlock_price"`
	MaxKeys     uint64 `json:"max_keys"`
}

type QuestionDeactivatedPayload struct {
	Creator string `json:"creator"`
}

type KeyMintedPayload struct {
	Buyer       string `json:"buyer"`
	Creator     string `json:"creator"`
	Price       uint64 `json:"price"`
	PlatformFee uint64 `json:"platform_fee"`
	CreatorCut  uint64 `json:"creator_cut"`
	Name        string `json:"name"`
	MetadataURI string `json:"metadata_uri"`
}

type KeyListedPayload struct {
	Seller string `json:"seller"`
	Price  uint64 `json:"price"`
}

type ListingUpdatedPayload struct {
	Seller   string `json:"seller"`
	OldPrice uint64 `json:"old_price"`
	NewPrice uint64 `json:"new_price"`
}

type ListingCancelledPayload struct {
	Seller string `json:"seller"`
}

type KeySoldPayload struct {
	Seller         string `json:"seller"`
	Buyer          string `json:"buyer"`
	Price          uint64 `json:"price"`
	PlatformFee    uint64 `json:"platform_fee"`
	CreatorRoyalty uint64 `json:"creator_royalty"`
	SellerPayment  uint64 `json:"seller_payment"`
}
