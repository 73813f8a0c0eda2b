package handler

import (
	"encoding/hex"
	"time"

	"github.com/prodoxx/myqa-is/internal/models"
	"github.com/prodoxx/myqa-is/pkg/helpers"
)

// Requests

type Empty struct{}

type InitializeRequest struct {
	Treasury string `json:"treasury" validate:"required,identity"`
	FeeToken string `json:"fee_token" validate:"required,max=16"`
}

type IdentityRequest struct {
	Identity string `json:"identity" validate:"required,identity"`
}

type UpdateFeesRequest struct {
	PlatformFeeBps    uint16 `json:"platform_fee_bps"`
	CreatorRoyaltyBps uint16 `json:"creator_royalty_bps"`
}

type UpdateTreasuryRequest struct {
	Treasury string `json:"treasury" validate:"required,identity"`
}

type ToggleOperationRequest struct {
	Operation string `json:"operation" validate:"required,oneof=create_question mint_key list_key buy_key"`
}

type TransferAuthorityRequest struct {
	NewAuthority string `json:"new_authority" validate:"required,identity"`
}

type QuestionRequest struct {
	QuestionIndex uint64 `json:"question_index"`
}

type ContentClaimsMessage struct {
	QuestionLength uint32 `json:"question_length"`
	AnswerLength   uint32 `json:"answer_length"`
	ContentHash    string `json:"content_hash" validate:"required,hash_hex"`
	AnswerHash     string `json:"answer_hash" validate:"required,hash_hex"`
	Timestamp      int64  `json:"timestamp"`
	Signature      []byte `json:"signature,omitempty"`
}

type CreateQuestionRequest struct {
	ContentKind     string                `json:"content_kind" validate:"required,oneof=inline external"`
	Text            string                `json:"text,omitempty"`
	EncryptedAnswer []byte                `json:"encrypted_answer,omitempty"`
	CID             string                `json:"cid,omitempty"`
	ContentHash     string                `json:"content_hash,omitempty" validate:"omitempty,hash_hex"`
	Claims          *ContentClaimsMessage `json:"claims,omitempty"`
	UnlockPrice     uint64                `json:"unlock_price"`
	MaxKeys         uint64                `json:"max_keys"`
}

type ListByCreatorRequest struct {
	Creator string `json:"creator" validate:"required,identity"`
	Limit   int    `json:"limit" validate:"min=0"`
}

type ListQuestionEventsRequest struct {
	QuestionIndex uint64 `json:"question_index"`
	Limit         int    `json:"limit" validate:"min=0"`
}

type MintKeyRequest struct {
	QuestionIndex    uint64 `json:"question_index"`
	MetadataURI      string `json:"metadata_uri"`
	EncryptedPayload []byte `json:"encrypted_payload"`
}

type KeyRequest struct {
	QuestionIndex uint64 `json:"question_index"`
	TokenID       uint64 `json:"token_id"`
}

type PriceKeyRequest struct {
	QuestionIndex uint64 `json:"question_index"`
	TokenID       uint64 `json:"token_id"`
	Price         uint64 `json:"price"`
}

type BuyListedKeyRequest struct {
	QuestionIndex    uint64 `json:"question_index"`
	TokenID          uint64 `json:"token_id"`
	EncryptedPayload []byte `json:"encrypted_payload"`
}

type ListKeysByOwnerRequest struct {
	Owner string `json:"owner" validate:"required,identity"`
}

// Responses

type MarketplaceResponse struct {
	Authority         string   `json:"authority"`
	Treasury          string   `json:"treasury"`
	FeeToken          string   `json:"fee_token"`
	PlatformFeeBps    uint16   `json:"platform_fee_bps"`
	PlatformFee       string   `json:"platform_fee"`
	CreatorRoyaltyBps uint16   `json:"creator_royalty_bps"`
	CreatorRoyalty    string   `json:"creator_royalty"`
	QuestionCounter   uint64   `json:"question_counter"`
	TotalVolume       uint64   `json:"total_volume"`
	TotalVolumeTokens string   `json:"total_volume_tokens"`
	Paused            bool     `json:"paused"`
	PausedOperations  []string `json:"paused_operations"`
}

type UserStateResponse struct {
	Identity          string    `json:"identity"`
	QuestionsCreated  uint64    `json:"questions_created"`
	LastOperationTime time.Time `json:"last_operation_time"`
	IsBlacklisted     bool      `json:"is_blacklisted"`
}

type QuestionResponse struct {
	Index        uint64    `json:"index"`
	Creator      string    `json:"creator"`
	ContentKind  string    `json:"content_kind"`
	Text         string    `json:"text,omitempty"`
	CID          string    `json:"cid,omitempty"`
	ContentHash  string    `json:"content_hash"`
	UnlockPrice  uint64    `json:"unlock_price"`
	PriceTokens  string    `json:"price_tokens"`
	MaxKeys      uint64    `json:"max_keys"`
	CurrentKeys  uint64    `json:"current_keys"`
	TotalSales   uint64    `json:"total_sales"`
	IsActive     bool      `json:"is_active"`
	CreationTime time.Time `json:"creation_time"`
}

type QuestionsResponse struct {
	Questions []*QuestionResponse `json:"questions"`
}

type UnlockKeyResponse struct {
	QuestionIndex    uint64     `json:"question_index"`
	TokenID          uint64     `json:"token_id"`
	Name             string     `json:"name"`
	Owner            string     `json:"owner"`
	EncryptedPayload []byte     `json:"encrypted_payload"`
	IsListed         bool       `json:"is_listed"`
	ListPrice        uint64     `json:"list_price"`
	ListTime         *time.Time `json:"list_time,omitempty"`
	MetadataURI      string     `json:"metadata_uri"`
	MintTime         time.Time  `json:"mint_time"`
	LastSoldPrice    uint64     `json:"last_sold_price"`
	LastSoldTime     *time.Time `json:"last_sold_time,omitempty"`
}

type UnlockKeysResponse struct {
	Keys []*UnlockKeyResponse `json:"keys"`
}

type EventsResponse struct {
	Events []*models.Event `json:"events"`
}

func (h *MarketplaceHandler) marketplaceResponse(m *models.Marketplace) *MarketplaceResponse {
	paused := make([]string, 0, models.OperationKindCount)
	for op := models.OperationKind(0); op < models.OperationKindCount; op++ {
		if m.PausedOperations.IsPaused(op) {
			paused = append(paused, op.String())
		}
	}
	return &MarketplaceResponse{
		Authority:         m.Authority,
		Treasury:          m.Treasury,
		FeeToken:          m.FeeToken,
		PlatformFeeBps:    m.PlatformFeeBps,
		PlatformFee:       helpers.FormatBps(m.PlatformFeeBps),
		CreatorRoyaltyBps: m.CreatorRoyaltyBps,
		CreatorRoyalty:    helpers.FormatBps(m.CreatorRoyaltyBps),
		QuestionCounter:   m.QuestionCounter,
		TotalVolume:       m.TotalVolume,
		TotalVolumeTokens: helpers.FormatTokenAmount(m.TotalVolume, h.tokenDecimals),
		Paused:            m.Paused,
		PausedOperations:  paused,
	}
}

func userStateResponse(u *models.UserState) *UserStateResponse {
	return &UserStateResponse{
		Identity:          u.Identity,
		QuestionsCreated:  u.QuestionsCreated,
		LastOperationTime: u.LastOperationTime,
		IsBlacklisted:     u.IsBlacklisted,
	}
}

func (h *MarketplaceHandler) questionResponse(q *models.Question) *QuestionResponse {
	resp := &QuestionResponse{
		Index:        q.Index,
		Creator:      q.Creator,
		ContentKind:  q.Content.Kind.String(),
		ContentHash:  hex.EncodeToString(q.ContentHash[:]),
		UnlockPrice:  q.UnlockPrice,
		PriceTokens:  helpers.FormatTokenAmount(q.UnlockPrice, h.tokenDecimals),
		MaxKeys:      q.MaxKeys,
		CurrentKeys:  q.CurrentKeys,
		TotalSales:   q.TotalSales,
		IsActive:     q.IsActive,
		CreationTime: q.CreationTime,
	}
	switch {
	case q.Content.Inline != nil:
		resp.Text = q.Content.Inline.Text
	case q.Content.External != nil:
		resp.CID = q.Content.External.CID
	}
	return resp
}

func unlockKeyResponse(k *models.UnlockKey) *UnlockKeyResponse {
	return &UnlockKeyResponse{
		QuestionIndex:    k.QuestionIndex,
		TokenID:          k.TokenID,
		Name:             models.KeyTokenName(k.QuestionIndex, k.TokenID),
		Owner:            k.Owner,
		EncryptedPayload: k.EncryptedPayload,
		IsListed:         k.IsListed,
		ListPrice:        k.ListPrice,
		ListTime:         k.ListTime,
		MetadataURI:      k.MetadataURI,
		MintTime:         k.MintTime,
		LastSoldPrice:    k.LastSoldPrice,
		LastSoldTime:     k.LastSoldTime,
	}
}
