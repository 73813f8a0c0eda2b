package handler

import (
	"context"
	"encoding/hex"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/prodoxx/myqa-is/internal/models"
	"github.com/prodoxx/myqa-is/internal/service"
	"github.com/prodoxx/myqa-is/pkg/auth"
	"github.com/prodoxx/myqa-is/pkg/helpers"
)

// PublicMethods can be called without a bearer token.
var PublicMethods = []string{
	methodPath("GetMarketplace"),
	methodPath("GetUserState"),
	methodPath("GetQuestion"),
	methodPath("ListQuestionsByCreator"),
	methodPath("ListQuestionEvents"),
	methodPath("GetUnlockKey"),
	methodPath("ListKeysByOwner"),
}

type MarketplaceHandler struct {
	marketplaceService service.MarketplaceService
	questionService    service.QuestionService
	unlockKeyService   service.UnlockKeyService
	settlementService  service.SettlementService
	validator          *helpers.CustomValidator
	tokenDecimals      int32
}

func NewMarketplaceHandler(
	marketplaceService service.MarketplaceService,
	questionService service.QuestionService,
	unlockKeyService service.UnlockKeyService,
	settlementService service.SettlementService,
	tokenDecimals int32,
) *MarketplaceHandler {
	return &MarketplaceHandler{
		marketplaceService: marketplaceService,
		questionService:    questionService,
		unlockKeyService:   unlockKeyService,
		settlementService:  settlementService,
		validator:          helpers.NewCustomValidator(),
		tokenDecimals:      tokenDecimals,
	}
}

func (h *MarketplaceHandler) validate(req interface{}) error {
	if err := h.validator.Validate(req); err != nil {
		return invalidArgument(err)
	}
	return nil
}

func callerIdentity(ctx context.Context) (string, error) {
	caller, err := auth.GetCallerFromContext(ctx)
	if err != nil {
		return "", status.Error(codes.Unauthenticated, "authentication required")
	}
	return caller.Identity, nil
}

// Marketplace administration

func (h *MarketplaceHandler) Initialize(ctx context.Context, req *InitializeRequest) (*MarketplaceResponse, error) {
	if err := h.validate(req); err != nil {
		return nil, err
	}
	caller, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	m, err := h.marketplaceService.Initialize(ctx, caller, req.Treasury, req.FeeToken)
	if err != nil {
		return nil, toStatus(err)
	}
	return h.marketplaceResponse(m), nil
}

func (h *MarketplaceHandler) GetMarketplace(ctx context.Context, _ *Empty) (*MarketplaceResponse, error) {
	m, err := h.marketplaceService.GetMarketplace(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return h.marketplaceResponse(m), nil
}

func (h *MarketplaceHandler) UpdateFees(ctx context.Context, req *UpdateFeesRequest) (*MarketplaceResponse, error) {
	caller, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	m, err := h.marketplaceService.UpdateFees(ctx, caller, req.PlatformFeeBps, req.CreatorRoyaltyBps)
	if err != nil {
		return nil, toStatus(err)
	}
	return h.marketplaceResponse(m), nil
}

func (h *MarketplaceHandler) UpdateTreasury(ctx context.Context, req *UpdateTreasuryRequest) (*MarketplaceResponse, error) {
	if err := h.validate(req); err != nil {
		return nil, err
	}
	caller, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	m, err := h.marketplaceService.UpdateTreasury(ctx, caller, req.Treasury)
	if err != nil {
		return nil, toStatus(err)
	}
	return h.marketplaceResponse(m), nil
}

func (h *MarketplaceHandler) ToggleMarketplace(ctx context.Context, _ *Empty) (*MarketplaceResponse, error) {
	caller, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	m, err := h.marketplaceService.ToggleMarketplace(ctx, caller)
	if err != nil {
		return nil, toStatus(err)
	}
	return h.marketplaceResponse(m), nil
}

func (h *MarketplaceHandler) ToggleOperation(ctx context.Context, req *ToggleOperationRequest) (*MarketplaceResponse, error) {
	if err := h.validate(req); err != nil {
		return nil, err
	}
	caller, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	op, err := models.ParseOperationKind(req.Operation)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	m, err := h.marketplaceService.ToggleOperation(ctx, caller, op)
	if err != nil {
		return nil, toStatus(err)
	}
	return h.marketplaceResponse(m), nil
}

func (h *MarketplaceHandler) TransferAuthority(ctx context.Context, req *TransferAuthorityRequest) (*MarketplaceResponse, error) {
	if err := h.validate(req); err != nil {
		return nil, err
	}
	caller, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	m, err := h.marketplaceService.TransferAuthority(ctx, caller, req.NewAuthority)
	if err != nil {
		return nil, toStatus(err)
	}
	return h.marketplaceResponse(m), nil
}

func (h *MarketplaceHandler) BlacklistUser(ctx context.Context, req *IdentityRequest) (*UserStateResponse, error) {
	return h.setBlacklisted(ctx, req, h.marketplaceService.BlacklistUser)
}

func (h *MarketplaceHandler) UnblacklistUser(ctx context.Context, req *IdentityRequest) (*UserStateResponse, error) {
	return h.setBlacklisted(ctx, req, h.marketplaceService.UnblacklistUser)
}

func (h *MarketplaceHandler) setBlacklisted(ctx context.Context, req *IdentityRequest, apply func(ctx context.Context, caller, identity string) (*models.UserState, error)) (*UserStateResponse, error) {
	if err := h.validate(req); err != nil {
		return nil, err
	}
	caller, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	user, err := apply(ctx, caller, req.Identity)
	if err != nil {
		return nil, toStatus(err)
	}
	return userStateResponse(user), nil
}

func (h *MarketplaceHandler) DeactivateQuestion(ctx context.Context, req *QuestionRequest) (*QuestionResponse, error) {
	caller, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	q, err := h.marketplaceService.DeactivateQuestion(ctx, caller, req.QuestionIndex)
	if err != nil {
		return nil, toStatus(err)
	}
	return h.questionResponse(q), nil
}

// User state

func (h *MarketplaceHandler) InitializeUserState(ctx context.Context, _ *Empty) (*UserStateResponse, error) {
	caller, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	user, err := h.marketplaceService.InitializeUserState(ctx, caller)
	if err != nil {
		return nil, toStatus(err)
	}
	return userStateResponse(user), nil
}

func (h *MarketplaceHandler) GetUserState(ctx context.Context, req *IdentityRequest) (*UserStateResponse, error) {
	if err := h.validate(req); err != nil {
		return nil, err
	}
	user, err := h.marketplaceService.GetUserState(ctx, req.Identity)
	if err != nil {
		return nil, toStatus(err)
	}
	return userStateResponse(user), nil
}

// Questions

func (h *MarketplaceHandler) CreateQuestion(ctx context.Context, req *CreateQuestionRequest) (*QuestionResponse, error) {
	if err := h.validate(req); err != nil {
		return nil, err
	}
	caller, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}

	input := service.CreateQuestionInput{
		Creator:     caller,
		UnlockPrice: req.UnlockPrice,
		MaxKeys:     req.MaxKeys,
	}
	if req.ContentKind == "inline" {
		input.Content = models.NewInlineContent(req.Text, req.EncryptedAnswer)
	} else {
		hash, err := decodeHash(req.ContentHash)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "content_hash: %v", err)
		}
		input.Content = models.NewExternalContent(req.CID, hash)
	}
	if req.Claims != nil {
		claims, err := contentClaims(req.Claims)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		input.Claims = claims
	}

	q, err := h.questionService.CreateQuestion(ctx, input)
	if err != nil {
		return nil, toStatus(err)
	}
	return h.questionResponse(q), nil
}

func (h *MarketplaceHandler) GetQuestion(ctx context.Context, req *QuestionRequest) (*QuestionResponse, error) {
	q, err := h.questionService.GetQuestion(ctx, req.QuestionIndex)
	if err != nil {
		return nil, toStatus(err)
	}
	return h.questionResponse(q), nil
}

func (h *MarketplaceHandler) ListQuestionsByCreator(ctx context.Context, req *ListByCreatorRequest) (*QuestionsResponse, error) {
	if err := h.validate(req); err != nil {
		return nil, err
	}
	questions, err := h.questionService.ListQuestionsByCreator(ctx, req.Creator, req.Limit)
	if err != nil {
		return nil, toStatus(err)
	}
	resp := &QuestionsResponse{Questions: make([]*QuestionResponse, 0, len(questions))}
	for _, q := range questions {
		resp.Questions = append(resp.Questions, h.questionResponse(q))
	}
	return resp, nil
}

func (h *MarketplaceHandler) ListQuestionEvents(ctx context.Context, req *ListQuestionEventsRequest) (*EventsResponse, error) {
	if err := h.validate(req); err != nil {
		return nil, err
	}
	events, err := h.questionService.ListQuestionEvents(ctx, req.QuestionIndex, req.Limit)
	if err != nil {
		return nil, toStatus(err)
	}
	if events == nil {
		events = []*models.Event{}
	}
	return &EventsResponse{Events: events}, nil
}

// Unlock keys

func (h *MarketplaceHandler) MintKey(ctx context.Context, req *MintKeyRequest) (*UnlockKeyResponse, error) {
	caller, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	key, err := h.settlementService.Mint(ctx, service.MintInput{
		Buyer:            caller,
		QuestionIndex:    req.QuestionIndex,
		MetadataURI:      req.MetadataURI,
		EncryptedPayload: req.EncryptedPayload,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return unlockKeyResponse(key), nil
}

func (h *MarketplaceHandler) ListKey(ctx context.Context, req *PriceKeyRequest) (*UnlockKeyResponse, error) {
	caller, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	key, err := h.unlockKeyService.ListKey(ctx, caller, keyRef(req.QuestionIndex, req.TokenID), req.Price)
	if err != nil {
		return nil, toStatus(err)
	}
	return unlockKeyResponse(key), nil
}

func (h *MarketplaceHandler) UpdateListing(ctx context.Context, req *PriceKeyRequest) (*UnlockKeyResponse, error) {
	caller, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	key, err := h.unlockKeyService.UpdateListing(ctx, caller, keyRef(req.QuestionIndex, req.TokenID), req.Price)
	if err != nil {
		return nil, toStatus(err)
	}
	return unlockKeyResponse(key), nil
}

func (h *MarketplaceHandler) CancelListing(ctx context.Context, req *KeyRequest) (*UnlockKeyResponse, error) {
	caller, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	key, err := h.unlockKeyService.CancelListing(ctx, caller, keyRef(req.QuestionIndex, req.TokenID))
	if err != nil {
		return nil, toStatus(err)
	}
	return unlockKeyResponse(key), nil
}

func (h *MarketplaceHandler) BuyListedKey(ctx context.Context, req *BuyListedKeyRequest) (*UnlockKeyResponse, error) {
	caller, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	key, err := h.settlementService.BuyListed(ctx, service.BuyListedInput{
		Buyer:            caller,
		Key:              keyRef(req.QuestionIndex, req.TokenID),
		EncryptedPayload: req.EncryptedPayload,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return unlockKeyResponse(key), nil
}

func (h *MarketplaceHandler) GetUnlockKey(ctx context.Context, req *KeyRequest) (*UnlockKeyResponse, error) {
	key, err := h.unlockKeyService.GetUnlockKey(ctx, keyRef(req.QuestionIndex, req.TokenID))
	if err != nil {
		return nil, toStatus(err)
	}
	return unlockKeyResponse(key), nil
}

func (h *MarketplaceHandler) ListKeysByOwner(ctx context.Context, req *ListKeysByOwnerRequest) (*UnlockKeysResponse, error) {
	if err := h.validate(req); err != nil {
		return nil, err
	}
	keys, err := h.unlockKeyService.ListKeysByOwner(ctx, req.Owner)
	if err != nil {
		return nil, toStatus(err)
	}
	resp := &UnlockKeysResponse{Keys: make([]*UnlockKeyResponse, 0, len(keys))}
	for _, k := range keys {
		resp.Keys = append(resp.Keys, unlockKeyResponse(k))
	}
	return resp, nil
}

func keyRef(questionIndex, tokenID uint64) service.KeyRef {
	return service.KeyRef{QuestionIndex: questionIndex, TokenID: tokenID}
}

func decodeHash(s string) ([32]byte, error) {
	var out [32]byte
	raw, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(raw) != len(out) {
		return out, fmt.Errorf("expected %d bytes, got %d", len(out), len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

func contentClaims(msg *ContentClaimsMessage) (*service.ContentClaims, error) {
	contentHash, err := decodeHash(msg.ContentHash)
	if err != nil {
		return nil, fmt.Errorf("claims.content_hash: %w", err)
	}
	answerHash, err := decodeHash(msg.AnswerHash)
	if err != nil {
		return nil, fmt.Errorf("claims.answer_hash: %w", err)
	}
	return &service.ContentClaims{
		QuestionLength: msg.QuestionLength,
		AnswerLength:   msg.AnswerLength,
		ContentHash:    contentHash,
		AnswerHash:     answerHash,
		Timestamp:      msg.Timestamp,
		Signature:      msg.Signature,
	}, nil
}
