package handler

import (
	"context"
	"encoding/hex"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/prodoxx/myqa-is/internal/errs"
	"github.com/prodoxx/myqa-is/internal/models"
	"github.com/prodoxx/myqa-is/internal/service"
	"github.com/prodoxx/myqa-is/pkg/auth"
	"github.com/prodoxx/myqa-is/pkg/helpers"
)

type handlerMocks struct {
	marketplace *MockMarketplaceService
	questions   *MockQuestionService
	keys        *MockUnlockKeyService
	settlement  *MockSettlementService
}

func newTestHandler() (*MarketplaceHandler, *handlerMocks) {
	m := &handlerMocks{
		marketplace: new(MockMarketplaceService),
		questions:   new(MockQuestionService),
		keys:        new(MockUnlockKeyService),
		settlement:  new(MockSettlementService),
	}
	return NewMarketplaceHandler(m.marketplace, m.questions, m.keys, m.settlement, 6), m
}

func asCaller(identity string) context.Context {
	return context.WithValue(context.Background(), auth.CallerContextKey{}, &auth.CallerContext{Identity: identity})
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		code codes.Code
	}{
		{errs.ErrInvalidPrice, codes.InvalidArgument},
		{fmt.Errorf("mint_key: %w", errs.ErrOperationPaused), codes.FailedPrecondition},
		{errs.ErrRateLimitExceeded, codes.ResourceExhausted},
		{errs.ErrNotListed, codes.FailedPrecondition},
		{errs.ErrNumericalOverflow, codes.OutOfRange},
		{errs.ErrInsufficientFunds, codes.FailedPrecondition},
		{errs.ErrTransferFailed, codes.Unavailable},
		{errs.ErrInvalidAuthority, codes.PermissionDenied},
		{errs.ErrQuestionNotFound, codes.NotFound},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{assert.AnError, codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.code, status.Code(toStatus(tt.err)))
		})
	}

	t.Run("CodeInMessage", func(t *testing.T) {
		st, _ := status.FromError(toStatus(errs.ErrCannotBuyOwnKey))
		assert.True(t, strings.HasPrefix(st.Message(), "CannotBuyOwnKey: "))
	})
}

func TestMarketplaceHandler_CreateQuestion(t *testing.T) {
	hash := strings.Repeat("ab", 32)

	t.Run("Inline", func(t *testing.T) {
		h, m := newTestHandler()
		ctx := asCaller("alice")
		created := &models.Question{
			Index:       0,
			Creator:     "alice",
			Content:     models.NewInlineContent("Why?", []byte{1}),
			UnlockPrice: 1000,
			MaxKeys:     5,
			IsActive:    true,
		}
		m.questions.On("CreateQuestion", ctx, mock.MatchedBy(func(in service.CreateQuestionInput) bool {
			return in.Creator == "alice" &&
				in.Content.Kind == models.ContentKindInline &&
				in.Content.Inline.Text == "Why?" &&
				in.Claims != nil && in.Claims.QuestionLength == 4 &&
				in.UnlockPrice == 1000 && in.MaxKeys == 5
		})).Return(created, nil)

		resp, err := h.CreateQuestion(ctx, &CreateQuestionRequest{
			ContentKind:     "inline",
			Text:            "Why?",
			EncryptedAnswer: []byte{1},
			Claims: &ContentClaimsMessage{
				QuestionLength: 4,
				AnswerLength:   1,
				ContentHash:    hash,
				AnswerHash:     hash,
			},
			UnlockPrice: 1000,
			MaxKeys:     5,
		})
		require.NoError(t, err)
		assert.Equal(t, "alice", resp.Creator)
		assert.Equal(t, "inline", resp.ContentKind)
		assert.Equal(t, "Why?", resp.Text)
		assert.Equal(t, "0.001", resp.PriceTokens)
		m.questions.AssertExpectations(t)
	})

	t.Run("External", func(t *testing.T) {
		h, m := newTestHandler()
		ctx := asCaller("alice")
		cid := strings.Repeat("Q", 46)
		var want [32]byte
		raw, _ := hex.DecodeString(hash)
		copy(want[:], raw)

		m.questions.On("CreateQuestion", ctx, mock.MatchedBy(func(in service.CreateQuestionInput) bool {
			return in.Content.Kind == models.ContentKindExternal &&
				in.Content.External.CID == cid &&
				in.Content.External.Hash == want
		})).Return(&models.Question{Creator: "alice", Content: models.NewExternalContent(cid, want)}, nil)

		resp, err := h.CreateQuestion(ctx, &CreateQuestionRequest{
			ContentKind: "external",
			CID:         cid,
			ContentHash: hash,
			UnlockPrice: 1,
			MaxKeys:     1,
		})
		require.NoError(t, err)
		assert.Equal(t, cid, resp.CID)
	})

	t.Run("InvalidKind", func(t *testing.T) {
		h, m := newTestHandler()

		_, err := h.CreateQuestion(asCaller("alice"), &CreateQuestionRequest{ContentKind: "video"})
		require.Error(t, err)
		st, _ := status.FromError(err)
		assert.Equal(t, codes.InvalidArgument, st.Code())
		fields, ok := helpers.DecodeValidationError(st.Message())
		require.True(t, ok)
		assert.Contains(t, fields, "content_kind")
		m.questions.AssertNotCalled(t, "CreateQuestion", mock.Anything, mock.Anything)
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		h, _ := newTestHandler()

		_, err := h.CreateQuestion(context.Background(), &CreateQuestionRequest{ContentKind: "inline"})
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("DomainError", func(t *testing.T) {
		h, m := newTestHandler()
		ctx := asCaller("alice")
		m.questions.On("CreateQuestion", ctx, mock.Anything).Return(nil, errs.ErrRateLimitExceeded)

		_, err := h.CreateQuestion(ctx, &CreateQuestionRequest{ContentKind: "inline", Text: "x"})
		assert.Equal(t, codes.ResourceExhausted, status.Code(err))
	})
}

func TestMarketplaceHandler_MintKey(t *testing.T) {
	h, m := newTestHandler()
	ctx := asCaller("bob")
	payload := make([]byte, 32)

	m.settlement.On("Mint", ctx, service.MintInput{
		Buyer:            "bob",
		QuestionIndex:    3,
		MetadataURI:      "ipfs://meta",
		EncryptedPayload: payload,
	}).Return(&models.UnlockKey{QuestionIndex: 3, TokenID: 1, Owner: "bob"}, nil).Once()

	resp, err := h.MintKey(ctx, &MintKeyRequest{QuestionIndex: 3, MetadataURI: "ipfs://meta", EncryptedPayload: payload})
	require.NoError(t, err)
	assert.Equal(t, "bob", resp.Owner)
	assert.Equal(t, "QA Key #1 - Q3", resp.Name)

	m.settlement.On("Mint", ctx, mock.Anything).Return(nil, fmt.Errorf("balance check: %w", errs.ErrInsufficientFunds)).Once()
	_, err = h.MintKey(ctx, &MintKeyRequest{QuestionIndex: 3})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	m.settlement.AssertExpectations(t)
}

func TestMarketplaceHandler_Listing(t *testing.T) {
	h, m := newTestHandler()
	ctx := asCaller("bob")
	ref := service.KeyRef{QuestionIndex: 2, TokenID: 0}
	listed := &models.UnlockKey{QuestionIndex: 2, Owner: "bob", IsListed: true, ListPrice: 700}

	m.keys.On("ListKey", ctx, "bob", ref, uint64(700)).Return(listed, nil)
	m.keys.On("UpdateListing", ctx, "bob", ref, uint64(800)).Return(listed, nil)
	m.keys.On("CancelListing", ctx, "bob", ref).Return(&models.UnlockKey{QuestionIndex: 2, Owner: "bob"}, nil)

	resp, err := h.ListKey(ctx, &PriceKeyRequest{QuestionIndex: 2, Price: 700})
	require.NoError(t, err)
	assert.True(t, resp.IsListed)

	_, err = h.UpdateListing(ctx, &PriceKeyRequest{QuestionIndex: 2, Price: 800})
	require.NoError(t, err)

	resp, err = h.CancelListing(ctx, &KeyRequest{QuestionIndex: 2})
	require.NoError(t, err)
	assert.False(t, resp.IsListed)
	m.keys.AssertExpectations(t)
}

func TestMarketplaceHandler_BuyListedKey(t *testing.T) {
	h, m := newTestHandler()
	ctx := asCaller("carol")
	m.settlement.On("BuyListed", ctx, service.BuyListedInput{
		Buyer: "carol",
		Key:   service.KeyRef{QuestionIndex: 1, TokenID: 4},
	}).Return(nil, errs.ErrCannotBuyOwnKey)

	_, err := h.BuyListedKey(ctx, &BuyListedKeyRequest{QuestionIndex: 1, TokenID: 4})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestMarketplaceHandler_Admin(t *testing.T) {
	h, m := newTestHandler()
	ctx := asCaller("admin")
	market := &models.Marketplace{Authority: "admin", Treasury: "vault", FeeToken: "USDC", PlatformFeeBps: 250, TotalVolume: 1_500_000}
	market.PausedOperations[models.OperationMintKey] = true

	m.marketplace.On("ToggleOperation", ctx, "admin", models.OperationMintKey).Return(market, nil)
	m.marketplace.On("UpdateFees", ctx, "admin", uint16(1001), uint16(0)).Return(nil, errs.ErrFeeTooHigh)
	m.marketplace.On("BlacklistUser", ctx, "admin", "mallory").Return(&models.UserState{Identity: "mallory", IsBlacklisted: true}, nil)

	resp, err := h.ToggleOperation(ctx, &ToggleOperationRequest{Operation: "mint_key"})
	require.NoError(t, err)
	assert.Equal(t, []string{"mint_key"}, resp.PausedOperations)
	assert.Equal(t, "2.5%", resp.PlatformFee)
	assert.Equal(t, "1.5", resp.TotalVolumeTokens)

	_, err = h.ToggleOperation(ctx, &ToggleOperationRequest{Operation: "burn"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = h.UpdateFees(ctx, &UpdateFeesRequest{PlatformFeeBps: 1001})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	user, err := h.BlacklistUser(ctx, &IdentityRequest{Identity: "mallory"})
	require.NoError(t, err)
	assert.True(t, user.IsBlacklisted)
	m.marketplace.AssertExpectations(t)
}

func TestMarketplaceService_OverGRPC(t *testing.T) {
	h, m := newTestHandler()
	validator, err := auth.NewJWTTokenValidator("test-secret", "")
	require.NoError(t, err)
	token, err := validator.IssueToken("alice", time.Hour)
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer(grpc.UnaryInterceptor(auth.UnaryServerInterceptor(validator, PublicMethods...)))
	RegisterMarketplaceServer(server, h)
	go server.Serve(lis)
	defer server.Stop()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	)
	require.NoError(t, err)
	defer conn.Close()

	m.questions.On("GetQuestion", mock.Anything, uint64(7)).
		Return(&models.Question{Index: 7, Creator: "bob", Content: models.NewInlineContent("q", nil), UnlockPrice: 2_000_000}, nil)
	m.marketplace.On("InitializeUserState", mock.Anything, "alice").
		Return(&models.UserState{Identity: "alice"}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	t.Run("PublicRead", func(t *testing.T) {
		var resp QuestionResponse
		err := conn.Invoke(ctx, methodPath("GetQuestion"), &QuestionRequest{QuestionIndex: 7}, &resp)
		require.NoError(t, err)
		assert.Equal(t, uint64(7), resp.Index)
		assert.Equal(t, "2", resp.PriceTokens)
	})

	t.Run("RequiresToken", func(t *testing.T) {
		var resp UserStateResponse
		err := conn.Invoke(ctx, methodPath("InitializeUserState"), &Empty{}, &resp)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("Authenticated", func(t *testing.T) {
		authed := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
		var resp UserStateResponse
		err := conn.Invoke(authed, methodPath("InitializeUserState"), &Empty{}, &resp)
		require.NoError(t, err)
		assert.Equal(t, "alice", resp.Identity)
	})
}
