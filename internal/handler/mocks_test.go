package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/prodoxx/myqa-is/internal/models"
	"github.com/prodoxx/myqa-is/internal/service"
)

// MockMarketplaceService is a mock implementation of MarketplaceService
type MockMarketplaceService struct {
	mock.Mock
}

func (m *MockMarketplaceService) marketplace(args mock.Arguments) (*models.Marketplace, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Marketplace), args.Error(1)
}

func (m *MockMarketplaceService) userState(args mock.Arguments) (*models.UserState, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserState), args.Error(1)
}

func (m *MockMarketplaceService) Initialize(ctx context.Context, caller, treasury, feeToken string) (*models.Marketplace, error) {
	return m.marketplace(m.Called(ctx, caller, treasury, feeToken))
}

func (m *MockMarketplaceService) GetMarketplace(ctx context.Context) (*models.Marketplace, error) {
	return m.marketplace(m.Called(ctx))
}

func (m *MockMarketplaceService) InitializeUserState(ctx context.Context, identity string) (*models.UserState, error) {
	return m.userState(m.Called(ctx, identity))
}

func (m *MockMarketplaceService) GetUserState(ctx context.Context, identity string) (*models.UserState, error) {
	return m.userState(m.Called(ctx, identity))
}

func (m *MockMarketplaceService) UpdateFees(ctx context.Context, caller string, platformFeeBps, creatorRoyaltyBps uint16) (*models.Marketplace, error) {
	return m.marketplace(m.Called(ctx, caller, platformFeeBps, creatorRoyaltyBps))
}

func (m *MockMarketplaceService) UpdateTreasury(ctx context.Context, caller, treasury string) (*models.Marketplace, error) {
	return m.marketplace(m.Called(ctx, caller, treasury))
}

func (m *MockMarketplaceService) ToggleMarketplace(ctx context.Context, caller string) (*models.Marketplace, error) {
	return m.marketplace(m.Called(ctx, caller))
}

func (m *MockMarketplaceService) ToggleOperation(ctx context.Context, caller string, op models.OperationKind) (*models.Marketplace, error) {
	return m.marketplace(m.Called(ctx, caller, op))
}

func (m *MockMarketplaceService) BlacklistUser(ctx context.Context, caller, identity string) (*models.UserState, error) {
	return m.userState(m.Called(ctx, caller, identity))
}

func (m *MockMarketplaceService) UnblacklistUser(ctx context.Context, caller, identity string) (*models.UserState, error) {
	return m.userState(m.Called(ctx, caller, identity))
}

func (m *MockMarketplaceService) TransferAuthority(ctx context.Context, caller, newAuthority string) (*models.Marketplace, error) {
	return m.marketplace(m.Called(ctx, caller, newAuthority))
}

func (m *MockMarketplaceService) DeactivateQuestion(ctx context.Context, caller string, questionIndex uint64) (*models.Question, error) {
	args := m.Called(ctx, caller, questionIndex)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Question), args.Error(1)
}

// MockQuestionService is a mock implementation of QuestionService
type MockQuestionService struct {
	mock.Mock
}

func (m *MockQuestionService) CreateQuestion(ctx context.Context, input service.CreateQuestionInput) (*models.Question, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Question), args.Error(1)
}

func (m *MockQuestionService) GetQuestion(ctx context.Context, index uint64) (*models.Question, error) {
	args := m.Called(ctx, index)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Question), args.Error(1)
}

func (m *MockQuestionService) ListQuestionsByCreator(ctx context.Context, creator string, limit int) ([]*models.Question, error) {
	args := m.Called(ctx, creator, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Question), args.Error(1)
}

func (m *MockQuestionService) ListQuestionEvents(ctx context.Context, index uint64, limit int) ([]*models.Event, error) {
	args := m.Called(ctx, index, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Event), args.Error(1)
}

// MockUnlockKeyService is a mock implementation of UnlockKeyService
type MockUnlockKeyService struct {
	mock.Mock
}

func (m *MockUnlockKeyService) key(args mock.Arguments) (*models.UnlockKey, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UnlockKey), args.Error(1)
}

func (m *MockUnlockKeyService) ListKey(ctx context.Context, owner string, ref service.KeyRef, price uint64) (*models.UnlockKey, error) {
	return m.key(m.Called(ctx, owner, ref, price))
}

func (m *MockUnlockKeyService) UpdateListing(ctx context.Context, owner string, ref service.KeyRef, newPrice uint64) (*models.UnlockKey, error) {
	return m.key(m.Called(ctx, owner, ref, newPrice))
}

func (m *MockUnlockKeyService) CancelListing(ctx context.Context, owner string, ref service.KeyRef) (*models.UnlockKey, error) {
	return m.key(m.Called(ctx, owner, ref))
}

func (m *MockUnlockKeyService) GetUnlockKey(ctx context.Context, ref service.KeyRef) (*models.UnlockKey, error) {
	return m.key(m.Called(ctx, ref))
}

func (m *MockUnlockKeyService) ListKeysByOwner(ctx context.Context, owner string) ([]*models.UnlockKey, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UnlockKey), args.Error(1)
}

// MockSettlementService is a mock implementation of SettlementService
type MockSettlementService struct {
	mock.Mock
}

func (m *MockSettlementService) Mint(ctx context.Context, input service.MintInput) (*models.UnlockKey, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UnlockKey), args.Error(1)
}

func (m *MockSettlementService) BuyListed(ctx context.Context, input service.BuyListedInput) (*models.UnlockKey, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UnlockKey), args.Error(1)
}
