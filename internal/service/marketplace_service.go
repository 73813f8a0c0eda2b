package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/prodoxx/myqa-is/internal/errs"
	"github.com/prodoxx/myqa-is/internal/models"
	"github.com/prodoxx/myqa-is/internal/repository"
)

// MarketplaceService covers the administrative surface. Every mutating
// call except Initialize and InitializeUserState requires the caller to be
// the current authority.
type MarketplaceService interface {
	Initialize(ctx context.Context, caller, treasury, feeToken string) (*models.Marketplace, error)
	GetMarketplace(ctx context.Context) (*models.Marketplace, error)
	InitializeUserState(ctx context.Context, identity string) (*models.UserState, error)
	GetUserState(ctx context.Context, identity string) (*models.UserState, error)
	UpdateFees(ctx context.Context, caller string, platformFeeBps, creatorRoyaltyBps uint16) (*models.Marketplace, error)
	UpdateTreasury(ctx context.Context, caller, treasury string) (*models.Marketplace, error)
	ToggleMarketplace(ctx context.Context, caller string) (*models.Marketplace, error)
	ToggleOperation(ctx context.Context, caller string, op models.OperationKind) (*models.Marketplace, error)
	BlacklistUser(ctx context.Context, caller, identity string) (*models.UserState, error)
	UnblacklistUser(ctx context.Context, caller, identity string) (*models.UserState, error)
	TransferAuthority(ctx context.Context, caller, newAuthority string) (*models.Marketplace, error)
	DeactivateQuestion(ctx context.Context, caller string, questionIndex uint64) (*models.Question, error)
}

type marketplaceService struct {
	deps Deps
}

func NewMarketplaceService(deps Deps) MarketplaceService {
	return &marketplaceService{deps: deps.withDefaults()}
}

func (s *marketplaceService) Initialize(ctx context.Context, caller, treasury, feeToken string) (*models.Marketplace, error) {
	if caller == "" || feeToken == "" {
		return nil, errs.ErrInvalidIdentity
	}

	var created *models.Marketplace
	err := runTx(ctx, s.deps, func(ctx context.Context, repos repository.Repositories, events *eventLog) error {
		existing, err := repos.Marketplaces.Get(ctx)
		if err != nil {
			return err
		}
		if existing != nil {
			return errs.ErrAlreadyInitialized
		}

		now := s.deps.Clock.Now()
		m := &models.Marketplace{
			Authority:         caller,
			Treasury:          treasury,
			FeeToken:          feeToken,
			PlatformFeeBps:    s.deps.Policy.InitialPlatformFeeBps,
			CreatorRoyaltyBps: s.deps.Policy.InitialCreatorRoyaltyBps,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := repos.Marketplaces.Create(ctx, m); err != nil {
			return err
		}
		created = m

		return events.record(models.NewEvent(models.EventMarketplaceInitialized, caller, models.MarketplaceInitializedPayload{
			Authority:         m.Authority,
			Treasury:          m.Treasury,
			FeeToken:          m.FeeToken,
			PlatformFeeBps:    m.PlatformFeeBps,
			CreatorRoyaltyBps: m.CreatorRoyaltyBps,
		}, now))
	})
	if err != nil {
		return nil, err
	}

	s.deps.Logger.WithFields(logrus.Fields{
		"authority": created.Authority,
		"fee_token": created.FeeToken,
	}).Info("marketplace initialized")
	return created, nil
}

func (s *marketplaceService) GetMarketplace(ctx context.Context) (*models.Marketplace, error) {
	return loadMarketplace(ctx, s.deps.Store.Repositories())
}

func (s *marketplaceService) InitializeUserState(ctx context.Context, identity string) (*models.UserState, error) {
	if identity == "" {
		return nil, errs.ErrInvalidIdentity
	}

	var us *models.UserState
	err := runTx(ctx, s.deps, func(ctx context.Context, repos repository.Repositories, events *eventLog) error {
		existing, err := repos.UserStates.Get(ctx, identity)
		if err != nil {
			return err
		}
		if existing != nil {
			return errs.ErrAlreadyInitialized
		}
		now := s.deps.Clock.Now()
		us = models.NewUserState(identity, now, s.deps.Policy.InitialCooldownCredit)
		if err := repos.UserStates.Create(ctx, us); err != nil {
			return err
		}
		return events.record(models.NewEvent(models.EventUserInitialized, identity, models.UserPayload{User: identity}, now))
	})
	if err != nil {
		return nil, err
	}
	return us, nil
}

func (s *marketplaceService) GetUserState(ctx context.Context, identity string) (*models.UserState, error) {
	us, err := s.deps.Store.Repositories().UserStates.Get(ctx, identity)
	if err != nil {
		return nil, err
	}
	if us == nil {
		return nil, errs.ErrUserStateNotFound
	}
	return us, nil
}

func (s *marketplaceService) UpdateFees(ctx context.Context, caller string, platformFeeBps, creatorRoyaltyBps uint16) (*models.Marketplace, error) {
	if platformFeeBps > s.deps.Policy.MaxFeeBps || creatorRoyaltyBps > s.deps.Policy.MaxFeeBps {
		return nil, errs.ErrFeeTooHigh
	}

	return s.mutateMarketplace(ctx, caller, func(m *models.Marketplace) (*models.Event, error) {
		payload := models.FeesUpdatedPayload{
			OldPlatformFeeBps:    m.PlatformFeeBps,
			NewPlatformFeeBps:    platformFeeBps,
			OldCreatorRoyaltyBps: m.CreatorRoyaltyBps,
			NewCreatorRoyaltyBps: creatorRoyaltyBps,
		}
		m.PlatformFeeBps = platformFeeBps
		m.CreatorRoyaltyBps = creatorRoyaltyBps
		return models.NewEvent(models.EventFeesUpdated, caller, payload, m.UpdatedAt)
	})
}

func (s *marketplaceService) UpdateTreasury(ctx context.Context, caller, treasury string) (*models.Marketplace, error) {
	if treasury == "" {
		return nil, errs.ErrInvalidIdentity
	}

	return s.mutateMarketplace(ctx, caller, func(m *models.Marketplace) (*models.Event, error) {
		payload := models.TreasuryUpdatedPayload{OldTreasury: m.Treasury, NewTreasury: treasury}
		m.Treasury = treasury
		return models.NewEvent(models.EventTreasuryUpdated, caller, payload, m.UpdatedAt)
	})
}

func (s *marketplaceService) ToggleMarketplace(ctx context.Context, caller string) (*models.Marketplace, error) {
	return s.mutateMarketplace(ctx, caller, func(m *models.Marketplace) (*models.Event, error) {
		m.Paused = !m.Paused
		return models.NewEvent(models.EventMarketplaceToggled, caller, models.MarketplaceToggledPayload{Paused: m.Paused}, m.UpdatedAt)
	})
}

func (s *marketplaceService) ToggleOperation(ctx context.Context, caller string, op models.OperationKind) (*models.Marketplace, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("%s: %w", op, errs.ErrInvalidOperation)
	}

	return s.mutateMarketplace(ctx, caller, func(m *models.Marketplace) (*models.Event, error) {
		m.PausedOperations[op] = !m.PausedOperations[op]
		return models.NewEvent(models.EventOperationToggled, caller, models.OperationToggledPayload{
			Operation: op.String(),
			Paused:    m.PausedOperations[op],
		}, m.UpdatedAt)
	})
}

func (s *marketplaceService) TransferAuthority(ctx context.Context, caller, newAuthority string) (*models.Marketplace, error) {
	if newAuthority == "" {
		return nil, errs.ErrInvalidIdentity
	}

	return s.mutateMarketplace(ctx, caller, func(m *models.Marketplace) (*models.Event, error) {
		payload := models.AuthorityTransferredPayload{OldAuthority: m.Authority, NewAuthority: newAuthority}
		m.Authority = newAuthority
		return models.NewEvent(models.EventAuthorityTransferred, caller, payload, m.UpdatedAt)
	})
}

func (s *marketplaceService) BlacklistUser(ctx context.Context, caller, identity string) (*models.UserState, error) {
	return s.setBlacklisted(ctx, caller, identity, true)
}

func (s *marketplaceService) UnblacklistUser(ctx context.Context, caller, identity string) (*models.UserState, error) {
	return s.setBlacklisted(ctx, caller, identity, false)
}

func (s *marketplaceService) setBlacklisted(ctx context.Context, caller, identity string, blacklisted bool) (*models.UserState, error) {
	if identity == "" {
		return nil, errs.ErrInvalidIdentity
	}

	eventType := models.EventUserUnblacklisted
	if blacklisted {
		eventType = models.EventUserBlacklisted
	}

	var us *models.UserState
	err := runTx(ctx, s.deps, func(ctx context.Context, repos repository.Repositories, events *eventLog) error {
		m, err := loadMarketplace(ctx, repos)
		if err != nil {
			return err
		}
		if err := requireAuthority(m, caller); err != nil {
			return err
		}

		now := s.deps.Clock.Now()
		us, err = loadOrCreateUserState(ctx, repos, identity, now, s.deps.Policy)
		if err != nil {
			return err
		}
		us.IsBlacklisted = blacklisted
		us.UpdatedAt = now
		if err := repos.UserStates.Update(ctx, us); err != nil {
			return err
		}
		return events.record(models.NewEvent(eventType, caller, models.UserPayload{User: identity}, now))
	})
	if err != nil {
		return nil, err
	}

	s.deps.Logger.WithFields(logrus.Fields{
		"user":        identity,
		"blacklisted": blacklisted,
	}).Info("user blacklist updated")
	return us, nil
}

func (s *marketplaceService) DeactivateQuestion(ctx context.Context, caller string, questionIndex uint64) (*models.Question, error) {
	var q *models.Question
	err := runTx(ctx, s.deps, func(ctx context.Context, repos repository.Repositories, events *eventLog) error {
		m, err := loadMarketplace(ctx, repos)
		if err != nil {
			return err
		}
		if err := requireAuthority(m, caller); err != nil {
			return err
		}
		q, err = loadQuestion(ctx, repos, questionIndex)
		if err != nil {
			return err
		}
		if !q.IsActive {
			return errs.ErrQuestionInactive
		}

		now := s.deps.Clock.Now()
		q.IsActive = false
		q.UpdatedAt = now
		if err := repos.Questions.Update(ctx, q); err != nil {
			return err
		}
		event, err := models.NewEvent(models.EventQuestionDeactivated, caller, models.QuestionDeactivatedPayload{Creator: q.Creator}, now)
		if err != nil {
			return err
		}
		return events.record(event.ForQuestion(q.Index), nil)
	})
	if err != nil {
		return nil, err
	}

	s.deps.Logger.WithField("question_index", questionIndex).Info("question deactivated")
	return q, nil
}

// mutateMarketplace loads and locks the marketplace, checks the caller,
// applies change and persists the result together with its event.
func (s *marketplaceService) mutateMarketplace(ctx context.Context, caller string, change func(m *models.Marketplace) (*models.Event, error)) (*models.Marketplace, error) {
	var updated *models.Marketplace
	var eventType string
	err := runTx(ctx, s.deps, func(ctx context.Context, repos repository.Repositories, events *eventLog) error {
		m, err := loadMarketplace(ctx, repos)
		if err != nil {
			return err
		}
		if err := requireAuthority(m, caller); err != nil {
			return err
		}

		m.UpdatedAt = s.deps.Clock.Now()
		event, err := change(m)
		if err != nil {
			return err
		}
		if err := repos.Marketplaces.Update(ctx, m); err != nil {
			return err
		}
		updated = m
		eventType = event.Type
		return events.record(event, nil)
	})
	if err != nil {
		return nil, err
	}

	s.deps.Logger.WithFields(logrus.Fields{
		"caller": caller,
		"event":  eventType,
	}).Info("marketplace updated")
	return updated, nil
}

func loadMarketplace(ctx context.Context, repos repository.Repositories) (*models.Marketplace, error) {
	m, err := repos.Marketplaces.Get(ctx)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errs.ErrMarketplaceNotFound
	}
	return m, nil
}

func loadQuestion(ctx context.Context, repos repository.Repositories, index uint64) (*models.Question, error) {
	q, err := repos.Questions.Get(ctx, index)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, errs.ErrQuestionNotFound
	}
	return q, nil
}

func loadUnlockKey(ctx context.Context, repos repository.Repositories, questionIndex, tokenID uint64) (*models.UnlockKey, error) {
	k, err := repos.UnlockKeys.Get(ctx, questionIndex, tokenID)
	if err != nil {
		return nil, err
	}
	if k == nil {
		return nil, errs.ErrUnlockKeyNotFound
	}
	return k, nil
}

// loadOrCreateUserState returns the stored state for identity, creating it
// in the current transaction when it does not exist yet.
func loadOrCreateUserState(ctx context.Context, repos repository.Repositories, identity string, now time.Time, policy Policy) (*models.UserState, error) {
	us, err := repos.UserStates.Get(ctx, identity)
	if err != nil {
		return nil, err
	}
	if us != nil {
		return us, nil
	}
	us = models.NewUserState(identity, now, policy.InitialCooldownCredit)
	if err := repos.UserStates.Create(ctx, us); err != nil {
		return nil, err
	}
	return us, nil
}

func requireAuthority(m *models.Marketplace, caller string) error {
	if caller == "" || caller != m.Authority {
		return errs.ErrInvalidAuthority
	}
	return nil
}
