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

// KeyRef addresses an unlock key.
type KeyRef struct {
	QuestionIndex uint64
	TokenID       uint64
}

// UnlockKeyService manages secondary-market listings. Ownership never
// changes here; only SettlementService.BuyListed moves a key.
type UnlockKeyService interface {
	ListKey(ctx context.Context, owner string, ref KeyRef, price uint64) (*models.UnlockKey, error)
	UpdateListing(ctx context.Context, owner string, ref KeyRef, newPrice uint64) (*models.UnlockKey, error)
	CancelListing(ctx context.Context, owner string, ref KeyRef) (*models.UnlockKey, error)
	GetUnlockKey(ctx context.Context, ref KeyRef) (*models.UnlockKey, error)
	ListKeysByOwner(ctx context.Context, owner string) ([]*models.UnlockKey, error)
}

type unlockKeyService struct {
	deps Deps
	gate AntiAbuseGate
}

func NewUnlockKeyService(deps Deps, gate AntiAbuseGate) UnlockKeyService {
	return &unlockKeyService{deps: deps.withDefaults(), gate: gate}
}

func (s *unlockKeyService) ListKey(ctx context.Context, owner string, ref KeyRef, price uint64) (*models.UnlockKey, error) {
	var key *models.UnlockKey
	err := runTx(ctx, s.deps, func(ctx context.Context, repos repository.Repositories, events *eventLog) error {
		m, user, err := loadActor(ctx, repos, owner)
		if err != nil {
			return err
		}
		now := s.deps.Clock.Now()
		if err := s.gate.Check(m, models.OperationListKey, user, now); err != nil {
			return err
		}
		if price == 0 {
			return errs.ErrInvalidPrice
		}

		key, err = loadUnlockKey(ctx, repos, ref.QuestionIndex, ref.TokenID)
		if err != nil {
			return err
		}
		if key.Owner != owner {
			return errs.ErrNotKeyOwner
		}
		if key.IsListed {
			return errs.ErrAlreadyListed
		}

		key.IsListed = true
		key.ListPrice = price
		key.ListTime = &now
		key.UpdatedAt = now
		if err := repos.UnlockKeys.Update(ctx, key); err != nil {
			return err
		}
		return recordKeyEvent(events, models.EventKeyListed, owner, key, models.KeyListedPayload{Seller: owner, Price: price}, now)
	})
	if err != nil {
		observeRejection(s.deps, models.OperationListKey.String(), owner, err)
		return nil, err
	}

	s.logKey(key, "key listed")
	return key, nil
}

func (s *unlockKeyService) UpdateListing(ctx context.Context, owner string, ref KeyRef, newPrice uint64) (*models.UnlockKey, error) {
	var key *models.UnlockKey
	err := runTx(ctx, s.deps, func(ctx context.Context, repos repository.Repositories, events *eventLog) error {
		m, user, err := loadActor(ctx, repos, owner)
		if err != nil {
			return err
		}
		now := s.deps.Clock.Now()
		if err := s.gate.Check(m, models.OperationListKey, user, now); err != nil {
			return err
		}
		if newPrice == 0 {
			return errs.ErrInvalidPrice
		}

		key, err = loadUnlockKey(ctx, repos, ref.QuestionIndex, ref.TokenID)
		if err != nil {
			return err
		}
		if key.Owner != owner {
			return errs.ErrNotKeyOwner
		}
		if !key.IsListed {
			return errs.ErrNotListed
		}

		oldPrice := key.ListPrice
		key.ListPrice = newPrice
		key.UpdatedAt = now
		if err := repos.UnlockKeys.Update(ctx, key); err != nil {
			return err
		}
		return recordKeyEvent(events, models.EventListingUpdated, owner, key, models.ListingUpdatedPayload{
			Seller:   owner,
			OldPrice: oldPrice,
			NewPrice: newPrice,
		}, now)
	})
	if err != nil {
		observeRejection(s.deps, models.OperationListKey.String(), owner, err)
		return nil, err
	}

	s.logKey(key, "listing updated")
	return key, nil
}

func (s *unlockKeyService) CancelListing(ctx context.Context, owner string, ref KeyRef) (*models.UnlockKey, error) {
	var key *models.UnlockKey
	err := runTx(ctx, s.deps, func(ctx context.Context, repos repository.Repositories, events *eventLog) error {
		m, user, err := loadActor(ctx, repos, owner)
		if err != nil {
			return err
		}
		if err := s.gate.CheckGlobal(m, user); err != nil {
			return err
		}

		key, err = loadUnlockKey(ctx, repos, ref.QuestionIndex, ref.TokenID)
		if err != nil {
			return err
		}
		if key.Owner != owner {
			return errs.ErrNotKeyOwner
		}
		if !key.IsListed {
			return errs.ErrNotListed
		}

		now := s.deps.Clock.Now()
		key.IsListed = false
		key.ListPrice = 0
		key.ListTime = nil
		key.UpdatedAt = now
		if err := repos.UnlockKeys.Update(ctx, key); err != nil {
			return err
		}
		return recordKeyEvent(events, models.EventListingCancelled, owner, key, models.ListingCancelledPayload{Seller: owner}, now)
	})
	if err != nil {
		observeRejection(s.deps, "cancel_listing", owner, err)
		return nil, err
	}

	s.logKey(key, "listing cancelled")
	return key, nil
}

// GetUnlockKey returns the key only while its registered key token agrees
// on the owner.
func (s *unlockKeyService) GetUnlockKey(ctx context.Context, ref KeyRef) (*models.UnlockKey, error) {
	repos := s.deps.Store.Repositories()
	key, err := loadUnlockKey(ctx, repos, ref.QuestionIndex, ref.TokenID)
	if err != nil {
		return nil, err
	}
	owner, err := repos.KeyTokens.OwnerOf(ctx, ref.QuestionIndex, ref.TokenID)
	if err != nil {
		return nil, err
	}
	if owner != key.Owner {
		s.deps.Logger.WithFields(logrus.Fields{
			"question_index": ref.QuestionIndex,
			"token_id":       ref.TokenID,
			"owner":          key.Owner,
			"token_owner":    owner,
		}).Error("key token owner mismatch")
		return nil, fmt.Errorf("key token %d/%d owned by %q: %w", ref.QuestionIndex, ref.TokenID, owner, errs.ErrRegistrationFailed)
	}
	return key, nil
}

func (s *unlockKeyService) ListKeysByOwner(ctx context.Context, owner string) ([]*models.UnlockKey, error) {
	return s.deps.Store.Repositories().UnlockKeys.ListByOwner(ctx, owner)
}

func (s *unlockKeyService) logKey(key *models.UnlockKey, msg string) {
	s.deps.Logger.WithFields(logrus.Fields{
		"question_index": key.QuestionIndex,
		"token_id":       key.TokenID,
		"owner":          key.Owner,
		"list_price":     key.ListPrice,
	}).Info(msg)
}

// loadActor reads the marketplace and the caller's state. A caller without
// state is treated as a fresh, non-blacklisted identity.
func loadActor(ctx context.Context, repos repository.Repositories, identity string) (*models.Marketplace, *models.UserState, error) {
	if identity == "" {
		return nil, nil, errs.ErrInvalidIdentity
	}
	m, err := loadMarketplace(ctx, repos)
	if err != nil {
		return nil, nil, err
	}
	user, err := repos.UserStates.Get(ctx, identity)
	if err != nil {
		return nil, nil, err
	}
	return m, user, nil
}

func recordKeyEvent(events *eventLog, eventType, actor string, key *models.UnlockKey, payload any, at time.Time) error {
	event, err := models.NewEvent(eventType, actor, payload, at)
	if err != nil {
		return err
	}
	return events.record(event.ForKey(key.QuestionIndex, key.TokenID), nil)
}
