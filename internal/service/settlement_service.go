package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/prodoxx/myqa-is/internal/errs"
	"github.com/prodoxx/myqa-is/internal/models"
	"github.com/prodoxx/myqa-is/internal/repository"
	"github.com/prodoxx/myqa-is/pkg/helpers"
)

// MintInput buys a fresh key from a question's creator.
type MintInput struct {
	Buyer            string
	QuestionIndex    uint64
	MetadataURI      string
	EncryptedPayload []byte
}

// BuyListedInput buys a listed key from its current owner. The payload is
// the answer key re-encrypted for the buyer.
type BuyListedInput struct {
	Buyer            string
	Key              KeyRef
	EncryptedPayload []byte
}

// SettlementService runs the paid operations. Every check completes before
// the first transfer, and the whole operation shares one transaction.
type SettlementService interface {
	Mint(ctx context.Context, input MintInput) (*models.UnlockKey, error)
	BuyListed(ctx context.Context, input BuyListedInput) (*models.UnlockKey, error)
}

type settlementService struct {
	deps Deps
	gate AntiAbuseGate
}

func NewSettlementService(deps Deps, gate AntiAbuseGate) SettlementService {
	return &settlementService{deps: deps.withDefaults(), gate: gate}
}

func (s *settlementService) Mint(ctx context.Context, input MintInput) (*models.UnlockKey, error) {
	if input.Buyer == "" {
		return nil, errs.ErrInvalidIdentity
	}

	var (
		key   *models.UnlockKey
		split PrimarySplit
		price uint64
	)
	err := runTx(ctx, s.deps, func(ctx context.Context, repos repository.Repositories, events *eventLog) error {
		m, err := loadMarketplace(ctx, repos)
		if err != nil {
			return err
		}
		now := s.deps.Clock.Now()
		buyer, err := loadOrCreateUserState(ctx, repos, input.Buyer, now, s.deps.Policy)
		if err != nil {
			return err
		}
		if err := s.gate.Check(m, models.OperationMintKey, buyer, now); err != nil {
			return err
		}
		if err := s.validatePayload(input.EncryptedPayload); err != nil {
			return err
		}
		if err := s.validateMetadataURI(input.MetadataURI); err != nil {
			return err
		}

		q, err := loadQuestion(ctx, repos, input.QuestionIndex)
		if err != nil {
			return err
		}
		if !q.IsActive {
			return errs.ErrQuestionInactive
		}
		if !q.KeysAvailable() {
			return errs.ErrNoKeysAvailable
		}
		price = q.UnlockPrice

		if err := requireBalance(ctx, repos, input.Buyer, m.FeeToken, price); err != nil {
			return err
		}
		split, err = SplitPrimary(price, m.PlatformFeeBps)
		if err != nil {
			return err
		}
		tokenID := q.CurrentKeys
		currentKeys, err := checkedAdd(q.CurrentKeys, 1)
		if err != nil {
			return err
		}
		totalSales, err := checkedAdd(q.TotalSales, price)
		if err != nil {
			return err
		}
		totalVolume, err := checkedAdd(m.TotalVolume, price)
		if err != nil {
			return err
		}

		if err := repos.Ledger.Transfer(ctx, models.Transfer{
			From:         input.Buyer,
			To:           m.PayoutAccount(),
			AuthorizedBy: input.Buyer,
			Token:        m.FeeToken,
			Amount:       split.PlatformFee,
			At:           now,
		}); err != nil {
			return err
		}
		if err := repos.Ledger.Transfer(ctx, models.Transfer{
			From:         input.Buyer,
			To:           q.Creator,
			AuthorizedBy: input.Buyer,
			Token:        m.FeeToken,
			Amount:       split.CreatorPayment,
			At:           now,
		}); err != nil {
			return err
		}

		name := models.KeyTokenName(q.Index, tokenID)
		if err := repos.KeyTokens.Register(ctx, models.KeyTokenRegistration{
			QuestionIndex: q.Index,
			TokenID:       tokenID,
			Owner:         input.Buyer,
			MintAuthority: m.Authority,
			Name:          name,
			Symbol:        models.KeyTokenSymbol,
			URI:           input.MetadataURI,
			RegisteredAt:  now,
		}); err != nil {
			return err
		}

		key = &models.UnlockKey{
			QuestionIndex:    q.Index,
			TokenID:          tokenID,
			Owner:            input.Buyer,
			EncryptedPayload: input.EncryptedPayload,
			MetadataURI:      input.MetadataURI,
			MintTime:         now,
			UpdatedAt:        now,
		}
		if err := repos.UnlockKeys.Create(ctx, key); err != nil {
			return err
		}

		q.CurrentKeys = currentKeys
		q.TotalSales = totalSales
		q.UpdatedAt = now
		if err := repos.Questions.Update(ctx, q); err != nil {
			return err
		}
		m.TotalVolume = totalVolume
		m.UpdatedAt = now
		if err := repos.Marketplaces.Update(ctx, m); err != nil {
			return err
		}
		buyer.LastOperationTime = now
		buyer.UpdatedAt = now
		if err := repos.UserStates.Update(ctx, buyer); err != nil {
			return err
		}

		return recordKeyEvent(events, models.EventKeyMinted, input.Buyer, key, models.KeyMintedPayload{
			Buyer:       input.Buyer,
			Creator:     q.Creator,
			Price:       price,
			PlatformFee: split.PlatformFee,
			CreatorCut:  split.CreatorPayment,
			Name:        name,
			MetadataURI: input.MetadataURI,
		}, now)
	})
	if err != nil {
		observeRejection(s.deps, models.OperationMintKey.String(), input.Buyer, err)
		return nil, err
	}

	s.deps.Observer.ObserveSettlement(SettlementPrimary, price)
	s.deps.Logger.WithFields(logrus.Fields{
		"question_index": key.QuestionIndex,
		"token_id":       key.TokenID,
		"buyer":          key.Owner,
		"price":          price,
		"platform_fee":   split.PlatformFee,
	}).Info("unlock key minted")
	return key, nil
}

func (s *settlementService) BuyListed(ctx context.Context, input BuyListedInput) (*models.UnlockKey, error) {
	if input.Buyer == "" {
		return nil, errs.ErrInvalidIdentity
	}

	var (
		key    *models.UnlockKey
		split  ResaleSplit
		price  uint64
		seller string
	)
	err := runTx(ctx, s.deps, func(ctx context.Context, repos repository.Repositories, events *eventLog) error {
		m, err := loadMarketplace(ctx, repos)
		if err != nil {
			return err
		}
		now := s.deps.Clock.Now()
		buyer, err := loadOrCreateUserState(ctx, repos, input.Buyer, now, s.deps.Policy)
		if err != nil {
			return err
		}
		if err := s.gate.Check(m, models.OperationBuyKey, buyer, now); err != nil {
			return err
		}
		if err := s.validatePayload(input.EncryptedPayload); err != nil {
			return err
		}

		q, err := loadQuestion(ctx, repos, input.Key.QuestionIndex)
		if err != nil {
			return err
		}
		if !q.IsActive {
			return errs.ErrQuestionInactive
		}
		key, err = loadUnlockKey(ctx, repos, input.Key.QuestionIndex, input.Key.TokenID)
		if err != nil {
			return err
		}
		if !key.IsListed {
			return errs.ErrNotListed
		}
		if key.Owner == input.Buyer {
			return errs.ErrCannotBuyOwnKey
		}
		price = key.ListPrice
		seller = key.Owner

		if err := requireBalance(ctx, repos, input.Buyer, m.FeeToken, price); err != nil {
			return err
		}
		split, err = SplitResale(price, m.PlatformFeeBps, m.CreatorRoyaltyBps)
		if err != nil {
			return err
		}
		totalSales, err := checkedAdd(q.TotalSales, price)
		if err != nil {
			return err
		}
		totalVolume, err := checkedAdd(m.TotalVolume, price)
		if err != nil {
			return err
		}

		for _, t := range []models.Transfer{
			{From: input.Buyer, To: m.PayoutAccount(), AuthorizedBy: input.Buyer, Token: m.FeeToken, Amount: split.PlatformFee, At: now},
			{From: input.Buyer, To: q.Creator, AuthorizedBy: input.Buyer, Token: m.FeeToken, Amount: split.CreatorRoyalty, At: now},
			{From: input.Buyer, To: seller, AuthorizedBy: input.Buyer, Token: m.FeeToken, Amount: split.SellerPayment, At: now},
		} {
			if err := repos.Ledger.Transfer(ctx, t); err != nil {
				return err
			}
		}
		if err := repos.KeyTokens.TransferOwnership(ctx, key.QuestionIndex, key.TokenID, input.Buyer, now); err != nil {
			return err
		}

		key.Owner = input.Buyer
		key.EncryptedPayload = input.EncryptedPayload
		key.IsListed = false
		key.ListPrice = 0
		key.ListTime = nil
		key.LastSoldPrice = price
		key.LastSoldTime = &now
		key.UpdatedAt = now
		if err := repos.UnlockKeys.Update(ctx, key); err != nil {
			return err
		}

		q.TotalSales = totalSales
		q.UpdatedAt = now
		if err := repos.Questions.Update(ctx, q); err != nil {
			return err
		}
		m.TotalVolume = totalVolume
		m.UpdatedAt = now
		if err := repos.Marketplaces.Update(ctx, m); err != nil {
			return err
		}
		buyer.LastOperationTime = now
		buyer.UpdatedAt = now
		if err := repos.UserStates.Update(ctx, buyer); err != nil {
			return err
		}

		return recordKeyEvent(events, models.EventKeySold, input.Buyer, key, models.KeySoldPayload{
			Seller:         seller,
			Buyer:          input.Buyer,
			Price:          price,
			PlatformFee:    split.PlatformFee,
			CreatorRoyalty: split.CreatorRoyalty,
			SellerPayment:  split.SellerPayment,
		}, now)
	})
	if err != nil {
		observeRejection(s.deps, models.OperationBuyKey.String(), input.Buyer, err)
		return nil, err
	}

	s.deps.Observer.ObserveSettlement(SettlementResale, price)
	s.deps.Logger.WithFields(logrus.Fields{
		"question_index": key.QuestionIndex,
		"token_id":       key.TokenID,
		"seller":         seller,
		"buyer":          key.Owner,
		"price":          price,
	}).Info("listed key sold")
	return key, nil
}

func (s *settlementService) validatePayload(payload []byte) error {
	if len(payload) > s.deps.Policy.MaxEncryptedKeyLength {
		return errs.ErrInvalidKeyLength
	}
	return nil
}

func (s *settlementService) validateMetadataURI(uri string) error {
	if !helpers.IsASCII(uri) || len(uri) < s.deps.Policy.MinMetadataLength {
		return errs.ErrInvalidMetadataFormat
	}
	if len(uri) > s.deps.Policy.MaxURILength {
		return errs.ErrURITooLong
	}
	return nil
}

func requireBalance(ctx context.Context, repos repository.Repositories, owner, token string, amount uint64) error {
	balance, err := repos.Ledger.Balance(ctx, owner, token)
	if err != nil {
		return err
	}
	if balance < amount {
		return errs.ErrInsufficientFunds
	}
	return nil
}
