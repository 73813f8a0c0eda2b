package service

import (
	"context"
	"encoding/hex"

	"github.com/sirupsen/logrus"

	"github.com/prodoxx/myqa-is/internal/errs"
	"github.com/prodoxx/myqa-is/internal/models"
	"github.com/prodoxx/myqa-is/internal/repository"
)

// CreateQuestionInput is a creator's submission.
type CreateQuestionInput struct {
	Creator     string
	Content     models.ContentReference
	Claims      *ContentClaims
	UnlockPrice uint64
	MaxKeys     uint64
}

type QuestionService interface {
	CreateQuestion(ctx context.Context, input CreateQuestionInput) (*models.Question, error)
	GetQuestion(ctx context.Context, index uint64) (*models.Question, error)
	ListQuestionsByCreator(ctx context.Context, creator string, limit int) ([]*models.Question, error)
	ListQuestionEvents(ctx context.Context, index uint64, limit int) ([]*models.Event, error)
}

type questionService struct {
	deps      Deps
	gate      AntiAbuseGate
	integrity ContentIntegrityCheck
}

func NewQuestionService(deps Deps, gate AntiAbuseGate, integrity ContentIntegrityCheck) QuestionService {
	return &questionService{deps: deps.withDefaults(), gate: gate, integrity: integrity}
}

func (s *questionService) CreateQuestion(ctx context.Context, input CreateQuestionInput) (*models.Question, error) {
	if input.Creator == "" {
		return nil, errs.ErrInvalidIdentity
	}

	var q *models.Question
	err := runTx(ctx, s.deps, func(ctx context.Context, repos repository.Repositories, events *eventLog) error {
		m, err := loadMarketplace(ctx, repos)
		if err != nil {
			return err
		}
		now := s.deps.Clock.Now()
		user, err := loadOrCreateUserState(ctx, repos, input.Creator, now, s.deps.Policy)
		if err != nil {
			return err
		}

		if err := s.gate.Check(m, models.OperationCreateQuestion, user, now); err != nil {
			return err
		}
		if input.UnlockPrice == 0 {
			return errs.ErrInvalidPrice
		}
		if input.MaxKeys == 0 {
			return errs.ErrInvalidKeyCount
		}
		verified, err := s.integrity.Verify(input.Content, input.Claims)
		if err != nil {
			return err
		}
		if uint32(m.PlatformFeeBps)+uint32(m.CreatorRoyaltyBps) > uint32(s.deps.Policy.MaxTotalFeeBps) {
			return errs.ErrTotalFeeTooHigh
		}

		nextCounter, err := checkedAdd(m.QuestionCounter, 1)
		if err != nil {
			return err
		}
		questionsCreated, err := checkedAdd(user.QuestionsCreated, 1)
		if err != nil {
			return err
		}

		content := input.Content
		if content.Kind == models.ContentKindInline {
			inline := *content.Inline
			inline.AnswerHash = verified.AnswerHash
			content.Inline = &inline
		}
		q = &models.Question{
			Index:        m.QuestionCounter,
			Creator:      input.Creator,
			Content:      content,
			ContentHash:  verified.ContentHash,
			UnlockPrice:  input.UnlockPrice,
			MaxKeys:      input.MaxKeys,
			IsActive:     true,
			CreationTime: now,
			ValidatedAt:  now,
			UpdatedAt:    now,
		}
		if err := repos.Questions.Create(ctx, q); err != nil {
			return err
		}

		m.QuestionCounter = nextCounter
		m.UpdatedAt = now
		if err := repos.Marketplaces.Update(ctx, m); err != nil {
			return err
		}

		user.QuestionsCreated = questionsCreated
		user.LastOperationTime = now
		user.UpdatedAt = now
		if err := repos.UserStates.Update(ctx, user); err != nil {
			return err
		}

		event, err := models.NewEvent(models.EventQuestionCreated, input.Creator, models.QuestionCreatedPayload{
			Creator:     input.Creator,
			ContentKind: content.Kind.String(),
			ContentHash: hex.EncodeToString(q.ContentHash[:]),
			UnlockPrice: q.UnlockPrice,
			MaxKeys:     q.MaxKeys,
		}, now)
		if err != nil {
			return err
		}
		return events.record(event.ForQuestion(q.Index), nil)
	})
	if err != nil {
		observeRejection(s.deps, models.OperationCreateQuestion.String(), input.Creator, err)
		return nil, err
	}

	s.deps.Logger.WithFields(logrus.Fields{
		"question_index": q.Index,
		"creator":        q.Creator,
		"unlock_price":   q.UnlockPrice,
		"max_keys":       q.MaxKeys,
	}).Info("question created")
	return q, nil
}

func (s *questionService) GetQuestion(ctx context.Context, index uint64) (*models.Question, error) {
	return loadQuestion(ctx, s.deps.Store.Repositories(), index)
}

func (s *questionService) ListQuestionsByCreator(ctx context.Context, creator string, limit int) ([]*models.Question, error) {
	return s.deps.Store.Repositories().Questions.ListByCreator(ctx, creator, clampLimit(limit))
}

func (s *questionService) ListQuestionEvents(ctx context.Context, index uint64, limit int) ([]*models.Event, error) {
	repos := s.deps.Store.Repositories()
	if _, err := loadQuestion(ctx, repos, index); err != nil {
		return nil, err
	}
	return repos.Events.ListByQuestion(ctx, index, clampLimit(limit))
}

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
