package service

import (
	"fmt"
	"time"

	"github.com/prodoxx/myqa-is/internal/errs"
	"github.com/prodoxx/myqa-is/internal/models"
)

// AntiAbuseGate decides whether a user-facing operation may proceed.
// It never mutates its inputs; callers record the operation on success.
type AntiAbuseGate interface {
	Check(marketplace *models.Marketplace, op models.OperationKind, user *models.UserState, now time.Time) error
	CheckGlobal(marketplace *models.Marketplace, user *models.UserState) error
}

type antiAbuseGate struct {
	policy Policy
}

func NewAntiAbuseGate(policy Policy) AntiAbuseGate {
	return &antiAbuseGate{policy: policy}
}

// Check applies, in order: global pause, per-operation pause, blacklist, and
// for question creation the cooldown and the per-user quota.
func (g *antiAbuseGate) Check(marketplace *models.Marketplace, op models.OperationKind, user *models.UserState, now time.Time) error {
	if marketplace.Paused {
		return errs.ErrMarketplacePaused
	}
	if marketplace.PausedOperations.IsPaused(op) {
		return fmt.Errorf("%s: %w", op, errs.ErrOperationPaused)
	}
	if user != nil && user.IsBlacklisted {
		return errs.ErrUserBlacklisted
	}

	if op != models.OperationCreateQuestion {
		return nil
	}
	if user == nil {
		return errs.ErrUserStateNotFound
	}
	if now.Sub(user.LastOperationTime) < g.policy.OperationCooldown {
		return errs.ErrRateLimitExceeded
	}
	if user.QuestionsCreated >= g.policy.MaxQuestionsPerUser {
		return errs.ErrTooManyQuestions
	}
	return nil
}

// CheckGlobal applies only the global pause and the blacklist.
func (g *antiAbuseGate) CheckGlobal(marketplace *models.Marketplace, user *models.UserState) error {
	if marketplace.Paused {
		return errs.ErrMarketplacePaused
	}
	if user != nil && user.IsBlacklisted {
		return errs.ErrUserBlacklisted
	}
	return nil
}
