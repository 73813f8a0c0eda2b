package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/prodoxx/myqa-is/internal/models"
)

type UserStateRepository interface {
	Get(ctx context.Context, identity string) (*models.UserState, error)
	Create(ctx context.Context, us *models.UserState) error
	Update(ctx context.Context, us *models.UserState) error
}

type userStateRepository struct {
	db   DBTX
	lock bool
}

func NewUserStateRepository(db DBTX, lock bool) UserStateRepository {
	return &userStateRepository{db: db, lock: lock}
}

func (r *userStateRepository) Get(ctx context.Context, identity string) (*models.UserState, error) {
	query := `
		SELECT identity, questions_created, last_operation_time, is_blacklisted, created_at, updated_at
		FROM user_states
		WHERE identity = ?` + lockClause(r.lock)

	us := &models.UserState{}
	err := r.db.QueryRowContext(ctx, query, identity).Scan(
		&us.Identity, &us.QuestionsCreated, &us.LastOperationTime, &us.IsBlacklisted,
		&us.CreatedAt, &us.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user state: %w", err)
	}
	return us, nil
}

func (r *userStateRepository) Create(ctx context.Context, us *models.UserState) error {
	query := `
		INSERT INTO user_states (identity, questions_created, last_operation_time, is_blacklisted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		us.Identity, us.QuestionsCreated, us.LastOperationTime, us.IsBlacklisted, us.CreatedAt, us.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user state: %w", err)
	}
	return nil
}

func (r *userStateRepository) Update(ctx context.Context, us *models.UserState) error {
	query := `
		UPDATE user_states
		SET questions_created = ?, last_operation_time = ?, is_blacklisted = ?, updated_at = ?
		WHERE identity = ?
	`
	_, err := r.db.ExecContext(ctx, query,
		us.QuestionsCreated, us.LastOperationTime, us.IsBlacklisted, us.UpdatedAt, us.Identity)
	if err != nil {
		return fmt.Errorf("failed to update user state: %w", err)
	}
	return nil
}
