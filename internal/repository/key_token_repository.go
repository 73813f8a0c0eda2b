package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/prodoxx/myqa-is/internal/errs"
	"github.com/prodoxx/myqa-is/internal/models"
)

// KeyTokenRepository registers minted keys as named tokens and indexes their owners.
type KeyTokenRepository interface {
	Register(ctx context.Context, reg models.KeyTokenRegistration) error
	TransferOwnership(ctx context.Context, questionIndex, tokenID uint64, newOwner string, at time.Time) error
	OwnerOf(ctx context.Context, questionIndex, tokenID uint64) (string, error)
}

type keyTokenRepository struct {
	db DBTX
}

func NewKeyTokenRepository(db DBTX) KeyTokenRepository {
	return &keyTokenRepository{db: db}
}

func (r *keyTokenRepository) Register(ctx context.Context, reg models.KeyTokenRegistration) error {
	if reg.Owner == "" || reg.MintAuthority == "" {
		return fmt.Errorf("owner and mint authority required: %w", errs.ErrRegistrationFailed)
	}

	query := `
		INSERT INTO key_tokens (question_index, token_id, owner, mint_authority, name, symbol, uri, registered_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		reg.QuestionIndex, reg.TokenID, reg.Owner, reg.MintAuthority, reg.Name, reg.Symbol, reg.URI,
		reg.RegisteredAt, reg.RegisteredAt)
	if err != nil {
		return fmt.Errorf("failed to register key token: %v: %w", err, errs.ErrRegistrationFailed)
	}
	return nil
}

func (r *keyTokenRepository) TransferOwnership(ctx context.Context, questionIndex, tokenID uint64, newOwner string, at time.Time) error {
	query := `
		UPDATE key_tokens
		SET owner = ?, updated_at = ?
		WHERE question_index = ? AND token_id = ?
	`
	result, err := r.db.ExecContext(ctx, query, newOwner, at, questionIndex, tokenID)
	if err != nil {
		return fmt.Errorf("failed to transfer key token: %v: %w", err, errs.ErrRegistrationFailed)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("key token %d/%d not registered: %w", questionIndex, tokenID, errs.ErrRegistrationFailed)
	}
	return nil
}

func (r *keyTokenRepository) OwnerOf(ctx context.Context, questionIndex, tokenID uint64) (string, error) {
	query := `SELECT owner FROM key_tokens WHERE question_index = ? AND token_id = ?`

	var owner string
	err := r.db.QueryRowContext(ctx, query, questionIndex, tokenID).Scan(&owner)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to find key token owner: %w", err)
	}
	return owner, nil
}
