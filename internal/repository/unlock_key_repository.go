package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/prodoxx/myqa-is/internal/models"
)

type UnlockKeyRepository interface {
	Get(ctx context.Context, questionIndex, tokenID uint64) (*models.UnlockKey, error)
	Create(ctx context.Context, k *models.UnlockKey) error
	Update(ctx context.Context, k *models.UnlockKey) error
	ListByOwner(ctx context.Context, owner string) ([]*models.UnlockKey, error)
}

type unlockKeyRepository struct {
	db   DBTX
	lock bool
}

func NewUnlockKeyRepository(db DBTX, lock bool) UnlockKeyRepository {
	return &unlockKeyRepository{db: db, lock: lock}
}

const unlockKeyColumns = `
	question_index, token_id, owner, encrypted_payload, is_listed, list_price, list_time,
	metadata_uri, mint_time, last_sold_price, last_sold_time, updated_at`

func scanUnlockKey(row rowScanner) (*models.UnlockKey, error) {
	k := &models.UnlockKey{}
	var (
		listPrice, lastSoldPrice string
		listTime, lastSoldTime   sql.NullTime
	)

	if err := row.Scan(
		&k.QuestionIndex, &k.TokenID, &k.Owner, &k.EncryptedPayload, &k.IsListed, &listPrice, &listTime,
		&k.MetadataURI, &k.MintTime, &lastSoldPrice, &lastSoldTime, &k.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if k.ListPrice, err = parseAmount(listPrice); err != nil {
		return nil, err
	}
	if k.LastSoldPrice, err = parseAmount(lastSoldPrice); err != nil {
		return nil, err
	}
	if listTime.Valid {
		t := listTime.Time
		k.ListTime = &t
	}
	if lastSoldTime.Valid {
		t := lastSoldTime.Time
		k.LastSoldTime = &t
	}
	return k, nil
}

func (r *unlockKeyRepository) Get(ctx context.Context, questionIndex, tokenID uint64) (*models.UnlockKey, error) {
	query := `SELECT` + unlockKeyColumns + `
		FROM unlock_keys
		WHERE question_index = ? AND token_id = ?` + lockClause(r.lock)

	k, err := scanUnlockKey(r.db.QueryRowContext(ctx, query, questionIndex, tokenID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find unlock key: %w", err)
	}
	return k, nil
}

func (r *unlockKeyRepository) Create(ctx context.Context, k *models.UnlockKey) error {
	query := `
		INSERT INTO unlock_keys (` + unlockKeyColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		k.QuestionIndex, k.TokenID, k.Owner, k.EncryptedPayload, k.IsListed, formatAmount(k.ListPrice), nullTime(k.ListTime),
		k.MetadataURI, k.MintTime, formatAmount(k.LastSoldPrice), nullTime(k.LastSoldTime), k.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create unlock key: %w", err)
	}
	return nil
}

func (r *unlockKeyRepository) Update(ctx context.Context, k *models.UnlockKey) error {
	query := `
		UPDATE unlock_keys
		SET owner = ?, encrypted_payload = ?, is_listed = ?, list_price = ?, list_time = ?,
			last_sold_price = ?, last_sold_time = ?, updated_at = ?
		WHERE question_index = ? AND token_id = ?
	`
	_, err := r.db.ExecContext(ctx, query,
		k.Owner, k.EncryptedPayload, k.IsListed, formatAmount(k.ListPrice), nullTime(k.ListTime),
		formatAmount(k.LastSoldPrice), nullTime(k.LastSoldTime), k.UpdatedAt,
		k.QuestionIndex, k.TokenID)
	if err != nil {
		return fmt.Errorf("failed to update unlock key: %w", err)
	}
	return nil
}

func (r *unlockKeyRepository) ListByOwner(ctx context.Context, owner string) ([]*models.UnlockKey, error) {
	query := `SELECT` + unlockKeyColumns + `
		FROM unlock_keys
		WHERE owner = ?
		ORDER BY question_index, token_id`

	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list unlock keys: %w", err)
	}
	defer rows.Close()

	var keys []*models.UnlockKey
	for rows.Next() {
		k, err := scanUnlockKey(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan unlock key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate unlock keys: %w", err)
	}
	return keys, nil
}
