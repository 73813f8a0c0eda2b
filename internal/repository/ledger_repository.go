package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/prodoxx/myqa-is/internal/errs"
	"github.com/prodoxx/myqa-is/internal/models"
)

// LedgerRepository moves fungible token balances between identities.
type LedgerRepository interface {
	Balance(ctx context.Context, owner, token string) (uint64, error)
	Transfer(ctx context.Context, t models.Transfer) error
}

type ledgerRepository struct {
	db   DBTX
	lock bool
}

func NewLedgerRepository(db DBTX, lock bool) LedgerRepository {
	return &ledgerRepository{db: db, lock: lock}
}

func (r *ledgerRepository) Balance(ctx context.Context, owner, token string) (uint64, error) {
	query := `
		SELECT balance
		FROM token_balances
		WHERE owner = ? AND token = ?` + lockClause(r.lock)

	var balance string
	err := r.db.QueryRowContext(ctx, query, owner, token).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to find balance: %w", err)
	}
	return parseAmount(balance)
}

// Transfer debits From only if the balance covers Amount, then credits To.
// Both rows are stamped with t.At.
func (r *ledgerRepository) Transfer(ctx context.Context, t models.Transfer) error {
	if t.Amount == 0 {
		return nil
	}
	if t.AuthorizedBy != t.From {
		return fmt.Errorf("transfer from %s authorized by %s: %w", t.From, t.AuthorizedBy, errs.ErrTransferFailed)
	}
	if t.To == "" {
		return fmt.Errorf("transfer without recipient: %w", errs.ErrTransferFailed)
	}

	amount := formatAmount(t.Amount)

	debit := `
		UPDATE token_balances
		SET balance = balance - ?, updated_at = ?
		WHERE owner = ? AND token = ? AND balance >= ?
	`
	result, err := r.db.ExecContext(ctx, debit, amount, t.At, t.From, t.Token, amount)
	if err != nil {
		return fmt.Errorf("failed to debit balance: %v: %w", err, errs.ErrTransferFailed)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return errs.ErrInsufficientFunds
	}

	credit := `
		INSERT INTO token_balances (owner, token, balance, updated_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE balance = balance + VALUES(balance), updated_at = VALUES(updated_at)
	`
	if _, err := r.db.ExecContext(ctx, credit, t.To, t.Token, amount, t.At); err != nil {
		return fmt.Errorf("failed to credit balance: %v: %w", err, errs.ErrTransferFailed)
	}
	return nil
}
