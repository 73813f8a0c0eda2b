package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodoxx/myqa-is/internal/errs"
	"github.com/prodoxx/myqa-is/internal/models"
)

func TestLedgerRepository_Balance(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLedgerRepository(db, false)
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		mock.ExpectQuery("SELECT balance FROM token_balances").
			WithArgs("alice", "USDC").
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("18446744073709551615"))

		balance, err := repo.Balance(ctx, "alice", "USDC")
		require.NoError(t, err)
		assert.Equal(t, uint64(18446744073709551615), balance)
	})

	t.Run("NoRowMeansZero", func(t *testing.T) {
		mock.ExpectQuery("SELECT balance FROM token_balances").
			WithArgs("bob", "USDC").
			WillReturnError(sql.ErrNoRows)

		balance, err := repo.Balance(ctx, "bob", "USDC")
		require.NoError(t, err)
		assert.Zero(t, balance)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_Transfer(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	transfer := models.Transfer{From: "alice", To: "treasury", AuthorizedBy: "alice", Token: "USDC", Amount: 50, At: at}

	tests := []struct {
		name      string
		transfer  models.Transfer
		setupMock func(mock sqlmock.Sqlmock)
		expectErr error
	}{
		{
			name:     "Success",
			transfer: transfer,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE token_balances SET balance = balance - \\?").
					WithArgs("50", at, "alice", "USDC", "50").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec("INSERT INTO token_balances").
					WithArgs("treasury", "USDC", "50", at).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name:     "InsufficientFunds",
			transfer: transfer,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE token_balances SET balance = balance - \\?").
					WithArgs("50", at, "alice", "USDC", "50").
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			expectErr: errs.ErrInsufficientFunds,
		},
		{
			name:     "CreditFails",
			transfer: transfer,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE token_balances").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec("INSERT INTO token_balances").
					WillReturnError(errors.New("deadlock"))
			},
			expectErr: errs.ErrTransferFailed,
		},
		{
			name:      "UnauthorizedSigner",
			transfer:  models.Transfer{From: "alice", To: "bob", AuthorizedBy: "bob", Token: "USDC", Amount: 1},
			setupMock: func(mock sqlmock.Sqlmock) {},
			expectErr: errs.ErrTransferFailed,
		},
		{
			name:      "ZeroAmountIsNoop",
			transfer:  models.Transfer{From: "alice", To: "bob", AuthorizedBy: "alice", Token: "USDC"},
			setupMock: func(mock sqlmock.Sqlmock) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.setupMock(mock)

			err = NewLedgerRepository(db, false).Transfer(context.Background(), tt.transfer)
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
			} else {
				assert.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
