package db

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaGuard_ValidateTable(t *testing.T) {
	schema := TableSchema{
		Name: "token_balances",
		Columns: []ColumnType{
			{Name: "owner", DataType: "varchar"},
			{Name: "balance", DataType: "decimal"},
		},
	}

	tests := []struct {
		name      string
		rows      *sqlmock.Rows
		expectErr string
	}{
		{
			name: "matching schema",
			rows: sqlmock.NewRows([]string{"COLUMN_NAME", "DATA_TYPE", "IS_NULLABLE"}).
				AddRow("owner", "varchar", "NO").
				AddRow("token", "varchar", "NO").
				AddRow("balance", "decimal", "NO"),
		},
		{
			name: "missing column",
			rows: sqlmock.NewRows([]string{"COLUMN_NAME", "DATA_TYPE", "IS_NULLABLE"}).
				AddRow("owner", "varchar", "NO"),
			expectErr: "missing expected column: balance",
		},
		{
			name: "wrong type",
			rows: sqlmock.NewRows([]string{"COLUMN_NAME", "DATA_TYPE", "IS_NULLABLE"}).
				AddRow("owner", "varchar", "NO").
				AddRow("balance", "double", "NO"),
			expectErr: "has type double, expected decimal",
		},
		{
			name: "unexpected nullable",
			rows: sqlmock.NewRows([]string{"COLUMN_NAME", "DATA_TYPE", "IS_NULLABLE"}).
				AddRow("owner", "varchar", "YES").
				AddRow("balance", "decimal", "NO"),
			expectErr: "nullable=true",
		},
		{
			name:      "missing table",
			rows:      sqlmock.NewRows([]string{"COLUMN_NAME", "DATA_TYPE", "IS_NULLABLE"}),
			expectErr: "does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectQuery("SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE").
				WithArgs("token_balances").
				WillReturnRows(tt.rows)

			err = NewSchemaGuard(db).ValidateTable(context.Background(), schema)
			if tt.expectErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectErr)
			} else {
				assert.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMatchesDataType(t *testing.T) {
	assert.True(t, matchesDataType("varchar", "varchar"))
	assert.True(t, matchesDataType("VARCHAR(64)", "varchar"))
	assert.False(t, matchesDataType("varbinary", "var"))
	assert.False(t, matchesDataType("bigint", "int"))
}

func TestConfig_DSN(t *testing.T) {
	cfg := Config{Host: "db", Port: 3306, User: "app", Password: "secret", Database: "myqa"}
	dsn := cfg.DSN()
	assert.Contains(t, dsn, "app:secret@tcp(db:3306)/myqa")
	assert.Contains(t, dsn, "parseTime=true")
}
