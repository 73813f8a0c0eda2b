package repository

import "github.com/prodoxx/myqa-is/pkg/db"

// ExpectedSchemas lists the columns the repositories rely on, checked at startup.
func ExpectedSchemas() []db.TableSchema {
	return []db.TableSchema{
		{
			Name: "marketplaces",
			Columns: []db.ColumnType{
				{Name: "authority", DataType: "varchar"},
				{Name: "treasury", DataType: "varchar"},
				{Name: "fee_token", DataType: "varchar"},
				{Name: "platform_fee_bps", DataType: "smallint"},
				{Name: "creator_royalty_bps", DataType: "smallint"},
				{Name: "question_counter", DataType: "bigint"},
				{Name: "total_volume", DataType: "decimal"},
				{Name: "paused_operations", DataType: "tinyint"},
			},
		},
		{
			Name: "user_states",
			Columns: []db.ColumnType{
				{Name: "identity", DataType: "varchar"},
				{Name: "questions_created", DataType: "bigint"},
				{Name: "last_operation_time", DataType: "datetime"},
				{Name: "is_blacklisted", DataType: "tinyint"},
			},
		},
		{
			Name: "questions",
			Columns: []db.ColumnType{
				{Name: "question_index", DataType: "bigint"},
				{Name: "content_kind", DataType: "tinyint"},
				{Name: "content_text", DataType: "text", Nullable: true},
				{Name: "encrypted_answer", DataType: "mediumblob", Nullable: true},
				{Name: "content_cid", DataType: "varchar", Nullable: true},
				{Name: "content_hash", DataType: "binary"},
				{Name: "unlock_price", DataType: "decimal"},
				{Name: "current_keys", DataType: "bigint"},
				{Name: "total_sales", DataType: "decimal"},
			},
		},
		{
			Name: "unlock_keys",
			Columns: []db.ColumnType{
				{Name: "token_id", DataType: "bigint"},
				{Name: "owner", DataType: "varchar"},
				{Name: "encrypted_payload", DataType: "varbinary"},
				{Name: "list_price", DataType: "decimal"},
				{Name: "list_time", DataType: "datetime", Nullable: true},
				{Name: "last_sold_time", DataType: "datetime", Nullable: true},
			},
		},
		{
			Name: "key_tokens",
			Columns: []db.ColumnType{
				{Name: "owner", DataType: "varchar"},
				{Name: "name", DataType: "varchar"},
				{Name: "symbol", DataType: "varchar"},
			},
		},
		{
			Name: "token_balances",
			Columns: []db.ColumnType{
				{Name: "owner", DataType: "varchar"},
				{Name: "token", DataType: "varchar"},
				{Name: "balance", DataType: "decimal"},
			},
		},
		{
			Name: "marketplace_events",
			Columns: []db.ColumnType{
				{Name: "event_type", DataType: "varchar"},
				{Name: "question_index", DataType: "bigint", Nullable: true},
				{Name: "payload", DataType: "json"},
			},
		},
	}
}
