package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/prodoxx/myqa-is/internal/models"
)

type QuestionRepository interface {
	Get(ctx context.Context, index uint64) (*models.Question, error)
	Create(ctx context.Context, q *models.Question) error
	// Update persists the mutable sales counters and the active flag.
	Update(ctx context.Context, q *models.Question) error
	ListByCreator(ctx context.Context, creator string, limit int) ([]*models.Question, error)
}

type questionRepository struct {
	db   DBTX
	lock bool
}

func NewQuestionRepository(db DBTX, lock bool) QuestionRepository {
	return &questionRepository{db: db, lock: lock}
}

const questionColumns = `
	question_index, creator, content_kind, content_text, encrypted_answer, answer_hash, content_cid,
	content_hash, unlock_price, max_keys, current_keys, total_sales, is_active,
	creation_time, validated_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQuestion(row rowScanner) (*models.Question, error) {
	q := &models.Question{}
	var (
		kind        uint8
		text, cid   sql.NullString
		answer      []byte
		answerHash  []byte
		contentHash []byte
		unlockPrice string
		totalSales  string
	)

	if err := row.Scan(
		&q.Index, &q.Creator, &kind, &text, &answer, &answerHash, &cid,
		&contentHash, &unlockPrice, &q.MaxKeys, &q.CurrentKeys, &totalSales, &q.IsActive,
		&q.CreationTime, &q.ValidatedAt, &q.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if q.ContentHash, err = toHash(contentHash); err != nil {
		return nil, fmt.Errorf("question %d content_hash: %w", q.Index, err)
	}
	if q.UnlockPrice, err = parseAmount(unlockPrice); err != nil {
		return nil, err
	}
	if q.TotalSales, err = parseAmount(totalSales); err != nil {
		return nil, err
	}

	switch models.ContentKind(kind) {
	case models.ContentKindInline:
		q.Content = models.NewInlineContent(text.String, answer)
		if len(answerHash) > 0 {
			if q.Content.Inline.AnswerHash, err = toHash(answerHash); err != nil {
				return nil, fmt.Errorf("question %d answer_hash: %w", q.Index, err)
			}
		}
	case models.ContentKindExternal:
		q.Content = models.NewExternalContent(cid.String, q.ContentHash)
	default:
		return nil, fmt.Errorf("question %d has unknown content kind %d", q.Index, kind)
	}

	return q, nil
}

func (r *questionRepository) Get(ctx context.Context, index uint64) (*models.Question, error) {
	query := `SELECT` + questionColumns + `
		FROM questions
		WHERE question_index = ?` + lockClause(r.lock)

	q, err := scanQuestion(r.db.QueryRowContext(ctx, query, index))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find question: %w", err)
	}
	return q, nil
}

func (r *questionRepository) Create(ctx context.Context, q *models.Question) error {
	var (
		text, cid  sql.NullString
		answer     []byte
		answerHash []byte
	)
	switch q.Content.Kind {
	case models.ContentKindInline:
		text = sql.NullString{String: q.Content.Inline.Text, Valid: true}
		answer = q.Content.Inline.EncryptedAnswer
		answerHash = q.Content.Inline.AnswerHash[:]
	case models.ContentKindExternal:
		cid = sql.NullString{String: q.Content.External.CID, Valid: true}
	default:
		return fmt.Errorf("failed to create question: unknown content kind %d", q.Content.Kind)
	}

	query := `
		INSERT INTO questions (` + questionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		q.Index, q.Creator, uint8(q.Content.Kind), text, answer, answerHash, cid,
		q.ContentHash[:], formatAmount(q.UnlockPrice), q.MaxKeys, q.CurrentKeys, formatAmount(q.TotalSales), q.IsActive,
		q.CreationTime, q.ValidatedAt, q.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

func (r *questionRepository) Update(ctx context.Context, q *models.Question) error {
	query := `
		UPDATE questions
		SET current_keys = ?, total_sales = ?, is_active = ?, updated_at = ?
		WHERE question_index = ?
	`
	_, err := r.db.ExecContext(ctx, query,
		q.CurrentKeys, formatAmount(q.TotalSales), q.IsActive, q.UpdatedAt, q.Index)
	if err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}
	return nil
}

func (r *questionRepository) ListByCreator(ctx context.Context, creator string, limit int) ([]*models.Question, error) {
	query := `SELECT` + questionColumns + `
		FROM questions
		WHERE creator = ?
		ORDER BY question_index DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, creator, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	var questions []*models.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate questions: %w", err)
	}
	return questions, nil
}
