package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/prodoxx/myqa-is/internal/models"
)

// EventRepository is an append-only store of marketplace events.
type EventRepository interface {
	Append(ctx context.Context, e *models.Event) error
	ListByQuestion(ctx context.Context, questionIndex uint64, limit int) ([]*models.Event, error)
}

type eventRepository struct {
	db DBTX
}

func NewEventRepository(db DBTX) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Append(ctx context.Context, e *models.Event) error {
	query := `
		INSERT INTO marketplace_events (id, event_type, actor, question_index, token_id, payload, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.Type, e.Actor, nullUint64(e.QuestionIndex), nullUint64(e.TokenID), []byte(e.Payload), e.OccurredAt)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *eventRepository) ListByQuestion(ctx context.Context, questionIndex uint64, limit int) ([]*models.Event, error) {
	query := `
		SELECT id, event_type, actor, question_index, token_id, payload, occurred_at
		FROM marketplace_events
		WHERE question_index = ?
		ORDER BY occurred_at, id
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, questionIndex, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		e := &models.Event{}
		var qi, tid sql.NullInt64
		var payload []byte
		if err := rows.Scan(&e.ID, &e.Type, &e.Actor, &qi, &tid, &payload, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if qi.Valid {
			v := uint64(qi.Int64)
			e.QuestionIndex = &v
		}
		if tid.Valid {
			v := uint64(tid.Int64)
			e.TokenID = &v
		}
		e.Payload = payload
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

func nullUint64(v *uint64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
