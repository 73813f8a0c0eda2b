package models

import "time"

// UserState tracks per-identity abuse counters.
type UserState struct {
	Identity          string    `db:"identity"`
	QuestionsCreated  uint64    `db:"questions_created"`
	LastOperationTime time.Time `db:"last_operation_time"`
	IsBlacklisted     bool      `db:"is_blacklisted"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

// NewUserState backdates LastOperationTime by initialOffset so the first
// action of a new identity is never throttled.
func NewUserState(identity string, now time.Time, initialOffset time.Duration) *UserState {
	return &UserState{
		Identity:          identity,
		LastOperationTime: now.Add(-initialOffset),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}
