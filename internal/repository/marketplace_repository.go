package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/prodoxx/myqa-is/internal/models"
)

// marketplaceRowID addresses the single marketplace row of a deployment.
const marketplaceRowID = 1

type MarketplaceRepository interface {
	Get(ctx context.Context) (*models.Marketplace, error)
	Create(ctx context.Context, m *models.Marketplace) error
	Update(ctx context.Context, m *models.Marketplace) error
}

type marketplaceRepository struct {
	db   DBTX
	lock bool
}

func NewMarketplaceRepository(db DBTX, lock bool) MarketplaceRepository {
	return &marketplaceRepository{db: db, lock: lock}
}

func (r *marketplaceRepository) Get(ctx context.Context) (*models.Marketplace, error) {
	query := `
		SELECT authority, treasury, fee_token, platform_fee_bps, creator_royalty_bps,
			question_counter, total_volume, paused, paused_operations, created_at, updated_at
		FROM marketplaces
		WHERE id = ?` + lockClause(r.lock)

	m := &models.Marketplace{}
	var totalVolume string
	var pausedOps uint8

	err := r.db.QueryRowContext(ctx, query, marketplaceRowID).Scan(
		&m.Authority, &m.Treasury, &m.FeeToken, &m.PlatformFeeBps, &m.CreatorRoyaltyBps,
		&m.QuestionCounter, &totalVolume, &m.Paused, &pausedOps, &m.CreatedAt, &m.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find marketplace: %w", err)
	}

	if m.TotalVolume, err = parseAmount(totalVolume); err != nil {
		return nil, err
	}
	m.PausedOperations = models.PausedOperationsFromBits(pausedOps)

	return m, nil
}

func (r *marketplaceRepository) Create(ctx context.Context, m *models.Marketplace) error {
	query := `
		INSERT INTO marketplaces (id, authority, treasury, fee_token, platform_fee_bps, creator_royalty_bps,
			question_counter, total_volume, paused, paused_operations, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		marketplaceRowID, m.Authority, m.Treasury, m.FeeToken, m.PlatformFeeBps, m.CreatorRoyaltyBps,
		m.QuestionCounter, formatAmount(m.TotalVolume), m.Paused, m.PausedOperations.Bits(),
		m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create marketplace: %w", err)
	}
	return nil
}

func (r *marketplaceRepository) Update(ctx context.Context, m *models.Marketplace) error {
	query := `
		UPDATE marketplaces
		SET authority = ?, treasury = ?, fee_token = ?, platform_fee_bps = ?, creator_royalty_bps = ?,
			question_counter = ?, total_volume = ?, paused = ?, paused_operations = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query,
		m.Authority, m.Treasury, m.FeeToken, m.PlatformFeeBps, m.CreatorRoyaltyBps,
		m.QuestionCounter, formatAmount(m.TotalVolume), m.Paused, m.PausedOperations.Bits(),
		m.UpdatedAt, marketplaceRowID)
	if err != nil {
		return fmt.Errorf("failed to update marketplace: %w", err)
	}
	return nil
}
