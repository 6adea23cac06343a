package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/beargallbladder/golfswarm/internal/domain"
	"github.com/beargallbladder/golfswarm/internal/platform/logger"
	"github.com/beargallbladder/golfswarm/internal/store"
	"github.com/google/uuid"
)

// PostgresShotStore persists normalized shots using PostgreSQL.
type PostgresShotStore struct {
	db store.DBTX
}

// NewPostgresShotStore creates a new PostgresShotStore.
func NewPostgresShotStore(db store.DBTX) *PostgresShotStore {
	return &PostgresShotStore{db: db}
}

// Save persists a normalized shot. Derived metrics, conditions, and
// validation errors are stored as JSONB.
func (s *PostgresShotStore) Save(ctx context.Context, shot *domain.NormalizedShot) error {
	log := logger.FromContext(ctx)

	derived, err := json.Marshal(shot.Derived)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal derived metrics: %v", store.ErrInvalidEntity, err)
	}
	conditions, err := json.Marshal(shot.Conditions)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal conditions: %v", store.ErrInvalidEntity, err)
	}
	validationErrors, err := json.Marshal(shot.ValidationErrors)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal validation errors: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO shots (id, user_id, club, speed, distance, spin, launch_angle,
			derived, conditions, validation_errors, is_valid, confidence, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	createdAt := shot.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, query,
		shot.ID,
		shot.UserID,
		shot.Club,
		shot.Speed,
		shot.Distance,
		shot.Spin,
		shot.LaunchAngle,
		derived,
		conditions,
		validationErrors,
		shot.IsValid,
		shot.Confidence,
		shot.Source,
		createdAt,
	)
	if err != nil {
		log.Error("failed to save shot", "shot_id", shot.ID, "error", err)
		return MapError(err)
	}

	return nil
}

// GetByID retrieves a shot by its unique ID.
func (s *PostgresShotStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.NormalizedShot, error) {
	query := `
		SELECT id, user_id, club, speed, distance, spin, launch_angle,
			derived, conditions, validation_errors, is_valid, confidence, source, created_at
		FROM shots
		WHERE id = $1
	`

	row := s.db.QueryRowContext(ctx, query, id)
	shot, err := scanShot(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get shot: %w", MapError(err))
	}
	return shot, nil
}

// ListRecentByUser returns up to limit of the user's most recent shots,
// newest first.
func (s *PostgresShotStore) ListRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.NormalizedShot, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, user_id, club, speed, distance, spin, launch_angle,
			derived, conditions, validation_errors, is_valid, confidence, source, created_at
		FROM shots
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list shots: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var shots []domain.NormalizedShot
	for rows.Next() {
		shot, err := scanShot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shot: %w", MapError(err))
		}
		shots = append(shots, *shot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shots: %w", MapError(err))
	}

	return shots, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanShot(row rowScanner) (*domain.NormalizedShot, error) {
	var (
		shot             domain.NormalizedShot
		derived          []byte
		conditions       []byte
		validationErrors []byte
	)

	err := row.Scan(
		&shot.ID,
		&shot.UserID,
		&shot.Club,
		&shot.Speed,
		&shot.Distance,
		&shot.Spin,
		&shot.LaunchAngle,
		&derived,
		&conditions,
		&validationErrors,
		&shot.IsValid,
		&shot.Confidence,
		&shot.Source,
		&shot.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(derived, &shot.Derived); err != nil {
		return nil, fmt.Errorf("failed to unmarshal derived metrics: %w", err)
	}
	if err := json.Unmarshal(conditions, &shot.Conditions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conditions: %w", err)
	}
	if len(validationErrors) > 0 {
		if err := json.Unmarshal(validationErrors, &shot.ValidationErrors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal validation errors: %w", err)
		}
	}

	return &shot, nil
}
