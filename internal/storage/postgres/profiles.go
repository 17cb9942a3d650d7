package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fdg312/fitgen/internal/storage"
)

type profilesStorage struct {
	pool *pgxpool.Pool
}

func (s *profilesStorage) GetUserProfile(ctx context.Context, userID string) (*storage.UserProfile, error) {
	query := `
		SELECT user_id, age, weight_kg, height_cm, goal, workout_frequency, target_weight_kg, created_at, updated_at
		FROM user_profiles
		WHERE user_id = $1
	`

	var p storage.UserProfile
	err := s.pool.QueryRow(ctx, query, userID).Scan(
		&p.UserID,
		&p.Age,
		&p.WeightKg,
		&p.HeightCm,
		&p.Goal,
		&p.WorkoutFrequency,
		&p.TargetWeightKg,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}

	return &p, nil
}

func (s *profilesStorage) UpsertUserProfile(ctx context.Context, p *storage.UserProfile) error {
	query := `
		INSERT INTO user_profiles (user_id, age, weight_kg, height_cm, goal, workout_frequency, target_weight_kg, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			age = EXCLUDED.age,
			weight_kg = EXCLUDED.weight_kg,
			height_cm = EXCLUDED.height_cm,
			goal = EXCLUDED.goal,
			workout_frequency = EXCLUDED.workout_frequency,
			target_weight_kg = EXCLUDED.target_weight_kg,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`

	err := s.pool.QueryRow(ctx, query,
		p.UserID,
		p.Age,
		p.WeightKg,
		p.HeightCm,
		p.Goal,
		p.WorkoutFrequency,
		p.TargetWeightKg,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert user profile: %w", err)
	}

	return nil
}

func (s *profilesStorage) DeleteUserProfile(ctx context.Context, userID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM user_profiles WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
