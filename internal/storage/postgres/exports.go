package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fdg312/fitgen/internal/storage"
)

type exportsStorage struct {
	pool *pgxpool.Pool
}

// CreateExport сохраняет метаданные экспорта
func (s *exportsStorage) CreateExport(ctx context.Context, e *storage.ExportMeta) error {
	query := `
		INSERT INTO exports (id, user_id, kind, title, object_key, size_bytes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at
	`

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	err := s.pool.QueryRow(ctx, query,
		e.ID,
		e.UserID,
		e.Kind,
		e.Title,
		e.ObjectKey,
		e.SizeBytes,
	).Scan(&e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create export: %w", err)
	}

	return nil
}

func (s *exportsStorage) GetExport(ctx context.Context, id uuid.UUID) (*storage.ExportMeta, error) {
	query := `
		SELECT id, user_id, kind, title, object_key, size_bytes, created_at
		FROM exports
		WHERE id = $1
	`

	var e storage.ExportMeta
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&e.ID,
		&e.UserID,
		&e.Kind,
		&e.Title,
		&e.ObjectKey,
		&e.SizeBytes,
		&e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get export: %w", err)
	}

	return &e, nil
}

// ListExports возвращает экспорты пользователя с пагинацией
func (s *exportsStorage) ListExports(ctx context.Context, userID string, limit, offset int) ([]storage.ExportMeta, error) {
	query := `
		SELECT id, user_id, kind, title, object_key, size_bytes, created_at
		FROM exports
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}
	defer rows.Close()

	exports := []storage.ExportMeta{}
	for rows.Next() {
		var e storage.ExportMeta
		if err := rows.Scan(&e.ID, &e.UserID, &e.Kind, &e.Title, &e.ObjectKey, &e.SizeBytes, &e.CreatedAt); err != nil {
			return nil, err
		}
		exports = append(exports, e)
	}

	return exports, rows.Err()
}

func (s *exportsStorage) DeleteExport(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM exports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete export: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
