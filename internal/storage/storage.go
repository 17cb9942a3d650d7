package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound возвращается, когда запись не найдена
var ErrNotFound = errors.New("not found")

// UserProfile — анкета пользователя из онбординга. Все поля опциональны.
type UserProfile struct {
	UserID           string
	Age              *int
	WeightKg         *float64
	HeightCm         *float64
	Goal             *string
	WorkoutFrequency *string
	TargetWeightKg   *float64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ProfileStorage — интерфейс для работы с анкетами пользователей
type ProfileStorage interface {
	// GetUserProfile возвращает анкету или ErrNotFound
	GetUserProfile(ctx context.Context, userID string) (*UserProfile, error)

	// UpsertUserProfile создаёт или обновляет анкету целиком
	UpsertUserProfile(ctx context.Context, profile *UserProfile) error

	// DeleteUserProfile удаляет анкету
	DeleteUserProfile(ctx context.Context, userID string) error
}

// ExportMeta — метаданные сохранённого PDF-экспорта
type ExportMeta struct {
	ID        uuid.UUID
	UserID    string
	Kind      string
	Title     string
	ObjectKey string
	SizeBytes int64
	CreatedAt time.Time
}

// ExportsStorage — интерфейс для работы с экспортами
type ExportsStorage interface {
	CreateExport(ctx context.Context, export *ExportMeta) error
	GetExport(ctx context.Context, id uuid.UUID) (*ExportMeta, error)
	// ListExports возвращает экспорты пользователя, новые первыми
	ListExports(ctx context.Context, userID string, limit, offset int) ([]ExportMeta, error)
	DeleteExport(ctx context.Context, id uuid.UUID) error
}

// Storage объединяет все хранилища сервиса
type Storage interface {
	ProfileStorage
	ExportsStorage

	// Close закрывает соединение (для Postgres)
	Close() error
}
