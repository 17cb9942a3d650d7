package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fdg312/fitgen/internal/storage"
)

// MemoryStorage — in-memory реализация storage.Storage
type MemoryStorage struct {
	mu       sync.RWMutex
	profiles map[string]*storage.UserProfile
	exports  map[uuid.UUID]*storage.ExportMeta
}

// New создаёт новое in-memory хранилище
func New() *MemoryStorage {
	return &MemoryStorage{
		profiles: make(map[string]*storage.UserProfile),
		exports:  make(map[uuid.UUID]*storage.ExportMeta),
	}
}

func (m *MemoryStorage) GetUserProfile(ctx context.Context, userID string) (*storage.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryStorage) UpsertUserProfile(ctx context.Context, profile *storage.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := m.profiles[profile.UserID]; ok {
		profile.CreatedAt = existing.CreatedAt
	} else {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	cp := *profile
	m.profiles[profile.UserID] = &cp
	return nil
}

func (m *MemoryStorage) DeleteUserProfile(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.profiles[userID]; !ok {
		return storage.ErrNotFound
	}
	delete(m.profiles, userID)
	return nil
}

func (m *MemoryStorage) CreateExport(ctx context.Context, export *storage.ExportMeta) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if export.ID == uuid.Nil {
		export.ID = uuid.New()
	}
	export.CreatedAt = time.Now().UTC()

	cp := *export
	m.exports[export.ID] = &cp
	return nil
}

func (m *MemoryStorage) GetExport(ctx context.Context, id uuid.UUID) (*storage.ExportMeta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.exports[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *MemoryStorage) ListExports(ctx context.Context, userID string, limit, offset int) ([]storage.ExportMeta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]storage.ExportMeta, 0)
	for _, e := range m.exports {
		if e.UserID == userID {
			result = append(result, *e)
		}
	}

	// Сортируем по created_at DESC
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if offset >= len(result) {
		return []storage.ExportMeta{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(result) {
		end = len(result)
	}
	return result[offset:end], nil
}

func (m *MemoryStorage) DeleteExport(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.exports[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.exports, id)
	return nil
}

// Close для совместимости с интерфейсом
func (m *MemoryStorage) Close() error {
	return nil
}
