package exports

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fdg312/fitgen/internal/blob"
	"github.com/fdg312/fitgen/internal/generation"
	"github.com/fdg312/fitgen/internal/metrics"
	"github.com/fdg312/fitgen/internal/storage"
	"github.com/fdg312/fitgen/internal/userctx"
)

var (
	ErrInvalidKind    = errors.New("invalid export kind")
	ErrMissingPayload = errors.New("missing payload")
	ErrInvalidPayload = errors.New("invalid payload")
	ErrNotFound       = errors.New("export not found")
	ErrStorageOff     = errors.New("export storage not configured")
)

const maxTitleLen = 120

// Service handles PDF export business logic
type Service struct {
	storage    storage.ExportsStorage
	generator  *Generator
	blobStore  blob.Store
	presignTTL int
	logger     zerolog.Logger
	now        func() time.Time
}

// NewService creates a new exports service. A nil blobStore means local
// mode: PDFs are returned to the caller and nothing is persisted.
func NewService(st storage.ExportsStorage, generator *Generator, blobStore blob.Store, presignTTL int, logger zerolog.Logger) *Service {
	return &Service{
		storage:    st,
		generator:  generator,
		blobStore:  blobStore,
		presignTTL: presignTTL,
		logger:     logger.With().Str("component", "exports").Logger(),
		now:        time.Now,
	}
}

func (s *Service) Mode() string {
	if s.blobStore == nil {
		return ModeLocal
	}
	return ModeStored
}

// Export renders the requested payload and, when object storage is
// configured, uploads it and records the export for the caller.
func (s *Service) Export(ctx context.Context, req ExportRequest) (*Result, error) {
	kind := strings.TrimSpace(req.Kind)
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = defaultTitle(kind)
	}
	if len([]rune(title)) > maxTitleLen {
		title = string([]rune(title)[:maxTitleLen])
	}

	data, err := s.render(kind, title, req)
	if err != nil {
		return nil, err
	}

	mode := s.Mode()
	metrics.RecordExport(kind, mode)

	id := uuid.New()
	if s.blobStore == nil {
		return &Result{PDF: data, Filename: fmt.Sprintf("%s-%s.pdf", kind, id.String()[:8])}, nil
	}

	userID := userctx.UserIDOrDefault(ctx)
	objectKey := fmt.Sprintf("exports/%s/%s.pdf", userID, id)

	size, err := s.blobStore.PutObject(ctx, objectKey, data, contentTypePDF)
	if err != nil {
		return nil, fmt.Errorf("failed to upload export: %w", err)
	}

	meta := &storage.ExportMeta{
		ID:        id,
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		ObjectKey: objectKey,
		SizeBytes: size,
		CreatedAt: s.now().UTC(),
	}
	if err := s.storage.CreateExport(ctx, meta); err != nil {
		if delErr := s.blobStore.DeleteObject(ctx, objectKey); delErr != nil {
			s.logger.Warn().Err(delErr).Str("key", objectKey).Msg("orphaned export object")
		}
		return nil, fmt.Errorf("failed to save export: %w", err)
	}

	dto, err := s.toDTO(ctx, meta)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("id", id.String()).Str("kind", kind).Int64("size_bytes", size).Msg("export stored")
	return &Result{Stored: dto}, nil
}

func (s *Service) render(kind, title string, req ExportRequest) ([]byte, error) {
	switch kind {
	case generation.KindMealPlan:
		plan, err := decodePayload(req.MealPlan, generation.MealPlanDescriptor.Decode)
		if err != nil {
			return nil, err
		}
		return s.generator.MealPlan(title, plan)
	case generation.KindWorkoutPlan:
		plan, err := decodePayload(req.WorkoutPlan, generation.WorkoutDescriptor.Decode)
		if err != nil {
			return nil, err
		}
		return s.generator.WorkoutPlan(title, plan)
	case generation.KindWorkoutSplit:
		split, err := decodePayload(req.WorkoutSplit, generation.WorkoutSplitDescriptor.Decode)
		if err != nil {
			return nil, err
		}
		return s.generator.WorkoutSplit(title, split)
	default:
		return nil, ErrInvalidKind
	}
}

// decodePayload applies the same strict decoding used for model output.
func decodePayload[T any](raw json.RawMessage, decode func([]byte) (T, error)) (T, error) {
	var zero T
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return zero, ErrMissingPayload
	}
	v, err := decode(trimmed)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return v, nil
}

// ListExports returns the caller's stored exports, newest first
func (s *Service) ListExports(ctx context.Context, limit, offset int) ([]ExportDTO, error) {
	if s.blobStore == nil {
		return []ExportDTO{}, nil
	}

	metas, err := s.storage.ListExports(ctx, userctx.UserIDOrDefault(ctx), limit, offset)
	if err != nil {
		return nil, err
	}

	dtos := make([]ExportDTO, 0, len(metas))
	for i := range metas {
		dto, err := s.toDTO(ctx, &metas[i])
		if err != nil {
			return nil, err
		}
		dtos = append(dtos, *dto)
	}
	return dtos, nil
}

// GetExport returns one export owned by the caller with a fresh download URL
func (s *Service) GetExport(ctx context.Context, id uuid.UUID) (*ExportDTO, error) {
	meta, err := s.owned(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toDTO(ctx, meta)
}

// DeleteExport removes the object and its record
func (s *Service) DeleteExport(ctx context.Context, id uuid.UUID) error {
	meta, err := s.owned(ctx, id)
	if err != nil {
		return err
	}

	if err := s.blobStore.DeleteObject(ctx, meta.ObjectKey); err != nil {
		return err
	}
	if err := s.storage.DeleteExport(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return nil
}

// owned hides exports of other users behind ErrNotFound
func (s *Service) owned(ctx context.Context, id uuid.UUID) (*storage.ExportMeta, error) {
	if s.blobStore == nil {
		return nil, ErrStorageOff
	}

	meta, err := s.storage.GetExport(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if meta.UserID != userctx.UserIDOrDefault(ctx) {
		return nil, ErrNotFound
	}
	return meta, nil
}

func (s *Service) toDTO(ctx context.Context, meta *storage.ExportMeta) (*ExportDTO, error) {
	url, err := s.blobStore.PresignGet(ctx, meta.ObjectKey, s.presignTTL)
	if err != nil {
		return nil, err
	}

	return &ExportDTO{
		ID:        meta.ID,
		Kind:      meta.Kind,
		Title:     meta.Title,
		URL:       url,
		SizeBytes: meta.SizeBytes,
		CreatedAt: meta.CreatedAt,
	}, nil
}

func defaultTitle(kind string) string {
	switch kind {
	case generation.KindMealPlan:
		return "Meal Plan"
	case generation.KindWorkoutPlan:
		return "Workout Plan"
	case generation.KindWorkoutSplit:
		return "Workout Split"
	}
	return "Export"
}
