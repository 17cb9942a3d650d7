package profiles

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fdg312/fitgen/internal/prompts"
	"github.com/fdg312/fitgen/internal/storage"
	"github.com/fdg312/fitgen/internal/userctx"
)

var ErrNotFound = errors.New("profile not found")

var validate = validator.New(validator.WithRequiredStructEnabled())

// fieldMessages maps json field names to user-facing validation messages.
var fieldMessages = map[string]string{
	"age":              "age must be between 13 and 100",
	"weightKg":         "weightKg must be between 30 and 300",
	"heightCm":         "heightCm must be between 100 and 250",
	"targetWeightKg":   "targetWeightKg must be between 30 and 300",
	"goal":             "goal must be one of: Bulking, Cutting, Lean Bulk, Maintenance, General Fitness",
	"workoutFrequency": "workoutFrequency must be one of: 2-3 times/week, 3-4 times/week, 4-5 times/week, 5+ times/week, Light workout",
	"budget":           "budget is required",
	"preference":       "preference is required",
	"days":             "days must be between 1 and 14",
}

func init() {
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// ValidationError — ошибка валидации входных данных
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		if msg, ok := fieldMessages[fieldErrs[0].Field()]; ok {
			return &ValidationError{Message: msg}
		}
		return &ValidationError{Message: fmt.Sprintf("%s is invalid", fieldErrs[0].Field())}
	}
	return &ValidationError{Message: err.Error()}
}

// Service содержит бизнес-логику анкет
type Service struct {
	storage storage.ProfileStorage
	now     func() time.Time
}

// NewService создаёт новый сервис
func NewService(st storage.ProfileStorage) *Service {
	return &Service{storage: st, now: time.Now}
}

// GetProfile возвращает анкету текущего пользователя
func (s *Service) GetProfile(ctx context.Context) (*ProfileDTO, error) {
	profile, err := s.storage.GetUserProfile(ctx, userctx.UserIDOrDefault(ctx))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	dto := toDTO(profile)
	return &dto, nil
}

// UpsertProfile сохраняет анкету целиком, created_at не меняется
func (s *Service) UpsertProfile(ctx context.Context, req UpsertProfileRequest) (*ProfileDTO, error) {
	req.Goal = trimOrNil(req.Goal)
	req.WorkoutFrequency = trimOrNil(req.WorkoutFrequency)
	if err := validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	userID := userctx.UserIDOrDefault(ctx)
	now := s.now().UTC()

	createdAt := now
	existing, err := s.storage.GetUserProfile(ctx, userID)
	switch {
	case err == nil:
		createdAt = existing.CreatedAt
	case !errors.Is(err, storage.ErrNotFound):
		return nil, err
	}

	profile := &storage.UserProfile{
		UserID:           userID,
		Age:              req.Age,
		WeightKg:         req.WeightKg,
		HeightCm:         req.HeightCm,
		Goal:             req.Goal,
		WorkoutFrequency: req.WorkoutFrequency,
		TargetWeightKg:   req.TargetWeightKg,
		CreatedAt:        createdAt,
		UpdatedAt:        now,
	}
	if err := s.storage.UpsertUserProfile(ctx, profile); err != nil {
		return nil, err
	}

	dto := toDTO(profile)
	return &dto, nil
}

// DeleteProfile удаляет анкету текущего пользователя
func (s *Service) DeleteProfile(ctx context.Context) error {
	err := s.storage.DeleteUserProfile(ctx, userctx.UserIDOrDefault(ctx))
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// MealPlanPrompt рендерит промпт плана питания по сохранённой анкете.
// Без анкеты параметры профиля выводятся как "not specified".
func (s *Service) MealPlanPrompt(ctx context.Context, req MealPlanPromptRequest) (string, error) {
	req.Budget = strings.TrimSpace(req.Budget)
	req.Preference = strings.TrimSpace(req.Preference)
	if err := validate.Struct(req); err != nil {
		return "", validationError(err)
	}

	params := prompts.MealPlanParams{
		Budget:     req.Budget,
		Preference: req.Preference,
		Days:       req.Days,
	}

	profile, err := s.storage.GetUserProfile(ctx, userctx.UserIDOrDefault(ctx))
	switch {
	case err == nil:
		params.Age = profile.Age
		params.WeightKg = profile.WeightKg
		params.HeightCm = profile.HeightCm
		params.TargetWeightKg = profile.TargetWeightKg
		params.Goal = deref(profile.Goal)
		params.WorkoutFrequency = deref(profile.WorkoutFrequency)
	case !errors.Is(err, storage.ErrNotFound):
		return "", err
	}

	return prompts.MealPlan(params), nil
}

func toDTO(p *storage.UserProfile) ProfileDTO {
	return ProfileDTO{
		Age:              p.Age,
		WeightKg:         p.WeightKg,
		HeightCm:         p.HeightCm,
		Goal:             p.Goal,
		WorkoutFrequency: p.WorkoutFrequency,
		TargetWeightKg:   p.TargetWeightKg,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func trimOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
