// File: internal/preset/service.go
package preset

import (
	"context"
	"strconv"
	"strings"

	"apt_briefing_backend/internal/billing"
	"apt_briefing_backend/internal/common"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SaveInput are the fields for creating or updating a preset.
type SaveInput struct {
	Name        string
	Filters     common.JSONMap
	ChartConfig common.JSONMap
}

// Service defines the interface for preset operations.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]UserPreset, error)
	Create(ctx context.Context, userID uuid.UUID, input SaveInput) (*UserPreset, error)
	Update(ctx context.Context, userID, presetID uuid.UUID, input SaveInput) (*UserPreset, error)
	Delete(ctx context.Context, userID, presetID uuid.UUID) error
}

// ServiceImplementation implements the preset Service interface.
type ServiceImplementation struct {
	repository   Repository
	entitlements billing.Entitlements
	logger       *zap.Logger
}

// NewService creates a new preset service.
func NewService(repository Repository, entitlements billing.Entitlements, logger *zap.Logger) Service {
	return &ServiceImplementation{
		repository:   repository,
		entitlements: entitlements,
		logger:       logger,
	}
}

func (s *ServiceImplementation) List(ctx context.Context, userID uuid.UUID) ([]UserPreset, error) {
	presets, err := s.repository.FindByUser(ctx, userID)
	if err != nil {
		return nil, common.ErrInternalServer.WithDetails("Failed to list presets.")
	}
	return presets, nil
}

func (s *ServiceImplementation) Create(ctx context.Context, userID uuid.UUID, input SaveInput) (*UserPreset, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, common.ErrBadRequest.WithDetails("Preset name is required.")
	}

	existing, err := s.repository.FindByName(ctx, userID, name)
	if err != nil {
		return nil, common.ErrInternalServer.WithDetails("Failed to check existing presets.")
	}
	if existing != nil {
		return nil, common.ErrConflict.WithDetails("A preset with this name already exists.")
	}

	limit, err := s.entitlements.PresetLimit(ctx, userID)
	if err != nil {
		return nil, err
	}
	if limit > 0 {
		count, err := s.repository.CountByUser(ctx, userID)
		if err != nil {
			return nil, common.ErrInternalServer.WithDetails("Failed to count presets.")
		}
		if count >= int64(limit) {
			return nil, common.ErrForbidden.WithDetails(
				"Your plan allows up to " + strconv.Itoa(limit) + " presets.")
		}
	}

	p := &UserPreset{
		UserID:      userID,
		Name:        name,
		Filters:     input.Filters,
		ChartConfig: input.ChartConfig,
	}
	if err := s.repository.Create(ctx, p); err != nil {
		return nil, common.ErrInternalServer.WithDetails("Failed to create preset.")
	}
	return p, nil
}

func (s *ServiceImplementation) Update(ctx context.Context, userID, presetID uuid.UUID, input SaveInput) (*UserPreset, error) {
	p, err := s.repository.FindByID(ctx, userID, presetID)
	if err != nil {
		return nil, common.ErrInternalServer.WithDetails("Failed to load preset.")
	}
	if p == nil {
		return nil, common.ErrNotFound.WithDetails("Preset not found.")
	}

	if name := strings.TrimSpace(input.Name); name != "" && name != p.Name {
		existing, err := s.repository.FindByName(ctx, userID, name)
		if err != nil {
			return nil, common.ErrInternalServer.WithDetails("Failed to check existing presets.")
		}
		if existing != nil {
			return nil, common.ErrConflict.WithDetails("A preset with this name already exists.")
		}
		p.Name = name
	}
	if input.Filters != nil {
		p.Filters = input.Filters
	}
	if input.ChartConfig != nil {
		p.ChartConfig = input.ChartConfig
	}

	if err := s.repository.Update(ctx, p); err != nil {
		return nil, common.ErrInternalServer.WithDetails("Failed to update preset.")
	}
	return p, nil
}

func (s *ServiceImplementation) Delete(ctx context.Context, userID, presetID uuid.UUID) error {
	p, err := s.repository.FindByID(ctx, userID, presetID)
	if err != nil {
		return common.ErrInternalServer.WithDetails("Failed to load preset.")
	}
	if p == nil {
		return common.ErrNotFound.WithDetails("Preset not found.")
	}
	if err := s.repository.Delete(ctx, p); err != nil {
		return common.ErrInternalServer.WithDetails("Failed to delete preset.")
	}
	return nil
}
