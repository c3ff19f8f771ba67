// File: internal/notification/service.go
package notification

import (
	"context"

	"apt_briefing_backend/internal/common"
	"apt_briefing_backend/internal/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PreferenceUpdate carries the mutable preference fields. Nil pointers
// leave the stored value untouched.
type PreferenceUpdate struct {
	EmailEnabled                 *bool    `json:"email_enabled"`
	EmailAddress                 *string  `json:"email_address"`
	TelegramEnabled              *bool    `json:"telegram_enabled"`
	TelegramChatID               *string  `json:"telegram_chat_id"`
	BargainAlertEnabled          *bool    `json:"bargain_alert_enabled"`
	BargainLookbackDays          *int     `json:"bargain_lookback_days"`
	BargainDiscountThreshold     *float64 `json:"bargain_discount_threshold"`
	InterestTradeType            *string  `json:"interest_trade_type"`
	MonthlyRentConversionRatePct *float64 `json:"monthly_rent_conversion_rate_pct"`
}

// Service defines the interface for notification preference operations.
type Service interface {
	EnsurePreference(ctx context.Context, userID uuid.UUID) (*Preference, error)
	UpdatePreference(ctx context.Context, userID uuid.UUID, update PreferenceUpdate) (*Preference, error)
}

// ServiceImplementation implements the notification Service interface.
type ServiceImplementation struct {
	repository Repository
	cfg        *config.Config
	logger     *zap.Logger
}

// NewService creates a new notification service.
func NewService(repository Repository, cfg *config.Config, logger *zap.Logger) Service {
	return &ServiceImplementation{
		repository: repository,
		cfg:        cfg,
		logger:     logger,
	}
}

// EnsurePreference returns the user's preference row, creating it with
// configured defaults when missing.
func (s *ServiceImplementation) EnsurePreference(ctx context.Context, userID uuid.UUID) (*Preference, error) {
	pref, err := s.repository.FindByUser(ctx, userID)
	if err != nil {
		return nil, common.ErrInternalServer.WithDetails("Failed to load notification preference.")
	}
	if pref != nil {
		return pref, nil
	}

	pref = &Preference{
		UserID:                   userID,
		BargainAlertEnabled:      true,
		BargainLookbackDays:      s.cfg.BargainLookbackDays,
		BargainDiscountThreshold: s.cfg.BargainDiscountThreshold,
	}
	if err := s.repository.Create(ctx, pref); err != nil {
		return nil, common.ErrInternalServer.WithDetails("Failed to create notification preference.")
	}
	return pref, nil
}

func (s *ServiceImplementation) UpdatePreference(ctx context.Context, userID uuid.UUID, update PreferenceUpdate) (*Preference, error) {
	pref, err := s.EnsurePreference(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.EmailEnabled != nil {
		pref.EmailEnabled = *update.EmailEnabled
	}
	if update.EmailAddress != nil {
		pref.EmailAddress = *update.EmailAddress
	}
	if update.TelegramEnabled != nil {
		pref.TelegramEnabled = *update.TelegramEnabled
	}
	if update.TelegramChatID != nil {
		pref.TelegramChatID = *update.TelegramChatID
	}
	if update.BargainAlertEnabled != nil {
		pref.BargainAlertEnabled = *update.BargainAlertEnabled
	}
	if update.BargainLookbackDays != nil {
		if *update.BargainLookbackDays < 1 || *update.BargainLookbackDays > 180 {
			return nil, common.ErrBadRequest.WithDetails("bargain_lookback_days must be between 1 and 180.")
		}
		pref.BargainLookbackDays = *update.BargainLookbackDays
	}
	if update.BargainDiscountThreshold != nil {
		if *update.BargainDiscountThreshold <= 0 || *update.BargainDiscountThreshold >= 1 {
			return nil, common.ErrBadRequest.WithDetails("bargain_discount_threshold must be between 0 and 1 exclusive.")
		}
		pref.BargainDiscountThreshold = *update.BargainDiscountThreshold
	}
	if update.InterestTradeType != nil {
		pref.InterestTradeType = *update.InterestTradeType
	}
	if update.MonthlyRentConversionRatePct != nil {
		if *update.MonthlyRentConversionRatePct <= 0 {
			pref.MonthlyRentConversionRatePct = nil
		} else {
			pref.MonthlyRentConversionRatePct = update.MonthlyRentConversionRatePct
		}
	}

	if pref.EmailEnabled && pref.EmailAddress == "" {
		return nil, common.ErrBadRequest.WithDetails("email_address is required when email_enabled is true.")
	}
	if pref.TelegramEnabled && pref.TelegramChatID == "" {
		return nil, common.ErrBadRequest.WithDetails("telegram_chat_id is required when telegram_enabled is true.")
	}

	if err := s.repository.Update(ctx, pref); err != nil {
		return nil, common.ErrInternalServer.WithDetails("Failed to update notification preference.")
	}
	return pref, nil
}
