// File: internal/alert/service.go
package alert

import (
	"context"
	"sort"
	"time"

	"apt_briefing_backend/internal/analytics"
	"apt_briefing_backend/internal/common"
	"apt_briefing_backend/internal/notification"
	"apt_briefing_backend/internal/watch"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChannelResult reports the outcome of dispatching through one channel.
type ChannelResult struct {
	Channel   string `json:"channel"`
	Attempted int    `json:"attempted"`
	Sent      int    `json:"sent"`
	Delivered bool   `json:"delivered"`
	Reason    string `json:"reason,omitempty"`
}

// DispatchResult summarizes one dispatch pass for a user.
type DispatchResult struct {
	UserID    uuid.UUID       `json:"user_id"`
	ItemCount int             `json:"item_count"`
	Channels  []ChannelResult `json:"channels"`
}

// Service defines the interface for bargain alert collection and dispatch.
type Service interface {
	CollectBargains(ctx context.Context, userID uuid.UUID, onlyComplexNo int64) ([]analytics.BargainItem, error)
	Dispatch(ctx context.Context, userID uuid.UUID, onlyComplexNo int64) (*DispatchResult, error)
	PruneDispatchLog(ctx context.Context) (int64, error)
}

// dispatchLogRetention is how long dispatch records are kept. An article that
// resurfaces after this window re-alerts, which is the desired behavior for a
// listing that stayed on the market that long.
const dispatchLogRetention = 90 * 24 * time.Hour

// ServiceImplementation implements the alert Service interface.
type ServiceImplementation struct {
	repository    Repository
	watches       watch.Repository
	analytics     analytics.Service
	notifications notification.Service
	channels      []notification.Channel
	logger        *zap.Logger
}

// NewService creates a new alert service.
func NewService(
	repository Repository,
	watches watch.Repository,
	analyticsService analytics.Service,
	notificationService notification.Service,
	channels []notification.Channel,
	logger *zap.Logger,
) Service {
	return &ServiceImplementation{
		repository:    repository,
		watches:       watches,
		analytics:     analyticsService,
		notifications: notificationService,
		channels:      channels,
		logger:        logger,
	}
}

// CollectBargains runs bargain detection over the user's enabled watches
// using their stored preferences. Items carry the watch's complex name and
// come back sorted by discount, deepest first.
func (s *ServiceImplementation) CollectBargains(ctx context.Context, userID uuid.UUID, onlyComplexNo int64) ([]analytics.BargainItem, error) {
	pref, err := s.notifications.EnsurePreference(ctx, userID)
	if err != nil {
		return nil, err
	}

	watches, err := s.watches.FindByUser(ctx, userID)
	if err != nil {
		return nil, common.ErrInternalServer.WithDetails("Failed to list watched complexes.")
	}

	params := analytics.BargainParams{
		TradeTypeName:     pref.InterestTradeType,
		LookbackDays:      pref.BargainLookbackDays,
		DiscountThreshold: pref.BargainDiscountThreshold,
	}
	if pref.MonthlyRentConversionRatePct != nil {
		params.ConversionRatePct = *pref.MonthlyRentConversionRatePct
	}

	var items []analytics.BargainItem
	for _, w := range watches {
		if !w.Enabled {
			continue
		}
		if onlyComplexNo > 0 && w.ComplexNo != onlyComplexNo {
			continue
		}

		report, err := s.analytics.DetectBargains(ctx, w.ComplexNo, params)
		if err != nil {
			s.logger.Warn("Bargain detection failed for watched complex",
				zap.Int64("complex_no", w.ComplexNo),
				zap.String("user_id", userID.String()),
				zap.Error(err))
			continue
		}
		for _, item := range report.Items {
			item.ComplexName = w.ComplexName
			items = append(items, item)
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].DiscountRate > items[j].DiscountRate
	})
	return items, nil
}

// Dispatch collects bargains and delivers them over the user's enabled
// channels. Items already logged for a channel are skipped; a channel send
// failure is recorded in the result, never returned as an error, and leaves
// no log rows so the items retry next pass.
func (s *ServiceImplementation) Dispatch(ctx context.Context, userID uuid.UUID, onlyComplexNo int64) (*DispatchResult, error) {
	pref, err := s.notifications.EnsurePreference(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &DispatchResult{UserID: userID, Channels: []ChannelResult{}}
	if !pref.BargainAlertEnabled {
		return result, nil
	}

	items, err := s.CollectBargains(ctx, userID, onlyComplexNo)
	if err != nil {
		return nil, err
	}
	result.ItemCount = len(items)
	if len(items) == 0 {
		return result, nil
	}

	enabledChannels := pref.EnabledChannels()
	for _, ch := range s.channels {
		if !containsString(enabledChannels, ch.Name()) {
			continue
		}

		chResult := ChannelResult{Channel: ch.Name()}
		unsent, err := s.filterUnsent(ctx, userID, ch.Name(), items)
		if err != nil {
			chResult.Reason = "failed to check dispatch log"
			result.Channels = append(result.Channels, chResult)
			continue
		}
		chResult.Attempted = len(unsent)
		if len(unsent) == 0 {
			chResult.Delivered = true
			result.Channels = append(result.Channels, chResult)
			continue
		}

		ok, reason := ch.Send(
			pref.DestinationFor(ch.Name()),
			RenderBargainSubject(unsent),
			RenderBargainBody(unsent),
		)
		if !ok {
			chResult.Reason = reason
			result.Channels = append(result.Channels, chResult)
			continue
		}

		records := make([]DispatchRecord, len(unsent))
		for i, item := range unsent {
			records[i] = DispatchRecord{
				UserID:    userID,
				Channel:   ch.Name(),
				AlertType: AlertTypeBargain,
				DedupeKey: BargainDedupeKey(item.ComplexNo, item.ArticleNo, item.DealPriceManwon),
				Payload: common.JSONMap{
					"complex_no":      item.ComplexNo,
					"article_no":      item.ArticleNo,
					"article_name":    item.ArticleName,
					"deal_price_text": item.DealPriceText,
					"discount_rate":   item.DiscountRate,
				},
			}
		}
		if err := s.repository.CreateRecords(ctx, records); err != nil {
			s.logger.Error("Failed to record alert dispatch",
				zap.String("user_id", userID.String()),
				zap.String("channel", ch.Name()),
				zap.Error(err))
		}

		chResult.Sent = len(unsent)
		chResult.Delivered = true
		result.Channels = append(result.Channels, chResult)
	}

	return result, nil
}

// PruneDispatchLog deletes dispatch records older than the retention window.
func (s *ServiceImplementation) PruneDispatchLog(ctx context.Context) (int64, error) {
	return s.repository.DeleteRecordsBefore(ctx, time.Now().Add(-dispatchLogRetention))
}

func (s *ServiceImplementation) filterUnsent(ctx context.Context, userID uuid.UUID, channel string, items []analytics.BargainItem) ([]analytics.BargainItem, error) {
	keys := make([]string, len(items))
	for i, item := range items {
		keys[i] = BargainDedupeKey(item.ComplexNo, item.ArticleNo, item.DealPriceManwon)
	}
	existing, err := s.repository.ExistingKeys(ctx, userID, channel, AlertTypeBargain, keys)
	if err != nil {
		return nil, err
	}

	var unsent []analytics.BargainItem
	for i, item := range items {
		if _, sent := existing[keys[i]]; !sent {
			unsent = append(unsent, item)
		}
	}
	return unsent, nil
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
