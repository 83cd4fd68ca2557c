package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Behyna/wa-inbox/internal/config"
	"github.com/Behyna/wa-inbox/internal/metrics"
	"github.com/Behyna/wa-inbox/internal/model"
	"github.com/Behyna/wa-inbox/internal/repository"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const (
	defaultResponseWindow    = 24 * time.Hour
	defaultDashboardCacheTTL = 10 * time.Second
	maxAnalyticsRangeDays    = 366
)

type AnalyticsService interface {
	RecordMessage(ctx context.Context, cmd RecordMessageCommand) error
	GetDashboardStats(ctx context.Context, businessNumber string) (DashboardStats, error)
	GetAnalytics(ctx context.Context, query GetAnalyticsQuery) ([]model.DailyMetrics, error)
}

type analytics struct {
	metricsRepo      repository.MetricsRepository
	conversationRepo repository.ConversationRepository
	dashboard        *cache.Cache
	responseWindow   time.Duration
	metrics          *metrics.Metrics
	logger           *zap.Logger
	now              func() time.Time
}

func NewAnalyticsService(metricsRepo repository.MetricsRepository, conversationRepo repository.ConversationRepository,
	cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) AnalyticsService {
	window, ttl := cfg.Analytics.ResponseWindow, cfg.Analytics.DashboardCacheTTL
	if window <= 0 {
		window = defaultResponseWindow
	}
	if ttl <= 0 {
		ttl = defaultDashboardCacheTTL
	}

	return &analytics{
		metricsRepo:      metricsRepo,
		conversationRepo: conversationRepo,
		dashboard:        cache.New(ttl, 2*ttl),
		responseWindow:   window,
		metrics:          m,
		logger:           logger,
		now:              time.Now,
	}
}

// RecordMessage folds one persisted message into its UTC day bucket and maintains the
// pair's response tracker. A failed outbound message is counted but never answers the
// pending inbound. Callers run it inside the ingestion transaction.
func (a *analytics) RecordMessage(ctx context.Context, cmd RecordMessageCommand) error {
	if cmd.BusinessNumber == "" || cmd.CounterpartNumber == "" || !cmd.Direction.Valid() {
		return validationError(errors.New("business number, counterpart number and direction are required"))
	}

	timestamp := cmd.Timestamp
	if timestamp.IsZero() {
		timestamp = a.now()
	}

	day := model.DayBucket(timestamp)

	if err := a.metricsRepo.IncrementDaily(ctx, cmd.BusinessNumber, day, cmd.Direction); err != nil {
		return a.recordFailed("increment daily counters", cmd, err)
	}

	if err := a.metricsRepo.IncrementHour(ctx, cmd.BusinessNumber, day, model.HourBucket(timestamp)); err != nil {
		return a.recordFailed("increment hour counter", cmd, err)
	}

	if _, err := a.metricsRepo.AddUniqueCustomer(ctx, cmd.BusinessNumber, day, cmd.CounterpartNumber); err != nil {
		return a.recordFailed("record unique customer", cmd, err)
	}

	if cmd.Direction == model.DirectionInbound {
		err := a.metricsRepo.ArmResponseTracker(ctx, cmd.BusinessNumber, cmd.CounterpartNumber, timestamp)
		if err != nil {
			return a.recordFailed("arm response tracker", cmd, err)
		}
		return nil
	}

	if cmd.Status == model.MessageStatusFailed {
		return nil
	}

	awaitingSince, err := a.metricsRepo.DisarmResponseTracker(ctx, cmd.BusinessNumber, cmd.CounterpartNumber)
	if err != nil {
		return a.recordFailed("disarm response tracker", cmd, err)
	}

	if awaitingSince == nil {
		return nil
	}

	elapsed := timestamp.Sub(*awaitingSince)
	if elapsed < 0 || elapsed > a.responseWindow {
		a.logger.Debug("Response sample outside window discarded",
			zap.String("businessNumber", cmd.BusinessNumber),
			zap.Duration("elapsed", elapsed))
		return nil
	}

	if err := a.metricsRepo.AddResponseSample(ctx, cmd.BusinessNumber, day, elapsed.Seconds()); err != nil {
		return a.recordFailed("add response sample", cmd, err)
	}

	a.metrics.RecordResponseTime(elapsed.Seconds())
	return nil
}

func (a *analytics) recordFailed(step string, cmd RecordMessageCommand, err error) error {
	a.logger.Error("Failed to "+step,
		zap.String("businessNumber", cmd.BusinessNumber),
		zap.String("counterpartNumber", cmd.CounterpartNumber),
		zap.Error(err))
	return storeError(err)
}

// GetDashboardStats reports today's counters. Results are cached briefly per business
// number since inbox clients poll this endpoint.
func (a *analytics) GetDashboardStats(ctx context.Context, businessNumber string) (DashboardStats, error) {
	if businessNumber == "" {
		return DashboardStats{}, validationError(errors.New("business number is required"))
	}

	day := model.DayBucket(a.now())
	cacheKey := businessNumber + "|" + day

	if cached, ok := a.dashboard.Get(cacheKey); ok {
		return cached.(DashboardStats), nil
	}

	stats := DashboardStats{BusinessNumber: businessNumber, Day: day}

	daily, err := a.metricsRepo.GetDaily(ctx, businessNumber, day)
	switch {
	case err == nil:
		stats.TotalMessages = daily.TotalMessages
		stats.InboundMessages = daily.InboundMessages
		stats.OutboundMessages = daily.OutboundMessages
		stats.UniqueCustomers = daily.UniqueCustomers
		stats.AverageResponseTime = daily.AverageResponseTime
	case errors.Is(err, repository.ErrMetricsNotFound):
	default:
		a.logger.Error("Failed to load daily metrics", zap.String("businessNumber", businessNumber), zap.Error(err))
		return DashboardStats{}, storeError(err)
	}

	active, err := a.conversationRepo.CountByStatus(ctx, businessNumber, model.ConversationStatusActive)
	if err != nil {
		a.logger.Error("Failed to count active conversations", zap.String("businessNumber", businessNumber), zap.Error(err))
		return DashboardStats{}, storeError(err)
	}
	stats.ActiveConversations = active

	a.dashboard.SetDefault(cacheKey, stats)
	return stats, nil
}

func (a *analytics) GetAnalytics(ctx context.Context, query GetAnalyticsQuery) ([]model.DailyMetrics, error) {
	if query.BusinessNumber == "" {
		return nil, validationError(errors.New("business number is required"))
	}

	start, err := time.Parse(model.DayLayout, query.StartDate)
	if err != nil {
		return nil, validationError(fmt.Errorf("invalid start date %q", query.StartDate))
	}

	end, err := time.Parse(model.DayLayout, query.EndDate)
	if err != nil {
		return nil, validationError(fmt.Errorf("invalid end date %q", query.EndDate))
	}

	if end.Before(start) {
		return nil, validationError(errors.New("end date is before start date"))
	}

	if end.Sub(start) > maxAnalyticsRangeDays*24*time.Hour {
		return nil, validationError(fmt.Errorf("range exceeds %d days", maxAnalyticsRangeDays))
	}

	rows, err := a.metricsRepo.FindDailyRange(ctx, query.BusinessNumber, query.StartDate, query.EndDate)
	if err != nil {
		a.logger.Error("Failed to load analytics range",
			zap.String("businessNumber", query.BusinessNumber),
			zap.String("start", query.StartDate),
			zap.String("end", query.EndDate),
			zap.Error(err))
		return nil, storeError(err)
	}

	return rows, nil
}
