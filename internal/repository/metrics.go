package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Behyna/wa-inbox/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MetricsRepository interface {
	IncrementDaily(ctx context.Context, businessNumber, day string, direction model.Direction) error
	IncrementHour(ctx context.Context, businessNumber, day string, hour int) error
	AddUniqueCustomer(ctx context.Context, businessNumber, day, counterpartNumber string) (bool, error)
	ArmResponseTracker(ctx context.Context, businessNumber, counterpartNumber string, at time.Time) error
	DisarmResponseTracker(ctx context.Context, businessNumber, counterpartNumber string) (*time.Time, error)
	AddResponseSample(ctx context.Context, businessNumber, day string, seconds float64) error
	GetDaily(ctx context.Context, businessNumber, day string) (*model.DailyMetrics, error)
	FindDailyRange(ctx context.Context, businessNumber, fromDay, toDay string) ([]model.DailyMetrics, error)
}

type Metrics struct {
	db *gorm.DB
}

func NewMetricsRepository(db *gorm.DB) MetricsRepository {
	return &Metrics{db: db}
}

func (m *Metrics) IncrementDaily(ctx context.Context, businessNumber, day string, direction model.Direction) error {
	row := model.DailyMetrics{BusinessNumber: businessNumber, Day: day, TotalMessages: 1}

	directionColumn := "inbound_messages"
	if direction == model.DirectionOutbound {
		directionColumn = "outbound_messages"
		row.OutboundMessages = 1
	} else {
		row.InboundMessages = 1
	}

	return GetTx(ctx, m.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "business_number"}, {Name: "day"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_messages": gorm.Expr("daily_metrics.total_messages + ?", 1),
			directionColumn:  gorm.Expr("daily_metrics."+directionColumn+" + ?", 1),
			"updated_at":     time.Now(),
		}),
	}).Create(&row).Error
}

func (m *Metrics) IncrementHour(ctx context.Context, businessNumber, day string, hour int) error {
	row := model.HourlyMetric{BusinessNumber: businessNumber, Day: day, Hour: hour, Messages: 1}

	return GetTx(ctx, m.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "business_number"}, {Name: "day"}, {Name: "hour"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"messages": gorm.Expr("hourly_metrics.messages + ?", 1),
		}),
	}).Create(&row).Error
}

// AddUniqueCustomer records the counterpart in the day's seen set and bumps the
// unique customer counter on first sighting. It reports whether the counterpart was new.
func (m *Metrics) AddUniqueCustomer(ctx context.Context, businessNumber, day, counterpartNumber string) (bool, error) {
	db := GetTx(ctx, m.db)

	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.DailyCustomer{
		BusinessNumber:    businessNumber,
		Day:               day,
		CounterpartNumber: counterpartNumber,
	})
	if result.Error != nil {
		return false, result.Error
	}

	if result.RowsAffected != 1 {
		return false, nil
	}

	err := db.Model(&model.DailyMetrics{}).
		Where("business_number = ? AND day = ?", businessNumber, day).
		UpdateColumn("unique_customers", gorm.Expr("unique_customers + ?", 1)).Error
	if err != nil {
		return false, err
	}

	return true, nil
}

func (m *Metrics) ArmResponseTracker(ctx context.Context, businessNumber, counterpartNumber string, at time.Time) error {
	return GetTx(ctx, m.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "business_number"}, {Name: "counterpart_number"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"awaiting_since": gorm.Expr("COALESCE(response_trackers.awaiting_since, ?)", at),
			"updated_at":     time.Now(),
		}),
	}).Create(&model.ResponseTracker{
		BusinessNumber:    businessNumber,
		CounterpartNumber: counterpartNumber,
		AwaitingSince:     &at,
	}).Error
}

// DisarmResponseTracker clears the pair's pending inbound time. The previous value is
// returned only to the caller whose update actually cleared it.
func (m *Metrics) DisarmResponseTracker(ctx context.Context, businessNumber, counterpartNumber string) (
	*time.Time, error) {
	db := GetTx(ctx, m.db)

	var tracker model.ResponseTracker
	err := db.Where("business_number = ? AND counterpart_number = ?", businessNumber, counterpartNumber).
		First(&tracker).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	if tracker.AwaitingSince == nil {
		return nil, nil
	}

	result := db.Model(&model.ResponseTracker{}).
		Where("business_number = ? AND counterpart_number = ? AND awaiting_since IS NOT NULL",
			businessNumber, counterpartNumber).
		Updates(map[string]interface{}{
			"awaiting_since": nil,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		return nil, nil
	}

	return tracker.AwaitingSince, nil
}

// AddResponseSample folds one sample into the day's running mean. The mean is
// assigned before the sample counter so every dialect reads the old counter.
func (m *Metrics) AddResponseSample(ctx context.Context, businessNumber, day string, seconds float64) error {
	result := GetTx(ctx, m.db).Exec(
		"UPDATE daily_metrics SET "+
			"average_response_time = average_response_time + (? - average_response_time) / (response_samples + 1), "+
			"response_samples = response_samples + 1, "+
			"updated_at = ? "+
			"WHERE business_number = ? AND day = ?",
		seconds, time.Now(), businessNumber, day)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrMetricsNotFound
	}

	return nil
}

func (m *Metrics) GetDaily(ctx context.Context, businessNumber, day string) (*model.DailyMetrics, error) {
	rows, err := m.FindDailyRange(ctx, businessNumber, day, day)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, ErrMetricsNotFound
	}

	return &rows[0], nil
}

func (m *Metrics) FindDailyRange(ctx context.Context, businessNumber, fromDay, toDay string) (
	[]model.DailyMetrics, error) {
	db := GetTx(ctx, m.db)

	var days []model.DailyMetrics
	err := db.Where("business_number = ? AND day >= ? AND day <= ?", businessNumber, fromDay, toDay).
		Order("day ASC").
		Find(&days).Error
	if err != nil {
		return nil, err
	}

	if len(days) == 0 {
		return days, nil
	}

	var hours []model.HourlyMetric
	err = db.Where("business_number = ? AND day >= ? AND day <= ?", businessNumber, fromDay, toDay).
		Find(&hours).Error
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(days))
	for i := range days {
		index[days[i].Day] = i
	}

	for _, h := range hours {
		i, ok := index[h.Day]
		if !ok || h.Hour < 0 || h.Hour > 23 {
			continue
		}
		days[i].MessagesByHour[h.Hour] = h.Messages
	}

	return days, nil
}
