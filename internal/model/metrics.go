package model

import "time"

const DayLayout = "2006-01-02"

type DailyMetrics struct {
	ID                  int64     `gorm:"primaryKey;autoIncrement;column:id;<-:create"`
	BusinessNumber      string    `gorm:"column:business_number;size:32;not null;uniqueIndex:idx_metrics_day,priority:1"`
	Day                 string    `gorm:"column:day;size:10;not null;uniqueIndex:idx_metrics_day,priority:2"`
	TotalMessages       int64     `gorm:"column:total_messages;not null;default:0"`
	InboundMessages     int64     `gorm:"column:inbound_messages;not null;default:0"`
	OutboundMessages    int64     `gorm:"column:outbound_messages;not null;default:0"`
	UniqueCustomers     int64     `gorm:"column:unique_customers;not null;default:0"`
	AverageResponseTime float64   `gorm:"column:average_response_time;not null;default:0"`
	ResponseSamples     int64     `gorm:"column:response_samples;not null;default:0"`
	MessagesByHour      [24]int64 `gorm:"-"`
	CreatedAt           time.Time `gorm:"column:created_at"`
	UpdatedAt           time.Time `gorm:"column:updated_at"`
}

func (DailyMetrics) TableName() string {
	return "daily_metrics"
}

type HourlyMetric struct {
	BusinessNumber string `gorm:"column:business_number;size:32;primaryKey"`
	Day            string `gorm:"column:day;size:10;primaryKey"`
	Hour           int    `gorm:"column:hour;primaryKey;autoIncrement:false"`
	Messages       int64  `gorm:"column:messages;not null;default:0"`
}

func (HourlyMetric) TableName() string {
	return "hourly_metrics"
}

type DailyCustomer struct {
	BusinessNumber    string    `gorm:"column:business_number;size:32;primaryKey"`
	Day               string    `gorm:"column:day;size:10;primaryKey"`
	CounterpartNumber string    `gorm:"column:counterpart_number;size:32;primaryKey"`
	CreatedAt         time.Time `gorm:"column:created_at"`
}

func (DailyCustomer) TableName() string {
	return "daily_customers"
}

// ResponseTracker holds the oldest unanswered inbound message time for a pair.
type ResponseTracker struct {
	BusinessNumber    string     `gorm:"column:business_number;size:32;primaryKey"`
	CounterpartNumber string     `gorm:"column:counterpart_number;size:32;primaryKey"`
	AwaitingSince     *time.Time `gorm:"column:awaiting_since"`
	UpdatedAt         time.Time  `gorm:"column:updated_at"`
}

func (ResponseTracker) TableName() string {
	return "response_trackers"
}

func DayBucket(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

func HourBucket(t time.Time) int {
	return t.UTC().Hour()
}
