package mocks

import (
	"context"
	"time"

	"github.com/Behyna/wa-inbox/internal/model"
	"github.com/Behyna/wa-inbox/internal/repository"
	"github.com/stretchr/testify/mock"
)

var _ repository.MetricsRepository = (*MetricsRepository)(nil)

type MetricsRepository struct {
	mock.Mock
}

func (m *MetricsRepository) IncrementDaily(ctx context.Context, businessNumber, day string,
	direction model.Direction) error {
	args := m.Called(ctx, businessNumber, day, direction)
	return args.Error(0)
}

func (m *MetricsRepository) IncrementHour(ctx context.Context, businessNumber, day string, hour int) error {
	args := m.Called(ctx, businessNumber, day, hour)
	return args.Error(0)
}

func (m *MetricsRepository) AddUniqueCustomer(ctx context.Context, businessNumber, day,
	counterpartNumber string) (bool, error) {
	args := m.Called(ctx, businessNumber, day, counterpartNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MetricsRepository) ArmResponseTracker(ctx context.Context, businessNumber, counterpartNumber string,
	at time.Time) error {
	args := m.Called(ctx, businessNumber, counterpartNumber, at)
	return args.Error(0)
}

func (m *MetricsRepository) DisarmResponseTracker(ctx context.Context, businessNumber,
	counterpartNumber string) (*time.Time, error) {
	args := m.Called(ctx, businessNumber, counterpartNumber)
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *MetricsRepository) AddResponseSample(ctx context.Context, businessNumber, day string, seconds float64) error {
	args := m.Called(ctx, businessNumber, day, seconds)
	return args.Error(0)
}

func (m *MetricsRepository) GetDaily(ctx context.Context, businessNumber, day string) (*model.DailyMetrics, error) {
	args := m.Called(ctx, businessNumber, day)
	return args.Get(0).(*model.DailyMetrics), args.Error(1)
}

func (m *MetricsRepository) FindDailyRange(ctx context.Context, businessNumber, fromDay,
	toDay string) ([]model.DailyMetrics, error) {
	args := m.Called(ctx, businessNumber, fromDay, toDay)
	return args.Get(0).([]model.DailyMetrics), args.Error(1)
}
