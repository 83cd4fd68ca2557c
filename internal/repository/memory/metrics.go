package memory

import (
	"context"
	"sort"
	"time"

	"github.com/Behyna/wa-inbox/internal/model"
	"github.com/Behyna/wa-inbox/internal/repository"
)

type MetricsRepository struct {
	store *Store
}

func NewMetricsRepository(store *Store) repository.MetricsRepository {
	return &MetricsRepository{store: store}
}

// day returns the row for key, creating a zeroed one. Callers hold the write lock.
func (r *MetricsRepository) day(key dayKey) *model.DailyMetrics {
	row, ok := r.store.daily[key]
	if !ok {
		now := time.Now()
		r.store.nextDailyID++
		row = &model.DailyMetrics{
			ID:             r.store.nextDailyID,
			BusinessNumber: key.business,
			Day:            key.day,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		r.store.daily[key] = row
	}
	return row
}

func (r *MetricsRepository) IncrementDaily(ctx context.Context, businessNumber, day string,
	direction model.Direction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	row := r.day(dayKey{business: businessNumber, day: day})
	row.TotalMessages++
	if direction == model.DirectionOutbound {
		row.OutboundMessages++
	} else {
		row.InboundMessages++
	}
	row.UpdatedAt = time.Now()

	return nil
}

func (r *MetricsRepository) IncrementHour(ctx context.Context, businessNumber, day string, hour int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if hour < 0 || hour > 23 {
		return nil
	}

	row := r.day(dayKey{business: businessNumber, day: day})
	row.MessagesByHour[hour]++

	return nil
}

func (r *MetricsRepository) AddUniqueCustomer(ctx context.Context, businessNumber, day,
	counterpartNumber string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := dayKey{business: businessNumber, day: day}
	seen, ok := r.store.customers[key]
	if !ok {
		seen = make(map[string]struct{})
		r.store.customers[key] = seen
	}

	if _, exists := seen[counterpartNumber]; exists {
		return false, nil
	}

	seen[counterpartNumber] = struct{}{}
	r.day(key).UniqueCustomers++

	return true, nil
}

func (r *MetricsRepository) ArmResponseTracker(ctx context.Context, businessNumber, counterpartNumber string,
	at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := pairKey{business: businessNumber, counterpart: counterpartNumber}
	tracker, ok := r.store.trackers[key]
	if !ok {
		tracker = &model.ResponseTracker{BusinessNumber: businessNumber, CounterpartNumber: counterpartNumber}
		r.store.trackers[key] = tracker
	}

	if tracker.AwaitingSince == nil {
		since := at
		tracker.AwaitingSince = &since
	}
	tracker.UpdatedAt = time.Now()

	return nil
}

func (r *MetricsRepository) DisarmResponseTracker(ctx context.Context, businessNumber, counterpartNumber string) (
	*time.Time, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	tracker, ok := r.store.trackers[pairKey{business: businessNumber, counterpart: counterpartNumber}]
	if !ok || tracker.AwaitingSince == nil {
		return nil, nil
	}

	since := *tracker.AwaitingSince
	tracker.AwaitingSince = nil
	tracker.UpdatedAt = time.Now()

	return &since, nil
}

func (r *MetricsRepository) AddResponseSample(ctx context.Context, businessNumber, day string, seconds float64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	row, ok := r.store.daily[dayKey{business: businessNumber, day: day}]
	if !ok {
		return repository.ErrMetricsNotFound
	}

	row.AverageResponseTime += (seconds - row.AverageResponseTime) / float64(row.ResponseSamples+1)
	row.ResponseSamples++
	row.UpdatedAt = time.Now()

	return nil
}

func (r *MetricsRepository) GetDaily(ctx context.Context, businessNumber, day string) (*model.DailyMetrics, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	row, ok := r.store.daily[dayKey{business: businessNumber, day: day}]
	if !ok {
		return nil, repository.ErrMetricsNotFound
	}

	c := *row
	return &c, nil
}

func (r *MetricsRepository) FindDailyRange(ctx context.Context, businessNumber, fromDay, toDay string) (
	[]model.DailyMetrics, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rows := make([]model.DailyMetrics, 0)
	for key, row := range r.store.daily {
		if key.business == businessNumber && key.day >= fromDay && key.day <= toDay {
			rows = append(rows, *row)
		}
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Day < rows[j].Day })

	return rows, nil
}
