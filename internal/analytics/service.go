package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

const topProductCount = 5

var (
	ErrInvalidRange    = errors.New("invalid analytics range")
	ErrInvalidInterval = errors.New("invalid analytics interval")
)

var rangeDays = map[string]int{
	"7d":  7,
	"30d": 30,
	"90d": 90,
}

var validIntervals = map[string]bool{
	"day":   true,
	"week":  true,
	"month": true,
	"year":  true,
}

type Service interface {
	Stats(ctx context.Context) (*Stats, error)
	Report(ctx context.Context, rangeStr, interval string) (*Report, error)
}

type service struct {
	repo Repository
	// now is swapped in tests to pin the bucket grid.
	now func() time.Time
}

func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to compute dashboard stats")
		return nil, fmt.Errorf("service: failed to compute dashboard stats: %w", err)
	}
	return stats, nil
}

func (s *service) Report(ctx context.Context, rangeStr, interval string) (*Report, error) {
	if rangeStr == "" {
		rangeStr = "30d"
	}
	if interval == "" {
		interval = "day"
	}
	if !validIntervals[interval] {
		return nil, ErrInvalidInterval
	}

	now := s.now().UTC()

	var since time.Time
	switch {
	case rangeStr == "all":
		earliest, err := s.repo.EarliestOrderDate(ctx)
		if err != nil {
			log.Error().Err(err).Msg("service: failed to resolve earliest order date")
			return nil, fmt.Errorf("service: failed to resolve earliest order date: %w", err)
		}
		since = earliest
	default:
		days, ok := rangeDays[rangeStr]
		if !ok {
			return nil, ErrInvalidRange
		}
		since = now.AddDate(0, 0, -(days - 1))
	}
	since = truncate(since, interval)

	orders, revenue, err := s.repo.OrderTotals(ctx, since)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to compute order totals")
		return nil, fmt.Errorf("service: failed to compute order totals: %w", err)
	}

	newCustomers, err := s.repo.NewCustomers(ctx, since)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to count new customers")
		return nil, fmt.Errorf("service: failed to count new customers: %w", err)
	}

	top, err := s.repo.TopProducts(ctx, since, topProductCount)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to compute top products")
		return nil, fmt.Errorf("service: failed to compute top products: %w", err)
	}

	buckets, err := s.repo.RevenueBuckets(ctx, since, interval)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to compute revenue buckets")
		return nil, fmt.Errorf("service: failed to compute revenue buckets: %w", err)
	}

	categories, err := s.repo.CategoryRevenue(ctx, since)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to compute category revenue")
		return nil, fmt.Errorf("service: failed to compute category revenue: %w", err)
	}

	return &Report{
		Range:        rangeStr,
		Interval:     interval,
		TotalOrders:  orders,
		NewCustomers: newCustomers,
		Revenue:      revenue,
		TopProducts:  top,
		Series:       fillSeries(since, now, interval, buckets),
		Categories:   categories,
	}, nil
}

// fillSeries seeds every bucket between since and now with zeros, then lays
// the actual aggregation rows over them. The chart never has holes even when
// whole buckets saw no orders.
func fillSeries(since, now time.Time, interval string, buckets []bucket) []SeriesPoint {
	byLabel := make(map[string]bucket, len(buckets))
	for _, b := range buckets {
		byLabel[bucketLabel(b.start.UTC(), interval)] = b
	}

	series := make([]SeriesPoint, 0)
	for t := truncate(since, interval); !t.After(now); t = advance(t, interval) {
		label := bucketLabel(t, interval)
		point := SeriesPoint{Label: label}
		if b, ok := byLabel[label]; ok {
			point.Revenue = b.revenue
			point.Orders = b.orders
		}
		series = append(series, point)
	}
	return series
}

// truncate aligns t to the start of its bucket, matching what date_trunc
// produces on the database side (UTC, ISO weeks starting Monday).
func truncate(t time.Time, interval string) time.Time {
	t = t.UTC()
	switch interval {
	case "week":
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case "month":
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case "year":
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
}

func advance(t time.Time, interval string) time.Time {
	switch interval {
	case "week":
		return t.AddDate(0, 0, 7)
	case "month":
		return t.AddDate(0, 1, 0)
	case "year":
		return t.AddDate(1, 0, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

func bucketLabel(t time.Time, interval string) string {
	switch interval {
	case "week":
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case "month":
		return t.Format("2006-01")
	case "year":
		return t.Format("2006")
	default:
		return t.Format("2006-01-02")
	}
}
