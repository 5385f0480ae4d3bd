package services

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"time"

	"lods/internal/models"
	"lods/internal/repositories"

	"github.com/redis/go-redis/v9"
)

const (
	reportSummaryKey = "lods:report:summary"
	reportCacheTTL   = 5 * time.Minute
)

// RiderRank is one leaderboard row: a rider and their completed-order
// count.
type RiderRank struct {
	RiderName string `json:"rider_name"`
	Completed int    `json:"completed"`
}

// ReportSummary is the manager's pull-computed aggregate view over all
// orders.
//
// TotalRevenue sums deliveryFee over completed orders only: item cost is
// collected from the customer but passed through to the store, so it never
// counts as revenue.
type ReportSummary struct {
	TotalOrders     int         `json:"total_orders"`
	CompletedOrders int         `json:"completed_orders"`
	ActiveOrders    int         `json:"active_orders"`
	TotalRevenue    float64     `json:"total_revenue"`
	Leaderboard     []RiderRank `json:"leaderboard"`
}

// ReportService computes manager aggregates by scanning the full order
// set on demand. Summaries are cached in Redis for a short TTL; the cache
// is best effort and the service works without it.
type ReportService struct {
	orderRepo repositories.OrderRepository
	cache     *redis.Client
}

// NewReportService creates a new ReportService. cache may be nil.
func NewReportService(orderRepo repositories.OrderRepository, cache *redis.Client) *ReportService {
	return &ReportService{
		orderRepo: orderRepo,
		cache:     cache,
	}
}

// Summary returns the aggregate report, serving a cached copy when one is
// fresh.
func (s *ReportService) Summary(ctx context.Context) (*ReportSummary, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, reportSummaryKey).Result(); err == nil {
			var summary ReportSummary
			if err := json.Unmarshal([]byte(cached), &summary); err == nil {
				return &summary, nil
			}
		}
	}

	summary, err := s.compute()
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if body, err := json.Marshal(summary); err == nil {
			if err := s.cache.Set(ctx, reportSummaryKey, body, reportCacheTTL).Err(); err != nil {
				log.Printf("Warning: failed to cache report summary: %v", err)
			}
		}
	}
	return summary, nil
}

func (s *ReportService) compute() (*ReportSummary, error) {
	orders, err := s.orderRepo.GetAll()
	if err != nil {
		return nil, err
	}

	summary := &ReportSummary{TotalOrders: len(orders)}
	perRider := make(map[string]int)
	var revenue float64

	for _, order := range orders {
		if order.Status == models.StatusCompleted {
			summary.CompletedOrders++
			revenue += order.DeliveryFee
			if order.RiderName != "" {
				perRider[order.RiderName]++
			}
		} else {
			summary.ActiveOrders++
		}
	}
	summary.TotalRevenue = round2(revenue)

	summary.Leaderboard = make([]RiderRank, 0, len(perRider))
	for name, count := range perRider {
		summary.Leaderboard = append(summary.Leaderboard, RiderRank{RiderName: name, Completed: count})
	}
	sort.Slice(summary.Leaderboard, func(i, j int) bool {
		a, b := summary.Leaderboard[i], summary.Leaderboard[j]
		if a.Completed != b.Completed {
			return a.Completed > b.Completed
		}
		return a.RiderName < b.RiderName
	})
	return summary, nil
}
