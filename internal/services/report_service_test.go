package services_test

import (
	"context"
	"testing"

	"lods/internal/models"
	"lods/internal/repositories"
	"lods/internal/services"

	"github.com/stretchr/testify/assert"
)

func seedReportOrders(t *testing.T, repo *repositories.MockOrderRepository) {
	t.Helper()
	orders := []models.Order{
		{ID: "o1", Status: models.StatusCompleted, RiderName: "Ben Reyes", DeliveryFee: 40, FinalTotal: 140},
		{ID: "o2", Status: models.StatusCompleted, RiderName: "Ben Reyes", DeliveryFee: 49, FinalTotal: 300},
		{ID: "o3", Status: models.StatusCompleted, RiderName: "Carl Diaz", DeliveryFee: 55, FinalTotal: 500},
		{ID: "o4", Status: models.StatusDelivery, RiderName: "Carl Diaz", DeliveryFee: 60, FinalTotal: 200},
		{ID: "o5", Status: models.StatusPending, DeliveryFee: 45},
	}
	for i := range orders {
		assert.NoError(t, repo.Create(&orders[i]))
	}
}

func TestReportService_Summary(t *testing.T) {
	orderRepo := repositories.NewMockOrderRepository()
	seedReportOrders(t, orderRepo)

	reportService := services.NewReportService(orderRepo, nil)
	summary, err := reportService.Summary(context.Background())
	assert.NoError(t, err)

	assert.Equal(t, 5, summary.TotalOrders)
	assert.Equal(t, 3, summary.CompletedOrders)
	assert.Equal(t, 2, summary.ActiveOrders)
	// Revenue is the sum of delivery fees over completed orders only; the
	// item bill and the final total never contribute.
	assert.Equal(t, 144.0, summary.TotalRevenue)
}

func TestReportService_Leaderboard(t *testing.T) {
	orderRepo := repositories.NewMockOrderRepository()
	seedReportOrders(t, orderRepo)

	reportService := services.NewReportService(orderRepo, nil)
	summary, err := reportService.Summary(context.Background())
	assert.NoError(t, err)

	// Ranked by completed count; the in-delivery order does not count for
	// Carl yet.
	assert.Equal(t, []services.RiderRank{
		{RiderName: "Ben Reyes", Completed: 2},
		{RiderName: "Carl Diaz", Completed: 1},
	}, summary.Leaderboard)
}

func TestReportService_EmptyDataset(t *testing.T) {
	reportService := services.NewReportService(repositories.NewMockOrderRepository(), nil)
	summary, err := reportService.Summary(context.Background())
	assert.NoError(t, err)

	assert.Equal(t, 0, summary.TotalOrders)
	assert.Equal(t, 0.0, summary.TotalRevenue)
	assert.Empty(t, summary.Leaderboard)
}
