package handlers

import (
	"log"

	"lods/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ReportHandler serves the manager's aggregate reports.
type ReportHandler struct {
	reportService *services.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
	}
}

// RegisterRoutes registers the report routes behind the given role guard.
func (h *ReportHandler) RegisterRoutes(router fiber.Router, guard fiber.Handler) {
	reportRoutes := router.Group("/reports")
	reportRoutes.Get("/summary", guard, h.HandleSummary)
}

// HandleSummary returns the aggregate order report.
func (h *ReportHandler) HandleSummary(c *fiber.Ctx) error {
	summary, err := h.reportService.Summary(c.Context())
	if err != nil {
		log.Printf("Error computing report summary: %v", err)
		return fail(c, "Could not compute report", err)
	}
	return c.JSON(summary)
}
