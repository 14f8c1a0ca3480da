package handlers

import (
	"github.com/carebridge/portal-api/internal/identity"
	"github.com/carebridge/portal-api/internal/report"
	"github.com/carebridge/portal-api/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ReportHandler struct {
	reportService *services.ReportService
}

func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// Generate renders the medical-record report as an HTML document. The app
// must be configured with report.NewEngine as its views.
func (h *ReportHandler) Generate(c *fiber.Ctx) error {
	caller, err := identity.Get(c)
	if err != nil {
		return RespondError(c, services.ErrNoToken)
	}

	recordID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		// Not a valid id, so no such record.
		return RespondError(c, services.ErrRecordNotFound)
	}

	view, err := h.reportService.BuildMedicalRecordReport(c.UserContext(), caller, recordID)
	if err != nil {
		return RespondError(c, err)
	}

	c.Set(fiber.HeaderContentDisposition, `inline; filename="medical-record-`+recordID.String()+`.html"`)
	return c.Render(report.TemplateName, view)
}
