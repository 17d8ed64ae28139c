package api

import (
	"github.com/lehuagavin/genslides/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Slides *service.SlidesService
	Images *service.ImageService
	Style  *service.StyleService
	Cost   *service.CostService
	Export *service.ExportService
	Search *service.SearchService // nil disables /api/search
}
