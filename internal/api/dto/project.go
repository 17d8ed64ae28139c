package dto

import (
	"time"

	"github.com/lehuagavin/genslides/internal/dto"
)

// ProjectInput addresses a project.
type ProjectInput struct {
	SlugParam
}

// ProjectOutput wraps the full project view.
type ProjectOutput struct {
	Body dto.Project
}

// ListProjectsResponse lists every project.
type ListProjectsResponse struct {
	Projects []dto.ProjectSummary `json:"projects" doc:"Projects, most recently updated first"`
}

// ListProjectsOutput wraps the project list.
type ListProjectsOutput struct {
	Body ListProjectsResponse
}

// DeleteProjectResponse confirms a project deletion.
type DeleteProjectResponse struct {
	Success     bool   `json:"success"`
	DeletedSlug string `json:"deleted_slug"`
}

// DeleteProjectOutput wraps DeleteProjectResponse.
type DeleteProjectOutput struct {
	Body DeleteProjectResponse
}

// UpdateTitleRequest renames a project.
type UpdateTitleRequest struct {
	Title string `json:"title" minLength:"1" maxLength:"200" doc:"New title"`
}

// UpdateTitleInput wraps the rename request.
type UpdateTitleInput struct {
	SlugParam
	Body UpdateTitleRequest
}

// UpdateTitleResponse echoes the new title.
type UpdateTitleResponse struct {
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpdateTitleOutput wraps UpdateTitleResponse.
type UpdateTitleOutput struct {
	Body UpdateTitleResponse
}

// CostOutput wraps the cost ledger.
type CostOutput struct {
	Body dto.Cost
}

// EngineResponse reports the project's engine and which engines are configured.
type EngineResponse struct {
	Engine    string          `json:"engine" doc:"Engine used for new generations"`
	Available map[string]bool `json:"available" doc:"Registered engines and whether each has credentials"`
}

// EngineOutput wraps EngineResponse.
type EngineOutput struct {
	Body EngineResponse
}

// SetEngineRequest selects an engine.
type SetEngineRequest struct {
	Engine string `json:"engine" enum:"gemini,volcengine,nano_banana" doc:"Engine name"`
}

// SetEngineInput wraps SetEngineRequest.
type SetEngineInput struct {
	SlugParam
	Body SetEngineRequest
}

// ExportInput addresses the project to export.
type ExportInput struct {
	SlugParam
}
