package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/lehuagavin/genslides/internal/api/dto"
	appdto "github.com/lehuagavin/genslides/internal/dto"
)

func (s *Server) registerProjectRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listProjects",
		Method:      http.MethodGet,
		Path:        "/api/slides",
		Summary:     "List projects",
		Description: "Returns every project, most recently updated first",
		Tags:        []string{"Projects"},
	}, s.handleListProjects)

	huma.Register(s.api, huma.Operation{
		OperationID: "getProject",
		Method:      http.MethodGet,
		Path:        "/api/slides/{slug}",
		Summary:     "Get project",
		Description: "Returns a project with its slides, creating an empty project on first access",
		Tags:        []string{"Projects"},
	}, s.handleGetProject)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteProject",
		Method:      http.MethodDelete,
		Path:        "/api/slides/{slug}",
		Summary:     "Delete project",
		Description: "Deletes a project with all slides and images",
		Tags:        []string{"Projects"},
	}, s.handleDeleteProject)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateProjectTitle",
		Method:      http.MethodPut,
		Path:        "/api/slides/{slug}/title",
		Summary:     "Update title",
		Description: "Renames a project",
		Tags:        []string{"Projects"},
	}, s.handleUpdateTitle)

	huma.Register(s.api, huma.Operation{
		OperationID: "getProjectCost",
		Method:      http.MethodGet,
		Path:        "/api/slides/{slug}/cost",
		Summary:     "Get cost",
		Description: "Returns generation counters and the estimated cost",
		Tags:        []string{"Projects"},
	}, s.handleGetCost)

	huma.Register(s.api, huma.Operation{
		OperationID: "getProjectEngine",
		Method:      http.MethodGet,
		Path:        "/api/slides/{slug}/engine",
		Summary:     "Get image engine",
		Description: "Returns the engine used for new generations and the registered engines",
		Tags:        []string{"Projects"},
	}, s.handleGetEngine)

	huma.Register(s.api, huma.Operation{
		OperationID: "setProjectEngine",
		Method:      http.MethodPut,
		Path:        "/api/slides/{slug}/engine",
		Summary:     "Set image engine",
		Description: "Selects the engine used for the project's future generations",
		Tags:        []string{"Projects"},
	}, s.handleSetEngine)

	huma.Register(s.api, huma.Operation{
		OperationID: "exportProject",
		Method:      http.MethodGet,
		Path:        "/api/slides/{slug}/export",
		Summary:     "Export images",
		Description: "Downloads the current image of every slide as a ZIP archive (01.jpg, 02.jpg, ...)",
		Tags:        []string{"Projects"},
		Responses: map[string]*huma.Response{
			"200": {
				Description: "ZIP archive",
				Content:     map[string]*huma.MediaType{"application/zip": {}},
			},
		},
	}, s.handleExportProject)
}

func (s *Server) handleListProjects(ctx context.Context, _ *struct{}) (*dto.ListProjectsOutput, error) {
	projects, err := s.services.Slides.ListProjects(ctx)
	if err != nil {
		return nil, s.handleError(err, "list projects")
	}

	resp := dto.ListProjectsResponse{Projects: make([]appdto.ProjectSummary, 0, len(projects))}
	for _, p := range projects {
		resp.Projects = append(resp.Projects, s.presenter.Summary(p))
	}
	return &dto.ListProjectsOutput{Body: resp}, nil
}

func (s *Server) handleGetProject(ctx context.Context, input *dto.ProjectInput) (*dto.ProjectOutput, error) {
	p, err := s.services.Slides.GetProject(ctx, input.Slug)
	if err != nil {
		return nil, s.handleError(err, "get project", "slug", input.Slug)
	}
	return &dto.ProjectOutput{Body: s.presenter.Project(p)}, nil
}

func (s *Server) handleDeleteProject(ctx context.Context, input *dto.ProjectInput) (*dto.DeleteProjectOutput, error) {
	if err := s.services.Slides.DeleteProject(ctx, input.Slug); err != nil {
		return nil, s.handleError(err, "delete project", "slug", input.Slug)
	}
	return &dto.DeleteProjectOutput{
		Body: dto.DeleteProjectResponse{Success: true, DeletedSlug: input.Slug},
	}, nil
}

func (s *Server) handleUpdateTitle(ctx context.Context, input *dto.UpdateTitleInput) (*dto.UpdateTitleOutput, error) {
	p, err := s.services.Slides.UpdateTitle(ctx, input.Slug, input.Body.Title)
	if err != nil {
		return nil, s.handleError(err, "update title", "slug", input.Slug)
	}
	return &dto.UpdateTitleOutput{
		Body: dto.UpdateTitleResponse{Slug: p.Slug, Title: p.Title, UpdatedAt: p.UpdatedAt},
	}, nil
}

func (s *Server) handleGetCost(ctx context.Context, input *dto.ProjectInput) (*dto.CostOutput, error) {
	cost, err := s.services.Cost.GetCost(ctx, input.Slug)
	if err != nil {
		return nil, s.handleError(err, "get cost", "slug", input.Slug)
	}
	return &dto.CostOutput{Body: s.presenter.Cost(cost)}, nil
}

func (s *Server) handleGetEngine(ctx context.Context, input *dto.ProjectInput) (*dto.EngineOutput, error) {
	info, err := s.services.Slides.GetEngine(ctx, input.Slug)
	if err != nil {
		return nil, s.handleError(err, "get engine", "slug", input.Slug)
	}
	return &dto.EngineOutput{Body: dto.EngineResponse{Engine: info.Engine, Available: info.Available}}, nil
}

func (s *Server) handleSetEngine(ctx context.Context, input *dto.SetEngineInput) (*dto.EngineOutput, error) {
	info, err := s.services.Slides.SetEngine(ctx, input.Slug, input.Body.Engine)
	if err != nil {
		return nil, s.handleError(err, "set engine", "slug", input.Slug)
	}
	return &dto.EngineOutput{Body: dto.EngineResponse{Engine: info.Engine, Available: info.Available}}, nil
}

func (s *Server) handleExportProject(ctx context.Context, input *dto.ExportInput) (*huma.StreamResponse, error) {
	exp, err := s.services.Export.Prepare(ctx, input.Slug)
	if err != nil {
		return nil, s.handleError(err, "export project", "slug", input.Slug)
	}

	return &huma.StreamResponse{
		Body: func(hctx huma.Context) {
			hctx.SetHeader("Content-Type", "application/zip")
			hctx.SetHeader("Content-Disposition", "attachment; filename=\""+exp.Filename+"\"")
			if _, err := exp.WriteTo(hctx.BodyWriter()); err != nil {
				s.logger.Warn("export stream interrupted", "slug", input.Slug, "error", err)
			}
		},
	}, nil
}
