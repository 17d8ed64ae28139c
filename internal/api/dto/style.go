package dto

import (
	"github.com/lehuagavin/genslides/internal/domain"
	"github.com/lehuagavin/genslides/internal/dto"
)

// StyleInput addresses a project's style.
type StyleInput struct {
	SlugParam
}

// GetStyleResponse reports the project style, if any.
type GetStyleResponse struct {
	HasStyle bool       `json:"has_style"`
	Style    *dto.Style `json:"style"`
}

// GetStyleOutput wraps GetStyleResponse.
type GetStyleOutput struct {
	Body GetStyleResponse
}

// GenerateStyleRequest asks for style candidates.
type GenerateStyleRequest struct {
	Prompt string `json:"prompt" minLength:"1" maxLength:"1000" doc:"Style description"`
}

// GenerateStyleInput wraps GenerateStyleRequest.
type GenerateStyleInput struct {
	SlugParam
	Body GenerateStyleRequest
}

// Candidate is a generated style image awaiting selection.
type Candidate struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// GenerateStyleResponse returns the candidates.
type GenerateStyleResponse struct {
	Candidates []Candidate `json:"candidates"`
	Prompt     string      `json:"prompt"`
}

// GenerateStyleOutput wraps GenerateStyleResponse.
type GenerateStyleOutput struct {
	Body GenerateStyleResponse
}

// GenerateFromTemplateRequest asks for candidates from a preset.
type GenerateFromTemplateRequest struct {
	StyleType    string `json:"style_type" doc:"Preset type (ghibli, disney, memphis, graffiti, custom)"`
	CustomPrompt string `json:"custom_prompt,omitempty" maxLength:"1000" doc:"Replaces the preset prompt; required for custom"`
}

// GenerateFromTemplateInput wraps GenerateFromTemplateRequest.
type GenerateFromTemplateInput struct {
	SlugParam
	Body GenerateFromTemplateRequest
}

// GenerateFromTemplateResponse returns the candidates and the preset used.
type GenerateFromTemplateResponse struct {
	Candidates []Candidate          `json:"candidates"`
	Template   domain.StyleTemplate `json:"template"`
}

// GenerateFromTemplateOutput wraps GenerateFromTemplateResponse.
type GenerateFromTemplateOutput struct {
	Body GenerateFromTemplateResponse
}

// SaveStyleRequest selects a candidate.
type SaveStyleRequest struct {
	Prompt      string `json:"prompt" minLength:"1" maxLength:"1000" doc:"Prompt the candidate was generated from"`
	CandidateID string `json:"candidate_id" maxLength:"64" doc:"Chosen candidate"`
	StyleType   string `json:"style_type,omitempty" doc:"Preset type; unknown values are stored as custom"`
	StyleName   string `json:"style_name,omitempty" maxLength:"100" doc:"Display name"`
}

// SaveStyleInput wraps SaveStyleRequest.
type SaveStyleInput struct {
	SlugParam
	Body SaveStyleRequest
}

// SaveStyleResponse returns the saved style.
type SaveStyleResponse struct {
	Success bool       `json:"success"`
	Style   *dto.Style `json:"style"`
}

// SaveStyleOutput wraps SaveStyleResponse.
type SaveStyleOutput struct {
	Body SaveStyleResponse
}

// TemplatesResponse lists the presets.
type TemplatesResponse struct {
	Templates []domain.StyleTemplate `json:"templates"`
}

// TemplatesOutput wraps TemplatesResponse.
type TemplatesOutput struct {
	Body TemplatesResponse
}
