package service

import (
	"context"
	"errors"
	"image/color"
	"strings"
	"testing"

	"github.com/lehuagavin/genslides/internal/domain"
	domainerrors "github.com/lehuagavin/genslides/internal/errors"
	"github.com/lehuagavin/genslides/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStyleService_GenerateCandidates(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	candidates, err := env.styles.GenerateCandidates(ctx, "demo", "neon grid")
	require.NoError(t, err)
	require.Len(t, candidates, generation.StyleCandidateCount)
	for _, c := range candidates {
		assert.NotEmpty(t, c.ID)
		assert.Equal(t, env.blobs.CandidateURL("demo", c.ID), c.Path)
	}

	stored, err := env.blobs.ListCandidates("demo")
	require.NoError(t, err)
	assert.Len(t, stored, generation.StyleCandidateCount)

	cost, err := env.costs.GetCost(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, generation.StyleCandidateCount, cost.StyleGenerations)
	assert.Equal(t, generation.StyleCandidateCount, cost.TotalImages)
	assert.InDelta(t, 0.04, cost.EstimatedCost, 1e-9)
}

func TestStyleService_PartialCandidatesCountOnlyReturned(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.engine.StyleFn = func(context.Context, string, int) ([][]byte, error) {
		return [][]byte{generation.SolidJPEG(16, 9, color.White)}, nil
	}

	candidates, err := env.styles.GenerateCandidates(ctx, "demo", "sketch")
	require.NoError(t, err)
	assert.Len(t, candidates, 1)

	cost, err := env.costs.GetCost(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, 1, cost.StyleGenerations)
	assert.Equal(t, 1, cost.TotalImages)
}

func TestStyleService_GenerateCandidatesErrors(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	t.Run("empty prompt", func(t *testing.T) {
		_, err := env.styles.GenerateCandidates(ctx, "demo", "  ")
		assert.ErrorIs(t, err, domainerrors.ErrInvalidRequest)
	})

	t.Run("prompt too long", func(t *testing.T) {
		_, err := env.styles.GenerateCandidates(ctx, "demo", strings.Repeat("p", domain.MaxStylePromptLength+1))
		assert.ErrorIs(t, err, domainerrors.ErrInvalidRequest)
	})

	t.Run("all candidates failed", func(t *testing.T) {
		env.engine.StyleFn = func(context.Context, string, int) ([][]byte, error) {
			return nil, errors.Join(generation.ErrUpstream, errors.New("quota"))
		}
		defer func() { env.engine.StyleFn = nil }()

		_, err := env.styles.GenerateCandidates(ctx, "demo", "valid")
		assert.ErrorIs(t, err, domainerrors.ErrUpstreamAPI)

		cost, err := env.costs.GetCost(ctx, "demo")
		require.NoError(t, err)
		assert.Zero(t, cost.StyleGenerations)
	})
}

func TestStyleService_GenerateFromTemplate(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	var gotPrompt string
	env.engine.StyleFn = func(_ context.Context, prompt string, count int) ([][]byte, error) {
		gotPrompt = prompt
		return [][]byte{generation.SolidJPEG(16, 9, color.White)}, nil
	}

	_, tpl, err := env.styles.GenerateFromTemplate(ctx, "demo", string(domain.StyleGhibli), "")
	require.NoError(t, err)
	assert.Equal(t, domain.StyleGhibli, tpl.Type)
	assert.Equal(t, tpl.PreviewPrompt, gotPrompt)

	_, _, err = env.styles.GenerateFromTemplate(ctx, "demo", string(domain.StyleMemphis), "memphis but blue")
	require.NoError(t, err)
	assert.Equal(t, "memphis but blue", gotPrompt)

	_, _, err = env.styles.GenerateFromTemplate(ctx, "demo", "baroque", "")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidRequest)

	_, _, err = env.styles.GenerateFromTemplate(ctx, "demo", string(domain.StyleCustom), "")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidRequest)
}

func TestStyleService_SaveStyle(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	candidates, err := env.styles.GenerateCandidates(ctx, "demo", "watercolor")
	require.NoError(t, err)

	style, err := env.styles.SaveStyle(ctx, "demo", SaveStyleInput{
		Prompt:      "watercolor",
		CandidateID: candidates[1].ID,
		StyleType:   "ghibli",
		StyleName:   "Ghibli",
	})
	require.NoError(t, err)
	assert.Equal(t, env.blobs.StyleURL("demo"), style.Image)
	assert.Equal(t, domain.StyleGhibli, style.StyleType)

	data, err := env.blobs.GetStyleImage("demo")
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	left, err := env.blobs.ListCandidates("demo")
	require.NoError(t, err)
	assert.Empty(t, left, "candidates are cleared after save")

	got, err := env.styles.GetStyle(ctx, "demo")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "watercolor", got.Prompt)
}

func TestStyleService_SaveStyleUnknownTypeBecomesCustom(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	candidates, err := env.styles.GenerateCandidates(ctx, "demo", "noir")
	require.NoError(t, err)

	style, err := env.styles.SaveStyle(ctx, "demo", SaveStyleInput{
		Prompt:      "noir",
		CandidateID: candidates[0].ID,
		StyleType:   "film-noir",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StyleCustom, style.StyleType)
}

func TestStyleService_SaveUnknownCandidateKeepsStyle(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	original := env.withStyle(t, "demo")

	_, err := env.styles.SaveStyle(ctx, "demo", SaveStyleInput{
		Prompt:      "something else",
		CandidateID: "cand-missing",
	})
	require.ErrorIs(t, err, domainerrors.ErrInvalidRequest)
	assert.Contains(t, err.Error(), "cand-missing")

	got, err := env.styles.GetStyle(ctx, "demo")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, original.Prompt, got.Prompt)
	assert.True(t, original.CreatedAt.Equal(got.CreatedAt))
}

func TestStyleService_GetStyleNone(t *testing.T) {
	env := setupTestEnv(t)

	got, err := env.styles.GetStyle(context.Background(), "fresh")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStyleService_ListTemplates(t *testing.T) {
	env := setupTestEnv(t)

	templates := env.styles.ListTemplates()
	require.NotEmpty(t, templates)
	types := make([]domain.StyleType, 0, len(templates))
	for _, tpl := range templates {
		types = append(types, tpl.Type)
	}
	assert.Contains(t, types, domain.StyleGhibli)
	assert.Contains(t, types, domain.StyleCustom)
}
