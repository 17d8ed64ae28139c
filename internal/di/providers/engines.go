package providers

import (
	"github.com/samber/do/v2"

	"github.com/lehuagavin/genslides/internal/config"
	"github.com/lehuagavin/genslides/internal/generation"
	"github.com/lehuagavin/genslides/internal/logger"
	"github.com/lehuagavin/genslides/internal/ratelimit"
)

// EnginesHandle owns the engine registry and the outbound limiter shared by
// its engines.
type EnginesHandle struct {
	*generation.Registry
	limiter *ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *EnginesHandle) Shutdown() error {
	h.limiter.Stop()
	return nil
}

// ProvideEngines registers every image engine. Engines without credentials
// are still registered so projects can select them; they fail with
// NOT_CONFIGURED until a key is set.
func ProvideEngines(i do.Injector) (*EnginesHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	// Keyed by engine name, so each provider gets its own budget.
	limiter := ratelimit.New(cfg.Engines.RateLimit, cfg.Engines.RateBurst)
	engineLog := log.Component("generation")

	registry := generation.NewRegistry(cfg.Engines.Default, engineLog)
	registry.Register(generation.NewGemini(cfg.Engines.GeminiAPIKey, cfg.Engines.GeminiModel, limiter, engineLog))
	registry.Register(generation.NewVolcengine(generation.VolcengineOptions{
		APIKey:  cfg.Engines.ArkAPIKey,
		BaseURL: cfg.Engines.ArkBaseURL,
		Model:   cfg.Engines.ArkModel,
		Limiter: limiter,
		Logger:  engineLog,
	}))
	registry.Register(generation.NewNanoBanana(
		cfg.Engines.NanoAPIKey,
		cfg.Engines.NanoBaseURL,
		cfg.Engines.NanoModel,
		cfg.Engines.NanoImageSize,
		limiter,
		engineLog,
	))

	log.Info("Image engines registered",
		"default", registry.Default(),
		"available", registry.Status(),
	)

	return &EnginesHandle{Registry: registry, limiter: limiter}, nil
}
