package providers

import (
	"context"
	"errors"

	"github.com/samber/do/v2"

	"github.com/lehuagavin/genslides/internal/config"
	"github.com/lehuagavin/genslides/internal/logger"
	"github.com/lehuagavin/genslides/internal/notify"
)

// HubHandle wraps the notification hub and its optional Redis bridge.
type HubHandle struct {
	*notify.Hub
	bridge *notify.RedisBridge
}

// Shutdown implements do.Shutdownable.
func (h *HubHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if h.bridge != nil {
		errs = append(errs, h.bridge.Shutdown(ctx))
	}
	errs = append(errs, h.Hub.Shutdown(ctx))
	return errors.Join(errs...)
}

// ProvideHub provides the notification hub. With REDIS_URL set, events are
// relayed through Redis so several server processes share listeners.
func ProvideHub(i do.Injector) (*HubHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	hub := notify.NewHub(log.Component("notify"))
	handle := &HubHandle{Hub: hub}

	if cfg.Notify.RedisURL == "" {
		log.Info("Notification hub started", "mode", "local")
		return handle, nil
	}

	bridge, err := notify.NewRedisBridge(cfg.Notify.RedisURL, hub, log.Component("notify.redis"))
	if err != nil {
		return nil, err
	}
	if err := bridge.Start(context.Background()); err != nil {
		_ = bridge.Shutdown(context.Background())
		return nil, err
	}
	hub.SetRelay(bridge)
	handle.bridge = bridge

	log.Info("Notification hub started", "mode", "redis")
	return handle, nil
}
