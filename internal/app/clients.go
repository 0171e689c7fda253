package app

import (
	"fmt"
	"strings"

	"github.com/yungbote/courseguide-backend/internal/platform/logger"
	"github.com/yungbote/courseguide-backend/internal/platform/openrouter"
	"github.com/yungbote/courseguide-backend/internal/realtime/bus"
)

type Clients struct {
	OpenRouter openrouter.Client
	// FeedBus is nil when REDIS_ADDR is unset; the hub then stays process-local.
	FeedBus    bus.Bus
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	chat, err := openrouter.New(log, cfg.OpenRouter)
	if err != nil {
		return Clients{}, fmt.Errorf("init openrouter client: %w", err)
	}

	var feedBus bus.Bus
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		b, err := bus.NewRedisBus(log, cfg.Redis)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis feed bus: %w", err)
		}
		feedBus = b
	}

	return Clients{OpenRouter: chat, FeedBus: feedBus}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.FeedBus != nil {
		_ = c.FeedBus.Close()
	}
}
