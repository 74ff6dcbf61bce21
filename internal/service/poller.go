package service

import (
	"context"
	"errors"
	"time"

	"mini_thermostat/internal/logger"
	"mini_thermostat/internal/models"
)

// StateFetcher reads the current state of an entity from the host.
type StateFetcher interface {
	FetchState(ctx context.Context, entityID string) (models.EntitySnapshot, error)
}

// SnapshotPoller feeds a card from the host's state API.
type SnapshotPoller struct {
	fetcher StateFetcher
	card    Card
	log     *logger.Logger

	failing bool
}

func NewSnapshotPoller(fetcher StateFetcher, card Card, log *logger.Logger) *SnapshotPoller {
	if log == nil {
		log = logger.Nop()
	}
	return &SnapshotPoller{fetcher: fetcher, card: card, log: log}
}

// Run polls once immediately and then every tick until ctx is canceled.
func (p *SnapshotPoller) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()

	p.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.Poll(ctx)
		}
	}
}

// Poll fetches one snapshot and pushes it to the card. A fetch failure is
// pushed as an unavailable snapshot so the card degrades instead of showing
// stale data.
func (p *SnapshotPoller) Poll(ctx context.Context) {
	cfg, err := p.card.Config(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotConfigured) {
			p.log.Errorw("snapshot_poll_config_failed", "err", err)
		}
		return
	}

	snap, err := p.fetcher.FetchState(ctx, cfg.Entity)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if !p.failing {
			p.log.Warnw("snapshot_poll_failed", "entity", cfg.Entity, "err", err)
		}
		p.failing = true
		snap = models.EntitySnapshot{EntityID: cfg.Entity, State: models.StateUnavailable}
	} else if p.failing {
		p.log.Infow("snapshot_poll_recovered", "entity", cfg.Entity)
		p.failing = false
	}

	if err := p.card.PushSnapshot(ctx, snap); err != nil && ctx.Err() == nil {
		p.log.Errorw("snapshot_push_failed", "entity", cfg.Entity, "err", err)
	}
}
