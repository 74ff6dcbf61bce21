package service

import (
	"context"
	"time"

	"mini_thermostat/internal/logger"
	"mini_thermostat/internal/models"
	"mini_thermostat/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Card is one thermostat card: configuration, snapshots in, intents in,
// views and commands out.
type Card interface {
	SetConfig(ctx context.Context, cfg models.CardConfig) error
	Config(ctx context.Context) (models.CardConfig, error)
	PushSnapshot(ctx context.Context, snap models.EntitySnapshot) error
	Handle(ctx context.Context, in models.Intent) (Outcome, error)
	View(ctx context.Context) (View, error)
	Subscribe() (<-chan Event, func())
}

// CommandLog exposes the audit log of issued commands.
type CommandLog interface {
	List(ctx context.Context, f CommandFilter) ([]models.CommandEntry, error)
}

// Poller feeds snapshots from the host until ctx is canceled.
type Poller interface {
	Run(ctx context.Context, tick time.Duration)
}

// Host is the host's REST API as seen by the service layer.
type Host interface {
	HostCaller
	StateFetcher
}

type Service struct {
	Card
	CommandLog
	Poller
	Authorization

	// Runner drives the card loop; main owns its lifetime.
	Runner *CardService
}

// Deps are the collaborators NewService wires together. Host may be nil,
// in which case commands are only recorded and no poller runs.
type Deps struct {
	Repos     *repository.Repository
	Host      Host
	Auth      AuthOptions
	Scheduler Scheduler
	Log       *logger.Logger
}

func NewService(d Deps) *Service {
	var caller HostCaller
	if d.Host != nil {
		caller = d.Host
	}
	sink := NewServiceCallSink(caller, d.Repos.CommandRepo, d.Log)
	card := NewCardService(sink, d.Scheduler, d.Log)

	s := &Service{
		Card:          card,
		CommandLog:    NewCommandLogService(d.Repos.CommandRepo),
		Authorization: NewAuthService(d.Repos.Auth, d.Auth),
		Runner:        card,
	}
	if d.Host != nil {
		s.Poller = NewSnapshotPoller(d.Host, card, d.Log)
	}
	return s
}
