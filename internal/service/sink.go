package service

import (
	"context"
	"time"

	"mini_thermostat/internal/logger"
	"mini_thermostat/internal/models"
	"mini_thermostat/internal/repository"

	"github.com/google/uuid"
)

// CommandSink delivers outbound commands. Delivery is fire-and-forget from
// the card's point of view: confirmation only arrives with a later snapshot.
type CommandSink interface {
	Send(ctx context.Context, rec models.CommandRecord) error
}

// HostCaller performs a service call on the host.
type HostCaller interface {
	CallService(ctx context.Context, rec models.CommandRecord) error
}

// ServiceCallSink forwards commands to the host, when one is configured, and
// records every attempt in the audit log. Failed sends are not retried.
type ServiceCallSink struct {
	host  HostCaller
	audit repository.CommandRepo
	log   *logger.Logger
	now   func() time.Time
}

func NewServiceCallSink(host HostCaller, audit repository.CommandRepo, log *logger.Logger) *ServiceCallSink {
	if log == nil {
		log = logger.Nop()
	}
	return &ServiceCallSink{host: host, audit: audit, log: log, now: time.Now}
}

func (s *ServiceCallSink) Send(ctx context.Context, rec models.CommandRecord) error {
	entry := models.CommandEntry{
		ID:       uuid.NewString(),
		IssuedAt: s.now().UTC(),
		Domain:   rec.Domain,
		Service:  rec.Service,
		EntityID: rec.TargetEntity,
		Payload:  rec.Payload,
		Status:   models.CommandRecorded,
	}

	var sendErr error
	if s.host != nil {
		sendErr = s.host.CallService(ctx, rec)
		entry.Status = models.CommandSent
		if sendErr != nil {
			entry.Status = models.CommandFailed
			entry.Error = sendErr.Error()
		}
	}

	if s.audit != nil {
		if err := s.audit.Append(ctx, entry); err != nil {
			s.log.Errorw("command_audit_failed", "id", entry.ID, "err", err)
		}
	}
	if sendErr == nil {
		s.log.Infow("command_sent", "id", entry.ID, "domain", rec.Domain, "service", rec.Service, "status", entry.Status)
	}
	return sendErr
}
