package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"mini_thermostat/internal/models"
	"mini_thermostat/internal/repository"
)

// CommandFilter narrows the audit log by issue time and domain.
type CommandFilter struct {
	From   time.Time // inclusive; zero means no lower bound
	To     time.Time // inclusive; zero means no upper bound
	Domain string    // "", "climate", "script", ...
}

type CommandLogService struct {
	repo repository.CommandRepo
}

func NewCommandLogService(repo repository.CommandRepo) *CommandLogService {
	return &CommandLogService{repo: repo}
}

var errInvalidTimeRange = errors.New("invalid time range: From must be <= To")

func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

func normalizeDomain(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeAndValidateFilter(f CommandFilter) (time.Time, time.Time, string, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", errInvalidTimeRange
	}
	return from, to, normalizeDomain(f.Domain), nil
}

// List returns audited commands matching f, oldest first.
func (s *CommandLogService) List(ctx context.Context, f CommandFilter) ([]models.CommandEntry, error) {
	from, to, domain, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, from, to, domain)
}
