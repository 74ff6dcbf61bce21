package repository

import (
	"context"
	"database/sql"
	"time"

	"mini_thermostat/internal/models"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// CommandRepo is the append-only audit log of outbound commands.
type CommandRepo interface {
	Append(ctx context.Context, e models.CommandEntry) error
	List(ctx context.Context, from, to time.Time, domain string) ([]models.CommandEntry, error)
}

type Repository struct {
	CommandRepo CommandRepo
	Auth        Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		CommandRepo: NewCommandSQLite(db),
		Auth:        NewUserRepository(db),
	}
}
