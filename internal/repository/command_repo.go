package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"mini_thermostat/internal/models"

	"github.com/google/uuid"
)

type CommandSQLite struct {
	db *sql.DB
}

func NewCommandSQLite(db *sql.DB) *CommandSQLite { return &CommandSQLite{db: db} }

var _ CommandRepo = (*CommandSQLite)(nil)

const (
	insertCommandSQL = `
		INSERT INTO command_log (id, issued_at, domain, service, entity_id, payload, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	selectCommandsSQL = `SELECT id, issued_at, domain, service, entity_id, payload, status, error FROM command_log`

	sqliteTimestampLayout = "2006-01-02 15:04:05"
)

// Append stores one command. Missing ID and IssuedAt are filled in.
func (r *CommandSQLite) Append(ctx context.Context, e models.CommandEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.IssuedAt.IsZero() {
		e.IssuedAt = time.Now().UTC()
	}

	var payload *string
	if len(e.Payload) > 0 {
		b, err := json.Marshal(e.Payload)
		if err != nil {
			return fmt.Errorf("marshal payload for %s.%s: %w", e.Domain, e.Service, err)
		}
		s := string(b)
		payload = &s
	}

	_, err := r.db.ExecContext(ctx, insertCommandSQL,
		e.ID,
		e.IssuedAt.UTC().Format(sqliteTimestampLayout),
		strings.ToLower(strings.TrimSpace(e.Domain)),
		e.Service,
		e.EntityID,
		payload,
		e.Status,
		e.Error,
	)
	if err != nil {
		return fmt.Errorf("insert command %s: %w", e.ID, err)
	}
	return nil
}

// List returns commands issued within [from, to] (zero bounds are open),
// optionally restricted to one domain, oldest first.
func (r *CommandSQLite) List(ctx context.Context, from, to time.Time, domain string) ([]models.CommandEntry, error) {
	var (
		conds []string
		args  []any
	)
	if !from.IsZero() {
		conds = append(conds, "issued_at >= ?")
		args = append(args, from.UTC().Format(sqliteTimestampLayout))
	}
	if !to.IsZero() {
		conds = append(conds, "issued_at <= ?")
		args = append(args, to.UTC().Format(sqliteTimestampLayout))
	}
	if domain = strings.ToLower(strings.TrimSpace(domain)); domain != "" {
		conds = append(conds, "domain = ?")
		args = append(args, domain)
	}

	q := selectCommandsSQL
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY issued_at ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query commands: %w", err)
	}
	defer rows.Close()

	out := make([]models.CommandEntry, 0, 64)
	for rows.Next() {
		var (
			e       models.CommandEntry
			payload sql.NullString
			errText sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.IssuedAt, &e.Domain, &e.Service, &e.EntityID, &payload, &e.Status, &errText); err != nil {
			return nil, fmt.Errorf("scan command: %w", err)
		}
		e.IssuedAt = e.IssuedAt.UTC()
		e.Error = errText.String
		if payload.Valid && payload.String != "" {
			if err := json.Unmarshal([]byte(payload.String), &e.Payload); err != nil {
				e.Payload = map[string]any{"raw": payload.String}
			}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
