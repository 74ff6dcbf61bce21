package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"mini_thermostat/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockCommandRepo(t *testing.T) (*CommandSQLite, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewCommandSQLite(db), mock
}

func TestCommandAppend_FillsDefaultsAndMarshalsPayload(t *testing.T) {
	repo, mock := newMockCommandRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(insertCommandSQL)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(),
			"climate", "set_temperature", "climate.living",
			`{"temperature":21}`, models.CommandSent, "",
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Append(context.Background(), models.CommandEntry{
		Domain:   " Climate ",
		Service:  "set_temperature",
		EntityID: "climate.living",
		Payload:  map[string]any{"temperature": 21.0},
		Status:   models.CommandSent,
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestCommandAppend_EmptyPayloadStoredAsNull(t *testing.T) {
	repo, mock := newMockCommandRepo(t)

	mock.ExpectExec("INSERT INTO command_log").
		WithArgs("fixed-id", "2025-01-02 03:04:05", "script", "morning", "", nil, models.CommandRecorded, "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Append(context.Background(), models.CommandEntry{
		ID:       "fixed-id",
		IssuedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Domain:   "script",
		Service:  "morning",
		Status:   models.CommandRecorded,
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestCommandAppend_DBError(t *testing.T) {
	repo, mock := newMockCommandRepo(t)

	mock.ExpectExec("INSERT INTO command_log").WillReturnError(errors.New("down"))

	err := repo.Append(context.Background(), models.CommandEntry{Domain: "climate", Service: "set_hvac_mode"})
	if err == nil || !strings.Contains(err.Error(), "down") {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestCommandList_FiltersAndDecodesPayload(t *testing.T) {
	repo, mock := newMockCommandRepo(t)

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 31, 23, 59, 59, 0, time.UTC)
	issued := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	payload, _ := json.Marshal(map[string]any{"hvac_mode": "heat"})

	rows := sqlmock.NewRows([]string{"id", "issued_at", "domain", "service", "entity_id", "payload", "status", "error"}).
		AddRow("a", issued, "climate", "set_hvac_mode", "climate.living", string(payload), models.CommandSent, nil).
		AddRow("b", issued, "climate", "set_temperature", "climate.living", "{broken", models.CommandFailed, "503")

	mock.ExpectQuery(regexp.QuoteMeta(selectCommandsSQL+" WHERE issued_at >= ? AND issued_at <= ? AND domain = ? ORDER BY issued_at ASC")).
		WithArgs("2025-01-01 00:00:00", "2025-01-31 23:59:59", "climate").
		WillReturnRows(rows)

	got, err := repo.List(context.Background(), from, to, " CLIMATE")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Payload["hvac_mode"] != "heat" || got[0].Error != "" {
		t.Fatalf("unexpected first entry: %+v", got[0])
	}
	if got[1].Payload["raw"] != "{broken" || got[1].Error != "503" {
		t.Fatalf("malformed payload should be kept raw: %+v", got[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestCommandList_NoFilters(t *testing.T) {
	repo, mock := newMockCommandRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectCommandsSQL + " ORDER BY issued_at ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "issued_at", "domain", "service", "entity_id", "payload", "status", "error"}))

	got, err := repo.List(context.Background(), time.Time{}, time.Time{}, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}
}

func TestCommandList_QueryError(t *testing.T) {
	repo, mock := newMockCommandRepo(t)

	mock.ExpectQuery("SELECT id, issued_at").WillReturnError(sql.ErrConnDone)

	if _, err := repo.List(context.Background(), time.Time{}, time.Time{}, ""); !errors.Is(err, sql.ErrConnDone) {
		t.Fatalf("expected ErrConnDone, got %v", err)
	}
}
