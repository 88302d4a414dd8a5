// internal/infra/database/postgres_notification_repository.go
package database

import (
	"context"
	"database/sql"

	"homework_status_bot/internal/domain/notification"

	"github.com/cockroachdb/errors"
	"github.com/lib/pq"
)

// ErrJournalMissing is returned when the notification_journal table is absent.
var ErrJournalMissing = errors.New("notification journal table does not exist")

type PostgresJournalRepository struct {
	db *sql.DB
}

var _ notification.Journal = (*PostgresJournalRepository)(nil)

func NewPostgresJournalRepository(db *sql.DB) *PostgresJournalRepository {
	return &PostgresJournalRepository{db: db}
}

// Append stores e and fills in its ID and SentAt.
func (r *PostgresJournalRepository) Append(ctx context.Context, e *notification.Entry) error {
	query := `INSERT INTO notification_journal (cycle_id, chat_id, kind, text)
               VALUES ($1, $2, $3, $4)
               RETURNING id, sent_at`
	cycleID := sql.NullString{String: e.CycleID, Valid: e.CycleID != ""}
	err := r.db.QueryRowContext(ctx, query, cycleID, e.ChatID, string(e.Kind), e.Text).Scan(&e.ID, &e.SentAt)
	if err != nil {
		return errors.Wrap(translatePQError(err), "error appending notification journal entry")
	}
	return nil
}

// ListRecent returns up to limit entries, newest first.
func (r *PostgresJournalRepository) ListRecent(ctx context.Context, limit int) ([]*notification.Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	query := `SELECT id, cycle_id, chat_id, kind, text, sent_at
               FROM notification_journal
               ORDER BY sent_at DESC, id DESC
               LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, errors.Wrap(translatePQError(err), "error listing notification journal")
	}
	defer rows.Close()

	var entries []*notification.Entry
	for rows.Next() {
		var (
			e       notification.Entry
			cycleID sql.NullString
			kind    string
		)
		if err := rows.Scan(&e.ID, &cycleID, &e.ChatID, &kind, &e.Text, &e.SentAt); err != nil {
			return nil, errors.Wrap(err, "error scanning notification journal row")
		}
		e.CycleID = cycleID.String
		e.Kind = notification.Kind(kind)
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating notification journal rows")
	}
	return entries, nil
}

func translatePQError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "undefined_table" {
		return errors.Mark(err, ErrJournalMissing)
	}
	return err
}
