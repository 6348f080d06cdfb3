package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteTimeLayout = time.RFC3339Nano

const eventColumns = `id, title, description, location, category, event_date, start_time, end_time,
	notification_time, repeat_type, repeat_interval, repeat_end_date, repeat_depth,
	recurrence_group_id, created_at, updated_at`

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) DB() *sql.DB {
	return r.db
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// CreateEvents inserts every row or none.
func (r *SQLiteRepository) CreateEvents(ctx context.Context, in []Event) error {
	if len(in) == 0 {
		return nil
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO events (`+eventColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		stamp := r.now()
		for _, ev := range in {
			if ev.CreatedAt.IsZero() {
				ev.CreatedAt = stamp
			}
			if ev.UpdatedAt.IsZero() {
				ev.UpdatedAt = ev.CreatedAt
			}
			if _, err := stmt.ExecContext(ctx,
				ev.ID, ev.Title, ev.Description, ev.Location, ev.Category, ev.Date, ev.StartTime, ev.EndTime,
				ev.NotificationTime, ev.RepeatType, ev.RepeatInterval, nullString(ev.RepeatEndDate), ev.RepeatDepth,
				ev.RecurrenceGroupID, mustTime(ev.CreatedAt), mustTime(ev.UpdatedAt),
			); err != nil {
				return fmt.Errorf("insert event %s: %w", ev.ID, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) GetEvent(ctx context.Context, id string) (Event, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	ev, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Event{}, ErrNotFound
		}
		return Event{}, err
	}
	return ev, nil
}

func (r *SQLiteRepository) UpdateEvent(ctx context.Context, in Event) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		return r.updateEvent(ctx, tx, in)
	})
}

// UpdateEvents applies all updates in one transaction; a missing row rolls
// back the whole batch.
func (r *SQLiteRepository) UpdateEvents(ctx context.Context, in []Event) error {
	if len(in) == 0 {
		return nil
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		for _, ev := range in {
			if err := r.updateEvent(ctx, tx, ev); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) updateEvent(ctx context.Context, tx *sql.Tx, in Event) error {
	if in.UpdatedAt.IsZero() {
		in.UpdatedAt = r.now()
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE events
		SET title = ?, description = ?, location = ?, category = ?, event_date = ?, start_time = ?, end_time = ?,
			notification_time = ?, repeat_type = ?, repeat_interval = ?, repeat_end_date = ?, repeat_depth = ?,
			recurrence_group_id = ?, updated_at = ?
		WHERE id = ?`,
		in.Title, in.Description, in.Location, in.Category, in.Date, in.StartTime, in.EndTime,
		in.NotificationTime, in.RepeatType, in.RepeatInterval, nullString(in.RepeatEndDate), in.RepeatDepth,
		in.RecurrenceGroupID, mustTime(in.UpdatedAt), in.ID,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) DeleteEvent(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

// DeleteGroup removes every occurrence sharing groupID and reports how many
// rows went away. An empty group id never matches standalone events.
func (r *SQLiteRepository) DeleteGroup(ctx context.Context, groupID string) (int64, error) {
	if groupID == "" {
		return 0, ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE recurrence_group_id = ?`, groupID)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, ErrNotFound
	}
	return affected, nil
}

func (r *SQLiteRepository) ListEvents(ctx context.Context, filter EventListFilter) ([]Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events`
	clauses := make([]string, 0, 3)
	args := make([]any, 0, 5)
	if filter.GroupID != "" {
		clauses = append(clauses, "recurrence_group_id = ?")
		args = append(args, filter.GroupID)
	}
	if filter.From != "" {
		clauses = append(clauses, "event_date >= ?")
		args = append(args, filter.From)
	}
	if filter.To != "" {
		clauses = append(clauses, "event_date <= ?")
		args = append(args, filter.To)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY event_date ASC, start_time ASC, id ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Event, 0)
	for rows.Next() {
		ev, scanErr := scanEvent(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func nullString(v *string) any {
	if v == nil || *v == "" {
		return nil
	}
	return *v
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseRequiredTime(v string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, v)
}

// SQLite rejects OFFSET without LIMIT, so an offset alone gets LIMIT -1.
func applyPagination(args *[]any, limit, offset int) string {
	sql := ""
	if limit > 0 {
		sql += " LIMIT ?"
		*args = append(*args, limit)
	} else if offset > 0 {
		sql += " LIMIT -1"
	}
	if offset > 0 {
		sql += " OFFSET ?"
		*args = append(*args, offset)
	}
	return sql
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(s scanner) (Event, error) {
	var out Event
	var until sql.NullString
	var created, updated string
	if err := s.Scan(
		&out.ID, &out.Title, &out.Description, &out.Location, &out.Category, &out.Date, &out.StartTime, &out.EndTime,
		&out.NotificationTime, &out.RepeatType, &out.RepeatInterval, &until, &out.RepeatDepth,
		&out.RecurrenceGroupID, &created, &updated,
	); err != nil {
		return Event{}, err
	}
	if until.Valid && until.String != "" {
		v := until.String
		out.RepeatEndDate = &v
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return Event{}, err
	}
	updatedAt, err := parseRequiredTime(updated)
	if err != nil {
		return Event{}, err
	}
	out.CreatedAt = createdAt
	out.UpdatedAt = updatedAt
	return out, nil
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
