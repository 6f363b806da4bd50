package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200

	// timeLayout has fixed width so stored timestamps sort lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Repository stores sequence and play history and the runtime settings.
type Repository interface {
	RecordSequenceStart(ctx context.Context, seq Sequence) error
	RecordPlay(ctx context.Context, play Play) error
	RecordSequenceEnd(ctx context.Context, id string, endedAt time.Time, played int, reason EndReason) error
	ListSequences(ctx context.Context, limit int) ([]Sequence, error)
	ListPlays(ctx context.Context, sequenceID string) ([]Play, error)
	SaveSettings(ctx context.Context, settings RuntimeSettings) error
	LoadSettings(ctx context.Context) (RuntimeSettings, error)
}

// SQLiteRepository implements Repository on the tables created by the
// embedded migrations.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository on an open, migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// RecordSequenceStart inserts a new running sequence.
func (r *SQLiteRepository) RecordSequenceStart(ctx context.Context, seq Sequence) error {
	if seq.ID == "" {
		return ErrInvalidSequence
	}
	if seq.StartedAt.IsZero() {
		seq.StartedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO sequences (id, started_at, planned, played) VALUES (?, ?, ?, ?)",
		seq.ID, formatTime(seq.StartedAt), seq.Planned, seq.Played,
	)
	if err != nil {
		return fmt.Errorf("inserting sequence: %w", err)
	}
	return nil
}

// RecordPlay inserts one play and bumps the sequence's played count.
//
// Returns:
//   - error: ErrNotFound if the sequence does not exist
func (r *SQLiteRepository) RecordPlay(ctx context.Context, play Play) error {
	if play.SequenceID == "" {
		return ErrInvalidSequence
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx,
		"UPDATE sequences SET played = played + 1 WHERE id = ?", play.SequenceID)
	if err != nil {
		return fmt.Errorf("updating played count: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // sqlite always reports
		return ErrNotFound
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO plays (sequence_id, ordinal, folder, track, played_at, next_delay_ms, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		play.SequenceID, play.Ordinal, play.Folder, play.Track,
		formatTime(play.PlayedAt), play.NextDelay.Milliseconds(), nullableString(play.Error),
	)
	if err != nil {
		return fmt.Errorf("inserting play: %w", err)
	}
	return tx.Commit()
}

// RecordSequenceEnd closes a sequence.
//
// Returns:
//   - error: ErrNotFound if the sequence does not exist
func (r *SQLiteRepository) RecordSequenceEnd(ctx context.Context, id string, endedAt time.Time, played int, reason EndReason) error {
	if id == "" {
		return ErrInvalidSequence
	}

	res, err := r.db.ExecContext(ctx,
		"UPDATE sequences SET ended_at = ?, played = ?, end_reason = ? WHERE id = ?",
		formatTime(endedAt), played, string(reason), id,
	)
	if err != nil {
		return fmt.Errorf("ending sequence: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // sqlite always reports
		return ErrNotFound
	}
	return nil
}

// ListSequences returns the most recent sequences, newest first.
//
// Parameters:
//   - limit: Maximum entries to return (default 50, max 200)
func (r *SQLiteRepository) ListSequences(ctx context.Context, limit int) ([]Sequence, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, started_at, ended_at, planned, played, end_reason
		 FROM sequences ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sequences: %w", err)
	}
	defer rows.Close()

	sequences := make([]Sequence, 0)
	for rows.Next() {
		var seq Sequence
		var startedAt string
		var endedAt, reason sql.NullString
		if err := rows.Scan(&seq.ID, &startedAt, &endedAt, &seq.Planned, &seq.Played, &reason); err != nil {
			return nil, fmt.Errorf("scanning sequence: %w", err)
		}
		if seq.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, err
		}
		if endedAt.Valid {
			t, err := parseTime(endedAt.String)
			if err != nil {
				return nil, err
			}
			seq.EndedAt = &t
		}
		seq.EndReason = EndReason(reason.String)
		sequences = append(sequences, seq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sequences: %w", err)
	}
	return sequences, nil
}

// ListPlays returns the plays of one sequence in order.
func (r *SQLiteRepository) ListPlays(ctx context.Context, sequenceID string) ([]Play, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT sequence_id, ordinal, folder, track, played_at, next_delay_ms, error
		 FROM plays WHERE sequence_id = ? ORDER BY ordinal`, sequenceID)
	if err != nil {
		return nil, fmt.Errorf("querying plays: %w", err)
	}
	defer rows.Close()

	plays := make([]Play, 0)
	for rows.Next() {
		var p Play
		var playedAt string
		var delayMS int64
		var errText sql.NullString
		if err := rows.Scan(&p.SequenceID, &p.Ordinal, &p.Folder, &p.Track, &playedAt, &delayMS, &errText); err != nil {
			return nil, fmt.Errorf("scanning play: %w", err)
		}
		if p.PlayedAt, err = parseTime(playedAt); err != nil {
			return nil, err
		}
		p.NextDelay = time.Duration(delayMS) * time.Millisecond
		p.Error = errText.String
		plays = append(plays, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plays: %w", err)
	}
	return plays, nil
}

// SaveSettings replaces the stored runtime settings.
func (r *SQLiteRepository) SaveSettings(ctx context.Context, settings RuntimeSettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshalling settings: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO settings (id, data, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		string(data), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}

// LoadSettings returns the stored runtime settings.
//
// Returns:
//   - error: ErrNotFound if nothing has been saved yet
func (r *SQLiteRepository) LoadSettings(ctx context.Context) (RuntimeSettings, error) {
	var data string
	err := r.db.QueryRowContext(ctx, "SELECT data FROM settings WHERE id = 1").Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return RuntimeSettings{}, ErrNotFound
	}
	if err != nil {
		return RuntimeSettings{}, fmt.Errorf("loading settings: %w", err)
	}

	var settings RuntimeSettings
	if err := json.Unmarshal([]byte(data), &settings); err != nil {
		return RuntimeSettings{}, fmt.Errorf("decoding settings: %w", err)
	}
	return settings, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}

// nullableString maps "" to NULL.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
