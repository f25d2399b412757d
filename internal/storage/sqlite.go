package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/yourname/healthday/internal"
	_ "modernc.org/sqlite"
)

// Times are stored as UTC unix nanoseconds so range predicates compare integers.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS steps_samples (
	id          TEXT PRIMARY KEY,
	count       INTEGER NOT NULL,
	start_time  INTEGER NOT NULL,
	end_time    INTEGER NOT NULL,
	manual      INTEGER NOT NULL,
	device_kind TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_steps_start ON steps_samples(start_time);

CREATE TABLE IF NOT EXISTS heart_rate_records (
	id           TEXT PRIMARY KEY,
	start_time   INTEGER NOT NULL,
	end_time     INTEGER NOT NULL,
	manual       INTEGER NOT NULL,
	device_kind  TEXT NOT NULL DEFAULT '',
	samples_json TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_heart_rate_start ON heart_rate_records(start_time);

CREATE TABLE IF NOT EXISTS sleep_sessions (
	id          TEXT PRIMARY KEY,
	start_time  INTEGER NOT NULL,
	end_time    INTEGER NOT NULL,
	manual      INTEGER NOT NULL,
	device_kind TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_sleep_end ON sleep_sessions(end_time);
`

const overlapPredicate = `((start_time < ? AND end_time > ?) OR (start_time = end_time AND start_time >= ? AND start_time < ?))`

type SQLiteStorage struct {
	db     *sql.DB
	logger internal.Logger
}

// NewSQLiteStorage opens (or creates) the database at dbPath and applies the schema.
func NewSQLiteStorage(dbPath string, logger internal.Logger) (*SQLiteStorage, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("open: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("open: create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+dbPath+"?mode=rwc&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open: sql open: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open: ping: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open: migrate: %w", err)
	}
	return &SQLiteStorage{db: db, logger: logger}, nil
}

func unixNano(t time.Time) int64 { return t.UTC().UnixNano() }

func fromUnixNano(n int64) time.Time { return time.Unix(0, n).UTC() }

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func overlapArgs(r internal.Interval) []any {
	return []any{unixNano(r.End), unixNano(r.Start), unixNano(r.Start), unixNano(r.End)}
}

func (s *SQLiteStorage) Insert(ctx context.Context, records ...internal.Record) error {
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return internal.NewWriteError("insert", fmt.Errorf("%s record rejected: %w", r.Kind(), err))
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return internal.NewWriteError("insert", err)
	}
	defer tx.Rollback()

	for _, r := range records {
		if err := s.insertOne(ctx, tx, r); err != nil {
			s.logger.Errorf("storage: failed to insert %s record: %v", r.Kind(), err)
			return internal.NewWriteError("insert", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return internal.NewWriteError("insert", err)
	}
	return nil
}

func (s *SQLiteStorage) insertOne(ctx context.Context, tx *sql.Tx, r internal.Record) error {
	switch rec := r.(type) {
	case internal.StepsSample:
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO steps_samples (id, count, start_time, end_time, manual, device_kind) VALUES (?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.Count, unixNano(rec.Interval.Start), unixNano(rec.Interval.End), boolInt(rec.Provenance.Manual), rec.Provenance.DeviceKind)
		return err
	case internal.HeartRateRecord:
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		samples, err := json.Marshal(rec.Samples)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO heart_rate_records (id, start_time, end_time, manual, device_kind, samples_json) VALUES (?, ?, ?, ?, ?, ?)`,
			rec.ID, unixNano(rec.Interval.Start), unixNano(rec.Interval.End), boolInt(rec.Provenance.Manual), rec.Provenance.DeviceKind, string(samples))
		return err
	case internal.SleepSession:
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO sleep_sessions (id, start_time, end_time, manual, device_kind) VALUES (?, ?, ?, ?, ?)`,
			rec.ID, unixNano(rec.Interval.Start), unixNano(rec.Interval.End), boolInt(rec.Provenance.Manual), rec.Provenance.DeviceKind)
		return err
	default:
		return fmt.Errorf("unsupported record type %T", r)
	}
}

func (s *SQLiteStorage) ReadHeartRate(ctx context.Context, r internal.Interval) ([]internal.HeartRateRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, start_time, end_time, manual, device_kind, samples_json FROM heart_rate_records WHERE `+overlapPredicate+` ORDER BY start_time`,
		overlapArgs(r)...)
	if err != nil {
		return nil, internal.NewReadError("heart rate", err)
	}
	defer rows.Close()

	out := []internal.HeartRateRecord{}
	for rows.Next() {
		var (
			rec         internal.HeartRateRecord
			start, end  int64
			manual      int
			samplesJSON string
		)
		if err := rows.Scan(&rec.ID, &start, &end, &manual, &rec.Provenance.DeviceKind, &samplesJSON); err != nil {
			return nil, internal.NewReadError("heart rate", err)
		}
		if err := json.Unmarshal([]byte(samplesJSON), &rec.Samples); err != nil {
			return nil, internal.NewReadError("heart rate", err)
		}
		rec.Interval = internal.Interval{Start: fromUnixNano(start), End: fromUnixNano(end)}
		rec.Provenance.Manual = manual == 1
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, internal.NewReadError("heart rate", err)
	}
	return out, nil
}

func (s *SQLiteStorage) ReadSleepSessions(ctx context.Context, r internal.Interval) ([]internal.SleepSession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, start_time, end_time, manual, device_kind FROM sleep_sessions WHERE `+overlapPredicate+` ORDER BY start_time`,
		overlapArgs(r)...)
	if err != nil {
		return nil, internal.NewReadError("sleep sessions", err)
	}
	defer rows.Close()

	out := []internal.SleepSession{}
	for rows.Next() {
		var (
			rec        internal.SleepSession
			start, end int64
			manual     int
		)
		if err := rows.Scan(&rec.ID, &start, &end, &manual, &rec.Provenance.DeviceKind); err != nil {
			return nil, internal.NewReadError("sleep sessions", err)
		}
		rec.Interval = internal.Interval{Start: fromUnixNano(start), End: fromUnixNano(end)}
		rec.Provenance.Manual = manual == 1
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, internal.NewReadError("sleep sessions", err)
	}
	return out, nil
}

func (s *SQLiteStorage) AggregateStepTotal(ctx context.Context, r internal.Interval) (*int64, error) {
	var (
		n     int64
		total sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), SUM(count) FROM steps_samples WHERE start_time >= ? AND start_time < ?`,
		unixNano(r.Start), unixNano(r.End)).Scan(&n, &total)
	if err != nil {
		return nil, internal.NewReadError("steps aggregate", err)
	}
	if n == 0 {
		return nil, nil
	}
	v := total.Int64
	return &v, nil
}

func (s *SQLiteStorage) DeleteSteps(ctx context.Context, r internal.Interval) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM steps_samples WHERE start_time >= ? AND start_time < ?`,
		unixNano(r.Start), unixNano(r.End))
	if err != nil {
		return internal.NewWriteError("delete steps", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		s.logger.Debugf("storage: deleted %d steps samples", n)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

var _ Gateway = (*SQLiteStorage)(nil)
