package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yourname/healthday/internal"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS steps_samples (
	id          TEXT PRIMARY KEY,
	count       BIGINT NOT NULL CHECK (count >= 0),
	start_time  TIMESTAMPTZ NOT NULL,
	end_time    TIMESTAMPTZ NOT NULL,
	manual      BOOLEAN NOT NULL,
	device_kind TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_steps_start ON steps_samples(start_time);

CREATE TABLE IF NOT EXISTS heart_rate_records (
	id          TEXT PRIMARY KEY,
	start_time  TIMESTAMPTZ NOT NULL,
	end_time    TIMESTAMPTZ NOT NULL,
	manual      BOOLEAN NOT NULL,
	device_kind TEXT NOT NULL DEFAULT '',
	samples     JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_heart_rate_start ON heart_rate_records(start_time);

CREATE TABLE IF NOT EXISTS sleep_sessions (
	id          TEXT PRIMARY KEY,
	start_time  TIMESTAMPTZ NOT NULL,
	end_time    TIMESTAMPTZ NOT NULL,
	manual      BOOLEAN NOT NULL,
	device_kind TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_sleep_end ON sleep_sessions(end_time);
`

const pgOverlap = `((start_time < $2 AND end_time > $1) OR (start_time = end_time AND start_time >= $1 AND start_time < $2))`

type PostgresStorage struct {
	pool   *pgxpool.Pool
	logger internal.Logger
}

func NewPostgresStorage(ctx context.Context, dsn string, logger internal.Logger) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Errorf("failed to connect to postgres: %v", err)
		return nil, err
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		logger.Errorf("failed to create postgres schema: %v", err)
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return &PostgresStorage{pool: pool, logger: logger}, nil
}

func (p *PostgresStorage) Insert(ctx context.Context, records ...internal.Record) error {
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return internal.NewWriteError("insert", fmt.Errorf("%s record rejected: %w", r.Kind(), err))
		}
	}

	batch := &pgx.Batch{}
	for _, r := range records {
		switch rec := r.(type) {
		case internal.StepsSample:
			if rec.ID == "" {
				rec.ID = uuid.NewString()
			}
			batch.Queue(`INSERT INTO steps_samples (id, count, start_time, end_time, manual, device_kind) VALUES ($1, $2, $3, $4, $5, $6)`,
				rec.ID, rec.Count, rec.Interval.Start, rec.Interval.End, rec.Provenance.Manual, rec.Provenance.DeviceKind)
		case internal.HeartRateRecord:
			if rec.ID == "" {
				rec.ID = uuid.NewString()
			}
			samples, err := json.Marshal(rec.Samples)
			if err != nil {
				return internal.NewWriteError("insert", err)
			}
			batch.Queue(`INSERT INTO heart_rate_records (id, start_time, end_time, manual, device_kind, samples) VALUES ($1, $2, $3, $4, $5, $6)`,
				rec.ID, rec.Interval.Start, rec.Interval.End, rec.Provenance.Manual, rec.Provenance.DeviceKind, samples)
		case internal.SleepSession:
			if rec.ID == "" {
				rec.ID = uuid.NewString()
			}
			batch.Queue(`INSERT INTO sleep_sessions (id, start_time, end_time, manual, device_kind) VALUES ($1, $2, $3, $4, $5)`,
				rec.ID, rec.Interval.Start, rec.Interval.End, rec.Provenance.Manual, rec.Provenance.DeviceKind)
		default:
			return internal.NewWriteError("insert", fmt.Errorf("unsupported record type %T", r))
		}
	}

	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		p.logger.Errorf("failed to insert health records: %v", err)
		return internal.NewWriteError("insert", err)
	}
	return nil
}

func (p *PostgresStorage) ReadHeartRate(ctx context.Context, r internal.Interval) ([]internal.HeartRateRecord, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, start_time, end_time, manual, device_kind, samples FROM heart_rate_records WHERE `+pgOverlap+` ORDER BY start_time`,
		r.Start, r.End)
	if err != nil {
		p.logger.Errorf("failed to query heart rate: %v", err)
		return nil, internal.NewReadError("heart rate", err)
	}
	defer rows.Close()

	out := []internal.HeartRateRecord{}
	for rows.Next() {
		var (
			rec     internal.HeartRateRecord
			samples []byte
		)
		err := rows.Scan(&rec.ID, &rec.Interval.Start, &rec.Interval.End, &rec.Provenance.Manual, &rec.Provenance.DeviceKind, &samples)
		if err != nil {
			p.logger.Errorf("failed to scan heart rate record: %v", err)
			return nil, internal.NewReadError("heart rate", err)
		}
		if err := json.Unmarshal(samples, &rec.Samples); err != nil {
			return nil, internal.NewReadError("heart rate", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, internal.NewReadError("heart rate", err)
	}
	return out, nil
}

func (p *PostgresStorage) ReadSleepSessions(ctx context.Context, r internal.Interval) ([]internal.SleepSession, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, start_time, end_time, manual, device_kind FROM sleep_sessions WHERE `+pgOverlap+` ORDER BY start_time`,
		r.Start, r.End)
	if err != nil {
		p.logger.Errorf("failed to query sleep sessions: %v", err)
		return nil, internal.NewReadError("sleep sessions", err)
	}
	defer rows.Close()

	out := []internal.SleepSession{}
	for rows.Next() {
		var rec internal.SleepSession
		err := rows.Scan(&rec.ID, &rec.Interval.Start, &rec.Interval.End, &rec.Provenance.Manual, &rec.Provenance.DeviceKind)
		if err != nil {
			p.logger.Errorf("failed to scan sleep session: %v", err)
			return nil, internal.NewReadError("sleep sessions", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, internal.NewReadError("sleep sessions", err)
	}
	return out, nil
}

func (p *PostgresStorage) AggregateStepTotal(ctx context.Context, r internal.Interval) (*int64, error) {
	var total *int64
	row := p.pool.QueryRow(ctx, `SELECT SUM(count)::BIGINT FROM steps_samples WHERE start_time >= $1 AND start_time < $2`, r.Start, r.End)
	if err := row.Scan(&total); err != nil {
		p.logger.Errorf("failed to aggregate steps: %v", err)
		return nil, internal.NewReadError("steps aggregate", err)
	}
	return total, nil
}

func (p *PostgresStorage) DeleteSteps(ctx context.Context, r internal.Interval) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM steps_samples WHERE start_time >= $1 AND start_time < $2`, r.Start, r.End)
	if err != nil {
		p.logger.Errorf("failed to delete steps: %v", err)
		return internal.NewWriteError("delete steps", err)
	}
	p.logger.Debugf("storage: deleted %d steps samples", tag.RowsAffected())
	return nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

// --- Compile-time assertions ---
var _ Gateway = (*PostgresStorage)(nil)
