package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"sleepsun/internal/modules/record/domain"
	recordout "sleepsun/internal/modules/record/port/out"
	apperrors "sleepsun/internal/platform/errors"

	_ "modernc.org/sqlite"
)

const MemoryPath = ":memory:"

// SQLiteDatabase stores records in an embedded SQLite file. A single
// connection serialises transactions, which also keeps :memory: databases
// alive for the lifetime of the handle.
type SQLiteDatabase struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

type sqliteTxKey struct{}

type sqliteTx struct {
	owner *SQLiteDatabase
	tx    *sql.Tx
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func NewSQLiteDatabase(path string) recordout.Database {
	return &SQLiteDatabase{path: path}
}

func (s *SQLiteDatabase) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return nil
	}
	dsn := s.path
	if s.path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
			return fmt.Errorf("create db dir: %w", err)
		}
		dsn += "?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return err
	}
	s.db = db
	return nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS sleep_sessions (
  id TEXT PRIMARY KEY,
  start INTEGER NOT NULL,
  "end" INTEGER NOT NULL,
  lat REAL,
  lon REAL,
  created_at INTEGER NOT NULL,
  updated_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_sleep_end_start ON sleep_sessions ("end", start);
CREATE TABLE IF NOT EXISTS sun_times (
  lat REAL NOT NULL,
  lon REAL NOT NULL,
  date TEXT NOT NULL,
  sunrise INTEGER NOT NULL,
  sunset INTEGER NOT NULL,
  daylength INTEGER,
  updated_at INTEGER,
  PRIMARY KEY (lat, lon, date)
);
`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteDatabase) handle(ctx context.Context) (queryer, error) {
	if current, ok := ctx.Value(sqliteTxKey{}).(*sqliteTx); ok && current.owner == s {
		return current.tx, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, apperrors.ErrUninitialized
	}
	return s.db, nil
}

func (s *SQLiteDatabase) Within(ctx context.Context, fn func(context.Context) error) error {
	if current, ok := ctx.Value(sqliteTxKey{}).(*sqliteTx); ok && current.owner == s {
		return fn(ctx)
	}
	s.mu.RLock()
	db := s.db
	s.mu.RUnlock()
	if db == nil {
		return apperrors.ErrUninitialized
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(context.WithValue(ctx, sqliteTxKey{}, &sqliteTx{owner: s, tx: tx})); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) UpsertSleep(ctx context.Context, session domain.SleepSession) error {
	q, err := s.handle(ctx)
	if err != nil {
		return err
	}
	const stmt = `
INSERT INTO sleep_sessions (id, start, "end", lat, lon, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  start=excluded.start,
  "end"=excluded."end",
  lat=excluded.lat,
  lon=excluded.lon,
  created_at=excluded.created_at,
  updated_at=excluded.updated_at;
`
	_, err = q.ExecContext(ctx, stmt,
		session.ID,
		session.Start,
		session.End,
		nullFloat(session.Lat),
		nullFloat(session.Lon),
		session.CreatedAt,
		nullInt(session.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert sleep session: %w", err)
	}
	return nil
}

const sleepColumns = `id, start, "end", lat, lon, created_at, updated_at`

func (s *SQLiteDatabase) GetSleep(ctx context.Context, id string) (domain.SleepSession, error) {
	q, err := s.handle(ctx)
	if err != nil {
		return domain.SleepSession{}, err
	}
	row := q.QueryRowContext(ctx, `SELECT `+sleepColumns+` FROM sleep_sessions WHERE id = ?`, id)
	session, err := scanSleep(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SleepSession{}, fmt.Errorf("%w: sleep session %s", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return domain.SleepSession{}, fmt.Errorf("get sleep session: %w", err)
	}
	return session, nil
}

func (s *SQLiteDatabase) DeleteSleep(ctx context.Context, id string) (bool, error) {
	q, err := s.handle(ctx)
	if err != nil {
		return false, err
	}
	res, err := q.ExecContext(ctx, `DELETE FROM sleep_sessions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete sleep session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete sleep session: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteDatabase) ListSleep(ctx context.Context, start, end int64, mode domain.MatchMode) ([]domain.SleepSession, error) {
	where := `"end" >= ? AND start <= ?`
	if mode == domain.MatchContained {
		where = `start >= ? AND "end" <= ?`
	}
	return s.querySleep(ctx, `SELECT `+sleepColumns+` FROM sleep_sessions WHERE `+where+` ORDER BY "end", id`, start, end)
}

func (s *SQLiteDatabase) AllSleep(ctx context.Context) ([]domain.SleepSession, error) {
	return s.querySleep(ctx, `SELECT `+sleepColumns+` FROM sleep_sessions ORDER BY "end", id`)
}

func (s *SQLiteDatabase) CountSleep(ctx context.Context) (int, error) {
	q, err := s.handle(ctx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM sleep_sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sleep sessions: %w", err)
	}
	return n, nil
}

func (s *SQLiteDatabase) querySleep(ctx context.Context, query string, args ...any) ([]domain.SleepSession, error) {
	q, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sleep sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []domain.SleepSession{}
	for rows.Next() {
		session, err := scanSleep(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sleep session: %w", err)
		}
		out = append(out, session)
	}
	return out, rows.Err()
}

func (s *SQLiteDatabase) UpsertSun(ctx context.Context, sun domain.SunTimes) error {
	q, err := s.handle(ctx)
	if err != nil {
		return err
	}
	const stmt = `
INSERT INTO sun_times (lat, lon, date, sunrise, sunset, daylength, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(lat, lon, date) DO UPDATE SET
  sunrise=excluded.sunrise,
  sunset=excluded.sunset,
  daylength=excluded.daylength,
  updated_at=excluded.updated_at;
`
	var daylength *int64
	if sun.Daylength > 0 {
		daylength = &sun.Daylength
	}
	_, err = q.ExecContext(ctx, stmt,
		domain.RoundCoordinate(sun.Lat),
		domain.RoundCoordinate(sun.Lon),
		sun.Date,
		sun.Sunrise,
		sun.Sunset,
		nullInt(daylength),
		nullInt(sun.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert sun times: %w", err)
	}
	return nil
}

const sunColumns = `date, lat, lon, sunrise, sunset, daylength, updated_at`

func (s *SQLiteDatabase) GetSun(ctx context.Context, key domain.SunKey) (domain.SunTimes, error) {
	q, err := s.handle(ctx)
	if err != nil {
		return domain.SunTimes{}, err
	}
	row := q.QueryRowContext(ctx, `SELECT `+sunColumns+` FROM sun_times WHERE lat = ? AND lon = ? AND date = ?`,
		domain.RoundCoordinate(key.Lat), domain.RoundCoordinate(key.Lon), key.Date)
	sun, err := scanSun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SunTimes{}, fmt.Errorf("%w: sun times %s", apperrors.ErrNotFound, key)
	}
	if err != nil {
		return domain.SunTimes{}, fmt.Errorf("get sun times: %w", err)
	}
	return sun, nil
}

func (s *SQLiteDatabase) ListSun(ctx context.Context, lat, lon float64, dateStart, dateEnd string) ([]domain.SunTimes, error) {
	return s.querySun(ctx, `SELECT `+sunColumns+` FROM sun_times WHERE lat = ? AND lon = ? AND date >= ? AND date <= ? ORDER BY date`,
		domain.RoundCoordinate(lat), domain.RoundCoordinate(lon), dateStart, dateEnd)
}

func (s *SQLiteDatabase) AllSun(ctx context.Context) ([]domain.SunTimes, error) {
	return s.querySun(ctx, `SELECT `+sunColumns+` FROM sun_times ORDER BY date, lat, lon`)
}

func (s *SQLiteDatabase) querySun(ctx context.Context, query string, args ...any) ([]domain.SunTimes, error) {
	q, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sun times: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []domain.SunTimes{}
	for rows.Next() {
		sun, err := scanSun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sun times: %w", err)
		}
		out = append(out, sun)
	}
	return out, rows.Err()
}

func (s *SQLiteDatabase) ClearAll(ctx context.Context) error {
	return s.Within(ctx, func(ctx context.Context) error {
		q, err := s.handle(ctx)
		if err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM sleep_sessions`); err != nil {
			return fmt.Errorf("clear sleep sessions: %w", err)
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM sun_times`); err != nil {
			return fmt.Errorf("clear sun times: %w", err)
		}
		return nil
	})
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSleep(row scanner) (domain.SleepSession, error) {
	var (
		session   domain.SleepSession
		lat, lon  sql.NullFloat64
		updatedAt sql.NullInt64
	)
	if err := row.Scan(&session.ID, &session.Start, &session.End, &lat, &lon, &session.CreatedAt, &updatedAt); err != nil {
		return domain.SleepSession{}, err
	}
	session.Lat = floatPtr(lat)
	session.Lon = floatPtr(lon)
	session.UpdatedAt = intPtr(updatedAt)
	return session, nil
}

func scanSun(row scanner) (domain.SunTimes, error) {
	var (
		sun       domain.SunTimes
		daylength sql.NullInt64
		updatedAt sql.NullInt64
	)
	if err := row.Scan(&sun.Date, &sun.Lat, &sun.Lon, &sun.Sunrise, &sun.Sunset, &daylength, &updatedAt); err != nil {
		return domain.SunTimes{}, err
	}
	if daylength.Valid {
		sun.Daylength = daylength.Int64
	}
	sun.UpdatedAt = intPtr(updatedAt)
	return sun, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func intPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}
