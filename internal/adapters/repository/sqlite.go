package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/okian/siegeboard/internal/domain/model"
	"github.com/okian/siegeboard/pkg/logger"
	"github.com/okian/siegeboard/pkg/metrics"
)

const defaultKeepRuns = 3

const (
	createRunsTableSQL = `CREATE TABLE IF NOT EXISTS runs (
		run_id       TEXT PRIMARY KEY,
		collected_at INTEGER NOT NULL
	);`
	createRunYearsTableSQL = `CREATE TABLE IF NOT EXISTS run_years (
		run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
		year   INTEGER NOT NULL,
		PRIMARY KEY (run_id, year)
	);`
	createRecordsTableSQL = `CREATE TABLE IF NOT EXISTS siege_records (
		run_id    TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
		seq       INTEGER NOT NULL,
		year      INTEGER NOT NULL,
		date      TEXT NOT NULL,
		guild     TEXT NOT NULL,
		gm        TEXT NOT NULL,
		alliance1 TEXT NOT NULL,
		gm1       TEXT NOT NULL,
		alliance2 TEXT NOT NULL,
		gm2       TEXT NOT NULL,
		alliance3 TEXT NOT NULL,
		gm3       TEXT NOT NULL,
		alliance4 TEXT NOT NULL,
		gm4       TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	);`
	createRunsIndexSQL = `CREATE INDEX IF NOT EXISTS idx_runs_collected_desc ON runs (collected_at DESC);`

	insertRecordSQL = `INSERT INTO siege_records
		(run_id, seq, year, date, guild, gm, alliance1, gm1, alliance2, gm2, alliance3, gm3, alliance4, gm4)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	selectRecordsSQL = `SELECT year, date, guild, gm, alliance1, gm1, alliance2, gm2, alliance3, gm3, alliance4, gm4
		FROM siege_records WHERE run_id = ? ORDER BY seq`
)

// SQLiteStore keeps runs in a SQLite file.
type SQLiteStore struct {
	db       *sql.DB
	keepRuns int
	log      logger.Logger
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the archive at path.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	if path == "" {
		return nil, ErrNoPath
	}
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	// one writer; also keeps ":memory:" on a single database
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, keepRuns: defaultKeepRuns, log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}

	for _, q := range []string{createRunsTableSQL, createRunYearsTableSQL, createRecordsTableSQL, createRunsIndexSQL} {
		if _, err := db.ExecContext(ctx, q); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init archive schema: %w", err)
		}
	}
	return s, nil
}

// SaveRun implements Store.
func (s *SQLiteStore) SaveRun(ctx context.Context, data *model.SharedSiegeData) (err error) {
	if data == nil {
		return ErrNilRun
	}
	start := time.Now()
	defer func() {
		metrics.RecordArchiveWrite(err == nil)
	}()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, data.RunID); err != nil {
		return fmt.Errorf("replace run: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO runs (run_id, collected_at) VALUES (?, ?)`,
		data.RunID, data.CollectedAt.UnixNano()); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for _, y := range data.ByYear.Years() {
		if _, err = tx.ExecContext(ctx, `INSERT INTO run_years (run_id, year) VALUES (?, ?)`, data.RunID, y); err != nil {
			return fmt.Errorf("insert year %d: %w", y, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, insertRecordSQL)
	if err != nil {
		return fmt.Errorf("prepare records: %w", err)
	}
	defer stmt.Close()
	for i, r := range data.AllRecords {
		if _, err = stmt.ExecContext(ctx, data.RunID, i, r.Year, r.Date, r.Guild, r.GM,
			r.Alliance1, r.GM1, r.Alliance2, r.GM2, r.Alliance3, r.GM3, r.Alliance4, r.GM4); err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM runs WHERE run_id NOT IN
		(SELECT run_id FROM runs ORDER BY collected_at DESC LIMIT ?)`, s.keepRuns); err != nil {
		return fmt.Errorf("prune runs: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	s.log.Debug(ctx, "run archived",
		logger.String("run_id", data.RunID),
		logger.Int("records", len(data.AllRecords)),
		logger.Duration("took", time.Since(start)))
	return nil
}

// LatestRun implements Store.
func (s *SQLiteStore) LatestRun(ctx context.Context) (*model.SharedSiegeData, error) {
	var (
		runID string
		nanos int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, collected_at FROM runs ORDER BY collected_at DESC LIMIT 1`).Scan(&runID, &nanos)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}

	data := &model.SharedSiegeData{
		AllRecords:  []model.SiegeRecord{},
		ByYear:      model.YearlyRecordSet{},
		CollectedAt: time.Unix(0, nanos),
		RunID:       runID,
	}

	// the pool holds one connection, so each result set is drained before the next query
	if err := s.loadYears(ctx, runID, data.ByYear); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, selectRecordsSQL, runID)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var r model.SiegeRecord
		if err := rows.Scan(&r.Year, &r.Date, &r.Guild, &r.GM,
			&r.Alliance1, &r.GM1, &r.Alliance2, &r.GM2, &r.Alliance3, &r.GM3, &r.Alliance4, &r.GM4); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		data.AllRecords = append(data.AllRecords, r)
		data.ByYear[r.Year] = append(data.ByYear[r.Year], r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	return data, nil
}

func (s *SQLiteStore) loadYears(ctx context.Context, runID string, byYear model.YearlyRecordSet) error {
	rows, err := s.db.QueryContext(ctx, `SELECT year FROM run_years WHERE run_id = ? ORDER BY year`, runID)
	if err != nil {
		return fmt.Errorf("load years: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return fmt.Errorf("scan year: %w", err)
		}
		byYear[y] = []model.SiegeRecord{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load years: %w", err)
	}
	return nil
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
