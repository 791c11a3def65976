// Package catalog keeps a durable sqlite record of ingestion runs and the
// band artifact sets they produced. The catalog is operational metadata
// only; the artifact store remains the source of truth for spectral data.
package catalog

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/juney329/mancat-v2/internal/quant"
)

//go:embed schema.sql
var schemaSQL string

const (
	insertRunSQL = `
INSERT INTO runs (started_at, data_dir, db_min, db_max, scale, inputs)
VALUES (CURRENT_TIMESTAMP, ?, ?, ?, ?, ?)`

	insertBandSQL = `
INSERT INTO bands (run_id, band_id, f_start, f_stop, n_traces, n_freqs, resampled)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	selectRunsSQL = `
SELECT
    id,
    started_at,
    data_dir,
    db_min,
    db_max,
    scale,
    inputs
FROM runs
ORDER BY id`

	selectRunBandsSQL = `
SELECT
    id,
    run_id,
    band_id,
    f_start,
    f_stop,
    n_traces,
    n_freqs,
    resampled
FROM bands
WHERE
    run_id = ?
ORDER BY id`
)

// Store handles catalog database operations. Connections are opened lazily,
// split between a WAL write connection and a read-only connection.
type Store struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// New creates a catalog store for the database at dbPath. The schema is
// initialized on first write.
func New(dbPath string) (*Store, error) {
	return &Store{dbPath: dbPath}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(schemaSQL)
	return err
}

func (s *Store) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", s.dbPath+"?_journal_mode=WAL&_synchronous=NORMAL")
		if err != nil {
			s.writeDBErr = err
			return
		}

		if err = initSchema(db); err != nil {
			_ = db.Close()
			s.writeDBErr = err
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *Store) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", s.dbPath+"?mode=ro")
		if err != nil {
			s.readDBErr = err
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

// BeginRun records the start of an ingestion batch and returns its ID.
func (s *Store) BeginRun(dataDir string, params quant.Params, inputs int) (runID int64, err error) {
	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	stmt, err := db.Prepare(insertRunSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer func() {
		if cErr := stmt.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("closing statement: %w", cErr)
		}
	}()

	result, err := stmt.Exec(dataDir, params.DBMin, params.DBMax, params.Scale, inputs)
	if err != nil {
		err = fmt.Errorf("inserting run: %w", err)
		return
	}

	return result.LastInsertId()
}

// RecordBands records every band a run produced in a single transaction.
func (s *Store) RecordBands(runID int64, bands []BandRecord) (err error) {
	if len(bands) == 0 {
		return
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.Prepare(insertBandSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer func() {
		if cErr := stmt.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("closing statement: %w", cErr)
		}
	}()

	for _, band := range bands {
		_, err = stmt.Exec(
			runID,
			band.BandID,
			band.FreqStart,
			band.FreqStop,
			band.NumTraces,
			band.NumFreqs,
			band.Resampled,
		)
		if err != nil {
			return fmt.Errorf("inserting band record: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return
}

// Runs returns every recorded ingestion run, oldest first.
func (s *Store) Runs() (runs []Run, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.Query(selectRunsSQL)
	if err != nil {
		err = fmt.Errorf("querying runs: %w", err)
		return
	}
	defer func() {
		if cErr := rows.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", cErr)
		}
	}()

	for rows.Next() {
		var run Run
		if err = rows.Scan(&run.ID, &run.StartedAt, &run.DataDir, &run.DBMin, &run.DBMax, &run.Scale, &run.Inputs); err != nil {
			err = fmt.Errorf("scanning run: %w", err)
			return
		}
		runs = append(runs, run)
	}
	err = rows.Err()
	return
}

// RunBands returns the band records a run produced.
func (s *Store) RunBands(runID int64) (bands []BandRecord, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	stmt, err := db.Prepare(selectRunBandsSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer func() {
		if cErr := stmt.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("closing statement: %w", cErr)
		}
	}()

	rows, err := stmt.Query(runID)
	if err != nil {
		err = fmt.Errorf("querying band records: %w", err)
		return
	}
	defer func() {
		if cErr := rows.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", cErr)
		}
	}()

	for rows.Next() {
		var band BandRecord
		if err = rows.Scan(&band.ID, &band.RunID, &band.BandID, &band.FreqStart, &band.FreqStop, &band.NumTraces, &band.NumFreqs, &band.Resampled); err != nil {
			err = fmt.Errorf("scanning band record: %w", err)
			return
		}
		bands = append(bands, band)
	}
	err = rows.Err()
	return
}

// Close closes the database connections.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		switch {
		case writeErr != nil && readErr != nil:
			s.closeErr = errors.Join(writeErr, readErr)
		case writeErr != nil:
			s.closeErr = writeErr
		case readErr != nil:
			s.closeErr = readErr
		}
	})

	return s.closeErr
}
