package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"grape-thinning/internal/forest"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a Store backed by modernc.org/sqlite.
type SQLiteStore struct {
	db               *sql.DB
	connectionString string
}

// NewSQLiteStore opens (or creates) the SQLite database at connectionString.
func NewSQLiteStore(connectionString string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	return &SQLiteStore{
		db:               db,
		connectionString: connectionString,
	}, nil
}

func (s *SQLiteStore) CreateSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS training_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created INTEGER NOT NULL,
		params TEXT NOT NULL,
		cv_score REAL NOT NULL,
		rmse REAL NOT NULL,
		train_rows INTEGER NOT NULL,
		test_rows INTEGER NOT NULL,
		model_path TEXT NOT NULL
	)`)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`CREATE TABLE IF NOT EXISTS predictions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created INTEGER NOT NULL,
		image TEXT NOT NULL,
		predicted INTEGER NOT NULL,
		thinning INTEGER NOT NULL,
		model_path TEXT NOT NULL
	)`)
	return err
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) RecordTrainingRun(run TrainingRun) (int64, error) {
	params, err := json.Marshal(run.Params)
	if err != nil {
		return 0, fmt.Errorf("failed to encode params: %w", err)
	}
	if run.Created.IsZero() {
		run.Created = time.Now()
	}

	res, err := s.db.Exec(`INSERT INTO training_runs
		(created, params, cv_score, rmse, train_rows, test_rows, model_path)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.Created.UnixNano(), string(params), run.CVScore, run.RMSE, run.TrainRows, run.TestRows, run.ModelPath)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// RecordPredictions inserts every prediction in a single transaction.
func (s *SQLiteStore) RecordPredictions(preds []Prediction) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() // no-op after Commit
	}()

	stmt, err := tx.Prepare(`INSERT INTO predictions
		(created, image, predicted, thinning, model_path) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, p := range preds {
		created := p.Created
		if created.IsZero() {
			created = now
		}
		if _, err := stmt.Exec(created.UnixNano(), p.Image, p.Predicted, p.Thinning, p.ModelPath); err != nil {
			return fmt.Errorf("failed to record prediction for %s: %w", p.Image, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListTrainingRuns() ([]TrainingRun, error) {
	rows, err := s.db.Query(`SELECT id, created, params, cv_score, rmse, train_rows, test_rows, model_path
		FROM training_runs ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var runs []TrainingRun
	for rows.Next() {
		var run TrainingRun
		var created int64
		var params string
		if err := rows.Scan(&run.ID, &created, &params, &run.CVScore, &run.RMSE,
			&run.TrainRows, &run.TestRows, &run.ModelPath); err != nil {
			return nil, err
		}
		run.Created = time.Unix(0, created)
		var p forest.Params
		if err := json.Unmarshal([]byte(params), &p); err != nil {
			return nil, fmt.Errorf("training run %d: %w", run.ID, err)
		}
		run.Params = p
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) ListPredictions() ([]Prediction, error) {
	rows, err := s.db.Query(`SELECT id, created, image, predicted, thinning, model_path
		FROM predictions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var preds []Prediction
	for rows.Next() {
		var p Prediction
		var created int64
		if err := rows.Scan(&p.ID, &created, &p.Image, &p.Predicted, &p.Thinning, &p.ModelPath); err != nil {
			return nil, err
		}
		p.Created = time.Unix(0, created)
		preds = append(preds, p)
	}
	return preds, rows.Err()
}
