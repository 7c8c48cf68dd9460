// Package store records training runs and predictions in a SQL ledger.
package store

import (
	"fmt"
	"log"
	"time"

	"grape-thinning/internal/forest"
)

// TrainingRun describes one completed training pipeline run.
type TrainingRun struct {
	ID        int64
	Created   time.Time
	Params    forest.Params
	CVScore   float64
	RMSE      float64
	TrainRows int
	TestRows  int
	ModelPath string
}

// Prediction is one image's inference outcome.
type Prediction struct {
	ID        int64
	Created   time.Time
	Image     string
	Predicted int
	Thinning  bool
	ModelPath string
}

// Store persists the ledger.
type Store interface {
	CreateSchema() error
	RecordTrainingRun(run TrainingRun) (int64, error)
	RecordPredictions(preds []Prediction) error
	ListTrainingRuns() ([]TrainingRun, error)
	ListPredictions() ([]Prediction, error)
	Close() error
}

// NewStore opens the ledger for the given backend and ensures its schema exists.
func NewStore(storeType, connectionString string) (s Store, err error) {
	switch storeType {
	case "sqlite":
		s, err = NewSQLiteStore(connectionString)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", storeType)
	}

	log.Print("initializing ledger schema (ensuring tables exist)")
	if err := s.CreateSchema(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to create ledger schema: %w", err)
	}
	return s, nil
}
