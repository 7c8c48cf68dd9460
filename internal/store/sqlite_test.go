package store

import (
	"path/filepath"
	"testing"

	"grape-thinning/internal/forest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) Store {
	t.Helper()

	s, err := NewStore("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestNewStore_UnsupportedDriver(t *testing.T) {
	_, err := NewStore("postgres", "")
	assert.Error(t, err)
}

func TestSQLite_TrainingRuns(t *testing.T) {
	s := newTestStore(t)

	params := forest.Params{NEstimators: 50, MaxDepth: 8, MinSamplesLeaf: 12, MinSamplesSplit: 16}
	id, err := s.RecordTrainingRun(TrainingRun{
		Params:    params,
		CVScore:   0.71,
		RMSE:      4.5,
		TrainRows: 90,
		TestRows:  10,
		ModelPath: "regressor_model.json",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	runs, err := s.ListTrainingRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, params, runs[0].Params)
	assert.Equal(t, 4.5, runs[0].RMSE)
	assert.Equal(t, 90, runs[0].TrainRows)
	assert.False(t, runs[0].Created.IsZero())
}

func TestSQLite_Predictions(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.RecordPredictions([]Prediction{
		{Image: "a.jpg", Predicted: 50, Thinning: false, ModelPath: "m.json"},
		{Image: "b.jpg", Predicted: 51, Thinning: true, ModelPath: "m.json"},
	}))

	preds, err := s.ListPredictions()
	require.NoError(t, err)
	require.Len(t, preds, 2)
	assert.Equal(t, "a.jpg", preds[0].Image)
	assert.False(t, preds[0].Thinning)
	assert.Equal(t, 51, preds[1].Predicted)
	assert.True(t, preds[1].Thinning)
}

func TestSQLite_FileDatabasePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	s, err := NewStore("sqlite", path)
	require.NoError(t, err)
	require.NoError(t, s.RecordPredictions([]Prediction{{Image: "a.jpg", Predicted: 3}}))
	require.NoError(t, s.Close())

	s, err = NewStore("sqlite", path)
	require.NoError(t, err)
	defer s.Close()
	preds, err := s.ListPredictions()
	require.NoError(t, err)
	assert.Len(t, preds, 1)
}
