package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type recordingRunner struct {
	id    primitive.ObjectID
	runID string
	err   error
}

func (r *recordingRunner) RunByID(_ context.Context, id primitive.ObjectID, runID string) error {
	r.id, r.runID = id, runID
	return r.err
}

func TestGenerateArchiveTaskRoundTrip(t *testing.T) {
	id := primitive.NewObjectID()
	task, err := NewGenerateArchiveTask(id.Hex(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, TypeGenerateArchive, task.Type())

	var p ArchivePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	assert.Equal(t, "run-1", p.RunID)

	runner := &recordingRunner{}
	require.NoError(t, HandleGenerateArchiveTask(runner)(context.Background(), task))
	assert.Equal(t, id, runner.id)
	assert.Equal(t, "run-1", runner.runID)
}

func TestHandlerSkipsRetryOnBadPayload(t *testing.T) {
	task := asynq.NewTask(TypeGenerateArchive, []byte(`{"submission_id":"nope","run_id":"r"}`))
	err := HandleGenerateArchiveTask(&recordingRunner{})(context.Background(), task)
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandlerPropagatesRunnerError(t *testing.T) {
	task, err := NewGenerateArchiveTask(primitive.NewObjectID().Hex(), "r")
	require.NoError(t, err)
	boom := errors.New("mongo down")
	err = HandleGenerateArchiveTask(&recordingRunner{err: boom})(context.Background(), task)
	assert.ErrorIs(t, err, boom)
}
