package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"Backend-QA-Portal/src/logger"

	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ArchiveRunner executes one claimed archive run.
type ArchiveRunner interface {
	RunByID(ctx context.Context, id primitive.ObjectID, runID string) error
}

// AsynqDispatcher queues archive runs on Redis.
type AsynqDispatcher struct {
	client *asynq.Client
}

func NewAsynqDispatcher(client *asynq.Client) *AsynqDispatcher {
	return &AsynqDispatcher{client: client}
}

func (d *AsynqDispatcher) Dispatch(ctx context.Context, submissionID, runID string) error {
	task, err := NewGenerateArchiveTask(submissionID, runID)
	if err != nil {
		return err
	}
	// runId เป็น TaskID กัน enqueue ซ้ำ
	_, err = d.client.EnqueueContext(ctx, task, asynq.TaskID("archive-"+runID), asynq.MaxRetry(3))
	return err
}

func HandleGenerateArchiveTask(runner ArchiveRunner) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		log := logger.Component("jobs")
		log.Info().Str("type", t.Type()).Msg("🎯 Start task handler")

		var payload ArchivePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			log.Error().Err(err).Msg("❌ Payload decode error")
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		id, err := primitive.ObjectIDFromHex(payload.SubmissionID)
		if err != nil {
			return fmt.Errorf("%w: invalid submission id %q", asynq.SkipRetry, payload.SubmissionID)
		}

		if err := runner.RunByID(ctx, id, payload.RunID); err != nil {
			log.Error().Err(err).Str("submission", payload.SubmissionID).Str("run", payload.RunID).Msg("❌ archive task failed")
			return err
		}
		log.Info().Str("submission", payload.SubmissionID).Str("run", payload.RunID).Msg("✅ archive task done")
		return nil
	}
}

// NewWorker builds the in-process asynq server that serves archive tasks.
func NewWorker(redisAddr string, runner ArchiveRunner, concurrency int) (*asynq.Server, *asynq.ServeMux) {
	if concurrency <= 0 {
		concurrency = 2
	}
	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: redisAddr}, asynq.Config{Concurrency: concurrency})
	mux := asynq.NewServeMux()
	mux.Handle(TypeGenerateArchive, HandleGenerateArchiveTask(runner))
	return srv, mux
}
