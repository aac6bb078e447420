package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TypeGenerateArchive = "archive:generate"

type ArchivePayload struct {
	SubmissionID string `json:"submission_id"`
	RunID        string `json:"run_id"`
}

func NewGenerateArchiveTask(submissionID, runID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ArchivePayload{SubmissionID: submissionID, RunID: runID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeGenerateArchive, payload), nil
}
