package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskAnalysisExecute = "analysis.execute"

// AnalysisExecutePayload identifies the audit row and case an analysis
// task operates on. The full request is read back from the database so
// the queue never carries raw AI payloads.
type AnalysisExecutePayload struct {
	OutputID string `json:"outputId"`
	CaseID   string `json:"caseId"`
}

func NewAnalysisExecuteTask(payload AnalysisExecutePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	// Retries are managed inside the handler; a failed task is final for asynq.
	return asynq.NewTask(TaskAnalysisExecute, data, asynq.MaxRetry(0)), nil
}

func ParseAnalysisExecutePayload(task *asynq.Task) (AnalysisExecutePayload, error) {
	var payload AnalysisExecutePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return AnalysisExecutePayload{}, err
	}
	return payload, nil
}
