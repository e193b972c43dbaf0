// Package scheduler runs the periodic lead rescore job over asynq.
// Persisted scores include a recency component that decays with time, so the
// stored values drift stale; the rescore task brings them current.
package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskLeadRescore = "lead:rescore"

// LeadRescorePayload carries the enqueue time for observability.
type LeadRescorePayload struct {
	RequestedAt time.Time `json:"requestedAt"`
}

// NewLeadRescoreTask builds the rescore task.
func NewLeadRescoreTask(payload LeadRescorePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeadRescore, data), nil
}

// ParseLeadRescorePayload decodes the rescore task payload.
func ParseLeadRescorePayload(task *asynq.Task) (LeadRescorePayload, error) {
	var payload LeadRescorePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return LeadRescorePayload{}, err
	}
	return payload, nil
}
