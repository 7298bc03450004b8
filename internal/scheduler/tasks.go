// Package scheduler runs delayed work through asynq: the only task today
// is the offer expiry sweep booked for a wave's TTL deadline.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskOfferSweep = "dispatch.offers.sweep"

type OfferSweepPayload struct {
	JobID string `json:"jobId"`
}

func NewOfferSweepTask(payload OfferSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOfferSweep, data), nil
}

func ParseOfferSweepPayload(task *asynq.Task) (OfferSweepPayload, error) {
	var payload OfferSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return OfferSweepPayload{}, err
	}
	return payload, nil
}
