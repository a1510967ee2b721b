// Package queue publishes an event for every execution the daemon finishes,
// to NSQ locally and to SQS when a queue url is configured.
package queue

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

//go:generate mockgen -destination=mocks/publisher.go -package=mocks cpp-scratchpad/internal/queue Publisher

type ExecutionEvent struct {
	ID       string `json:"id"`
	FileName string `json:"file_name"`
	Status   string `json:"status"`
	Success  bool   `json:"success"`
	ExitCode int    `json:"exit_code"`

	CompileMs   int64 `json:"compile_ms"`
	RunMs       int64 `json:"run_ms"`
	MemoryBytes int64 `json:"memory_bytes"`

	FinishedAt time.Time `json:"finished_at"`
}

type Publisher interface {
	Publish(event *ExecutionEvent) error
	Stop()
}

type Config struct {
	Nsq *NsqConfig
	Sqs *SqsConfig

	// ForceLocalMode publishes to NSQ even when a SQS queue is configured.
	ForceLocalMode bool
}

// NewPublisher picks SQS when a queue url is set, otherwise NSQ when an
// address is set. Without either the events are only logged.
func NewPublisher(config *Config) (Publisher, error) {
	if !config.ForceLocalMode && config.Sqs != nil && config.Sqs.QueueURL != "" {
		return newSqsPublisher(config.Sqs)
	}

	if config.Nsq != nil && config.Nsq.Address != "" {
		return newNsqPublisher(config.Nsq)
	}

	return LogPublisher{}, nil
}

func encode(event *ExecutionEvent) ([]byte, error) {
	body, err := json.Marshal(event)
	return body, errors.Wrap(err, "failed to encode execution event")
}

// LogPublisher writes the events to the debug log.
type LogPublisher struct{}

func (LogPublisher) Publish(event *ExecutionEvent) error {
	log.Debug().
		Str("id", event.ID).
		Str("status", event.Status).
		Int64("compileMs", event.CompileMs).
		Int64("runMs", event.RunMs).
		Msg("execution finished")

	return nil
}

func (LogPublisher) Stop() {}
