package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type TaskType string

const (
	TaskTypeIngest           TaskType = "ingest"
	TaskTypeBackfillContent  TaskType = "backfill_content"
	TaskTypeSyncSourceConfig TaskType = "sync_source_config"
)

const DefaultMaxRetries = 3

// taskPolicy bounds each attempt of a task type and the number of retries
// after the first failure.
type taskPolicy struct {
	maxRetries int
	timeout    time.Duration
}

var policies = map[TaskType]taskPolicy{
	TaskTypeIngest:           {maxRetries: DefaultMaxRetries, timeout: 5 * time.Minute},
	TaskTypeBackfillContent:  {maxRetries: 0, timeout: time.Minute},
	TaskTypeSyncSourceConfig: {maxRetries: DefaultMaxRetries, timeout: 30 * time.Second},
}

var defaultPolicy = taskPolicy{maxRetries: DefaultMaxRetries, timeout: 5 * time.Minute}

type TaskInterface interface {
	Execute(ctx context.Context) error
	GetID() string
	GetType() TaskType
	GetSubject() string
	GetRetryCount() int
	GetMaxRetries() int
	GetTimeout() time.Duration
	IncrementRetryCount()
	CanRetry() bool
	Start()
	GetDuration() time.Duration
}

// Task carries the bookkeeping shared by every task. Subject names what the
// task works on: a source type, a source name or an article id.
type Task struct {
	ID         string
	Type       TaskType
	Subject    string
	RetryCount int
	MaxRetries int
	Timeout    time.Duration
	StartedAt  time.Time
}

func NewTask(taskType TaskType, subject string) Task {
	policy, ok := policies[taskType]
	if !ok {
		policy = defaultPolicy
	}

	return Task{
		ID:         uuid.NewString(),
		Type:       taskType,
		Subject:    subject,
		MaxRetries: policy.maxRetries,
		Timeout:    policy.timeout,
	}
}

func (t *Task) GetID() string {
	return t.ID
}

func (t *Task) GetType() TaskType {
	return t.Type
}

func (t *Task) GetSubject() string {
	return t.Subject
}

func (t *Task) GetRetryCount() int {
	return t.RetryCount
}

func (t *Task) GetMaxRetries() int {
	return t.MaxRetries
}

func (t *Task) GetTimeout() time.Duration {
	return t.Timeout
}

func (t *Task) IncrementRetryCount() {
	t.RetryCount++
}

func (t *Task) CanRetry() bool {
	return t.RetryCount < t.MaxRetries
}

func (t *Task) String() string {
	return fmt.Sprintf("%s(%s)", t.Type, t.Subject)
}

// Start stamps the beginning of the current attempt.
func (t *Task) Start() {
	t.StartedAt = time.Now()
}

// GetDuration reports how long the current attempt has run.
func (t *Task) GetDuration() time.Duration {
	if t.StartedAt.IsZero() {
		return 0
	}
	return time.Since(t.StartedAt)
}
