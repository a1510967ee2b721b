package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducer struct {
	topic   string
	body    []byte
	err     error
	stopped bool
}

func (f *fakeProducer) Publish(topic string, body []byte) error {
	f.topic = topic
	f.body = body
	return f.err
}

func (f *fakeProducer) Stop() {
	f.stopped = true
}

type fakeSqs struct {
	sqsiface.SQSAPI
	input *sqs.SendMessageInput
}

func (f *fakeSqs) SendMessage(input *sqs.SendMessageInput) (*sqs.SendMessageOutput, error) {
	f.input = input
	return &sqs.SendMessageOutput{}, nil
}

func event() *ExecutionEvent {
	return &ExecutionEvent{
		ID:         "c5b1f9a0-52d4-4a62-9d43-4b8e5f1c2a77",
		FileName:   "main.cpp",
		Status:     "completed",
		Success:    true,
		CompileMs:  420,
		RunMs:      12,
		FinishedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNsqPublisher(t *testing.T) {
	fake := &fakeProducer{}
	publisher := &NsqPublisher{config: &NsqConfig{Topic: "executions"}, producer: fake}

	require.NoError(t, publisher.Publish(event()))
	assert.Equal(t, "executions", fake.topic)

	var decoded ExecutionEvent
	require.NoError(t, json.Unmarshal(fake.body, &decoded))
	assert.Equal(t, "main.cpp", decoded.FileName)
	assert.Equal(t, int64(420), decoded.CompileMs)

	fake.err = errors.New("nsqd gone")
	assert.ErrorContains(t, publisher.Publish(event()), "failed to publish execution")

	publisher.Stop()
	assert.True(t, fake.stopped)
}

func TestSqsPublisher(t *testing.T) {
	fake := &fakeSqs{}
	publisher := &SqsPublisher{config: &SqsConfig{QueueURL: "https://sqs.eu-west-1.amazonaws.com/1/executions"}, sqs: fake}

	require.NoError(t, publisher.Publish(event()))
	assert.Equal(t, "https://sqs.eu-west-1.amazonaws.com/1/executions", aws.StringValue(fake.input.QueueUrl))
	assert.Contains(t, aws.StringValue(fake.input.MessageBody), `"status":"completed"`)
}

func TestNewPublisherWithoutQueues(t *testing.T) {
	publisher, err := NewPublisher(&Config{})

	require.NoError(t, err)
	assert.IsType(t, LogPublisher{}, publisher)
	assert.NoError(t, publisher.Publish(event()))
}
