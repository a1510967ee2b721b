package queue

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	"github.com/pkg/errors"
)

type SqsConfig struct {
	QueueURL string
}

type SqsPublisher struct {
	config *SqsConfig
	sqs    sqsiface.SQSAPI
}

func newSqsPublisher(config *SqsConfig) (*SqsPublisher, error) {
	sess, err := session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	})

	if err != nil {
		return nil, errors.Wrap(err, "failed to create aws session")
	}

	return &SqsPublisher{config: config, sqs: sqs.New(sess)}, nil
}

func (s *SqsPublisher) Publish(event *ExecutionEvent) error {
	body, err := encode(event)

	if err != nil {
		return err
	}

	_, err = s.sqs.SendMessage(&sqs.SendMessageInput{
		MessageBody: aws.String(string(body)),
		QueueUrl:    aws.String(s.config.QueueURL),
	})

	return errors.Wrapf(err, "failed to publish execution %s to SQS", event.ID)
}

func (s *SqsPublisher) Stop() {}
