package queue

import (
	"fmt"

	"github.com/nsqio/go-nsq"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type NsqConfig struct {
	Topic   string
	Address string
	Port    int
}

type producer interface {
	Publish(topic string, body []byte) error
	Stop()
}

type NsqPublisher struct {
	config   *NsqConfig
	producer producer
}

func newNsqPublisher(config *NsqConfig) (*NsqPublisher, error) {
	address := fmt.Sprintf("%s:%d", config.Address, config.Port)
	nsqProducer, err := nsq.NewProducer(address, nsq.NewConfig())

	if err != nil {
		return nil, errors.Wrap(err, "failed to create NSQ producer")
	}

	return &NsqPublisher{config: config, producer: nsqProducer}, nil
}

func (n *NsqPublisher) Publish(event *ExecutionEvent) error {
	body, err := encode(event)

	if err != nil {
		return err
	}

	if err := n.producer.Publish(n.config.Topic, body); err != nil {
		return errors.Wrapf(err, "failed to publish execution %s to NSQ", event.ID)
	}

	return nil
}

func (n *NsqPublisher) Stop() {
	log.Info().Msg("stopping NSQ producer")

	n.producer.Stop()
}
