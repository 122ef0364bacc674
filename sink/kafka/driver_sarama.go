package kafka

import (
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"actionkit/internal/spec"
	"actionkit/sink"
)

type Config struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	Acks    int16    `yaml:"required_acks"` // 0,1,-1
	Version string   `yaml:"version"`
}

// message is the value published per action; the key is the action ID.
type message struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Path   string `json:"path"`
	Target string `json:"target"`
	Key    string `json:"key"`
}

var newProducer = func(brokers []string, sc *sarama.Config) (sarama.SyncProducer, error) {
	return sarama.NewSyncProducer(brokers, sc)
}

type driver struct {
	cfg Config
	p   sarama.SyncProducer
}

func (d *driver) Configure(raw any) error {
	var cfg Config
	if v, ok := raw.(Config); ok {
		cfg = v
	} else if err := spec.Decode(raw, &cfg); err != nil {
		return fmt.Errorf("kafka-sink: %w", err)
	}
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return fmt.Errorf("kafka-sink: brokers and topic are required")
	}
	d.cfg = cfg

	sc := sarama.NewConfig()
	sc.Producer.RequiredAcks = sarama.RequiredAcks(cfg.Acks)
	sc.Producer.Return.Successes = true
	if cfg.Version != "" {
		ver, err := sarama.ParseKafkaVersion(cfg.Version)
		if err != nil {
			return fmt.Errorf("kafka-sink: %w", err)
		}
		sc.Version = ver
	}
	var err error
	d.p, err = newProducer(cfg.Brokers, sc)
	return err
}

func (d *driver) Push(r sink.Record) error {
	if len(r.Actions) == 0 {
		return nil
	}
	msgs := make([]*sarama.ProducerMessage, 0, len(r.Actions))
	for _, a := range r.Actions {
		v, err := json.Marshal(message{ID: a.ID, Name: a.Name, Path: r.Path, Target: r.Target, Key: r.Key})
		if err != nil {
			return err
		}
		msgs = append(msgs, &sarama.ProducerMessage{
			Topic: d.cfg.Topic,
			Key:   sarama.StringEncoder(a.ID),
			Value: sarama.ByteEncoder(v),
		})
	}
	if err := d.p.SendMessages(msgs); err != nil {
		return fmt.Errorf("kafka-sink: %w", err)
	}
	return nil
}

func (d *driver) Close() error {
	if d.p == nil {
		return nil
	}
	p := d.p
	d.p = nil
	return p.Close()
}

func init() { sink.Register("kafka", func() sink.Adapter { return &driver{} }) }
