package stream

import (
	"log/slog"
	"sync"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

const flushTimeoutMs = 5000

type KafkaStream struct {
	kafkaServers string
	logger       *slog.Logger

	mu       sync.Mutex
	producer *kafka.Producer
}

func New(kafkaServers string, logger *slog.Logger) *KafkaStream {
	return &KafkaStream{
		kafkaServers: kafkaServers,
		logger:       logger,
	}
}

// ProduceMessage queues message on topic. Delivery is asynchronous; failures are
// reported through the producer's event channel and logged there.
func (st *KafkaStream) ProduceMessage(topic, message string) error {
	producer, err := st.getProducer()
	if err != nil {
		return err
	}

	err = producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          []byte(message),
	}, nil)
	if err != nil {
		st.logger.Error("failed to produce message", "topic", topic, "error", err.Error())
		return err
	}

	return nil
}

func (st *KafkaStream) getProducer() (*kafka.Producer, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.producer != nil {
		return st.producer, nil
	}

	producer, err := kafka.NewProducer(&kafka.ConfigMap{"bootstrap.servers": st.kafkaServers})
	if err != nil {
		return nil, err
	}

	go st.watchDeliveries(producer)

	st.producer = producer
	return producer, nil
}

func (st *KafkaStream) watchDeliveries(producer *kafka.Producer) {
	for event := range producer.Events() {
		switch e := event.(type) {
		case *kafka.Message:
			if e.TopicPartition.Error != nil {
				st.logger.Error("message delivery failed", "topic", *e.TopicPartition.Topic, "error", e.TopicPartition.Error.Error())
				continue
			}
			st.logger.Debug("message delivered", "topic", *e.TopicPartition.Topic, "offset", e.TopicPartition.Offset.String())
		case kafka.Error:
			st.logger.Error("kafka producer error", "error", e.Error())
		}
	}
}

// Close flushes queued messages and releases the producer.
func (st *KafkaStream) Close() {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.producer == nil {
		return
	}

	remaining := st.producer.Flush(flushTimeoutMs)
	if remaining > 0 {
		st.logger.Warn("messages left unflushed", "count", remaining)
	}
	st.producer.Close()
	st.producer = nil
}

type StreamConsumer struct {
	GroupId string
	Topic   string
}

func (st *KafkaStream) CreateConsumer(consumerStruct *StreamConsumer) (*kafka.Consumer, error) {
	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers": st.kafkaServers,
		"group.id":          consumerStruct.GroupId,
		"auto.offset.reset": "earliest",
	})
	if err != nil {
		return nil, err
	}

	if err := consumer.Subscribe(consumerStruct.Topic, nil); err != nil {
		consumer.Close()
		return nil, err
	}

	return consumer, nil
}
