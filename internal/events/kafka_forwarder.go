package events

import (
	"context"
	"sync"

	"argus/internal/adapters/kafka"
	"argus/pkg/logger"
)

// KafkaForwarder drains the in-process bus into Kafka topics so external
// consumers observe the same event stream as local subscribers.
type KafkaForwarder struct {
	producer *kafka.Producer
	bus      *Bus
	log      *logger.Logger
	wg       sync.WaitGroup
}

// NewKafkaForwarder creates a forwarder over an existing producer
func NewKafkaForwarder(producer *kafka.Producer, bus *Bus) *KafkaForwarder {
	return &KafkaForwarder{
		producer: producer,
		bus:      bus,
		log:      logger.Get().With("component", "kafka_forwarder"),
	}
}

// Start subscribes to the bus and forwards until the context is cancelled
// or the bus is closed.
func (f *KafkaForwarder) Start(ctx context.Context) {
	routes := map[Type]string{
		TypeTransactionObserved: kafka.TopicMempoolTransactions,
		TypePatternDetected:     kafka.TopicMempoolPatterns,
		TypeProbeCompleted:      kafka.TopicProbesCompleted,
	}

	for eventType, topic := range routes {
		ch := f.bus.Subscribe(eventType)
		f.wg.Add(1)
		go f.forward(ctx, ch, topic)
	}
}

// Wait blocks until all forwarding goroutines have drained
func (f *KafkaForwarder) Wait() {
	f.wg.Wait()
}

func (f *KafkaForwarder) forward(ctx context.Context, ch <-chan Event, topic string) {
	defer f.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			if err := f.producer.Publish(ctx, topic, e.Chain, e.Payload); err != nil {
				f.log.Error("Failed to forward event",
					"topic", topic,
					"type", e.Type,
					"error", err,
				)
			}
		}
	}
}
