// Package push hands push-notification requests to the external dispatch
// worker over Kafka. Delivery is best-effort: a failed publish is logged and
// never surfaces to the caller.
package push

import (
	"context"
	"encoding/json"
	"log"

	"github.com/segmentio/kafka-go"
)

// Dispatcher submits one push notification for a single device token.
type Dispatcher interface {
	Send(deviceToken, title, body string)
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaDispatcher publishes push requests to the push topic. The worker
// consuming the topic owns the actual FCM/APNs delivery.
type KafkaDispatcher struct {
	Writer messageWriter
}

func NewKafkaDispatcher(brokers []string, topic string) *KafkaDispatcher {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	})
	return &KafkaDispatcher{Writer: writer}
}

// NopDispatcher drops every request. Used when no broker is configured, for
// example in local development without the push worker running.
type NopDispatcher struct{}

func NewNopDispatcher() *NopDispatcher { return &NopDispatcher{} }

func (*NopDispatcher) Send(deviceToken, title, body string) {}

type pushRequest struct {
	DeviceToken string `json:"deviceToken"`
	Title       string `json:"title"`
	Body        string `json:"body"`
}

func (d *KafkaDispatcher) Send(deviceToken, title, body string) {
	data, err := json.Marshal(pushRequest{DeviceToken: deviceToken, Title: title, Body: body})
	if err != nil {
		log.Println("Push encode error:", err)
		return
	}

	err = d.Writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(deviceToken),
		Value: data,
	})
	if err != nil {
		log.Println("Push publish error:", err)
	}
}
