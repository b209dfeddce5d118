package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/ysyms/lastFrameV2/internal/domain/entity"
	"go.opentelemetry.io/otel"
)

const (
	publishTimeout = 5 * time.Second

	statusMessageType  = "lastframe.status"
	requestMessageType = "lastframe.request"
)

// Publisher owns one channel shared by every worker.
type Publisher struct {
	mu       sync.Mutex
	channel  *amqp.Channel
	exchange string
}

func NewPublisher(conn *amqp.Connection, exchange string) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open publisher channel: %w", err)
	}
	return &Publisher{channel: ch, exchange: exchange}, nil
}

// publish stamps the message with the caller's trace context and bounds the
// broker round trip, so a stalled broker cannot pin a worker.
func (p *Publisher) publish(ctx context.Context, exchange, routingKey string, msg amqp.Publishing) error {
	if msg.Headers == nil {
		msg.Headers = amqp.Table{}
	}
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier(msg.Headers))
	msg.DeliveryMode = amqp.Persistent
	msg.Timestamp = time.Now().UTC()

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.channel.PublishWithContext(ctx, exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("publish to %q: %w", routingKey, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.channel.Close()
}

type StatusPublisher struct {
	pub        *Publisher
	routingKey string
}

func NewStatusPublisher(pub *Publisher, routingKey string) *StatusPublisher {
	return &StatusPublisher{pub: pub, routingKey: routingKey}
}

// PublishStatus sends msg to the status routing key. Status and error
// category are repeated as headers for consumers that filter without parsing.
func (sp *StatusPublisher) PublishStatus(ctx context.Context, msg entity.ExtractionStatusMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	headers := amqp.Table{"x-job-status": string(msg.Status)}
	if msg.ErrorCategory != "" {
		headers["x-error-category"] = string(msg.ErrorCategory)
	}
	return sp.pub.publish(ctx, sp.pub.exchange, sp.routingKey, amqp.Publishing{
		ContentType:   "application/json",
		Type:          statusMessageType,
		MessageId:     fmt.Sprintf("%s-%s-%d", msg.JobID, msg.Status, msg.Attempt),
		CorrelationId: msg.JobID.String(),
		Headers:       headers,
		Body:          body,
	})
}

type DLQPublisher struct {
	pub   *Publisher
	queue string
}

func NewDLQPublisher(pub *Publisher, dlqQueue string) *DLQPublisher {
	return &DLQPublisher{pub: pub, queue: dlqQueue}
}

// PublishToDLQ parks the raw request on the dead-letter queue through the
// default exchange, keeping the body byte for byte.
func (dp *DLQPublisher) PublishToDLQ(ctx context.Context, raw []byte, reason string) error {
	return dp.pub.publish(ctx, "", dp.queue, amqp.Publishing{
		ContentType: "application/json",
		Type:        requestMessageType,
		Headers: amqp.Table{
			"x-dlq-reason":       reason,
			"x-dead-lettered-at": time.Now().UTC().Format(time.RFC3339),
		},
		Body: raw,
	})
}
