package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/logging"
)

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher emits CartUpdated envelopes to the events exchange.
type Publisher struct {
	ch       channel
	seq      Sequencer
	producer string
	timeout  time.Duration
	now      func() time.Time
	log      *logrus.Entry
}

type PublisherOptions struct {
	Producer string
	Timeout  time.Duration
}

func NewPublisher(conn *amqp.Connection, seq Sequencer, log *logrus.Entry, opts PublisherOptions) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareEventsExchange(ch); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}

	return newPublisher(ch, seq, log, opts), nil
}

func newPublisher(ch channel, seq Sequencer, log *logrus.Entry, opts PublisherOptions) *Publisher {
	producer := opts.Producer
	if producer == "" {
		producer = shopServiceName
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Publisher{
		ch:       ch,
		seq:      seq,
		producer: producer,
		timeout:  timeout,
		now:      time.Now,
		log:      log,
	}
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

// PublishCartUpdated implements cart.EventPublisher.
func (p *Publisher) PublishCartUpdated(ctx context.Context, change cart.Change) error {
	c := change.Cart
	timestamp := p.now().UTC()

	payload := CartUpdatedPayload{
		CartID:     c.ID,
		UserID:     c.OwnerID,
		Action:     string(change.Action),
		ProductID:  change.ProductID,
		ActorID:    change.ActorID,
		Items:      make([]CartUpdatedItem, 0, len(c.Items)),
		TotalItems: c.TotalItems(),
		Timestamp:  timestamp,
	}
	for _, it := range c.Items {
		payload.Items = append(payload.Items, CartUpdatedItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
		})
	}

	meta := EventMeta{
		CorrelationID: logging.CorrelationID(ctx),
		PartitionKey:  c.OwnerID,
	}
	seq, err := p.seq.NextSequence(ctx, meta.PartitionKey)
	if err != nil {
		return fmt.Errorf("reserve sequence: %w", err)
	}

	env := newCartUpdatedEvent(meta, seq, p.producer, payload, timestamp)
	if err := env.Validate(EventTypeCartUpdated, 1); err != nil {
		return fmt.Errorf("invalid CartUpdated envelope: %w", err)
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal CartUpdated envelope: %w", err)
	}

	if err := p.publishJSON(ctx, CartUpdatedRoutingKey, env.EventID, body); err != nil {
		return fmt.Errorf("publish CartUpdated: %w", err)
	}

	p.log.WithFields(logrus.Fields{
		"event_id":       env.EventID,
		"partition_key":  meta.PartitionKey,
		"sequence":       seq,
		"correlation_id": meta.CorrelationID,
	}).Debug("CartUpdated published")
	return nil
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey, messageID string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    messageID,
			Timestamp:    p.now().UTC(),
			Body:         body,
		},
	)
}
