package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// channel is the part of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

// dialFunc opens a connection and a channel with the queues declared.
type dialFunc func() (channel, io.Closer, error)

// Publisher keeps one broker connection and channel open and
// publishes persistent JSON messages on the default exchange, routed
// by queue name.  A closed channel is redialed on the next publish.
// It is safe for concurrent use.
type Publisher struct {
	mu   sync.Mutex
	dial dialFunc
	conn io.Closer
	ch   channel
}

// NewPublisher dials url and declares the reservation queues.
func NewPublisher(url string) (*Publisher, error) {
	return newPublisher(func() (channel, io.Closer, error) { return dialAMQP(url) })
}

func newPublisher(dial dialFunc) (*Publisher, error) {
	p := &Publisher{dial: dial}
	if err := p.reconnect(); err != nil {
		return nil, err
	}
	return p, nil
}

func dialAMQP(url string) (channel, io.Closer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareQueues(ch); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, err
	}
	return ch, conn, nil
}

func declareQueues(ch *amqp.Channel) error {
	for _, q := range []string{QueueReservaCreada, QueueEstadoActualizado} {
		// durable so messages survive broker restarts
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", q, err)
		}
	}
	return nil
}

// reconnect drops the current connection and dials a new one.
// Callers other than newPublisher must hold p.mu.
func (p *Publisher) reconnect() error {
	p.closeLocked()
	ch, conn, err := p.dial()
	if err != nil {
		return err
	}
	p.ch, p.conn = ch, conn
	return nil
}

// PublishReservaCreada publishes ev to reserva.creada.
func (p *Publisher) PublishReservaCreada(ctx context.Context, ev ReservaCreadaEvent) error {
	return p.publishJSON(ctx, QueueReservaCreada, ev)
}

// PublishEstadoActualizado publishes ev to reserva.estado_actualizado.
func (p *Publisher) PublishEstadoActualizado(ctx context.Context, ev ReservaEstadoEvent) error {
	return p.publishJSON(ctx, QueueEstadoActualizado, ev)
}

func (p *Publisher) publishJSON(ctx context.Context, queue string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil || p.ch.IsClosed() {
		if err := p.reconnect(); err != nil {
			return err
		}
	}
	err = p.ch.PublishWithContext(ctx, "", queue, false, false, msg)
	if errors.Is(err, amqp.ErrClosed) {
		// broker went away between the check and the publish
		if err := p.reconnect(); err != nil {
			return err
		}
		err = p.ch.PublishWithContext(ctx, "", queue, false, false, msg)
	}
	return err
}

func (p *Publisher) closeLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close closes the channel and the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
	return nil
}
