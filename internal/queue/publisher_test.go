package queue

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	closed    bool
	failNext  error
	published []amqp.Publishing
	keys      []string
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		f.closed = true
		return err
	}
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) IsClosed() bool { return f.closed }

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

type fakeConn struct{ closed bool }

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

type fakeBroker struct {
	dials    int
	channels []*fakeChannel
	conns    []*fakeConn
	err      error
}

func (b *fakeBroker) dial() (channel, io.Closer, error) {
	b.dials++
	if b.err != nil {
		return nil, nil, b.err
	}
	ch, conn := &fakeChannel{}, &fakeConn{}
	b.channels = append(b.channels, ch)
	b.conns = append(b.conns, conn)
	return ch, conn, nil
}

func TestPublisherPublishesJSON(t *testing.T) {
	b := &fakeBroker{}
	p, err := newPublisher(b.dial)
	require.NoError(t, err)

	require.NoError(t, p.PublishReservaCreada(context.Background(), ReservaCreadaEvent{ReservaID: 7, TotalGeneral: "420"}))
	require.NoError(t, p.PublishEstadoActualizado(context.Background(), ReservaEstadoEvent{ReservaID: 7, EstadoNuevo: "CONFIRMADA"}))

	ch := b.channels[0]
	assert.Equal(t, []string{QueueReservaCreada, QueueEstadoActualizado}, ch.keys)
	assert.Equal(t, "application/json", ch.published[0].ContentType)
	assert.Equal(t, amqp.Persistent, ch.published[0].DeliveryMode)
	var ev ReservaCreadaEvent
	require.NoError(t, json.Unmarshal(ch.published[0].Body, &ev))
	assert.Equal(t, uint64(7), ev.ReservaID)
	assert.Equal(t, 1, b.dials)
}

func TestPublisherRedialsClosedChannel(t *testing.T) {
	b := &fakeBroker{}
	p, err := newPublisher(b.dial)
	require.NoError(t, err)

	b.channels[0].closed = true
	require.NoError(t, p.PublishReservaCreada(context.Background(), ReservaCreadaEvent{ReservaID: 1}))

	assert.Equal(t, 2, b.dials)
	assert.True(t, b.conns[0].closed)
	assert.Empty(t, b.channels[0].published)
	assert.Len(t, b.channels[1].published, 1)
}

func TestPublisherRetriesAfterErrClosed(t *testing.T) {
	b := &fakeBroker{}
	p, err := newPublisher(b.dial)
	require.NoError(t, err)

	b.channels[0].failNext = amqp.ErrClosed
	require.NoError(t, p.PublishEstadoActualizado(context.Background(), ReservaEstadoEvent{ReservaID: 2}))

	assert.Equal(t, 2, b.dials)
	assert.Len(t, b.channels[1].published, 1)
}

func TestPublisherDialFailure(t *testing.T) {
	b := &fakeBroker{}
	p, err := newPublisher(b.dial)
	require.NoError(t, err)

	b.channels[0].closed = true
	b.err = errors.New("connection refused")
	err = p.PublishReservaCreada(context.Background(), ReservaCreadaEvent{ReservaID: 3})
	assert.EqualError(t, err, "connection refused")

	// the broker is back: the next publish dials again
	b.err = nil
	require.NoError(t, p.PublishReservaCreada(context.Background(), ReservaCreadaEvent{ReservaID: 3}))
	assert.Equal(t, 3, b.dials)

	require.NoError(t, p.Close())
	assert.True(t, b.conns[1].closed)
}
