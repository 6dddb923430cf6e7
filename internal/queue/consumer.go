package queue

// The consumer listens to the reservation queues and appends one line
// per event to logs/reservas.log.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

const reservaLogFile = "reservas.log"

// StartReservaConsumer connects to the broker at url, declares the
// reservation queues and consumes both.  Each message is appended to
// dir/reservas.log.  It runs a reconnect loop with exponential backoff
// and returns only when ctx is cancelled.  Offending messages are
// rejected without requeue so the loop keeps going.
func StartReservaConsumer(ctx context.Context, url, dir string) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn().Err(err).Dur("retry_in", backoff).Msg("reserva-consumer: failed to dial broker")
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = consumeLoop(ctx, conn, dir)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn().Err(err).Msg("reserva-consumer: consume loop ended; reconnecting")
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, dir string) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn().Err(err).Msg("reserva-consumer: set QoS failed")
	}
	if err := declareQueues(ch); err != nil {
		return err
	}
	creadas, err := ch.Consume(QueueReservaCreada, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", QueueReservaCreada, err)
	}
	estados, err := ch.Consume(QueueEstadoActualizado, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", QueueEstadoActualizado, err)
	}

	for {
		var (
			d  amqp.Delivery
			ok bool
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok = <-creadas:
		case d, ok = <-estados:
		}
		if !ok {
			return errors.New("deliveries channel closed")
		}
		line, err := FormatLine(d.RoutingKey, d.Body)
		if err == nil {
			err = appendLine(dir, line)
		}
		if err != nil {
			log.Error().Err(err).Str("queue", d.RoutingKey).Msg("reserva-consumer: handle message failed")
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
}

// FormatLine renders a single human-friendly log line for a message
// received on queue.
func FormatLine(queue string, body []byte) (string, error) {
	switch queue {
	case QueueReservaCreada:
		var ev ReservaCreadaEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Reserva creada | reserva_id=%d | usuario_id=%d | emprendimiento_id=%d | emprendimiento=%q | inicio=%s | fin=%s | lineas=%d | total=%s\n",
			ev.CreadaEn, ev.ReservaID, ev.UsuarioID, ev.EmprendimientoID, ev.Emprendimiento,
			ev.FechaHoraInicio, ev.FechaHoraFin, ev.Lineas, ev.TotalGeneral), nil
	case QueueEstadoActualizado:
		var ev ReservaEstadoEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Estado actualizado | reserva_id=%d | emprendimiento_id=%d | %s -> %s | actor_id=%d\n",
			ev.ActualizadaEn, ev.ReservaID, ev.EmprendimientoID, ev.EstadoAnterior, ev.EstadoNuevo, ev.ActorID), nil
	}
	return "", fmt.Errorf("unknown queue %q", queue)
}

func appendLine(dir, line string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, reservaLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
