package events

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageHandler define la interfaz que debe cumplir cualquier consumidor de mensajes.
type MessageHandler interface {
	HandleMessage(ctx context.Context, key string, payload []byte) error
}

// MessageReader es la parte de *kafka.Reader que usa el adaptador.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Config() kafka.ReaderConfig
}

var _ MessageReader = (*kafka.Reader)(nil)

// Espera tras un error de lectura; se duplica mientras sigan fallando.
const (
	fetchRetryDelay    = 500 * time.Millisecond
	maxFetchRetryDelay = 30 * time.Second
)

// ConsumerAdapter lee de Kafka y entrega cada mensaje al handler.
//
// El offset se confirma después de procesar el mensaje, haya ido bien o no:
// un mensaje que no se puede procesar se registra y no bloquea la partición.
type ConsumerAdapter struct {
	reader  MessageReader
	handler MessageHandler
	log     *zap.Logger
	done    chan struct{}

	retryDelay time.Duration
}

func NewConsumerAdapter(reader MessageReader, handler MessageHandler, log *zap.Logger) *ConsumerAdapter {
	return &ConsumerAdapter{
		reader:  reader,
		handler: handler,
		log:     log,
		done:    make(chan struct{}),

		retryDelay: fetchRetryDelay,
	}
}

// Start inicia el bucle de consumo de mensajes en una goroutine.
func (c *ConsumerAdapter) Start(ctx context.Context) {
	cfg := c.reader.Config()
	c.log.Info("🎧 Iniciando consumidor de Kafka...",
		zap.String("topic", cfg.Topic),
		zap.Strings("brokers", cfg.Brokers),
	)

	go func() {
		defer close(c.done)
		delay := c.retryDelay
		for {
			// FetchMessage es una llamada bloqueante.
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				// Si el contexto se cancela, el error es normal y salimos limpiamente.
				if ctx.Err() != nil {
					c.log.Info("Consumidor de Kafka detenido.", zap.String("topic", cfg.Topic))
					return
				}
				c.log.Error("Error al leer mensaje de Kafka", zap.Error(err), zap.Duration("retry_in", delay))

				// Un reader cerrado devuelve error en cada llamada: esperar antes de reintentar
				select {
				case <-ctx.Done():
					c.log.Info("Consumidor de Kafka detenido.", zap.String("topic", cfg.Topic))
					return
				case <-time.After(delay):
				}
				delay = min(delay*2, maxFetchRetryDelay)
				continue
			}
			delay = c.retryDelay

			if err := c.handler.HandleMessage(ctx, string(msg.Key), msg.Value); err != nil {
				c.log.Warn("Failed to process message",
					zap.String("topic", msg.Topic),
					zap.String("key", string(msg.Key)),
					zap.Int64("offset", msg.Offset),
					zap.Error(err))
			}

			if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
				c.log.Error("Error al confirmar offset", zap.Int64("offset", msg.Offset), zap.Error(err))
			}
		}
	}()
}

// Done se cierra cuando el bucle de consumo termina.
func (c *ConsumerAdapter) Done() <-chan struct{} {
	return c.done
}
