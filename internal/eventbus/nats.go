package eventbus

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Bus owns the NATS connection and its JetStream context.
type Bus struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	logger *zap.Logger
}

// Connect dials NATS and prepares JetStream.
func Connect(url string, logger *zap.Logger) (*Bus, error) {
	nc, err := nats.Connect(url,
		nats.Name("aiuml-api"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(3),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	return &Bus{nc: nc, js: js, logger: logger}, nil
}

// JetStream returns the JetStream context.
func (b *Bus) JetStream() nats.JetStreamContext {
	return b.js
}

// Connected reports the connection state for health checks.
func (b *Bus) Connected() bool {
	return b.nc != nil && b.nc.IsConnected()
}

// Close drains pending messages and closes the connection.
func (b *Bus) Close() {
	if b.nc == nil {
		return
	}
	if err := b.nc.Drain(); err != nil {
		b.logger.Warn("nats drain failed", zap.Error(err))
		b.nc.Close()
	}
}
