// Copyright 2026 The C3fleet Authors
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Publisher sends fleet lifecycle events to a NATS server. It
// reconnects indefinitely; events published while disconnected are
// buffered by the client up to its pending limit and flushed on
// reconnect.
type Publisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewPublisher connects to the NATS server at url. Connection state
// changes are logged, never fatal: the fleet keeps running without its
// event stream.
func NewPublisher(url string, logger *slog.Logger) (*Publisher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := []nats.Option{
		nats.Name("c3fleet"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			logger.Info("nats reconnected", "url", conn.ConnectedUrl())
		}),
	}
	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("events: connecting to %s: %w", url, err)
	}

	return &Publisher{conn: conn, logger: logger}, nil
}

// Publish sends one event payload on the given subject. The context
// is accepted for interface symmetry with other sinks; NATS publishes
// are buffered writes and do not block on the server.
func (p *Publisher) Publish(ctx context.Context, subject string, payload []byte) error {
	if p.conn == nil || p.conn.IsClosed() {
		return fmt.Errorf("events: not connected")
	}
	return p.conn.Publish(subject, payload)
}

// Close drains buffered events and closes the connection.
func (p *Publisher) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("nats drain failed", "error", err)
	}
	p.conn.Close()
}
