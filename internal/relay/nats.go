package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"coords-bot/internal/shared/config"
	"coords-bot/internal/shared/errors"

	"github.com/nats-io/nats.go"
)

const natsTransport = "nats"

// NATSSubscriber answers command requests published on a queue subject.
type NATSSubscriber struct {
	dispatcher *Dispatcher
	cfg        config.NATSConfig
	timeout    time.Duration
	logger     *slog.Logger

	conn *nats.Conn
	sub  *nats.Subscription
}

func NewNATSSubscriber(dispatcher *Dispatcher, cfg config.NATSConfig, logger *slog.Logger) *NATSSubscriber {
	return &NATSSubscriber{
		dispatcher: dispatcher,
		cfg:        cfg,
		timeout:    10 * time.Second,
		logger:     logger,
	}
}

// Start connects and subscribes. Messages are handled on the connection's
// dispatch goroutine, one at a time per subscriber.
func (s *NATSSubscriber) Start() error {
	logger := s.logger.With("component", "nats_subscriber", "operation", "start", "url", s.cfg.URL)

	conn, err := nats.Connect(s.cfg.URL,
		nats.Name("coords-bot"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		return fmt.Errorf("connect to NATS: %w", err)
	}

	sub, err := conn.QueueSubscribe(s.cfg.Subject, s.cfg.Queue, s.onMessage)
	if err != nil {
		conn.Close()
		logger.Error("Failed to subscribe", "subject", s.cfg.Subject, "error", err)
		return fmt.Errorf("subscribe to %s: %w", s.cfg.Subject, err)
	}

	s.conn = conn
	s.sub = sub
	logger.Info("NATS subscriber started", "subject", s.cfg.Subject, "queue", s.cfg.Queue)
	return nil
}

// Stop drains the subscription so in-flight requests still get replies.
func (s *NATSSubscriber) Stop() error {
	if s.conn == nil {
		return nil
	}
	if err := s.conn.Drain(); err != nil {
		s.conn.Close()
		return fmt.Errorf("drain NATS connection: %w", err)
	}
	return nil
}

func (s *NATSSubscriber) onMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	reply := s.handle(ctx, msg.Data)
	if msg.Reply == "" {
		return
	}
	if err := msg.Respond(reply); err != nil {
		s.logger.Error("Failed to send NATS reply", "component", "nats_subscriber", "error", err)
	}
}

// handle decodes a request and always produces a JSON reply.
func (s *NATSSubscriber) handle(ctx context.Context, data []byte) []byte {
	logger := s.logger.With("component", "nats_subscriber", "operation", "handle")

	var (
		resp *Response
		req  Request
	)
	if err := json.Unmarshal(data, &req); err != nil {
		err = errors.WrapValidation("invalid request body", err)
		logger.Debug("Request rejected", "error", err)
		resp = ErrorResponse(err)
	} else if resp, err = s.dispatcher.Dispatch(ctx, natsTransport, req); err != nil {
		if t := errors.GetType(err); t == errors.ErrorTypeInternal || t == errors.ErrorTypeExternal {
			logger.Error("Command failed", "error", err)
		} else {
			logger.Debug("Request rejected", "error_type", t, "error", err)
		}
		resp = ErrorResponse(err)
	}

	out, err := json.Marshal(resp)
	if err != nil {
		logger.Error("Failed to encode reply", "error", err)
		return []byte(`{"command":"","kind":"error","text":"command failed"}`)
	}
	return out
}
