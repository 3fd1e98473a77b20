// Package relay turns deliveries from a chat relay into command executions
// and wire replies. Transports (HTTP, NATS) share the same JSON documents.
package relay

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"coords-bot/internal/command"
	"coords-bot/internal/dedupe"
	"coords-bot/internal/report"
	"coords-bot/internal/shared/errors"
	"coords-bot/internal/shared/metrics"
)

const KindError = "error"

// Request carries either a pre-split command or the raw message content.
type Request struct {
	Command       string   `json:"command,omitempty"`
	Args          []string `json:"args,omitempty"`
	Content       string   `json:"content,omitempty"`
	InteractionID string   `json:"interaction_id,omitempty"`
}

type Response struct {
	Command string        `json:"command"`
	Kind    string        `json:"kind"`
	Message string        `json:"message,omitempty"`
	Text    string        `json:"text"`
	Embed   *report.Embed `json:"embed,omitempty"`
}

// Executor runs a named command; *command.Service satisfies it.
type Executor interface {
	Execute(ctx context.Context, name string, args []string) (*command.Result, error)
}

type Dispatcher struct {
	executor Executor
	dedupe   dedupe.Store
	prefix   string
	logger   *slog.Logger
}

// NewDispatcher wires a dispatcher. A nil store disables deduplication.
func NewDispatcher(executor Executor, store dedupe.Store, prefix string, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		executor: executor,
		dedupe:   store,
		prefix:   prefix,
		logger:   logger,
	}
}

// Dispatch resolves and executes one delivery. transport only labels metrics
// and logs.
func (d *Dispatcher) Dispatch(ctx context.Context, transport string, req Request) (*Response, error) {
	resp, err := d.dispatch(ctx, transport, req)
	if err != nil {
		metrics.ObserveDelivery(transport, string(errors.GetType(err)))
		return nil, err
	}
	metrics.ObserveDelivery(transport, resp.Kind)
	return resp, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, transport string, req Request) (*Response, error) {
	logger := d.logger.With("component", "relay_dispatcher", "operation", "dispatch", "transport", transport)

	name, args := strings.TrimSpace(req.Command), req.Args
	if name == "" {
		if strings.TrimSpace(req.Content) == "" {
			return nil, errors.Validation("either command or content is required")
		}
		var err error
		name, args, err = command.ParseLine(d.prefix, req.Content)
		if err != nil {
			return nil, err
		}
	}

	if req.InteractionID != "" && d.dedupe != nil {
		claimed, err := d.dedupe.Claim(ctx, req.InteractionID)
		if err != nil {
			return nil, errors.WrapExternal("failed to check interaction", err)
		}
		if !claimed {
			logger.Info("Dropping redelivered interaction", "interaction_id", req.InteractionID)
			return nil, errors.Conflictf("interaction %s was already handled", req.InteractionID)
		}
	}

	result, err := d.executor.Execute(ctx, name, args)
	if err != nil {
		if req.InteractionID != "" && d.dedupe != nil && retryable(err) {
			d.release(logger, req.InteractionID)
		}
		return nil, err
	}

	logger.Debug("Delivery handled", "command", result.Command, "kind", result.Kind)
	return NewResponse(result), nil
}

// retryable errors did not come from the command's input, so a redelivery
// may succeed.
func retryable(err error) bool {
	switch errors.GetType(err) {
	case errors.ErrorTypeInternal, errors.ErrorTypeExternal:
		return true
	default:
		return false
	}
}

// release runs on a fresh context: the delivery's own context may be the
// reason the command failed.
func (d *Dispatcher) release(logger *slog.Logger, interactionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := d.dedupe.Release(ctx, interactionID); err != nil {
		logger.Error("Failed to release interaction", "interaction_id", interactionID, "error", err)
		return
	}
	logger.Debug("Released interaction after failure", "interaction_id", interactionID)
}

// NewResponse converts a command result into the wire reply.
func NewResponse(result *command.Result) *Response {
	resp := &Response{
		Command: result.Command,
		Kind:    string(result.Kind),
		Message: result.Message,
		Text:    result.Text(),
	}
	if result.Report != nil {
		embed := result.Report.Embed()
		resp.Embed = &embed
	}
	return resp
}

// ErrorResponse is the reply for transports without status codes.
func ErrorResponse(err error) *Response {
	return &Response{
		Kind: KindError,
		Text: errors.PublicMessage(err),
	}
}
