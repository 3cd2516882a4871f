// Package channel implements the request/notification message channel between
// workers and the coordinator on top of a pluggable Transport.
package channel

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"careerpilot/internal/apperrors"
	"careerpilot/internal/logger"
	"careerpilot/internal/models"
)

// RequestHandler serves one request type. It returns the reply type and payload.
type RequestHandler func(ctx context.Context, env models.Envelope) (models.MessageType, any, error)

// Conn is one endpoint on a Transport. Requests are correlated with replies by
// request id; every inbound request is served on its own goroutine.
type Conn struct {
	transport  Transport
	address    string
	log        *zap.Logger
	unregister func()

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	pending  map[string]chan models.Envelope
	handlers map[models.MessageType]RequestHandler
}

// NewConn registers address on transport.
func NewConn(transport Transport, address string, log *zap.Logger) (*Conn, error) {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Conn{
		transport: transport,
		address:   address,
		log:       logger.OrNop(log).With(zap.String(logger.FieldAddress, address)),
		ctx:       ctx,
		cancel:    cancel,
		pending:   make(map[string]chan models.Envelope),
		handlers:  make(map[models.MessageType]RequestHandler),
	}
	unregister, err := transport.Register(address, c.deliver)
	if err != nil {
		cancel()
		return nil, err
	}
	c.unregister = unregister
	return c, nil
}

// Address returns the endpoint address.
func (c *Conn) Address() string {
	return c.address
}

// Handle installs h for message type t.
func (c *Conn) Handle(t models.MessageType, h RequestHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[t] = h
}

// Request sends a request and waits for its reply. An ERROR reply is returned
// as the taxonomy error it carries; any other reply is decoded into out.
func (c *Conn) Request(ctx context.Context, to, sessionID string, t models.MessageType, payload, out any) (models.MessageType, error) {
	data, err := Encode(payload)
	if err != nil {
		return "", err
	}
	env := models.Envelope{
		Type:      t,
		SessionID: sessionID,
		RequestID: uuid.NewString(),
		From:      c.address,
		To:        to,
		Data:      data,
	}
	replyCh := make(chan models.Envelope, 1)
	c.mu.Lock()
	c.pending[env.RequestID] = replyCh
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, env.RequestID)
		c.mu.Unlock()
	}()

	if err := c.transport.Send(ctx, env); err != nil {
		return "", err
	}
	select {
	case reply := <-replyCh:
		if reply.Type == models.MsgError {
			var p models.ErrorPayload
			if err := Decode(reply.Data, &p); err != nil {
				return reply.Type, err
			}
			return reply.Type, payloadError(p)
		}
		return reply.Type, Decode(reply.Data, out)
	case <-ctx.Done():
		return "", errors.Wrapf(ctx.Err(), "await reply to %s", t)
	}
}

// Notify sends a one-way message.
func (c *Conn) Notify(ctx context.Context, to, sessionID string, t models.MessageType, payload any) error {
	data, err := Encode(payload)
	if err != nil {
		return err
	}
	return c.transport.Send(ctx, models.Envelope{
		Type:      t,
		SessionID: sessionID,
		From:      c.address,
		To:        to,
		Data:      data,
	})
}

// Close unregisters the address and waits for in-flight handlers.
func (c *Conn) Close() {
	c.unregister()
	c.cancel()
	c.wg.Wait()
}

func (c *Conn) deliver(env models.Envelope) {
	if env.Reply {
		c.mu.Lock()
		ch, ok := c.pending[env.RequestID]
		c.mu.Unlock()
		if !ok {
			c.log.Debug("reply without pending request", zap.String(logger.FieldRequestID, env.RequestID))
			return
		}
		select {
		case ch <- env:
		default:
		}
		return
	}

	c.mu.Lock()
	h, ok := c.handlers[env.Type]
	c.mu.Unlock()
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.serve(env, h, ok)
	}()
}

func (c *Conn) serve(env models.Envelope, h RequestHandler, ok bool) {
	log := c.log.With(
		zap.String(logger.FieldType, string(env.Type)),
		zap.String(logger.FieldSessionID, env.SessionID),
		zap.String(logger.FieldRequestID, env.RequestID),
	)
	var (
		replyType models.MessageType
		payload   any
		err       error
	)
	if !ok {
		err = errors.Wrapf(apperrors.ErrInvalidMessage, "unsupported message type %s", env.Type)
	} else {
		replyType, payload, err = c.invoke(h, env)
	}
	if env.RequestID == "" {
		if err != nil {
			log.Warn("notification failed", zap.Error(err))
		}
		return
	}
	if err != nil {
		log.Debug("request failed", zap.String("code", string(apperrors.CodeOf(err))), zap.Error(err))
		replyType, payload = models.MsgError, errorPayload(err)
	}
	if replyType == "" {
		replyType = models.MsgAck
	}
	data, encErr := Encode(payload)
	if encErr != nil {
		log.Error("encode reply", zap.Error(encErr))
		replyType = models.MsgError
		data, _ = Encode(errorPayload(encErr))
	}
	reply := models.Envelope{
		Type:      replyType,
		SessionID: env.SessionID,
		RequestID: env.RequestID,
		From:      c.address,
		To:        env.From,
		Reply:     true,
		Data:      data,
	}
	if err := c.transport.Send(c.ctx, reply); err != nil {
		log.Warn("send reply", zap.Error(err))
	}
}

func (c *Conn) invoke(h RequestHandler, env models.Envelope) (t models.MessageType, payload any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("handler panic: %v", r)
		}
	}()
	return h(c.ctx, env)
}
