// Package amqp broadcasts expense change events between server instances.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	maxBackoff     = 30 * time.Second
	publishTimeout = 5 * time.Second
	dialTimeout    = 5 * time.Second
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// Client publishes to and consumes from a fanout exchange. Publishing
// reconnects lazily; a run of failures opens the circuit for openTimeout so
// requests do not stall on a dead broker.
type Client struct {
	url          string
	exchangeName string
	logger       *slog.Logger
	dialTimeout  time.Duration

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	state        int32
	failureCount int64
	failMu       sync.Mutex
	lastFailure  time.Time
}

// NewClient connects to url and declares the fanout exchange.
func NewClient(url, exchangeName string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{url: url, exchangeName: exchangeName, logger: logger, dialTimeout: dialTimeout}

	if _, err := c.publishChannel(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// connection returns the live connection, dialling when needed. The dial
// and handshake are bounded by dialTimeout and run without c.mu.
func (c *Client) connection() (*amqp091.Connection, error) {
	c.mu.Lock()
	if c.conn != nil && !c.conn.IsClosed() {
		conn := c.conn
		c.mu.Unlock()
		return conn, nil
	}
	c.mu.Unlock()

	timeout := c.dialTimeout
	if timeout <= 0 {
		timeout = dialTimeout
	}
	conn, err := amqp091.DialConfig(c.url, amqp091.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp091.DefaultDial(timeout),
	})
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil && !c.conn.IsClosed() {
		// Lost a race with another dial.
		conn.Close()
		return c.conn, nil
	}
	c.conn = conn
	c.channel = nil
	return conn, nil
}

// publishChannel returns the shared publishing channel, opening it when
// needed.
func (c *Client) publishChannel() (*amqp091.Channel, error) {
	c.mu.Lock()
	if c.channel != nil && !c.channel.IsClosed() {
		ch := c.channel
		c.mu.Unlock()
		return ch, nil
	}
	c.mu.Unlock()

	conn, err := c.connection()
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareExchange(ch, c.exchangeName); err != nil {
		ch.Close()
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil && !c.channel.IsClosed() {
		ch.Close()
		return c.channel, nil
	}
	c.channel = ch
	return ch, nil
}

// dropChannel forgets ch if it is still the shared publishing channel.
func (c *Client) dropChannel(ch *amqp091.Channel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel == ch {
		c.channel = nil
	}
}

func declareExchange(ch *amqp091.Channel, name string) error {
	err := ch.ExchangeDeclare(
		name,     // name
		"fanout", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	return nil
}

// PublishExpenseEvent broadcasts ev to every subscribed instance.
func (c *Client) PublishExpenseEvent(ctx context.Context, ev ExpenseEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.isCircuitOpen() {
		return fmt.Errorf("publish %s event: %w", ev.Type, ErrCircuitOpen)
	}

	body, err := ev.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ch, err := c.publishChannel()
	if err != nil {
		c.recordFailure()
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(ctx,
		c.exchangeName, // exchange
		"",             // routing key, ignored by fanout
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Timestamp:   ev.Timestamp,
			Body:        body,
		},
	)
	if err != nil {
		c.recordFailure()
		if isConnectionError(err) {
			c.dropChannel(ch)
		}
		return fmt.Errorf("publish message: %w", err)
	}
	c.recordSuccess()

	c.logger.DebugContext(ctx, "Published expense event",
		"type", ev.Type,
		"expense_id", ev.ExpenseID,
		"owner_id", ev.OwnerID,
		"exchange", c.exchangeName)
	return nil
}

// Subscribe consumes events through an exclusive, auto-deleted queue bound
// to the exchange until ctx is done. Dropped connections are retried with
// exponential backoff. A handler error requeues the delivery once.
func (c *Client) Subscribe(ctx context.Context, handler func(context.Context, ExpenseEvent) error) error {
	for attempt := 0; ; attempt++ {
		consumed, err := c.consume(ctx, handler)
		if ctx.Err() != nil {
			c.logger.InfoContext(ctx, "Stopping event consumption", "reason", ctx.Err())
			return ctx.Err()
		}
		if consumed {
			attempt = 0
		}
		wait := exponentialBackoff(attempt)
		c.logger.WarnContext(ctx, "Event subscription interrupted, retrying",
			"error", err,
			"attempt", attempt+1,
			"backoff", wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// consume runs one subscription session. consumed reports whether at least
// one delivery arrived, which resets the backoff.
func (c *Client) consume(ctx context.Context, handler func(context.Context, ExpenseEvent) error) (consumed bool, err error) {
	conn, err := c.connection()
	if err != nil {
		return false, err
	}

	ch, err := conn.Channel()
	if err != nil {
		return false, fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := declareExchange(ch, c.exchangeName); err != nil {
		return false, err
	}
	q, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return false, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", c.exchangeName, false, nil); err != nil {
		return false, fmt.Errorf("bind queue: %w", err)
	}

	msgs, err := ch.Consume(
		q.Name, // queue
		"",     // consumer
		false,  // auto-ack (we want manual ack)
		true,   // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return false, fmt.Errorf("start consuming: %w", err)
	}

	c.logger.InfoContext(ctx, "Started consuming expense events", "queue", q.Name, "exchange", c.exchangeName)

	for {
		select {
		case <-ctx.Done():
			return consumed, ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return consumed, errors.New("message channel closed")
			}
			consumed = true

			ev, err := ExpenseEventFromJSON(delivery.Body)
			if err != nil {
				c.logger.ErrorContext(ctx, "Failed to decode event", "error", err)
				delivery.Nack(false, false)
				continue
			}

			if err := handler(ctx, ev); err != nil {
				c.logger.ErrorContext(ctx, "Failed to handle event",
					"error", err,
					"type", ev.Type,
					"owner_id", ev.OwnerID)
				delivery.Nack(false, !delivery.Redelivered)
				continue
			}
			delivery.Ack(false)
		}
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		if err != nil && !errors.Is(err, amqp091.ErrClosed) {
			return err
		}
	}
	return nil
}

// Ping reports whether the broker is usable: the circuit must be closed and
// the connection open or re-dialable.
func (c *Client) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.isCircuitOpen() {
		return ErrCircuitOpen
	}
	if _, err := c.connection(); err != nil {
		return err
	}
	return nil
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	c.failMu.Lock()
	since := time.Since(c.lastFailure)
	c.failMu.Unlock()
	if since > openTimeout {
		atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordFailure() {
	n := atomic.AddInt64(&c.failureCount, 1)
	c.failMu.Lock()
	c.lastFailure = time.Now()
	c.failMu.Unlock()
	if n >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		if atomic.SwapInt32(&c.state, StateOpen) != StateOpen {
			c.logger.Warn("AMQP circuit breaker opened", "failures", n)
		}
	}
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

// exponentialBackoff returns 1s, 2s, 4s, ... capped at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

var connectionErrorMarkers = []string{
	"connection refused",
	"connection reset",
	"connection closed",
	"channel/connection is not open",
	"EOF",
	"broken pipe",
	"use of closed network connection",
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := err.Error()
	for _, m := range connectionErrorMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
