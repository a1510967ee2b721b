// Package primary is the client of the local compiler daemon, the preferred
// backend. Requests travel as JSON over a single websocket connection and are
// correlated with their streamed and terminal responses by request id.
package primary

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"cpp-scratchpad/internal/backend"
	"cpp-scratchpad/internal/result"
	"cpp-scratchpad/internal/wire"
)

const (
	DefaultURL               = "ws://localhost:3000/"
	DefaultHandshakeTimeout  = time.Second * 3
	DefaultInactivityTimeout = time.Second * 30
)

type Option func(c *Client)

// WithHandshakeTimeout bounds how long Connect waits for the websocket open.
func WithHandshakeTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.handshakeTimeout = timeout }
}

// WithInactivityTimeout sets how long a request may go without any message
// before it fails with backend.ErrTimeout.
func WithInactivityTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.inactivityTimeout = timeout }
}

type Client struct {
	backend.StateHolder

	url               string
	handshakeTimeout  time.Duration
	inactivityTimeout time.Duration

	// mu guards the connection, the queue of requests written before the
	// connection opened and the pending calls.
	mu      sync.Mutex
	conn    *websocket.Conn
	queue   [][]byte
	pending map[string]*call
	// order holds pending ids oldest first, id-less responses are routed to
	// the head.
	order []string

	// websocket connections support one concurrent writer.
	writeMu sync.Mutex
}

func New(url string, options ...Option) *Client {
	client := &Client{
		url:               url,
		handshakeTimeout:  DefaultHandshakeTimeout,
		inactivityTimeout: DefaultInactivityTimeout,
		pending:           map[string]*call{},
	}

	for _, option := range options {
		option(client)
	}

	return client
}

// Connect dials the daemon and reports whether the connection opened within
// the handshake timeout. A refused or slow daemon is not an error, it only
// means the primary backend is unavailable.
func (c *Client) Connect(ctx context.Context) bool {
	c.Begin()

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: c.handshakeTimeout,
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.handshakeTimeout)
	defer cancel()

	conn, _, err := dialer.DialContext(dialCtx, c.url, nil)

	if err != nil {
		log.Debug().Err(err).Str("url", c.url).Msg("primary backend unavailable")

		c.Settle(false)
		c.failAll(errors.Wrap(backend.ErrConnection, err.Error()))
		return false
	}

	// writes from requests that see the published connection wait for the
	// queue to be flushed.
	c.writeMu.Lock()

	c.mu.Lock()
	c.conn = conn
	queued := c.queue
	c.queue = nil
	c.mu.Unlock()

	for _, message := range queued {
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Warn().Err(err).Msg("failed to flush queued primary request")
		}
	}

	c.writeMu.Unlock()

	if !c.Settle(true) {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()

		_ = conn.Close()
		return false
	}

	log.Info().Str("url", c.url).Int("flushed", len(queued)).Msg("connected to primary backend")

	go c.readLoop(conn)
	return true
}

// CompileAndRun sends one compile-run request and blocks until the daemon
// reports a compile error or run completion for it.
func (c *Client) CompileAndRun(ctx context.Context, req *result.CompileRequest) (*result.StructuredPayload, error) {
	fileName := req.FileName
	if fileName == "" {
		fileName = result.DefaultFileName
	}

	pending := newCall(uuid.NewString())

	message, err := json.Marshal(wire.Request{
		Type:     wire.CompileRun,
		ID:       pending.id,
		Code:     req.SourceText,
		Input:    req.Stdin,
		FileName: fileName,
	})

	if err != nil {
		return nil, errors.Wrap(err, "failed to encode compile request")
	}

	if err := c.send(pending, message); err != nil {
		return nil, err
	}

	return c.await(ctx, pending)
}

// Close ends the connection, failing any in-flight requests.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		c.Lose()
		return nil
	}

	c.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()

	return conn.Close()
}

// send registers the call and writes its request, or queues the request when
// the connection has not opened yet.
func (c *Client) send(pending *call, message []byte) error {
	c.mu.Lock()

	if c.conn == nil && c.State() == backend.Unavailable {
		c.mu.Unlock()
		return errors.Wrap(backend.ErrConnection, "primary backend is not connected")
	}

	c.pending[pending.id] = pending
	c.order = append(c.order, pending.id)

	conn := c.conn
	if conn == nil {
		c.queue = append(c.queue, message)
		c.mu.Unlock()
		return nil
	}

	c.mu.Unlock()

	if err := c.write(conn, message); err != nil {
		c.remove(pending.id)
		return errors.Wrap(backend.ErrConnection, err.Error())
	}

	return nil
}

func (c *Client) await(ctx context.Context, pending *call) (*result.StructuredPayload, error) {
	timer := time.NewTimer(c.inactivityTimeout)
	defer timer.Stop()

	for {
		select {
		case done := <-pending.done:
			return done.payload, done.err

		case <-pending.activity:
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(c.inactivityTimeout)

		case <-timer.C:
			c.remove(pending.id)
			return nil, errors.Wrapf(backend.ErrTimeout, "no message for %s", c.inactivityTimeout)

		case <-ctx.Done():
			c.remove(pending.id)
			return nil, ctx.Err()
		}
	}
}

func (c *Client) write(conn *websocket.Conn, message []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return conn.WriteMessage(websocket.TextMessage, message)
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()

		if err != nil {
			c.disconnected(conn, err)
			return
		}

		var response wire.Response

		if err := json.Unmarshal(data, &response); err != nil {
			log.Warn().Err(err).Msg("malformed message from primary backend")
			c.failAll(errors.Wrap(backend.ErrProtocol, err.Error()))
			continue
		}

		c.dispatch(&response)
	}
}

func (c *Client) dispatch(response *wire.Response) {
	c.mu.Lock()
	pending := c.lookup(response.ID)

	if pending == nil {
		c.mu.Unlock()

		log.Debug().Str("id", response.ID).Str("type", string(response.Type)).
			Msg("dropping primary message without a pending request")
		return
	}

	if response.IsTerminal() {
		c.removeLocked(pending.id)
	}

	c.mu.Unlock()

	pending.touch()

	switch response.Type {
	case wire.Stdout:
		pending.stdout.WriteString(response.Data)

	case wire.Stderr:
		pending.stderr.WriteString(response.Data)

	case wire.RunComplete, wire.CompileError:
		pending.finish(pending.payload(response), nil)

	case wire.Error, wire.RunError:
		pending.finish(nil, errors.Wrap(backend.ErrProtocol, response.Message))

	default:
		log.Debug().Str("type", string(response.Type)).Msg("ignoring unknown primary message type")
	}
}

// lookup finds the call a response belongs to, the oldest pending call when
// the daemon did not echo an id.
func (c *Client) lookup(id string) *call {
	if id == "" {
		if len(c.order) == 0 {
			return nil
		}

		return c.pending[c.order[0]]
	}

	return c.pending[id]
}

func (c *Client) disconnected(conn *websocket.Conn, err error) {
	log.Info().Err(err).Msg("primary backend connection closed")

	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()

	c.Lose()
	c.failAll(errors.Wrap(backend.ErrConnection, "primary backend connection lost"))
}

func (c *Client) failAll(err error) {
	c.mu.Lock()
	calls := make([]*call, 0, len(c.order))

	for _, id := range c.order {
		calls = append(calls, c.pending[id])
	}

	c.pending = map[string]*call{}
	c.order = nil
	c.queue = nil
	c.mu.Unlock()

	for _, pending := range calls {
		pending.finish(nil, err)
	}
}

func (c *Client) remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.removeLocked(id)
}

func (c *Client) removeLocked(id string) {
	delete(c.pending, id)

	for i, pendingID := range c.order {
		if pendingID == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// PendingCount returns the number of requests awaiting a terminal response.
func (c *Client) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.pending)
}

type completion struct {
	payload *result.StructuredPayload
	err     error
}

type call struct {
	id       string
	stdout   strings.Builder
	stderr   strings.Builder
	activity chan struct{}
	done     chan completion
	once     sync.Once
}

func newCall(id string) *call {
	return &call{
		id:       id,
		activity: make(chan struct{}, 1),
		done:     make(chan completion, 1),
	}
}

func (c *call) touch() {
	select {
	case c.activity <- struct{}{}:
	default:
	}
}

func (c *call) finish(payload *result.StructuredPayload, err error) {
	c.once.Do(func() {
		c.done <- completion{payload: payload, err: err}
	})
}

func (c *call) payload(response *wire.Response) *result.StructuredPayload {
	return &result.StructuredPayload{
		Terminal:       string(response.Type),
		Message:        response.Message,
		Success:        response.Success,
		Output:         response.Output,
		Error:          response.ErrorOutput,
		ExitCode:       response.ExitCode,
		CompileTimeMs:  response.CompileTime,
		RunTimeMs:      response.RunTime,
		MemoryBytes:    response.Memory,
		StreamedStdout: c.stdout.String(),
		StreamedStderr: c.stderr.String(),
	}
}
