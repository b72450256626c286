package wsfeed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/artpar/awsbrowse/internal/resources"
	"github.com/artpar/awsbrowse/internal/source"
)

// Client is a source.Source backed by a remote agent.
type Client struct {
	conn   *websocket.Conn
	config *Config
	log    logr.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan Response
	closed  bool
	done    chan struct{}
}

var _ source.Source = (*Client)(nil)

// Dial connects to the agent at endpoint (a ws:// or wss:// URL).
func Dial(ctx context.Context, endpoint string, config *Config, log logr.Logger) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: config.ConnectTimeout,
		ReadBufferSize:   4096,
		WriteBufferSize:  4096,
	}
	connectCtx, cancel := context.WithTimeout(ctx, config.ConnectTimeout)
	defer cancel()

	conn, resp, err := dialer.DialContext(connectCtx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to agent: %w", err)
	}
	resp.Body.Close()
	if config.MaxMessageSize > 0 {
		conn.SetReadLimit(config.MaxMessageSize)
	}

	c := &Client{
		conn:    conn,
		config:  config,
		log:     log.WithValues("agent", endpoint),
		pending: make(map[string]chan Response),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) readLoop() {
	defer c.shutdown()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				c.log.V(1).Info("agent connection ended", "error", err.Error())
			}
			return
		}

		var resp Response
		if err := json.Unmarshal(data, &resp); err != nil {
			c.log.Error(err, "discarding malformed response")
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		delete(c.pending, resp.ID)
		c.mu.Unlock()
		if !ok {
			c.log.V(1).Info("discarding unsolicited response", "id", resp.ID)
			continue
		}
		ch <- resp
	}
}

// shutdown fails every pending request.
func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
	clear(c.pending)
}

// List asks the agent for the top-level resources of kind.
func (c *Client) List(ctx context.Context, kind resources.Kind) ([]resources.Resource, error) {
	return c.call(ctx, Request{Op: OpList, Kind: kind})
}

// Children asks the agent for the children of key.
func (c *Client) Children(ctx context.Context, kind resources.Kind, key string) ([]resources.Resource, error) {
	return c.call(ctx, Request{Op: OpChildren, Kind: kind, Key: key})
}

func (c *Client) call(ctx context.Context, req Request) ([]resources.Resource, error) {
	req.ID = uuid.NewString()
	ch := make(chan Response, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, source.ErrClosed
	}
	c.pending[req.ID] = ch
	c.mu.Unlock()

	if err := c.write(req); err != nil {
		c.forget(req.ID)
		return nil, err
	}

	select {
	case resp := <-ch:
		if resp.Error != "" {
			return nil, &RemoteError{Message: resp.Error, Code: resp.Code}
		}
		if resp.Resources == nil {
			resp.Resources = []resources.Resource{}
		}
		return resp.Resources, nil
	case <-ctx.Done():
		c.forget(req.ID)
		return nil, ctx.Err()
	case <-c.done:
		return nil, source.ErrClosed
	}
}

func (c *Client) write(req Request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.config.WriteTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	return nil
}

func (c *Client) forget(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// Close closes the connection. Pending requests fail with source.ErrClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	c.writeMu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	c.writeMu.Unlock()

	err := c.conn.Close()
	c.shutdown()
	return err
}
