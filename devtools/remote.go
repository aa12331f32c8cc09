package devtools

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
)

// RemoteConnector speaks JSON frames over a websocket to a remote
// inspection tool. Outbound frames carry a type of INIT, ACTION, or
// ERROR; inbound frames are DISPATCH replay commands.
type RemoteConnector struct {
	// URL is the websocket endpoint, e.g. ws://localhost:8000/devtools.
	URL string
	// Dialer overrides the default websocket dialer.
	Dialer *websocket.Dialer
	// Logger receives read-loop faults. Defaults to a discard logger.
	Logger *slog.Logger
}

// Connect dials the endpoint and starts the inbound read loop.
func (r *RemoteConnector) Connect(name string) (Conn, error) {
	dialer := r.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	ws, _, err := dialer.Dial(r.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("devtools: dial %s: %w", r.URL, err)
	}
	log := r.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	c := &remoteConn{
		ws:       ws,
		name:     name,
		log:      log,
		handlers: make(map[int]func(Message)),
	}
	go c.readLoop()
	return c, nil
}

type remoteConn struct {
	name string
	log  *slog.Logger

	writeMu sync.Mutex
	ws      *websocket.Conn

	mu       sync.Mutex
	handlers map[int]func(Message)
	nextID   int
	closed   bool
}

type remoteFrame struct {
	Type    string          `json:"type"`
	Name    string          `json:"name"`
	Action  *Action         `json:"action,omitempty"`
	State   json.RawMessage `json:"state,omitempty"`
	Message string          `json:"message,omitempty"`
}

func (c *remoteConn) Init(state []byte) error {
	return c.writeFrame(remoteFrame{Type: "INIT", Name: c.name, State: state})
}

func (c *remoteConn) Send(action Action, state []byte) error {
	return c.writeFrame(remoteFrame{Type: "ACTION", Name: c.name, Action: &action, State: state})
}

func (c *remoteConn) Error(msg string) {
	if err := c.writeFrame(remoteFrame{Type: "ERROR", Name: c.name, Message: msg}); err != nil {
		c.log.Debug("error report failed", "name", c.name, "error", err)
	}
}

func (c *remoteConn) writeFrame(frame remoteFrame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.WriteJSON(frame); err != nil {
		return fmt.Errorf("devtools: write %s frame: %w", frame.Type, err)
	}
	return nil
}

func (c *remoteConn) Subscribe(handler func(Message)) func() {
	if handler == nil {
		return func() {}
	}
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.handlers[id] = handler
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.handlers, id)
			c.mu.Unlock()
		})
	}
}

// Unsubscribe drops all handlers and closes the socket.
func (c *remoteConn) Unsubscribe() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.handlers = make(map[int]func(Message))
	c.mu.Unlock()
	if err := c.ws.Close(); err != nil {
		c.log.Debug("close failed", "name", c.name, "error", err)
	}
}

func (c *remoteConn) readLoop() {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if !closed {
				c.log.Debug("read loop ended", "name", c.name, "error", err)
			}
			return
		}
		msg := parseMessage(data)
		c.mu.Lock()
		handlers := make([]func(Message), 0, len(c.handlers))
		for _, h := range c.handlers {
			handlers = append(handlers, h)
		}
		c.mu.Unlock()
		for _, h := range handlers {
			h(msg)
		}
	}
}

// parseMessage extracts the DISPATCH fields from a raw inbound frame.
func parseMessage(data []byte) Message {
	return Message{
		Type:    gjson.GetBytes(data, "type").String(),
		Payload: Payload{Type: gjson.GetBytes(data, "payload.type").String()},
		State:   gjson.GetBytes(data, "state").String(),
	}
}
