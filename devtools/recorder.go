package devtools

import "sync"

// Recorder is an in-memory Connector for tests and demos. Each Connect
// call yields a RecorderConn that keeps everything sent to it and lets
// the caller dispatch replay commands back.
type Recorder struct {
	mu    sync.Mutex
	conns []*RecorderConn
}

// Connect opens a recording connection.
func (r *Recorder) Connect(name string) (Conn, error) {
	c := &RecorderConn{name: name, handlers: make(map[int]func(Message))}
	r.mu.Lock()
	r.conns = append(r.conns, c)
	r.mu.Unlock()
	return c, nil
}

// Conns returns every connection opened so far.
func (r *Recorder) Conns() []*RecorderConn {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*RecorderConn(nil), r.conns...)
}

// Entry is one recorded Send call.
type Entry struct {
	Action Action
	State  []byte
}

// RecorderConn records the traffic of one connection.
type RecorderConn struct {
	mu           sync.Mutex
	name         string
	baseline     []byte
	entries      []Entry
	faults       []string
	handlers     map[int]func(Message)
	nextID       int
	unsubscribed bool
}

// Name returns the name the connection was opened with.
func (c *RecorderConn) Name() string {
	return c.name
}

// Init records the announced baseline.
func (c *RecorderConn) Init(state []byte) error {
	c.mu.Lock()
	c.baseline = append([]byte(nil), state...)
	c.mu.Unlock()
	return nil
}

// Send records one labeled transition.
func (c *RecorderConn) Send(action Action, state []byte) error {
	c.mu.Lock()
	c.entries = append(c.entries, Entry{Action: action, State: append([]byte(nil), state...)})
	c.mu.Unlock()
	return nil
}

// Subscribe registers an inbound handler.
func (c *RecorderConn) Subscribe(handler func(Message)) func() {
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

// Unsubscribe drops all handlers.
func (c *RecorderConn) Unsubscribe() {
	c.mu.Lock()
	c.handlers = make(map[int]func(Message))
	c.unsubscribed = true
	c.mu.Unlock()
}

// Error records a reported fault.
func (c *RecorderConn) Error(msg string) {
	c.mu.Lock()
	c.faults = append(c.faults, msg)
	c.mu.Unlock()
}

// Dispatch delivers a replay command to subscribed handlers.
func (c *RecorderConn) Dispatch(msg Message) {
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

// Entries returns the recorded transitions in order.
func (c *RecorderConn) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Entry(nil), c.entries...)
}

// Baseline returns the most recently announced baseline state.
func (c *RecorderConn) Baseline() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.baseline...)
}

// Faults returns the recorded error reports.
func (c *RecorderConn) Faults() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.faults...)
}

// Unsubscribed reports whether Unsubscribe was called.
func (c *RecorderConn) Unsubscribed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unsubscribed
}
