package devtools

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// MessageDispatch is the inbound message type carrying replay commands.
const MessageDispatch = "DISPATCH"

// Replay command payload types.
const (
	PayloadReset        = "RESET"
	PayloadCommit       = "COMMIT"
	PayloadRollback     = "ROLLBACK"
	PayloadJumpToState  = "JUMP_TO_STATE"
	PayloadJumpToAction = "JUMP_TO_ACTION"
)

// Action labels one state transition sent to the inspection tool. IDs are
// ULIDs, so a recorded sequence sorts in emission order.
type Action struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	Time time.Time `json:"time"`
}

func newAction(label string) Action {
	return Action{
		ID:   ulid.Make().String(),
		Type: label,
		Time: time.Now(),
	}
}

// Payload identifies the replay command inside a DISPATCH message.
type Payload struct {
	Type string `json:"type"`
}

// Message is an inbound command from the inspection tool. For
// ROLLBACK-style and JUMP-style commands, State carries the serialized
// state to reapply.
type Message struct {
	Type    string  `json:"type"`
	Payload Payload `json:"payload"`
	State   string  `json:"state,omitempty"`
}

// Conn is an active connection to an inspection tool.
type Conn interface {
	// Init announces a baseline state.
	Init(state []byte) error
	// Send mirrors one labeled transition.
	Send(action Action, state []byte) error
	// Subscribe registers an inbound command handler and returns its
	// unsubscribe closure.
	Subscribe(handler func(Message)) func()
	// Unsubscribe drops all handlers and releases the connection.
	Unsubscribe()
	// Error reports a fault back to the tool.
	Error(msg string)
}

// Connector opens connections to an inspection tool.
type Connector interface {
	Connect(name string) (Conn, error)
}
