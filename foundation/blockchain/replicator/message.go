package replicator

import (
	"encoding/json"
	"fmt"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// MessageType identifies the payload carried by a message. The set of types
// is closed, decoding an unknown type fails.
type MessageType int

// Set of message types exchanged between peers.
const (
	MessageChain MessageType = iota + 1
	MessageTransaction
	MessageBlock
	MessageRequestChain
)

var messageTypes = map[MessageType]string{
	MessageChain:        "CHAIN",
	MessageTransaction:  "TRANSACTION",
	MessageBlock:        "BLOCK",
	MessageRequestChain: "REQUEST_CHAIN",
}

// ParseMessageType converts the wire name into a message type.
func ParseMessageType(name string) (MessageType, error) {
	for mt, n := range messageTypes {
		if n == name {
			return mt, nil
		}
	}

	return 0, fmt.Errorf("unknown message type %q", name)
}

// String implements the fmt.Stringer interface.
func (mt MessageType) String() string {
	if name, exists := messageTypes[mt]; exists {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(mt))
}

// MarshalJSON implements the json.Marshaler interface.
func (mt MessageType) MarshalJSON() ([]byte, error) {
	name, exists := messageTypes[mt]
	if !exists {
		return nil, fmt.Errorf("unknown message type %d", int(mt))
	}
	return json.Marshal(name)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (mt *MessageType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}

	parsed, err := ParseMessageType(name)
	if err != nil {
		return err
	}

	*mt = parsed
	return nil
}

// =============================================================================

// Message is the envelope for everything sent between peers.
type Message struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewMessage constructs a message with the payload encoded as JSON.
func NewMessage(mt MessageType, payload any) (Message, error) {
	msg := Message{Type: mt}

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Message{}, fmt.Errorf("encoding %s payload: %w", mt, err)
		}
		msg.Data = data
	}

	return msg, nil
}

// Decode unmarshals the payload into the specified value.
func (m Message) Decode(v any) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("%s message has no data", m.Type)
	}

	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("decoding %s payload: %w", m.Type, err)
	}

	return nil
}

// =============================================================================

// NewChainMessage constructs a CHAIN message carrying every block.
func NewChainMessage(blocks []database.Block) (Message, error) {
	return NewMessage(MessageChain, database.NewChainData(blocks))
}

// NewTransactionMessage constructs a TRANSACTION message.
func NewTransactionMessage(tx database.Tx) (Message, error) {
	return NewMessage(MessageTransaction, database.NewTxData(tx))
}

// NewBlockMessage constructs a BLOCK message.
func NewBlockMessage(block database.Block) (Message, error) {
	return NewMessage(MessageBlock, database.NewBlockData(block))
}

// NewRequestChainMessage constructs a REQUEST_CHAIN message.
func NewRequestChainMessage() Message {
	return Message{Type: MessageRequestChain}
}
