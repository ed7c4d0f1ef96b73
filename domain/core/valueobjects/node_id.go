package valueobjects

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

// NodeID is a value object representing a unique node identifier.
// Identifiers are generated from the creation timestamp in milliseconds,
// so they sort in creation order.
type NodeID struct {
	value string
}

// NewNodeIDFromTime creates a NodeID from a creation timestamp
func NewNodeIDFromTime(t time.Time) NodeID {
	return NodeID{value: strconv.FormatInt(t.UnixMilli(), 10)}
}

// NewNodeIDFromString creates a NodeID from an existing string
func NewNodeIDFromString(id string) (NodeID, error) {
	if id == "" {
		return NodeID{}, errors.New("node ID cannot be empty")
	}
	return NodeID{value: id}, nil
}

// MustNodeID creates a NodeID and panics on an empty string. Intended for
// constants and tests.
func MustNodeID(id string) NodeID {
	nodeID, err := NewNodeIDFromString(id)
	if err != nil {
		panic(err)
	}
	return nodeID
}

// Next returns the identifier one millisecond after this one. Non-numeric
// identifiers get a numeric suffix instead.
func (id NodeID) Next() NodeID {
	if n, err := strconv.ParseInt(id.value, 10, 64); err == nil {
		return NodeID{value: strconv.FormatInt(n+1, 10)}
	}
	return NodeID{value: id.value + "-1"}
}

// String returns the string representation of the NodeID
func (id NodeID) String() string {
	return id.value
}

// Equals checks if two NodeIDs are equal
func (id NodeID) Equals(other NodeID) bool {
	return id.value == other.value
}

// IsZero checks if the NodeID is the zero value
func (id NodeID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id NodeID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.value)
}

// UnmarshalJSON implements json.Unmarshaler
func (id *NodeID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.New("NodeID must be a string")
	}
	id.value = s
	return nil
}
