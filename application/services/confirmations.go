package services

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Rysh-29/Neuromap/domain/core/valueobjects"
	pkgerrors "github.com/Rysh-29/Neuromap/pkg/errors"
)

// DefaultConfirmationTTL is how long a pending action stays confirmable
const DefaultConfirmationTTL = 5 * time.Minute

// ActionKind identifies a destructive operation awaiting confirmation
type ActionKind string

const (
	ActionClearAll   ActionKind = "clear_all"
	ActionDeleteNode ActionKind = "delete_node"
)

// PendingAction is a destructive operation that runs only once confirmed
type PendingAction struct {
	Token     string               `json:"token"`
	Kind      ActionKind           `json:"kind"`
	NodeID    *valueobjects.NodeID `json:"nodeId,omitempty"`
	ExpiresAt time.Time            `json:"expiresAt"`
}

// Confirmations tracks pending actions by token. A token is consumed by
// the first Take or Discard; expired tokens behave as unknown.
type Confirmations struct {
	mu      sync.Mutex
	pending map[string]PendingAction
	ttl     time.Duration
	now     func() time.Time
}

// NewConfirmations creates an empty registry
func NewConfirmations(ttl time.Duration, now func() time.Time) *Confirmations {
	if ttl <= 0 {
		ttl = DefaultConfirmationTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Confirmations{
		pending: make(map[string]PendingAction),
		ttl:     ttl,
		now:     now,
	}
}

// Request registers a new pending action
func (c *Confirmations) Request(kind ActionKind, nodeID *valueobjects.NodeID) PendingAction {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.purgeLocked()

	action := PendingAction{
		Token:     uuid.New().String(),
		Kind:      kind,
		ExpiresAt: c.now().Add(c.ttl),
	}
	if nodeID != nil {
		id := *nodeID
		action.NodeID = &id
	}
	c.pending[action.Token] = action
	return action
}

// Take removes and returns the pending action for token
func (c *Confirmations) Take(token string) (PendingAction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	action, ok := c.pending[token]
	if !ok {
		return PendingAction{}, pkgerrors.NewNotFoundError("pending action")
	}
	delete(c.pending, token)

	if !c.now().Before(action.ExpiresAt) {
		return PendingAction{}, pkgerrors.NewNotFoundError("pending action").WithCode("EXPIRED")
	}
	return action, nil
}

// Discard drops the pending action for token without running it
func (c *Confirmations) Discard(token string) error {
	_, err := c.Take(token)
	return err
}

// Len returns the number of live pending actions
func (c *Confirmations) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.purgeLocked()
	return len(c.pending)
}

func (c *Confirmations) purgeLocked() {
	now := c.now()
	for token, action := range c.pending {
		if !now.Before(action.ExpiresAt) {
			delete(c.pending, token)
		}
	}
}
