package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rysh-29/Neuromap/domain/core/valueobjects"
	pkgerrors "github.com/Rysh-29/Neuromap/pkg/errors"
)

func TestConfirmations_RequestAndTake(t *testing.T) {
	now := testNow
	c := NewConfirmations(time.Minute, func() time.Time { return now })
	id := valueobjects.MustNodeID("42")

	action := c.Request(ActionDeleteNode, &id)
	assert.NotEmpty(t, action.Token)
	assert.Equal(t, now.Add(time.Minute), action.ExpiresAt)
	require.NotNil(t, action.NodeID)
	assert.Equal(t, "42", action.NodeID.String())
	assert.Equal(t, 1, c.Len())

	taken, err := c.Take(action.Token)
	require.NoError(t, err)
	assert.Equal(t, action, taken)
	assert.Equal(t, 0, c.Len())

	_, err = c.Take(action.Token)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestConfirmations_Expiry(t *testing.T) {
	now := testNow
	c := NewConfirmations(time.Minute, func() time.Time { return now })

	action := c.Request(ActionClearAll, nil)
	now = now.Add(time.Minute)

	_, err := c.Take(action.Token)
	require.True(t, pkgerrors.IsNotFound(err))
	assert.Equal(t, "EXPIRED", pkgerrors.GetAppError(err).Code)
}

func TestConfirmations_PurgesExpired(t *testing.T) {
	now := testNow
	c := NewConfirmations(time.Minute, func() time.Time { return now })

	c.Request(ActionClearAll, nil)
	c.Request(ActionClearAll, nil)
	now = now.Add(2 * time.Minute)
	c.Request(ActionClearAll, nil)

	assert.Equal(t, 1, c.Len())
}

func TestConfirmations_Discard(t *testing.T) {
	c := NewConfirmations(0, nil)
	action := c.Request(ActionClearAll, nil)

	require.NoError(t, c.Discard(action.Token))
	assert.True(t, pkgerrors.IsNotFound(c.Discard(action.Token)))
	assert.True(t, pkgerrors.IsNotFound(c.Discard("never-issued")))
}
