package backend

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestStateTransitions(t *testing.T) {
	t.Run("should move through a successful attempt", func(t *testing.T) {
		var holder StateHolder

		assert.Equal(t, Unknown, holder.State())

		holder.Begin()
		assert.Equal(t, Connecting, holder.State())

		assert.True(t, holder.Settle(true))
		assert.Equal(t, Ready, holder.State())

		holder.Lose()
		assert.Equal(t, Unavailable, holder.State())
	})

	t.Run("should not settle twice for the same attempt", func(t *testing.T) {
		var holder StateHolder

		holder.Begin()
		assert.True(t, holder.Settle(false))
		assert.False(t, holder.Settle(true))
		assert.Equal(t, Unavailable, holder.State())
	})

	t.Run("should not revive an unavailable backend on loss", func(t *testing.T) {
		var holder StateHolder

		holder.Begin()
		holder.Settle(false)
		holder.Lose()

		assert.Equal(t, Unavailable, holder.State())
	})
}

func TestIsFallback(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "connection", err: errors.Wrap(ErrConnection, "dial"), want: true},
		{name: "timeout", err: ErrTimeout, want: true},
		{name: "protocol", err: errors.Wrapf(ErrProtocol, "message %d", 1), want: true},
		{name: "sandbox init", err: ErrSandboxInit, want: true},
		{name: "context cancelled", err: context.Canceled, want: false},
		{name: "unrelated", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFallback(tt.err))
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "primary", Primary.String())
	assert.Equal(t, "sandbox", Sandbox.String())
	assert.Equal(t, "static-check", StaticCheck.String())
	assert.Equal(t, "Ready", Ready.String())
}
