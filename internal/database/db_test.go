package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPoolWithDefaults(t *testing.T) {
	t.Run("zero value gets the full default set", func(t *testing.T) {
		p := Pool{}.withDefaults()
		require.Equal(t, 25, p.MaxOpen)
		require.Equal(t, 25, p.MaxIdle)
		require.Equal(t, 30*time.Minute, p.MaxLifetime)
		require.Equal(t, 5*time.Second, p.PingTimeout)
	})
	t.Run("idle bound follows a custom open bound", func(t *testing.T) {
		p := Pool{MaxOpen: 10}.withDefaults()
		require.Equal(t, 10, p.MaxIdle)
	})
	t.Run("explicit values are kept", func(t *testing.T) {
		in := Pool{MaxOpen: 4, MaxIdle: 2, MaxLifetime: time.Minute, PingTimeout: time.Second}
		require.Equal(t, in, in.withDefaults())
	})
}
