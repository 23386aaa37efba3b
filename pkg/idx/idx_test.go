package idx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("generates valid ulids", func(t *testing.T) {
		id := New()
		require.False(t, id.IsZero())

		parsed, err := Parse(id.String())
		require.NoError(t, err)
		require.Equal(t, id, parsed)
	})

	t.Run("ids are monotonic within a tick", func(t *testing.T) {
		a := New()
		b := New()
		require.Less(t, a.String(), b.String())
	})
}

func TestNewAt(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	id := NewAt(at)

	require.WithinDuration(t, at, id.Time(), time.Millisecond)
}

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("rejects empty", func(t *testing.T) {
		_, err := Parse("")
		require.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := Parse("not-a-ulid")
		require.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("trims whitespace", func(t *testing.T) {
		id := New()
		parsed, err := Parse("  " + id.String() + "  ")
		require.NoError(t, err)
		require.Equal(t, id, parsed)
	})
}
