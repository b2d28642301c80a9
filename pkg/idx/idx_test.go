package idx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("generates unique ids", func(t *testing.T) {
		seen := make(map[ID]struct{})
		for range 1000 {
			id := New()
			_, dup := seen[id]
			require.False(t, dup)
			seen[id] = struct{}{}
		}
	})

	t.Run("ids are sortable by time", func(t *testing.T) {
		earlier := NewAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
		later := NewAt(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
		require.Less(t, earlier.String(), later.String())
	})
}

func TestParse(t *testing.T) {
	t.Run("round trips a generated id", func(t *testing.T) {
		id := New()
		parsed, err := Parse(id.String())
		require.NoError(t, err)
		require.Equal(t, id, parsed)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := Parse("not-a-ulid")
		require.ErrorIs(t, err, ErrInvalid)

		_, err = Parse("")
		require.ErrorIs(t, err, ErrInvalid)
	})
}
