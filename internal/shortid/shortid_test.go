package shortid

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("length and alphabet", func(t *testing.T) {
		for i := 0; i < 200; i++ {
			id, err := New(Length)
			require.NoError(t, err)
			require.Len(t, id, Length)
			require.True(t, Valid(id), "unexpected id %q", id)
		}
	})

	t.Run("invalid length", func(t *testing.T) {
		_, err := New(0)
		assert.Error(t, err)
	})

	t.Run("no repeats in a small sample", func(t *testing.T) {
		seen := make(map[string]struct{}, 1000)
		for i := 0; i < 1000; i++ {
			id, err := New(Length)
			require.NoError(t, err)
			_, dup := seen[id]
			require.False(t, dup, "duplicate id %q", id)
			seen[id] = struct{}{}
		}
	})
}

func TestUnique(t *testing.T) {
	t.Run("retries on collision", func(t *testing.T) {
		calls := 0
		id, err := Unique(Length, func(string) (bool, error) {
			calls++
			return calls < 3, nil
		})
		require.NoError(t, err)
		assert.Len(t, id, Length)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		_, err := Unique(Length, func(string) (bool, error) { return true, nil })
		assert.ErrorIs(t, err, ErrExhausted)
	})

	t.Run("propagates lookup error", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := Unique(Length, func(string) (bool, error) { return false, boom })
		assert.ErrorIs(t, err, boom)
	})

	t.Run("nil exists skips the check", func(t *testing.T) {
		id, err := Unique(8, nil)
		require.NoError(t, err)
		assert.Len(t, id, 8)
	})
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("abcdEFGH12345678"))
	assert.False(t, Valid("abcdEFGH1234567"))
	assert.False(t, Valid("abcdEFGH1234567."))
	assert.False(t, Valid("abcdEFGH1234567-"))
}
