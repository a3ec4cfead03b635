package litetable

import (
	"errors"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestNewError(t *testing.T) {
	req := require.New(t)

	t.Run("test error wrapping", func(t *testing.T) {
		err := NewError(ErrMalformedChunk, "test error")
		req.NotNil(err)
		req.Implements((*error)(nil), err)

		req.Equal(ErrMalformedChunk, err.Err)
		req.True(errors.Is(err, ErrMalformedChunk))
		req.False(errors.Is(err, ErrOrderViolation))
	})

	t.Run("test error wrapping with context", func(t *testing.T) {
		err := NewError(ErrInvalidFilterTree, "test error: %s", "context")
		req.True(errors.Is(err, ErrInvalidFilterTree))
		req.Equal("invalid filter tree: test error: context", err.Error())
	})

	t.Run("test error without context", func(t *testing.T) {
		err := &Error{Err: ErrIncompleteStream}
		req.Equal("incomplete stream", err.Error())
	})
}
